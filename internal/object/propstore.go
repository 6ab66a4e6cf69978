package object

// propStore is the Linear-shape property vector: keys partitioned by
// kind (all string keys, then symbol keys, then index keys), each
// partition in insertion order. It starts
// empty (capacity 0, which stands in for the Cow shape's "no
// properties yet" state) and grows by doubling to the next power of
// two once entries are inserted, with an initial capacity of 4.
//
// Go's slice header already gives us a capacity/length split; what
// this type adds on top is the strict partition invariant (exercised
// by object_test.go's key-order tests) and the power-of-two growth
// policy.
type propEntry struct {
	key PropertyKey
	val PropertyValue
}

type propStore struct {
	entries                             []propEntry
	stringCount, symbolCount, indexCount int
}

const initialCapacity = 4

func nextPow2(n int) int {
	if n <= initialCapacity {
		return initialCapacity
	}
	c := initialCapacity
	for c < n {
		c *= 2
	}
	return c
}

// ensureCap grows the backing array to the next power of two ≥ need,
// copying the existing partitioned contents, matching "on grow, all
// three sections are copied to the new allocation."
func (p *propStore) ensureCap(need int) {
	if cap(p.entries) >= need {
		return
	}
	newCap := nextPow2(need)
	fresh := make([]propEntry, len(p.entries), newCap)
	copy(fresh, p.entries)
	p.entries = fresh
}

// partitionBounds returns the [start,end) slice bounds for the
// partition matching kind, so lookups can skip inapplicable
// partitions entirely.
func (p *propStore) partitionBounds(kind KeyKind) (start, end int) {
	switch kind {
	case KeyString:
		return 0, p.stringCount
	case KeySymbol:
		return p.stringCount, p.stringCount + p.symbolCount
	default:
		return p.stringCount + p.symbolCount, p.stringCount + p.symbolCount + p.indexCount
	}
}

func (p *propStore) get(key PropertyKey) (PropertyValue, bool) {
	start, end := p.partitionBounds(key.kind)
	for i := start; i < end; i++ {
		if p.entries[i].key.Equal(key) {
			return p.entries[i].val, true
		}
	}
	return PropertyValue{}, false
}

func (p *propStore) indexOf(key PropertyKey) int {
	start, end := p.partitionBounds(key.kind)
	for i := start; i < end; i++ {
		if p.entries[i].key.Equal(key) {
			return i
		}
	}
	return -1
}

// set overwrites an existing entry in place, or inserts a new one at
// the end of the matching partition (which is the start of the next
// partition), shifting later partitions right by one.
func (p *propStore) set(key PropertyKey, val PropertyValue) {
	if i := p.indexOf(key); i >= 0 {
		p.entries[i].val = val
		return
	}

	_, insertAt := p.partitionBounds(key.kind)
	p.ensureCap(len(p.entries) + 1)
	p.entries = append(p.entries, propEntry{})
	copy(p.entries[insertAt+1:], p.entries[insertAt:len(p.entries)-1])
	p.entries[insertAt] = propEntry{key: key, val: val}

	switch key.kind {
	case KeyString:
		p.stringCount++
	case KeySymbol:
		p.symbolCount++
	case KeyIndex:
		p.indexCount++
	}
}

func (p *propStore) delete(key PropertyKey) bool {
	i := p.indexOf(key)
	if i < 0 {
		return false
	}
	copy(p.entries[i:], p.entries[i+1:])
	p.entries = p.entries[:len(p.entries)-1]
	switch key.kind {
	case KeyString:
		p.stringCount--
	case KeySymbol:
		p.symbolCount--
	case KeyIndex:
		p.indexCount--
	}
	return true
}

// keys returns every key in invariant order: string keys in insertion
// order, then symbol keys in insertion order, then index keys in
// insertion order.
func (p *propStore) keys() []PropertyKey {
	out := make([]PropertyKey, len(p.entries))
	for i, e := range p.entries {
		out[i] = e.key
	}
	return out
}

func (p *propStore) len() int { return len(p.entries) }
