package object

import (
	"github.com/kristofer/jscore/internal/heap"
	"github.com/kristofer/jscore/internal/value"
)

// IterResult is the {value, done} pair the iterator protocol's next()
// returns, materialized as a two-field ordinary object by the VM when a
// script calls .next() rather than carried as a bare Go struct.
type IterResult struct {
	Value value.Value
	Done  bool
}

// Iterate is the single operation every Iterator object supports.
// Array iterators close over an index into the backing Array and
// for-in key iterators over a snapshot of own keys. Generators are a
// separate object kind (GeneratorObject) with their own next(); the
// for-of desugaring in the parser only calls .next(), so it never
// needs to know which kind it's driving.
type Iterate func() (IterResult, error)

// Iterator is the iterator object kind: an ordinary property store (so
// a script can still read/write arbitrary properties on it) plus the
// Next closure that actually advances it.
type Iterator struct {
	proto value.Value
	props propStore
	Next  Iterate

	// keepAlive anchors any heap-resident state the Next closure
	// captures by ObjectId (the array or generator frame being
	// iterated), so a GC pass run between two .next() calls doesn't
	// collect it out from under the closure.
	keepAlive []value.ObjectId
}

func NewIterator(proto value.Value, next Iterate, keepAlive ...value.ObjectId) *Iterator {
	return &Iterator{proto: proto, Next: next, keepAlive: keepAlive}
}

func (it *Iterator) Prototype() value.Value     { return it.proto }
func (it *Iterator) SetPrototype(v value.Value) { it.proto = v }

func (it *Iterator) GetOwn(key PropertyKey) (PropertyValue, bool) { return it.props.get(key) }
func (it *Iterator) SetOwn(key PropertyKey, val PropertyValue)    { it.props.set(key, val) }
func (it *Iterator) DeleteOwn(key PropertyKey) bool               { return it.props.delete(key) }
func (it *Iterator) OwnKeys() []PropertyKey                       { return it.props.keys() }

func (it *Iterator) Trace(t *heap.Tracer) {
	t.MarkValue(it.proto)
	for _, id := range it.keepAlive {
		t.MarkID(id)
	}
	for _, e := range it.props.entries {
		if e.val.Kind == PropStatic {
			t.MarkValue(e.val.Static)
		} else {
			if e.val.Getter != value.NilObjectId {
				t.MarkID(e.val.Getter)
			}
			if e.val.Setter != value.NilObjectId {
				t.MarkID(e.val.Setter)
			}
		}
	}
}

// NewArrayIterator builds the Iterate closure for `for (const x of arr)`
// through Array.prototype's "@@iterator" method: iterates by index, re-fetching
// the Array through
// h on every call (rather than closing over the *Array pointer
// directly) so the array's cell stays reachable through keepAlive and
// reflects any mutation made between .next() calls.
func NewArrayIterator(proto value.Value, h Heap, arrayID value.ObjectId) *Iterator {
	i := 0
	next := func() (IterResult, error) {
		arr, _ := h.Get(arrayID).(*Array)
		if arr == nil || i >= len(arr.Elements) {
			return IterResult{Value: value.Undefined(), Done: true}, nil
		}
		v := arr.Elements[i]
		i++
		return IterResult{Value: v, Done: false}, nil
	}
	return NewIterator(proto, next, arrayID)
}
