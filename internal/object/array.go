package object

import (
	"github.com/kristofer/jscore/internal/heap"
	"github.com/kristofer/jscore/internal/interner"
	"github.com/kristofer/jscore/internal/value"
)

// Array is a specialized object kind: dense indexed storage plus the
// ordinary property store for any non-index, non-"length" property a
// script adds. The "length" property is synthesized from len(Elements)
// rather than stored, and writes to "length" truncate/extend Elements.
type Array struct {
	proto    value.Value
	Elements []value.Value
	extra    propStore
}

func NewArray(proto value.Value, elements []value.Value) *Array {
	return &Array{proto: proto, Elements: elements}
}

func (a *Array) Prototype() value.Value     { return a.proto }
func (a *Array) SetPrototype(v value.Value) { a.proto = v }

func (a *Array) GetOwn(key PropertyKey) (PropertyValue, bool) {
	if key.Kind() == KeyIndex {
		if int(key.Index()) < len(a.Elements) {
			return StaticProperty(a.Elements[key.Index()]), true
		}
		return PropertyValue{}, false
	}
	if key.Kind() == KeyString && key.StringSymbol() == interner.Length {
		return StaticProperty(value.Number(float64(len(a.Elements)))), true
	}
	return a.extra.get(key)
}

func (a *Array) SetOwn(key PropertyKey, val PropertyValue) {
	if key.Kind() == KeyIndex {
		idx := int(key.Index())
		for idx >= len(a.Elements) {
			a.Elements = append(a.Elements, value.Undefined())
		}
		a.Elements[idx] = val.Static
		return
	}
	if key.Kind() == KeyString && key.StringSymbol() == interner.Length {
		n := int(val.Static.AsNumber())
		if n < len(a.Elements) {
			a.Elements = a.Elements[:n]
		} else {
			for len(a.Elements) < n {
				a.Elements = append(a.Elements, value.Undefined())
			}
		}
		return
	}
	a.extra.set(key, val)
}

func (a *Array) DeleteOwn(key PropertyKey) bool {
	if key.Kind() == KeyIndex {
		idx := int(key.Index())
		if idx < len(a.Elements) {
			a.Elements[idx] = value.Undefined()
			return true
		}
		return false
	}
	return a.extra.delete(key)
}

func (a *Array) OwnKeys() []PropertyKey {
	keys := make([]PropertyKey, 0, len(a.Elements)+a.extra.len())
	// string/symbol keys precede index keys per the invariant order.
	for _, k := range a.extra.keys() {
		keys = append(keys, k)
	}
	for i := range a.Elements {
		keys = append(keys, IndexKey(uint32(i)))
	}
	return keys
}

func (a *Array) Trace(t *heap.Tracer) {
	t.MarkValue(a.proto)
	for _, v := range a.Elements {
		t.MarkValue(v)
	}
	for _, e := range a.extra.entries {
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

// Push appends to the end, implementing the `push` builtin method.
func (a *Array) Push(v value.Value) int {
	a.Elements = append(a.Elements, v)
	return len(a.Elements)
}

// Pop removes and returns the last element, or Undefined on an empty array.
func (a *Array) Pop() value.Value {
	if len(a.Elements) == 0 {
		return value.Undefined()
	}
	last := a.Elements[len(a.Elements)-1]
	a.Elements = a.Elements[:len(a.Elements)-1]
	return last
}
