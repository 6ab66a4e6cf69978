package object

import (
	"github.com/kristofer/jscore/internal/heap"
	"github.com/kristofer/jscore/internal/value"
)

// BoxedPrimitive is the object kind behind `new Number(5)`, `new
// String("x")`, and `new Boolean(false)`: an ordinary property store
// wrapped around a single held primitive Value, unwrapped by ToPrimitive
// and by the `valueOf`/`toString` natives wired in internal/statics.
type BoxedPrimitive struct {
	proto value.Value
	props propStore
	Held  value.Value
}

func NewBoxedPrimitive(proto value.Value, held value.Value) *BoxedPrimitive {
	return &BoxedPrimitive{proto: proto, Held: held}
}

func (b *BoxedPrimitive) Prototype() value.Value     { return b.proto }
func (b *BoxedPrimitive) SetPrototype(v value.Value) { b.proto = v }

func (b *BoxedPrimitive) GetOwn(key PropertyKey) (PropertyValue, bool) { return b.props.get(key) }
func (b *BoxedPrimitive) SetOwn(key PropertyKey, val PropertyValue)    { b.props.set(key, val) }
func (b *BoxedPrimitive) DeleteOwn(key PropertyKey) bool               { return b.props.delete(key) }
func (b *BoxedPrimitive) OwnKeys() []PropertyKey                       { return b.props.keys() }

func (b *BoxedPrimitive) Trace(t *heap.Tracer) {
	t.MarkValue(b.proto)
	t.MarkValue(b.Held)
	for _, e := range b.props.entries {
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
