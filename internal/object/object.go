package object

import (
	"github.com/kristofer/jscore/internal/heap"
	"github.com/kristofer/jscore/internal/interner"
	"github.com/kristofer/jscore/internal/value"
)

// Object is the abstract interface every heap-resident object
// satisfies: own-property get/set/delete, the prototype slot, and
// enumeration of own keys. Apply/construct are a separate optional
// interface (Callable) since most object kinds aren't callable.
type Object interface {
	heap.Traceable

	GetOwn(key PropertyKey) (PropertyValue, bool)
	SetOwn(key PropertyKey, val PropertyValue)
	DeleteOwn(key PropertyKey) bool
	OwnKeys() []PropertyKey

	Prototype() value.Value
	SetPrototype(value.Value)
}

// Callable is implemented by objects that can be invoked as a
// function (user FunctionObject, native wrappers).
type Callable interface {
	Object
	IsConstructor() bool
}

// Heap is the narrow slice of *heap.Heap the property protocols need:
// dereferencing an ObjectId to the Object living behind it.
type Heap interface {
	Get(id value.ObjectId) heap.Traceable
}

// Invoker lets the property-read protocol invoke an accessor's getter
// or setter without the object package depending on the VM package
// (which depends on object). The VM implements this interface.
type Invoker interface {
	Invoke(callee value.Value, this value.Value, args []value.Value) (value.Value, error)
}

// OrdObject is the default object kind: a Cow-shaped object with only
// a prototype slot, transitioning one-way to Linear on the first
// user-defined property (keeps empty object literals cheap).
type OrdObject struct {
	proto value.Value
	props propStore
	cow   bool
}

// NewOrdinary creates an empty (Cow-shaped) ordinary object with the
// given prototype.
func NewOrdinary(proto value.Value) *OrdObject {
	return &OrdObject{proto: proto, cow: true}
}

func (o *OrdObject) Prototype() value.Value     { return o.proto }
func (o *OrdObject) SetPrototype(v value.Value) { o.proto = v }

func (o *OrdObject) GetOwn(key PropertyKey) (PropertyValue, bool) {
	if o.cow {
		return PropertyValue{}, false
	}
	return o.props.get(key)
}

func (o *OrdObject) SetOwn(key PropertyKey, val PropertyValue) {
	o.cow = false
	o.props.set(key, val)
}

func (o *OrdObject) DeleteOwn(key PropertyKey) bool {
	if o.cow {
		return false
	}
	return o.props.delete(key)
}

func (o *OrdObject) OwnKeys() []PropertyKey {
	if o.cow {
		return nil
	}
	return o.props.keys()
}

// Trace marks the prototype and every stored property value/accessor.
func (o *OrdObject) Trace(t *heap.Tracer) {
	t.MarkValue(o.proto)
	if o.cow {
		return
	}
	for _, e := range o.props.entries {
		switch e.val.Kind {
		case PropStatic:
			t.MarkValue(e.val.Static)
		default:
			if e.val.Getter != value.NilObjectId {
				t.MarkID(e.val.Getter)
			}
			if e.val.Setter != value.NilObjectId {
				t.MarkID(e.val.Setter)
			}
		}
	}
}

// GetProperty looks up the own descriptor, recurses on the prototype
// chain if absent, and invokes a getter (with this = receiver) if the
// descriptor found is an accessor. A null-terminated chain yields
// Undefined.
func GetProperty(h Heap, inv Invoker, receiver value.Value, start Object, key PropertyKey) (value.Value, error) {
	if key.kind == KeyString && key.str == interner.Proto {
		return start.Prototype(), nil
	}
	cur := start
	for {
		if pv, ok := cur.GetOwn(key); ok {
			if pv.Kind == PropStatic {
				return pv.Static, nil
			}
			if pv.Getter == value.NilObjectId {
				return value.Undefined(), nil
			}
			return inv.Invoke(value.Object(pv.Getter), receiver, nil)
		}
		proto := cur.Prototype()
		if proto.IsNullish() {
			return value.Undefined(), nil
		}
		next, ok := h.Get(proto.AsObjectId()).(Object)
		if !ok {
			return value.Undefined(), nil
		}
		cur = next
	}
}

// HasProperty walks the prototype chain checking only for presence,
// used by the `in` operator and by LdGlobal's undeclared-identifier
// check ("absent" is distinct from "present but undefined", which
// GetProperty's single Value return cannot express).
func HasProperty(h Heap, start Object, key PropertyKey) bool {
	if key.kind == KeyString && key.str == interner.Proto {
		return true
	}
	cur := start
	for {
		if _, ok := cur.GetOwn(key); ok {
			return true
		}
		proto := cur.Prototype()
		if proto.IsNullish() {
			return false
		}
		next, ok := h.Get(proto.AsObjectId()).(Object)
		if !ok {
			return false
		}
		cur = next
	}
}

// SetProperty implements the write protocol: only the
// receiver's own descriptor is consulted (no prototype-chain setter
// search). A present, writable own property is overwritten; a setter
// is invoked with (value, this=receiver); an absent property is
// inserted; a present but non-writable own property is silently
// ignored.
func SetProperty(inv Invoker, receiver value.Value, obj Object, key PropertyKey, val value.Value) error {
	if key.kind == KeyString && key.str == interner.Proto {
		obj.SetPrototype(val)
		return nil
	}
	if pv, ok := obj.GetOwn(key); ok {
		switch pv.Kind {
		case PropStatic:
			if !pv.Desc.Writable {
				return nil
			}
			pv.Static = val
			obj.SetOwn(key, pv)
			return nil
		default:
			if pv.Setter == value.NilObjectId {
				return nil
			}
			_, err := inv.Invoke(value.Object(pv.Setter), receiver, []value.Value{val})
			return err
		}
	}
	obj.SetOwn(key, StaticProperty(val))
	return nil
}

// NameKey is a convenience for interning and building a string
// PropertyKey in one step.
func NameKey(it *interner.Interner, name string) PropertyKey {
	return StringKey(it.Intern(name))
}
