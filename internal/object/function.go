package object

import (
	"github.com/kristofer/jscore/internal/bytecode"
	"github.com/kristofer/jscore/internal/heap"
	"github.com/kristofer/jscore/internal/value"
)

// Cell is a shared, mutable upvalue cell: the heap-resident
// representation of an upvalue modeled as a cell. An outer frame's
// local slot is promoted to an External(cell) on first
// capture; every inner closure that captures it shares the same Cell
// by ObjectId, so reads and writes go through the cell rather than a
// private copy.
type Cell struct {
	V value.Value
}

func (c *Cell) Trace(t *heap.Tracer) { t.MarkValue(c.V) }

// CallContext is what a native function receives on invocation,
// generalized with a NewTarget for constructor calls.
type CallContext struct {
	This      value.Value
	Args      []value.Value
	NewTarget value.Value
}

// NativeFunc is a host-provided callable, wired into the global object
// and prototype chain at VM construction (internal/statics).
type NativeFunc func(ctx *CallContext) (value.Value, error)

// FunctionObject is the function object kind: a shared, immutable
// FunctionProto (Def) for user functions, or a NativeFunc for builtins
// wired by internal/statics. Both forms carry ordinary-object property
// storage, since `someFunction.customProp = 1` is legal.
type FunctionObject struct {
	proto value.Value
	props propStore

	Def       *bytecode.FunctionProto
	Externals []value.ObjectId // Cell ids, len == len(Def.Externals)

	Native NativeFunc
	ctor   bool
}

func NewUserFunction(proto value.Value, def *bytecode.FunctionProto, externals []value.ObjectId) *FunctionObject {
	return &FunctionObject{
		proto:     proto,
		Def:       def,
		Externals: externals,
		ctor:      def.Kind == bytecode.FunctionPlain || def.Kind == bytecode.FunctionMethod,
	}
}

func NewNativeFunction(proto value.Value, fn NativeFunc, isCtor bool) *FunctionObject {
	return &FunctionObject{proto: proto, Native: fn, ctor: isCtor}
}

func (f *FunctionObject) IsNative() bool { return f.Native != nil }
func (f *FunctionObject) IsConstructor() bool { return f.ctor }

func (f *FunctionObject) Prototype() value.Value     { return f.proto }
func (f *FunctionObject) SetPrototype(v value.Value) { f.proto = v }

func (f *FunctionObject) GetOwn(key PropertyKey) (PropertyValue, bool) { return f.props.get(key) }
func (f *FunctionObject) SetOwn(key PropertyKey, val PropertyValue)    { f.props.set(key, val) }
func (f *FunctionObject) DeleteOwn(key PropertyKey) bool               { return f.props.delete(key) }
func (f *FunctionObject) OwnKeys() []PropertyKey                       { return f.props.keys() }

func (f *FunctionObject) Trace(t *heap.Tracer) {
	t.MarkValue(f.proto)
	for _, e := range f.props.entries {
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
	for _, id := range f.Externals {
		t.MarkID(id)
	}
}
