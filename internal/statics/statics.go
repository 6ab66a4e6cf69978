// Package statics wires the built-in prototype chain and global
// bindings a freshly constructed vm.VM doesn't have on its own:
// Object/Function/Array/Error (and its four native subtypes) and
// Generator prototypes, their native methods, and the handful of
// global names (the constructors themselves, console, NaN, Infinity,
// globalThis) a script expects to already exist.
//
// Install is meant to be called exactly once per VM, immediately
// after vm.New/vm.NewWithConfig and before the first Run.
package statics

import (
	"github.com/kristofer/jscore/internal/object"
	"github.com/kristofer/jscore/internal/value"
	"github.com/kristofer/jscore/internal/vm"
)

// protoChain bundles every prototype object Install builds, so the
// per-concern install functions (array.go, error.go, ...) don't each
// need their own parameter list.
type protoChain struct {
	object, function, array value.Value
	err, typeErr, rangeErr  value.Value
	refErr, syntaxErr       value.Value
	generator, iterator     value.Value
	number, str, boolean    value.Value
}

func Install(v *vm.VM) {
	p := buildPrototypeChain(v)

	v.Protos = vm.Prototypes{
		Object:         p.object,
		Function:       p.function,
		Array:          p.array,
		Error:          p.err,
		TypeError:      p.typeErr,
		RangeError:     p.rangeErr,
		ReferenceError: p.refErr,
		SyntaxError:    p.syntaxErr,
		Generator:      p.generator,
		Iterator:       p.iterator,
	}

	installObjectProto(v, p)
	installArrayProto(v, p)
	installFunctionProto(v, p)
	installIteratorProto(v, p)
	installGeneratorProto(v, p)
	errCtors := installErrorProtos(v, p)
	boxedCtors := installBoxedProtos(v, p)
	installConsole(v, p)

	g, ok := v.Heap.Get(v.Global.AsObjectId()).(object.Object)
	if !ok {
		return
	}
	bindGlobal(v, g, "Object", newObjectCtor(v, p))
	bindGlobal(v, g, "Array", newArrayCtor(v, p))
	bindGlobal(v, g, "Function", newFunctionCtor(v, p))
	for name, ctor := range errCtors {
		bindGlobal(v, g, name, ctor)
	}
	for name, ctor := range boxedCtors {
		bindGlobal(v, g, name, ctor)
	}
	bindGlobal(v, g, "NaN", value.Number(nan()))
	bindGlobal(v, g, "Infinity", value.Number(inf()))
	bindGlobal(v, g, "globalThis", v.Global)
}

func buildPrototypeChain(v *vm.VM) protoChain {
	alloc := func(parent value.Value) value.Value {
		return value.Object(v.Heap.Alloc(object.NewOrdinary(parent)))
	}

	var p protoChain
	p.object = alloc(value.Null())
	p.function = alloc(p.object)
	p.array = alloc(p.object)
	p.err = alloc(p.object)
	p.typeErr = alloc(p.err)
	p.rangeErr = alloc(p.err)
	p.refErr = alloc(p.err)
	p.syntaxErr = alloc(p.err)
	p.generator = alloc(p.object)
	p.iterator = alloc(p.object)
	p.number = alloc(p.object)
	p.str = alloc(p.object)
	p.boolean = alloc(p.object)
	return p
}

// defineMethod installs a native method as a static, non-enumerable-
// in-spirit-but-not-in-practice own property of protoVal (this engine's
// Descriptor bits aren't consulted by enumeration, so every property
// reads as enumerable; see DESIGN.md).
func defineMethod(v *vm.VM, protoVal value.Value, name string, fn object.NativeFunc) {
	nf := object.NewNativeFunction(v.Protos.Function, fn, false)
	id := v.Heap.Alloc(nf)
	o := v.Heap.Get(protoVal.AsObjectId()).(object.Object)
	o.SetOwn(object.NameKey(v.It, name), object.StaticProperty(value.Object(id)))
}

func bindGlobal(v *vm.VM, g object.Object, name string, val value.Value) {
	g.SetOwn(object.NameKey(v.It, name), object.StaticProperty(val))
}

func typeErrorValue(v *vm.VM, format string, args ...interface{}) error {
	return v.NewError(object.ErrorType, format, args...)
}

func makeIterResult(v *vm.VM, val value.Value, done bool) value.Value {
	o := object.NewOrdinary(v.Protos.Object)
	o.SetOwn(object.NameKey(v.It, "value"), object.StaticProperty(val))
	o.SetOwn(object.NameKey(v.It, "done"), object.StaticProperty(value.Boolean(done)))
	return value.Object(v.Heap.Alloc(o))
}

func nan() float64 { var z float64; return z / z }
func inf() float64 { var z float64; return 1 / z }
