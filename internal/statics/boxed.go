package statics

import (
	"github.com/kristofer/jscore/internal/object"
	"github.com/kristofer/jscore/internal/value"
	"github.com/kristofer/jscore/internal/vm"
)

// installBoxedProtos wires Number/String/Boolean: called plainly they
// coerce their argument; called as constructors they produce a
// BoxedPrimitive wrapping it. The shared valueOf/toString natives
// unwrap a box and pass a primitive receiver through, so both
// `new Number(5).valueOf()` and `(5).valueOf()`-style dispatch work.
func installBoxedProtos(v *vm.VM, p protoChain) map[string]value.Value {
	unwrap := func(this value.Value) value.Value {
		if this.IsObjectLike() {
			if b, ok := v.Heap.Get(this.AsObjectId()).(*object.BoxedPrimitive); ok {
				return b.Held
			}
		}
		return this
	}
	for _, proto := range []value.Value{p.number, p.str, p.boolean} {
		defineMethod(v, proto, "valueOf", func(ctx *object.CallContext) (value.Value, error) {
			return unwrap(ctx.This), nil
		})
		defineMethod(v, proto, "toString", func(ctx *object.CallContext) (value.Value, error) {
			return value.String(v.It.Intern(v.ToJSString(unwrap(ctx.This)))), nil
		})
	}

	arg := func(args []value.Value) value.Value {
		if len(args) > 0 {
			return args[0]
		}
		return value.Undefined()
	}
	ctors := map[string]value.Value{
		"Number": primitiveCtor(v, p.number, func(args []value.Value) value.Value {
			if len(args) == 0 {
				return value.Number(0)
			}
			return value.Number(v.ToNumber(args[0]))
		}),
		"String": primitiveCtor(v, p.str, func(args []value.Value) value.Value {
			if len(args) == 0 {
				return value.String(v.It.Intern(""))
			}
			return value.String(v.It.Intern(v.ToJSString(args[0])))
		}),
		"Boolean": primitiveCtor(v, p.boolean, func(args []value.Value) value.Value {
			return value.Boolean(vm.ToBoolean(arg(args)))
		}),
	}
	return ctors
}

// primitiveCtor builds one boxing constructor: `Ctor(x)` coerces,
// `new Ctor(x)` boxes the coerced primitive.
func primitiveCtor(v *vm.VM, proto value.Value, coerce func(args []value.Value) value.Value) value.Value {
	ctor := object.NewNativeFunction(v.Protos.Function, func(ctx *object.CallContext) (value.Value, error) {
		prim := coerce(ctx.Args)
		if !ctx.NewTarget.IsUndefined() {
			return value.Object(v.Heap.Alloc(object.NewBoxedPrimitive(proto, prim))), nil
		}
		return prim, nil
	}, true)
	id := v.Heap.Alloc(ctor)
	wireCtorProto(v, id, proto)
	return value.Object(id)
}
