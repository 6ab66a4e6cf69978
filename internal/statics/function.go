package statics

import (
	"github.com/kristofer/jscore/internal/object"
	"github.com/kristofer/jscore/internal/value"
	"github.com/kristofer/jscore/internal/vm"
)

func installFunctionProto(v *vm.VM, p protoChain) {
	defineMethod(v, p.function, "call", func(ctx *object.CallContext) (value.Value, error) {
		this := value.Undefined()
		var args []value.Value
		if len(ctx.Args) > 0 {
			this = ctx.Args[0]
			args = ctx.Args[1:]
		}
		return v.Invoke(ctx.This, this, args)
	})

	defineMethod(v, p.function, "apply", func(ctx *object.CallContext) (value.Value, error) {
		this := value.Undefined()
		var args []value.Value
		if len(ctx.Args) > 0 {
			this = ctx.Args[0]
		}
		if len(ctx.Args) > 1 && ctx.Args[1].IsObjectLike() {
			if arr, ok := v.Heap.Get(ctx.Args[1].AsObjectId()).(*object.Array); ok {
				args = append([]value.Value{}, arr.Elements...)
			}
		}
		return v.Invoke(ctx.This, this, args)
	})
}

// newFunctionCtor builds the `Function` global. Dynamic compilation of
// a function body from a string argument is out of scope; calling it
// just returns a native no-op, matching callers that only need the
// `Function` identifier to exist and be instanceof-compatible.
func newFunctionCtor(v *vm.VM, p protoChain) value.Value {
	ctor := object.NewNativeFunction(v.Protos.Function, func(ctx *object.CallContext) (value.Value, error) {
		noop := object.NewNativeFunction(p.function, func(*object.CallContext) (value.Value, error) {
			return value.Undefined(), nil
		}, false)
		return value.Object(v.Heap.Alloc(noop)), nil
	}, true)
	id := v.Heap.Alloc(ctor)
	wireCtorProto(v, id, p.function)
	return value.Object(id)
}
