package statics

import (
	"strings"

	"github.com/kristofer/jscore/internal/object"
	"github.com/kristofer/jscore/internal/value"
	"github.com/kristofer/jscore/internal/vm"
)

func installArrayProto(v *vm.VM, p protoChain) {
	defineMethod(v, p.array, "push", func(ctx *object.CallContext) (value.Value, error) {
		arr, ok := arrayOf(v, ctx.This)
		if !ok {
			return value.Undefined(), typeErrorValue(v, "push called on a non-array receiver")
		}
		for _, a := range ctx.Args {
			arr.Push(a)
		}
		return value.Number(float64(len(arr.Elements))), nil
	})

	defineMethod(v, p.array, "pop", func(ctx *object.CallContext) (value.Value, error) {
		arr, ok := arrayOf(v, ctx.This)
		if !ok {
			return value.Undefined(), typeErrorValue(v, "pop called on a non-array receiver")
		}
		return arr.Pop(), nil
	})

	defineMethod(v, p.array, "join", func(ctx *object.CallContext) (value.Value, error) {
		arr, ok := arrayOf(v, ctx.This)
		if !ok {
			return value.Undefined(), typeErrorValue(v, "join called on a non-array receiver")
		}
		sep := ","
		if len(ctx.Args) > 0 && !ctx.Args[0].IsUndefined() {
			sep = v.ToJSString(ctx.Args[0])
		}
		parts := make([]string, len(arr.Elements))
		for i, e := range arr.Elements {
			if !e.IsNullish() {
				parts[i] = v.ToJSString(e)
			}
		}
		return value.String(v.It.Intern(strings.Join(parts, sep))), nil
	})

	// `for (const x of arr)` is desugared by the parser into a call to
	// this property.
	defineMethod(v, p.array, "@@iterator", func(ctx *object.CallContext) (value.Value, error) {
		if !ctx.This.IsObjectLike() {
			return value.Undefined(), typeErrorValue(v, "cannot iterate a non-array")
		}
		it := object.NewArrayIterator(p.iterator, v.Heap, ctx.This.AsObjectId())
		return value.Object(v.Heap.Alloc(it)), nil
	})
}

func arrayOf(v *vm.VM, this value.Value) (*object.Array, bool) {
	if !this.IsObjectLike() {
		return nil, false
	}
	arr, ok := v.Heap.Get(this.AsObjectId()).(*object.Array)
	return arr, ok
}

// newArrayCtor builds the `Array` global: a single numeric argument
// preallocates that many Undefined slots (the sparse-array idiom
// `new Array(5)`); otherwise every argument becomes an element.
func newArrayCtor(v *vm.VM, p protoChain) value.Value {
	ctor := object.NewNativeFunction(v.Protos.Function, func(ctx *object.CallContext) (value.Value, error) {
		if len(ctx.Args) == 1 && ctx.Args[0].Kind() == value.KindNumber {
			n := int(ctx.Args[0].AsNumber())
			elems := make([]value.Value, n)
			for i := range elems {
				elems[i] = value.Undefined()
			}
			return value.Object(v.Heap.Alloc(object.NewArray(p.array, elems))), nil
		}
		elems := append([]value.Value{}, ctx.Args...)
		return value.Object(v.Heap.Alloc(object.NewArray(p.array, elems))), nil
	}, true)
	id := v.Heap.Alloc(ctor)
	wireCtorProto(v, id, p.array)
	return value.Object(id)
}
