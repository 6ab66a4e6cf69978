package statics

import (
	"github.com/kristofer/jscore/internal/object"
	"github.com/kristofer/jscore/internal/value"
	"github.com/kristofer/jscore/internal/vm"
)

// installGeneratorProto wires next/throw/return onto the Generator
// prototype, each driving the underlying GenState's suspend/resume
// rendezvous and translating the result into the {value, done}
// iterator-result shape scripts expect.
func installGeneratorProto(v *vm.VM, p protoChain) {
	resume := func(kind object.ResumeKind) object.NativeFunc {
		return func(ctx *object.CallContext) (value.Value, error) {
			if !ctx.This.IsObjectLike() {
				return value.Undefined(), typeErrorValue(v, "generator method called on a non-generator receiver")
			}
			g, ok := v.Heap.Get(ctx.This.AsObjectId()).(*object.GeneratorObject)
			if !ok {
				return value.Undefined(), typeErrorValue(v, "generator method called on a non-generator receiver")
			}
			arg := value.Undefined()
			if len(ctx.Args) > 0 {
				arg = ctx.Args[0]
			}
			out := g.Resume(object.ResumeMsg{Kind: kind, Value: arg})
			if out.Err != nil {
				return value.Undefined(), out.Err
			}
			return makeIterResult(v, out.Value, out.Done), nil
		}
	}

	defineMethod(v, p.generator, "next", resume(object.ResumeNext))
	defineMethod(v, p.generator, "throw", resume(object.ResumeThrow))
	defineMethod(v, p.generator, "return", resume(object.ResumeReturn))

	// A generator is itself iterable: `for (const x of gen())` reuses
	// its own next() through the generic iterator protocol.
	defineMethod(v, p.generator, "@@iterator", func(ctx *object.CallContext) (value.Value, error) {
		return ctx.This, nil
	})
}
