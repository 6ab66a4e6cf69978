package statics

import (
	"github.com/kristofer/jscore/internal/object"
	"github.com/kristofer/jscore/internal/value"
	"github.com/kristofer/jscore/internal/vm"
)

// installErrorProtos wires the Error prototype chain's shared
// toString (reads "name"/"message" through the property protocol,
// matching the plain-Error style scripts expect) and a per-kind "name"
// static property, then returns the five error constructors keyed by
// the global name they bind to.
func installErrorProtos(v *vm.VM, p protoChain) map[string]value.Value {
	// name usually lives on the prototype and message on the instance,
	// so both reads go through the full chain protocol.
	toString := func(ctx *object.CallContext) (value.Value, error) {
		name := "Error"
		msg := ""
		if ctx.This.IsObjectLike() {
			if o, ok := v.Heap.Get(ctx.This.AsObjectId()).(object.Object); ok {
				if nv, err := object.GetProperty(v.Heap, v, ctx.This, o, object.NameKey(v.It, "name")); err == nil && !nv.IsUndefined() {
					name = v.ToJSString(nv)
				}
				if mv, err := object.GetProperty(v.Heap, v, ctx.This, o, object.NameKey(v.It, "message")); err == nil && !mv.IsUndefined() {
					msg = v.ToJSString(mv)
				}
			}
		}
		if msg == "" {
			return value.String(v.It.Intern(name)), nil
		}
		return value.String(v.It.Intern(name + ": " + msg)), nil
	}

	kinds := []struct {
		name  string
		kind  object.ErrorKind
		proto value.Value
	}{
		{"Error", object.ErrorPlain, p.err},
		{"TypeError", object.ErrorType, p.typeErr},
		{"RangeError", object.ErrorRange, p.rangeErr},
		{"ReferenceError", object.ErrorReference, p.refErr},
		{"SyntaxError", object.ErrorSyntax, p.syntaxErr},
	}

	ctors := make(map[string]value.Value, len(kinds))
	for _, k := range kinds {
		k := k
		protoObj := v.Heap.Get(k.proto.AsObjectId()).(object.Object)
		protoObj.SetOwn(object.NameKey(v.It, "name"), object.StaticProperty(value.String(v.It.Intern(k.name))))
		defineMethod(v, k.proto, "toString", toString)

		ctor := object.NewNativeFunction(v.Protos.Function, func(ctx *object.CallContext) (value.Value, error) {
			msg := ""
			if len(ctx.Args) > 0 {
				msg = v.ToJSString(ctx.Args[0])
			}
			eo := object.NewErrorObject(k.proto, k.kind, msg)
			eo.SetOwn(object.NameKey(v.It, "message"), object.StaticProperty(value.String(v.It.Intern(msg))))
			return value.Object(v.Heap.Alloc(eo)), nil
		}, true)
		id := v.Heap.Alloc(ctor)
		wireCtorProto(v, id, k.proto)
		ctors[k.name] = value.Object(id)
	}
	return ctors
}
