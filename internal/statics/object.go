package statics

import (
	"github.com/kristofer/jscore/internal/object"
	"github.com/kristofer/jscore/internal/value"
	"github.com/kristofer/jscore/internal/vm"
)

func installObjectProto(v *vm.VM, p protoChain) {
	defineMethod(v, p.object, "toString", func(ctx *object.CallContext) (value.Value, error) {
		return value.String(v.It.Intern(objectTag(v, ctx.This))), nil
	})
	defineMethod(v, p.object, "hasOwnProperty", func(ctx *object.CallContext) (value.Value, error) {
		if !ctx.This.IsObjectLike() || len(ctx.Args) == 0 {
			return value.Boolean(false), nil
		}
		o, ok := v.Heap.Get(ctx.This.AsObjectId()).(object.Object)
		if !ok {
			return value.Boolean(false), nil
		}
		key := toPropertyKey(v, ctx.Args[0])
		_, found := o.GetOwn(key)
		return value.Boolean(found), nil
	})

	// `for (const k in obj)` is desugared by the parser into a call to
	// this property; it walks only obj's own keys (no prototype-chain
	// enumeration, a deliberate simplification; see DESIGN.md).
	defineMethod(v, p.object, "@@keys", func(ctx *object.CallContext) (value.Value, error) {
		if !ctx.This.IsObjectLike() {
			return value.Undefined(), typeErrorValue(v, "cannot enumerate a non-object")
		}
		it := newKeysIterator(v, p.iterator, ctx.This.AsObjectId())
		return value.Object(v.Heap.Alloc(it)), nil
	})
}

// newObjectCtor builds the `Object` global: called with an object
// argument it passes that object through; otherwise (matching the
// common `new Object()` / `Object()` idiom) it allocates a fresh,
// empty ordinary object.
func newObjectCtor(v *vm.VM, p protoChain) value.Value {
	ctor := object.NewNativeFunction(v.Protos.Function, func(ctx *object.CallContext) (value.Value, error) {
		if len(ctx.Args) > 0 && ctx.Args[0].IsObjectLike() {
			return ctx.Args[0], nil
		}
		return value.Object(v.Heap.Alloc(object.NewOrdinary(p.object))), nil
	}, true)
	id := v.Heap.Alloc(ctor)
	wireCtorProto(v, id, p.object)
	return value.Object(id)
}

// wireCtorProto links a constructor and its prototype both ways:
// ctor.prototype = proto, proto.constructor = ctor.
func wireCtorProto(v *vm.VM, ctorID value.ObjectId, proto value.Value) {
	ctor := v.Heap.Get(ctorID).(object.Object)
	ctor.SetOwn(object.NameKey(v.It, "prototype"), object.StaticProperty(proto))
	protoObj := v.Heap.Get(proto.AsObjectId()).(object.Object)
	protoObj.SetOwn(object.NameKey(v.It, "constructor"), object.StaticProperty(value.Object(ctorID)))
}

func objectTag(v *vm.VM, this value.Value) string {
	if !this.IsObjectLike() {
		return "[object " + typeTagFor(this) + "]"
	}
	switch v.Heap.Get(this.AsObjectId()).(type) {
	case *object.Array:
		return "[object Array]"
	case *object.FunctionObject:
		return "[object Function]"
	case *object.ErrorObject:
		return "[object Error]"
	default:
		return "[object Object]"
	}
}

func typeTagFor(v value.Value) string {
	switch v.Kind() {
	case value.KindUndefined:
		return "Undefined"
	case value.KindNull:
		return "Null"
	case value.KindBoolean:
		return "Boolean"
	case value.KindNumber:
		return "Number"
	case value.KindString:
		return "String"
	default:
		return "Object"
	}
}

// toPropertyKey mirrors (*vm.VM)'s own property-key coercion for the
// handful of native methods (hasOwnProperty, ...) that need to turn an
// argument into a PropertyKey without the vm package exporting its
// internal coercion helpers wholesale.
func toPropertyKey(v *vm.VM, val value.Value) object.PropertyKey {
	if val.Kind() == value.KindSymbol {
		return object.SymbolKey(val.AsSymbolValue())
	}
	return object.NameKey(v.It, v.ToJSString(val))
}
