package statics

import (
	"github.com/kristofer/jscore/internal/object"
	"github.com/kristofer/jscore/internal/value"
	"github.com/kristofer/jscore/internal/vm"
)

// installIteratorProto wires the single "next" method every Iterator
// object (array, generic key) shares; generators have their own next
// on the Generator prototype. It just delegates
// to the Iterator's own Next closure and wraps the result as
// {value, done}.
func installIteratorProto(v *vm.VM, p protoChain) {
	defineMethod(v, p.iterator, "next", func(ctx *object.CallContext) (value.Value, error) {
		if !ctx.This.IsObjectLike() {
			return value.Undefined(), typeErrorValue(v, "next called on a non-iterator receiver")
		}
		it, ok := v.Heap.Get(ctx.This.AsObjectId()).(*object.Iterator)
		if !ok {
			return value.Undefined(), typeErrorValue(v, "next called on a non-iterator receiver")
		}
		res, err := it.Next()
		if err != nil {
			return value.Undefined(), err
		}
		return makeIterResult(v, res.Value, res.Done), nil
	})
}

// newKeysIterator builds the Iterate closure `for (const k in obj)`
// drives: it snapshots obj's own keys once at creation and walks that
// snapshot, stringifying index keys so the loop variable always binds
// a string (no prototype-chain walk; see DESIGN.md).
func newKeysIterator(v *vm.VM, proto value.Value, objID value.ObjectId) *object.Iterator {
	o, ok := v.Heap.Get(objID).(object.Object)
	if !ok {
		return object.NewIterator(proto, func() (object.IterResult, error) {
			return object.IterResult{Value: value.Undefined(), Done: true}, nil
		})
	}
	keys := o.OwnKeys()
	i := 0
	next := func() (object.IterResult, error) {
		if i >= len(keys) {
			return object.IterResult{Value: value.Undefined(), Done: true}, nil
		}
		k := keys[i]
		i++
		return object.IterResult{Value: keyToValue(v, k), Done: false}, nil
	}
	return object.NewIterator(proto, next, objID)
}

func keyToValue(v *vm.VM, k object.PropertyKey) value.Value {
	switch k.Kind() {
	case object.KeySymbol:
		return value.Symbol(k.SymbolValue())
	case object.KeyIndex:
		return value.String(v.It.Intern(value.NumberToString(float64(k.Index()))))
	default:
		return value.String(k.StringSymbol())
	}
}
