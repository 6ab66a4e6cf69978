package vm

import (
	"math"
	"strconv"
	"strings"

	"github.com/kristofer/jscore/internal/object"
	"github.com/kristofer/jscore/internal/value"
)

func toBoolean(v value.Value) bool {
	switch v.Kind() {
	case value.KindUndefined, value.KindNull:
		return false
	case value.KindBoolean:
		return v.AsBoolean()
	case value.KindNumber:
		f := v.AsNumber()
		return f != 0 && !math.IsNaN(f)
	default:
		return true
	}
}

func (vm *VM) toNumber(v value.Value) float64 {
	switch v.Kind() {
	case value.KindNumber:
		return v.AsNumber()
	case value.KindBoolean:
		if v.AsBoolean() {
			return 1
		}
		return 0
	case value.KindUndefined:
		return math.NaN()
	case value.KindNull:
		return 0
	case value.KindString:
		s := strings.TrimSpace(vm.It.Lookup(v.AsStringSymbol()))
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// ToJSString, ToNumber and ToBoolean expose the coercion rules to
// internal/statics' native functions, which live outside this package
// but still need to convert arguments the same way the interpreter does.
func (vm *VM) ToJSString(v value.Value) string { return vm.toJSString(v) }
func (vm *VM) ToNumber(v value.Value) float64  { return vm.toNumber(v) }
func ToBoolean(v value.Value) bool             { return toBoolean(v) }

func toInt32(f float64) int32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int32(int64(f))
}

func toUint32(f float64) uint32 { return uint32(toInt32(f)) }

// toJSString implements ToString for the cases the runtime needs:
// primitives directly, arrays by comma-joining elements, errors as
// "Kind: message", boxed primitives by their held value, functions and
// everything else by a fixed tag (no user-overridable
// toString/Symbol.toPrimitive protocol — see DESIGN.md).
func (vm *VM) toJSString(v value.Value) string {
	switch v.Kind() {
	case value.KindString:
		return vm.It.Lookup(v.AsStringSymbol())
	case value.KindNumber:
		return value.NumberToString(v.AsNumber())
	case value.KindBoolean:
		if v.AsBoolean() {
			return "true"
		}
		return "false"
	case value.KindUndefined:
		return "undefined"
	case value.KindNull:
		return "null"
	case value.KindSymbol:
		return "Symbol(" + v.AsSymbolValue().Desc + ")"
	}
	if !v.IsObjectLike() {
		return ""
	}
	switch o := vm.Heap.Get(v.AsObjectId()).(type) {
	case *object.Array:
		parts := make([]string, len(o.Elements))
		for i, e := range o.Elements {
			if e.IsNullish() {
				parts[i] = ""
				continue
			}
			parts[i] = vm.toJSString(e)
		}
		return strings.Join(parts, ",")
	case *object.FunctionObject:
		return "function () { [native code] }"
	case *object.ErrorObject:
		return o.Kind.String() + ": " + o.Message
	case *object.BoxedPrimitive:
		return vm.toJSString(o.Held)
	default:
		return "[object Object]"
	}
}

// toPrimitive implements the ToPrimitive abstract operation's
// practical subset: primitives pass through, a boxed primitive
// unwraps to its held value, and any other object falls back to its
// string representation (no user-overridable Symbol.toPrimitive or
// valueOf protocol — see DESIGN.md). Used by Add to decide between
// numeric addition and string concatenation.
func (vm *VM) toPrimitive(v value.Value) value.Value {
	if !v.IsObjectLike() {
		return v
	}
	if b, ok := vm.Heap.Get(v.AsObjectId()).(*object.BoxedPrimitive); ok {
		return b.Held
	}
	return value.String(vm.It.Intern(vm.toJSString(v)))
}

// toPropertyKey converts a runtime Value into the PropertyKey a
// dynamic property access/assignment indexes by: symbols and
// non-negative integer-valued numbers keep their own key kind,
// everything else coerces through ToString.
func (vm *VM) toPropertyKey(v value.Value) object.PropertyKey {
	if v.Kind() == value.KindSymbol {
		return object.SymbolKey(v.AsSymbolValue())
	}
	if v.Kind() == value.KindNumber {
		f := v.AsNumber()
		if f >= 0 && f == math.Trunc(f) {
			return object.IndexKey(uint32(f))
		}
	}
	return object.NameKey(vm.It, vm.toJSString(v))
}

func typeOfValue(vm *VM, v value.Value) string {
	if v.IsObjectLike() {
		if _, ok := vm.Heap.Get(v.AsObjectId()).(*object.FunctionObject); ok {
			return "function"
		}
		return "object"
	}
	return v.TypeName()
}

// looseEquals implements the abstract-equality algorithm's practical
// subset: same-kind values defer to StrictEquals; null/undefined are
// mutually equal and equal only each other; number/string/boolean
// cross-kind comparisons coerce through ToNumber.
func (vm *VM) looseEquals(a, b value.Value) bool {
	if a.Kind() == b.Kind() {
		return value.StrictEquals(a, b)
	}
	if a.IsNullish() && b.IsNullish() {
		return true
	}
	if a.IsNullish() || b.IsNullish() {
		return false
	}
	if a.IsObjectLike() || b.IsObjectLike() {
		return false
	}
	return vm.toNumber(a) == vm.toNumber(b)
}
