// Package value defines the tagged Value union that flows through the
// compiler, the bytecode constant pool, and the VM's value stack.
//
// A Value is copied by value everywhere (no pointers into it need
// tracing beyond the single ObjectId it may carry) so that
// pushing/popping it on the VM stack is just a slice write. It is a
// plain struct with a separate field for each kind's payload, not a
// packed union, so it is considerably wider than 16 bytes.
package value

import (
	"math"
	"strconv"

	"github.com/kristofer/jscore/internal/interner"
)

// Kind discriminates the cases a Value can hold.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBoolean
	KindNumber
	KindString
	KindSymbol
	KindObject
	KindExternal
)

// ObjectId is an opaque handle to a heap cell. Two ObjectIds compare
// equal iff they reference the same cell; the GC never moves objects,
// so an ObjectId is stable for the object's whole lifetime.
type ObjectId uint32

// NilObjectId is never a valid handle returned by the heap.
const NilObjectId ObjectId = 0

// SymbolValue is a unique, non-interned runtime symbol (the ECMAScript
// `Symbol` primitive), distinct from interner.Symbol which only names
// interned strings.
type SymbolValue struct {
	id   uint64
	Desc string
}

// Value is a tagged union over the primitive kinds plus a heap
// reference. Exactly one of the fields is meaningful, selected by Kind.
type Value struct {
	kind Kind
	num  float64
	str  interner.Symbol
	sym  SymbolValue
	obj  ObjectId
}

func Undefined() Value                { return Value{kind: KindUndefined} }
func Null() Value                     { return Value{kind: KindNull} }
func Boolean(b bool) Value            { return Value{kind: KindBoolean, num: boolToFloat(b)} }
func Number(f float64) Value          { return Value{kind: KindNumber, num: f} }
func String(s interner.Symbol) Value  { return Value{kind: KindString, str: s} }
func Symbol(s SymbolValue) Value      { return Value{kind: KindSymbol, sym: s} }
func Object(id ObjectId) Value        { return Value{kind: KindObject, obj: id} }
func External(id ObjectId) Value      { return Value{kind: KindExternal, obj: id} }

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsUndefined() bool { return v.kind == KindUndefined }
func (v Value) IsNull() bool      { return v.kind == KindNull }
func (v Value) IsNullish() bool   { return v.kind == KindUndefined || v.kind == KindNull }
func (v Value) IsBoolean() bool   { return v.kind == KindBoolean }
func (v Value) IsNumber() bool    { return v.kind == KindNumber }
func (v Value) IsString() bool    { return v.kind == KindString }
func (v Value) IsObjectLike() bool {
	return v.kind == KindObject || v.kind == KindExternal
}

func (v Value) AsBoolean() bool          { return v.num != 0 }
func (v Value) AsNumber() float64        { return v.num }
func (v Value) AsStringSymbol() interner.Symbol { return v.str }
func (v Value) AsSymbolValue() SymbolValue      { return v.sym }
func (v Value) AsObjectId() ObjectId            { return v.obj }

// NewSymbol allocates a fresh, unique runtime Symbol value. id must be
// unique per VM instance; callers (the heap/VM) own a monotonic counter.
func NewSymbol(id uint64, desc string) SymbolValue {
	return SymbolValue{id: id, Desc: desc}
}

func (s SymbolValue) ID() uint64 { return s.id }

// StrictEquals implements the StrictEq / StrictNe opcodes: bitwise
// equality on same-kind values, with the NaN carve-out.
func StrictEquals(a, b Value) bool {
	if a.kind != b.kind {
		// object/external are cross-comparable at the strict-eq level
		if a.IsObjectLike() && b.IsObjectLike() {
			return a.obj == b.obj
		}
		return false
	}
	switch a.kind {
	case KindUndefined, KindNull:
		return true
	case KindBoolean:
		return a.num == b.num
	case KindNumber:
		if math.IsNaN(a.num) || math.IsNaN(b.num) {
			return false
		}
		return a.num == b.num
	case KindString:
		return a.str == b.str
	case KindSymbol:
		return a.sym.id == b.sym.id
	case KindObject, KindExternal:
		return a.obj == b.obj
	}
	return false
}

// TypeName returns the ECMAScript `typeof` result for kinds that don't
// require consulting the heap (Object/Function are resolved by the VM,
// which knows whether the referenced cell is callable).
func (v Value) TypeName() string {
	switch v.kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "object"
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindSymbol:
		return "symbol"
	default:
		return "object"
	}
}

// NumberToString renders a number the way ToString(ToPrimitive(number))
// would for the finite, non-exponential cases this engine needs to
// support (integral values print without a decimal point).
func NumberToString(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
