// Package object implements the abstract object model: the Object
// interface every heap-resident object satisfies, the ordinary
// object's Cow/Linear property storage, and the specialized object
// kinds (array, function, boxed primitive, error).
package object

import (
	"github.com/kristofer/jscore/internal/interner"
	"github.com/kristofer/jscore/internal/value"
)

// KeyKind discriminates a PropertyKey's case.
type KeyKind uint8

const (
	KeyString KeyKind = iota
	KeySymbol
	KeyIndex
)

// PropertyKey is one of String(Symbol), Symbol(SymbolValue), Index(u32).
// Keys are cheap to compare: integer equality on the underlying
// representation, never a byte-for-byte string compare.
type PropertyKey struct {
	kind KeyKind
	str  interner.Symbol
	sym  value.SymbolValue
	idx  uint32
}

func StringKey(s interner.Symbol) PropertyKey   { return PropertyKey{kind: KeyString, str: s} }
func SymbolKey(s value.SymbolValue) PropertyKey { return PropertyKey{kind: KeySymbol, sym: s} }
func IndexKey(i uint32) PropertyKey             { return PropertyKey{kind: KeyIndex, idx: i} }

func (k PropertyKey) Kind() KeyKind              { return k.kind }
func (k PropertyKey) StringSymbol() interner.Symbol { return k.str }
func (k PropertyKey) SymbolValue() value.SymbolValue { return k.sym }
func (k PropertyKey) Index() uint32              { return k.idx }

func (k PropertyKey) Equal(other PropertyKey) bool {
	if k.kind != other.kind {
		return false
	}
	switch k.kind {
	case KeyString:
		return k.str == other.str
	case KeySymbol:
		return k.sym.ID() == other.sym.ID()
	default:
		return k.idx == other.idx
	}
}

// Descriptor is the three-bit data descriptor attached to every
// property. Host-created properties default to all bits set.
type Descriptor struct {
	Configurable bool
	Enumerable   bool
	Writable     bool
}

// DefaultDescriptor returns the all-bits-set descriptor host-created
// properties use.
func DefaultDescriptor() Descriptor {
	return Descriptor{Configurable: true, Enumerable: true, Writable: true}
}

// PropKind discriminates a static value from the three accessor forms.
type PropKind uint8

const (
	PropStatic PropKind = iota
	PropGetterOnly
	PropSetterOnly
	PropGetterSetter
)

// PropertyValue is the stored slot: a kind, the static value (if any),
// and getter/setter object ids (if any), plus the descriptor.
type PropertyValue struct {
	Kind   PropKind
	Static value.Value
	Getter value.ObjectId
	Setter value.ObjectId
	Desc   Descriptor
}

func StaticProperty(v value.Value) PropertyValue {
	return PropertyValue{Kind: PropStatic, Static: v, Desc: DefaultDescriptor()}
}

func AccessorProperty(getter, setter value.ObjectId) PropertyValue {
	kind := PropGetterSetter
	switch {
	case getter != value.NilObjectId && setter == value.NilObjectId:
		kind = PropGetterOnly
	case getter == value.NilObjectId && setter != value.NilObjectId:
		kind = PropSetterOnly
	}
	return PropertyValue{Kind: kind, Getter: getter, Setter: setter, Desc: DefaultDescriptor()}
}

func (pv PropertyValue) IsAccessor() bool { return pv.Kind != PropStatic }
