package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/jscore/internal/heap"
	"github.com/kristofer/jscore/internal/interner"
	"github.com/kristofer/jscore/internal/value"
)

// env bundles the heap and interner every object test needs, plus a
// stub Invoker whose behavior a test can swap per accessor.
type env struct {
	h  *heap.Heap
	it *interner.Interner
	fn func(callee, this value.Value, args []value.Value) (value.Value, error)
}

func newEnv() *env {
	return &env{h: heap.New(), it: interner.New()}
}

func (e *env) Invoke(callee, this value.Value, args []value.Value) (value.Value, error) {
	if e.fn == nil {
		return value.Undefined(), nil
	}
	return e.fn(callee, this, args)
}

func (e *env) key(name string) PropertyKey { return NameKey(e.it, name) }

func TestCowToLinearTransition(t *testing.T) {
	e := newEnv()
	o := NewOrdinary(value.Null())

	_, found := o.GetOwn(e.key("x"))
	assert.False(t, found, "empty object has no own properties")
	assert.Nil(t, o.OwnKeys())

	o.SetOwn(e.key("x"), StaticProperty(value.Number(1)))
	pv, found := o.GetOwn(e.key("x"))
	require.True(t, found)
	assert.Equal(t, value.Number(1), pv.Static)
	assert.Len(t, o.OwnKeys(), 1)
}

// Own-keys ordering: string keys in insertion order, then symbol keys
// in insertion order, then index keys in insertion order, regardless
// of the interleaving at insertion time.
func TestOwnKeysPartitionOrder(t *testing.T) {
	e := newEnv()
	o := NewOrdinary(value.Null())

	s1 := value.NewSymbol(1, "s1")
	s2 := value.NewSymbol(2, "s2")

	o.SetOwn(IndexKey(9), StaticProperty(value.Number(0)))
	o.SetOwn(e.key("b"), StaticProperty(value.Number(1)))
	o.SetOwn(SymbolKey(s1), StaticProperty(value.Number(2)))
	o.SetOwn(IndexKey(2), StaticProperty(value.Number(3)))
	o.SetOwn(e.key("a"), StaticProperty(value.Number(4)))
	o.SetOwn(SymbolKey(s2), StaticProperty(value.Number(5)))

	want := []PropertyKey{
		e.key("b"), e.key("a"),
		SymbolKey(s1), SymbolKey(s2),
		IndexKey(9), IndexKey(2),
	}
	got := o.OwnKeys()
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, got[i].Equal(want[i]), "key %d: got %v want %v", i, got[i], want[i])
	}
}

func TestSetOverwritesInPlace(t *testing.T) {
	e := newEnv()
	o := NewOrdinary(value.Null())
	o.SetOwn(e.key("x"), StaticProperty(value.Number(1)))
	o.SetOwn(e.key("y"), StaticProperty(value.Number(2)))
	o.SetOwn(e.key("x"), StaticProperty(value.Number(3)))

	pv, _ := o.GetOwn(e.key("x"))
	assert.Equal(t, value.Number(3), pv.Static)
	assert.Len(t, o.OwnKeys(), 2, "overwrite must not add a key")
	assert.True(t, o.OwnKeys()[0].Equal(e.key("x")), "overwrite must keep insertion order")
}

func TestDeleteOwn(t *testing.T) {
	e := newEnv()
	o := NewOrdinary(value.Null())
	o.SetOwn(e.key("x"), StaticProperty(value.Number(1)))
	o.SetOwn(e.key("y"), StaticProperty(value.Number(2)))

	assert.True(t, o.DeleteOwn(e.key("x")))
	assert.False(t, o.DeleteOwn(e.key("x")), "second delete reports absence")
	_, found := o.GetOwn(e.key("x"))
	assert.False(t, found)
	pv, found := o.GetOwn(e.key("y"))
	require.True(t, found)
	assert.Equal(t, value.Number(2), pv.Static)
}

func TestPrototypeChainLookup(t *testing.T) {
	e := newEnv()

	grandparent := NewOrdinary(value.Null())
	grandparent.SetOwn(e.key("deep"), StaticProperty(value.Number(7)))
	gpID := e.h.Alloc(grandparent)

	parent := NewOrdinary(value.Object(gpID))
	parent.SetOwn(e.key("mid"), StaticProperty(value.Number(8)))
	pID := e.h.Alloc(parent)

	child := NewOrdinary(value.Object(pID))
	child.SetOwn(e.key("own"), StaticProperty(value.Number(9)))
	cID := e.h.Alloc(child)
	receiver := value.Object(cID)

	for _, tt := range []struct {
		name string
		want value.Value
	}{
		{"own", value.Number(9)},
		{"mid", value.Number(8)},
		{"deep", value.Number(7)},
		{"missing", value.Undefined()},
	} {
		got, err := GetProperty(e.h, e, receiver, child, e.key(tt.name))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "property %q", tt.name)
	}
}

func TestHasPropertyDistinguishesAbsentFromUndefined(t *testing.T) {
	e := newEnv()
	o := NewOrdinary(value.Null())
	o.SetOwn(e.key("u"), StaticProperty(value.Undefined()))

	assert.True(t, HasProperty(e.h, o, e.key("u")))
	assert.False(t, HasProperty(e.h, o, e.key("missing")))
}

func TestProtoNameAliasesPrototypeSlot(t *testing.T) {
	e := newEnv()
	protoObj := NewOrdinary(value.Null())
	protoObj.SetOwn(e.key("x"), StaticProperty(value.Number(7)))
	protoID := e.h.Alloc(protoObj)

	o := NewOrdinary(value.Null())
	oID := e.h.Alloc(o)

	require.NoError(t, SetProperty(e, value.Object(oID), o, e.key("__proto__"), value.Object(protoID)))
	assert.Equal(t, value.Object(protoID), o.Prototype())
	assert.Empty(t, o.OwnKeys(), "__proto__ must not land in the key vector")

	got, err := GetProperty(e.h, e, value.Object(oID), o, e.key("x"))
	require.NoError(t, err)
	assert.Equal(t, value.Number(7), got)

	got, err = GetProperty(e.h, e, value.Object(oID), o, e.key("__proto__"))
	require.NoError(t, err)
	assert.Equal(t, value.Object(protoID), got)
}

func TestNonWritablePropertyIsSilentlyIgnored(t *testing.T) {
	e := newEnv()
	o := NewOrdinary(value.Null())
	pv := StaticProperty(value.Number(1))
	pv.Desc.Writable = false
	o.SetOwn(e.key("frozen"), pv)

	oID := e.h.Alloc(o)
	require.NoError(t, SetProperty(e, value.Object(oID), o, e.key("frozen"), value.Number(99)))

	got, _ := o.GetOwn(e.key("frozen"))
	assert.Equal(t, value.Number(1), got.Static)
}

func TestGetterInvokedWithReceiver(t *testing.T) {
	e := newEnv()
	getterID := e.h.Alloc(NewOrdinary(value.Null())) // identity only; Invoke is stubbed

	o := NewOrdinary(value.Null())
	o.SetOwn(e.key("computed"), AccessorProperty(getterID, value.NilObjectId))
	oID := e.h.Alloc(o)
	receiver := value.Object(oID)

	var sawThis value.Value
	e.fn = func(callee, this value.Value, args []value.Value) (value.Value, error) {
		assert.Equal(t, value.Object(getterID), callee)
		sawThis = this
		return value.Number(42), nil
	}

	got, err := GetProperty(e.h, e, receiver, o, e.key("computed"))
	require.NoError(t, err)
	assert.Equal(t, value.Number(42), got)
	assert.Equal(t, receiver, sawThis, "getter must see the original receiver as this")
}

func TestSetterInvokedWithValue(t *testing.T) {
	e := newEnv()
	setterID := e.h.Alloc(NewOrdinary(value.Null()))

	o := NewOrdinary(value.Null())
	o.SetOwn(e.key("sink"), AccessorProperty(value.NilObjectId, setterID))
	oID := e.h.Alloc(o)

	var sawArgs []value.Value
	e.fn = func(callee, this value.Value, args []value.Value) (value.Value, error) {
		sawArgs = args
		return value.Undefined(), nil
	}

	require.NoError(t, SetProperty(e, value.Object(oID), o, e.key("sink"), value.Number(5)))
	require.Len(t, sawArgs, 1)
	assert.Equal(t, value.Number(5), sawArgs[0])
}

func TestGetterOnlyReadThroughSetterOnlyWrite(t *testing.T) {
	e := newEnv()
	o := NewOrdinary(value.Null())
	o.SetOwn(e.key("g"), AccessorProperty(value.NilObjectId, value.NilObjectId))
	oID := e.h.Alloc(o)

	// No getter: reads as Undefined. No setter: write is a no-op.
	got, err := GetProperty(e.h, e, value.Object(oID), o, e.key("g"))
	require.NoError(t, err)
	assert.Equal(t, value.Undefined(), got)
	require.NoError(t, SetProperty(e, value.Object(oID), o, e.key("g"), value.Number(1)))
}

func TestArrayLengthAndElements(t *testing.T) {
	e := newEnv()
	a := NewArray(value.Null(), []value.Value{value.Number(1), value.Number(2)})

	pv, found := a.GetOwn(StringKey(interner.Length))
	require.True(t, found)
	assert.Equal(t, value.Number(2), pv.Static)

	a.Push(value.Number(3))
	pv, _ = a.GetOwn(StringKey(interner.Length))
	assert.Equal(t, value.Number(3), pv.Static)

	assert.Equal(t, value.Number(3), a.Pop())
	assert.Equal(t, value.Number(2), a.Pop())
	assert.Equal(t, value.Number(1), a.Pop())
	assert.Equal(t, value.Undefined(), a.Pop(), "popping an empty array yields undefined")
	_ = e
}

func TestArrayLengthWriteTruncatesAndExtends(t *testing.T) {
	e := newEnv()
	a := NewArray(value.Null(), []value.Value{value.Number(1), value.Number(2), value.Number(3)})

	a.SetOwn(StringKey(interner.Length), StaticProperty(value.Number(1)))
	assert.Len(t, a.Elements, 1)

	a.SetOwn(StringKey(interner.Length), StaticProperty(value.Number(3)))
	require.Len(t, a.Elements, 3)
	assert.Equal(t, value.Undefined(), a.Elements[2])
	_ = e
}

func TestArrayOutOfBoundsWriteExtends(t *testing.T) {
	a := NewArray(value.Null(), nil)
	a.SetOwn(IndexKey(2), StaticProperty(value.Number(9)))
	require.Len(t, a.Elements, 3)
	assert.Equal(t, value.Undefined(), a.Elements[0])
	assert.Equal(t, value.Number(9), a.Elements[2])
}

func TestPropertyKeyEquality(t *testing.T) {
	it := interner.New()
	a := NameKey(it, "a")

	tests := []struct {
		name string
		x, y PropertyKey
		want bool
	}{
		{"same string", a, NameKey(it, "a"), true},
		{"different strings", a, NameKey(it, "b"), false},
		{"string vs index", a, IndexKey(0), false},
		{"same index", IndexKey(4), IndexKey(4), true},
		{"same symbol id", SymbolKey(value.NewSymbol(3, "x")), SymbolKey(value.NewSymbol(3, "y")), true},
		{"different symbol ids", SymbolKey(value.NewSymbol(3, "x")), SymbolKey(value.NewSymbol(4, "x")), false},
	}
	for _, tt := range tests {
		if got := tt.x.Equal(tt.y); got != tt.want {
			t.Errorf("%s: Equal = %v, want %v", tt.name, got, tt.want)
		}
	}
}
