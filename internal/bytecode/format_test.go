package bytecode

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/jscore/internal/interner"
)

func sampleProto(it *interner.Interner) *FunctionProto {
	inner := &FunctionProto{
		Instructions: []Instruction{
			{Op: OpLdLocal, A: 0},
			{Op: OpLdLocalExt, A: 0},
			{Op: OpAdd},
			{Op: OpRet},
		},
		Constants:  []Constant{NumberConst(1.5)},
		Externals:  []ExternalDesc{{ParentSlot: 2, IsNested: false}, {ParentSlot: 0, IsNested: true}},
		ParamCount: 1,
		LocalCount: 3,
		Kind:       FunctionArrow,
		Name:       it.Intern("inner"),
		HasName:    true,
	}
	return &FunctionProto{
		Instructions: []Instruction{
			{Op: OpConstant, A: 0},
			{Op: OpConstant, A: 1},
			{Op: OpAdd},
			{Op: OpLdGlobal, A: 2},
			{Op: OpCall, A: PackCallMeta(false, false, 1)},
			{Op: OpRet},
		},
		Constants: []Constant{
			NumberConst(42),
			StringConst(it.Intern("hello")),
			IdentConst(it.Intern("print")),
			BooleanConst(true),
			RegexConst(it.Intern("a+"), it.Intern("g")),
			FunctionConst(inner),
		},
		LocalCount: 2,
		Kind:       FunctionPlain,
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	it := interner.New()
	proto := sampleProto(it)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, proto, it))

	// Decoding into a fresh interner must reproduce the same shape;
	// symbols are re-interned from the serialized strings.
	it2 := interner.New()
	got, err := Decode(&buf, it2)
	require.NoError(t, err)

	assert.Equal(t, proto.Instructions, got.Instructions)
	require.Len(t, got.Constants, len(proto.Constants))

	assert.Equal(t, 42.0, got.Constants[0].Number)
	assert.Equal(t, "hello", it2.Lookup(got.Constants[1].Str))
	assert.Equal(t, "print", it2.Lookup(got.Constants[2].Str))
	assert.True(t, got.Constants[3].Boolean)
	assert.Equal(t, "a+", it2.Lookup(got.Constants[4].RegexPattern))
	assert.Equal(t, "g", it2.Lookup(got.Constants[4].RegexFlags))

	inner := got.Constants[5].Function
	require.NotNil(t, inner)
	assert.Equal(t, 1, inner.ParamCount)
	assert.Equal(t, 3, inner.LocalCount)
	assert.Equal(t, FunctionArrow, inner.Kind)
	assert.True(t, inner.HasName)
	assert.Equal(t, "inner", it2.Lookup(inner.Name))
	assert.Equal(t, []ExternalDesc{{ParentSlot: 2}, {ParentSlot: 0, IsNested: true}}, inner.Externals)
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	it := interner.New()
	_, err := Decode(bytes.NewReader([]byte{FormatVersion + 1}), it)
	assert.Error(t, err)
}

func TestDecodeRejectsTruncatedInput(t *testing.T) {
	it := interner.New()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleProto(it), it))

	raw := buf.Bytes()
	_, err := Decode(bytes.NewReader(raw[:len(raw)/2]), interner.New())
	assert.Error(t, err)
}

func TestEncodeToBytesMatchesEncode(t *testing.T) {
	it := interner.New()
	proto := sampleProto(it)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, proto, it))
	raw, err := EncodeToBytes(proto, it)
	require.NoError(t, err)
	assert.Equal(t, buf.Bytes(), raw)
}

func TestCallMetaPacking(t *testing.T) {
	tests := []struct {
		isCtor, hasThis bool
		argc            int
	}{
		{false, false, 0},
		{true, false, 1},
		{false, true, 2},
		{true, true, 63},
	}
	for _, tt := range tests {
		meta := PackCallMeta(tt.isCtor, tt.hasThis, tt.argc)
		ctor, this, argc := UnpackCallMeta(meta)
		if ctor != tt.isCtor || this != tt.hasThis || argc != tt.argc {
			t.Errorf("round trip (%v,%v,%d) -> (%v,%v,%d)", tt.isCtor, tt.hasThis, tt.argc, ctor, this, argc)
		}
	}
}
