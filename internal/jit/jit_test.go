package jit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/jscore/internal/bytecode"
	"github.com/kristofer/jscore/internal/value"
)

type fakeBackend struct {
	compiled []*Trace
	codeLens []int
	fail     bool
}

func (b *fakeBackend) Compile(tr *Trace, code []bytecode.Instruction) (Native, error) {
	if b.fail {
		return nil, errors.New("cannot compile region")
	}
	b.compiled = append(b.compiled, tr)
	b.codeLens = append(b.codeLens, len(code))
	return func(stack []value.Value, base int) int { return tr.StartIP }, nil
}

func loopProto() *bytecode.FunctionProto {
	// 0: LdLocal 0; 1: JmpFalseP 4; 2: Constant 0; 3: Jmp 0; 4: Ret
	return &bytecode.FunctionProto{
		Instructions: []bytecode.Instruction{
			{Op: bytecode.OpLdLocal, A: 0},
			{Op: bytecode.OpJmpFalseP, A: 4},
			{Op: bytecode.OpConstant, A: 0},
			{Op: bytecode.OpJmp, A: 0},
			{Op: bytecode.OpRet},
		},
		Constants:  []bytecode.Constant{bytecode.NumberConst(1)},
		LocalCount: 1,
	}
}

// takeBackEdge simulates the interpreter executing the Jmp at index 3
// back to index 0.
func takeBackEdge(e *Engine, proto *bytecode.FunctionProto) (Native, bool) {
	return e.OnBackEdge(proto, 0, 3)
}

func TestColdEdgeDoesNotRecord(t *testing.T) {
	be := &fakeBackend{}
	e := New(be)
	proto := loopProto()

	for i := 0; i < hotThreshold-1; i++ {
		native, ok := takeBackEdge(e, proto)
		assert.False(t, ok)
		assert.Nil(t, native)
		assert.False(t, e.Recording(proto))
	}
	assert.Empty(t, be.compiled)
}

func TestHotEdgeRecordsThenCompiles(t *testing.T) {
	be := &fakeBackend{}
	e := New(be)
	proto := loopProto()

	for i := 0; i < hotThreshold; i++ {
		takeBackEdge(e, proto)
	}
	require.True(t, e.Recording(proto), "recording starts once the edge is hot")

	e.RecordLocal(0)
	e.RecordConstant(0)
	e.RecordConditionalJump(false)

	// The next time the same edge completes an iteration, the trace is
	// sealed and handed to the backend.
	native, ok := takeBackEdge(e, proto)
	assert.False(t, ok, "the sealing pass itself still interprets")
	assert.Nil(t, native)
	require.Len(t, be.compiled, 1)
	assert.Equal(t, 1, e.CachedCount())

	tr := be.compiled[0]
	assert.Equal(t, proto, tr.Origin)
	assert.Equal(t, 0, tr.StartIP)
	assert.Equal(t, 4, tr.EndIP, "trace covers the region up to and including the back edge")
	assert.Equal(t, 4, be.codeLens[0])
	assert.Equal(t, []int{0}, tr.LocalsSeen)
	assert.Equal(t, []int{0}, tr.ConstantsSeen)
	assert.Equal(t, []bool{false}, tr.ConditionalJumps)

	// Every subsequent entry hits the cache.
	native, ok = takeBackEdge(e, proto)
	require.True(t, ok)
	assert.Equal(t, 0, native(nil, 0), "fake native resumes at the trace start")
}

func TestRecordDeduplicatesSlots(t *testing.T) {
	e := New(&fakeBackend{})
	e.rec = &Trace{}
	e.RecordLocal(2)
	e.RecordLocal(2)
	e.RecordLocal(3)
	e.RecordConstant(1)
	e.RecordConstant(1)
	assert.Equal(t, []int{2, 3}, e.rec.LocalsSeen)
	assert.Equal(t, []int{1}, e.rec.ConstantsSeen)
}

func TestAbortBlacklistsRegion(t *testing.T) {
	be := &fakeBackend{}
	e := New(be)
	proto := loopProto()

	for i := 0; i < hotThreshold; i++ {
		takeBackEdge(e, proto)
	}
	require.True(t, e.Recording(proto))
	e.Abort()
	assert.False(t, e.Recording(proto))

	// The aborted region never recompiles.
	for i := 0; i < hotThreshold*2; i++ {
		_, ok := takeBackEdge(e, proto)
		assert.False(t, ok)
	}
	assert.Empty(t, be.compiled)
}

func TestBackendFailureFallsBackSilently(t *testing.T) {
	be := &fakeBackend{fail: true}
	e := New(be)
	proto := loopProto()

	for i := 0; i <= hotThreshold; i++ {
		takeBackEdge(e, proto)
	}
	assert.Equal(t, 0, e.CachedCount())

	// The failed key is not retried.
	for i := 0; i < hotThreshold*2; i++ {
		_, ok := takeBackEdge(e, proto)
		assert.False(t, ok)
		assert.False(t, e.Recording(proto))
	}
}

func TestNilBackendNeverRecords(t *testing.T) {
	e := New(nil)
	proto := loopProto()
	for i := 0; i < hotThreshold*3; i++ {
		native, ok := takeBackEdge(e, proto)
		assert.False(t, ok)
		assert.Nil(t, native)
		assert.False(t, e.Recording(proto))
	}
	assert.Equal(t, 0, e.CachedCount())
}

func TestDistinctEntryPointsAreDistinctKeys(t *testing.T) {
	be := &fakeBackend{}
	e := New(be)
	a := loopProto()
	b := loopProto()

	for i := 0; i <= hotThreshold; i++ {
		e.OnBackEdge(a, 0, 3)
	}
	require.Equal(t, 1, e.CachedCount())

	_, ok := e.OnBackEdge(b, 0, 3)
	assert.False(t, ok, "a different prototype with the same shape is a different key")
}
