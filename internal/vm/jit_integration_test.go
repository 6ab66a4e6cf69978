package vm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/jscore/internal/bytecode"
	"github.com/kristofer/jscore/internal/jit"
	"github.com/kristofer/jscore/internal/value"
	"github.com/kristofer/jscore/internal/vm"
)

// interpretingBackend is the smallest possible backend: its "native"
// code immediately defers back to the interpreter at the trace start.
// Observable behavior must be identical to running with no JIT at all.
type interpretingBackend struct {
	compiles int
	entries  int
}

func (b *interpretingBackend) Compile(tr *jit.Trace, code []bytecode.Instruction) (jit.Native, error) {
	b.compiles++
	start := tr.StartIP
	return func(stack []value.Value, base int) int {
		b.entries++
		return start
	}, nil
}

func TestJITTierPreservesObservableBehavior(t *testing.T) {
	src := "let s = 0; for (let i = 0; i < 50; i++) { s += i; } s"

	plain, _ := eval(t, src)

	be := &interpretingBackend{}
	v, it := newTestVM(t, vm.Config{JIT: jit.New(be)})
	jitted, err := run(t, v, it, src)
	require.NoError(t, err)

	assert.Equal(t, plain.AsNumber(), jitted.AsNumber())
	assert.Equal(t, 1, be.compiles, "the hot loop compiles exactly once")
	assert.Greater(t, be.entries, 0, "later iterations enter through the compiled trace")
}

func TestJITRecordsLoopShape(t *testing.T) {
	var got *jit.Trace
	be := recordingBackend{dst: &got}
	v, it := newTestVM(t, vm.Config{JIT: jit.New(be)})
	_, err := run(t, v, it, "let s = 0; for (let i = 0; i < 30; i++) { s += i; } s")
	require.NoError(t, err)

	require.NotNil(t, got, "the trace reached the backend")
	assert.NotEmpty(t, got.LocalsSeen, "the loop body reads locals")
	assert.NotEmpty(t, got.ConditionalJumps, "the loop condition was recorded")
	assert.Greater(t, got.EndIP, got.StartIP)
}

type recordingBackend struct{ dst **jit.Trace }

func (b recordingBackend) Compile(tr *jit.Trace, code []bytecode.Instruction) (jit.Native, error) {
	*b.dst = tr
	start := tr.StartIP
	return func([]value.Value, int) int { return start }, nil
}

func TestJITDisabledInGeneratorBodies(t *testing.T) {
	// A generator's looping body must never be trace-compiled (its
	// suspension points are invisible to a linear trace). The driving
	// loop on the main thread may still compile; the program completes
	// identically either way.
	be := &originCollector{}
	v, it := newTestVM(t, vm.Config{JIT: jit.New(be)})
	got, err := run(t, v, it, `
function* g() { for (let i = 0; i < 40; i++) { yield i; } }
let s = 0;
for (const x of g()) { s += x; }
s`)
	require.NoError(t, err)
	assert.Equal(t, 780.0, got.AsNumber())
	for _, origin := range be.origins {
		assert.NotEqual(t, bytecode.FunctionGenerator, origin.Kind, "a generator body was trace-compiled")
	}
}

type originCollector struct{ origins []*bytecode.FunctionProto }

func (b *originCollector) Compile(tr *jit.Trace, code []bytecode.Instruction) (jit.Native, error) {
	b.origins = append(b.origins, tr.Origin)
	start := tr.StartIP
	return func([]value.Value, int) int { return start }, nil
}
