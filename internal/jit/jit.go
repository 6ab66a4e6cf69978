// Package jit implements the optional trace-compilation tier: a
// recorder that observes a hot loop's locals, constants, and taken
// branches as the interpreter executes it, a cache of compiled entry
// points keyed by (function, entry ip), and the Backend interface an
// actual code generator plugs into.
//
// The tier is a pure speedup. With no Backend installed (or on any
// compilation failure) the engine records nothing permanent and the
// interpreter's observable behavior is unchanged.
package jit

import (
	"github.com/kristofer/jscore/internal/bytecode"
	"github.com/kristofer/jscore/internal/value"
)

// Key identifies one compiled trace: the function prototype it was
// recorded in and the instruction index the trace (and its native
// entry point) starts at.
type Key struct {
	Proto   *bytecode.FunctionProto
	StartIP int
}

// Trace is one recording session's result: the linear region's origin,
// the local slots and constant-pool indices the region touched, and
// every conditional-branch decision in execution order. A backend
// compiles the region specialized to exactly these decisions, guarding
// each with an exit back to the interpreter.
type Trace struct {
	Origin           *bytecode.FunctionProto
	StartIP          int
	EndIP            int
	LocalsSeen       []int
	ConstantsSeen    []int
	ConditionalJumps []bool
}

// Native is a compiled trace's entry point. It reads and writes the
// frame's locals in place at stack[base:] and returns the instruction
// index at which interpretation resumes — the trace's normal exit, or
// whichever exit guard fired.
type Native func(stack []value.Value, base int) (resumeIP int)

// Backend turns a completed Trace plus the bytecode region it covers
// into a Native entry point. A Backend that cannot compile the region
// returns an error; the engine falls back to interpretation silently.
type Backend interface {
	Compile(tr *Trace, code []bytecode.Instruction) (Native, error)
}

// hotThreshold is how many times a loop back-edge must execute before
// a recording session starts for it.
const hotThreshold = 8

// Engine owns the trace cache and at most one active recording
// session. It is single-threaded like the interpreter that drives it.
type Engine struct {
	backend Backend
	cache   map[Key]Native
	heat    map[Key]int
	rec     *Trace
	failed  map[Key]bool
}

// New creates an Engine compiling through backend. A nil backend
// disables compilation but keeps the hook surface inert and callable.
func New(backend Backend) *Engine {
	return &Engine{
		backend: backend,
		cache:   map[Key]Native{},
		heat:    map[Key]int{},
		failed:  map[Key]bool{},
	}
}

// OnBackEdge is the engine's single entry hook, invoked by the
// interpreter every time a loop back-edge in proto jumps to targetIP.
// It returns a cached native entry point when one exists; otherwise it
// counts heat, starting a recording session once the edge crosses the
// hot threshold, and completing the session the next time the same
// edge is taken (one full iteration observed).
func (e *Engine) OnBackEdge(proto *bytecode.FunctionProto, targetIP, fromIP int) (Native, bool) {
	key := Key{Proto: proto, StartIP: targetIP}
	if native, ok := e.cache[key]; ok {
		return native, true
	}
	if e.failed[key] {
		return nil, false
	}

	if e.rec != nil {
		if e.rec.Origin == proto && e.rec.StartIP == targetIP {
			e.rec.EndIP = fromIP + 1
			e.complete(key)
		}
		return nil, false
	}

	e.heat[key]++
	if e.heat[key] >= hotThreshold && e.backend != nil {
		e.rec = &Trace{Origin: proto, StartIP: targetIP}
	}
	return nil, false
}

// Recording reports whether a session is active for proto, so the
// interpreter can skip the per-instruction record calls on the cold
// path and while executing callees of the traced function.
func (e *Engine) Recording(proto *bytecode.FunctionProto) bool {
	return e.rec != nil && e.rec.Origin == proto
}

// RecordConditionalJump appends one taken/not-taken decision.
func (e *Engine) RecordConditionalJump(taken bool) {
	if e.rec != nil {
		e.rec.ConditionalJumps = append(e.rec.ConditionalJumps, taken)
	}
}

// RecordLocal notes that the trace read or wrote local slot.
func (e *Engine) RecordLocal(slot int) {
	if e.rec == nil {
		return
	}
	for _, s := range e.rec.LocalsSeen {
		if s == slot {
			return
		}
	}
	e.rec.LocalsSeen = append(e.rec.LocalsSeen, slot)
}

// RecordConstant notes that the trace loaded constant idx.
func (e *Engine) RecordConstant(idx int) {
	if e.rec == nil {
		return
	}
	for _, c := range e.rec.ConstantsSeen {
		if c == idx {
			return
		}
	}
	e.rec.ConstantsSeen = append(e.rec.ConstantsSeen, idx)
}

// Abort discards the active recording session, if any. The interpreter
// calls it when control leaves the traced region in a way the trace
// cannot represent (a throw, a yield, a return out of the frame).
func (e *Engine) Abort() {
	if e.rec != nil {
		e.failed[Key{Proto: e.rec.Origin, StartIP: e.rec.StartIP}] = true
		e.rec = nil
	}
}

// complete hands the finished trace to the backend and caches the
// result. Compilation errors blacklist the key so a failing region is
// not re-recorded every hotThreshold iterations.
func (e *Engine) complete(key Key) {
	tr := e.rec
	e.rec = nil
	code := tr.Origin.Instructions[tr.StartIP:tr.EndIP]
	native, err := e.backend.Compile(tr, code)
	if err != nil {
		e.failed[key] = true
		return
	}
	e.cache[key] = native
}

// CachedCount reports how many compiled traces the engine holds.
func (e *Engine) CachedCount() int { return len(e.cache) }
