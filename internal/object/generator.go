package object

import (
	"github.com/kristofer/jscore/internal/heap"
	"github.com/kristofer/jscore/internal/value"
)

// ResumeKind distinguishes the three ways a generator can be resumed.
type ResumeKind uint8

const (
	ResumeNext ResumeKind = iota
	ResumeThrow
	ResumeReturn
)

// ResumeMsg is what a caller of next()/throw()/return() sends into a
// suspended generator body.
type ResumeMsg struct {
	Kind  ResumeKind
	Value value.Value
}

// YieldMsg is what a generator body sends back out, either at a Yield
// point or on completion.
type YieldMsg struct {
	Value value.Value
	Done  bool
	Err   error
}

// GenState is the suspend/resume rendezvous a GeneratorObject shares
// with the goroutine driving its body. Go's own goroutine stack stands
// in for a manual per-Yield frame snapshot: the body parks on
// ResumeCh/YieldCh instead of being unwound and restored by hand. See
// DESIGN.md.
type GenState struct {
	ResumeCh chan ResumeMsg
	YieldCh  chan YieldMsg
	Started  bool
	Finished bool

	// Start is provided by internal/vm at construction time; it drives
	// the generator body on a fresh thread the first time the
	// generator is resumed.
	Start func()
}

// GeneratorObject is the object kind behind a generator function call:
// an ordinary property store plus the suspend/resume channels. Resume
// implements the `.next()`/`.throw()`/`.return()` natives wired by
// internal/statics.
type GeneratorObject struct {
	proto value.Value
	props propStore
	State *GenState
}

func NewGeneratorObject(proto value.Value, state *GenState) *GeneratorObject {
	return &GeneratorObject{proto: proto, State: state}
}

func (g *GeneratorObject) Prototype() value.Value     { return g.proto }
func (g *GeneratorObject) SetPrototype(v value.Value) { g.proto = v }

func (g *GeneratorObject) GetOwn(key PropertyKey) (PropertyValue, bool) { return g.props.get(key) }
func (g *GeneratorObject) SetOwn(key PropertyKey, val PropertyValue)    { g.props.set(key, val) }
func (g *GeneratorObject) DeleteOwn(key PropertyKey) bool               { return g.props.delete(key) }
func (g *GeneratorObject) OwnKeys() []PropertyKey                       { return g.props.keys() }

func (g *GeneratorObject) Trace(t *heap.Tracer) {
	t.MarkValue(g.proto)
	for _, e := range g.props.entries {
		if e.val.Kind == PropStatic {
			t.MarkValue(e.val.Static)
		} else {
			if e.val.Getter != value.NilObjectId {
				t.MarkID(e.val.Getter)
			}
			if e.val.Setter != value.NilObjectId {
				t.MarkID(e.val.Setter)
			}
		}
	}
	// The suspended body's own stack/frame roots are traced by the VM
	// through the thread registry (see vm.(*VM).TraceRoots); a
	// channel-blocked goroutine's Go stack isn't heap state this Trace
	// can reach directly.
}

// Resume sends msg to the generator and waits for the next
// yield/completion, starting the body through State.Start on the first
// resume. A finished generator answers {Undefined, done} at once.
func (g *GeneratorObject) Resume(msg ResumeMsg) YieldMsg {
	if g.State.Finished {
		return YieldMsg{Value: value.Undefined(), Done: true}
	}
	if !g.State.Started {
		g.State.Started = true
		g.State.Start()
	}
	g.State.ResumeCh <- msg
	out := <-g.State.YieldCh
	if out.Done {
		g.State.Finished = true
	}
	return out
}
