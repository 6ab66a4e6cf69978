package vm

import (
	"github.com/kristofer/jscore/internal/object"
	"github.com/kristofer/jscore/internal/value"
)

// generatorReturn is the sentinel a generator body's Yield point raises
// when the driving .return() call asked it to unwind. It is recognized
// by run() before the ordinary unwind search, so a .return() skips any
// remaining try/catch/finally in the body rather than running it.
type generatorReturn struct {
	value value.Value
}

func (e *generatorReturn) Error() string { return "generator returned" }

// makeGenerator builds the GeneratorObject a generator function call
// produces instead of running its body immediately: a fresh thread
// owns the body's stack/frames, parked behind a GenState rendezvous
// until the first .next() call starts it running on its own goroutine.
func (vm *VM) makeGenerator(fn *object.FunctionObject, this value.Value, args []value.Value) value.Value {
	gt := newThread(vm)
	gt.gen = &object.GenState{
		ResumeCh: make(chan object.ResumeMsg),
		YieldCh:  make(chan object.YieldMsg),
	}
	gt.gen.Start = func() {
		go gt.runGeneratorBody(fn, this, args)
	}
	genObj := object.NewGeneratorObject(vm.Protos.Generator, gt.gen)
	id := vm.Heap.Alloc(genObj)
	return value.Object(id)
}

// runGeneratorBody is the goroutine a generator's first resume starts.
// It waits for that resume's message, then drives the body through the
// ordinary frame/dispatch machinery; OpYield's handler (doYield) is
// what actually suspends it between resumes.
func (gt *thread) runGeneratorBody(fn *object.FunctionObject, this value.Value, args []value.Value) {
	defer gt.vm.unregisterThread(gt)

	first := <-gt.gen.ResumeCh
	if first.Kind != object.ResumeNext {
		gt.gen.YieldCh <- object.YieldMsg{Value: first.Value, Done: true}
		return
	}

	entryDepth := len(gt.frames)
	if err := gt.pushCallFrame(fn, this, value.Undefined(), false, args); err != nil {
		gt.gen.YieldCh <- object.YieldMsg{Done: true, Err: err}
		return
	}
	result, err := gt.run(entryDepth)
	if err != nil {
		gt.gen.YieldCh <- object.YieldMsg{Done: true, Err: err}
		return
	}
	gt.gen.YieldCh <- object.YieldMsg{Value: result, Done: true}
}

// doYield suspends the current generator body at a Yield point,
// publishing v to whichever of .next()/.throw()/.return() is waiting
// on YieldCh, then blocks for the matching resume. A throw resume
// raises as an ordinary catchable exception inside the body; a return
// resume raises generatorReturn, which run() treats as an immediate,
// finally-skipping unwind to entryDepth.
func (th *thread) doYield(v value.Value) (value.Value, error) {
	if th.gen == nil {
		return value.Undefined(), th.vm.throwError(object.ErrorSyntax, "yield outside a generator body")
	}
	th.gen.YieldCh <- object.YieldMsg{Value: v, Done: false}
	msg := <-th.gen.ResumeCh
	switch msg.Kind {
	case object.ResumeThrow:
		return value.Undefined(), &RuntimeError{Value: msg.Value, vm: th.vm}
	case object.ResumeReturn:
		return value.Undefined(), &generatorReturn{value: msg.Value}
	default:
		return msg.Value, nil
	}
}
