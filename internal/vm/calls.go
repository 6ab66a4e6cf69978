package vm

import (
	"github.com/kristofer/jscore/internal/bytecode"
	"github.com/kristofer/jscore/internal/value"
)

// doCall unpacks a Call instruction's meta byte, collects the receiver
// and arguments off the stack in the shape the compiler emitted them,
// and drives the call through invoke.
func (th *thread) doCall(inst bytecode.Instruction) error {
	isCtor, hasThis, argc := bytecode.UnpackCallMeta(inst.A)

	args := make([]value.Value, argc)
	for i := argc - 1; i >= 0; i-- {
		args[i] = th.pop()
	}
	// A preserving property access leaves the receiver under the
	// callee, so the callee comes off first.
	callee := th.pop()
	this := value.Undefined()
	if hasThis {
		this = th.pop()
	}

	newTarget := value.Undefined()
	if isCtor {
		newTarget = callee
	}

	result, err := th.invoke(callee, this, args, isCtor, newTarget)
	if err != nil {
		return err
	}
	return th.push(result)
}
