package vm

import (
	"github.com/kristofer/jscore/internal/bytecode"
	"github.com/kristofer/jscore/internal/object"
	"github.com/kristofer/jscore/internal/value"
)

// invoke calls callee with the given this/args, pushing exactly one
// frame and running the flat dispatch loop until that frame (and any
// it in turn calls) returns or the call unwinds out of it entirely.
// Native functions, and generator construction, complete without ever
// pushing a bytecode frame.
func (th *thread) invoke(callee, this value.Value, args []value.Value, isCtorCall bool, newTarget value.Value) (value.Value, error) {
	fn, ok := th.resolveCallable(callee)
	if !ok {
		return value.Undefined(), th.vm.throwError(object.ErrorType, "%s is not a function", describeValue(th.vm, callee))
	}

	if isCtorCall && !fn.IsConstructor() {
		return value.Undefined(), th.vm.throwError(object.ErrorType, "value is not a constructor")
	}
	if isCtorCall {
		this = th.newInstance(fn)
	}

	if fn.IsNative() {
		result, err := fn.Native(&object.CallContext{This: this, Args: args, NewTarget: newTarget})
		if err != nil {
			return value.Undefined(), err
		}
		if isCtorCall && !result.IsObjectLike() {
			result = this
		}
		return result, nil
	}

	if fn.Def.Kind == bytecode.FunctionGenerator && !isCtorCall {
		return th.vm.makeGenerator(fn, this, args), nil
	}

	entryDepth := len(th.frames)
	if err := th.pushCallFrame(fn, this, newTarget, isCtorCall, args); err != nil {
		return value.Undefined(), err
	}
	return th.run(entryDepth)
}

// newInstance allocates the `this` object a constructor call binds,
// using the callee's own "prototype" property if set, falling back to
// Object.prototype.
func (th *thread) newInstance(fn *object.FunctionObject) value.Value {
	proto := th.vm.Protos.Object
	if pv, ok := fn.GetOwn(object.NameKey(th.vm.It, "prototype")); ok && pv.Kind == object.PropStatic && pv.Static.IsObjectLike() {
		proto = pv.Static
	}
	return value.Object(th.vm.Heap.Alloc(object.NewOrdinary(proto)))
}

func (th *thread) resolveCallable(v value.Value) (*object.FunctionObject, bool) {
	if !v.IsObjectLike() {
		return nil, false
	}
	fn, ok := th.vm.Heap.Get(v.AsObjectId()).(*object.FunctionObject)
	return fn, ok
}

func (th *thread) pushCallFrame(fn *object.FunctionObject, this, newTarget value.Value, isCtor bool, args []value.Value) error {
	if len(th.frames) >= th.vm.Config.maxFrames() {
		return th.vm.throwError(object.ErrorRange, "call stack exceeded")
	}
	sp := len(th.stack)
	for i := 0; i < fn.Def.LocalCount; i++ {
		if err := th.push(value.Undefined()); err != nil {
			return err
		}
	}
	for i := 0; i < fn.Def.ParamCount && i < len(args); i++ {
		th.stack[sp+i] = args[i]
	}
	th.frames = append(th.frames, frame{fn: fn, sp: sp, this: this, newTarget: newTarget, isCtor: isCtor})
	return nil
}

// run is the flat fetch/decode/dispatch loop. entryDepth is the frame
// index run owns the bottom of: it returns once that frame (and
// everything it called) has returned or been unwound past by an
// uncaught throw.
func (th *thread) run(entryDepth int) (value.Value, error) {
	for {
		f := &th.frames[len(th.frames)-1]
		inst := f.fn.Def.Instructions[f.ip]
		f.ip++

		result, returned, err := th.step(f, inst)
		if err != nil {
			if gr, ok := err.(*generatorReturn); ok {
				th.truncateTo(entryDepth)
				return gr.value, nil
			}
			if th.unwind(err, entryDepth) {
				continue
			}
			th.truncateTo(entryDepth)
			return value.Undefined(), err
		}
		if returned {
			if len(th.frames) <= entryDepth {
				return result, nil
			}
			if err := th.push(result); err != nil {
				if th.unwind(err, entryDepth) {
					continue
				}
				th.truncateTo(entryDepth)
				return value.Undefined(), err
			}
		}
	}
}

// truncateTo pops every frame down to depth and its stack to the
// frame's base, used once run() gives up searching for a handler.
func (th *thread) truncateTo(depth int) {
	if depth >= len(th.frames) {
		return
	}
	sp := th.frames[depth].sp
	th.frames = th.frames[:depth]
	if sp < len(th.stack) {
		th.stack = th.stack[:sp]
	}
}

// unwind searches th.tryBlocks for a handler reachable from the
// current top frame, popping frames (and stale try-blocks) as it goes
// down to, but not past, entryDepth. It returns true and leaves
// execution resumable at the catch target, or false if no handler
// exists above entryDepth.
func (th *thread) unwind(err error, entryDepth int) bool {
	errVal := th.errorToValue(err)
	for {
		curIdx := len(th.frames) - 1
		if len(th.tryBlocks) == 0 {
			return false
		}
		tb := th.tryBlocks[len(th.tryBlocks)-1]
		switch {
		case tb.frameDepth-1 == curIdx:
			th.tryBlocks = th.tryBlocks[:len(th.tryBlocks)-1]
			f := &th.frames[curIdx]
			th.stack = th.stack[:f.sp+f.fn.Def.LocalCount]
			f.ip = tb.catchIP
			if tb.catchSlot >= 0 {
				th.stack[f.sp+int(tb.catchSlot)] = errVal
			}
			return true
		case tb.frameDepth-1 > curIdx:
			th.tryBlocks = th.tryBlocks[:len(th.tryBlocks)-1]
		default:
			if curIdx <= entryDepth {
				return false
			}
			f := th.frames[curIdx]
			th.frames = th.frames[:curIdx]
			th.stack = th.stack[:f.sp]
		}
	}
}

func (th *thread) errorToValue(err error) value.Value {
	if re, ok := err.(*RuntimeError); ok {
		return re.Value
	}
	eo := object.NewErrorObject(th.vm.Protos.Error, object.ErrorPlain, err.Error())
	return value.Object(th.vm.Heap.Alloc(eo))
}

// step executes one instruction. The returned bool is true only when
// the current top frame was popped by a Ret (result carries its
// return value); error is non-nil on a thrown exception or a runtime
// fault, handled uniformly by run()'s unwind call.
func (th *thread) step(f *frame, inst bytecode.Instruction) (value.Value, bool, error) {
	switch inst.Op {

	case bytecode.OpConstant:
		th.jitConstant(f, int(inst.A))
		return value.Undefined(), false, th.pushConstant(f, inst.A)

	case bytecode.OpPop:
		th.pop()
		return value.Undefined(), false, nil

	case bytecode.OpDup:
		return value.Undefined(), false, th.push(th.peek())

	case bytecode.OpAdd:
		return value.Undefined(), false, th.binaryAdd()
	case bytecode.OpSub:
		return value.Undefined(), false, th.binaryArith(func(a, b float64) float64 { return a - b })
	case bytecode.OpMul:
		return value.Undefined(), false, th.binaryArith(func(a, b float64) float64 { return a * b })
	case bytecode.OpDiv:
		return value.Undefined(), false, th.binaryArith(func(a, b float64) float64 { return a / b })
	case bytecode.OpRem:
		return value.Undefined(), false, th.binaryArith(arithRem)
	case bytecode.OpPow:
		return value.Undefined(), false, th.binaryArith(arithPow)
	case bytecode.OpNeg:
		return value.Undefined(), false, th.unaryNumber(func(a float64) float64 { return -a })
	case bytecode.OpPos:
		return value.Undefined(), false, th.unaryNumber(func(a float64) float64 { return a })
	case bytecode.OpNot:
		v := th.pop()
		return value.Undefined(), false, th.push(value.Boolean(!toBoolean(v)))
	case bytecode.OpBitNot:
		v := th.pop()
		return value.Undefined(), false, th.push(value.Number(float64(^toInt32(th.vm.toNumber(v)))))

	case bytecode.OpBitOr:
		return value.Undefined(), false, th.binaryBit(func(a, b int32) int32 { return a | b })
	case bytecode.OpBitXor:
		return value.Undefined(), false, th.binaryBit(func(a, b int32) int32 { return a ^ b })
	case bytecode.OpBitAnd:
		return value.Undefined(), false, th.binaryBit(func(a, b int32) int32 { return a & b })
	case bytecode.OpBitShl:
		return value.Undefined(), false, th.binaryShift(func(a int32, s uint32) int32 { return a << (s & 31) })
	case bytecode.OpBitShr:
		return value.Undefined(), false, th.binaryShift(func(a int32, s uint32) int32 { return a >> (s & 31) })
	case bytecode.OpBitUShr:
		b := th.pop()
		a := th.pop()
		s := toUint32(th.vm.toNumber(b)) & 31
		r := toUint32(th.vm.toNumber(a)) >> s
		return value.Undefined(), false, th.push(value.Number(float64(r)))

	case bytecode.OpLt:
		return value.Undefined(), false, th.compare(func(c int) bool { return c < 0 })
	case bytecode.OpLe:
		return value.Undefined(), false, th.compare(func(c int) bool { return c <= 0 })
	case bytecode.OpGt:
		return value.Undefined(), false, th.compare(func(c int) bool { return c > 0 })
	case bytecode.OpGe:
		return value.Undefined(), false, th.compare(func(c int) bool { return c >= 0 })
	case bytecode.OpEq:
		b := th.pop()
		a := th.pop()
		return value.Undefined(), false, th.push(value.Boolean(th.vm.looseEquals(a, b)))
	case bytecode.OpNe:
		b := th.pop()
		a := th.pop()
		return value.Undefined(), false, th.push(value.Boolean(!th.vm.looseEquals(a, b)))
	case bytecode.OpStrictEq:
		b := th.pop()
		a := th.pop()
		return value.Undefined(), false, th.push(value.Boolean(value.StrictEquals(a, b)))
	case bytecode.OpStrictNe:
		b := th.pop()
		a := th.pop()
		return value.Undefined(), false, th.push(value.Boolean(!value.StrictEquals(a, b)))

	case bytecode.OpLdLocal:
		th.jitLocal(f, int(inst.A))
		return value.Undefined(), false, th.push(th.readLocal(f, int(inst.A)))
	case bytecode.OpStoreLocal:
		th.jitLocal(f, int(inst.A))
		th.writeLocal(f, int(inst.A), th.peek())
		return value.Undefined(), false, nil
	case bytecode.OpLdLocalExt:
		cell := th.externalCell(f, int(inst.A))
		return value.Undefined(), false, th.push(cell.V)
	case bytecode.OpStoreLocalExt:
		cell := th.externalCell(f, int(inst.A))
		cell.V = th.peek()
		return value.Undefined(), false, nil

	case bytecode.OpLdGlobal:
		return value.Undefined(), false, th.loadGlobal(f, inst.A)
	case bytecode.OpStoreGlobal:
		name := f.fn.Def.Constants[inst.A].Str
		key := object.StringKey(name)
		if err := object.SetProperty(th.vm, th.vm.Global, th.vm.globalObject(), key, th.peek()); err != nil {
			return value.Undefined(), false, err
		}
		return value.Undefined(), false, nil

	case bytecode.OpStaticPropAccess:
		return value.Undefined(), false, th.staticPropAccess(f, inst)
	case bytecode.OpDynamicPropAccess:
		return value.Undefined(), false, th.dynamicPropAccess(inst)
	case bytecode.OpStaticPropAssign:
		return value.Undefined(), false, th.staticPropAssign(f, inst)
	case bytecode.OpDynamicPropAssign:
		return value.Undefined(), false, th.dynamicPropAssign(inst)

	case bytecode.OpJmp:
		target := int(inst.A)
		if target < f.ip-1 && th.jitBackEdge(f, target) {
			return value.Undefined(), false, nil
		}
		f.ip = target
		return value.Undefined(), false, nil
	case bytecode.OpJmpFalseP:
		taken := !toBoolean(th.pop())
		th.jitCondJump(f, taken)
		if taken {
			f.ip = int(inst.A)
		}
		return value.Undefined(), false, nil
	case bytecode.OpJmpFalseNP:
		taken := !toBoolean(th.peek())
		th.jitCondJump(f, taken)
		if taken {
			f.ip = int(inst.A)
		}
		return value.Undefined(), false, nil
	case bytecode.OpJmpTrueP:
		taken := toBoolean(th.pop())
		th.jitCondJump(f, taken)
		if taken {
			f.ip = int(inst.A)
		}
		return value.Undefined(), false, nil
	case bytecode.OpJmpTrueNP:
		taken := toBoolean(th.peek())
		th.jitCondJump(f, taken)
		if taken {
			f.ip = int(inst.A)
		}
		return value.Undefined(), false, nil
	case bytecode.OpJmpNullishP:
		taken := th.pop().IsNullish()
		th.jitCondJump(f, taken)
		if taken {
			f.ip = int(inst.A)
		}
		return value.Undefined(), false, nil
	case bytecode.OpJmpNullishNP:
		// `??` keeps the LHS (jumps to skip the RHS) only when it is
		// NOT nullish; a nullish LHS falls through to be popped and
		// replaced by the RHS, matching compileLogical's emission.
		if !th.peek().IsNullish() {
			f.ip = int(inst.A)
		}
		return value.Undefined(), false, nil
	case bytecode.OpJmpUndefinedP:
		if th.pop().IsUndefined() {
			f.ip = int(inst.A)
		}
		return value.Undefined(), false, nil
	case bytecode.OpJmpUndefinedNP:
		if !th.peek().IsUndefined() {
			f.ip = int(inst.A)
		}
		return value.Undefined(), false, nil

	case bytecode.OpCall:
		return value.Undefined(), false, th.doCall(inst)

	case bytecode.OpRet:
		th.jitAbort(f)
		v := th.pop()
		return th.popFrame(v)

	case bytecode.OpThrow:
		th.jitAbort(f)
		v := th.pop()
		return value.Undefined(), false, &RuntimeError{Value: v, vm: th.vm}

	case bytecode.OpYield:
		th.jitAbort(f)
		v := th.pop()
		resumed, err := th.doYield(v)
		if err != nil {
			return value.Undefined(), false, err
		}
		return value.Undefined(), false, th.push(resumed)

	case bytecode.OpArrayLit:
		return value.Undefined(), false, th.arrayLit(int(inst.A))
	case bytecode.OpObjLit:
		return value.Undefined(), false, th.objLit(int(inst.A))
	case bytecode.OpMakeFunction:
		return value.Undefined(), false, th.makeFunction(f, inst.A)

	case bytecode.OpTry:
		th.tryBlocks = append(th.tryBlocks, tryBlock{catchIP: int(inst.A), frameDepth: len(th.frames), catchSlot: inst.B})
		return value.Undefined(), false, nil
	case bytecode.OpTryEnd:
		if len(th.tryBlocks) > 0 {
			th.tryBlocks = th.tryBlocks[:len(th.tryBlocks)-1]
		}
		return value.Undefined(), false, nil

	case bytecode.OpUndefined:
		return value.Undefined(), false, th.push(value.Undefined())
	case bytecode.OpNull:
		return value.Undefined(), false, th.push(value.Null())
	case bytecode.OpThis:
		return value.Undefined(), false, th.push(f.this)
	case bytecode.OpGlobalObj:
		return value.Undefined(), false, th.push(th.vm.Global)
	case bytecode.OpSuper:
		// No class surface, so there is no meaningful super binding.
		return value.Undefined(), false, th.push(value.Undefined())
	case bytecode.OpTypeOf:
		v := th.pop()
		return value.Undefined(), false, th.push(value.String(th.vm.It.Intern(typeOfValue(th.vm, v))))
	case bytecode.OpInstanceOf:
		ctor := th.pop()
		val := th.pop()
		ok, err := th.instanceOf(val, ctor)
		if err != nil {
			return value.Undefined(), false, err
		}
		return value.Undefined(), false, th.push(value.Boolean(ok))
	case bytecode.OpObjIn:
		obj := th.pop()
		key := th.pop()
		ok, err := th.hasProperty(obj, key)
		if err != nil {
			return value.Undefined(), false, err
		}
		return value.Undefined(), false, th.push(value.Boolean(ok))
	case bytecode.OpRevStck:
		n := len(th.stack)
		th.stack[n-1], th.stack[n-2] = th.stack[n-2], th.stack[n-1]
		return value.Undefined(), false, nil
	case bytecode.OpDebugger:
		if th.vm.Config.Callbacks.Debugger != nil {
			if err := th.vm.Config.Callbacks.Debugger(th.vm); err != nil {
				return value.Undefined(), false, err
			}
		}
		return value.Undefined(), false, nil
	}

	return value.Undefined(), false, th.vm.throwError(object.ErrorType, "unhandled opcode %s", inst.Op)
}

// popFrame completes a Ret: it pops the current frame, discards any
// try-blocks it owned, and substitutes `this` for a constructor call
// that returned a non-object. The caller (run's loop) is responsible
// for either returning v (if the popped frame was the one run owns
// the bottom of) or splicing it onto the new top frame's stack.
func (th *thread) popFrame(v value.Value) (value.Value, bool, error) {
	curIdx := len(th.frames) - 1
	for len(th.tryBlocks) > 0 && th.tryBlocks[len(th.tryBlocks)-1].frameDepth-1 >= curIdx {
		th.tryBlocks = th.tryBlocks[:len(th.tryBlocks)-1]
	}
	fr := th.frames[curIdx]
	th.frames = th.frames[:curIdx]
	th.stack = th.stack[:fr.sp]
	if fr.isCtor && !v.IsObjectLike() {
		v = fr.this
	}
	return v, true, nil
}
