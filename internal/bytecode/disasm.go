package bytecode

import (
	"fmt"
	"strings"

	"github.com/kristofer/jscore/internal/interner"
)

// Disassemble renders proto's instructions as a human-readable
// listing, one instruction per line, for the CLI's `disassemble`
// subcommand.
func Disassemble(proto *FunctionProto, it *interner.Interner) string {
	var b strings.Builder
	for ip, inst := range proto.Instructions {
		fmt.Fprintf(&b, "%04d  %-18s", ip, inst.Op.String())
		switch inst.Op {
		case OpConstant, OpLdGlobal, OpStoreGlobal:
			fmt.Fprintf(&b, " %d", inst.A)
			if int(inst.A) < len(proto.Constants) {
				fmt.Fprintf(&b, "  ; %s", describeConstant(proto.Constants[inst.A], it))
			}
		case OpStaticPropAccess:
			fmt.Fprintf(&b, " %d preserveThis=%d", inst.A, inst.B)
		case OpStaticPropAssign:
			fmt.Fprintf(&b, " %d delete=%d", inst.A, inst.B)
		case OpCall:
			isCtor, hasThis, argc := UnpackCallMeta(inst.A)
			fmt.Fprintf(&b, " ctor=%v this=%v argc=%d", isCtor, hasThis, argc)
		case OpTry:
			fmt.Fprintf(&b, " catchIP=%d slot=%d", inst.A, inst.B)
		default:
			if inst.A != 0 || inst.B != 0 {
				fmt.Fprintf(&b, " %d %d", inst.A, inst.B)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func describeConstant(c Constant, it *interner.Interner) string {
	switch c.Kind {
	case ConstNumber:
		return fmt.Sprintf("%v", c.Number)
	case ConstBoolean:
		return fmt.Sprintf("%v", c.Boolean)
	case ConstString, ConstIdentifier:
		return fmt.Sprintf("%q", it.Lookup(c.Str))
	case ConstFunction:
		return "<function>"
	case ConstRegex:
		return "<regex>"
	default:
		return "?"
	}
}

// StackEffect reports the net effect an instruction has on the
// expression stack depth, used by the round-trip testable property
// (a well-formed program's stack effect sums to zero by the time
// execution reaches its final Ret).
func StackEffect(inst Instruction) int {
	switch inst.Op {
	case OpConstant, OpDup, OpLdLocal, OpLdLocalExt, OpLdGlobal, OpUndefined, OpNull, OpThis, OpGlobalObj, OpSuper:
		return 1
	case OpPop, OpThrow:
		return -1
	case OpYield:
		return 0 // yielded value popped, resume value pushed
	case OpAdd, OpSub, OpMul, OpDiv, OpRem, OpPow,
		OpBitOr, OpBitXor, OpBitAnd, OpBitShl, OpBitShr, OpBitUShr,
		OpLt, OpLe, OpGt, OpGe, OpEq, OpNe, OpStrictEq, OpStrictNe,
		OpInstanceOf, OpObjIn:
		return -1 // two popped, one pushed
	case OpNeg, OpPos, OpNot, OpBitNot, OpTypeOf:
		return 0 // one popped, one pushed
	case OpStoreLocal, OpStoreLocalExt, OpStoreGlobal:
		return 0 // pop, store, push back
	case OpJmpFalseP, OpJmpTrueP, OpJmpNullishP, OpJmpUndefinedP:
		return -1
	case OpJmp, OpJmpFalseNP, OpJmpTrueNP, OpJmpNullishNP, OpJmpUndefinedNP, OpTry, OpTryEnd, OpDebugger:
		return 0
	case OpStaticPropAccess:
		return 0 // receiver popped unless preserve_this, result pushed: net 0 when not preserved, +1 when preserved; callers account separately
	case OpDynamicPropAccess:
		return -1
	case OpStaticPropAssign, OpDynamicPropAssign:
		return -1
	case OpCall:
		return -1 // argc+callee(+this) popped, one result pushed; exact depth depends on operand, computed by caller
	case OpRet:
		return -1
	case OpArrayLit, OpObjLit:
		return 1 // N popped, one array/object pushed; exact N-dependent depth computed by caller
	case OpMakeFunction:
		return 1
	case OpRevStck:
		return 0
	}
	return 0
}
