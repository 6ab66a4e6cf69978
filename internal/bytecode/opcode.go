// Package bytecode defines the instruction set, the per-function
// constant pool, and the function prototype the compiler emits and
// the VM interprets.
//
// Instructions are modeled as a fixed-shape struct (Op, A, B) rather
// than a raw variable-width byte stream, so the in-memory dispatch
// loop never decodes a byte stream one byte at a time. The .jsb
// snapshot format (Encode/Decode in format.go) writes every
// instruction at one fixed width: a one-byte opcode followed by A and
// B as little-endian i32s; there are no narrow/wide operand forms.
// Jump operands are absolute instruction indices. See DESIGN.md for
// the tradeoff.
package bytecode

// Opcode is the operation a single Instruction performs.
type Opcode uint8

const (
	// Stack / constant
	OpConstant Opcode = iota
	OpPop
	OpDup

	// Arithmetic
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpPow
	OpNeg
	OpPos
	OpNot
	OpBitNot

	// Bitwise (operands coerced via ToInt32, result widened back to f64)
	OpBitOr
	OpBitXor
	OpBitAnd
	OpBitShl
	OpBitShr
	OpBitUShr

	// Compare
	OpLt
	OpLe
	OpGt
	OpGe
	OpEq
	OpNe
	OpStrictEq
	OpStrictNe

	// Locals (A = slot index)
	OpLdLocal
	OpStoreLocal
	// Upvalues (A = external descriptor index)
	OpLdLocalExt
	OpStoreLocalExt

	// Globals (A = identifier constant index)
	OpLdGlobal
	OpStoreGlobal

	// Property access. A = name constant index for the Static forms.
	// On the Access forms B = preserve_this (1 keeps the receiver under
	// the result so a following Call can use it as `this`); on the
	// Assign forms B = 1 selects delete mode (the receiver and key are
	// popped, the property is deleted and a boolean is pushed).
	OpStaticPropAccess
	OpDynamicPropAccess
	OpStaticPropAssign
	OpDynamicPropAssign

	// Control flow. A = target instruction index (absolute). The P
	// suffix pops the condition, NP leaves it.
	OpJmp
	OpJmpFalseP
	OpJmpFalseNP
	OpJmpTrueP
	OpJmpTrueNP
	OpJmpNullishP
	OpJmpNullishNP
	OpJmpUndefinedP
	OpJmpUndefinedNP

	// Call. A = packed meta byte: bit7 = constructor call, bit6 = this
	// already on stack (from a preceding property access), bits0-5 =
	// argument count.
	OpCall

	OpRet
	OpThrow
	OpYield

	// Literals. A = element/property count.
	OpArrayLit
	OpObjLit
	OpMakeFunction

	// Try regions. A = catch instruction index, B = catch-binding
	// local slot or -1 for "no binding".
	OpTry
	OpTryEnd

	OpUndefined
	OpNull
	OpThis
	OpGlobalObj
	OpSuper
	OpTypeOf
	OpInstanceOf
	OpObjIn
	OpRevStck
	OpDebugger
)

// CallMeta packs/unpacks the Call opcode's operand.
const (
	callMetaCtorBit = 1 << 7
	callMetaThisBit = 1 << 6
	callMetaArgMask = 0x3F
)

// PackCallMeta builds the Call opcode's A operand.
func PackCallMeta(isCtor, hasThis bool, argc int) int32 {
	var m int32
	if isCtor {
		m |= callMetaCtorBit
	}
	if hasThis {
		m |= callMetaThisBit
	}
	m |= int32(argc) & callMetaArgMask
	return m
}

// UnpackCallMeta reverses PackCallMeta.
func UnpackCallMeta(meta int32) (isCtor, hasThis bool, argc int) {
	isCtor = meta&callMetaCtorBit != 0
	hasThis = meta&callMetaThisBit != 0
	argc = int(meta & callMetaArgMask)
	return
}

// AssignKind distinguishes plain assignment from future compound
// forms; only Plain is currently implemented.
type AssignKind uint8

const (
	AssignPlain AssignKind = iota
)

func (op Opcode) String() string {
	names := [...]string{
		"CONSTANT", "POP", "DUP",
		"ADD", "SUB", "MUL", "DIV", "REM", "POW", "NEG", "POS", "NOT", "BITNOT",
		"BITOR", "BITXOR", "BITAND", "BITSHL", "BITSHR", "BITUSHR",
		"LT", "LE", "GT", "GE", "EQ", "NE", "STRICTEQ", "STRICTNE",
		"LDLOCAL", "STORELOCAL", "LDLOCALEXT", "STORELOCALEXT",
		"LDGLOBAL", "STOREGLOBAL",
		"STATICPROPACCESS", "DYNAMICPROPACCESS", "STATICPROPASSIGN", "DYNAMICPROPASSIGN",
		"JMP", "JMPFALSEP", "JMPFALSENP", "JMPTRUEP", "JMPTRUENP",
		"JMPNULLISHP", "JMPNULLISHNP", "JMPUNDEFINEDP", "JMPUNDEFINEDNP",
		"CALL", "RET", "THROW", "YIELD",
		"ARRAYLIT", "OBJLIT", "MAKEFUNCTION",
		"TRY", "TRYEND",
		"UNDEFINED", "NULL",
		"THIS", "GLOBALOBJ", "SUPER", "TYPEOF", "INSTANCEOF", "OBJIN", "REVSTCK", "DEBUGGER",
	}
	if int(op) < len(names) {
		return names[op]
	}
	return "UNKNOWN"
}
