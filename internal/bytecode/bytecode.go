package bytecode

import "github.com/kristofer/jscore/internal/interner"

// Instruction is a single decoded bytecode instruction.
type Instruction struct {
	Op Opcode
	A  int32
	B  int32
}

// ConstKind discriminates a constant pool entry's case.
type ConstKind uint8

const (
	ConstNumber ConstKind = iota
	ConstBoolean
	ConstString
	ConstRegex
	ConstFunction
	ConstIdentifier
)

// Constant is one entry of a function's constant pool.
type Constant struct {
	Kind ConstKind

	Number  float64
	Boolean bool
	Str     interner.Symbol // ConstString, ConstIdentifier
	// Regex
	RegexPattern interner.Symbol
	RegexFlags   interner.Symbol
	// ConstFunction
	Function *FunctionProto
}

func NumberConst(f float64) Constant          { return Constant{Kind: ConstNumber, Number: f} }
func BooleanConst(b bool) Constant            { return Constant{Kind: ConstBoolean, Boolean: b} }
func StringConst(s interner.Symbol) Constant  { return Constant{Kind: ConstString, Str: s} }
func IdentConst(s interner.Symbol) Constant   { return Constant{Kind: ConstIdentifier, Str: s} }
func FunctionConst(f *FunctionProto) Constant { return Constant{Kind: ConstFunction, Function: f} }
func RegexConst(pattern, flags interner.Symbol) Constant {
	return Constant{Kind: ConstRegex, RegexPattern: pattern, RegexFlags: flags}
}

// ExternalDesc records, for one upvalue slot of a function, the local
// slot index in the enclosing function and whether the enclosing
// function itself captured that slot as an upvalue (nested capture:
// then the index refers to the parent's own externals table instead
// of its locals).
type ExternalDesc struct {
	ParentSlot int
	IsNested   bool
}

// FunctionKind distinguishes calling-convention-relevant function
// flavors.
type FunctionKind uint8

const (
	FunctionPlain FunctionKind = iota
	FunctionGenerator
	FunctionArrow
	FunctionMethod
)

// FunctionProto is the immutable, shareable compiled form of a
// function: its bytecode buffer, constant pool, external descriptors,
// and calling-convention metadata. Buffer and pool are shared by every
// closure made from this prototype.
type FunctionProto struct {
	Instructions []Instruction
	Constants    []Constant

	Externals  []ExternalDesc
	ParamCount int
	LocalCount int
	Kind       FunctionKind
	Name       interner.Symbol
	HasName    bool
}
