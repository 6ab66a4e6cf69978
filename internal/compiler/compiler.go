// Package compiler lowers internal/ast into internal/bytecode using a
// scope graph and local table for name resolution, an externals table
// for upvalue promotion, and a label table resolved by a second
// patching pass once a function body is fully emitted.
package compiler

import (
	"fmt"

	"github.com/kristofer/jscore/internal/ast"
	"github.com/kristofer/jscore/internal/bytecode"
	"github.com/kristofer/jscore/internal/interner"
)

// CompileError reports one of the compiler's named error kinds.
type CompileError struct {
	Kind    string
	Message string
}

func (e *CompileError) Error() string { return fmt.Sprintf("compiler: %s: %s", e.Kind, e.Message) }

func errf(kind, format string, args ...interface{}) *CompileError {
	return &CompileError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// lexScope is one node of the scope graph: a block or function scope
// with its own name->slot bindings. resolveLocal walks outward through
// parent to the outermost scope of the current funcCompiler; a name not
// found there is looked up in the enclosing funcCompiler by resolveName.
type lexScope struct {
	parent     *lexScope
	isFunction bool
	names      map[string]binding
}

// binding is one declared name's slot plus the const flag assignment
// checking consults.
type binding struct {
	slot    int
	isConst bool
}

func newScope(parent *lexScope, isFunction bool) *lexScope {
	return &lexScope{parent: parent, isFunction: isFunction, names: map[string]binding{}}
}

// loopCtx tracks the patch targets `break`/`continue` resolve to inside
// the loop currently being compiled.
type loopCtx struct {
	breakPatches    []int // instruction indices whose A operand is the loop-end target
	continuePatches []int // instruction indices whose A operand is the loop-continue target
}

// funcCompiler compiles one function body (top-level code counts as a
// function) into a single FunctionProto.
type funcCompiler struct {
	parent *funcCompiler
	it     *interner.Interner

	proto *bytecode.FunctionProto

	scope         *lexScope
	nextSlot      int
	externalOf    map[string]int // name -> index into proto.Externals, memoized
	externalConst map[int]bool   // external index -> captured binding was const

	loops []*loopCtx

	inGenerator bool

	// Top-level programs track a completion value: every expression
	// statement writes through resultSlot so the program's result is
	// the last expression actually executed (what the REPL prints),
	// not merely a trailing one.
	trackResult bool
	resultSlot  int32
}

func newFuncCompiler(parent *funcCompiler, it *interner.Interner, kind bytecode.FunctionKind) *funcCompiler {
	fc := &funcCompiler{
		parent:        parent,
		it:            it,
		proto:         &bytecode.FunctionProto{Kind: kind},
		externalOf:    map[string]int{},
		externalConst: map[int]bool{},
	}
	fc.scope = newScope(nil, true)
	return fc
}

func (fc *funcCompiler) emit(op bytecode.Opcode, a, b int32) int {
	fc.proto.Instructions = append(fc.proto.Instructions, bytecode.Instruction{Op: op, A: a, B: b})
	return len(fc.proto.Instructions) - 1
}

func (fc *funcCompiler) here() int { return len(fc.proto.Instructions) }

func (fc *funcCompiler) patchA(instIdx int, target int32) {
	fc.proto.Instructions[instIdx].A = target
}

func (fc *funcCompiler) addConstant(c bytecode.Constant) int32 {
	fc.proto.Constants = append(fc.proto.Constants, c)
	return int32(len(fc.proto.Constants) - 1)
}

func (fc *funcCompiler) identConstant(name string) int32 {
	return fc.addConstant(bytecode.IdentConst(fc.it.Intern(name)))
}

// maxLocalSlots bounds a function's local table at what a wide local
// operand can address; maxCallArgs is what the Call meta byte's six
// argument-count bits can carry.
const (
	maxLocalSlots = 1 << 16
	maxCallArgs   = 63
	maxLitEntries = 1 << 16
)

// declareLocal allocates a fresh slot for name in the current scope.
// Slot reuse across sibling blocks (a pure frame-size optimization) is
// not implemented: every declaration gets a fresh slot, which
// keeps resolution correct without the bookkeeping needed to verify
// reuse safety by hand. See DESIGN.md.
func (fc *funcCompiler) declareLocal(name string) int {
	return fc.declareBinding(name, false)
}

func (fc *funcCompiler) declareBinding(name string, isConst bool) int {
	slot := fc.nextSlot
	fc.nextSlot++
	fc.scope.names[name] = binding{slot: slot, isConst: isConst}
	if fc.nextSlot > fc.proto.LocalCount {
		fc.proto.LocalCount = fc.nextSlot
	}
	return slot
}

func (fc *funcCompiler) pushScope(isFunction bool) { fc.scope = newScope(fc.scope, isFunction) }
func (fc *funcCompiler) popScope()                 { fc.scope = fc.scope.parent }

// resolution is the outcome of resolveName.
type resolution struct {
	kind    resKind
	slot    int // local slot, or external index
	isConst bool
}

type resKind uint8

const (
	resLocal resKind = iota
	resExternal
	resGlobal
)

// resolveLocal walks only this function's own scope chain.
func (fc *funcCompiler) resolveLocal(name string) (int, bool) {
	for s := fc.scope; s != nil; s = s.parent {
		if b, ok := s.names[name]; ok {
			return b.slot, true
		}
	}
	return 0, false
}

func (fc *funcCompiler) resolveLocalBinding(name string) (binding, bool) {
	for s := fc.scope; s != nil; s = s.parent {
		if b, ok := s.names[name]; ok {
			return b, true
		}
	}
	return binding{}, false
}

// resolveName implements the externals-table upvalue promotion: a
// name found in an enclosing function's locals (or already promoted
// to one of its externals) is promoted
// into this function's externals table, recording whether the parent
// itself captured it as an upvalue (nested capture).
func (fc *funcCompiler) resolveName(name string) resolution {
	if b, ok := fc.resolveLocalBinding(name); ok {
		return resolution{kind: resLocal, slot: b.slot, isConst: b.isConst}
	}
	if fc.parent == nil {
		return resolution{kind: resGlobal}
	}
	if idx, ok := fc.externalOf[name]; ok {
		return resolution{kind: resExternal, slot: idx, isConst: fc.externalConst[idx]}
	}

	parentRes := fc.parent.resolveName(name)
	switch parentRes.kind {
	case resLocal:
		idx := len(fc.proto.Externals)
		fc.proto.Externals = append(fc.proto.Externals, bytecode.ExternalDesc{ParentSlot: parentRes.slot, IsNested: false})
		fc.externalOf[name] = idx
		fc.externalConst[idx] = parentRes.isConst
		return resolution{kind: resExternal, slot: idx, isConst: parentRes.isConst}
	case resExternal:
		idx := len(fc.proto.Externals)
		fc.proto.Externals = append(fc.proto.Externals, bytecode.ExternalDesc{ParentSlot: parentRes.slot, IsNested: true})
		fc.externalOf[name] = idx
		fc.externalConst[idx] = parentRes.isConst
		return resolution{kind: resExternal, slot: idx, isConst: parentRes.isConst}
	default:
		return resolution{kind: resGlobal}
	}
}

// Compile compiles a top-level Program into its FunctionProto, treating
// it exactly like a plain function body with zero parameters — except
// that the program's return value is its completion value: the result
// of the last expression statement executed anywhere in the top-level
// code (what the CLI prints and what Run returns to the host). An
// empty program, or one that executes no expression statement,
// completes as Undefined via the slot's initial value.
func Compile(prog *ast.Program, it *interner.Interner) (*bytecode.FunctionProto, error) {
	fc := newFuncCompiler(nil, it, bytecode.FunctionPlain)
	fc.trackResult = true
	fc.resultSlot = fc.freshTemp()
	hoist(fc, prog.Statements)
	for _, stmt := range prog.Statements {
		if err := fc.compileStatement(stmt); err != nil {
			return nil, err
		}
	}
	fc.emit(bytecode.OpLdLocal, fc.resultSlot, 0)
	fc.emit(bytecode.OpRet, 0, 0)
	return fc.checkLimits()
}

// checkLimits validates the compiled prototype against the encodable
// operand ranges once the whole body is emitted.
func (fc *funcCompiler) checkLimits() (*bytecode.FunctionProto, error) {
	if fc.proto.LocalCount > maxLocalSlots {
		return nil, errf("LocalLimitExceeded", "%d locals exceed the %d-slot frame limit", fc.proto.LocalCount, maxLocalSlots)
	}
	return fc.proto, nil
}

// hoist pre-declares every `var` and function-declaration name in
// stmts (recursing into nested non-function blocks, matching "var
// declarations are hoisted to the enclosing function"), so a reference
// that textually precedes its declaration still resolves as a local.
func hoist(fc *funcCompiler, stmts []ast.Statement) {
	var walk func(stmt ast.Statement)
	walk = func(stmt ast.Statement) {
		switch s := stmt.(type) {
		case *ast.VarDecl:
			if s.Kind == ast.DeclVar {
				for _, n := range s.Names {
					if _, ok := fc.resolveLocal(n); !ok {
						fc.declareLocal(n)
					}
				}
			}
		case *ast.FunctionDecl:
			fc.declareLocal(s.Name)
		case *ast.BlockStatement:
			for _, st := range s.Statements {
				walk(st)
			}
		case *ast.IfStatement:
			walk(s.Then)
			if s.Else != nil {
				walk(s.Else)
			}
		case *ast.WhileStatement:
			walk(s.Body)
		case *ast.DoWhileStatement:
			walk(s.Body)
		case *ast.ForStatement:
			if s.Init != nil {
				walk(s.Init)
			}
			walk(s.Body)
		case *ast.TryStatement:
			for _, st := range s.Block.Statements {
				walk(st)
			}
			if s.Catch != nil {
				for _, st := range s.Catch.Statements {
					walk(st)
				}
			}
			if s.Finally != nil {
				for _, st := range s.Finally.Statements {
					walk(st)
				}
			}
		}
	}
	for _, stmt := range stmts {
		walk(stmt)
	}
}
