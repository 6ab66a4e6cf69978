package compiler

import (
	"github.com/kristofer/jscore/internal/ast"
	"github.com/kristofer/jscore/internal/bytecode"
)

func (fc *funcCompiler) freshTemp() int32 {
	slot := fc.nextSlot
	fc.nextSlot++
	if fc.nextSlot > fc.proto.LocalCount {
		fc.proto.LocalCount = fc.nextSlot
	}
	return int32(slot)
}

var binaryOps = map[string]bytecode.Opcode{
	"+": bytecode.OpAdd, "-": bytecode.OpSub, "*": bytecode.OpMul, "/": bytecode.OpDiv,
	"%": bytecode.OpRem, "**": bytecode.OpPow,
	"|": bytecode.OpBitOr, "^": bytecode.OpBitXor, "&": bytecode.OpBitAnd,
	"<<": bytecode.OpBitShl, ">>": bytecode.OpBitShr, ">>>": bytecode.OpBitUShr,
	"<": bytecode.OpLt, "<=": bytecode.OpLe, ">": bytecode.OpGt, ">=": bytecode.OpGe,
	"==": bytecode.OpEq, "!=": bytecode.OpNe, "===": bytecode.OpStrictEq, "!==": bytecode.OpStrictNe,
	"instanceof": bytecode.OpInstanceOf, "in": bytecode.OpObjIn,
}

// compoundOps maps a compound-assignment operator to the bare binary
// operator it desugars to ("+=" -> "+").
var compoundOps = map[string]string{
	"+=": "+", "-=": "-", "*=": "*", "/=": "/", "%=": "%",
}

func (fc *funcCompiler) compileExpression(expr ast.Expression) error {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		fc.emit(bytecode.OpConstant, fc.addConstant(bytecode.NumberConst(e.Value)), 0)
		return nil
	case *ast.StringLiteral:
		fc.emit(bytecode.OpConstant, fc.addConstant(bytecode.StringConst(fc.it.Intern(e.Value))), 0)
		return nil
	case *ast.BooleanLiteral:
		fc.emit(bytecode.OpConstant, fc.addConstant(bytecode.BooleanConst(e.Value)), 0)
		return nil
	case *ast.NullLiteral:
		fc.emit(bytecode.OpNull, 0, 0)
		return nil
	case *ast.UndefinedLiteral:
		fc.emit(bytecode.OpUndefined, 0, 0)
		return nil
	case *ast.ThisExpr:
		fc.emit(bytecode.OpThis, 0, 0)
		return nil
	case *ast.SuperExpr:
		fc.emit(bytecode.OpSuper, 0, 0)
		return nil
	case *ast.Identifier:
		return fc.loadName(e.Name)
	case *ast.ArrayLiteral:
		if len(e.Elements) > maxLitEntries {
			return errf("ArrayLitLimitExceeded", "array literal with %d elements", len(e.Elements))
		}
		for _, el := range e.Elements {
			if err := fc.compileExpression(el); err != nil {
				return err
			}
		}
		fc.emit(bytecode.OpArrayLit, int32(len(e.Elements)), 0)
		return nil
	case *ast.ObjectLiteral:
		for _, prop := range e.Properties {
			if prop.Computed {
				if err := fc.compileExpression(prop.KeyExpr); err != nil {
					return err
				}
			} else {
				fc.emit(bytecode.OpConstant, fc.addConstant(bytecode.StringConst(fc.it.Intern(prop.Key))), 0)
			}
			if err := fc.compileExpression(prop.Value); err != nil {
				return err
			}
		}
		fc.emit(bytecode.OpObjLit, int32(len(e.Properties)), 0)
		return nil
	case *ast.BinaryExpr:
		if err := fc.compileExpression(e.Left); err != nil {
			return err
		}
		if err := fc.compileExpression(e.Right); err != nil {
			return err
		}
		op, ok := binaryOps[e.Op]
		if !ok {
			return errf("Unimplemented", "binary operator %q", e.Op)
		}
		fc.emit(op, 0, 0)
		return nil
	case *ast.LogicalExpr:
		return fc.compileLogical(e)
	case *ast.UnaryExpr:
		return fc.compileUnary(e)
	case *ast.UpdateExpr:
		delta := "+"
		if e.Op == "--" {
			delta = "-"
		}
		one := &ast.NumberLiteral{Value: 1}
		return fc.compileCompound(e.Operand, delta, one, !e.Prefix)
	case *ast.AssignExpr:
		if e.Op == "=" {
			return fc.compilePlainAssign(e.Target, e.Value)
		}
		bare, ok := compoundOps[e.Op]
		if !ok {
			return errf("Unimplemented", "assignment operator %q", e.Op)
		}
		return fc.compileCompound(e.Target, bare, e.Value, false)
	case *ast.MemberExpr:
		return fc.compilePropertyRead(e, false)
	case *ast.CallExpr:
		return fc.compileCall(e)
	case *ast.ConditionalExpr:
		if err := fc.compileExpression(e.Cond); err != nil {
			return err
		}
		jmpElse := fc.emit(bytecode.OpJmpFalseP, 0, 0)
		if err := fc.compileExpression(e.Then); err != nil {
			return err
		}
		jmpEnd := fc.emit(bytecode.OpJmp, 0, 0)
		fc.patchA(jmpElse, int32(fc.here()))
		if err := fc.compileExpression(e.Else); err != nil {
			return err
		}
		fc.patchA(jmpEnd, int32(fc.here()))
		return nil
	case *ast.SequenceExpr:
		for i, sub := range e.Exprs {
			if err := fc.compileExpression(sub); err != nil {
				return err
			}
			if i != len(e.Exprs)-1 {
				fc.emit(bytecode.OpPop, 0, 0)
			}
		}
		return nil
	case *ast.YieldExpr:
		if !fc.inGenerator {
			return errf("YieldOutsideGenerator", "yield used outside a generator function")
		}
		if e.Value != nil {
			if err := fc.compileExpression(e.Value); err != nil {
				return err
			}
		} else {
			fc.emit(bytecode.OpUndefined, 0, 0)
		}
		fc.emit(bytecode.OpYield, 0, 0)
		return nil
	case *ast.FunctionExpr:
		proto, err := compileFunctionBody(fc, e.Name, e.Params, e.Body, e.Generator, e.Arrow)
		if err != nil {
			return err
		}
		idx := fc.addConstant(bytecode.FunctionConst(proto))
		fc.emit(bytecode.OpMakeFunction, idx, 0)
		return nil
	default:
		return errf("Unimplemented", "expression type %T", expr)
	}
}

// compileLogical implements the short-circuit lowering rule verbatim:
// emit LHS, branch on the decided condition leaving the LHS value on
// the stack if taken, otherwise pop it and evaluate RHS.
func (fc *funcCompiler) compileLogical(e *ast.LogicalExpr) error {
	if err := fc.compileExpression(e.Left); err != nil {
		return err
	}
	var skip int
	switch e.Op {
	case "&&":
		skip = fc.emit(bytecode.OpJmpFalseNP, 0, 0)
	case "||":
		skip = fc.emit(bytecode.OpJmpTrueNP, 0, 0)
	case "??":
		skip = fc.emit(bytecode.OpJmpNullishNP, 0, 0)
	default:
		return errf("Unimplemented", "logical operator %q", e.Op)
	}
	fc.emit(bytecode.OpPop, 0, 0)
	if err := fc.compileExpression(e.Right); err != nil {
		return err
	}
	fc.patchA(skip, int32(fc.here()))
	return nil
}

var unaryOps = map[string]bytecode.Opcode{
	"-": bytecode.OpNeg, "+": bytecode.OpPos, "!": bytecode.OpNot, "~": bytecode.OpBitNot,
	"typeof": bytecode.OpTypeOf,
}

func (fc *funcCompiler) compileUnary(e *ast.UnaryExpr) error {
	if e.Op == "void" {
		if err := fc.compileExpression(e.Operand); err != nil {
			return err
		}
		fc.emit(bytecode.OpPop, 0, 0)
		fc.emit(bytecode.OpUndefined, 0, 0)
		return nil
	}
	if e.Op == "delete" {
		return fc.compileDelete(e.Operand)
	}
	if err := fc.compileExpression(e.Operand); err != nil {
		return err
	}
	op, ok := unaryOps[e.Op]
	if !ok {
		return errf("Unimplemented", "unary operator %q", e.Op)
	}
	fc.emit(op, 0, 0)
	return nil
}

// compileDelete handles `delete obj.prop` / `delete obj[k]`; deleting a
// bare identifier is a no-op that evaluates to false, matching the
// non-strict-mode behavior the core's write protocol already takes
// (non-writable/absent properties are handled silently, never thrown).
func (fc *funcCompiler) compileDelete(target ast.Expression) error {
	m, ok := target.(*ast.MemberExpr)
	if !ok {
		fc.emit(bytecode.OpConstant, fc.addConstant(bytecode.BooleanConst(false)), 0)
		return nil
	}
	if err := fc.compileExpression(m.Object); err != nil {
		return err
	}
	if m.Computed {
		if err := fc.compileExpression(m.Index); err != nil {
			return err
		}
		fc.emit(bytecode.OpDynamicPropAssign, 0, 1) // B=1 marks delete-mode for the VM handler
		return nil
	}
	nameIdx := fc.addConstant(bytecode.IdentConst(fc.it.Intern(m.Property)))
	fc.emit(bytecode.OpStaticPropAssign, nameIdx, 1) // B=1 marks delete-mode
	return nil
}

// loadName resolves name to a local, external, or global reference and
// emits the matching load instruction.
func (fc *funcCompiler) loadName(name string) error {
	switch res := fc.resolveName(name); res.kind {
	case resLocal:
		fc.emit(bytecode.OpLdLocal, int32(res.slot), 0)
	case resExternal:
		fc.emit(bytecode.OpLdLocalExt, int32(res.slot), 0)
	default:
		fc.emit(bytecode.OpLdGlobal, fc.identConstant(name), 0)
	}
	return nil
}

func (fc *funcCompiler) storeName(name string) error {
	res := fc.resolveName(name)
	if res.isConst {
		return errf("ConstAssignment", "assignment to constant %q", name)
	}
	switch res.kind {
	case resLocal:
		fc.emit(bytecode.OpStoreLocal, int32(res.slot), 0)
	case resExternal:
		fc.emit(bytecode.OpStoreLocalExt, int32(res.slot), 0)
	default:
		fc.emit(bytecode.OpStoreGlobal, fc.identConstant(name), 0)
	}
	return nil
}

// compilePropertyRead compiles `a.b` / `a[k]`. preserveThis leaves the
// receiver under the result so a following Call can bind it as `this`.
func (fc *funcCompiler) compilePropertyRead(m *ast.MemberExpr, preserveThis bool) error {
	if err := fc.compileExpression(m.Object); err != nil {
		return err
	}
	pt := int32(0)
	if preserveThis {
		pt = 1
	}
	if m.Computed {
		if err := fc.compileExpression(m.Index); err != nil {
			return err
		}
		fc.emit(bytecode.OpDynamicPropAccess, 0, pt)
		return nil
	}
	nameIdx := fc.addConstant(bytecode.IdentConst(fc.it.Intern(m.Property)))
	fc.emit(bytecode.OpStaticPropAccess, nameIdx, pt)
	return nil
}

func (fc *funcCompiler) compilePlainAssign(target, value ast.Expression) error {
	switch t := target.(type) {
	case *ast.Identifier:
		if err := fc.compileExpression(value); err != nil {
			return err
		}
		return fc.storeName(t.Name)
	case *ast.MemberExpr:
		if err := fc.compileExpression(t.Object); err != nil {
			return err
		}
		if t.Computed {
			if err := fc.compileExpression(t.Index); err != nil {
				return err
			}
			if err := fc.compileExpression(value); err != nil {
				return err
			}
			fc.emit(bytecode.OpDynamicPropAssign, 0, 0)
			return nil
		}
		if err := fc.compileExpression(value); err != nil {
			return err
		}
		nameIdx := fc.addConstant(bytecode.IdentConst(fc.it.Intern(t.Property)))
		fc.emit(bytecode.OpStaticPropAssign, nameIdx, 0)
		return nil
	default:
		return errf("Unimplemented", "assignment target %T", target)
	}
}

// compileCompound implements the compound-assignment / update-operator
// lowering: evaluate the target's current value once,
// combine it with rhs via op, store the result, and leave either the
// new value (resultIsOld=false: compound assignment, prefix update) or
// the value from before the update (resultIsOld=true: postfix update)
// on the stack.
//
// The identifier case keeps the old value with Dup/Pop; the member
// cases route through compiler-internal temporary locals
// rather than an exotic stack-shuffle opcode: simpler to get right by
// hand than a dedicated N-element stack reversal, at the cost of a few
// extra local slots that live only for the duration of one expression.
func (fc *funcCompiler) compileCompound(target ast.Expression, op string, rhs ast.Expression, resultIsOld bool) error {
	binOp, ok := binaryOps[op]
	if !ok {
		return errf("Unimplemented", "compound operator %q", op)
	}

	switch t := target.(type) {
	case *ast.Identifier:
		if err := fc.loadName(t.Name); err != nil {
			return err
		}
		if resultIsOld {
			fc.emit(bytecode.OpDup, 0, 0)
		}
		if err := fc.compileExpression(rhs); err != nil {
			return err
		}
		fc.emit(binOp, 0, 0)
		if err := fc.storeName(t.Name); err != nil {
			return err
		}
		if resultIsOld {
			fc.emit(bytecode.OpPop, 0, 0)
		}
		return nil

	case *ast.MemberExpr:
		if !t.Computed {
			if err := fc.compileExpression(t.Object); err != nil {
				return err
			}
			fc.emit(bytecode.OpDup, 0, 0)
			nameIdx := fc.addConstant(bytecode.IdentConst(fc.it.Intern(t.Property)))
			fc.emit(bytecode.OpStaticPropAccess, nameIdx, 0)

			var tOld int32
			if resultIsOld {
				tOld = fc.freshTemp()
				fc.emit(bytecode.OpStoreLocal, tOld, 0)
			}
			if err := fc.compileExpression(rhs); err != nil {
				return err
			}
			fc.emit(binOp, 0, 0)
			fc.emit(bytecode.OpStaticPropAssign, nameIdx, 0)
			if resultIsOld {
				fc.emit(bytecode.OpPop, 0, 0)
				fc.emit(bytecode.OpLdLocal, tOld, 0)
			}
			return nil
		}

		tBase := fc.freshTemp()
		tKey := fc.freshTemp()
		if err := fc.compileExpression(t.Object); err != nil {
			return err
		}
		fc.emit(bytecode.OpStoreLocal, tBase, 0)
		if err := fc.compileExpression(t.Index); err != nil {
			return err
		}
		fc.emit(bytecode.OpStoreLocal, tKey, 0)
		fc.emit(bytecode.OpDynamicPropAccess, 0, 0)

		var tOld int32
		if resultIsOld {
			tOld = fc.freshTemp()
			fc.emit(bytecode.OpStoreLocal, tOld, 0)
		}
		if err := fc.compileExpression(rhs); err != nil {
			return err
		}
		fc.emit(binOp, 0, 0)

		tNew := fc.freshTemp()
		fc.emit(bytecode.OpStoreLocal, tNew, 0)
		fc.emit(bytecode.OpPop, 0, 0)
		fc.emit(bytecode.OpLdLocal, tBase, 0)
		fc.emit(bytecode.OpLdLocal, tKey, 0)
		fc.emit(bytecode.OpLdLocal, tNew, 0)
		fc.emit(bytecode.OpDynamicPropAssign, 0, 0)
		if resultIsOld {
			fc.emit(bytecode.OpPop, 0, 0)
			fc.emit(bytecode.OpLdLocal, tOld, 0)
		}
		return nil

	default:
		return errf("Unimplemented", "compound-assignment target %T", target)
	}
}

// compileCall handles both plain calls and `new` expressions; a
// MemberExpr callee preserves its receiver as `this` via the Call
// opcode's has_this meta bit.
func (fc *funcCompiler) compileCall(e *ast.CallExpr) error {
	hasThis := false
	if m, ok := e.Callee.(*ast.MemberExpr); ok && !e.New {
		if err := fc.compilePropertyRead(m, true); err != nil {
			return err
		}
		hasThis = true
	} else {
		if err := fc.compileExpression(e.Callee); err != nil {
			return err
		}
	}
	if len(e.Args) > maxCallArgs {
		return errf("ParameterLimitExceeded", "call with %d arguments", len(e.Args))
	}
	for _, a := range e.Args {
		if err := fc.compileExpression(a); err != nil {
			return err
		}
	}
	meta := bytecode.PackCallMeta(e.New, hasThis, len(e.Args))
	fc.emit(bytecode.OpCall, meta, 0)
	return nil
}
