package compiler

import (
	"github.com/kristofer/jscore/internal/ast"
	"github.com/kristofer/jscore/internal/bytecode"
)

func (fc *funcCompiler) compileStatement(stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		if err := fc.compileExpression(s.Expr); err != nil {
			return err
		}
		if fc.trackResult {
			fc.emit(bytecode.OpStoreLocal, fc.resultSlot, 0)
		}
		fc.emit(bytecode.OpPop, 0, 0)
		return nil

	case *ast.VarDecl:
		return fc.compileVarDecl(s)

	case *ast.FunctionDecl:
		return fc.compileFunctionDecl(s)

	case *ast.BlockStatement:
		fc.pushScope(false)
		defer fc.popScope()
		for _, st := range s.Statements {
			if err := fc.compileStatement(st); err != nil {
				return err
			}
		}
		return nil

	case *ast.IfStatement:
		return fc.compileIf(s)

	case *ast.WhileStatement:
		return fc.compileWhile(s)

	case *ast.DoWhileStatement:
		return fc.compileDoWhile(s)

	case *ast.ForStatement:
		return fc.compileFor(s)

	case *ast.ReturnStatement:
		if s.Value != nil {
			if err := fc.compileExpression(s.Value); err != nil {
				return err
			}
		} else {
			fc.emit(bytecode.OpUndefined, 0, 0)
		}
		fc.emit(bytecode.OpRet, 0, 0)
		return nil

	case *ast.ThrowStatement:
		if err := fc.compileExpression(s.Value); err != nil {
			return err
		}
		fc.emit(bytecode.OpThrow, 0, 0)
		return nil

	case *ast.BreakStatement:
		if len(fc.loops) == 0 {
			return errf("Unimplemented", "break outside a loop")
		}
		lp := fc.loops[len(fc.loops)-1]
		idx := fc.emit(bytecode.OpJmp, 0, 0)
		lp.breakPatches = append(lp.breakPatches, idx)
		return nil

	case *ast.ContinueStatement:
		if len(fc.loops) == 0 {
			return errf("Unimplemented", "continue outside a loop")
		}
		lp := fc.loops[len(fc.loops)-1]
		idx := fc.emit(bytecode.OpJmp, 0, 0)
		lp.continuePatches = append(lp.continuePatches, idx)
		return nil

	case *ast.TryStatement:
		return fc.compileTry(s)

	case *ast.DebuggerStatement:
		fc.emit(bytecode.OpDebugger, 0, 0)
		return nil

	default:
		return errf("Unimplemented", "statement type %T", stmt)
	}
}

func (fc *funcCompiler) compileVarDecl(s *ast.VarDecl) error {
	for i, name := range s.Names {
		var slot int
		if s.Kind == ast.DeclVar {
			// Already declared during hoisting; just find the slot.
			slot, _ = fc.resolveLocal(name)
		} else {
			slot = fc.declareBinding(name, s.Kind == ast.DeclConst)
		}
		if init := s.Initializer[i]; init != nil {
			if err := fc.compileExpression(init); err != nil {
				return err
			}
		} else {
			fc.emit(bytecode.OpUndefined, 0, 0)
		}
		fc.emit(bytecode.OpStoreLocal, int32(slot), 0)
		fc.emit(bytecode.OpPop, 0, 0)
	}
	return nil
}

func (fc *funcCompiler) compileIf(s *ast.IfStatement) error {
	if err := fc.compileExpression(s.Cond); err != nil {
		return err
	}
	jmpElse := fc.emit(bytecode.OpJmpFalseP, 0, 0)
	if err := fc.compileStatement(s.Then); err != nil {
		return err
	}
	if s.Else == nil {
		fc.patchA(jmpElse, int32(fc.here()))
		return nil
	}
	jmpEnd := fc.emit(bytecode.OpJmp, 0, 0)
	fc.patchA(jmpElse, int32(fc.here()))
	if err := fc.compileStatement(s.Else); err != nil {
		return err
	}
	fc.patchA(jmpEnd, int32(fc.here()))
	return nil
}

func (fc *funcCompiler) compileWhile(s *ast.WhileStatement) error {
	lp := &loopCtx{}
	fc.loops = append(fc.loops, lp)
	defer func() { fc.loops = fc.loops[:len(fc.loops)-1] }()

	condIP := fc.here()
	if err := fc.compileExpression(s.Cond); err != nil {
		return err
	}
	exitJmp := fc.emit(bytecode.OpJmpFalseP, 0, 0)
	if err := fc.compileStatement(s.Body); err != nil {
		return err
	}
	fc.emit(bytecode.OpJmp, int32(condIP), 0)
	endIP := int32(fc.here())
	fc.patchA(exitJmp, endIP)
	for _, idx := range lp.breakPatches {
		fc.patchA(idx, endIP)
	}
	for _, idx := range lp.continuePatches {
		fc.patchA(idx, int32(condIP))
	}
	return nil
}

func (fc *funcCompiler) compileDoWhile(s *ast.DoWhileStatement) error {
	lp := &loopCtx{}
	fc.loops = append(fc.loops, lp)
	defer func() { fc.loops = fc.loops[:len(fc.loops)-1] }()

	bodyIP := fc.here()
	if err := fc.compileStatement(s.Body); err != nil {
		return err
	}
	condIP := fc.here()
	if err := fc.compileExpression(s.Cond); err != nil {
		return err
	}
	fc.emit(bytecode.OpJmpTrueP, int32(bodyIP), 0)
	endIP := int32(fc.here())
	for _, idx := range lp.breakPatches {
		fc.patchA(idx, endIP)
	}
	for _, idx := range lp.continuePatches {
		fc.patchA(idx, int32(condIP))
	}
	return nil
}

// compileFor lowers the C-style for-loop to a while-loop: init runs
// once, the condition gates the body, and the update expression is
// appended right before the back-edge jump so `continue` still
// reaches it.
func (fc *funcCompiler) compileFor(s *ast.ForStatement) error {
	fc.pushScope(false)
	defer fc.popScope()

	if s.Init != nil {
		if err := fc.compileStatement(s.Init); err != nil {
			return err
		}
	}

	lp := &loopCtx{}
	fc.loops = append(fc.loops, lp)
	defer func() { fc.loops = fc.loops[:len(fc.loops)-1] }()

	condIP := fc.here()
	var exitJmp int
	hasExit := s.Cond != nil
	if hasExit {
		if err := fc.compileExpression(s.Cond); err != nil {
			return err
		}
		exitJmp = fc.emit(bytecode.OpJmpFalseP, 0, 0)
	}
	if err := fc.compileStatement(s.Body); err != nil {
		return err
	}
	updateIP := fc.here()
	if s.Update != nil {
		if err := fc.compileExpression(s.Update); err != nil {
			return err
		}
		fc.emit(bytecode.OpPop, 0, 0)
	}
	fc.emit(bytecode.OpJmp, int32(condIP), 0)
	endIP := int32(fc.here())
	if hasExit {
		fc.patchA(exitJmp, endIP)
	}
	for _, idx := range lp.breakPatches {
		fc.patchA(idx, endIP)
	}
	for _, idx := range lp.continuePatches {
		fc.patchA(idx, int32(updateIP))
	}
	return nil
}

// compileTry lowers a try/catch through compileTryCatch (layout:
// Try(catchIP) ... body ... TryEnd; Jmp tryEnd; catch: [binding];
// catch body; tryEnd:). A finally block is supplemented here by
// wrapping the whole try/catch (or, with no catch clause, the bare try
// body) in a second, outer try-region whose own catch target runs the
// finally statements a second time and rethrows, so both the
// normal/caught completion path and an exception that escapes the
// inner catch run finally exactly once. `break`/`continue`/`return` executed directly inside
// the guarded region still skip it; see DESIGN.md.
func (fc *funcCompiler) compileTry(s *ast.TryStatement) error {
	if s.Finally == nil {
		return fc.compileTryCatch(s)
	}

	excSlot := fc.freshTemp()
	outerTry := fc.emit(bytecode.OpTry, 0, excSlot)

	if s.HasCatch {
		if err := fc.compileTryCatch(s); err != nil {
			return err
		}
	} else {
		for _, st := range s.Block.Statements {
			if err := fc.compileStatement(st); err != nil {
				return err
			}
		}
	}
	fc.emit(bytecode.OpTryEnd, 0, 0)

	for _, st := range s.Finally.Statements {
		if err := fc.compileStatement(st); err != nil {
			return err
		}
	}
	jmpSkipExceptional := fc.emit(bytecode.OpJmp, 0, 0)

	fc.patchA(outerTry, int32(fc.here()))
	for _, st := range s.Finally.Statements {
		if err := fc.compileStatement(st); err != nil {
			return err
		}
	}
	fc.emit(bytecode.OpLdLocal, excSlot, 0)
	fc.emit(bytecode.OpThrow, 0, 0)

	fc.patchA(jmpSkipExceptional, int32(fc.here()))
	return nil
}

// compileTryCatch lowers the try/catch pair alone (no finally),
// either as the whole of a finally-less try statement or as the body
// compileTry wraps with its own finally-guarding try-region.
//
// The normal path runs TryEnd itself before jumping past the catch
// body; the exceptional path never reaches a TryEnd because the
// unwinder already popped the try-block when it dispatched to the
// catch target. Both paths therefore leave the try-block stack
// exactly as deep as they found it.
func (fc *funcCompiler) compileTryCatch(s *ast.TryStatement) error {
	tryInst := fc.emit(bytecode.OpTry, 0, -1)

	for _, st := range s.Block.Statements {
		if err := fc.compileStatement(st); err != nil {
			return err
		}
	}
	fc.emit(bytecode.OpTryEnd, 0, 0)
	jmpEnd := fc.emit(bytecode.OpJmp, 0, 0)

	catchIP := int32(fc.here())
	catchSlot := int32(-1)
	fc.patchA(tryInst, catchIP)
	if s.HasCatch {
		fc.pushScope(false)
		if s.CatchParam != "" {
			catchSlot = int32(fc.declareLocal(s.CatchParam))
		}
		fc.proto.Instructions[tryInst].B = catchSlot
		for _, st := range s.Catch.Statements {
			if err := fc.compileStatement(st); err != nil {
				fc.popScope()
				return err
			}
		}
		fc.popScope()
	}
	fc.patchA(jmpEnd, int32(fc.here()))
	return nil
}

func (fc *funcCompiler) compileFunctionDecl(s *ast.FunctionDecl) error {
	slot, ok := fc.resolveLocal(s.Name)
	if !ok {
		slot = fc.declareLocal(s.Name)
	}
	proto, err := compileFunctionBody(fc, s.Name, s.Params, s.Body, s.Generator, false)
	if err != nil {
		return err
	}
	idx := fc.addConstant(bytecode.FunctionConst(proto))
	fc.emit(bytecode.OpMakeFunction, idx, 0)
	fc.emit(bytecode.OpStoreLocal, int32(slot), 0)
	fc.emit(bytecode.OpPop, 0, 0)
	return nil
}
