package compiler

import (
	"github.com/kristofer/jscore/internal/ast"
	"github.com/kristofer/jscore/internal/bytecode"
)

// compileFunctionBody compiles one function's parameters and body into
// a standalone FunctionProto, linked to parent via the funcCompiler
// chain so resolveName can promote free variables into parent's
// externals table. A plain function whose own body yields compiles as
// a generator without the * marker; arrows never do, and a yield
// inside one still reports YieldOutsideGenerator.
func compileFunctionBody(parent *funcCompiler, name string, params []string, body []ast.Statement, generator, arrow bool) (*bytecode.FunctionProto, error) {
	if !generator && !arrow && containsYield(body) {
		generator = true
	}
	kind := bytecode.FunctionPlain
	switch {
	case generator:
		kind = bytecode.FunctionGenerator
	case arrow:
		kind = bytecode.FunctionArrow
	}

	fc := newFuncCompiler(parent, parent.it, kind)
	fc.inGenerator = generator

	if name != "" {
		fc.proto.Name = fc.it.Intern(name)
		fc.proto.HasName = true
	}

	if len(params) > 255 {
		return nil, errf("ParameterLimitExceeded", "%d parameters on function %q", len(params), name)
	}
	for _, p := range params {
		fc.declareLocal(p)
	}
	fc.proto.ParamCount = len(params)

	hoist(fc, body)
	for _, stmt := range body {
		if err := fc.compileStatement(stmt); err != nil {
			return nil, err
		}
	}
	fc.emit(bytecode.OpUndefined, 0, 0)
	fc.emit(bytecode.OpRet, 0, 0)
	return fc.checkLimits()
}

// containsYield reports whether a yield expression appears directly in
// this function body, not counting nested function bodies (their
// yields belong to them).
func containsYield(body []ast.Statement) bool {
	found := false
	var walkExpr func(e ast.Expression)
	var walkStmt func(s ast.Statement)

	walkExpr = func(e ast.Expression) {
		if found || e == nil {
			return
		}
		switch x := e.(type) {
		case *ast.YieldExpr:
			found = true
		case *ast.BinaryExpr:
			walkExpr(x.Left)
			walkExpr(x.Right)
		case *ast.LogicalExpr:
			walkExpr(x.Left)
			walkExpr(x.Right)
		case *ast.UnaryExpr:
			walkExpr(x.Operand)
		case *ast.UpdateExpr:
			walkExpr(x.Operand)
		case *ast.AssignExpr:
			walkExpr(x.Target)
			walkExpr(x.Value)
		case *ast.MemberExpr:
			walkExpr(x.Object)
			walkExpr(x.Index)
		case *ast.CallExpr:
			walkExpr(x.Callee)
			for _, a := range x.Args {
				walkExpr(a)
			}
		case *ast.ConditionalExpr:
			walkExpr(x.Cond)
			walkExpr(x.Then)
			walkExpr(x.Else)
		case *ast.SequenceExpr:
			for _, sub := range x.Exprs {
				walkExpr(sub)
			}
		case *ast.ArrayLiteral:
			for _, el := range x.Elements {
				walkExpr(el)
			}
		case *ast.ObjectLiteral:
			for _, p := range x.Properties {
				walkExpr(p.KeyExpr)
				walkExpr(p.Value)
			}
		}
	}

	walkStmt = func(s ast.Statement) {
		if found || s == nil {
			return
		}
		switch x := s.(type) {
		case *ast.ExpressionStatement:
			walkExpr(x.Expr)
		case *ast.VarDecl:
			for _, init := range x.Initializer {
				walkExpr(init)
			}
		case *ast.BlockStatement:
			for _, st := range x.Statements {
				walkStmt(st)
			}
		case *ast.IfStatement:
			walkExpr(x.Cond)
			walkStmt(x.Then)
			walkStmt(x.Else)
		case *ast.WhileStatement:
			walkExpr(x.Cond)
			walkStmt(x.Body)
		case *ast.DoWhileStatement:
			walkStmt(x.Body)
			walkExpr(x.Cond)
		case *ast.ForStatement:
			walkStmt(x.Init)
			walkExpr(x.Cond)
			walkExpr(x.Update)
			walkStmt(x.Body)
		case *ast.ReturnStatement:
			walkExpr(x.Value)
		case *ast.ThrowStatement:
			walkExpr(x.Value)
		case *ast.TryStatement:
			if x.Block != nil {
				walkStmt(x.Block)
			}
			if x.Catch != nil {
				walkStmt(x.Catch)
			}
			if x.Finally != nil {
				walkStmt(x.Finally)
			}
		}
	}

	for _, s := range body {
		walkStmt(s)
	}
	return found
}
