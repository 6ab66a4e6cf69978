package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/jscore/internal/ast"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := New(src).Parse()
	require.NoError(t, err)
	return prog
}

func firstExpr(t *testing.T, src string) ast.Expression {
	t.Helper()
	prog := parse(t, src)
	require.NotEmpty(t, prog.Statements)
	es, ok := prog.Statements[0].(*ast.ExpressionStatement)
	require.True(t, ok, "statement is %T", prog.Statements[0])
	return es.Expr
}

func TestOperatorPrecedence(t *testing.T) {
	// 1 + 2 * 3 parses as 1 + (2 * 3)
	e := firstExpr(t, "1 + 2 * 3")
	add, ok := e.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "+", add.Op)
	mul, ok := add.Right.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "*", mul.Op)
}

func TestComparisonBindsLooserThanAddition(t *testing.T) {
	e := firstExpr(t, "a + 1 < b * 2")
	cmp, ok := e.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "<", cmp.Op)
	_, ok = cmp.Left.(*ast.BinaryExpr)
	assert.True(t, ok)
}

func TestExponentIsRightAssociative(t *testing.T) {
	e := firstExpr(t, "2 ** 3 ** 2")
	outer, ok := e.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "**", outer.Op)
	_, leftIsLit := outer.Left.(*ast.NumberLiteral)
	assert.True(t, leftIsLit, "2 ** (3 ** 2): left operand is the literal 2")
	inner, ok := outer.Right.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "**", inner.Op)
}

func TestAssignmentIsRightAssociative(t *testing.T) {
	e := firstExpr(t, "a = b = 1")
	outer, ok := e.(*ast.AssignExpr)
	require.True(t, ok)
	_, ok = outer.Value.(*ast.AssignExpr)
	assert.True(t, ok)
}

func TestLogicalOperatorsProduceLogicalExpr(t *testing.T) {
	for _, op := range []string{"&&", "||", "??"} {
		e := firstExpr(t, "a "+op+" b")
		le, ok := e.(*ast.LogicalExpr)
		require.True(t, ok, "%s parsed as %T", op, e)
		assert.Equal(t, op, le.Op)
	}
}

func TestMemberAndCallChaining(t *testing.T) {
	e := firstExpr(t, "a.b[0](1, 2)")
	call, ok := e.(*ast.CallExpr)
	require.True(t, ok)
	assert.Len(t, call.Args, 2)
	idx, ok := call.Callee.(*ast.MemberExpr)
	require.True(t, ok)
	assert.True(t, idx.Computed)
	dot, ok := idx.Object.(*ast.MemberExpr)
	require.True(t, ok)
	assert.Equal(t, "b", dot.Property)
}

func TestNewExpression(t *testing.T) {
	e := firstExpr(t, "new Foo(1)")
	call, ok := e.(*ast.CallExpr)
	require.True(t, ok)
	assert.True(t, call.New)
	assert.Len(t, call.Args, 1)
}

func TestVarDeclForms(t *testing.T) {
	prog := parse(t, "var a = 1, b; let c = 2; const d = 3;")

	va, ok := prog.Statements[0].(*ast.VarDecl)
	require.True(t, ok)
	assert.Equal(t, ast.DeclVar, va.Kind)
	assert.Equal(t, []string{"a", "b"}, va.Names)
	assert.NotNil(t, va.Initializer[0])
	assert.Nil(t, va.Initializer[1])

	le, ok := prog.Statements[1].(*ast.VarDecl)
	require.True(t, ok)
	assert.Equal(t, ast.DeclLet, le.Kind)

	co, ok := prog.Statements[2].(*ast.VarDecl)
	require.True(t, ok)
	assert.Equal(t, ast.DeclConst, co.Kind)
}

func TestGeneratorFunctionDecl(t *testing.T) {
	prog := parse(t, "function* gen() { yield 1; }")
	fd, ok := prog.Statements[0].(*ast.FunctionDecl)
	require.True(t, ok)
	assert.True(t, fd.Generator)
	es, ok := fd.Body[0].(*ast.ExpressionStatement)
	require.True(t, ok)
	_, ok = es.Expr.(*ast.YieldExpr)
	assert.True(t, ok)
}

func TestTryCatchFinallyShapes(t *testing.T) {
	prog := parse(t, "try { a() } catch (e) { b() } finally { c() }")
	ts, ok := prog.Statements[0].(*ast.TryStatement)
	require.True(t, ok)
	assert.True(t, ts.HasCatch)
	assert.Equal(t, "e", ts.CatchParam)
	assert.NotNil(t, ts.Finally)

	prog = parse(t, "try { a() } catch { b() }")
	ts = prog.Statements[0].(*ast.TryStatement)
	assert.True(t, ts.HasCatch)
	assert.Equal(t, "", ts.CatchParam)
	assert.Nil(t, ts.Finally)
}

// The for-of desugaring must leave its hidden iterator locals in the
// same scope as the loop that reads them.
func TestForOfDesugarsToSiblingDeclsPlusLoop(t *testing.T) {
	prog := parse(t, "for (const x of arr) { x; }")
	block, ok := prog.Statements[0].(*ast.BlockStatement)
	require.True(t, ok)
	require.Len(t, block.Statements, 3)

	_, ok = block.Statements[0].(*ast.VarDecl)
	assert.True(t, ok, "first sibling is the hidden iterator decl")
	_, ok = block.Statements[1].(*ast.VarDecl)
	assert.True(t, ok, "second sibling is the hidden result decl")
	loop, ok := block.Statements[2].(*ast.ForStatement)
	require.True(t, ok)
	assert.Nil(t, loop.Init, "desugared loop carries no init of its own")
	assert.NotNil(t, loop.Cond)
	assert.NotNil(t, loop.Update)
}

func TestObjectLiteralForms(t *testing.T) {
	e := firstExpr(t, "({ a: 1, b, [k]: 2, m(x) { return x; } })")
	obj, ok := e.(*ast.ObjectLiteral)
	require.True(t, ok)
	require.Len(t, obj.Properties, 4)

	assert.Equal(t, "a", obj.Properties[0].Key)
	// Shorthand b expands to b: b.
	id, ok := obj.Properties[1].Value.(*ast.Identifier)
	require.True(t, ok)
	assert.Equal(t, "b", id.Name)
	assert.True(t, obj.Properties[2].Computed)
	_, ok = obj.Properties[3].Value.(*ast.FunctionExpr)
	assert.True(t, ok, "method shorthand becomes a function expression")
}

func TestParseErrorsAreReported(t *testing.T) {
	_, err := New("let = 5").Parse()
	assert.Error(t, err)
	_, err = New("a +").Parse()
	assert.Error(t, err)
}
