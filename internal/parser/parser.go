// Package parser implements a recursive-descent, precedence-climbing
// parser for the engine's ECMAScript-like surface syntax, producing
// internal/ast nodes for internal/compiler to consume. It exists only
// so the compiler has a concrete tree to walk, and is kept as thin as
// the grammar allows.
//
// The parser maintains a two-token lookahead window (curTok/peekTok)
// feeding a classic operator-precedence expression grammar.
package parser

import (
	"fmt"
	"strconv"

	"github.com/kristofer/jscore/internal/ast"
	"github.com/kristofer/jscore/internal/lexer"
)

// precedence levels, lowest to highest.
const (
	precLowest     = iota
	precAssign     // = += -= ...
	precConditional // ?:
	precNullish    // ??
	precOr         // ||
	precAnd        // &&
	precBitOr      // |
	precBitXor     // ^
	precBitAnd     // &
	precEquality   // == != === !==
	precRelational // < <= > >= instanceof in
	precShift      // << >> >>>
	precAdditive   // + -
	precMultiplicative // * / %
	precExponent   // **
	precUnary      // ! ~ + - typeof void delete ++ -- (prefix)
	precPostfix    // ++ -- (postfix)
	precCall       // foo() foo.bar foo[bar]
)

var precedences = map[lexer.TokenType]int{
	lexer.TokenAssign: precAssign, lexer.TokenPlusAssign: precAssign,
	lexer.TokenMinusAssign: precAssign, lexer.TokenStarAssign: precAssign,
	lexer.TokenSlashAssign: precAssign, lexer.TokenPercentAssign: precAssign,
	lexer.TokenQuestion: precConditional,
	lexer.TokenNullish:  precNullish,
	lexer.TokenOr:        precOr,
	lexer.TokenAnd:       precAnd,
	lexer.TokenPipe:      precBitOr,
	lexer.TokenCaret:     precBitXor,
	lexer.TokenAmp:       precBitAnd,
	lexer.TokenEq: precEquality, lexer.TokenNotEq: precEquality,
	lexer.TokenStrictEq: precEquality, lexer.TokenStrictNe: precEquality,
	lexer.TokenLess: precRelational, lexer.TokenLessEq: precRelational,
	lexer.TokenGreater: precRelational, lexer.TokenGreaterEq: precRelational,
	lexer.TokenInstanceof: precRelational, lexer.TokenIn: precRelational,
	lexer.TokenShl: precShift, lexer.TokenShr: precShift, lexer.TokenUShr: precShift,
	lexer.TokenPlus: precAdditive, lexer.TokenMinus: precAdditive,
	lexer.TokenStar: precMultiplicative, lexer.TokenSlash: precMultiplicative, lexer.TokenPercent: precMultiplicative,
	lexer.TokenStarStar: precExponent,
	lexer.TokenLParen:    precCall,
	lexer.TokenDot:       precCall,
	lexer.TokenLBracket:  precCall,
	lexer.TokenInc: precPostfix, lexer.TokenDec: precPostfix,
}

// Parser is a single-use recursive-descent parser over one source string.
type Parser struct {
	l       *lexer.Lexer
	curTok  lexer.Token
	peekTok lexer.Token
	errors  []string
}

// New creates a parser for the given source text.
func New(input string) *Parser {
	p := &Parser{l: lexer.New(input)}
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curTok = p.peekTok
	p.peekTok = p.l.NextToken()
}

func (p *Parser) Errors() []string { return p.errors }

func (p *Parser) errorf(format string, args ...interface{}) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *Parser) expect(tt lexer.TokenType) bool {
	if p.curTok.Type != tt {
		p.errorf("line %d: expected %s, got %s (%q)", p.curTok.Line, tt, p.curTok.Type, p.curTok.Literal)
		return false
	}
	p.nextToken()
	return true
}

func (p *Parser) peekIs(tt lexer.TokenType) bool { return p.peekTok.Type == tt }
func (p *Parser) curIs(tt lexer.TokenType) bool  { return p.curTok.Type == tt }

// Parse parses the whole input as a Program.
func (p *Parser) Parse() (*ast.Program, error) {
	prog := &ast.Program{}
	for !p.curIs(lexer.TokenEOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
		if len(p.errors) > 8 {
			break
		}
	}
	if len(p.errors) > 0 {
		return prog, fmt.Errorf("parser: %d error(s), first: %s", len(p.errors), p.errors[0])
	}
	return prog, nil
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.curTok.Type {
	case lexer.TokenVar, lexer.TokenLet, lexer.TokenConst:
		return p.parseVarDecl()
	case lexer.TokenFunction:
		return p.parseFunctionDecl()
	case lexer.TokenIf:
		return p.parseIf()
	case lexer.TokenWhile:
		return p.parseWhile()
	case lexer.TokenDo:
		return p.parseDoWhile()
	case lexer.TokenFor:
		return p.parseFor()
	case lexer.TokenReturn:
		return p.parseReturn()
	case lexer.TokenThrow:
		return p.parseThrow()
	case lexer.TokenBreak:
		p.nextToken()
		p.skipSemicolon()
		return &ast.BreakStatement{}
	case lexer.TokenContinue:
		p.nextToken()
		p.skipSemicolon()
		return &ast.ContinueStatement{}
	case lexer.TokenTry:
		return p.parseTry()
	case lexer.TokenDebugger:
		p.nextToken()
		p.skipSemicolon()
		return &ast.DebuggerStatement{}
	case lexer.TokenLBrace:
		return p.parseBlock()
	case lexer.TokenSemicolon:
		p.nextToken()
		return nil
	default:
		expr := p.parseExpression(precLowest)
		p.skipSemicolon()
		return &ast.ExpressionStatement{Expr: expr}
	}
}

func (p *Parser) skipSemicolon() {
	if p.curIs(lexer.TokenSemicolon) {
		p.nextToken()
	}
}

func (p *Parser) parseVarDecl() *ast.VarDecl {
	kind := ast.DeclVar
	switch p.curTok.Type {
	case lexer.TokenLet:
		kind = ast.DeclLet
	case lexer.TokenConst:
		kind = ast.DeclConst
	}
	p.nextToken()

	decl := &ast.VarDecl{Kind: kind}
	for {
		name := p.curTok.Literal
		p.expect(lexer.TokenIdentifier)
		decl.Names = append(decl.Names, name)
		var init ast.Expression
		if p.curIs(lexer.TokenAssign) {
			p.nextToken()
			init = p.parseExpression(precAssign)
		}
		decl.Initializer = append(decl.Initializer, init)
		if p.curIs(lexer.TokenComma) {
			p.nextToken()
			continue
		}
		break
	}
	p.skipSemicolon()
	return decl
}

func (p *Parser) parseParamList() []string {
	var params []string
	p.expect(lexer.TokenLParen)
	for !p.curIs(lexer.TokenRParen) && !p.curIs(lexer.TokenEOF) {
		params = append(params, p.curTok.Literal)
		p.expect(lexer.TokenIdentifier)
		if p.curIs(lexer.TokenComma) {
			p.nextToken()
		}
	}
	p.expect(lexer.TokenRParen)
	return params
}

func (p *Parser) parseFunctionDecl() *ast.FunctionDecl {
	p.nextToken() // 'function'
	gen := false
	if p.curIs(lexer.TokenStar) {
		gen = true
		p.nextToken()
	}
	name := p.curTok.Literal
	p.expect(lexer.TokenIdentifier)
	params := p.parseParamList()
	body := p.parseBlock()
	return &ast.FunctionDecl{Name: name, Params: params, Body: body.Statements, Generator: gen}
}

func (p *Parser) parseFunctionExpr() *ast.FunctionExpr {
	p.nextToken() // 'function'
	gen := false
	if p.curIs(lexer.TokenStar) {
		gen = true
		p.nextToken()
	}
	name := ""
	if p.curIs(lexer.TokenIdentifier) {
		name = p.curTok.Literal
		p.nextToken()
	}
	params := p.parseParamList()
	body := p.parseBlock()
	return &ast.FunctionExpr{Name: name, Params: params, Body: body.Statements, Generator: gen}
}

func (p *Parser) parseBlock() *ast.BlockStatement {
	block := &ast.BlockStatement{}
	p.expect(lexer.TokenLBrace)
	for !p.curIs(lexer.TokenRBrace) && !p.curIs(lexer.TokenEOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
	}
	p.expect(lexer.TokenRBrace)
	return block
}

func (p *Parser) parseIf() *ast.IfStatement {
	p.nextToken()
	p.expect(lexer.TokenLParen)
	cond := p.parseExpression(precLowest)
	p.expect(lexer.TokenRParen)
	then := p.parseStatement()
	var els ast.Statement
	if p.curIs(lexer.TokenElse) {
		p.nextToken()
		els = p.parseStatement()
	}
	return &ast.IfStatement{Cond: cond, Then: then, Else: els}
}

func (p *Parser) parseWhile() *ast.WhileStatement {
	p.nextToken()
	p.expect(lexer.TokenLParen)
	cond := p.parseExpression(precLowest)
	p.expect(lexer.TokenRParen)
	body := p.parseStatement()
	return &ast.WhileStatement{Cond: cond, Body: body}
}

func (p *Parser) parseDoWhile() *ast.DoWhileStatement {
	p.nextToken()
	body := p.parseStatement()
	p.expect(lexer.TokenWhile)
	p.expect(lexer.TokenLParen)
	cond := p.parseExpression(precLowest)
	p.expect(lexer.TokenRParen)
	p.skipSemicolon()
	return &ast.DoWhileStatement{Body: body, Cond: cond}
}

// parseFor handles the classic C-style for(init;cond;update) form. A
// for-of/for-in header is desugared here into an equivalent init +
// cond + update triple driving the iterator protocol, so the compiler
// only ever sees one ForStatement shape.
func (p *Parser) parseFor() ast.Statement {
	p.nextToken()
	p.expect(lexer.TokenLParen)

	var initStmt ast.Statement
	if p.curTok.Type == lexer.TokenVar || p.curTok.Type == lexer.TokenLet || p.curTok.Type == lexer.TokenConst {
		kind := ast.DeclVar
		switch p.curTok.Type {
		case lexer.TokenLet:
			kind = ast.DeclLet
		case lexer.TokenConst:
			kind = ast.DeclConst
		}
		p.nextToken()
		name := p.curTok.Literal
		p.expect(lexer.TokenIdentifier)

		if p.curIs(lexer.TokenOf) || p.curIs(lexer.TokenIn) {
			isOf := p.curIs(lexer.TokenOf)
			p.nextToken()
			iterExpr := p.parseExpression(precLowest)
			p.expect(lexer.TokenRParen)
			body := p.parseStatement()
			return p.desugarForOf(kind, name, iterExpr, body, isOf)
		}

		var init ast.Expression
		if p.curIs(lexer.TokenAssign) {
			p.nextToken()
			init = p.parseExpression(precAssign)
		}
		decl := &ast.VarDecl{Kind: kind, Names: []string{name}, Initializer: []ast.Expression{init}}
		for p.curIs(lexer.TokenComma) {
			p.nextToken()
			n := p.curTok.Literal
			p.expect(lexer.TokenIdentifier)
			var in ast.Expression
			if p.curIs(lexer.TokenAssign) {
				p.nextToken()
				in = p.parseExpression(precAssign)
			}
			decl.Names = append(decl.Names, n)
			decl.Initializer = append(decl.Initializer, in)
		}
		initStmt = decl
	} else if !p.curIs(lexer.TokenSemicolon) {
		initStmt = &ast.ExpressionStatement{Expr: p.parseExpression(precLowest)}
	}
	p.expect(lexer.TokenSemicolon)

	var cond ast.Expression
	if !p.curIs(lexer.TokenSemicolon) {
		cond = p.parseExpression(precLowest)
	}
	p.expect(lexer.TokenSemicolon)

	var update ast.Expression
	if !p.curIs(lexer.TokenRParen) {
		update = p.parseExpression(precLowest)
	}
	p.expect(lexer.TokenRParen)

	body := p.parseStatement()
	return &ast.ForStatement{Init: initStmt, Cond: cond, Update: update, Body: body}
}

// desugarForOf lowers `for (const x of iter) body` / `for (const k in obj)
// body` into a block holding a hidden iterator local, a hidden
// "current result" local (both declared as siblings before the loop),
// and a ForStatement with no Init: Cond tests the result's `done`
// flag, Update re-advances the iterator, and Body binds x from the
// result's `value` before running the original body. The
// hidden names can't be spelled by source identifiers, so they never
// collide with a user local.
func (p *Parser) desugarForOf(kind ast.DeclKind, name string, iterExpr ast.Expression, body ast.Statement, isOf bool) ast.Statement {
	const hiddenIter = "#iter"
	const hiddenRes = "#res"
	selector := "@@iterator"
	if !isOf {
		selector = "@@keys"
	}

	callNext := func() ast.Expression {
		return &ast.CallExpr{Callee: &ast.MemberExpr{Object: &ast.Identifier{Name: hiddenIter}, Property: "next"}}
	}

	declIter := &ast.VarDecl{
		Kind:  ast.DeclLet,
		Names: []string{hiddenIter},
		Initializer: []ast.Expression{&ast.CallExpr{
			Callee: &ast.MemberExpr{Object: iterExpr, Property: selector},
		}},
	}
	declRes := &ast.VarDecl{
		Kind:        ast.DeclLet,
		Names:       []string{hiddenRes},
		Initializer: []ast.Expression{callNext()},
	}

	cond := &ast.UnaryExpr{Op: "!", Operand: &ast.MemberExpr{Object: &ast.Identifier{Name: hiddenRes}, Property: "done"}}
	update := &ast.AssignExpr{Op: "=", Target: &ast.Identifier{Name: hiddenRes}, Value: callNext()}

	bindX := &ast.VarDecl{
		Kind:  kind,
		Names: []string{name},
		Initializer: []ast.Expression{&ast.MemberExpr{
			Object: &ast.Identifier{Name: hiddenRes}, Property: "value",
		}},
	}
	newBody := &ast.BlockStatement{Statements: []ast.Statement{bindX, body}}
	// The hidden declarations sit as direct siblings of the loop so
	// they stay resolvable from the loop's own header expressions.
	return &ast.BlockStatement{Statements: []ast.Statement{
		declIter,
		declRes,
		&ast.ForStatement{Cond: cond, Update: update, Body: newBody},
	}}
}

func (p *Parser) parseReturn() *ast.ReturnStatement {
	p.nextToken()
	if p.curIs(lexer.TokenSemicolon) || p.curIs(lexer.TokenRBrace) {
		p.skipSemicolon()
		return &ast.ReturnStatement{}
	}
	v := p.parseExpression(precLowest)
	p.skipSemicolon()
	return &ast.ReturnStatement{Value: v}
}

func (p *Parser) parseThrow() *ast.ThrowStatement {
	p.nextToken()
	v := p.parseExpression(precLowest)
	p.skipSemicolon()
	return &ast.ThrowStatement{Value: v}
}

func (p *Parser) parseTry() *ast.TryStatement {
	p.nextToken()
	block := p.parseBlock()
	stmt := &ast.TryStatement{Block: block}
	if p.curIs(lexer.TokenCatch) {
		p.nextToken()
		stmt.HasCatch = true
		if p.curIs(lexer.TokenLParen) {
			p.nextToken()
			stmt.CatchParam = p.curTok.Literal
			p.expect(lexer.TokenIdentifier)
			p.expect(lexer.TokenRParen)
		}
		stmt.Catch = p.parseBlock()
	}
	if p.curIs(lexer.TokenFinally) {
		p.nextToken()
		stmt.Finally = p.parseBlock()
	}
	return stmt
}

// --- Expressions (precedence climbing) ---

func (p *Parser) parseExpression(minPrec int) ast.Expression {
	left := p.parseUnary()

	for {
		op := p.curTok
		prec, ok := precedences[op.Type]
		if !ok || prec < minPrec {
			break
		}

		switch op.Type {
		case lexer.TokenAssign, lexer.TokenPlusAssign, lexer.TokenMinusAssign,
			lexer.TokenStarAssign, lexer.TokenSlashAssign, lexer.TokenPercentAssign:
			p.nextToken()
			right := p.parseExpression(precAssign)
			left = &ast.AssignExpr{Op: op.Literal, Target: left, Value: right}
		case lexer.TokenQuestion:
			p.nextToken()
			then := p.parseExpression(precAssign)
			p.expect(lexer.TokenColon)
			els := p.parseExpression(precAssign)
			left = &ast.ConditionalExpr{Cond: left, Then: then, Else: els}
		case lexer.TokenAnd, lexer.TokenOr, lexer.TokenNullish:
			p.nextToken()
			right := p.parseExpression(prec + 1)
			left = &ast.LogicalExpr{Op: op.Literal, Left: left, Right: right}
		case lexer.TokenLParen:
			left = p.parseCallArgs(left, false)
		case lexer.TokenDot:
			p.nextToken()
			left = &ast.MemberExpr{Object: left, Property: p.parsePropertyName()}
		case lexer.TokenLBracket:
			p.nextToken()
			idx := p.parseExpression(precLowest)
			p.expect(lexer.TokenRBracket)
			left = &ast.MemberExpr{Object: left, Index: idx, Computed: true}
		case lexer.TokenInc, lexer.TokenDec:
			p.nextToken()
			left = &ast.UpdateExpr{Op: op.Literal, Operand: left, Prefix: false}
		case lexer.TokenStarStar:
			p.nextToken()
			right := p.parseExpression(prec) // right-associative
			left = &ast.BinaryExpr{Op: op.Literal, Left: left, Right: right}
		default:
			p.nextToken()
			right := p.parseExpression(prec + 1)
			left = &ast.BinaryExpr{Op: op.Literal, Left: left, Right: right}
		}
	}
	return left
}

func (p *Parser) parseCallArgs(callee ast.Expression, isNew bool) ast.Expression {
	p.expect(lexer.TokenLParen)
	var args []ast.Expression
	for !p.curIs(lexer.TokenRParen) && !p.curIs(lexer.TokenEOF) {
		args = append(args, p.parseExpression(precAssign))
		if p.curIs(lexer.TokenComma) {
			p.nextToken()
		}
	}
	p.expect(lexer.TokenRParen)
	return &ast.CallExpr{Callee: callee, Args: args, New: isNew}
}

func (p *Parser) parseUnary() ast.Expression {
	switch p.curTok.Type {
	case lexer.TokenBang, lexer.TokenTilde, lexer.TokenMinus, lexer.TokenPlus,
		lexer.TokenTypeof, lexer.TokenVoid, lexer.TokenDelete:
		op := p.curTok.Literal
		if p.curTok.Type == lexer.TokenTypeof {
			op = "typeof"
		} else if p.curTok.Type == lexer.TokenVoid {
			op = "void"
		} else if p.curTok.Type == lexer.TokenDelete {
			op = "delete"
		}
		p.nextToken()
		operand := p.parseExpression(precUnary)
		return &ast.UnaryExpr{Op: op, Operand: operand}
	case lexer.TokenInc, lexer.TokenDec:
		op := p.curTok.Literal
		p.nextToken()
		operand := p.parseExpression(precUnary)
		return &ast.UpdateExpr{Op: op, Operand: operand, Prefix: true}
	case lexer.TokenNew:
		return p.parseNew()
	case lexer.TokenYield:
		p.nextToken()
		if p.curIs(lexer.TokenSemicolon) || p.curIs(lexer.TokenRParen) || p.curIs(lexer.TokenRBrace) || p.curIs(lexer.TokenComma) {
			return &ast.YieldExpr{}
		}
		return &ast.YieldExpr{Value: p.parseExpression(precAssign)}
	default:
		return p.parsePrimary()
	}
}

// parsePropertyName accepts the token after a `.`: an identifier, or
// any reserved word (property position unreserves keywords, so
// `gen.return()` and `it.throw()` parse).
func (p *Parser) parsePropertyName() string {
	if p.curIs(lexer.TokenIdentifier) || p.curTok.Type.IsKeyword() {
		name := p.curTok.Literal
		p.nextToken()
		return name
	}
	p.errorf("line %d: expected a property name, got %s (%q)", p.curTok.Line, p.curTok.Type, p.curTok.Literal)
	p.nextToken()
	return ""
}

// parseNew binds `new` to the longest member chain before the argument
// list, so `new a.b.C(1).d` parses as `(new a.b.C(1)).d` and not as a
// construction of the whole chain's result.
func (p *Parser) parseNew() ast.Expression {
	p.nextToken() // 'new'
	callee := p.parsePrimary()
	for {
		switch {
		case p.curIs(lexer.TokenDot):
			p.nextToken()
			callee = &ast.MemberExpr{Object: callee, Property: p.parsePropertyName()}
		case p.curIs(lexer.TokenLBracket):
			p.nextToken()
			idx := p.parseExpression(precLowest)
			p.expect(lexer.TokenRBracket)
			callee = &ast.MemberExpr{Object: callee, Index: idx, Computed: true}
		default:
			if p.curIs(lexer.TokenLParen) {
				return p.parseCallArgs(callee, true)
			}
			// `new F` with no argument list is the zero-argument form.
			return &ast.CallExpr{Callee: callee, New: true}
		}
	}
}

func (p *Parser) parsePrimary() ast.Expression {
	switch p.curTok.Type {
	case lexer.TokenNumber:
		lit := p.curTok.Literal
		p.nextToken()
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			p.errorf("invalid number literal %q", lit)
		}
		return &ast.NumberLiteral{Value: f}
	case lexer.TokenString:
		lit := p.curTok.Literal
		p.nextToken()
		return &ast.StringLiteral{Value: lit}
	case lexer.TokenTrue:
		p.nextToken()
		return &ast.BooleanLiteral{Value: true}
	case lexer.TokenFalse:
		p.nextToken()
		return &ast.BooleanLiteral{Value: false}
	case lexer.TokenNull:
		p.nextToken()
		return &ast.NullLiteral{}
	case lexer.TokenUndefined:
		p.nextToken()
		return &ast.UndefinedLiteral{}
	case lexer.TokenThis:
		p.nextToken()
		return &ast.ThisExpr{}
	case lexer.TokenSuper:
		p.nextToken()
		return &ast.SuperExpr{}
	case lexer.TokenIdentifier:
		name := p.curTok.Literal
		p.nextToken()
		return &ast.Identifier{Name: name}
	case lexer.TokenFunction:
		return p.parseFunctionExpr()
	case lexer.TokenLParen:
		p.nextToken()
		expr := p.parseExpression(precLowest)
		if p.curIs(lexer.TokenComma) {
			seq := &ast.SequenceExpr{Exprs: []ast.Expression{expr}}
			for p.curIs(lexer.TokenComma) {
				p.nextToken()
				seq.Exprs = append(seq.Exprs, p.parseExpression(precAssign))
			}
			expr = seq
		}
		p.expect(lexer.TokenRParen)
		return expr
	case lexer.TokenLBracket:
		return p.parseArrayLiteral()
	case lexer.TokenLBrace:
		return p.parseObjectLiteral()
	default:
		p.errorf("line %d: unexpected token %s (%q)", p.curTok.Line, p.curTok.Type, p.curTok.Literal)
		tok := p.curTok
		p.nextToken()
		return &ast.Identifier{Name: tok.Literal}
	}
}

func (p *Parser) parseArrayLiteral() *ast.ArrayLiteral {
	p.expect(lexer.TokenLBracket)
	arr := &ast.ArrayLiteral{}
	for !p.curIs(lexer.TokenRBracket) && !p.curIs(lexer.TokenEOF) {
		arr.Elements = append(arr.Elements, p.parseExpression(precAssign))
		if p.curIs(lexer.TokenComma) {
			p.nextToken()
		}
	}
	p.expect(lexer.TokenRBracket)
	return arr
}

func (p *Parser) parseObjectLiteral() *ast.ObjectLiteral {
	p.expect(lexer.TokenLBrace)
	obj := &ast.ObjectLiteral{}
	for !p.curIs(lexer.TokenRBrace) && !p.curIs(lexer.TokenEOF) {
		prop := ast.ObjectProperty{}
		if p.curIs(lexer.TokenLBracket) {
			p.nextToken()
			prop.Computed = true
			prop.KeyExpr = p.parseExpression(precAssign)
			p.expect(lexer.TokenRBracket)
		} else if p.curIs(lexer.TokenString) {
			prop.Key = p.curTok.Literal
			p.nextToken()
		} else {
			prop.Key = p.curTok.Literal
			p.nextToken()
		}

		if p.curIs(lexer.TokenLParen) {
			// Method shorthand: `key(params) { body }`.
			params := p.parseParamList()
			body := p.parseBlock()
			prop.Value = &ast.FunctionExpr{Name: prop.Key, Params: params, Body: body.Statements}
		} else if p.curIs(lexer.TokenColon) {
			p.nextToken()
			prop.Value = p.parseExpression(precAssign)
		} else {
			// Shorthand `{ x }` is sugar for `{ x: x }`.
			prop.Value = &ast.Identifier{Name: prop.Key}
		}

		obj.Properties = append(obj.Properties, prop)
		if p.curIs(lexer.TokenComma) {
			p.nextToken()
		}
	}
	p.expect(lexer.TokenRBrace)
	return obj
}
