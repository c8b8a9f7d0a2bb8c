package parser

import ("github.com/qi-lang/qi/internal/ast"
	"github.com/qi-lang/qi/internal/diag"
	"github.com/qi-lang/qi/internal/span"
	"github.com/qi-lang/qi/internal/token"
)

// parseCondExpr parses an expression in condition/subject position
// (if/while/match), suppressing struct-literal parsing so a following
// `{` is read as the statement's block rather than struct fields.
func (p *Parser) parseCondExpr() ast.Expr {
	saved := p.noStructLiteral
	p.noStructLiteral = true
	x := p.parseExpr()
	p.noStructLiteral = saved
	return x
}

// parseExpr enters the precedence-climbing chain at its lowest level,
// assignment (grammar: `expression → assignment`).
func (p *Parser) parseExpr() ast.Expr {
	return p.parseAssignment()
}

// parseAssignment is right-associative and binds loosest of all binary
// forms (, §4.2).
func (p *Parser) parseAssignment() ast.Expr {
	left := p.parseLogicOr()
	if _, ok := p.accept(token.Assign); ok {
		value := p.parseAssignment()// right-associative
		e := &ast.AssignExpr{ExprBase: ast.NewExpr(left.Span().Merge(value.Span())), Target: left, Value: value}
		return e
	}
	return left
}

func (p *Parser) parseLogicOr() ast.Expr {
	left := p.parseLogicAnd()
	for p.at(token.OrOr) || p.at(token.KwOr) {
		p.advance()
		right := p.parseLogicAnd()
		left = &ast.BinaryExpr{ExprBase: ast.NewExpr(left.Span().Merge(right.Span())), Op: ast.OpOr, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseLogicAnd() ast.Expr {
	left := p.parseEquality()
	for p.at(token.AndAnd) || p.at(token.KwAnd) {
		p.advance()
		right := p.parseEquality()
		left = &ast.BinaryExpr{ExprBase: ast.NewExpr(left.Span().Merge(right.Span())), Op: ast.OpAnd, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseEquality() ast.Expr {
	left := p.parseComparison()
	for {
		var op ast.BinOp
		switch p.cur().Kind {
		case token.EqEq, token.KwEquals:
			op = ast.OpEq
		case token.NotEq, token.KwNotEquals:
			op = ast.OpNeq
		default:
			return left
		}
		p.advance()
		right := p.parseComparison()
		left = &ast.BinaryExpr{ExprBase: ast.NewExpr(left.Span().Merge(right.Span())), Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseComparison() ast.Expr {
	left := p.parseAdditive()
	for {
		var op ast.BinOp
		switch p.cur().Kind {
		case token.Lt, token.KwLess:
			op = ast.OpLt
		case token.Gt, token.KwGreater:
			op = ast.OpGt
		case token.Le:
			op = ast.OpLe
		case token.Ge:
			op = ast.OpGe
		default:
			return left
		}
		p.advance()
		right := p.parseAdditive()
		left = &ast.BinaryExpr{ExprBase: ast.NewExpr(left.Span().Merge(right.Span())), Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	for {
		var op ast.BinOp
		switch p.cur().Kind {
		case token.Plus, token.KwPlus:
			op = ast.OpAdd
		case token.Minus, token.KwMinus:
			op = ast.OpSub
		default:
			return left
		}
		p.advance()
		right := p.parseMultiplicative()
		left = &ast.BinaryExpr{ExprBase: ast.NewExpr(left.Span().Merge(right.Span())), Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseMultiplicative() ast.Expr {
	left := p.parseUnary()
	for {
		var op ast.BinOp
		switch p.cur().Kind {
		case token.Star, token.KwTimes:
			op = ast.OpMul
		case token.Slash, token.KwDivide:
			op = ast.OpDiv
		case token.Percent, token.KwModulo:
			op = ast.OpMod
		default:
			return left
		}
		p.advance()
		right := p.parseUnary()
		left = &ast.BinaryExpr{ExprBase: ast.NewExpr(left.Span().Merge(right.Span())), Op: op, Left: left, Right: right}
	}
}

// parseUnary handles `!`, `-`, `等待` (await), and `让出` (yield). await
// binds tighter than binary operators but looser than postfix, so
// `await x.y` awaits the result of the call (rationale).
func (p *Parser) parseUnary() ast.Expr {
	switch p.cur().Kind {
	case token.Not, token.KwNot:
		t := p.advance()
		x := p.parseUnary()
		return &ast.UnaryExpr{ExprBase: ast.NewExpr(t.Span.Merge(x.Span())), Op: ast.OpNot, X: x}
	case token.Minus:
		t := p.advance()
		x := p.parseUnary()
		return &ast.UnaryExpr{ExprBase: ast.NewExpr(t.Span.Merge(x.Span())), Op: ast.OpNeg, X: x}
	case token.KwAwait:
		t := p.advance()
		x := p.parseUnary()
		return &ast.UnaryExpr{ExprBase: ast.NewExpr(t.Span.Merge(x.Span())), Op: ast.OpAwait, X: x}
	case token.KwYield:
		t := p.advance()
		return &ast.UnaryExpr{ExprBase: ast.NewExpr(t.Span), Op: ast.OpYield, X: nil}
	default:
		return p.parsePostfix()
	}
}

// parsePostfix handles call, index, and field-access suffixes chained
// onto a primary expression (grammar rule `postfix`).
func (p *Parser) parsePostfix() ast.Expr {
	x := p.parsePrimary()
	for {
		switch p.cur().Kind {
		case token.LParen:
			p.advance()
			var args []ast.Expr
			for !p.at(token.RParen) && !p.at(token.EOF) {
				args = append(args, p.parseExpr())
				if _, ok := p.accept(token.Comma); !ok {
					break
				}
			}
			end := p.expect(token.RParen)
			x = &ast.CallExpr{ExprBase: ast.NewExpr(x.Span().Merge(end.Span)), Callee: x, Args: args}
		case token.LBracket:
			p.advance()
			idx := p.parseExpr()
			end := p.expect(token.RBracket)
			x = &ast.IndexExpr{ExprBase: ast.NewExpr(x.Span().Merge(end.Span)), X: x, Index: idx}
		case token.Dot:
			p.advance()
			field := p.expect(token.Ident)
			x = &ast.FieldExpr{ExprBase: ast.NewExpr(x.Span().Merge(field.Span)), X: x, Field: field.Lexeme}
		default:
			return x
		}
	}
}

// parsePrimary handles literals, identifiers, parenthesized
// expressions, closures, struct literals, and array literals (// §4.2 grammar rule `primary`).
func (p *Parser) parsePrimary() ast.Expr {
	cur := p.cur()
	switch cur.Kind {
	case token.IntLiteral:
		p.advance()
		return &ast.LiteralExpr{ExprBase: ast.NewExpr(cur.Span), Kind: ast.LitInt, Int: cur.Literal.Int}
	case token.FloatLiteral:
		p.advance()
		return &ast.LiteralExpr{ExprBase: ast.NewExpr(cur.Span), Kind: ast.LitFloat, Float: cur.Literal.Float}
	case token.StringLiteral:
		p.advance()
		return &ast.LiteralExpr{ExprBase: ast.NewExpr(cur.Span), Kind: ast.LitString, Str: cur.Literal.Str}
	case token.CharLiteral:
		p.advance()
		return &ast.LiteralExpr{ExprBase: ast.NewExpr(cur.Span), Kind: ast.LitChar, Char: cur.Literal.Char}
	case token.BoolLiteral:
		p.advance()
		return &ast.LiteralExpr{ExprBase: ast.NewExpr(cur.Span), Kind: ast.LitBool, Bool: cur.Literal.Bool}
	case token.KwNullptr:
		p.advance()
		return &ast.LiteralExpr{ExprBase: ast.NewExpr(cur.Span), Kind: ast.LitInt, Int: 0}
	case token.KwSelf:
		p.advance()
		return &ast.IdentExpr{ExprBase: ast.NewExpr(cur.Span), Name: cur.Lexeme}
	case token.Ident:
		p.advance()
		if p.at(token.LBrace) && !p.noStructLiteral {
			return p.parseStructLiteral(cur.Lexeme, cur.Span)
		}
		return &ast.IdentExpr{ExprBase: ast.NewExpr(cur.Span), Name: cur.Lexeme}
	case token.LParen:
		p.advance()
		saved := p.noStructLiteral
		p.noStructLiteral = false
		inner := p.parseExpr()
		p.noStructLiteral = saved
		p.expect(token.RParen)
		return inner
	case token.LBracket:
		return p.parseArrayLiteral()
	case token.KwClosure:
		return p.parseClosure()
	default:
		p.errorf(cur.Span, diag.CodeUnexpectedToken, "expected an expression, found %s %q", cur.Kind, cur.Lexeme)
		p.advance()
		return &ast.BadExpr{ExprBase: ast.NewExpr(cur.Span), Reason: "expected expression"}
	}
}

// parseStructLiteral parses `Name { field: value,... }`. Fields not
// mentioned here are left absent in the map; sema fills them from the
// struct declaration's defaults (SPEC_FULL.md §4).
func (p *Parser) parseStructLiteral(name string, start span.Span) ast.Expr {
	p.expect(token.LBrace)
	fields := map[string]ast.Expr{}
	var order []string
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		fname := p.expect(token.Ident)
		p.expect(token.Colon)
		val := p.parseExpr()
		fields[fname.Lexeme] = val
		order = append(order, fname.Lexeme)
		if _, ok := p.accept(token.Comma); !ok {
			break
		}
	}
	end := p.expect(token.RBrace)
	return &ast.StructLiteralExpr{
		ExprBase: ast.NewExpr(start.Merge(end.Span)),
		TypeName: name,
		Fields: fields,
		FieldOrder: order,
	}
}

func (p *Parser) parseArrayLiteral() ast.Expr {
	start := p.expect(token.LBracket)
	var elems []ast.Expr
	for !p.at(token.RBracket) && !p.at(token.EOF) {
		elems = append(elems, p.parseExpr())
		if _, ok := p.accept(token.Comma); !ok {
			break
		}
	}
	end := p.expect(token.RBracket)
	return &ast.ArrayLiteralExpr{ExprBase: ast.NewExpr(start.Span.Merge(end.Span)), Elems: elems}
}

// parseClosure parses `闭包 (params) (-> type)? block`.
func (p *Parser) parseClosure() ast.Expr {
	start := p.expect(token.KwClosure)
	p.expect(token.LParen)
	var params []ast.Param
	for !p.at(token.RParen) && !p.at(token.EOF) {
		params = append(params, p.parseParam())
		if _, ok := p.accept(token.Comma); !ok {
			break
		}
	}
	p.expect(token.RParen)
	var ret *ast.TypeExpr
	if _, ok := p.accept(token.Arrow); ok {
		ret = p.parseType()
	}
	body := p.parseBlock()
	return &ast.ClosureExpr{
		ExprBase: ast.NewExpr(start.Span.Merge(body.Span())),
		Params: params,
		ReturnType: ret,
		Body: body,
	}
}
