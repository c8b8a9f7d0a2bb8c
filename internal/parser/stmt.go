package parser

import ("github.com/qi-lang/qi/internal/ast"
	"github.com/qi-lang/qi/internal/diag"
	"github.com/qi-lang/qi/internal/span"
	"github.com/qi-lang/qi/internal/token"
)

func (p *Parser) parseBlock() *ast.BlockStmt {
	start := p.expect(token.LBrace)
	var stmts []ast.Stmt
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		stmts = append(stmts, p.parseStmt())
	}
	end := p.expect(token.RBrace)
	return &ast.BlockStmt{StmtBase: ast.NewStmt(start.Span.Merge(end.Span)), Stmts: stmts}
}

// parseStmt parses one statement, recovering to the next statement or
// block boundary on failure ("Error recovery").
func (p *Parser) parseStmt() ast.Stmt {
	switch p.cur().Kind {
	case token.KwVariable, token.KwConstant:
		return p.parseVarDecl()
	case token.KwReturn:
		return p.parseReturn()
	case token.KwBreak:
		return p.parseBreak()
	case token.KwContinue:
		return p.parseContinue()
	case token.KwGoto:
		return p.parseGoto()
	case token.KwIf:
		return p.parseIf()
	case token.KwWhile:
		return p.parseWhile()
	case token.KwFor:
		return p.parseForIn()
	case token.KwLoop:
		return p.parseLoop()
	case token.KwMatch:
		return p.parseMatch()
	case token.LBrace:
		return p.parseBlock()
	case token.Ident:
		if p.peekAt(1).Kind == token.Colon {
			return p.parseLabeled()
		}
		return p.parseExprStmt()
	default:
		return p.parseExprStmt()
	}
}

func (p *Parser) parseVarDecl() ast.Stmt {
	start := p.cur().Span
	mutable := p.at(token.KwVariable)
	p.advance() // KwVariable or KwConstant
	name := p.expect(token.Ident)
	var ty *ast.TypeExpr
	if _, ok := p.accept(token.Colon); ok {
		ty = p.parseType()
	}
	var init ast.Expr
	if _, ok := p.accept(token.Assign); ok {
		init = p.parseExpr()
	}
	semi := p.expectStmtEnd()
	return &ast.VarDecl{
		StmtBase: ast.NewStmt(start.Merge(semi)),
		Mutable: mutable,
		Name: name.Lexeme,
		Type: ty,
		Init: init,
	}
}

// expectStmtEnd consumes a trailing `;`, recording a recoverable
// diagnostic (not a hard stop) if absent, and returns its span (or the
// current position's span if none was found).
func (p *Parser) expectStmtEnd() span.Span {
	if t, ok := p.accept(token.Semi); ok {
		return t.Span
	}
	cur := p.cur()
	p.errorf(cur.Span, diag.CodeMissingDelimiter, "expected ';'")
	p.syncToStmtBoundary()
	if t, ok := p.accept(token.Semi); ok {
		return t.Span
	}
	return cur.Span
}

func (p *Parser) parseReturn() ast.Stmt {
	kw := p.advance()
	var val ast.Expr
	if !p.at(token.Semi) {
		val = p.parseExpr()
	}
	end := p.expectStmtEnd()
	return &ast.ReturnStmt{StmtBase: ast.NewStmt(kw.Span.Merge(end)), Value: val}
}

func (p *Parser) parseBreak() ast.Stmt {
	kw := p.advance()
	label := ""
	if t, ok := p.accept(token.Ident); ok {
		label = t.Lexeme
	}
	end := p.expectStmtEnd()
	return &ast.BreakStmt{StmtBase: ast.NewStmt(kw.Span.Merge(end)), Label: label}
}

func (p *Parser) parseContinue() ast.Stmt {
	kw := p.advance()
	label := ""
	if t, ok := p.accept(token.Ident); ok {
		label = t.Lexeme
	}
	end := p.expectStmtEnd()
	return &ast.ContinueStmt{StmtBase: ast.NewStmt(kw.Span.Merge(end)), Label: label}
}

func (p *Parser) parseGoto() ast.Stmt {
	kw := p.advance()
	label := p.expect(token.Ident)
	end := p.expectStmtEnd()
	return &ast.GotoStmt{StmtBase: ast.NewStmt(kw.Span.Merge(end)), Label: label.Lexeme}
}

func (p *Parser) parseLabeled() ast.Stmt {
	label := p.advance()
	p.expect(token.Colon)
	inner := p.parseStmt()
	return &ast.LabeledStmt{StmtBase: ast.NewStmt(label.Span.Merge(inner.Span())), Label: label.Lexeme, Stmt: inner}
}

func (p *Parser) parseIf() ast.Stmt {
	kw := p.advance()
	cond := p.parseCondExpr()
	then := p.parseBlock()
	var elseStmt ast.Stmt
	end := then.Span()
	if _, ok := p.accept(token.KwElse); ok {
		if p.at(token.KwIf) {
			elseStmt = p.parseIf()
		} else {
			elseStmt = p.parseBlock()
		}
		end = elseStmt.Span()
	}
	return &ast.IfStmt{StmtBase: ast.NewStmt(kw.Span.Merge(end)), Cond: cond, Then: then, Else: elseStmt}
}

func (p *Parser) parseWhile() ast.Stmt {
	kw := p.advance()
	cond := p.parseCondExpr()
	body := p.parseBlock()
	return &ast.WhileStmt{StmtBase: ast.NewStmt(kw.Span.Merge(body.Span())), Cond: cond, Body: body}
}

func (p *Parser) parseForIn() ast.Stmt {
	kw := p.advance()
	name := p.expect(token.Ident)
	p.expect(token.KwIn)
	iter := p.parseCondExpr()
	body := p.parseBlock()
	return &ast.ForInStmt{StmtBase: ast.NewStmt(kw.Span.Merge(body.Span())), Var: name.Lexeme, Iter: iter, Body: body}
}

func (p *Parser) parseLoop() ast.Stmt {
	kw := p.advance()
	body := p.parseBlock()
	return &ast.LoopStmt{StmtBase: ast.NewStmt(kw.Span.Merge(body.Span())), Body: body}
}

func (p *Parser) parseMatch() ast.Stmt {
	kw := p.advance()
	subject := p.parseCondExpr()
	p.expect(token.LBrace)
	var arms []ast.MatchArm
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		arms = append(arms, p.parseMatchArm())
	}
	end := p.expect(token.RBrace)
	return &ast.MatchStmt{StmtBase: ast.NewStmt(kw.Span.Merge(end.Span)), Subject: subject, Arms: arms}
}

func (p *Parser) parseMatchArm() ast.MatchArm {
	start := p.cur().Span
	pat := p.parsePattern()
	var guard ast.Expr
	if _, ok := p.accept(token.KwIf); ok {
		guard = p.parseExpr()
	}
	p.expect(token.Colon)
	body := p.parseBlock()
	return ast.MatchArm{Pattern: pat, Guard: guard, Body: body, SpanVal: start.Merge(body.Span())}
}

func (p *Parser) parsePattern() ast.Pattern {
	start := p.cur().Span
	if t, ok := p.accept(token.Ident); ok {
		if t.Lexeme == "_" {
			return ast.Pattern{Wildcard: true, SpanVal: t.Span}
		}
		// enum-variant pattern: Name(binds...)
		if _, ok := p.accept(token.LParen); ok {
			var binds []string
			for !p.at(token.RParen) && !p.at(token.EOF) {
				binds = append(binds, p.expect(token.Ident).Lexeme)
				if _, ok := p.accept(token.Comma); !ok {
					break
				}
			}
			end := p.expect(token.RParen)
			return ast.Pattern{Variant: t.Lexeme, Binds: binds, SpanVal: start.Merge(end.Span)}
		}
		return ast.Pattern{Ident: t.Lexeme, SpanVal: t.Span}
	}
	lit := p.parseUnary()
	return ast.Pattern{Literal: lit, SpanVal: start.Merge(lit.Span())}
}

func (p *Parser) parseExprStmt() ast.Stmt {
	x := p.parseExpr()
	end := p.expectStmtEnd()
	return &ast.ExprStmt{StmtBase: ast.NewStmt(x.Span().Merge(end)), X: x}
}
