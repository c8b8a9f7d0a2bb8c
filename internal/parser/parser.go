// Package parser converts a Qi token stream into a typed AST (// §4.2). It never panics and never leaves a nil child: a malformed
// region becomes an explicit *ast.BadStmt or *ast.BadExpr carrying the
// span where recovery kicked in, so a file with several syntax errors
// still yields one fully navigable tree in a single pass.
package parser

import ("fmt"

	"github.com/qi-lang/qi/internal/ast"
	"github.com/qi-lang/qi/internal/diag"
	"github.com/qi-lang/qi/internal/span"
	"github.com/qi-lang/qi/internal/token"
)

// Parser holds the token stream and recovery state for one file. It is
// not reentrant across files; construct a fresh Parser per file.
type Parser struct {
	toks []token.Token
	pos int
	file span.FileID
	diags []diag.Diagnostic

	// noStructLiteral suppresses `Name {... }` struct-literal parsing
	// while inside a condition/subject expression, so `if x {... }`
	// parses `x` as the condition and `{... }` as the then-block
	// instead of misreading it as a struct literal (classic
	// if-condition-vs-struct-literal ambiguity).
	noStructLiteral bool
}

// New constructs a Parser over a token stream produced by the lexer for
// the given file.
func New(file span.FileID, toks []token.Token) *Parser {
	return &Parser{toks: toks, file: file}
}

// Parse consumes the entire token stream and returns the Program plus
// any diagnostics gathered during recovery (public
// contract).
func Parse(file span.FileID, toks []token.Token) (*ast.Program, []diag.Diagnostic) {
	p := New(file, toks)
	return p.parseProgram(), p.diags
}

// ---- token cursor helpers ----

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(n int) token.Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[i]
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) at(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) accept(k token.Kind) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	return token.Token{}, false
}

// expect consumes a token of kind k, or records a diagnostic and
// synthesizes a zero-width token at the current position so callers can
// keep building a structurally complete node.
func (p *Parser) expect(k token.Kind) token.Token {
	if t, ok := p.accept(k); ok {
		return t
	}
	cur := p.cur()
	p.errorf(cur.Span, diag.CodeUnexpectedToken,
		"expected %s, found %s %q", k, cur.Kind, cur.Lexeme)
	return token.Token{Kind: k, Span: cur.Span}
}

func (p *Parser) errorf(sp span.Span, code diag.Code, format string, args ...any) {
	p.diags = append(p.diags, diag.Diagnostic{
		Severity: diag.SeverityError,
		Code: code,
		Message: fmt.Sprintf(format, args...),
		Primary: sp,
	})
}

// syncToStmtBoundary skips tokens until a statement-terminator (`;`) or
// block-terminator (`}`) is found, per statement-level
// recovery rule. The terminator itself is not consumed by this call.
func (p *Parser) syncToStmtBoundary() {
	for !p.at(token.EOF) && !p.at(token.Semi) && !p.at(token.RBrace) {
		p.advance()
	}
}

// ---- program / items ----

func (p *Parser) parseProgram() *ast.Program {
	start := p.cur().Span
	prog := &ast.Program{}

	if p.at(token.KwPackage) {
		kw := p.advance()
		name := p.expect(token.Ident)
		semi := p.expect(token.Semi)
		prog.Package = &ast.PackageDecl{Name: name.Lexeme, SpanVal: kw.Span.Merge(semi.Span)}
	}

	for p.at(token.KwImport) {
		prog.Imports = append(prog.Imports, p.parseImport())
	}

	for !p.at(token.EOF) {
		prog.Items = append(prog.Items, p.parseItem())
	}

	end := start
	if len(p.toks) > 0 {
		end = p.toks[len(p.toks)-1].Span
	}
	prog.SpanVal = start.Merge(end)
	return prog
}

func (p *Parser) parseImport() *ast.ImportDecl {
	kw := p.advance()// KwImport
	var path []string
	path = append(path, p.expect(token.Ident).Lexeme)
	for {
		if _, ok := p.accept(token.Dot); !ok {
			break
		}
		path = append(path, p.expect(token.Ident).Lexeme)
	}
	alias := ""
	if _, ok := p.accept(token.KwAlias); ok {
		alias = p.expect(token.Ident).Lexeme
	}
	semi := p.expect(token.Semi)
	return &ast.ImportDecl{Path: path, Alias: alias, SpanVal: kw.Span.Merge(semi.Span)}
}

func (p *Parser) parseVisibility() (ast.Visibility, span.Span, bool) {
	if t, ok := p.accept(token.KwPublic); ok {
		return ast.Public, t.Span, true
	}
	if t, ok := p.accept(token.KwPrivate); ok {
		return ast.Private, t.Span, true
	}
	return ast.Private, span.Span{}, false
}

func (p *Parser) parseItem() ast.Item {
	vis, visSpan, hasVis := p.parseVisibility()
	start := p.cur().Span
	if hasVis {
		start = visSpan
	}

	switch p.cur().Kind {
	case token.KwAsync, token.KwFunction:
		return p.parseFuncDecl(vis, start)
	case token.KwStruct:
		return p.parseStructDecl(vis, start)
	case token.KwEnum:
		return p.parseEnumDecl(vis, start)
	case token.KwTrait:
		return p.parseTraitDecl(vis, start)
	case token.KwImpl:
		return p.parseImplDecl(vis, start)
	case token.KwType:
		return p.parseTypeAlias(vis, start)
	case token.KwConstant:
		return p.parseConstDecl(vis, start)
	case token.KwStatic:
		return p.parseStaticDecl(vis, start)
	default:
		cur := p.cur()
		p.errorf(cur.Span, diag.CodeInvalidItem, "expected a top-level declaration, found %s %q", cur.Kind, cur.Lexeme)
		p.advance()
		return &ast.FuncDecl{ItemBase: ast.NewItem(vis, cur.Span)}
	}
}

func (p *Parser) parseFuncDecl(vis ast.Visibility, start span.Span) *ast.FuncDecl {
	async := false
	if _, ok := p.accept(token.KwAsync); ok {
		async = true
	}
	p.expect(token.KwFunction)
	name := p.expect(token.Ident)
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
	fd := &ast.FuncDecl{
		Async: async,
		Name: name.Lexeme,
		Params: params,
		ReturnType: ret,
		Body: body,
	}
	fd.ItemBase = ast.NewItem(vis, start.Merge(body.Span()))
	return fd
}

func (p *Parser) parseParam() ast.Param {
	name := p.expect(token.Ident)
	p.expect(token.Colon)
	ty := p.parseType()
	return ast.Param{Name: name.Lexeme, Type: ty, SpanVal: name.Span.Merge(ty.Span())}
}

func (p *Parser) parseType() *ast.TypeExpr {
	start := p.cur().Span
	switch p.cur().Kind {
	case token.KwReference:
		p.advance()
		elem := p.parseType()
		return &ast.TypeExpr{Ref: elem, SpanVal: start.Merge(elem.Span())}
	case token.KwMutRef:
		p.advance()
		elem := p.parseType()
		return &ast.TypeExpr{MutRef: elem, SpanVal: start.Merge(elem.Span())}
	case token.KwPointer:
		p.advance()
		elem := p.parseType()
		return &ast.TypeExpr{Ptr: elem, SpanVal: start.Merge(elem.Span())}
	case token.LBracket:
		p.advance()
		elem := p.parseType()
		length := -1
		if _, ok := p.accept(token.Semi); ok {
			lit := p.expect(token.IntLiteral)
			length = int(lit.Literal.Int)
		}
		end := p.expect(token.RBracket)
		return &ast.TypeExpr{ArrayElem: elem, ArrayLen: length, SpanVal: start.Merge(end.Span)}
	case token.KwInteger, token.KwLong, token.KwShort, token.KwByte, token.KwFloat,
		token.KwBoolean, token.KwChar, token.KwString, token.KwVoid:
		t := p.advance()
		return &ast.TypeExpr{Primitive: t.Lexeme, SpanVal: t.Span}
	case token.KwList, token.KwDict, token.KwSet, token.KwOption, token.KwResult:
		t := p.advance()
		var args []*ast.TypeExpr
		end := t.Span
		if _, ok := p.accept(token.Lt); ok {
			args = append(args, p.parseType())
			for {
				if _, ok := p.accept(token.Comma); !ok {
					break
				}
				args = append(args, p.parseType())
			}
			gt := p.expect(token.Gt)
			end = gt.Span
		}
		return &ast.TypeExpr{Name: t.Lexeme, Args: args, SpanVal: t.Span.Merge(end)}
	case token.Ident, token.KwSelfType:
		t := p.advance()
		var args []*ast.TypeExpr
		end := t.Span
		if _, ok := p.accept(token.Lt); ok {
			args = append(args, p.parseType())
			for {
				if _, ok := p.accept(token.Comma); !ok {
					break
				}
				args = append(args, p.parseType())
			}
			gt := p.expect(token.Gt)
			end = gt.Span
		}
		return &ast.TypeExpr{Name: t.Lexeme, Args: args, SpanVal: t.Span.Merge(end)}
	default:
		cur := p.cur()
		p.errorf(cur.Span, diag.CodeUnexpectedToken, "expected a type, found %s %q", cur.Kind, cur.Lexeme)
		return &ast.TypeExpr{Name: "<error>", SpanVal: cur.Span}
	}
}

func (p *Parser) parseStructDecl(vis ast.Visibility, start span.Span) *ast.StructDecl {
	p.expect(token.KwStruct)
	name := p.expect(token.Ident)
	p.expect(token.LBrace)
	var fields []ast.FieldDecl
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		fvis, _, _ := p.parseVisibility()
		fname := p.expect(token.Ident)
		p.expect(token.Colon)
		fty := p.parseType()
		var def ast.Expr
		if _, ok := p.accept(token.Assign); ok {
			def = p.parseExpr()
		}
		endSp := fty.Span()
		if def != nil {
			endSp = def.Span()
		}
		fields = append(fields, ast.FieldDecl{Visibility: fvis, Name: fname.Lexeme, Type: fty, Default: def, SpanVal: fname.Span.Merge(endSp)})
		if _, ok := p.accept(token.Comma); !ok {
			break
		}
	}
	end := p.expect(token.RBrace)
	sd := &ast.StructDecl{Name: name.Lexeme, Fields: fields}
	sd.ItemBase = ast.NewItem(vis, start.Merge(end.Span))
	return sd
}

func (p *Parser) parseEnumDecl(vis ast.Visibility, start span.Span) *ast.EnumDecl {
	p.expect(token.KwEnum)
	name := p.expect(token.Ident)
	p.expect(token.LBrace)
	var variants []ast.EnumVariant
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		vname := p.expect(token.Ident)
		var payload []*ast.TypeExpr
		end := vname.Span
		if _, ok := p.accept(token.LParen); ok {
			for !p.at(token.RParen) && !p.at(token.EOF) {
				payload = append(payload, p.parseType())
				if _, ok := p.accept(token.Comma); !ok {
					break
				}
			}
			rp := p.expect(token.RParen)
			end = rp.Span
		}
		variants = append(variants, ast.EnumVariant{Name: vname.Lexeme, Payload: payload, SpanVal: vname.Span.Merge(end)})
		if _, ok := p.accept(token.Comma); !ok {
			break
		}
	}
	endBrace := p.expect(token.RBrace)
	ed := &ast.EnumDecl{Name: name.Lexeme, Variants: variants}
	ed.ItemBase = ast.NewItem(vis, start.Merge(endBrace.Span))
	return ed
}

func (p *Parser) parseTraitDecl(vis ast.Visibility, start span.Span) *ast.TraitDecl {
	p.expect(token.KwTrait)
	name := p.expect(token.Ident)
	p.expect(token.LBrace)
	var methods []*ast.FuncDecl
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		mstart := p.cur().Span
		p.expect(token.KwFunction)
		mname := p.expect(token.Ident)
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
		semi := p.expect(token.Semi)
		fd := &ast.FuncDecl{Name: mname.Lexeme, Params: params, ReturnType: ret}
		fd.ItemBase = ast.NewItem(ast.Public, mstart.Merge(semi.Span))
		methods = append(methods, fd)
	}
	end := p.expect(token.RBrace)
	td := &ast.TraitDecl{Name: name.Lexeme, Methods: methods}
	td.ItemBase = ast.NewItem(vis, start.Merge(end.Span))
	return td
}

func (p *Parser) parseImplDecl(vis ast.Visibility, start span.Span) *ast.ImplDecl {
	p.expect(token.KwImpl)
	first := p.expect(token.Ident)
	trait, typeName := "", first.Lexeme
	if _, ok := p.accept(token.KwFor); ok {
		trait = first.Lexeme
		typeName = p.expect(token.Ident).Lexeme
	}
	p.expect(token.LBrace)
	var methods []*ast.FuncDecl
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		if it := p.parseItem(); it != nil {
			if fd, ok := it.(*ast.FuncDecl); ok {
				methods = append(methods, fd)
			}
		}
	}
	end := p.expect(token.RBrace)
	id := &ast.ImplDecl{Trait: trait, Type: typeName, Methods: methods}
	id.ItemBase = ast.NewItem(vis, start.Merge(end.Span))
	return id
}

func (p *Parser) parseTypeAlias(vis ast.Visibility, start span.Span) *ast.TypeAliasDecl {
	p.expect(token.KwType)
	name := p.expect(token.Ident)
	p.expect(token.Assign)
	ty := p.parseType()
	semi := p.expect(token.Semi)
	ta := &ast.TypeAliasDecl{Name: name.Lexeme, Type: ty}
	ta.ItemBase = ast.NewItem(vis, start.Merge(semi.Span))
	return ta
}

func (p *Parser) parseConstDecl(vis ast.Visibility, start span.Span) *ast.ConstDecl {
	p.expect(token.KwConstant)
	name := p.expect(token.Ident)
	var ty *ast.TypeExpr
	if _, ok := p.accept(token.Colon); ok {
		ty = p.parseType()
	}
	p.expect(token.Assign)
	val := p.parseExpr()
	semi := p.expect(token.Semi)
	cd := &ast.ConstDecl{Name: name.Lexeme, Type: ty, Value: val}
	cd.ItemBase = ast.NewItem(vis, start.Merge(semi.Span))
	return cd
}

func (p *Parser) parseStaticDecl(vis ast.Visibility, start span.Span) *ast.StaticDecl {
	p.expect(token.KwStatic)
	name := p.expect(token.Ident)
	var ty *ast.TypeExpr
	if _, ok := p.accept(token.Colon); ok {
		ty = p.parseType()
	}
	p.expect(token.Assign)
	val := p.parseExpr()
	semi := p.expect(token.Semi)
	sd := &ast.StaticDecl{Name: name.Lexeme, Type: ty, Value: val}
	sd.ItemBase = ast.NewItem(vis, start.Merge(semi.Span))
	return sd
}
