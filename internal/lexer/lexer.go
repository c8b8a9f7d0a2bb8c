// Package lexer tokenizes Qi source text. It is pure (no I/O, no global
// state), single-pass, and restartable: given a file's byte contents it
// produces a token stream terminated by token.EOF, recovering from
// invalid input so a single pass surfaces every lex error in the file
// rather than stopping at the first one.
package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/qi-lang/qi/internal/diag"
	"github.com/qi-lang/qi/internal/span"
	"github.com/qi-lang/qi/internal/token"
)

// MaxSourceBytes is the size ceiling from spec §6.1: files at this size
// lex; anything larger is rejected with a diagnostic before scanning.
const MaxSourceBytes = 10 * 1024 * 1024

// isIdentStart reports whether r can begin an identifier-or-keyword run:
// an ASCII letter, underscore, or a CJK ideograph in one of the three
// ranges §3.2 names.
func isIdentStart(r rune) bool {
	switch {
	case r == '_':
		return true
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		return true
	case r >= 0x4E00 && r <= 0x9FFF:
		return true
	case r >= 0x3400 && r <= 0x4DBF:
		return true
	case r >= 0x20000 && r <= 0x2A6DF:
		return true
	}
	return false
}

func isIdentContinue(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

// punctTable is consulted longest-prefix-first; entries must be ordered
// so no prefix of a later entry is matched before the full entry.
var punctTable = []struct {
	lexeme string
	kind   token.Kind
}{
	{"->", token.Arrow}, {"::", token.ColonColon},
	{"==", token.EqEq}, {"!=", token.NotEq},
	{"<=", token.Le}, {">=", token.Ge},
	{"&&", token.AndAnd}, {"||", token.OrOr},
	{"(", token.LParen}, {")", token.RParen},
	{"{", token.LBrace}, {"}", token.RBrace},
	{"[", token.LBracket}, {"]", token.RBracket},
	{",", token.Comma}, {".", token.Dot},
	{":", token.Colon}, {";", token.Semi},
	{"=", token.Assign}, {"+", token.Plus}, {"-", token.Minus},
	{"*", token.Star}, {"/", token.Slash}, {"%", token.Percent},
	{"<", token.Lt}, {">", token.Gt},
	{"!", token.Not}, {"&", token.Amp}, {"|", token.Pipe},
}

// Lexer tokenizes one source file. It holds no state shared across
// files and can be reused by calling Lex again on a new instance.
type Lexer struct {
	file   *span.File
	src    []byte
	offset int // byte offset of the lexer's read position
	diags  []diag.Diagnostic
}

// New constructs a Lexer over the given file record and its raw bytes.
// The byte-order mark, if present, is stripped before lexing begins.
func New(file *span.File, src []byte) *Lexer {
	src = stripBOM(src)
	return &Lexer{file: file, src: src}
}

func stripBOM(src []byte) []byte {
	const bom = string(rune(0xFEFF))
	if strings.HasPrefix(string(src[:min(len(src), 3)]), bom) {
		return src[3:]
	}
	return src
}

// Lex tokenizes the entire file, returning the token stream (always
// terminated by an EOF token) and any diagnostics encountered. Lexing
// never stops at the first error: it resynchronizes and continues so a
// single invocation surfaces every lex error in the file.
func (l *Lexer) Lex() ([]token.Token, []diag.Diagnostic) {
	if len(l.src) > MaxSourceBytes {
		l.diags = append(l.diags, diag.Diagnostic{
			Severity: diag.SeverityError,
			Code:     diag.CodeFileTooLarge,
			Message:  diag.Localize(diag.CodeFileTooLarge, len(l.src), MaxSourceBytes),
			Primary:  span.Span{File: l.file.ID, Start: 0, End: 0},
		})
		return []token.Token{{Kind: token.EOF, Span: l.spanHere(0)}}, l.diags
	}

	var toks []token.Token
	for {
		l.skipWhitespaceAndComments()
		if l.offset >= len(l.src) {
			toks = append(toks, token.Token{Kind: token.EOF, Span: l.spanHere(0)})
			return toks, l.diags
		}
		tok := l.next()
		toks = append(toks, tok)
	}
}

func (l *Lexer) spanHere(n int) span.Span {
	return span.Span{File: l.file.ID, Start: l.offset, End: l.offset + n}
}

func (l *Lexer) peekRune() (rune, int) {
	if l.offset >= len(l.src) {
		return 0, 0
	}
	r, size := utf8.DecodeRune(l.src[l.offset:])
	return r, size
}

func (l *Lexer) skipWhitespaceAndComments() {
	for l.offset < len(l.src) {
		r, size := l.peekRune()
		switch {
		case unicode.IsSpace(r):
			l.offset += size
		case r == '/' && l.hasPrefix("//"):
			for l.offset < len(l.src) && l.src[l.offset] != '\n' {
				l.offset++
			}
		case r == '/' && l.hasPrefix("/*"):
			l.offset += 2
			for l.offset < len(l.src) && !l.hasPrefix("*/") {
				l.offset++
			}
			if l.hasPrefix("*/") {
				l.offset += 2
			}
		default:
			return
		}
	}
}

func (l *Lexer) hasPrefix(p string) bool {
	return strings.HasPrefix(string(l.src[l.offset:min(l.offset+len(p), len(l.src))]), p)
}

// next consumes and returns exactly one token. Called only when the
// lexer is positioned at a non-whitespace, non-comment scalar.
func (l *Lexer) next() token.Token {
	r, _ := l.peekRune()
	start := l.offset

	switch {
	case isIdentStart(r):
		return l.lexIdentOrKeyword(start)
	case unicode.IsDigit(r):
		return l.lexNumber(start)
	case r == '"':
		return l.lexString(start)
	case r == '\'':
		return l.lexChar(start)
	default:
		if tok, ok := l.lexPunct(start); ok {
			return tok
		}
		l.offset += utf8.RuneLen(r)
		l.errorf(span.Span{File: l.file.ID, Start: start, End: l.offset}, diag.CodeInvalidChar,
			"invalid character %q", r)
		l.resync()
		return token.Token{Kind: token.Error, Lexeme: string(r), Span: span.Span{File: l.file.ID, Start: start, End: l.offset}}
	}
}

func (l *Lexer) lexIdentOrKeyword(start int) token.Token {
	for l.offset < len(l.src) {
		r, size := l.peekRune()
		if !isIdentContinue(r) {
			break
		}
		l.offset += size
	}
	lexeme := string(l.src[start:l.offset])
	sp := span.Span{File: l.file.ID, Start: start, End: l.offset}
	if kind, ok := token.Keywords[lexeme]; ok {
		if kind == token.KwTrue || kind == token.KwFalse {
			return token.Token{Kind: token.BoolLiteral, Lexeme: lexeme, Span: sp, Literal: token.Literal{Bool: kind == token.KwTrue}}
		}
		return token.Token{Kind: kind, Lexeme: lexeme, Span: sp}
	}
	return token.Token{Kind: token.Ident, Lexeme: lexeme, Span: sp}
}

func (l *Lexer) lexNumber(start int) token.Token {
	for l.offset < len(l.src) && isASCIIDigit(l.src[l.offset]) {
		l.offset++
	}
	isFloat := false
	if l.offset < len(l.src) && l.src[l.offset] == '.' && l.offset+1 < len(l.src) && isASCIIDigit(l.src[l.offset+1]) {
		isFloat = true
		l.offset++
		for l.offset < len(l.src) && isASCIIDigit(l.src[l.offset]) {
			l.offset++
		}
	}
	lexeme := string(l.src[start:l.offset])
	sp := span.Span{File: l.file.ID, Start: start, End: l.offset}
	if isFloat {
		v, err := strconv.ParseFloat(lexeme, 64)
		if err != nil {
			l.errorf(sp, diag.CodeInvalidNumber, "invalid float literal %q", lexeme)
		}
		return token.Token{Kind: token.FloatLiteral, Lexeme: lexeme, Span: sp, Literal: token.Literal{Float: v}}
	}
	v, err := strconv.ParseInt(lexeme, 10, 64)
	if err != nil {
		l.errorf(sp, diag.CodeInvalidNumber, "invalid integer literal %q", lexeme)
	}
	return token.Token{Kind: token.IntLiteral, Lexeme: lexeme, Span: sp, Literal: token.Literal{Int: v}}
}

func isASCIIDigit(b byte) bool { return b >= '0' && b <= '9' }

func (l *Lexer) lexString(start int) token.Token {
	l.offset++ // opening quote
	var sb strings.Builder
	terminated := false
	for l.offset < len(l.src) {
		r, size := l.peekRune()
		if r == '"' {
			l.offset++
			terminated = true
			break
		}
		if r == '\\' {
			l.offset += size
			esc, ok := l.lexEscape()
			if !ok {
				continue
			}
			sb.WriteRune(esc)
			continue
		}
		sb.WriteRune(r)
		l.offset += size
	}
	sp := span.Span{File: l.file.ID, Start: start, End: l.offset}
	if !terminated {
		l.errorf(sp, diag.CodeUnterminatedString, "unterminated string literal")
	}
	return token.Token{Kind: token.StringLiteral, Lexeme: string(l.src[start:l.offset]), Span: sp, Literal: token.Literal{Str: sb.String()}}
}

func (l *Lexer) lexChar(start int) token.Token {
	l.offset++ // opening quote
	var value rune
	if l.offset < len(l.src) {
		r, size := l.peekRune()
		if r == '\\' {
			l.offset += size
			esc, ok := l.lexEscape()
			if ok {
				value = esc
			}
		} else {
			value = r
			l.offset += size
		}
	}
	terminated := false
	if l.offset < len(l.src) && l.src[l.offset] == '\'' {
		l.offset++
		terminated = true
	}
	sp := span.Span{File: l.file.ID, Start: start, End: l.offset}
	if !terminated {
		l.errorf(sp, diag.CodeUnterminatedString, "unterminated char literal")
	}
	return token.Token{Kind: token.CharLiteral, Lexeme: string(l.src[start:l.offset]), Span: sp, Literal: token.Literal{Char: value}}
}

// lexEscape consumes one escape sequence body (the lexer's read
// position is already past the backslash) and returns the decoded rune.
func (l *Lexer) lexEscape() (rune, bool) {
	if l.offset >= len(l.src) {
		return 0, false
	}
	start := l.offset
	r, size := l.peekRune()
	l.offset += size
	switch r {
	case 'n':
		return '\n', true
	case 't':
		return '\t', true
	case '\\':
		return '\\', true
	case '"':
		return '"', true
	case '\'':
		return '\'', true
	case 'u':
		if l.offset < len(l.src) && l.src[l.offset] == '{' {
			l.offset++
			hexStart := l.offset
			for l.offset < len(l.src) && l.src[l.offset] != '}' {
				l.offset++
			}
			hexStr := string(l.src[hexStart:l.offset])
			if l.offset < len(l.src) {
				l.offset++ // consume '}'
			}
			v, err := strconv.ParseUint(hexStr, 16, 32)
			if err != nil {
				l.errorf(span.Span{File: l.file.ID, Start: start, End: l.offset}, diag.CodeInvalidEscape,
					"invalid unicode escape \\u{%s}", hexStr)
				return 0, false
			}
			return rune(v), true
		}
		l.errorf(span.Span{File: l.file.ID, Start: start, End: l.offset}, diag.CodeInvalidEscape, "invalid escape sequence")
		return 0, false
	default:
		l.errorf(span.Span{File: l.file.ID, Start: start, End: l.offset}, diag.CodeInvalidEscape, "invalid escape sequence \\%c", r)
		return 0, false
	}
}

func (l *Lexer) lexPunct(start int) (token.Token, bool) {
	for _, p := range punctTable {
		if l.hasPrefixAt(start, p.lexeme) {
			l.offset = start + len(p.lexeme)
			return token.Token{Kind: p.kind, Lexeme: p.lexeme, Span: span.Span{File: l.file.ID, Start: start, End: l.offset}}, true
		}
	}
	return token.Token{}, false
}

func (l *Lexer) hasPrefixAt(start int, p string) bool {
	end := start + len(p)
	if end > len(l.src) {
		return false
	}
	return string(l.src[start:end]) == p
}

// resync skips forward to the next whitespace or ASCII-punctuation
// boundary after a lex error, so later tokens are not cascading garbage.
func (l *Lexer) resync() {
	for l.offset < len(l.src) {
		r, size := l.peekRune()
		if unicode.IsSpace(r) {
			return
		}
		if _, ok := l.lexPunctPeek(); ok {
			return
		}
		l.offset += size
	}
}

func (l *Lexer) lexPunctPeek() (token.Kind, bool) {
	for _, p := range punctTable {
		if l.hasPrefixAt(l.offset, p.lexeme) {
			return p.kind, true
		}
	}
	return token.Invalid, false
}

func (l *Lexer) errorf(sp span.Span, code diag.Code, format string, args ...any) {
	l.diags = append(l.diags, diag.Diagnostic{
		Severity: diag.SeverityError,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Primary:  sp,
	})
}
