// Package token defines Qi's lexical tokens: the closed keyword set (one
// CJK lexeme per entry), punctuation/operators, and literal kinds.
package token

import "github.com/qi-lang/qi/internal/span"

// Kind discriminates a token: a keyword, a punctuation/operator, a
// literal, an identifier, end-of-file, or an error token produced during
// lexer recovery.
type Kind int

const (
	Invalid Kind = iota
	EOF
	Error

	Ident

	IntLiteral
	FloatLiteral
	StringLiteral
	CharLiteral
	BoolLiteral

	// punctuation / operators
	LParen    // (
	RParen    // )
	LBrace    // {
	RBrace    // }
	LBracket  // [
	RBracket  // ]
	Comma     // ,
	Dot       // .
	Colon     // :
	ColonColon // ::
	Semi      // ;
	Arrow     // ->
	Assign    // =
	Plus      // +
	Minus     // -
	Star      // *
	Slash     // /
	Percent   // %
	EqEq      // ==
	NotEq     // !=
	Lt        // <
	Gt        // >
	Le        // <=
	Ge        // >=
	AndAnd    // &&
	OrOr      // ||
	Not       // !
	Amp       // &
	Pipe      // |

	keywordStart
	KwPackage
	KwImport
	KwPublic
	KwPrivate
	KwAlias
	KwConstant
	KwStatic
	KwVariable

	KwFunction
	KwStruct
	KwEnum
	KwUnion
	KwImpl
	KwTrait
	KwType

	KwInteger
	KwLong
	KwShort
	KwByte
	KwFloat
	KwBoolean
	KwChar
	KwString
	KwVoid
	KwArray
	KwDict
	KwList
	KwSet
	KwPointer
	KwReference
	KwMutRef

	KwIf
	KwElse
	KwMatch
	KwLoop
	KwWhile
	KwFor
	KwBreak
	KwContinue
	KwReturn
	KwGoto
	KwIn

	KwAsync
	KwAwait
	KwYield
	KwClosure
	KwInline

	KwThrow
	KwCatch
	KwTry
	KwResult
	KwOption

	KwOwn
	KwBorrow
	KwMove
	KwClone
	KwDrop
	KwNew

	KwSpawn
	KwTask
	KwThread
	KwLock
	KwAtomic
	KwParallel
	KwConcurrent

	KwTrue
	KwFalse
	KwNullptr

	KwPlus
	KwMinus
	KwTimes
	KwDivide
	KwModulo
	KwEquals
	KwNotEquals
	KwGreater
	KwLess
	KwAnd
	KwOr
	KwNot

	KwSelf
	KwSelfType
	keywordEnd
)

var names = map[Kind]string{
	EOF: "EOF", Error: "Error", Ident: "Ident",
	IntLiteral: "IntLiteral", FloatLiteral: "FloatLiteral",
	StringLiteral: "StringLiteral", CharLiteral: "CharLiteral", BoolLiteral: "BoolLiteral",
	LParen: "(", RParen: ")", LBrace: "{", RBrace: "}", LBracket: "[", RBracket: "]",
	Comma: ",", Dot: ".", Colon: ":", ColonColon: "::", Semi: ";", Arrow: "->",
	Assign: "=", Plus: "+", Minus: "-", Star: "*", Slash: "/", Percent: "%",
	EqEq: "==", NotEq: "!=", Lt: "<", Gt: ">", Le: "<=", Ge: ">=",
	AndAnd: "&&", OrOr: "||", Not: "!", Amp: "&", Pipe: "|",
}

// String returns a human-readable name for k, used in diagnostics.
func (k Kind) String() string {
	if n, ok := names[k]; ok {
		return n
	}
	if lex, ok := keywordLexeme[k]; ok {
		return lex
	}
	return "?"
}

// IsKeyword reports whether k is one of the closed-set keyword kinds.
func (k Kind) IsKeyword() bool { return k > keywordStart && k < keywordEnd }

// keywordLexeme maps each keyword Kind to its canonical CJK (or, for the
// two Self variants, mixed-case ASCII) surface spelling.
var keywordLexeme = map[Kind]string{
	KwPackage: "包", KwImport: "导入", KwPublic: "公开", KwPrivate: "私有",
	KwAlias: "别名", KwConstant: "常量", KwStatic: "静态", KwVariable: "变量",

	KwFunction: "函数", KwStruct: "结构体", KwEnum: "枚举", KwUnion: "联合",
	KwImpl: "实现", KwTrait: "特征", KwType: "类型",

	KwInteger: "整数", KwLong: "长整数", KwShort: "短整数", KwByte: "字节",
	KwFloat: "浮点数", KwBoolean: "布尔", KwChar: "字符", KwString: "字符串",
	KwVoid: "空", KwArray: "数组", KwDict: "字典", KwList: "列表", KwSet: "集合",
	KwPointer: "指针", KwReference: "引用", KwMutRef: "可变引用",

	KwIf: "如果", KwElse: "否则", KwMatch: "匹配", KwLoop: "循环",
	KwWhile: "当", KwFor: "对于", KwBreak: "跳出", KwContinue: "继续",
	KwReturn: "返回", KwGoto: "跳转", KwIn: "属于",

	KwAsync: "异步", KwAwait: "等待", KwYield: "让出", KwClosure: "闭包", KwInline: "内联",

	KwThrow: "抛出", KwCatch: "捕获", KwTry: "尝试", KwResult: "结果", KwOption: "选项",

	KwOwn: "拥有", KwBorrow: "借用", KwMove: "移动", KwClone: "克隆",
	KwDrop: "释放", KwNew: "新建",

	KwSpawn: "派生", KwTask: "任务", KwThread: "线程", KwLock: "锁",
	KwAtomic: "原子", KwParallel: "并行", KwConcurrent: "并发",

	KwTrue: "真", KwFalse: "假", KwNullptr: "空指针",

	KwPlus: "加", KwMinus: "减", KwTimes: "乘", KwDivide: "除", KwModulo: "取余",
	KwEquals: "等于", KwNotEquals: "不等于", KwGreater: "大于", KwLess: "小于",
	KwAnd: "且", KwOr: "或", KwNot: "非",

	KwSelf: "self", KwSelfType: "Self",
}

// Keywords is the lexeme -> Kind lookup the lexer consults after
// consuming a maximal identifier-or-keyword run.
var Keywords = func() map[string]Kind {
	m := make(map[string]Kind, len(keywordLexeme))
	for k, lex := range keywordLexeme {
		m[lex] = k
	}
	return m
}()

// Literal holds a lexer-parsed literal value, tagged by Kind.
type Literal struct {
	Int    int64
	Float  float64
	Str    string
	Char   rune
	Bool   bool
}

// Token is a single lexical unit: its kind, exact source lexeme, span,
// and (for literals) parsed value.
type Token struct {
	Kind    Kind
	Lexeme  string
	Span    span.Span
	Literal Literal
}
