// Package diag is Qi's diagnostic model: the structure every compiler
// stage reports errors through. It generalizes the
// teacher's sentinel-error-plus-stable-ErrorCode convention
// (internal/model/errors.go in termfx-morfx) from a single error per
// operation to a collected list per compilation stage, and renders
// suggestion text as a unified diff via go-difflib, the same library
// the teacher vendors for its own diff output.
package diag

import ("fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/qi-lang/qi/internal/span"
)

// Severity classifies a Diagnostic.
type Severity int

const (SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Code is a stable, machine-readable diagnostic identifier (// §6.4). Codes are grouped by the pipeline stage that raises them.
type Code string

const (// Lex errors.
	CodeInvalidChar Code = "LEX_INVALID_CHAR"
	CodeUnterminatedString Code = "LEX_UNTERMINATED_STRING"
	CodeInvalidEscape Code = "LEX_INVALID_ESCAPE"
	CodeInvalidNumber Code = "LEX_INVALID_NUMBER"
	CodeFileTooLarge Code = "LEX_FILE_TOO_LARGE"

	// Parse errors.
	CodeUnexpectedToken Code = "PARSE_UNEXPECTED_TOKEN"
	CodeMissingDelimiter Code = "PARSE_MISSING_DELIMITER"
	CodeInvalidItem Code = "PARSE_INVALID_ITEM"

	// Semantic errors.
	CodeUnresolvedName Code = "SEMA_UNRESOLVED_NAME"
	CodeDuplicateDecl Code = "SEMA_DUPLICATE_DECL"
	CodeVisibilityViolation Code = "SEMA_VISIBILITY_VIOLATION"
	CodeTypeMismatch Code = "SEMA_TYPE_MISMATCH"
	CodeWrongArity Code = "SEMA_WRONG_ARITY"
	CodeNotAwaitable Code = "SEMA_NOT_AWAITABLE"
	CodeModuleNotFound Code = "SEMA_MODULE_NOT_FOUND"
	CodeImportCycle Code = "SEMA_IMPORT_CYCLE"
	CodeNotMutable Code = "SEMA_NOT_MUTABLE"
	CodeNotAssignable Code = "SEMA_NOT_ASSIGNABLE"
	CodeUnknownLabel Code = "SEMA_UNKNOWN_LABEL"

	// Codegen errors.
	CodeUnsupportedConstruct Code = "CODEGEN_UNSUPPORTED_CONSTRUCT"
	CodeLinkFailure Code = "CODEGEN_LINK_FAILURE"
)

// Secondary is a secondary span with a human-readable label, used to
// point at related locations (e.g. the earlier declaration in a
// duplicate-declaration error).
type Secondary struct {
	Span span.Span
	Label string
}

// Diagnostic is the uniform error/warning/info record every stage
// reports: severity, a stable code, a localized message,
// a primary span, optional secondary spans, and an optional suggestion.
type Diagnostic struct {
	Severity Severity
	Code Code
	Message string
	Primary span.Span
	Secondary []Secondary
	Suggestion string
}

// WithSuggestedReplacement attaches a unified-diff suggestion rendered
// from the original source text and a proposed replacement.
func (d Diagnostic) WithSuggestedReplacement(filename, original, proposed string) Diagnostic {
	diffText, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A: difflib.SplitLines(original),
		B: difflib.SplitLines(proposed),
		FromFile: filename,
		ToFile: filename + " (suggested)",
		Context: 1,
	})
	if err == nil {
		d.Suggestion = diffText
	}
	return d
}

// Format renders a diagnostic for terminal output given a resolved
// source position.
func (d Diagnostic) Format(fs *span.FileSet) string {
	pos := fs.Position(d.Primary)
	f := fs.File(d.Primary.File)
	name := "<unknown>"
	if f != nil {
		name = f.Name
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s[%s]: %s (%s:%s)", d.Severity, Localize(d.Code), d.Code, d.Message, name, pos)
	for _, s := range d.Secondary {
		spos := fs.Position(s.Span)
		fmt.Fprintf(&b, "\n %s: %s (%s:%s)", s.Label, Localize(d.Code), name, spos)
	}
	if d.Suggestion != "" {
		fmt.Fprintf(&b, "\n%s", d.Suggestion)
	}
	return b.String()
}

// ExitCode maps a diagnostic set to the process exit code: 1 when any
// diagnostic is an error (compilation error), 0 otherwise. It never
// returns the runtime-error (2) or internal-error (3) codes.
func ExitCode(diags []Diagnostic) int {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return 1
		}
	}
	return 0
}

// HasErrors reports whether diags contains at least one error-severity
// diagnostic.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// localizedZh carries the zh-Hans primary-language summaries for stable
// codes (: "primary language is CJK; an English fallback
// exists"). Unlisted codes fall back to their English Code string.
var localizedZh = map[Code]string{
	CodeInvalidChar: "无效字符",
	CodeUnterminatedString: "字符串未闭合",
	CodeInvalidEscape: "无效转义序列",
	CodeInvalidNumber: "无效数字字面量",
	CodeFileTooLarge: "源文件过大",
	CodeUnexpectedToken: "意外的记号",
	CodeMissingDelimiter: "缺少分隔符",
	CodeInvalidItem: "无效的顶层声明",
	CodeUnresolvedName: "未解析的名称",
	CodeDuplicateDecl: "重复声明",
	CodeVisibilityViolation: "可见性冲突",
	CodeTypeMismatch: "类型不匹配",
	CodeWrongArity: "参数数量不匹配",
	CodeNotAwaitable: "不可等待的表达式",
	CodeModuleNotFound: "模块未找到",
	CodeImportCycle: "导入循环",
	CodeNotMutable: "目标不可变",
	CodeNotAssignable: "目标不可赋值",
	CodeUnknownLabel: "未知标签",
	CodeUnsupportedConstruct: "目标平台不支持该结构",
	CodeLinkFailure: "链接失败",
}

// Localize returns the zh-Hans summary for a code (falling back to the
// English code string for unlisted codes). When args are given they are
// appended after the summary as one parenthesized list, e.g.
// `导入循环 ([a b])`; the summary itself is never used as a format string.
func Localize(code Code, args ...any) string {
	summary, ok := localizedZh[code]
	if !ok {
		summary = string(code)
	}
	if len(args) == 0 {
		return summary
	}
	return fmt.Sprintf(summary+" (%v)", args)
}
