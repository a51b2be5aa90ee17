// Package token defines the lexical token vocabulary of spec §3: tokens
// reference the source buffer by offset and never copy text, the way the
// teacher's lexer keeps tokens cheap (lang/ylex/lexer.go, lang/yparse/token.go)
// but widened here to exact byte spans instead of re-serialized text lines.
package token

import "fmt"

// Kind is the tagged variant of a token.
type Kind int

const (
	Invalid Kind = iota

	// Keywords (14 — spec §3)
	KeywordModule
	KeywordImport
	KeywordExport
	KeywordReturn
	KeywordMatch
	KeywordType
	KeywordTry
	KeywordAnd
	KeywordOr
	KeywordNot
	KeywordTrue
	KeywordFalse
	KeywordThis
	KeywordPartial

	Identifier
	NumberLiteral
	StringLiteral // plain '...' or "..."
	InterpString  // interpolated `...`
	BooleanLiteralToken

	// Punctuation / operators
	Colon
	Semicolon
	Comma
	Dot
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Lt
	Gt
	Plus
	Minus
	Star
	Slash
	Pipe
	Equal

	LineComment
	BlockComment

	EOF
)

var keywords = map[string]Kind{
	"module": KeywordModule,
	"import": KeywordImport,
	"export": KeywordExport,
	"return": KeywordReturn,
	"match":  KeywordMatch,
	"type":   KeywordType,
	"try":    KeywordTry,
	"and":    KeywordAnd,
	"or":     KeywordOr,
	"not":    KeywordNot,
	"true":   KeywordTrue,
	"false":  KeywordFalse,
	"this":   KeywordThis,
	"partial": KeywordPartial,
}

// LookupKeyword returns the keyword kind for ident, and whether it is one.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}

var kindNames = map[Kind]string{
	Invalid:             "invalid",
	KeywordModule:       "module",
	KeywordImport:       "import",
	KeywordExport:       "export",
	KeywordReturn:       "return",
	KeywordMatch:        "match",
	KeywordType:         "type",
	KeywordTry:          "try",
	KeywordAnd:          "and",
	KeywordOr:           "or",
	KeywordNot:          "not",
	KeywordTrue:         "true",
	KeywordFalse:        "false",
	KeywordThis:         "this",
	KeywordPartial:      "partial",
	Identifier:          "identifier",
	NumberLiteral:       "number",
	StringLiteral:       "string",
	InterpString:        "interp-string",
	BooleanLiteralToken: "boolean",
	Colon:               "':'",
	Semicolon:           "';'",
	Comma:               "','",
	Dot:                 "'.'",
	LParen:              "'('",
	RParen:              "')'",
	LBrace:              "'{'",
	RBrace:              "'}'",
	LBracket:            "'['",
	RBracket:            "']'",
	Lt:                  "'<'",
	Gt:                  "'>'",
	Plus:                "'+'",
	Minus:               "'-'",
	Star:                "'*'",
	Slash:               "'/'",
	Pipe:                "'|'",
	Equal:                "'='",
	LineComment:         "line-comment",
	BlockComment:        "block-comment",
	EOF:                 "eof",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// NumberSuffix is the optional width/signedness/float suffix on a numeric
// literal.
type NumberSuffix int

const (
	SuffixNone NumberSuffix = iota
	SuffixI8
	SuffixI16
	SuffixI32
	SuffixI64
	SuffixU8
	SuffixU16
	SuffixU32
	SuffixU64
	SuffixF32
	SuffixF64
)

var suffixNames = map[string]NumberSuffix{
	"i8": SuffixI8, "i16": SuffixI16, "i32": SuffixI32, "i64": SuffixI64,
	"u8": SuffixU8, "u16": SuffixU16, "u32": SuffixU32, "u64": SuffixU64,
	"f32": SuffixF32, "f64": SuffixF64,
}

// LookupSuffix returns the numeric suffix kind for text, and whether it is one.
func LookupSuffix(text string) (NumberSuffix, bool) {
	s, ok := suffixNames[text]
	return s, ok
}

// Token is a lexical token. It never copies source text; Text(source)
// is the only way to materialize it (spec §4.2 design rationale).
type Token struct {
	Kind     Kind
	Start    int
	Length   int
	Line     int
	Column   int
	IsFloat  bool         // true if a NumberLiteral has a fractional part
	Suffix   NumberSuffix // set for NumberLiteral when a suffix is present
}

// Text materializes the token's text from the source buffer.
func (t Token) Text(source []byte) string {
	return string(source[t.Start : t.Start+t.Length])
}

func (t Token) String() string {
	return fmt.Sprintf("%s@%d:%d", t.Kind, t.Line, t.Column)
}

// End returns the byte offset one past the token's last byte.
func (t Token) End() int {
	return t.Start + t.Length
}
