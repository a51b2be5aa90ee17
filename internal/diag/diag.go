// Package diag defines the diagnostic shapes shared by every compiler stage:
// the lexer, the parser, and the semantic analyzer all report trouble
// through the same Span/Kind/Diagnostic vocabulary so a caller can treat
// them uniformly regardless of which stage produced them.
package diag

import "fmt"

// Severity classifies a Diagnostic. The core only ever emits Error today;
// the field exists so downstream tooling (LSP, linting) can add warnings
// without changing the shape.
type Severity int

const (
	Error Severity = iota
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Kind is the closed taxonomy of diagnostic kinds from spec §7.
type Kind int

const (
	// Configuration
	KindLimitOutOfRange Kind = iota
	KindMalformedConfiguration

	// Lex
	KindInputTooLarge
	KindUnexpectedCharacter
	KindUnterminatedString
	KindUnterminatedBlockComment
	KindMalformedNumericLiteral
	KindIdentifierTooLong
	KindStringTooLong
	KindCommentTooLong
	KindTooManyTokens

	// Parse
	KindUnexpectedToken
	KindUnexpectedEOF
	KindInvalidSyntax
	KindRecursionLimitExceeded
	KindTooManyASTNodes
	KindDuplicateStructMember

	// Semantic / resolution
	KindUndefinedIdentifier
	KindDuplicateFunction
	KindDuplicateType
	KindMissingImportedModule
	KindMissingExportedSymbol
	KindPrivacyViolation
	KindThisOutsideMethod

	// Semantic / type
	KindArityMismatch
	KindArgumentTypeMismatch
	KindReturnTypeMismatch
	KindAnnotationMismatch
	KindNonBooleanOperand
	KindOccursCheckFailure
	KindUnresolvedTypeVariable
	KindIncompatibleIntersectionOperands
	KindNoMatchingUnionAlternative
)

var kindNames = map[Kind]string{
	KindLimitOutOfRange:                  "limit-out-of-range",
	KindMalformedConfiguration:           "malformed-configuration",
	KindInputTooLarge:                    "input-too-large",
	KindUnexpectedCharacter:              "unexpected-character",
	KindUnterminatedString:               "unterminated-string",
	KindUnterminatedBlockComment:         "unterminated-block-comment",
	KindMalformedNumericLiteral:          "malformed-numeric-literal",
	KindIdentifierTooLong:                "identifier-too-long",
	KindStringTooLong:                    "string-too-long",
	KindCommentTooLong:                   "comment-too-long",
	KindTooManyTokens:                    "too-many-tokens",
	KindUnexpectedToken:                  "unexpected-token",
	KindUnexpectedEOF:                    "unexpected-eof",
	KindInvalidSyntax:                    "invalid-syntax",
	KindRecursionLimitExceeded:           "recursion-limit-exceeded",
	KindTooManyASTNodes:                  "too-many-ast-nodes",
	KindDuplicateStructMember:            "duplicate-struct-member",
	KindUndefinedIdentifier:              "undefined-identifier",
	KindDuplicateFunction:                "duplicate-function",
	KindDuplicateType:                    "duplicate-type",
	KindMissingImportedModule:            "missing-imported-module",
	KindMissingExportedSymbol:            "missing-exported-symbol",
	KindPrivacyViolation:                 "privacy-violation",
	KindThisOutsideMethod:                "this-outside-method",
	KindArityMismatch:                    "arity-mismatch",
	KindArgumentTypeMismatch:             "argument-type-mismatch",
	KindReturnTypeMismatch:               "return-type-mismatch",
	KindAnnotationMismatch:               "annotation-mismatch",
	KindNonBooleanOperand:                "non-boolean-operand",
	KindOccursCheckFailure:               "occurs-check-failure",
	KindUnresolvedTypeVariable:           "unresolved-type-variable",
	KindIncompatibleIntersectionOperands: "incompatible-intersection-operands",
	KindNoMatchingUnionAlternative:       "no-matching-union-alternative",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown-kind"
}

// Span is a byte-exact location in a source buffer.
type Span struct {
	Offset int
	Length int
	Line   int
	Column int
}

// Diagnostic is one reported problem. Error renders it as
// "line:col: kind: message"; a Diagnostic carries no file name.
type Diagnostic struct {
	Severity Severity
	Kind     Kind
	Message  string
	Span     Span
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%d:%d: %s: %s", d.Span.Line, d.Span.Column, d.Kind, d.Message)
}

// New builds a Diagnostic with Error severity.
func New(kind Kind, span Span, format string, args ...interface{}) Diagnostic {
	return Diagnostic{
		Severity: Error,
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Span:     span,
	}
}
