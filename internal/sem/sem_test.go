package sem_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paul-ciorogar/suru-lang-sub001/internal/diag"
	"github.com/paul-ciorogar/suru-lang-sub001/internal/lexer"
	"github.com/paul-ciorogar/suru-lang-sub001/internal/limits"
	"github.com/paul-ciorogar/suru-lang-sub001/internal/parser"
	"github.com/paul-ciorogar/suru-lang-sub001/internal/sem"
)

// analyze lexes, parses, and runs the semantic analyzer over src, failing
// the test outright if lexing or parsing itself errors (those are a
// separate pipeline stage from what these tests exercise).
func analyze(t *testing.T, src string) sem.Result {
	t.Helper()
	lim := limits.Defaults()
	toks, err := lexer.Lex([]byte(src), lim)
	require.NoError(t, err)
	store, root, err := parser.Parse(toks, []byte(src), lim)
	require.NoError(t, err)
	return sem.Analyze(store, toks, []byte(src), root)
}

func kinds(result sem.Result) []diag.Kind {
	var out []diag.Kind
	for _, d := range result.Diags {
		out = append(out, d.Kind)
	}
	return out
}

func TestAnalyzeCleanProgramsHaveNoDiagnostics(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"number var decl", `x: 1`},
		{"annotated var decl", `x Number: 1`},
		{"string var decl", `s: "hello"`},
		{"func decl with return", `add: (a Number, b Number) Number { return a }`},
		{"struct type and literal", `
type Point: { x Number y Number }
p Point: { x: 1 y: 2 }
`},
		{"struct method using this", `
type Point: {
	x Number
	y Number
	getX() Number { return this.x }
}
p Point: { x: 1 y: 2 }
v: p.getX()
`},
		{"mutually recursive types", `
type A: { next B }
type B: { next A }
`},
		{"union type and match", `
type Yes
type No
type Answer: Yes, No
r: match 1 {
	x: x,
}
`},
		{"list literal", `xs: [1, 2, 3]`},
		{"dict literal", `d: ["a": 1, "b": 2]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := analyze(t, tt.src)
			assert.Empty(t, kinds(result), "unexpected diagnostics: %v", result.Diags)
		})
	}
}

func TestAnalyzeUndefinedIdentifier(t *testing.T) {
	result := analyze(t, `x: y`)
	assert.Contains(t, kinds(result), diag.KindUndefinedIdentifier)
}

func TestAnalyzeThisOutsideMethod(t *testing.T) {
	result := analyze(t, `x: this`)
	assert.Contains(t, kinds(result), diag.KindThisOutsideMethod)
}

func TestAnalyzeDuplicateFunction(t *testing.T) {
	result := analyze(t, `
f: () Number { return 1 }
f: () Number { return 2 }
`)
	assert.Contains(t, kinds(result), diag.KindDuplicateFunction)
}

func TestAnalyzeDuplicateType(t *testing.T) {
	result := analyze(t, `
type T: String
type T: Number
`)
	assert.Contains(t, kinds(result), diag.KindDuplicateType)
}

func TestAnalyzePrivacyViolation(t *testing.T) {
	result := analyze(t, `
type Point: { -x Number y Number }
p Point: { x: 1 y: 2 }
v: p.x
`)
	assert.Contains(t, kinds(result), diag.KindPrivacyViolation)
}

func TestAnalyzePrivateMemberAccessibleWithinMethod(t *testing.T) {
	result := analyze(t, `
type Point: {
	-x Number
	y Number
	getX() Number { return this.x }
}
p Point: { x: 1 y: 2 }
`)
	assert.NotContains(t, kinds(result), diag.KindPrivacyViolation)
}

func TestAnalyzeArityMismatch(t *testing.T) {
	result := analyze(t, `
add: (a Number, b Number) Number { return a }
r: add(1)
`)
	assert.Contains(t, kinds(result), diag.KindArityMismatch)
}

func TestAnalyzeArgumentTypeMismatch(t *testing.T) {
	result := analyze(t, `
add: (a Number, b Number) Number { return a }
r: add(1, "two")
`)
	assert.Contains(t, kinds(result), diag.KindArgumentTypeMismatch)
}

func TestAnalyzeReturnTypeMismatch(t *testing.T) {
	result := analyze(t, `f: () Number { return "not a number" }`)
	assert.Contains(t, kinds(result), diag.KindReturnTypeMismatch)
}

func TestAnalyzeIncompatibleIntersectionOperands(t *testing.T) {
	result := analyze(t, `
type A: { x Number }
type B: { x String }
type Both: A + B
`)
	assert.Contains(t, kinds(result), diag.KindIncompatibleIntersectionOperands)
}

func TestAnalyzeCompatibleIntersectionMergesFields(t *testing.T) {
	result := analyze(t, `
type A: { x Number }
type B: { y String }
type Both: A + B
v Both: { x: 1 y: "hi" }
`)
	assert.Empty(t, kinds(result), "unexpected diagnostics: %v", result.Diags)
}

func TestAnalyzeAnnotationMismatch(t *testing.T) {
	result := analyze(t, `x String: 1`)
	assert.Contains(t, kinds(result), diag.KindAnnotationMismatch)
}

func TestAnalyzeStructuralSubtypingAllowsExtraFields(t *testing.T) {
	// A struct literal with extra fields still satisfies a narrower
	// annotation (directional containment, not exact equality).
	result := analyze(t, `
type Named: { name String }
p Named: { name: "Ada" age: 30 }
`)
	assert.Empty(t, kinds(result), "unexpected diagnostics: %v", result.Diags)
}

func TestAnalyzeNonBooleanOperand(t *testing.T) {
	result := analyze(t, `x: 1 and 2`)
	assert.Contains(t, kinds(result), diag.KindNonBooleanOperand)
}

func TestAnalyzePipe(t *testing.T) {
	result := analyze(t, `
double: (x Number) Number { return x }
r: 4 | double
`)
	assert.Empty(t, kinds(result), "unexpected diagnostics: %v", result.Diags)
}

func TestAnalyzeTryUnwrapsResult(t *testing.T) {
	result := analyze(t, `
handle: (r Result<Number, String>) Number {
	return try r
}
`)
	assert.Empty(t, kinds(result), "unexpected diagnostics: %v", result.Diags)
}
