package suru_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	suru "github.com/paul-ciorogar/suru-lang-sub001"
	"github.com/paul-ciorogar/suru-lang-sub001/internal/diag"
	"github.com/paul-ciorogar/suru-lang-sub001/internal/limits"
)

func diagKinds(result suru.Result) []diag.Kind {
	var out []diag.Kind
	for _, d := range result.Diagnostics {
		out = append(out, d.Kind)
	}
	return out
}

// TestCompileEndToEnd exercises Compile over small whole programs covering
// the scenarios spec.md's own examples section walks through: a plain
// variable declaration, a function declaration, a struct type with a
// structurally-typed literal, and a union type used through match.
func TestCompileEndToEnd(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"S1 plain variable decl", `x: 42`},
		{"function declaration and call", `
square: (n Number) Number { return n }
r: square(5)
`},
		{"S6 struct type with literal", `
type Person: { name String age Number }
alice Person: { name: "A" age: 30 }
`},
		{"union type with match", `
type North
type South
type East
type West
type Direction: North, South, East, West
describe: (d Direction) String {
	return match d {
		North: "north",
		South: "south",
		East: "east",
		West: "west",
	}
}
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := suru.Compile([]byte(tt.src), limits.Defaults())
			require.NoError(t, err)
			assert.Empty(t, diagKinds(result), "unexpected diagnostics: %v", result.Diagnostics)
			assert.NotNil(t, result.Store)
			assert.NotNil(t, result.Types)
		})
	}
}

func TestCompileLexErrorShortCircuits(t *testing.T) {
	_, err := suru.Compile([]byte("0x"), limits.Defaults())
	require.Error(t, err)
	d, ok := err.(diag.Diagnostic)
	require.True(t, ok)
	assert.Equal(t, diag.KindMalformedNumericLiteral, d.Kind)
}

func TestCompileParseErrorShortCircuits(t *testing.T) {
	_, err := suru.Compile([]byte("x 1"), limits.Defaults())
	require.Error(t, err)
	d, ok := err.(diag.Diagnostic)
	require.True(t, ok)
	assert.Equal(t, diag.KindUnexpectedToken, d.Kind)
}

func TestCompileSemanticDiagnosticsDoNotShortCircuit(t *testing.T) {
	result, err := suru.Compile([]byte("x: y"), limits.Defaults())
	require.NoError(t, err)
	assert.Contains(t, diagKinds(result), diag.KindUndefinedIdentifier)
}
