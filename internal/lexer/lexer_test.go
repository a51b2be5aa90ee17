package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paul-ciorogar/suru-lang-sub001/internal/diag"
	"github.com/paul-ciorogar/suru-lang-sub001/internal/limits"
	"github.com/paul-ciorogar/suru-lang-sub001/internal/token"
)

func kinds(t *testing.T, toks []token.Token) []token.Kind {
	t.Helper()
	var out []token.Kind
	for _, tok := range toks {
		out = append(out, tok.Kind)
	}
	return out
}

func TestLexPositive(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []token.Kind
	}{
		{
			name: "empty input is just EOF",
			src:  "",
			want: []token.Kind{token.EOF},
		},
		{
			name: "keywords and identifier",
			src:  "return x",
			want: []token.Kind{token.KeywordReturn, token.Identifier, token.EOF},
		},
		{
			name: "var decl shape",
			src:  "x: 1",
			want: []token.Kind{token.Identifier, token.Colon, token.NumberLiteral, token.EOF},
		},
		{
			name: "suffixed number",
			src:  "7i32",
			want: []token.Kind{token.NumberLiteral, token.EOF},
		},
		{
			name: "line comment",
			src:  "# hi\nx",
			want: []token.Kind{token.LineComment, token.Identifier, token.EOF},
		},
		{
			name: "interpolated string",
			src:  "`hello ${x}`",
			want: []token.Kind{token.InterpString, token.EOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := Lex([]byte(tt.src), limits.Defaults())
			require.NoError(t, err)
			assert.Equal(t, tt.want, kinds(t, toks))
		})
	}
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind diag.Kind
	}{
		{"unterminated string", `"abc`, diag.KindUnterminatedString},
		{"unterminated block comment", "#* never ends", diag.KindUnterminatedBlockComment},
		{"unknown character", "@", diag.KindUnexpectedCharacter},
		{"malformed hex literal", "0x", diag.KindMalformedNumericLiteral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Lex([]byte(tt.src), limits.Defaults())
			require.Error(t, err)
			d, ok := err.(diag.Diagnostic)
			require.True(t, ok, "expected a diag.Diagnostic, got %T", err)
			assert.Equal(t, tt.kind, d.Kind)
		})
	}
}

func TestLexInputTooLarge(t *testing.T) {
	lim := limits.Defaults()
	lim.MaxInputBytes = 4
	_, err := Lex([]byte("12345"), lim)
	require.Error(t, err)
	d, ok := err.(diag.Diagnostic)
	require.True(t, ok)
	assert.Equal(t, diag.KindInputTooLarge, d.Kind)
}

func TestLexNumberSuffixesAndFloat(t *testing.T) {
	toks, err := Lex([]byte("1.5f64 3u8"), limits.Defaults())
	require.NoError(t, err)
	require.Len(t, toks, 3) // two numbers + EOF
	assert.True(t, toks[0].IsFloat)
	assert.Equal(t, token.SuffixF64, toks[0].Suffix)
	assert.False(t, toks[1].IsFloat)
	assert.Equal(t, token.SuffixU8, toks[1].Suffix)
}
