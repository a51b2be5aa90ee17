package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paul-ciorogar/suru-lang-sub001/internal/ast"
	"github.com/paul-ciorogar/suru-lang-sub001/internal/diag"
	"github.com/paul-ciorogar/suru-lang-sub001/internal/lexer"
	"github.com/paul-ciorogar/suru-lang-sub001/internal/limits"
)

// mustParse lexes and parses src, failing the test on either error.
func mustParse(t *testing.T, src string) (*ast.Store, int) {
	t.Helper()
	toks, err := lexer.Lex([]byte(src), limits.Defaults())
	require.NoError(t, err)
	store, root, err := Parse(toks, []byte(src), limits.Defaults())
	require.NoError(t, err)
	return store, root
}

func childTypes(store *ast.Store, node int) []ast.NodeType {
	var out []ast.NodeType
	for _, c := range store.Children(node) {
		out = append(out, store.Read(c).Type)
	}
	return out
}

func TestParseVarDecl(t *testing.T) {
	store, root := mustParse(t, `x: 1`)
	decl := store.Children(root)[0]
	assert.Equal(t, ast.VarDecl, store.Read(decl).Type)
	assert.Equal(t, []ast.NodeType{ast.NumberLiteral}, childTypes(store, decl))
}

func TestParseVarDeclWithAnnotation(t *testing.T) {
	store, root := mustParse(t, `x Number: 1`)
	decl := store.Children(root)[0]
	assert.Equal(t, ast.VarDecl, store.Read(decl).Type)
	assert.Equal(t, []ast.NodeType{ast.TypeExpr, ast.NumberLiteral}, childTypes(store, decl))
}

func TestParseFuncDecl(t *testing.T) {
	store, root := mustParse(t, `add: (a Number, b Number) Number { return a }`)
	decl := store.Children(root)[0]
	require.Equal(t, ast.FuncDecl, store.Read(decl).Type)
	children := store.Children(decl)
	require.Len(t, children, 3)
	assert.Equal(t, ast.ParamList, store.Read(children[0]).Type)
	assert.Equal(t, ast.TypeExpr, store.Read(children[1]).Type)
	assert.Equal(t, ast.Block, store.Read(children[2]).Type)

	params := store.Children(children[0])
	require.Len(t, params, 2)
	assert.Equal(t, ast.Param, store.Read(params[0]).Type)
}

func TestParseFuncDeclNoReturnType(t *testing.T) {
	store, root := mustParse(t, `noop: () { }`)
	decl := store.Children(root)[0]
	children := store.Children(decl)
	require.Len(t, children, 2) // ParamList, Block only
	assert.Equal(t, ast.Block, store.Read(children[1]).Type)
}

func TestParseTypeDeclUnit(t *testing.T) {
	store, root := mustParse(t, `type Nothing`)
	decl := store.Children(root)[0]
	body := store.Children(decl)[0]
	assert.Equal(t, ast.TypeBodyUnit, store.Read(body).Type)
}

func TestParseTypeDeclAlias(t *testing.T) {
	store, root := mustParse(t, `type Name: String`)
	decl := store.Children(root)[0]
	body := store.Children(decl)[0]
	assert.Equal(t, ast.TypeBodyAlias, store.Read(body).Type)
}

func TestParseTypeDeclUnion(t *testing.T) {
	store, root := mustParse(t, `type Answer: Yes, No`)
	decl := store.Children(root)[0]
	body := store.Children(decl)[0]
	assert.Equal(t, ast.TypeBodyUnion, store.Read(body).Type)
	assert.Len(t, store.Children(body), 2)
}

func TestParseTypeDeclIntersection(t *testing.T) {
	store, root := mustParse(t, `type Both: A + B`)
	decl := store.Children(root)[0]
	body := store.Children(decl)[0]
	assert.Equal(t, ast.TypeBodyIntersection, store.Read(body).Type)
	assert.Len(t, store.Children(body), 2)
}

func TestParseTypeDeclStructWithPrivateMember(t *testing.T) {
	store, root := mustParse(t, `type Point: { x Number -y Number }`)
	decl := store.Children(root)[0]
	body := store.Children(decl)[0]
	require.Equal(t, ast.TypeBodyStruct, store.Read(body).Type)
	fields := store.Children(body)
	require.Len(t, fields, 2)
	assert.Equal(t, ast.Flags(0), store.Read(fields[0]).Flags&ast.FlagPrivate)
	assert.NotEqual(t, ast.Flags(0), store.Read(fields[1]).Flags&ast.FlagPrivate)
}

func TestParseTypeDeclStructDuplicateMember(t *testing.T) {
	toks, err := lexer.Lex([]byte(`type Point: { x Number x Number }`), limits.Defaults())
	require.NoError(t, err)
	_, _, err = Parse(toks, []byte(`type Point: { x Number x Number }`), limits.Defaults())
	require.Error(t, err)
	d, ok := err.(diag.Diagnostic)
	require.True(t, ok)
	assert.Equal(t, diag.KindDuplicateStructMember, d.Kind)
}

func TestParseStructMethodWithBody(t *testing.T) {
	store, root := mustParse(t, `type Point: { magnitude() Number { return 1 } }`)
	decl := store.Children(root)[0]
	body := store.Children(decl)[0]
	method := store.Children(body)[0]
	require.Equal(t, ast.StructMethod, store.Read(method).Type)
	children := store.Children(method)
	require.Len(t, children, 3) // ParamList, return TypeExpr, Block
	assert.Equal(t, ast.TypeExpr, store.Read(children[1]).Type)
	assert.Equal(t, ast.Block, store.Read(children[2]).Type)
}

// TestParseFunctionTypeReturnDisambiguation exercises the shape that is
// structurally ambiguous without ast.FlagHasReturn: a two-element
// TypeBodyFunction node is either a two-param function type or a
// one-param-plus-return-type function type.
func TestParseFunctionTypeReturnDisambiguation(t *testing.T) {
	store, root := mustParse(t, `type Adder: (Number, String)`)
	decl := store.Children(root)[0]
	body := store.Children(decl)[0]
	require.Equal(t, ast.TypeBodyFunction, store.Read(body).Type)
	assert.Equal(t, ast.Flags(0), store.Read(body).Flags&ast.FlagHasReturn)
	assert.Len(t, store.Children(body), 2)

	store2, root2 := mustParse(t, `type Adder: (Number) Bool`)
	decl2 := store2.Children(root2)[0]
	body2 := store2.Children(decl2)[0]
	require.Equal(t, ast.TypeBodyFunction, store2.Read(body2).Type)
	assert.NotEqual(t, ast.Flags(0), store2.Read(body2).Flags&ast.FlagHasReturn)
	assert.Len(t, store2.Children(body2), 2)
}

func TestParseStructLiteralBlock(t *testing.T) {
	store, root := mustParse(t, `p: { x: 1 y: 2 }`)
	decl := store.Children(root)[0]
	exprChildren := store.Children(decl)
	block := exprChildren[len(exprChildren)-1]
	require.Equal(t, ast.Block, store.Read(block).Type)
	fields := store.Children(block)
	require.Len(t, fields, 2)
	assert.Equal(t, ast.VarDecl, store.Read(fields[0]).Type)
	assert.Equal(t, ast.VarDecl, store.Read(fields[1]).Type)
}

func TestParseMatchExpr(t *testing.T) {
	store, root := mustParse(t, `
r: match x {
	Some(v): v,
	None: 0,
}`)
	decl := store.Children(root)[0]
	match := store.Children(decl)[0]
	require.Equal(t, ast.Match, store.Read(match).Type)
	children := store.Children(match)
	require.Len(t, children, 3) // scrutinee + 2 arms
	arm := children[1]
	assert.Equal(t, ast.MatchArm, store.Read(arm).Type)
	pattern := store.Children(arm)[0]
	assert.Equal(t, ast.Pattern, store.Read(pattern).Type)
	patternChildren := store.Children(pattern)
	require.Len(t, patternChildren, 2) // ctor identifier + one sub-pattern
}

func TestParseListLiteral(t *testing.T) {
	store, root := mustParse(t, `xs: [1, 2, 3]`)
	decl := store.Children(root)[0]
	list := store.Children(decl)[0]
	require.Equal(t, ast.ListLiteral, store.Read(list).Type)
	assert.Len(t, store.Children(list), 3)
}

func TestParseDictLiteral(t *testing.T) {
	store, root := mustParse(t, `d: ["a": 1, "b": 2]`)
	decl := store.Children(root)[0]
	dict := store.Children(decl)[0]
	require.Equal(t, ast.DictLiteral, store.Read(dict).Type)
	entries := store.Children(dict)
	require.Len(t, entries, 2)
	assert.Equal(t, ast.DictEntry, store.Read(entries[0]).Type)
}

func TestParseDictListMixError(t *testing.T) {
	src := `d: ["a": 1, 2]`
	toks, err := lexer.Lex([]byte(src), limits.Defaults())
	require.NoError(t, err)
	_, _, err = Parse(toks, []byte(src), limits.Defaults())
	require.Error(t, err)
	d, ok := err.(diag.Diagnostic)
	require.True(t, ok)
	assert.Equal(t, diag.KindInvalidSyntax, d.Kind)
}

func TestParsePipeAndTry(t *testing.T) {
	store, root := mustParse(t, `r: try f(x) | g`)
	decl := store.Children(root)[0]
	pipe := store.Children(decl)[0]
	require.Equal(t, ast.PipeExpr, store.Read(pipe).Type)
	left := store.Children(pipe)[0]
	assert.Equal(t, ast.TryExpr, store.Read(left).Type)
}

func TestParsePartialApplication(t *testing.T) {
	store, root := mustParse(t, `r: partial add(1)`)
	decl := store.Children(root)[0]
	app := store.Children(decl)[0]
	require.Equal(t, ast.PartialApplication, store.Read(app).Type)
}

func TestParseMethodCallAndPropertyAccess(t *testing.T) {
	store, root := mustParse(t, `r: p.magnitude()`)
	decl := store.Children(root)[0]
	call := store.Children(decl)[0]
	require.Equal(t, ast.MethodCall, store.Read(call).Type)

	store2, root2 := mustParse(t, `r: p.x`)
	decl2 := store2.Children(root2)[0]
	prop := store2.Children(decl2)[0]
	require.Equal(t, ast.PropertyAccess, store2.Read(prop).Type)
}

func TestParseImportExportBlocks(t *testing.T) {
	store, root := mustParse(t, "import { a, b }\nexport { a }\nx: 1")
	children := store.Children(root)
	require.Len(t, children, 3) // ImportBlock, ExportBlock, VarDecl
	assert.Equal(t, ast.ImportBlock, store.Read(children[0]).Type)
	assert.Equal(t, ast.ExportBlock, store.Read(children[1]).Type)
	assert.Len(t, store.Children(children[0]), 2)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind diag.Kind
	}{
		{"missing colon", `x 1`, diag.KindUnexpectedToken},
		{"unterminated block", `f: () { `, diag.KindUnexpectedEOF},
		{"unterminated struct body", `type T: { x Number`, diag.KindUnexpectedEOF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := lexer.Lex([]byte(tt.src), limits.Defaults())
			require.NoError(t, err)
			_, _, err = Parse(toks, []byte(tt.src), limits.Defaults())
			require.Error(t, err)
			d, ok := err.(diag.Diagnostic)
			require.True(t, ok, "expected a diag.Diagnostic, got %T", err)
			assert.Equal(t, tt.kind, d.Kind)
		})
	}
}

func TestParseRecursionLimit(t *testing.T) {
	lim := limits.Defaults()
	lim.MaxExpressionDepth = 3
	src := `x: (((1)))`
	toks, err := lexer.Lex([]byte(src), lim)
	require.NoError(t, err)
	_, _, err = Parse(toks, []byte(src), lim)
	require.Error(t, err)
	d, ok := err.(diag.Diagnostic)
	require.True(t, ok)
	assert.Equal(t, diag.KindRecursionLimitExceeded, d.Kind)
}
