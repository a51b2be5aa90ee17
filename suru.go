// Package suru is the compilation-unit entry point of spec §6: it wires the
// lexer, parser, and semantic analyzer together behind one Compile call, the
// way the teacher's own top-level package composes its pipeline stages.
package suru

import (
	"github.com/paul-ciorogar/suru-lang-sub001/internal/ast"
	"github.com/paul-ciorogar/suru-lang-sub001/internal/diag"
	"github.com/paul-ciorogar/suru-lang-sub001/internal/lexer"
	"github.com/paul-ciorogar/suru-lang-sub001/internal/limits"
	"github.com/paul-ciorogar/suru-lang-sub001/internal/parser"
	"github.com/paul-ciorogar/suru-lang-sub001/internal/sem"
	"github.com/paul-ciorogar/suru-lang-sub001/internal/token"
	"github.com/paul-ciorogar/suru-lang-sub001/internal/types"
)

// Result is everything a successful (or partially successful) compilation
// produces: the token stream, the AST, the resolved type table, a map from
// AST node to its inferred type, and any semantic diagnostics. Lex and
// parse errors stop the pipeline outright and are returned as a plain
// error; semantic diagnostics accumulate in Diagnostics instead, since a
// program can be fully parsed yet still ill-typed.
type Result struct {
	Tokens      []token.Token
	Store       *ast.Store
	Root        int
	Types       *types.Table
	NodeTypes   map[int]types.TypeId
	Diagnostics []diag.Diagnostic
}

// Compile runs the full pipeline — lex, parse, analyze — over source under
// lim, per spec §6.
func Compile(source []byte, lim limits.Limits) (Result, error) {
	toks, err := lexer.Lex(source, lim)
	if err != nil {
		return Result{}, err
	}

	store, root, err := parser.Parse(toks, source, lim)
	if err != nil {
		return Result{Tokens: toks}, err
	}

	analysis := sem.Analyze(store, toks, source, root)

	return Result{
		Tokens:      toks,
		Store:       store,
		Root:        root,
		Types:       analysis.Types,
		NodeTypes:   analysis.NodeTypes,
		Diagnostics: analysis.Diags,
	}, nil
}
