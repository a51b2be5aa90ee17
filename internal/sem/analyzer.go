// Package sem implements the three-phase semantic analyzer of spec §4.5:
// constraint collection, Robinson unification with occurs check, and a
// final substitution pass. The phase shape (buildSymbolTables → typeCheck
// → generate) is carried from the teacher's lang/ysem/analyzer.go; "generate"
// becomes "substitute" since this analyzer's output is a resolved type
// table and diagnostics, not machine code.
package sem

import (
	"sort"

	"github.com/paul-ciorogar/suru-lang-sub001/internal/ast"
	"github.com/paul-ciorogar/suru-lang-sub001/internal/diag"
	"github.com/paul-ciorogar/suru-lang-sub001/internal/token"
	"github.com/paul-ciorogar/suru-lang-sub001/internal/types"
)

// Constraint is an equality between two types awaiting unification (spec
// §3: `Equal(TypeId, TypeId, origin_node)`).
//
// Directional marks a constraint produced by an annotated variable
// declaration (`x T: expr`): A is the required/annotated side, B is the
// value's inferred side. Two distinct Struct types meeting at a directional
// constraint are resolved by the structural-subtyping containment check
// spec §4.5 describes ("a value of struct S satisfies required struct R
// iff for every member in R, S contains a compatible member"), rather than
// failing outright on non-identical TypeIds. Non-directional constraints
// (e.g. both operands of `and`) always require exact unification.
type Constraint struct {
	A, B       types.TypeId
	Origin     int
	Directional bool
	ReportKind diag.Kind
}

// Result is everything Analyze produces: the resolved type table, a map
// from every AST node that carries a type to its resolved TypeId, and the
// accumulated diagnostics in source-position order.
type Result struct {
	Types     *types.Table
	NodeTypes map[int]types.TypeId
	Diags     []diag.Diagnostic
}

// Analyzer holds the running state of one compilation unit's analysis.
type Analyzer struct {
	store *ast.Store
	toks  []token.Token
	src   []byte

	typeTable *types.Table
	global    *Scope

	constraints []Constraint
	subst       map[types.TypeVarId]types.TypeId
	numericVars map[types.TypeId]bool // fresh TypeIds (unsuffixed number literals) that default to Number if still free

	nodeTypes map[int]types.TypeId
	diags     []diag.Diagnostic

	// undefinedNodes marks identifier nodes that already raised
	// KindUndefinedIdentifier, so Phase 3 does not pile an additional
	// KindUnresolvedTypeVariable diagnostic onto the same node.
	undefinedNodes map[int]bool

	// deferred post-substitution checks
	unaryMinusChecks []unaryMinusCheck

	// pendingMethods holds struct method bodies discovered while resolving
	// type declarations. Those of top-level types are walked only after
	// every top-level type has a filled TypeId, so a method can reference
	// sibling methods, fields, and `this` freely regardless of declaration
	// order; those of a block-nested type are walked right after that
	// type's declaration is resolved.
	pendingMethods []pendingMethod

	// returnTypeStack tracks the enclosing function/method's return type
	// while walking its body, so a nested ReturnStmt (and nested function
	// declarations push/pop their own frame) constrains the right target.
	returnTypeStack []types.TypeId
}

type unaryMinusCheck struct {
	node        int
	operandType types.TypeId
}

type pendingMethod struct {
	node     int
	scope    *Scope
	selfType types.TypeId
	funcType types.TypeId
}

// Analyze runs all three phases over the program rooted at root.
func Analyze(store *ast.Store, toks []token.Token, src []byte, root int) Result {
	a := &Analyzer{
		store:       store,
		toks:        toks,
		src:         src,
		typeTable:   types.NewTable(),
		subst:       make(map[types.TypeVarId]types.TypeId),
		numericVars: make(map[types.TypeId]bool),
		nodeTypes:   make(map[int]types.TypeId),
		undefinedNodes: make(map[int]bool),
	}
	a.global = newScope(nil, GlobalScope)

	a.collectProgram(root)
	a.unify()
	a.substituteAll()

	sort.SliceStable(a.diags, func(i, j int) bool {
		si, sj := a.diags[i].Span, a.diags[j].Span
		if si.Line != sj.Line {
			return si.Line < sj.Line
		}
		return si.Column < sj.Column
	})

	return Result{Types: a.typeTable, NodeTypes: a.nodeTypes, Diags: a.diags}
}

func (a *Analyzer) addDiag(kind diag.Kind, node int, format string, args ...interface{}) {
	a.diags = append(a.diags, diag.New(kind, a.spanOf(node), format, args...))
}

func (a *Analyzer) spanOf(node int) diag.Span {
	if node == ast.NoIndex {
		return diag.Span{}
	}
	n := a.store.Read(node)
	if n.TokenIndex == ast.NoIndex {
		return diag.Span{}
	}
	t := a.toks[n.TokenIndex]
	return diag.Span{Offset: t.Start, Length: t.Length, Line: t.Line, Column: t.Column}
}

func (a *Analyzer) tokenOf(node int) token.Token {
	n := a.store.Read(node)
	return a.toks[n.TokenIndex]
}

func (a *Analyzer) textOf(node int) string {
	return a.tokenOf(node).Text(a.src)
}

// constrain appends an Equal constraint (spec §3) consumed by unify().
func (a *Analyzer) constrain(x, y types.TypeId, origin int, kind diag.Kind) {
	a.constraints = append(a.constraints, Constraint{A: x, B: y, Origin: origin, ReportKind: kind})
}

// constrainDirectional records an annotation-vs-value constraint, allowing
// structural containment between two differently-shaped Struct types.
func (a *Analyzer) constrainDirectional(required, provided types.TypeId, origin int, kind diag.Kind) {
	a.constraints = append(a.constraints, Constraint{A: required, B: provided, Origin: origin, Directional: true, ReportKind: kind})
}

// ---- top level -------------------------------------------------------

// collectProgram implements spec §4.5 Phase 1 over the program root: the
// module statement has no semantic effect (a single compilation unit),
// import/export blocks are checked structurally, and type declarations are
// declared in one pass (reserving their TypeId) before any body is
// resolved, so mutually- and self-referential types resolve by index
// lookup rather than needing a pointer cycle (spec §9).
func (a *Analyzer) collectProgram(root int) {
	children := a.store.Children(root)

	var decls []int
	exportNode := ast.NoIndex
	for _, c := range children {
		switch a.store.Read(c).Type {
		case ast.ModuleStmt:
			// No semantic effect: analysis is scoped to one compilation unit.
		case ast.ImportBlock:
			a.collectImportBlock(c)
		case ast.ExportBlock:
			exportNode = c
		default:
			decls = append(decls, c)
		}
	}

	var typeDecls []int
	for _, d := range decls {
		if a.store.Read(d).Type == ast.TypeDecl {
			typeDecls = append(typeDecls, d)
		}
	}
	for _, td := range typeDecls {
		a.declareTypeName(td, a.global)
	}
	for _, td := range typeDecls {
		a.resolveTypeBody(td, a.global)
	}
	for _, pm := range a.pendingMethods {
		a.collectMethodBody(pm)
	}

	for _, d := range decls {
		switch a.store.Read(d).Type {
		case ast.TypeDecl:
			// already fully processed above
		case ast.VarDecl:
			a.collectVarDecl(d, a.global)
		case ast.FuncDecl:
			a.collectFuncDecl(d, a.global)
		}
	}

	if exportNode != ast.NoIndex {
		a.collectExportBlock(exportNode, a.global)
	}
}

// collectImportBlock registers each imported name as a Module symbol.
// Cross-file module resolution (verifying the module actually exists) is
// not done by this single-compilation-unit analyzer, so
// KindMissingImportedModule is never raised here.
func (a *Analyzer) collectImportBlock(node int) {
	for _, idNode := range a.store.Children(node) {
		name := a.textOf(idNode)
		a.global.declareVariable(&Symbol{Name: name, Kind: ModuleSym, Type: types.Invalid, DeclNode: idNode})
	}
}

// collectExportBlock checks that every exported name is actually declared
// at global scope.
func (a *Analyzer) collectExportBlock(node int, scope *Scope) {
	for _, idNode := range a.store.Children(node) {
		name := a.textOf(idNode)
		if _, ok := scope.lookupLocal(name); !ok {
			a.addDiag(diag.KindMissingExportedSymbol, idNode, "exported symbol %q is not declared in this module", name)
		}
	}
}
