package sem

import (
	"github.com/paul-ciorogar/suru-lang-sub001/internal/ast"
	"github.com/paul-ciorogar/suru-lang-sub001/internal/diag"
	"github.com/paul-ciorogar/suru-lang-sub001/internal/types"
)

// collectVarDecl implements spec §4.5 Phase 1 for `name [T]: expr`: an
// annotated declaration constrains the value directionally against the
// annotation (so a differently-shaped but structurally-compatible struct
// literal is accepted, spec §4.5's structural-subtyping rule); an
// unannotated one simply takes the value's inferred type. Re-declaring the
// same name in the same scope rebinds rather than erroring (spec §3).
func (a *Analyzer) collectVarDecl(node int, scope *Scope) {
	name := a.textOf(node)
	children := a.store.Children(node)

	var annotation, exprNode int
	if len(children) == 2 {
		annotation, exprNode = children[0], children[1]
	} else {
		annotation, exprNode = ast.NoIndex, children[0]
	}

	var required types.TypeId
	hasAnnotation := annotation != ast.NoIndex
	if hasAnnotation {
		required = a.resolveTypeExprNode(annotation, scope)
	}

	valueType := a.typeOfBracketLiteral(exprNode, scope, required, hasAnnotation)

	declType := valueType
	if hasAnnotation {
		a.constrainDirectional(required, valueType, node, diag.KindAnnotationMismatch)
		declType = required
	}

	a.nodeTypes[node] = declType
	scope.declareVariable(&Symbol{Name: name, Kind: VariableSym, Type: declType, DeclNode: node})
}

// typeOfBracketLiteral types exprNode the same way typeOfExpr does, except a
// `[...]` literal with no `:` entries is parsed as ast.ListLiteral (spec §3:
// list vs. set is "determined from the containing type annotation at
// semantic time", not from [...] syntax) — so when the declaration's own
// annotation resolves to Set<T>, the literal is typed as a Set container
// instead of the default List.
func (a *Analyzer) typeOfBracketLiteral(node int, scope *Scope, annotation types.TypeId, hasAnnotation bool) types.TypeId {
	if hasAnnotation && a.store.Read(node).Type == ast.ListLiteral {
		if at := a.typeTable.Get(a.resolve(annotation)); at.Kind == types.KindContainer && at.ContainerName == "Set" {
			t := a.typeOfCollection(node, scope, "Set", false)
			a.nodeTypes[node] = t
			return t
		}
	}
	return a.typeOfExpr(node, scope)
}

// collectFuncDecl implements spec §4.5 Phase 1 for a top-level or
// block-nested function declaration: a fresh FunctionScope binds its
// parameters, its signature is registered in the enclosing scope before the
// body is walked (so direct recursion resolves), and every ReturnStmt
// reached while walking the body constrains against its return type.
func (a *Analyzer) collectFuncDecl(node int, scope *Scope) {
	name := a.textOf(node)
	children := a.store.Children(node)
	paramList := children[0]
	body := children[len(children)-1]
	retNode := ast.NoIndex
	if len(children) == 3 {
		retNode = children[1]
	}

	funcScope := newScope(scope, FunctionScope)
	var paramTypes []types.TypeId
	for _, p := range a.store.Children(paramList) {
		pname := a.textOf(p)
		var pt types.TypeId
		if pchildren := a.store.Children(p); len(pchildren) > 0 {
			pt = a.resolveTypeExprNode(pchildren[0], scope)
		} else {
			pt = a.typeTable.FreshVar()
		}
		paramTypes = append(paramTypes, pt)
		funcScope.declareVariable(&Symbol{Name: pname, Kind: VariableSym, Type: pt, DeclNode: p})
	}

	retType := a.typeTable.FreshVar()
	if retNode != ast.NoIndex {
		retType = a.resolveTypeExprNode(retNode, scope)
	}

	funcType := a.typeTable.NewFunction(paramTypes, retType)
	if !scope.declareUnique(&Symbol{Name: name, Kind: FunctionSym, Type: funcType, DeclNode: node}) {
		a.addDiag(diag.KindDuplicateFunction, node, "duplicate function declaration %q", name)
	}
	a.nodeTypes[node] = funcType

	a.returnTypeStack = append(a.returnTypeStack, retType)
	blockType := a.collectBlock(body, funcScope)
	a.returnTypeStack = a.returnTypeStack[:len(a.returnTypeStack)-1]
	if !bodyEndsInReturn(a.store, body) {
		a.constrain(retType, blockType, body, diag.KindReturnTypeMismatch)
	}
}

// bodyEndsInReturn reports whether block's last statement is a ReturnStmt,
// which already constrains its value against the enclosing returnTypeStack
// entry inside collectBlock — the block's own type (always Unit after a
// ReturnStmt) must not also be constrained against the return type, or
// every explicit `return expr` would spuriously conflict with a non-Unit
// return type.
func bodyEndsInReturn(store *ast.Store, block int) bool {
	children := store.Children(block)
	if len(children) == 0 {
		return false
	}
	return store.Read(children[len(children)-1]).Type == ast.ReturnStmt
}

// collectMethodBody walks a struct method's body, deferred until every
// top-level type declaration has a resolved TypeId, or for a block-nested
// type until that declaration is resolved (pendingMethods, populated by
// resolveStructBody). `this` is bound by giving the body's own
// scope StructScope kind directly, rather than nesting a FunctionScope
// inside a StructScope — a method body has no use for the distinction.
func (a *Analyzer) collectMethodBody(pm pendingMethod) {
	children := a.store.Children(pm.node)
	body := children[len(children)-1]
	if a.store.Read(body).Type != ast.Block {
		return
	}
	methodScope := newStructScope(pm.scope, pm.selfType)
	ct := a.typeTable.Get(pm.funcType)
	params := a.store.Children(children[0])
	for i, p := range params {
		pt := a.typeTable.FreshVar()
		if i < len(ct.Params) {
			pt = ct.Params[i]
		}
		methodScope.declareVariable(&Symbol{Name: a.textOf(p), Kind: VariableSym, Type: pt, DeclNode: p})
	}

	a.returnTypeStack = append(a.returnTypeStack, ct.Return)
	blockType := a.collectBlock(body, methodScope)
	a.returnTypeStack = a.returnTypeStack[:len(a.returnTypeStack)-1]
	if !bodyEndsInReturn(a.store, body) {
		a.constrain(ct.Return, blockType, body, diag.KindReturnTypeMismatch)
	}
}

// collectBlock types a Block node and declares whatever it contains into a
// fresh child scope. Two shapes share the Block/VarDecl encoding (spec §9,
// DESIGN.md "struct literal encoding"): a block whose every statement is an
// unannotated VarDecl is a struct literal (`{ name: "A" age: 30 }`), typed
// as an anonymous Struct over its members; anything else is an ordinary
// statement sequence, typed as its last statement's value (Unit if that
// last statement doesn't produce one, e.g. a ReturnStmt or declaration).
func (a *Analyzer) collectBlock(node int, parent *Scope) types.TypeId {
	scope := newScope(parent, BlockScope)
	children := a.store.Children(node)

	allVarDecl := len(children) > 0
	for _, c := range children {
		if a.store.Read(c).Type != ast.VarDecl || len(a.store.Children(c)) != 1 {
			allVarDecl = false
			break
		}
	}
	if allVarDecl {
		t := a.collectStructLiteral(children, scope)
		a.nodeTypes[node] = t
		return t
	}

	last := a.typeTable.NewUnit("")
	for _, c := range children {
		switch a.store.Read(c).Type {
		case ast.VarDecl:
			a.collectVarDecl(c, scope)
			last = a.typeTable.NewUnit("")
		case ast.FuncDecl:
			a.collectFuncDecl(c, scope)
			last = a.typeTable.NewUnit("")
		case ast.TypeDecl:
			queued := len(a.pendingMethods)
			a.declareTypeName(c, scope)
			a.resolveTypeBody(c, scope)
			for _, pm := range a.pendingMethods[queued:] {
				a.collectMethodBody(pm)
			}
			last = a.typeTable.NewUnit("")
		case ast.ReturnStmt:
			rt := a.typeTable.NewUnit("")
			if rchildren := a.store.Children(c); len(rchildren) > 0 {
				rt = a.typeOfExpr(rchildren[0], scope)
			}
			if n := len(a.returnTypeStack); n > 0 {
				a.constrain(a.returnTypeStack[n-1], rt, c, diag.KindReturnTypeMismatch)
			}
			last = a.typeTable.NewUnit("")
		default:
			last = a.typeOfExpr(c, scope)
		}
	}
	a.nodeTypes[node] = last
	return last
}

// collectStructLiteral types `{ name: value, ... }` as an anonymous Struct
// whose ordered members are the block's VarDecl names, each a Public field
// of its value's inferred type (spec §6 scenario "struct literal").
func (a *Analyzer) collectStructLiteral(children []int, scope *Scope) types.TypeId {
	var fields []types.Member
	for _, c := range children {
		name := a.textOf(c)
		vchildren := a.store.Children(c)
		valNode := vchildren[len(vchildren)-1]
		vt := a.typeOfExpr(valNode, scope)
		a.nodeTypes[c] = vt
		fields = append(fields, types.Member{Name: name, Type: vt, Visibility: types.Public})
	}
	return a.typeTable.NewStruct(fields, nil)
}
