package sem

import (
	"github.com/paul-ciorogar/suru-lang-sub001/internal/ast"
	"github.com/paul-ciorogar/suru-lang-sub001/internal/diag"
	"github.com/paul-ciorogar/suru-lang-sub001/internal/types"
)

// declareTypeName reserves node's TypeId and binds its name in scope,
// before any type in the batch has its body resolved (spec §9).
func (a *Analyzer) declareTypeName(node int, scope *Scope) {
	name := a.textOf(node)
	children := a.store.Children(node)
	if len(children) == 0 {
		return
	}
	body := children[len(children)-1]
	typeParams := children[:len(children)-1]

	kind := types.KindUnit
	switch {
	case len(typeParams) > 0:
		kind = types.KindGeneric
	default:
		switch a.store.Read(body).Type {
		case ast.TypeBodyUnit, ast.TypeBodyAlias:
			kind = types.KindUnit
		case ast.TypeBodyUnion:
			kind = types.KindUnion
		case ast.TypeBodyStruct, ast.TypeBodyIntersection:
			kind = types.KindStruct
		case ast.TypeBodyFunction:
			kind = types.KindFunction
		}
	}

	id := a.typeTable.Reserve(kind)
	if !scope.declareUnique(&Symbol{Name: name, Kind: TypeSym, Type: id, DeclNode: node}) {
		a.addDiag(diag.KindDuplicateType, node, "duplicate type declaration %q", name)
	}
}

// resolveTypeBody fills node's already-reserved TypeId with its real shape,
// now that every sibling type name in the batch is visible in scope.
func (a *Analyzer) resolveTypeBody(node int, scope *Scope) {
	name := a.textOf(node)
	sym, ok := scope.lookupLocal(name)
	if !ok || sym.Kind != TypeSym {
		return // duplicate declaration already diagnosed; nothing to fill
	}
	id := sym.Type

	children := a.store.Children(node)
	body := children[len(children)-1]
	typeParams := children[:len(children)-1]

	if len(typeParams) > 0 {
		var paramIds []types.TypeVarId
		genericScope := newScope(scope, ModuleScope)
		for _, tp := range typeParams {
			v := a.typeTable.FreshVar()
			varId := a.typeTable.Get(v).Var
			paramIds = append(paramIds, varId)
			genericScope.declareVariable(&Symbol{Name: a.textOf(tp), Kind: TypeParamSym, Type: v, DeclNode: tp})
		}
		bodyId := a.resolveTypeBodyShape(body, genericScope)
		a.typeTable.Fill(id, types.Type{Kind: types.KindGeneric, GenericParams: paramIds, GenericBody: bodyId})
		return
	}

	switch a.store.Read(body).Type {
	case ast.TypeBodyUnit:
		a.typeTable.Fill(id, types.Type{Kind: types.KindUnit, UnitName: name})
	case ast.TypeBodyAlias:
		target := a.resolveTypeExprNode(a.store.Children(body)[0], scope)
		a.typeTable.Fill(id, a.typeTable.Get(target))
	case ast.TypeBodyUnion:
		var members []types.TypeId
		for _, m := range a.store.Children(body) {
			members = append(members, a.resolveTypeExprNode(m, scope))
		}
		a.typeTable.Fill(id, types.Type{Kind: types.KindUnion, Members: members})
	case ast.TypeBodyStruct:
		fields, methods := a.resolveStructBody(body, scope, id)
		a.typeTable.Fill(id, types.Type{Kind: types.KindStruct, Fields: fields, Methods: methods})
	case ast.TypeBodyIntersection:
		a.resolveIntersection(node, body, scope, id)
	case ast.TypeBodyFunction:
		params, ret := a.resolveFunctionTypeShape(body, scope)
		a.typeTable.Fill(id, types.Type{Kind: types.KindFunction, Params: params, Return: ret})
	}
}

// resolveTypeBodyShape is like resolveTypeBody but returns a freshly
// interned TypeId instead of filling a reservation — used for a generic
// declaration's body, which is referenced only through its enclosing
// Generic wrapper, never self-referentially.
func (a *Analyzer) resolveTypeBodyShape(body int, scope *Scope) types.TypeId {
	switch a.store.Read(body).Type {
	case ast.TypeBodyUnit:
		return a.typeTable.NewUnit("")
	case ast.TypeBodyAlias:
		return a.resolveTypeExprNode(a.store.Children(body)[0], scope)
	case ast.TypeBodyUnion:
		var members []types.TypeId
		for _, m := range a.store.Children(body) {
			members = append(members, a.resolveTypeExprNode(m, scope))
		}
		return a.typeTable.NewUnion(members)
	case ast.TypeBodyStruct:
		id := a.typeTable.Reserve(types.KindStruct)
		fields, methods := a.resolveStructBody(body, scope, id)
		a.typeTable.Fill(id, types.Type{Kind: types.KindStruct, Fields: fields, Methods: methods})
		return id
	case ast.TypeBodyFunction:
		params, ret := a.resolveFunctionTypeShape(body, scope)
		return a.typeTable.NewFunction(params, ret)
	}
	return a.typeTable.NewUnit("")
}

func (a *Analyzer) resolveFunctionTypeShape(body int, scope *Scope) ([]types.TypeId, types.TypeId) {
	children := a.store.Children(body)
	if len(children) == 0 {
		return nil, a.typeTable.NewUnit("")
	}
	// FlagHasReturn (set by internal/parser) is what distinguishes the last
	// child being a return type from it being just another param — both are
	// parsed as plain TypeExpr nodes, so node shape alone can't tell them apart.
	params := children
	ret := a.typeTable.NewUnit("")
	if a.store.Read(body).Flags&ast.FlagHasReturn != 0 {
		params = children[:len(children)-1]
		ret = a.resolveTypeExprNode(children[len(children)-1], scope)
	}
	var paramIds []types.TypeId
	for _, p := range params {
		paramIds = append(paramIds, a.resolveTypeExprNode(p, scope))
	}
	return paramIds, ret
}

func (a *Analyzer) resolveIntersection(declNode, body int, scope *Scope, id types.TypeId) {
	children := a.store.Children(body)
	if len(children) != 2 {
		a.addDiag(diag.KindIncompatibleIntersectionOperands, declNode, "intersection requires exactly two type operands")
		a.typeTable.Fill(id, types.Type{Kind: types.KindStruct})
		return
	}
	left := a.resolveTypeExprNode(children[0], scope)
	right := a.resolveTypeExprNode(children[1], scope)
	lt := a.typeTable.Get(a.resolve(left))
	rt := a.typeTable.Get(a.resolve(right))
	if lt.Kind != types.KindStruct || rt.Kind != types.KindStruct {
		a.addDiag(diag.KindIncompatibleIntersectionOperands, declNode, "intersection is only defined over two struct types")
		a.typeTable.Fill(id, types.Type{Kind: types.KindStruct})
		return
	}
	fields, ok := mergeMembers(lt.Fields, rt.Fields)
	if !ok {
		a.addDiag(diag.KindIncompatibleIntersectionOperands, declNode, "conflicting field in intersection: same name, incompatible type or visibility")
	}
	methods, ok := mergeMembers(lt.Methods, rt.Methods)
	if !ok {
		a.addDiag(diag.KindIncompatibleIntersectionOperands, declNode, "conflicting method in intersection: same name, incompatible type or visibility")
	}
	a.typeTable.Fill(id, types.Type{Kind: types.KindStruct, Fields: fields, Methods: methods})
}

// mergeMembers unions two ordered member sets by name; a name present in
// both must agree on (type, visibility) exactly, or the merge fails.
func mergeMembers(a, b []types.Member) ([]types.Member, bool) {
	out := append([]types.Member(nil), a...)
	index := make(map[string]int, len(a))
	for i, m := range a {
		index[m.Name] = i
	}
	ok := true
	for _, m := range b {
		if i, exists := index[m.Name]; exists {
			if out[i].Type != m.Type || out[i].Visibility != m.Visibility {
				ok = false
			}
			continue
		}
		index[m.Name] = len(out)
		out = append(out, m)
	}
	return out, ok
}

func (a *Analyzer) resolveStructBody(body int, scope *Scope, selfType types.TypeId) ([]types.Member, []types.Member) {
	var fields, methods []types.Member
	for _, m := range a.store.Children(body) {
		n := a.store.Read(m)
		name := a.textOf(m)
		vis := types.Public
		if n.Flags&ast.FlagPrivate != 0 {
			vis = types.Private
		}
		switch n.Type {
		case ast.StructField:
			typeId := a.resolveTypeExprNode(a.store.Children(m)[0], scope)
			fields = append(fields, types.Member{Name: name, Type: typeId, Visibility: vis})
		case ast.StructMethod:
			typeId := a.resolveMethodSignature(m, scope, selfType)
			methods = append(methods, types.Member{Name: name, Type: typeId, Visibility: vis})
			if children := a.store.Children(m); len(children) > 0 && a.store.Read(children[len(children)-1]).Type == ast.Block {
				a.pendingMethods = append(a.pendingMethods, pendingMethod{node: m, scope: scope, selfType: selfType, funcType: typeId})
			}
		}
	}
	return fields, methods
}

// resolveMethodSignature resolves a StructMethod node's (params, return)
// shape, ignoring its body child if present (Block, always last when a
// return type is also present) — bodies are walked by collectFuncDecl-style
// traversal once the enclosing struct's methods are all registered.
func (a *Analyzer) resolveMethodSignature(methodNode int, scope *Scope, selfType types.TypeId) types.TypeId {
	children := a.store.Children(methodNode)
	paramList := children[0]
	var params []types.TypeId
	for _, p := range a.store.Children(paramList) {
		if pt := a.store.Children(p); len(pt) > 0 {
			params = append(params, a.resolveTypeExprNode(pt[0], scope))
		} else {
			params = append(params, a.typeTable.FreshVar())
		}
	}
	ret := a.typeTable.NewUnit("")
	for _, c := range children[1:] {
		if a.store.Read(c).Type != ast.Block {
			ret = a.resolveTypeExprNode(c, scope)
		}
	}
	return a.typeTable.NewFunction(params, ret)
}

// resolveTypeExprNode converts a TypeExpr/TypeBodyFunction AST node into a
// TypeId: an identifier looks up a builtin, a container constructor, or a
// declared type by name; '<' generic args instantiate a container; a
// parenthesized shape is a function type.
func (a *Analyzer) resolveTypeExprNode(node int, scope *Scope) types.TypeId {
	n := a.store.Read(node)
	if n.Type == ast.TypeBodyFunction {
		params, ret := a.resolveFunctionTypeShape(node, scope)
		return a.typeTable.NewFunction(params, ret)
	}

	name := a.textOf(node)
	args := a.store.Children(node)

	if bk, ok := builtinByName(name); ok {
		return a.typeTable.Builtins[bk]
	}
	if _, ok := a.typeTable.Containers[name]; ok {
		var argIds []types.TypeId
		for _, arg := range args {
			argIds = append(argIds, a.resolveTypeExprNode(arg, scope))
		}
		return a.typeTable.NewContainer(name, argIds)
	}
	if sym, ok := scope.lookup(name); ok && (sym.Kind == TypeSym || sym.Kind == TypeParamSym) {
		return sym.Type
	}
	a.addDiag(diag.KindUndefinedIdentifier, node, "undefined type %q", name)
	return a.typeTable.FreshVar()
}

func builtinByName(name string) (types.BuiltinKind, bool) {
	switch name {
	case "Number":
		return types.Number, true
	case "String":
		return types.StringB, true
	case "Bool":
		return types.Bool, true
	case "Int8":
		return types.Int8, true
	case "Int16":
		return types.Int16, true
	case "Int32":
		return types.Int32, true
	case "Int64":
		return types.Int64, true
	case "UInt8":
		return types.UInt8, true
	case "UInt16":
		return types.UInt16, true
	case "UInt32":
		return types.UInt32, true
	case "UInt64":
		return types.UInt64, true
	case "Float32":
		return types.Float32, true
	case "Float64":
		return types.Float64, true
	}
	return 0, false
}
