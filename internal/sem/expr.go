package sem

import (
	"github.com/paul-ciorogar/suru-lang-sub001/internal/ast"
	"github.com/paul-ciorogar/suru-lang-sub001/internal/diag"
	"github.com/paul-ciorogar/suru-lang-sub001/internal/token"
	"github.com/paul-ciorogar/suru-lang-sub001/internal/types"
)

// typeOfExpr is spec §4.5 Phase 1's expression walk: every expression node
// gets a TypeId (fresh where still unknown) and emits the constraints that
// pin it down, recorded in a.nodeTypes for Phase 3 to resolve.
func (a *Analyzer) typeOfExpr(node int, scope *Scope) types.TypeId {
	n := a.store.Read(node)
	var t types.TypeId

	switch n.Type {
	case ast.Identifier:
		t = a.typeOfIdentifier(node, scope)
	case ast.NumberLiteral:
		t = a.typeOfNumberLiteral(node)
	case ast.StringLiteral:
		t = a.typeTable.Builtins[types.StringB]
	case ast.BooleanLiteral:
		t = a.typeTable.Builtins[types.Bool]
	case ast.BinaryOp:
		t = a.typeOfBinaryOp(node, scope)
	case ast.UnaryOp:
		t = a.typeOfUnaryOp(node, scope)
	case ast.Call:
		t = a.typeOfCall(node, scope)
	case ast.MethodCall:
		t = a.typeOfMethodCall(node, scope)
	case ast.PropertyAccess:
		t = a.typeOfPropertyAccess(node, scope)
	case ast.Match:
		t = a.typeOfMatch(node, scope)
	case ast.PipeExpr:
		t = a.typeOfPipe(node, scope)
	case ast.TryExpr:
		t = a.typeOfTry(node, scope)
	case ast.PartialApplication:
		t = a.typeOfExpr(a.store.Children(node)[0], scope)
	case ast.ListLiteral:
		t = a.typeOfCollection(node, scope, "List", false)
	case ast.SetLiteral:
		t = a.typeOfCollection(node, scope, "Set", false)
	case ast.DictLiteral:
		t = a.typeOfCollection(node, scope, "Map", true)
	case ast.Block:
		t = a.collectBlock(node, scope)
		return t // collectBlock already records nodeTypes[node]
	default:
		t = a.typeTable.FreshVar()
	}

	a.nodeTypes[node] = t
	return t
}

func (a *Analyzer) typeOfIdentifier(node int, scope *Scope) types.TypeId {
	name := a.textOf(node)
	if name == "this" {
		if st, ok := scope.enclosingStruct(); ok {
			return st
		}
		a.addDiag(diag.KindThisOutsideMethod, node, "'this' used outside a method body")
		a.undefinedNodes[node] = true
		return a.typeTable.FreshVar()
	}
	sym, ok := scope.lookup(name)
	if !ok {
		a.addDiag(diag.KindUndefinedIdentifier, node, "undefined identifier %q", name)
		a.undefinedNodes[node] = true
		return a.typeTable.FreshVar()
	}
	return sym.Type
}

func (a *Analyzer) typeOfNumberLiteral(node int) types.TypeId {
	tok := a.tokenOf(node)
	switch tok.Suffix {
	case token.SuffixI8:
		return a.typeTable.Builtins[types.Int8]
	case token.SuffixI16:
		return a.typeTable.Builtins[types.Int16]
	case token.SuffixI32:
		return a.typeTable.Builtins[types.Int32]
	case token.SuffixI64:
		return a.typeTable.Builtins[types.Int64]
	case token.SuffixU8:
		return a.typeTable.Builtins[types.UInt8]
	case token.SuffixU16:
		return a.typeTable.Builtins[types.UInt16]
	case token.SuffixU32:
		return a.typeTable.Builtins[types.UInt32]
	case token.SuffixU64:
		return a.typeTable.Builtins[types.UInt64]
	case token.SuffixF32:
		return a.typeTable.Builtins[types.Float32]
	case token.SuffixF64:
		return a.typeTable.Builtins[types.Float64]
	}
	// No suffix: stays a free Var until Phase 3, where it defaults to
	// Number unless some other constraint pinned it down first (spec §9).
	v := a.typeTable.FreshVar()
	a.numericVars[v] = true
	return v
}

func (a *Analyzer) typeOfBinaryOp(node int, scope *Scope) types.TypeId {
	children := a.store.Children(node)
	lt := a.typeOfExpr(children[0], scope)
	rt := a.typeOfExpr(children[1], scope)
	boolT := a.typeTable.Builtins[types.Bool]
	a.constrain(lt, boolT, children[0], diag.KindNonBooleanOperand)
	a.constrain(rt, boolT, children[1], diag.KindNonBooleanOperand)
	return boolT
}

func (a *Analyzer) typeOfUnaryOp(node int, scope *Scope) types.TypeId {
	operand := a.store.Children(node)[0]
	opTok := a.tokenOf(node)
	operandType := a.typeOfExpr(operand, scope)
	if opTok.Kind == token.KeywordNot {
		boolT := a.typeTable.Builtins[types.Bool]
		a.constrain(operandType, boolT, operand, diag.KindNonBooleanOperand)
		return boolT
	}
	// Minus: deferred to Phase 3 (operand may still be an unconstrained Var).
	a.unaryMinusChecks = append(a.unaryMinusChecks, unaryMinusCheck{node: node, operandType: operandType})
	return operandType
}

func (a *Analyzer) typeOfCall(node int, scope *Scope) types.TypeId {
	children := a.store.Children(node)
	callee, argNodes := children[0], children[1:]
	calleeType := a.typeOfExpr(callee, scope)

	var argTypes []types.TypeId
	for _, an := range argNodes {
		argTypes = append(argTypes, a.typeOfExpr(an, scope))
	}

	ct := a.typeTable.Get(calleeType)
	if ct.Kind == types.KindFunction {
		if len(ct.Params) != len(argTypes) {
			a.addDiag(diag.KindArityMismatch, node, "call expects %d argument(s), got %d", len(ct.Params), len(argTypes))
			return ct.Return
		}
		for i, at := range argTypes {
			a.constrain(ct.Params[i], at, argNodes[i], diag.KindArgumentTypeMismatch)
		}
		return ct.Return
	}

	// Callee type isn't known to be a Function yet (still a Var): synthesize
	// one and let unify() settle param/return shape once it resolves.
	ret := a.typeTable.FreshVar()
	synth := a.typeTable.NewFunction(argTypes, ret)
	a.constrain(calleeType, synth, node, diag.KindArgumentTypeMismatch)
	return ret
}

func (a *Analyzer) typeOfMethodCall(node int, scope *Scope) types.TypeId {
	children := a.store.Children(node)
	recv, argNodes := children[0], children[1:]
	name := a.textOf(node)
	recvType := a.typeOfExpr(recv, scope)

	st := a.typeTable.Get(a.resolve(recvType))
	if st.Kind != types.KindStruct {
		a.addDiag(diag.KindUndefinedIdentifier, node, "method %q called on a non-struct value", name)
		a.undefinedNodes[node] = true
		return a.typeTable.FreshVar()
	}
	member, ok := findMember(st.Methods, name)
	if !ok {
		a.addDiag(diag.KindUndefinedIdentifier, node, "undefined method %q", name)
		a.undefinedNodes[node] = true
		return a.typeTable.FreshVar()
	}
	a.checkPrivacy(member, recvType, scope, node, name)

	fn := a.typeTable.Get(member.Type)
	var argTypes []types.TypeId
	for _, an := range argNodes {
		argTypes = append(argTypes, a.typeOfExpr(an, scope))
	}
	if len(fn.Params) != len(argTypes) {
		a.addDiag(diag.KindArityMismatch, node, "method %q expects %d argument(s), got %d", name, len(fn.Params), len(argTypes))
		return fn.Return
	}
	for i, at := range argTypes {
		a.constrain(fn.Params[i], at, argNodes[i], diag.KindArgumentTypeMismatch)
	}
	return fn.Return
}

func (a *Analyzer) typeOfPropertyAccess(node int, scope *Scope) types.TypeId {
	recv := a.store.Children(node)[0]
	name := a.textOf(node)
	recvType := a.typeOfExpr(recv, scope)

	st := a.typeTable.Get(a.resolve(recvType))
	if st.Kind != types.KindStruct {
		a.addDiag(diag.KindUndefinedIdentifier, node, "property %q accessed on a non-struct value", name)
		a.undefinedNodes[node] = true
		return a.typeTable.FreshVar()
	}
	member, ok := findMember(st.Fields, name)
	if !ok {
		member, ok = findMember(st.Methods, name)
	}
	if !ok {
		a.addDiag(diag.KindUndefinedIdentifier, node, "undefined property %q", name)
		a.undefinedNodes[node] = true
		return a.typeTable.FreshVar()
	}
	a.checkPrivacy(member, recvType, scope, node, name)
	return member.Type
}

func (a *Analyzer) checkPrivacy(member types.Member, recvType types.TypeId, scope *Scope, node int, name string) {
	if member.Visibility != types.Private {
		return
	}
	if st, ok := scope.enclosingStruct(); ok && st == a.resolve(recvType) {
		return
	}
	a.addDiag(diag.KindPrivacyViolation, node, "%q is private", name)
}

func findMember(members []types.Member, name string) (types.Member, bool) {
	for _, m := range members {
		if m.Name == name {
			return m, true
		}
	}
	return types.Member{}, false
}

func (a *Analyzer) typeOfMatch(node int, scope *Scope) types.TypeId {
	children := a.store.Children(node)
	scrutinee, arms := children[0], children[1:]
	st := a.typeOfExpr(scrutinee, scope)

	if len(arms) == 0 {
		return a.typeTable.NewUnit("")
	}
	var result types.TypeId
	for i, arm := range arms {
		armChildren := a.store.Children(arm)
		armScope := newScope(scope, BlockScope)
		a.bindPattern(armChildren[0], st, armScope)
		bt := a.typeOfExpr(armChildren[1], armScope)
		a.nodeTypes[arm] = bt
		if i == 0 {
			result = bt
		} else {
			a.constrain(result, bt, arm, diag.KindAnnotationMismatch)
		}
	}
	return result
}

// bindPattern implements spec §4.4's pattern forms: a bare identifier binds
// the scrutinee by name; `Tag(subpatterns...)` recursively binds each
// subpattern against a fresh variable (constructor field types aren't
// tracked structurally, so subpatterns unify independently); a literal
// pattern constrains the scrutinee to equal the literal's type.
func (a *Analyzer) bindPattern(pattern int, scrutineeType types.TypeId, scope *Scope) {
	children := a.store.Children(pattern)
	if len(children) == 0 {
		return
	}
	head := children[0]
	if a.store.Read(head).Type != ast.Identifier {
		litType := a.typeOfExpr(head, scope)
		a.constrain(scrutineeType, litType, pattern, diag.KindArgumentTypeMismatch)
		return
	}
	name := a.textOf(head)
	for _, sub := range children[1:] {
		a.bindPattern(sub, a.typeTable.FreshVar(), scope)
	}
	scope.declareVariable(&Symbol{Name: name, Kind: VariableSym, Type: scrutineeType, DeclNode: head})
}

func (a *Analyzer) typeOfPipe(node int, scope *Scope) types.TypeId {
	children := a.store.Children(node)
	left, right := children[0], children[1]
	lt := a.typeOfExpr(left, scope)
	rt := a.typeOfExpr(right, scope)

	rf := a.typeTable.Get(a.resolve(rt))
	if rf.Kind == types.KindFunction && len(rf.Params) >= 1 {
		a.constrain(rf.Params[0], lt, node, diag.KindArgumentTypeMismatch)
		return rf.Return
	}
	ret := a.typeTable.FreshVar()
	synth := a.typeTable.NewFunction([]types.TypeId{lt}, ret)
	a.constrain(rt, synth, node, diag.KindArgumentTypeMismatch)
	return ret
}

func (a *Analyzer) typeOfTry(node int, scope *Scope) types.TypeId {
	inner := a.store.Children(node)[0]
	it := a.typeOfExpr(inner, scope)
	rt := a.typeTable.Get(a.resolve(it))
	if rt.Kind == types.KindContainer && rt.ContainerName == "Result" && len(rt.ContainerArgs) == 2 {
		return rt.ContainerArgs[0]
	}
	okT := a.typeTable.FreshVar()
	errT := a.typeTable.FreshVar()
	synth := a.typeTable.NewContainer("Result", []types.TypeId{okT, errT})
	a.constrain(it, synth, node, diag.KindArgumentTypeMismatch)
	return okT
}

func (a *Analyzer) typeOfCollection(node int, scope *Scope, containerName string, isDict bool) types.TypeId {
	children := a.store.Children(node)
	if len(children) == 0 {
		if isDict {
			return a.typeTable.NewContainer(containerName, []types.TypeId{a.typeTable.FreshVar(), a.typeTable.FreshVar()})
		}
		return a.typeTable.NewContainer(containerName, []types.TypeId{a.typeTable.FreshVar()})
	}

	if isDict {
		firstEntry := a.store.Children(children[0])
		keyType := a.typeOfExpr(firstEntry[0], scope)
		valType := a.typeOfExpr(firstEntry[1], scope)
		for _, c := range children[1:] {
			entry := a.store.Children(c)
			kt := a.typeOfExpr(entry[0], scope)
			vt := a.typeOfExpr(entry[1], scope)
			a.constrain(keyType, kt, entry[0], diag.KindArgumentTypeMismatch)
			a.constrain(valType, vt, entry[1], diag.KindArgumentTypeMismatch)
		}
		return a.typeTable.NewContainer(containerName, []types.TypeId{keyType, valType})
	}

	elemType := a.typeOfExpr(children[0], scope)
	for _, c := range children[1:] {
		ct := a.typeOfExpr(c, scope)
		a.constrain(elemType, ct, c, diag.KindArgumentTypeMismatch)
	}
	return a.typeTable.NewContainer(containerName, []types.TypeId{elemType})
}
