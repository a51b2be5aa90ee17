package sem

import (
	"github.com/paul-ciorogar/suru-lang-sub001/internal/diag"
	"github.com/paul-ciorogar/suru-lang-sub001/internal/types"
)

// unify solves the accumulated constraint list with Robinson unification
// and an occurs check (spec §4.5 Phase 2), processed as a worklist so a
// structural constraint (Function, Container) can push derived
// sub-constraints rather than recursing over a possibly-unresolved Var.
// Struct constraints push nothing: they are decided in place by identity or,
// when directional, by structural containment.
func (a *Analyzer) unify() {
	queue := append([]Constraint(nil), a.constraints...)
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		queue = append(queue, a.unifyOne(c)...)
	}
}

func (a *Analyzer) unifyOne(c Constraint) []Constraint {
	ra := a.resolve(c.A)
	rb := a.resolve(c.B)
	if ra == rb {
		return nil
	}
	ta := a.typeTable.Get(ra)
	tb := a.typeTable.Get(rb)

	switch {
	case ta.Kind == types.KindVar && tb.Kind == types.KindVar:
		a.bind(ta.Var, rb)
		return nil
	case ta.Kind == types.KindVar:
		if a.occurs(ta.Var, rb) {
			a.addDiag(diag.KindOccursCheckFailure, c.Origin, "type variable occurs within its own solution")
			return nil
		}
		if a.numericVars[ra] && tb.Kind == types.KindBuiltin && !tb.Builtin.IsNumeric() {
			a.addDiag(c.ReportKind, c.Origin, "type mismatch: numeric literal vs %s", tb.Builtin)
		}
		a.bind(ta.Var, rb)
		return nil
	case tb.Kind == types.KindVar:
		if a.occurs(tb.Var, ra) {
			a.addDiag(diag.KindOccursCheckFailure, c.Origin, "type variable occurs within its own solution")
			return nil
		}
		if a.numericVars[rb] && ta.Kind == types.KindBuiltin && !ta.Builtin.IsNumeric() {
			a.addDiag(c.ReportKind, c.Origin, "type mismatch: %s vs numeric literal", ta.Builtin)
		}
		a.bind(tb.Var, ra)
		return nil

	case ta.Kind == types.KindBuiltin && tb.Kind == types.KindBuiltin:
		if ta.Builtin != tb.Builtin {
			a.addDiag(c.ReportKind, c.Origin, "type mismatch: %s vs %s", ta.Builtin, tb.Builtin)
		}
		return nil

	case ta.Kind == types.KindFunction && tb.Kind == types.KindFunction:
		if len(ta.Params) != len(tb.Params) {
			a.addDiag(diag.KindArityMismatch, c.Origin, "function arity mismatch: %d vs %d", len(ta.Params), len(tb.Params))
			return nil
		}
		out := make([]Constraint, 0, len(ta.Params)+1)
		for i := range ta.Params {
			out = append(out, Constraint{A: ta.Params[i], B: tb.Params[i], Origin: c.Origin, ReportKind: diag.KindArgumentTypeMismatch})
		}
		out = append(out, Constraint{A: ta.Return, B: tb.Return, Origin: c.Origin, ReportKind: diag.KindReturnTypeMismatch})
		return out

	case ta.Kind == types.KindStruct && tb.Kind == types.KindStruct:
		if c.Directional {
			if !a.structContains(ra, rb) {
				a.addDiag(c.ReportKind, c.Origin, "value does not structurally satisfy the required struct type")
			}
			return nil
		}
		a.addDiag(c.ReportKind, c.Origin, "incompatible struct types")
		return nil

	case ta.Kind == types.KindUnion && tb.Kind == types.KindUnion:
		if !a.unionsCompatible(ta.Members, tb.Members) {
			a.addDiag(c.ReportKind, c.Origin, "incompatible union types")
		}
		return nil
	case ta.Kind == types.KindUnion:
		if !a.memberOfUnion(rb, ta.Members) {
			a.addDiag(diag.KindNoMatchingUnionAlternative, c.Origin, "value's type does not match any union alternative")
		}
		return nil
	case tb.Kind == types.KindUnion:
		if !a.memberOfUnion(ra, tb.Members) {
			a.addDiag(diag.KindNoMatchingUnionAlternative, c.Origin, "value's type does not match any union alternative")
		}
		return nil

	case ta.Kind == types.KindContainer && tb.Kind == types.KindContainer:
		if ta.ContainerName != tb.ContainerName || len(ta.ContainerArgs) != len(tb.ContainerArgs) {
			a.addDiag(c.ReportKind, c.Origin, "incompatible container types %s vs %s", ta.ContainerName, tb.ContainerName)
			return nil
		}
		out := make([]Constraint, 0, len(ta.ContainerArgs))
		for i := range ta.ContainerArgs {
			out = append(out, Constraint{A: ta.ContainerArgs[i], B: tb.ContainerArgs[i], Origin: c.Origin, ReportKind: c.ReportKind})
		}
		return out

	case ta.Kind == types.KindUnit && tb.Kind == types.KindUnit:
		if ta.UnitName != tb.UnitName {
			a.addDiag(c.ReportKind, c.Origin, "incompatible types %s vs %s", ta.UnitName, tb.UnitName)
		}
		return nil

	default:
		a.addDiag(c.ReportKind, c.Origin, "incompatible types %s vs %s", ta.String(), tb.String())
		return nil
	}
}

// resolve follows a Var's substitution chain to its current representative.
func (a *Analyzer) resolve(id types.TypeId) types.TypeId {
	seen := make(map[types.TypeId]bool)
	for {
		t := a.typeTable.Get(id)
		if t.Kind != types.KindVar {
			return id
		}
		next, ok := a.subst[t.Var]
		if !ok || seen[id] {
			return id
		}
		seen[id] = true
		id = next
	}
}

func (a *Analyzer) bind(v types.TypeVarId, id types.TypeId) {
	a.subst[v] = id
}

// occurs implements the occurs check: does v appear anywhere within id's
// resolved structure.
func (a *Analyzer) occurs(v types.TypeVarId, id types.TypeId) bool {
	r := a.resolve(id)
	t := a.typeTable.Get(r)
	switch t.Kind {
	case types.KindVar:
		return t.Var == v
	case types.KindFunction:
		for _, p := range t.Params {
			if a.occurs(v, p) {
				return true
			}
		}
		return a.occurs(v, t.Return)
	case types.KindStruct:
		for _, f := range t.Fields {
			if a.occurs(v, f.Type) {
				return true
			}
		}
		for _, m := range t.Methods {
			if a.occurs(v, m.Type) {
				return true
			}
		}
		return false
	case types.KindUnion, types.KindIntersection:
		for _, m := range t.Members {
			if a.occurs(v, m) {
				return true
			}
		}
		return false
	case types.KindContainer:
		for _, arg := range t.ContainerArgs {
			if a.occurs(v, arg) {
				return true
			}
		}
		return false
	case types.KindGeneric:
		return a.occurs(v, t.GenericBody)
	}
	return false
}

// typesCompatible is a non-mutating structural compatibility check used by
// union membership and struct containment: any still-free Var is treated
// as compatible with anything (its binding is what unify(), not this
// helper, decides).
func (a *Analyzer) typesCompatible(x, y types.TypeId) bool {
	rx := a.resolve(x)
	ry := a.resolve(y)
	if rx == ry {
		return true
	}
	tx := a.typeTable.Get(rx)
	ty := a.typeTable.Get(ry)
	if tx.Kind == types.KindVar || ty.Kind == types.KindVar {
		return true
	}
	if tx.Kind != ty.Kind {
		return false
	}
	switch tx.Kind {
	case types.KindBuiltin:
		return tx.Builtin == ty.Builtin
	case types.KindUnit:
		return tx.UnitName == ty.UnitName
	case types.KindFunction:
		if len(tx.Params) != len(ty.Params) {
			return false
		}
		for i := range tx.Params {
			if !a.typesCompatible(tx.Params[i], ty.Params[i]) {
				return false
			}
		}
		return a.typesCompatible(tx.Return, ty.Return)
	case types.KindStruct:
		return a.structContains(rx, ry)
	case types.KindUnion:
		return a.unionsCompatible(tx.Members, ty.Members)
	case types.KindContainer:
		if tx.ContainerName != ty.ContainerName || len(tx.ContainerArgs) != len(ty.ContainerArgs) {
			return false
		}
		for i := range tx.ContainerArgs {
			if !a.typesCompatible(tx.ContainerArgs[i], ty.ContainerArgs[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func (a *Analyzer) memberOfUnion(id types.TypeId, members []types.TypeId) bool {
	for _, m := range members {
		if a.typesCompatible(id, m) {
			return true
		}
	}
	return false
}

func (a *Analyzer) unionsCompatible(xs, ys []types.TypeId) bool {
	if len(xs) != len(ys) {
		return false
	}
	for _, x := range xs {
		if !a.memberOfUnion(x, ys) {
			return false
		}
	}
	return true
}

// structContains implements spec §4.5's structural-subtyping rule: a value
// of struct `provided` satisfies required struct `required` iff every
// (name, type, visibility) of required has a compatible counterpart in
// provided. Extra members on provided are allowed.
func (a *Analyzer) structContains(required, provided types.TypeId) bool {
	req := a.typeTable.Get(required)
	prov := a.typeTable.Get(provided)
	for _, rf := range req.Fields {
		if !a.structHasField(prov.Fields, rf) {
			return false
		}
	}
	for _, rm := range req.Methods {
		if !a.structHasField(prov.Methods, rm) {
			return false
		}
	}
	return true
}

func (a *Analyzer) structHasField(members []types.Member, want types.Member) bool {
	for _, m := range members {
		if m.Name == want.Name && m.Visibility == want.Visibility && a.typesCompatible(want.Type, m.Type) {
			return true
		}
	}
	return false
}
