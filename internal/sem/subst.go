package sem

import (
	"sort"

	"github.com/paul-ciorogar/suru-lang-sub001/internal/diag"
	"github.com/paul-ciorogar/suru-lang-sub001/internal/types"
)

// substituteAll is Phase 3 (spec §4.5): default still-free numeric
// literals to Number, validate the deferred unary-minus operand checks,
// then resolve every recorded node type through the final substitution.
// Only a node's top-level type is resolved: a variable nested inside a
// container, function or struct type (e.g. the T of a List<T> literal) is
// not rewritten in the entry.
func (a *Analyzer) substituteAll() {
	for id := range a.numericVars {
		r := a.resolve(id)
		if t := a.typeTable.Get(r); t.Kind == types.KindVar {
			a.bind(t.Var, a.typeTable.Builtins[types.Number])
		}
	}

	for _, c := range a.unaryMinusChecks {
		r := a.resolve(c.operandType)
		t := a.typeTable.Get(r)
		if t.Kind == types.KindVar {
			a.bind(t.Var, a.typeTable.Builtins[types.Number])
			r = a.typeTable.Builtins[types.Number]
			t = a.typeTable.Get(r)
		}
		if t.Kind == types.KindBuiltin && !t.Builtin.IsNumeric() {
			a.addDiag(diag.KindArgumentTypeMismatch, c.node, "unary '-' requires a numeric operand, got %s", t.Builtin)
		}
	}

	// a.nodeTypes is a map, so its iteration order is randomized per run;
	// walk it in source-position order (falling back to node index, which
	// is creation-ordered and so source-ordered too, for nodes that share
	// a span) before emitting diagnostics, so the diagnostic list stays
	// ordered by source position (spec) and stable run to run.
	nodes := make([]int, 0, len(a.nodeTypes))
	for node := range a.nodeTypes {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool {
		si, sj := a.spanOf(nodes[i]), a.spanOf(nodes[j])
		if si.Line != sj.Line {
			return si.Line < sj.Line
		}
		if si.Column != sj.Column {
			return si.Column < sj.Column
		}
		return nodes[i] < nodes[j]
	})

	for _, node := range nodes {
		resolved := a.resolve(a.nodeTypes[node])
		if a.typeTable.Get(resolved).Kind == types.KindVar && !a.undefinedNodes[node] {
			a.addDiag(diag.KindUnresolvedTypeVariable, node, "could not fully infer a type for this expression")
		}
		a.nodeTypes[node] = resolved
	}
}
