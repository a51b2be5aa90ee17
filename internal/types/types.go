// Package types implements the interned Hindley-Milner-ish type system of
// spec §3: a tagged Type variant, hash-consed into a Table so structurally
// identical types share one TypeId. Generalized from the teacher's
// lang/yparse/types.go (a tagged Type struct with String() stringers and
// New*Type constructors) onto the richer variant set spec.md §3 names —
// the teacher's fixed C-like lattice (uint8/int16/block32/...) becomes one
// branch (Builtin) among several (Struct, Union, Intersection, Function,
// Generic, Var).
package types

import (
	"fmt"
	"sort"
	"strings"
)

// TypeId identifies an interned Type.
type TypeId int

// Invalid is the zero TypeId, never produced by Intern.
const Invalid TypeId = 0

// TypeVarId identifies a unification variable.
type TypeVarId int

// Kind is the tagged variant of a Type.
type Kind int

const (
	KindUnit Kind = iota
	KindBuiltin
	KindStruct
	KindUnion
	KindIntersection
	KindFunction
	KindGeneric
	KindVar
	KindContainer // the standard-library type constructors: List<T>, Set<T>, Map<K,V>, Option<T>, Result<T,E>, Pair<K,V>
)

// BuiltinKind enumerates the scalar built-in types (spec §4.5).
type BuiltinKind int

const (
	Number BuiltinKind = iota
	StringB
	Bool
	Int8
	Int16
	Int32
	Int64
	UInt8
	UInt16
	UInt32
	UInt64
	Float32
	Float64
)

var builtinNames = map[BuiltinKind]string{
	Number: "Number", StringB: "String", Bool: "Bool",
	Int8: "Int8", Int16: "Int16", Int32: "Int32", Int64: "Int64",
	UInt8: "UInt8", UInt16: "UInt16", UInt32: "UInt32", UInt64: "UInt64",
	Float32: "Float32", Float64: "Float64",
}

func (b BuiltinKind) String() string { return builtinNames[b] }

// IsNumeric reports whether b belongs to the numeric built-in set that
// unary-minus operands and unsuffixed numeric literals must resolve to.
func (b BuiltinKind) IsNumeric() bool {
	switch b {
	case Number, Int8, Int16, Int32, Int64, UInt8, UInt16, UInt32, UInt64, Float32, Float64:
		return true
	}
	return false
}

// Visibility is a struct field/method's visibility.
type Visibility int

const (
	Public Visibility = iota
	Private
)

// Member is one entry of a Struct's field or method set, ordered by
// insertion (spec §3 "ordered map name -> (TypeId, visibility)").
type Member struct {
	Name       string
	Type       TypeId
	Visibility Visibility
}

// GenericConstraint binds a generic type parameter to a required type.
type GenericConstraint struct {
	Param TypeVarId
	Bound TypeId
}

// Type is the tagged variant of spec §3.
type Type struct {
	Kind Kind

	// KindUnit
	UnitName string

	// KindBuiltin
	Builtin BuiltinKind

	// KindStruct
	Fields  []Member
	Methods []Member

	// KindUnion / KindIntersection
	Members []TypeId

	// KindFunction
	Params []TypeId
	Return TypeId

	// KindGeneric
	GenericParams      []TypeVarId
	GenericConstraints []GenericConstraint
	GenericBody        TypeId

	// KindVar
	Var TypeVarId

	// KindContainer
	ContainerName string
	ContainerArgs []TypeId
}

// key returns a canonical string uniquely identifying t's *shape*, given
// that any TypeId it references is already interned (so nested structure
// collapses to an integer id, not a recursive string walk).
func (t Type) key() string {
	var b strings.Builder
	switch t.Kind {
	case KindUnit:
		fmt.Fprintf(&b, "unit:%s", t.UnitName)
	case KindBuiltin:
		fmt.Fprintf(&b, "builtin:%d", t.Builtin)
	case KindStruct:
		b.WriteString("struct:")
		for _, f := range t.Fields {
			fmt.Fprintf(&b, "f(%s,%d,%d);", f.Name, f.Type, f.Visibility)
		}
		for _, m := range t.Methods {
			fmt.Fprintf(&b, "m(%s,%d,%d);", m.Name, m.Type, m.Visibility)
		}
	case KindUnion:
		ids := append([]TypeId(nil), t.Members...)
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		fmt.Fprintf(&b, "union:%v", ids)
	case KindIntersection:
		ids := append([]TypeId(nil), t.Members...)
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		fmt.Fprintf(&b, "intersection:%v", ids)
	case KindFunction:
		fmt.Fprintf(&b, "func:%v->%d", t.Params, t.Return)
	case KindGeneric:
		fmt.Fprintf(&b, "generic:%v|%v|%d", t.GenericParams, t.GenericConstraints, t.GenericBody)
	case KindVar:
		fmt.Fprintf(&b, "var:%d", t.Var)
	case KindContainer:
		fmt.Fprintf(&b, "container:%s%v", t.ContainerName, t.ContainerArgs)
	}
	return b.String()
}

// String renders a human-readable type name, used in diagnostics.
func (t Type) String() string {
	switch t.Kind {
	case KindUnit:
		return t.UnitName
	case KindBuiltin:
		return t.Builtin.String()
	case KindStruct:
		return "struct"
	case KindUnion:
		return "union"
	case KindIntersection:
		return "intersection"
	case KindFunction:
		return "function"
	case KindGeneric:
		return "generic"
	case KindVar:
		return fmt.Sprintf("t%d", t.Var)
	case KindContainer:
		return t.ContainerName
	}
	return "<invalid>"
}

// Table is the append-only type interner (spec §3, §5: "append-only and
// monotonic within a compilation unit").
type Table struct {
	types   []Type
	byKey   map[string]TypeId
	nextVar TypeVarId

	// Pre-interned builtins and container constructors, populated by NewTable.
	Builtins   map[BuiltinKind]TypeId
	Containers map[string]TypeId // registered container *names* (List, Set, Map, Option, Result, Pair)
}

// NewTable creates a Table with the built-in registry of spec §4.5
// pre-populated: Number/String/Bool/Int8..64/UInt8..64/Float32/64 and the
// standard-library container constructors List/Set/Map/Option/Result/Pair.
func NewTable() *Table {
	t := &Table{
		types:      []Type{{}}, // index 0 reserved as Invalid
		byKey:      make(map[string]TypeId),
		Builtins:   make(map[BuiltinKind]TypeId),
		Containers: make(map[string]TypeId),
	}
	for _, b := range []BuiltinKind{Number, StringB, Bool, Int8, Int16, Int32, Int64, UInt8, UInt16, UInt32, UInt64, Float32, Float64} {
		t.Builtins[b] = t.intern(Type{Kind: KindBuiltin, Builtin: b})
	}
	for _, name := range []string{"List", "Set", "Map", "Option", "Result", "Pair"} {
		t.Containers[name] = t.intern(Type{Kind: KindContainer, ContainerName: name})
	}
	return t
}

// intern hash-conses t: identical shapes (by key()) share one TypeId.
func (t *Table) intern(ty Type) TypeId {
	k := ty.key()
	if id, ok := t.byKey[k]; ok {
		return id
	}
	id := TypeId(len(t.types))
	t.types = append(t.types, ty)
	t.byKey[k] = id
	return id
}

// Get returns the Type for id.
func (t *Table) Get(id TypeId) Type {
	return t.types[id]
}

// FreshVar allocates a new, always-distinct unification variable.
func (t *Table) FreshVar() TypeId {
	t.nextVar++
	v := t.nextVar
	return t.intern(Type{Kind: KindVar, Var: v})
}

// NewUnit interns a Unit(name) type.
func (t *Table) NewUnit(name string) TypeId {
	return t.intern(Type{Kind: KindUnit, UnitName: name})
}

// NewStruct interns a Struct type from ordered fields and methods.
func (t *Table) NewStruct(fields, methods []Member) TypeId {
	return t.intern(Type{Kind: KindStruct, Fields: fields, Methods: methods})
}

// NewUnion interns a Union over the given member set (order-independent).
func (t *Table) NewUnion(members []TypeId) TypeId {
	return t.intern(Type{Kind: KindUnion, Members: dedupe(members)})
}

// NewFunction interns a Function{params, return} type.
func (t *Table) NewFunction(params []TypeId, ret TypeId) TypeId {
	return t.intern(Type{Kind: KindFunction, Params: params, Return: ret})
}

// NewGeneric interns a Generic{params, constraints, body} type.
func (t *Table) NewGeneric(params []TypeVarId, constraints []GenericConstraint, body TypeId) TypeId {
	return t.intern(Type{Kind: KindGeneric, GenericParams: params, GenericConstraints: constraints, GenericBody: body})
}

// NewContainer interns a concrete instantiation of a registered container,
// e.g. List<Number>.
func (t *Table) NewContainer(name string, args []TypeId) TypeId {
	return t.intern(Type{Kind: KindContainer, ContainerName: name, ContainerArgs: args})
}

// NewIntersectionRaw interns a raw Intersection(set) marker before it is
// materialized into a merged Struct (spec §3: "materialized into a merged
// Struct when compatible"). Used only as an intermediate constraint operand.
func (t *Table) NewIntersectionRaw(members []TypeId) TypeId {
	return t.intern(Type{Kind: KindIntersection, Members: dedupe(members)})
}

// Reserve allocates a TypeId for a named type declaration before its body is
// known, so sibling and self type references resolve to a stable index
// instead of requiring a pointer cycle (spec §9: "declare all type names in
// a scope before resolving their bodies, so forward references become index
// lookups"). The reserved id is deliberately NOT hash-consed: two reserved
// placeholders of the same Kind must stay distinct until Fill'd.
func (t *Table) Reserve(kind Kind) TypeId {
	id := TypeId(len(t.types))
	t.types = append(t.types, Type{Kind: kind})
	return id
}

// Fill installs ty's real shape at a previously Reserve'd id. It does not
// go through intern/byKey: a recursive type's own id appears inside ty
// itself, so this id can never be the representative of a structurally
// identical but independently-built type.
func (t *Table) Fill(id TypeId, ty Type) {
	t.types[id] = ty
}

func dedupe(ids []TypeId) []TypeId {
	seen := make(map[TypeId]bool, len(ids))
	out := make([]TypeId, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// String renders a TypeId via its interned Type.
func (t *Table) String(id TypeId) string {
	if int(id) < 0 || int(id) >= len(t.types) {
		return "<invalid>"
	}
	return t.types[id].String()
}
