// Package ast implements the first-child/next-sibling node store of spec
// §3/§4.3: an append-only vector of uniform, fixed-size records. The
// flat-table idiom is generalized from the teacher's IR tables
// (lang/ygen/ir_types.go, lang/yld/types.go) — the teacher's own AST
// (lang/yparse/ast.go) is pointer/interface based and does not fit the
// cache-friendly layout the spec demands, so this store borrows the
// table idiom from a different layer of the teacher and applies it here.
package ast

import "github.com/paul-ciorogar/suru-lang-sub001/internal/diag"

// NodeType is the tagged kind of an AST node (spec §3).
type NodeType int

const (
	Invalid NodeType = iota
	Program
	VarDecl
	FuncDecl
	ParamList
	Param
	Block
	ReturnStmt
	TypeDecl
	TypeBodyUnit
	TypeBodyAlias
	TypeBodyUnion
	TypeBodyStruct
	TypeBodyIntersection
	TypeBodyFunction
	TypeBodyGeneric
	StructField
	StructMethod
	Identifier
	NumberLiteral
	StringLiteral
	BooleanLiteral
	BinaryOp
	UnaryOp
	Call
	MethodCall
	PropertyAccess
	ModuleStmt
	ImportBlock
	ExportBlock
	Match
	MatchArm
	Pattern
	PipeExpr
	TryExpr
	PartialApplication
	ListLiteral
	DictLiteral
	SetLiteral
	DictEntry
	TypeExpr
	TypeParam
)

// Flags carries per-node bits (spec §3, e.g. a struct field/method's
// visibility).
type Flags uint32

const (
	FlagPrivate   Flags = 1 << iota
	FlagFloat           // numeric literal had a fractional part
	FlagHasReturn       // TypeBodyFunction node's last child is a return type, not a param
)

// NoIndex marks an absent child/sibling/token reference.
const NoIndex = -1

// Node is the fixed-size record every AST node shares.
type Node struct {
	Type        NodeType
	TokenIndex  int // NoIndex if this node carries no single token
	FirstChild  int // NoIndex if childless
	NextSibling int // NoIndex if last among its siblings
	Flags       Flags
}

// Store is the append-only node vector (spec §4.3). CreateNode,
// SetFirstChild, AppendSibling, SetFlags and Read are O(1); Children and
// AppendChild walk a node's child list. Construction order is monotonic so
// the store cannot contain a structural cycle.
type Store struct {
	nodes    []Node
	maxNodes int
}

// NewStore creates an empty store bounded by maxNodes.
func NewStore(maxNodes int) *Store {
	return &Store{nodes: make([]Node, 0, 64), maxNodes: maxNodes}
}

// CreateNode appends a new node and returns its index.
func (s *Store) CreateNode(typ NodeType, tokenIndex int) (int, error) {
	if len(s.nodes) >= s.maxNodes {
		return NoIndex, diag.New(diag.KindTooManyASTNodes, diag.Span{}, "node count exceeds max_ast_nodes (%d)", s.maxNodes)
	}
	idx := len(s.nodes)
	s.nodes = append(s.nodes, Node{
		Type:        typ,
		TokenIndex:  tokenIndex,
		FirstChild:  NoIndex,
		NextSibling: NoIndex,
	})
	return idx, nil
}

// SetFirstChild sets parent's first child; child must already exist.
func (s *Store) SetFirstChild(parent, child int) {
	n := s.nodes[parent]
	n.FirstChild = child
	s.nodes[parent] = n
}

// AppendSibling links next as prev's next sibling.
func (s *Store) AppendSibling(prev, next int) {
	n := s.nodes[prev]
	n.NextSibling = next
	s.nodes[prev] = n
}

// SetFlags ORs extra bits onto a node's Flags.
func (s *Store) SetFlags(idx int, flags Flags) {
	n := s.nodes[idx]
	n.Flags |= flags
	s.nodes[idx] = n
}

// Read returns the node at idx.
func (s *Store) Read(idx int) Node {
	return s.nodes[idx]
}

// Len returns the number of nodes created so far.
func (s *Store) Len() int {
	return len(s.nodes)
}

// Children returns the indices of idx's children in order, following the
// first-child/next-sibling chain.
func (s *Store) Children(idx int) []int {
	var out []int
	child := s.nodes[idx].FirstChild
	for child != NoIndex {
		out = append(out, child)
		child = s.nodes[child].NextSibling
	}
	return out
}

// AppendChild appends a new child to parent's existing child list,
// maintaining first-child/next-sibling linkage in O(children) time.
func (s *Store) AppendChild(parent, child int) {
	first := s.nodes[parent].FirstChild
	if first == NoIndex {
		s.SetFirstChild(parent, child)
		return
	}
	last := first
	for s.nodes[last].NextSibling != NoIndex {
		last = s.nodes[last].NextSibling
	}
	s.AppendSibling(last, child)
}

// MaxDepth returns the maximum traversal depth rooted at idx (root counts
// as depth 1), used to verify spec invariant 3 after a parse.
func (s *Store) MaxDepth(idx int) int {
	if idx == NoIndex {
		return 0
	}
	max := 0
	for _, c := range s.Children(idx) {
		if d := s.MaxDepth(c); d > max {
			max = d
		}
	}
	return 1 + max
}
