package radix

import (
	"errors"
	"sort"

	"github.com/nspcc-dev/statetrie/pkg/util"
)

// StateNode is a value attached to a radix node. It's implemented by the
// state tree, radix tree only uses it as an opaque terminal with its own
// proof hash and subtree statistics.
type StateNode interface {
	// Label returns the label of the node in its parent state node.
	Label() string
	ProofHash() util.Uint256
	TreeHeight() uint64
	TreeSize() uint64
	TreeBytes() uint64
	AddParentRadixNode(*Node)
	DeleteParentRadixNode(*Node)
	HasParentRadixNode(*Node) bool
	// DeleteStateTreeVersion releases the value once no radix node
	// references it anymore. It returns the number of deleted nodes.
	DeleteStateTreeVersion() int
}

var (
	// ErrInvalidLabel is returned for a child label containing non-radix
	// symbols.
	ErrInvalidLabel = errors.New("invalid radix label")
	// ErrNilStateNode is returned when nil value is attached to a node.
	ErrNilStateNode = errors.New("nil state node")
	// ErrExistingChild is returned when a child slot is already occupied
	// by the given node.
	ErrExistingChild = errors.New("child already exists")
	// ErrNoChild is returned when there is no child with the given radix.
	ErrNoChild = errors.New("no such child")
	// ErrExistingParent is returned on attempt to add a duplicate parent.
	ErrExistingParent = errors.New("parent already exists")
	// ErrNoParent is returned on attempt to delete an unknown parent.
	ErrNoParent = errors.New("no such parent")
)

// Info contains cached subtree data of a Node.
type Info struct {
	ProofHash  util.Uint256
	TreeHeight uint64
	TreeSize   uint64
	TreeBytes  uint64
}

// Node is a radix tree node. It can be shared between several versions of
// a tree, in which case it has several parents.
type Node struct {
	version         string
	serial          uint64
	parentStateNode StateNode
	childStateNode  StateNode

	labelRadix  byte
	labelSuffix string
	parents     []*Node
	children    childMap

	info Info
}

// NewNode creates a node of the given version.
func NewNode(version string, serial uint64, parentStateNode StateNode) *Node {
	return &Node{
		version:         version,
		serial:          serial,
		parentStateNode: parentStateNode,
	}
}

// Reset drops all node data and references.
func (n *Node) Reset() {
	*n = Node{}
}

// Version returns the version this node was created in.
func (n *Node) Version() string { return n.version }

// SetVersion sets the version of n.
func (n *Node) SetVersion(v string) { n.version = v }

// Serial returns node serial, it reflects the order of value attachment.
func (n *Node) Serial() uint64 { return n.serial }

// SetSerial sets the serial of n.
func (n *Node) SetSerial(s uint64) { n.serial = s }

// ParentStateNode returns the state node owning the tree n belongs to.
func (n *Node) ParentStateNode() StateNode { return n.parentStateNode }

// SetParentStateNode sets the owning state node.
func (n *Node) SetParentStateNode(v StateNode) { n.parentStateNode = v }

// HasParentStateNode checks whether n has an owning state node.
func (n *Node) HasParentStateNode() bool { return n.parentStateNode != nil }

// ChildStateNode returns the value attached to n.
func (n *Node) ChildStateNode() StateNode { return n.childStateNode }

// HasChildStateNode checks whether n has a value attached.
func (n *Node) HasChildStateNode() bool { return n.childStateNode != nil }

// SetChildStateNode attaches v to n, replacing the previous value.
func (n *Node) SetChildStateNode(v StateNode) error {
	if v == nil {
		return ErrNilStateNode
	}
	if n.childStateNode != nil {
		n.childStateNode.DeleteParentRadixNode(n)
	}
	n.childStateNode = v
	if !v.HasParentRadixNode(n) {
		v.AddParentRadixNode(n)
	}
	return nil
}

// ResetChildStateNode detaches the value of n if there is any.
func (n *Node) ResetChildStateNode() {
	if n.childStateNode == nil {
		return
	}
	n.childStateNode.DeleteParentRadixNode(n)
	n.childStateNode = nil
}

// LabelRadix returns the first symbol of the edge label leading to n, it's
// zero for a root node.
func (n *Node) LabelRadix() byte { return n.labelRadix }

// LabelSuffix returns the edge label leading to n without its first symbol.
func (n *Node) LabelSuffix() string { return n.labelSuffix }

// Label returns the full edge label leading to n.
func (n *Node) Label() string {
	if n.labelRadix == 0 {
		return n.labelSuffix
	}
	return string(n.labelRadix) + n.labelSuffix
}

// HasParent checks whether p is a parent of n.
func (n *Node) HasParent(p *Node) bool {
	return n.parentIndex(p) >= 0
}

func (n *Node) parentIndex(p *Node) int {
	for i := range n.parents {
		if n.parents[i] == p {
			return i
		}
	}
	return -1
}

// AddParent registers p as a parent of n.
func (n *Node) AddParent(p *Node) error {
	if n.HasParent(p) {
		return ErrExistingParent
	}
	n.parents = append(n.parents, p)
	return nil
}

// DeleteParent unregisters parent p.
func (n *Node) DeleteParent(p *Node) error {
	i := n.parentIndex(p)
	if i < 0 {
		return ErrNoParent
	}
	n.parents = append(n.parents[:i], n.parents[i+1:]...)
	return nil
}

// ParentNodes returns all parents of n.
func (n *Node) ParentNodes() []*Node {
	res := make([]*Node, len(n.parents))
	copy(res, n.parents)
	return res
}

// NumParents returns the number of parents of n.
func (n *Node) NumParents() int { return len(n.parents) }

// Child returns the child with the given radix symbol or nil.
func (n *Node) Child(radix byte) *Node { return n.children.get(radix) }

// HasChild checks whether n has a child with the given radix symbol.
func (n *Node) HasChild(radix byte) bool { return n.children.has(radix) }

// SetChild puts child into the slot of radix, sets its edge label to
// radix+suffix and registers n as its parent. A node previously stored in
// the slot loses n as a parent.
func (n *Node) SetChild(radix byte, suffix string, child *Node) error {
	if !isRadixSymbol(radix) || !isRadixString(suffix) {
		return ErrInvalidLabel
	}
	old := n.children.get(radix)
	if old == child {
		return ErrExistingChild
	}
	if old != nil {
		_ = old.DeleteParent(n)
	}
	n.children.set(radix, child)
	child.labelRadix = radix
	child.labelSuffix = suffix
	if !child.HasParent(n) {
		_ = child.AddParent(n)
	}
	return nil
}

// DeleteChild removes the child with the given radix symbol.
func (n *Node) DeleteChild(radix byte) error {
	child := n.children.get(radix)
	if child == nil {
		return ErrNoChild
	}
	_ = child.DeleteParent(n)
	n.children.delete(radix)
	return nil
}

// ChildRadices returns radix symbols of all children in ascending order.
func (n *Node) ChildRadices() []byte { return n.children.radices() }

// ChildNodes returns all children ordered by their radix symbols.
func (n *Node) ChildNodes() []*Node { return n.children.nodes() }

// NumChildren returns the number of children.
func (n *Node) NumChildren() int { return n.children.size }

// HasChildren checks whether n has any children.
func (n *Node) HasChildren() bool { return n.children.size > 0 }

// ParentStateNodes returns owning state nodes of all root nodes reachable
// through parent links. Every state node appears once.
func (n *Node) ParentStateNodes() []StateNode {
	return n.parentStateNodes(0)
}

// parentStateNodes collects at most limit distinct owning state nodes, zero
// limit means no limit.
func (n *Node) parentStateNodes(limit int) []StateNode {
	var (
		res     []StateNode
		visited = make(map[*Node]bool)
	)
	n.collectParentStateNodes(visited, &res, limit)
	return res
}

// collectParentStateNodes returns true once limit is reached.
func (n *Node) collectParentStateNodes(visited map[*Node]bool, res *[]StateNode, limit int) bool {
	if visited[n] {
		return false
	}
	visited[n] = true
	if len(n.parents) == 0 {
		if n.parentStateNode == nil {
			return false
		}
		for _, v := range *res {
			if v == n.parentStateNode {
				return false
			}
		}
		*res = append(*res, n.parentStateNode)
		return limit > 0 && len(*res) >= limit
	}
	for _, p := range n.parents {
		if p.collectParentStateNodes(visited, res, limit) {
			return true
		}
	}
	return false
}

// HasMultipleParentStateNodes checks whether n is shared by trees of
// different state nodes. The walk stops at the second one found.
func (n *Node) HasMultipleParentStateNodes() bool {
	return len(n.parentStateNodes(2)) > 1
}

// RadixInfo returns cached subtree data.
func (n *Node) RadixInfo() Info { return n.info }

// ProofHash returns cached proof hash of the subtree rooted at n.
func (n *Node) ProofHash() util.Uint256 { return n.info.ProofHash }

// TreeHeight returns cached height of the subtree rooted at n.
func (n *Node) TreeHeight() uint64 { return n.info.TreeHeight }

// TreeSize returns cached size of the subtree rooted at n.
func (n *Node) TreeSize() uint64 { return n.info.TreeSize }

// TreeBytes returns cached byte count of the subtree rooted at n.
func (n *Node) TreeBytes() uint64 { return n.info.TreeBytes }

// Clone creates a copy of n for another version. The copy has no parents,
// shares all children and the value with n and keeps serial, label and
// cached info of n.
func (n *Node) Clone(version string, parentStateNode StateNode) *Node {
	c := NewNode(version, n.serial, parentStateNode)
	c.labelRadix = n.labelRadix
	c.labelSuffix = n.labelSuffix
	c.info = n.info
	if n.childStateNode != nil {
		_ = c.SetChildStateNode(n.childStateNode)
	}
	for _, child := range n.children.nodes() {
		_ = c.SetChild(child.labelRadix, child.labelSuffix, child)
	}
	return c
}

type serialEntry struct {
	serial uint64
	label  string
	value  StateNode
}

// collectStateNodes appends values of the subtree of n to res, path is the
// canonical label of n.
func (n *Node) collectStateNodes(path string, res *[]serialEntry) {
	if n.childStateNode != nil {
		*res = append(*res, serialEntry{serial: n.serial, label: path, value: n.childStateNode})
	}
	for _, child := range n.children.nodes() {
		child.collectStateNodes(path+child.Label(), res)
	}
}

func sortBySerial(entries []serialEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].serial < entries[j].serial
	})
}

// DeleteRadixTreeVersion releases n and its exclusively owned descendants
// together with their values. It does nothing if n still has parents.
// The number of released nodes (radix and state ones) is returned.
func (n *Node) DeleteRadixTreeVersion() int {
	if len(n.parents) > 0 {
		return 0
	}
	var affected int
	for _, child := range n.children.nodes() {
		_ = n.DeleteChild(child.labelRadix)
		affected += child.DeleteRadixTreeVersion()
	}
	if v := n.childStateNode; v != nil {
		n.ResetChildStateNode()
		affected += v.DeleteStateTreeVersion()
	}
	n.Reset()
	return affected + 1
}
