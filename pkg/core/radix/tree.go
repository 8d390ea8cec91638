package radix

import (
	"errors"

	"github.com/nspcc-dev/statetrie/pkg/util"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when requested tree item is missing.
	ErrNotFound = errors.New("item not found")
	// ErrRootNode is returned on attempt to delete or merge the root node.
	ErrRootNode = errors.New("operation is not allowed for the root node")
	// ErrMultipleParents is returned when a node expected to be owned by a
	// single version turns out to be shared.
	ErrMultipleParents = errors.New("node has multiple parents")
	// ErrNotMergeable is returned when a node can't be merged with its
	// child.
	ErrNotMergeable = errors.New("node can't be merged")
)

// Tree is a versioned radix tree mapping child labels of a state node to
// the child state nodes.
type Tree struct {
	version            string
	nextSerial         uint64
	numChildStateNodes int
	root               *Node

	cfg Config
	log *zap.Logger
}

// Entry is a value stored in the tree together with its raw label and
// serial.
type Entry struct {
	Label  string
	Serial uint64
	Value  StateNode
}

// NewTree creates an empty tree of the given version owned by
// parentStateNode (which can be nil).
func NewTree(version string, parentStateNode StateNode, cfg Config, log *zap.Logger) *Tree {
	if log == nil {
		log = zap.NewNop()
	}
	t := &Tree{
		version: version,
		cfg:     cfg,
		log:     log,
	}
	t.root = t.newNode(parentStateNode)
	return t
}

func (t *Tree) newNode(parentStateNode StateNode) *Node {
	n := NewNode(t.version, t.nextSerial, parentStateNode)
	t.nextSerial++
	return n
}

// Clone creates a new version of t sharing all nodes with it. Neither tree
// observes subsequent writes to the other one.
func (t *Tree) Clone(version string, parentStateNode StateNode) *Tree {
	return &Tree{
		version:            version,
		nextSerial:         t.nextSerial,
		numChildStateNodes: t.numChildStateNodes,
		root:               t.root.Clone(version, parentStateNode),
		cfg:                t.cfg,
		log:                t.log,
	}
}

// Config returns hashing configuration of t.
func (t *Tree) Config() Config { return t.cfg }

// Root returns the root node of t.
func (t *Tree) Root() *Node { return t.root }

// Version returns the version of t.
func (t *Tree) Version() string { return t.version }

// SetVersion changes the version of t and its root node.
func (t *Tree) SetVersion(v string) {
	t.version = v
	t.root.SetVersion(v)
}

// NextSerial returns the serial the next attached value will get.
func (t *Tree) NextSerial() uint64 { return t.nextSerial }

// NumChildStateNodes returns the number of values stored in t.
func (t *Tree) NumChildStateNodes() int { return t.numChildStateNodes }

// HasChildStateNodes checks whether t has any values.
func (t *Tree) HasChildStateNodes() bool { return t.numChildStateNodes > 0 }

// getNodeForReading returns the node located at radixLabel along with the
// path leading to it (root first). Nil is returned if there is no such node.
func (t *Tree) getNodeForReading(radixLabel string) (*Node, []*Node) {
	var (
		cur  = t.root
		path = []*Node{cur}
	)
	for i := 0; i < len(radixLabel); {
		child := cur.Child(radixLabel[i])
		if child == nil || !matchLabelSuffix(child, radixLabel, i+1) {
			return nil, nil
		}
		cur = child
		path = append(path, cur)
		i += 1 + len(child.LabelSuffix())
	}
	return cur, path
}

// exclusiveChild returns the child of cur with the given radix replacing it
// with a private copy first if it's shared with other versions.
func (t *Tree) exclusiveChild(cur *Node, radix byte) *Node {
	child := cur.Child(radix)
	if child.NumParents() <= 1 {
		return child
	}
	clone := child.Clone(t.version, nil)
	_ = cur.SetChild(radix, child.LabelSuffix(), clone)
	return clone
}

// getNodeForSetting returns the node located at radixLabel creating it (and
// splitting edges) if needed. All nodes on the path are made exclusive to t.
func (t *Tree) getNodeForSetting(radixLabel string) *Node {
	cur := t.root
	for i := 0; i < len(radixLabel); {
		radix := radixLabel[i]
		labelSuffix := radixLabel[i+1:]

		if !cur.HasChild(radix) {
			n := t.newNode(nil)
			_ = cur.SetChild(radix, labelSuffix, n)
			return n
		}
		child := cur.Child(radix)
		if !matchLabelSuffix(child, radixLabel, i+1) {
			if child.NumParents() > 1 {
				child = child.Clone(t.version, nil)
			}
			childSuffix := child.LabelSuffix()
			prefix := commonPrefix(labelSuffix, childSuffix)

			_ = cur.DeleteChild(radix)
			internal := t.newNode(nil)
			_ = cur.SetChild(radix, prefix, internal)

			rest := childSuffix[len(prefix):]
			_ = internal.SetChild(rest[0], rest[1:], child)
			if len(prefix) == len(labelSuffix) {
				return internal
			}
			n := t.newNode(nil)
			rest = labelSuffix[len(prefix):]
			_ = internal.SetChild(rest[0], rest[1:], n)
			return n
		}
		cur = t.exclusiveChild(cur, radix)
		i += 1 + len(cur.LabelSuffix())
	}
	return cur
}

// getNodeForDeleting returns the node located at radixLabel making all
// nodes on the path exclusive to t. Nil is returned if there is no such node.
func (t *Tree) getNodeForDeleting(radixLabel string) *Node {
	cur := t.root
	for i := 0; i < len(radixLabel); {
		child := cur.Child(radixLabel[i])
		if child == nil || !matchLabelSuffix(child, radixLabel, i+1) {
			return nil
		}
		cur = t.exclusiveChild(cur, radixLabel[i])
		i += 1 + len(cur.LabelSuffix())
	}
	return cur
}

// Get returns the value stored under label or nil if there is none.
func (t *Tree) Get(label string) StateNode {
	n, _ := t.getNodeForReading(ToRadixLabel(label))
	if n == nil {
		return nil
	}
	if !n.HasChildStateNode() {
		// Labels may end at an internal node created by an edge split.
		t.log.Debug("radix node without state node",
			zap.String("version", t.version),
			zap.String("label", label))
		return nil
	}
	return n.ChildStateNode()
}

// Has checks whether t has a value stored under label.
func (t *Tree) Has(label string) bool {
	return t.Get(label) != nil
}

// Set stores v under label. A new value gets the next serial, a replaced
// one keeps its position in the insertion order. Radix info is not updated.
func (t *Tree) Set(label string, v StateNode) error {
	if v == nil {
		return ErrNilStateNode
	}
	n := t.getNodeForSetting(ToRadixLabel(label))
	if !n.HasChildStateNode() {
		n.SetSerial(t.nextSerial)
		t.nextSerial++
		t.numChildStateNodes++
	}
	return n.SetChildStateNode(v)
}

// mergeToChild merges n (which must have no value and a single child) into
// its child. It returns the nodes whose radix info is to be updated.
func (t *Tree) mergeToChild(n *Node) ([]*Node, error) {
	if n.NumParents() == 0 {
		return nil, ErrRootNode
	}
	if n.NumChildren() != 1 || n.HasChildStateNode() {
		return nil, ErrNotMergeable
	}
	child := n.ChildNodes()[0]
	if child.NumParents() > 1 {
		t.log.Debug("skipping merge with a shared child",
			zap.String("version", t.version),
			zap.String("label", n.Label()))
		return []*Node{n}, nil
	}
	var (
		parents = n.ParentNodes()
		radix   = n.LabelRadix()
		suffix  = n.LabelSuffix() + child.Label()
	)
	_ = n.DeleteChild(child.LabelRadix())
	for _, p := range parents {
		_ = p.DeleteChild(radix)
		_ = p.SetChild(radix, suffix, child)
	}
	n.Reset()
	return parents, nil
}

// Delete removes the value stored under label compacting the tree. If
// updateInfo is set, radix info of all affected ancestors is recomputed.
func (t *Tree) Delete(label string, updateInfo bool) error {
	radixLabel := ToRadixLabel(label)
	if n, _ := t.getNodeForReading(radixLabel); n == nil || !n.HasChildStateNode() {
		t.log.Debug("deleting non-existing label",
			zap.String("version", t.version),
			zap.String("label", label))
		return ErrNotFound
	}
	n := t.getNodeForDeleting(radixLabel)
	if n.NumParents() == 0 {
		return ErrRootNode
	}
	if !n.HasChildren() && n.NumParents() != 1 {
		t.log.Error("shared radix node on the write path",
			zap.String("version", t.version),
			zap.String("label", label),
			zap.Int("parents", n.NumParents()))
		return ErrMultipleParents
	}
	n.ResetChildStateNode()
	t.numChildStateNodes--

	var (
		toUpdate = []*Node{n}
		err      error
	)
	switch n.NumChildren() {
	case 0:
		parent := n.ParentNodes()[0]
		_ = parent.DeleteChild(n.LabelRadix())
		n.Reset()
		// A skipped merge may have left an ancestor whose only child was
		// just removed.
		for parent.NumParents() == 1 && !parent.HasChildren() && !parent.HasChildStateNode() {
			up := parent.ParentNodes()[0]
			_ = up.DeleteChild(parent.LabelRadix())
			parent.Reset()
			parent = up
		}
		toUpdate = []*Node{parent}
		if parent.NumChildren() == 1 && !parent.HasChildStateNode() && parent.NumParents() == 1 {
			toUpdate, err = t.mergeToChild(parent)
		}
	case 1:
		toUpdate, err = t.mergeToChild(n)
	}
	if err != nil {
		return err
	}
	if updateInfo {
		for _, u := range toUpdate {
			u.UpdateRadixInfoForAllRootPaths(t.cfg)
		}
	}
	return nil
}

// Entries returns all values of t ordered by serial.
func (t *Tree) Entries() []Entry {
	var list []serialEntry
	t.root.collectStateNodes("", &list)
	sortBySerial(list)
	res := make([]Entry, 0, len(list))
	for _, e := range list {
		label, err := FromRadixLabel(e.label)
		if err != nil {
			t.log.Error("malformed radix path", zap.String("path", e.label), zap.Error(err))
			continue
		}
		res = append(res, Entry{Label: label, Serial: e.serial, Value: e.value})
	}
	return res
}

// EntriesAfter returns at most limit values (all if limit is not positive)
// following the one stored under afterLabel in serial order. Empty
// afterLabel means starting from the first value.
func (t *Tree) EntriesAfter(afterLabel string, limit int) []Entry {
	entries := t.Entries()
	if afterLabel != "" {
		start := len(entries)
		for i := range entries {
			if entries[i].Label == afterLabel {
				start = i + 1
				break
			}
		}
		entries = entries[start:]
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// ChildStateNodes returns all values of t in insertion order.
func (t *Tree) ChildStateNodes() []StateNode {
	entries := t.Entries()
	res := make([]StateNode, len(entries))
	for i := range entries {
		res[i] = entries[i].Value
	}
	return res
}

// ChildStateLabels returns labels of all values of t in insertion order.
func (t *Tree) ChildStateLabels() []string {
	entries := t.Entries()
	res := make([]string, len(entries))
	for i := range entries {
		res[i] = entries[i].Label
	}
	return res
}

// RadixInfo returns cached subtree data of the root.
func (t *Tree) RadixInfo() Info { return t.root.RadixInfo() }

// RootProofHash returns cached proof hash of the whole tree.
func (t *Tree) RootProofHash() util.Uint256 { return t.root.ProofHash() }

// RootTreeHeight returns cached height of the whole tree.
func (t *Tree) RootTreeHeight() uint64 { return t.root.TreeHeight() }

// RootTreeSize returns cached size of the whole tree.
func (t *Tree) RootTreeSize() uint64 { return t.root.TreeSize() }

// RootTreeBytes returns cached byte count of the whole tree.
func (t *Tree) RootTreeBytes() uint64 { return t.root.TreeBytes() }

// UpdateRadixInfoForRadixTree recomputes radix info of every node of t and
// returns the number of updated nodes.
func (t *Tree) UpdateRadixInfoForRadixTree() int {
	return t.root.UpdateRadixInfoForRadixTree(t.cfg)
}

// UpdateRadixInfoForAllRootPaths recomputes radix info of the node storing
// label and of all its ancestors. It returns the number of updated nodes.
func (t *Tree) UpdateRadixInfoForAllRootPaths(label string) int {
	n, _ := t.getNodeForReading(ToRadixLabel(label))
	if n == nil {
		t.log.Debug("updating radix info of non-existing label",
			zap.String("version", t.version),
			zap.String("label", label))
		return 0
	}
	return n.UpdateRadixInfoForAllRootPaths(t.cfg)
}

// VerifyRadixInfoForRadixTree checks cached radix info of every node of t.
func (t *Tree) VerifyRadixInfoForRadixTree() bool {
	return t.root.VerifyRadixInfoForRadixTree(t.cfg)
}

// VerifyProofHashForRadixTree checks proof hashes of every node of t and
// returns the first mismatch found (nil if there is none).
func (t *Tree) VerifyProofHashForRadixTree() *Mismatch {
	return t.root.verifyProofHash(t.cfg, nil)
}

// ProofOfStateNode builds a proof of the value stored under label,
// stateProof is attached to the value entry. Nil is returned if there is no
// such value.
func (t *Tree) ProofOfStateNode(label string, stateProof any) *Proof {
	n, path := t.getNodeForReading(ToRadixLabel(label))
	if n == nil || !n.HasChildStateNode() {
		return nil
	}
	last := len(path) - 1
	p := n.ProofOfRadixNode("", nil, stateProof, last == 0)
	for i := last - 1; i >= 0; i-- {
		p = path[i].ProofOfRadixNode(path[i+1].Label(), p, nil, i == 0)
	}
	return p
}

// DeleteRadixTreeVersion releases all nodes and values exclusively owned by
// t. It does nothing if the root is still referenced from elsewhere. The
// number of released nodes is returned.
func (t *Tree) DeleteRadixTreeVersion() int {
	if t.root.NumParents() > 0 {
		return 0
	}
	t.numChildStateNodes = 0
	return t.root.DeleteRadixTreeVersion()
}
