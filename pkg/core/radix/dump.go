package radix

import (
	json "github.com/nspcc-dev/go-ordered-json"
)

// Dump labels.
const (
	VersionLabel            = "#version"
	SerialLabel             = "#serial"
	NextSerialLabel         = "#next_serial"
	TreeHeightLabel         = "#tree_height"
	TreeSizeLabel           = "#tree_size"
	TreeBytesLabel          = "#tree_bytes"
	NumParentsLabel         = "#num_parents"
	HasParentStateNodeLabel = "#has_parent_state_node"
)

// DumpOptions selects node properties included into a dump.
type DumpOptions struct {
	WithVersion            bool
	WithSerial             bool
	WithProofHash          bool
	WithTreeInfo           bool
	WithNumParents         bool
	WithHasParentStateNode bool
}

// Dump returns a debug representation of t. Every node is an object keyed by
// child edge labels, values are keyed with StateLabelPrefix.
func (t *Tree) Dump(opts DumpOptions) json.OrderedObject {
	obj := dumpNode(t.root, opts)
	if opts.WithSerial {
		obj = append(obj, json.Member{Key: NextSerialLabel, Value: t.nextSerial})
	}
	return obj
}

func dumpNode(n *Node, opts DumpOptions) json.OrderedObject {
	obj := json.OrderedObject{}
	if opts.WithVersion {
		obj = append(obj, json.Member{Key: VersionLabel, Value: n.version})
	}
	if opts.WithSerial {
		obj = append(obj, json.Member{Key: SerialLabel, Value: n.serial})
	}
	if opts.WithProofHash {
		obj = append(obj, json.Member{Key: RadixProofHashLabel, Value: n.info.ProofHash})
	}
	if opts.WithTreeInfo {
		obj = append(obj,
			json.Member{Key: TreeHeightLabel, Value: n.info.TreeHeight},
			json.Member{Key: TreeSizeLabel, Value: n.info.TreeSize},
			json.Member{Key: TreeBytesLabel, Value: n.info.TreeBytes})
	}
	if opts.WithNumParents {
		obj = append(obj, json.Member{Key: NumParentsLabel, Value: n.NumParents()})
	}
	if opts.WithHasParentStateNode {
		obj = append(obj, json.Member{Key: HasParentStateNodeLabel, Value: n.HasParentStateNode()})
	}
	if v := n.childStateNode; v != nil {
		state := json.OrderedObject{}
		if opts.WithProofHash {
			state = append(state, json.Member{Key: StateProofHashLabel, Value: v.ProofHash()})
		}
		obj = append(obj, json.Member{Key: StateLabelPrefix + v.Label(), Value: state})
	}
	for _, c := range n.children.nodes() {
		obj = append(obj, json.Member{Key: c.Label(), Value: dumpNode(c, opts)})
	}
	return obj
}
