package state

import (
	"encoding/hex"
	"errors"
	"fmt"

	json "github.com/nspcc-dev/go-ordered-json"
	"github.com/nspcc-dev/statetrie/pkg/core/radix"
	"github.com/nspcc-dev/statetrie/pkg/crypto/hash"
	"github.com/nspcc-dev/statetrie/pkg/io"
	"github.com/nspcc-dev/statetrie/pkg/util"
)

// ValueProofLabel is the key of the hex-encoded value in leaf proofs.
const ValueProofLabel = "#value"

// MaxValueSize is the maximum size of a leaf value.
const MaxValueSize = 1 << 20

// maxLabelSize is the maximum size of leaf label and version.
const maxLabelSize = 1024

// ErrLeafHashMismatch is returned when decoded leaf has a proof hash not
// matching its contents.
var ErrLeafHashMismatch = errors.New("leaf proof hash mismatch")

// Leaf is a terminal state node holding a byte value. It can be referenced
// from radix nodes of several tree versions at once.
type Leaf struct {
	label     string
	version   string
	value     []byte
	proofHash util.Uint256
	parents   []*radix.Node
}

var _ radix.StateNode = (*Leaf)(nil)

// NewLeaf creates a new leaf computing its proof hash according to cfg.
func NewLeaf(label, version string, value []byte, cfg radix.Config) *Leaf {
	l := &Leaf{
		label:   label,
		version: version,
		value:   value,
	}
	l.proofHash = leafProofHash(l.label, l.value, cfg)
	return l
}

func leafProofHash(label string, value []byte, cfg radix.Config) util.Uint256 {
	if cfg.Lightweight {
		return util.Uint256{}
	}
	h := cfg.Hash
	if h == nil {
		h = hash.Keccak256
	}
	data := make([]byte, 0, len(label)+len(value))
	data = append(data, label...)
	data = append(data, value...)
	return h(data)
}

// Label implements radix.StateNode.
func (l *Leaf) Label() string { return l.label }

// Version returns the version the leaf was created in.
func (l *Leaf) Version() string { return l.version }

// Value returns leaf value.
func (l *Leaf) Value() []byte { return l.value }

// ProofHash implements radix.StateNode.
func (l *Leaf) ProofHash() util.Uint256 { return l.proofHash }

// TreeHeight implements radix.StateNode.
func (l *Leaf) TreeHeight() uint64 { return 0 }

// TreeSize implements radix.StateNode.
func (l *Leaf) TreeSize() uint64 { return 1 }

// TreeBytes implements radix.StateNode.
func (l *Leaf) TreeBytes() uint64 { return uint64(io.GetVarSize(l.value)) }

// AddParentRadixNode implements radix.StateNode.
func (l *Leaf) AddParentRadixNode(n *radix.Node) {
	if !l.HasParentRadixNode(n) {
		l.parents = append(l.parents, n)
	}
}

// DeleteParentRadixNode implements radix.StateNode.
func (l *Leaf) DeleteParentRadixNode(n *radix.Node) {
	for i := range l.parents {
		if l.parents[i] == n {
			l.parents = append(l.parents[:i], l.parents[i+1:]...)
			return
		}
	}
}

// HasParentRadixNode implements radix.StateNode.
func (l *Leaf) HasParentRadixNode(n *radix.Node) bool {
	for i := range l.parents {
		if l.parents[i] == n {
			return true
		}
	}
	return false
}

// Proof returns the proof of l attached to radix proofs: its proof hash
// and the value itself.
func (l *Leaf) Proof() json.OrderedObject {
	return json.OrderedObject{
		{Key: radix.StateProofHashLabel, Value: l.proofHash},
		{Key: ValueProofLabel, Value: hex.EncodeToString(l.value)},
	}
}

// NumParents returns the number of radix nodes referencing l.
func (l *Leaf) NumParents() int { return len(l.parents) }

// DeleteStateTreeVersion implements radix.StateNode. The leaf is reset once
// no radix node references it.
func (l *Leaf) DeleteStateTreeVersion() int {
	if len(l.parents) > 0 {
		return 0
	}
	*l = Leaf{}
	return 1
}

// EncodeBinary implements io.Serializable.
func (l *Leaf) EncodeBinary(w *io.BinWriter) {
	w.WriteString(l.label)
	w.WriteString(l.version)
	w.WriteVarBytes(l.value)
	w.WriteBytes(l.proofHash[:])
}

// DecodeBinary implements io.Serializable.
func (l *Leaf) DecodeBinary(r *io.BinReader) {
	l.label = r.ReadString(maxLabelSize)
	l.version = r.ReadString(maxLabelSize)
	l.value = r.ReadVarBytes(MaxValueSize)
	r.ReadBytes(l.proofHash[:])
}

// LeafCodec serializes leaves for radix tree snapshots.
type LeafCodec struct {
	Config radix.Config
}

var _ radix.ValueCodec = LeafCodec{}

// EncodeValue implements radix.ValueCodec.
func (c LeafCodec) EncodeValue(w *io.BinWriter, v radix.StateNode) {
	l, ok := v.(*Leaf)
	if !ok {
		w.Err = fmt.Errorf("unexpected state node type %T", v)
		return
	}
	l.EncodeBinary(w)
}

// DecodeValue implements radix.ValueCodec. Proof hash of the decoded leaf is
// checked against its contents.
func (c LeafCodec) DecodeValue(r *io.BinReader) radix.StateNode {
	l := new(Leaf)
	l.DecodeBinary(r)
	if r.Err != nil {
		return nil
	}
	if expected := leafProofHash(l.label, l.value, c.Config); expected != l.proofHash {
		r.Err = fmt.Errorf("%w: %s", ErrLeafHashMismatch, l.label)
		return nil
	}
	return l
}
