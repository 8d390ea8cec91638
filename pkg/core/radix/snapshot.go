package radix

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/statetrie/pkg/io"
	"go.uber.org/zap"
)

// MaxVersionLen is the maximum length of a version string in snapshots.
const MaxVersionLen = 1024

// ErrInvalidSnapshot is returned for malformed tree snapshots.
var ErrInvalidSnapshot = errors.New("invalid radix snapshot")

// ValueCodec serializes values of a tree for snapshots.
type ValueCodec interface {
	EncodeValue(w *io.BinWriter, v StateNode)
	DecodeValue(r *io.BinReader) StateNode
}

// EncodeSnapshot writes the structure of t (versions, serials, edge labels
// and values) to w. Radix info is not stored, it's recomputed on decoding.
func (t *Tree) EncodeSnapshot(w *io.BinWriter, codec ValueCodec) {
	w.WriteString(t.version)
	w.WriteU64LE(t.nextSerial)
	root := &snapshotNode{node: t.root, codec: codec}
	root.EncodeBinary(w)
}

// DecodeSnapshot restores a tree written by EncodeSnapshot. The tree gets
// its value count and radix info recomputed.
func DecodeSnapshot(r *io.BinReader, codec ValueCodec, parentStateNode StateNode, cfg Config, log *zap.Logger) (*Tree, error) {
	if log == nil {
		log = zap.NewNop()
	}
	t := &Tree{
		version:    r.ReadString(MaxVersionLen),
		nextSerial: r.ReadU64LE(),
		cfg:        cfg,
		log:        log,
	}
	root := &snapshotNode{codec: codec}
	root.DecodeBinary(r)
	if r.Err != nil {
		if errors.Is(r.Err, ErrInvalidSnapshot) {
			return nil, r.Err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, r.Err)
	}
	root.node.SetParentStateNode(parentStateNode)
	t.root = root.node
	t.numChildStateNodes = len(t.Entries())
	t.UpdateRadixInfoForRadixTree()
	return t, nil
}

// snapshotNode is a serializable radix node with its whole subtree.
type snapshotNode struct {
	node  *Node
	codec ValueCodec
}

// snapshotChild is a snapshotNode prefixed with its edge label.
type snapshotChild struct {
	radix  byte
	suffix string
	snapshotNode
}

// EncodeBinary implements the io.Serializable interface.
func (s *snapshotNode) EncodeBinary(w *io.BinWriter) {
	n := s.node
	w.WriteString(n.version)
	w.WriteU64LE(n.serial)
	w.WriteBool(n.childStateNode != nil)
	if n.childStateNode != nil {
		s.codec.EncodeValue(w, n.childStateNode)
	}
	children := n.children.nodes()
	arr := make([]*snapshotChild, len(children))
	for i, c := range children {
		arr[i] = &snapshotChild{
			radix:        c.labelRadix,
			suffix:       c.labelSuffix,
			snapshotNode: snapshotNode{node: c, codec: s.codec},
		}
	}
	io.WriteArray(w, arr)
}

// DecodeBinary implements the io.Serializable interface.
func (s *snapshotNode) DecodeBinary(r *io.BinReader) {
	n := NewNode(r.ReadString(MaxVersionLen), r.ReadU64LE(), nil)
	if r.ReadBool() {
		v := s.codec.DecodeValue(r)
		if r.Err != nil {
			return
		}
		if err := n.SetChildStateNode(v); err != nil {
			r.Err = fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
			return
		}
	}
	children := io.ReadArray(r, func() *snapshotChild {
		return &snapshotChild{snapshotNode: snapshotNode{codec: s.codec}}
	}, NumRadixSymbols)
	if r.Err != nil {
		return
	}
	for _, c := range children {
		if n.HasChild(c.radix) {
			r.Err = fmt.Errorf("%w: duplicate child %q", ErrInvalidSnapshot, c.radix)
			return
		}
		if err := n.SetChild(c.radix, c.suffix, c.node); err != nil {
			r.Err = fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
			return
		}
	}
	s.node = n
}

// EncodeBinary implements the io.Serializable interface.
func (c *snapshotChild) EncodeBinary(w *io.BinWriter) {
	w.WriteB(c.radix)
	w.WriteString(c.suffix)
	c.snapshotNode.EncodeBinary(w)
}

// DecodeBinary implements the io.Serializable interface.
func (c *snapshotChild) DecodeBinary(r *io.BinReader) {
	c.radix = r.ReadB()
	c.suffix = r.ReadString()
	if r.Err != nil {
		return
	}
	c.snapshotNode.DecodeBinary(r)
}
