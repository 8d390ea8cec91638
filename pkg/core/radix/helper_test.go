package radix

import (
	"testing"

	"github.com/nspcc-dev/statetrie/pkg/crypto/hash"
	"github.com/nspcc-dev/statetrie/pkg/io"
	"github.com/nspcc-dev/statetrie/pkg/util"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// testValue is a minimal StateNode used in tests.
type testValue struct {
	label    string
	value    string
	parents  []*Node
	released bool
}

func newTestValue(label, value string) *testValue {
	return &testValue{label: label, value: value}
}

func (v *testValue) Label() string { return v.label }

func (v *testValue) ProofHash() util.Uint256 {
	return hash.Keccak256([]byte(v.label + ":" + v.value))
}

func (v *testValue) TreeHeight() uint64 { return 1 }
func (v *testValue) TreeSize() uint64   { return 1 }
func (v *testValue) TreeBytes() uint64  { return uint64(len(v.value)) }

func (v *testValue) AddParentRadixNode(n *Node) {
	v.parents = append(v.parents, n)
}

func (v *testValue) DeleteParentRadixNode(n *Node) {
	for i := range v.parents {
		if v.parents[i] == n {
			v.parents = append(v.parents[:i], v.parents[i+1:]...)
			return
		}
	}
}

func (v *testValue) HasParentRadixNode(n *Node) bool {
	for i := range v.parents {
		if v.parents[i] == n {
			return true
		}
	}
	return false
}

func (v *testValue) DeleteStateTreeVersion() int {
	if len(v.parents) > 0 {
		return 0
	}
	v.released = true
	return 1
}

type testCodec struct{}

func (testCodec) EncodeValue(w *io.BinWriter, v StateNode) {
	tv := v.(*testValue)
	w.WriteString(tv.label)
	w.WriteString(tv.value)
}

func (testCodec) DecodeValue(r *io.BinReader) StateNode {
	label := r.ReadString()
	return newTestValue(label, r.ReadString())
}

func newTestTree(t *testing.T, version string) *Tree {
	return NewTree(version, nil, Config{}, zaptest.NewLogger(t))
}

func setValues(t *testing.T, tr *Tree, labels ...string) {
	for _, l := range labels {
		require.NoError(t, tr.Set(l, newTestValue(l, "v-"+l)))
	}
}

func getValue(tr *Tree, label string) string {
	v := tr.Get(label)
	if v == nil {
		return ""
	}
	return v.(*testValue).value
}

// checkStructure checks parent links, edge labels and compaction of the
// exclusively owned subtree of n.
func checkStructure(t *testing.T, n *Node, isRoot bool) {
	if !isRoot {
		require.Equal(t, 1, n.NumParents(), n.Label())
		require.True(t, n.HasChildStateNode() || n.NumChildren() >= 2,
			"non-compacted node %q", n.Label())
	}
	if v := n.ChildStateNode(); v != nil {
		require.True(t, v.HasParentRadixNode(n))
	}
	for _, c := range n.ChildNodes() {
		require.NotZero(t, c.LabelRadix())
		require.True(t, isRadixString(c.Label()))
		require.True(t, c.HasParent(n))
		checkStructure(t, c, false)
	}
}
