package radix

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNode_SetChild(t *testing.T) {
	parent := NewNode("v1", 0, nil)
	child := NewNode("v1", 1, nil)

	require.ErrorIs(t, parent.SetChild('g', "", child), ErrInvalidLabel)
	require.ErrorIs(t, parent.SetChild('1', "0x", child), ErrInvalidLabel)

	require.NoError(t, parent.SetChild('a', "bc", child))
	require.Equal(t, "abc", child.Label())
	require.True(t, child.HasParent(parent))
	require.Equal(t, 1, parent.NumChildren())
	require.ErrorIs(t, parent.SetChild('a', "bc", child), ErrExistingChild)

	other := NewNode("v1", 2, nil)
	require.NoError(t, parent.SetChild('a', "d", other))
	require.False(t, child.HasParent(parent))
	require.Same(t, other, parent.Child('a'))

	require.NoError(t, parent.SetChild('0', "", child))
	require.Equal(t, []byte{'0', 'a'}, parent.ChildRadices())
	require.Equal(t, []*Node{child, other}, parent.ChildNodes())

	require.NoError(t, parent.DeleteChild('a'))
	require.ErrorIs(t, parent.DeleteChild('a'), ErrNoChild)
	require.False(t, other.HasParent(parent))
	require.Equal(t, 1, parent.NumChildren())
}

func TestNode_Parents(t *testing.T) {
	n := NewNode("", 0, nil)
	p1, p2 := NewNode("", 1, nil), NewNode("", 2, nil)

	require.NoError(t, n.AddParent(p1))
	require.ErrorIs(t, n.AddParent(p1), ErrExistingParent)
	require.NoError(t, n.AddParent(p2))
	require.Equal(t, []*Node{p1, p2}, n.ParentNodes())

	require.NoError(t, n.DeleteParent(p1))
	require.ErrorIs(t, n.DeleteParent(p1), ErrNoParent)
	require.Equal(t, 1, n.NumParents())
}

func TestNode_ChildStateNode(t *testing.T) {
	n := NewNode("", 0, nil)
	require.ErrorIs(t, n.SetChildStateNode(nil), ErrNilStateNode)

	v1, v2 := newTestValue("a", "1"), newTestValue("a", "2")
	require.NoError(t, n.SetChildStateNode(v1))
	require.True(t, v1.HasParentRadixNode(n))

	require.NoError(t, n.SetChildStateNode(v2))
	require.False(t, v1.HasParentRadixNode(n))
	require.True(t, v2.HasParentRadixNode(n))

	// Setting the same value again keeps a single back-reference.
	require.NoError(t, n.SetChildStateNode(v2))
	require.Len(t, v2.parents, 1)

	n.ResetChildStateNode()
	require.False(t, n.HasChildStateNode())
	require.Empty(t, v2.parents)
}

func TestNode_Clone(t *testing.T) {
	owner := newTestValue("owner", "")
	n := NewNode("v1", 7, owner)
	v := newTestValue("x", "1")
	require.NoError(t, n.SetChildStateNode(v))
	c1, c2 := NewNode("v1", 8, nil), NewNode("v1", 9, nil)
	require.NoError(t, n.SetChild('1', "23", c1))
	require.NoError(t, n.SetChild('f', "", c2))
	n.UpdateRadixInfo(Config{})

	clone := n.Clone("v2", nil)
	require.Equal(t, "v2", clone.Version())
	require.Equal(t, uint64(7), clone.Serial())
	require.Equal(t, n.RadixInfo(), clone.RadixInfo())
	require.Zero(t, clone.NumParents())
	require.Same(t, v, clone.ChildStateNode())
	require.True(t, v.HasParentRadixNode(clone))
	require.Equal(t, n.ChildNodes(), clone.ChildNodes())
	require.Equal(t, 2, c1.NumParents())
	require.Equal(t, "123", c1.Label())

	require.Equal(t, []StateNode{owner}, c1.ParentStateNodes())
	require.False(t, c1.HasMultipleParentStateNodes())
	clone.SetParentStateNode(newTestValue("other", ""))
	require.True(t, c1.HasMultipleParentStateNodes())
}

func TestNode_ParentStateNodesLimit(t *testing.T) {
	shared := NewNode("v1", 1, nil)
	for i, name := range []string{"a", "b", "c"} {
		root := NewNode("v1", uint64(10+i), newTestValue(name, ""))
		require.NoError(t, root.SetChild('1', "", shared))
	}
	require.Equal(t, 3, shared.NumParents())
	require.Len(t, shared.ParentStateNodes(), 3)
	require.Len(t, shared.parentStateNodes(2), 2)
	require.True(t, shared.HasMultipleParentStateNodes())
}

func TestNode_DeleteRadixTreeVersion(t *testing.T) {
	root := NewNode("v1", 0, nil)
	shared := NewNode("v1", 1, nil)
	own := NewNode("v1", 2, nil)
	vShared, vOwn := newTestValue("s", ""), newTestValue("o", "")
	require.NoError(t, shared.SetChildStateNode(vShared))
	require.NoError(t, own.SetChildStateNode(vOwn))
	require.NoError(t, root.SetChild('1', "", shared))
	require.NoError(t, root.SetChild('2', "", own))

	other := NewNode("v2", 0, nil)
	require.NoError(t, other.SetChild('1', "", shared))

	require.Equal(t, 0, shared.DeleteRadixTreeVersion())

	// root + own radix node + own value
	require.Equal(t, 3, root.DeleteRadixTreeVersion())
	require.True(t, vOwn.released)
	require.False(t, vShared.released)
	require.Equal(t, []*Node{other}, shared.ParentNodes())
	require.Same(t, vShared, shared.ChildStateNode())
}
