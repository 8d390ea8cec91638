package radix

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/nspcc-dev/statetrie/pkg/util"
	"github.com/stretchr/testify/require"
)

func TestTree_SetGet(t *testing.T) {
	tr := newTestTree(t, "v1")
	setValues(t, tr, "/a/b", "/a/c")
	tr.UpdateRadixInfoForRadixTree()

	require.Equal(t, "v-/a/b", getValue(tr, "/a/b"))
	require.Equal(t, "v-/a/c", getValue(tr, "/a/c"))
	require.Nil(t, tr.Get("/a"))
	require.Nil(t, tr.Get("/a/bb"))
	require.False(t, tr.Has("/a/d"))
	require.Equal(t, 2, tr.NumChildStateNodes())
	require.Equal(t, uint64(2), tr.RootTreeSize())
	require.Equal(t, uint64(1), tr.RootTreeHeight())
	checkStructure(t, tr.Root(), true)

	require.ErrorIs(t, tr.Set("x", nil), ErrNilStateNode)
}

func TestTree_Replace(t *testing.T) {
	tr := newTestTree(t, "v1")
	setValues(t, tr, "a", "b")
	old := tr.Get("a").(*testValue)

	require.NoError(t, tr.Set("a", newTestValue("a", "new")))
	require.Equal(t, "new", getValue(tr, "a"))
	require.Empty(t, old.parents)
	require.Equal(t, 2, tr.NumChildStateNodes())
	require.Equal(t, []string{"a", "b"}, tr.ChildStateLabels())
}

func TestTree_SplitAndMerge(t *testing.T) {
	tr := newTestTree(t, "v1")
	setValues(t, tr, "aaa", "aab")
	tr.UpdateRadixInfoForRadixTree()
	checkStructure(t, tr.Root(), true)

	root := tr.Root()
	require.Equal(t, 1, root.NumChildren())
	internal := root.Child('6')
	require.Equal(t, "61616", internal.Label())
	require.False(t, internal.HasChildStateNode())
	require.Equal(t, 2, internal.NumChildren())
	require.Equal(t, "1", internal.Child('1').Label())
	require.Equal(t, "2", internal.Child('2').Label())

	require.NoError(t, tr.Delete("aab", true))
	checkStructure(t, tr.Root(), true)
	require.Equal(t, 1, root.NumChildren())
	merged := root.Child('6')
	require.Equal(t, "616161", merged.Label())
	require.Zero(t, merged.NumChildren())
	require.Equal(t, "v-aaa", getValue(tr, "aaa"))
	require.True(t, tr.VerifyRadixInfoForRadixTree())
}

func TestTree_SplitOnPrefixLabel(t *testing.T) {
	tr := newTestTree(t, "v1")
	setValues(t, tr, "abc", "a")
	checkStructure(t, tr.Root(), true)

	n := tr.Root().Child('6')
	require.Equal(t, "61", n.Label())
	require.Equal(t, "v-a", n.ChildStateNode().(*testValue).value)
	require.Equal(t, 1, n.NumChildren())
	require.Equal(t, "6263", n.Child('6').Label())

	// "ab" ends at an internal node without a value.
	setValues(t, tr, "ab\x01", "ab\x11")
	tr.UpdateRadixInfoForRadixTree()
	internal := n.Child('6')
	require.Equal(t, "62", internal.Label())
	require.False(t, internal.HasChildStateNode())
	require.Equal(t, 3, internal.NumChildren())
	require.Nil(t, tr.Get("ab"))
	require.False(t, tr.Has("ab"))
	require.ErrorIs(t, tr.Delete("ab", true), ErrNotFound)

	require.NoError(t, tr.Delete("a", true))
	checkStructure(t, tr.Root(), true)
	require.Same(t, internal, tr.Root().Child('6'))
	require.Equal(t, "6162", internal.Label())
	require.Equal(t, []string{"abc", "ab\x01", "ab\x11"}, tr.ChildStateLabels())
	require.True(t, tr.VerifyRadixInfoForRadixTree())
}

func TestTree_Delete(t *testing.T) {
	tr := newTestTree(t, "v1")
	setValues(t, tr, "a", "ab")

	require.ErrorIs(t, tr.Delete("b", false), ErrNotFound)
	require.ErrorIs(t, tr.Delete("abc", false), ErrNotFound)

	setValues(t, tr, "abc", "abd")
	require.NoError(t, tr.Set("", newTestValue("", "root")))
	require.ErrorIs(t, tr.Delete("", false), ErrRootNode)
	tr.UpdateRadixInfoForRadixTree()

	for _, l := range []string{"ab", "a", "abd", "abc"} {
		require.NoError(t, tr.Delete(l, true), l)
		require.Nil(t, tr.Get(l))
		checkStructure(t, tr.Root(), true)
		require.True(t, tr.VerifyRadixInfoForRadixTree())
	}
	require.Equal(t, 1, tr.NumChildStateNodes())
	require.Zero(t, tr.Root().NumChildren())
}

func TestTree_SerialOrder(t *testing.T) {
	tr := newTestTree(t, "v1")
	labels := []string{"z", "b", "bb", "a", "ba", "c"}
	setValues(t, tr, labels...)
	require.Equal(t, labels, tr.ChildStateLabels())

	require.NoError(t, tr.Delete("b", false))
	setValues(t, tr, "b")
	expected := []string{"z", "bb", "a", "ba", "c", "b"}
	require.Equal(t, expected, tr.ChildStateLabels())

	nodes := tr.ChildStateNodes()
	require.Len(t, nodes, len(expected))
	for i := range nodes {
		require.Equal(t, expected[i], nodes[i].Label())
	}

	entries := tr.Entries()
	for i := 1; i < len(entries); i++ {
		require.Less(t, entries[i-1].Serial, entries[i].Serial)
	}

	page := tr.EntriesAfter("", 2)
	require.Equal(t, "z", page[0].Label)
	require.Equal(t, "bb", page[1].Label)
	page = tr.EntriesAfter("bb", 3)
	require.Len(t, page, 3)
	require.Equal(t, "a", page[0].Label)
	require.Equal(t, "c", page[2].Label)
	require.Len(t, tr.EntriesAfter("c", 0), 1)
	require.Empty(t, tr.EntriesAfter("unknown", 0))
}

func TestTree_Clone(t *testing.T) {
	v1 := newTestTree(t, "v1")
	setValues(t, v1, "aaa", "aab", "b")
	v1.UpdateRadixInfoForRadixTree()
	h1 := v1.RootProofHash()

	v2 := v1.Clone("v2", nil)
	require.Equal(t, "v2", v2.Version())
	require.Equal(t, v1.NextSerial(), v2.NextSerial())
	require.Equal(t, 3, v2.NumChildStateNodes())
	require.Equal(t, h1, v2.RootProofHash())

	shared := v1.Root().Child('6')
	require.Equal(t, 2, shared.NumParents())

	setValues(t, v2, "aac", "c")
	require.NoError(t, v2.Set("b", newTestValue("b", "changed")))
	require.NoError(t, v2.Delete("aaa", true))
	v2.UpdateRadixInfoForAllRootPaths("aac")
	v2.UpdateRadixInfoForAllRootPaths("c")
	v2.UpdateRadixInfoForAllRootPaths("b")

	for _, l := range []string{"aaa", "aab", "b"} {
		require.Equal(t, "v-"+l, getValue(v1, l), l)
	}
	require.Nil(t, v1.Get("aac"))
	require.Nil(t, v1.Get("c"))
	require.Equal(t, 3, v1.NumChildStateNodes())
	require.Equal(t, h1, v1.RootProofHash())
	require.True(t, v1.VerifyRadixInfoForRadixTree())

	require.Nil(t, v2.Get("aaa"))
	require.Equal(t, "v-aab", getValue(v2, "aab"))
	require.Equal(t, "v-aac", getValue(v2, "aac"))
	require.Equal(t, "changed", getValue(v2, "b"))
	require.Equal(t, 4, v2.NumChildStateNodes())
	require.True(t, v2.VerifyRadixInfoForRadixTree())

	// The node v1 holds is the same object as before, v2 got its own copy.
	require.Same(t, shared, v1.Root().Child('6'))
	require.NotSame(t, shared, v2.Root().Child('6'))
	require.Equal(t, 1, shared.NumParents())
}

func TestTree_CloneUntouchedSubtreeIsShared(t *testing.T) {
	v1 := newTestTree(t, "v1")
	setValues(t, v1, "a1", "a2", "b1", "b2")
	v2 := v1.Clone("v2", nil)
	setValues(t, v2, "a3")

	bNode := v1.Root().Child('6').Child('2')
	require.NotNil(t, bNode)
	require.Equal(t, "23", bNode.Label())
	require.Same(t, bNode, v2.Root().Child('6').Child('2'))
	require.Equal(t, 2, bNode.NumParents())
}

func TestTree_DeleteRadixTreeVersion(t *testing.T) {
	t.Run("exclusive", func(t *testing.T) {
		tr := newTestTree(t, "v1")
		setValues(t, tr, "a", "b")
		values := []*testValue{tr.Get("a").(*testValue), tr.Get("b").(*testValue)}

		// root + internal node "6" + 2 value nodes + 2 values
		require.Equal(t, 6, tr.DeleteRadixTreeVersion())
		require.Zero(t, tr.NumChildStateNodes())
		require.False(t, tr.HasChildStateNodes())
		require.Zero(t, tr.Root().NumChildren())
		for _, v := range values {
			require.True(t, v.released)
		}
	})
	t.Run("shared with a clone", func(t *testing.T) {
		v1 := newTestTree(t, "v1")
		setValues(t, v1, "a", "b")
		v2 := v1.Clone("v2", nil)

		require.Equal(t, 1, v2.DeleteRadixTreeVersion())
		require.Equal(t, "v-a", getValue(v1, "a"))
		require.Equal(t, "v-b", getValue(v1, "b"))
		checkStructure(t, v1.Root(), true)
	})
	t.Run("referenced root", func(t *testing.T) {
		tr := newTestTree(t, "v1")
		setValues(t, tr, "a")
		holder := NewNode("v0", 0, nil)
		require.NoError(t, holder.SetChild('0', "", tr.Root()))

		require.Zero(t, tr.DeleteRadixTreeVersion())
		require.Equal(t, 1, tr.NumChildStateNodes())
		require.Equal(t, "v-a", getValue(tr, "a"))
	})
}

func TestTree_SetVersion(t *testing.T) {
	tr := newTestTree(t, "v1")
	tr.SetVersion("v2")
	require.Equal(t, "v2", tr.Version())
	require.Equal(t, "v2", tr.Root().Version())

	setValues(t, tr, "a")
	require.Equal(t, "v2", tr.Root().Child('6').Version())
}

// TestTree_Random applies random operations to a tree checking it against
// a map after every step.
func TestTree_Random(t *testing.T) {
	var (
		r        = rand.New(rand.NewSource(42))
		tr       = newTestTree(t, "v1")
		expected = make(map[string]string)
		alphabet = []byte("ab\x00\x10\xff")
	)
	randLabel := func() string {
		b := make([]byte, 1+r.Intn(4))
		for i := range b {
			b[i] = alphabet[r.Intn(len(alphabet))]
		}
		return string(b)
	}
	for i := 0; i < 2000; i++ {
		l := randLabel()
		if _, ok := expected[l]; ok && r.Intn(2) == 0 {
			require.NoError(t, tr.Delete(l, true))
			delete(expected, l)
		} else {
			val := fmt.Sprintf("%d", i)
			require.NoError(t, tr.Set(l, newTestValue(l, val)))
			tr.UpdateRadixInfoForAllRootPaths(l)
			expected[l] = val
		}
		require.Equal(t, len(expected), tr.NumChildStateNodes())
	}
	checkStructure(t, tr.Root(), true)
	require.True(t, tr.VerifyRadixInfoForRadixTree())
	require.Nil(t, tr.VerifyProofHashForRadixTree())

	for l, v := range expected {
		require.Equal(t, v, getValue(tr, l))
	}
	labels := tr.ChildStateLabels()
	require.Len(t, labels, len(expected))
	for _, l := range labels {
		require.Contains(t, expected, l)
	}

	// A tree built from scratch out of the same data has the same hash.
	keys := make([]string, 0, len(expected))
	for l := range expected {
		keys = append(keys, l)
	}
	sort.Strings(keys)
	fresh := newTestTree(t, "fresh")
	for _, l := range keys {
		require.NoError(t, fresh.Set(l, newTestValue(l, expected[l])))
	}
	fresh.UpdateRadixInfoForRadixTree()
	require.Equal(t, fresh.RootProofHash(), tr.RootProofHash())
	require.Equal(t, fresh.RadixInfo(), tr.RadixInfo())
}

func emptyRootHash(t *testing.T) util.Uint256 {
	tr := newTestTree(t, "empty")
	tr.UpdateRadixInfoForRadixTree()
	return tr.RootProofHash()
}

// checkNoDeadNodes checks that every non-root node reachable from n holds
// a value or has children, shared nodes included.
func checkNoDeadNodes(t *testing.T, n *Node, isRoot bool) {
	if !isRoot {
		require.True(t, n.HasChildStateNode() || n.HasChildren(), "dead node %q", n.Label())
	}
	for _, c := range n.ChildNodes() {
		require.True(t, c.HasParent(n))
		checkNoDeadNodes(t, c, false)
	}
}

func TestTree_DeleteAfterSkippedMerge(t *testing.T) {
	v1 := newTestTree(t, "v1")
	setValues(t, v1, "p1", "p2")
	v1.UpdateRadixInfoForRadixTree()
	h1 := v1.RootProofHash()

	v2 := v1.Clone("v2", nil)
	require.NoError(t, v2.Delete("p1", true))
	// The remaining child is shared with v1, so it's not merged.
	require.Equal(t, 1, v2.Root().Child('7').NumChildren())

	require.NoError(t, v2.Delete("p2", true))
	require.False(t, v2.Root().HasChildren())
	require.Zero(t, v2.NumChildStateNodes())
	require.Equal(t, emptyRootHash(t), v2.RootProofHash())

	require.Equal(t, "v-p1", getValue(v1, "p1"))
	require.Equal(t, "v-p2", getValue(v1, "p2"))
	require.Equal(t, h1, v1.RootProofHash())
	checkStructure(t, v1.Root(), true)
}

func TestTree_DeleteMissingKeepsSharing(t *testing.T) {
	v1 := newTestTree(t, "v1")
	setValues(t, v1, "p1", "p2")
	v2 := v1.Clone("v2", nil)

	shared := v1.Root().Child('7')
	require.Equal(t, 2, shared.NumParents())
	for _, l := range []string{"p3", "p", "q", "p12"} {
		require.ErrorIs(t, v2.Delete(l, true), ErrNotFound, l)
	}
	require.Equal(t, 2, shared.NumParents())
	require.Same(t, shared, v2.Root().Child('7'))
	require.Equal(t, 2, v2.NumChildStateNodes())
}

func TestTree_RandomVersions(t *testing.T) {
	const numVersions = 4
	var (
		r        = rand.New(rand.NewSource(7))
		alphabet = []byte("pq\x00\x01")
		trees    = make([]*Tree, numVersions)
		expected = make([]map[string]string, numVersions)
		serial   int
	)
	randLabel := func() string {
		b := make([]byte, 1+r.Intn(3))
		for i := range b {
			b[i] = alphabet[r.Intn(len(alphabet))]
		}
		return string(b)
	}
	for i := range trees {
		trees[i] = newTestTree(t, fmt.Sprintf("v%d", i))
		trees[i].UpdateRadixInfoForRadixTree()
		expected[i] = make(map[string]string)
	}
	for step := 0; step < 3000; step++ {
		i := r.Intn(numVersions)
		switch op := r.Intn(10); {
		case op == 0:
			// Replace version i with a clone of another one.
			j := r.Intn(numVersions)
			if j == i {
				continue
			}
			serial++
			clone := trees[j].Clone(fmt.Sprintf("v%d.%d", i, serial), nil)
			trees[i].DeleteRadixTreeVersion()
			trees[i] = clone
			expected[i] = make(map[string]string, len(expected[j]))
			for l, v := range expected[j] {
				expected[i][l] = v
			}
		case op < 5:
			l := randLabel()
			if _, ok := expected[i][l]; !ok {
				require.ErrorIs(t, trees[i].Delete(l, true), ErrNotFound)
				continue
			}
			require.NoError(t, trees[i].Delete(l, true))
			delete(expected[i], l)
		default:
			l := randLabel()
			val := fmt.Sprintf("%d", step)
			require.NoError(t, trees[i].Set(l, newTestValue(l, val)))
			trees[i].UpdateRadixInfoForAllRootPaths(l)
			expected[i][l] = val
		}
		for k, tr := range trees {
			require.Equal(t, len(expected[k]), tr.NumChildStateNodes(), "step %d", step)
			checkNoDeadNodes(t, tr.Root(), true)
		}
	}
	for k, tr := range trees {
		for l, v := range expected[k] {
			require.Equal(t, v, getValue(tr, l))
		}
		require.True(t, tr.VerifyRadixInfoForRadixTree())
		require.Nil(t, tr.VerifyProofHashForRadixTree())
	}

	// Draining every version leaves empty roots whatever the history was.
	empty := emptyRootHash(t)
	for k, tr := range trees {
		for l := range expected[k] {
			require.NoError(t, tr.Delete(l, true))
		}
		require.False(t, tr.Root().HasChildren(), tr.Version())
		require.Equal(t, empty, tr.RootProofHash(), tr.Version())
	}
}
