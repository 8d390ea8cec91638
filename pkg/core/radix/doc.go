/*
Package radix implements the versioned radix tree used to index children of
a state tree node.

Every child of a state node is stored under its canonical radix label (the
lowercase hex encoding of the child's raw label bytes), so the tree has a
fan-out of at most 16. Paths are compressed: each edge carries a radix symbol
plus an arbitrary suffix and nodes are split or merged as labels are added or
removed.

Trees are persistent. Cloning a tree creates a new root that shares all of
its children with the source tree, a node reachable from more than one
parent is cloned before any mutation, so versions never observe each other's
writes.

Each node caches a proof hash together with tree height, size and byte
count of its subtree. These are recomputed explicitly (see
Tree.UpdateRadixInfoForRadixTree and Tree.UpdateRadixInfoForAllRootPaths),
which lets callers batch many writes before paying for hashing.
*/
package radix
