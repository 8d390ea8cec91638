package radix

import (
	"strings"

	"github.com/nspcc-dev/statetrie/pkg/crypto/hash"
	"github.com/nspcc-dev/statetrie/pkg/io"
	"github.com/nspcc-dev/statetrie/pkg/util"
)

// HashDelimiter separates parts of a proof hash preimage.
const HashDelimiter = "#"

// Config contains radix tree hashing parameters.
type Config struct {
	// Lightweight disables proof hash computation, proof hashes are all
	// zero then while other subtree data is still maintained.
	Lightweight bool
	// Hash is the digest primitive, Keccak256 is used when nil.
	Hash hash.Func
}

func (c Config) hashFunc() hash.Func {
	if c.Hash == nil {
		return hash.Keccak256
	}
	return c.Hash
}

// proofPreimage builds the string proof hash of n is computed over. It
// consists of the value proof hash (if any), a delimiter and either one more
// delimiter for a childless node or "#<label>#<proof hash>" for every child
// in ascending radix order.
func proofPreimage(valueHash *util.Uint256, children []childHash) string {
	var b strings.Builder
	if valueHash != nil {
		b.WriteString(valueHash.String())
	}
	b.WriteString(HashDelimiter)
	if len(children) == 0 {
		b.WriteString(HashDelimiter)
	}
	for _, c := range children {
		b.WriteString(HashDelimiter)
		b.WriteString(c.label)
		b.WriteString(HashDelimiter)
		b.WriteString(c.proofHash.String())
	}
	return b.String()
}

type childHash struct {
	label     string
	proofHash util.Uint256
}

// BuildRadixInfo computes subtree data of n from its value and cached data
// of its children.
func (n *Node) BuildRadixInfo(cfg Config) Info {
	var (
		info      Info
		valueHash *util.Uint256
		children  = n.children.nodes()
		proofs    = make([]childHash, 0, len(children))
	)
	if v := n.childStateNode; v != nil {
		h := v.ProofHash()
		valueHash = &h
		info.TreeHeight = v.TreeHeight()
		info.TreeSize = v.TreeSize()
		info.TreeBytes = uint64(io.GetVarSize(v.Label())) + v.TreeBytes()
	}
	for _, c := range children {
		proofs = append(proofs, childHash{label: c.Label(), proofHash: c.info.ProofHash})
		if c.info.TreeHeight > info.TreeHeight {
			info.TreeHeight = c.info.TreeHeight
		}
		info.TreeSize += c.info.TreeSize
		info.TreeBytes += c.info.TreeBytes
	}
	if !cfg.Lightweight {
		info.ProofHash = cfg.hashFunc()([]byte(proofPreimage(valueHash, proofs)))
	}
	return info
}

// UpdateRadixInfo recomputes subtree data of n assuming children data is
// up to date.
func (n *Node) UpdateRadixInfo(cfg Config) {
	n.info = n.BuildRadixInfo(cfg)
}

// VerifyRadixInfo checks cached subtree data of n against its value and
// children.
func (n *Node) VerifyRadixInfo(cfg Config) bool {
	return n.info == n.BuildRadixInfo(cfg)
}

// UpdateRadixInfoForRadixTree recomputes subtree data of every node of the
// subtree rooted at n bottom-up. It returns the number of updated nodes.
func (n *Node) UpdateRadixInfoForRadixTree(cfg Config) int {
	var updated int
	for _, c := range n.children.nodes() {
		updated += c.UpdateRadixInfoForRadixTree(cfg)
	}
	n.UpdateRadixInfo(cfg)
	return updated + 1
}

// UpdateRadixInfoForAllRootPaths recomputes subtree data of n and of all its
// ancestors in every version sharing it. It returns the number of updated
// nodes.
func (n *Node) UpdateRadixInfoForAllRootPaths(cfg Config) int {
	n.UpdateRadixInfo(cfg)
	updated := 1
	for _, p := range n.parents {
		updated += p.UpdateRadixInfoForAllRootPaths(cfg)
	}
	return updated
}

// VerifyRadixInfoForRadixTree checks cached subtree data of all nodes of the
// subtree rooted at n.
func (n *Node) VerifyRadixInfoForRadixTree(cfg Config) bool {
	for _, c := range n.children.nodes() {
		if !c.VerifyRadixInfoForRadixTree(cfg) {
			return false
		}
	}
	return n.VerifyRadixInfo(cfg)
}

// Mismatch describes the first node whose cached proof hash differs from the
// computed one.
type Mismatch struct {
	// Path is a sequence of radix labels leading to the node.
	Path     []string
	Cached   util.Uint256
	Computed util.Uint256
}

// verifyProofHash walks the subtree of n and reports the first node whose
// cached proof hash doesn't match its children and value.
func (n *Node) verifyProofHash(cfg Config, path []string) *Mismatch {
	for _, c := range n.children.nodes() {
		if m := c.verifyProofHash(cfg, append(path, c.Label())); m != nil {
			return m
		}
	}
	computed := n.BuildRadixInfo(cfg).ProofHash
	if computed != n.info.ProofHash {
		p := make([]string, len(path))
		copy(p, path)
		return &Mismatch{Path: p, Cached: n.info.ProofHash, Computed: computed}
	}
	return nil
}
