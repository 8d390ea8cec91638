package radix

import (
	"errors"
	"fmt"

	json "github.com/nspcc-dev/go-ordered-json"
	"github.com/nspcc-dev/statetrie/pkg/util"
)

// Proof labels used in the JSON representation of proofs.
const (
	StateProofHashLabel = "#state_ph"
	RadixProofHashLabel = "#radix_ph"
	StateLabelPrefix    = "#state:"
	RadixLabelPrefix    = "#radix:"
)

var (
	// ErrProofMismatch is returned when proof hash of some proof node
	// doesn't match the one computed from its contents.
	ErrProofMismatch = errors.New("proof hash mismatch")
	// ErrInvalidProof is returned for structurally broken proofs.
	ErrInvalidProof = errors.New("invalid proof")
)

// Proof is a proof of a radix node. Nodes on the path from the tree root to
// the proven value carry the proof of the next node on the path, all other
// children are represented by their proof hashes only.
type Proof struct {
	IsRoot    bool
	ProofHash util.Uint256
	State     *StateProof
	Children  []ChildProof
}

// StateProof is the value entry of a Proof.
type StateProof struct {
	Label     string
	ProofHash util.Uint256
	// Proof is an opaque proof of the value supplied by the state tree,
	// nil for a stub.
	Proof any
}

// ChildProof is a child entry of a Proof.
type ChildProof struct {
	Label     string
	ProofHash util.Uint256
	// Proof is nil for a stub.
	Proof *Proof
}

// ProofOfRadixNode builds a proof of n. The child with childLabel label gets
// childProof attached, the value gets stateProof attached, everything else
// is stubbed.
func (n *Node) ProofOfRadixNode(childLabel string, childProof *Proof, stateProof any, isRoot bool) *Proof {
	p := &Proof{
		IsRoot:    isRoot,
		ProofHash: n.info.ProofHash,
	}
	if v := n.childStateNode; v != nil {
		p.State = &StateProof{
			Label:     v.Label(),
			ProofHash: v.ProofHash(),
			Proof:     stateProof,
		}
	}
	for _, c := range n.children.nodes() {
		cp := ChildProof{
			Label:     c.Label(),
			ProofHash: c.info.ProofHash,
		}
		if childProof != nil && cp.Label == childLabel {
			cp.Proof = childProof
		}
		p.Children = append(p.Children, cp)
	}
	return p
}

// ComputeProofHash recomputes proof hash of p from its contents checking
// every nested child proof against the hash it is referenced by.
func (p *Proof) ComputeProofHash(cfg Config) (util.Uint256, error) {
	var (
		valueHash *util.Uint256
		children  = make([]childHash, 0, len(p.Children))
	)
	if p.State != nil {
		valueHash = &p.State.ProofHash
	}
	for i, c := range p.Children {
		if len(c.Label) == 0 || !isRadixString(c.Label) {
			return util.Uint256{}, fmt.Errorf("%w: bad child label %q", ErrInvalidProof, c.Label)
		}
		if i > 0 && p.Children[i-1].Label[0] >= c.Label[0] {
			return util.Uint256{}, fmt.Errorf("%w: children are not ordered", ErrInvalidProof)
		}
		if c.Proof != nil {
			if c.Proof.IsRoot {
				return util.Uint256{}, fmt.Errorf("%w: nested root proof", ErrInvalidProof)
			}
			h, err := c.Proof.ComputeProofHash(cfg)
			if err != nil {
				return util.Uint256{}, fmt.Errorf("%s%s: %w", RadixLabelPrefix, c.Label, err)
			}
			if h != c.ProofHash {
				return util.Uint256{}, fmt.Errorf("%w at %s%s", ErrProofMismatch, RadixLabelPrefix, c.Label)
			}
		}
		children = append(children, childHash{label: c.Label, proofHash: c.ProofHash})
	}
	h := cfg.hashFunc()([]byte(proofPreimage(valueHash, children)))
	if h != p.ProofHash {
		return h, ErrProofMismatch
	}
	return h, nil
}

// VerifyProof checks that p is a consistent root proof resolving to
// rootHash. Proofs can't be verified for lightweight trees.
func VerifyProof(rootHash util.Uint256, p *Proof, cfg Config) error {
	if cfg.Lightweight {
		return fmt.Errorf("%w: proof hashes are disabled", ErrInvalidProof)
	}
	if p == nil || !p.IsRoot {
		return fmt.Errorf("%w: not a root proof", ErrInvalidProof)
	}
	h, err := p.ComputeProofHash(cfg)
	if err != nil {
		return err
	}
	if h != rootHash {
		return fmt.Errorf("%w: root %s, expected %s", ErrProofMismatch, h, rootHash)
	}
	return nil
}

// ToOrderedObject converts p into its JSON representation with stable key
// order.
func (p *Proof) ToOrderedObject() json.OrderedObject {
	phLabel := RadixProofHashLabel
	if p.IsRoot {
		phLabel = StateProofHashLabel
	}
	obj := json.OrderedObject{{Key: phLabel, Value: p.ProofHash}}
	if p.State != nil {
		var v any = json.OrderedObject{{Key: StateProofHashLabel, Value: p.State.ProofHash}}
		if p.State.Proof != nil {
			v = p.State.Proof
		}
		obj = append(obj, json.Member{Key: StateLabelPrefix + p.State.Label, Value: v})
	}
	for _, c := range p.Children {
		var v any = json.OrderedObject{{Key: RadixProofHashLabel, Value: c.ProofHash}}
		if c.Proof != nil {
			v = c.Proof.ToOrderedObject()
		}
		obj = append(obj, json.Member{Key: RadixLabelPrefix + c.Label, Value: v})
	}
	return obj
}

// MarshalJSON implements the json.Marshaler interface.
func (p *Proof) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.ToOrderedObject())
}
