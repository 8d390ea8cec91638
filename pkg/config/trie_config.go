package config

import (
	"fmt"

	"github.com/nspcc-dev/statetrie/pkg/core/radix"
	"github.com/nspcc-dev/statetrie/pkg/crypto/hash"
)

// Trie configuration defaults.
const (
	DefaultHashAlgorithm  = hash.Keccak256Name
	DefaultMaxSiblings    = 1000
	DefaultProofCacheSize = 1024
)

// TrieConfiguration contains radix tree settings.
type TrieConfiguration struct {
	// Lightweight disables proof hash computation.
	Lightweight bool `yaml:"Lightweight"`
	// HashAlgorithm is one of keccak256, sha256 or doublesha256.
	HashAlgorithm string `yaml:"HashAlgorithm"`
	// MaxSiblings limits the number of labels returned in one listing, 0
	// disables the limit.
	MaxSiblings int `yaml:"MaxSiblings"`
	// ProofCacheSize is the number of proofs of the final version kept in
	// memory, 0 disables caching.
	ProofCacheSize int `yaml:"ProofCacheSize"`
}

// Validate checks trie settings.
func (t TrieConfiguration) Validate() error {
	if _, err := hash.ByName(t.HashAlgorithm); err != nil {
		return err
	}
	if t.MaxSiblings < 0 {
		return fmt.Errorf("negative MaxSiblings: %d", t.MaxSiblings)
	}
	if t.ProofCacheSize < 0 {
		return fmt.Errorf("negative ProofCacheSize: %d", t.ProofCacheSize)
	}
	return nil
}

// RadixConfig converts trie settings into radix tree configuration.
func (t TrieConfiguration) RadixConfig() (radix.Config, error) {
	h, err := hash.ByName(t.HashAlgorithm)
	if err != nil {
		return radix.Config{}, err
	}
	return radix.Config{
		Lightweight: t.Lightweight,
		Hash:        h,
	}, nil
}
