package hash

import (
	"crypto/sha256"
	"fmt"

	"github.com/nspcc-dev/statetrie/pkg/util"
	"golang.org/x/crypto/sha3"
)

// Func is a digest primitive used to compute proof hashes.
type Func func([]byte) util.Uint256

// Supported hash algorithm names.
const (
	Keccak256Name    = "keccak256"
	Sha256Name       = "sha256"
	DoubleSha256Name = "doublesha256"
)

// Sha256 hashes the incoming byte slice
// using the sha256 algorithm.
func Sha256(data []byte) util.Uint256 {
	return sha256.Sum256(data)
}

// DoubleSha256 performs sha256 twice on the given data.
func DoubleSha256(data []byte) util.Uint256 {
	h1 := Sha256(data)
	return Sha256(h1[:])
}

// Keccak256 hashes the incoming byte slice using the legacy (pre-standard)
// Keccak-256 algorithm, the one used by Ethereum-compatible chains.
func Keccak256(data []byte) util.Uint256 {
	var h util.Uint256
	d := sha3.NewLegacyKeccak256()
	_, _ = d.Write(data)
	d.Sum(h[:0])
	return h
}

// ByName returns hash function by its configuration name. Empty name means
// the default one (Keccak256).
func ByName(name string) (Func, error) {
	switch name {
	case "", Keccak256Name:
		return Keccak256, nil
	case Sha256Name:
		return Sha256, nil
	case DoubleSha256Name:
		return DoubleSha256, nil
	default:
		return nil, fmt.Errorf("unknown hash algorithm: %s", name)
	}
}
