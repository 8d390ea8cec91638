package util

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Uint256Size is the size of Uint256 in bytes.
const Uint256Size = 32

// Uint256 is a 32 byte long unsigned integer. It's used to store digests
// (proof hashes) in big-endian byte order.
type Uint256 [Uint256Size]uint8

// Uint256DecodeStringBE attempts to decode the given string (in BE
// representation, with or without 0x prefix) into an Uint256.
func Uint256DecodeStringBE(s string) (u Uint256, err error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s) != Uint256Size*2 {
		return u, fmt.Errorf("expected string size of %d got %d", Uint256Size*2, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return u, err
	}
	return Uint256DecodeBytesBE(b)
}

// Uint256DecodeBytesBE attempts to decode the given bytes (in BE
// representation) into an Uint256.
func Uint256DecodeBytesBE(b []byte) (u Uint256, err error) {
	if len(b) != Uint256Size {
		return u, fmt.Errorf("expected []byte of size %d got %d", Uint256Size, len(b))
	}
	copy(u[:], b)
	return u, nil
}

// BytesBE returns a byte slice representation of u.
func (u Uint256) BytesBE() []byte {
	return u[:]
}

// Equals returns true if both Uint256 values are the same.
func (u Uint256) Equals(other Uint256) bool {
	return u == other
}

// IsZero returns true if u is an all-zero digest. Zero digests are used
// when hashing is disabled.
func (u Uint256) IsZero() bool {
	return u == Uint256{}
}

// StringBE produces string representation of Uint256 with BE byte order.
func (u Uint256) StringBE() string {
	return hex.EncodeToString(u[:])
}

// String implements the stringer interface. It returns 0x-prefixed BE
// hex string, an empty string is returned for zero digest.
func (u Uint256) String() string {
	if u.IsZero() {
		return ""
	}
	return "0x" + u.StringBE()
}

// CompareTo compares two Uint256 with each other. Possible output: 1, -1, 0.
//
//	 1 implies u > other.
//	-1 implies u < other.
//	 0 implies u = other.
func (u Uint256) CompareTo(other Uint256) int {
	for k := range u {
		if u[k] < other[k] {
			return -1
		} else if u[k] > other[k] {
			return 1
		}
	}
	return 0
}

// UnmarshalJSON implements the json unmarshaller interface.
func (u *Uint256) UnmarshalJSON(data []byte) (err error) {
	var js string
	if err = json.Unmarshal(data, &js); err != nil {
		return err
	}
	if js == "" {
		*u = Uint256{}
		return nil
	}
	*u, err = Uint256DecodeStringBE(js)
	return err
}

// MarshalJSON implements the json marshaller interface.
func (u Uint256) MarshalJSON() ([]byte, error) {
	return []byte(`"` + u.String() + `"`), nil
}
