package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashes(t *testing.T) {
	testCases := []struct {
		name     string
		f        Func
		input    string
		expected string
	}{
		{"sha256 empty", Sha256, "", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"sha256 abc", Sha256, "abc", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{"double sha256 empty", DoubleSha256, "", "5df6e0e2761359d30a8275058e299fcc0381534545f55cf43e41983f5d4c9456"},
		{"keccak256 empty", Keccak256, "", "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"},
		{"keccak256 abc", Keccak256, "abc", "4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.f([]byte(tc.input)).StringBE())
		})
	}
}

func TestByName(t *testing.T) {
	for name, expected := range map[string]string{
		"":               Keccak256([]byte("x")).StringBE(),
		Keccak256Name:    Keccak256([]byte("x")).StringBE(),
		Sha256Name:       Sha256([]byte("x")).StringBE(),
		DoubleSha256Name: DoubleSha256([]byte("x")).StringBE(),
	} {
		f, err := ByName(name)
		require.NoError(t, err, name)
		require.Equal(t, expected, f([]byte("x")).StringBE(), name)
	}

	_, err := ByName("md5")
	require.Error(t, err)
}
