package random

import (
	"math/rand"
	"time"
)

// String returns a random string of n printable ASCII letters.
func String(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(Int(65, 90))
	}

	return string(b)
}

// Bytes returns a random byte slice of the specified length.
func Bytes(n int) []byte {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return b
}

// Int returns a random integer in [min,max).
func Int(min, max int) int {
	return min + rand.Intn(max-min)
}

// Labels returns n distinct random labels of length up to maxLen built from
// the given alphabet using r as the source.
func Labels(r *rand.Rand, n, maxLen int, alphabet []byte) []string {
	var (
		seen = make(map[string]bool, n)
		res  = make([]string, 0, n)
	)
	for len(res) < n {
		b := make([]byte, 1+r.Intn(maxLen))
		for i := range b {
			b[i] = alphabet[r.Intn(len(alphabet))]
		}
		if l := string(b); !seen[l] {
			seen[l] = true
			res = append(res, l)
		}
	}
	return res
}

func init() {
	rand.Seed(time.Now().UTC().UnixNano())
}
