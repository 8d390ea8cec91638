package radix

import (
	"encoding/hex"
)

// NumRadixSymbols is the number of distinct radix symbols, it's also the
// maximum number of children a Node can have.
const NumRadixSymbols = 16

// ToRadixLabel converts raw child label into its canonical radix label, the
// lowercase hex representation of the label bytes.
func ToRadixLabel(label string) string {
	return hex.EncodeToString([]byte(label))
}

// FromRadixLabel converts canonical radix label back to the raw label.
func FromRadixLabel(radixLabel string) (string, error) {
	b, err := hex.DecodeString(radixLabel)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// radixIndex returns the child slot of the given radix symbol or -1 if
// the symbol is not a valid one.
func radixIndex(r byte) int {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0')
	case r >= 'a' && r <= 'f':
		return int(r-'a') + 10
	default:
		return -1
	}
}

func indexRadix(i int) byte {
	return "0123456789abcdef"[i]
}

func isRadixSymbol(r byte) bool {
	return radixIndex(r) >= 0
}

func isRadixString(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isRadixSymbol(s[i]) {
			return false
		}
	}
	return true
}

// matchLabelSuffix checks whether the label suffix of n matches radixLabel
// starting from the given index.
func matchLabelSuffix(n *Node, radixLabel string, index int) bool {
	suffix := n.LabelSuffix()
	if len(suffix) == 0 {
		return true
	}
	if index < 0 || index+len(suffix) > len(radixLabel) {
		return false
	}
	return radixLabel[index:index+len(suffix)] == suffix
}

// commonPrefix returns the longest common prefix of a and b.
func commonPrefix(a, b string) string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}
