package radix

// childMap is a fixed-size child table indexed by radix symbol. Iteration
// order is always ascending by symbol.
type childMap struct {
	size     int
	children [NumRadixSymbols]*Node
}

func (m *childMap) get(r byte) *Node {
	i := radixIndex(r)
	if i < 0 {
		return nil
	}
	return m.children[i]
}

func (m *childMap) has(r byte) bool {
	return m.get(r) != nil
}

// set puts n into the slot of r, it returns false if r is not a valid radix
// symbol.
func (m *childMap) set(r byte, n *Node) bool {
	i := radixIndex(r)
	if i < 0 {
		return false
	}
	if m.children[i] == nil {
		m.size++
	}
	m.children[i] = n
	return true
}

func (m *childMap) delete(r byte) bool {
	i := radixIndex(r)
	if i < 0 || m.children[i] == nil {
		return false
	}
	m.children[i] = nil
	m.size--
	return true
}

func (m *childMap) radices() []byte {
	res := make([]byte, 0, m.size)
	for i, c := range m.children {
		if c != nil {
			res = append(res, indexRadix(i))
		}
	}
	return res
}

func (m *childMap) nodes() []*Node {
	res := make([]*Node, 0, m.size)
	for _, c := range m.children {
		if c != nil {
			res = append(res, c)
		}
	}
	return res
}

func (m *childMap) reset() {
	*m = childMap{}
}
