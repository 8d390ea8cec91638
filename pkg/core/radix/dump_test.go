package radix

import (
	"testing"

	json "github.com/nspcc-dev/go-ordered-json"
	"github.com/stretchr/testify/require"
)

func TestDump(t *testing.T) {
	tr := newTestTree(t, "v1")
	setValues(t, tr, "a", "b")

	data, err := json.Marshal(tr.Dump(DumpOptions{}))
	require.NoError(t, err)
	require.Equal(t, `{"6":{"1":{"#state:a":{}},"2":{"#state:b":{}}}}`, string(data))

	data, err = json.Marshal(tr.Dump(DumpOptions{WithVersion: true, WithSerial: true, WithNumParents: true}))
	require.NoError(t, err)
	require.Equal(t, `{"#version":"v1","#serial":0,"#num_parents":0,`+
		`"6":{"#version":"v1","#serial":3,"#num_parents":1,`+
		`"1":{"#version":"v1","#serial":2,"#num_parents":1,"#state:a":{}},`+
		`"2":{"#version":"v1","#serial":5,"#num_parents":1,"#state:b":{}}},`+
		`"#next_serial":6}`, string(data))

	tr.UpdateRadixInfoForRadixTree()
	obj := tr.Dump(DumpOptions{WithProofHash: true, WithTreeInfo: true, WithHasParentStateNode: true})
	require.Equal(t, RadixProofHashLabel, obj[0].Key)
	require.Equal(t, tr.RootProofHash(), obj[0].Value)
	require.Equal(t, TreeSizeLabel, obj[2].Key)
	require.Equal(t, uint64(2), obj[2].Value)
	require.Equal(t, HasParentStateNodeLabel, obj[4].Key)
	require.Equal(t, false, obj[4].Value)
}
