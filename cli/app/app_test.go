package app

import (
	"bytes"
	"testing"

	"github.com/nspcc-dev/statetrie/pkg/config"
	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	config.Version = "0.1.0-test"
	ctl := New()
	out := new(bytes.Buffer)
	ctl.Writer = out
	require.NoError(t, ctl.Run([]string{"statetrie", "--version"}))
	require.Contains(t, out.String(), "Version: 0.1.0-test")
}

func TestCommands(t *testing.T) {
	ctl := New()
	for _, name := range []string{"build", "proof", "dump", "snapshot", "serve"} {
		require.NotNil(t, ctl.Command(name), name)
	}
}
