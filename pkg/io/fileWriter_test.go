package io

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMakeDirForFile(t *testing.T) {
	t.Run("good", func(t *testing.T) {
		filePath := filepath.Join(t.TempDir(), "testDir", "testFile.test")
		require.NoError(t, MakeDirForFile(filePath, "test"))

		f, err := os.Create(filePath)
		require.NoError(t, err)
		require.NoError(t, f.Close())
	})
	t.Run("file in the way", func(t *testing.T) {
		filePath := filepath.Join(t.TempDir(), "testFile.test")
		require.NoError(t, os.WriteFile(filePath, nil, 0644))
		require.Error(t, MakeDirForFile(filepath.Join(filePath, "error"), "test"))
	})
}
