package filex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir_CreatesNested(t *testing.T) {
	base := t.TempDir()
	dir, err := EnsureDir(filepath.Join(base, "a", "b"))
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.True(t, filepath.IsAbs(dir))

	_, err = EnsureDir(dir)
	require.NoError(t, err, "existing directory is fine")
}

func TestEnsureDir_FailsOnFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(f, []byte("x"), 0o600))

	_, err := EnsureDir(filepath.Join(f, "sub"))
	require.Error(t, err)
}

func TestEnsureParentDir(t *testing.T) {
	p := filepath.Join(t.TempDir(), "data", "prompts.db")
	require.NoError(t, EnsureParentDir(p))

	_, err := os.Stat(filepath.Dir(p))
	require.NoError(t, err)
}

func TestDefaultDataDir(t *testing.T) {
	assert.NotEmpty(t, DefaultDataDir("promptkeeper"))
}
