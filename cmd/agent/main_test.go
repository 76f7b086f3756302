package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_MissingFileIsNotAnError(t *testing.T) {
	loaded, err := loadEnv(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)
	assert.False(t, loaded)
}

func TestLoadEnv_SetsVariables(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PAGESENTRY_AGENT_ENV_CHECK=from-file\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("PAGESENTRY_AGENT_ENV_CHECK") })

	loaded, err := loadEnv(path)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, "from-file", os.Getenv("PAGESENTRY_AGENT_ENV_CHECK"))
}

func TestLoadEnv_DirectoryIsAnError(t *testing.T) {
	loaded, err := loadEnv(t.TempDir())
	assert.Error(t, err)
	assert.False(t, loaded)
}
