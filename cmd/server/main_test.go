package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeReturnsExitCodeOnConfigError(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("DEVELOPMENT", "false")
	t.Setenv("JWT_SECRET", "your-secret-key-change-in-production")
	assert.Equal(t, 1, serve())

	t.Setenv("JWT_SECRET", "private")
	t.Setenv("STORAGE_DRIVER", "redis")
	assert.Equal(t, 1, serve())
}
