package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s KVStore) {
	t.Helper()

	_, ok, err := s.Get("so-cart")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("so-cart", `[{"id":"T1"}]`))
	v, ok, err := s.Get("so-cart")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"T1"}]`, v)

	require.NoError(t, s.Set("so-cart", `[]`))
	v, _, err = s.Get("so-cart")
	require.NoError(t, err)
	assert.Equal(t, `[]`, v)

	require.NoError(t, s.Set("so-inventory-sleeping-bags", `[]`))
	assert.ErrorIs(t, s.Set("../escape", "x"), ErrInvalidKey)
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	exerciseStore(t, s)
	assert.True(t, s.Exists("so-cart"))
	assert.False(t, s.Exists("so-missing"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.Equal(t, FileExt, filepath.Ext(e.Name()), "leftover file %s", e.Name())
	}

	_, _, err = s.Get("Bad Key")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestFileStoresShareDirectory(t *testing.T) {
	dir := t.TempDir()
	a, err := NewFileStore(dir)
	require.NoError(t, err)
	b, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, a.Set("so-cart", "from-a"))
	v, ok, err := b.Get("so-cart")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "from-a", v)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)
}

func TestKeyFromPath(t *testing.T) {
	key, ok := KeyFromPath("/tmp/data/so-inventory-tents.json")
	assert.True(t, ok)
	assert.Equal(t, "so-inventory-tents", key)

	_, ok = KeyFromPath("/tmp/data/.so-cart-123.tmp")
	assert.False(t, ok)
	_, ok = KeyFromPath("/tmp/data/README.md")
	assert.False(t, ok)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, closeFn, err := Open(ctx, Options{Driver: "file", DataDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)
	assert.NoError(t, closeFn())

	s, closeFn, err = Open(ctx, Options{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)
	assert.NoError(t, closeFn())

	s, closeFn, err = Open(ctx, Options{Driver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "a.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	assert.NoError(t, closeFn())

	_, closeFn, err = Open(ctx, Options{Driver: "redis"})
	assert.ErrorIs(t, err, ErrUnknownDriver)
	assert.NotNil(t, closeFn)

	_, _, err = Open(ctx, Options{Driver: "mongo"})
	assert.ErrorIs(t, err, ErrMongoBadInput)
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx := context.Background()
	s, err := NewMongoStore(ctx, uri, "sleepoutside_test")
	require.NoError(t, err)
	defer s.Close(ctx)

	require.NoError(t, s.Set("so-cart", "[]"))
	v, ok, err := s.Get("so-cart")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", v)
}
