package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := Open(path)
	require.NoError(t, err)

	key := Key([]byte("view"), []byte("config"))

	t.Run("miss", func(t *testing.T) {
		_, ok, err := c.Get(key)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("hit after put", func(t *testing.T) {
		require.NoError(t, c.Put(key, []byte("package app\n")))
		code, ok, err := c.Get(key)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "package app\n", string(code))
	})

	t.Run("survives reopening", func(t *testing.T) {
		require.NoError(t, c.Close())
		c, err = Open(path)
		require.NoError(t, err)
		n, err := c.Len()
		require.NoError(t, err)
		require.Equal(t, 1, n)
	})

	require.NoError(t, c.Close())
}

func TestKey(t *testing.T) {
	require.NotEqual(t, Key([]byte("ab"), []byte("c")), Key([]byte("a"), []byte("bc")))
	require.Equal(t, Key([]byte("a")), Key([]byte("a")))
	require.Len(t, Key(), 32)
}
