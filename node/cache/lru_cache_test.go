package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLruEviction(t *testing.T) {
	c := NewLruCache(2)
	c.put(entryString("a"), 1)
	c.put(entryString("b"), 2)
	c.put(entryString("c"), 3)

	require.Equal(t, 2, c.Size)
	require.Nil(t, c.get(entryString("a")))
	require.Equal(t, 2, c.get(entryString("b")))
	require.Equal(t, 3, c.get(entryString("c")))
}

func TestLruRefreshOnGet(t *testing.T) {
	c := NewLruCache(2)
	c.put(entryString("a"), 1)
	c.put(entryString("b"), 2)

	// touching "a" makes "b" the eviction candidate
	c.get(entryString("a"))
	c.put(entryString("c"), 3)

	require.Equal(t, 1, c.get(entryString("a")))
	require.Nil(t, c.get(entryString("b")))
}

func TestCacheSvc(t *testing.T) {
	svc := NewCacheSvc()
	require.NoError(t, svc.CreateCache("records", 10))
	require.Error(t, svc.CreateCache("records", 10))

	require.NoError(t, svc.Put("records", "k", "v"))
	v, err := svc.Get("records", "k")
	require.NoError(t, err)
	require.Equal(t, "v", v)

	require.NoError(t, svc.Evict("records", "k"))
	v, err = svc.Get("records", "k")
	require.NoError(t, err)
	require.Nil(t, v)

	_, err = svc.Get("missing", "k")
	require.Error(t, err)
}
