package builder

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func TestCacheRoundtrip(t *testing.T) {
	t.Parallel()

	cache, err := NewCacheInMemory()
	require.NoError(t, err)
	defer func() {
		require.NoError(t, cache.Close())
	}()

	fp := crypto.Keccak256([]byte("sources"))
	files := map[string][]byte{
		"TestERC20.json": []byte(`{"contractName":"TestERC20"}`),
	}

	_, ok, err := cache.Get("test_erc20_sol_env", fp)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, cache.Put("test_erc20_sol_env", fp, files))

	got, ok, err := cache.Get("test_erc20_sol_env", fp)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, files, got)

	// A different fingerprint is a different entry.
	_, ok, err = cache.Get("test_erc20_sol_env", crypto.Keccak256([]byte("changed")))
	require.NoError(t, err)
	require.False(t, ok)

	// Same fingerprint under another environment does not leak across.
	_, ok, err = cache.Get("proxy_contract", fp)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCacheDrop(t *testing.T) {
	t.Parallel()

	cache, err := NewCacheInMemory()
	require.NoError(t, err)
	defer func() {
		require.NoError(t, cache.Close())
	}()

	fp := crypto.Keccak256([]byte("sources"))
	require.NoError(t, cache.Put("proxy_contract", fp, map[string][]byte{"Proxy.json": []byte("{}")}))
	require.NoError(t, cache.Drop())

	_, ok, err := cache.Get("proxy_contract", fp)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCacheOnDisk(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fp := crypto.Keccak256([]byte("sources"))

	cache, err := NewCache(dir)
	require.NoError(t, err)
	require.NoError(t, cache.Put("proxy_contract", fp, map[string][]byte{"Proxy.json": []byte("{}")}))
	require.NoError(t, cache.Close())

	// Entries survive reopening.
	cache, err = NewCache(dir)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, cache.Close())
	}()

	_, ok, err := cache.Get("proxy_contract", fp)
	require.NoError(t, err)
	require.True(t, ok)
}
