package wallet_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Mohsinsiddi/w3bond/internal/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	aliceAddr = "0x0000000000000000000000000000000000000001"
	bobAddr   = "0x0000000000000000000000000000000000000002"
)

func walletsPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "wallets.json")
}

func TestJSONStoreKeepsEveryField(t *testing.T) {
	store := wallet.NewJSONStore(walletsPath(t))
	in := []*wallet.Wallet{
		{Name: "alice", Address: aliceAddr, Type: wallet.TypeWatchOnly},
		{Name: "bob", Address: bobAddr, Type: wallet.TypeSigning, KeyRef: "w3bond.bob", IsDefault: true, CreatedAt: "2026-01-01T00:00:00Z"},
	}
	require.NoError(t, store.Save(in))

	out, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestJSONStoreMissingFileIsEmpty(t *testing.T) {
	out, err := wallet.NewJSONStore(walletsPath(t)).Load()
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestJSONStoreSaveReplacesFile(t *testing.T) {
	path := walletsPath(t)
	store := wallet.NewJSONStore(path)
	require.NoError(t, store.Save([]*wallet.Wallet{{Name: "old", Address: aliceAddr}}))
	require.NoError(t, store.Save([]*wallet.Wallet{{Name: "new", Address: bobAddr}}))

	out, err := store.Load()
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "new", out[0].Name)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// No temp files left next to it.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestJSONStoreCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "wallets.json")
	require.NoError(t, wallet.NewJSONStore(path).Save(nil))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestJSONStoreRejectsBadFiles(t *testing.T) {
	cases := map[string]struct {
		body string
		want error
	}{
		"bad address": {`[{"Name":"x","Address":"0x1111"}]`, wallet.ErrInvalidAddress},
		"duplicate":   {`[{"Name":"x","Address":"` + aliceAddr + `"},{"Name":"x","Address":"` + bobAddr + `"}]`, wallet.ErrWalletExists},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			path := walletsPath(t)
			require.NoError(t, os.WriteFile(path, []byte(tc.body), 0o600))
			_, err := wallet.NewJSONStore(path).Load()
			assert.ErrorIs(t, err, tc.want)
		})
	}

	path := walletsPath(t)
	require.NoError(t, os.WriteFile(path, []byte("{not valid json"), 0o600))
	_, err := wallet.NewJSONStore(path).Load()
	assert.Error(t, err)
}

func TestManagerPersistsThroughJSONStore(t *testing.T) {
	path := walletsPath(t)
	mgr := wallet.NewManager(wallet.WithStore(wallet.NewJSONStore(path)))
	require.NoError(t, mgr.Add("watch", &wallet.Wallet{Name: "watch", Address: aliceAddr, Type: wallet.TypeWatchOnly}))

	again := wallet.NewManager(wallet.WithStore(wallet.NewJSONStore(path)))
	addr, err := again.Resolve("watch")
	require.NoError(t, err)
	assert.Equal(t, aliceAddr, addr.Hex())
}
