package wallet_test

import (
	"strings"
	"testing"

	"github.com/Mohsinsiddi/w3bond/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Hardhat/Anvil account #0.
const (
	anvilKey  = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	anvilAddr = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func newManager() *wallet.Manager {
	return wallet.NewManager(wallet.WithInMemoryStore())
}

func watch(addr string) *wallet.Wallet {
	return &wallet.Wallet{Address: addr, Type: wallet.TypeWatchOnly}
}

func TestValidateName(t *testing.T) {
	for _, ok := range []string{"alice", "bob-2", "market_maker", strings.Repeat("x", 32), "0x12"} {
		assert.NoError(t, wallet.ValidateName(ok), ok)
	}
	for _, bad := range []string{"", "two words", "tab\tbed", strings.Repeat("x", 33), aliceAddr} {
		assert.ErrorIs(t, wallet.ValidateName(bad), wallet.ErrInvalidName, bad)
	}
}

func TestAddWatchOnly(t *testing.T) {
	mgr := newManager()
	require.NoError(t, mgr.Add("treasury", watch(aliceAddr)))

	w, err := mgr.Get("treasury")
	require.NoError(t, err)
	assert.Equal(t, "treasury", w.Name, "name comes from the argument")
	assert.Equal(t, wallet.TypeWatchOnly, w.Type)
	assert.NotEmpty(t, w.CreatedAt)

	assert.ErrorIs(t, mgr.Add("bad", watch("0x12")), wallet.ErrInvalidAddress)
	assert.ErrorIs(t, mgr.Add("treasury", watch(bobAddr)), wallet.ErrWalletExists)
	assert.ErrorIs(t, mgr.Add("again", watch(aliceAddr)), wallet.ErrWalletExists, "one wallet per address")
	assert.ErrorIs(t, mgr.Add("has space", watch(bobAddr)), wallet.ErrInvalidName)
}

func TestAddWithKey(t *testing.T) {
	mgr := newManager()
	require.NoError(t, mgr.AddWithKey("anvil", anvilKey))

	w, err := mgr.Get("anvil")
	require.NoError(t, err)
	assert.Equal(t, wallet.TypeSigning, w.Type)
	assert.Equal(t, anvilAddr, w.Address)

	assert.ErrorIs(t, mgr.AddWithKey("bad", "not-a-valid-key"), wallet.ErrInvalidKey)
	assert.ErrorIs(t, mgr.AddWithKey("anvil2", strings.TrimPrefix(anvilKey, "0x")), wallet.ErrWalletExists)
	assert.ErrorIs(t, mgr.Add("watcher", watch(anvilAddr)), wallet.ErrWalletExists)
}

func TestGenerate(t *testing.T) {
	ks := wallet.NewInMemoryKeystore()
	mgr := wallet.NewManager(wallet.WithInMemoryStore(), wallet.WithKeystore(ks))

	a, keyA, err := mgr.Generate("alice")
	require.NoError(t, err)
	b, keyB, err := mgr.Generate("bob")
	require.NoError(t, err)

	assert.True(t, common.IsHexAddress(a.Address))
	assert.NotEqual(t, a.Address, b.Address)
	assert.NotEqual(t, keyA, keyB)
	assert.True(t, strings.HasPrefix(keyA, "0x"))
	assert.Len(t, keyA, 66)

	exported, err := mgr.ExportKey("alice")
	require.NoError(t, err)
	assert.Equal(t, keyA, exported)

	_, _, err = mgr.Generate("alice")
	assert.ErrorIs(t, err, wallet.ErrWalletExists)
	_, _, err = mgr.Generate("")
	assert.ErrorIs(t, err, wallet.ErrInvalidName)

	// Removing a wallet drops its key.
	require.NoError(t, mgr.Remove("alice"))
	_, err = ks.Retrieve(a.KeyRef)
	assert.Error(t, err)
	_, err = mgr.Get("alice")
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)
	assert.ErrorIs(t, mgr.Remove("alice"), wallet.ErrWalletNotFound)
}

func TestExportKey(t *testing.T) {
	mgr := newManager()
	require.NoError(t, mgr.AddWithKey("anvil", anvilKey))
	require.NoError(t, mgr.Add("watch", watch(aliceAddr)))

	got, err := mgr.ExportKey("anvil")
	require.NoError(t, err)
	assert.Equal(t, anvilKey, got)

	_, err = mgr.ExportKey("watch")
	assert.ErrorIs(t, err, wallet.ErrWatchOnly)
	_, err = mgr.ExportKey("ghost")
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)
}

func TestListAndDefault(t *testing.T) {
	mgr := newManager()
	assert.Nil(t, mgr.Default())

	require.NoError(t, mgr.Add("carol", watch(aliceAddr)))
	require.Equal(t, "carol", mgr.Default().Name, "a lone wallet is the default")

	require.NoError(t, mgr.Add("alice", watch(bobAddr)))
	require.NoError(t, mgr.AddWithKey("bob", anvilKey))
	assert.Nil(t, mgr.Default(), "no default among several")

	var names []string
	for _, w := range mgr.List() {
		names = append(names, w.Name)
	}
	assert.Equal(t, []string{"alice", "bob", "carol"}, names)

	require.NoError(t, mgr.SetDefault("bob"))
	assert.Equal(t, "bob", mgr.Default().Name)
	assert.ErrorIs(t, mgr.SetDefault("ghost"), wallet.ErrWalletNotFound)
}

func TestResolveAndByAddress(t *testing.T) {
	mgr := newManager()
	require.NoError(t, mgr.AddWithKey("anvil", anvilKey))

	addr, err := mgr.Resolve("anvil")
	require.NoError(t, err)
	assert.Equal(t, anvilAddr, addr.Hex())

	addr, err = mgr.Resolve(strings.ToLower(bobAddr))
	require.NoError(t, err)
	assert.Equal(t, bobAddr, addr.Hex())

	_, err = mgr.Resolve("nobody")
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)

	w, ok := mgr.ByAddress(common.HexToAddress(strings.ToLower(anvilAddr)))
	require.True(t, ok)
	assert.Equal(t, "anvil", w.Name)
	_, ok = mgr.ByAddress(common.HexToAddress(bobAddr))
	assert.False(t, ok)
}
