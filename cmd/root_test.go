package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Mohsinsiddi/w3bond/internal/config"
	"github.com/Mohsinsiddi/w3bond/internal/contract"
	"github.com/Mohsinsiddi/w3bond/internal/event"
	"github.com/Mohsinsiddi/w3bond/internal/ledger"
	"github.com/Mohsinsiddi/w3bond/internal/market"
	"github.com/Mohsinsiddi/w3bond/internal/token"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeErrorNamesSentinels(t *testing.T) {
	err := fmt.Errorf("buy: %w", market.ErrPaymentMismatch)
	assert.Equal(t, "PaymentMismatch: "+err.Error(), describeError(err))

	err = fmt.Errorf("mint: %w", token.ErrUnauthorized)
	assert.Contains(t, describeError(err), "Unauthorized: ")

	plain := errors.New("boom")
	assert.Equal(t, "boom", describeError(plain))
}

func TestSelected(t *testing.T) {
	got, err := selected("market", "flag", "def")
	require.NoError(t, err)
	assert.Equal(t, "flag", got)

	got, err = selected("market", "", "def")
	require.NoError(t, err)
	assert.Equal(t, "def", got)

	_, err = selected("market", "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--market")
	assert.Contains(t, err.Error(), "default_market")
}

func TestWalletOrDefault(t *testing.T) {
	saved := cfg
	t.Cleanup(func() { cfg = saved })
	cfg = &config.Config{DefaultWallet: "alice"}

	assert.Equal(t, "alice", walletOrDefault(""))
	assert.Equal(t, "bob", walletOrDefault("bob"))
}

func TestFormatEventValue(t *testing.T) {
	meta := ledger.Metadata{Symbol: "BND", Decimals: 18}
	ether := uint256.MustFromDecimal("1500000000000000000")

	assert.Equal(t, "1.5 ETH", formatEventValue("ethPaid", ether, meta))
	assert.Equal(t, "1.5 BND", formatEventValue("amount", ether, meta))
	assert.Equal(t, "1500000000000000000", formatEventValue("supply", ether, meta))
}

func TestDecodedLogPairs(t *testing.T) {
	abi := contract.GetBuiltinABI(contract.KindMintableToken)
	from := common.HexToAddress("0x0000000000000000000000000000000000000001")
	to := common.HexToAddress("0x0000000000000000000000000000000000000002")
	ev := event.New(common.HexToAddress("0x00000000000000000000000000000000000000c0"), "Transfer",
		[]common.Address{from, to}, uint256.NewInt(2_000_000))
	lg, err := contract.EncodeLog(abi, ev)
	require.NoError(t, err)

	pairs, err := decodedLogPairs(abi, lg, ledger.Metadata{Symbol: "USDX", Decimals: 6})
	require.NoError(t, err)
	require.Len(t, pairs, 4)
	assert.Contains(t, pairs[0][1], "Transfer")
	assert.Contains(t, pairs[1][1], from.Hex())
	assert.Contains(t, pairs[2][1], to.Hex())
	assert.Equal(t, "2 USDX", pairs[3][1])

	raw := rawLogPairs(lg)
	assert.Equal(t, "Topic[0]", raw[1][0])
	assert.Len(t, raw, 5)
}
