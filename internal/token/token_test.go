package token_test

import (
	"context"
	"testing"

	"github.com/Mohsinsiddi/w3bond/internal/event"
	"github.com/Mohsinsiddi/w3bond/internal/ledger"
	"github.com/Mohsinsiddi/w3bond/internal/token"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tokenAddr = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	owner     = common.HexToAddress("0x000000000000000000000000000000000000000a")
	alice     = common.HexToAddress("0x0000000000000000000000000000000000000001")
	bob       = common.HexToAddress("0x0000000000000000000000000000000000000002")
)

func newToken(t *testing.T, opts ...token.Option) *token.MintableToken {
	t.Helper()
	tok, err := token.New(token.Config{
		Address: tokenAddr,
		Owner:   owner,
		Token:   ledger.Metadata{Name: "Faucet", Symbol: "FCT", Decimals: 18},
	}, opts...)
	require.NoError(t, err)
	return tok
}

func TestNewRequiresOwner(t *testing.T) {
	_, err := token.New(token.Config{Address: tokenAddr})
	assert.ErrorIs(t, err, token.ErrInvalidOwner)
}

func TestNewChecksDecimals(t *testing.T) {
	for _, tt := range []struct {
		decimals uint8
		wantErr  error
	}{
		{0, nil},
		{77, nil},
		{78, ledger.ErrInvalidDecimals},
		{255, ledger.ErrInvalidDecimals},
	} {
		tok, err := token.New(token.Config{
			Address: tokenAddr,
			Owner:   owner,
			Token:   ledger.Metadata{Symbol: "DEC", Decimals: tt.decimals},
		})
		if tt.wantErr != nil {
			assert.ErrorIs(t, err, tt.wantErr, "decimals %d", tt.decimals)
			continue
		}
		require.NoError(t, err, "decimals %d", tt.decimals)
		assert.Equal(t, tt.decimals, tok.Token().Decimals)
	}
}

func TestOwnerMint(t *testing.T) {
	tok := newToken(t)
	ctx := context.Background()

	require.NoError(t, tok.Mint(ctx, owner, alice, uint256.NewInt(500)))
	assert.Equal(t, uint64(500), tok.BalanceOf(alice).Uint64())
	assert.Equal(t, uint64(500), tok.TotalSupply().Uint64())
}

func TestMintByNonOwnerFails(t *testing.T) {
	tok := newToken(t)

	err := tok.Mint(context.Background(), alice, alice, uint256.NewInt(1))
	assert.ErrorIs(t, err, token.ErrUnauthorized)
	assert.True(t, tok.TotalSupply().IsZero())
}

func TestPublicMintOncePerAddress(t *testing.T) {
	var sink event.Recorder
	tok := newToken(t, token.WithSink(&sink))
	ctx := context.Background()

	got, err := tok.PublicMint(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", got.Dec())
	assert.True(t, tok.Claimed(alice))
	assert.False(t, tok.Claimed(bob))

	_, err = tok.PublicMint(ctx, alice)
	assert.ErrorIs(t, err, token.ErrAlreadyClaimed)
	assert.Equal(t, "1000000000000000000", tok.BalanceOf(alice).Dec())
	assert.Equal(t, 1, sink.Len())
}

func TestClaimSurvivesTransferAway(t *testing.T) {
	tok := newToken(t)
	ctx := context.Background()

	_, err := tok.PublicMint(ctx, alice)
	require.NoError(t, err)
	require.NoError(t, tok.Transfer(ctx, alice, bob, tok.OneUnit()))

	_, err = tok.PublicMint(ctx, alice)
	assert.ErrorIs(t, err, token.ErrAlreadyClaimed)
}

func TestFailedPublicMintLeavesNoClaim(t *testing.T) {
	tok := newToken(t)
	_, err := tok.PublicMint(context.Background(), common.Address{})
	assert.ErrorIs(t, err, ledger.ErrInvalidReceiver)
	assert.False(t, tok.Claimed(common.Address{}))
}

func TestTransferOwnership(t *testing.T) {
	var sink event.Recorder
	tok := newToken(t, token.WithSink(&sink))
	ctx := context.Background()

	assert.ErrorIs(t, tok.TransferOwnership(ctx, alice, bob), token.ErrUnauthorized)
	assert.ErrorIs(t, tok.TransferOwnership(ctx, owner, common.Address{}), token.ErrInvalidOwner)

	require.NoError(t, tok.TransferOwnership(ctx, owner, alice))
	assert.Equal(t, alice, tok.Owner())
	assert.ErrorIs(t, tok.Mint(ctx, owner, owner, uint256.NewInt(1)), token.ErrUnauthorized)
	require.NoError(t, tok.Mint(ctx, alice, bob, uint256.NewInt(1)))

	evs := sink.Filter(tokenAddr, token.EventOwnershipTransferred)
	require.Len(t, evs, 1)
	assert.Equal(t, []common.Address{owner, alice}, evs[0].Indexed)
}

func TestRenounceOwnershipDisablesMint(t *testing.T) {
	tok := newToken(t)
	ctx := context.Background()

	require.NoError(t, tok.RenounceOwnership(ctx, owner))
	assert.Equal(t, common.Address{}, tok.Owner())
	assert.ErrorIs(t, tok.Mint(ctx, owner, alice, uint256.NewInt(1)), token.ErrUnauthorized)
	assert.ErrorIs(t, tok.RenounceOwnership(ctx, common.Address{}), token.ErrUnauthorized)

	_, err := tok.PublicMint(ctx, alice)
	require.NoError(t, err)
}

func TestApproveTransferFrom(t *testing.T) {
	tok := newToken(t)
	ctx := context.Background()
	require.NoError(t, tok.Mint(ctx, owner, alice, uint256.NewInt(10)))

	require.NoError(t, tok.Approve(ctx, alice, bob, uint256.NewInt(4)))
	require.NoError(t, tok.TransferFrom(ctx, bob, alice, bob, uint256.NewInt(3)))
	assert.Equal(t, uint64(1), tok.Allowance(alice, bob).Uint64())
	assert.Equal(t, []common.Address{alice, bob}, tok.Holders())
}

func TestExportRestore(t *testing.T) {
	tok := newToken(t)
	ctx := context.Background()
	_, err := tok.PublicMint(ctx, bob)
	require.NoError(t, err)
	_, err = tok.PublicMint(ctx, alice)
	require.NoError(t, err)

	st := tok.Export()
	assert.Equal(t, []common.Address{alice, bob}, st.Claimed)

	other := newToken(t)
	require.NoError(t, other.Restore(st))
	assert.True(t, other.Claimed(alice))
	assert.Equal(t, owner, other.Owner())
	assert.Equal(t, "2000000000000000000", other.TotalSupply().Dec())
}
