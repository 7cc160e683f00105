package market_test

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Mohsinsiddi/w3bond/internal/event"
	"github.com/Mohsinsiddi/w3bond/internal/ledger"
	"github.com/Mohsinsiddi/w3bond/internal/market"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	marketAddr = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	alice      = common.HexToAddress("0x0000000000000000000000000000000000000001")
	bob        = common.HexToAddress("0x0000000000000000000000000000000000000002")
	oneUnit    = uint256.MustFromDecimal("1000000000000000000")
)

// payouts is a Payable recording what it delivered.
type payouts struct {
	mu     sync.Mutex
	paid   map[common.Address]*uint256.Int
	fail   error
	onSend func(ctx context.Context)
}

func newPayouts() *payouts {
	return &payouts{paid: make(map[common.Address]*uint256.Int)}
}

func (p *payouts) Send(ctx context.Context, to common.Address, amount *uint256.Int) error {
	if p.onSend != nil {
		p.onSend(ctx)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	cur, ok := p.paid[to]
	if !ok {
		cur = new(uint256.Int)
	}
	p.paid[to] = new(uint256.Int).Add(cur, amount)
	return nil
}

func (p *payouts) total(a common.Address) *uint256.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if v, ok := p.paid[a]; ok {
		return new(uint256.Int).Set(v)
	}
	return new(uint256.Int)
}

func newMarket(t *testing.T, p market.Payable, opts ...market.Option) *market.Market {
	t.Helper()
	m, err := market.New(market.Config{
		Address: marketAddr,
		Token:   ledger.Metadata{Name: "Bonded", Symbol: "BND", Decimals: 18},
		Curve:   market.DefaultCurve(),
	}, p, opts...)
	require.NoError(t, err)
	return m
}

func buyPrice(t *testing.T, m *market.Market) *uint256.Int {
	t.Helper()
	price, err := m.GetBuyPrice()
	require.NoError(t, err)
	return price
}

func buy(t *testing.T, m *market.Market, who common.Address) {
	t.Helper()
	_, err := m.Buy(context.Background(), who, buyPrice(t, m))
	require.NoError(t, err)
}

func TestConcreteScenario(t *testing.T) {
	m := newMarket(t, newPayouts())
	ctx := context.Background()

	assert.True(t, buyPrice(t, m).IsZero())

	minted, err := m.Buy(ctx, alice, new(uint256.Int))
	require.NoError(t, err)
	assert.True(t, minted.Eq(oneUnit))
	assert.True(t, m.TotalSupply().Eq(oneUnit))

	second := uint256.NewInt(1_000_000_000_000)
	assert.True(t, buyPrice(t, m).Eq(second))

	_, err = m.Buy(ctx, bob, uint256.NewInt(999_999_999_999))
	assert.ErrorIs(t, err, market.ErrPaymentMismatch)
	assert.True(t, m.TotalSupply().Eq(oneUnit))

	_, err = m.Buy(ctx, bob, second)
	require.NoError(t, err)
	assert.Equal(t, "2000000000000000000", m.TotalSupply().Dec())
	assert.True(t, m.Escrow().Eq(second))
}

func TestBuyPriceAfterKBuys(t *testing.T) {
	m := newMarket(t, newPayouts())
	slope := uint256.NewInt(1_000_000_000_000)

	for k := uint64(0); k < 25; k++ {
		want := new(uint256.Int).Mul(uint256.NewInt(k), slope)
		assert.True(t, buyPrice(t, m).Eq(want), "after %d buys", k)
		buy(t, m, alice)
	}
}

func TestTruncatingSlope(t *testing.T) {
	curve, err := market.NewLinearCurve(uint256.NewInt(1), uint256.NewInt(3))
	require.NoError(t, err)
	m, err := market.New(market.Config{
		Address: marketAddr,
		Token:   ledger.Metadata{Symbol: "ONE", Decimals: 0},
		Curve:   curve,
	}, newPayouts())
	require.NoError(t, err)

	expected := []uint64{0, 0, 0, 1, 1, 1, 2}
	for k, want := range expected {
		assert.Equal(t, want, buyPrice(t, m).Uint64(), "after %d buys", k)
		buy(t, m, alice)
	}
}

func TestPaymentMismatchAboveAndBelow(t *testing.T) {
	m := newMarket(t, newPayouts())
	buy(t, m, alice)
	price := buyPrice(t, m)
	ctx := context.Background()

	_, err := m.Buy(ctx, bob, new(uint256.Int).SubUint64(price, 1))
	assert.ErrorIs(t, err, market.ErrPaymentMismatch)
	_, err = m.Buy(ctx, bob, new(uint256.Int).AddUint64(price, 1))
	assert.ErrorIs(t, err, market.ErrPaymentMismatch)

	assert.True(t, m.TotalSupply().Eq(oneUnit))
	assert.True(t, m.BalanceOf(bob).IsZero())
	assert.True(t, m.Escrow().IsZero())
}

func TestSellOnZeroSupply(t *testing.T) {
	p := newPayouts()
	m := newMarket(t, p)

	_, err := m.GetSellPrice()
	assert.ErrorIs(t, err, market.ErrInvalidState)

	_, err = m.Sell(context.Background(), alice)
	assert.ErrorIs(t, err, market.ErrInvalidState)
	assert.True(t, m.TotalSupply().IsZero())
	assert.True(t, m.Escrow().IsZero())
	assert.True(t, p.total(alice).IsZero())
}

func TestSellWithoutUnits(t *testing.T) {
	m := newMarket(t, newPayouts())
	buy(t, m, alice)

	_, err := m.Sell(context.Background(), bob)
	assert.ErrorIs(t, err, market.ErrInsufficientBalance)
	assert.True(t, m.TotalSupply().Eq(oneUnit))
}

func TestBuySellRoundTrip(t *testing.T) {
	p := newPayouts()
	m := newMarket(t, p)
	buy(t, m, bob)
	buy(t, m, bob)

	supplyBefore := m.TotalSupply()
	balanceBefore := m.BalanceOf(alice)
	price := buyPrice(t, m)

	_, err := m.Buy(context.Background(), alice, price)
	require.NoError(t, err)
	sellPrice, err := m.GetSellPrice()
	require.NoError(t, err)
	assert.True(t, sellPrice.Eq(price))

	payout, err := m.Sell(context.Background(), alice)
	require.NoError(t, err)

	assert.True(t, payout.Eq(price))
	assert.True(t, p.total(alice).Eq(price))
	assert.True(t, m.TotalSupply().Eq(supplyBefore))
	assert.True(t, m.BalanceOf(alice).Eq(balanceBefore))
}

func TestSellTransferFailureRollsBack(t *testing.T) {
	p := newPayouts()
	var sink event.Recorder
	m := newMarket(t, p, market.WithSink(&sink))
	buy(t, m, alice)
	buy(t, m, alice)
	eventsBefore := sink.Len()
	escrowBefore := m.Escrow()

	p.fail = errors.New("receiver reverted")
	_, err := m.Sell(context.Background(), alice)
	assert.ErrorIs(t, err, market.ErrTransferFailed)

	assert.Equal(t, "2000000000000000000", m.TotalSupply().Dec())
	assert.Equal(t, "2000000000000000000", m.BalanceOf(alice).Dec())
	assert.True(t, m.Escrow().Eq(escrowBefore))
	assert.Equal(t, eventsBefore, sink.Len())

	p.fail = nil
	payout, err := m.Sell(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000_000_000), payout.Uint64())
}

func TestReentrantSellIsRejected(t *testing.T) {
	p := newPayouts()
	m := newMarket(t, p)
	buy(t, m, alice)
	buy(t, m, alice)

	var inner error
	p.onSend = func(ctx context.Context) {
		_, inner = m.Sell(ctx, alice)
	}

	_, err := m.Sell(context.Background(), alice)
	require.NoError(t, err)
	assert.ErrorIs(t, inner, market.ErrReentrantCall)
	assert.True(t, m.TotalSupply().Eq(oneUnit))
}

func TestPriceReadsDuringPayoutSeeCommittedState(t *testing.T) {
	p := newPayouts()
	m := newMarket(t, p)
	buy(t, m, alice)
	buy(t, m, alice)

	var seen *uint256.Int
	p.onSend = func(context.Context) { seen = buyPrice(t, m) }

	_, err := m.Sell(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(2_000_000_000_000), seen.Uint64())
	assert.Equal(t, uint64(1_000_000_000_000), buyPrice(t, m).Uint64())
}

func TestPayoutCallbackWithoutContext(t *testing.T) {
	p := newPayouts()
	m := newMarket(t, p)
	buy(t, m, alice)
	buy(t, m, alice)
	require.NoError(t, m.Approve(context.Background(), alice, bob, oneUnit))
	before := m.Export()

	var (
		errs    []error
		balance *uint256.Int
		holders []common.Address
		solvent bool
		export  market.State
	)
	p.onSend = func(context.Context) {
		ctx := context.Background()
		_, err := m.Sell(ctx, alice)
		errs = append(errs, err)
		_, err = m.Buy(ctx, bob, new(uint256.Int))
		errs = append(errs, err)
		errs = append(errs, m.Transfer(ctx, alice, bob, oneUnit))
		errs = append(errs, m.Approve(ctx, alice, bob, oneUnit))
		errs = append(errs, m.TransferFrom(ctx, bob, alice, bob, oneUnit))
		errs = append(errs, m.Restore(before))

		balance = m.BalanceOf(alice)
		holders = m.Holders()
		solvent, err = m.Solvent()
		errs = append(errs, err)
		export = m.Export()
	}

	done := make(chan error, 1)
	go func() {
		_, err := m.Sell(context.Background(), alice)
		done <- err
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("sell blocked on a call made from its own payout")
	}

	require.Len(t, errs, 7)
	for i, err := range errs[:6] {
		assert.ErrorIs(t, err, market.ErrReentrantCall, "call %d", i)
	}
	assert.NoError(t, errs[6])

	// Reads made during the payout see the state before the Sell.
	assert.Equal(t, "2000000000000000000", balance.Dec())
	assert.Equal(t, []common.Address{alice}, holders)
	assert.True(t, solvent)
	assert.True(t, export.Ledger.Supply.Eq(before.Ledger.Supply))

	assert.True(t, m.TotalSupply().Eq(oneUnit))
	assert.True(t, m.Allowance(alice, bob).Eq(oneUnit))

	p.onSend = nil
	buy(t, m, bob)
	_, err := m.Sell(context.Background(), bob)
	require.NoError(t, err)
}

func TestExportIsDetached(t *testing.T) {
	m := newMarket(t, newPayouts())
	buy(t, m, alice)

	st := m.Export()
	st.Ledger.Balances[alice].SetUint64(7)
	st.Escrow.SetUint64(7)
	st.Ledger.Supply.SetUint64(7)

	assert.True(t, m.BalanceOf(alice).Eq(oneUnit))
	assert.True(t, m.TotalSupply().Eq(oneUnit))
	assert.True(t, m.Escrow().IsZero())
}

func TestEventsInOrder(t *testing.T) {
	var sink event.Recorder
	m := newMarket(t, newPayouts(), market.WithSink(&sink))
	buy(t, m, alice)
	_, err := m.Sell(context.Background(), alice)
	require.NoError(t, err)

	evs := sink.All()
	require.Len(t, evs, 4)
	assert.Equal(t, ledger.EventTransfer, evs[0].Name)
	assert.Equal(t, market.EventBought, evs[1].Name)
	assert.Equal(t, []common.Address{alice}, evs[1].Indexed)
	assert.True(t, evs[1].Values[0].Eq(oneUnit))
	assert.True(t, evs[1].Values[1].IsZero())
	assert.Equal(t, ledger.EventTransfer, evs[2].Name)
	assert.Equal(t, market.EventSold, evs[3].Name)
}

func TestEscrowCoversReverseSellOrder(t *testing.T) {
	p := newPayouts()
	m := newMarket(t, p)
	rng := rand.New(rand.NewSource(7))
	holders := []common.Address{alice, bob}

	for i := 0; i < 200; i++ {
		who := holders[rng.Intn(len(holders))]
		if rng.Intn(3) == 0 && !m.BalanceOf(who).IsZero() {
			_, err := m.Sell(context.Background(), who)
			require.NoError(t, err)
		} else {
			buy(t, m, who)
		}
		solvent, err := m.Solvent()
		require.NoError(t, err)
		require.True(t, solvent, "step %d", i)
	}

	owed, err := m.Liability()
	require.NoError(t, err)
	assert.True(t, owed.Eq(m.Escrow()), "linear curve escrow equals liability exactly")
}

func TestConcurrentBuyersSerialise(t *testing.T) {
	m := newMarket(t, newPayouts())
	const buyers = 16

	var wg sync.WaitGroup
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			who := common.BigToAddress(common.Big1)
			who[0] = byte(i + 1)
			for {
				price, err := m.GetBuyPrice()
				if err != nil {
					t.Error(err)
					return
				}
				_, err = m.Buy(context.Background(), who, price)
				if err == nil {
					return
				}
				if !errors.Is(err, market.ErrPaymentMismatch) {
					t.Error(err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, "16000000000000000000", m.TotalSupply().Dec())
	// escrow = slope * (0 + 1 + ... + 15)
	assert.Equal(t, uint64(120*1_000_000_000_000), m.Escrow().Uint64())
	assert.Len(t, m.Holders(), buyers)
}

func TestTransferAndApprove(t *testing.T) {
	m := newMarket(t, newPayouts())
	buy(t, m, alice)
	ctx := context.Background()

	require.NoError(t, m.Approve(ctx, alice, bob, oneUnit))
	require.NoError(t, m.TransferFrom(ctx, bob, alice, bob, oneUnit))
	assert.True(t, m.BalanceOf(bob).Eq(oneUnit))
	assert.True(t, m.Allowance(alice, bob).IsZero())

	err := m.Transfer(ctx, alice, bob, oneUnit)
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	// The received unit can be sold back.
	_, err = m.Sell(ctx, bob)
	require.NoError(t, err)
}

func TestQuote(t *testing.T) {
	m := newMarket(t, newPayouts())
	buy(t, m, alice)

	prices, err := m.Quote(3)
	require.NoError(t, err)
	require.Len(t, prices, 3)
	assert.Equal(t, uint64(1_000_000_000_000), prices[0].Uint64())
	assert.Equal(t, uint64(2_000_000_000_000), prices[1].Uint64())
	assert.Equal(t, uint64(3_000_000_000_000), prices[2].Uint64())
	assert.True(t, m.TotalSupply().Eq(oneUnit))
}

func TestCanceledContext(t *testing.T) {
	m := newMarket(t, newPayouts())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Buy(ctx, alice, new(uint256.Int))
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, m.TotalSupply().IsZero())
}

func TestExportRestore(t *testing.T) {
	m := newMarket(t, newPayouts())
	buy(t, m, alice)
	buy(t, m, bob)

	restored := newMarket(t, newPayouts())
	require.NoError(t, restored.Restore(m.Export()))

	assert.True(t, restored.TotalSupply().Eq(m.TotalSupply()))
	assert.True(t, restored.Escrow().Eq(m.Escrow()))
	assert.True(t, buyPrice(t, restored).Eq(buyPrice(t, m)))
	assert.True(t, restored.BalanceOf(bob).Eq(oneUnit))
}

func TestInvalidCurve(t *testing.T) {
	_, err := market.NewLinearCurve(uint256.NewInt(1), new(uint256.Int))
	assert.ErrorIs(t, err, market.ErrInvalidCurve)

	_, err = market.New(market.Config{Address: marketAddr}, newPayouts())
	assert.ErrorIs(t, err, market.ErrInvalidCurve)
}

func TestNewChecksDecimals(t *testing.T) {
	tests := []struct {
		decimals uint8
		ok       bool
	}{
		{0, true},
		{18, true},
		{77, true},
		{78, false},
		{100, false},
		{255, false},
	}
	for _, tt := range tests {
		m, err := market.New(market.Config{
			Address: marketAddr,
			Token:   ledger.Metadata{Symbol: "DEC", Decimals: tt.decimals},
			Curve:   market.DefaultCurve(),
		}, newPayouts())
		if !tt.ok {
			assert.ErrorIs(t, err, market.ErrInvalidDecimals, "decimals %d", tt.decimals)
			assert.Nil(t, m)
			continue
		}
		require.NoError(t, err, "decimals %d", tt.decimals)
		want := "1" + strings.Repeat("0", int(tt.decimals))
		assert.Equal(t, want, m.OneUnit().Dec(), "decimals %d", tt.decimals)
	}
}

func TestBuyPriceAtLastPriceableSupply(t *testing.T) {
	maxSlope := new(uint256.Int).SetAllOne()
	curve, err := market.NewLinearCurve(maxSlope, uint256.NewInt(1))
	require.NoError(t, err)
	m, err := market.New(market.Config{
		Address: marketAddr,
		Token:   ledger.Metadata{Symbol: "MAX", Decimals: 0},
		Curve:   curve,
	}, newPayouts())
	require.NoError(t, err)

	buy(t, m, alice)
	assert.True(t, buyPrice(t, m).Eq(maxSlope))

	// A second unit would leave the next buy unpriceable.
	_, err = m.Buy(context.Background(), bob, maxSlope)
	assert.ErrorIs(t, err, market.ErrOverflow)
	assert.Equal(t, uint64(1), m.TotalSupply().Uint64())
	assert.True(t, buyPrice(t, m).Eq(maxSlope))
	_, err = m.Quote(2)
	assert.ErrorIs(t, err, market.ErrOverflow)
}

func TestCurveString(t *testing.T) {
	assert.Equal(t, "1000000000000/1000000000000000000", market.DefaultCurve().String())
}
