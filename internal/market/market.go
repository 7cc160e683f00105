// Package market implements a bonding-curve token: one whole unit is minted
// per Buy and burned per Sell, priced by a linear Curve and paid in native
// currency held in the market's escrow.
//
// All mutating calls on a Market are serialised by a single mutex and run
// inside a journal snapshot, so a failure at any step (including the payout
// of a Sell) leaves supply, balances, escrow and events untouched.
package market

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Mohsinsiddi/w3bond/internal/event"
	"github.com/Mohsinsiddi/w3bond/internal/journal"
	"github.com/Mohsinsiddi/w3bond/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

// Event names.
const (
	EventBought = "Bought"
	EventSold   = "Sold"
)

// Payable delivers native currency out of the market's escrow. A non-nil
// error means nothing was delivered.
//
// Send is called with the market locked. Mutating calls made while it runs
// fail with ErrReentrantCall instead of blocking, whatever ctx they carry;
// reads see the state before the Sell.
type Payable interface {
	Send(ctx context.Context, to common.Address, amount *uint256.Int) error
}

// Config describes a market deployment.
type Config struct {
	Address common.Address
	Token   ledger.Metadata
	Curve   Curve
}

// State is the persistent part of a market.
type State struct {
	Ledger ledger.Snapshot
	Escrow *uint256.Int
}

type callKey struct{ m *Market }

// Market is a bonding-curve token.
type Market struct {
	mu      sync.Mutex
	address common.Address
	curve   Curve
	oneUnit *uint256.Int
	journal *journal.Journal
	ledger  *ledger.Ledger
	escrow  *uint256.Int
	payout  Payable
	sink    event.Sink
	log     *zap.Logger

	// committed is the state as of the last successful call. Reads use it
	// and never take mu.
	committed atomic.Pointer[State]
	paying    atomic.Bool
}

// Option configures a Market.
type Option func(*Market)

// WithSink publishes committed events to s.
func WithSink(s event.Sink) Option {
	return func(m *Market) {
		m.sink = s
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Market) {
		m.log = l
	}
}

// New deploys an empty market. payout delivers Sell proceeds.
func New(cfg Config, payout Payable, opts ...Option) (*Market, error) {
	if cfg.Curve.den == nil {
		return nil, fmt.Errorf("%w: curve not set", ErrInvalidCurve)
	}
	if payout == nil {
		return nil, fmt.Errorf("market %s: no payout channel", cfg.Address.Hex())
	}
	if err := cfg.Token.Validate(); err != nil {
		return nil, err
	}
	j := journal.New()
	m := &Market{
		address: cfg.Address,
		curve:   cfg.Curve,
		journal: j,
		ledger:  ledger.New(cfg.Address, cfg.Token, j),
		escrow:  new(uint256.Int),
		payout:  payout,
		sink:    event.Discard,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.oneUnit = m.ledger.OneUnit()
	m.publish()
	return m, nil
}

// Address returns the market contract address.
func (m *Market) Address() common.Address { return m.address }

// Curve returns the price law.
func (m *Market) Curve() Curve { return m.curve }

// Token returns name, symbol and decimals.
func (m *Market) Token() ledger.Metadata { return m.ledger.Metadata() }

// OneUnit returns the amount minted per Buy.
func (m *Market) OneUnit() *uint256.Int { return new(uint256.Int).Set(m.oneUnit) }

// TotalSupply returns the committed issuance counter.
func (m *Market) TotalSupply() *uint256.Int {
	return new(uint256.Int).Set(m.committed.Load().Ledger.Supply)
}

// Escrow returns the committed native-currency balance of the market.
func (m *Market) Escrow() *uint256.Int {
	return new(uint256.Int).Set(m.committed.Load().Escrow)
}

// GetBuyPrice returns the exact payment the next Buy requires. Buy and
// Restore never commit a supply that cannot be priced, so ErrOverflow here
// means the market state is corrupt.
func (m *Market) GetBuyPrice() (*uint256.Int, error) {
	supply := m.committed.Load().Ledger.Supply
	price, ok := m.curve.PriceAt(supply)
	if !ok {
		return nil, fmt.Errorf("%w: supply %s cannot be priced", ErrOverflow, supply.Dec())
	}
	return price, nil
}

// GetSellPrice returns the payout of the next Sell: the buy price of the
// most recently issued unit.
func (m *Market) GetSellPrice() (*uint256.Int, error) {
	return m.sellPrice(m.committed.Load().Ledger.Supply)
}

// Quote returns the prices of the next n single-unit buys, assuming no other
// call intervenes.
func (m *Market) Quote(n int) ([]*uint256.Int, error) {
	supply := new(uint256.Int).Set(m.committed.Load().Ledger.Supply)
	out := make([]*uint256.Int, 0, n)
	for i := 0; i < n; i++ {
		price, ok := m.curve.PriceAt(supply)
		if !ok {
			return out, ErrOverflow
		}
		out = append(out, price)
		var overflow bool
		if supply, overflow = supply.AddOverflow(supply, m.oneUnit); overflow {
			return out, ErrOverflow
		}
	}
	return out, nil
}

// BalanceOf returns the committed market-token balance of a.
func (m *Market) BalanceOf(a common.Address) *uint256.Int {
	return m.committed.Load().Ledger.BalanceOf(a)
}

// Allowance returns the committed market-token allowance of spender over
// owner.
func (m *Market) Allowance(owner, spender common.Address) *uint256.Int {
	return m.committed.Load().Ledger.Allowance(owner, spender)
}

// Holders returns every account holding market tokens.
func (m *Market) Holders() []common.Address {
	return m.committed.Load().Ledger.Holders()
}

// Buy mints one unit to buyer. payment must equal GetBuyPrice exactly and
// stays in escrow.
func (m *Market) Buy(ctx context.Context, buyer common.Address, payment *uint256.Int) (*uint256.Int, error) {
	err := m.exec(ctx, "buy", func(context.Context) error {
		supply := m.ledger.TotalSupply()
		price, ok := m.curve.PriceAt(supply)
		if !ok {
			return ErrOverflow
		}
		if payment == nil {
			return fmt.Errorf("%w: no payment, price is %s", ErrPaymentMismatch, price.Dec())
		}
		if !payment.Eq(price) {
			return fmt.Errorf("%w: sent %s, price is %s", ErrPaymentMismatch, payment.Dec(), price.Dec())
		}
		if err := m.ledger.Mint(buyer, m.oneUnit); err != nil {
			return err
		}
		// The next buy must remain priceable.
		if _, ok := m.curve.PriceAt(m.ledger.TotalSupply()); !ok {
			return ErrOverflow
		}
		escrow, overflow := new(uint256.Int).AddOverflow(m.escrow, payment)
		if overflow {
			return ErrOverflow
		}
		m.setEscrow(escrow)
		m.journal.Emit(event.New(m.address, EventBought, []common.Address{buyer}, m.oneUnit, payment))
		m.log.Debug("bought",
			zap.Stringer("buyer", buyer),
			zap.String("paid", payment.Dec()),
			zap.String("supply", m.ledger.TotalSupply().Dec()))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m.OneUnit(), nil
}

// Sell burns one unit from seller and pays out GetSellPrice from escrow.
// If the payout cannot be delivered the whole call is rolled back and
// ErrTransferFailed returned.
func (m *Market) Sell(ctx context.Context, seller common.Address) (*uint256.Int, error) {
	var payout *uint256.Int
	err := m.exec(ctx, "sell", func(ctx context.Context) error {
		var err error
		payout, err = m.sellPrice(m.ledger.TotalSupply())
		if err != nil {
			return err
		}
		if err := m.ledger.Burn(seller, m.oneUnit); err != nil {
			return err
		}
		if m.escrow.Lt(payout) {
			return fmt.Errorf("%w: escrow holds %s, payout is %s", ErrTransferFailed, m.escrow.Dec(), payout.Dec())
		}
		m.setEscrow(new(uint256.Int).Sub(m.escrow, payout))
		m.journal.Emit(event.New(m.address, EventSold, []common.Address{seller}, m.oneUnit, payout))
		if err := m.send(ctx, seller, payout); err != nil {
			return fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
		m.log.Debug("sold",
			zap.Stringer("seller", seller),
			zap.String("received", payout.Dec()),
			zap.String("supply", m.ledger.TotalSupply().Dec()))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

// Transfer moves market tokens from one holder to another.
func (m *Market) Transfer(ctx context.Context, from, to common.Address, amount *uint256.Int) error {
	return m.exec(ctx, "transfer", func(context.Context) error {
		return m.ledger.Transfer(from, to, amount)
	})
}

// Approve lets spender move up to amount of owner's market tokens.
func (m *Market) Approve(ctx context.Context, owner, spender common.Address, amount *uint256.Int) error {
	return m.exec(ctx, "approve", func(context.Context) error {
		return m.ledger.Approve(owner, spender, amount)
	})
}

// TransferFrom moves market tokens on behalf of from.
func (m *Market) TransferFrom(ctx context.Context, spender, from, to common.Address, amount *uint256.Int) error {
	return m.exec(ctx, "transferFrom", func(context.Context) error {
		return m.ledger.TransferFrom(spender, from, to, amount)
	})
}

// Liability returns what the market would owe if every unit in circulation
// were sold back one at a time, newest first.
func (m *Market) Liability() (*uint256.Int, error) {
	return m.liability(m.committed.Load().Ledger.Supply)
}

// Solvent reports whether escrow covers Liability.
func (m *Market) Solvent() (bool, error) {
	st := m.committed.Load()
	owed, err := m.liability(st.Ledger.Supply)
	if err != nil {
		return false, err
	}
	return !st.Escrow.Lt(owed), nil
}

// Export returns the committed persistent state.
func (m *Market) Export() State {
	st := m.committed.Load()
	return State{
		Ledger: st.Ledger.Clone(),
		Escrow: new(uint256.Int).Set(st.Escrow),
	}
}

// Restore loads persistent state into an idle market.
func (m *Market) Restore(s State) error {
	if err := m.lock(context.Background(), "restore"); err != nil {
		return err
	}
	defer m.mu.Unlock()
	if m.journal.Len() != 0 {
		return fmt.Errorf("%w: call in progress", ErrInvalidState)
	}
	if s.Ledger.Supply != nil {
		if _, ok := m.curve.PriceAt(s.Ledger.Supply); !ok {
			return fmt.Errorf("%w: supply %s cannot be priced", ErrOverflow, s.Ledger.Supply.Dec())
		}
	}
	if err := m.ledger.Restore(s.Ledger); err != nil {
		return err
	}
	m.escrow = new(uint256.Int)
	if s.Escrow != nil {
		m.escrow.Set(s.Escrow)
	}
	m.publish()
	return nil
}

// --- internal ---

// exec runs fn as one atomic call: locked, inside a journal snapshot,
// committed only if fn succeeds.
func (m *Market) exec(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if err := m.lock(ctx, op); err != nil {
		return err
	}
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx = context.WithValue(ctx, callKey{m}, struct{}{})

	snap := m.journal.Snapshot()
	if err := fn(ctx); err != nil {
		m.journal.RevertToSnapshot(snap)
		m.log.Debug("call reverted", zap.String("op", op), zap.Error(err))
		return err
	}
	evs := m.journal.Commit()
	m.publish()
	m.sink.Publish(evs...)
	return nil
}

// lock takes mu. While a payout is in flight the holder of mu may be the
// caller's own stack, so the call is rejected rather than left waiting.
func (m *Market) lock(ctx context.Context, op string) error {
	if ctx.Value(callKey{m}) != nil {
		return fmt.Errorf("%w: %s during payout", ErrReentrantCall, op)
	}
	if m.mu.TryLock() {
		return nil
	}
	if m.paying.Load() {
		return fmt.Errorf("%w: %s during payout", ErrReentrantCall, op)
	}
	m.mu.Lock()
	return nil
}

// send delivers a payout. Must be called with mu held.
func (m *Market) send(ctx context.Context, to common.Address, amount *uint256.Int) error {
	m.paying.Store(true)
	defer m.paying.Store(false)
	return m.payout.Send(ctx, to, amount)
}

func (m *Market) sellPrice(supply *uint256.Int) (*uint256.Int, error) {
	if supply.Lt(m.oneUnit) {
		return nil, fmt.Errorf("%w: no units in circulation", ErrInvalidState)
	}
	price, ok := m.curve.PriceAt(new(uint256.Int).Sub(supply, m.oneUnit))
	if !ok {
		return nil, ErrOverflow
	}
	return price, nil
}

func (m *Market) liability(supply *uint256.Int) (*uint256.Int, error) {
	owed := new(uint256.Int)
	rest := new(uint256.Int).Set(supply)
	for !rest.Lt(m.oneUnit) {
		rest.Sub(rest, m.oneUnit)
		price, ok := m.curve.PriceAt(rest)
		if !ok {
			return nil, ErrOverflow
		}
		var overflow bool
		if owed, overflow = owed.AddOverflow(owed, price); overflow {
			return nil, ErrOverflow
		}
	}
	return owed, nil
}

func (m *Market) setEscrow(v *uint256.Int) {
	prev := m.escrow
	m.escrow = v
	m.journal.Append(func() { m.escrow = prev })
}

// publish must be called with the lock held (or before the market is
// shared).
func (m *Market) publish() {
	m.committed.Store(&State{
		Ledger: m.ledger.Export(),
		Escrow: new(uint256.Int).Set(m.escrow),
	})
}
