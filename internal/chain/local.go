// Package chain runs the local world: deployed markets and tokens, native
// balances and the event log, loaded from and written back to a state.World.
package chain

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Mohsinsiddi/w3bond/internal/contract"
	"github.com/Mohsinsiddi/w3bond/internal/event"
	"github.com/Mohsinsiddi/w3bond/internal/ledger"
	"github.com/Mohsinsiddi/w3bond/internal/market"
	"github.com/Mohsinsiddi/w3bond/internal/native"
	"github.com/Mohsinsiddi/w3bond/internal/state"
	"github.com/Mohsinsiddi/w3bond/internal/token"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

// MarketParams configures a new market.
type MarketParams struct {
	Token ledger.Metadata
	Curve market.Curve
}

// Local is the in-process chain.
type Local struct {
	world   *state.World
	bank    *native.Bank
	markets map[string]*market.Market
	tokens  map[string]*token.MintableToken
	kinds   map[common.Address]string
	events  *event.Recorder
	log     *zap.Logger
}

// Load builds live contracts from w. Changes are written back by Commit.
func Load(w *state.World, log *zap.Logger) (*Local, error) {
	if log == nil {
		log = zap.NewNop()
	}
	l := &Local{
		world:   w,
		bank:    native.NewBank(log.Named("native")),
		markets: make(map[string]*market.Market, len(w.Markets)),
		tokens:  make(map[string]*token.MintableToken, len(w.Tokens)),
		kinds:   make(map[common.Address]string),
		log:     log,
	}

	evs := make([]event.Event, 0, len(w.Events))
	for _, r := range w.Events {
		ev, err := r.Event()
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", r.ID, err)
		}
		evs = append(evs, ev)
	}
	l.events = event.NewRecorder(evs)

	ns := native.State{Balances: make(map[common.Address]*uint256.Int, len(w.Native)), Rejecting: w.Rejecting}
	for a, s := range w.Native {
		v, err := state.ParseAmount(s)
		if err != nil {
			return nil, fmt.Errorf("native balance of %s: %w", a.Hex(), err)
		}
		ns.Balances[a] = v
	}
	l.bank.Restore(ns)

	for name, r := range w.Markets {
		m, err := l.restoreMarket(r)
		if err != nil {
			return nil, fmt.Errorf("market %q: %w", name, err)
		}
		l.markets[name] = m
		l.kinds[r.Address] = contract.KindBondedToken
	}
	for name, r := range w.Tokens {
		t, err := l.restoreToken(r)
		if err != nil {
			return nil, fmt.Errorf("token %q: %w", name, err)
		}
		l.tokens[name] = t
		l.kinds[r.Address] = contract.KindMintableToken
	}
	return l, nil
}

// Commit writes the live state back into the world it was loaded from.
func (l *Local) Commit() {
	w := l.world
	bs := l.bank.Export()
	w.Native = make(map[common.Address]string, len(bs.Balances))
	for a, v := range bs.Balances {
		w.Native[a] = state.FormatAmount(v)
	}
	w.Rejecting = bs.Rejecting

	for name, m := range l.markets {
		st := m.Export()
		r := w.Markets[name]
		r.Ledger = state.NewLedgerRecord(st.Ledger)
		r.Escrow = state.FormatAmount(st.Escrow)
	}
	for name, t := range l.tokens {
		st := t.Export()
		r := w.Tokens[name]
		r.Owner = st.Owner
		r.Claimed = st.Claimed
		r.Ledger = state.NewLedgerRecord(st.Ledger)
	}

	all := l.events.All()
	w.Events = make([]state.EventRecord, len(all))
	for i, ev := range all {
		w.Events[i] = state.NewEventRecord(ev)
	}
}

// Bank returns the native-currency accounts.
func (l *Local) Bank() *native.Bank { return l.bank }

// Events returns the event log.
func (l *Local) Events() *event.Recorder { return l.events }

// DeployMarket creates a market. Markets have no owner; the address derives
// from the deployer and the deployer's nonce.
func (l *Local) DeployMarket(deployer common.Address, name string, p MarketParams) (*market.Market, error) {
	if l.world.Deployed(name) {
		return nil, fmt.Errorf("%q: %w", name, state.ErrNameTaken)
	}
	addr := l.nextAddress(deployer)
	m, err := l.newMarket(addr, p)
	if err != nil {
		return nil, err
	}
	l.world.Markets[name] = &state.MarketRecord{
		Address:    addr,
		Deployer:   deployer,
		TokenName:  p.Token.Name,
		Symbol:     p.Token.Symbol,
		Decimals:   p.Token.Decimals,
		SlopeNum:   p.Curve.Numerator().Dec(),
		SlopeDen:   p.Curve.Denominator().Dec(),
		Escrow:     "0",
		Ledger:     state.NewLedgerRecord(ledger.Snapshot{}),
		DeployedAt: time.Now().UTC(),
	}
	l.markets[name] = m
	l.kinds[addr] = contract.KindBondedToken
	l.log.Info("market deployed", zap.String("name", name), zap.Stringer("address", addr), zap.Stringer("curve", p.Curve))
	return m, nil
}

// DeployToken creates a mintable token owned by deployer.
func (l *Local) DeployToken(deployer common.Address, name string, meta ledger.Metadata) (*token.MintableToken, error) {
	if l.world.Deployed(name) {
		return nil, fmt.Errorf("%q: %w", name, state.ErrNameTaken)
	}
	addr := l.nextAddress(deployer)
	t, err := l.newToken(addr, deployer, meta)
	if err != nil {
		return nil, err
	}
	l.world.Tokens[name] = &state.TokenRecord{
		Address:    addr,
		Owner:      deployer,
		TokenName:  meta.Name,
		Symbol:     meta.Symbol,
		Decimals:   meta.Decimals,
		Ledger:     state.NewLedgerRecord(ledger.Snapshot{}),
		DeployedAt: time.Now().UTC(),
	}
	l.tokens[name] = t
	l.kinds[addr] = contract.KindMintableToken
	l.log.Info("token deployed", zap.String("name", name), zap.Stringer("address", addr))
	return t, nil
}

// Market returns a deployed market by name.
func (l *Local) Market(name string) (*market.Market, error) {
	m, ok := l.markets[name]
	if !ok {
		return nil, fmt.Errorf("market %q: %w", name, state.ErrNotDeployed)
	}
	return m, nil
}

// Token returns a deployed token by name.
func (l *Local) Token(name string) (*token.MintableToken, error) {
	t, ok := l.tokens[name]
	if !ok {
		return nil, fmt.Errorf("token %q: %w", name, state.ErrNotDeployed)
	}
	return t, nil
}

// MarketNames returns deployed market names, sorted.
func (l *Local) MarketNames() []string { return sortedKeys(l.markets) }

// TokenNames returns deployed token names, sorted.
func (l *Local) TokenNames() []string { return sortedKeys(l.tokens) }

// MarketRecord returns the stored deployment data of a market.
func (l *Local) MarketRecord(name string) (*state.MarketRecord, error) {
	r, ok := l.world.Markets[name]
	if !ok {
		return nil, fmt.Errorf("market %q: %w", name, state.ErrNotDeployed)
	}
	return r, nil
}

// TokenRecord returns the stored deployment data of a token.
func (l *Local) TokenRecord(name string) (*state.TokenRecord, error) {
	r, ok := l.world.Tokens[name]
	if !ok {
		return nil, fmt.Errorf("token %q: %w", name, state.ErrNotDeployed)
	}
	return r, nil
}

// Buy purchases one unit of the named market. A nil payment pays the
// current buy price. The payment leaves buyer's native balance only if the
// purchase succeeds.
func (l *Local) Buy(ctx context.Context, name string, buyer common.Address, payment *uint256.Int) (*uint256.Int, error) {
	m, err := l.Market(name)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		if payment, err = m.GetBuyPrice(); err != nil {
			return nil, err
		}
	}
	err = l.bank.Call(ctx, buyer, m.Address(), payment, func(ctx context.Context) error {
		_, err := m.Buy(ctx, buyer, payment)
		return err
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// Sell sells one unit of the named market back; proceeds go to seller's
// native balance.
func (l *Local) Sell(ctx context.Context, name string, seller common.Address) (*uint256.Int, error) {
	m, err := l.Market(name)
	if err != nil {
		return nil, err
	}
	return m.Sell(ctx, seller)
}

// GetLogs returns the EVM logs of contract, optionally filtered by event
// names.
func (l *Local) GetLogs(addr common.Address, names ...string) ([]*types.Log, error) {
	kind, ok := l.kinds[addr]
	if !ok {
		return nil, fmt.Errorf("%s: %w", addr.Hex(), state.ErrNotDeployed)
	}
	abi := contract.GetBuiltinABI(kind)
	evs := l.events.Filter(addr, names...)
	logs := make([]*types.Log, 0, len(evs))
	for i, ev := range evs {
		lg, err := contract.EncodeLog(abi, ev)
		if err != nil {
			return nil, err
		}
		lg.Index = uint(i)
		lg.TxHash = common.BytesToHash(ev.ID[:])
		logs = append(logs, lg)
	}
	return logs, nil
}

// Kind returns the builtin ABI kind of a deployed address.
func (l *Local) Kind(addr common.Address) (string, bool) {
	k, ok := l.kinds[addr]
	return k, ok
}

// --- internal ---

func (l *Local) nextAddress(deployer common.Address) common.Address {
	return crypto.CreateAddress(deployer, l.world.NextNonce(deployer))
}

func (l *Local) newMarket(addr common.Address, p MarketParams) (*market.Market, error) {
	return market.New(market.Config{
		Address: addr,
		Token:   p.Token,
		Curve:   p.Curve,
	}, l.bank.Payer(addr),
		market.WithSink(l.events),
		market.WithLogger(l.log.Named("market").With(zap.Stringer("address", addr))))
}

func (l *Local) newToken(addr, owner common.Address, meta ledger.Metadata) (*token.MintableToken, error) {
	return token.New(token.Config{
		Address: addr,
		Owner:   owner,
		Token:   meta,
	}, token.WithSink(l.events),
		token.WithLogger(l.log.Named("token").With(zap.Stringer("address", addr))))
}

func (l *Local) restoreMarket(r *state.MarketRecord) (*market.Market, error) {
	num, err := state.ParseAmount(r.SlopeNum)
	if err != nil {
		return nil, err
	}
	den, err := state.ParseAmount(r.SlopeDen)
	if err != nil {
		return nil, err
	}
	curve, err := market.NewLinearCurve(num, den)
	if err != nil {
		return nil, err
	}
	m, err := l.newMarket(r.Address, MarketParams{
		Token: ledger.Metadata{Name: r.TokenName, Symbol: r.Symbol, Decimals: r.Decimals},
		Curve: curve,
	})
	if err != nil {
		return nil, err
	}
	snap, err := r.Ledger.Snapshot()
	if err != nil {
		return nil, err
	}
	escrow, err := state.ParseAmount(r.Escrow)
	if err != nil {
		return nil, err
	}
	if err := m.Restore(market.State{Ledger: snap, Escrow: escrow}); err != nil {
		return nil, err
	}
	return m, nil
}

func (l *Local) restoreToken(r *state.TokenRecord) (*token.MintableToken, error) {
	// Owner may be zero after renounceOwnership; deploy with a placeholder
	// and let Restore set the real owner.
	t, err := l.newToken(r.Address, r.Address, ledger.Metadata{Name: r.TokenName, Symbol: r.Symbol, Decimals: r.Decimals})
	if err != nil {
		return nil, err
	}
	snap, err := r.Ledger.Snapshot()
	if err != nil {
		return nil, err
	}
	if err := t.Restore(token.State{Owner: r.Owner, Ledger: snap, Claimed: r.Claimed}); err != nil {
		return nil, err
	}
	return t, nil
}

func sortedKeys[T any](m map[string]T) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
