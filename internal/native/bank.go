// Package native keeps the native-currency (wei) balances of the local world.
package native

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrRejected          = errors.New("receiver rejected payment")
	ErrOverflow          = errors.New("balance overflow")
)

// State is the persistent part of a bank.
type State struct {
	Balances  map[common.Address]*uint256.Int
	Rejecting []common.Address
}

// Bank holds native balances. Safe for concurrent use.
type Bank struct {
	mu        sync.Mutex
	balances  map[common.Address]*uint256.Int
	rejecting map[common.Address]bool
	log       *zap.Logger
}

// NewBank returns an empty bank. A nil logger is replaced by a no-op one.
func NewBank(log *zap.Logger) *Bank {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bank{
		balances:  make(map[common.Address]*uint256.Int),
		rejecting: make(map[common.Address]bool),
		log:       log,
	}
}

// Balance returns the balance of a.
func (b *Bank) Balance(a common.Address) *uint256.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balance(a)
}

// Credit adds v to a. Used by the faucet; ignores the rejecting flag.
func (b *Bank) Credit(a common.Address, v *uint256.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.credit(a, v)
}

// Debit removes v from a.
func (b *Bank) Debit(a common.Address, v *uint256.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.debit(a, v)
}

// Transfer moves v from one account to another.
func (b *Bank) Transfer(from, to common.Address, v *uint256.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.transfer(from, to, v)
}

// SetRejecting marks a as an account whose receive hook reverts.
func (b *Bank) SetRejecting(a common.Address, reject bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if reject {
		b.rejecting[a] = true
	} else {
		delete(b.rejecting, a)
	}
}

// Rejecting reports whether a refuses incoming payments.
func (b *Bank) Rejecting(a common.Address) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rejecting[a]
}

// Call moves value from caller to target and then runs fn. If fn fails the
// value is returned to caller and fn's error is returned.
//
// The bank is not locked while fn runs, so fn may pay out through a Payer.
func (b *Bank) Call(ctx context.Context, caller, target common.Address, value *uint256.Int, fn func(context.Context) error) error {
	if err := b.Transfer(caller, target, value); err != nil {
		return err
	}
	if err := fn(ctx); err != nil {
		if rerr := b.Transfer(target, caller, value); rerr != nil {
			b.log.Error("cannot refund value",
				zap.Stringer("from", target),
				zap.Stringer("to", caller),
				zap.String("value", value.Dec()),
				zap.Error(rerr))
		}
		return err
	}
	return nil
}

// Payer returns a Payable that sends out of account.
func (b *Bank) Payer(account common.Address) *Payer {
	return &Payer{bank: b, from: account}
}

// Export returns the persistent state.
func (b *Bank) Export() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := State{Balances: make(map[common.Address]*uint256.Int, len(b.balances))}
	for a, v := range b.balances {
		s.Balances[a] = new(uint256.Int).Set(v)
	}
	for a := range b.rejecting {
		s.Rejecting = append(s.Rejecting, a)
	}
	sort.Slice(s.Rejecting, func(i, j int) bool {
		return s.Rejecting[i].Cmp(s.Rejecting[j]) < 0
	})
	return s
}

// Restore replaces the bank contents with s.
func (b *Bank) Restore(s State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances = make(map[common.Address]*uint256.Int, len(s.Balances))
	for a, v := range s.Balances {
		if v != nil && !v.IsZero() {
			b.balances[a] = new(uint256.Int).Set(v)
		}
	}
	b.rejecting = make(map[common.Address]bool, len(s.Rejecting))
	for _, a := range s.Rejecting {
		b.rejecting[a] = true
	}
}

func (b *Bank) balance(a common.Address) *uint256.Int {
	if v, ok := b.balances[a]; ok {
		return new(uint256.Int).Set(v)
	}
	return new(uint256.Int)
}

func (b *Bank) credit(a common.Address, v *uint256.Int) error {
	next, overflow := new(uint256.Int).AddOverflow(b.balance(a), v)
	if overflow {
		return fmt.Errorf("%w: %s", ErrOverflow, a.Hex())
	}
	b.set(a, next)
	return nil
}

func (b *Bank) debit(a common.Address, v *uint256.Int) error {
	cur := b.balance(a)
	if cur.Lt(v) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientFunds, a.Hex(), cur.Dec(), v.Dec())
	}
	b.set(a, cur.Sub(cur, v))
	return nil
}

func (b *Bank) transfer(from, to common.Address, v *uint256.Int) error {
	if from == to {
		if b.balance(from).Lt(v) {
			return fmt.Errorf("%w: %s", ErrInsufficientFunds, from.Hex())
		}
		return nil
	}
	if err := b.debit(from, v); err != nil {
		return err
	}
	if err := b.credit(to, v); err != nil {
		// debit succeeded, so re-crediting the same amount cannot overflow.
		_ = b.credit(from, v)
		return err
	}
	return nil
}

func (b *Bank) set(a common.Address, v *uint256.Int) {
	if v.IsZero() {
		delete(b.balances, a)
		return
	}
	b.balances[a] = v
}

// Payer sends native currency out of one account.
type Payer struct {
	bank *Bank
	from common.Address
}

// Send pays amount to to. Rejecting receivers fail with ErrRejected and
// nothing moves.
func (p *Payer) Send(ctx context.Context, to common.Address, amount *uint256.Int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.bank.mu.Lock()
	defer p.bank.mu.Unlock()
	if p.bank.rejecting[to] {
		return fmt.Errorf("%w: %s", ErrRejected, to.Hex())
	}
	if err := p.bank.transfer(p.from, to, amount); err != nil {
		return err
	}
	p.bank.log.Debug("payout", zap.Stringer("from", p.from), zap.Stringer("to", to), zap.String("amount", amount.Dec()))
	return nil
}
