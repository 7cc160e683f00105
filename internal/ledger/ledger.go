// Package ledger implements an ERC-20 style balance ledger: balances,
// total supply, allowances, transfer/approve/transferFrom plus mint and burn
// for the contracts that embed it.
//
// Every mutation is journaled, so the embedding contract can roll a failed
// call back. The ledger does no locking of its own.
package ledger

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/Mohsinsiddi/w3bond/internal/event"
	"github.com/Mohsinsiddi/w3bond/internal/journal"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Errors.
var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrInvalidSender         = errors.New("invalid sender")
	ErrInvalidReceiver       = errors.New("invalid receiver")
	ErrInvalidApprover       = errors.New("invalid approver")
	ErrInvalidSpender        = errors.New("invalid spender")
	ErrOverflow              = errors.New("supply overflow")
	ErrCorruptSnapshot       = errors.New("corrupt ledger snapshot")
	ErrInvalidDecimals       = errors.New("invalid decimals")
)

// MaxDecimals is the largest precision whose whole unit, 10^decimals, fits
// in 256 bits.
const MaxDecimals = 77

// Event names.
const (
	EventTransfer = "Transfer"
	EventApproval = "Approval"
)

// MaxAllowance never decreases when spent.
var MaxAllowance = new(uint256.Int).SetAllOne()

// Metadata describes the token.
type Metadata struct {
	Name     string
	Symbol   string
	Decimals uint8
}

// Validate checks that one whole unit is representable.
func (m Metadata) Validate() error {
	if m.Decimals > MaxDecimals {
		return fmt.Errorf("%w: %d (0-%d)", ErrInvalidDecimals, m.Decimals, MaxDecimals)
	}
	return nil
}

// Ledger holds balances and allowances of one token.
type Ledger struct {
	address    common.Address
	meta       Metadata
	journal    *journal.Journal
	supply     *uint256.Int
	balances   map[common.Address]*uint256.Int
	allowances map[common.Address]map[common.Address]*uint256.Int
}

// New creates an empty ledger for the token deployed at address.
func New(address common.Address, meta Metadata, j *journal.Journal) *Ledger {
	return &Ledger{
		address:    address,
		meta:       meta,
		journal:    j,
		supply:     new(uint256.Int),
		balances:   make(map[common.Address]*uint256.Int),
		allowances: make(map[common.Address]map[common.Address]*uint256.Int),
	}
}

// Address returns the token contract address.
func (l *Ledger) Address() common.Address { return l.address }

// Name returns the token name.
func (l *Ledger) Name() string { return l.meta.Name }

// Symbol returns the token symbol.
func (l *Ledger) Symbol() string { return l.meta.Symbol }

// Decimals returns the fractional precision.
func (l *Ledger) Decimals() uint8 { return l.meta.Decimals }

// Metadata returns name, symbol and decimals.
func (l *Ledger) Metadata() Metadata { return l.meta }

// OneUnit returns 10^decimals, one whole token in smallest units. The
// metadata must have passed Validate.
func (l *Ledger) OneUnit() *uint256.Int {
	return new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(l.meta.Decimals)))
}

// TotalSupply returns the amount in circulation.
func (l *Ledger) TotalSupply() *uint256.Int {
	return new(uint256.Int).Set(l.supply)
}

// BalanceOf returns the balance of a.
func (l *Ledger) BalanceOf(a common.Address) *uint256.Int {
	return amountIn(l.balances, a)
}

// Allowance returns how much spender may move on behalf of owner.
func (l *Ledger) Allowance(owner, spender common.Address) *uint256.Int {
	return amountIn(l.allowances[owner], spender)
}

// Transfer moves amount from one account to another.
func (l *Ledger) Transfer(from, to common.Address, amount *uint256.Int) error {
	if from == (common.Address{}) {
		return ErrInvalidSender
	}
	if to == (common.Address{}) {
		return ErrInvalidReceiver
	}
	return l.move(from, to, amount)
}

// Approve sets the allowance of spender over owner's tokens.
func (l *Ledger) Approve(owner, spender common.Address, amount *uint256.Int) error {
	if owner == (common.Address{}) {
		return ErrInvalidApprover
	}
	if spender == (common.Address{}) {
		return ErrInvalidSpender
	}
	l.setAllowance(owner, spender, amount)
	l.journal.Emit(event.New(l.address, EventApproval, []common.Address{owner, spender}, amount))
	return nil
}

// TransferFrom moves amount from `from` to `to` spending spender's
// allowance.
func (l *Ledger) TransferFrom(spender, from, to common.Address, amount *uint256.Int) error {
	if from == (common.Address{}) {
		return ErrInvalidSender
	}
	if to == (common.Address{}) {
		return ErrInvalidReceiver
	}
	allowed := l.Allowance(from, spender)
	if allowed.Lt(amount) {
		return fmt.Errorf("%w: %s allowed, %s requested", ErrInsufficientAllowance, allowed.Dec(), amount.Dec())
	}
	snap := l.journal.Snapshot()
	if !allowed.Eq(MaxAllowance) {
		l.setAllowance(from, spender, new(uint256.Int).Sub(allowed, amount))
	}
	if err := l.move(from, to, amount); err != nil {
		l.journal.RevertToSnapshot(snap)
		return err
	}
	return nil
}

// Mint creates amount new tokens for to.
func (l *Ledger) Mint(to common.Address, amount *uint256.Int) error {
	if to == (common.Address{}) {
		return ErrInvalidReceiver
	}
	supply, overflow := new(uint256.Int).AddOverflow(l.supply, amount)
	if overflow {
		return ErrOverflow
	}
	l.setSupply(supply)
	l.setBalance(to, new(uint256.Int).Add(l.BalanceOf(to), amount))
	l.journal.Emit(event.New(l.address, EventTransfer, []common.Address{{}, to}, amount))
	return nil
}

// Burn destroys amount tokens held by from.
func (l *Ledger) Burn(from common.Address, amount *uint256.Int) error {
	if from == (common.Address{}) {
		return ErrInvalidSender
	}
	bal := l.BalanceOf(from)
	if bal.Lt(amount) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, from.Hex(), bal.Dec(), amount.Dec())
	}
	l.setBalance(from, bal.Sub(bal, amount))
	l.setSupply(new(uint256.Int).Sub(l.supply, amount))
	l.journal.Emit(event.New(l.address, EventTransfer, []common.Address{from, {}}, amount))
	return nil
}

// Holders returns every account with a non-zero balance, sorted by address.
func (l *Ledger) Holders() []common.Address {
	return holders(l.balances)
}

// --- internal ---

func amountIn(m map[common.Address]*uint256.Int, a common.Address) *uint256.Int {
	if v, ok := m[a]; ok {
		return new(uint256.Int).Set(v)
	}
	return new(uint256.Int)
}

func holders(balances map[common.Address]*uint256.Int) []common.Address {
	out := make([]common.Address, 0, len(balances))
	for a := range balances {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i][:], out[j][:]) < 0 })
	return out
}

func (l *Ledger) move(from, to common.Address, amount *uint256.Int) error {
	bal := l.BalanceOf(from)
	if bal.Lt(amount) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, from.Hex(), bal.Dec(), amount.Dec())
	}
	if from != to {
		l.setBalance(from, bal.Sub(bal, amount))
		l.setBalance(to, new(uint256.Int).Add(l.BalanceOf(to), amount))
	}
	l.journal.Emit(event.New(l.address, EventTransfer, []common.Address{from, to}, amount))
	return nil
}

// setBalance replaces the stored pointer rather than mutating it so that the
// undo closure can restore the previous one.
func (l *Ledger) setBalance(a common.Address, v *uint256.Int) {
	prev, had := l.balances[a]
	if v.IsZero() {
		delete(l.balances, a)
	} else {
		l.balances[a] = v
	}
	l.journal.Append(func() {
		if had {
			l.balances[a] = prev
		} else {
			delete(l.balances, a)
		}
	})
}

func (l *Ledger) setSupply(v *uint256.Int) {
	prev := l.supply
	l.supply = v
	l.journal.Append(func() { l.supply = prev })
}

func (l *Ledger) setAllowance(owner, spender common.Address, v *uint256.Int) {
	m, ok := l.allowances[owner]
	if !ok {
		m = make(map[common.Address]*uint256.Int)
		l.allowances[owner] = m
	}
	prev, had := m[spender]
	if v.IsZero() {
		delete(m, spender)
	} else {
		m[spender] = new(uint256.Int).Set(v)
	}
	l.journal.Append(func() {
		if had {
			m[spender] = prev
		} else {
			delete(m, spender)
		}
	})
}
