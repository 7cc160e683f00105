// Package token implements an owner-mintable ERC-20 with a one-time public
// faucet claim per address.
package token

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Mohsinsiddi/w3bond/internal/event"
	"github.com/Mohsinsiddi/w3bond/internal/journal"
	"github.com/Mohsinsiddi/w3bond/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

var (
	ErrUnauthorized   = errors.New("caller is not the owner")
	ErrAlreadyClaimed = errors.New("already claimed")
	ErrInvalidOwner   = errors.New("invalid owner")
)

// Event names.
const (
	EventOwnershipTransferred = "OwnershipTransferred"
)

// Config describes a token deployment.
type Config struct {
	Address common.Address
	Owner   common.Address
	Token   ledger.Metadata
}

// State is the persistent part of a token.
type State struct {
	Owner   common.Address
	Ledger  ledger.Snapshot
	Claimed []common.Address
}

// MintableToken is an ERC-20 whose owner can mint at will and whose
// public faucet hands every address one whole unit, once.
type MintableToken struct {
	mu      sync.Mutex
	address common.Address
	owner   common.Address
	journal *journal.Journal
	ledger  *ledger.Ledger
	claimed map[common.Address]bool
	sink    event.Sink
	log     *zap.Logger
}

// Option configures a MintableToken.
type Option func(*MintableToken)

// WithSink publishes committed events to s.
func WithSink(s event.Sink) Option {
	return func(t *MintableToken) { t.sink = s }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(t *MintableToken) { t.log = l }
}

// New deploys a token with zero supply owned by cfg.Owner.
func New(cfg Config, opts ...Option) (*MintableToken, error) {
	if cfg.Owner == (common.Address{}) {
		return nil, fmt.Errorf("%w: zero address", ErrInvalidOwner)
	}
	if err := cfg.Token.Validate(); err != nil {
		return nil, err
	}
	j := journal.New()
	t := &MintableToken{
		address: cfg.Address,
		owner:   cfg.Owner,
		journal: j,
		ledger:  ledger.New(cfg.Address, cfg.Token, j),
		claimed: make(map[common.Address]bool),
		sink:    event.Discard,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func (t *MintableToken) Address() common.Address { return t.address }

func (t *MintableToken) Token() ledger.Metadata { return t.ledger.Metadata() }

func (t *MintableToken) OneUnit() *uint256.Int { return t.ledger.OneUnit() }

func (t *MintableToken) Owner() common.Address {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.owner
}

func (t *MintableToken) TotalSupply() *uint256.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ledger.TotalSupply()
}

func (t *MintableToken) BalanceOf(a common.Address) *uint256.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ledger.BalanceOf(a)
}

func (t *MintableToken) Allowance(owner, spender common.Address) *uint256.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ledger.Allowance(owner, spender)
}

func (t *MintableToken) Holders() []common.Address {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ledger.Holders()
}

// Claimed reports whether a has used its public mint.
func (t *MintableToken) Claimed(a common.Address) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.claimed[a]
}

// Mint creates amount new tokens for to. Only the owner may call it.
func (t *MintableToken) Mint(ctx context.Context, caller, to common.Address, amount *uint256.Int) error {
	return t.exec(ctx, "mint", func() error {
		if caller != t.owner {
			return fmt.Errorf("%w: %s", ErrUnauthorized, caller.Hex())
		}
		if err := t.ledger.Mint(to, amount); err != nil {
			return err
		}
		t.log.Debug("minted", zap.Stringer("to", to), zap.String("amount", amount.Dec()))
		return nil
	})
}

// PublicMint credits caller with one whole unit. Each address may claim
// once; the flag is set even if the holder later transfers the tokens away.
func (t *MintableToken) PublicMint(ctx context.Context, caller common.Address) (*uint256.Int, error) {
	unit := t.ledger.OneUnit()
	err := t.exec(ctx, "publicMint", func() error {
		if t.claimed[caller] {
			return fmt.Errorf("%w: %s", ErrAlreadyClaimed, caller.Hex())
		}
		if err := t.ledger.Mint(caller, unit); err != nil {
			return err
		}
		t.claimed[caller] = true
		t.journal.Append(func() { delete(t.claimed, caller) })
		t.log.Debug("public mint", zap.Stringer("to", caller))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return unit, nil
}

func (t *MintableToken) Transfer(ctx context.Context, from, to common.Address, amount *uint256.Int) error {
	return t.exec(ctx, "transfer", func() error {
		return t.ledger.Transfer(from, to, amount)
	})
}

func (t *MintableToken) Approve(ctx context.Context, owner, spender common.Address, amount *uint256.Int) error {
	return t.exec(ctx, "approve", func() error {
		return t.ledger.Approve(owner, spender, amount)
	})
}

func (t *MintableToken) TransferFrom(ctx context.Context, spender, from, to common.Address, amount *uint256.Int) error {
	return t.exec(ctx, "transferFrom", func() error {
		return t.ledger.TransferFrom(spender, from, to, amount)
	})
}

// TransferOwnership hands the mint right to newOwner.
func (t *MintableToken) TransferOwnership(ctx context.Context, caller, newOwner common.Address) error {
	if newOwner == (common.Address{}) {
		return fmt.Errorf("%w: zero address", ErrInvalidOwner)
	}
	return t.exec(ctx, "transferOwnership", func() error {
		return t.setOwner(caller, newOwner)
	})
}

// RenounceOwnership leaves the token without an owner. Mint is disabled for
// good; PublicMint keeps working.
func (t *MintableToken) RenounceOwnership(ctx context.Context, caller common.Address) error {
	return t.exec(ctx, "renounceOwnership", func() error {
		return t.setOwner(caller, common.Address{})
	})
}

// Export returns the persistent state.
func (t *MintableToken) Export() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	claimed := make([]common.Address, 0, len(t.claimed))
	for a := range t.claimed {
		claimed = append(claimed, a)
	}
	sort.Slice(claimed, func(i, j int) bool {
		return claimed[i].Cmp(claimed[j]) < 0
	})
	return State{
		Owner:   t.owner,
		Ledger:  t.ledger.Export(),
		Claimed: claimed,
	}
}

// Restore loads persistent state into an idle token.
func (t *MintableToken) Restore(s State) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.ledger.Restore(s.Ledger); err != nil {
		return err
	}
	t.owner = s.Owner
	t.claimed = make(map[common.Address]bool, len(s.Claimed))
	for _, a := range s.Claimed {
		t.claimed[a] = true
	}
	return nil
}

func (t *MintableToken) setOwner(caller, next common.Address) error {
	if caller != t.owner || t.owner == (common.Address{}) {
		return fmt.Errorf("%w: %s", ErrUnauthorized, caller.Hex())
	}
	prev := t.owner
	t.owner = next
	t.journal.Append(func() { t.owner = prev })
	t.journal.Emit(event.New(t.address, EventOwnershipTransferred, []common.Address{prev, next}))
	return nil
}

func (t *MintableToken) exec(ctx context.Context, op string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := t.journal.Snapshot()
	if err := fn(); err != nil {
		t.journal.RevertToSnapshot(snap)
		t.log.Debug("call reverted", zap.String("op", op), zap.Error(err))
		return err
	}
	t.sink.Publish(t.journal.Commit()...)
	return nil
}
