package ledger

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Snapshot is a detached copy of the ledger contents.
type Snapshot struct {
	Supply     *uint256.Int
	Balances   map[common.Address]*uint256.Int
	Allowances map[common.Address]map[common.Address]*uint256.Int
}

// Export copies the ledger contents.
func (l *Ledger) Export() Snapshot {
	return Snapshot{Supply: l.supply, Balances: l.balances, Allowances: l.allowances}.Clone()
}

// Clone returns a deep copy of s. Zero allowances are dropped.
func (s Snapshot) Clone() Snapshot {
	c := Snapshot{
		Supply:     new(uint256.Int),
		Balances:   make(map[common.Address]*uint256.Int, len(s.Balances)),
		Allowances: make(map[common.Address]map[common.Address]*uint256.Int, len(s.Allowances)),
	}
	if s.Supply != nil {
		c.Supply.Set(s.Supply)
	}
	for a, v := range s.Balances {
		c.Balances[a] = new(uint256.Int).Set(v)
	}
	for owner, m := range s.Allowances {
		if len(m) == 0 {
			continue
		}
		cp := make(map[common.Address]*uint256.Int, len(m))
		for spender, v := range m {
			cp[spender] = new(uint256.Int).Set(v)
		}
		c.Allowances[owner] = cp
	}
	return c
}

// BalanceOf returns the balance of a in s.
func (s Snapshot) BalanceOf(a common.Address) *uint256.Int {
	return amountIn(s.Balances, a)
}

// Allowance returns the allowance of spender over owner in s.
func (s Snapshot) Allowance(owner, spender common.Address) *uint256.Int {
	return amountIn(s.Allowances[owner], spender)
}

// Holders returns every account with a balance in s, sorted by address.
func (s Snapshot) Holders() []common.Address {
	return holders(s.Balances)
}

// Restore replaces the ledger contents with s. The snapshot must balance:
// the sum of all balances equals the supply. Restore is not journaled.
func (l *Ledger) Restore(s Snapshot) error {
	sum := new(uint256.Int)
	balances := make(map[common.Address]*uint256.Int, len(s.Balances))
	for a, v := range s.Balances {
		if v == nil || v.IsZero() {
			continue
		}
		var overflow bool
		sum, overflow = sum.AddOverflow(sum, v)
		if overflow {
			return fmt.Errorf("%w: balances overflow", ErrCorruptSnapshot)
		}
		balances[a] = new(uint256.Int).Set(v)
	}
	supply := new(uint256.Int)
	if s.Supply != nil {
		supply.Set(s.Supply)
	}
	if !sum.Eq(supply) {
		return fmt.Errorf("%w: balances sum to %s, supply is %s", ErrCorruptSnapshot, sum.Dec(), supply.Dec())
	}

	allowances := make(map[common.Address]map[common.Address]*uint256.Int, len(s.Allowances))
	for owner, m := range s.Allowances {
		cp := make(map[common.Address]*uint256.Int, len(m))
		for spender, v := range m {
			if v != nil && !v.IsZero() {
				cp[spender] = new(uint256.Int).Set(v)
			}
		}
		allowances[owner] = cp
	}

	l.supply = supply
	l.balances = balances
	l.allowances = allowances
	return nil
}
