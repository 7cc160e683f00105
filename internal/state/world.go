// Package state persists the local world (deployments, ledgers, native
// balances and the event log) between CLI invocations.
package state

import (
	"errors"
	"fmt"
	"time"

	"github.com/Mohsinsiddi/w3bond/internal/event"
	"github.com/Mohsinsiddi/w3bond/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
)

// Version is the current World layout.
const Version = 1

var (
	ErrBadAmount   = errors.New("bad stored amount")
	ErrBadVersion  = errors.New("unsupported state version")
	ErrNameTaken   = errors.New("name already deployed")
	ErrNotDeployed = errors.New("not deployed")
)

// World is everything the CLI keeps between runs. Amounts are decimal
// strings of smallest units.
type World struct {
	Version   int                       `json:"version"`
	Markets   map[string]*MarketRecord  `json:"markets"`
	Tokens    map[string]*TokenRecord   `json:"tokens"`
	Native    map[common.Address]string `json:"native"`
	Rejecting []common.Address          `json:"rejecting,omitempty"`
	Nonces    map[common.Address]uint64 `json:"nonces"`
	Events    []EventRecord             `json:"events"`
}

// NewWorld returns an empty world.
func NewWorld() *World {
	w := &World{Version: Version}
	w.normalize()
	return w
}

// LedgerRecord is a stored ledger.Snapshot.
type LedgerRecord struct {
	Supply     string                                       `json:"supply"`
	Balances   map[common.Address]string                    `json:"balances"`
	Allowances map[common.Address]map[common.Address]string `json:"allowances,omitempty"`
}

// MarketRecord is a deployed bonding-curve market.
type MarketRecord struct {
	Address    common.Address `json:"address"`
	Deployer   common.Address `json:"deployer"`
	TokenName  string         `json:"token_name"`
	Symbol     string         `json:"symbol"`
	Decimals   uint8          `json:"decimals"`
	SlopeNum   string         `json:"slope_num"`
	SlopeDen   string         `json:"slope_den"`
	Escrow     string         `json:"escrow"`
	Ledger     LedgerRecord   `json:"ledger"`
	DeployedAt time.Time      `json:"deployed_at"`
}

// TokenRecord is a deployed mintable token.
type TokenRecord struct {
	Address    common.Address   `json:"address"`
	Owner      common.Address   `json:"owner"`
	TokenName  string           `json:"token_name"`
	Symbol     string           `json:"symbol"`
	Decimals   uint8            `json:"decimals"`
	Claimed    []common.Address `json:"claimed,omitempty"`
	Ledger     LedgerRecord     `json:"ledger"`
	DeployedAt time.Time        `json:"deployed_at"`
}

// EventRecord is a stored event.Event.
type EventRecord struct {
	ID       uuid.UUID        `json:"id"`
	Contract common.Address   `json:"contract"`
	Name     string           `json:"name"`
	Indexed  []common.Address `json:"indexed,omitempty"`
	Values   []string         `json:"values,omitempty"`
}

// NextNonce returns the deployment nonce of a and advances it.
func (w *World) NextNonce(a common.Address) uint64 {
	n := w.Nonces[a]
	w.Nonces[a] = n + 1
	return n
}

// Deployed reports whether name is used by a market or a token.
func (w *World) Deployed(name string) bool {
	_, m := w.Markets[name]
	_, t := w.Tokens[name]
	return m || t
}

// Lookup finds the contract address of a deployment name.
func (w *World) Lookup(name string) (common.Address, error) {
	if m, ok := w.Markets[name]; ok {
		return m.Address, nil
	}
	if t, ok := w.Tokens[name]; ok {
		return t.Address, nil
	}
	return common.Address{}, fmt.Errorf("%q: %w", name, ErrNotDeployed)
}

func (w *World) normalize() {
	if w.Markets == nil {
		w.Markets = make(map[string]*MarketRecord)
	}
	if w.Tokens == nil {
		w.Tokens = make(map[string]*TokenRecord)
	}
	if w.Native == nil {
		w.Native = make(map[common.Address]string)
	}
	if w.Nonces == nil {
		w.Nonces = make(map[common.Address]uint64)
	}
}

func (w *World) check() error {
	if w.Version == 0 {
		w.Version = Version
	}
	if w.Version != Version {
		return fmt.Errorf("%w: %d", ErrBadVersion, w.Version)
	}
	w.normalize()
	return nil
}

// --- amounts ---

// FormatAmount renders v for storage.
func FormatAmount(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

// ParseAmount reads a stored amount. Empty means zero.
func ParseAmount(s string) (*uint256.Int, error) {
	if s == "" {
		return new(uint256.Int), nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrBadAmount, s, err)
	}
	return v, nil
}

// --- ledger ---

// NewLedgerRecord stores a ledger snapshot.
func NewLedgerRecord(s ledger.Snapshot) LedgerRecord {
	r := LedgerRecord{
		Supply:   FormatAmount(s.Supply),
		Balances: make(map[common.Address]string, len(s.Balances)),
	}
	for a, v := range s.Balances {
		r.Balances[a] = FormatAmount(v)
	}
	for owner, m := range s.Allowances {
		if len(m) == 0 {
			continue
		}
		if r.Allowances == nil {
			r.Allowances = make(map[common.Address]map[common.Address]string)
		}
		cp := make(map[common.Address]string, len(m))
		for spender, v := range m {
			cp[spender] = FormatAmount(v)
		}
		r.Allowances[owner] = cp
	}
	return r
}

// Snapshot converts the record back.
func (r LedgerRecord) Snapshot() (ledger.Snapshot, error) {
	supply, err := ParseAmount(r.Supply)
	if err != nil {
		return ledger.Snapshot{}, err
	}
	s := ledger.Snapshot{
		Supply:     supply,
		Balances:   make(map[common.Address]*uint256.Int, len(r.Balances)),
		Allowances: make(map[common.Address]map[common.Address]*uint256.Int, len(r.Allowances)),
	}
	for a, str := range r.Balances {
		if s.Balances[a], err = ParseAmount(str); err != nil {
			return ledger.Snapshot{}, err
		}
	}
	for owner, m := range r.Allowances {
		cp := make(map[common.Address]*uint256.Int, len(m))
		for spender, str := range m {
			if cp[spender], err = ParseAmount(str); err != nil {
				return ledger.Snapshot{}, err
			}
		}
		s.Allowances[owner] = cp
	}
	return s, nil
}

// --- events ---

// NewEventRecord stores an event.
func NewEventRecord(ev event.Event) EventRecord {
	r := EventRecord{
		ID:       ev.ID,
		Contract: ev.Contract,
		Name:     ev.Name,
		Indexed:  append([]common.Address(nil), ev.Indexed...),
		Values:   make([]string, len(ev.Values)),
	}
	for i, v := range ev.Values {
		r.Values[i] = FormatAmount(v)
	}
	return r
}

// Event converts the record back.
func (r EventRecord) Event() (event.Event, error) {
	ev := event.Event{
		ID:       r.ID,
		Contract: r.Contract,
		Name:     r.Name,
		Indexed:  append([]common.Address(nil), r.Indexed...),
		Values:   make([]*uint256.Int, len(r.Values)),
	}
	for i, s := range r.Values {
		v, err := ParseAmount(s)
		if err != nil {
			return event.Event{}, err
		}
		ev.Values[i] = v
	}
	return ev, nil
}
