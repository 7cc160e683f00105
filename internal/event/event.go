package event

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
)

// Event is a notification emitted by a contract. Indexed holds the address
// arguments (from, to, buyer, ...) and Values the amount arguments, both in
// declaration order.
type Event struct {
	ID       uuid.UUID
	Contract common.Address
	Name     string
	Indexed  []common.Address
	Values   []*uint256.Int
}

// New builds an event with a fresh ID. Values are copied.
func New(contract common.Address, name string, indexed []common.Address, values ...*uint256.Int) Event {
	vals := make([]*uint256.Int, len(values))
	for i, v := range values {
		vals[i] = new(uint256.Int).Set(v)
	}
	return Event{
		ID:       uuid.New(),
		Contract: contract,
		Name:     name,
		Indexed:  indexed,
		Values:   vals,
	}
}

// Sink receives events once the call that emitted them has committed.
type Sink interface {
	Publish(events ...Event)
}

// Discard is a Sink that drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) Publish(...Event) {}

// Recorder is an in-memory Sink preserving publish order. Safe for
// concurrent use.
type Recorder struct {
	mu     sync.RWMutex
	events []Event
}

// NewRecorder creates a recorder pre-filled with events (may be nil).
func NewRecorder(events []Event) *Recorder {
	return &Recorder{events: append([]Event(nil), events...)}
}

// Publish implements Sink.
func (r *Recorder) Publish(events ...Event) {
	r.mu.Lock()
	r.events = append(r.events, events...)
	r.mu.Unlock()
}

// All returns a copy of every recorded event.
func (r *Recorder) All() []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Event(nil), r.events...)
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.events)
}

// Since returns the events recorded after the first n.
func (r *Recorder) Since(n int) []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if n >= len(r.events) {
		return nil
	}
	if n < 0 {
		n = 0
	}
	return append([]Event(nil), r.events[n:]...)
}

// Filter returns the events emitted by contract, optionally restricted to
// the given names.
func (r *Recorder) Filter(contract common.Address, names ...string) []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Event
	for _, e := range r.events {
		if e.Contract != contract {
			continue
		}
		if len(names) > 0 && !contains(names, e.Name) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
