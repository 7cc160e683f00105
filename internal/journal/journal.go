// Package journal records how to undo state mutations so that a contract
// call either commits in full or leaves no trace.
//
// A call takes a Snapshot, mutates state (each mutation appends its undo
// closure) and then either Commits or reverts to the snapshot. Events emitted
// during the call are buffered in the journal and dropped on revert.
package journal

import "github.com/Mohsinsiddi/w3bond/internal/event"

type entry struct {
	undo  func()
	event bool
}

// Journal is not safe for concurrent use; the owning contract serialises
// access.
type Journal struct {
	entries []entry
	events  []event.Event
}

// New creates an empty journal.
func New() *Journal {
	return &Journal{}
}

// Snapshot returns an id usable with RevertToSnapshot.
func (j *Journal) Snapshot() int {
	return len(j.entries)
}

// Append records the undo action for a mutation that has just been applied.
func (j *Journal) Append(undo func()) {
	j.entries = append(j.entries, entry{undo: undo})
}

// Emit buffers an event until Commit.
func (j *Journal) Emit(ev event.Event) {
	j.events = append(j.events, ev)
	j.entries = append(j.entries, entry{event: true})
}

// RevertToSnapshot undoes every mutation recorded after id, newest first.
func (j *Journal) RevertToSnapshot(id int) {
	if id < 0 || id > len(j.entries) {
		panic("journal: invalid snapshot id")
	}
	for i := len(j.entries) - 1; i >= id; i-- {
		e := j.entries[i]
		if e.event {
			j.events = j.events[:len(j.events)-1]
			continue
		}
		e.undo()
	}
	j.entries = j.entries[:id]
}

// Commit forgets all undo entries and returns the buffered events.
func (j *Journal) Commit() []event.Event {
	evs := j.events
	j.entries = j.entries[:0]
	j.events = nil
	return evs
}

// Len returns the number of pending entries.
func (j *Journal) Len() int {
	return len(j.entries)
}
