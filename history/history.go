// Package history implements linear snapshot-based undo/redo. Entries are
// whole-graph serializations in a bounded ring; a fixed-size full-state log
// trades memory for correctness over patch-based schemes.
package history

import (
	"fmt"
	"time"

	"memecanvas/core"
)

// DefaultMaxEntries bounds the undo depth when no explicit limit is given.
const DefaultMaxEntries = 50

// Entry is an immutable snapshot of scene state. Never mutated after
// creation.
type Entry struct {
	Snapshot  []byte
	Timestamp time.Time
}

// History holds a bounded ordered sequence of entries plus a cursor. The
// entry at the cursor is the current state.
type History struct {
	entries []Entry
	cursor  int
	max     int
}

// New creates a history with the given entry bound. Non-positive values fall
// back to DefaultMaxEntries.
func New(maxEntries int) *History {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &History{cursor: -1, max: maxEntries}
}

// Commit records a new snapshot as the current state. Entries past the
// cursor are discarded first (the standard discard-future-on-branch rule),
// then the oldest entries are evicted once the bound is exceeded.
func (h *History) Commit(snapshot []byte) {
	if h.cursor < len(h.entries)-1 {
		h.entries = h.entries[:h.cursor+1]
	}

	// Entries are value snapshots; copy so callers cannot alias the stored
	// bytes.
	stored := make([]byte, len(snapshot))
	copy(stored, snapshot)
	h.entries = append(h.entries, Entry{Snapshot: stored, Timestamp: time.Now()})
	h.cursor = len(h.entries) - 1

	if evicted := len(h.entries) - h.max; evicted > 0 {
		h.entries = h.entries[evicted:]
		h.cursor -= evicted
	}
}

// Undo steps the cursor back and returns that snapshot. Returns
// core.ErrUnavailable when there is nothing to undo; callers disable the
// affordance rather than treating it as a failure.
func (h *History) Undo() ([]byte, error) {
	if !h.CanUndo() {
		return nil, fmt.Errorf("undo: %w", core.ErrUnavailable)
	}
	h.cursor--
	return h.entries[h.cursor].Snapshot, nil
}

// Redo steps the cursor forward and returns that snapshot. Returns
// core.ErrUnavailable when there is no future to redo.
func (h *History) Redo() ([]byte, error) {
	if !h.CanRedo() {
		return nil, fmt.Errorf("redo: %w", core.ErrUnavailable)
	}
	h.cursor++
	return h.entries[h.cursor].Snapshot, nil
}

// CanUndo reports whether an earlier state exists. Pure query, no side
// effects.
func (h *History) CanUndo() bool {
	return h.cursor > 0
}

// CanRedo reports whether a later state exists.
func (h *History) CanRedo() bool {
	return h.cursor >= 0 && h.cursor < len(h.entries)-1
}

// Len returns the number of retained entries.
func (h *History) Len() int {
	return len(h.entries)
}
