// Package history keeps the most recent calculator results in a fixed-size
// circular log and persists them to a line-oriented store.
package history

import (
	"fmt"
	"log/slog"
)

// DefaultCapacity is the number of entries kept when none is configured.
const DefaultCapacity = 10

// Store persists history lines, oldest first.
type Store interface {
	// ReadLines returns up to the last max lines. A missing store is not an
	// error and yields no lines.
	ReadLines(max int) ([]string, error)
	WriteLines(lines []string) error
	Remove() error
}

// Log is a circular buffer of history entries. Before it fills, entries are
// held in insertion order; once full, each Append overwrites the oldest.
type Log struct {
	entries []string
	next    int
	size    int
	dirty   bool
	store   Store
	log     *slog.Logger
}

// New creates an empty log that is not backed by a store.
func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{
		entries: make([]string, 0, capacity),
		size:    capacity,
		log:     slog.Default(),
	}
}

// Open creates a log filled from store. Read failures are logged and leave the
// log empty. The loaded log is always full: missing entries are blank and sit
// on the oldest side, so a later Save reproduces the same contents.
func Open(capacity int, store Store, log *slog.Logger) *Log {
	h := New(capacity)
	h.store = store
	if log != nil {
		h.log = log
	}

	var lines []string
	if store != nil {
		var err error
		lines, err = store.ReadLines(h.size)
		if err != nil {
			h.log.Warn("history load failed", "err", err)
			lines = nil
		}
	}
	if len(lines) > h.size {
		lines = lines[len(lines)-h.size:]
	}

	h.entries = h.entries[:h.size]
	pad := h.size - len(lines)
	for i := 0; i < pad; i++ {
		h.entries[i] = ""
	}
	copy(h.entries[pad:], lines)
	h.next = 0

	h.log.Debug("history loaded", "entries", len(lines), "capacity", h.size)
	return h
}

// Append adds entry as the newest item in constant time.
func (h *Log) Append(entry string) {
	if len(h.entries) < h.size {
		h.entries = append(h.entries, entry)
		h.next = len(h.entries) % h.size
	} else {
		h.entries[h.next] = entry
		h.next = (h.next + 1) % h.size
	}
	h.dirty = true
}

// At returns an entry by position. On a full log, positions are relative to
// the oldest entry and wrap in both directions, so At(-1) is the newest. On a
// log that is still filling, positions index insertion order directly and
// negative positions count back from the newest.
func (h *Log) At(i int) (string, bool) {
	n := len(h.entries)
	if n == 0 {
		return "", false
	}
	if n == h.size {
		i = ((h.next+i)%n + n) % n
		return h.entries[i], true
	}
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return "", false
	}
	return h.entries[i], true
}

// Newest returns the n most recent entries, newest first, padded with blanks.
func (h *Log) Newest(n int) []string {
	out := make([]string, n)
	for i := 0; i < n && i < len(h.entries); i++ {
		out[i], _ = h.At(-1 - i)
	}
	return out
}

// Entries returns all entries from oldest to newest.
func (h *Log) Entries() []string {
	out := make([]string, 0, len(h.entries))
	if len(h.entries) == h.size {
		out = append(out, h.entries[h.next:]...)
		return append(out, h.entries[:h.next]...)
	}
	return append(out, h.entries...)
}

// Len returns the number of slots in use.
func (h *Log) Len() int { return len(h.entries) }

// Cap returns the capacity.
func (h *Log) Cap() int { return h.size }

// Dirty reports whether there are appends not yet saved.
func (h *Log) Dirty() bool { return h.dirty }

// Save writes the log to its store if it changed since the last save. Leading
// blank slots are not written. On failure the log stays dirty.
func (h *Log) Save() error {
	if !h.dirty {
		return nil
	}
	if h.store == nil {
		h.dirty = false
		return nil
	}

	lines := h.Entries()
	first := 0
	for first < len(lines) && lines[first] == "" {
		first++
	}
	if err := h.store.WriteLines(lines[first:]); err != nil {
		return fmt.Errorf("history: save: %w", err)
	}
	h.dirty = false
	h.log.Debug("history saved", "entries", len(lines)-first)
	return nil
}

// Clear blanks every slot and removes the persisted copy.
func (h *Log) Clear() error {
	for i := range h.entries {
		h.entries[i] = ""
	}
	h.dirty = false
	if h.store == nil {
		return nil
	}
	if err := h.store.Remove(); err != nil {
		return fmt.Errorf("history: clear: %w", err)
	}
	return nil
}
