// Package ledger implements the idempotency ledger: the append-checked
// set of previously handled item identities.
//
// Seen is consulted before any side-effecting action, Record only
// after the action succeeds. Until Record succeeds the system is
// at-least-once; a crash mid-action leaves the item unrecorded and
// safely retryable.
package ledger

import (
	"sort"
	"time"
)

// Entry is one handled item identity with its outcome.
type Entry struct {
	Outcome   string    `json:"outcome"`
	Timestamp time.Time `json:"ts"`
}

// Ledger is the in-memory ledger. Persistence is the caller's
// responsibility via Snapshot/Restore around each mutation.
type Ledger struct {
	entries map[string]Entry
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{entries: make(map[string]Entry)}
}

// Seen reports whether identity was already handled.
func (l *Ledger) Seen(identity string) bool {
	_, ok := l.entries[identity]
	return ok
}

// Record marks identity handled. An identity appears at most once;
// the first write wins and repeats are ignored.
func (l *Ledger) Record(identity, outcome string, ts time.Time) {
	if identity == "" {
		return
	}
	if _, ok := l.entries[identity]; ok {
		return
	}
	l.entries[identity] = Entry{Outcome: outcome, Timestamp: ts}
}

// Len returns the number of recorded identities.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Snapshot returns a copy of the ledger map for persistence.
func (l *Ledger) Snapshot() map[string]Entry {
	out := make(map[string]Entry, len(l.entries))
	for k, v := range l.entries {
		out[k] = v
	}
	return out
}

// Restore replaces the ledger contents, typically at startup.
func (l *Ledger) Restore(entries map[string]Entry) {
	l.entries = make(map[string]Entry, len(entries))
	for k, v := range entries {
		l.entries[k] = v
	}
}

// Identities returns the recorded identities in sorted order.
func (l *Ledger) Identities() []string {
	out := make([]string, 0, len(l.entries))
	for k := range l.entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
