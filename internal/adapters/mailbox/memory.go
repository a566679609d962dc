package mailbox

import (
	"context"
	"sync"

	"github.com/okian/triage/internal/domain/model"
)

// Memory is an in-process Host used by tests and demo mode. Failures
// can be injected per operation to exercise the engine's abort-and-
// retry behavior.
type Memory struct {
	mu          sync.Mutex
	unread      []model.Item
	forwards    []Forwarded
	processed   []model.Item
	lastMailbox string

	// FailForward and FailMark make the corresponding operation fail
	// for items whose identity is in the set, once per entry.
	failForward map[string]int
	failMark    map[string]int
}

// NewMemory creates an empty in-memory mailbox.
func NewMemory() *Memory {
	return &Memory{
		failForward: make(map[string]int),
		failMark:    make(map[string]int),
	}
}

// Deliver adds items to the unread set.
func (m *Memory) Deliver(items ...model.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unread = append(m.unread, items...)
}

// FailNextForward makes the next n forwards of identity fail.
func (m *Memory) FailNextForward(identity string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failForward[identity] = n
}

// FailNextMark makes the next n mark-processed calls of identity fail.
func (m *Memory) FailNextMark(identity string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failMark[identity] = n
}

// ListUnread implements Host. The single unread set stands in for
// whichever mailbox is asked for; the address is recorded so tests
// can assert what the engine requested.
func (m *Memory) ListUnread(ctx context.Context, mailbox string) ([]model.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastMailbox = mailbox
	out := make([]model.Item, len(m.unread))
	copy(out, m.unread)
	return out, nil
}

// Forward implements Host.
func (m *Memory) Forward(ctx context.Context, fw Forwarded) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := fw.Item.Identity()
	if n := m.failForward[id]; n > 0 {
		m.failForward[id] = n - 1
		return ErrHostUnavailable
	}
	m.forwards = append(m.forwards, fw)
	return nil
}

// MarkProcessed implements Host.
func (m *Memory) MarkProcessed(ctx context.Context, item model.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := item.Identity()
	if n := m.failMark[id]; n > 0 {
		m.failMark[id] = n - 1
		return ErrHostUnavailable
	}
	kept := m.unread[:0]
	for _, it := range m.unread {
		if it.Identity() != id {
			kept = append(kept, it)
		}
	}
	m.unread = kept
	m.processed = append(m.processed, item)
	return nil
}

// Forwards returns a copy of all recorded forwards.
func (m *Memory) Forwards() []Forwarded {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Forwarded, len(m.forwards))
	copy(out, m.forwards)
	return out
}

// LastMailbox returns the mailbox address of the most recent
// ListUnread call.
func (m *Memory) LastMailbox() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastMailbox
}

// Processed returns a copy of all items marked processed.
func (m *Memory) Processed() []model.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Item, len(m.processed))
	copy(out, m.processed)
	return out
}
