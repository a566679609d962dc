// Package mailbox declares the mailbox host collaborator boundary.
//
// The engine only ever lists unread items, forwards them, and marks
// them processed, in that order; it never deletes mail. Real host
// integration lives outside this repository; the Memory
// implementation here backs tests and demo mode.
package mailbox

import (
	"context"

	"github.com/okian/triage/internal/domain/model"
)

// Forwarded describes one outbound forward request.
type Forwarded struct {
	Item    model.Item
	To      []string
	CC      []string
	Subject string
}

// Host is the consumed mailbox collaborator interface.
type Host interface {
	// ListUnread returns the current unread items of the named
	// mailbox, oldest first.
	ListUnread(ctx context.Context, mailbox string) ([]model.Item, error)

	// Forward sends item to the given recipients with the given
	// subject. A failure is non-fatal for the tick; the item is
	// retried next tick with no state committed.
	Forward(ctx context.Context, fw Forwarded) error

	// MarkProcessed moves the item out of the unread set.
	MarkProcessed(ctx context.Context, item model.Item) error
}
