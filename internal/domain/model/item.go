// Package model contains domain models passed between layers.
package model

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Item is one unread mailbox item as reported by the mailbox host.
type Item struct {
	// MessageID is the host's stable identifier for the message.
	MessageID string
	Sender    string
	Subject   string
	Body      string
	// HighImportance mirrors the host's importance flag.
	HighImportance bool
	ReceivedAt     time.Time
}

// Identity derives the stable deduplication key for an item. It is a
// hash of the host message identifier, falling back to a composite of
// received time and sender when the host gives no identifier.
func (i Item) Identity() string {
	seed := strings.TrimSpace(i.MessageID)
	if seed == "" {
		seed = fmt.Sprintf("%s|%s|fallback", i.ReceivedAt.UTC().Format(time.RFC3339Nano), strings.ToLower(i.Sender))
	}
	sum := sha1.Sum([]byte(seed))
	return hex.EncodeToString(sum[:])
}

// RefCode derives the reference code stamped into forwarded subjects
// and later extracted from completion replies: "REF-" plus the first
// six hex digits of the identity hash, upper-cased.
func (i Item) RefCode() string {
	id := i.Identity()
	return "REF-" + strings.ToUpper(id[:6])
}
