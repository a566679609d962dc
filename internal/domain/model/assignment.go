package model

import "time"

// AssignmentState tracks the lifecycle of a distributed item.
type AssignmentState string

// Assignment lifecycle states. MATCHED is terminal; RECONCILED can be
// undone back to OPEN.
const (
	StateOpen       AssignmentState = "OPEN"
	StateMatched    AssignmentState = "MATCHED"
	StateReconciled AssignmentState = "RECONCILED"
)

// RiskLevel classifies how sensitive an item's requested action looks.
type RiskLevel string

// Risk levels recorded on assignments.
const (
	RiskNormal RiskLevel = "normal"
	RiskReview RiskLevel = "review"
	RiskHigh   RiskLevel = "high"
)

// Assignment is a tracked unit of work routed to a staff member or a
// hold target. Owned by the correlation engine; mutated only through
// the completion-match or reconciliation paths, never deleted.
type Assignment struct {
	Identity  string          `json:"identity"`
	Staff     string          `json:"staff"`
	Bucket    string          `json:"bucket"`
	Action    string          `json:"action"`
	RefCode   string          `json:"ref_code,omitempty"`
	Risk      RiskLevel       `json:"risk"`
	Subject   string          `json:"subject"`
	Sender    string          `json:"sender"`
	State     AssignmentState `json:"state"`
	CreatedAt time.Time       `json:"created_at"`

	// MatchedAt and Duration are set on the MATCHED transition.
	Matched  time.Time     `json:"matched_at,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// CompletionEvent is a transient signal, typically a support-staff
// reply, indicating an assignment's work is done. It is consumed
// immediately against the open assignment set and never stored.
type CompletionEvent struct {
	RefCode   string
	Staff     string
	Timestamp time.Time
}

// ReconciliationRecord captures a manual operator closure of an open
// assignment. Removing the record reverses the closure.
type ReconciliationRecord struct {
	ID        string    `json:"id"`
	Identity  string    `json:"identity"`
	Staff     string    `json:"staff"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"ts"`
}
