// Package correlation holds the set of tracked assignments and
// matches asynchronous completion events back to open assignments by
// reference code.
//
// One assignment exists per item identity and is never deleted, only
// state-transitioned, for audit completeness. Matching is an explicit
// index from reference code to open identities rather than a scan, so
// it stays deterministic and cheap as history grows. When two open
// assignments carry the same reference code, the oldest matches first:
// completions typically arrive in submission order.
package correlation

import (
	"sort"
	"strings"
	"time"

	"github.com/okian/triage/internal/domain/model"
)

// Unmatched records a completion event that matched no open
// assignment. Surfaced as a dashboard warning, never an error, and
// never invents an assignment.
type Unmatched struct {
	RefCode   string    `json:"ref_code"`
	Staff     string    `json:"staff"`
	Subject   string    `json:"subject"`
	Timestamp time.Time `json:"ts"`
}

// Engine is the assignment-completion correlation state machine.
// Not safe for concurrent use; the owning service serializes access.
type Engine struct {
	assignments map[string]*model.Assignment
	// byRef maps reference code to identities in creation order.
	// Entries are pruned lazily as assignments leave OPEN.
	byRef      map[string][]string
	reconciled map[string]model.ReconciliationRecord
	unmatched  []Unmatched
}

// New creates an empty engine.
func New() *Engine {
	return &Engine{
		assignments: make(map[string]*model.Assignment),
		byRef:       make(map[string][]string),
		reconciled:  make(map[string]model.ReconciliationRecord),
	}
}

// Track registers a newly created assignment in state OPEN.
func (e *Engine) Track(a model.Assignment) error {
	if a.Identity == "" {
		return ErrNoIdentity
	}
	if _, ok := e.assignments[a.Identity]; ok {
		return ErrDuplicateIdentity
	}
	a.State = model.StateOpen
	e.assignments[a.Identity] = &a
	if a.RefCode != "" {
		e.byRef[a.RefCode] = append(e.byRef[a.RefCode], a.Identity)
	}
	return nil
}

// Complete consumes a completion event. On a reference-code match the
// oldest open assignment with that code transitions to MATCHED and is
// returned with its duration computed; otherwise the event is recorded
// as an unmatched completion and ok is false.
func (e *Engine) Complete(ev model.CompletionEvent) (model.Assignment, bool) {
	for _, identity := range e.byRef[ev.RefCode] {
		a, ok := e.assignments[identity]
		if !ok || a.State != model.StateOpen {
			continue
		}
		a.State = model.StateMatched
		a.Matched = ev.Timestamp
		a.Duration = ev.Timestamp.Sub(a.CreatedAt)
		e.pruneRef(ev.RefCode)
		return *a, true
	}
	e.unmatched = append(e.unmatched, Unmatched{
		RefCode:   ev.RefCode,
		Staff:     ev.Staff,
		Timestamp: ev.Timestamp,
	})
	return model.Assignment{}, false
}

// pruneRef drops identities that are no longer OPEN from a ref list.
func (e *Engine) pruneRef(ref string) {
	kept := e.byRef[ref][:0]
	for _, identity := range e.byRef[ref] {
		if a, ok := e.assignments[identity]; ok && a.State == model.StateOpen {
			kept = append(kept, identity)
		}
	}
	if len(kept) == 0 {
		delete(e.byRef, ref)
		return
	}
	e.byRef[ref] = kept
}

// Reconcile force-closes an open assignment with an auditable reason.
func (e *Engine) Reconcile(rec model.ReconciliationRecord) (model.ReconciliationRecord, error) {
	a, ok := e.assignments[rec.Identity]
	if !ok || a.State != model.StateOpen {
		return model.ReconciliationRecord{}, ErrNotOpen
	}
	a.State = model.StateReconciled
	if rec.Staff == "" {
		rec.Staff = a.Staff
	}
	e.reconciled[rec.Identity] = rec
	return rec, nil
}

// UndoReconcile reverses a reconciliation: the assignment returns to
// OPEN and the record is dropped.
func (e *Engine) UndoReconcile(identity string) (model.ReconciliationRecord, error) {
	a, ok := e.assignments[identity]
	if !ok || a.State != model.StateReconciled {
		return model.ReconciliationRecord{}, ErrNotReconciled
	}
	rec := e.reconciled[identity]
	a.State = model.StateOpen
	delete(e.reconciled, identity)
	// The identity re-enters FIFO by re-append; creation order is
	// restored on the next snapshot/restore cycle.
	if a.RefCode != "" {
		e.byRef[a.RefCode] = append(e.byRef[a.RefCode], identity)
		e.sortRef(a.RefCode)
	}
	return rec, nil
}

func (e *Engine) sortRef(ref string) {
	ids := e.byRef[ref]
	sort.SliceStable(ids, func(i, j int) bool {
		ai, aok := e.assignments[ids[i]]
		aj, bok := e.assignments[ids[j]]
		if !aok || !bok {
			return false
		}
		return ai.CreatedAt.Before(aj.CreatedAt)
	})
}

// Filter restricts Active and BulkReconcile to a date range and/or a
// staff member. Zero times and empty staff mean no restriction.
type Filter struct {
	From  time.Time
	To    time.Time
	Staff string
}

func (f Filter) matches(a *model.Assignment) bool {
	if !f.From.IsZero() && a.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && a.CreatedAt.After(f.To) {
		return false
	}
	if f.Staff != "" && !strings.EqualFold(f.Staff, a.Staff) {
		return false
	}
	return true
}

// Active returns a snapshot of OPEN assignments matching the filter,
// oldest first.
func (e *Engine) Active(f Filter) []model.Assignment {
	var out []model.Assignment
	for _, a := range e.assignments {
		if a.State == model.StateOpen && f.matches(a) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// BulkReconcile force-closes every OPEN assignment matching the
// filter, one record per identity sharing the given reason.
func (e *Engine) BulkReconcile(f Filter, reason string, ts time.Time, newID func() string) []model.ReconciliationRecord {
	var out []model.ReconciliationRecord
	for _, a := range e.Active(f) {
		rec, err := e.Reconcile(model.ReconciliationRecord{
			ID:        newID(),
			Identity:  a.Identity,
			Staff:     a.Staff,
			Reason:    reason,
			Timestamp: ts,
		})
		if err == nil {
			out = append(out, rec)
		}
	}
	return out
}

// Matched returns MATCHED assignments whose match time falls in the
// range, for the statistics aggregator.
func (e *Engine) Matched(from, to time.Time) []model.Assignment {
	var out []model.Assignment
	for _, a := range e.assignments {
		if a.State != model.StateMatched {
			continue
		}
		if !from.IsZero() && a.Matched.Before(from) {
			continue
		}
		if !to.IsZero() && a.Matched.After(to) {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Matched.Before(out[j].Matched) })
	return out
}

// All returns every tracked assignment, oldest first.
func (e *Engine) All() []model.Assignment {
	out := make([]model.Assignment, 0, len(e.assignments))
	for _, a := range e.assignments {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Get returns one assignment by identity.
func (e *Engine) Get(identity string) (model.Assignment, bool) {
	a, ok := e.assignments[identity]
	if !ok {
		return model.Assignment{}, false
	}
	return *a, true
}

// Reconciled returns the current reconciliation records, newest last.
func (e *Engine) Reconciled() []model.ReconciliationRecord {
	out := make([]model.ReconciliationRecord, 0, len(e.reconciled))
	for _, rec := range e.reconciled {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

// UnmatchedCompletions returns the recorded unmatched completions.
func (e *Engine) UnmatchedCompletions() []Unmatched {
	out := make([]Unmatched, len(e.unmatched))
	copy(out, e.unmatched)
	return out
}
