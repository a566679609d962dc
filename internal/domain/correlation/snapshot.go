package correlation

import (
	"sort"

	"github.com/okian/triage/internal/domain/model"
)

// Snapshot is the persisted form of the engine state.
type Snapshot struct {
	Assignments []model.Assignment           `json:"assignments"`
	Reconciled  []model.ReconciliationRecord `json:"reconciled"`
	Unmatched   []Unmatched                  `json:"unmatched"`
}

// Snapshot captures the full engine state for atomic persistence.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Assignments: e.All(),
		Reconciled:  e.Reconciled(),
		Unmatched:   e.UnmatchedCompletions(),
	}
}

// Restore rebuilds the engine from a snapshot, reconstructing the
// reference-code index from OPEN assignments in creation order.
func (e *Engine) Restore(s Snapshot) {
	e.assignments = make(map[string]*model.Assignment, len(s.Assignments))
	e.byRef = make(map[string][]string)
	e.reconciled = make(map[string]model.ReconciliationRecord, len(s.Reconciled))
	e.unmatched = append([]Unmatched(nil), s.Unmatched...)

	ordered := append([]model.Assignment(nil), s.Assignments...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].CreatedAt.Before(ordered[j].CreatedAt) })
	for i := range ordered {
		a := ordered[i]
		e.assignments[a.Identity] = &a
		if a.State == model.StateOpen && a.RefCode != "" {
			e.byRef[a.RefCode] = append(e.byRef[a.RefCode], a.Identity)
		}
	}
	for _, rec := range s.Reconciled {
		e.reconciled[rec.Identity] = rec
	}
}
