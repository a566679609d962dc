package service

import (
	"time"

	"github.com/okian/triage/internal/adapters/activitylog"
	"github.com/okian/triage/internal/domain/burst"
	"github.com/okian/triage/internal/domain/correlation"
	"github.com/okian/triage/internal/domain/model"
	"github.com/okian/triage/internal/domain/stats"
)

// Snapshot reads for the dashboard. They copy under the read lock and
// never block the tick's write path beyond the copy itself.

// Summary is the date-range-filtered dashboard view.
type Summary struct {
	GeneratedAt time.Time          `json:"generated_at"`
	From        time.Time          `json:"from,omitempty"`
	To          time.Time          `json:"to,omitempty"`
	Staff       []stats.StaffStats `json:"staff"`

	TotalAssigned  int `json:"total_assigned"`
	TotalCompleted int `json:"total_completed"`
	Active         int `json:"active"`
	Unmatched      int `json:"unmatched_completions"`
	Reconciled     int `json:"reconciled"`
	LedgerSize     int `json:"ledger_size"`

	Burst burst.Status `json:"burst"`
}

// Summary builds the dashboard summary for [from, to]. Zero bounds
// mean unbounded.
func (s *Service) Summary(from, to time.Time) Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.engine.All()
	rows := stats.Compute(all, from, to)

	var assigned, completed int
	for _, r := range rows {
		assigned += r.Assigned
		completed += r.Completed
	}

	status, _ := s.detector.Evaluate(time.Now().UTC())

	return Summary{
		GeneratedAt:    time.Now().UTC(),
		From:           from,
		To:             to,
		Staff:          rows,
		TotalAssigned:  assigned,
		TotalCompleted: completed,
		Active:         len(s.engine.Active(correlation.Filter{})),
		Unmatched:      len(s.engine.UnmatchedCompletions()),
		Reconciled:     len(s.engine.Reconciled()),
		LedgerSize:     s.ledger.Len(),
		Burst:          status,
	}
}

// Active returns the OPEN assignments matching the filter, oldest
// first.
func (s *Service) Active(f correlation.Filter) []model.Assignment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Active(f)
}

// Assignments returns every tracked assignment in any state.
func (s *Service) Assignments() []model.Assignment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.All()
}

// Assignment looks one assignment up by identity.
func (s *Service) Assignment(identity string) (model.Assignment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Get(identity)
}

// StaffStats computes the per-staff KPI table for [from, to].
func (s *Service) StaffStats(from, to time.Time) []stats.StaffStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return stats.Compute(s.engine.All(), from, to)
}

// UnmatchedCompletions returns the tracked completion events that
// matched no open assignment.
func (s *Service) UnmatchedCompletions() []correlation.Unmatched {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.UnmatchedCompletions()
}

// Reconciled returns the current reconciliation records.
func (s *Service) Reconciled() []model.ReconciliationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Reconciled()
}

// ActivityRows reads the full activity log for exports. The log file
// has its own lock; engine state is not touched.
func (s *Service) ActivityRows() ([]activitylog.Row, error) {
	return s.audit.ReadAll()
}

// BurstStatus evaluates the detector without recording anything.
func (s *Service) BurstStatus() burst.Status {
	status, _ := s.detector.Evaluate(time.Now().UTC())
	return status
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"started":     s.started,
		"safeMode":    s.safeMode,
		"open":        len(s.engine.Active(correlation.Filter{})),
		"ledgerSize":  s.ledger.Len(),
		"rosterSize":  len(s.rotation.Roster),
		"unmatched":   len(s.engine.UnmatchedCompletions()),
		"reconciled":  len(s.engine.Reconciled()),
		"burstBucket": s.burstBucket,
	}
}
