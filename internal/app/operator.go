package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/triage/internal/adapters/activitylog"
	"github.com/okian/triage/internal/adapters/statefile"
	"github.com/okian/triage/internal/domain/correlation"
	"github.com/okian/triage/internal/domain/model"
	"github.com/okian/triage/internal/domain/policy"
	"github.com/okian/triage/pkg/logger"
	"github.com/okian/triage/pkg/metrics"
)

// Operator mutations. These serialize against the polling tick on the
// same mutex so no two engine mutations ever interleave.

// Reconcile force-closes one OPEN assignment with an auditable reason.
func (s *Service) Reconcile(ctx context.Context, identity, reason string) (model.ReconciliationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.engine.Reconcile(model.ReconciliationRecord{
		ID:        uuid.NewString(),
		Identity:  identity,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return model.ReconciliationRecord{}, err
	}

	if perr := s.persistEngine(ctx); perr != nil {
		// Unwind so memory never outruns the durable record.
		if _, uerr := s.engine.UndoReconcile(identity); uerr != nil {
			s.logger.Error(ctx, "reconcile rollback failed", logger.String("identity", identity), logger.Error(uerr))
		}
		return model.ReconciliationRecord{}, fmt.Errorf("persist reconciliation: %w", perr)
	}
	if err := s.audit.AppendReconciliation(activitylog.EventReconciled, rec); err != nil {
		s.logger.Error(ctx, "reconciliation log append failed", logger.Error(err))
	}
	metrics.RecordReconciliation()

	s.logger.Info(ctx, "assignment reconciled",
		logger.String("identity", identity),
		logger.String("staff", rec.Staff),
		logger.String("reason", reason),
	)
	return rec, nil
}

// UndoReconcile reverses a reconciliation, returning the assignment
// to OPEN and dropping the record.
func (s *Service) UndoReconcile(ctx context.Context, identity string) (model.ReconciliationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.engine.UndoReconcile(identity)
	if err != nil {
		return model.ReconciliationRecord{}, err
	}

	if perr := s.persistEngine(ctx); perr != nil {
		if _, uerr := s.engine.Reconcile(rec); uerr != nil {
			s.logger.Error(ctx, "undo rollback failed", logger.String("identity", identity), logger.Error(uerr))
		}
		return model.ReconciliationRecord{}, fmt.Errorf("persist reconciliation: %w", perr)
	}
	if err := s.audit.AppendReconciliation(activitylog.EventUndone, rec); err != nil {
		s.logger.Error(ctx, "reconciliation log append failed", logger.Error(err))
	}
	metrics.RecordReconciliationUndo()

	s.logger.Info(ctx, "reconciliation undone", logger.String("identity", identity))
	return rec, nil
}

// BulkReconcile force-closes every OPEN assignment matching the
// filter, one record per identity sharing one reason string.
func (s *Service) BulkReconcile(ctx context.Context, f correlation.Filter, reason string) ([]model.ReconciliationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := s.engine.BulkReconcile(f, reason, time.Now().UTC(), uuid.NewString)
	if len(recs) == 0 {
		return nil, nil
	}

	if perr := s.persistEngine(ctx); perr != nil {
		for _, rec := range recs {
			if _, uerr := s.engine.UndoReconcile(rec.Identity); uerr != nil {
				s.logger.Error(ctx, "bulk reconcile rollback failed", logger.String("identity", rec.Identity), logger.Error(uerr))
			}
		}
		return nil, fmt.Errorf("persist reconciliation: %w", perr)
	}
	for _, rec := range recs {
		if err := s.audit.AppendReconciliation(activitylog.EventReconciled, rec); err != nil {
			s.logger.Error(ctx, "reconciliation log append failed", logger.Error(err))
		}
		metrics.RecordReconciliation()
	}

	s.logger.Info(ctx, "bulk reconcile applied",
		logger.Int("count", len(recs)),
		logger.String("reason", reason),
	)
	return recs, nil
}

// Roster returns the current hot-reloaded roster.
func (s *Service) Roster(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roster.Get(ctx)
}

// SetRoster rewrites the roster file; the change takes effect on the
// next tick's hot reload.
func (s *Service) SetRoster(ctx context.Context, roster []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lines []string
	for _, addr := range roster {
		if a := policy.NormalizeAddress(addr); a != "" {
			lines = append(lines, a)
		}
	}
	if err := statefile.SaveLines(s.rosterPath, lines); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigWrite, err)
	}

	s.appendAudit(ctx, activitylog.Row{
		Timestamp: time.Now().UTC(), EventType: activitylog.EventConfig,
		Action: "roster", StatusAfter: fmt.Sprintf("%d members", len(lines)),
	})
	s.logger.Info(ctx, "roster updated", logger.Int("members", len(lines)))
	return nil
}

// PolicyDocument returns the editable on-disk policy record.
func (s *Service) PolicyDocument(ctx context.Context) (policy.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readPolicyDocument()
}

// SetPolicyDocument rewrites the policy file from an edited document.
func (s *Service) SetPolicyDocument(ctx context.Context, doc policy.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := doc.Marshal()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfigWrite, err)
	}
	if err := statefile.WriteAtomic(s.policyPath, data); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigWrite, err)
	}

	s.appendAudit(ctx, activitylog.Row{
		Timestamp: time.Now().UTC(), EventType: activitylog.EventConfig,
		Action: "policy", StatusAfter: "updated",
	})
	s.logger.Info(ctx, "policy updated")
	return nil
}

func (s *Service) readPolicyDocument() (policy.Document, error) {
	data, err := statefile.Load(s.policyPath)
	if err != nil {
		return policy.Document{}, err
	}
	return policy.ParseDocument(data)
}
