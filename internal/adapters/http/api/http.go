// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/okian/triage/internal/adapters/activitylog"
	service "github.com/okian/triage/internal/app"
	"github.com/okian/triage/internal/domain/correlation"
	"github.com/okian/triage/internal/domain/model"
	"github.com/okian/triage/internal/domain/policy"
	"github.com/okian/triage/internal/domain/stats"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Snapshot reads for the dashboard surface.
	Summary(from, to time.Time) service.Summary
	Active(f correlation.Filter) []model.Assignment
	StaffStats(from, to time.Time) []stats.StaffStats
	ActivityRows() ([]activitylog.Row, error)
	GetStats() map[string]interface{}

	// Operator mutations.
	Reconcile(ctx context.Context, identity, reason string) (model.ReconciliationRecord, error)
	UndoReconcile(ctx context.Context, identity string) (model.ReconciliationRecord, error)
	BulkReconcile(ctx context.Context, f correlation.Filter, reason string) ([]model.ReconciliationRecord, error)

	// Runtime configuration.
	Roster(ctx context.Context) ([]string, error)
	SetRoster(ctx context.Context, roster []string) error
	PolicyDocument(ctx context.Context) (policy.Document, error)
	SetPolicyDocument(ctx context.Context, doc policy.Document) error
}

// Server wires HTTP routes for the operator API.
type Server struct {
	healthHandler     *HealthHandler
	summaryHandler    *SummaryHandler
	rosterHandler     *RosterHandler
	recipientsHandler *RecipientsHandler
	bucketsHandler    *BucketsHandler
	activeHandler     *ActiveHandler
	reconcileHandler  *ReconcileHandler
	exportHandler     *ExportHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(deps),
		summaryHandler:    NewSummaryHandler(deps),
		rosterHandler:     NewRosterHandler(deps),
		recipientsHandler: NewRecipientsHandler(deps),
		bucketsHandler:    NewBucketsHandler(deps),
		activeHandler:     NewActiveHandler(deps),
		reconcileHandler:  NewReconcileHandler(deps),
		exportHandler:     NewExportHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/api/summary", MetricsMiddleware(s.summaryHandler.HandleSummary, "summary"))
	mux.HandleFunc("/api/roster", MetricsMiddleware(s.rosterHandler.HandleRoster, "roster"))
	mux.HandleFunc("/api/recipients", MetricsMiddleware(s.recipientsHandler.HandleRecipients, "recipients"))
	mux.HandleFunc("/api/buckets", MetricsMiddleware(s.bucketsHandler.HandleBuckets, "buckets"))
	mux.HandleFunc("/api/assignments/active", MetricsMiddleware(s.activeHandler.HandleActive, "active"))
	mux.HandleFunc("/api/assignments/reconcile", MetricsMiddleware(s.reconcileHandler.HandleBulkReconcile, "bulk_reconcile"))
	mux.HandleFunc("/api/assignments/", MetricsMiddleware(s.reconcileHandler.HandleReconcile, "reconcile"))
	mux.HandleFunc("/api/export/active.csv", MetricsMiddleware(s.exportHandler.HandleActiveCSV, "export_active"))
	mux.HandleFunc("/api/export/staff.csv", MetricsMiddleware(s.exportHandler.HandleStaffCSV, "export_staff"))
	mux.HandleFunc("/api/export/history.csv", MetricsMiddleware(s.exportHandler.HandleHistoryCSV, "export_history"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// parseRange decodes optional from/to query parameters. Both RFC3339
// timestamps and bare dates are accepted; a bare "to" date is treated
// as inclusive end of day.
func parseRange(r *http.Request) (time.Time, time.Time, error) {
	var from, to time.Time
	if raw := r.URL.Query().Get("from"); raw != "" {
		t, err := parseStamp(raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = t
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, err := parseStamp(raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		if len(raw) == len(time.DateOnly) {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		to = t
	}
	return from, to, nil
}

func parseStamp(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, ErrBadTimeRange
	}
	return t, nil
}
