// Package activitylog appends one CSV row per engine decision to an
// append-only activity file, plus a separate reconciliation log. Rows
// are never rewritten; the header is written once when a file is
// created.
package activitylog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/triage/internal/domain/model"
)

// Event types recorded in the activity log.
const (
	EventAssigned  = "ASSIGNED"
	EventCompleted = "COMPLETED"
	EventHeld      = "HELD"
	EventSkipped   = "SKIPPED"
	EventUnmatched = "UNMATCHED_COMPLETION"
	EventConfig    = "CONFIG_CHANGED"
	EventPoisoned  = "POISONED"
)

// Reconciliation log event types.
const (
	EventReconciled = "RECONCILED"
	EventUndone     = "RECONCILE_UNDONE"
)

var activityHeader = []string{
	"row_id", "ts", "event_type", "identity", "bucket", "action",
	"assignee", "cc_manager", "cc_apps", "ref_code", "risk",
	"status_after", "duration_sec",
}

var reconciliationHeader = []string{
	"row_id", "ts", "event_type", "identity", "staff", "reason",
}

// Row is one activity log entry.
type Row struct {
	Timestamp time.Time
	EventType string
	Identity  string
	Bucket    string
	Action    string
	Assignee  string
	CCManager bool
	CCApps    bool
	RefCode   string
	Risk      model.RiskLevel
	// StatusAfter is the assignment state after the decision, or a
	// short outcome word for non-assignment rows.
	StatusAfter string
	// DurationSec is set on COMPLETED rows.
	DurationSec float64
}

// Log owns the two append-only CSV files.
type Log struct {
	mu                 sync.Mutex
	activityPath       string
	reconciliationPath string
}

// New creates a Log writing under dir.
func New(dir string) *Log {
	return &Log{
		activityPath:       filepath.Join(dir, "activity_log.csv"),
		reconciliationPath: filepath.Join(dir, "reconciliation_log.csv"),
	}
}

// ActivityPath returns the activity CSV location.
func (l *Log) ActivityPath() string { return l.activityPath }

// Append writes one activity row.
func (l *Log) Append(r Row) error {
	duration := ""
	if r.DurationSec > 0 {
		duration = strconv.FormatFloat(r.DurationSec, 'f', 1, 64)
	}
	return l.append(l.activityPath, activityHeader, []string{
		uuid.NewString(),
		r.Timestamp.UTC().Format(time.RFC3339),
		r.EventType,
		r.Identity,
		r.Bucket,
		r.Action,
		r.Assignee,
		strconv.FormatBool(r.CCManager),
		strconv.FormatBool(r.CCApps),
		r.RefCode,
		string(r.Risk),
		r.StatusAfter,
		duration,
	})
}

// AppendReconciliation writes one reconciliation log row.
func (l *Log) AppendReconciliation(eventType string, rec model.ReconciliationRecord) error {
	return l.append(l.reconciliationPath, reconciliationHeader, []string{
		rec.ID,
		rec.Timestamp.UTC().Format(time.RFC3339),
		eventType,
		rec.Identity,
		rec.Staff,
		rec.Reason,
	})
}

func (l *Log) append(path string, header, record []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrAppend, err)
	}
	_, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAppend, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("%w: %v", ErrAppend, err)
		}
	}
	if err := w.Write(record); err != nil {
		return fmt.Errorf("%w: %v", ErrAppend, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrAppend, err)
	}
	return nil
}

// ReadAll parses the activity log back into rows, oldest first. Used
// by the export surface.
func (l *Log) ReadAll() ([]Row, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.activityPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}
	var out []Row
	for i, rec := range records {
		if i == 0 || len(rec) != len(activityHeader) {
			continue
		}
		ts, _ := time.Parse(time.RFC3339, rec[1])
		ccManager, _ := strconv.ParseBool(rec[7])
		ccApps, _ := strconv.ParseBool(rec[8])
		duration, _ := strconv.ParseFloat(rec[12], 64)
		out = append(out, Row{
			Timestamp:   ts,
			EventType:   rec[2],
			Identity:    rec[3],
			Bucket:      rec[4],
			Action:      rec[5],
			Assignee:    rec[6],
			CCManager:   ccManager,
			CCApps:      ccApps,
			RefCode:     rec[9],
			Risk:        model.RiskLevel(rec[10]),
			StatusAfter: rec[11],
			DurationSec: duration,
		})
	}
	return out, nil
}
