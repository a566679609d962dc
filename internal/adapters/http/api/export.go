// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/okian/triage/internal/domain/correlation"
)

// ExportHandler handles CSV export requests.
type ExportHandler struct {
	deps Dependencies
}

// NewExportHandler creates a new export handler.
func NewExportHandler(deps Dependencies) *ExportHandler {
	return &ExportHandler{deps: deps}
}

// HandleActiveCSV handles GET /api/export/active.csv requests and
// streams the open assignments matching the optional from/to/staff
// filter.
func (h *ExportHandler) HandleActiveCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	from, to, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	f := correlation.Filter{From: from, To: to, Staff: r.URL.Query().Get("staff")}
	assignments := h.deps.Active(f)

	cw := beginCSV(w, "active.csv")
	_ = cw.Write([]string{"identity", "staff", "bucket", "risk", "ref_code", "subject", "sender", "created_at"})
	for _, a := range assignments {
		_ = cw.Write([]string{
			a.Identity,
			a.Staff,
			a.Bucket,
			string(a.Risk),
			a.RefCode,
			a.Subject,
			a.Sender,
			a.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	cw.Flush()
}

// HandleStaffCSV handles GET /api/export/staff.csv requests with the
// per-staff completion statistics. Median and p90 columns render as
// "no data" when a staff member has zero matched samples.
func (h *ExportHandler) HandleStaffCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	from, to, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	staffFilter := r.URL.Query().Get("staff")

	cw := beginCSV(w, "staff.csv")
	_ = cw.Write([]string{"staff", "assigned", "completed", "active", "median_minutes", "p90_minutes", "low_confidence"})
	for _, st := range h.deps.StaffStats(from, to) {
		if staffFilter != "" && !strings.EqualFold(staffFilter, st.Staff) {
			continue
		}
		median, p90 := "no data", "no data"
		if st.HasData {
			median = strconv.FormatFloat(st.MedianMinutes, 'f', 1, 64)
			p90 = strconv.FormatFloat(st.P90Minutes, 'f', 1, 64)
		}
		_ = cw.Write([]string{
			st.Staff,
			strconv.Itoa(st.Assigned),
			strconv.Itoa(st.Completed),
			strconv.Itoa(st.Active),
			median,
			p90,
			strconv.FormatBool(st.LowConfidence),
		})
	}
	cw.Flush()
}

// HandleHistoryCSV handles GET /api/export/history.csv requests and
// replays the activity log, optionally narrowed to one reference code.
func (h *ExportHandler) HandleHistoryCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	rows, err := h.deps.ActivityRows()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	ref := r.URL.Query().Get("ref")

	cw := beginCSV(w, "history.csv")
	_ = cw.Write([]string{"ts", "event_type", "identity", "bucket", "action", "assignee", "ref_code", "risk", "status_after", "duration_sec"})
	for _, row := range rows {
		if ref != "" && !strings.EqualFold(ref, row.RefCode) {
			continue
		}
		duration := ""
		if row.DurationSec > 0 {
			duration = strconv.FormatFloat(row.DurationSec, 'f', 1, 64)
		}
		_ = cw.Write([]string{
			row.Timestamp.UTC().Format(time.RFC3339),
			row.EventType,
			row.Identity,
			row.Bucket,
			row.Action,
			row.Assignee,
			row.RefCode,
			string(row.Risk),
			row.StatusAfter,
			duration,
		})
	}
	cw.Flush()
}

func beginCSV(w http.ResponseWriter, filename string) *csv.Writer {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	w.WriteHeader(http.StatusOK)
	return csv.NewWriter(w)
}
