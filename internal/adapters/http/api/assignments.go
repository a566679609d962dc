// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/triage/internal/domain/correlation"
	"github.com/okian/triage/internal/domain/model"
)

// ActiveHandler handles open-assignment listing requests.
type ActiveHandler struct {
	deps Dependencies
}

// NewActiveHandler creates a new active-assignments handler.
func NewActiveHandler(deps Dependencies) *ActiveHandler {
	return &ActiveHandler{deps: deps}
}

// HandleActive handles GET /api/assignments/active?from=&to=&staff= requests.
func (h *ActiveHandler) HandleActive(w http.ResponseWriter, r *http.Request) {
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
	writeJSON(w, http.StatusOK, h.deps.Active(f))
}

// reconcileRequest mirrors the POST reconcile bodies. Filter fields
// are honored only by the bulk endpoint.
type reconcileRequest struct {
	Reason string `json:"reason"`
	Staff  string `json:"staff,omitempty"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
}

// ReconcileHandler handles manual reconciliation requests.
type ReconcileHandler struct {
	deps Dependencies
}

// NewReconcileHandler creates a new reconcile handler.
func NewReconcileHandler(deps Dependencies) *ReconcileHandler {
	return &ReconcileHandler{deps: deps}
}

// HandleReconcile handles POST and DELETE
// /api/assignments/{identity}/reconcile requests. POST closes the
// assignment with an operator-supplied reason; DELETE undoes a prior
// reconciliation and reopens it.
func (h *ReconcileHandler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/assignments/")
	identity, ok := strings.CutSuffix(rest, "/reconcile")
	if !ok || identity == "" || strings.Contains(identity, "/") {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodPost:
		var req reconcileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		if strings.TrimSpace(req.Reason) == "" {
			writeError(w, http.StatusBadRequest, "bad_request", ErrEmptyReason)
			return
		}
		rec, err := h.deps.Reconcile(r.Context(), identity, req.Reason)
		if err != nil {
			writeReconcileError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	case http.MethodDelete:
		rec, err := h.deps.UndoReconcile(r.Context(), identity)
		if err != nil {
			writeReconcileError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	default:
		http.NotFound(w, r)
	}
}

// HandleBulkReconcile handles POST /api/assignments/reconcile requests
// closing every open assignment matching the body's filter.
func (h *ReconcileHandler) HandleBulkReconcile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req reconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if strings.TrimSpace(req.Reason) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrEmptyReason)
		return
	}
	f := correlation.Filter{Staff: req.Staff}
	if req.From != "" {
		t, err := parseStamp(req.From)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		f.From = t
	}
	if req.To != "" {
		t, err := parseStamp(req.To)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		f.To = t
	}
	recs, err := h.deps.BulkReconcile(r.Context(), f, req.Reason)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	if recs == nil {
		recs = []model.ReconciliationRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// writeReconcileError translates correlation sentinels to HTTP status codes.
func writeReconcileError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, correlation.ErrNotOpen):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, correlation.ErrNotReconciled):
		writeError(w, http.StatusConflict, "conflict", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
