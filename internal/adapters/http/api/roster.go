// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
)

// rosterDocument mirrors the GET/PUT /api/roster body.
type rosterDocument struct {
	Staff []string `json:"staff"`
}

// RosterHandler handles roster read and replace requests.
type RosterHandler struct {
	deps Dependencies
}

// NewRosterHandler creates a new roster handler.
func NewRosterHandler(deps Dependencies) *RosterHandler {
	return &RosterHandler{deps: deps}
}

// HandleRoster handles GET and PUT /api/roster requests. PUT replaces
// the full roster; rotation order follows list order.
func (h *RosterHandler) HandleRoster(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		staff, err := h.deps.Roster(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err)
			return
		}
		writeJSON(w, http.StatusOK, rosterDocument{Staff: staff})
	case http.MethodPut:
		var doc rosterDocument
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		if len(doc.Staff) == 0 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrEmptyRoster)
			return
		}
		if err := h.deps.SetRoster(r.Context(), doc.Staff); err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err)
			return
		}
		writeJSON(w, http.StatusOK, doc)
	default:
		http.NotFound(w, r)
	}
}
