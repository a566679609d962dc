// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/okian/triage/internal/domain/policy"
)

// recipientsDocument mirrors the GET/PUT /api/recipients body. It is
// the escalation slice of the routing policy.
type recipientsDocument struct {
	Manager  []string `json:"manager"`
	AppsTeam []string `json:"apps_team"`
}

// bucketsDocument mirrors the GET/PUT /api/buckets body. It is the
// classification slice of the routing policy.
type bucketsDocument struct {
	ExternalImageRequest policy.BucketMembers `json:"external_image_request"`
	SystemNotification   policy.BucketMembers `json:"system_notification"`
	Hold                 policy.BucketMembers `json:"hold"`
	InternalDomains      []string             `json:"internal_domains"`
	SupportStaff         []string             `json:"support_staff"`
}

// RecipientsHandler handles escalation recipient requests.
type RecipientsHandler struct {
	deps Dependencies
}

// NewRecipientsHandler creates a new recipients handler.
func NewRecipientsHandler(deps Dependencies) *RecipientsHandler {
	return &RecipientsHandler{deps: deps}
}

// HandleRecipients handles GET and PUT /api/recipients requests. PUT
// replaces the manager and apps-team lists and leaves the bucket
// definitions untouched.
func (h *RecipientsHandler) HandleRecipients(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		doc, err := h.deps.PolicyDocument(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err)
			return
		}
		writeJSON(w, http.StatusOK, recipientsDocument{Manager: doc.Manager, AppsTeam: doc.AppsTeam})
	case http.MethodPut:
		var req recipientsDocument
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		doc, err := h.deps.PolicyDocument(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err)
			return
		}
		doc.Manager = req.Manager
		doc.AppsTeam = req.AppsTeam
		if err := h.deps.SetPolicyDocument(r.Context(), doc); err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err)
			return
		}
		writeJSON(w, http.StatusOK, req)
	default:
		http.NotFound(w, r)
	}
}

// BucketsHandler handles bucket membership requests.
type BucketsHandler struct {
	deps Dependencies
}

// NewBucketsHandler creates a new buckets handler.
func NewBucketsHandler(deps Dependencies) *BucketsHandler {
	return &BucketsHandler{deps: deps}
}

// HandleBuckets handles GET and PUT /api/buckets requests. PUT
// replaces the bucket membership lists and leaves the escalation
// recipients untouched.
func (h *BucketsHandler) HandleBuckets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		doc, err := h.deps.PolicyDocument(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err)
			return
		}
		writeJSON(w, http.StatusOK, bucketsDocument{
			ExternalImageRequest: doc.ExternalImageRequest,
			SystemNotification:   doc.SystemNotification,
			Hold:                 doc.Hold,
			InternalDomains:      doc.InternalDomains,
			SupportStaff:         doc.SupportStaff,
		})
	case http.MethodPut:
		var req bucketsDocument
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		doc, err := h.deps.PolicyDocument(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err)
			return
		}
		doc.ExternalImageRequest = req.ExternalImageRequest
		doc.SystemNotification = req.SystemNotification
		doc.Hold = req.Hold
		doc.InternalDomains = req.InternalDomains
		doc.SupportStaff = req.SupportStaff
		if err := h.deps.SetPolicyDocument(r.Context(), doc); err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err)
			return
		}
		writeJSON(w, http.StatusOK, req)
	default:
		http.NotFound(w, r)
	}
}
