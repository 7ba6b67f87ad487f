// Gatewarden - Relational Content Permission Engine
// Copyright 2026 L. Marsh (ljmarsh)
// SPDX-License-Identifier: Apache-2.0
// https://github.com/ljmarsh/gatewarden

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/ljmarsh/gatewarden/internal/auditstore"
	"github.com/ljmarsh/gatewarden/internal/auth"
	"github.com/ljmarsh/gatewarden/internal/authz"
	"github.com/ljmarsh/gatewarden/internal/content"
	"github.com/ljmarsh/gatewarden/internal/logging"
	"github.com/ljmarsh/gatewarden/internal/permissions"
)

// Handler serves the Gatewarden decision API.
type Handler struct {
	service  *authz.Service
	store    *auditstore.Store
	validate *validator.Validate
	started  time.Time
}

// NewHandler creates the API handler. The audit store may be nil when
// persistence is disabled; the audit endpoints then return 404.
func NewHandler(service *authz.Service, store *auditstore.Store) *Handler {
	return &Handler{
		service:  service,
		store:    store,
		validate: validator.New(),
		started:  time.Now(),
	}
}

// checkRequest asks whether the subject holds a permission on one item.
type checkRequest struct {
	ContentType string          `json:"content_type" validate:"required"`
	Permission  string          `json:"permission" validate:"required"`
	Item        json.RawMessage `json:"item" validate:"required"`
}

type checkResponse struct {
	Allowed     bool   `json:"allowed"`
	ContentType string `json:"content_type"`
	ItemID      string `json:"item_id"`
	Permission  string `json:"permission"`
}

// Check handles POST /api/v1/check.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	subject, ok := requireSubject(w, r)
	if !ok {
		return
	}

	var req checkRequest
	if !h.decode(w, r, &req) {
		return
	}

	item, err := content.DecodeItem(req.ContentType, req.Item)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	allowed, err := h.service.Check(r.Context(), subject, item, req.Permission)
	if err != nil {
		h.decisionError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, checkResponse{
		Allowed:     allowed,
		ContentType: req.ContentType,
		ItemID:      item.ContentID(),
		Permission:  req.Permission,
	})
}

// globalCheckRequest asks about a non-relational permission.
type globalCheckRequest struct {
	Permission string `json:"permission" validate:"required"`
}

// CheckGlobal handles POST /api/v1/check/global.
func (h *Handler) CheckGlobal(w http.ResponseWriter, r *http.Request) {
	subject, ok := requireSubject(w, r)
	if !ok {
		return
	}

	var req globalCheckRequest
	if !h.decode(w, r, &req) {
		return
	}

	allowed := h.service.CheckGlobal(r.Context(), subject, req.Permission)
	writeJSON(w, http.StatusOK, map[string]any{
		"allowed":    allowed,
		"permission": req.Permission,
	})
}

// filterRequest asks for the subset of items the subject may act on.
type filterRequest struct {
	ContentType string            `json:"content_type" validate:"required"`
	Permission  string            `json:"permission" validate:"required"`
	Items       []json.RawMessage `json:"items" validate:"required"`
}

type filterResponse struct {
	ContentType string                 `json:"content_type"`
	Permission  string                 `json:"permission"`
	Total       int                    `json:"total"`
	Allowed     int                    `json:"allowed"`
	Items       []content.Identifiable `json:"items"`
}

// Filter handles POST /api/v1/filter.
func (h *Handler) Filter(w http.ResponseWriter, r *http.Request) {
	subject, ok := requireSubject(w, r)
	if !ok {
		return
	}

	var req filterRequest
	if !h.decode(w, r, &req) {
		return
	}

	items, err := content.DecodeItems(req.ContentType, req.Items)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	allowed, err := h.service.FilterItems(r.Context(), subject, req.ContentType, items, req.Permission)
	if err != nil {
		h.decisionError(w, r, err)
		return
	}
	if allowed == nil {
		allowed = []content.Identifiable{}
	}

	writeJSON(w, http.StatusOK, filterResponse{
		ContentType: req.ContentType,
		Permission:  req.Permission,
		Total:       len(items),
		Allowed:     len(allowed),
		Items:       allowed,
	})
}

// membershipRequest asks whether the subject belongs to a group with
// respect to one item.
type membershipRequest struct {
	ContentType string          `json:"content_type" validate:"required"`
	Group       string          `json:"group" validate:"required"`
	Item        json.RawMessage `json:"item" validate:"required"`
}

// Membership handles POST /api/v1/membership.
func (h *Handler) Membership(w http.ResponseWriter, r *http.Request) {
	subject, ok := requireSubject(w, r)
	if !ok {
		return
	}

	var req membershipRequest
	if !h.decode(w, r, &req) {
		return
	}

	item, err := content.DecodeItem(req.ContentType, req.Item)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	member, err := h.service.IsMember(r.Context(), subject, item, req.Group)
	if err != nil {
		h.decisionError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"member": member,
		"group":  req.Group,
	})
}

type explainResponse struct {
	ContentType string `json:"content_type"`
	ItemID      string `json:"item_id"`
	*permissions.Trace
}

// Explain handles POST /api/v1/explain. It returns the full decision
// trace for one item and permission.
func (h *Handler) Explain(w http.ResponseWriter, r *http.Request) {
	subject, ok := requireSubject(w, r)
	if !ok {
		return
	}

	var req checkRequest
	if !h.decode(w, r, &req) {
		return
	}

	item, err := content.DecodeItem(req.ContentType, req.Item)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	trace, err := h.service.Explain(r.Context(), subject, item, req.Permission)
	if err != nil {
		h.decisionError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, explainResponse{
		ContentType: req.ContentType,
		ItemID:      item.ContentID(),
		Trace:       trace,
	})
}

type groupInfo struct {
	Name        string                       `json:"name"`
	ContentType string                       `json:"content_type"`
	Permissions map[string]permissions.Value `json:"permissions"`
}

// Groups handles GET /api/v1/groups. It lists the registered groups
// and their verdict assignments.
func (h *Handler) Groups(w http.ResponseWriter, r *http.Request) {
	registry := h.service.Filter().Registry()
	groups := registry.Groups()

	infos := make([]groupInfo, 0, len(groups))
	for _, g := range groups {
		infos = append(infos, groupInfo{
			Name:        g.Name(),
			ContentType: content.NameOf(g.ContentType()),
			Permissions: g.Permissions(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": infos})
}

// AuditRecent handles GET /api/v1/audit/recent.
func (h *Handler) AuditRecent(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusNotFound, "audit persistence is disabled")
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 1000 {
			writeError(w, http.StatusBadRequest, "limit must be an integer between 1 and 1000")
			return
		}
		limit = parsed
	}

	events, err := h.store.Recent(limit)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to read audit trail")
		writeError(w, http.StatusInternalServerError, "failed to read audit trail")
		return
	}
	if events == nil {
		events = []*authz.AuditEvent{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

// AuditStats handles GET /api/v1/audit/stats.
func (h *Handler) AuditStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.AuditStats())
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"uptime_seconds": int(time.Since(h.started).Seconds()),
		"groups":         h.service.Filter().Registry().Len(),
		"content_types":  content.TypeNames(),
	})
}

// HealthLive handles GET /api/v1/health/live.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HealthReady handles GET /api/v1/health/ready.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decode unmarshals and validates a request body. It writes the error
// response itself and reports success.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return false
	}
	return true
}

// decisionError maps evaluation errors to HTTP status codes. Unknown
// groups and type mismatches are caller mistakes; anything else is a
// server fault.
func (h *Handler) decisionError(w http.ResponseWriter, r *http.Request, err error) {
	var unknown *permissions.UnknownGroupError
	var mismatch *permissions.TypeMismatchError
	var ambiguous *permissions.AmbiguousGroupNameError

	switch {
	case errors.As(err, &unknown), errors.As(err, &mismatch), errors.As(err, &ambiguous):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("Decision evaluation failed")
		writeError(w, http.StatusInternalServerError, "decision evaluation failed")
	}
}

func requireSubject(w http.ResponseWriter, r *http.Request) (auth.Subject, bool) {
	subject, ok := auth.SubjectFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return auth.Subject{}, false
	}
	return subject, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
