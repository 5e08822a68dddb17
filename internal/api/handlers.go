// Package api exposes HTTP handlers for the booking service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"example.com/bookings/internal/auth"
	"example.com/bookings/internal/domain"
	"example.com/bookings/internal/recommend"
	"example.com/bookings/internal/registration"
)

// Handler coordinates HTTP requests with the domain services.
type Handler struct {
	recommendations  *recommend.Service
	registrations    *registration.Service
	defaultRankLimit int
	aiEnabled        bool
}

// NewHandler builds a Handler.
func NewHandler(recommendations *recommend.Service, registrations *registration.Service, defaultRankLimit int, aiEnabled bool) *Handler {
	if defaultRankLimit <= 0 {
		defaultRankLimit = 10
	}
	return &Handler{
		recommendations:  recommendations,
		registrations:    registrations,
		defaultRankLimit: defaultRankLimit,
		aiEnabled:        aiEnabled,
	}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/recommendations", h.recommendationsHandler)
	mux.HandleFunc("/v1/registrations", h.registrationsHandler)
	mux.HandleFunc("/v1/registrations/", h.registrationByID)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) recommendationsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeRecommendationsRead) {
		writeError(w, http.StatusForbidden, "forbidden", "scope recommendations:read required")
		return
	}

	limit := h.defaultRankLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "validation_failed", "limit must be a positive integer")
			return
		}
		if parsed > 50 {
			parsed = 50
		}
		limit = parsed
	}

	useAI := h.aiEnabled
	if raw := r.URL.Query().Get("use_ai"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", "use_ai must be a boolean")
			return
		}
		useAI = parsed && h.aiEnabled
	}

	suggestions, err := h.recommendations.Recommend(r.Context(), claims.Subject, limit, useAI)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]SuggestionView, 0, len(suggestions))
	for _, suggestion := range suggestions {
		items = append(items, toSuggestionView(suggestion))
	}
	writeJSON(w, http.StatusOK, RecommendationsResponse{Items: items})
}

func (h *Handler) registrationsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createRegistration(w, r)
	case http.MethodGet:
		h.listRegistrations(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) registrationByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/registrations/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing registration id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getRegistration(w, r, id)
	case http.MethodPatch:
		h.updateRegistration(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) createRegistration(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeRegistrationsWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope registrations:write required")
		return
	}

	var req CreateRegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	created, err := h.registrations.Create(r.Context(), registration.CreateInput{
		UserID:     claims.Subject,
		ActivityID: req.ActivityID,
		SessionID:  req.SessionID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toRegistrationView(*created))
}

func (h *Handler) updateRegistration(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeRegistrationsWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope registrations:write required")
		return
	}

	var req UpdateRegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	existing, err := h.registrations.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if existing.UserID != claims.Subject {
		writeError(w, http.StatusNotFound, "not_found", "registration not found")
		return
	}

	updated, err := h.registrations.UpdateStatus(r.Context(), id, domain.RegistrationStatus(req.Status))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRegistrationView(*updated))
}

func (h *Handler) getRegistration(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeRegistrationsRead) && !claims.HasScope(auth.ScopeRegistrationsWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope registrations:read required")
		return
	}

	found, err := h.registrations.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if found.UserID != claims.Subject {
		writeError(w, http.StatusNotFound, "not_found", "registration not found")
		return
	}

	writeJSON(w, http.StatusOK, toRegistrationView(*found))
}

func (h *Handler) listRegistrations(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeRegistrationsRead) && !claims.HasScope(auth.ScopeRegistrationsWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope registrations:read required")
		return
	}

	registrations, err := h.registrations.ListByUser(r.Context(), claims.Subject)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]RegistrationView, 0, len(registrations))
	for _, reg := range registrations {
		items = append(items, toRegistrationView(reg))
	}
	writeJSON(w, http.StatusOK, ListRegistrationsResponse{Items: items})
}

// CreateRegistrationRequest is the payload for POST /v1/registrations.
type CreateRegistrationRequest struct {
	ActivityID string `json:"activity_id"`
	SessionID  string `json:"session_id,omitempty"`
}

// Validate ensures request correctness.
func (r CreateRegistrationRequest) Validate() error {
	if strings.TrimSpace(r.ActivityID) == "" {
		return errors.New("activity_id is required")
	}
	return nil
}

// UpdateRegistrationRequest is the payload for PATCH /v1/registrations/{id}.
type UpdateRegistrationRequest struct {
	Status string `json:"status"`
}

// Validate ensures request correctness.
func (r UpdateRegistrationRequest) Validate() error {
	if strings.TrimSpace(r.Status) == "" {
		return errors.New("status is required")
	}
	return nil
}

// SuggestionView exposes one ranked recommendation.
type SuggestionView struct {
	ActivityID string   `json:"activity_id"`
	Name       string   `json:"name"`
	Category   string   `json:"category"`
	Score      float64  `json:"score"`
	Reasons    []string `json:"reasons"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// RecommendationsResponse packages ranked suggestions.
type RecommendationsResponse struct {
	Items []SuggestionView `json:"items"`
}

// RegistrationView exposes full details about a registration.
type RegistrationView struct {
	RegistrationID string    `json:"registration_id"`
	UserID         string    `json:"user_id"`
	ActivityID     string    `json:"activity_id"`
	SessionID      string    `json:"session_id,omitempty"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ListRegistrationsResponse packages list results.
type ListRegistrationsResponse struct {
	Items []RegistrationView `json:"items"`
}

// writeDomainError maps service errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrDuplicateRegistration):
		writeError(w, http.StatusConflict, "duplicate_registration", err.Error())
	case errors.Is(err, domain.ErrCapacityExceeded):
		writeError(w, http.StatusConflict, "capacity_exceeded", err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toSuggestionView(s domain.Suggestion) SuggestionView {
	return SuggestionView{
		ActivityID: s.Activity.ID,
		Name:       s.Activity.Name,
		Category:   s.Activity.Category,
		Score:      s.Score,
		Reasons:    s.Reasons,
		Confidence: s.Confidence,
	}
}

func toRegistrationView(reg domain.Registration) RegistrationView {
	return RegistrationView{
		RegistrationID: reg.ID,
		UserID:         reg.UserID,
		ActivityID:     reg.ActivityID,
		SessionID:      reg.SessionID,
		Status:         string(reg.Status),
		CreatedAt:      reg.CreatedAt,
		UpdatedAt:      reg.UpdatedAt,
	}
}
