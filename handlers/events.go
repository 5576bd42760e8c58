// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/quickly-qv/auth"
	"github.com/danielhkuo/quickly-qv/cliparse"
	"github.com/danielhkuo/quickly-qv/db"
	"github.com/danielhkuo/quickly-qv/middleware"
	"github.com/danielhkuo/quickly-qv/models"
)

// maxTokensPerRequest bounds a single token issuance call.
const maxTokensPerRequest = 1000

type EventHandler struct {
	store *db.Store
	cfg   cliparse.Config
}

func NewEventHandler(store *db.Store, cfg cliparse.Config) *EventHandler {
	return &EventHandler{store: store, cfg: cfg}
}

// CreateEvent handles POST /events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req models.CreateEventRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Validate input
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.CreditsPerVoter < 1 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "credits_per_voter must be at least 1")
		return
	}
	if req.AuthMode != models.AuthIndividual && req.AuthMode != models.AuthSocial {
		middleware.ErrorResponse(w, http.StatusBadRequest, "auth_mode must be 'individual' or 'social'")
		return
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		middleware.ErrorResponse(w, http.StatusBadRequest, "start_date and end_date are required")
		return
	}
	if !req.StartDate.Before(req.EndDate) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "start_date must be before end_date")
		return
	}

	eventID := uuid.NewString()
	event := models.Event{
		ID:              eventID,
		Slug:            auth.GenerateShareSlug(eventID, h.cfg.SlugSalt),
		Title:           req.Title,
		Description:     req.Description,
		CreditsPerVoter: req.CreditsPerVoter,
		AuthMode:        req.AuthMode,
		StartDate:       req.StartDate.UTC(),
		EndDate:         req.EndDate.UTC(),
		CreatedAt:       time.Now().UTC(),
	}

	if err := h.store.CreateEvent(r.Context(), event); err != nil {
		slog.Error("failed to create event", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create event")
		return
	}

	slog.Info("event created", "event_id", eventID, "auth_mode", event.AuthMode, "credits", event.CreditsPerVoter)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateEventResponse{
		EventID:  eventID,
		Slug:     event.Slug,
		AdminKey: auth.GenerateAdminKey(eventID, h.cfg.AdminKeySalt),
	})
}

// GetEventAdmin handles GET /events/:id/admin
func (h *EventHandler) GetEventAdmin(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	event, ok := loadEvent(w, r, h.store.GetEvent, eventID)
	if !ok {
		return
	}

	ballots, err := h.store.CountBallots(r.Context(), eventID)
	if err != nil {
		slog.Error("failed to count ballots", "error", err, "event_id", eventID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	issued, consumed, err := h.store.TokenCounts(r.Context(), eventID)
	if err != nil {
		slog.Error("failed to count tokens", "error", err, "event_id", eventID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.EventAdminResponse{
		Event:          event,
		BallotCount:    ballots,
		TokensIssued:   issued,
		TokensConsumed: consumed,
	})
}

// AddOption handles POST /events/:id/options
func (h *EventHandler) AddOption(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req models.AddOptionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}

	option, err := h.store.AddOption(r.Context(), eventID, req.Title, req.Description)
	switch {
	case errors.Is(err, db.ErrEventNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Event not found")
		return
	case errors.Is(err, db.ErrOptionsLocked):
		middleware.ErrorResponse(w, http.StatusConflict, "Cannot add options once ballots have been cast")
		return
	case err != nil:
		slog.Error("failed to add option", "error", err, "event_id", eventID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create option")
		return
	}

	slog.Info("option added", "event_id", eventID, "option_id", option.ID, "position", option.Position)

	middleware.JSONResponse(w, http.StatusCreated, models.AddOptionResponse{
		OptionID: option.ID,
	})
}

// IssueTokens handles POST /events/:id/tokens
// Only individual events use access tokens.
func (h *EventHandler) IssueTokens(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req models.IssueTokensRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Count < 1 || req.Count > maxTokensPerRequest {
		middleware.ErrorResponse(w, http.StatusBadRequest, "count must be between 1 and 1000")
		return
	}

	event, ok := loadEvent(w, r, h.store.GetEvent, eventID)
	if !ok {
		return
	}
	if event.AuthMode != models.AuthIndividual {
		middleware.ErrorResponse(w, http.StatusConflict, "Access tokens are only used by individual events")
		return
	}

	tokens, err := auth.GenerateAccessTokens(req.Count)
	if err != nil {
		slog.Error("failed to generate access tokens", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to issue tokens")
		return
	}

	if err := h.store.InsertAccessTokens(r.Context(), eventID, tokens, time.Now()); err != nil {
		slog.Error("failed to store access tokens", "error", err, "event_id", eventID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to issue tokens")
		return
	}

	slog.Info("access tokens issued", "event_id", eventID, "count", len(tokens))

	middleware.JSONResponse(w, http.StatusCreated, models.IssueTokensResponse{
		Tokens: tokens,
	})
}

// GetEvent handles GET /events/:slug
// Public view of the event and its options.
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	event, ok := loadEvent(w, r, h.store.GetEventBySlug, slug)
	if !ok {
		return
	}

	middleware.JSONResponse(w, http.StatusOK, event)
}

// authorize checks X-Admin-Key against the {id} path value.
func (h *EventHandler) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
	return authorizeAdmin(w, r, h.cfg.AdminKeySalt)
}
