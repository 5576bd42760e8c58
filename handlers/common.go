// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/quickly-qv/auth"
	"github.com/danielhkuo/quickly-qv/db"
	"github.com/danielhkuo/quickly-qv/middleware"
	"github.com/danielhkuo/quickly-qv/models"
	"github.com/danielhkuo/quickly-qv/voting"
)

const (
	HeaderAdminKey      = "X-Admin-Key"
	HeaderAccessToken   = "X-Access-Token"
	HeaderVoterIdentity = "X-Voter-Identity"
)

// authorizeAdmin validates X-Admin-Key for the event named by the {id}
// path value and returns that id.
func authorizeAdmin(w http.ResponseWriter, r *http.Request, salt string) (string, bool) {
	eventID := r.PathValue("id")
	if eventID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "event_id is required")
		return "", false
	}

	if err := auth.ValidateAdminKey(eventID, r.Header.Get(HeaderAdminKey), salt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return "", false
	}
	return eventID, true
}

// loadEvent fetches an event and writes the error response itself when
// that fails.
func loadEvent(w http.ResponseWriter, r *http.Request, fetch func(context.Context, string) (models.Event, error), key string) (models.Event, bool) {
	event, err := fetch(r.Context(), key)
	if errors.Is(err, db.ErrEventNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Event not found")
		return models.Event{}, false
	}
	if err != nil {
		slog.Error("failed to load event", "error", err, "key", key)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return models.Event{}, false
	}
	return event, true
}

// credentials reads the voter credentials from the request headers.
// X-Voter-Identity is set by the upstream login proxy for social events.
func credentials(r *http.Request) voting.Credentials {
	return voting.Credentials{
		Token:  r.Header.Get(HeaderAccessToken),
		UserID: r.Header.Get(HeaderVoterIdentity),
	}
}
