// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/quickly-qv/db"
	"github.com/danielhkuo/quickly-qv/middleware"
	"github.com/danielhkuo/quickly-qv/models"
	"github.com/danielhkuo/quickly-qv/voting"
)

type VotingHandler struct {
	store   *db.Store
	service *voting.Service
}

func NewVotingHandler(store *db.Store, service *voting.Service) *VotingHandler {
	return &VotingHandler{store: store, service: service}
}

// SubmitBallot handles POST /events/:slug/ballots
func (h *VotingHandler) SubmitBallot(w http.ResponseWriter, r *http.Request) {
	h.settle(w, r, false)
}

// AmendBallot handles PUT /events/:slug/ballots
// Replaces every line of the caller's existing ballot.
func (h *VotingHandler) AmendBallot(w http.ResponseWriter, r *http.Request) {
	h.settle(w, r, true)
}

func (h *VotingHandler) settle(w http.ResponseWriter, r *http.Request, amend bool) {
	slug := r.PathValue("slug")
	if slug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	var req models.SubmitBallotRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	event, ok := loadEvent(w, r, h.store.GetEventBySlug, slug)
	if !ok {
		return
	}

	lines := make([]voting.Line, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = voting.ParseLine(l.OptionID, l.Amount.String())
	}

	creds := credentials(r)
	creds.BallotID = req.BallotID

	ballotID, err := h.service.Submit(r.Context(), event, creds, lines, amend)
	if err != nil {
		middleware.RejectionResponse(w, err)
		return
	}

	if amend {
		middleware.JSONResponse(w, http.StatusOK, models.SubmitBallotResponse{
			BallotID: ballotID,
			Message:  "Ballot updated",
		})
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, models.SubmitBallotResponse{
		BallotID: ballotID,
		Message:  "Ballot submitted",
	})
}

// GetMyBallot handles GET /events/:slug/my-ballot
// Returns the caller's ballot so a client can pre-fill an amendment.
func (h *VotingHandler) GetMyBallot(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	event, ok := loadEvent(w, r, h.store.GetEventBySlug, slug)
	if !ok {
		return
	}

	ballot, found, err := h.service.MyBallot(r.Context(), event, credentials(r))
	if err != nil {
		middleware.RejectionResponse(w, err)
		return
	}
	if !found {
		middleware.ErrorResponse(w, http.StatusNotFound, "No ballot found")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, ballot)
}
