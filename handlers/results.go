// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/quickly-qv/cliparse"
	"github.com/danielhkuo/quickly-qv/db"
	"github.com/danielhkuo/quickly-qv/metrics"
	"github.com/danielhkuo/quickly-qv/middleware"
	"github.com/danielhkuo/quickly-qv/models"
	"github.com/danielhkuo/quickly-qv/results"
)

type ResultsHandler struct {
	store   *db.Store
	cfg     cliparse.Config
	metrics *metrics.Metrics
}

func NewResultsHandler(store *db.Store, cfg cliparse.Config, m *metrics.Metrics) *ResultsHandler {
	return &ResultsHandler{store: store, cfg: cfg, metrics: m}
}

// GetResults handles GET /events/:slug/results
// Results are computed from committed ballots on every request.
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	middleware.JSONResponse(w, http.StatusOK, snap)
}

// ExportSummaryCSV handles GET /events/:slug/export/summary.csv
func (h *ResultsHandler) ExportSummaryCSV(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := results.WriteSummaryCSV(&buf, snap); err != nil {
		slog.Error("failed to write summary export", "error", err, "event_id", snap.Event.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to export results")
		return
	}

	writeCSV(w, snap.Event.Slug+"-summary.csv", buf.Bytes())
}

// ExportRawCSV handles GET /events/:id/export/raw.csv
// One row per ballot; requires the admin key.
func (h *ResultsHandler) ExportRawCSV(w http.ResponseWriter, r *http.Request) {
	eventID, ok := authorizeAdmin(w, r, h.cfg.AdminKeySalt)
	if !ok {
		return
	}

	event, ok := loadEvent(w, r, h.store.GetEvent, eventID)
	if !ok {
		return
	}

	ballots, err := h.store.ListBallots(r.Context(), eventID)
	if err != nil {
		slog.Error("failed to list ballots", "error", err, "event_id", eventID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	var buf bytes.Buffer
	if err := results.WriteRawCSV(&buf, event, ballots); err != nil {
		slog.Error("failed to write raw export", "error", err, "event_id", eventID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to export ballots")
		return
	}

	slog.Info("raw ballots exported", "event_id", eventID, "ballots", len(ballots))
	writeCSV(w, event.Slug+"-ballots.csv", buf.Bytes())
}

func (h *ResultsHandler) snapshot(w http.ResponseWriter, r *http.Request) (models.ResultsSnapshot, bool) {
	slug := r.PathValue("slug")
	if slug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return models.ResultsSnapshot{}, false
	}

	event, ok := loadEvent(w, r, h.store.GetEventBySlug, slug)
	if !ok {
		return models.ResultsSnapshot{}, false
	}

	start := time.Now()
	snap, err := results.Aggregate(r.Context(), h.store, event.ID)
	if err != nil {
		slog.Error("failed to aggregate results", "error", err, "event_id", event.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to compute results")
		return models.ResultsSnapshot{}, false
	}
	elapsed := time.Since(start)
	h.metrics.ObserveAggregation(elapsed)

	slog.Debug("results aggregated",
		"event_id", event.ID,
		"ballots", snap.Statistics.TotalParticipants,
		"duration_ms", elapsed.Milliseconds(),
	)
	return snap, true
}

func writeCSV(w http.ResponseWriter, filename string, body []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		slog.Error("failed to write CSV response", "error", err)
	}
}
