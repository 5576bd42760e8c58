// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/quickly-qv/cliparse"
	"github.com/danielhkuo/quickly-qv/db"
	"github.com/danielhkuo/quickly-qv/handlers"
	"github.com/danielhkuo/quickly-qv/metrics"
	"github.com/danielhkuo/quickly-qv/middleware"
	"github.com/danielhkuo/quickly-qv/voting"
)

// NewRouter wires the handlers to the store. A nil m disables metrics
// collection and /metrics answers 404.
func NewRouter(dbConn *sql.DB, cfg cliparse.Config, m *metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()

	store := db.NewStore(dbConn)
	service := voting.NewService(store, voting.SystemClock(), m)

	// Initialize handlers
	eventHandler := handlers.NewEventHandler(store, cfg)
	votingHandler := handlers.NewVotingHandler(store, service)
	resultsHandler := handlers.NewResultsHandler(store, cfg, m)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", m.Handler())

	// Event management (admin operations)
	mux.HandleFunc("POST /events", middleware.WithLogging(eventHandler.CreateEvent))
	mux.HandleFunc("GET /events/{id}/admin", middleware.WithLogging(eventHandler.GetEventAdmin))
	mux.HandleFunc("POST /events/{id}/options", middleware.WithLogging(eventHandler.AddOption))
	mux.HandleFunc("POST /events/{id}/tokens", middleware.WithLogging(eventHandler.IssueTokens))
	mux.HandleFunc("GET /events/{id}/export/raw.csv", middleware.WithLogging(resultsHandler.ExportRawCSV))

	// Voting operations (public, credential headers)
	mux.HandleFunc("POST /events/{slug}/ballots", middleware.WithLogging(votingHandler.SubmitBallot))
	mux.HandleFunc("PUT /events/{slug}/ballots", middleware.WithLogging(votingHandler.AmendBallot))
	mux.HandleFunc("GET /events/{slug}/my-ballot", middleware.WithLogging(votingHandler.GetMyBallot))

	// Event view and results (public)
	mux.HandleFunc("GET /events/{slug}", middleware.WithLogging(eventHandler.GetEvent))
	mux.HandleFunc("GET /events/{slug}/results", middleware.WithLogging(resultsHandler.GetResults))
	mux.HandleFunc("GET /events/{slug}/export/summary.csv", middleware.WithLogging(resultsHandler.ExportSummaryCSV))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("quickly-qv API v1"))
	})

	return mux
}
