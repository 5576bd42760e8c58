// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Quickly QV API.

	mux := router.NewRouter(conn, cfg, metrics.New())

# Endpoints

	GET  /health
	GET  /metrics

Event management (admin, requires X-Admin-Key):

	POST /events                        - Create event
	GET  /events/{id}/admin             - Event details and counts
	POST /events/{id}/options           - Add option (before any ballot)
	POST /events/{id}/tokens            - Issue access tokens
	GET  /events/{id}/export/raw.csv    - One row per ballot

Voting (public, X-Access-Token or X-Voter-Identity):

	POST /events/{slug}/ballots         - Submit ballot
	PUT  /events/{slug}/ballots         - Amend ballot
	GET  /events/{slug}/my-ballot       - Caller's ballot

Results (public):

	GET /events/{slug}                    - Event and options
	GET /events/{slug}/results            - Results snapshot
	GET /events/{slug}/export/summary.csv - Per-option summary
*/
package router
