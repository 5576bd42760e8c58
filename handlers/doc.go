// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Quickly QV API.

# Handler Types

  - EventHandler: event creation, options, access tokens
  - VotingHandler: ballot submission, amendment and lookup
  - ResultsHandler: results snapshot and CSV exports

Handlers share a *db.Store:

	store := db.NewStore(conn)
	votingHandler := handlers.NewVotingHandler(store, voting.NewService(store, nil, m))

# Credentials

Admin operations require the X-Admin-Key header. Voters send
X-Access-Token for individual events or X-Voter-Identity, set by the
login proxy, for social events.

# Rejections

Settlement errors are written by middleware.RejectionResponse with a
stable reason code, e.g. a second submission for the same token:

	409 {"error":"Conflict","reason":"already_submitted",...}
*/
package handlers
