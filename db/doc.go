// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db holds the schema and the SQL store shared by PostgreSQL
(lib/pq) and SQLite (modernc.org/sqlite).

	conn, err := db.Open(ctx, "sqlite", "qv.db")
	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}
	store := db.NewStore(conn)

# Tables

	event 1──* event_option
	event 1──* access_token
	event 1──* ballot 1──* ballot_line
	access_token 1──0..1 ballot

A ballot references exactly one of access_token or an external user id.
UNIQUE (event_id, token_id) and UNIQUE (event_id, user_id) keep one
ballot per voter even when submissions race; the store reports those
violations as voting.ErrAlreadySubmitted.

# Atomicity

Ballot creation inserts the ballot, its lines and consumes the access
token in one transaction. Amendment updates the ballot and swaps its
lines in one transaction. ListBallots reads ballots and lines in a
single statement.
*/
package db
