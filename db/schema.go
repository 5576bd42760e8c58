// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// The DDL is shared by PostgreSQL and SQLite.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Events
CREATE TABLE IF NOT EXISTS event (
    id TEXT PRIMARY KEY,
    slug TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    credits_per_voter INTEGER NOT NULL CHECK (credits_per_voter >= 1),
    auth_mode TEXT NOT NULL CHECK (auth_mode IN ('individual', 'social')),
    start_date TIMESTAMP NOT NULL,
    end_date TIMESTAMP NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    CHECK (start_date < end_date)
);

-- Options
CREATE TABLE IF NOT EXISTS event_option (
    id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL REFERENCES event(id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    position INTEGER NOT NULL,
    UNIQUE (event_id, position)
);

CREATE INDEX IF NOT EXISTS idx_event_option_event_id ON event_option(event_id);

-- Access tokens (individual events only)
CREATE TABLE IF NOT EXISTS access_token (
    id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL REFERENCES event(id) ON DELETE CASCADE,
    token TEXT NOT NULL,
    consumed BOOLEAN NOT NULL DEFAULT FALSE,
    ballot_id TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (event_id, token)
);

CREATE INDEX IF NOT EXISTS idx_access_token_event_id ON access_token(event_id);

-- Ballots: one per token or per user within an event
CREATE TABLE IF NOT EXISTS ballot (
    id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL REFERENCES event(id) ON DELETE CASCADE,
    token_id TEXT REFERENCES access_token(id) ON DELETE CASCADE,
    user_id TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    CHECK ((token_id IS NULL) <> (user_id IS NULL)),
    UNIQUE (event_id, token_id),
    UNIQUE (event_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_ballot_event_created ON ballot(event_id, created_at);

-- Ballot lines
CREATE TABLE IF NOT EXISTS ballot_line (
    ballot_id TEXT NOT NULL REFERENCES ballot(id) ON DELETE CASCADE,
    option_id TEXT NOT NULL REFERENCES event_option(id) ON DELETE CASCADE,
    amount INTEGER NOT NULL CHECK (amount >= 0),
    cost INTEGER NOT NULL CHECK (cost = amount * amount),
    PRIMARY KEY (ballot_id, option_id)
);

CREATE INDEX IF NOT EXISTS idx_ballot_line_option_id ON ballot_line(option_id);
`
