// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/danielhkuo/quickly-qv/models"
	"github.com/danielhkuo/quickly-qv/voting"
)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrOptionsLocked = errors.New("options cannot change once ballots exist")
	ErrDuplicateSlug = errors.New("event slug already in use")
)

// Store persists events, access tokens and ballots. It implements
// voting.Store and results.Reader.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Events

// CreateEvent inserts an event without options.
func (s *Store) CreateEvent(ctx context.Context, e models.Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO event (id, slug, title, description, credits_per_voter, auth_mode, start_date, end_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, e.ID, e.Slug, e.Title, e.Description, e.CreditsPerVoter, e.AuthMode,
		e.StartDate.UTC(), e.EndDate.UTC(), e.CreatedAt.UTC())
	if isUniqueViolation(err) {
		return ErrDuplicateSlug
	}
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// GetEvent returns an event with its options in display order.
func (s *Store) GetEvent(ctx context.Context, eventID string) (models.Event, error) {
	return s.eventWhere(ctx, "id", eventID)
}

// GetEventBySlug returns an event by its public share slug.
func (s *Store) GetEventBySlug(ctx context.Context, slug string) (models.Event, error) {
	return s.eventWhere(ctx, "slug", slug)
}

func (s *Store) eventWhere(ctx context.Context, column, value string) (models.Event, error) {
	var e models.Event
	err := s.db.QueryRowContext(ctx, `
		SELECT id, slug, title, description, credits_per_voter, auth_mode, start_date, end_date, created_at
		FROM event
		WHERE `+column+` = $1
	`, value).Scan(
		&e.ID, &e.Slug, &e.Title, &e.Description, &e.CreditsPerVoter,
		&e.AuthMode, &e.StartDate, &e.EndDate, &e.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return models.Event{}, ErrEventNotFound
	}
	if err != nil {
		return models.Event{}, fmt.Errorf("failed to query event: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_id, title, description, position
		FROM event_option
		WHERE event_id = $1
		ORDER BY position, id
	`, e.ID)
	if err != nil {
		return models.Event{}, fmt.Errorf("failed to query options: %w", err)
	}
	defer rows.Close()

	e.Options = []models.Option{}
	for rows.Next() {
		var o models.Option
		if err := rows.Scan(&o.ID, &o.EventID, &o.Title, &o.Description, &o.Position); err != nil {
			return models.Event{}, fmt.Errorf("failed to scan option: %w", err)
		}
		e.Options = append(e.Options, o)
	}
	if err := rows.Err(); err != nil {
		return models.Event{}, fmt.Errorf("failed to read options: %w", err)
	}

	return e, nil
}

// AddOption appends an option to the event. Options are frozen once the
// event has a ballot.
func (s *Store) AddOption(ctx context.Context, eventID, title, description string) (models.Option, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Option{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists, locked bool
	err = tx.QueryRowContext(ctx, `
		SELECT
			EXISTS(SELECT 1 FROM event WHERE id = $1),
			EXISTS(SELECT 1 FROM ballot WHERE event_id = $1)
	`, eventID).Scan(&exists, &locked)
	if err != nil {
		return models.Option{}, fmt.Errorf("failed to check event: %w", err)
	}
	if !exists {
		return models.Option{}, ErrEventNotFound
	}
	if locked {
		return models.Option{}, ErrOptionsLocked
	}

	o := models.Option{
		ID:          uuid.NewString(),
		EventID:     eventID,
		Title:       title,
		Description: description,
	}
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(position), -1) + 1 FROM event_option WHERE event_id = $1
	`, eventID).Scan(&o.Position)
	if err != nil {
		return models.Option{}, fmt.Errorf("failed to compute option position: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO event_option (id, event_id, title, description, position)
		VALUES ($1, $2, $3, $4, $5)
	`, o.ID, o.EventID, o.Title, o.Description, o.Position)
	if err != nil {
		return models.Option{}, fmt.Errorf("failed to insert option: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Option{}, fmt.Errorf("failed to commit option: %w", err)
	}
	return o, nil
}

// Access tokens

// InsertAccessTokens stores freshly issued tokens for an event.
func (s *Store) InsertAccessTokens(ctx context.Context, eventID string, tokens []string, now time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, token := range tokens {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO access_token (id, event_id, token, consumed, created_at)
			VALUES ($1, $2, $3, FALSE, $4)
		`, uuid.NewString(), eventID, token, now.UTC())
		if err != nil {
			return fmt.Errorf("failed to insert access token: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit access tokens: %w", err)
	}
	return nil
}

func (s *Store) GetAccessToken(ctx context.Context, eventID, token string) (models.AccessToken, error) {
	var at models.AccessToken
	err := s.db.QueryRowContext(ctx, `
		SELECT id, event_id, token, consumed, ballot_id, created_at
		FROM access_token
		WHERE event_id = $1 AND token = $2
	`, eventID, token).Scan(&at.ID, &at.EventID, &at.Token, &at.Consumed, &at.BallotID, &at.CreatedAt)
	if err == sql.ErrNoRows {
		return models.AccessToken{}, voting.ErrTokenNotFound
	}
	if err != nil {
		return models.AccessToken{}, fmt.Errorf("failed to query access token: %w", err)
	}
	return at, nil
}

// CountAccessTokens returns how many tokens were issued for an event.
func (s *Store) CountAccessTokens(ctx context.Context, eventID string) (int, error) {
	issued, _, err := s.TokenCounts(ctx, eventID)
	return issued, err
}

// TokenCounts returns issued and consumed token counts for an event.
func (s *Store) TokenCounts(ctx context.Context, eventID string) (issued, consumed int, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN consumed THEN 1 ELSE 0 END), 0)
		FROM access_token
		WHERE event_id = $1
	`, eventID).Scan(&issued, &consumed)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count access tokens: %w", err)
	}
	return issued, consumed, nil
}

// Ballots

func (s *Store) CountBallots(ctx context.Context, eventID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ballot WHERE event_id = $1`, eventID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count ballots: %w", err)
	}
	return n, nil
}

// CreateBallot inserts a ballot with its lines and, for token voters,
// consumes the access token, all in one transaction. A unique violation
// on (event_id, token_id) or (event_id, user_id), or a token that is
// already consumed, yields voting.ErrAlreadySubmitted.
func (s *Store) CreateBallot(ctx context.Context, b models.Ballot, v voting.Voter) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ballot (id, event_id, token_id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, b.ID, b.EventID, b.TokenID, b.UserID, b.CreatedAt.UTC(), b.UpdatedAt.UTC())
	if isUniqueViolation(err) {
		return voting.ErrAlreadySubmitted
	}
	if err != nil {
		return fmt.Errorf("failed to insert ballot: %w", err)
	}

	if tv, ok := v.(voting.TokenVoter); ok {
		res, err := tx.ExecContext(ctx, `
			UPDATE access_token
			SET consumed = TRUE, ballot_id = $1
			WHERE id = $2 AND event_id = $3 AND consumed = FALSE
		`, b.ID, tv.TokenID, b.EventID)
		if err != nil {
			return fmt.Errorf("failed to consume access token: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to consume access token: %w", err)
		}
		if n != 1 {
			return voting.ErrAlreadySubmitted
		}
	}

	if err := insertLines(ctx, tx, b.ID, b.Lines); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return voting.ErrAlreadySubmitted
		}
		return fmt.Errorf("failed to commit ballot: %w", err)
	}
	return nil
}

// ReplaceBallotLines deletes and recreates every line of an existing
// ballot and bumps its updated_at. Access token state is left alone.
func (s *Store) ReplaceBallotLines(ctx context.Context, b models.Ballot, v voting.Voter) error {
	column, owner := ownerColumn(v)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE ballot
		SET updated_at = $1
		WHERE id = $2 AND event_id = $3 AND `+column+` = $4
	`, b.UpdatedAt.UTC(), b.ID, b.EventID, owner)
	if err != nil {
		return fmt.Errorf("failed to update ballot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update ballot: %w", err)
	}
	if n == 0 {
		return voting.ErrNotOwner
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM ballot_line WHERE ballot_id = $1`, b.ID)
	if err != nil {
		return fmt.Errorf("failed to delete ballot lines: %w", err)
	}

	if err := insertLines(ctx, tx, b.ID, b.Lines); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ballot: %w", err)
	}
	return nil
}

func insertLines(ctx context.Context, tx *sql.Tx, ballotID string, lines []models.BallotLine) error {
	for _, l := range lines {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ballot_line (ballot_id, option_id, amount, cost)
			VALUES ($1, $2, $3, $4)
		`, ballotID, l.OptionID, l.Amount, l.Cost)
		if err != nil {
			return fmt.Errorf("failed to insert ballot line: %w", err)
		}
	}
	return nil
}

func (s *Store) FindBallotByVoter(ctx context.Context, eventID string, v voting.Voter) (models.Ballot, bool, error) {
	column, owner := ownerColumn(v)
	b, err := s.ballotWhere(ctx, "event_id = $1 AND "+column+" = $2", eventID, owner)
	if errors.Is(err, voting.ErrBallotNotFound) {
		return models.Ballot{}, false, nil
	}
	if err != nil {
		return models.Ballot{}, false, err
	}
	return b, true, nil
}

func (s *Store) GetBallot(ctx context.Context, ballotID string) (models.Ballot, error) {
	return s.ballotWhere(ctx, "id = $1", ballotID)
}

func (s *Store) ballotWhere(ctx context.Context, where string, args ...any) (models.Ballot, error) {
	var b models.Ballot
	err := s.db.QueryRowContext(ctx, `
		SELECT id, event_id, token_id, user_id, created_at, updated_at
		FROM ballot
		WHERE `+where, args...).Scan(&b.ID, &b.EventID, &b.TokenID, &b.UserID, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.Ballot{}, voting.ErrBallotNotFound
	}
	if err != nil {
		return models.Ballot{}, fmt.Errorf("failed to query ballot: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT l.option_id, l.amount, l.cost
		FROM ballot_line l
		JOIN event_option o ON o.id = l.option_id
		WHERE l.ballot_id = $1
		ORDER BY o.position, o.id
	`, b.ID)
	if err != nil {
		return models.Ballot{}, fmt.Errorf("failed to query ballot lines: %w", err)
	}
	defer rows.Close()

	b.Lines = []models.BallotLine{}
	for rows.Next() {
		var l models.BallotLine
		if err := rows.Scan(&l.OptionID, &l.Amount, &l.Cost); err != nil {
			return models.Ballot{}, fmt.Errorf("failed to scan ballot line: %w", err)
		}
		b.Lines = append(b.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return models.Ballot{}, fmt.Errorf("failed to read ballot lines: %w", err)
	}

	return b, nil
}

// ListBallots returns every ballot of an event with its lines, ordered by
// creation time. A single statement is used so that each ballot is seen
// either with all of its lines or not at all.
func (s *Store) ListBallots(ctx context.Context, eventID string) ([]models.Ballot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, b.event_id, b.created_at, b.updated_at, l.option_id, l.amount, l.cost
		FROM ballot b
		LEFT JOIN ballot_line l ON l.ballot_id = b.id
		LEFT JOIN event_option o ON o.id = l.option_id
		WHERE b.event_id = $1
		ORDER BY b.created_at, b.id, o.position
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ballots: %w", err)
	}
	defer rows.Close()

	ballots := []models.Ballot{}
	for rows.Next() {
		var (
			b        models.Ballot
			optionID sql.NullString
			amount   sql.NullInt64
			cost     sql.NullInt64
		)
		err := rows.Scan(&b.ID, &b.EventID, &b.CreatedAt, &b.UpdatedAt, &optionID, &amount, &cost)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ballot: %w", err)
		}

		if n := len(ballots); n == 0 || ballots[n-1].ID != b.ID {
			b.Lines = []models.BallotLine{}
			ballots = append(ballots, b)
		}
		if optionID.Valid {
			last := &ballots[len(ballots)-1]
			last.Lines = append(last.Lines, models.BallotLine{
				OptionID: optionID.String,
				Amount:   int(amount.Int64),
				Cost:     int(cost.Int64),
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ballots: %w", err)
	}

	return ballots, nil
}

func ownerColumn(v voting.Voter) (column, value string) {
	switch v := v.(type) {
	case voting.TokenVoter:
		return "token_id", v.TokenID
	case voting.SocialVoter:
		return "user_id", v.UserID
	}
	// Unreachable for the two voter kinds; matches nothing.
	return "id", ""
}

// isUniqueViolation recognises unique constraint failures from both
// supported drivers.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
