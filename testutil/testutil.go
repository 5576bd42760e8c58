// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/quickly-qv/auth"
	"github.com/danielhkuo/quickly-qv/cliparse"
	"github.com/danielhkuo/quickly-qv/db"
	"github.com/danielhkuo/quickly-qv/models"
)

// SetupTestDB creates a fresh SQLite database file with the full schema.
// The database is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "quickly-qv.db")
	conn, err := db.Open(context.Background(), cliparse.DatabaseSQLite, path)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3318,
		DatabaseURL:  "file:test.db",
		DatabaseType: cliparse.DatabaseSQLite,
		AdminKeySalt: "test-admin-salt",
		SlugSalt:     "test-slug-salt",
		LogLevel:     "info",
	}
}

// EventOpts describes a test event. Zero fields get defaults: 100
// credits, individual mode, and a window from an hour ago to an hour
// from now.
type EventOpts struct {
	Credits  int
	AuthMode string
	Start    time.Time
	End      time.Time
}

// CreateTestEvent inserts an event and returns it with its admin key.
func CreateTestEvent(t *testing.T, conn *sql.DB, cfg cliparse.Config, opts EventOpts) (models.Event, string) {
	t.Helper()

	now := time.Now().UTC()
	if opts.Credits == 0 {
		opts.Credits = 100
	}
	if opts.AuthMode == "" {
		opts.AuthMode = models.AuthIndividual
	}
	if opts.Start.IsZero() {
		opts.Start = now.Add(-time.Hour)
	}
	if opts.End.IsZero() {
		opts.End = now.Add(time.Hour)
	}

	id := uuid.NewString()
	event := models.Event{
		ID:              id,
		Slug:            auth.GenerateShareSlug(id, cfg.SlugSalt),
		Title:           "Test Event",
		Description:     "A test event",
		CreditsPerVoter: opts.Credits,
		AuthMode:        opts.AuthMode,
		StartDate:       opts.Start.UTC(),
		EndDate:         opts.End.UTC(),
		CreatedAt:       now,
		Options:         []models.Option{},
	}

	if err := db.NewStore(conn).CreateEvent(context.Background(), event); err != nil {
		t.Fatalf("Failed to create test event: %v", err)
	}

	return event, auth.GenerateAdminKey(id, cfg.AdminKeySalt)
}

// AddTestOptions appends options with the given titles and returns the
// event reloaded with them.
func AddTestOptions(t *testing.T, conn *sql.DB, event models.Event, titles ...string) models.Event {
	t.Helper()

	store := db.NewStore(conn)
	for _, title := range titles {
		if _, err := store.AddOption(context.Background(), event.ID, title, ""); err != nil {
			t.Fatalf("Failed to add test option %q: %v", title, err)
		}
	}

	reloaded, err := store.GetEvent(context.Background(), event.ID)
	if err != nil {
		t.Fatalf("Failed to reload test event: %v", err)
	}
	return reloaded
}

// IssueTestTokens issues n access tokens for an individual event.
func IssueTestTokens(t *testing.T, conn *sql.DB, eventID string, n int) []string {
	t.Helper()

	tokens, err := auth.GenerateAccessTokens(n)
	if err != nil {
		t.Fatalf("Failed to generate tokens: %v", err)
	}
	if err := db.NewStore(conn).InsertAccessTokens(context.Background(), eventID, tokens, time.Now()); err != nil {
		t.Fatalf("Failed to insert tokens: %v", err)
	}
	return tokens
}

// FixedClock always returns the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body any, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
