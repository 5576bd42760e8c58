// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/quickly-qv/cliparse"
	"github.com/danielhkuo/quickly-qv/db"
	"github.com/danielhkuo/quickly-qv/metrics"
	"github.com/danielhkuo/quickly-qv/models"
	"github.com/danielhkuo/quickly-qv/testutil"
	"github.com/danielhkuo/quickly-qv/voting"
)

type testEnv struct {
	conn    *sql.DB
	cfg     cliparse.Config
	store   *db.Store
	metrics *metrics.Metrics

	events  *EventHandler
	voting  *VotingHandler
	results *ResultsHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	store := db.NewStore(conn)
	m := metrics.New()

	return &testEnv{
		conn:    conn,
		cfg:     cfg,
		store:   store,
		metrics: m,
		events:  NewEventHandler(store, cfg),
		voting:  NewVotingHandler(store, voting.NewService(store, voting.SystemClock(), m)),
		results: NewResultsHandler(store, cfg, m),
	}
}

// openEvent creates an active event with options A, B and C.
func (e *testEnv) openEvent(t *testing.T, authMode string) (models.Event, string) {
	t.Helper()

	event, adminKey := testutil.CreateTestEvent(t, e.conn, e.cfg, testutil.EventOpts{
		Credits:  100,
		AuthMode: authMode,
	})
	return testutil.AddTestOptions(t, e.conn, event, "A", "B", "C"), adminKey
}

func line(optionID, amount string) models.BallotLineRequest {
	return models.BallotLineRequest{OptionID: optionID, Amount: json.Number(amount)}
}

// ballotRequest sends a ballot to the voting handler. method is POST for
// a submission and PUT for an amendment.
func (e *testEnv) ballotRequest(method, slug string, headers map[string]string, body models.SubmitBallotRequest) *httptest.ResponseRecorder {
	req := testutil.MakeRequest(method, "/events/"+slug+"/ballots", body, headers)
	req.SetPathValue("slug", slug)
	w := httptest.NewRecorder()

	if method == http.MethodPut {
		e.voting.AmendBallot(w, req)
	} else {
		e.voting.SubmitBallot(w, req)
	}
	return w
}

func tokenHeader(token string) map[string]string {
	return map[string]string{HeaderAccessToken: token}
}

func identityHeader(userID string) map[string]string {
	return map[string]string{HeaderVoterIdentity: userID}
}
