// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/danielhkuo/quickly-qv/db"
	"github.com/danielhkuo/quickly-qv/models"
	"github.com/danielhkuo/quickly-qv/testutil"
	"github.com/danielhkuo/quickly-qv/voting"
)

func newBallot(event models.Event, created time.Time, lines ...models.BallotLine) models.Ballot {
	return models.Ballot{
		ID:        uuid.NewString(),
		EventID:   event.ID,
		CreatedAt: created,
		UpdatedAt: created,
		Lines:     lines,
	}
}

func tokenBallot(event models.Event, tokenID string, created time.Time, lines ...models.BallotLine) (models.Ballot, voting.Voter) {
	b := newBallot(event, created, lines...)
	b.TokenID = &tokenID
	return b, voting.TokenVoter{TokenID: tokenID}
}

func userBallot(event models.Event, userID string, created time.Time, lines ...models.BallotLine) (models.Ballot, voting.Voter) {
	b := newBallot(event, created, lines...)
	b.UserID = &userID
	return b, voting.SocialVoter{UserID: userID}
}

func line(o models.Option, amount int) models.BallotLine {
	return models.BallotLine{OptionID: o.ID, Amount: amount, Cost: amount * amount}
}

func TestEventRoundTrip(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	store := db.NewStore(conn)
	ctx := context.Background()

	start := time.Date(2025, 5, 1, 8, 30, 0, 0, time.UTC)
	event, _ := testutil.CreateTestEvent(t, conn, cfg, testutil.EventOpts{
		Credits:  49,
		AuthMode: models.AuthSocial,
		Start:    start,
		End:      start.Add(24 * time.Hour),
	})
	testutil.AddTestOptions(t, conn, event, "First", "Second")

	bySlug, err := store.GetEventBySlug(ctx, event.Slug)
	if err != nil {
		t.Fatal(err)
	}
	if bySlug.ID != event.ID || bySlug.CreditsPerVoter != 49 || bySlug.AuthMode != models.AuthSocial {
		t.Errorf("Unexpected event %+v", bySlug)
	}
	if !bySlug.StartDate.Equal(start) || !bySlug.EndDate.Equal(start.Add(24*time.Hour)) {
		t.Errorf("Window did not round trip: %v to %v", bySlug.StartDate, bySlug.EndDate)
	}

	var titles []string
	for i, o := range bySlug.Options {
		if o.Position != i {
			t.Errorf("Option %q has position %d, want %d", o.Title, o.Position, i)
		}
		titles = append(titles, o.Title)
	}
	if diff := cmp.Diff([]string{"First", "Second"}, titles); diff != "" {
		t.Errorf("Option order mismatch (-want +got):\n%s", diff)
	}

	_, err = store.GetEvent(ctx, "missing")
	if !errors.Is(err, db.ErrEventNotFound) {
		t.Errorf("Expected ErrEventNotFound, got %v", err)
	}

	dup := bySlug
	dup.ID = uuid.NewString()
	if err := store.CreateEvent(ctx, dup); !errors.Is(err, db.ErrDuplicateSlug) {
		t.Errorf("Expected ErrDuplicateSlug, got %v", err)
	}
}

func TestAddOption_Locked(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	store := db.NewStore(conn)
	ctx := context.Background()
	event, _ := testutil.CreateTestEvent(t, conn, testutil.GetTestConfig(), testutil.EventOpts{AuthMode: models.AuthSocial})
	event = testutil.AddTestOptions(t, conn, event, "A")

	if _, err := store.AddOption(ctx, "missing", "X", ""); !errors.Is(err, db.ErrEventNotFound) {
		t.Errorf("Expected ErrEventNotFound, got %v", err)
	}

	b, v := userBallot(event, "u1", time.Now(), line(event.Options[0], 1))
	if err := store.CreateBallot(ctx, b, v); err != nil {
		t.Fatal(err)
	}

	if _, err := store.AddOption(ctx, event.ID, "Late", ""); !errors.Is(err, db.ErrOptionsLocked) {
		t.Errorf("Expected ErrOptionsLocked, got %v", err)
	}
}

func TestCreateBallot_ConsumesToken(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	store := db.NewStore(conn)
	ctx := context.Background()
	event, _ := testutil.CreateTestEvent(t, conn, testutil.GetTestConfig(), testutil.EventOpts{})
	event = testutil.AddTestOptions(t, conn, event, "A", "B")
	tokens := testutil.IssueTestTokens(t, conn, event.ID, 2)

	at, err := store.GetAccessToken(ctx, event.ID, tokens[0])
	if err != nil {
		t.Fatal(err)
	}
	if at.Consumed || at.BallotID != nil {
		t.Fatalf("Fresh token already consumed: %+v", at)
	}

	first, v := tokenBallot(event, at.ID, time.Now(), line(event.Options[0], 3))
	if err := store.CreateBallot(ctx, first, v); err != nil {
		t.Fatal(err)
	}

	at, err = store.GetAccessToken(ctx, event.ID, tokens[0])
	if err != nil {
		t.Fatal(err)
	}
	if !at.Consumed || at.BallotID == nil || *at.BallotID != first.ID {
		t.Errorf("Expected token consumed by %s, got %+v", first.ID, at)
	}

	second, v := tokenBallot(event, at.ID, time.Now(), line(event.Options[1], 1))
	if err := store.CreateBallot(ctx, second, v); !errors.Is(err, voting.ErrAlreadySubmitted) {
		t.Fatalf("Expected ErrAlreadySubmitted, got %v", err)
	}
	if _, err := store.GetBallot(ctx, second.ID); !errors.Is(err, voting.ErrBallotNotFound) {
		t.Errorf("Rejected ballot was stored: %v", err)
	}

	issued, consumed, err := store.TokenCounts(ctx, event.ID)
	if err != nil {
		t.Fatal(err)
	}
	if issued != 2 || consumed != 1 {
		t.Errorf("Expected 2 issued and 1 consumed, got %d and %d", issued, consumed)
	}

	if _, err := store.GetAccessToken(ctx, event.ID, "nope"); !errors.Is(err, voting.ErrTokenNotFound) {
		t.Errorf("Expected ErrTokenNotFound, got %v", err)
	}
}

func TestCreateBallot_SocialDuplicate(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	store := db.NewStore(conn)
	ctx := context.Background()
	event, _ := testutil.CreateTestEvent(t, conn, testutil.GetTestConfig(), testutil.EventOpts{AuthMode: models.AuthSocial})
	event = testutil.AddTestOptions(t, conn, event, "A")

	b, v := userBallot(event, "alice", time.Now(), line(event.Options[0], 2))
	if err := store.CreateBallot(ctx, b, v); err != nil {
		t.Fatal(err)
	}

	again, v := userBallot(event, "alice", time.Now(), line(event.Options[0], 1))
	if err := store.CreateBallot(ctx, again, v); !errors.Is(err, voting.ErrAlreadySubmitted) {
		t.Errorf("Expected ErrAlreadySubmitted, got %v", err)
	}

	found, ok, err := store.FindBallotByVoter(ctx, event.ID, voting.SocialVoter{UserID: "alice"})
	if err != nil || !ok {
		t.Fatalf("Expected alice's ballot, got ok=%v err=%v", ok, err)
	}
	if found.ID != b.ID {
		t.Errorf("Expected ballot %s, got %s", b.ID, found.ID)
	}

	_, ok, err = store.FindBallotByVoter(ctx, event.ID, voting.SocialVoter{UserID: "bob"})
	if err != nil || ok {
		t.Errorf("Expected no ballot for bob, got ok=%v err=%v", ok, err)
	}
}

func TestReplaceBallotLines(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	store := db.NewStore(conn)
	ctx := context.Background()
	event, _ := testutil.CreateTestEvent(t, conn, testutil.GetTestConfig(), testutil.EventOpts{AuthMode: models.AuthSocial})
	event = testutil.AddTestOptions(t, conn, event, "A", "B", "C")
	a, bOpt, c := event.Options[0], event.Options[1], event.Options[2]

	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	b, v := userBallot(event, "carol", created, line(a, 4), line(c, 1))
	if err := store.CreateBallot(ctx, b, v); err != nil {
		t.Fatal(err)
	}

	t.Run("wrong owner", func(t *testing.T) {
		intruder := b
		intruder.Lines = []models.BallotLine{line(bOpt, 9)}
		err := store.ReplaceBallotLines(ctx, intruder, voting.SocialVoter{UserID: "mallory"})
		if !errors.Is(err, voting.ErrNotOwner) {
			t.Fatalf("Expected ErrNotOwner, got %v", err)
		}

		got, err := store.GetBallot(ctx, b.ID)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]models.BallotLine{line(a, 4), line(c, 1)}, got.Lines); diff != "" {
			t.Errorf("Lines changed by a foreign voter (-want +got):\n%s", diff)
		}
	})

	t.Run("owner", func(t *testing.T) {
		amended := b
		amended.UpdatedAt = created.Add(time.Hour)
		amended.Lines = []models.BallotLine{line(c, 2), line(bOpt, 5)}
		if err := store.ReplaceBallotLines(ctx, amended, v); err != nil {
			t.Fatal(err)
		}

		got, err := store.GetBallot(ctx, b.ID)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]models.BallotLine{line(bOpt, 5), line(c, 2)}, got.Lines); diff != "" {
			t.Errorf("Amended lines mismatch (-want +got):\n%s", diff)
		}
		if !got.CreatedAt.Equal(created) || !got.UpdatedAt.Equal(created.Add(time.Hour)) {
			t.Errorf("Unexpected timestamps created=%v updated=%v", got.CreatedAt, got.UpdatedAt)
		}
	})

	t.Run("missing ballot", func(t *testing.T) {
		ghost, gv := userBallot(event, "carol", created, line(a, 1))
		if err := store.ReplaceBallotLines(ctx, ghost, gv); !errors.Is(err, voting.ErrNotOwner) {
			t.Errorf("Expected ErrNotOwner, got %v", err)
		}
	})
}

func TestListBallots(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	store := db.NewStore(conn)
	ctx := context.Background()
	event, _ := testutil.CreateTestEvent(t, conn, testutil.GetTestConfig(), testutil.EventOpts{AuthMode: models.AuthSocial})
	event = testutil.AddTestOptions(t, conn, event, "A", "B")
	a, bOpt := event.Options[0], event.Options[1]

	base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	late, lv := userBallot(event, "late", base.Add(2*time.Minute), line(bOpt, 1), line(a, 2))
	early, ev := userBallot(event, "early", base, line(a, 1))
	for _, p := range []struct {
		b models.Ballot
		v voting.Voter
	}{{late, lv}, {early, ev}} {
		if err := store.CreateBallot(ctx, p.b, p.v); err != nil {
			t.Fatal(err)
		}
	}

	ballots, err := store.ListBallots(ctx, event.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(ballots) != 2 {
		t.Fatalf("Expected 2 ballots, got %d", len(ballots))
	}
	if ballots[0].ID != early.ID || ballots[1].ID != late.ID {
		t.Errorf("Expected creation order [early late], got [%s %s]", ballots[0].ID, ballots[1].ID)
	}
	if diff := cmp.Diff([]models.BallotLine{line(a, 2), line(bOpt, 1)}, ballots[1].Lines); diff != "" {
		t.Errorf("Lines mismatch (-want +got):\n%s", diff)
	}

	n, err := store.CountBallots(ctx, event.ID)
	if err != nil || n != 2 {
		t.Errorf("Expected 2 ballots counted, got %d (%v)", n, err)
	}

	empty, err := store.ListBallots(ctx, "no-such-event")
	if err != nil {
		t.Fatal(err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("Expected empty non-nil slice, got %#v", empty)
	}
}
