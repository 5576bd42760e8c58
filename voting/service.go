// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/danielhkuo/quickly-qv/models"
)

// Recorder receives one outcome per Submit call: "created", "amended",
// or the Reason code of the rejection.
type Recorder interface {
	ObserveSettlement(outcome string)
}

// Service settles ballots: it resolves the voter, validates the ballot
// and commits it atomically.
type Service struct {
	store    Store
	resolver *Resolver
	clock    Clock
	recorder Recorder
}

// NewService builds a settlement service. A nil clock uses the system
// clock and a nil recorder discards outcomes.
func NewService(store Store, clock Clock, recorder Recorder) *Service {
	if clock == nil {
		clock = SystemClock()
	}
	return &Service{
		store:    store,
		resolver: NewResolver(store),
		clock:    clock,
		recorder: recorder,
	}
}

// Submit creates a ballot, or replaces the lines of the voter's existing
// ballot when amend is true. It returns the ballot id.
//
// A voter who already has a ballot must ask for an amendment explicitly;
// a plain submission is rejected with ErrAlreadySubmitted. Store failures
// during the commit are reported as ErrSettlementFailed and are safe to
// retry since no partial ballot is ever written.
func (s *Service) Submit(ctx context.Context, event models.Event, creds Credentials, lines []Line, amend bool) (string, error) {
	ballotID, voterKey, err := s.submit(ctx, event, creds, lines, amend)

	outcome := "created"
	if amend {
		outcome = "amended"
	}
	switch {
	case err == nil:
		slog.Info("ballot settled",
			"event_id", event.ID,
			"ballot_id", ballotID,
			"voter", voterKey,
			"amendment", amend,
		)
	case errors.Is(err, ErrSettlementFailed), Reason(err) == "internal":
		outcome = Reason(err)
		slog.Error("ballot settlement failed", "event_id", event.ID, "voter", voterKey, "error", err)
	default:
		outcome = Reason(err)
		slog.Warn("ballot rejected", "event_id", event.ID, "voter", voterKey, "reason", outcome, "error", err)
	}
	if s.recorder != nil {
		s.recorder.ObserveSettlement(outcome)
	}

	return ballotID, err
}

func (s *Service) submit(ctx context.Context, event models.Event, creds Credentials, lines []Line, amend bool) (string, string, error) {
	now := s.clock.Now()

	res, err := s.resolver.Resolve(ctx, event, creds, now)
	if err != nil {
		return "", "", err
	}
	voterKey := res.Voter.Key()

	if !amend {
		if res.AlreadyVoted {
			return "", voterKey, ErrAlreadySubmitted
		}
		if err := Validate(event, lines); err != nil {
			return "", voterKey, err
		}

		ballot := models.Ballot{
			ID:        uuid.NewString(),
			EventID:   event.ID,
			CreatedAt: now,
			UpdatedAt: now,
			Lines:     ballotLines(lines),
		}
		setVoter(&ballot, res.Voter)

		// The store's uniqueness constraint is authoritative; the
		// AlreadyVoted check above only short-circuits the common case.
		if err := s.store.CreateBallot(ctx, ballot, res.Voter); err != nil {
			if errors.Is(err, ErrAlreadySubmitted) {
				return "", voterKey, ErrAlreadySubmitted
			}
			return "", voterKey, &settlementError{cause: err}
		}
		return ballot.ID, voterKey, nil
	}

	ballotID, err := s.ownedBallotID(ctx, event, res, creds.BallotID)
	if err != nil {
		return "", voterKey, err
	}
	if err := Validate(event, lines); err != nil {
		return "", voterKey, err
	}

	ballot := models.Ballot{
		ID:        ballotID,
		EventID:   event.ID,
		UpdatedAt: now,
		Lines:     ballotLines(lines),
	}
	setVoter(&ballot, res.Voter)

	err = s.store.ReplaceBallotLines(ctx, ballot, res.Voter)
	switch {
	case err == nil:
		return ballotID, voterKey, nil
	case errors.Is(err, ErrNotOwner), errors.Is(err, ErrBallotNotFound):
		return "", voterKey, ErrNotOwner
	default:
		return "", voterKey, &settlementError{cause: err}
	}
}

// ownedBallotID returns the id of the ballot owned by the resolved voter.
// A caller-supplied ballot id must name that same ballot.
func (s *Service) ownedBallotID(ctx context.Context, event models.Event, res Resolution, requested string) (string, error) {
	if !res.AlreadyVoted {
		return "", fmt.Errorf("%w: voter has no ballot to amend", ErrNotOwner)
	}

	owned := res.ExistingBallotID
	if owned == "" {
		b, found, err := s.store.FindBallotByVoter(ctx, event.ID, res.Voter)
		if err != nil {
			return "", fmt.Errorf("failed to look up ballot: %w", err)
		}
		if !found {
			return "", fmt.Errorf("%w: voter has no ballot to amend", ErrNotOwner)
		}
		owned = b.ID
	}

	if requested != "" && requested != owned {
		return "", ErrNotOwner
	}
	return owned, nil
}

// MyBallot returns the caller's ballot for the event, if any.
func (s *Service) MyBallot(ctx context.Context, event models.Event, creds Credentials) (models.Ballot, bool, error) {
	res, err := s.resolver.Resolve(ctx, event, creds, s.clock.Now())
	if err != nil {
		return models.Ballot{}, false, err
	}
	if !res.AlreadyVoted {
		return models.Ballot{}, false, nil
	}

	if res.ExistingBallotID == "" {
		return s.store.FindBallotByVoter(ctx, event.ID, res.Voter)
	}

	b, err := s.store.GetBallot(ctx, res.ExistingBallotID)
	if errors.Is(err, ErrBallotNotFound) {
		return models.Ballot{}, false, nil
	}
	if err != nil {
		return models.Ballot{}, false, err
	}
	if !Owns(res.Voter, b) {
		return models.Ballot{}, false, ErrNotOwner
	}
	return b, true, nil
}

func setVoter(b *models.Ballot, v Voter) {
	switch v := v.(type) {
	case TokenVoter:
		id := v.TokenID
		b.TokenID = &id
	case SocialVoter:
		id := v.UserID
		b.UserID = &id
	}
}
