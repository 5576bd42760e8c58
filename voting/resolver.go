// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danielhkuo/quickly-qv/models"
)

// Resolver maps request credentials to a canonical Voter and reports
// whether that voter already has a ballot for the event.
type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// CheckWindow returns a *WindowError when now falls outside the event's
// [StartDate, EndDate) voting window.
func CheckWindow(event models.Event, now time.Time) error {
	if now.Before(event.StartDate) {
		return &WindowError{Boundary: BeforeStart, Start: event.StartDate, End: event.EndDate}
	}
	if !now.Before(event.EndDate) {
		return &WindowError{Boundary: AfterEnd, Start: event.StartDate, End: event.EndDate}
	}
	return nil
}

// Resolve checks the voting window first so that a closed event never
// reveals whether a token is valid, then looks up the voter.
func (r *Resolver) Resolve(ctx context.Context, event models.Event, creds Credentials, now time.Time) (Resolution, error) {
	if err := CheckWindow(event, now); err != nil {
		return Resolution{}, err
	}
	return r.lookup(ctx, event, creds)
}

func (r *Resolver) lookup(ctx context.Context, event models.Event, creds Credentials) (Resolution, error) {
	switch event.AuthMode {
	case models.AuthIndividual:
		token := strings.TrimSpace(creds.Token)
		if token == "" {
			return Resolution{}, fmt.Errorf("%w: access token required", ErrMissingCredential)
		}

		at, err := r.store.GetAccessToken(ctx, event.ID, token)
		if errors.Is(err, ErrTokenNotFound) {
			return Resolution{}, ErrInvalidToken
		}
		if err != nil {
			return Resolution{}, fmt.Errorf("failed to look up access token: %w", err)
		}

		res := Resolution{
			Voter:        TokenVoter{TokenID: at.ID},
			AlreadyVoted: at.Consumed,
		}
		if at.BallotID != nil {
			res.AlreadyVoted = true
			res.ExistingBallotID = *at.BallotID
		}
		return res, nil

	case models.AuthSocial:
		userID := strings.TrimSpace(creds.UserID)
		if userID == "" {
			return Resolution{}, fmt.Errorf("%w: authenticated identity required", ErrMissingCredential)
		}

		v := SocialVoter{UserID: userID}
		b, found, err := r.store.FindBallotByVoter(ctx, event.ID, v)
		if err != nil {
			return Resolution{}, fmt.Errorf("failed to look up ballot: %w", err)
		}

		res := Resolution{Voter: v, AlreadyVoted: found}
		if found {
			res.ExistingBallotID = b.ID
		}
		return res, nil

	default:
		return Resolution{}, fmt.Errorf("%w: %q", ErrUnknownAuthMode, event.AuthMode)
	}
}
