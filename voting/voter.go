// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"time"

	"github.com/danielhkuo/quickly-qv/models"
)

// Voter is the canonical identity a ballot is keyed on. It is either a
// TokenVoter or a SocialVoter, never both.
type Voter interface {
	// Key is unique per voter within an event and safe to log.
	Key() string
	voter()
}

// TokenVoter votes with a single-use access token.
type TokenVoter struct {
	TokenID string
}

func (v TokenVoter) Key() string { return "token:" + v.TokenID }
func (TokenVoter) voter()        {}

// SocialVoter votes with an identity resolved by an upstream login.
type SocialVoter struct {
	UserID string
}

func (v SocialVoter) Key() string { return "social:" + v.UserID }
func (SocialVoter) voter()        {}

// Owns reports whether ballot b was cast by v.
func Owns(v Voter, b models.Ballot) bool {
	switch v := v.(type) {
	case TokenVoter:
		return b.TokenID != nil && *b.TokenID == v.TokenID
	case SocialVoter:
		return b.UserID != nil && *b.UserID == v.UserID
	}
	return false
}

// Credentials is what a request presents to prove who is voting. Token
// is used by individual events, UserID by social events. BallotID is
// optional and only meaningful for amendments.
type Credentials struct {
	Token    string
	UserID   string
	BallotID string
}

// Resolution is the outcome of identity resolution.
type Resolution struct {
	Voter            Voter
	AlreadyVoted     bool
	ExistingBallotID string
}

// Store is the persistence the settlement engine depends on.
//
// CreateBallot and ReplaceBallotLines must each be a single atomic unit.
// CreateBallot returns ErrAlreadySubmitted when the (event, voter)
// uniqueness constraint rejects the write or the access token was
// consumed concurrently. ReplaceBallotLines returns ErrNotOwner when the
// ballot is not owned by the voter.
type Store interface {
	GetAccessToken(ctx context.Context, eventID, token string) (models.AccessToken, error)
	FindBallotByVoter(ctx context.Context, eventID string, v Voter) (models.Ballot, bool, error)
	GetBallot(ctx context.Context, ballotID string) (models.Ballot, error)
	CreateBallot(ctx context.Context, b models.Ballot, v Voter) error
	ReplaceBallotLines(ctx context.Context, b models.Ballot, v Voter) error
}

// Clock supplies the current time for voting window checks.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }
