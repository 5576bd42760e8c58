// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidToken      = errors.New("invalid voter credentials")
	ErrNotActive         = errors.New("event is not accepting votes")
	ErrUnknownOption     = errors.New("unknown option")
	ErrInvalidAmount     = errors.New("invalid vote amount")
	ErrBudgetExceeded    = errors.New("credit budget exceeded")
	ErrEmptyBallot       = errors.New("ballot has no votes")
	ErrAlreadySubmitted  = errors.New("ballot already submitted")
	ErrNotOwner          = errors.New("ballot does not belong to voter")
	ErrSettlementFailed  = errors.New("settlement failed")
	ErrBallotNotFound    = errors.New("ballot not found")
	ErrTokenNotFound     = errors.New("access token not found")
	ErrUnknownAuthMode   = errors.New("unknown auth mode")
	ErrMissingCredential = errors.New("missing voter credential")
)

// Boundary names the edge of the voting window a submission fell outside of.
type Boundary string

const (
	BeforeStart Boundary = "start"
	AfterEnd    Boundary = "end"
)

// WindowError is returned when a vote arrives outside [Start, End).
type WindowError struct {
	Boundary Boundary
	Start    time.Time
	End      time.Time
}

func (e *WindowError) Error() string {
	if e.Boundary == BeforeStart {
		return fmt.Sprintf("%v: voting opens at %s", ErrNotActive, e.Start.Format(time.RFC3339))
	}
	return fmt.Sprintf("%v: voting closed at %s", ErrNotActive, e.End.Format(time.RFC3339))
}

func (e *WindowError) Is(target error) bool { return target == ErrNotActive }

// BudgetError reports how many credits a rejected ballot would have used.
type BudgetError struct {
	Used  int
	Limit int
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("%v: used %d of %d credits", ErrBudgetExceeded, e.Used, e.Limit)
}

func (e *BudgetError) Is(target error) bool { return target == ErrBudgetExceeded }

// Over returns the number of credits above the limit.
func (e *BudgetError) Over() int { return e.Used - e.Limit }

type OptionError struct {
	OptionID  string
	Duplicate bool
}

func (e *OptionError) Error() string {
	if e.Duplicate {
		return fmt.Sprintf("%v: %s appears more than once", ErrUnknownOption, e.OptionID)
	}
	return fmt.Sprintf("%v: %s", ErrUnknownOption, e.OptionID)
}

func (e *OptionError) Is(target error) bool { return target == ErrUnknownOption }

type AmountError struct {
	OptionID string
	Amount   string
}

func (e *AmountError) Error() string {
	return fmt.Sprintf("%v: %s for option %s", ErrInvalidAmount, e.Amount, e.OptionID)
}

func (e *AmountError) Is(target error) bool { return target == ErrInvalidAmount }

// settlementError keeps the store cause visible to errors.Is/As while
// still matching ErrSettlementFailed.
type settlementError struct {
	cause error
}

func (e *settlementError) Error() string {
	return fmt.Sprintf("%v: %v", ErrSettlementFailed, e.cause)
}

func (e *settlementError) Is(target error) bool { return target == ErrSettlementFailed }

func (e *settlementError) Unwrap() error { return e.cause }

// Reason returns a stable machine-readable code for a rejection, or
// "internal" for errors outside the taxonomy.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrMissingCredential):
		return "invalid_token"
	case errors.Is(err, ErrNotActive):
		return "not_active"
	case errors.Is(err, ErrUnknownOption):
		return "unknown_option"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrBudgetExceeded):
		return "budget_exceeded"
	case errors.Is(err, ErrEmptyBallot):
		return "empty_ballot"
	case errors.Is(err, ErrAlreadySubmitted):
		return "already_submitted"
	case errors.Is(err, ErrNotOwner):
		return "not_owner"
	case errors.Is(err, ErrSettlementFailed):
		return "settlement_failed"
	default:
		return "internal"
	}
}
