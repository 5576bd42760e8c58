// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"strconv"
	"strings"

	"github.com/danielhkuo/quickly-qv/credits"
	"github.com/danielhkuo/quickly-qv/models"
)

// Line is one proposed option allocation. Malformed holds the quoted amount
// when it was not an integer; such a line fails validation with
// ErrInvalidAmount.
type Line struct {
	OptionID  string
	Amount    int
	Malformed string
}

// ParseLine builds a Line from an amount in its textual form.
func ParseLine(optionID, amount string) Line {
	n, err := strconv.Atoi(strings.TrimSpace(amount))
	if err != nil {
		return Line{OptionID: optionID, Malformed: strconv.Quote(amount)}
	}
	return Line{OptionID: optionID, Amount: n}
}

// Validate checks a proposed ballot against the event. Checks run in a
// fixed order and the first failure is returned:
//
//  1. every option belongs to the event (ErrUnknownOption)
//  2. every amount is >= 0 (ErrInvalidAmount)
//  3. total cost fits the budget (ErrBudgetExceeded)
//  4. at least one amount is positive (ErrEmptyBallot)
//
// The same rules apply to first submissions and amendments.
func Validate(event models.Event, lines []Line) error {
	seen := make(map[string]bool, len(lines))
	for _, l := range lines {
		if !event.HasOption(l.OptionID) {
			return &OptionError{OptionID: l.OptionID}
		}
		if seen[l.OptionID] {
			return &OptionError{OptionID: l.OptionID, Duplicate: true}
		}
		seen[l.OptionID] = true
	}

	for _, l := range lines {
		if l.Malformed != "" {
			return &AmountError{OptionID: l.OptionID, Amount: l.Malformed}
		}
		if l.Amount < 0 {
			return &AmountError{OptionID: l.OptionID, Amount: strconv.Itoa(l.Amount)}
		}
	}

	used := credits.CappedTotalCost(amounts(lines)...)
	if used > event.CreditsPerVoter {
		return &BudgetError{Used: used, Limit: event.CreditsPerVoter}
	}

	for _, l := range lines {
		if l.Amount > 0 {
			return nil
		}
	}
	return ErrEmptyBallot
}

func amounts(lines []Line) []int {
	out := make([]int, len(lines))
	for i, l := range lines {
		out[i] = l.Amount
	}
	return out
}

// ballotLines converts validated lines into stored lines with their cost.
func ballotLines(lines []Line) []models.BallotLine {
	out := make([]models.BallotLine, len(lines))
	for i, l := range lines {
		out[i] = models.BallotLine{
			OptionID: l.OptionID,
			Amount:   l.Amount,
			Cost:     credits.Cost(l.Amount),
		}
	}
	return out
}
