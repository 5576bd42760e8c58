// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package results

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/danielhkuo/quickly-qv/credits"
	"github.com/danielhkuo/quickly-qv/models"
)

// Reader is the read-only view of the store the aggregator needs.
type Reader interface {
	GetEvent(ctx context.Context, eventID string) (models.Event, error)
	ListBallots(ctx context.Context, eventID string) ([]models.Ballot, error)
	CountAccessTokens(ctx context.Context, eventID string) (int, error)
}

// Aggregate reads every committed ballot of an event and computes the
// results snapshot. It never writes. The ballot list is one statement, so
// each ballot is complete. Tokens are counted after the ballots are
// listed, so every listed ballot's token is counted and the participation
// rate stays at or below 100 even when tokens are issued in between.
func Aggregate(ctx context.Context, r Reader, eventID string) (models.ResultsSnapshot, error) {
	event, err := r.GetEvent(ctx, eventID)
	if err != nil {
		return models.ResultsSnapshot{}, fmt.Errorf("failed to get event: %w", err)
	}

	ballots, err := r.ListBallots(ctx, eventID)
	if err != nil {
		return models.ResultsSnapshot{}, fmt.Errorf("failed to list ballots: %w", err)
	}

	issued := -1
	if event.AuthMode == models.AuthIndividual {
		issued, err = r.CountAccessTokens(ctx, eventID)
		if err != nil {
			return models.ResultsSnapshot{}, fmt.Errorf("failed to count access tokens: %w", err)
		}
	}

	snap := Compute(event, ballots, issued)
	snap.ComputedAt = time.Now().UTC()
	return snap, nil
}

// Compute builds a snapshot from an in-memory ballot set. issuedTokens is
// the number of access tokens issued for individual events; pass a
// negative value for events without tokens.
func Compute(event models.Event, ballots []models.Ballot, issuedTokens int) models.ResultsSnapshot {
	// amounts[b][o] is ballot b's amount for event.Options[o]; missing
	// lines and zero lines are the same thing here.
	index := make(map[string]int, len(event.Options))
	for i, o := range event.Options {
		index[o.ID] = i
	}
	amounts := make([][]int, len(ballots))
	for b, ballot := range ballots {
		row := make([]int, len(event.Options))
		for _, l := range ballot.Lines {
			if i, ok := index[l.OptionID]; ok {
				row[i] += l.Amount
			}
		}
		amounts[b] = row
	}

	return models.ResultsSnapshot{
		Event:             event,
		Results:           optionResults(event, amounts),
		Statistics:        statistics(event, amounts, issuedTokens),
		Distributions:     distributions(event, amounts),
		HiddenPreferences: hiddenPreferences(event, amounts),
	}
}

func optionResults(event models.Event, amounts [][]int) []models.OptionResult {
	out := make([]models.OptionResult, len(event.Options))
	for i, o := range event.Options {
		out[i] = models.OptionResult{OptionID: o.ID, Title: o.Title}
	}
	for _, row := range amounts {
		for i, a := range row {
			if a <= 0 {
				continue
			}
			out[i].TotalVotes += a
			out[i].TotalCost += credits.Cost(a)
			out[i].VoterCount++
		}
	}
	return out
}

func statistics(event models.Event, amounts [][]int, issuedTokens int) models.Statistics {
	stats := models.Statistics{
		TotalParticipants:     len(amounts),
		TotalCreditsAvailable: len(amounts) * event.CreditsPerVoter,
	}
	for _, row := range amounts {
		stats.TotalCreditsUsed += credits.TotalCost(row...)
	}
	if stats.TotalParticipants > 0 {
		stats.AverageCreditsUsed = float64(stats.TotalCreditsUsed) / float64(stats.TotalParticipants)
	}

	if event.AuthMode == models.AuthIndividual && issuedTokens >= 0 {
		rate := 0.0
		if issuedTokens > 0 {
			rate = float64(stats.TotalParticipants) / float64(issuedTokens) * 100
		}
		stats.ParticipationRate = &rate
		stats.TotalIssuedTokens = &issuedTokens
	}
	return stats
}

// distributions counts, per option, how many ballots chose each amount,
// including the 0 bucket.
func distributions(event models.Event, amounts [][]int) []models.OptionDistribution {
	out := make([]models.OptionDistribution, len(event.Options))
	for i, o := range event.Options {
		counts := make(map[int]int)
		for _, row := range amounts {
			counts[row[i]]++
		}

		buckets := make([]models.DistributionBucket, 0, len(counts))
		for amount, n := range counts {
			buckets = append(buckets, models.DistributionBucket{Amount: amount, Count: n})
		}
		sort.Slice(buckets, func(a, b int) bool {
			return buckets[a].Amount < buckets[b].Amount
		})

		out[i] = models.OptionDistribution{OptionID: o.ID, Title: o.Title, Buckets: buckets}
	}
	return out
}

// TopChoice returns the index of the option with the largest amount in
// row, or -1 when every amount is zero. Ties go to the earliest option in
// display order.
func TopChoice(row []int) int {
	top := -1
	for i, a := range row {
		if a <= 0 {
			continue
		}
		if top < 0 || a > row[top] {
			top = i
		}
	}
	return top
}

// hiddenPreferences compares QV totals with a single-choice tally where
// each ballot counts once for its top choice.
func hiddenPreferences(event models.Event, amounts [][]int) models.HiddenPreferences {
	single := make([]int, len(event.Options))
	qv := make([]int, len(event.Options))
	for _, row := range amounts {
		if top := TopChoice(row); top >= 0 {
			single[top]++
		}
		for i, a := range row {
			if a > 0 {
				qv[i] += a
			}
		}
	}

	hp := models.HiddenPreferences{Options: make([]models.HiddenPreference, len(event.Options))}
	for i, o := range event.Options {
		hidden := qv[i] - single[i]
		hp.Options[i] = models.HiddenPreference{
			OptionID:    o.ID,
			Title:       o.Title,
			QvVotes:     qv[i],
			SingleVotes: single[i],
			HiddenVotes: hidden,
		}
		hp.TotalQvVotes += qv[i]
		hp.TotalSingleVotes += single[i]
		if hidden > 0 {
			hp.TotalHiddenVotes += hidden
		}
	}
	return hp
}
