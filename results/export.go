// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package results

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/danielhkuo/quickly-qv/credits"
	"github.com/danielhkuo/quickly-qv/models"
)

// SummaryRows returns the option results sorted by total votes, highest
// first. Ties keep event display order.
func SummaryRows(snap models.ResultsSnapshot) []models.OptionResult {
	rows := make([]models.OptionResult, len(snap.Results))
	copy(rows, snap.Results)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalVotes > rows[j].TotalVotes
	})
	return rows
}

// WriteSummaryCSV writes one row per option:
// rank,title,totalVotes,creditsUsed,voterCount.
func WriteSummaryCSV(w io.Writer, snap models.ResultsSnapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"rank", "title", "totalVotes", "creditsUsed", "voterCount"}); err != nil {
		return err
	}

	for i, r := range SummaryRows(snap) {
		rec := []string{
			strconv.Itoa(i + 1),
			r.Title,
			strconv.Itoa(r.TotalVotes),
			strconv.Itoa(r.TotalCost),
			strconv.Itoa(r.VoterCount),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteRawCSV writes one row per ballot in creation order:
// voteId,votedAt,<one column per option title>,totalCost.
func WriteRawCSV(w io.Writer, event models.Event, ballots []models.Ballot) error {
	ordered := make([]models.Ballot, len(ballots))
	copy(ordered, ballots)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	cw := csv.NewWriter(w)
	header := make([]string, 0, len(event.Options)+3)
	header = append(header, "voteId", "votedAt")
	for _, o := range event.Options {
		header = append(header, o.Title)
	}
	header = append(header, "totalCost")
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, b := range ordered {
		byOption := make(map[string]int, len(b.Lines))
		for _, l := range b.Lines {
			byOption[l.OptionID] += l.Amount
		}

		rec := make([]string, 0, len(header))
		rec = append(rec, b.ID, b.CreatedAt.UTC().Format(time.RFC3339))
		for _, o := range event.Options {
			rec = append(rec, strconv.Itoa(byOption[o.ID]))
		}
		rec = append(rec, strconv.Itoa(credits.TotalCost(b.Amounts()...)))
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
