// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package results turns the committed ballots of an event into a results
snapshot and CSV exports.

# Aggregation

	snap, err := results.Aggregate(ctx, store, eventID)

The snapshot holds:

  - Results: per option total votes, total cost, and voter count
  - Statistics: participants, credits used/available, average credits,
    and (individual events only) participation rate against issued tokens
  - Distributions: per option, how many ballots gave each amount,
    including the 0 bucket, ascending by amount
  - HiddenPreferences: QV totals against a single-choice tally

# Hidden Preferences

Each ballot is reduced to its top choice, the option with the largest
amount. Ties go to the option that comes first in the event's display
order. Ballots whose amounts are all zero have no top choice. For every
option:

	hidden = qvVotes - singleVotes

and totalQvVotes = Σ singleVotes + Σ hidden always holds.

# Exports

WriteSummaryCSV writes rank,title,totalVotes,creditsUsed,voterCount
sorted by votes. WriteRawCSV writes one row per ballot with one column
per option; it exposes individual ballots and is admin-only over HTTP.
*/
package results
