// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package voting settles quadratic-voting ballots.

# Validation

Validate checks a proposed ballot against an event in a fixed order and
returns the first failure:

	err := voting.Validate(event, []voting.Line{{OptionID: a, Amount: 3}})

# Identity

Events authenticate voters in one of two ways. Individual events hand out
single-use access tokens; social events trust an identity resolved by an
upstream login. Resolver turns Credentials into a Voter (TokenVoter or
SocialVoter) after checking the voting window:

	res, err := voting.NewResolver(store).Resolve(ctx, event, creds, now)

# Settlement

Service.Submit resolves, validates and commits in one call:

	svc := voting.NewService(store, voting.SystemClock(), recorder)
	ballotID, err := svc.Submit(ctx, event, creds, lines, false)

A first submission inserts the ballot and, for individual events,
consumes the access token in the same transaction. An amendment replaces
every line of the existing ballot and keeps its id. Exactly one of any
number of concurrent first submissions by the same voter succeeds; the
rest get ErrAlreadySubmitted. This relies on the Store's uniqueness
constraint, not on the earlier existence check.

# Errors

Rejections are sentinel errors, some with typed details:

	var be *voting.BudgetError
	if errors.As(err, &be) {
		fmt.Println(be.Used, be.Limit)
	}

Reason maps any error to a stable code such as "budget_exceeded".
Only ErrSettlementFailed is worth retrying unchanged.
*/
package voting
