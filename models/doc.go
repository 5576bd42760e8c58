// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

  - CreateEventRequest: title, description, credits_per_voter, auth_mode, start_date, end_date
  - AddOptionRequest: title, description
  - IssueTokensRequest: count
  - SubmitBallotRequest: lines of option_id and amount, optional ballot_id

# Response Types

  - CreateEventResponse: event_id, slug, admin_key
  - AddOptionResponse: option_id
  - IssueTokensResponse: tokens
  - SubmitBallotResponse: ballot_id, message
  - EventAdminResponse: event with ballot and token counts
  - ErrorResponse: error, reason, message and rejection detail

# Domain Types

  - Event, Option, AccessToken, Ballot, BallotLine
  - ResultsSnapshot with OptionResult, Statistics, OptionDistribution
    and HiddenPreferences

# Constants

Auth modes:

	AuthIndividual = "individual"
	AuthSocial     = "social"
*/
package models
