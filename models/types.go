package models

import (
	"encoding/json"
	"time"
)

// Authentication modes
const (
	AuthIndividual = "individual" // single-use access tokens
	AuthSocial     = "social"     // externally authenticated identity
)

// Request types

type CreateEventRequest struct {
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	CreditsPerVoter int       `json:"credits_per_voter"`
	AuthMode        string    `json:"auth_mode"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
}

type AddOptionRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type IssueTokensRequest struct {
	Count int `json:"count"`
}

// Amount stays a json.Number so 1.5 is reported as an invalid amount
// rather than malformed JSON.
type BallotLineRequest struct {
	OptionID string      `json:"option_id"`
	Amount   json.Number `json:"amount"`
}

type SubmitBallotRequest struct {
	BallotID string              `json:"ballot_id,omitempty"`
	Lines    []BallotLineRequest `json:"lines"`
}

// Response types

type CreateEventResponse struct {
	EventID  string `json:"event_id"`
	Slug     string `json:"slug"`
	AdminKey string `json:"admin_key"`
}

type AddOptionResponse struct {
	OptionID string `json:"option_id"`
}

type IssueTokensResponse struct {
	Tokens []string `json:"tokens"`
}

type SubmitBallotResponse struct {
	BallotID string `json:"ballot_id"`
	Message  string `json:"message"`
}

type EventAdminResponse struct {
	Event          Event `json:"event"`
	BallotCount    int   `json:"ballot_count"`
	TokensIssued   int   `json:"tokens_issued"`
	TokensConsumed int   `json:"tokens_consumed"`
}

// Domain types

type Event struct {
	ID              string    `json:"id"`
	Slug            string    `json:"slug"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	CreditsPerVoter int       `json:"credits_per_voter"`
	AuthMode        string    `json:"auth_mode"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	CreatedAt       time.Time `json:"created_at"`
	Options         []Option  `json:"options"`
}

// HasOption reports whether optionID belongs to the event.
func (e Event) HasOption(optionID string) bool {
	for _, o := range e.Options {
		if o.ID == optionID {
			return true
		}
	}
	return false
}

type Option struct {
	ID          string `json:"id"`
	EventID     string `json:"event_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Position    int    `json:"position"`
}

type AccessToken struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	Token     string    `json:"-"`
	Consumed  bool      `json:"consumed"`
	BallotID  *string   `json:"ballot_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Ballot carries exactly one of TokenID or UserID, depending on the
// event's auth mode.
type Ballot struct {
	ID        string       `json:"id"`
	EventID   string       `json:"event_id"`
	TokenID   *string      `json:"-"`
	UserID    *string      `json:"-"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Lines     []BallotLine `json:"lines"`
}

// Amounts returns the amount of every line, in line order.
func (b Ballot) Amounts() []int {
	amounts := make([]int, len(b.Lines))
	for i, l := range b.Lines {
		amounts[i] = l.Amount
	}
	return amounts
}

type BallotLine struct {
	OptionID string `json:"option_id"`
	Amount   int    `json:"amount"`
	Cost     int    `json:"cost"`
}

// Results types

type OptionResult struct {
	OptionID   string `json:"option_id"`
	Title      string `json:"title"`
	TotalVotes int    `json:"total_votes"`
	TotalCost  int    `json:"total_cost"`
	VoterCount int    `json:"voter_count"`
}

type Statistics struct {
	TotalParticipants     int     `json:"total_participants"`
	TotalCreditsUsed      int     `json:"total_credits_used"`
	TotalCreditsAvailable int     `json:"total_credits_available"`
	AverageCreditsUsed    float64 `json:"average_credits_used"`
	// Only set for individual (token) events
	ParticipationRate *float64 `json:"participation_rate,omitempty"`
	TotalIssuedTokens *int     `json:"total_issued_tokens,omitempty"`
}

type DistributionBucket struct {
	Amount int `json:"amount"`
	Count  int `json:"count"`
}

type OptionDistribution struct {
	OptionID string               `json:"option_id"`
	Title    string               `json:"title"`
	Buckets  []DistributionBucket `json:"buckets"`
}

type HiddenPreference struct {
	OptionID    string `json:"option_id"`
	Title       string `json:"title"`
	QvVotes     int    `json:"qv_votes"`
	SingleVotes int    `json:"single_votes"`
	HiddenVotes int    `json:"hidden_votes"`
}

type HiddenPreferences struct {
	Options          []HiddenPreference `json:"options"`
	TotalHiddenVotes int                `json:"total_hidden_votes"`
	TotalQvVotes     int                `json:"total_qv_votes"`
	TotalSingleVotes int                `json:"total_single_votes"`
}

type ResultsSnapshot struct {
	Event             Event                `json:"event"`
	ComputedAt        time.Time            `json:"computed_at"`
	Results           []OptionResult       `json:"results"`
	Statistics        Statistics           `json:"statistics"`
	Distributions     []OptionDistribution `json:"distributions"`
	HiddenPreferences HiddenPreferences    `json:"hidden_preferences"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
	Used    *int   `json:"used,omitempty"`
	Limit   *int   `json:"limit,omitempty"`
	// "start" or "end" for not_active rejections
	Boundary string `json:"boundary,omitempty"`
	OptionID string `json:"option_id,omitempty"`
}
