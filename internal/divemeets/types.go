package divemeets

import (
	"github.com/shopspring/decimal"
)

// RosterEntry is one individual diver linked from a team roster page.
type RosterEntry struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	ProfileHref string `json:"profile_url"`
}

// Profile holds the personal attributes printed on a diver profile page.
// Text fields are empty when their label is missing.
type Profile struct {
	Name       string `json:"name"`
	CityState  string `json:"city_state"`
	Country    string `json:"country"`
	Gender     string `json:"gender"`
	Age        *int   `json:"age,omitempty"`
	FinaAge    *int   `json:"fina_age,omitempty"`
	HSGradYear *int   `json:"hs_grad_year,omitempty"`
}

// HistoryRow is a single event row of a diver's result history.
type HistoryRow struct {
	MeetName   string           `json:"meet_name"`
	EventName  string           `json:"event_name"`
	RoundType  string           `json:"round_type"`
	DiveCount  int              `json:"dive_count"`
	TotalScore *decimal.Decimal `json:"total_score,omitempty"`
	DetailHref string           `json:"detail_href,omitempty"`
}

// ScoreSheet is the parsed dive-by-dive breakdown of one event round.
type ScoreSheet struct {
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Dives     []Dive `json:"dives"`
}

// Dive is one scored row of a score sheet. Numeric fields are nil when the
// cell could not be read as a number.
type Dive struct {
	Round       string             `json:"dive_round"`
	Code        string             `json:"code"`
	Description string             `json:"description"`
	Height      string             `json:"height"`
	Difficulty  *decimal.Decimal   `json:"difficulty,omitempty"`
	Scores      []*decimal.Decimal `json:"scores"`
	NetTotal    *decimal.Decimal   `json:"net_total,omitempty"`
	Award       *decimal.Decimal   `json:"award,omitempty"`
	RoundPlace  *int               `json:"round_place,omitempty"`
}

// Result is a history row merged with its score sheet, when one was
// fetched.
type Result struct {
	HistoryRow
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Dives     []Dive `json:"dives,omitempty"`
}

// State is the progress of a single diver through the pipeline.
type State int

const (
	StatePending State = iota
	StateFetchingProfile
	StateFetchingHistory
	StateFetchingDetails
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateFetchingProfile:
		return "fetching_profile"
	case StateFetchingHistory:
		return "fetching_history"
	case StateFetchingDetails:
		return "fetching_details"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Diver is the pipeline output for one roster entry. A failed diver only
// carries its id, roster name and Error.
type Diver struct {
	ID int `json:"id"`
	Profile
	Results []Result `json:"results"`
	Error   string   `json:"error,omitempty"`
	State   State    `json:"-"`
}

func (d Diver) Failed() bool {
	return d.State == StateFailed
}
