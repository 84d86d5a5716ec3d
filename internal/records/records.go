// Package records defines the stored form of divers, competitions, results
// and dives. Optional fields are omitted from the stored item when unset.
//
// Importing this package switches decimal.Decimal json encoding to plain
// numbers for the whole process, which also applies to the scraped
// divemeets types returned in import responses.
package records

import (
	"github.com/shopspring/decimal"
)

func init() {
	// decimals are written as json numbers, their text keeps full precision
	decimal.MarshalJSONWithoutQuotes = true
}

type Diver struct {
	DiverID     int              `json:"diver_id"`
	Name        string           `json:"name"`
	CityState   string           `json:"city_state"`
	Country     string           `json:"country"`
	Gender      string           `json:"gender"`
	Age         *decimal.Decimal `json:"age,omitempty"`
	FinaAge     *decimal.Decimal `json:"fina_age,omitempty"`
	HSGradYear  *decimal.Decimal `json:"hs_grad_year,omitempty"`
	LastUpdated string           `json:"last_updated"`
}

type Competition struct {
	CompetitionID string  `json:"competition_id"`
	MeetName      string  `json:"meet_name"`
	StartDate     *string `json:"start_date,omitempty"`
	EndDate       *string `json:"end_date,omitempty"`
	LastUpdated   string  `json:"last_updated"`
}

type Result struct {
	DiverID             int              `json:"diver_id"`
	CompetitionEventKey string           `json:"competition_event_key"`
	CompetitionID       string           `json:"competition_id"`
	MeetName            string           `json:"meet_name"`
	EventName           string           `json:"event_name"`
	RoundType           string           `json:"round_type"`
	TotalScore          *decimal.Decimal `json:"total_score,omitempty"`
	DetailHref          *string          `json:"detail_href,omitempty"`
	StartDate           *string          `json:"start_date,omitempty"`
	EndDate             *string          `json:"end_date,omitempty"`
	LastUpdated         string           `json:"last_updated"`
}

type Dive struct {
	ResultKey   string             `json:"result_key"`
	DiveRound   string             `json:"dive_round"`
	Code        string             `json:"code"`
	Description string             `json:"description"`
	Height      string             `json:"height"`
	Difficulty  *decimal.Decimal   `json:"difficulty,omitempty"`
	Scores      []*decimal.Decimal `json:"scores"`
	NetTotal    *decimal.Decimal   `json:"net_total,omitempty"`
	Award       *decimal.Decimal   `json:"award,omitempty"`
	RoundPlace  *decimal.Decimal   `json:"round_place,omitempty"`
	LastUpdated string             `json:"last_updated"`
}

// OptionalString maps the empty string to nil.
func OptionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// OptionalInt converts an optional integer into a decimal.
func OptionalInt(n *int) *decimal.Decimal {
	if n == nil {
		return nil
	}
	d := decimal.NewFromInt(int64(*n))
	return &d
}
