package records

import (
	"encoding/json"
	"testing"

	"diveanalytics-backend/internal/divemeets"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestDiveOmitsUnsetFields(t *testing.T) {
	score := decimal.RequireFromString("7.50")
	dive := Dive{
		ResultKey:   "101_SPRING_INVITE_20240315_1M_SPRINGBOARD_FINALS",
		DiveRound:   "1",
		Code:        "103B",
		Scores:      []*decimal.Decimal{&score, nil},
		RoundPlace:  OptionalInt(nil),
		LastUpdated: "2024-03-16T00:00:00Z",
	}
	encoded, err := json.Marshal(dive)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"result_key": "101_SPRING_INVITE_20240315_1M_SPRINGBOARD_FINALS",
		"dive_round": "1",
		"code": "103B",
		"description": "",
		"height": "",
		"scores": [7.50, null],
		"last_updated": "2024-03-16T00:00:00Z"
	}`, string(encoded))

	var decoded Dive
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	require.Nil(t, decoded.Difficulty)
	require.Len(t, decoded.Scores, 2)
	require.True(t, score.Equal(*decoded.Scores[0]))
	require.Nil(t, decoded.Scores[1])
}

func TestOptionalHelpers(t *testing.T) {
	require.Nil(t, OptionalString(""))
	require.Equal(t, "x", *OptionalString("x"))

	n := 20
	require.True(t, decimal.NewFromInt(20).Equal(*OptionalInt(&n)))
}

func TestScrapedDecimalsEncodeAsNumbers(t *testing.T) {
	total := decimal.RequireFromString("456.75")
	encoded, err := json.Marshal(divemeets.HistoryRow{
		MeetName:   "Spring Invite",
		TotalScore: &total,
	})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	require.Equal(t, 456.75, decoded["total_score"])
}
