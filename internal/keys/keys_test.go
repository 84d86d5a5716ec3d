package keys

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompetitionID(t *testing.T) {
	testCases := []struct {
		meet     string
		date     string
		expected string
	}{
		{meet: "Spring Invite", date: "2024-03-15", expected: "SPRING_INVITE_20240315"},
		{meet: "Spring Invite", date: "", expected: "SPRING_INVITE"},
		{meet: "  Big-Ten   Championships (Day 1) ", date: "2025-02-26", expected: "BIGTEN_CHAMPIONSHIPS_DAY_1_20250226"},
		{meet: "Pitt Invitational", date: "", expected: "PITT_INVITATIONAL"},
		{meet: "A & B", date: "", expected: "A_B"},
		{meet: "Spring\vInvite", date: "", expected: "SPRING_INVITE"},
		{meet: "Spring\u0085Invite", date: "", expected: "SPRING_INVITE"},
		{meet: "Spring\u2028Invite", date: "", expected: "SPRING_INVITE"},
		{meet: "\u00a0Spring\u00a0\tInvite\x1f", date: "", expected: "SPRING_INVITE"},
		{meet: "Snake_Case Meet", date: "", expected: "SNAKECASE_MEET"},
	}

	for _, test := range testCases {
		require.Equal(t, test.expected, CompetitionID(test.meet, test.date), test.meet)
	}
}

func TestResultKey(t *testing.T) {
	testCases := []struct {
		diverID     int
		competition string
		event       string
		round       string
		expected    string
	}{
		{
			diverID:     101,
			competition: "SPRING_INVITE_20240315",
			event:       "1m Springboard",
			round:       "Finals",
			expected:    "101_SPRING_INVITE_20240315_1M_SPRINGBOARD_FINALS",
		},
		{
			diverID:     7,
			competition: "DUAL_MEET",
			event:       "3m Springboard",
			round:       "",
			expected:    "7_DUAL_MEET_3M_SPRINGBOARD",
		},
		{
			diverID:     7,
			competition: "DUAL_MEET",
			event:       " Platform  (Prelims) ",
			round:       "Semi-Finals",
			expected:    "7_DUAL_MEET_PLATFORM_PRELIMS_SEMIFINALS",
		},
	}

	for _, test := range testCases {
		require.Equal(t, test.expected, ResultKey(test.diverID, test.competition, test.event, test.round))
	}
}

func TestCompetitionEventKey(t *testing.T) {
	key := CompetitionEventKey("SPRING_INVITE_20240315", "1m Springboard", "Finals")
	require.Equal(t, "SPRING_INVITE_20240315#1M_SPRINGBOARD#FINALS", key)
	require.Equal(t, "101#SPRING_INVITE_20240315#1M_SPRINGBOARD#FINALS", ResultIdentity(101, key))

	require.Equal(t, "X#EVENT", CompetitionEventKey("X", "event", ""))
}

func TestDeriverMatchesPureFunctions(t *testing.T) {
	d := NewDeriver(2)

	inputs := []struct {
		meet, date, event, round string
	}{
		{"Spring Invite", "2024-03-15", "1m Springboard", "Finals"},
		{"Spring Invite", "2024-03-15", "3m Springboard", ""},
		{"Winter Classic", "", "Platform", "Prelims"},
		{"Spring Invite", "2024-03-15", "1m Springboard", "Finals"},
	}

	// run twice so the second pass goes through both hits and evictions
	for range 2 {
		for _, in := range inputs {
			compID := d.CompetitionID(in.meet, in.date)
			require.Equal(t, CompetitionID(in.meet, in.date), compID)
			require.Equal(
				t,
				ResultKey(42, compID, in.event, in.round),
				d.ResultKey(42, compID, in.event, in.round),
			)
		}
	}
}

func TestSameMeetCollapses(t *testing.T) {
	a := CompetitionID("Spring Invite", "2024-03-15")
	b := CompetitionID("Spring  Invite!", "2024-03-15")
	require.Equal(t, a, b)
	require.NotEqual(t, a, CompetitionID("Spring Invite", "2024-03-16"))
}
