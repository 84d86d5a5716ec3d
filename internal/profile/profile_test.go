package profile

import (
	"context"
	"testing"
	"time"

	"diveanalytics-backend/internal/chrono"
	"diveanalytics-backend/internal/divemeets"
	"diveanalytics-backend/internal/importer"
	"diveanalytics-backend/internal/keys"
	"diveanalytics-backend/internal/store"
	"diveanalytics-backend/internal/telemetry"

	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, divers []divemeets.Diver) Reader {
	t.Helper()
	s, err := store.OpenBadger("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	deriver := keys.NewDeriver(16)
	clock := chrono.FixedTime{At: time.Date(2024, time.March, 16, 0, 0, 0, 0, time.UTC)}
	importer.NewEngine(s, deriver, clock, telemetry.SetupForTesting(t)).Store(context.Background(), divers)
	return NewReader(s, deriver)
}

func dives(rounds ...string) []divemeets.Dive {
	out := make([]divemeets.Dive, len(rounds))
	for i, round := range rounds {
		out[i] = divemeets.Dive{Round: round, Code: "10" + round + "B"}
	}
	return out
}

func TestDiverRoundTrip(t *testing.T) {
	age := 20
	reader := seed(t, []divemeets.Diver{
		{
			ID:      101,
			Profile: divemeets.Profile{Name: "Jane Doe", Age: &age},
			Results: []divemeets.Result{
				{
					HistoryRow: divemeets.HistoryRow{MeetName: "Spring Invite", EventName: "1m Springboard", RoundType: "Finals"},
					StartDate:  "2024-03-15",
					EndDate:    "2024-03-15",
					Dives:      dives("2", "10", "1"),
				},
				{
					HistoryRow: divemeets.HistoryRow{MeetName: "Winter Classic", EventName: "Platform"},
				},
			},
			State: divemeets.StateDone,
		},
	})

	diver, err := reader.Diver(context.Background(), 101)
	require.NoError(t, err)
	require.Equal(t, "Jane Doe", diver.Name)
	require.Len(t, diver.Results, 2)

	byMeet := map[string]Result{}
	for _, result := range diver.Results {
		byMeet[result.MeetName] = result
	}

	spring := byMeet["Spring Invite"]
	require.Equal(t, "SPRING_INVITE_20240315", spring.CompetitionID)
	require.Len(t, spring.Dives, 3)
	require.Equal(t, []string{"1", "2", "10"}, []string{
		spring.Dives[0].DiveRound,
		spring.Dives[1].DiveRound,
		spring.Dives[2].DiveRound,
	})

	winter := byMeet["Winter Classic"]
	require.NotNil(t, winter.Dives)
	require.Empty(t, winter.Dives)
}

func TestDiverNotFound(t *testing.T) {
	reader := seed(t, nil)
	_, err := reader.Diver(context.Background(), 404)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDiversSortedById(t *testing.T) {
	reader := seed(t, []divemeets.Diver{
		{ID: 102, Profile: divemeets.Profile{Name: "John Roe"}, State: divemeets.StateDone},
		{ID: 11, Profile: divemeets.Profile{Name: "Early Bird"}, State: divemeets.StateDone},
		{ID: 101, Profile: divemeets.Profile{Name: "Jane Doe"}, State: divemeets.StateDone},
		{ID: 5, Error: "boom", State: divemeets.StateFailed},
	})

	divers, err := reader.Divers(context.Background())
	require.NoError(t, err)
	require.Len(t, divers, 3)
	require.Equal(t, []int{11, 101, 102}, []int{divers[0].DiverID, divers[1].DiverID, divers[2].DiverID})
}

func TestCompareRounds(t *testing.T) {
	require.Negative(t, compareRounds("2", "10"))
	require.Positive(t, compareRounds("Totals", "3"))
	require.Negative(t, compareRounds("1", "x"))
	require.Zero(t, compareRounds("a", "a"))
}
