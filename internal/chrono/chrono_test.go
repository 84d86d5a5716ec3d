package chrono

import (
	"testing"
	"time"

	"diveanalytics-backend/internal/telemetry"

	"github.com/stretchr/testify/require"
)

func TestTimestamp(t *testing.T) {
	at := time.Date(2024, time.March, 15, 9, 30, 0, 0, time.FixedZone("PDT", -7*60*60))
	require.Equal(t, "2024-03-15T16:30:00Z", Timestamp(FixedTime{At: at}))
}

func TestStandardTimeIsUTC(t *testing.T) {
	require.Equal(t, time.UTC, NewStandardTime().Now().Location())
}

func TestCronRejectsBadSpec(t *testing.T) {
	cron := NewStandardCron(telemetry.SlogAPI{})
	defer cron.Stop()

	require.Error(t, cron.Cron("not a cron spec", func() {}))
	require.NoError(t, cron.Cron("0 */6 * * *", func() {}))
}
