package importer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"diveanalytics-backend/internal/chrono"
	"diveanalytics-backend/internal/config"
	"diveanalytics-backend/internal/divemeets"
	"diveanalytics-backend/internal/divemeets/divemeetstest"
	"diveanalytics-backend/internal/keys"
	"diveanalytics-backend/internal/records"
	"diveanalytics-backend/internal/store"
	"diveanalytics-backend/internal/telemetry"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testClock = chrono.FixedTime{At: time.Date(2024, time.March, 16, 12, 0, 0, 0, time.UTC)}

func scrape(t *testing.T, tel telemetry.API, opts ...divemeetstest.Option) []divemeets.Diver {
	t.Helper()
	site := divemeetstest.NewSite(t, opts...)
	cfg := config.Default()
	cfg.Site.BaseURL = site.BaseURL()
	client, err := divemeets.NewClient(cfg.Site, tel, nil)
	require.NoError(t, err)
	divers, err := divemeets.NewScraper(client, cfg.Pool, tel).Run(context.Background(), divemeets.Options{})
	require.NoError(t, err)
	return divers
}

func memoryStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func scanCounts(t *testing.T, s store.Store) map[store.Collection]int {
	t.Helper()
	out := map[store.Collection]int{}
	for _, collection := range store.Collections {
		items, err := s.Scan(context.Background(), collection)
		require.NoError(t, err)
		out[collection] = len(items)
	}
	return out
}

func TestStoreScenario(t *testing.T) {
	tel := telemetry.SetupForTesting(t)
	divers := scrape(t, tel)
	s := memoryStore(t)
	engine := NewEngine(s, keys.NewDeriver(0), testClock, tel)

	ctx := context.Background()
	counts := engine.Store(ctx, divers)
	require.Equal(t, Counts{Divers: 2, Competitions: 1, Results: 1, Dives: 3}, counts)

	raw, err := s.Get(ctx, store.Competitions, store.Key{Partition: "SPRING_INVITE_20240315"})
	require.NoError(t, err)
	var competition records.Competition
	require.NoError(t, json.Unmarshal(raw, &competition))
	require.Equal(t, "Spring Invite", competition.MeetName)
	require.Equal(t, "2024-03-15", *competition.StartDate)
	require.Equal(t, "2024-03-16T12:00:00Z", competition.LastUpdated)

	results, err := s.Query(ctx, store.Results, "101")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t,
		"101#SPRING_INVITE_20240315#1M_SPRINGBOARD#FINALS",
		keys.ResultIdentity(101, results[0].Key.Sort),
	)
	var result records.Result
	require.NoError(t, json.Unmarshal(results[0].Value, &result))
	require.Equal(t, "Finals", result.RoundType)
	require.True(t, decimal.RequireFromString("456.75").Equal(*result.TotalScore))

	dives, err := s.Query(ctx, store.Dives, "101_SPRING_INVITE_20240315_1M_SPRINGBOARD_FINALS")
	require.NoError(t, err)
	require.Len(t, dives, 3)

	var dive records.Dive
	require.NoError(t, json.Unmarshal(dives[0].Value, &dive))
	require.Equal(t, "1", dive.DiveRound)
	require.Equal(t, "103B", dive.Code)
	require.Len(t, dive.Scores, 9)
	require.Nil(t, dive.Scores[8])

	raw, err = s.Get(ctx, store.Divers, store.Key{Partition: "102"})
	require.NoError(t, err)
	require.JSONEq(t, `{
		"diver_id": 102,
		"name": "John Roe",
		"city_state": "Erie, PA",
		"country": "USA",
		"gender": "M",
		"fina_age": 19,
		"last_updated": "2024-03-16T12:00:00Z"
	}`, string(raw))
}

func TestStoreIsIdempotent(t *testing.T) {
	tel := telemetry.SetupForTesting(t)
	s := memoryStore(t)
	deriver := keys.NewDeriver(0)

	first := NewEngine(s, deriver, testClock, tel).Store(context.Background(), scrape(t, tel))
	after := scanCounts(t, s)

	second := NewEngine(s, deriver, testClock, tel).Store(context.Background(), scrape(t, tel))
	require.Equal(t, first, second)
	require.Equal(t, after, scanCounts(t, s))
	require.Equal(t, map[store.Collection]int{
		store.Divers:       2,
		store.Competitions: 1,
		store.Results:      1,
		store.Dives:        3,
	}, after)
}

func TestStoreSkipsFailedDivers(t *testing.T) {
	tel := telemetry.SetupForTesting(t)
	divers := scrape(t, tel, divemeetstest.WithFailingProfiles(102))
	s := memoryStore(t)

	counts := NewEngine(s, keys.NewDeriver(0), testClock, tel).Store(context.Background(), divers)
	require.Equal(t, Counts{Divers: 1, Competitions: 1, Results: 1, Dives: 3, Errors: 1}, counts)

	_, err := s.Get(context.Background(), store.Divers, store.Key{Partition: "102"})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCompetitionWrittenOncePerRun(t *testing.T) {
	tel := telemetry.SetupForTesting(t)
	s := memoryStore(t)
	result := func(event string) divemeets.Result {
		return divemeets.Result{
			HistoryRow: divemeets.HistoryRow{MeetName: "Spring Invite", EventName: event},
			StartDate:  "2024-03-15",
		}
	}
	divers := []divemeets.Diver{
		{ID: 1, Results: []divemeets.Result{result("1m Springboard"), result("3m Springboard")}, State: divemeets.StateDone},
		{ID: 2, Results: []divemeets.Result{result("1m Springboard")}, State: divemeets.StateDone},
	}

	counts := NewEngine(s, keys.NewDeriver(0), testClock, tel).Store(context.Background(), divers)
	require.Equal(t, Counts{Divers: 2, Competitions: 1, Results: 3}, counts)
}

// failingStore rejects every write to one collection.
type failingStore struct {
	store.Store
	collection store.Collection
}

func (f failingStore) Put(ctx context.Context, collection store.Collection, key store.Key, value []byte) error {
	if collection == f.collection {
		return errors.New("write capacity exceeded")
	}
	return f.Store.Put(ctx, collection, key, value)
}

func TestStoreContinuesAfterStorageError(t *testing.T) {
	tel := telemetry.SetupForTesting(t)
	divers := scrape(t, tel)
	s := failingStore{Store: memoryStore(t), collection: store.Dives}

	counts := NewEngine(s, keys.NewDeriver(0), testClock, tel).Store(context.Background(), divers)
	require.Equal(t, Counts{Divers: 2, Competitions: 1, Results: 1, Dives: 0, Errors: 3}, counts)
	require.Len(t, tel.Broken(), 3)
}

func TestCompetitionRetriedAfterFailedWrite(t *testing.T) {
	tel := telemetry.SetupForTesting(t)
	s := &flakyStore{Store: memoryStore(t), failures: 1}
	result := divemeets.Result{HistoryRow: divemeets.HistoryRow{MeetName: "Spring Invite", EventName: "1m"}}
	divers := []divemeets.Diver{
		{ID: 1, Results: []divemeets.Result{result}, State: divemeets.StateDone},
		{ID: 2, Results: []divemeets.Result{result}, State: divemeets.StateDone},
	}

	counts := NewEngine(s, keys.NewDeriver(0), testClock, tel).Store(context.Background(), divers)
	require.Equal(t, Counts{Divers: 2, Competitions: 1, Results: 2, Errors: 1}, counts)
}

// flakyStore fails the first n competition writes.
type flakyStore struct {
	store.Store
	failures int
}

func (f *flakyStore) Put(ctx context.Context, collection store.Collection, key store.Key, value []byte) error {
	if collection == store.Competitions && f.failures > 0 {
		f.failures--
		return errors.New("throttled")
	}
	return f.Store.Put(ctx, collection, key, value)
}

func TestStorageErrorUnwraps(t *testing.T) {
	inner := errors.New("disk full")
	err := error(&StorageError{Collection: store.Dives, Key: store.Key{Partition: "a", Sort: "1"}, Err: inner})
	require.ErrorIs(t, err, inner)
	require.Equal(t, "put dives a#1: disk full", err.Error())
}
