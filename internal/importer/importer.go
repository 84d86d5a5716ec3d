package importer

import (
	"context"
	"encoding/json"
	"fmt"

	"diveanalytics-backend/internal/chrono"
	"diveanalytics-backend/internal/divemeets"
	"diveanalytics-backend/internal/keys"
	"diveanalytics-backend/internal/records"
	"diveanalytics-backend/internal/store"
	"diveanalytics-backend/internal/telemetry"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("diveanalytics/importer")

const (
	report_engine_put          = "engine.put"
	report_engine_skip_diver   = "engine.skip-diver"
	report_engine_stored_items = "engine.stored-items"
)

// Counts are the number of items written per collection, Errors counts
// skipped divers and failed writes.
type Counts struct {
	Divers       int `json:"divers"`
	Competitions int `json:"competitions"`
	Results      int `json:"results"`
	Dives        int `json:"dives"`
	Errors       int `json:"errors"`
}

// StorageError is a failed write of a single item.
type StorageError struct {
	Collection store.Collection
	Key        store.Key
	Err        error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("put %s %s: %s", e.Collection, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Engine normalizes scraped divers into records and upserts them. Every
// write replaces the whole item, so storing the same scrape twice leaves
// the store unchanged apart from timestamps.
type Engine struct {
	store store.Store
	keys  *keys.Deriver
	clock chrono.TimeAPI
	tel   telemetry.API
}

func NewEngine(s store.Store, deriver *keys.Deriver, clock chrono.TimeAPI, tel telemetry.API) *Engine {
	return &Engine{
		store: s,
		keys:  deriver,
		clock: clock,
		tel:   telemetry.NewScopedAPI("importer", tel),
	}
}

// run holds the state of a single Store call.
type run struct {
	*Engine
	ctx    context.Context
	now    string
	seen   map[string]struct{}
	counts Counts
}

// Store writes every successfully scraped diver. It never stops early, a
// failed write is reported, counted and skipped.
func (e *Engine) Store(ctx context.Context, divers []divemeets.Diver) Counts {
	ctx, span := tracer.Start(ctx, "Engine.Store")
	defer span.End()

	r := &run{
		Engine: e,
		ctx:    ctx,
		now:    chrono.Timestamp(e.clock),
		seen:   map[string]struct{}{},
	}
	for _, diver := range divers {
		if diver.Failed() {
			r.tel.ReportWarning(report_engine_skip_diver, diver.ID, diver.Error)
			r.counts.Errors++
			continue
		}
		r.storeDiver(diver)
	}

	span.SetAttributes(
		attribute.Int("divers", r.counts.Divers),
		attribute.Int("competitions", r.counts.Competitions),
		attribute.Int("results", r.counts.Results),
		attribute.Int("dives", r.counts.Dives),
		attribute.Int("errors", r.counts.Errors),
	)
	r.tel.ReportCount(report_engine_stored_items, int64(r.counts.Divers+r.counts.Competitions+r.counts.Results+r.counts.Dives))
	return r.counts
}

func (r *run) put(collection store.Collection, key store.Key, item any) bool {
	value, err := json.Marshal(item)
	if err == nil {
		err = r.store.Put(r.ctx, collection, key, value)
	}
	if err != nil {
		r.tel.ReportBroken(report_engine_put, &StorageError{
			Collection: collection,
			Key:        key,
			Err:        err,
		})
		r.counts.Errors++
		return false
	}
	return true
}

func (r *run) storeDiver(diver divemeets.Diver) {
	item := records.Diver{
		DiverID:     diver.ID,
		Name:        diver.Name,
		CityState:   diver.CityState,
		Country:     diver.Country,
		Gender:      diver.Gender,
		Age:         records.OptionalInt(diver.Age),
		FinaAge:     records.OptionalInt(diver.FinaAge),
		HSGradYear:  records.OptionalInt(diver.HSGradYear),
		LastUpdated: r.now,
	}
	if r.put(store.Divers, store.Key{Partition: keys.DiverPartition(diver.ID)}, item) {
		r.counts.Divers++
	}

	for _, result := range diver.Results {
		r.storeResult(diver.ID, result)
	}
}

func (r *run) storeResult(diverID int, result divemeets.Result) {
	competitionID := r.keys.CompetitionID(result.MeetName, result.StartDate)

	if _, ok := r.seen[competitionID]; !ok {
		competition := records.Competition{
			CompetitionID: competitionID,
			MeetName:      result.MeetName,
			StartDate:     records.OptionalString(result.StartDate),
			EndDate:       records.OptionalString(result.EndDate),
			LastUpdated:   r.now,
		}
		if r.put(store.Competitions, store.Key{Partition: competitionID}, competition) {
			r.counts.Competitions++
			r.seen[competitionID] = struct{}{}
		}
	}

	eventKey := r.keys.CompetitionEventKey(competitionID, result.EventName, result.RoundType)
	item := records.Result{
		DiverID:             diverID,
		CompetitionEventKey: eventKey,
		CompetitionID:       competitionID,
		MeetName:            result.MeetName,
		EventName:           result.EventName,
		RoundType:           result.RoundType,
		TotalScore:          result.TotalScore,
		DetailHref:          records.OptionalString(result.DetailHref),
		StartDate:           records.OptionalString(result.StartDate),
		EndDate:             records.OptionalString(result.EndDate),
		LastUpdated:         r.now,
	}
	key := store.Key{Partition: keys.DiverPartition(diverID), Sort: eventKey}
	if r.put(store.Results, key, item) {
		r.counts.Results++
	}

	if len(result.Dives) == 0 {
		return
	}
	resultKey := r.keys.ResultKey(diverID, competitionID, result.EventName, result.RoundType)
	for _, dive := range result.Dives {
		item := records.Dive{
			ResultKey:   resultKey,
			DiveRound:   dive.Round,
			Code:        dive.Code,
			Description: dive.Description,
			Height:      dive.Height,
			Difficulty:  dive.Difficulty,
			Scores:      dive.Scores,
			NetTotal:    dive.NetTotal,
			Award:       dive.Award,
			RoundPlace:  records.OptionalInt(dive.RoundPlace),
			LastUpdated: r.now,
		}
		if item.Scores == nil {
			item.Scores = []*decimal.Decimal{}
		}
		if r.put(store.Dives, store.Key{Partition: resultKey, Sort: dive.Round}, item) {
			r.counts.Dives++
		}
	}
}
