// Package profile reads stored divers back together with their results and
// dives.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"diveanalytics-backend/internal/keys"
	"diveanalytics-backend/internal/records"
	"diveanalytics-backend/internal/store"
)

var ErrNotFound = errors.New("diver not found")

type Result struct {
	records.Result
	Dives []records.Dive `json:"dives"`
}

type Diver struct {
	records.Diver
	Results []Result `json:"results"`
}

// Reader joins results to their dives by deriving the result key with the
// same Deriver the importer writes with.
type Reader struct {
	store store.Store
	keys  *keys.Deriver
}

func NewReader(s store.Store, deriver *keys.Deriver) Reader {
	return Reader{store: s, keys: deriver}
}

func decode[T any](collection store.Collection, item store.Item) (T, error) {
	var out T
	err := json.Unmarshal(item.Value, &out)
	if err != nil {
		return out, fmt.Errorf("decode %s %s: %w", collection, item.Key, err)
	}
	return out, nil
}

// Diver returns the diver with all results, each with its dives ordered by
// round.
func (r Reader) Diver(ctx context.Context, diverID int) (Diver, error) {
	partition := keys.DiverPartition(diverID)
	raw, err := r.store.Get(ctx, store.Divers, store.Key{Partition: partition})
	if errors.Is(err, store.ErrNotFound) {
		return Diver{}, ErrNotFound
	}
	if err != nil {
		return Diver{}, err
	}
	diver, err := decode[records.Diver](store.Divers, store.Item{Key: store.Key{Partition: partition}, Value: raw})
	if err != nil {
		return Diver{}, err
	}

	items, err := r.store.Query(ctx, store.Results, partition)
	if err != nil {
		return Diver{}, err
	}
	out := Diver{Diver: diver, Results: make([]Result, 0, len(items))}
	for _, item := range items {
		result, err := decode[records.Result](store.Results, item)
		if err != nil {
			return Diver{}, err
		}
		dives, err := r.dives(ctx, diverID, result)
		if err != nil {
			return Diver{}, err
		}
		out.Results = append(out.Results, Result{Result: result, Dives: dives})
	}
	return out, nil
}

func (r Reader) dives(ctx context.Context, diverID int, result records.Result) ([]records.Dive, error) {
	resultKey := r.keys.ResultKey(diverID, result.CompetitionID, result.EventName, result.RoundType)
	items, err := r.store.Query(ctx, store.Dives, resultKey)
	if err != nil {
		return nil, err
	}
	dives := make([]records.Dive, 0, len(items))
	for _, item := range items {
		dive, err := decode[records.Dive](store.Dives, item)
		if err != nil {
			return nil, err
		}
		dives = append(dives, dive)
	}
	slices.SortStableFunc(dives, func(a, b records.Dive) int {
		return compareRounds(a.DiveRound, b.DiveRound)
	})
	return dives, nil
}

// compareRounds orders numeric rounds numerically and anything else after
// them by text.
func compareRounds(a, b string) int {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return na - nb
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return strings.Compare(a, b)
}

// Divers returns every stored diver ordered by id.
func (r Reader) Divers(ctx context.Context) ([]records.Diver, error) {
	items, err := r.store.Scan(ctx, store.Divers)
	if err != nil {
		return nil, err
	}
	out := make([]records.Diver, 0, len(items))
	for _, item := range items {
		diver, err := decode[records.Diver](store.Divers, item)
		if err != nil {
			return nil, err
		}
		out = append(out, diver)
	}
	slices.SortFunc(out, func(a, b records.Diver) int {
		return a.DiverID - b.DiverID
	})
	return out, nil
}
