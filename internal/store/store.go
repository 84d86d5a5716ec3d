// Package store persists records as JSON documents addressed by a
// partition key and an optional sort key.
package store

import (
	"context"
	"errors"
	"fmt"
)

// Collection names one of the record collections.
type Collection string

const (
	// Divers is keyed by diver id.
	Divers Collection = "divers"
	// Competitions is keyed by competition id.
	Competitions Collection = "competitions"
	// Results is keyed by diver id and competition event key.
	Results Collection = "results"
	// Dives is keyed by result key and dive round.
	Dives Collection = "dives"
)

var Collections = []Collection{Divers, Competitions, Results, Dives}

// ErrNotFound is returned by Get when no item exists under the key.
var ErrNotFound = errors.New("item not found")

// Key addresses one item. Sort is empty for collections without a sort key.
type Key struct {
	Partition string
	Sort      string
}

func (k Key) String() string {
	if k.Sort == "" {
		return k.Partition
	}
	return fmt.Sprintf("%s#%s", k.Partition, k.Sort)
}

type Item struct {
	Key   Key
	Value []byte
}

// Store is a key value store with query by partition and full scans.
//
// note: fault injection point
type Store interface {
	// Put writes value under key, replacing any existing item.
	Put(ctx context.Context, collection Collection, key Key, value []byte) error
	// Get returns ErrNotFound when there is no item under key.
	Get(ctx context.Context, collection Collection, key Key) ([]byte, error)
	// Query returns every item of a partition ordered by sort key.
	Query(ctx context.Context, collection Collection, partition string) ([]Item, error)
	// Scan returns every item of a collection ordered by partition then
	// sort key.
	Scan(ctx context.Context, collection Collection) ([]Item, error)
	Close() error
}
