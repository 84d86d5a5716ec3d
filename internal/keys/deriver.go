package keys

import (
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCacheSize = 4096

// Deriver memoizes key derivation. The same meet and event names recur across
// every diver on a team, so most lookups in a run are hits.
type Deriver struct {
	competitions *lru.Cache[string, string]
	results      *lru.Cache[string, string]
}

func NewDeriver(size int) *Deriver {
	if size <= 0 {
		size = defaultCacheSize
	}
	// lru.New only fails on a non-positive size.
	competitions, _ := lru.New[string, string](size)
	results, _ := lru.New[string, string](size)
	return &Deriver{
		competitions: competitions,
		results:      results,
	}
}

func (d *Deriver) CompetitionID(meetName, startDate string) string {
	cacheKey := meetName + "\x00" + startDate
	if id, ok := d.competitions.Get(cacheKey); ok {
		return id
	}
	id := CompetitionID(meetName, startDate)
	d.competitions.Add(cacheKey, id)
	return id
}

func (d *Deriver) ResultKey(diverID int, competitionID, eventName, roundType string) string {
	cacheKey := strconv.Itoa(diverID) + "\x00" + competitionID + "\x00" + eventName + "\x00" + roundType
	if key, ok := d.results.Get(cacheKey); ok {
		return key
	}
	key := ResultKey(diverID, competitionID, eventName, roundType)
	d.results.Add(cacheKey, key)
	return key
}

func (d *Deriver) CompetitionEventKey(competitionID, eventName, roundType string) string {
	return CompetitionEventKey(competitionID, eventName, roundType)
}
