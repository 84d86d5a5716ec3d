// Package keys derives the identifiers that join divers, competitions, results
// and dives together in the store.
//
// The importer writes records under these keys and the profile reader looks them
// up again with the same functions, so any change here must ship to both at once.
package keys

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// separator matches every rune unicode treats as whitespace, not only the
// ascii set of \s, so \v, U+0085 and line separators split words.
const separator = `\s\v\x{1c}-\x{1f}\x{85}\p{Z}`

var (
	nonAlnumRegex   = regexp.MustCompile(`[^a-zA-Z0-9` + separator + `]`)
	whitespaceRegex = regexp.MustCompile(`[` + separator + `]+`)
)

// Clean strips everything except ascii letters, digits and whitespace, then
// collapses whitespace runs into underscores and uppercases the result.
func Clean(text string) string {
	text = nonAlnumRegex.ReplaceAllString(text, "")
	text = whitespaceRegex.ReplaceAllString(text, "_")
	// underscores were stripped above, so only leading and trailing whitespace
	// runs can leave one at the ends
	text = strings.Trim(text, "_")
	return strings.ToUpper(text)
}

// CompetitionID returns the competition slug for a meet. startDate is expected
// in YYYY-MM-DD form and may be empty.
func CompetitionID(meetName, startDate string) string {
	id := Clean(meetName)
	if startDate != "" {
		id += "_" + strings.ReplaceAll(startDate, "-", "")
	}
	return id
}

// ResultKey is the partition key of a result's dives.
func ResultKey(diverID int, competitionID, eventName, roundType string) string {
	key := fmt.Sprintf("%d_%s_%s", diverID, competitionID, Clean(eventName))
	if roundType != "" {
		key += "_" + Clean(roundType)
	}
	return key
}

// CompetitionEventKey is the sort key of a result within a diver's partition.
func CompetitionEventKey(competitionID, eventName, roundType string) string {
	key := competitionID + "#" + Clean(eventName)
	if roundType != "" {
		key += "#" + Clean(roundType)
	}
	return key
}

// ResultIdentity renders the full identity of a result as a single string.
func ResultIdentity(diverID int, competitionEventKey string) string {
	return strconv.Itoa(diverID) + "#" + competitionEventKey
}

// DiverPartition is the partition key under which a diver and its results live.
func DiverPartition(diverID int) string {
	return strconv.Itoa(diverID)
}
