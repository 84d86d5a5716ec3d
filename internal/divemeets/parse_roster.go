package divemeets

import (
	"context"
	"io"
	"regexp"
	"strconv"
	"strings"

	"diveanalytics-backend/lib/htmlutil"
)

var (
	profileHrefRegex   = regexp.MustCompile(`profile\.php\?number=\d+`)
	profileNumberRegex = regexp.MustCompile(`number=(\d+)`)
)

// ParseRoster returns the individual divers linked from a team page. Team
// aggregate rows (names containing "TEAM") are dropped and repeated links to
// the same diver are only returned once.
func ParseRoster(ctx context.Context, r io.Reader) ([]RosterEntry, error) {
	doc, err := readDocument("roster", r)
	if err != nil {
		return nil, err
	}

	seen := map[int]struct{}{}
	var out []RosterEntry
	for _, anchor := range htmlutil.GetAnchors(ctx, doc.Find("a[href]")) {
		if !profileHrefRegex.MatchString(anchor.Href) {
			continue
		}
		groups := profileNumberRegex.FindStringSubmatch(anchor.Href)
		if len(groups) < 2 {
			continue
		}
		id, err := strconv.Atoi(groups[1])
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToUpper(anchor.Name), "TEAM") {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		out = append(out, RosterEntry{
			ID:          id,
			Name:        anchor.Name,
			ProfileHref: anchor.Href,
		})
	}
	return out, nil
}
