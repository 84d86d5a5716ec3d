package divemeets

import (
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const defaultDiveCount = 6

var (
	diveCountRegex      = regexp.MustCompile(`\((\d+)\s*Dives?\)`)
	diveCountStripRegex = regexp.MustCompile(`\s*\(\d+\s*Dives?\)`)
	scoreRegex          = regexp.MustCompile(`[\d.]+`)
)

// ParseHistory walks the result history table of a diver page. Meet header
// rows set the meet that following event rows belong to, rows without an
// event name or a preceding meet are skipped.
func ParseHistory(r io.Reader) ([]HistoryRow, error) {
	doc, err := readDocument("history", r)
	if err != nil {
		return nil, err
	}

	table := doc.Find(`table[width="100%"]`).First()
	if table.Length() == 0 {
		return nil, nil
	}

	var out []HistoryRow
	currentMeet := ""
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() == 0 {
			return
		}

		first := cells.First()
		if cells.Length() == 1 || (cells.Length() >= 3 && first.Find("strong").Length() > 0) {
			strong := first.Find("strong").First()
			if strong.Length() > 0 {
				currentMeet = strings.TrimSpace(strong.Text())
				return
			}
		}

		if cells.Length() < 3 || currentMeet == "" {
			return
		}
		parsed, ok := parseHistoryRow(cells)
		if !ok {
			return
		}
		parsed.MeetName = currentMeet
		out = append(out, parsed)
	})
	return out, nil
}

func parseHistoryRow(cells *goquery.Selection) (HistoryRow, bool) {
	eventText := strings.TrimSpace(cells.Eq(0).Text())
	if eventText == "" || strings.Contains(eventText, "History") {
		return HistoryRow{}, false
	}

	row := HistoryRow{DiveCount: defaultDiveCount}
	eventName := eventText
	if event, round, found := strings.Cut(eventText, " - "); found {
		eventName = strings.TrimSpace(event)
		round = strings.TrimSpace(round)
		row.RoundType = strings.NewReplacer("(", "", ")", "").Replace(round)
	}

	if groups := diveCountRegex.FindStringSubmatch(eventName); len(groups) >= 2 {
		if n, err := strconv.Atoi(groups[1]); err == nil {
			row.DiveCount = n
		}
	}
	row.EventName = strings.TrimSpace(diveCountStripRegex.ReplaceAllString(eventName, ""))
	if row.EventName == "" {
		return HistoryRow{}, false
	}

	scoreCell := cells.Eq(2)
	scoreText := scoreCell.Text()
	if link := scoreCell.Find("a").First(); link.Length() > 0 {
		row.DetailHref = link.AttrOr("href", "")
		scoreText = link.Text()
	}
	row.TotalScore = parseDecimal(scoreRegex.FindString(strings.TrimSpace(scoreText)))

	return row, true
}
