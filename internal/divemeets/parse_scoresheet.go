package divemeets

import (
	"io"
	"regexp"
	"strings"
	"time"

	"diveanalytics-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

const (
	sheetDateLayout  = "Jan 2, 2006"
	recordDateLayout = "2006-01-02"

	judgeScoreStart = 5
	judgeScoreEnd   = 14
	netTotalCell    = 14
	awardCell       = 15
	roundPlaceCell  = 16
)

var (
	boldDateRegex  = regexp.MustCompile(`Date:\s*\*\*([^*]+)\*\*`)
	plainDateRegex = regexp.MustCompile(`Date:\s*([A-Za-z]+ \d{1,2}, \d{4}(?: to [A-Za-z]+ \d{1,2}, \d{4})?)`)
)

// parseSheetDates returns the meet start and end date as YYYY-MM-DD, a
// single date is both. Unreadable dates yield empty strings.
func parseSheetDates(text string) (string, string) {
	groups := boldDateRegex.FindStringSubmatch(text)
	if len(groups) < 2 {
		groups = plainDateRegex.FindStringSubmatch(text)
	}
	if len(groups) < 2 {
		return "", ""
	}

	dateText := strings.TrimSpace(groups[1])
	startText, endText, isRange := strings.Cut(dateText, " to ")
	if !isRange {
		endText = startText
	}
	start, err := time.Parse(sheetDateLayout, strings.TrimSpace(startText))
	if err != nil {
		return "", ""
	}
	end, err := time.Parse(sheetDateLayout, strings.TrimSpace(endText))
	if err != nil {
		return "", ""
	}
	return start.Format(recordDateLayout), end.Format(recordDateLayout)
}

// ParseScoreSheet reads the meet dates and per dive rows of a score sheet
// page. The first (header) and last (totals) rows of the score table are
// skipped, as are rows with fewer than 7 cells.
func ParseScoreSheet(r io.Reader) (ScoreSheet, error) {
	doc, err := readDocument("score sheet", r)
	if err != nil {
		return ScoreSheet{}, err
	}

	sheet := ScoreSheet{Dives: []Dive{}}
	sheet.StartDate, sheet.EndDate = parseSheetDates(doc.Text())

	table := doc.Find(`table[border="1"][width="650"]`).First()
	rows := table.Find("tr")
	if rows.Length() < 3 {
		return sheet, nil
	}
	rows.Slice(1, rows.Length()-1).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 7 {
			return
		}
		sheet.Dives = append(sheet.Dives, parseDiveRow(cells))
	})
	return sheet, nil
}

func cellText(cells *goquery.Selection, i int) (string, bool) {
	if i >= cells.Length() {
		return "", false
	}
	return strings.TrimSpace(cells.Eq(i).Text()), true
}

func parseDiveRow(cells *goquery.Selection) Dive {
	dive := Dive{
		Round:       strings.TrimSpace(cells.Eq(0).Text()),
		Code:        strings.TrimSpace(cells.Eq(1).Text()),
		Description: strings.TrimSpace(cells.Eq(2).Text()),
		Height:      strings.TrimSpace(cells.Eq(3).Text()),
		Scores:      []*decimal.Decimal{},
	}

	// nested annotations inside the difficulty cell are not part of the value
	if raw, ok := htmlutil.FirstText(cells.Eq(4)); ok {
		dive.Difficulty = parseDecimal(raw)
	}

	for i := judgeScoreStart; i < judgeScoreEnd; i++ {
		text, ok := cellText(cells, i)
		if !ok {
			break
		}
		dive.Scores = append(dive.Scores, parseLeadingDecimal(text))
	}

	if text, ok := cellText(cells, netTotalCell); ok {
		dive.NetTotal = parseDecimal(text)
	}
	if text, ok := cellText(cells, awardCell); ok {
		dive.Award = parseDecimal(text)
	}
	if text, ok := cellText(cells, roundPlaceCell); ok {
		dive.RoundPlace = parseInt(text)
	}
	return dive
}
