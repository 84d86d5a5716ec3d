package divemeets

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

// ParseError is returned when a page could not be read as an html document
// at all. Pages that parse but are missing expected structure never fail,
// the affected fields are left empty instead.
type ParseError struct {
	Page string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s page: %s", e.Page, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func readDocument(page string, r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &ParseError{Page: page, Err: err}
	}
	return doc, nil
}

func parseDecimal(text string) *decimal.Decimal {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	value, err := decimal.NewFromString(text)
	if err != nil {
		return nil
	}
	return &value
}

func parseInt(text string) *int {
	value, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return nil
	}
	return &value
}

var leadingNumberRegex = regexp.MustCompile(`^[\d.]+`)

// parseLeadingDecimal reads the run of digits and dots at the start of text.
func parseLeadingDecimal(text string) *decimal.Decimal {
	return parseDecimal(leadingNumberRegex.FindString(text))
}
