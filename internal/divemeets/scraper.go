package divemeets

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"

	"diveanalytics-backend/internal/config"
	"diveanalytics-backend/internal/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("diveanalytics/divemeets")

const (
	report_scraper_fetch_roster      = "scraper.fetch-roster"
	report_scraper_process_diver     = "scraper.process-diver"
	report_scraper_fetch_score_sheet = "scraper.fetch-score-sheet"
	report_scraper_divers_completed  = "scraper.divers-completed"
)

// ErrEmptyRoster is returned by Run when the roster page lists no divers.
var ErrEmptyRoster = errors.New("no divers found in team page")

const (
	resultsExtPage = "divesheetresultsext.php"
	finalSheetPage = "divesheetfinal.php"
)

// Options override the configured pool sizes for a single run, zero keeps
// the configured value.
type Options struct {
	DiverWorkers  int
	DetailWorkers int
}

type Scraper struct {
	client *Client
	pool   config.Pool
	tel    telemetry.API
}

func NewScraper(client *Client, pool config.Pool, tel telemetry.API) *Scraper {
	return &Scraper{
		client: client,
		pool:   pool,
		tel:    telemetry.NewScopedAPI("divemeets", tel),
	}
}

// Run scrapes every diver on the roster and returns them ordered by id.
// Only a roster that cannot be fetched or lists nobody fails the run, every
// other failure is contained in the affected diver or result.
func (s *Scraper) Run(ctx context.Context, opts Options) ([]Diver, error) {
	ctx, span := tracer.Start(ctx, "Scraper.Run")
	defer span.End()

	diverWorkers := opts.DiverWorkers
	if diverWorkers <= 0 {
		diverWorkers = s.pool.Divers
	}
	detailWorkers := opts.DetailWorkers
	if detailWorkers <= 0 {
		detailWorkers = s.pool.Details
	}
	diverWorkers = max(diverWorkers, 1)
	detailWorkers = max(detailWorkers, 1)

	roster, err := s.fetchRoster(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "roster unavailable")
		return nil, err
	}
	span.SetAttributes(attribute.Int("divers", len(roster)))
	s.tel.ReportDebug("processing divers", len(roster), diverWorkers)

	divers := make([]Diver, len(roster))
	var completed atomic.Int64

	var group errgroup.Group
	group.SetLimit(diverWorkers)
	for i, entry := range roster {
		group.Go(func() error {
			divers[i] = s.processDiver(ctx, entry, detailWorkers)
			n := completed.Add(1)
			s.tel.ReportCount(report_scraper_divers_completed, n)
			s.tel.ReportDebug("progress", fmt.Sprintf("%d/%d", n, len(roster)))
			return nil
		})
	}
	// workers never return an error
	_ = group.Wait()

	slices.SortFunc(divers, func(a, b Diver) int {
		return a.ID - b.ID
	})
	return divers, nil
}

func (s *Scraper) fetchRoster(ctx context.Context) ([]RosterEntry, error) {
	session, err := s.client.NewSession()
	if err != nil {
		return nil, err
	}
	body, err := session.Fetch(ctx, s.client.site.RosterPath, "")
	if err != nil {
		s.tel.ReportBroken(report_scraper_fetch_roster, err)
		return nil, fmt.Errorf("could not load team page: %w", err)
	}
	roster, err := ParseRoster(ctx, strings.NewReader(body))
	if err != nil {
		s.tel.ReportBroken(report_scraper_fetch_roster, err)
		return nil, err
	}
	if len(roster) == 0 {
		s.tel.ReportBroken(report_scraper_fetch_roster, ErrEmptyRoster)
		return nil, ErrEmptyRoster
	}
	return roster, nil
}

func failedDiver(entry RosterEntry, err error) Diver {
	return Diver{
		ID:      entry.ID,
		Profile: Profile{Name: entry.Name},
		Results: []Result{},
		Error:   err.Error(),
		State:   StateFailed,
	}
}

func (s *Scraper) processDiver(ctx context.Context, entry RosterEntry, detailWorkers int) Diver {
	ctx, span := tracer.Start(ctx, "Scraper.processDiver")
	defer span.End()
	span.SetAttributes(attribute.Int("diver_id", entry.ID))

	state := StatePending
	fail := func(err error) Diver {
		s.tel.ReportBroken(report_scraper_process_diver, entry.ID, state.String(), err)
		span.RecordError(err)
		span.SetStatus(codes.Error, state.String())
		return failedDiver(entry, err)
	}

	session, err := s.client.NewSession()
	if err != nil {
		return fail(err)
	}

	state = StateFetchingProfile
	profileBody, err := session.Fetch(ctx, entry.ProfileHref, "")
	if err != nil {
		return fail(err)
	}
	profile, err := ParseProfile(strings.NewReader(profileBody))
	if err != nil {
		return fail(err)
	}

	state = StateFetchingHistory
	historyBody := profileBody
	if s.client.site.HistoryPath != "" {
		historyBody, err = session.Fetch(ctx, fmt.Sprintf(s.client.site.HistoryPath, entry.ID), "")
		if err != nil {
			return fail(err)
		}
	}
	rows, err := ParseHistory(strings.NewReader(historyBody))
	if err != nil {
		return fail(err)
	}

	state = StateFetchingDetails
	results := s.fetchDetails(ctx, session, entry, rows, detailWorkers)

	return Diver{
		ID:      entry.ID,
		Profile: profile,
		Results: results,
		State:   StateDone,
	}
}

// fetchDetails fetches the score sheet of every row with a detail link.
// Each task owns the slot of the row it was dispatched for.
func (s *Scraper) fetchDetails(ctx context.Context, session *Session, entry RosterEntry, rows []HistoryRow, workers int) []Result {
	results := make([]Result, len(rows))
	sheets := make([]*ScoreSheet, len(rows))

	var group errgroup.Group
	group.SetLimit(workers)
	for i, row := range rows {
		results[i] = Result{HistoryRow: row}
		if row.DetailHref == "" {
			continue
		}
		group.Go(func() error {
			sheet, err := s.fetchScoreSheet(ctx, session, row)
			if err != nil {
				s.tel.ReportWarning(
					report_scraper_fetch_score_sheet,
					entry.ID,
					row.MeetName,
					row.EventName,
					err,
				)
				return nil
			}
			sheets[i] = &sheet
			return nil
		})
	}
	_ = group.Wait()

	for i, sheet := range sheets {
		if sheet == nil {
			continue
		}
		results[i].StartDate = sheet.StartDate
		results[i].EndDate = sheet.EndDate
		results[i].Dives = sheet.Dives
	}
	return results
}

// ScoreSheetTarget rewrites a history detail link into the full score sheet
// page.
func ScoreSheetTarget(detailHref string) string {
	return strings.ReplaceAll(detailHref, resultsExtPage, finalSheetPage)
}

func (s *Scraper) fetchScoreSheet(ctx context.Context, session *Session, row HistoryRow) (ScoreSheet, error) {
	body, err := session.Fetch(ctx, ScoreSheetTarget(row.DetailHref), row.DetailHref)
	if err != nil {
		return ScoreSheet{}, err
	}
	return ParseScoreSheet(strings.NewReader(body))
}
