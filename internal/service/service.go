// Package service runs imports end to end and exposes them, along with the
// stored profiles, over http.
package service

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"diveanalytics-backend/internal/divemeets"
	"diveanalytics-backend/internal/importer"
	"diveanalytics-backend/internal/profile"
	"diveanalytics-backend/internal/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("diveanalytics/service")

const (
	report_import_failed  = "import.failed"
	report_import_summary = "import.summary"
	report_profile_read   = "profile.read"
)

const (
	DefaultMaxWorkers = 8

	messageImported     = "Competition data imported and stored successfully"
	messageImportFailed = "Failed to import competition data"
)

var ErrInvalidWorkers = errors.New("max_workers must be at least 1")

// Invocation triggers a single import, a nil MaxWorkers uses the default.
type Invocation struct {
	MaxWorkers *int `json:"max_workers"`
}

type Response struct {
	StatusCode int `json:"statusCode"`
	Body       any `json:"body"`
}

type ImportBody struct {
	Message          string            `json:"message"`
	TotalDivers      int               `json:"total_divers"`
	SuccessfulDivers int               `json:"successful_divers"`
	ErrorDivers      int               `json:"error_divers"`
	StorageCounts    importer.Counts   `json:"storage_counts"`
	Data             []divemeets.Diver `json:"data"`
}

type ErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

type Service struct {
	scraper *divemeets.Scraper
	engine  *importer.Engine
	reader  profile.Reader
	tel     telemetry.API

	// imports triggered by cron and http never overlap
	importing sync.Mutex
}

func NewService(scraper *divemeets.Scraper, engine *importer.Engine, reader profile.Reader, tel telemetry.API) *Service {
	return &Service{
		scraper: scraper,
		engine:  engine,
		reader:  reader,
		tel:     telemetry.NewScopedAPI("service", tel),
	}
}

func failed(err error) Response {
	return Response{
		StatusCode: http.StatusInternalServerError,
		Body: ErrorBody{
			Message: messageImportFailed,
			Error:   err.Error(),
		},
	}
}

// Import scrapes the roster, stores every successfully scraped diver and
// summarizes the run. Only a run that cannot start or whose roster is
// unusable produces a 500 response.
func (s *Service) Import(ctx context.Context, inv Invocation) Response {
	ctx, span := tracer.Start(ctx, "Service.Import")
	defer span.End()

	workers := DefaultMaxWorkers
	if inv.MaxWorkers != nil {
		workers = *inv.MaxWorkers
	}
	span.SetAttributes(attribute.Int("max_workers", workers))
	if workers < 1 {
		s.tel.ReportWarning(report_import_failed, ErrInvalidWorkers, workers)
		return failed(ErrInvalidWorkers)
	}

	s.importing.Lock()
	defer s.importing.Unlock()

	divers, err := s.scraper.Run(ctx, divemeets.Options{DiverWorkers: workers})
	if err != nil {
		s.tel.ReportBroken(report_import_failed, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "import failed")
		return failed(err)
	}
	counts := s.engine.Store(ctx, divers)

	body := ImportBody{
		Message:       messageImported,
		TotalDivers:   len(divers),
		StorageCounts: counts,
		Data:          divers,
	}
	for _, diver := range divers {
		if diver.Failed() {
			body.ErrorDivers++
			continue
		}
		body.SuccessfulDivers++
	}
	s.tel.ReportDebug(
		report_import_summary,
		body.TotalDivers,
		body.SuccessfulDivers,
		body.ErrorDivers,
		counts,
	)
	return Response{StatusCode: http.StatusOK, Body: body}
}
