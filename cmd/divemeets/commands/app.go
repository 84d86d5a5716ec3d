package commands

import (
	"context"
	"fmt"
	"os"

	"diveanalytics-backend/internal/chrono"
	"diveanalytics-backend/internal/config"
	"diveanalytics-backend/internal/divemeets"
	"diveanalytics-backend/internal/importer"
	"diveanalytics-backend/internal/keys"
	"diveanalytics-backend/internal/profile"
	"diveanalytics-backend/internal/service"
	"diveanalytics-backend/internal/store"
	"diveanalytics-backend/internal/telemetry"
	"diveanalytics-backend/lib/restyutil"

	"github.com/jedib0t/go-pretty/v6/table"
)

type app struct {
	config  config.Config
	store   store.Store
	reader  profile.Reader
	service *service.Service
}

func (a app) Close() {
	a.store.Close()
}

func openApp(ctx context.Context, tel telemetry.API) (app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return app{}, fmt.Errorf("read config: %w", err)
	}

	var output telemetry.MessageOutput
	if verbose && cfg.Site.DumpDir != "" {
		output, err = restyutil.NewFilesystemOutput(cfg.Site.DumpDir)
		if err != nil {
			return app{}, fmt.Errorf("create http dump dir: %w", err)
		}
	}
	client, err := divemeets.NewClient(cfg.Site, tel, output)
	if err != nil {
		return app{}, err
	}

	s, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return app{}, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}

	deriver := keys.NewDeriver(0)
	reader := profile.NewReader(s, deriver)
	return app{
		config: cfg,
		store:  s,
		reader: reader,
		service: service.NewService(
			divemeets.NewScraper(client, cfg.Pool, tel),
			importer.NewEngine(s, deriver, chrono.NewStandardTime(), tel),
			reader,
			tel,
		),
	}, nil
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func optional[T any](value *T) any {
	if value == nil {
		return ""
	}
	return *value
}
