package commands

import (
	"context"
	"log/slog"

	"diveanalytics-backend/internal/chrono"
	"diveanalytics-backend/internal/service"
	"diveanalytics-backend/internal/telemetry"
	"diveanalytics-backend/lib/serviceutil"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var (
	servePort   int
	serveScrape bool
)

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on, overrides the configured port.")
	serveCmd.Flags().BoolVar(&serveScrape, "scrape", false, "Run an import immediately after starting.")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve [--port N] [--scrape]",
	Short: "Serves the import and profile api and runs scheduled imports.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		tel, err := telemetry.NewPrometheusAPI(telemetry.SlogAPI{}, reg)
		if err != nil {
			serviceutil.Fatal("failed to register metrics", err)
		}

		a, err := openApp(ctx, tel)
		if err != nil {
			serviceutil.Fatal("failed to initialize", err)
		}
		defer a.Close()

		providers, err := telemetry.Setup(ctx, "divemeets", a.config.Telemetry)
		if err != nil {
			serviceutil.Fatal("failed to setup telemetry", err)
		}
		defer providers.Shutdown(context.Background())
		telemetry.InstrumentPerfStats(ctx, tel)

		runImport := func() {
			res := a.service.Import(ctx, service.Invocation{})
			if body, ok := res.Body.(service.ImportBody); ok {
				slog.Info(
					"import finished",
					"divers", body.TotalDivers,
					"failed", body.ErrorDivers,
					"errors", body.StorageCounts.Errors,
				)
			}
		}

		if a.config.Server.Cron != "" {
			cron := chrono.NewStandardCron(tel)
			err = cron.Cron(a.config.Server.Cron, runImport)
			if err != nil {
				serviceutil.Fatal("failed to schedule imports", err)
			}
			defer cron.Stop()
		}
		if serveScrape {
			go runImport()
		}

		port := a.config.Server.Port
		if servePort != 0 {
			port = servePort
		}
		err = serviceutil.StartHttpServer(ctx, port, a.service.Handler(reg))
		if err != nil {
			serviceutil.Fatal("failed to serve", err)
		}
	},
}
