package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"diveanalytics-backend/internal/service"
	"diveanalytics-backend/internal/telemetry"
	"diveanalytics-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	importWorkers int
	importJSON    bool
)

func init() {
	importCmd.Flags().IntVar(&importWorkers, "max-workers", service.DefaultMaxWorkers, "Number of divers scraped concurrently.")
	importCmd.Flags().BoolVar(&importJSON, "json", false, "Print the full response envelope as json.")
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import [--max-workers N] [--json]",
	Short: "Scrapes the team roster once and stores every diver's results.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a, err := openApp(ctx, telemetry.SlogAPI{})
		if err != nil {
			serviceutil.Fatal("failed to initialize", err)
		}
		defer a.Close()

		res := a.service.Import(ctx, service.Invocation{MaxWorkers: &importWorkers})
		if importJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			err = enc.Encode(res)
			if err != nil {
				serviceutil.Fatal("failed to encode response", err)
			}
			return
		}

		switch body := res.Body.(type) {
		case service.ErrorBody:
			serviceutil.Fatal(body.Message, fmt.Errorf("%s", body.Error))
		case service.ImportBody:
			printDivers(body)
			printCounts(body)
		}
	},
}

func printDivers(body service.ImportBody) {
	t := newTable()
	t.SetTitle(body.Message)
	t.AppendHeader(table.Row{"ID", "Name", "State", "Results", "Error"})
	for _, diver := range body.Data {
		t.AppendRow(table.Row{diver.ID, diver.Name, diver.State, len(diver.Results), diver.Error})
	}
	t.AppendFooter(table.Row{"", "", "", "Successful", body.SuccessfulDivers})
	t.AppendFooter(table.Row{"", "", "", "Failed", body.ErrorDivers})
	t.Render()
}

func printCounts(body service.ImportBody) {
	counts := body.StorageCounts
	t := newTable()
	t.SetTitle("Stored")
	t.AppendHeader(table.Row{"Divers", "Competitions", "Results", "Dives", "Errors"})
	t.AppendRow(table.Row{counts.Divers, counts.Competitions, counts.Results, counts.Dives, counts.Errors})
	t.Render()
}
