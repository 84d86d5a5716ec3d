package commands

import (
	"errors"
	"fmt"
	"strconv"

	"diveanalytics-backend/internal/profile"
	"diveanalytics-backend/internal/telemetry"
	"diveanalytics-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(diversCmd)
	rootCmd.AddCommand(profileCmd)
}

var diversCmd = &cobra.Command{
	Use:   "divers",
	Short: "Lists every stored diver.",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp(cmd.Context(), telemetry.SlogAPI{})
		if err != nil {
			serviceutil.Fatal("failed to initialize", err)
		}
		defer a.Close()

		divers, err := a.reader.Divers(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to list divers", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"ID", "Name", "Gender", "Age", "City", "Country", "Updated"})
		for _, diver := range divers {
			t.AppendRow(table.Row{
				diver.DiverID,
				diver.Name,
				diver.Gender,
				optional(diver.Age),
				diver.CityState,
				diver.Country,
				diver.LastUpdated,
			})
		}
		t.Render()
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile <diver-id>",
	Short: "Shows a stored diver with their results and dives.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		diverID, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("diver id must be an integer: %w", err)
		}

		a, err := openApp(cmd.Context(), telemetry.SlogAPI{})
		if err != nil {
			return err
		}
		defer a.Close()

		diver, err := a.reader.Diver(cmd.Context(), diverID)
		if errors.Is(err, profile.ErrNotFound) {
			return fmt.Errorf("diver %d has not been imported", diverID)
		}
		if err != nil {
			return err
		}

		fmt.Printf("%s (%d) %s %s\n", diver.Name, diver.DiverID, diver.CityState, diver.Country)
		for _, result := range diver.Results {
			t := newTable()
			t.SetTitle(fmt.Sprintf(
				"%s: %s %s (%s)",
				result.MeetName,
				result.EventName,
				result.RoundType,
				optional(result.StartDate),
			))
			t.AppendHeader(table.Row{"Round", "Code", "Description", "Height", "DD", "Scores", "Net", "Award", "Place"})
			for _, dive := range result.Dives {
				scores := make([]string, 0, len(dive.Scores))
				for _, score := range dive.Scores {
					scores = append(scores, fmt.Sprint(optional(score)))
				}
				t.AppendRow(table.Row{
					dive.DiveRound,
					dive.Code,
					dive.Description,
					dive.Height,
					optional(dive.Difficulty),
					scores,
					optional(dive.NetTotal),
					optional(dive.Award),
					optional(dive.RoundPlace),
				})
			}
			t.AppendFooter(table.Row{"", "", "", "", "", "", "", "Total", optional(result.TotalScore)})
			t.Render()
		}
		return nil
	},
}
