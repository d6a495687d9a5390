// ABOUTME: CLI commands for prescribing and inspecting therapeutic series.
// ABOUTME: A patient has at most one active series at a time.
package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/therapose/internal/models"
	"github.com/harperreed/therapose/internal/storage"
	"github.com/spf13/cobra"
)

var (
	seriesName     string
	seriesType     string
	seriesSessions int
	seriesPostures []string

	seriesListPatient string
)

var seriesCmd = &cobra.Command{
	Use:   "series",
	Short: "Manage therapeutic series",
}

var seriesCreateCmd = &cobra.Command{
	Use:   "create <patient-id>",
	Short: "Prescribe a series to a patient",
	Long: `Prescribe a therapeutic series: an ordered list of postures with the
minutes to hold each, practiced for a recommended number of sessions.

Each --posture is POSTURE_ID:MINUTES. Order follows the flag order.
A patient with an active series must have it deleted first.

EXAMPLES:

  therapose series create <patient-id> --name Calm --type Anxiety \
      --sessions 10 --posture 4:5 --posture 8:10 --posture 9:3`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		tt, ok := models.ParseTherapyType(seriesType)
		if !ok {
			return fmt.Errorf("unknown therapy type: %s\nValid types: %s", seriesType, therapyTypeList())
		}
		postures, err := parsePostureSpecs(seriesPostures)
		if err != nil {
			return err
		}

		p, err := dbConn.GetPatient(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to get patient: %w", err)
		}
		if p == nil {
			return fmt.Errorf("patient not found: %s", args[0])
		}

		id, err := dbConn.CreateSeries(ctx, models.NewSeries{
			Name:                seriesName,
			TherapyType:         tt,
			RecommendedSessions: seriesSessions,
			PatientID:           p.ID,
			Postures:            postures,
		})
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrSeriesAlreadyActive):
				return fmt.Errorf("%s already has an active series; delete it first", p.Username)
			case errors.Is(err, storage.ErrInvalidInput):
				return err
			}
			return fmt.Errorf("failed to create series: %w", err)
		}

		total, err := dbConn.TotalPrescribedMinutes(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to total series: %w", err)
		}

		out := cmd.OutOrStdout()
		color.New(color.FgGreen).Fprintf(out, "✓ Created %s series %q for %s\n", tt, seriesName, p.Username)
		fmt.Fprintf(out, "  %s %d postures, %s per session, %d sessions\n",
			faint(fmt.Sprintf("#%d", id)), len(postures), models.FormatDuration(float64(total)), seriesSessions)
		return nil
	},
}

var seriesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a series with its postures and progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id, err := parseSeriesID(args[0])
		if err != nil {
			return err
		}

		progress, err := dbConn.SeriesProgress(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get series: %w", err)
		}
		if progress == nil {
			return fmt.Errorf("series not found: %d", id)
		}
		postures, err := dbConn.ListSeriesPostures(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to list postures: %w", err)
		}
		total, err := dbConn.TotalPrescribedMinutes(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to total series: %w", err)
		}

		out := cmd.OutOrStdout()
		printSeriesLine(out, progress)
		fmt.Fprintf(out, "  patient:  %s\n", progress.PatientID)
		fmt.Fprintf(out, "  per session: %s\n", models.FormatDuration(float64(total)))
		fmt.Fprintln(out)
		for _, sp := range postures {
			fmt.Fprintf(out, "  %2d. %s %s %s\n", sp.Order, padRight(sp.Name, 22),
				padRight(fmt.Sprintf("%d min", sp.DurationMinutes), 8), faint(sp.SanskritName))
		}
		return nil
	},
}

var seriesListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List series",
	Long: `List series with progress. Use --patient to see one patient's active series.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var series []*models.SeriesProgress
		var err error
		if seriesListPatient != "" {
			series, err = dbConn.ListSeriesForPatient(ctx, seriesListPatient)
		} else {
			series, err = dbConn.ListAllSeries(ctx)
		}
		if err != nil {
			return fmt.Errorf("failed to list series: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(series) == 0 {
			fmt.Fprintln(out, "No series found.")
			return nil
		}
		for _, s := range series {
			printSeriesLine(out, s)
		}
		return nil
	},
}

var seriesDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"del", "rm"},
	Short:   "Delete a series with its postures and sessions",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id, err := parseSeriesID(args[0])
		if err != nil {
			return err
		}

		s, err := dbConn.GetSeries(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get series: %w", err)
		}
		if s == nil {
			return fmt.Errorf("series not found: %d", id)
		}
		if !dbConn.DeleteSeries(ctx, id) {
			return fmt.Errorf("failed to delete series %d; nothing was removed", id)
		}

		color.New(color.FgYellow).Fprintf(cmd.OutOrStdout(), "✗ Deleted series %d (%s)\n", s.ID, s.Name)
		return nil
	},
}

// parsePostureSpecs turns POSTURE_ID:MINUTES values into ordered series postures.
func parsePostureSpecs(specs []string) ([]models.SeriesPosture, error) {
	postures := make([]models.SeriesPosture, 0, len(specs))
	for i, spec := range specs {
		idStr, minStr, ok := strings.Cut(spec, ":")
		if !ok {
			return nil, fmt.Errorf("invalid posture %q (use POSTURE_ID:MINUTES)", spec)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid posture id in %q", spec)
		}
		minutes, err := strconv.Atoi(strings.TrimSpace(minStr))
		if err != nil {
			return nil, fmt.Errorf("invalid minutes in %q", spec)
		}
		postures = append(postures, models.SeriesPosture{
			PostureID:       id,
			Order:           i + 1,
			DurationMinutes: minutes,
		})
	}
	return postures, nil
}

func parseSeriesID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid series id: %s", s)
	}
	return id, nil
}

func printSeriesLine(out io.Writer, s *models.SeriesProgress) {
	status := color.New(color.FgCyan).Sprint("in progress")
	if s.Complete {
		status = color.New(color.FgGreen).Sprint("complete")
	}
	if !s.Active {
		status += faint(" (retired)")
	}
	fmt.Fprintf(out, "%s %s %s %d/%d %s\n",
		faint(fmt.Sprintf("#%-3d", s.ID)),
		padRight(s.Name, 20),
		padRight(string(s.TherapyType), 13),
		s.SessionsCompleted, s.RecommendedSessions,
		status)
}

func init() {
	seriesCreateCmd.Flags().StringVar(&seriesName, "name", "", "series name")
	seriesCreateCmd.Flags().StringVarP(&seriesType, "type", "t", "", "therapy type")
	seriesCreateCmd.Flags().IntVar(&seriesSessions, "sessions", 0, "recommended number of sessions")
	seriesCreateCmd.Flags().StringArrayVarP(&seriesPostures, "posture", "p", nil, "posture as POSTURE_ID:MINUTES (repeatable, in order)")
	_ = seriesCreateCmd.MarkFlagRequired("name")
	_ = seriesCreateCmd.MarkFlagRequired("type")
	_ = seriesCreateCmd.MarkFlagRequired("sessions")

	seriesListCmd.Flags().StringVar(&seriesListPatient, "patient", "", "only this patient's active series")

	seriesCmd.AddCommand(seriesCreateCmd, seriesShowCmd, seriesListCmd, seriesDeleteCmd)
	rootCmd.AddCommand(seriesCmd)
}
