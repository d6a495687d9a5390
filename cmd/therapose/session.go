// ABOUTME: CLI commands for logging and listing practice sessions.
// ABOUTME: Completed series refuse new sessions.
package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/harperreed/therapose/internal/models"
	"github.com/harperreed/therapose/internal/storage"
	"github.com/spf13/cobra"
)

var (
	sessionBefore  int
	sessionAfter   int
	sessionComment string
	sessionStart   string
	sessionEnd     string
	sessionDate    string
)

var sessionCmd = &cobra.Command{
	Use:     "session",
	Aliases: []string{"sessions"},
	Short:   "Log and review practice sessions",
}

var sessionRecordCmd = &cobra.Command{
	Use:     "record <series-id>",
	Aliases: []string{"add"},
	Short:   "Record a completed session",
	Long: `Record a completed practice session of a series.

PAIN INTENSITY (--before, --after):

  0 No pain   1 Mild   2 Moderate   3 Intense   4 Maximal pain

The session's effective minutes are the series' prescribed total at the
time of recording. A series that reached its recommended number of sessions
accepts no more.

EXAMPLES:

  therapose session record 1 --before 3 --after 1
  therapose session record 1 --before 2 --after 0 --comment "Slept well" \
      --start 08:00:00 --end 08:25:00 --date 2024-03-10`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id, err := parseSeriesID(args[0])
		if err != nil {
			return err
		}

		s := models.NewSession(id, models.Intensity(sessionBefore), models.Intensity(sessionAfter), sessionComment).
			WithTimes(sessionStart, sessionEnd)
		if sessionDate != "" {
			d, err := time.Parse(models.DateLayout, sessionDate)
			if err != nil {
				return fmt.Errorf("invalid date format: %s (use YYYY-MM-DD)", sessionDate)
			}
			s.WithDate(d)
		}

		if err := dbConn.RecordOpenSession(ctx, s); err != nil {
			switch {
			case errors.Is(err, storage.ErrInvalidInput):
				return err
			case errors.Is(err, storage.ErrSeriesNotFound):
				return fmt.Errorf("series not found: %d", id)
			case errors.Is(err, storage.ErrSeriesComplete):
				return fmt.Errorf("series %d is complete; prescribe a new series to continue", id)
			}
			return fmt.Errorf("failed to record session: %w", err)
		}

		progress, err := dbConn.SeriesProgress(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to read progress: %w", err)
		}

		out := cmd.OutOrStdout()
		color.New(color.FgGreen).Fprintf(out, "✓ Recorded session %d/%d of %s\n",
			progress.SessionsCompleted, progress.RecommendedSessions, progress.Name)
		fmt.Fprintf(out, "  %s %s, pain %s → %s\n",
			faint(s.Date.Format(models.DateLayout)), s.Duration(), s.IntensityBefore, s.IntensityAfter)
		if progress.Complete {
			color.New(color.FgCyan).Fprintln(out, "  Series complete!")
		}
		return nil
	},
}

var sessionListCmd = &cobra.Command{
	Use:     "list <series-id>",
	Aliases: []string{"ls"},
	Short:   "List the sessions of a series",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseSeriesID(args[0])
		if err != nil {
			return err
		}
		sessions, err := dbConn.ListSessions(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No sessions found.")
			return nil
		}
		for _, s := range sessions {
			comment := ""
			if s.Comment != "" {
				comment = faint(fmt.Sprintf(" (%s)", truncate(s.Comment, 30)))
			}
			fmt.Fprintf(out, "%s %s %s %s → %s%s\n",
				faint(s.Date.Format(models.DateLayout)),
				padRight(s.StartTime, 8),
				padRight(s.Duration(), 14),
				s.IntensityBefore, s.IntensityAfter,
				comment)
		}
		return nil
	},
}

func init() {
	sessionRecordCmd.Flags().IntVar(&sessionBefore, "before", 0, "pain intensity before (0-4)")
	sessionRecordCmd.Flags().IntVar(&sessionAfter, "after", 0, "pain intensity after (0-4)")
	sessionRecordCmd.Flags().StringVar(&sessionComment, "comment", "", "how the session went")
	sessionRecordCmd.Flags().StringVar(&sessionStart, "start", "", "start time (HH:MM:SS)")
	sessionRecordCmd.Flags().StringVar(&sessionEnd, "end", "", "end time (HH:MM:SS)")
	sessionRecordCmd.Flags().StringVar(&sessionDate, "date", "", "session date (YYYY-MM-DD, default today)")

	sessionCmd.AddCommand(sessionRecordCmd, sessionListCmd)
	rootCmd.AddCommand(sessionCmd)
}
