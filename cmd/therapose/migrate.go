// ABOUTME: CLI command for copying another therapose database into this one.
// ABOUTME: Used when merging clinics or moving data between machines.
package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/harperreed/therapose/internal/config"
	"github.com/harperreed/therapose/internal/storage"
	"github.com/spf13/cobra"
)

var (
	migrateFrom   string
	migrateDryRun bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy data from another therapose database",
	Long: `Copy all instructors, patients, assignments, series, and sessions from
another therapose database into the current one.

The source database is upgraded to the current schema when opened, so files
written by older versions can be migrated directly.

IMPORTANT:

  - Existing data is never overwritten; any collision aborts the whole copy
  - Run with --dry-run first to see what would be migrated

USAGE:

  therapose migrate --from old.db --dry-run   # Preview
  therapose migrate --from old.db             # Copy`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if migrateFrom == "" {
			return fmt.Errorf("--from is required")
		}
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		src, err := storage.Open(config.ExpandPath(migrateFrom), storage.WithLogger(log))
		if err != nil {
			return fmt.Errorf("failed to open source database: %w", err)
		}
		defer src.Close()

		if src.Path() == dbConn.Path() {
			return fmt.Errorf("source and destination are the same database")
		}

		if migrateDryRun {
			color.New(color.FgYellow).Fprintln(out, "Dry run mode - no changes will be made")
			data, err := src.GetAllData(ctx)
			if err != nil {
				return fmt.Errorf("failed to read source data: %w", err)
			}
			summary := &storage.MigrateSummary{
				Instructors: len(data.Instructors),
				Patients:    len(data.Patients),
				Assignments: len(data.Assignments),
				Series:      len(data.Series),
			}
			for _, s := range data.Series {
				summary.Postures += len(s.Postures)
				summary.Sessions += len(s.Sessions)
			}
			printSummary(out, summary)
			return nil
		}

		summary, err := storage.MigrateData(ctx, src, dbConn)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		color.New(color.FgGreen).Fprintf(out, "✓ Migrated from %s\n", migrateFrom)
		printSummary(out, summary)
		return nil
	},
}

func printSummary(out io.Writer, s *storage.MigrateSummary) {
	fmt.Fprintf(out, "  instructors: %d\n", s.Instructors)
	fmt.Fprintf(out, "  patients:    %d\n", s.Patients)
	fmt.Fprintf(out, "  assignments: %d\n", s.Assignments)
	fmt.Fprintf(out, "  series:      %d\n", s.Series)
	fmt.Fprintf(out, "  postures:    %d\n", s.Postures)
	fmt.Fprintf(out, "  sessions:    %d\n", s.Sessions)
}

func init() {
	migrateCmd.Flags().StringVar(&migrateFrom, "from", "", "source database path")
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "preview migration without making changes")
	rootCmd.AddCommand(migrateCmd)
}
