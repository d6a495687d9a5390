// ABOUTME: CLI commands for exporting and importing therapy data.
// ABOUTME: Supports JSON, YAML, and Markdown export formats.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/harperreed/therapose/internal/storage"
	"github.com/spf13/cobra"
)

var (
	exportOutput  string
	exportPatient string
)

var exportCmd = &cobra.Command{
	Use:   "export <format>",
	Short: "Export therapy data",
	Long: `Export therapy data in various formats.

FORMATS:

  json       Full JSON export (suitable for backup/restore)
  yaml       YAML export (human-readable)
  markdown   Per-patient series and session tables

OPTIONS:

  --output, -o   Write to file instead of stdout
  --patient      Only this patient (markdown only)

EXAMPLES:

  therapose export json                     # Export all data as JSON
  therapose export json -o backup.json      # Save to file
  therapose export yaml                     # Export as YAML
  therapose export markdown --patient <id>  # One patient's history`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"json", "yaml", "markdown"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		format := args[0]

		var data []byte
		var err error

		switch format {
		case "json":
			data, err = dbConn.ExportJSON(ctx)
		case "yaml":
			data, err = dbConn.ExportYAML(ctx)
		case "markdown", "md":
			var md string
			md, err = dbConn.ExportMarkdown(ctx, exportPatient)
			data = []byte(md)
		default:
			return fmt.Errorf("unknown format: %s (use json, yaml, or markdown)", format)
		}

		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		out := cmd.OutOrStdout()
		if exportOutput != "" {
			if err := os.WriteFile(exportOutput, data, 0600); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}
			color.New(color.FgGreen).Fprintf(out, "✓ Exported to %s\n", exportOutput)
		} else {
			fmt.Fprintln(out, string(data))
		}

		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import therapy data from JSON",
	Long: `Import therapy data from a JSON backup file.

This imports instructors, patients, assignments, series, and sessions from a
previously exported JSON file. Postures are matched to the catalog by name.
Nothing is imported if any record collides with existing data.

EXAMPLES:

  therapose import backup.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]

		data, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		summary, err := dbConn.ImportJSON(cmd.Context(), data)
		if err != nil {
			if errors.Is(err, storage.ErrUniqueViolation) {
				return fmt.Errorf("import failed: %s collides with existing data; nothing was imported", filename)
			}
			return fmt.Errorf("import failed: %w", err)
		}

		out := cmd.OutOrStdout()
		color.New(color.FgGreen).Fprintf(out, "✓ Imported from %s\n", filename)
		printSummary(out, summary)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")
	exportCmd.Flags().StringVar(&exportPatient, "patient", "", "only this patient (markdown only)")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
