// ABOUTME: CLI commands for browsing the posture catalog.
// ABOUTME: Lists the full catalog or the postures suited to one therapy type.
package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/therapose/internal/models"
	"github.com/spf13/cobra"
)

var postureListType string

var postureCmd = &cobra.Command{
	Use:     "posture",
	Aliases: []string{"postures"},
	Short:   "Browse the posture catalog",
}

var postureListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List postures",
	Long: `List catalog postures.

THERAPY TYPES:

  Anxiety, Depression, Back Pain, Arthritis, Headache, Insomnia, Poor Posture

EXAMPLES:

  therapose posture list                   # All 18 postures
  therapose posture list --type Anxiety    # The 12 suited to anxiety
  therapose posture list -t "Back Pain"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		if postureListType == "" {
			postures, err := dbConn.ListPostures(ctx)
			if err != nil {
				return fmt.Errorf("failed to list postures: %w", err)
			}
			for _, p := range postures {
				sanskrit := ""
				if p.SanskritName != nil {
					sanskrit = *p.SanskritName
				}
				fmt.Fprintf(out, "%s %s %s\n", faint(fmt.Sprintf("%3d", p.ID)), padRight(p.Name, 22), faint(sanskrit))
			}
			return nil
		}

		tt, ok := models.ParseTherapyType(postureListType)
		if !ok {
			return fmt.Errorf("unknown therapy type: %s\nValid types: %s", postureListType, therapyTypeList())
		}
		refs, err := dbConn.PosturesForTherapyType(ctx, tt)
		if err != nil {
			return fmt.Errorf("failed to list postures: %w", err)
		}
		color.New(color.Bold).Fprintf(out, "%s (%d postures)\n", tt, len(refs))
		for _, r := range refs {
			fmt.Fprintf(out, "%s %s %s\n", faint(fmt.Sprintf("%3d", r.ID)), padRight(r.Name, 22), faint(r.SanskritName))
		}
		return nil
	},
}

var postureShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a posture's details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid posture id: %s", args[0])
		}
		p, err := dbConn.GetPosture(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to get posture: %w", err)
		}
		if p == nil {
			return fmt.Errorf("posture not found: %d", id)
		}

		out := cmd.OutOrStdout()
		color.New(color.Bold).Fprintln(out, p.Name)
		for _, f := range []struct {
			label string
			value *string
		}{
			{"sanskrit", p.SanskritName},
			{"instructions", p.Instructions},
			{"benefits", p.Benefits},
			{"precautions", p.Precautions},
			{"video", p.Video},
			{"photo", p.Photo},
		} {
			if f.value != nil && *f.value != "" {
				fmt.Fprintf(out, "  %s %s\n", padRight(f.label+":", 14), *f.value)
			}
		}
		return nil
	},
}

func therapyTypeList() string {
	names := make([]string, 0, len(models.AllTherapyTypes))
	for _, tt := range models.AllTherapyTypes {
		names = append(names, string(tt))
	}
	return strings.Join(names, ", ")
}

func init() {
	postureListCmd.Flags().StringVarP(&postureListType, "type", "t", "", "only postures suited to this therapy type")
	postureCmd.AddCommand(postureListCmd, postureShowCmd)
	rootCmd.AddCommand(postureCmd)
}
