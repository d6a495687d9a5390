// ABOUTME: CLI commands for instructors, patients, and assignments.
// ABOUTME: Mirrors the identity provider's user records into the local registry.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/therapose/internal/models"
	"github.com/harperreed/therapose/internal/storage"
	"github.com/spf13/cobra"
)

var (
	personID        string
	personBirthDate string
	personGender    string
	personPhone     string

	patientDeleteYes bool
)

var instructorCmd = &cobra.Command{
	Use:     "instructor",
	Aliases: []string{"inst"},
	Short:   "Manage instructors",
}

var instructorAddCmd = &cobra.Command{
	Use:   "add <username> <email> <first-name> <last-name>",
	Short: "Register an instructor",
	Long: `Register an instructor. Pass --id with the identity provider's user id;
without it a UUID is generated.

EXAMPLES:

  therapose instructor add yogi yogi@example.com Ana Vidal
  therapose instructor add yogi yogi@example.com Ana Vidal --id auth0|123`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		inst := models.NewInstructor(personID, args[0], args[1], args[2], args[3])
		applyProfileFlags(&inst.Profile)

		if err := dbConn.AddInstructor(cmd.Context(), inst); err != nil {
			return personWriteErr("instructor", err)
		}

		out := cmd.OutOrStdout()
		color.New(color.FgGreen).Fprintf(out, "✓ Added instructor %s\n", inst.Username)
		fmt.Fprintf(out, "  %s %s\n", faint(inst.ID), inst.FullName())
		return nil
	},
}

var instructorShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an instructor and their patients",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		inst, err := dbConn.GetInstructor(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to get instructor: %w", err)
		}
		if inst == nil {
			return fmt.Errorf("instructor not found: %s", args[0])
		}

		patients, err := dbConn.ListPatientsForInstructor(ctx, inst.ID)
		if err != nil {
			return fmt.Errorf("failed to list patients: %w", err)
		}

		out := cmd.OutOrStdout()
		printProfile(out, &inst.Profile)
		fmt.Fprintf(out, "\nPatients (%d):\n", len(patients))
		for _, p := range patients {
			fmt.Fprintf(out, "  %s %s %s\n", faint(p.ID), padRight(p.Username, 16), p.FullName())
		}
		return nil
	},
}

var instructorListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List instructors",
	RunE: func(cmd *cobra.Command, args []string) error {
		instructors, err := dbConn.ListInstructors(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list instructors: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(instructors) == 0 {
			fmt.Fprintln(out, "No instructors found.")
			return nil
		}
		for _, i := range instructors {
			fmt.Fprintf(out, "%s %s %s\n", faint(i.ID), padRight(i.Username, 16), i.FullName())
		}
		return nil
	},
}

var patientCmd = &cobra.Command{
	Use:     "patient",
	Aliases: []string{"pt"},
	Short:   "Manage patients",
}

var patientAddCmd = &cobra.Command{
	Use:   "add <username> <email> <first-name> <last-name>",
	Short: "Register a patient",
	Long: `Register a patient. Pass --id with the identity provider's user id;
without it a UUID is generated.

EXAMPLES:

  therapose patient add alice alice@example.com Alice Smith
  therapose patient add bob bob@example.com Bob Lee --birth-date 1980-02-01 --phone 555-0100`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := models.NewPatient(personID, args[0], args[1], args[2], args[3])
		applyProfileFlags(&p.Profile)

		if err := dbConn.AddPatient(cmd.Context(), p); err != nil {
			return personWriteErr("patient", err)
		}

		out := cmd.OutOrStdout()
		color.New(color.FgGreen).Fprintf(out, "✓ Added patient %s\n", p.Username)
		fmt.Fprintf(out, "  %s %s\n", faint(p.ID), p.FullName())
		return nil
	},
}

var patientShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a patient with instructors and series",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		p, err := dbConn.GetPatient(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to get patient: %w", err)
		}
		if p == nil {
			return fmt.Errorf("patient not found: %s", args[0])
		}

		instructors, err := dbConn.ListInstructorsForPatient(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("failed to list instructors: %w", err)
		}
		series, err := dbConn.ListSeriesForPatient(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("failed to list series: %w", err)
		}

		out := cmd.OutOrStdout()
		printProfile(out, &p.Profile)
		fmt.Fprintf(out, "\nInstructors (%d):\n", len(instructors))
		for _, i := range instructors {
			fmt.Fprintf(out, "  %s %s\n", faint(i.ID), i.FullName())
		}
		fmt.Fprintf(out, "\nSeries (%d):\n", len(series))
		for _, s := range series {
			printSeriesLine(out, s)
		}
		return nil
	},
}

var patientListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List patients",
	RunE: func(cmd *cobra.Command, args []string) error {
		patients, err := dbConn.ListPatients(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list patients: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(patients) == 0 {
			fmt.Fprintln(out, "No patients found.")
			return nil
		}
		for _, p := range patients {
			fmt.Fprintf(out, "%s %s %s\n", faint(p.ID), padRight(p.Username, 16), p.FullName())
		}
		return nil
	},
}

var patientUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a patient's profile",
	Long: `Update a patient's profile. Only the flags you pass are changed.

EXAMPLES:

  therapose patient update <id> --phone 555-0199
  therapose patient update <id> --first-name Alicia --last-name Smith-Jones`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		p, err := dbConn.GetPatient(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to get patient: %w", err)
		}
		if p == nil {
			return fmt.Errorf("patient not found: %s", args[0])
		}

		u := patientUpdateFromFlags(cmd)
		if u.IsEmpty() {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to update.")
			return nil
		}
		if err := dbConn.UpdatePatient(ctx, p.ID, u); err != nil {
			return personWriteErr("patient", err)
		}

		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Updated patient %s\n", p.ID)
		return nil
	},
}

var patientDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"del", "rm"},
	Short:   "Delete a patient and all their data",
	Long: `Delete a patient together with their assignments, series, and sessions.

The printed identity id must also be revoked with the identity provider.

CAUTION:

  This permanently deletes the patient's history. There is no undo.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		p, err := dbConn.GetPatient(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to get patient: %w", err)
		}
		if p == nil {
			return fmt.Errorf("patient not found: %s", args[0])
		}

		if !patientDeleteYes {
			ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(),
				fmt.Sprintf("Delete %s (%s) and all their sessions? [y/N] ", p.FullName(), p.Username))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Deletion canceled.")
				return nil
			}
		}

		identityID, deleted, err := dbConn.DeletePatient(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("failed to delete patient: %w", err)
		}
		if !deleted {
			return fmt.Errorf("patient not found: %s", args[0])
		}

		out := cmd.OutOrStdout()
		color.New(color.FgYellow).Fprintf(out, "✗ Deleted patient %s\n", p.Username)
		fmt.Fprintf(out, "  revoke identity %s\n", identityID)
		return nil
	},
}

var assignCmd = &cobra.Command{
	Use:   "assign <instructor-id> <patient-id>",
	Short: "Assign a patient to an instructor",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		inst, err := dbConn.GetInstructor(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to get instructor: %w", err)
		}
		if inst == nil {
			return fmt.Errorf("instructor not found: %s", args[0])
		}
		p, err := dbConn.GetPatient(ctx, args[1])
		if err != nil {
			return fmt.Errorf("failed to get patient: %w", err)
		}
		if p == nil {
			return fmt.Errorf("patient not found: %s", args[1])
		}

		if err := dbConn.Assign(ctx, inst.ID, p.ID); err != nil {
			if errors.Is(err, storage.ErrUniqueViolation) {
				return fmt.Errorf("%s is already assigned to %s", p.Username, inst.Username)
			}
			return fmt.Errorf("failed to assign: %w", err)
		}

		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Assigned %s to %s\n", p.Username, inst.Username)
		return nil
	},
}

func applyProfileFlags(p *models.Profile) {
	if personBirthDate != "" {
		p.WithBirthDate(personBirthDate)
	}
	if personGender != "" {
		p.WithGender(personGender)
	}
	if personPhone != "" {
		p.WithPhone(personPhone)
	}
}

// patientUpdateFromFlags builds a sparse update from the flags set on cmd.
func patientUpdateFromFlags(cmd *cobra.Command) models.PatientUpdate {
	var u models.PatientUpdate
	get := func(name string) *string {
		if !cmd.Flags().Changed(name) {
			return nil
		}
		v, _ := cmd.Flags().GetString(name)
		return &v
	}
	u.Username = get("username")
	u.Email = get("email")
	u.FirstName = get("first-name")
	u.LastName = get("last-name")
	u.BirthDate = get("birth-date")
	u.Gender = get("gender")
	u.Phone = get("phone")
	return u
}

func personWriteErr(kind string, err error) error {
	switch {
	case errors.Is(err, storage.ErrUniqueViolation):
		return fmt.Errorf("a %s with that id, username, or email already exists", kind)
	case errors.Is(err, storage.ErrInvalidInput):
		return err
	}
	return fmt.Errorf("failed to save %s: %w", kind, err)
}

func printProfile(out io.Writer, p *models.Profile) {
	fmt.Fprintf(out, "%s %s\n", color.New(color.Bold).Sprint(p.FullName()), faint("("+p.Username+")"))
	fmt.Fprintf(out, "  id:       %s\n", p.ID)
	fmt.Fprintf(out, "  email:    %s\n", p.Email)
	if p.BirthDate != nil {
		fmt.Fprintf(out, "  born:     %s\n", *p.BirthDate)
	}
	if p.Gender != nil {
		fmt.Fprintf(out, "  gender:   %s\n", *p.Gender)
	}
	if p.Phone != nil {
		fmt.Fprintf(out, "  phone:    %s\n", *p.Phone)
	}
}

func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprint(out, prompt)
	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read response: %w", err)
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}

func init() {
	for _, c := range []*cobra.Command{instructorAddCmd, patientAddCmd} {
		c.Flags().StringVar(&personID, "id", "", "identity provider user id (default: generated UUID)")
		c.Flags().StringVar(&personBirthDate, "birth-date", "", "birth date (YYYY-MM-DD)")
		c.Flags().StringVar(&personGender, "gender", "", "gender")
		c.Flags().StringVar(&personPhone, "phone", "", "phone number")
	}

	patientUpdateCmd.Flags().String("username", "", "new username")
	patientUpdateCmd.Flags().String("email", "", "new email")
	patientUpdateCmd.Flags().String("first-name", "", "new first name")
	patientUpdateCmd.Flags().String("last-name", "", "new last name")
	patientUpdateCmd.Flags().String("birth-date", "", "new birth date (YYYY-MM-DD)")
	patientUpdateCmd.Flags().String("gender", "", "new gender")
	patientUpdateCmd.Flags().String("phone", "", "new phone number")

	patientDeleteCmd.Flags().BoolVarP(&patientDeleteYes, "yes", "y", false, "skip confirmation prompt")

	instructorCmd.AddCommand(instructorAddCmd, instructorShowCmd, instructorListCmd)
	patientCmd.AddCommand(patientAddCmd, patientShowCmd, patientListCmd, patientUpdateCmd, patientDeleteCmd)
	rootCmd.AddCommand(instructorCmd, patientCmd, assignCmd)
}
