// ABOUTME: Root Cobra command for therapose CLI.
// ABOUTME: Handles config, logger, and database lifecycle via PersistentPre/PostRunE.
package main

import (
	"fmt"

	"github.com/harperreed/therapose/internal/config"
	"github.com/harperreed/therapose/internal/logger"
	"github.com/harperreed/therapose/internal/storage"
	"github.com/spf13/cobra"
)

var (
	dbPath  string
	verbose bool

	cfg    *config.Config
	log    *logger.Logger
	dbConn *storage.DB
)

// noStorage lists commands that run without opening the database.
var noStorage = map[string]bool{
	"help":          true,
	"version":       true,
	"completion":    true,
	"install-skill": true,
}

// alwaysLog lists long-running commands that log even without --verbose.
var alwaysLog = map[string]bool{
	"serve": true,
	"mcp":   true,
}

var rootCmd = &cobra.Command{
	Use:   "therapose",
	Short: "Yoga therapy series and session tracker",
	Long: `Therapose tracks therapeutic yoga: instructors prescribe a series of
postures to a patient, and the patient logs each practice session with pain
intensity before and after.

PEOPLE:

  $ therapose instructor add yogi yogi@example.com Ana Vidal
  $ therapose patient add alice alice@example.com Alice Smith
  $ therapose assign <instructor-id> <patient-id>

POSTURES:

  $ therapose posture list                  # Full catalog (18 postures)
  $ therapose posture list --type Anxiety   # Postures suited to a therapy

SERIES:

  $ therapose series create <patient-id> --name Calm --type Anxiety \
      --sessions 10 --posture 5:5 --posture 9:10
  $ therapose series show 1                 # Progress, postures, minutes

SESSIONS:

  $ therapose session record 1 --before 3 --after 1 --comment "Better"
  $ therapose session list 1

SERVERS:

  $ therapose serve      # JSON API on 127.0.0.1:8080
  $ therapose mcp        # MCP server on stdio

DATA STORAGE:

  Data is stored in SQLite at ~/.local/share/therapose/therapose.db.
  Settings live in ~/.config/therapose/config.json.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noStorage[cmd.Name()] {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		log = logger.Nop()
		if verbose || alwaysLog[cmd.Name()] {
			log, err = logger.New(cfg.GetLogMode())
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
		}

		if dbPath != "" {
			dbConn, err = storage.Open(config.ExpandPath(dbPath), storage.WithLogger(log))
		} else {
			dbConn, err = cfg.OpenStorage(log)
		}
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if log != nil {
			log.Sync()
		}
		if dbConn != nil {
			err := dbConn.Close()
			dbConn = nil
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: data dir from config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log storage activity to stderr")
}
