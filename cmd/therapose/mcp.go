// ABOUTME: CLI command for starting MCP server.
// ABOUTME: Runs stdio-based MCP server for AI assistant integration.
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/harperreed/therapose/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server for AI assistant integration.

The server communicates via stdin/stdout; logs go to stderr.

CLIENT CONFIGURATION:

  {
    "mcpServers": {
      "therapose": {
        "command": "therapose",
        "args": ["mcp"]
      }
    }
  }

AVAILABLE TOOLS:

  list_postures    Catalog postures, optionally for one therapy type
  create_series    Prescribe a series to a patient
  list_series      A patient's active series with progress
  record_session   Log a session with pain before and after
  list_sessions    Sessions of a series
  delete_series    Delete a series with its sessions

AVAILABLE RESOURCES:

  therapose://catalog           Postures and therapy type mapping
  therapose://intensity-scale   The 0-4 pain scale`,
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := mcp.NewServer(dbConn, log)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		return server.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
