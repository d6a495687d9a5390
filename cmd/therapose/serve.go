// ABOUTME: CLI command for starting the JSON API server.
// ABOUTME: Serves postures, series, sessions, and patient deletion over HTTP.
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/harperreed/therapose/internal/api"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the JSON API server",
	Long: `Start the JSON API server.

ENDPOINTS:

  GET    /healthcheck
  GET    /api/postures/:therapyType
  GET    /api/patients/:id/series
  DELETE /api/patients/:id
  GET    /api/instructors/:id/patients
  GET    /api/series/:id/postures
  GET    /api/series/:id/sessions
  POST   /api/series/:id/sessions
  DELETE /api/series/:id

The listen address defaults to http_addr from the config file, then
127.0.0.1:8080.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := serveAddr
		if addr == "" {
			addr = cfg.GetHTTPAddr()
		}
		if cfg.GetLogMode() != "dev" {
			gin.SetMode(gin.ReleaseMode)
		}

		server := api.NewServer(api.NewHandler(dbConn, log), log)

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		return server.Serve(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: config http_addr or 127.0.0.1:8080)")
	rootCmd.AddCommand(serveCmd)
}
