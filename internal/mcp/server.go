// ABOUTME: MCP server setup for the therapy tracker.
// ABOUTME: Wraps MCP server with storage Repository connection.
package mcp

import (
	"context"

	"github.com/harperreed/therapose/internal/logger"
	"github.com/harperreed/therapose/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server with storage access.
type Server struct {
	mcpServer *mcp.Server
	repo      storage.Repository
	log       *logger.Logger
}

// NewServer creates a new MCP server with the given storage.
func NewServer(repo storage.Repository, log *logger.Logger) (*Server, error) {
	if log == nil {
		log = logger.Nop()
	}
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "therapose",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		repo:      repo,
		log:       log.With("component", "mcp"),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	s.log.Info("MCP server starting on stdio")
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
