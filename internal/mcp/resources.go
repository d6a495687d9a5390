// ABOUTME: MCP resource implementations for the posture catalog.
// ABOUTME: Provides therapose://catalog and therapose://intensity-scale resources.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harperreed/therapose/internal/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	catalogURI        = "therapose://catalog"
	intensityScaleURI = "therapose://intensity-scale"
)

func (s *Server) registerResources() {
	// therapose://catalog - every posture plus the therapy type mapping
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         catalogURI,
		Name:        "Posture Catalog",
		Description: "All catalog postures and the postures suited to each therapy type",
		MIMEType:    "application/json",
	}, s.handleCatalogResource)

	// therapose://intensity-scale - pain levels used by sessions
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         intensityScaleURI,
		Name:        "Pain Intensity Scale",
		Description: "The 0-4 pain intensity scale recorded before and after each session",
		MIMEType:    "application/json",
	}, s.handleIntensityScaleResource)
}

// Resource handlers

func (s *Server) handleCatalogResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	postures, err := s.repo.ListPostures(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list postures: %w", err)
	}

	therapies := make(map[string][]string, len(models.AllTherapyTypes))
	for _, tt := range models.AllTherapyTypes {
		therapies[string(tt)] = tt.PostureNames()
	}

	result := map[string]interface{}{
		"postures":      postures,
		"therapy_types": therapies,
		"counts": map[string]int{
			"postures":      len(postures),
			"therapy_types": len(therapies),
		},
	}

	return jsonResource(catalogURI, result)
}

func (s *Server) handleIntensityScaleResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	levels := make([]map[string]interface{}, 0, len(models.IntensityLabels))
	for i, label := range models.IntensityLabels {
		levels = append(levels, map[string]interface{}{
			"value": i,
			"label": label,
		})
	}

	return jsonResource(intensityScaleURI, map[string]interface{}{"levels": levels})
}

func jsonResource(uri string, v interface{}) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
