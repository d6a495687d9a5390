// ABOUTME: Tests for MCP server, tools, and resources.
// ABOUTME: Covers NewServer, tool handlers, and resource handlers.
package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harperreed/therapose/internal/models"
	"github.com/harperreed/therapose/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// setupTestDB creates a test database in a temp directory.
func setupTestDB(t *testing.T) *storage.DB {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "therapose.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func setupServer(t *testing.T) (*Server, *storage.DB) {
	t.Helper()

	db := setupTestDB(t)
	server, err := NewServer(db, nil)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	if err := db.AddPatient(context.Background(), models.NewPatient("p1", "alice", "alice@example.com", "Alice", "Smith")); err != nil {
		t.Fatalf("AddPatient failed: %v", err)
	}
	return server, db
}

// createSeries prescribes a two-posture anxiety series (5 + 10 minutes).
func createSeries(t *testing.T, server *Server, sessions int) int64 {
	t.Helper()
	ctx := context.Background()

	_, postures, err := server.handleListPostures(ctx, &mcp.CallToolRequest{}, listPosturesInput{TherapyType: "Anxiety"})
	if err != nil {
		t.Fatalf("list_postures failed: %v", err)
	}

	_, out, err := server.handleCreateSeries(ctx, &mcp.CallToolRequest{}, createSeriesInput{
		PatientID:           "p1",
		Name:                "Calm",
		TherapyType:         "Anxiety",
		RecommendedSessions: sessions,
		Postures: []seriesPostureInput{
			{PostureID: postures.Postures[0].ID, Order: 1, DurationMinutes: 5},
			{PostureID: postures.Postures[1].ID, Order: 2, DurationMinutes: 10},
		},
	})
	if err != nil {
		t.Fatalf("create_series failed: %v", err)
	}
	return out.SeriesID
}

func TestNewServer(t *testing.T) {
	db := setupTestDB(t)

	server, err := NewServer(db, nil)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}

	if server == nil {
		t.Fatal("Expected non-nil server")
	}
	if server.mcpServer == nil {
		t.Error("Expected non-nil mcpServer")
	}
	if server.repo == nil {
		t.Error("Expected non-nil repo")
	}
}

func TestHandleListPostures(t *testing.T) {
	server, _ := setupServer(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		input     listPosturesInput
		wantCount int
	}{
		{name: "full catalog", input: listPosturesInput{}, wantCount: 18},
		{name: "anxiety", input: listPosturesInput{TherapyType: "Anxiety"}, wantCount: 12},
		{name: "legacy label", input: listPosturesInput{TherapyType: "dolor de espalda"}, wantCount: 12},
		{name: "unknown type", input: listPosturesInput{TherapyType: "Vertigo"}, wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, output, err := server.handleListPostures(ctx, &mcp.CallToolRequest{}, tt.input)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if output.Postures == nil {
				t.Fatal("Postures should be an empty list, not nil")
			}
			if len(output.Postures) != tt.wantCount {
				t.Errorf("got %d postures, want %d", len(output.Postures), tt.wantCount)
			}
		})
	}
}

func TestHandleCreateSeries(t *testing.T) {
	server, db := setupServer(t)
	ctx := context.Background()

	id := createSeries(t, server, 3)
	if id <= 0 {
		t.Fatalf("Expected positive series id, got %d", id)
	}

	total, err := db.TotalPrescribedMinutes(ctx, id)
	if err != nil {
		t.Fatalf("TotalPrescribedMinutes failed: %v", err)
	}
	if total != 15 {
		t.Errorf("total = %d, want 15", total)
	}

	// A second active series is refused.
	_, _, err = server.handleCreateSeries(ctx, &mcp.CallToolRequest{}, createSeriesInput{
		PatientID:           "p1",
		Name:                "Again",
		TherapyType:         "Anxiety",
		RecommendedSessions: 2,
	})
	if err == nil || !strings.Contains(err.Error(), "already has an active series") {
		t.Errorf("Expected active series error, got %v", err)
	}
}

func TestHandleCreateSeriesErrors(t *testing.T) {
	server, _ := setupServer(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		input     createSeriesInput
		errSubstr string
	}{
		{
			name:      "unknown therapy",
			input:     createSeriesInput{PatientID: "p1", Name: "x", TherapyType: "Vertigo", RecommendedSessions: 1},
			errSubstr: "unknown therapy type",
		},
		{
			name:      "missing patient",
			input:     createSeriesInput{PatientID: "ghost", Name: "x", TherapyType: "Anxiety", RecommendedSessions: 1},
			errSubstr: "patient not found",
		},
		{
			name:      "zero sessions",
			input:     createSeriesInput{PatientID: "p1", Name: "x", TherapyType: "Anxiety", RecommendedSessions: 0},
			errSubstr: "recommended sessions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := server.handleCreateSeries(ctx, &mcp.CallToolRequest{}, tt.input)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errSubstr) {
				t.Errorf("Error %q should contain %q", err.Error(), tt.errSubstr)
			}
		})
	}
}

func TestHandleRecordSessionUntilComplete(t *testing.T) {
	server, _ := setupServer(t)
	ctx := context.Background()
	id := createSeries(t, server, 2)

	for i := 1; i <= 2; i++ {
		_, output, err := server.handleRecordSession(ctx, &mcp.CallToolRequest{}, recordSessionInput{
			SeriesID:        id,
			IntensityBefore: 3,
			IntensityAfter:  1,
			Comment:         "better",
		})
		if err != nil {
			t.Fatalf("record_session %d failed: %v", i, err)
		}
		if output.SessionID <= 0 {
			t.Error("Expected positive session id")
		}
		if output.EffectiveMinutes != 15 {
			t.Errorf("EffectiveMinutes = %v, want 15", output.EffectiveMinutes)
		}
		if output.Duration != "15 min" {
			t.Errorf("Duration = %q, want %q", output.Duration, "15 min")
		}
		if output.SessionsCompleted != i {
			t.Errorf("SessionsCompleted = %d, want %d", output.SessionsCompleted, i)
		}
		if output.SeriesComplete != (i == 2) {
			t.Errorf("SeriesComplete = %v after %d sessions", output.SeriesComplete, i)
		}
	}

	_, _, err := server.handleRecordSession(ctx, &mcp.CallToolRequest{}, recordSessionInput{SeriesID: id})
	if err == nil || !strings.Contains(err.Error(), "complete") {
		t.Errorf("Expected series complete error, got %v", err)
	}

	_, sessions, err := server.handleListSessions(ctx, &mcp.CallToolRequest{}, seriesInput{SeriesID: id})
	if err != nil {
		t.Fatalf("list_sessions failed: %v", err)
	}
	if len(sessions.Sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions.Sessions))
	}
	first := sessions.Sessions[0]
	if first.BeforeLabel != "Intense" || first.AfterLabel != "Mild" {
		t.Errorf("labels = %q/%q, want Intense/Mild", first.BeforeLabel, first.AfterLabel)
	}
}

func TestHandleRecordSessionErrors(t *testing.T) {
	server, _ := setupServer(t)
	ctx := context.Background()
	id := createSeries(t, server, 3)

	tests := []struct {
		name  string
		input recordSessionInput
	}{
		{name: "missing series", input: recordSessionInput{SeriesID: 999}},
		{name: "intensity out of range", input: recordSessionInput{SeriesID: id, IntensityBefore: 9}},
		{name: "bad date", input: recordSessionInput{SeriesID: id, Date: "10/03/2024"}},
		{name: "bad clock", input: recordSessionInput{SeriesID: id, StartTime: "noon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := server.handleRecordSession(ctx, &mcp.CallToolRequest{}, tt.input)
			if err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestHandleListSeries(t *testing.T) {
	server, _ := setupServer(t)
	ctx := context.Background()

	_, output, err := server.handleListSeries(ctx, &mcp.CallToolRequest{}, patientInput{PatientID: "p1"})
	if err != nil {
		t.Fatalf("list_series failed: %v", err)
	}
	if output.Series == nil || len(output.Series) != 0 {
		t.Errorf("Expected empty non-nil list, got %v", output.Series)
	}

	createSeries(t, server, 4)
	_, output, err = server.handleListSeries(ctx, &mcp.CallToolRequest{}, patientInput{PatientID: "p1"})
	if err != nil {
		t.Fatalf("list_series failed: %v", err)
	}
	if len(output.Series) != 1 {
		t.Fatalf("got %d series, want 1", len(output.Series))
	}
	if output.Series[0].Name != "Calm" || output.Series[0].Complete {
		t.Errorf("unexpected series %+v", output.Series[0])
	}
}

func TestHandleDeleteSeries(t *testing.T) {
	server, db := setupServer(t)
	ctx := context.Background()
	id := createSeries(t, server, 3)

	_, output, err := server.handleDeleteSeries(ctx, &mcp.CallToolRequest{}, seriesInput{SeriesID: id})
	if err != nil {
		t.Fatalf("delete_series failed: %v", err)
	}
	if !strings.Contains(output.Message, "Calm") {
		t.Errorf("Message %q should name the series", output.Message)
	}

	s, err := db.GetSeries(ctx, id)
	if err != nil {
		t.Fatalf("GetSeries failed: %v", err)
	}
	if s != nil {
		t.Error("Expected series to be gone")
	}

	_, _, err = server.handleDeleteSeries(ctx, &mcp.CallToolRequest{}, seriesInput{SeriesID: id})
	if err == nil {
		t.Error("Expected error deleting missing series")
	}
}

func TestHandleCatalogResource(t *testing.T) {
	server, _ := setupServer(t)

	result, err := server.handleCatalogResource(context.Background(), &mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("catalog resource failed: %v", err)
	}
	if len(result.Contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(result.Contents))
	}
	if result.Contents[0].URI != catalogURI {
		t.Errorf("URI = %s, want %s", result.Contents[0].URI, catalogURI)
	}

	var body struct {
		Postures     []models.Posture    `json:"postures"`
		TherapyTypes map[string][]string `json:"therapy_types"`
	}
	if err := json.Unmarshal([]byte(result.Contents[0].Text), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(body.Postures) != 18 {
		t.Errorf("got %d postures, want 18", len(body.Postures))
	}
	if len(body.TherapyTypes) != 7 {
		t.Errorf("got %d therapy types, want 7", len(body.TherapyTypes))
	}
}

func TestHandleIntensityScaleResource(t *testing.T) {
	server, _ := setupServer(t)

	result, err := server.handleIntensityScaleResource(context.Background(), &mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("intensity resource failed: %v", err)
	}

	var body struct {
		Levels []struct {
			Value int    `json:"value"`
			Label string `json:"label"`
		} `json:"levels"`
	}
	if err := json.Unmarshal([]byte(result.Contents[0].Text), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(body.Levels) != 5 {
		t.Fatalf("got %d levels, want 5", len(body.Levels))
	}
	if body.Levels[4].Label != "Maximal pain" {
		t.Errorf("level 4 = %q", body.Levels[4].Label)
	}
}
