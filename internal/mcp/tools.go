// ABOUTME: MCP tool implementations for therapy tracking.
// ABOUTME: Provides posture lookup, series prescription, and session logging.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/therapose/internal/models"
	"github.com/harperreed/therapose/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerTools() {
	// list_postures
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_postures",
		Description: "List catalog postures, optionally only those suited to a therapy type",
	}, s.handleListPostures)

	// create_series
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "create_series",
		Description: "Prescribe a therapeutic series (ordered postures with minutes each) to a patient",
	}, s.handleCreateSeries)

	// list_series
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_series",
		Description: "List a patient's active series with progress",
	}, s.handleListSeries)

	// record_session
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "record_session",
		Description: "Record a completed practice session with pain intensity before and after (0-4)",
	}, s.handleRecordSession)

	// list_sessions
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_sessions",
		Description: "List the sessions of a series in date order",
	}, s.handleListSessions)

	// delete_series
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "delete_series",
		Description: "Delete a series with its postures and sessions",
	}, s.handleDeleteSeries)
}

// Tool input/output types

type listPosturesInput struct {
	TherapyType string `json:"therapy_type,omitempty" jsonschema:"Therapy type (Anxiety, Depression, Back Pain, Arthritis, Headache, Insomnia, Poor Posture); omit for the full catalog, unknown types list nothing"`
}

type posturesOutput struct {
	TherapyType string              `json:"therapy_type,omitempty"`
	Postures    []models.PostureRef `json:"postures"`
}

type seriesPostureInput struct {
	PostureID       int64 `json:"posture_id" jsonschema:"Catalog posture id"`
	Order           int   `json:"order" jsonschema:"Position in the series, starting at 1"`
	DurationMinutes int   `json:"duration_minutes" jsonschema:"Minutes to hold the posture"`
}

type createSeriesInput struct {
	PatientID           string               `json:"patient_id" jsonschema:"Patient id"`
	Name                string               `json:"name" jsonschema:"Series name"`
	TherapyType         string               `json:"therapy_type" jsonschema:"Therapy type the series targets"`
	RecommendedSessions int                  `json:"recommended_sessions" jsonschema:"Sessions needed to complete the series"`
	Postures            []seriesPostureInput `json:"postures" jsonschema:"Postures in order"`
}

type createSeriesOutput struct {
	SeriesID     int64  `json:"series_id"`
	TotalMinutes int    `json:"total_minutes"`
	Message      string `json:"message"`
}

type patientInput struct {
	PatientID string `json:"patient_id" jsonschema:"Patient id"`
}

type seriesListOutput struct {
	Series []*models.SeriesProgress `json:"series"`
}

type seriesInput struct {
	SeriesID int64 `json:"series_id" jsonschema:"Series id"`
}

type recordSessionInput struct {
	SeriesID        int64  `json:"series_id" jsonschema:"Series id"`
	IntensityBefore int    `json:"intensity_before" jsonschema:"Pain before the session: 0 none, 1 mild, 2 moderate, 3 intense, 4 maximal"`
	IntensityAfter  int    `json:"intensity_after" jsonschema:"Pain after the session on the same scale"`
	Comment         string `json:"comment,omitempty" jsonschema:"Patient comment"`
	StartTime       string `json:"start_time,omitempty" jsonschema:"Start time HH:MM:SS"`
	EndTime         string `json:"end_time,omitempty" jsonschema:"End time HH:MM:SS"`
	Date            string `json:"date,omitempty" jsonschema:"Session date YYYY-MM-DD, defaults to today"`
}

type recordSessionOutput struct {
	SessionID         int64   `json:"session_id"`
	EffectiveMinutes  float64 `json:"effective_minutes"`
	Duration          string  `json:"duration"`
	SessionsCompleted int     `json:"sessions_completed"`
	SeriesComplete    bool    `json:"series_complete"`
	Message           string  `json:"message"`
}

type sessionEntry struct {
	*models.Session
	DurationFormatted string `json:"duration_formatted"`
	BeforeLabel       string `json:"intensity_before_label"`
	AfterLabel        string `json:"intensity_after_label"`
}

type sessionsOutput struct {
	Sessions []sessionEntry `json:"sessions"`
}

type simpleOutput struct {
	Message string `json:"message"`
}

// Tool handlers

func (s *Server) handleListPostures(ctx context.Context, req *mcp.CallToolRequest, input listPosturesInput) (*mcp.CallToolResult, posturesOutput, error) {
	if input.TherapyType == "" {
		all, err := s.repo.ListPostures(ctx)
		if err != nil {
			return nil, posturesOutput{}, fmt.Errorf("failed to list postures: %w", err)
		}
		refs := make([]models.PostureRef, 0, len(all))
		for _, p := range all {
			ref := models.PostureRef{ID: p.ID, Name: p.Name}
			if p.SanskritName != nil {
				ref.SanskritName = *p.SanskritName
			}
			refs = append(refs, ref)
		}
		return nil, posturesOutput{Postures: refs}, nil
	}

	tt, ok := models.ParseTherapyType(input.TherapyType)
	if !ok {
		tt = models.TherapyType(input.TherapyType)
	}
	refs, err := s.repo.PosturesForTherapyType(ctx, tt)
	if err != nil {
		return nil, posturesOutput{}, fmt.Errorf("failed to list postures: %w", err)
	}
	return nil, posturesOutput{TherapyType: string(tt), Postures: refs}, nil
}

func (s *Server) handleCreateSeries(ctx context.Context, req *mcp.CallToolRequest, input createSeriesInput) (*mcp.CallToolResult, createSeriesOutput, error) {
	tt, ok := models.ParseTherapyType(input.TherapyType)
	if !ok {
		return nil, createSeriesOutput{}, fmt.Errorf("unknown therapy type: %s", input.TherapyType)
	}

	patient, err := s.repo.GetPatient(ctx, input.PatientID)
	if err != nil {
		return nil, createSeriesOutput{}, fmt.Errorf("failed to get patient: %w", err)
	}
	if patient == nil {
		return nil, createSeriesOutput{}, fmt.Errorf("patient not found: %s", input.PatientID)
	}

	n := models.NewSeries{
		Name:                input.Name,
		TherapyType:         tt,
		RecommendedSessions: input.RecommendedSessions,
		PatientID:           patient.ID,
	}
	for _, p := range input.Postures {
		n.Postures = append(n.Postures, models.SeriesPosture{
			PostureID:       p.PostureID,
			Order:           p.Order,
			DurationMinutes: p.DurationMinutes,
		})
	}

	id, err := s.repo.CreateSeries(ctx, n)
	if err != nil {
		if errors.Is(err, storage.ErrSeriesAlreadyActive) {
			return nil, createSeriesOutput{}, fmt.Errorf("%s already has an active series; delete it first", patient.Username)
		}
		return nil, createSeriesOutput{}, fmt.Errorf("failed to create series: %w", err)
	}

	total, err := s.repo.TotalPrescribedMinutes(ctx, id)
	if err != nil {
		return nil, createSeriesOutput{}, fmt.Errorf("failed to total series: %w", err)
	}

	return nil, createSeriesOutput{
		SeriesID:     id,
		TotalMinutes: total,
		Message: fmt.Sprintf("Created %s series %q for %s: %d postures, %s per session, %d sessions",
			tt, input.Name, patient.Username, len(n.Postures), models.FormatDuration(float64(total)), input.RecommendedSessions),
	}, nil
}

func (s *Server) handleListSeries(ctx context.Context, req *mcp.CallToolRequest, input patientInput) (*mcp.CallToolResult, seriesListOutput, error) {
	series, err := s.repo.ListSeriesForPatient(ctx, input.PatientID)
	if err != nil {
		return nil, seriesListOutput{}, fmt.Errorf("failed to list series: %w", err)
	}
	if series == nil {
		series = []*models.SeriesProgress{}
	}
	return nil, seriesListOutput{Series: series}, nil
}

func (s *Server) handleRecordSession(ctx context.Context, req *mcp.CallToolRequest, input recordSessionInput) (*mcp.CallToolResult, recordSessionOutput, error) {
	sess := models.NewSession(input.SeriesID,
		models.Intensity(input.IntensityBefore), models.Intensity(input.IntensityAfter), input.Comment).
		WithTimes(input.StartTime, input.EndTime)
	if input.Date != "" {
		d, err := time.Parse(models.DateLayout, input.Date)
		if err != nil {
			return nil, recordSessionOutput{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD)", input.Date)
		}
		sess.WithDate(d)
	}

	if err := s.repo.RecordOpenSession(ctx, sess); err != nil {
		if errors.Is(err, storage.ErrSeriesNotFound) || errors.Is(err, storage.ErrSeriesComplete) {
			return nil, recordSessionOutput{}, err
		}
		return nil, recordSessionOutput{}, fmt.Errorf("failed to record session: %w", err)
	}

	progress, err := s.repo.SeriesProgress(ctx, input.SeriesID)
	if err != nil {
		return nil, recordSessionOutput{}, fmt.Errorf("failed to read progress: %w", err)
	}

	msg := fmt.Sprintf("Recorded session %d/%d (%s, pain %s -> %s)",
		progress.SessionsCompleted, progress.RecommendedSessions, sess.Duration(),
		sess.IntensityBefore, sess.IntensityAfter)
	if progress.Complete {
		msg += "; series complete"
	}

	return nil, recordSessionOutput{
		SessionID:         sess.ID,
		EffectiveMinutes:  sess.EffectiveMinutes,
		Duration:          sess.Duration(),
		SessionsCompleted: progress.SessionsCompleted,
		SeriesComplete:    progress.Complete,
		Message:           msg,
	}, nil
}

func (s *Server) handleListSessions(ctx context.Context, req *mcp.CallToolRequest, input seriesInput) (*mcp.CallToolResult, sessionsOutput, error) {
	sessions, err := s.repo.ListSessions(ctx, input.SeriesID)
	if err != nil {
		return nil, sessionsOutput{}, fmt.Errorf("failed to list sessions: %w", err)
	}

	out := sessionsOutput{Sessions: make([]sessionEntry, 0, len(sessions))}
	for _, sess := range sessions {
		out.Sessions = append(out.Sessions, sessionEntry{
			Session:           sess,
			DurationFormatted: sess.Duration(),
			BeforeLabel:       sess.IntensityBefore.String(),
			AfterLabel:        sess.IntensityAfter.String(),
		})
	}
	return nil, out, nil
}

func (s *Server) handleDeleteSeries(ctx context.Context, req *mcp.CallToolRequest, input seriesInput) (*mcp.CallToolResult, simpleOutput, error) {
	series, err := s.repo.GetSeries(ctx, input.SeriesID)
	if err != nil {
		return nil, simpleOutput{}, fmt.Errorf("failed to get series: %w", err)
	}
	if series == nil {
		return nil, simpleOutput{}, fmt.Errorf("series not found: %d", input.SeriesID)
	}
	if !s.repo.DeleteSeries(ctx, input.SeriesID) {
		return nil, simpleOutput{}, fmt.Errorf("failed to delete series %d", input.SeriesID)
	}

	return nil, simpleOutput{
		Message: fmt.Sprintf("Deleted series %d (%s)", series.ID, series.Name),
	}, nil
}
