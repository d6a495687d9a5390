// ABOUTME: Export functionality for therapy data.
// ABOUTME: Supports JSON, YAML, and Markdown export formats.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/therapose/internal/models"
	"gopkg.in/yaml.v3"
)

// ExportData represents the full export format for therapy data.
type ExportData struct {
	Version     string               `json:"version" yaml:"version"`
	ExportedAt  time.Time            `json:"exported_at" yaml:"exported_at"`
	Tool        string               `json:"tool" yaml:"tool"`
	Instructors []*models.Instructor `json:"instructors" yaml:"instructors"`
	Patients    []*models.Patient    `json:"patients" yaml:"patients"`
	Assignments []*models.Assignment `json:"assignments" yaml:"assignments"`
	Series      []*ExportSeries      `json:"series" yaml:"series"`
}

// ExportSeries is a series with its prescription and session log.
type ExportSeries struct {
	models.SeriesProgress `yaml:",inline"`
	Postures              []models.SeriesPosture `json:"postures" yaml:"postures"`
	Sessions              []*models.Session      `json:"sessions" yaml:"sessions"`
}

// GetAllData retrieves all data for export.
func (d *DB) GetAllData(ctx context.Context) (*ExportData, error) {
	instructors, err := d.ListInstructors(ctx)
	if err != nil {
		return nil, err
	}
	patients, err := d.ListPatients(ctx)
	if err != nil {
		return nil, err
	}
	assignments, err := d.ListAssignments(ctx)
	if err != nil {
		return nil, err
	}
	all, err := d.ListAllSeries(ctx)
	if err != nil {
		return nil, err
	}

	series := make([]*ExportSeries, 0, len(all))
	for _, s := range all {
		postures, err := d.ListSeriesPostures(ctx, s.ID)
		if err != nil {
			return nil, err
		}
		sessions, err := d.ListSessions(ctx, s.ID)
		if err != nil {
			return nil, err
		}
		series = append(series, &ExportSeries{
			SeriesProgress: *s,
			Postures:       postures,
			Sessions:       sessions,
		})
	}

	return &ExportData{
		Version:     "1.0",
		ExportedAt:  time.Now(),
		Tool:        "therapose",
		Instructors: instructors,
		Patients:    patients,
		Assignments: assignments,
		Series:      series,
	}, nil
}

// ExportJSON exports all data as JSON.
func (d *DB) ExportJSON(ctx context.Context) ([]byte, error) {
	data, err := d.GetAllData(ctx)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(data, "", "  ")
}

// ExportYAML exports all data as YAML.
func (d *DB) ExportYAML(ctx context.Context) ([]byte, error) {
	data, err := d.GetAllData(ctx)
	if err != nil {
		return nil, err
	}

	// Dates read better as plain strings in YAML
	yamlData := struct {
		Version     string               `yaml:"version"`
		ExportedAt  string               `yaml:"exported_at"`
		Tool        string               `yaml:"tool"`
		Instructors []*models.Instructor `yaml:"instructors"`
		Patients    []*models.Patient    `yaml:"patients"`
		Assignments []*models.Assignment `yaml:"assignments"`
		Series      []yamlSeries         `yaml:"series"`
	}{
		Version:     data.Version,
		ExportedAt:  data.ExportedAt.Format(time.RFC3339),
		Tool:        data.Tool,
		Instructors: data.Instructors,
		Patients:    data.Patients,
		Assignments: data.Assignments,
		Series:      make([]yamlSeries, 0, len(data.Series)),
	}

	for _, s := range data.Series {
		ys := yamlSeries{
			ID:                  s.ID,
			Name:                s.Name,
			TherapyType:         string(s.TherapyType),
			PatientID:           s.PatientID,
			RecommendedSessions: s.RecommendedSessions,
			SessionsCompleted:   s.SessionsCompleted,
			Complete:            s.Complete,
			Active:              s.Active,
			Postures:            s.Postures,
		}
		for _, sess := range s.Sessions {
			ys.Sessions = append(ys.Sessions, yamlSession{
				Date:            sess.Date.Format(models.DateLayout),
				StartTime:       sess.StartTime,
				EndTime:         sess.EndTime,
				IntensityBefore: sess.IntensityBefore.String(),
				IntensityAfter:  sess.IntensityAfter.String(),
				Duration:        sess.Duration(),
				Comment:         sess.Comment,
			})
		}
		yamlData.Series = append(yamlData.Series, ys)
	}

	return yaml.Marshal(yamlData)
}

type yamlSeries struct {
	ID                  int64                  `yaml:"id"`
	Name                string                 `yaml:"name"`
	TherapyType         string                 `yaml:"therapy_type"`
	PatientID           string                 `yaml:"patient_id"`
	RecommendedSessions int                    `yaml:"recommended_sessions"`
	SessionsCompleted   int                    `yaml:"sessions_completed"`
	Complete            bool                   `yaml:"complete"`
	Active              bool                   `yaml:"active"`
	Postures            []models.SeriesPosture `yaml:"postures"`
	Sessions            []yamlSession          `yaml:"sessions,omitempty"`
}

type yamlSession struct {
	Date            string `yaml:"date"`
	StartTime       string `yaml:"start_time,omitempty"`
	EndTime         string `yaml:"end_time,omitempty"`
	IntensityBefore string `yaml:"intensity_before"`
	IntensityAfter  string `yaml:"intensity_after"`
	Duration        string `yaml:"duration"`
	Comment         string `yaml:"comment,omitempty"`
}

// ExportMarkdown renders each patient's series and sessions as Markdown.
// An empty patientID exports every patient.
func (d *DB) ExportMarkdown(ctx context.Context, patientID string) (string, error) {
	data, err := d.GetAllData(ctx)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	now := time.Now()

	sb.WriteString(fmt.Sprintf("# Therapy Export - %s\n\n", now.Format("2006-01-02")))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", now.Format(time.RFC3339)))

	for _, p := range data.Patients {
		if patientID != "" && p.ID != patientID {
			continue
		}
		sb.WriteString(fmt.Sprintf("## %s (%s)\n\n", p.FullName(), p.Username))

		wrote := false
		for _, s := range data.Series {
			if s.PatientID != p.ID {
				continue
			}
			wrote = true
			status := "in progress"
			if s.Complete {
				status = "complete"
			}
			if !s.Active {
				status += ", retired"
			}
			sb.WriteString(fmt.Sprintf("### %s - %s\n\n", s.Name, s.TherapyType))
			sb.WriteString(fmt.Sprintf("Sessions: %d/%d (%s)\n\n",
				s.SessionsCompleted, s.RecommendedSessions, status))

			if len(s.Postures) > 0 {
				sb.WriteString("| # | Posture | Minutes |\n")
				sb.WriteString("|---|---------|---------|\n")
				for _, sp := range s.Postures {
					sb.WriteString(fmt.Sprintf("| %d | %s | %d |\n", sp.Order, sp.Name, sp.DurationMinutes))
				}
				sb.WriteString("\n")
			}

			if len(s.Sessions) > 0 {
				sb.WriteString("| Date | Before | After | Duration | Comment |\n")
				sb.WriteString("|------|--------|-------|----------|---------|\n")
				for _, sess := range s.Sessions {
					sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
						sess.Date.Format(models.DateLayout),
						sess.IntensityBefore, sess.IntensityAfter,
						sess.Duration(), sess.Comment))
				}
				sb.WriteString("\n")
			}
		}
		if !wrote {
			sb.WriteString("No series prescribed.\n\n")
		}
	}

	return sb.String(), nil
}
