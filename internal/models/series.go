// ABOUTME: Therapeutic series models: prescription input, stored series, and progress.
// ABOUTME: Completion is derived from session count, never stored.
package models

import (
	"errors"
	"fmt"
	"strings"
)

// SeriesPosture is one step of a series prescription.
type SeriesPosture struct {
	PostureID       int64  `json:"posture_id" yaml:"posture_id"`
	Order           int    `json:"order" yaml:"order"`
	DurationMinutes int    `json:"duration_minutes" yaml:"duration_minutes"`
	Name            string `json:"name,omitempty" yaml:"name,omitempty"`
	SanskritName    string `json:"sanskrit_name,omitempty" yaml:"sanskrit_name,omitempty"`
}

// NewSeries is the input for prescribing a series to a patient.
type NewSeries struct {
	Name                string
	TherapyType         TherapyType
	RecommendedSessions int
	PatientID           string
	Postures            []SeriesPosture
}

// Validate checks the prescription before anything is written.
func (n NewSeries) Validate() error {
	var errs []error
	if strings.TrimSpace(n.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if n.PatientID == "" {
		errs = append(errs, errors.New("patient id is required"))
	}
	if !n.TherapyType.IsValid() {
		errs = append(errs, fmt.Errorf("unknown therapy type %q", n.TherapyType))
	}
	if n.RecommendedSessions <= 0 {
		errs = append(errs, fmt.Errorf("recommended sessions must be positive, got %d", n.RecommendedSessions))
	}
	for _, p := range n.Postures {
		if p.Order < 1 {
			errs = append(errs, fmt.Errorf("posture %d: order must be 1 or greater, got %d", p.PostureID, p.Order))
		}
		if p.DurationMinutes <= 0 {
			errs = append(errs, fmt.Errorf("posture %d: duration must be positive, got %d", p.PostureID, p.DurationMinutes))
		}
	}
	return errors.Join(errs...)
}

// Series is a stored therapeutic series.
type Series struct {
	ID                  int64       `json:"id" yaml:"id"`
	Name                string      `json:"name" yaml:"name"`
	TherapyType         TherapyType `json:"therapy_type" yaml:"therapy_type"`
	RecommendedSessions int         `json:"recommended_sessions" yaml:"recommended_sessions"`
	PatientID           string      `json:"patient_id" yaml:"patient_id"`
	Active              bool        `json:"active" yaml:"active"`
}

// SeriesProgress is a series annotated with its derived completion state.
type SeriesProgress struct {
	Series            `yaml:",inline"`
	SessionsCompleted int  `json:"sessions_completed" yaml:"sessions_completed"`
	Complete          bool `json:"series_complete" yaml:"series_complete"`
}

// NewSeriesProgress derives completion from the session count.
func NewSeriesProgress(s Series, sessionsCompleted int) *SeriesProgress {
	return &SeriesProgress{
		Series:            s,
		SessionsCompleted: sessionsCompleted,
		Complete:          IsComplete(sessionsCompleted, s.RecommendedSessions),
	}
}

// IsComplete reports whether enough sessions were logged.
func IsComplete(sessionsCompleted, recommended int) bool {
	return sessionsCompleted >= recommended
}

// Remaining returns how many sessions are left, never negative.
func (p SeriesProgress) Remaining() int {
	if p.Complete {
		return 0
	}
	return p.RecommendedSessions - p.SessionsCompleted
}
