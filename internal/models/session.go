// ABOUTME: Practice session model, intensity scale, and duration formatting.
// ABOUTME: Effective minutes are a snapshot of the series' prescribed total.
package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Intensity is the patient-reported pain level on a 0-4 scale.
type Intensity int

const (
	IntensityNone Intensity = iota
	IntensityMild
	IntensityModerate
	IntensityIntense
	IntensityMaximal
)

// IntensityLabels are the display labels indexed by Intensity.
var IntensityLabels = []string{
	"No pain",
	"Mild",
	"Moderate",
	"Intense",
	"Maximal pain",
}

// IsValid reports whether i is on the 0-4 scale.
func (i Intensity) IsValid() bool {
	return i >= IntensityNone && i <= IntensityMaximal
}

// String returns the display label.
func (i Intensity) String() string {
	if !i.IsValid() {
		return fmt.Sprintf("Intensity(%d)", int(i))
	}
	return IntensityLabels[i]
}

// DateLayout and ClockLayout are the stored formats for session dates and times.
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04:05"
)

// Session is one completed practice of a series.
type Session struct {
	ID               int64     `json:"id" yaml:"id"`
	SeriesID         int64     `json:"series_id" yaml:"series_id"`
	Date             time.Time `json:"date" yaml:"date"`
	StartTime        string    `json:"start_time,omitempty" yaml:"start_time,omitempty"`
	EndTime          string    `json:"end_time,omitempty" yaml:"end_time,omitempty"`
	IntensityBefore  Intensity `json:"intensity_before" yaml:"intensity_before"`
	IntensityAfter   Intensity `json:"intensity_after" yaml:"intensity_after"`
	Comment          string    `json:"comment" yaml:"comment"`
	EffectiveMinutes float64   `json:"effective_minutes" yaml:"effective_minutes"`
}

// NewSession creates a session dated today.
func NewSession(seriesID int64, before, after Intensity, comment string) *Session {
	now := time.Now()
	return &Session{
		SeriesID:        seriesID,
		Date:            time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		IntensityBefore: before,
		IntensityAfter:  after,
		Comment:         comment,
	}
}

// WithDate sets the session date, dropping the time of day.
func (s *Session) WithDate(t time.Time) *Session {
	s.Date = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return s
}

// WithTimes sets the start and end clock times (HH:MM:SS).
func (s *Session) WithTimes(start, end string) *Session {
	s.StartTime = start
	s.EndTime = end
	return s
}

// Validate checks intensities and clock formats.
func (s *Session) Validate() error {
	var errs []error
	if s.SeriesID <= 0 {
		errs = append(errs, errors.New("series id is required"))
	}
	if !s.IntensityBefore.IsValid() {
		errs = append(errs, fmt.Errorf("intensity before must be 0-4, got %d", s.IntensityBefore))
	}
	if !s.IntensityAfter.IsValid() {
		errs = append(errs, fmt.Errorf("intensity after must be 0-4, got %d", s.IntensityAfter))
	}
	for _, c := range []string{s.StartTime, s.EndTime} {
		if c == "" {
			continue
		}
		if _, err := time.Parse(ClockLayout, c); err != nil {
			errs = append(errs, fmt.Errorf("invalid time %q (use HH:MM:SS)", c))
		}
	}
	return errors.Join(errs...)
}

// Duration returns the formatted effective duration.
func (s *Session) Duration() string {
	return FormatDuration(s.EffectiveMinutes)
}

// SplitDuration splits fractional minutes into whole minutes and seconds
// rounded to the nearest second. A remainder that rounds to 60 seconds
// carries into the minutes.
func SplitDuration(minutes float64) (int, int) {
	if minutes <= 0 {
		return 0, 0
	}
	whole := math.Floor(minutes)
	secs := int(math.Round((minutes - whole) * 60))
	mins := int(whole)
	if secs == 60 {
		mins++
		secs = 0
	}
	return mins, secs
}

// FormatDuration renders minutes as "12 min" or "12 min 30 sec".
func FormatDuration(minutes float64) string {
	mins, secs := SplitDuration(minutes)
	if secs == 0 {
		return fmt.Sprintf("%d min", mins)
	}
	return fmt.Sprintf("%d min %d sec", mins, secs)
}
