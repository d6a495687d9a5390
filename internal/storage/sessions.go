// ABOUTME: Session log: append-only practice records per series.
// ABOUTME: Effective minutes snapshot the series' prescribed total at insert time.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/harperreed/therapose/internal/models"
)

// RecordSession appends a session to its series. The session's ID and
// EffectiveMinutes are filled in on success. Sessions past the recommended
// count are accepted; see RecordOpenSession.
func (d *DB) RecordSession(ctx context.Context, s *models.Session) error {
	return d.recordSession(ctx, s, false)
}

// RecordOpenSession is RecordSession for series that still take sessions.
// It returns ErrSeriesNotFound for an unknown series and ErrSeriesComplete
// once the recommended count is reached. The completion check and the insert
// share one transaction.
func (d *DB) RecordOpenSession(ctx context.Context, s *models.Session) error {
	return d.recordSession(ctx, s, true)
}

func (d *DB) recordSession(ctx context.Context, s *models.Session, requireOpen bool) error {
	if err := s.Validate(); err != nil {
		return invalid("record session", err)
	}
	if s.Date.IsZero() {
		s.WithDate(time.Now())
	}

	err := d.withTx(ctx, func(tx *sql.Tx) error {
		if requireOpen {
			p, err := seriesProgress(ctx, tx, s.SeriesID)
			if err != nil {
				return err
			}
			if err := checkOpen(p, s.SeriesID); err != nil {
				return err
			}
		}

		total, err := totalPrescribedMinutes(ctx, tx, s.SeriesID)
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO sessions (series_id, session_date, start_time, end_time,
			                      intensity_before, intensity_after, comment, effective_minutes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			s.SeriesID,
			s.Date.Format(models.DateLayout),
			nullString(s.StartTime),
			nullString(s.EndTime),
			int(s.IntensityBefore),
			int(s.IntensityAfter),
			s.Comment,
			float64(total),
		)
		if err != nil {
			return wrapWriteErr("insert session", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("session id: %w", err)
		}
		s.ID = id
		s.EffectiveMinutes = float64(total)
		return nil
	})
	if err != nil {
		return fmt.Errorf("record session: %w", err)
	}

	d.log.Info("session recorded", "series_id", s.SeriesID, "session_id", s.ID,
		"effective_minutes", s.EffectiveMinutes)
	return nil
}

func checkOpen(p *models.SeriesProgress, seriesID int64) error {
	if p == nil {
		return fmt.Errorf("%w: %d", ErrSeriesNotFound, seriesID)
	}
	if p.Complete {
		return fmt.Errorf("%w: %d of %d sessions done", ErrSeriesComplete, p.SessionsCompleted, p.RecommendedSessions)
	}
	return nil
}

// ListSessions returns the sessions of a series ordered by date, then start
// time.
func (d *DB) ListSessions(ctx context.Context, seriesID int64) ([]*models.Session, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, series_id, session_date, start_time, end_time,
		       intensity_before, intensity_after, comment, effective_minutes
		FROM sessions
		WHERE series_id = ?
		ORDER BY session_date, start_time
	`, seriesID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []*models.Session{}
	for rows.Next() {
		var (
			s                models.Session
			date, start, end sql.NullString
			before, after    sql.NullInt64
			comment          sql.NullString
			effective        sql.NullFloat64
		)
		if err := rows.Scan(&s.ID, &s.SeriesID, &date, &start, &end,
			&before, &after, &comment, &effective); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		s.Date = parseDate(date.String)
		s.StartTime = clockString(start.String)
		s.EndTime = clockString(end.String)
		s.IntensityBefore = models.Intensity(before.Int64)
		s.IntensityAfter = models.Intensity(after.Int64)
		s.Comment = comment.String
		s.EffectiveMinutes = effective.Float64
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// parseDate accepts the stored date layout and the RFC3339 text the driver
// produces when a DATE column is read back as a time.
func parseDate(s string) time.Time {
	for _, layout := range []string{models.DateLayout, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		}
	}
	return time.Time{}
}

// clockString normalizes a TIME column to HH:MM:SS.
func clockString(s string) string {
	if s == "" {
		return ""
	}
	if _, err := time.Parse(models.ClockLayout, s); err == nil {
		return s
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.Format(models.ClockLayout)
	}
	return s
}
