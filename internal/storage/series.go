// ABOUTME: Therapeutic series engine: prescription, lookup, progress, and deletion.
// ABOUTME: Enforces one active series per patient; completion is derived on read.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/harperreed/therapose/internal/models"
)

// progressColumns selects a series with its derived session count.
const progressColumns = `
	st.id, st.name, st.therapy_type, st.recommended_sessions, st.patient_id, st.active,
	(SELECT COUNT(*) FROM sessions s WHERE s.series_id = st.id) AS sessions_completed`

// CreateSeries prescribes a new active series to a patient. It fails with
// ErrSeriesAlreadyActive when the patient already has one. Any prior series
// are deactivated, and the series and its postures are written atomically.
func (d *DB) CreateSeries(ctx context.Context, n models.NewSeries) (int64, error) {
	if err := n.Validate(); err != nil {
		return 0, invalid("create series", err)
	}

	var id int64
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		active, err := activeSeries(ctx, tx, n.PatientID)
		if err != nil {
			return err
		}
		if active != nil {
			return fmt.Errorf("%w (series %d)", ErrSeriesAlreadyActive, active.ID)
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE therapy_series SET active = 0 WHERE patient_id = ?", n.PatientID); err != nil {
			return fmt.Errorf("deactivate previous series: %w", err)
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO therapy_series (name, therapy_type, recommended_sessions, patient_id, active)
			VALUES (?, ?, ?, ?, 1)
		`, n.Name, string(n.TherapyType), n.RecommendedSessions, n.PatientID)
		if err != nil {
			return wrapWriteErr("insert series", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("series id: %w", err)
		}

		for _, p := range n.Postures {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO series_postures (series_id, posture_id, sort_order, duration_minutes)
				VALUES (?, ?, ?, ?)
			`, id, p.PostureID, p.Order, p.DurationMinutes); err != nil {
				return wrapWriteErr(fmt.Sprintf("insert posture %d", p.PostureID), err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSeriesAlreadyActive) || errors.Is(err, ErrUniqueViolation) {
			return 0, fmt.Errorf("create series: %w", err)
		}
		d.log.Error("create series rolled back", "patient_id", n.PatientID, "error", err)
		return 0, fmt.Errorf("create series: %w", err)
	}

	d.log.Info("series created", "series_id", id, "patient_id", n.PatientID,
		"therapy_type", string(n.TherapyType), "postures", len(n.Postures))
	return id, nil
}

func activeSeries(ctx context.Context, q queryer, patientID string) (*models.Series, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, name, therapy_type, recommended_sessions, patient_id, active
		FROM therapy_series
		WHERE patient_id = ? AND active = 1
		ORDER BY id DESC
		LIMIT 1
	`, patientID)
	s, err := scanSeries(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active series: %w", err)
	}
	return s, nil
}

// GetActiveSeries returns the patient's active series, or nil.
func (d *DB) GetActiveSeries(ctx context.Context, patientID string) (*models.Series, error) {
	return activeSeries(ctx, d.db, patientID)
}

// GetSeries retrieves a series by id, active or not. Returns nil when absent.
func (d *DB) GetSeries(ctx context.Context, id int64) (*models.Series, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT id, name, therapy_type, recommended_sessions, patient_id, active
		FROM therapy_series WHERE id = ?
	`, id)
	s, err := scanSeries(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get series: %w", err)
	}
	return s, nil
}

// ListSeriesForPatient returns the patient's active series annotated with
// sessions completed and completion state.
func (d *DB) ListSeriesForPatient(ctx context.Context, patientID string) ([]*models.SeriesProgress, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT`+progressColumns+`
		FROM therapy_series st
		WHERE st.patient_id = ? AND st.active = 1
		ORDER BY st.id
	`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	defer rows.Close()

	var out []*models.SeriesProgress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SeriesProgress returns one series with its derived progress, or nil.
func (d *DB) SeriesProgress(ctx context.Context, seriesID int64) (*models.SeriesProgress, error) {
	return seriesProgress(ctx, d.db, seriesID)
}

func seriesProgress(ctx context.Context, q queryer, seriesID int64) (*models.SeriesProgress, error) {
	row := q.QueryRowContext(ctx, `
		SELECT`+progressColumns+`
		FROM therapy_series st
		WHERE st.id = ?
	`, seriesID)
	p, err := scanProgress(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("series progress: %w", err)
	}
	return p, nil
}

// ListSeriesPostures returns the prescription of a series sorted by order.
func (d *DB) ListSeriesPostures(ctx context.Context, seriesID int64) ([]models.SeriesPosture, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT p.id, p.name, COALESCE(p.sanskrit_name, ''), sp.sort_order, sp.duration_minutes
		FROM postures p
		JOIN series_postures sp ON p.id = sp.posture_id
		WHERE sp.series_id = ?
		ORDER BY sp.sort_order
	`, seriesID)
	if err != nil {
		return nil, fmt.Errorf("list series postures: %w", err)
	}
	defer rows.Close()

	out := []models.SeriesPosture{}
	for rows.Next() {
		var sp models.SeriesPosture
		if err := rows.Scan(&sp.PostureID, &sp.Name, &sp.SanskritName, &sp.Order, &sp.DurationMinutes); err != nil {
			return nil, fmt.Errorf("scan series posture: %w", err)
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

// TotalPrescribedMinutes sums the posture durations of a series. A series
// without postures totals 0.
func (d *DB) TotalPrescribedMinutes(ctx context.Context, seriesID int64) (int, error) {
	return totalPrescribedMinutes(ctx, d.db, seriesID)
}

func totalPrescribedMinutes(ctx context.Context, q queryer, seriesID int64) (int, error) {
	var total int
	err := q.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(duration_minutes), 0) FROM series_postures WHERE series_id = ?",
		seriesID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total prescribed minutes: %w", err)
	}
	return total, nil
}

// DeleteSeries removes a series with its sessions and postures, children
// first, in one transaction. It reports false when the transaction failed
// and was rolled back; the cause is logged.
func (d *DB) DeleteSeries(ctx context.Context, seriesID int64) bool {
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range []string{
			"DELETE FROM sessions WHERE series_id = ?",
			"DELETE FROM series_postures WHERE series_id = ?",
			"DELETE FROM therapy_series WHERE id = ?",
		} {
			if _, err := tx.ExecContext(ctx, stmt, seriesID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		d.log.Error("delete series rolled back", "series_id", seriesID, "error", err)
		return false
	}
	d.log.Info("series deleted", "series_id", seriesID)
	return true
}

// ListAllSeries returns every series, active or retired, with progress.
func (d *DB) ListAllSeries(ctx context.Context) ([]*models.SeriesProgress, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT`+progressColumns+`
		FROM therapy_series st
		ORDER BY st.id
	`)
	if err != nil {
		return nil, fmt.Errorf("list all series: %w", err)
	}
	defer rows.Close()

	var out []*models.SeriesProgress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanSeries(row rowScanner) (*models.Series, error) {
	var s models.Series
	var therapyType string
	var active sql.NullBool
	if err := row.Scan(&s.ID, &s.Name, &therapyType, &s.RecommendedSessions, &s.PatientID, &active); err != nil {
		return nil, err
	}
	s.TherapyType = models.TherapyType(therapyType)
	s.Active = !active.Valid || active.Bool
	return &s, nil
}

func scanProgress(row rowScanner) (*models.SeriesProgress, error) {
	var s models.Series
	var therapyType string
	var active sql.NullBool
	var completed int
	if err := row.Scan(&s.ID, &s.Name, &therapyType, &s.RecommendedSessions,
		&s.PatientID, &active, &completed); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan series: %w", err)
	}
	s.TherapyType = models.TherapyType(therapyType)
	s.Active = !active.Valid || active.Bool
	return models.NewSeriesProgress(s, completed), nil
}
