// ABOUTME: Data migration between therapose databases.
// ABOUTME: Imports an export document or copies a whole source repository in one transaction.

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harperreed/therapose/internal/models"
)

// MigrateSummary holds counts of migrated entities.
type MigrateSummary struct {
	Instructors int
	Patients    int
	Assignments int
	Series      int
	Postures    int
	Sessions    int
}

// MigrateData copies all data from src into dst. The destination should not
// already hold the same people; collisions abort the whole copy.
func MigrateData(ctx context.Context, src Repository, dst *DB) (*MigrateSummary, error) {
	data, err := src.GetAllData(ctx)
	if err != nil {
		return nil, fmt.Errorf("read source data: %w", err)
	}
	return dst.ImportData(ctx, data)
}

// ImportJSON imports data from JSON bytes produced by ExportJSON.
func (d *DB) ImportJSON(ctx context.Context, raw []byte) (*MigrateSummary, error) {
	var data ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("unmarshal JSON: %w", err)
	}
	return d.ImportData(ctx, &data)
}

// ImportData writes an export document into the database. Series keep their
// active flag and sessions keep their recorded effective minutes; series ids
// are reassigned and postures are matched to the local catalog by name.
// Nothing is written when any record fails.
func (d *DB) ImportData(ctx context.Context, data *ExportData) (*MigrateSummary, error) {
	summary := &MigrateSummary{}

	err := d.withTx(ctx, func(tx *sql.Tx) error {
		for _, i := range data.Instructors {
			if err := importProfile(ctx, tx, instructorsTable, &i.Profile); err != nil {
				return err
			}
			summary.Instructors++
		}
		for _, p := range data.Patients {
			if err := importProfile(ctx, tx, patientsTable, &p.Profile); err != nil {
				return err
			}
			summary.Patients++
		}
		for _, a := range data.Assignments {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO instructor_patients (instructor_id, patient_id, created_at)
				VALUES (?, ?, ?)
			`, a.InstructorID, a.PatientID, a.CreatedAt.UTC().Format(time.RFC3339)); err != nil {
				return wrapWriteErr("import assignment", err)
			}
			summary.Assignments++
		}

		for _, s := range data.Series {
			res, err := tx.ExecContext(ctx, `
				INSERT INTO therapy_series (name, therapy_type, recommended_sessions, patient_id, active)
				VALUES (?, ?, ?, ?, ?)
			`, s.Name, string(s.TherapyType), s.RecommendedSessions, s.PatientID, s.Active)
			if err != nil {
				return wrapWriteErr(fmt.Sprintf("import series %d", s.ID), err)
			}
			seriesID, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("series id: %w", err)
			}
			summary.Series++

			for _, sp := range s.Postures {
				postureID, err := localPostureID(ctx, tx, sp)
				if err != nil {
					return err
				}
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO series_postures (series_id, posture_id, sort_order, duration_minutes)
					VALUES (?, ?, ?, ?)
				`, seriesID, postureID, sp.Order, sp.DurationMinutes); err != nil {
					return wrapWriteErr(fmt.Sprintf("import posture %q", sp.Name), err)
				}
				summary.Postures++
			}

			for _, sess := range s.Sessions {
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO sessions (series_id, session_date, start_time, end_time,
					                      intensity_before, intensity_after, comment, effective_minutes)
					VALUES (?, ?, ?, ?, ?, ?, ?, ?)
				`,
					seriesID,
					sess.Date.Format(models.DateLayout),
					nullString(sess.StartTime),
					nullString(sess.EndTime),
					int(sess.IntensityBefore),
					int(sess.IntensityAfter),
					sess.Comment,
					sess.EffectiveMinutes,
				); err != nil {
					return fmt.Errorf("import session %d: %w", sess.ID, err)
				}
				summary.Sessions++
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("import data: %w", err)
	}

	d.log.Info("import complete",
		"instructors", summary.Instructors,
		"patients", summary.Patients,
		"series", summary.Series,
		"sessions", summary.Sessions)
	return summary, nil
}

func importProfile(ctx context.Context, tx *sql.Tx, table personTable, p *models.Profile) error {
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := tx.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, table, profileColumns),
		p.ID, p.Username, p.Email, p.FirstName, p.LastName,
		p.BirthDate, p.Gender, p.Phone, createdAt.UTC().Format(time.RFC3339))
	if err != nil {
		return wrapWriteErr(fmt.Sprintf("import %s %s", table, p.Username), err)
	}
	return nil
}

// localPostureID resolves an exported posture to this catalog, by name
// first and by id when the export carries no name.
func localPostureID(ctx context.Context, tx *sql.Tx, sp models.SeriesPosture) (int64, error) {
	if sp.Name == "" {
		return sp.PostureID, nil
	}
	var id int64
	err := tx.QueryRowContext(ctx,
		"SELECT id FROM postures WHERE name = ? ORDER BY id LIMIT 1", sp.Name).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("import posture %q: not in catalog", sp.Name)
	}
	if err != nil {
		return 0, fmt.Errorf("find posture %q: %w", sp.Name, err)
	}
	return id, nil
}
