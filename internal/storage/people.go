// ABOUTME: Instructor and patient CRUD for SQLite storage.
// ABOUTME: Patient deletion cascades through series, sessions, and assignments in one transaction.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/therapose/internal/models"
)

// personTable is one of the two profile tables.
type personTable string

const (
	instructorsTable personTable = "instructors"
	patientsTable    personTable = "patients"
)

const profileColumns = "id, username, email, first_name, last_name, birth_date, gender, phone, created_at"

func (d *DB) insertProfile(ctx context.Context, table personTable, p *models.Profile) error {
	if strings.TrimSpace(p.ID) == "" || strings.TrimSpace(p.Username) == "" || strings.TrimSpace(p.Email) == "" {
		return invalid("add "+string(table), fmt.Errorf("id, username, and email are required"))
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := d.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, table, profileColumns),
		p.ID,
		p.Username,
		p.Email,
		p.FirstName,
		p.LastName,
		p.BirthDate,
		p.Gender,
		p.Phone,
		p.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return wrapWriteErr("add "+string(table), err)
	}
	d.log.Debug("profile added", "table", string(table), "username", p.Username)
	return nil
}

// AddInstructor stores a new instructor.
func (d *DB) AddInstructor(ctx context.Context, i *models.Instructor) error {
	return d.insertProfile(ctx, instructorsTable, &i.Profile)
}

// AddPatient stores a new patient.
func (d *DB) AddPatient(ctx context.Context, p *models.Patient) error {
	return d.insertProfile(ctx, patientsTable, &p.Profile)
}

// GetInstructor retrieves an instructor by id. Returns nil when absent.
func (d *DB) GetInstructor(ctx context.Context, id string) (*models.Instructor, error) {
	p, err := d.getProfile(ctx, instructorsTable, id)
	if err != nil || p == nil {
		return nil, err
	}
	return &models.Instructor{Profile: *p}, nil
}

// GetPatient retrieves a patient by id. Returns nil when absent.
func (d *DB) GetPatient(ctx context.Context, id string) (*models.Patient, error) {
	p, err := d.getProfile(ctx, patientsTable, id)
	if err != nil || p == nil {
		return nil, err
	}
	return &models.Patient{Profile: *p}, nil
}

func (d *DB) getProfile(ctx context.Context, table personTable, id string) (*models.Profile, error) {
	row := d.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", profileColumns, table), id)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", table, err)
	}
	return p, nil
}

// ListInstructors returns all instructors ordered by username.
func (d *DB) ListInstructors(ctx context.Context) ([]*models.Instructor, error) {
	profiles, err := d.listProfiles(ctx, fmt.Sprintf(
		"SELECT %s FROM instructors ORDER BY username", profileColumns))
	if err != nil {
		return nil, fmt.Errorf("list instructors: %w", err)
	}
	out := make([]*models.Instructor, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, &models.Instructor{Profile: *p})
	}
	return out, nil
}

// ListPatients returns all patients ordered by username.
func (d *DB) ListPatients(ctx context.Context) ([]*models.Patient, error) {
	profiles, err := d.listProfiles(ctx, fmt.Sprintf(
		"SELECT %s FROM patients ORDER BY username", profileColumns))
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return toPatients(profiles), nil
}

func (d *DB) listProfiles(ctx context.Context, query string, args ...any) ([]*models.Profile, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// UpdatePatient applies a sparse update. Only supplied fields change; an
// empty update does nothing. Updating an unknown id is not an error.
func (d *DB) UpdatePatient(ctx context.Context, id string, u models.PatientUpdate) error {
	if u.IsEmpty() {
		return nil
	}

	var sets []string
	var args []any
	add := func(column string, v *string) {
		if v != nil {
			sets = append(sets, column+" = ?")
			args = append(args, *v)
		}
	}
	add("username", u.Username)
	add("email", u.Email)
	add("first_name", u.FirstName)
	add("last_name", u.LastName)
	add("birth_date", u.BirthDate)
	add("gender", u.Gender)
	add("phone", u.Phone)
	args = append(args, id)

	query := fmt.Sprintf("UPDATE patients SET %s WHERE id = ?", strings.Join(sets, ", "))
	if _, err := d.db.ExecContext(ctx, query, args...); err != nil {
		return wrapWriteErr("update patient", err)
	}
	return nil
}

// DeletePatient removes a patient together with their assignments, series,
// series postures, and sessions in one transaction. It returns the identity
// provider id the caller must revoke, and false when no such patient exists.
// On failure nothing is deleted.
func (d *DB) DeletePatient(ctx context.Context, id string) (string, bool, error) {
	var identityID string
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, "SELECT id FROM patients WHERE id = ?", id).Scan(&identityID)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("find patient: %w", err)
		}

		// Children before parents; foreign keys are enforced.
		steps := []struct {
			what  string
			query string
		}{
			{"sessions", `DELETE FROM sessions WHERE series_id IN (SELECT id FROM therapy_series WHERE patient_id = ?)`},
			{"series postures", `DELETE FROM series_postures WHERE series_id IN (SELECT id FROM therapy_series WHERE patient_id = ?)`},
			{"series", `DELETE FROM therapy_series WHERE patient_id = ?`},
			{"assignments", `DELETE FROM instructor_patients WHERE patient_id = ?`},
			{"patient", `DELETE FROM patients WHERE id = ?`},
		}
		for _, s := range steps {
			if _, err := tx.ExecContext(ctx, s.query, id); err != nil {
				return fmt.Errorf("delete %s: %w", s.what, err)
			}
		}
		return nil
	})
	if err != nil {
		d.log.Error("delete patient rolled back", "patient_id", id, "error", err)
		return "", false, fmt.Errorf("delete patient: %w", err)
	}
	if identityID == "" {
		return "", false, nil
	}
	d.log.Info("patient deleted", "patient_id", id)
	return identityID, true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*models.Profile, error) {
	var p models.Profile
	var createdAt sql.NullString
	if err := row.Scan(&p.ID, &p.Username, &p.Email, &p.FirstName, &p.LastName,
		&p.BirthDate, &p.Gender, &p.Phone, &createdAt); err != nil {
		return nil, err
	}
	p.CreatedAt = parseTimestamp(createdAt.String)
	return &p, nil
}

// parseTimestamp accepts RFC3339 (written by this package) and SQLite's
// CURRENT_TIMESTAMP format (rows written by older revisions).
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func toPatients(profiles []*models.Profile) []*models.Patient {
	out := make([]*models.Patient, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, &models.Patient{Profile: *p})
	}
	return out
}
