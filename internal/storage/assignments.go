// ABOUTME: Instructor-patient assignment ledger.
// ABOUTME: Links are unique per pair; listings join back to full profiles.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/therapose/internal/models"
)

// Assign links a patient to a supervising instructor.
func (d *DB) Assign(ctx context.Context, instructorID, patientID string) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO instructor_patients (instructor_id, patient_id, created_at)
		VALUES (?, ?, ?)
	`, instructorID, patientID, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return wrapWriteErr("assign patient", err)
	}
	return nil
}

// ListPatientsForInstructor returns the full records of every patient
// assigned to the instructor, in assignment order.
func (d *DB) ListPatientsForInstructor(ctx context.Context, instructorID string) ([]*models.Patient, error) {
	profiles, err := d.listProfiles(ctx, `
		SELECT p.id, p.username, p.email, p.first_name, p.last_name,
		       p.birth_date, p.gender, p.phone, p.created_at
		FROM patients p
		JOIN instructor_patients ip ON p.id = ip.patient_id
		WHERE ip.instructor_id = ?
		ORDER BY ip.id
	`, instructorID)
	if err != nil {
		return nil, fmt.Errorf("list patients for instructor: %w", err)
	}
	return toPatients(profiles), nil
}

// ListInstructorsForPatient returns every instructor supervising the patient.
func (d *DB) ListInstructorsForPatient(ctx context.Context, patientID string) ([]*models.Instructor, error) {
	profiles, err := d.listProfiles(ctx, `
		SELECT i.id, i.username, i.email, i.first_name, i.last_name,
		       i.birth_date, i.gender, i.phone, i.created_at
		FROM instructors i
		JOIN instructor_patients ip ON i.id = ip.instructor_id
		WHERE ip.patient_id = ?
		ORDER BY ip.id
	`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list instructors for patient: %w", err)
	}
	out := make([]*models.Instructor, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, &models.Instructor{Profile: *p})
	}
	return out, nil
}

// ListAssignments returns every assignment row.
func (d *DB) ListAssignments(ctx context.Context) ([]*models.Assignment, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, instructor_id, patient_id, created_at
		FROM instructor_patients
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var out []*models.Assignment
	for rows.Next() {
		var a models.Assignment
		var createdAt string
		if err := rows.Scan(&a.ID, &a.InstructorID, &a.PatientID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		a.CreatedAt = parseTimestamp(createdAt)
		out = append(out, &a)
	}
	return out, rows.Err()
}
