// ABOUTME: Shared fixtures for storage tests.
// ABOUTME: Opens a fresh SQLite database per test and seeds people and series.
package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/harperreed/therapose/internal/models"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "therapose.db"))
	require.NoError(t, err, "open database")
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func addPatient(t *testing.T, db *DB, id, username string) *models.Patient {
	t.Helper()

	p := models.NewPatient(id, username, username+"@example.com", username, "Tester")
	require.NoError(t, db.AddPatient(context.Background(), p))
	return p
}

func addInstructor(t *testing.T, db *DB, id, username string) *models.Instructor {
	t.Helper()

	i := models.NewInstructor(id, username, username+"@example.com", username, "Guide")
	require.NoError(t, db.AddInstructor(context.Background(), i))
	return i
}

// anxietyPostures returns the first n catalog postures offered for anxiety.
func anxietyPostures(t *testing.T, db *DB, n int) []models.PostureRef {
	t.Helper()

	refs, err := db.PosturesForTherapyType(context.Background(), models.TherapyAnxiety)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(refs), n)
	return refs[:n]
}

// createS1 prescribes the two-posture, three-session series used by most tests.
func createS1(t *testing.T, db *DB, patientID string) int64 {
	t.Helper()

	refs := anxietyPostures(t, db, 2)
	id, err := db.CreateSeries(context.Background(), models.NewSeries{
		Name:                "S1",
		TherapyType:         models.TherapyAnxiety,
		RecommendedSessions: 3,
		PatientID:           patientID,
		Postures: []models.SeriesPosture{
			{PostureID: refs[0].ID, Order: 1, DurationMinutes: 5},
			{PostureID: refs[1].ID, Order: 2, DurationMinutes: 10},
		},
	})
	require.NoError(t, err)
	return id
}

func countRows(t *testing.T, db *DB, query string, args ...any) int {
	t.Helper()

	var n int
	require.NoError(t, db.db.QueryRowContext(context.Background(), query, args...).Scan(&n))
	return n
}
