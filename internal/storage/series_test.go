// ABOUTME: Tests for the therapeutic series engine.
// ABOUTME: Covers the single-active rule, derived completion, and atomic deletion.
package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/harperreed/therapose/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeriesLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	addPatient(t, db, "p1", "alice")
	seriesID := createS1(t, db, "p1")

	total, err := db.TotalPrescribedMinutes(ctx, seriesID)
	require.NoError(t, err)
	assert.Equal(t, 15, total)

	progress, err := db.SeriesProgress(ctx, seriesID)
	require.NoError(t, err)
	require.NotNil(t, progress)
	assert.Equal(t, 0, progress.SessionsCompleted)
	assert.False(t, progress.Complete)
	assert.True(t, progress.Active)

	first := models.NewSession(seriesID, models.IntensityIntense, models.IntensityMild, "felt looser")
	require.NoError(t, db.RecordSession(ctx, first))
	assert.NotZero(t, first.ID)
	assert.Equal(t, 15.0, first.EffectiveMinutes)

	progress, err = db.SeriesProgress(ctx, seriesID)
	require.NoError(t, err)
	assert.Equal(t, 1, progress.SessionsCompleted)
	assert.False(t, progress.Complete)
	assert.Equal(t, 2, progress.Remaining())

	for i := 0; i < 2; i++ {
		require.NoError(t, db.RecordSession(ctx, models.NewSession(seriesID, 2, 1, "")))
	}

	list, err := db.ListSeriesForPatient(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 3, list[0].SessionsCompleted)
	assert.True(t, list[0].Complete)
	assert.Equal(t, 0, list[0].Remaining())
}

func TestCompletionTracksSessionCount(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	addPatient(t, db, "p1", "alice")
	seriesID := createS1(t, db, "p1")

	for i := 1; i <= 5; i++ {
		require.NoError(t, db.RecordSession(ctx, models.NewSession(seriesID, 1, 0, "")))

		p, err := db.SeriesProgress(ctx, seriesID)
		require.NoError(t, err)
		assert.Equal(t, i, p.SessionsCompleted)
		assert.Equal(t, i >= p.RecommendedSessions, p.Complete, "after %d sessions", i)
	}
}

func TestCreateSeriesRejectsSecondActive(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	addPatient(t, db, "p1", "alice")
	original := createS1(t, db, "p1")
	refs := anxietyPostures(t, db, 1)

	_, err := db.CreateSeries(ctx, models.NewSeries{
		Name:                "S2",
		TherapyType:         models.TherapyInsomnia,
		RecommendedSessions: 4,
		PatientID:           "p1",
		Postures:            []models.SeriesPosture{{PostureID: refs[0].ID, Order: 1, DurationMinutes: 3}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSeriesAlreadyActive), "got %v", err)

	active, err := db.GetActiveSeries(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, original, active.ID)
	assert.Equal(t, "S1", active.Name)
	assert.Equal(t, 1, countRows(t, db, "SELECT COUNT(*) FROM therapy_series"))
	assert.Equal(t, 1, countRows(t, db, "SELECT COUNT(*) FROM therapy_series WHERE patient_id = 'p1' AND active = 1"))

	postures, err := db.ListSeriesPostures(ctx, original)
	require.NoError(t, err)
	assert.Len(t, postures, 2)
}

func TestCreateSeriesAfterRetirement(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	addPatient(t, db, "p1", "alice")
	first := createS1(t, db, "p1")
	_, err := db.db.Exec("UPDATE therapy_series SET active = 0 WHERE id = ?", first)
	require.NoError(t, err)

	second := createS1(t, db, "p1")
	assert.NotEqual(t, first, second)

	list, err := db.ListSeriesForPatient(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 1, "only the active series is listed")
	assert.Equal(t, second, list[0].ID)

	all, err := db.ListAllSeries(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCreateSeriesDuplicateOrderRollsBack(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	addPatient(t, db, "p1", "alice")
	refs := anxietyPostures(t, db, 2)

	_, err := db.CreateSeries(ctx, models.NewSeries{
		Name:                "Clash",
		TherapyType:         models.TherapyAnxiety,
		RecommendedSessions: 2,
		PatientID:           "p1",
		Postures: []models.SeriesPosture{
			{PostureID: refs[0].ID, Order: 1, DurationMinutes: 5},
			{PostureID: refs[1].ID, Order: 1, DurationMinutes: 5},
		},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUniqueViolation), "got %v", err)
	assert.Zero(t, countRows(t, db, "SELECT COUNT(*) FROM therapy_series"))
	assert.Zero(t, countRows(t, db, "SELECT COUNT(*) FROM series_postures"))
}

func TestCreateSeriesValidation(t *testing.T) {
	db := setupTestDB(t)
	addPatient(t, db, "p1", "alice")

	tests := []struct {
		name string
		in   models.NewSeries
	}{
		{"empty name", models.NewSeries{TherapyType: models.TherapyAnxiety, RecommendedSessions: 3, PatientID: "p1"}},
		{"unknown therapy", models.NewSeries{Name: "X", TherapyType: "Vertigo", RecommendedSessions: 3, PatientID: "p1"}},
		{"zero sessions", models.NewSeries{Name: "X", TherapyType: models.TherapyAnxiety, PatientID: "p1"}},
		{"zero duration", models.NewSeries{Name: "X", TherapyType: models.TherapyAnxiety, RecommendedSessions: 3, PatientID: "p1",
			Postures: []models.SeriesPosture{{PostureID: 1, Order: 1, DurationMinutes: 0}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.CreateSeries(context.Background(), tt.in)
			assert.True(t, errors.Is(err, ErrInvalidInput), "got %v", err)
		})
	}
	assert.Zero(t, countRows(t, db, "SELECT COUNT(*) FROM therapy_series"))
}

func TestListSeriesPosturesOrdered(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	addPatient(t, db, "p1", "alice")
	refs := anxietyPostures(t, db, 3)

	id, err := db.CreateSeries(ctx, models.NewSeries{
		Name:                "Ordered",
		TherapyType:         models.TherapyAnxiety,
		RecommendedSessions: 2,
		PatientID:           "p1",
		Postures: []models.SeriesPosture{
			{PostureID: refs[0].ID, Order: 3, DurationMinutes: 1},
			{PostureID: refs[1].ID, Order: 1, DurationMinutes: 2},
			{PostureID: refs[2].ID, Order: 2, DurationMinutes: 3},
		},
	})
	require.NoError(t, err)

	postures, err := db.ListSeriesPostures(ctx, id)
	require.NoError(t, err)
	require.Len(t, postures, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{postures[0].Order, postures[1].Order, postures[2].Order})
	assert.Equal(t, refs[1].Name, postures[0].Name)
	assert.Equal(t, refs[1].SanskritName, postures[0].SanskritName)
}

func TestEmptySeriesTotalsZero(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	addPatient(t, db, "p1", "alice")
	id, err := db.CreateSeries(ctx, models.NewSeries{
		Name:                "Bare",
		TherapyType:         models.TherapyHeadache,
		RecommendedSessions: 1,
		PatientID:           "p1",
	})
	require.NoError(t, err)

	total, err := db.TotalPrescribedMinutes(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, total)

	s := models.NewSession(id, 0, 0, "")
	require.NoError(t, db.RecordSession(ctx, s))
	assert.Zero(t, s.EffectiveMinutes)
}

func TestMissingSeriesLookups(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	s, err := db.GetSeries(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, s)

	p, err := db.SeriesProgress(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, p)

	a, err := db.GetActiveSeries(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestDeleteSeriesCascades(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	addPatient(t, db, "p1", "alice")
	id := createS1(t, db, "p1")
	require.NoError(t, db.RecordSession(ctx, models.NewSession(id, 2, 1, "")))

	assert.True(t, db.DeleteSeries(ctx, id))

	assert.Zero(t, countRows(t, db, "SELECT COUNT(*) FROM series_postures WHERE series_id = ?", id))
	assert.Zero(t, countRows(t, db, "SELECT COUNT(*) FROM sessions WHERE series_id = ?", id))
	s, err := db.GetSeries(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, s)

	// The patient can be prescribed again.
	createS1(t, db, "p1")
}

func TestDeleteSeriesFailureIsAtomic(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	addPatient(t, db, "p1", "alice")
	id := createS1(t, db, "p1")
	require.NoError(t, db.RecordSession(ctx, models.NewSession(id, 2, 1, "")))

	_, err := db.db.Exec(`CREATE TRIGGER block_series_delete BEFORE DELETE ON therapy_series
		BEGIN SELECT RAISE(ABORT, 'blocked'); END`)
	require.NoError(t, err)

	assert.False(t, db.DeleteSeries(ctx, id))

	assert.Equal(t, 2, countRows(t, db, "SELECT COUNT(*) FROM series_postures WHERE series_id = ?", id))
	assert.Equal(t, 1, countRows(t, db, "SELECT COUNT(*) FROM sessions WHERE series_id = ?", id))
	s, err := db.GetSeries(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, s)
}
