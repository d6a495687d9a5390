// ABOUTME: Tests for opening, migrating, and seeding the database.
// ABOUTME: Covers repeated initialization and upgrades from older schema layouts.
package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "therapose.db")

	db, err := Open(dbPath)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, dbPath, db.Path())

	info, err := os.Stat(dbPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	version, err := db.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, version)
}

func TestOpenEnforcesForeignKeys(t *testing.T) {
	db := setupTestDB(t)

	var enabled int
	require.NoError(t, db.db.QueryRow("PRAGMA foreign_keys").Scan(&enabled))
	assert.Equal(t, 1, enabled)

	_, err := db.db.Exec(`INSERT INTO therapy_series (name, therapy_type, recommended_sessions, patient_id)
		VALUES ('orphan', 'Anxiety', 3, 'nobody')`)
	assert.Error(t, err, "series for an unknown patient should be rejected")
}

func TestOpenTwiceIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "therapose.db")

	for i := 0; i < 2; i++ {
		db, err := Open(dbPath)
		require.NoError(t, err, "open #%d", i+1)
		assert.Equal(t, 18, countRows(t, db, "SELECT COUNT(*) FROM postures"))
		assert.Equal(t, 0, countRows(t, db,
			"SELECT COUNT(*) FROM (SELECT name FROM postures GROUP BY name HAVING COUNT(*) > 1)"))
		require.NoError(t, db.Close())
	}
}

func TestSeedCatalogInsertsNothingWhenComplete(t *testing.T) {
	db := setupTestDB(t)

	inserted, err := db.SeedCatalog(context.Background())
	require.NoError(t, err)
	assert.Zero(t, inserted)
}

// legacySchema is the layout written before series could be retired and
// before the extended posture list existed. Positions were not unique then.
const legacySchema = `
CREATE TABLE patients (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL UNIQUE,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	birth_date TEXT,
	gender TEXT,
	phone TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE therapy_series (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	therapy_type TEXT NOT NULL,
	recommended_sessions INTEGER NOT NULL,
	patient_id TEXT NOT NULL
);
CREATE TABLE postures (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	sanskrit_name TEXT,
	instructions TEXT,
	benefits TEXT,
	precautions TEXT,
	video TEXT,
	photo TEXT
);
INSERT INTO patients (id, username, email, first_name, last_name) VALUES ('p1', 'alice', 'alice@example.com', 'Alice', 'Legacy');
INSERT INTO therapy_series (name, therapy_type, recommended_sessions, patient_id) VALUES ('Old', 'Anxiety', 5, 'p1');
INSERT INTO postures (name, sanskrit_name) VALUES
	('Cat Pose', 'Marjaryasana'),
	('Chair Pose', 'Utkatasana'),
	('Cobra Pose', 'Bhujangasana'),
	('Bound Angle Pose', 'Baddha Konasana'),
	('Dolphin Plank Pose', 'Makara Adho Mukha Svanasana'),
	('Downward Facing Dog', 'Adho Mukha Svanasana'),
	('Boat Pose', 'Navasana'),
	('Corpse Pose', 'Savasana'),
	('Easy Pose', 'Sukhasana');
CREATE TABLE series_postures (
	series_id INTEGER NOT NULL,
	posture_id INTEGER NOT NULL,
	sort_order INTEGER NOT NULL,
	duration_minutes INTEGER NOT NULL,
	PRIMARY KEY (series_id, posture_id)
);
INSERT INTO series_postures (series_id, posture_id, sort_order, duration_minutes) VALUES
	(1, 3, 2, 7),
	(1, 2, 1, 10),
	(1, 1, 1, 5);
`

func TestOpenUpgradesLegacySchema(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "legacy.db")

	raw, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	_, err = raw.Exec(legacySchema)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	for i := 0; i < 2; i++ {
		db, err := Open(dbPath)
		require.NoError(t, err, "open #%d", i+1)

		exists, err := columnExists(ctx, db.db, "therapy_series", "active")
		require.NoError(t, err)
		assert.True(t, exists, "active column should be added")

		s, err := db.GetSeries(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.True(t, s.Active, "pre-existing series should default to active")

		active, err := db.GetActiveSeries(ctx, "p1")
		require.NoError(t, err)
		require.NotNil(t, active)
		assert.Equal(t, "Old", active.Name)

		prescription, err := db.ListSeriesPostures(ctx, 1)
		require.NoError(t, err)
		require.Len(t, prescription, 3)
		for j, want := range []struct {
			postureID int64
			minutes   int
		}{{1, 5}, {2, 10}, {3, 7}} {
			assert.Equal(t, j+1, prescription[j].Order)
			assert.Equal(t, want.postureID, prescription[j].PostureID)
			assert.Equal(t, want.minutes, prescription[j].DurationMinutes)
		}
		total, err := db.TotalPrescribedMinutes(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 22, total)

		assert.Equal(t, 18, countRows(t, db, "SELECT COUNT(*) FROM postures"))
		assert.Equal(t, 0, countRows(t, db,
			"SELECT COUNT(*) FROM (SELECT name FROM postures GROUP BY name HAVING COUNT(*) > 1)"))

		p, err := db.GetPatient(ctx, "p1")
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, "alice", p.Username)
		assert.False(t, p.CreatedAt.IsZero(), "CURRENT_TIMESTAMP rows should parse")

		require.NoError(t, db.Close())
	}
}
