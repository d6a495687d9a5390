// ABOUTME: SQLite schema definition and versioned migrations.
// ABOUTME: Every step is idempotent so databases from any earlier revision converge.
package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// migration is one forward-only schema step. Steps must be safe to apply to
// a database that already contains their effect: databases created before
// user_version tracking report version 0 but may hold any earlier layout.
type migration struct {
	version     int
	description string
	apply       func(ctx context.Context, tx *sql.Tx) error
}

var migrations = []migration{
	{1, "people and assignments", execStep(`
	CREATE TABLE IF NOT EXISTS instructors (
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

	CREATE TABLE IF NOT EXISTS patients (
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

	CREATE TABLE IF NOT EXISTS instructor_patients (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		instructor_id TEXT NOT NULL,
		patient_id TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(instructor_id, patient_id),
		FOREIGN KEY (instructor_id) REFERENCES instructors(id),
		FOREIGN KEY (patient_id) REFERENCES patients(id)
	);
	`)},
	{2, "therapy series, postures, and sessions", execStep(`
	CREATE TABLE IF NOT EXISTS therapy_series (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		therapy_type TEXT NOT NULL,
		recommended_sessions INTEGER NOT NULL,
		patient_id TEXT NOT NULL,
		active BOOLEAN DEFAULT 1,
		FOREIGN KEY (patient_id) REFERENCES patients(id)
	);

	CREATE TABLE IF NOT EXISTS postures (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		sanskrit_name TEXT,
		instructions TEXT,
		benefits TEXT,
		precautions TEXT,
		video TEXT,
		photo TEXT
	);

	CREATE TABLE IF NOT EXISTS series_postures (
		series_id INTEGER NOT NULL,
		posture_id INTEGER NOT NULL,
		sort_order INTEGER NOT NULL,
		duration_minutes INTEGER NOT NULL,
		PRIMARY KEY (series_id, posture_id),
		FOREIGN KEY (series_id) REFERENCES therapy_series(id),
		FOREIGN KEY (posture_id) REFERENCES postures(id)
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		series_id INTEGER NOT NULL,
		session_date DATE NOT NULL,
		start_time TIME,
		end_time TIME,
		intensity_before INTEGER,
		intensity_after INTEGER,
		comment TEXT,
		effective_minutes REAL DEFAULT 0.0,
		FOREIGN KEY (series_id) REFERENCES therapy_series(id)
	);
	`)},
	{3, "therapy_series.active", addColumnIfMissing("therapy_series", "active", "BOOLEAN DEFAULT 1")},
	{4, "indexes", steps(renumberDuplicateOrders, execStep(`
	CREATE UNIQUE INDEX IF NOT EXISTS idx_series_postures_order ON series_postures(series_id, sort_order);
	CREATE INDEX IF NOT EXISTS idx_series_patient_active ON therapy_series(patient_id, active);
	CREATE INDEX IF NOT EXISTS idx_sessions_series_date ON sessions(series_id, session_date, start_time);
	CREATE INDEX IF NOT EXISTS idx_instructor_patients_patient ON instructor_patients(patient_id);
	CREATE INDEX IF NOT EXISTS idx_postures_name ON postures(name);
	`))},
}

// currentSchemaVersion is the version of the last migration.
var currentSchemaVersion = migrations[len(migrations)-1].version

func execStep(stmt string) func(ctx context.Context, tx *sql.Tx) error {
	return func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, stmt)
		return err
	}
}

func steps(fns ...func(ctx context.Context, tx *sql.Tx) error) func(ctx context.Context, tx *sql.Tx) error {
	return func(ctx context.Context, tx *sql.Tx) error {
		for _, fn := range fns {
			if err := fn(ctx, tx); err != nil {
				return err
			}
		}
		return nil
	}
}

// renumberDuplicateOrders rewrites sort_order as 1..n, keeping the existing
// order and breaking ties by posture id, in every series where two postures
// share a position. Older databases never enforced unique positions.
func renumberDuplicateOrders(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
	CREATE TEMP TABLE series_postures_renumber AS
		SELECT rowid AS rid,
		       ROW_NUMBER() OVER (PARTITION BY series_id ORDER BY sort_order, posture_id) AS rn
		FROM series_postures
		WHERE series_id IN (
			SELECT series_id FROM series_postures
			GROUP BY series_id, sort_order
			HAVING COUNT(*) > 1
		);

	UPDATE series_postures
	SET sort_order = (SELECT rn FROM series_postures_renumber WHERE rid = series_postures.rowid)
	WHERE rowid IN (SELECT rid FROM series_postures_renumber);

	DROP TABLE series_postures_renumber;
	`)
	if err != nil {
		return fmt.Errorf("renumber series postures: %w", err)
	}
	return nil
}

func addColumnIfMissing(table, column, definition string) func(ctx context.Context, tx *sql.Tx) error {
	return func(ctx context.Context, tx *sql.Tx) error {
		exists, err := columnExists(ctx, tx, table, column)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		_, err = tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
		return err
	}
}

func columnExists(ctx context.Context, q queryer, table, column string) (bool, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return false, fmt.Errorf("scan table info %s: %w", table, err)
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// SchemaVersion returns the database's recorded schema version.
func (d *DB) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := d.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("get user_version: %w", err)
	}
	return version, nil
}

// migrate applies every migration newer than user_version, each in its own
// transaction together with the version bump.
func (d *DB) migrate(ctx context.Context) error {
	version, err := d.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		err := d.withTx(ctx, func(tx *sql.Tx) error {
			if err := m.apply(ctx, tx); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.version))
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.description, err)
		}
		d.log.Info("applied migration", "version", m.version, "description", m.description)
	}
	return nil
}
