// ABOUTME: Posture catalog seeding and lookups.
// ABOUTME: Seeding is per-name idempotent; therapy subsets come from a static table.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/harperreed/therapose/internal/models"
)

// SeedCatalog inserts every catalog entry whose name is not already present.
// Both seed lists are checked entry by entry, so databases seeded by an
// older revision receive only the postures they are missing.
func (d *DB) SeedCatalog(ctx context.Context) (int, error) {
	inserted := 0
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		for _, list := range [][]models.CatalogEntry{models.BaseCatalog, models.AdditionalCatalog} {
			for _, e := range list {
				var count int
				if err := tx.QueryRowContext(ctx,
					"SELECT COUNT(*) FROM postures WHERE name = ?", e.Name).Scan(&count); err != nil {
					return fmt.Errorf("check posture %q: %w", e.Name, err)
				}
				if count > 0 {
					continue
				}
				if _, err := tx.ExecContext(ctx,
					"INSERT INTO postures (name, sanskrit_name) VALUES (?, ?)", e.Name, e.SanskritName); err != nil {
					return fmt.Errorf("insert posture %q: %w", e.Name, err)
				}
				inserted++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// ListPostures returns the full catalog ordered by id.
func (d *DB) ListPostures(ctx context.Context) ([]*models.Posture, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, name, sanskrit_name, instructions, benefits, precautions, video, photo
		FROM postures
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list postures: %w", err)
	}
	defer rows.Close()

	var postures []*models.Posture
	for rows.Next() {
		var p models.Posture
		if err := rows.Scan(&p.ID, &p.Name, &p.SanskritName, &p.Instructions,
			&p.Benefits, &p.Precautions, &p.Video, &p.Photo); err != nil {
			return nil, fmt.Errorf("scan posture: %w", err)
		}
		postures = append(postures, &p)
	}
	return postures, rows.Err()
}

// GetPosture retrieves a posture by id. Returns nil when absent.
func (d *DB) GetPosture(ctx context.Context, id int64) (*models.Posture, error) {
	var p models.Posture
	err := d.db.QueryRowContext(ctx, `
		SELECT id, name, sanskrit_name, instructions, benefits, precautions, video, photo
		FROM postures WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &p.SanskritName, &p.Instructions,
		&p.Benefits, &p.Precautions, &p.Video, &p.Photo)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get posture: %w", err)
	}
	return &p, nil
}

// PosturesForTherapyType returns the catalog postures relevant to a therapy
// type. Unknown types yield an empty result.
func (d *DB) PosturesForTherapyType(ctx context.Context, tt models.TherapyType) ([]models.PostureRef, error) {
	names := tt.PostureNames()
	if len(names) == 0 {
		return []models.PostureRef{}, nil
	}

	args := make([]any, len(names))
	for i, n := range names {
		args[i] = n
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(names)), ",")

	rows, err := d.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, name, COALESCE(sanskrit_name, '')
		FROM postures
		WHERE name IN (%s)
		ORDER BY id
	`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("postures for %s: %w", tt, err)
	}
	defer rows.Close()

	refs := []models.PostureRef{}
	for rows.Next() {
		var r models.PostureRef
		if err := rows.Scan(&r.ID, &r.Name, &r.SanskritName); err != nil {
			return nil, fmt.Errorf("scan posture: %w", err)
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}
