package store

import (
	"fmt"
	"time"
)

// SaveTreatments upserts pump and meal events keyed by their service ID.
func (db *DB) SaveTreatments(treatments []Treatment) error {
	if len(treatments) == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO treatments (id, time, type, value, unit)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			time = excluded.time,
			type = excluded.type,
			value = excluded.value,
			unit = excluded.unit
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range treatments {
		if _, err := stmt.Exec(t.ID, t.Time.Unix(), t.Type, t.Value, t.Unit); err != nil {
			return fmt.Errorf("inserting treatment %s: %w", t.ID, err)
		}
	}

	return tx.Commit()
}

// GetTreatmentsBetween returns treatments in [from, to] ordered by time.
func (db *DB) GetTreatmentsBetween(from, to time.Time) ([]Treatment, error) {
	rows, err := db.Query(`
		SELECT id, time, type, value, unit
		FROM treatments
		WHERE time >= ? AND time <= ?
		ORDER BY time
	`, from.Unix(), to.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var treatments []Treatment
	for rows.Next() {
		var t Treatment
		var unix int64
		if err := rows.Scan(&t.ID, &unix, &t.Type, &t.Value, &t.Unit); err != nil {
			return nil, err
		}
		t.Time = time.Unix(unix, 0).UTC()
		treatments = append(treatments, t)
	}
	return treatments, rows.Err()
}
