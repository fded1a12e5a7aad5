package store

import (
	"fmt"
	"time"
)

// SaveBGReadings upserts CGM readings. Readings are keyed by their
// timestamp, so re-syncing an overlapping window is safe.
func (db *DB) SaveBGReadings(readings []BGReading) error {
	if len(readings) == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO bg_readings (time, value_mmol, trend)
		VALUES (?, ?, ?)
		ON CONFLICT(time) DO UPDATE SET
			value_mmol = excluded.value_mmol,
			trend = excluded.trend
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range readings {
		if _, err := stmt.Exec(r.Time.Unix(), r.ValueMmol, r.Trend); err != nil {
			return fmt.Errorf("inserting reading at %s: %w", r.Time.Format(time.RFC3339), err)
		}
	}

	return tx.Commit()
}

// GetBGReadingsBetween returns readings in [from, to] ordered by time.
func (db *DB) GetBGReadingsBetween(from, to time.Time) ([]BGReading, error) {
	rows, err := db.Query(`
		SELECT time, value_mmol, trend
		FROM bg_readings
		WHERE time >= ? AND time <= ?
		ORDER BY time
	`, from.Unix(), to.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []BGReading
	for rows.Next() {
		var r BGReading
		var unix int64
		if err := rows.Scan(&unix, &r.ValueMmol, &r.Trend); err != nil {
			return nil, err
		}
		r.Time = time.Unix(unix, 0).UTC()
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

// LatestBGReading returns the most recent reading, or nil when none exist.
func (db *DB) LatestBGReading() (*BGReading, error) {
	rows, err := db.Query("SELECT time, value_mmol, trend FROM bg_readings ORDER BY time DESC LIMIT 1")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var r BGReading
	var unix int64
	if err := rows.Scan(&unix, &r.ValueMmol, &r.Trend); err != nil {
		return nil, err
	}
	r.Time = time.Unix(unix, 0).UTC()
	return &r, nil
}
