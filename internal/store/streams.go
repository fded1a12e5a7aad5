package store

import "fmt"

// SaveStreams saves stream points for an activity in a single transaction.
// Existing points for the activity are replaced.
func (db *DB) SaveStreams(activityID int64, points []StreamPoint) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM streams WHERE activity_id = ?", activityID); err != nil {
		return fmt.Errorf("clearing streams: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO streams (activity_id, time_offset, velocity_smooth, heartrate, cadence, altitude, distance)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		_, err := stmt.Exec(activityID, p.TimeOffset,
			p.VelocitySmooth, p.Heartrate, p.Cadence, p.Altitude, p.Distance)
		if err != nil {
			return fmt.Errorf("inserting stream point at offset %d: %w", p.TimeOffset, err)
		}
	}

	return tx.Commit()
}

// GetStreams returns all stream points for an activity ordered by time offset.
func (db *DB) GetStreams(activityID int64) ([]StreamPoint, error) {
	rows, err := db.Query(`
		SELECT activity_id, time_offset, velocity_smooth, heartrate, cadence, altitude, distance
		FROM streams
		WHERE activity_id = ?
		ORDER BY time_offset
	`, activityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []StreamPoint
	for rows.Next() {
		var p StreamPoint
		err := rows.Scan(&p.ActivityID, &p.TimeOffset,
			&p.VelocitySmooth, &p.Heartrate, &p.Cadence, &p.Altitude, &p.Distance)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// HasStreams reports whether any stream points exist for an activity.
func (db *DB) HasStreams(activityID int64) (bool, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM streams WHERE activity_id = ?", activityID).Scan(&count)
	return count > 0, err
}
