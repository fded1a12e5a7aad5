package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const activityColumns = `id, athlete_id, name, type, start_date, start_date_local, timezone,
	distance, moving_time, elapsed_time, average_speed, average_heartrate,
	has_heartrate, streams_synced, glucose_synced, fuel_rate_g, start_bg`

// UpsertActivity inserts or updates an activity summary. The runner-logged
// context columns (fuel rate, start BG) are preserved on update.
func (db *DB) UpsertActivity(a *Activity) error {
	_, err := db.Exec(`
		INSERT INTO activities (
			id, athlete_id, name, type, start_date, start_date_local, timezone,
			distance, moving_time, elapsed_time, average_speed, average_heartrate,
			has_heartrate, streams_synced, glucose_synced, fuel_rate_g, start_bg
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			start_date = excluded.start_date,
			start_date_local = excluded.start_date_local,
			timezone = excluded.timezone,
			distance = excluded.distance,
			moving_time = excluded.moving_time,
			elapsed_time = excluded.elapsed_time,
			average_speed = excluded.average_speed,
			average_heartrate = excluded.average_heartrate,
			has_heartrate = excluded.has_heartrate,
			updated_at = CURRENT_TIMESTAMP
	`,
		a.ID, a.AthleteID, a.Name, a.Type,
		a.StartDate.Format(time.RFC3339), a.StartDateLocal.Format(time.RFC3339), a.Timezone,
		a.Distance, a.MovingTime, a.ElapsedTime, a.AverageSpeed, a.AverageHeartrate,
		boolToInt(a.HasHeartrate), boolToInt(a.StreamsSynced), boolToInt(a.GlucoseSynced),
		a.FuelRateG, a.StartBG,
	)
	return err
}

// GetActivity retrieves an activity by ID.
func (db *DB) GetActivity(id int64) (*Activity, error) {
	row := db.QueryRow("SELECT "+activityColumns+" FROM activities WHERE id = ?", id)
	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrActivityNotFound
	}
	return a, err
}

// ListActivities returns activities ordered by start date descending.
func (db *DB) ListActivities(limit, offset int) ([]Activity, error) {
	rows, err := db.Query(`
		SELECT `+activityColumns+` FROM activities
		ORDER BY start_date DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActivities(rows)
}

// ListRunsWithHeartrate returns runs that carry heart-rate data, newest
// first. These are the modeling candidates.
func (db *DB) ListRunsWithHeartrate(limit int) ([]Activity, error) {
	rows, err := db.Query(`
		SELECT `+activityColumns+` FROM activities
		WHERE type = 'Run' AND has_heartrate = 1
		ORDER BY start_date DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActivities(rows)
}

// GetActivitiesNeedingStreams returns activities that haven't had their streams synced.
func (db *DB) GetActivitiesNeedingStreams(limit int) ([]Activity, error) {
	rows, err := db.Query(`
		SELECT `+activityColumns+` FROM activities
		WHERE streams_synced = 0 AND has_heartrate = 1
		ORDER BY start_date DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActivities(rows)
}

// GetActivitiesNeedingGlucose returns stream-synced activities whose CGM
// overlay hasn't been fetched yet.
func (db *DB) GetActivitiesNeedingGlucose(limit int) ([]Activity, error) {
	rows, err := db.Query(`
		SELECT `+activityColumns+` FROM activities
		WHERE streams_synced = 1 AND glucose_synced = 0
		ORDER BY start_date DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActivities(rows)
}

// MarkStreamsSynced marks an activity's streams as synced.
func (db *DB) MarkStreamsSynced(id int64) error {
	return db.markFlag("streams_synced", id)
}

// MarkGlucoseSynced marks an activity's glucose overlay as synced.
func (db *DB) MarkGlucoseSynced(id int64) error {
	return db.markFlag("glucose_synced", id)
}

func (db *DB) markFlag(column string, id int64) error {
	result, err := db.Exec(
		fmt.Sprintf("UPDATE activities SET %s = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?", column), id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrActivityNotFound
	}
	return nil
}

// SetActivityContext records the runner-logged fuel rate and start BG
// for an activity.
func (db *DB) SetActivityContext(id int64, fuelRateG, startBG *float64) error {
	result, err := db.Exec(`
		UPDATE activities SET fuel_rate_g = ?, start_bg = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, fuelRateG, startBG, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrActivityNotFound
	}
	return nil
}

// CountActivities returns the total number of activities.
func (db *DB) CountActivities() (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM activities").Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActivity(row rowScanner) (*Activity, error) {
	var a Activity
	var startDate, startDateLocal string
	var timezone sql.NullString
	var avgSpeed sql.NullFloat64
	var hasHR, streamsSynced, glucoseSynced int64

	err := row.Scan(
		&a.ID, &a.AthleteID, &a.Name, &a.Type, &startDate, &startDateLocal, &timezone,
		&a.Distance, &a.MovingTime, &a.ElapsedTime, &avgSpeed, &a.AverageHeartrate,
		&hasHR, &streamsSynced, &glucoseSynced, &a.FuelRateG, &a.StartBG,
	)
	if err != nil {
		return nil, err
	}

	a.StartDate, err = time.Parse(time.RFC3339, startDate)
	if err != nil {
		return nil, fmt.Errorf("parsing start_date %q: %w", startDate, err)
	}
	a.StartDateLocal, err = time.Parse(time.RFC3339, startDateLocal)
	if err != nil {
		return nil, fmt.Errorf("parsing start_date_local %q: %w", startDateLocal, err)
	}

	a.Timezone = timezone.String
	a.AverageSpeed = avgSpeed.Float64
	a.HasHeartrate = hasHR == 1
	a.StreamsSynced = streamsSynced == 1
	a.GlucoseSynced = glucoseSynced == 1

	return &a, nil
}

func scanActivities(rows *sql.Rows) ([]Activity, error) {
	var activities []Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
