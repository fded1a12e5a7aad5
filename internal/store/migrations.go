package store

import "database/sql"

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// Authentication (singleton row)
		`CREATE TABLE IF NOT EXISTS auth (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			athlete_id INTEGER NOT NULL,
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			expires_at INTEGER NOT NULL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Activities (summary data from /athlete/activities)
		`CREATE TABLE IF NOT EXISTS activities (
			id INTEGER PRIMARY KEY,
			athlete_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			start_date TEXT NOT NULL,
			start_date_local TEXT NOT NULL,
			timezone TEXT,
			distance REAL NOT NULL,
			moving_time INTEGER NOT NULL,
			elapsed_time INTEGER NOT NULL,
			average_speed REAL,
			average_heartrate REAL,
			has_heartrate INTEGER NOT NULL,
			streams_synced INTEGER DEFAULT 0,
			glucose_synced INTEGER DEFAULT 0,
			fuel_rate_g REAL,
			start_bg REAL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_activities_start_date ON activities(start_date)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_has_hr ON activities(has_heartrate)`,

		// Streams (second-by-second data from /activities/{id}/streams)
		`CREATE TABLE IF NOT EXISTS streams (
			activity_id INTEGER NOT NULL,
			time_offset INTEGER NOT NULL,
			velocity_smooth REAL,
			heartrate INTEGER,
			cadence INTEGER,
			altitude REAL,
			distance REAL,
			PRIMARY KEY (activity_id, time_offset),
			FOREIGN KEY (activity_id) REFERENCES activities(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_streams_activity ON streams(activity_id)`,

		// CGM glucose readings, normalized to mmol/L on ingest
		`CREATE TABLE IF NOT EXISTS bg_readings (
			time INTEGER PRIMARY KEY,
			value_mmol REAL NOT NULL,
			trend TEXT
		)`,

		// Pump and meal events mapped to the dose vocabulary
		`CREATE TABLE IF NOT EXISTS treatments (
			id TEXT PRIMARY KEY,
			time INTEGER NOT NULL,
			type TEXT NOT NULL,
			value REAL NOT NULL,
			unit TEXT
		)`,

		`CREATE INDEX IF NOT EXISTS idx_treatments_time ON treatments(time)`,

		// Sync State (key-value store for sync tracking)
		`CREATE TABLE IF NOT EXISTS sync_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}
