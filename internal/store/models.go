package store

import "time"

// Auth represents OAuth tokens for Strava API access
type Auth struct {
	AthleteID    int64
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Activity represents a synced activity summary
type Activity struct {
	ID               int64
	AthleteID        int64
	Name             string
	Type             string
	StartDate        time.Time
	StartDateLocal   time.Time
	Timezone         string
	Distance         float64 // meters
	MovingTime       int     // seconds
	ElapsedTime      int     // seconds
	AverageSpeed     float64 // m/s
	AverageHeartrate *float64
	HasHeartrate     bool
	StreamsSynced    bool
	GlucoseSynced    bool

	// Runner-logged context for BG response modeling
	FuelRateG *float64 // grams of carbs per hour taken during the run
	StartBG   *float64 // mmol/L at the start, if logged manually
}

// StreamPoint represents a single data point from activity streams
type StreamPoint struct {
	ActivityID     int64
	TimeOffset     int // seconds from activity start
	VelocitySmooth *float64
	Heartrate      *int
	Cadence        *int
	Altitude       *float64
	Distance       *float64 // cumulative meters
}

// BGReading is one CGM glucose sample, stored in mmol/L
type BGReading struct {
	Time      time.Time
	ValueMmol float64
	Trend     string
}

// Treatment is one pump or meal event from the CGM service,
// already mapped to the analysis dose vocabulary
type Treatment struct {
	ID    string
	Time  time.Time
	Type  string // "bolus", "basal-rate", "carbohydrate"
	Value float64
	Unit  string
}
