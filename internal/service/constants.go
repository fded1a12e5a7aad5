package service

const (
	// HR validation thresholds
	MinValidHeartrate = 50
	MaxValidHeartrate = 220

	// Sync batch sizes, sized to stay inside Strava's 15-minute window
	StreamSyncBatchSize  = 50
	GlucoseSyncBatchSize = 50

	// CGM fetch padding around an activity, minutes. The window reaches
	// back far enough to compute the entry slope at the start line.
	GlucosePaddingMinutes = 30

	// Entry slope is fit over readings this close to the start
	EntrySlopeWindowMinutes = 15

	// Pagination limits
	RecentActivitiesLimit = 10
	ModelActivityLimit    = 200

	// Minimum speed for pace samples (m/s) - filters out stopped time
	MinSpeedForPace = 0.5

	SecondsPerMinute = 60
	MetersPerKm      = 1000.0
)
