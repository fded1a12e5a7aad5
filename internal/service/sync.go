package service

import (
	"context"
	"fmt"
	"time"

	"springa/internal/analysis"
	"springa/internal/nightscout"
	"springa/internal/store"
	"springa/internal/strava"
)

// SyncService orchestrates syncing data from Strava and Nightscout
type SyncService struct {
	strava     *strava.Client
	nightscout *nightscout.Client // nil when no CGM server is configured
	store      *store.DB
}

// NewSyncService creates a new sync service. nsClient may be nil, in
// which case the glucose phase is skipped.
func NewSyncService(stravaClient *strava.Client, nsClient *nightscout.Client, store *store.DB) *SyncService {
	return &SyncService{
		strava:     stravaClient,
		nightscout: nsClient,
		store:      store,
	}
}

// SyncProgress reports progress during sync
type SyncProgress struct {
	Phase           string // "activities", "streams", "glucose"
	Total           int
	Completed       int
	CurrentActivity string
	Error           error
}

// SyncResult contains the results of a sync operation
type SyncResult struct {
	ActivitiesFetched int
	ActivitiesStored  int
	StreamsFetched    int
	GlucoseSynced     int
	TreatmentsStored  int
	Errors            []error
}

// SyncAll performs a full sync: activities -> streams -> glucose
func (s *SyncService) SyncAll(ctx context.Context, progress chan<- SyncProgress) (*SyncResult, error) {
	if progress != nil {
		defer close(progress)
	}

	result := &SyncResult{}

	// Phase 1: Sync activity summaries
	if err := s.syncActivities(ctx, progress, result); err != nil {
		return result, fmt.Errorf("syncing activities: %w", err)
	}

	// Phase 2: Fetch streams for activities that need them
	if err := s.syncStreams(ctx, progress, result); err != nil {
		return result, fmt.Errorf("syncing streams: %w", err)
	}

	// Phase 3: Overlay CGM readings and pump events
	if s.nightscout != nil {
		if err := s.syncGlucose(ctx, progress, result); err != nil {
			return result, fmt.Errorf("syncing glucose: %w", err)
		}
	}

	return result, nil
}

// syncActivities fetches all activities from Strava and stores them
func (s *SyncService) syncActivities(ctx context.Context, progress chan<- SyncProgress, result *SyncResult) error {
	// Get last sync time
	lastSyncStr, _ := s.store.GetSyncState("last_activity_sync")
	var after time.Time
	if lastSyncStr != "" {
		after, _ = time.Parse(time.RFC3339, lastSyncStr)
	}

	if progress != nil {
		progress <- SyncProgress{Phase: "activities", Total: 0, Completed: 0}
	}

	page := 1
	perPage := 100

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		activities, err := s.strava.GetActivities(ctx, after, page, perPage)
		if err != nil {
			return fmt.Errorf("fetching page %d: %w", page, err)
		}

		if len(activities) == 0 {
			break
		}

		result.ActivitiesFetched += len(activities)

		for _, a := range activities {
			// Only store runs with HR data
			if a.Type == "Run" && a.HasHeartrate {
				if err := s.store.UpsertActivity(convertActivity(a)); err != nil {
					result.Errors = append(result.Errors, fmt.Errorf("storing activity %d: %w", a.ID, err))
					continue
				}
				result.ActivitiesStored++
			}
		}

		if progress != nil {
			progress <- SyncProgress{
				Phase:     "activities",
				Total:     result.ActivitiesFetched,
				Completed: result.ActivitiesStored,
			}
		}

		if len(activities) < perPage {
			break // Last page
		}

		page++
	}

	// Update last sync time
	s.store.SetSyncState("last_activity_sync", time.Now().Format(time.RFC3339))

	return nil
}

// syncStreams fetches detailed stream data for activities that need it
func (s *SyncService) syncStreams(ctx context.Context, progress chan<- SyncProgress, result *SyncResult) error {
	activities, err := s.store.GetActivitiesNeedingStreams(StreamSyncBatchSize)
	if err != nil {
		return fmt.Errorf("getting activities needing streams: %w", err)
	}

	if len(activities) == 0 {
		return nil
	}

	if progress != nil {
		progress <- SyncProgress{Phase: "streams", Total: len(activities), Completed: 0}
	}

	for i, activity := range activities {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if progress != nil {
			progress <- SyncProgress{
				Phase:           "streams",
				Total:           len(activities),
				Completed:       i,
				CurrentActivity: activity.Name,
			}
		}

		streams, err := s.strava.GetActivityStreams(ctx, activity.ID)
		if err != nil {
			// Log error but continue - some activities may not have streams
			result.Errors = append(result.Errors, fmt.Errorf("activity %d (%s): %w", activity.ID, activity.Name, err))
			continue
		}

		points := convertStreams(activity.ID, streams)
		if len(points) > 0 {
			if err := s.store.SaveStreams(activity.ID, points); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("saving streams for %d: %w", activity.ID, err))
				continue
			}
		}

		if err := s.store.MarkStreamsSynced(activity.ID); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("marking synced for %d: %w", activity.ID, err))
			continue
		}

		result.StreamsFetched++
	}

	if progress != nil {
		progress <- SyncProgress{
			Phase:     "streams",
			Total:     len(activities),
			Completed: len(activities),
		}
	}

	return nil
}

// syncGlucose overlays CGM readings and pump events on activities that
// have streams but no glucose yet. The fetch window is padded on both
// sides, and treatments reach back far enough to cover the insulin
// lookback at the start of the run.
func (s *SyncService) syncGlucose(ctx context.Context, progress chan<- SyncProgress, result *SyncResult) error {
	activities, err := s.store.GetActivitiesNeedingGlucose(GlucoseSyncBatchSize)
	if err != nil {
		return fmt.Errorf("getting activities needing glucose: %w", err)
	}

	if len(activities) == 0 {
		return nil
	}

	if progress != nil {
		progress <- SyncProgress{Phase: "glucose", Total: len(activities), Completed: 0}
	}

	for i, activity := range activities {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if progress != nil {
			progress <- SyncProgress{
				Phase:           "glucose",
				Total:           len(activities),
				Completed:       i,
				CurrentActivity: activity.Name,
			}
		}

		start := activity.StartDate
		end := start.Add(time.Duration(activity.ElapsedTime) * time.Second)
		padding := GlucosePaddingMinutes * time.Minute

		entries, err := s.nightscout.GetEntries(ctx, start.Add(-padding), end.Add(padding), 0)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("entries for %d (%s): %w", activity.ID, activity.Name, err))
			continue
		}
		if err := s.store.SaveBGReadings(convertEntries(entries)); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("saving readings for %d: %w", activity.ID, err))
			continue
		}

		treatmentsFrom := start.Add(-time.Duration(analysis.IOBLookbackMinutes) * time.Minute)
		treatments, err := s.nightscout.GetTreatments(ctx, treatmentsFrom, end, 0)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("treatments for %d (%s): %w", activity.ID, activity.Name, err))
			continue
		}
		mapped := convertTreatments(treatments)
		if err := s.store.SaveTreatments(mapped); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("saving treatments for %d: %w", activity.ID, err))
			continue
		}
		result.TreatmentsStored += len(mapped)

		if err := s.store.MarkGlucoseSynced(activity.ID); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("marking glucose synced for %d: %w", activity.ID, err))
			continue
		}

		result.GlucoseSynced++
	}

	if progress != nil {
		progress <- SyncProgress{
			Phase:     "glucose",
			Total:     len(activities),
			Completed: len(activities),
		}
	}

	return nil
}

// RateLimitStatus returns the current rate limit status from the client
func (s *SyncService) RateLimitStatus() (shortRemaining, dailyRemaining int) {
	return s.strava.RateLimitStatus()
}

// convertActivity converts a Strava API activity to a store activity
func convertActivity(a strava.Activity) *store.Activity {
	activity := &store.Activity{
		ID:             a.ID,
		AthleteID:      a.Athlete.ID,
		Name:           a.Name,
		Type:           a.Type,
		StartDate:      a.StartDate,
		StartDateLocal: a.StartDateLocal,
		Timezone:       a.Timezone,
		Distance:       a.Distance,
		MovingTime:     a.MovingTime,
		ElapsedTime:    a.ElapsedTime,
		AverageSpeed:   a.AverageSpeed,
		HasHeartrate:   a.HasHeartrate,
		StreamsSynced:  false,
	}

	if a.AverageHeartrate > 0 {
		activity.AverageHeartrate = &a.AverageHeartrate
	}

	return activity
}

// convertStreams converts Strava API streams to store stream points
func convertStreams(activityID int64, s *strava.Streams) []store.StreamPoint {
	if s == nil || s.Time == nil {
		return nil
	}

	length := len(s.Time.Data)
	points := make([]store.StreamPoint, length)

	for i := 0; i < length; i++ {
		p := store.StreamPoint{
			ActivityID: activityID,
			TimeOffset: s.Time.Data[i],
		}

		if s.Altitude != nil && i < len(s.Altitude.Data) {
			alt := s.Altitude.Data[i]
			p.Altitude = &alt
		}

		if s.VelocitySmooth != nil && i < len(s.VelocitySmooth.Data) {
			vel := s.VelocitySmooth.Data[i]
			p.VelocitySmooth = &vel
		}

		if s.Heartrate != nil && i < len(s.Heartrate.Data) {
			hr := s.Heartrate.Data[i]
			p.Heartrate = &hr
		}

		if s.Cadence != nil && i < len(s.Cadence.Data) {
			cad := s.Cadence.Data[i]
			p.Cadence = &cad
		}

		if s.Distance != nil && i < len(s.Distance.Data) {
			dist := s.Distance.Data[i]
			p.Distance = &dist
		}

		points[i] = p
	}

	return points
}

// convertEntries maps Nightscout entries to stored readings, normalizing
// to mmol/L.
func convertEntries(entries []nightscout.Entry) []store.BGReading {
	readings := make([]store.BGReading, 0, len(entries))
	for _, e := range entries {
		if e.SGV <= 0 {
			continue
		}
		readings = append(readings, store.BGReading{
			Time:      e.Time().UTC(),
			ValueMmol: e.ValueMmolL(),
			Trend:     e.Direction,
		})
	}
	return readings
}

// convertTreatments maps Nightscout treatments onto the dose vocabulary.
// Events that are neither insulin nor carbs (site changes, notes) are
// dropped.
func convertTreatments(treatments []nightscout.Treatment) []store.Treatment {
	var mapped []store.Treatment
	for _, t := range treatments {
		when := t.Time()
		if when.IsZero() {
			continue
		}

		switch {
		case t.IsBasalRate():
			mapped = append(mapped, store.Treatment{
				ID:    t.ID,
				Time:  when.UTC(),
				Type:  "basal-rate",
				Value: t.Absolute,
				Unit:  "U/h",
			})
		case t.IsBolus():
			mapped = append(mapped, store.Treatment{
				ID:    t.ID,
				Time:  when.UTC(),
				Type:  "bolus",
				Value: t.Insulin,
				Unit:  "U",
			})
		}

		// A meal bolus carries both insulin and carbs; record each
		if t.IsCarbs() {
			mapped = append(mapped, store.Treatment{
				ID:    t.ID + "-carbs",
				Time:  when.UTC(),
				Type:  "carbohydrate",
				Value: t.Carbs,
				Unit:  "g",
			})
		}
	}
	return mapped
}
