package service

import (
	"context"
	"fmt"
	"time"

	"springa/internal/analysis"
	"springa/internal/config"
	"springa/internal/nightscout"
	"springa/internal/store"
)

// QueryService provides read-only queries for the TUI
type QueryService struct {
	store       *store.DB
	nightscout  *nightscout.Client // nil when no CGM server is configured
	lthr        float64
	defaultFuel *float64 // athlete's usual carb intake, g/h
}

// NewQueryService creates a new query service. The athlete config supplies
// the lactate threshold HR for zone classification and the optional default
// fuel rate assumed for runs without a logged one.
func NewQueryService(store *store.DB, nsClient *nightscout.Client, athlete config.AthleteConfig) *QueryService {
	return &QueryService{
		store:       store,
		nightscout:  nsClient,
		lthr:        athlete.LactateThresholdHR,
		defaultFuel: athlete.DefaultFuelRateG,
	}
}

// HasNightscout reports whether a CGM server is configured.
func (q *QueryService) HasNightscout() bool {
	return q.nightscout != nil
}

// DashboardData contains all data needed for the dashboard
type DashboardData struct {
	Model       *analysis.BGResponseModel
	PaceTable   *analysis.CalibratedPaceTable
	Suggestions []analysis.FuelSuggestion
	Insulin     *analysis.InsulinContext

	RecentActivities []store.Activity

	// BG trace of the most recent run, for charting
	LatestRunName string
	LatestRunBG   []float64
}

// GetDashboardData assembles the dashboard: the BG response model, the
// calibrated pace table, fuel suggestions, and the insulin picture at
// the start of the most recent run.
func (q *QueryService) GetDashboardData() (*DashboardData, error) {
	data := &DashboardData{}

	recent, err := q.store.ListActivities(RecentActivitiesLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("listing activities: %w", err)
	}
	data.RecentActivities = recent

	model, err := q.BuildBGModel()
	if err != nil {
		return nil, err
	}
	data.Model = model
	if model != nil {
		data.Suggestions = analysis.SuggestFuelAdjustments(model)
	}

	table, err := q.BuildPaceTable()
	if err != nil {
		return nil, err
	}
	data.PaceTable = table

	if len(recent) > 0 {
		latest := recent[0]
		insulin, err := q.InsulinContextAt(latest.StartDate)
		if err == nil {
			data.Insulin = insulin
		}

		data.LatestRunName = latest.Name
		data.LatestRunBG = q.bgTrace(latest)
	}

	return data, nil
}

// BuildBGModel builds the BG response model from every run that has both
// streams and a CGM overlay.
func (q *QueryService) BuildBGModel() (*analysis.BGResponseModel, error) {
	activities, err := q.store.ListRunsWithHeartrate(ModelActivityLimit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	var inputs []analysis.ActivityInput
	for _, a := range activities {
		if !a.StreamsSynced || !a.GlucoseSynced {
			continue
		}
		input, ok := q.activityInput(a)
		if !ok {
			continue
		}
		inputs = append(inputs, input)
	}

	if len(inputs) == 0 {
		return nil, nil
	}

	return analysis.BuildBGModel(inputs, q.lthr), nil
}

// activityInput loads one run's streams and CGM readings and packages
// them for the model builder.
func (q *QueryService) activityInput(a store.Activity) (analysis.ActivityInput, bool) {
	points, err := q.store.GetStreams(a.ID)
	if err != nil || len(points) == 0 {
		return analysis.ActivityInput{}, false
	}

	start := a.StartDate
	end := start.Add(time.Duration(a.ElapsedTime) * time.Second)
	readings, err := q.store.GetBGReadingsBetween(start.Add(-GlucosePaddingMinutes*time.Minute), end)
	if err != nil || len(readings) == 0 {
		return analysis.ActivityInput{}, false
	}

	streams := buildAnalysisStreams(points, readings, start)
	if streams == nil {
		return analysis.ActivityInput{}, false
	}

	fuel := a.FuelRateG
	if fuel == nil {
		fuel = q.defaultFuel
	}

	input := analysis.ActivityInput{
		ID:         a.ID,
		Streams:    streams,
		FuelRate:   fuel,
		EntrySlope: entrySlope(readings, start),
	}
	if a.StartBG != nil {
		input.StartBG = *a.StartBG
	}
	return input, true
}

// BuildPaceTable builds the calibrated zone pace table from every run
// with stream data.
func (q *QueryService) BuildPaceTable() (*analysis.CalibratedPaceTable, error) {
	segments, err := q.allZoneSegments()
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, nil
	}
	return analysis.BuildCalibratedPaceTable(segments), nil
}

// PaceTrends returns the pace-over-time slope per zone, min/km per day.
// Zones without enough recent history are absent.
func (q *QueryService) PaceTrends() (map[analysis.Zone]float64, error) {
	segments, err := q.allZoneSegments()
	if err != nil {
		return nil, err
	}

	trends := make(map[analysis.Zone]float64)
	now := time.Now()
	for _, zone := range analysis.ZoneOrder {
		if slope := analysis.ZonePaceTrend(segments, zone, analysis.PaceTrendWindowDays, now); slope != nil {
			trends[zone] = *slope
		}
	}
	return trends, nil
}

func (q *QueryService) allZoneSegments() ([]analysis.ZoneSegment, error) {
	activities, err := q.store.ListRunsWithHeartrate(ModelActivityLimit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	var segments []analysis.ZoneSegment
	for _, a := range activities {
		if !a.StreamsSynced {
			continue
		}
		points, err := q.store.GetStreams(a.ID)
		if err != nil || len(points) == 0 {
			continue
		}
		hr, pace := buildPaceSamples(points)
		segments = append(segments, analysis.ExtractZoneSegments(hr, pace, q.lthr, a.ID, a.StartDate)...)
	}
	return segments, nil
}

// InsulinContextAt builds the insulin picture for a run starting at the
// given time, from stored pump events.
func (q *QueryService) InsulinContextAt(start time.Time) (*analysis.InsulinContext, error) {
	lookback := time.Duration(analysis.IOBLookbackMinutes) * time.Minute
	treatments, err := q.store.GetTreatmentsBetween(start.Add(-lookback), start)
	if err != nil {
		return nil, fmt.Errorf("loading treatments: %w", err)
	}
	return analysis.BuildInsulinContext(doseEvents(treatments), start), nil
}

// LiveInsulinContext answers "what if I started a run right now": it
// fetches the recent pump events straight from Nightscout and builds the
// context for the current moment. Returns nil when no CGM server is
// configured.
func (q *QueryService) LiveInsulinContext(ctx context.Context) (*analysis.InsulinContext, error) {
	if q.nightscout == nil {
		return nil, nil
	}

	now := time.Now()
	lookback := time.Duration(analysis.IOBLookbackMinutes) * time.Minute
	treatments, err := q.nightscout.GetTreatments(ctx, now.Add(-lookback), now, 0)
	if err != nil {
		return nil, fmt.Errorf("fetching treatments: %w", err)
	}

	events := doseEvents(convertTreatments(treatments))
	return analysis.BuildInsulinContext(events, now), nil
}

// ActivityDetail contains detailed info for a single activity
type ActivityDetail struct {
	Activity store.Activity

	// Per-minute BG during the run, for charting
	BGTrace []float64

	// Observations extracted from this run alone
	Observations []analysis.Observation

	// Zone pace segments from this run
	Segments []analysis.ZoneSegment
}

// GetActivityDetail returns the per-run breakdown for the detail screen.
func (q *QueryService) GetActivityDetail(id int64) (*ActivityDetail, error) {
	activity, err := q.store.GetActivity(id)
	if err != nil {
		return nil, err
	}

	detail := &ActivityDetail{Activity: *activity}
	detail.BGTrace = q.bgTrace(*activity)

	points, err := q.store.GetStreams(id)
	if err != nil || len(points) == 0 {
		return detail, nil
	}

	hr, pace := buildPaceSamples(points)
	detail.Segments = analysis.ExtractZoneSegments(hr, pace, q.lthr, activity.ID, activity.StartDate)

	if input, ok := q.activityInput(*activity); ok {
		if aligned := analysis.AlignStreams(input.Streams); aligned != nil {
			startBG := input.StartBG
			if startBG == 0 && len(aligned.Glucose) > 0 {
				startBG = aligned.Glucose[0].Value
			}
			detail.Observations = analysis.ExtractObservations(
				aligned.HR, aligned.Glucose, q.lthr, activity.ID, input.FuelRate, startBG, input.EntrySlope)
		}
	}

	return detail, nil
}

// bgTrace returns the run's CGM readings as a plain series for charting.
func (q *QueryService) bgTrace(a store.Activity) []float64 {
	start := a.StartDate
	end := start.Add(time.Duration(a.ElapsedTime) * time.Second)
	readings, err := q.store.GetBGReadingsBetween(start, end)
	if err != nil {
		return nil
	}
	trace := make([]float64, 0, len(readings))
	for _, r := range readings {
		trace = append(trace, r.ValueMmol)
	}
	return trace
}

// GetActivitiesList returns paginated activities
func (q *QueryService) GetActivitiesList(limit, offset int) ([]store.Activity, error) {
	return q.store.ListActivities(limit, offset)
}

// GetTotalActivityCount returns the total number of activities
func (q *QueryService) GetTotalActivityCount() (int, error) {
	return q.store.CountActivities()
}

// LogRunContext records the fuel rate and start BG the runner logged for
// an activity.
func (q *QueryService) LogRunContext(activityID int64, fuelRateG, startBG *float64) error {
	return q.store.SetActivityContext(activityID, fuelRateG, startBG)
}
