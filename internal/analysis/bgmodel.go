package analysis

import (
	"fmt"
	"math"
	"sort"
)

// ActivityInput is everything the BG model needs from one activity: its raw
// named streams plus per-activity context recorded by the runner.
type ActivityInput struct {
	ID         int64
	Streams    []Stream
	FuelRate   *float64 // grams/hour of carbs taken during the run, nil if unknown
	StartBG    float64  // mmol/L; 0 means "use the first aligned reading"
	EntrySlope *float64 // mmol/L per 10 min going into the run, if known
}

// ZoneStats aggregates BG response observations for one effort zone.
type ZoneStats struct {
	Zone          Zone
	AvgRate       float64 // mmol/L per 10 min
	MedianRate    float64
	SampleCount   int
	Confidence    string // "low", "medium", "high"
	AvgFuelRate   *float64
	ActivityCount int
}

// BandStats aggregates observations by the run's starting BG level.
type BandStats struct {
	Band          string // "<8", "8-10", "10-12", "12+"
	AvgRate       float64
	MedianRate    float64
	SampleCount   int
	ActivityCount int
}

// BucketStats aggregates observations by minutes into the run.
type BucketStats struct {
	Bucket        string // "0-15", "15-30", "30-45", "45+"
	AvgRate       float64
	MedianRate    float64
	SampleCount   int
	ActivityCount int
}

// Target fuel rate derivation methods.
const (
	MethodRegression    = "regression"
	MethodExtrapolation = "extrapolation"
)

// FuelTarget is the estimated carb intake (g/h) at which BG would hold flat
// in a zone, plus how it was derived.
type FuelTarget struct {
	Zone         Zone
	Method       string
	GramsPerHour float64
}

// BGResponseModel is the aggregate BG response across a batch of activities.
// It is rebuilt wholesale on every call; nothing in it is updated in place.
type BGResponseModel struct {
	Observations []Observation
	ZoneStats    map[Zone]ZoneStats
	StartBGBands []BandStats
	TimeBuckets  []BucketStats
	FuelTargets  map[Zone]FuelTarget

	ActivityCount     int // activities that aligned and produced observations
	SkippedActivities int // activities whose streams could not be aligned
}

// FuelSuggestion recommends a carb intake increase for a zone where BG is
// dropping faster than the acceptable rate.
type FuelSuggestion struct {
	Zone               Zone
	AvgRate            float64 // current mmol/L per 10 min
	SuggestedIncreaseG float64 // extra grams/hour
}

// BuildBGModel aligns each activity's streams, extracts windowed
// observations, and aggregates them into per-zone, per-start-level, and
// per-time statistics. Activities whose streams cannot be aligned are
// counted and skipped rather than failing the build.
func BuildBGModel(activities []ActivityInput, lthr float64) *BGResponseModel {
	model := &BGResponseModel{
		ZoneStats:   make(map[Zone]ZoneStats),
		FuelTargets: make(map[Zone]FuelTarget),
	}

	for _, activity := range activities {
		pair := AlignStreams(normalizeGlucoseStream(activity.Streams))
		if pair == nil {
			model.SkippedActivities++
			continue
		}

		startBG := activity.StartBG
		if startBG == 0 {
			startBG = pair.Glucose[0].Value
		}

		obs := ExtractObservations(pair.HR, pair.Glucose, lthr, activity.ID, activity.FuelRate, startBG, activity.EntrySlope)
		if len(obs) == 0 {
			model.SkippedActivities++
			continue
		}

		model.Observations = append(model.Observations, obs...)
		model.ActivityCount++
	}

	model.ZoneStats = buildZoneStats(model.Observations)
	model.StartBGBands = buildBandStats(model.Observations)
	model.TimeBuckets = buildBucketStats(model.Observations)
	model.FuelTargets = buildFuelTargets(model.Observations)

	return model
}

// normalizeGlucoseStream returns the streams with any glucose stream's
// values normalized to mmol/L. Other streams are untouched.
func normalizeGlucoseStream(streams []Stream) []Stream {
	out := make([]Stream, len(streams))
	copy(out, streams)
	for i := range out {
		for _, kind := range glucoseKinds {
			if out[i].Kind == kind {
				out[i].Values = NormalizeGlucose(out[i].Values)
			}
		}
	}
	return out
}

// ClassifyBGBand buckets a starting BG level. Bands are half-open with
// inclusive lower bounds: exactly 8.0 belongs to "8-10".
func ClassifyBGBand(startBG float64) string {
	switch {
	case startBG < BGBandEdges[0]:
		return fmt.Sprintf("<%.0f", BGBandEdges[0])
	case startBG < BGBandEdges[1]:
		return fmt.Sprintf("%.0f-%.0f", BGBandEdges[0], BGBandEdges[1])
	case startBG < BGBandEdges[2]:
		return fmt.Sprintf("%.0f-%.0f", BGBandEdges[1], BGBandEdges[2])
	default:
		return fmt.Sprintf("%.0f+", BGBandEdges[2])
	}
}

// ClassifyTimeBucket buckets minutes into the run, lower-inclusive.
func ClassifyTimeBucket(relativeMinute float64) string {
	switch {
	case relativeMinute < TimeBucketEdges[0]:
		return fmt.Sprintf("0-%.0f", TimeBucketEdges[0])
	case relativeMinute < TimeBucketEdges[1]:
		return fmt.Sprintf("%.0f-%.0f", TimeBucketEdges[0], TimeBucketEdges[1])
	case relativeMinute < TimeBucketEdges[2]:
		return fmt.Sprintf("%.0f-%.0f", TimeBucketEdges[1], TimeBucketEdges[2])
	default:
		return fmt.Sprintf("%.0f+", TimeBucketEdges[2])
	}
}

// BGBandOrder lists start-BG bands from lowest to highest.
var BGBandOrder = []string{"<8", "8-10", "10-12", "12+"}

// TimeBucketOrder lists relative-time buckets in chronological order.
var TimeBucketOrder = []string{"0-15", "15-30", "30-45", "45+"}

// confidenceFor maps a sample count to a reliability tier.
func confidenceFor(samples int) string {
	switch {
	case samples < ConfidenceLowBelow:
		return "low"
	case samples < ConfidenceMediumBelow:
		return "medium"
	default:
		return "high"
	}
}

func buildZoneStats(observations []Observation) map[Zone]ZoneStats {
	stats := make(map[Zone]ZoneStats)

	for _, zone := range ZoneOrder {
		var rates []float64
		var fuelSum float64
		var fuelCount int
		activities := make(map[int64]bool)

		for _, o := range observations {
			if o.Zone != zone {
				continue
			}
			rates = append(rates, o.BGRate)
			activities[o.ActivityID] = true
			if o.FuelRate != nil {
				fuelSum += *o.FuelRate
				fuelCount++
			}
		}
		if len(rates) == 0 {
			continue
		}

		zs := ZoneStats{
			Zone:          zone,
			AvgRate:       mean(rates),
			MedianRate:    median(rates),
			SampleCount:   len(rates),
			Confidence:    confidenceFor(len(rates)),
			ActivityCount: len(activities),
		}
		if fuelCount > 0 {
			avgFuel := fuelSum / float64(fuelCount)
			zs.AvgFuelRate = &avgFuel
		}
		stats[zone] = zs
	}

	return stats
}

func buildBandStats(observations []Observation) []BandStats {
	var out []BandStats
	for _, band := range BGBandOrder {
		var rates []float64
		activities := make(map[int64]bool)
		for _, o := range observations {
			if ClassifyBGBand(o.StartBG) != band {
				continue
			}
			rates = append(rates, o.BGRate)
			activities[o.ActivityID] = true
		}
		if len(rates) == 0 {
			continue
		}
		out = append(out, BandStats{
			Band:          band,
			AvgRate:       mean(rates),
			MedianRate:    median(rates),
			SampleCount:   len(rates),
			ActivityCount: len(activities),
		})
	}
	return out
}

func buildBucketStats(observations []Observation) []BucketStats {
	var out []BucketStats
	for _, bucket := range TimeBucketOrder {
		var rates []float64
		activities := make(map[int64]bool)
		for _, o := range observations {
			if ClassifyTimeBucket(o.RelativeMinute) != bucket {
				continue
			}
			rates = append(rates, o.BGRate)
			activities[o.ActivityID] = true
		}
		if len(rates) == 0 {
			continue
		}
		out = append(out, BucketStats{
			Bucket:        bucket,
			AvgRate:       mean(rates),
			MedianRate:    median(rates),
			SampleCount:   len(rates),
			ActivityCount: len(activities),
		})
	}
	return out
}

// buildFuelTargets estimates, per zone, the carb intake at which BG would
// hold flat. With readings at two or more distinct fuel rates (each backed
// by enough observations) the zero crossing of a least-squares fit of
// bgRate against fuelRate is used; with a single tested rate the target is
// extrapolated from the observed drop at that rate. Zones without fueled
// observations get no target.
func buildFuelTargets(observations []Observation) map[Zone]FuelTarget {
	targets := make(map[Zone]FuelTarget)

	for _, zone := range ZoneOrder {
		// Group fueled observations by the exact fuel rate tested.
		ratesByFuel := make(map[float64][]float64)
		for _, o := range observations {
			if o.Zone != zone || o.FuelRate == nil {
				continue
			}
			ratesByFuel[*o.FuelRate] = append(ratesByFuel[*o.FuelRate], o.BGRate)
		}
		if len(ratesByFuel) == 0 {
			continue
		}

		if len(ratesByFuel) == 1 {
			for fuel, rates := range ratesByFuel {
				target := fuel + (-mean(rates))*FuelGramsPerRateUnit
				targets[zone] = FuelTarget{
					Zone:         zone,
					Method:       MethodExtrapolation,
					GramsPerHour: clampMin(target, 0),
				}
			}
			continue
		}

		// Regression needs each fuel rate backed by enough observations
		// to trust its mean.
		var points []Point
		for fuel, rates := range ratesByFuel {
			if len(rates) < 3 {
				continue
			}
			points = append(points, Point{X: fuel, Y: mean(rates)})
		}
		if len(points) < 2 {
			continue
		}
		sort.Slice(points, func(i, j int) bool { return points[i].X < points[j].X })

		fit := LinearRegression(points)
		if fit.Slope == 0 {
			continue
		}
		targets[zone] = FuelTarget{
			Zone:         zone,
			Method:       MethodRegression,
			GramsPerHour: clampMin(-fit.Intercept/fit.Slope, 0),
		}
	}

	return targets
}

// SuggestFuelAdjustments recommends carb intake increases for zones whose
// average BG drop exceeds the acceptable rate. Each half unit of excess
// drop rate maps to a 6 g/h step, rounded up.
func SuggestFuelAdjustments(model *BGResponseModel) []FuelSuggestion {
	var suggestions []FuelSuggestion
	for _, zone := range ZoneOrder {
		zs, ok := model.ZoneStats[zone]
		if !ok || zs.AvgRate >= AcceptableBGRate {
			continue
		}
		excess := math.Abs(zs.AvgRate) - math.Abs(AcceptableBGRate)
		steps := math.Ceil(excess / FuelSuggestionPerStep)
		suggestions = append(suggestions, FuelSuggestion{
			Zone:               zone,
			AvgRate:            zs.AvgRate,
			SuggestedIncreaseG: steps * FuelSuggestionStepG,
		})
	}
	return suggestions
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func clampMin(v, min float64) float64 {
	if v < min {
		return min
	}
	return v
}
