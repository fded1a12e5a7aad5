package analysis

import (
	"time"
)

// ZoneSegment is one sustained same-zone stretch within a single activity.
type ZoneSegment struct {
	Zone         Zone
	AvgPace      float64 // min/km
	AvgHR        float64
	DurationMin  float64
	ActivityID   int64
	ActivityDate time.Time
}

// Minimum sustained minutes for a segment to count, per zone. Short dips
// into a zone say nothing about sustainable pace there. Hard has no entry:
// sustained maximal efforts are rarely sampled safely, so hard pace is
// always supplied by extrapolation instead.
var minSegmentMinutes = map[Zone]float64{
	ZoneEasy:   3,
	ZoneSteady: 2,
	ZoneTempo:  1,
}

// ExtractZoneSegments scans a per-minute heart-rate/pace timeline and
// collapses consecutive same-zone minutes into segments. Pace samples
// outside the valid range are dropped before averaging. Segments shorter
// than the zone's minimum, and all hard-zone segments, are discarded.
// A non-positive LTHR yields no segments.
func ExtractZoneSegments(hr, pace []Sample, lthr float64, activityID int64, date time.Time) []ZoneSegment {
	if lthr <= 0 {
		return nil
	}
	n := len(hr)
	if len(pace) < n {
		n = len(pace)
	}
	if n == 0 {
		return nil
	}

	var segments []ZoneSegment

	var current *segmentAccumulator
	flush := func() {
		if current == nil {
			return
		}
		if seg, ok := current.finish(activityID, date); ok {
			segments = append(segments, seg)
		}
		current = nil
	}

	for i := 0; i < n; i++ {
		zone := ClassifyZone(hr[i].Value, lthr)

		// A gap in the timeline breaks the segment even within one zone.
		if current != nil && (zone != current.zone || hr[i].Time-current.lastMinute > 1) {
			flush()
		}
		if current == nil {
			current = &segmentAccumulator{zone: zone}
		}
		current.add(hr[i].Time, hr[i].Value, pace[i].Value)
	}
	flush()

	return segments
}

// segmentAccumulator gathers one in-progress same-zone run of minutes.
type segmentAccumulator struct {
	zone       Zone
	minutes    int
	hrSum      float64
	paceSum    float64
	paceCount  int
	lastMinute float64
}

func (a *segmentAccumulator) add(minute, hr, pace float64) {
	a.minutes++
	a.hrSum += hr
	a.lastMinute = minute
	if pace >= MinValidPaceMinKm && pace <= MaxValidPaceMinKm {
		a.paceSum += pace
		a.paceCount++
	}
}

func (a *segmentAccumulator) finish(activityID int64, date time.Time) (ZoneSegment, bool) {
	minMinutes, keep := minSegmentMinutes[a.zone]
	if !keep || float64(a.minutes) < minMinutes || a.paceCount == 0 {
		return ZoneSegment{}, false
	}
	return ZoneSegment{
		Zone:         a.zone,
		AvgPace:      a.paceSum / float64(a.paceCount),
		AvgHR:        a.hrSum / float64(a.minutes),
		DurationMin:  float64(a.minutes),
		ActivityID:   activityID,
		ActivityDate: date,
	}, true
}

// ZonePace is one row of a calibrated pace table.
type ZonePace struct {
	Pace       float64 // min/km
	Calibrated bool
}

// ZoneSummary describes how much data backed a zone's calibration.
type ZoneSummary struct {
	SegmentCount int
	TotalMinutes float64
}

// CalibratedPaceTable maps zones to paces derived from actual segments.
// Uncalibrated zones keep Pace zero; callers fall back to a default table.
type CalibratedPaceTable struct {
	Zones            map[Zone]ZonePace
	HardExtrapolated bool
	Summaries        map[Zone]ZoneSummary
}

// BuildCalibratedPaceTable turns segments into a per-zone pace table.
// Easy, steady, and tempo get the duration-weighted average pace of their
// segments. Hard is never sampled directly: with at least two calibrated
// zones it is extrapolated by fitting pace against zone index and
// evaluating one step past tempo, clamped to the valid pace range.
func BuildCalibratedPaceTable(segments []ZoneSegment) *CalibratedPaceTable {
	table := &CalibratedPaceTable{
		Zones:     make(map[Zone]ZonePace),
		Summaries: make(map[Zone]ZoneSummary),
	}

	var calibrated []Point // zone index vs pace, for hard extrapolation
	for _, zone := range []Zone{ZoneEasy, ZoneSteady, ZoneTempo} {
		var weightedSum, totalMinutes float64
		var count int
		for _, s := range segments {
			if s.Zone != zone {
				continue
			}
			weightedSum += s.AvgPace * s.DurationMin
			totalMinutes += s.DurationMin
			count++
		}
		if count == 0 || totalMinutes == 0 {
			table.Zones[zone] = ZonePace{}
			continue
		}
		pace := weightedSum / totalMinutes
		table.Zones[zone] = ZonePace{Pace: pace, Calibrated: true}
		table.Summaries[zone] = ZoneSummary{SegmentCount: count, TotalMinutes: totalMinutes}
		calibrated = append(calibrated, Point{X: float64(zoneIndex(zone)), Y: pace})
	}

	if len(calibrated) >= 2 {
		fit := LinearRegression(calibrated)
		pace := fit.Slope*float64(zoneIndex(ZoneHard)) + fit.Intercept
		pace = clamp(pace, MinValidPaceMinKm, MaxValidPaceMinKm)
		table.Zones[ZoneHard] = ZonePace{Pace: pace, Calibrated: true}
		table.HardExtrapolated = true
	} else {
		table.Zones[ZoneHard] = ZonePace{}
	}

	return table
}

// ZonePaceTrend fits pace against elapsed days for one zone's segments
// within the trailing window ending at now. Positive slope means the runner
// is getting slower in that zone, negative faster. Returns nil with fewer
// than PaceTrendMinSegments segments or a span under PaceTrendMinSpanDays.
func ZonePaceTrend(segments []ZoneSegment, zone Zone, windowDays int, now time.Time) *float64 {
	cutoff := now.AddDate(0, 0, -windowDays)

	var inWindow []ZoneSegment
	for _, s := range segments {
		if s.Zone == zone && !s.ActivityDate.Before(cutoff) && !s.ActivityDate.After(now) {
			inWindow = append(inWindow, s)
		}
	}
	if len(inWindow) < PaceTrendMinSegments {
		return nil
	}

	earliest, latest := inWindow[0].ActivityDate, inWindow[0].ActivityDate
	for _, s := range inWindow[1:] {
		if s.ActivityDate.Before(earliest) {
			earliest = s.ActivityDate
		}
		if s.ActivityDate.After(latest) {
			latest = s.ActivityDate
		}
	}
	if latest.Sub(earliest).Hours()/24 < PaceTrendMinSpanDays {
		return nil
	}

	points := make([]Point, len(inWindow))
	for i, s := range inWindow {
		points[i] = Point{
			X: s.ActivityDate.Sub(earliest).Hours() / 24,
			Y: s.AvgPace,
		}
	}

	fit := LinearRegression(points)
	slope := fit.Slope
	return &slope
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
