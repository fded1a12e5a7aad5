package service

import (
	"time"

	"springa/internal/analysis"
	"springa/internal/store"
)

// buildAnalysisStreams assembles the parallel stream set for one activity:
// the stored time/heartrate arrays, plus a glucose array carried onto the
// activity timeline by holding the most recent CGM reading at each point.
// Returns nil when there is no glucose coverage at all.
func buildAnalysisStreams(points []store.StreamPoint, readings []store.BGReading, start time.Time) []analysis.Stream {
	if len(points) == 0 || len(readings) == 0 {
		return nil
	}

	timeVals := make([]float64, 0, len(points))
	hrVals := make([]float64, 0, len(points))
	bgVals := make([]float64, 0, len(points))

	ri := 0
	carried := false
	var current float64

	for _, p := range points {
		if p.Heartrate == nil {
			continue
		}

		at := start.Add(time.Duration(p.TimeOffset) * time.Second)
		for ri < len(readings) && !readings[ri].Time.After(at) {
			current = readings[ri].ValueMmol
			carried = true
			ri++
		}
		if !carried {
			continue // no reading yet at the start of the run
		}

		timeVals = append(timeVals, float64(p.TimeOffset))
		hrVals = append(hrVals, float64(*p.Heartrate))
		bgVals = append(bgVals, current)
	}

	if len(timeVals) == 0 {
		return nil
	}

	return []analysis.Stream{
		{Kind: "time", Values: timeVals},
		{Kind: "heartrate", Values: hrVals},
		{Kind: "bloodglucose", Values: bgVals},
	}
}

// buildPaceSamples aggregates stream points into per-minute heart-rate and
// pace series for zone pace calibration. Pace is min/km; stopped or
// near-stopped seconds are excluded.
func buildPaceSamples(points []store.StreamPoint) (hr, pace []analysis.Sample) {
	type minuteAgg struct {
		hrSum    float64
		hrCount  int
		velSum   float64
		velCount int
	}

	byMinute := make(map[int]*minuteAgg)
	maxMinute := 0

	for _, p := range points {
		minute := p.TimeOffset / SecondsPerMinute
		agg := byMinute[minute]
		if agg == nil {
			agg = &minuteAgg{}
			byMinute[minute] = agg
		}
		if minute > maxMinute {
			maxMinute = minute
		}

		if isValidHeartrate(p.Heartrate) {
			agg.hrSum += float64(*p.Heartrate)
			agg.hrCount++
		}
		if p.VelocitySmooth != nil && *p.VelocitySmooth > MinSpeedForPace {
			agg.velSum += *p.VelocitySmooth
			agg.velCount++
		}
	}

	for m := 0; m <= maxMinute; m++ {
		agg := byMinute[m]
		if agg == nil || agg.hrCount == 0 || agg.velCount == 0 {
			continue
		}
		avgVel := agg.velSum / float64(agg.velCount)
		paceMinKm := MetersPerKm / avgVel / SecondsPerMinute

		hr = append(hr, analysis.Sample{Time: float64(m), Value: agg.hrSum / float64(agg.hrCount)})
		pace = append(pace, analysis.Sample{Time: float64(m), Value: paceMinKm})
	}

	return hr, pace
}

// entrySlope fits the glucose trend over the readings just before the
// start of a run. Returned in mmol/L per 10 minutes, the same scale as
// observation rates. Nil with fewer than two readings in the window.
func entrySlope(readings []store.BGReading, start time.Time) *float64 {
	windowStart := start.Add(-EntrySlopeWindowMinutes * time.Minute)

	var points []analysis.Point
	for _, r := range readings {
		if r.Time.Before(windowStart) || r.Time.After(start) {
			continue
		}
		minutes := r.Time.Sub(start).Minutes() // negative, approaching zero
		points = append(points, analysis.Point{X: minutes, Y: r.ValueMmol})
	}
	if len(points) < 2 {
		return nil
	}

	reg := analysis.LinearRegression(points)
	slope := reg.Slope * 10
	return &slope
}

// doseEvents maps stored treatments to analysis dose events.
func doseEvents(treatments []store.Treatment) []analysis.DoseEvent {
	events := make([]analysis.DoseEvent, 0, len(treatments))
	for _, t := range treatments {
		events = append(events, analysis.DoseEvent{
			Timestamp: t.Time,
			Type:      analysis.DoseType(t.Type),
			Value:     t.Value,
			Unit:      t.Unit,
		})
	}
	return events
}

// isValidHeartrate checks if HR is in valid range
func isValidHeartrate(hr *int) bool {
	return hr != nil && *hr > MinValidHeartrate && *hr < MaxValidHeartrate
}
