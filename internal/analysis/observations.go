package analysis

// Observation is one discrete rate-of-change sample produced by sliding a
// window over an aligned timeline. BGRate is normalized to mmol/L per
// 10 minutes regardless of window length. Observations are immutable once
// created.
type Observation struct {
	Zone           Zone
	BGRate         float64  // mmol/L per 10 min
	FuelRate       *float64 // grams/hour of carbs during the activity, if known
	ActivityID     int64
	TimeMinute     float64  // window start on the aligned timeline
	StartBG        float64  // mmol/L at activity start
	RelativeMinute float64  // window start relative to the first aligned minute
	EntrySlope     *float64 // BG slope going into the run, if known
}

// ExtractObservations slides a fixed window over an aligned HR/glucose
// timeline and emits one rate-of-change observation per window position.
// The first SkipStartMin minutes and last SkipEndMin minutes are excluded
// so warmup spikes and end-of-run artifacts don't contaminate the model.
// Each window's zone comes from the mean heart rate across the window.
//
// Requires at least ObservationWindowMin aligned points; returns an empty
// slice otherwise.
func ExtractObservations(hr, glucose []Sample, lthr float64, activityID int64, fuelRate *float64, startBG float64, entrySlope *float64) []Observation {
	if len(hr) < ObservationWindowMin || len(hr) != len(glucose) || lthr <= 0 {
		return nil
	}

	firstMinute := hr[0].Time
	lastMinute := hr[len(hr)-1].Time

	windowStart := firstMinute + SkipStartMin
	windowEnd := lastMinute - SkipEndMin - ObservationWindowMin

	var observations []Observation
	for t := windowStart; t <= windowEnd; t++ {
		gStart, gEnd, ok := glucoseWindowEndpoints(glucose, t, t+ObservationWindowMin)
		if !ok {
			continue
		}

		avgHR, ok := meanHRInWindow(hr, t, t+ObservationWindowMin)
		if !ok {
			continue
		}

		// Rate over the window, normalized to per-10-minutes.
		bgRate := (gEnd - gStart) / ObservationWindowMin * 10

		observations = append(observations, Observation{
			Zone:           ClassifyZone(avgHR, lthr),
			BGRate:         bgRate,
			FuelRate:       fuelRate,
			ActivityID:     activityID,
			TimeMinute:     t,
			StartBG:        startBG,
			RelativeMinute: t - firstMinute,
			EntrySlope:     entrySlope,
		})
	}

	return observations
}

// glucoseWindowEndpoints finds the first and last glucose values inside
// [from, to]. The bounds are inclusive so a per-minute timeline yields
// endpoints a full window length apart. Reports false when the window holds
// no readings.
func glucoseWindowEndpoints(glucose []Sample, from, to float64) (first, last float64, ok bool) {
	found := false
	for _, s := range glucose {
		if s.Time < from || s.Time > to {
			continue
		}
		if !found {
			first = s.Value
			found = true
		}
		last = s.Value
	}
	return first, last, found
}

// meanHRInWindow averages heart rate over [from, to].
func meanHRInWindow(hr []Sample, from, to float64) (float64, bool) {
	var sum float64
	var count int
	for _, s := range hr {
		if s.Time >= from && s.Time <= to {
			sum += s.Value
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}
