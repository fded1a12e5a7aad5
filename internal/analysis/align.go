// Package analysis turns a diabetic runner's raw time-series data into
// queryable models: how fast blood glucose drops per effort zone, what pace
// each heart-rate zone corresponds to, and how much insulin is still active
// at the start of a run. Everything here is a pure function over in-memory
// sequences; fetching and persistence live elsewhere.
package analysis

import (
	"math"
	"sort"
)

// Stream is one named physiological signal from an activity. Values are
// parallel to the activity's "time" stream (timestamps in seconds).
type Stream struct {
	Kind   string
	Values []float64
}

// Sample is a single timestamped reading on a minute timeline.
type Sample struct {
	Time  float64 // minutes
	Value float64
}

// Glucose streams go by different names depending on which service
// produced them.
var glucoseKinds = []string{"bloodglucose", "glucose", "ga_smooth"}

// AlignedPair holds heart-rate and glucose series co-indexed by matched
// minute. Both slices always have equal length.
type AlignedPair struct {
	HR      []Sample
	Glucose []Sample
}

// AlignStreams merges independently-sampled heart-rate and glucose streams
// onto a common per-minute timeline. Each raw timestamp is rounded to the
// nearest minute, keeping the last value recorded within that minute; a
// heart-rate minute matches glucose at the same minute, or failing that one
// minute earlier, then one minute later.
//
// Returns nil if the time, heartrate, or glucose stream is missing, or if
// fewer than MinAlignedMinutes minutes match on both sides.
func AlignStreams(streams []Stream) *AlignedPair {
	timeStream := findStream(streams, "time")
	hrStream := findStream(streams, "heartrate")
	glucoseStream := findGlucoseStream(streams)
	if timeStream == nil || hrStream == nil || glucoseStream == nil {
		return nil
	}

	hrByMinute := lastValuePerMinute(timeStream.Values, hrStream.Values)
	glucoseByMinute := lastValuePerMinute(timeStream.Values, glucoseStream.Values)

	minutes := make([]int, 0, len(hrByMinute))
	for m := range hrByMinute {
		minutes = append(minutes, m)
	}
	sort.Ints(minutes)

	pair := &AlignedPair{}
	for _, m := range minutes {
		g, ok := glucoseByMinute[m]
		if !ok {
			g, ok = glucoseByMinute[m-1]
		}
		if !ok {
			g, ok = glucoseByMinute[m+1]
		}
		if !ok {
			continue
		}
		pair.HR = append(pair.HR, Sample{Time: float64(m), Value: hrByMinute[m]})
		pair.Glucose = append(pair.Glucose, Sample{Time: float64(m), Value: g})
	}

	if len(pair.HR) < MinAlignedMinutes {
		return nil
	}
	return pair
}

// findStream returns the stream with the given kind, or nil.
func findStream(streams []Stream, kind string) *Stream {
	for i := range streams {
		if streams[i].Kind == kind && len(streams[i].Values) > 0 {
			return &streams[i]
		}
	}
	return nil
}

// findGlucoseStream returns the first stream matching any known glucose kind.
func findGlucoseStream(streams []Stream) *Stream {
	for _, kind := range glucoseKinds {
		if s := findStream(streams, kind); s != nil {
			return s
		}
	}
	return nil
}

// lastValuePerMinute maps rounded minutes to the last value recorded in
// that minute. Timestamps are seconds; extra values beyond the time stream's
// length are ignored.
func lastValuePerMinute(timeSeconds, values []float64) map[int]float64 {
	n := len(timeSeconds)
	if len(values) < n {
		n = len(values)
	}
	byMinute := make(map[int]float64, n)
	for i := 0; i < n; i++ {
		minute := int(math.Round(timeSeconds[i] / 60.0))
		byMinute[minute] = values[i]
	}
	return byMinute
}
