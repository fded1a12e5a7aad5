package analysis

import (
	"math"
	"testing"
)

// alignedMinutes builds co-indexed HR and glucose samples over n minutes.
// HR is constant; glucose starts at startBG and changes by ratePerMin each
// minute.
func alignedMinutes(n int, hr, startBG, ratePerMin float64) (hrs, glucose []Sample) {
	for i := 0; i < n; i++ {
		m := float64(i)
		hrs = append(hrs, Sample{Time: m, Value: hr})
		glucose = append(glucose, Sample{Time: m, Value: startBG + ratePerMin*m})
	}
	return hrs, glucose
}

func TestExtractObservationsWindowing(t *testing.T) {
	// 15 minutes of easy running with glucose dropping 0.2 mmol/L per
	// minute: every window start lands in [5, 15-2-5] and every rate is
	// -2.0 per 10 minutes.
	hr, glucose := alignedMinutes(15, 125, 10.0, -0.2)

	obs := ExtractObservations(hr, glucose, 168, 1, nil, 10.0, nil)
	if len(obs) == 0 {
		t.Fatal("expected observations from 15 aligned minutes")
	}

	for _, o := range obs {
		if o.TimeMinute < 5 || o.TimeMinute > 8 {
			t.Errorf("TimeMinute = %v, want within [5, 8]", o.TimeMinute)
		}
		if math.Abs(o.BGRate-(-2.0)) > 1e-9 {
			t.Errorf("BGRate = %v, want -2.0", o.BGRate)
		}
		if o.Zone != ZoneEasy {
			t.Errorf("Zone = %v, want easy (HR 125 at LTHR 168)", o.Zone)
		}
		if o.ActivityID != 1 {
			t.Errorf("ActivityID = %v, want 1", o.ActivityID)
		}
		if o.RelativeMinute != o.TimeMinute {
			t.Errorf("RelativeMinute = %v, want %v for a timeline starting at 0", o.RelativeMinute, o.TimeMinute)
		}
	}
}

func TestExtractObservationsTooFewPoints(t *testing.T) {
	hr, glucose := alignedMinutes(4, 125, 10.0, -0.1)
	if obs := ExtractObservations(hr, glucose, 168, 1, nil, 10.0, nil); len(obs) != 0 {
		t.Errorf("expected no observations from 4 points, got %d", len(obs))
	}
}

func TestExtractObservationsCarriesContext(t *testing.T) {
	hr, glucose := alignedMinutes(20, 125, 9.0, -0.1)
	fuel := 45.0
	slope := -0.8

	obs := ExtractObservations(hr, glucose, 168, 42, &fuel, 9.0, &slope)
	if len(obs) == 0 {
		t.Fatal("expected observations")
	}
	for _, o := range obs {
		if o.FuelRate == nil || *o.FuelRate != 45.0 {
			t.Errorf("FuelRate = %v, want 45", o.FuelRate)
		}
		if o.StartBG != 9.0 {
			t.Errorf("StartBG = %v, want 9.0", o.StartBG)
		}
		if o.EntrySlope == nil || *o.EntrySlope != -0.8 {
			t.Errorf("EntrySlope = %v, want -0.8", o.EntrySlope)
		}
	}
}

func TestClassifyZoneBoundaries(t *testing.T) {
	const lthr = 100 // HR equals %LTHR directly

	tests := []struct {
		hr   float64
		want Zone
	}{
		{50, ZoneEasy}, // below 66 lumps into easy
		{65.999, ZoneEasy},
		{66, ZoneEasy},
		{77.999, ZoneEasy},
		{78, ZoneSteady}, // boundary belongs to the higher zone
		{88.999, ZoneSteady},
		{89, ZoneTempo},
		{98.999, ZoneTempo},
		{99, ZoneHard},
		{120, ZoneHard},
	}

	for _, tt := range tests {
		if got := ClassifyZone(tt.hr, lthr); got != tt.want {
			t.Errorf("ClassifyZone(%v, %v) = %v, want %v", tt.hr, lthr, got, tt.want)
		}
	}
}

func TestClassifyZoneWindowMean(t *testing.T) {
	// Mean HR over the window decides the zone, not any single minute.
	var hr, glucose []Sample
	for i := 0; i < 15; i++ {
		v := 120.0
		if i%2 == 0 {
			v = 160.0 // spikes alone would be tempo at LTHR 168
		}
		hr = append(hr, Sample{Time: float64(i), Value: v})
		glucose = append(glucose, Sample{Time: float64(i), Value: 8.0})
	}

	obs := ExtractObservations(hr, glucose, 168, 1, nil, 8.0, nil)
	if len(obs) == 0 {
		t.Fatal("expected observations")
	}
	for _, o := range obs {
		// Window means sit around 138-142 bpm, ~83% of LTHR.
		if o.Zone != ZoneSteady {
			t.Errorf("Zone = %v, want steady from the window mean", o.Zone)
		}
	}
}
