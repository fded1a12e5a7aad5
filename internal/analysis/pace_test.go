package analysis

import (
	"math"
	"testing"
	"time"
)

// paceTimeline builds co-indexed per-minute HR and pace samples.
func paceTimeline(hrByMinute, paceByMinute []float64) (hr, pace []Sample) {
	for i := range hrByMinute {
		hr = append(hr, Sample{Time: float64(i), Value: hrByMinute[i]})
		pace = append(pace, Sample{Time: float64(i), Value: paceByMinute[i]})
	}
	return hr, pace
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestExtractZoneSegments(t *testing.T) {
	const lthr = 100
	date := time.Date(2026, 5, 10, 7, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		hr      []float64
		pace    []float64
		checkFn func(t *testing.T, segments []ZoneSegment)
	}{
		{
			name: "sustained easy effort",
			hr:   repeat(70, 10),
			pace: repeat(6.5, 10),
			checkFn: func(t *testing.T, segments []ZoneSegment) {
				if len(segments) != 1 {
					t.Fatalf("got %d segments, want 1", len(segments))
				}
				s := segments[0]
				if s.Zone != ZoneEasy || s.DurationMin != 10 {
					t.Errorf("segment = %+v, want 10 easy minutes", s)
				}
				if math.Abs(s.AvgPace-6.5) > 1e-9 {
					t.Errorf("AvgPace = %v, want 6.5", s.AvgPace)
				}
				if math.Abs(s.AvgHR-70) > 1e-9 {
					t.Errorf("AvgHR = %v, want 70", s.AvgHR)
				}
			},
		},
		{
			name: "short easy dip dropped",
			hr:   append(repeat(70, 2), repeat(80, 5)...),
			pace: repeat(6.0, 7),
			checkFn: func(t *testing.T, segments []ZoneSegment) {
				// 2 easy minutes are under the 3-minute floor; the
				// 5 steady minutes survive.
				if len(segments) != 1 || segments[0].Zone != ZoneSteady {
					t.Fatalf("segments = %+v, want one steady segment", segments)
				}
			},
		},
		{
			name: "single tempo minute kept",
			hr:   append(repeat(70, 5), 92),
			pace: repeat(5.0, 6),
			checkFn: func(t *testing.T, segments []ZoneSegment) {
				if len(segments) != 2 {
					t.Fatalf("got %d segments, want easy + tempo", len(segments))
				}
				if segments[1].Zone != ZoneTempo || segments[1].DurationMin != 1 {
					t.Errorf("second segment = %+v, want 1 tempo minute", segments[1])
				}
			},
		},
		{
			name: "hard never extracted",
			hr:   repeat(105, 10),
			pace: repeat(4.0, 10),
			checkFn: func(t *testing.T, segments []ZoneSegment) {
				if len(segments) != 0 {
					t.Errorf("got %d segments, want none for sustained hard effort", len(segments))
				}
			},
		},
		{
			name: "invalid pace samples excluded from the average",
			hr:   repeat(70, 4),
			pace: []float64{6.0, 20.0, 6.0, 1.0}, // 20.0 is a pause, 1.0 is GPS noise
			checkFn: func(t *testing.T, segments []ZoneSegment) {
				if len(segments) != 1 {
					t.Fatalf("got %d segments, want 1", len(segments))
				}
				if math.Abs(segments[0].AvgPace-6.0) > 1e-9 {
					t.Errorf("AvgPace = %v, want 6.0 with outliers dropped", segments[0].AvgPace)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hr, pace := paceTimeline(tt.hr, tt.pace)
			tt.checkFn(t, ExtractZoneSegments(hr, pace, lthr, 1, date))
		})
	}
}

func TestExtractZoneSegmentsZeroLTHR(t *testing.T) {
	hr, pace := paceTimeline(repeat(70, 10), repeat(6.0, 10))
	if got := ExtractZoneSegments(hr, pace, 0, 1, time.Time{}); got != nil {
		t.Errorf("expected nil segments with LTHR 0, got %d", len(got))
	}
}

func segment(zone Zone, pace, minutes float64) ZoneSegment {
	return ZoneSegment{Zone: zone, AvgPace: pace, DurationMin: minutes, ActivityID: 1}
}

func TestBuildCalibratedPaceTable(t *testing.T) {
	tests := []struct {
		name     string
		segments []ZoneSegment
		checkFn  func(t *testing.T, table *CalibratedPaceTable)
	}{
		{
			name: "three calibrated zones extrapolate hard",
			segments: []ZoneSegment{
				segment(ZoneEasy, 7.0, 10),
				segment(ZoneSteady, 6.0, 5),
				segment(ZoneTempo, 5.0, 3),
			},
			checkFn: func(t *testing.T, table *CalibratedPaceTable) {
				for zone, want := range map[Zone]float64{ZoneEasy: 7.0, ZoneSteady: 6.0, ZoneTempo: 5.0} {
					zp := table.Zones[zone]
					if !zp.Calibrated || math.Abs(zp.Pace-want) > 1e-9 {
						t.Errorf("%v = %+v, want calibrated %v", zone, zp, want)
					}
				}
				hard := table.Zones[ZoneHard]
				if !hard.Calibrated || !table.HardExtrapolated {
					t.Fatal("hard should be extrapolated")
				}
				// Fit over (0,7),(1,6),(2,5) evaluated at 3.
				if math.Abs(hard.Pace-4.0) > 1e-9 {
					t.Errorf("hard pace = %v, want 4.0", hard.Pace)
				}
			},
		},
		{
			name: "duration-weighted zone average",
			segments: []ZoneSegment{
				segment(ZoneEasy, 7.0, 30),
				segment(ZoneEasy, 8.0, 10),
			},
			checkFn: func(t *testing.T, table *CalibratedPaceTable) {
				// (7*30 + 8*10) / 40 = 7.25
				if got := table.Zones[ZoneEasy].Pace; math.Abs(got-7.25) > 1e-9 {
					t.Errorf("easy pace = %v, want 7.25", got)
				}
				summary := table.Summaries[ZoneEasy]
				if summary.SegmentCount != 2 || summary.TotalMinutes != 40 {
					t.Errorf("easy summary = %+v, want 2 segments / 40 min", summary)
				}
			},
		},
		{
			name:     "one calibrated zone leaves hard uncalibrated",
			segments: []ZoneSegment{segment(ZoneEasy, 7.0, 10)},
			checkFn: func(t *testing.T, table *CalibratedPaceTable) {
				if table.Zones[ZoneHard].Calibrated || table.HardExtrapolated {
					t.Error("hard should stay uncalibrated with one calibrated zone")
				}
				if table.Zones[ZoneSteady].Calibrated || table.Zones[ZoneTempo].Calibrated {
					t.Error("steady/tempo should stay uncalibrated without segments")
				}
			},
		},
		{
			name: "extrapolated hard clamps into the valid range",
			segments: []ZoneSegment{
				segment(ZoneEasy, 4.0, 10),
				segment(ZoneSteady, 2.5, 10),
			},
			checkFn: func(t *testing.T, table *CalibratedPaceTable) {
				// Fit over (0,4.0),(1,2.5) evaluated at 3 gives -0.5.
				if got := table.Zones[ZoneHard].Pace; got != MinValidPaceMinKm {
					t.Errorf("hard pace = %v, want clamped to %v", got, MinValidPaceMinKm)
				}
			},
		},
		{
			name:     "no segments",
			segments: nil,
			checkFn: func(t *testing.T, table *CalibratedPaceTable) {
				for _, zone := range ZoneOrder {
					if table.Zones[zone].Calibrated {
						t.Errorf("%v should be uncalibrated with no segments", zone)
					}
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.checkFn(t, BuildCalibratedPaceTable(tt.segments))
		})
	}
}

func TestZonePaceTrend(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	daysAgo := func(d int) time.Time { return now.AddDate(0, 0, -d) }

	slowing := []ZoneSegment{
		{Zone: ZoneEasy, AvgPace: 6.0, ActivityDate: daysAgo(30)},
		{Zone: ZoneEasy, AvgPace: 6.1, ActivityDate: daysAgo(20)},
		{Zone: ZoneEasy, AvgPace: 6.2, ActivityDate: daysAgo(10)},
		{Zone: ZoneEasy, AvgPace: 6.3, ActivityDate: daysAgo(0)},
	}

	slope := ZonePaceTrend(slowing, ZoneEasy, PaceTrendWindowDays, now)
	if slope == nil {
		t.Fatal("expected a trend slope")
	}
	// Pace rises 0.01 min/km per day: the runner is slowing.
	if math.Abs(*slope-0.01) > 1e-9 {
		t.Errorf("slope = %v, want 0.01", *slope)
	}

	t.Run("too few segments", func(t *testing.T) {
		if got := ZonePaceTrend(slowing[:2], ZoneEasy, PaceTrendWindowDays, now); got != nil {
			t.Errorf("expected nil with 2 segments, got %v", *got)
		}
	})

	t.Run("span too short", func(t *testing.T) {
		tight := []ZoneSegment{
			{Zone: ZoneEasy, AvgPace: 6.0, ActivityDate: daysAgo(10)},
			{Zone: ZoneEasy, AvgPace: 6.1, ActivityDate: daysAgo(5)},
			{Zone: ZoneEasy, AvgPace: 6.2, ActivityDate: daysAgo(0)},
		}
		if got := ZonePaceTrend(tight, ZoneEasy, PaceTrendWindowDays, now); got != nil {
			t.Errorf("expected nil for a 10-day span, got %v", *got)
		}
	})

	t.Run("old segments fall outside the window", func(t *testing.T) {
		stale := []ZoneSegment{
			{Zone: ZoneEasy, AvgPace: 6.0, ActivityDate: daysAgo(200)},
			{Zone: ZoneEasy, AvgPace: 6.1, ActivityDate: daysAgo(150)},
			{Zone: ZoneEasy, AvgPace: 6.2, ActivityDate: daysAgo(100)},
		}
		if got := ZonePaceTrend(stale, ZoneEasy, PaceTrendWindowDays, now); got != nil {
			t.Errorf("expected nil outside the window, got %v", *got)
		}
	})

	t.Run("other zones ignored", func(t *testing.T) {
		if got := ZonePaceTrend(slowing, ZoneTempo, PaceTrendWindowDays, now); got != nil {
			t.Errorf("expected nil for a zone without segments, got %v", *got)
		}
	})
}

func TestLinearRegression(t *testing.T) {
	tests := []struct {
		name   string
		points []Point
		want   Regression
	}{
		{
			name:   "two point line",
			points: []Point{{0, 0}, {1, 2}},
			want:   Regression{Slope: 2, Intercept: 0, RSquared: 1},
		},
		{
			name:   "one point",
			points: []Point{{3, 4}},
			want:   Regression{},
		},
		{
			name:   "no points",
			points: nil,
			want:   Regression{},
		},
		{
			name:   "vertical points degenerate to zero",
			points: []Point{{2, 1}, {2, 5}},
			want:   Regression{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LinearRegression(tt.points)
			if math.Abs(got.Slope-tt.want.Slope) > 1e-9 ||
				math.Abs(got.Intercept-tt.want.Intercept) > 1e-9 ||
				math.Abs(got.RSquared-tt.want.RSquared) > 1e-9 {
				t.Errorf("LinearRegression() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLinearRegressionNoisyFit(t *testing.T) {
	points := []Point{{0, 1.1}, {1, 1.9}, {2, 3.2}, {3, 3.8}}
	got := LinearRegression(points)
	if got.Slope <= 0 {
		t.Errorf("slope = %v, want positive", got.Slope)
	}
	if got.RSquared < 0.9 || got.RSquared > 1 {
		t.Errorf("RSquared = %v, want in (0.9, 1]", got.RSquared)
	}
}
