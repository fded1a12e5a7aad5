package service

import (
	"math"
	"testing"
	"time"

	"springa/internal/store"
)

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func secondPoints(seconds int, hr int, velocity float64) []store.StreamPoint {
	points := make([]store.StreamPoint, seconds)
	for i := 0; i < seconds; i++ {
		points[i] = store.StreamPoint{
			TimeOffset:     i,
			Heartrate:      intPtr(hr),
			VelocitySmooth: floatPtr(velocity),
		}
	}
	return points
}

func TestBuildAnalysisStreamsCarriesGlucose(t *testing.T) {
	start := time.Date(2026, 6, 1, 7, 0, 0, 0, time.UTC)
	points := secondPoints(600, 130, 2.8)

	readings := []store.BGReading{
		{Time: start.Add(-2 * time.Minute), ValueMmol: 9.0},
		{Time: start.Add(5 * time.Minute), ValueMmol: 8.5},
	}

	streams := buildAnalysisStreams(points, readings, start)
	if streams == nil {
		t.Fatal("expected streams, got nil")
	}
	if len(streams) != 3 {
		t.Fatalf("got %d streams, want 3", len(streams))
	}

	var timeVals, bgVals []float64
	for _, s := range streams {
		switch s.Kind {
		case "time":
			timeVals = s.Values
		case "bloodglucose":
			bgVals = s.Values
		}
	}
	if len(timeVals) != 600 || len(bgVals) != 600 {
		t.Fatalf("stream lengths: time %d, bg %d, want 600 each", len(timeVals), len(bgVals))
	}

	// Before the 5-minute reading the pre-run value is carried
	if bgVals[0] != 9.0 {
		t.Errorf("bg at t=0: got %v, want 9.0 (carried from before start)", bgVals[0])
	}
	// After 5 minutes the newer reading takes over
	if bgVals[301] != 8.5 {
		t.Errorf("bg at t=301s: got %v, want 8.5", bgVals[301])
	}
}

func TestBuildAnalysisStreamsNoReadingBeforeStart(t *testing.T) {
	start := time.Date(2026, 6, 1, 7, 0, 0, 0, time.UTC)
	points := secondPoints(600, 130, 2.8)

	// First reading 4 minutes in: the opening points have no value to carry
	readings := []store.BGReading{
		{Time: start.Add(4 * time.Minute), ValueMmol: 8.8},
	}

	streams := buildAnalysisStreams(points, readings, start)
	if streams == nil {
		t.Fatal("expected streams, got nil")
	}
	for _, s := range streams {
		if s.Kind == "time" {
			if s.Values[0] != 240 {
				t.Errorf("first point: got offset %v, want 240 (first covered second)", s.Values[0])
			}
		}
	}
}

func TestBuildAnalysisStreamsEmpty(t *testing.T) {
	start := time.Now()
	if got := buildAnalysisStreams(nil, []store.BGReading{{Time: start, ValueMmol: 8}}, start); got != nil {
		t.Error("nil points should give nil streams")
	}
	if got := buildAnalysisStreams(secondPoints(60, 130, 2.8), nil, start); got != nil {
		t.Error("no readings should give nil streams")
	}
}

func TestBuildPaceSamples(t *testing.T) {
	// 3 minutes at 150 bpm, 3.0 m/s -> pace 1000/3.0/60 = 5.556 min/km
	points := secondPoints(180, 150, 3.0)

	hr, pace := buildPaceSamples(points)
	if len(hr) != 3 || len(pace) != 3 {
		t.Fatalf("got %d hr, %d pace samples, want 3 each", len(hr), len(pace))
	}
	if hr[0].Value != 150 {
		t.Errorf("hr value: got %v, want 150", hr[0].Value)
	}
	wantPace := MetersPerKm / 3.0 / SecondsPerMinute
	if math.Abs(pace[1].Value-wantPace) > 1e-9 {
		t.Errorf("pace value: got %v, want %v", pace[1].Value, wantPace)
	}
	if pace[2].Time != 2 {
		t.Errorf("pace sample minute: got %v, want 2", pace[2].Time)
	}
}

func TestBuildPaceSamplesSkipsStopped(t *testing.T) {
	points := secondPoints(120, 150, 3.0)
	// Second minute spent standing still
	for i := 60; i < 120; i++ {
		points[i].VelocitySmooth = floatPtr(0.1)
	}

	hr, pace := buildPaceSamples(points)
	if len(hr) != 1 || len(pace) != 1 {
		t.Fatalf("got %d hr, %d pace samples, want 1 each (stopped minute dropped)", len(hr), len(pace))
	}
	if pace[0].Time != 0 {
		t.Errorf("surviving minute: got %v, want 0", pace[0].Time)
	}
}

func TestEntrySlope(t *testing.T) {
	start := time.Date(2026, 6, 1, 7, 0, 0, 0, time.UTC)

	// Dropping 0.1 mmol/L per minute over the window
	readings := []store.BGReading{
		{Time: start.Add(-10 * time.Minute), ValueMmol: 9.0},
		{Time: start.Add(-5 * time.Minute), ValueMmol: 8.5},
		{Time: start, ValueMmol: 8.0},
	}

	slope := entrySlope(readings, start)
	if slope == nil {
		t.Fatal("expected slope, got nil")
	}
	// 0.1/min * 10 = 1.0 mmol/L per 10 min, falling
	if math.Abs(*slope-(-1.0)) > 1e-9 {
		t.Errorf("slope: got %v, want -1.0", *slope)
	}
}

func TestEntrySlopeTooFewReadings(t *testing.T) {
	start := time.Date(2026, 6, 1, 7, 0, 0, 0, time.UTC)

	readings := []store.BGReading{
		{Time: start.Add(-40 * time.Minute), ValueMmol: 9.0}, // outside window
		{Time: start, ValueMmol: 8.0},
	}

	if slope := entrySlope(readings, start); slope != nil {
		t.Errorf("expected nil slope with one in-window reading, got %v", *slope)
	}
}

func TestDoseEvents(t *testing.T) {
	when := time.Date(2026, 6, 1, 6, 0, 0, 0, time.UTC)
	treatments := []store.Treatment{
		{ID: "t1", Time: when, Type: "bolus", Value: 4.5, Unit: "U"},
		{ID: "t2", Time: when, Type: "basal-rate", Value: 0.9, Unit: "U/h"},
	}

	events := doseEvents(treatments)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if string(events[0].Type) != "bolus" || events[0].Value != 4.5 {
		t.Errorf("event 0: %+v", events[0])
	}
	if string(events[1].Type) != "basal-rate" {
		t.Errorf("event 1: %+v", events[1])
	}
}
