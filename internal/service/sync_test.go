package service

import (
	"testing"
	"time"

	"springa/internal/nightscout"
	"springa/internal/strava"
)

func TestConvertActivity(t *testing.T) {
	start := time.Date(2026, 6, 1, 7, 0, 0, 0, time.UTC)
	a := strava.Activity{
		ID:               123,
		Athlete:          strava.Athlete{ID: 42},
		Name:             "Morning Run",
		Type:             "Run",
		StartDate:        start,
		StartDateLocal:   start.Add(2 * time.Hour),
		Distance:         10000,
		MovingTime:       3300,
		ElapsedTime:      3400,
		AverageSpeed:     3.03,
		AverageHeartrate: 152.5,
		HasHeartrate:     true,
	}

	got := convertActivity(a)
	if got.ID != 123 || got.AthleteID != 42 {
		t.Errorf("IDs: %+v", got)
	}
	if got.AverageHeartrate == nil || *got.AverageHeartrate != 152.5 {
		t.Errorf("AverageHeartrate: got %v", got.AverageHeartrate)
	}
	if got.StreamsSynced {
		t.Error("new activity should not be marked streams synced")
	}

	a.AverageHeartrate = 0
	got = convertActivity(a)
	if got.AverageHeartrate != nil {
		t.Errorf("zero HR should map to nil, got %v", *got.AverageHeartrate)
	}
}

func TestConvertStreams(t *testing.T) {
	s := &strava.Streams{
		Time:           &strava.StreamData[int]{Data: []int{0, 1, 2}},
		Heartrate:      &strava.StreamData[int]{Data: []int{120, 122, 124}},
		VelocitySmooth: &strava.StreamData[float64]{Data: []float64{2.8, 2.9}}, // shorter
	}

	points := convertStreams(99, s)
	if len(points) != 3 {
		t.Fatalf("got %d points, want 3", len(points))
	}
	if points[1].ActivityID != 99 || points[1].TimeOffset != 1 {
		t.Errorf("point 1: %+v", points[1])
	}
	if points[1].Heartrate == nil || *points[1].Heartrate != 122 {
		t.Errorf("point 1 hr: %v", points[1].Heartrate)
	}
	if points[2].VelocitySmooth != nil {
		t.Errorf("point 2 velocity should be nil beyond shorter stream")
	}

	if got := convertStreams(99, nil); got != nil {
		t.Error("nil streams should give nil points")
	}
	if got := convertStreams(99, &strava.Streams{}); got != nil {
		t.Error("streams without time should give nil points")
	}
}

func TestConvertEntries(t *testing.T) {
	now := time.Now()
	entries := []nightscout.Entry{
		{ID: "e1", SGV: 180.18, Date: now.UnixMilli(), Direction: "Flat"},
		{ID: "e2", SGV: 0, Date: now.UnixMilli()}, // dropped
	}

	readings := convertEntries(entries)
	if len(readings) != 1 {
		t.Fatalf("got %d readings, want 1", len(readings))
	}
	if readings[0].ValueMmol < 9.99 || readings[0].ValueMmol > 10.01 {
		t.Errorf("ValueMmol: got %v, want ~10.0", readings[0].ValueMmol)
	}
	if readings[0].Trend != "Flat" {
		t.Errorf("Trend: got %q", readings[0].Trend)
	}
}

func TestConvertTreatments(t *testing.T) {
	now := time.Now()
	treatments := []nightscout.Treatment{
		{ID: "t1", EventType: "Meal Bolus", Insulin: 4.5, Carbs: 40, Date: now.UnixMilli()},
		{ID: "t2", EventType: "Temp Basal", Absolute: 0.9, Duration: 30, Date: now.UnixMilli()},
		{ID: "t3", EventType: "Site Change", Date: now.UnixMilli()}, // dropped
	}

	mapped := convertTreatments(treatments)
	if len(mapped) != 3 {
		t.Fatalf("got %d mapped, want 3 (bolus + carbs + basal)", len(mapped))
	}

	byType := map[string]float64{}
	for _, m := range mapped {
		byType[m.Type] = m.Value
	}
	if byType["bolus"] != 4.5 {
		t.Errorf("bolus value: got %v", byType["bolus"])
	}
	if byType["carbohydrate"] != 40 {
		t.Errorf("carbohydrate value: got %v", byType["carbohydrate"])
	}
	if byType["basal-rate"] != 0.9 {
		t.Errorf("basal-rate value: got %v", byType["basal-rate"])
	}
}

func TestConvertTreatmentsDistinctCarbID(t *testing.T) {
	now := time.Now()
	treatments := []nightscout.Treatment{
		{ID: "t1", EventType: "Meal Bolus", Insulin: 4.5, Carbs: 40, Date: now.UnixMilli()},
	}

	mapped := convertTreatments(treatments)
	if len(mapped) != 2 {
		t.Fatalf("got %d mapped, want 2", len(mapped))
	}
	if mapped[0].ID == mapped[1].ID {
		t.Error("bolus and carb rows from one event must not collide on ID")
	}
}
