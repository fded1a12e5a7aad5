package store

import (
	"errors"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func testActivity(id int64) *Activity {
	return &Activity{
		ID:             id,
		AthleteID:      42,
		Name:           "Morning Run",
		Type:           "Run",
		StartDate:      time.Date(2026, 6, 1, 7, 0, 0, 0, time.UTC),
		StartDateLocal: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC),
		Timezone:       "Europe/Stockholm",
		Distance:       10000,
		MovingTime:     3300,
		ElapsedTime:    3400,
		AverageSpeed:   3.03,
		HasHeartrate:   true,
	}
}

func TestAuthRoundTrip(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.GetAuth(); !errors.Is(err, ErrNoAuth) {
		t.Fatalf("GetAuth on empty db: got %v, want ErrNoAuth", err)
	}

	auth := &Auth{
		AthleteID:    42,
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := db.SaveAuth(auth); err != nil {
		t.Fatalf("SaveAuth: %v", err)
	}

	got, err := db.GetAuth()
	if err != nil {
		t.Fatalf("GetAuth: %v", err)
	}
	if got.AthleteID != 42 || got.AccessToken != "access" {
		t.Errorf("GetAuth: got %+v", got)
	}

	newExpiry := time.Date(2026, 6, 2, 12, 0, 0, 0, time.UTC)
	if err := db.UpdateTokens("access2", "refresh2", newExpiry); err != nil {
		t.Fatalf("UpdateTokens: %v", err)
	}
	got, err = db.GetAuth()
	if err != nil {
		t.Fatalf("GetAuth after update: %v", err)
	}
	if got.AccessToken != "access2" || !got.ExpiresAt.Equal(newExpiry) {
		t.Errorf("after UpdateTokens: got %+v", got)
	}
}

func TestActivityUpsertAndGet(t *testing.T) {
	db := openTestDB(t)

	a := testActivity(100)
	a.AverageHeartrate = floatPtr(152.5)
	if err := db.UpsertActivity(a); err != nil {
		t.Fatalf("UpsertActivity: %v", err)
	}

	got, err := db.GetActivity(100)
	if err != nil {
		t.Fatalf("GetActivity: %v", err)
	}
	if got.Name != "Morning Run" || !got.HasHeartrate {
		t.Errorf("GetActivity: got %+v", got)
	}
	if got.AverageHeartrate == nil || *got.AverageHeartrate != 152.5 {
		t.Errorf("AverageHeartrate: got %v", got.AverageHeartrate)
	}
	if !got.StartDate.Equal(a.StartDate) {
		t.Errorf("StartDate: got %v, want %v", got.StartDate, a.StartDate)
	}

	if _, err := db.GetActivity(999); !errors.Is(err, ErrActivityNotFound) {
		t.Errorf("GetActivity missing: got %v, want ErrActivityNotFound", err)
	}
}

func TestUpsertPreservesRunnerContext(t *testing.T) {
	db := openTestDB(t)

	a := testActivity(100)
	if err := db.UpsertActivity(a); err != nil {
		t.Fatalf("UpsertActivity: %v", err)
	}
	if err := db.SetActivityContext(100, floatPtr(45), floatPtr(9.2)); err != nil {
		t.Fatalf("SetActivityContext: %v", err)
	}

	// Re-sync the same activity with a new name
	a.Name = "Morning Run (renamed)"
	if err := db.UpsertActivity(a); err != nil {
		t.Fatalf("UpsertActivity again: %v", err)
	}

	got, err := db.GetActivity(100)
	if err != nil {
		t.Fatalf("GetActivity: %v", err)
	}
	if got.Name != "Morning Run (renamed)" {
		t.Errorf("Name not updated: got %q", got.Name)
	}
	if got.FuelRateG == nil || *got.FuelRateG != 45 {
		t.Errorf("FuelRateG lost on upsert: got %v", got.FuelRateG)
	}
	if got.StartBG == nil || *got.StartBG != 9.2 {
		t.Errorf("StartBG lost on upsert: got %v", got.StartBG)
	}
}

func TestSetActivityContextMissing(t *testing.T) {
	db := openTestDB(t)
	err := db.SetActivityContext(1, floatPtr(30), nil)
	if !errors.Is(err, ErrActivityNotFound) {
		t.Errorf("got %v, want ErrActivityNotFound", err)
	}
}

func TestSyncFlags(t *testing.T) {
	db := openTestDB(t)

	a := testActivity(100)
	if err := db.UpsertActivity(a); err != nil {
		t.Fatalf("UpsertActivity: %v", err)
	}

	needing, err := db.GetActivitiesNeedingStreams(10)
	if err != nil {
		t.Fatalf("GetActivitiesNeedingStreams: %v", err)
	}
	if len(needing) != 1 {
		t.Fatalf("needing streams: got %d, want 1", len(needing))
	}

	if err := db.MarkStreamsSynced(100); err != nil {
		t.Fatalf("MarkStreamsSynced: %v", err)
	}
	if err := db.MarkGlucoseSynced(100); err != nil {
		t.Fatalf("MarkGlucoseSynced: %v", err)
	}

	needing, err = db.GetActivitiesNeedingStreams(10)
	if err != nil {
		t.Fatalf("GetActivitiesNeedingStreams: %v", err)
	}
	if len(needing) != 0 {
		t.Errorf("after marking: got %d needing, want 0", len(needing))
	}

	got, err := db.GetActivity(100)
	if err != nil {
		t.Fatalf("GetActivity: %v", err)
	}
	if !got.StreamsSynced || !got.GlucoseSynced {
		t.Errorf("flags not set: %+v", got)
	}

	if err := db.MarkStreamsSynced(999); !errors.Is(err, ErrActivityNotFound) {
		t.Errorf("MarkStreamsSynced missing: got %v", err)
	}
}

func TestListRunsWithHeartrate(t *testing.T) {
	db := openTestDB(t)

	run := testActivity(1)
	ride := testActivity(2)
	ride.Type = "Ride"
	ride.StartDate = run.StartDate.Add(24 * time.Hour)
	noHR := testActivity(3)
	noHR.HasHeartrate = false
	noHR.StartDate = run.StartDate.Add(48 * time.Hour)
	newer := testActivity(4)
	newer.StartDate = run.StartDate.Add(72 * time.Hour)

	for _, a := range []*Activity{run, ride, noHR, newer} {
		if err := db.UpsertActivity(a); err != nil {
			t.Fatalf("UpsertActivity %d: %v", a.ID, err)
		}
	}

	got, err := db.ListRunsWithHeartrate(10)
	if err != nil {
		t.Fatalf("ListRunsWithHeartrate: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d runs, want 2", len(got))
	}
	if got[0].ID != 4 || got[1].ID != 1 {
		t.Errorf("order: got [%d, %d], want [4, 1]", got[0].ID, got[1].ID)
	}
}

func TestStreamsRoundTrip(t *testing.T) {
	db := openTestDB(t)

	if err := db.UpsertActivity(testActivity(100)); err != nil {
		t.Fatalf("UpsertActivity: %v", err)
	}

	points := []StreamPoint{
		{ActivityID: 100, TimeOffset: 0, Heartrate: intPtr(120), VelocitySmooth: floatPtr(2.8)},
		{ActivityID: 100, TimeOffset: 1, Heartrate: intPtr(122), VelocitySmooth: floatPtr(2.9), Altitude: floatPtr(14.2)},
		{ActivityID: 100, TimeOffset: 2, Heartrate: intPtr(124)},
	}
	if err := db.SaveStreams(100, points); err != nil {
		t.Fatalf("SaveStreams: %v", err)
	}

	ok, err := db.HasStreams(100)
	if err != nil || !ok {
		t.Fatalf("HasStreams: got %v, %v", ok, err)
	}

	got, err := db.GetStreams(100)
	if err != nil {
		t.Fatalf("GetStreams: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d points, want 3", len(got))
	}
	if got[1].Heartrate == nil || *got[1].Heartrate != 122 {
		t.Errorf("point 1 heartrate: got %v", got[1].Heartrate)
	}
	if got[2].VelocitySmooth != nil {
		t.Errorf("point 2 velocity should be nil, got %v", *got[2].VelocitySmooth)
	}

	// Saving again replaces
	if err := db.SaveStreams(100, points[:1]); err != nil {
		t.Fatalf("SaveStreams replace: %v", err)
	}
	got, err = db.GetStreams(100)
	if err != nil {
		t.Fatalf("GetStreams after replace: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("after replace: got %d points, want 1", len(got))
	}
}

func TestBGReadingsRoundTrip(t *testing.T) {
	db := openTestDB(t)

	base := time.Date(2026, 6, 1, 7, 0, 0, 0, time.UTC)
	readings := []BGReading{
		{Time: base, ValueMmol: 8.4, Trend: "Flat"},
		{Time: base.Add(5 * time.Minute), ValueMmol: 8.1, Trend: "FortyFiveDown"},
		{Time: base.Add(10 * time.Minute), ValueMmol: 7.7, Trend: "FortyFiveDown"},
	}
	if err := db.SaveBGReadings(readings); err != nil {
		t.Fatalf("SaveBGReadings: %v", err)
	}

	got, err := db.GetBGReadingsBetween(base, base.Add(5*time.Minute))
	if err != nil {
		t.Fatalf("GetBGReadingsBetween: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d readings, want 2", len(got))
	}
	if got[0].ValueMmol != 8.4 || got[1].ValueMmol != 8.1 {
		t.Errorf("values: got %v, %v", got[0].ValueMmol, got[1].ValueMmol)
	}

	// Overlapping re-sync keeps one row per timestamp
	readings[1].ValueMmol = 8.2
	if err := db.SaveBGReadings(readings); err != nil {
		t.Fatalf("SaveBGReadings resync: %v", err)
	}
	got, err = db.GetBGReadingsBetween(base, base.Add(10*time.Minute))
	if err != nil {
		t.Fatalf("GetBGReadingsBetween: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("after resync: got %d readings, want 3", len(got))
	}
	if got[1].ValueMmol != 8.2 {
		t.Errorf("resynced value: got %v, want 8.2", got[1].ValueMmol)
	}

	latest, err := db.LatestBGReading()
	if err != nil {
		t.Fatalf("LatestBGReading: %v", err)
	}
	if latest == nil || !latest.Time.Equal(base.Add(10*time.Minute)) {
		t.Errorf("LatestBGReading: got %+v", latest)
	}
}

func TestTreatmentsRoundTrip(t *testing.T) {
	db := openTestDB(t)

	base := time.Date(2026, 6, 1, 6, 0, 0, 0, time.UTC)
	treatments := []Treatment{
		{ID: "t1", Time: base, Type: "bolus", Value: 4.5, Unit: "U"},
		{ID: "t2", Time: base.Add(30 * time.Minute), Type: "carbohydrate", Value: 40, Unit: "g"},
		{ID: "t3", Time: base.Add(time.Hour), Type: "basal-rate", Value: 0.9, Unit: "U/h"},
	}
	if err := db.SaveTreatments(treatments); err != nil {
		t.Fatalf("SaveTreatments: %v", err)
	}

	got, err := db.GetTreatmentsBetween(base, base.Add(45*time.Minute))
	if err != nil {
		t.Fatalf("GetTreatmentsBetween: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d treatments, want 2", len(got))
	}
	if got[0].Type != "bolus" || got[1].Type != "carbohydrate" {
		t.Errorf("types: got %s, %s", got[0].Type, got[1].Type)
	}

	// Upsert by ID
	treatments[0].Value = 5.0
	if err := db.SaveTreatments(treatments[:1]); err != nil {
		t.Fatalf("SaveTreatments upsert: %v", err)
	}
	got, err = db.GetTreatmentsBetween(base, base)
	if err != nil {
		t.Fatalf("GetTreatmentsBetween: %v", err)
	}
	if len(got) != 1 || got[0].Value != 5.0 {
		t.Errorf("upsert: got %+v", got)
	}
}

func TestSyncState(t *testing.T) {
	db := openTestDB(t)

	val, err := db.GetSyncState("last_activity_sync")
	if err != nil {
		t.Fatalf("GetSyncState empty: %v", err)
	}
	if val != "" {
		t.Errorf("empty state: got %q", val)
	}

	if err := db.SetSyncState("last_activity_sync", "1750000000"); err != nil {
		t.Fatalf("SetSyncState: %v", err)
	}
	val, err = db.GetSyncState("last_activity_sync")
	if err != nil {
		t.Fatalf("GetSyncState: %v", err)
	}
	if val != "1750000000" {
		t.Errorf("got %q, want 1750000000", val)
	}
}
