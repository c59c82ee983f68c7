package assemble

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/meltforce/zeppvault/internal/decode"
	"github.com/meltforce/zeppvault/internal/models"
)

const (
	// 2026-02-06 00:00 in UTC-6 is 1770357600 unix seconds.
	testMidnight = int64(1770357600)
	testTZ       = "-21600"
)

func mustDate(t *testing.T, s string) models.Date {
	t.Helper()
	d, err := models.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func encodeSummary(t *testing.T, s models.DecodedSummary) string {
	t.Helper()
	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshaling summary: %v", err)
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func intp(v int) *int { return &v }

// daySummary builds a summary with step totals, activity stages, and a
// same-night sleep session for 2026-02-06.
func daySummary(t *testing.T) models.DecodedSummary {
	t.Helper()
	return models.DecodedSummary{
		Version: 6,
		Goal:    intp(8000),
		TZ:      testTZ,
		SyncSec: testMidnight + 20*3600,
		Steps: &models.StepsSection{
			Total:     7412,
			DistanceM: 5210,
			Calories:  312,
			Stages: []models.StageEntry{
				{Start: 989, Stop: 1000, Mode: 3, Steps: intp(741), DisM: intp(520), Cal: intp(31)},
				{Start: 1000, Stop: 1010, Mode: 1, Steps: intp(200)},
			},
		},
		Sleep: &models.SleepSection{
			Start:        testMidnight + 31*60,
			End:          testMidnight + 100*60,
			Score:        intp(82),
			RestingHR:    intp(54),
			DeepMinutes:  intp(29),
			LightMinutes: intp(22),
			Stages: []models.StageEntry{
				{Start: 31, Stop: 38, Mode: 4},
				{Start: 38, Stop: 67, Mode: 5},
				{Start: 67, Stop: 100, Mode: 8},
			},
		},
	}
}

// TestAssembleFullDay checks that a complete payload populates every section
// of the day record with no recorded errors.
func TestAssembleFullDay(t *testing.T) {
	date := mustDate(t, "2026-02-06")
	hrBytes := make([]byte, 1440)
	hrBytes[480] = 72
	hrBytes[481] = 255
	hrBytes[482] = 75
	actBytes := []byte{12, 0, 1, 0, 0, 0, 30, 2, 9}

	payload := &models.RawDayPayload{
		Date:        date,
		Summary:     encodeSummary(t, daySummary(t)),
		HeartRate:   base64.StdEncoding.EncodeToString(hrBytes),
		Activity:    base64.StdEncoding.EncodeToString(actBytes),
		Source:      "band",
		LastSyncSec: testMidnight + 21*3600,
		Stress: &models.StressEvent{
			TimestampMS: (testMidnight + 12*3600) * 1000,
			AvgStress:   intp(34),
			MaxStress:   intp(71),
			MinStress:   intp(12),
			Relaxed:     intp(41),
			Normal:      intp(39),
			Medium:      intp(15),
			High:        intp(5),
		},
	}

	rec := New(nil, nil).Assemble(date, payload, nil)

	if len(rec.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", rec.Errors)
	}
	if rec.Steps == nil || rec.Steps.Total != 7412 {
		t.Fatalf("Steps = %+v, want total 7412", rec.Steps)
	}
	if rec.Steps.Goal == nil || *rec.Steps.Goal != 8000 {
		t.Errorf("Steps.Goal = %v, want 8000", rec.Steps.Goal)
	}
	if len(rec.Activity) != 2 {
		t.Fatalf("len(Activity) = %d, want 2", len(rec.Activity))
	}
	if rec.Activity[0].Category != models.ActivityFastWalk {
		t.Errorf("Activity[0].Category = %q, want fast_walking", rec.Activity[0].Category)
	}
	if len(rec.HeartRate) != 2 {
		t.Fatalf("len(HeartRate) = %d, want 2 (sentinel 255 skipped)", len(rec.HeartRate))
	}
	if rec.HeartRate[0].MinuteOfDay != 480 || rec.HeartRate[0].BPM != 72 {
		t.Errorf("HeartRate[0] = %+v, want minute 480 bpm 72", rec.HeartRate[0])
	}
	if len(rec.ActivityMinutes) != 3 {
		t.Fatalf("len(ActivityMinutes) = %d, want 3", len(rec.ActivityMinutes))
	}
	if rec.ActivityMinutes[2].Steps != 30 {
		t.Errorf("ActivityMinutes[2].Steps = %d, want 30", rec.ActivityMinutes[2].Steps)
	}
	if rec.Sleep == nil {
		t.Fatal("Sleep is nil")
	}
	if got := rec.Sleep.DurationMinutes(); got != 69 {
		t.Errorf("Sleep.DurationMinutes() = %d, want 69", got)
	}
	if len(rec.Sleep.Stages) != 3 {
		t.Errorf("len(Sleep.Stages) = %d, want 3", len(rec.Sleep.Stages))
	}
	if rec.Stress == nil || rec.Stress.Zones == nil {
		t.Fatal("Stress or Stress.Zones is nil")
	}
	if rec.Stress.Zones.Relaxed != 41 {
		t.Errorf("Stress.Zones.Relaxed = %d, want 41", rec.Stress.Zones.Relaxed)
	}
	if rec.SyncTime == nil {
		t.Fatal("SyncTime is nil")
	}
	if want := time.Unix(testMidnight+21*3600, 0).UTC(); !rec.SyncTime.Equal(want) {
		t.Errorf("SyncTime = %v, want %v (payload wins over summary)", rec.SyncTime, want)
	}
}

// TestAssemblePartialPayload checks that a corrupt heart rate field leaves
// the rest of the record intact: steps stay populated, heart rate stays
// absent, and exactly one malformed-payload error is recorded.
func TestAssemblePartialPayload(t *testing.T) {
	date := mustDate(t, "2026-02-06")
	payload := &models.RawDayPayload{
		Date:      date,
		Summary:   encodeSummary(t, daySummary(t)),
		HeartRate: "!!!not-base64!!!",
	}

	rec := New(nil, nil).Assemble(date, payload, nil)

	if rec.Steps == nil || rec.Steps.Total != 7412 {
		t.Fatalf("Steps = %+v, want total 7412 despite corrupt heart rate", rec.Steps)
	}
	if rec.HeartRate != nil {
		t.Errorf("HeartRate = %v, want nil", rec.HeartRate)
	}
	if len(rec.Errors) != 1 {
		t.Fatalf("len(Errors) = %d, want 1: %v", len(rec.Errors), rec.Errors)
	}
	if rec.Errors[0].Field != "data_hr" {
		t.Errorf("Errors[0].Field = %q, want data_hr", rec.Errors[0].Field)
	}
	if !errors.Is(rec.Errors[0], decode.ErrMalformedPayload) {
		t.Errorf("Errors[0] does not wrap ErrMalformedPayload: %v", rec.Errors[0])
	}
}

// TestAssembleCorruptSummary checks that a garbage summary still lets the
// binary timelines through.
func TestAssembleCorruptSummary(t *testing.T) {
	date := mustDate(t, "2026-02-06")
	payload := &models.RawDayPayload{
		Date:      date,
		Summary:   base64.StdEncoding.EncodeToString([]byte("not json")),
		HeartRate: base64.StdEncoding.EncodeToString([]byte{0, 70, 0}),
	}

	rec := New(nil, nil).Assemble(date, payload, nil)

	if rec.Steps != nil {
		t.Errorf("Steps = %+v, want nil", rec.Steps)
	}
	if len(rec.HeartRate) != 1 || rec.HeartRate[0].BPM != 70 {
		t.Fatalf("HeartRate = %+v, want one sample at 70 bpm", rec.HeartRate)
	}
	if len(rec.Errors) != 1 || rec.Errors[0].Field != "summary" {
		t.Fatalf("Errors = %v, want one summary error", rec.Errors)
	}
}

// TestAssembleNilPayloads checks the degenerate case: no data at all yields
// a record carrying only the date.
func TestAssembleNilPayloads(t *testing.T) {
	date := mustDate(t, "2026-02-06")
	rec := New(nil, nil).Assemble(date, nil, nil)
	if !rec.Date.Equal(date) {
		t.Errorf("Date = %v, want %v", rec.Date, date)
	}
	if rec.Steps != nil || rec.Sleep != nil || rec.HeartRate != nil || len(rec.Errors) != 0 {
		t.Errorf("record not empty: %+v", rec)
	}
}

// TestAssembleTZFromPrior checks that the timezone falls back to the prior
// day's summary when the current day lacks one.
func TestAssembleTZFromPrior(t *testing.T) {
	date := mustDate(t, "2026-02-06")

	priorSummary := daySummary(t)
	// A session spilling past the prior day's midnight, filed under D-1.
	priorSummary.Sleep = &models.SleepSection{
		Start: testMidnight + 31*60,
		End:   testMidnight + 100*60,
		Stages: []models.StageEntry{
			{Start: 1471, Stop: 1540, Mode: 4},
		},
	}
	prior := &models.RawDayPayload{
		Date:    mustDate(t, "2026-02-05"),
		Summary: encodeSummary(t, priorSummary),
	}

	current := daySummary(t)
	current.TZ = ""
	current.Sleep = nil
	payload := &models.RawDayPayload{Date: date, Summary: encodeSummary(t, current)}

	rec := New(nil, nil).Assemble(date, payload, prior)

	if len(rec.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", rec.Errors)
	}
	if rec.Sleep == nil {
		t.Fatal("Sleep is nil, want session from prior payload")
	}
	want := time.Unix(testMidnight+31*60, 0)
	if !rec.Sleep.Start.Equal(want) {
		t.Errorf("Sleep.Start = %v, want %v", rec.Sleep.Start, want)
	}
	if !rec.Sleep.SourceDate.Equal(prior.Date) {
		t.Errorf("Sleep.SourceDate = %v, want %v", rec.Sleep.SourceDate, prior.Date)
	}
}

// TestAssembleBadTZ checks that an unparseable tz string records an error
// and resolves sleep against UTC instead of dropping the session.
func TestAssembleBadTZ(t *testing.T) {
	date := mustDate(t, "2026-02-06")
	s := daySummary(t)
	s.TZ = "central"
	payload := &models.RawDayPayload{Date: date, Summary: encodeSummary(t, s)}

	rec := New(nil, nil).Assemble(date, payload, nil)

	if len(rec.Errors) != 1 || rec.Errors[0].Field != "tz" {
		t.Fatalf("Errors = %v, want one tz error", rec.Errors)
	}
	if rec.Sleep == nil {
		t.Error("Sleep is nil, want session kept under UTC fallback")
	}
}

// TestAssembleSyncTimeFromSummary checks the summary sync field is used when
// the payload carries no last_sync_time.
func TestAssembleSyncTimeFromSummary(t *testing.T) {
	date := mustDate(t, "2026-02-06")
	payload := &models.RawDayPayload{Date: date, Summary: encodeSummary(t, daySummary(t))}

	rec := New(nil, nil).Assemble(date, payload, nil)

	if rec.SyncTime == nil {
		t.Fatal("SyncTime is nil")
	}
	if want := time.Unix(testMidnight+20*3600, 0).UTC(); !rec.SyncTime.Equal(want) {
		t.Errorf("SyncTime = %v, want %v", rec.SyncTime, want)
	}
}

// TestAggregateActivity checks the per-category rollup over assembled
// segments.
func TestAggregateActivity(t *testing.T) {
	date := mustDate(t, "2026-02-06")
	payload := &models.RawDayPayload{Date: date, Summary: encodeSummary(t, daySummary(t))}

	a := New(nil, nil)
	rec := a.Assemble(date, payload, nil)
	totals := a.AggregateActivity(rec)

	if got := totals[models.ActivityFastWalk]; got.Minutes != 11 || got.Steps != 741 {
		t.Errorf("fast_walking totals = %+v, want 11 min / 741 steps", got)
	}
	if got := totals[models.ActivitySlowWalk]; got.Minutes != 10 || got.Steps != 200 {
		t.Errorf("slow_walking totals = %+v, want 10 min / 200 steps", got)
	}
}
