package sleep

import (
	"reflect"
	"testing"
	"time"

	"github.com/meltforce/zeppvault/internal/models"
)

const tzCST = -21600 // UTC-6, matching the band's "-21600" tz string

func date(s string) models.Date {
	d, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func intp(v int) *int { return &v }

// Epochs for the reference night: local midnight of 2026-02-06 in UTC-6 is
// 1770357600; the session runs 00:31-01:40 local on the 6th.
const (
	nightStart = 1770357600 + 31*60
	nightEnd   = 1770357600 + 100*60
)

func spillSummary() *models.DecodedSummary {
	return &models.DecodedSummary{
		TZ: "-21600",
		Sleep: &models.SleepSection{
			Start:     nightStart,
			End:       nightEnd,
			Score:     intp(80),
			RestingHR: intp(55),
			Stages: []models.StageEntry{
				{Start: 1471, Stop: 1478, Mode: 4},
				{Start: 1479, Stop: 1508, Mode: 5},
				{Start: 1509, Stop: 1523, Mode: 4},
				{Start: 1524, Stop: 1540, Mode: 8},
			},
		},
	}
}

// TestMergeMidnightSpill verifies the documented scenario: the previous
// day's record holds the whole night, and querying the wake date returns it
// as the single session with all four stages.
func TestMergeMidnightSpill(t *testing.T) {
	m := NewMerger(nil)
	d := date("2026-02-06")

	sessions := m.Merge(d, spillSummary(), nil, tzCST)

	if len(sessions) != 1 {
		t.Fatalf("session count = %d, want 1", len(sessions))
	}
	s := sessions[0]
	if !s.SourceDate.Equal(date("2026-02-05")) {
		t.Errorf("source date = %s, want 2026-02-05", s.SourceDate)
	}
	if len(s.Stages) != 4 {
		t.Fatalf("stage count = %d, want 4", len(s.Stages))
	}
	want := []models.SleepStageCategory{
		models.SleepLight, models.SleepDeep, models.SleepLight, models.SleepREM,
	}
	for i, st := range s.Stages {
		if st.Category != want[i] {
			t.Errorf("stage %d category = %s, want %s", i, st.Category, want[i])
		}
	}

	// Stage offsets resolve against the source date's frame: the first stage
	// begins at 00:31 and the last ends at 01:40 on the wake date.
	start, _, err := StageInstants(s.Stages[0], s.SourceDate, tzCST)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	loc := time.FixedZone("UTC-6", tzCST)
	if wantStart := time.Date(2026, 2, 6, 0, 31, 0, 0, loc); !start.Equal(wantStart) {
		t.Errorf("first stage start = %v, want %v", start, wantStart)
	}
	_, stop, err := StageInstants(s.Stages[3], s.SourceDate, tzCST)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wantStop := time.Date(2026, 2, 6, 1, 40, 0, 0, loc); !stop.Equal(wantStop) {
		t.Errorf("last stage stop = %v, want %v", stop, wantStop)
	}
}

// TestMergeIdempotent verifies merging the same payload pair twice yields
// identical output with no duplicate accumulation.
func TestMergeIdempotent(t *testing.T) {
	m := NewMerger(nil)
	d := date("2026-02-06")
	prior := spillSummary()

	first := m.Merge(d, prior, nil, tzCST)
	second := m.Merge(d, prior, nil, tzCST)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated merge differs:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

// TestMergeDeduplicatesSharedSession verifies that when both payloads carry
// the same logical session, only one copy survives. The comparison uses
// absolute instants; the raw minute offsets differ in reference frame
// between the two payloads and must not be compared.
func TestMergeDeduplicatesSharedSession(t *testing.T) {
	m := NewMerger(nil)
	d := date("2026-02-06")

	prior := spillSummary()
	// The same night as seen from date D's own payload: identical epochs,
	// offsets shifted down a day.
	current := &models.DecodedSummary{
		TZ: "-21600",
		Sleep: &models.SleepSection{
			Start: nightStart,
			End:   nightEnd,
			Stages: []models.StageEntry{
				{Start: 31, Stop: 38, Mode: 4},
				{Start: 39, Stop: 68, Mode: 5},
				{Start: 69, Stop: 83, Mode: 4},
				{Start: 84, Stop: 100, Mode: 8},
			},
		},
	}

	sessions := m.Merge(d, prior, current, tzCST)

	if len(sessions) != 1 {
		t.Fatalf("session count = %d, want 1 (duplicate must be dropped)", len(sessions))
	}
	if !sessions[0].SourceDate.Equal(date("2026-02-05")) {
		t.Errorf("retained copy source = %s, want 2026-02-05", sessions[0].SourceDate)
	}
}

// TestMergeIndependentSameDaySession verifies a self-contained session
// recorded under date D is reported alongside the spilled night, tagged by
// its own origin date.
func TestMergeIndependentSameDaySession(t *testing.T) {
	m := NewMerger(nil)
	d := date("2026-02-06")

	prior := spillSummary()
	// An afternoon sleep on the 6th: 14:00-15:30 local.
	current := &models.DecodedSummary{
		TZ: "-21600",
		Sleep: &models.SleepSection{
			Start: 1770357600 + 14*3600,
			End:   1770357600 + 15*3600 + 30*60,
			Score: intp(61),
			Stages: []models.StageEntry{
				{Start: 840, Stop: 930, Mode: 4},
			},
		},
	}

	sessions := m.Merge(d, prior, current, tzCST)

	if len(sessions) != 2 {
		t.Fatalf("session count = %d, want 2", len(sessions))
	}
	if !sessions[0].SourceDate.Equal(date("2026-02-05")) {
		t.Errorf("primary source = %s, want 2026-02-05", sessions[0].SourceDate)
	}
	if !sessions[1].SourceDate.Equal(date("2026-02-06")) {
		t.Errorf("second source = %s, want 2026-02-06", sessions[1].SourceDate)
	}
	if sessions[1].Score == nil || *sessions[1].Score != 61 {
		t.Errorf("second score = %v, want 61", sessions[1].Score)
	}
}

// TestMergeNapsStayWithReportingDate verifies odd_stage entries attach to
// the payload that reported them and never trigger the spill rule.
func TestMergeNapsStayWithReportingDate(t *testing.T) {
	m := NewMerger(nil)
	d := date("2026-02-06")

	current := &models.DecodedSummary{
		Sleep: &models.SleepSection{
			NapStages: []models.StageEntry{
				{Start: 870, Stop: 910, Mode: 4},
			},
		},
	}

	sessions := m.Merge(d, nil, current, tzCST)

	if len(sessions) != 1 {
		t.Fatalf("session count = %d, want 1", len(sessions))
	}
	s := sessions[0]
	if !s.SourceDate.Equal(d) {
		t.Errorf("source = %s, want %s", s.SourceDate, d)
	}
	if len(s.Naps) != 1 || !s.Naps[0].IsNap {
		t.Fatalf("naps = %+v, want one nap stage", s.Naps)
	}
	if len(s.Stages) != 0 || s.HasStageData {
		t.Errorf("overnight stages = %+v, want none", s.Stages)
	}
}

// TestMergeNoData verifies absence of sleep metadata on both sides returns
// no session rather than an error or a zeroed session.
func TestMergeNoData(t *testing.T) {
	m := NewMerger(nil)
	d := date("2026-02-06")

	if got := m.Merge(d, nil, nil, tzCST); len(got) != 0 {
		t.Errorf("sessions = %+v, want none", got)
	}
	empty := &models.DecodedSummary{Sleep: &models.SleepSection{}}
	if got := m.Merge(d, empty, empty, tzCST); len(got) != 0 {
		t.Errorf("sessions = %+v, want none for empty slp blocks", got)
	}
}

// TestMergePartialMetadata verifies a score-only record surfaces with stages
// absent and nothing defaulted to zero.
func TestMergePartialMetadata(t *testing.T) {
	m := NewMerger(nil)
	d := date("2026-02-06")

	current := &models.DecodedSummary{
		Sleep: &models.SleepSection{Score: intp(74)},
	}

	sessions := m.Merge(d, nil, current, tzCST)

	if len(sessions) != 1 {
		t.Fatalf("session count = %d, want 1", len(sessions))
	}
	s := sessions[0]
	if s.Score == nil || *s.Score != 74 {
		t.Errorf("score = %v, want 74", s.Score)
	}
	if s.RestingHR != nil {
		t.Errorf("resting hr = %v, want unset", s.RestingHR)
	}
	if s.HasStageData || len(s.Stages) != 0 {
		t.Errorf("stages = %+v, want none", s.Stages)
	}
}

// TestMergeDropsExactDuplicateStages verifies repeated stage entries within
// one payload collapse to a single copy.
func TestMergeDropsExactDuplicateStages(t *testing.T) {
	m := NewMerger(nil)
	d := date("2026-02-06")

	prior := spillSummary()
	prior.Sleep.Stages = append(prior.Sleep.Stages, models.StageEntry{Start: 1471, Stop: 1478, Mode: 4})

	sessions := m.Merge(d, prior, nil, tzCST)

	if len(sessions) != 1 {
		t.Fatalf("session count = %d, want 1", len(sessions))
	}
	if got := len(sessions[0].Stages); got != 4 {
		t.Errorf("stage count = %d, want 4 after dedup", got)
	}
}

// TestMapModeUnknown verifies unknown sleep mode codes classify as unknown
// rather than dropping the stage.
func TestMapModeUnknown(t *testing.T) {
	m := NewMerger(nil)
	if got := m.MapMode(99); got != models.SleepUnknown {
		t.Errorf("MapMode(99) = %s, want %s", got, models.SleepUnknown)
	}
	if got := m.MapMode(5); got != models.SleepDeep {
		t.Errorf("MapMode(5) = %s, want %s", got, models.SleepDeep)
	}
}
