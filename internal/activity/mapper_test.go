package activity

import (
	"testing"

	"github.com/meltforce/zeppvault/internal/models"
)

func intp(v int) *int { return &v }

// TestMapModeKnownCodes verifies the fixed lookup for the four documented
// mode codes.
func TestMapModeKnownCodes(t *testing.T) {
	m := NewMapper(nil)
	cases := map[int]models.ActivityCategory{
		1:  models.ActivitySlowWalk,
		3:  models.ActivityFastWalk,
		7:  models.ActivityRun,
		76: models.ActivityLight,
	}
	for code, want := range cases {
		if got := m.MapMode(code); got != want {
			t.Errorf("MapMode(%d) = %s, want %s", code, got, want)
		}
	}
}

// TestMapModeUnknownCode verifies unlisted codes degrade to other instead of
// failing; the upstream code space is not exhaustively known.
func TestMapModeUnknownCode(t *testing.T) {
	m := NewMapper(nil)
	if got := m.MapMode(42); got != models.ActivityOther {
		t.Errorf("MapMode(42) = %s, want %s", got, models.ActivityOther)
	}
}

// TestMapModeOverride verifies the table can be extended from configuration
// without touching decode logic.
func TestMapModeOverride(t *testing.T) {
	m := NewMapper(map[int]string{42: "running", 43: "not-a-category"})
	if got := m.MapMode(42); got != models.ActivityRun {
		t.Errorf("MapMode(42) = %s, want %s", got, models.ActivityRun)
	}
	if got := m.MapMode(43); got != models.ActivityOther {
		t.Errorf("MapMode(43) = %s, want %s (bad override must be ignored)", got, models.ActivityOther)
	}
	// Defaults survive the merge.
	if got := m.MapMode(1); got != models.ActivitySlowWalk {
		t.Errorf("MapMode(1) = %s, want %s", got, models.ActivitySlowWalk)
	}
}

// TestSegmentsFromStageEntries verifies conversion keeps minute values
// unclamped and sorts by start minute.
func TestSegmentsFromStageEntries(t *testing.T) {
	m := NewMapper(nil)
	entries := []models.StageEntry{
		{Start: 1400, Stop: 1460, Mode: 76, Steps: intp(50)},
		{Start: 989, Stop: 1000, Mode: 3, Steps: intp(741), DisM: intp(820), Cal: intp(31)},
		{Start: 100, Stop: 100, Mode: 1}, // zero-length, dropped
	}

	segs := m.Segments(entries)

	if len(segs) != 2 {
		t.Fatalf("segment count = %d, want 2", len(segs))
	}
	if segs[0].StartMinute != 989 || segs[0].Category != models.ActivityFastWalk {
		t.Errorf("segs[0] = %+v", segs[0])
	}
	if segs[0].Steps != 741 || segs[0].DistanceMeters != 820 || segs[0].Calories != 31 {
		t.Errorf("segs[0] totals = %+v", segs[0])
	}
	if segs[1].StopMinute != 1460 {
		t.Errorf("segs[1].StopMinute = %d, want 1460 (unclamped)", segs[1].StopMinute)
	}
}

// TestAggregate verifies the documented aggregation example: an 11-minute
// fast walk and a 10-minute slow walk.
func TestAggregate(t *testing.T) {
	segs := []models.ActivitySegment{
		{StartMinute: 989, StopMinute: 1000, Category: models.ActivityFastWalk, Steps: 741},
		{StartMinute: 1000, StopMinute: 1010, Category: models.ActivitySlowWalk, Steps: 200},
	}

	totals := Aggregate(segs)

	if got := totals[models.ActivityFastWalk]; got.Minutes != 11 || got.Steps != 741 {
		t.Errorf("fast_walking = %+v, want {11 741}", got)
	}
	if got := totals[models.ActivitySlowWalk]; got.Minutes != 10 || got.Steps != 200 {
		t.Errorf("slow_walking = %+v, want {10 200}", got)
	}
}

// TestAggregateMidnightSpill verifies durations are not clamped at 1440.
func TestAggregateMidnightSpill(t *testing.T) {
	segs := []models.ActivitySegment{
		{StartMinute: 1430, StopMinute: 1460, Category: models.ActivityRun, Steps: 300},
	}
	totals := Aggregate(segs)
	if got := totals[models.ActivityRun]; got.Minutes != 30 {
		t.Errorf("running minutes = %d, want 30", got.Minutes)
	}
}
