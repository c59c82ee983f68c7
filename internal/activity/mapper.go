// Package activity maps band activity mode codes to semantic categories and
// aggregates per-category totals from the stage array of a decoded summary.
package activity

import (
	"sort"

	"github.com/meltforce/zeppvault/internal/models"
)

// Mapper resolves numeric mode codes against a category table. The table is
// data, not logic: deployments can extend it from configuration when the
// upstream starts emitting new codes, and anything unlisted degrades to
// ActivityOther instead of failing the record.
type Mapper struct {
	modes map[int]models.ActivityCategory
}

// NewMapper builds a Mapper from the default mode table merged with the
// given overrides (code -> category name). Override entries with unknown
// category names are ignored.
func NewMapper(overrides map[int]string) *Mapper {
	modes := models.DefaultActivityModes()
	for code, name := range overrides {
		if models.ValidActivityCategory(name) {
			modes[code] = models.ActivityCategory(name)
		}
	}
	return &Mapper{modes: modes}
}

// MapMode returns the category for a mode code, or ActivityOther when the
// code is not in the table.
func (m *Mapper) MapMode(code int) models.ActivityCategory {
	if cat, ok := m.modes[code]; ok {
		return cat
	}
	return models.ActivityOther
}

// Segments converts the summary's stp.stage entries into activity segments.
// Entries whose stop does not exceed start are dropped; minute values are
// kept unclamped so cross-midnight spill survives. Output is sorted by start
// minute.
func (m *Mapper) Segments(stages []models.StageEntry) []models.ActivitySegment {
	var segments []models.ActivitySegment
	for _, st := range stages {
		if st.Stop <= st.Start {
			continue
		}
		seg := models.ActivitySegment{
			StartMinute: st.Start,
			StopMinute:  st.Stop,
			Category:    m.MapMode(st.Mode),
			ModeCode:    st.Mode,
		}
		if st.Steps != nil {
			seg.Steps = *st.Steps
		}
		if st.DisM != nil {
			seg.DistanceMeters = *st.DisM
		}
		if st.Cal != nil {
			seg.Calories = *st.Cal
		}
		segments = append(segments, seg)
	}
	sort.Slice(segments, func(i, j int) bool {
		return segments[i].StartMinute < segments[j].StartMinute
	})
	return segments
}

// Totals is the per-category aggregate of a day's segments.
type Totals struct {
	Minutes int `json:"minutes"`
	Steps   int `json:"steps"`
}

// Aggregate sums segment durations and steps per category. Durations use
// stop-start without clamping to 1440, so segments spilling past midnight
// count their full length.
func Aggregate(segments []models.ActivitySegment) map[models.ActivityCategory]Totals {
	totals := make(map[models.ActivityCategory]Totals)
	for _, seg := range segments {
		t := totals[seg.Category]
		t.Minutes += seg.Minutes()
		t.Steps += seg.Steps
		totals[seg.Category] = t
	}
	return totals
}
