// Package sleep reconstructs logical sleep sessions from the per-day sleep
// blocks of decoded summaries.
//
// The upstream API files a night's sleep under the date the session began,
// so the record for the night that ends on the morning of date D usually
// lives in the payload for D-1, with stage minute offsets running past 1440.
// Merge is a pure function of the two adjacent payloads: no carry state, no
// ordering requirement across calls, identical output on repeated input.
package sleep

import (
	"sort"
	"time"

	"github.com/meltforce/zeppvault/internal/models"
	"github.com/meltforce/zeppvault/internal/timeline"
)

// Merger resolves sleep stage mode codes and merges adjacent-day sleep
// payloads. Like the activity table, the mode table is data and can be
// extended from configuration.
type Merger struct {
	modes map[int]models.SleepStageCategory
}

// NewMerger builds a Merger from the default sleep mode table merged with
// the given overrides (code -> category name).
func NewMerger(overrides map[int]string) *Merger {
	modes := models.DefaultSleepModes()
	for code, name := range overrides {
		if models.ValidSleepStageCategory(name) {
			modes[code] = models.SleepStageCategory(name)
		}
	}
	return &Merger{modes: modes}
}

// MapMode returns the stage category for a mode code. Unknown codes map to
// SleepUnknown so a new upstream code never drops a stage silently.
func (m *Merger) MapMode(code int) models.SleepStageCategory {
	if cat, ok := m.modes[code]; ok {
		return cat
	}
	return models.SleepUnknown
}

// Merge returns the sleep sessions visible when querying date. prior is the
// decoded summary for date-1, current the one for date; either may be nil.
//
// Resolution rules:
//   - A prior-day session whose absolute end reaches past midnight of date
//     is the primary session for date (the night the user woke up on date).
//   - A session recorded under date itself is reported as well, tagged with
//     its source date; it is only dropped when it is the same logical
//     session as the prior-day one, compared by absolute start and end
//     instants (minute offsets are useless here, their reference frames
//     differ by a day between the two payloads).
//   - Naps stay with the date they were reported under; the midnight-spill
//     rule never applies to them.
//
// No sleep metadata on either side yields an empty result, not an error.
// Partial metadata (score without stages, stages without score) is passed
// through with the absent fields unset.
func (m *Merger) Merge(date models.Date, prior, current *models.DecodedSummary, tzOffsetSeconds int) []models.SleepSession {
	var sessions []models.SleepSession

	midnight := timeline.MidnightBefore(date, tzOffsetSeconds)

	var primary *models.SleepSession
	if prior != nil && prior.Sleep != nil {
		if s := m.session(prior.Sleep, date, date.AddDays(-1)); s != nil {
			if !s.End.IsZero() && !s.End.Before(midnight) {
				primary = s
			}
		}
	}
	if primary != nil {
		sessions = append(sessions, *primary)
	}

	if current != nil && current.Sleep != nil {
		if s := m.session(current.Sleep, date, date); s != nil {
			if primary == nil || !sameSession(*primary, *s) {
				sessions = append(sessions, *s)
			}
		}
	}

	return sessions
}

// sameSession reports whether two sessions describe the same logical night,
// compared by absolute instants after normalization.
func sameSession(a, b models.SleepSession) bool {
	return a.Start.Equal(b.Start) && a.End.Equal(b.End)
}

// session builds a SleepSession from one summary's slp block, or nil when
// the block carries nothing at all.
func (m *Merger) session(sec *models.SleepSection, queryDate, sourceDate models.Date) *models.SleepSession {
	if sec.Start == 0 && sec.End == 0 &&
		len(sec.Stages) == 0 && len(sec.NapStages) == 0 &&
		sec.Score == nil && sec.RestingHR == nil {
		return nil
	}

	s := &models.SleepSession{
		Date:           queryDate,
		SourceDate:     sourceDate,
		Score:          sec.Score,
		RestingHR:      sec.RestingHR,
		WakeCount:      sec.WakeCount,
		LatencyMinutes: sec.LatencyMinutes,
		DeepMinutes:    sec.DeepMinutes,
		LightMinutes:   sec.LightMinutes,
	}
	if sec.Start != 0 {
		s.Start = timeline.ToAbsolute(sec.Start, timeline.Seconds)
	}
	if sec.End != 0 {
		s.End = timeline.ToAbsolute(sec.End, timeline.Seconds)
	}

	s.Stages = m.stages(sec.Stages, false)
	s.Naps = m.stages(sec.NapStages, true)
	s.HasStageData = len(s.Stages) > 0

	return s
}

// stages converts a wire stage array into sorted, duplicate-free stage
// segments. Overlapping entries keep only the first; gaps between stages are
// preserved as gaps (no data), never absorbed into a neighbor.
func (m *Merger) stages(entries []models.StageEntry, nap bool) []models.SleepStage {
	if len(entries) == 0 {
		return nil
	}

	out := make([]models.SleepStage, 0, len(entries))
	for _, e := range entries {
		if e.Stop <= e.Start {
			continue
		}
		out = append(out, models.SleepStage{
			StartMinute: e.Start,
			StopMinute:  e.Stop,
			Category:    m.MapMode(e.Mode),
			ModeCode:    e.Mode,
			IsNap:       nap,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartMinute != out[j].StartMinute {
			return out[i].StartMinute < out[j].StartMinute
		}
		return out[i].StopMinute < out[j].StopMinute
	})

	deduped := out[:0]
	var lastStop = -1
	for _, st := range out {
		if len(deduped) > 0 {
			prev := deduped[len(deduped)-1]
			if prev.StartMinute == st.StartMinute && prev.StopMinute == st.StopMinute {
				continue
			}
			if st.StartMinute < lastStop {
				continue
			}
		}
		deduped = append(deduped, st)
		lastStop = st.StopMinute
	}
	return deduped
}

// StageInstants resolves a stage's minute offsets to absolute instants using
// the session's source date as the reference frame.
func StageInstants(stage models.SleepStage, sourceDate models.Date, tzOffsetSeconds int) (start, stop time.Time, err error) {
	s, err := timeline.MinuteOfDayToLocal(stage.StartMinute, sourceDate, tzOffsetSeconds)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	e, err := timeline.MinuteOfDayToLocal(stage.StopMinute, sourceDate, tzOffsetSeconds)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return s.Instant(tzOffsetSeconds), e.Instant(tzOffsetSeconds), nil
}
