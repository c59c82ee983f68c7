// Package assemble orchestrates the decoders into one canonical DayRecord
// per requested date.
//
// Each Assemble call is independent and pure: the assembler holds only its
// immutable mode tables, so calls may run concurrently across dates and
// users with no coordination. Per-field decode failures are isolated and
// collected on the record: a corrupt heart rate timeline never blocks the
// step totals.
package assemble

import (
	"github.com/meltforce/zeppvault/internal/activity"
	"github.com/meltforce/zeppvault/internal/decode"
	"github.com/meltforce/zeppvault/internal/models"
	"github.com/meltforce/zeppvault/internal/sleep"
	"github.com/meltforce/zeppvault/internal/timeline"
)

// Assembler builds DayRecords from raw day payloads.
type Assembler struct {
	activity *activity.Mapper
	sleep    *sleep.Merger
}

// New creates an Assembler. The override maps extend the default activity
// and sleep mode tables (code -> category name); pass nil for defaults.
func New(activityOverrides, sleepOverrides map[int]string) *Assembler {
	return &Assembler{
		activity: activity.NewMapper(activityOverrides),
		sleep:    sleep.NewMerger(sleepOverrides),
	}
}

// Assemble produces the DayRecord for date from its raw payload and, for
// sleep resolution, the preceding date's payload. Either payload may be nil.
// The result is complete for every field that decoded; fields whose source
// was missing stay unset, fields whose source was corrupt stay unset with a
// FieldError recorded. Assemble never fails as a whole.
func (a *Assembler) Assemble(date models.Date, payload, prior *models.RawDayPayload) models.DayRecord {
	rec := models.DayRecord{Date: date}
	if payload == nil && prior == nil {
		return rec
	}

	var summary, priorSummary *models.DecodedSummary

	if payload != nil {
		rec.Source = payload.Source
		if payload.LastSyncSec > 0 {
			t := timeline.ToAbsolute(payload.LastSyncSec, timeline.Seconds)
			rec.SyncTime = &t
		}

		if payload.Summary != "" {
			s, err := decode.DecodeSummary(payload.Summary)
			if err != nil {
				rec.Errors = append(rec.Errors, models.NewFieldError("summary", err))
			} else {
				summary = s
			}
		}
	}

	if prior != nil && prior.Summary != "" {
		s, err := decode.DecodeSummary(prior.Summary)
		if err != nil {
			rec.Errors = append(rec.Errors, models.NewFieldError("prior_summary", err))
		} else {
			priorSummary = s
		}
	}

	tzOffset := a.tzOffset(&rec, summary, priorSummary)

	if summary != nil {
		rec.Steps = stepSummary(summary)
		if summary.Steps != nil {
			rec.Activity = a.activity.Segments(summary.Steps.Stages)
		}
		if summary.SyncSec > 0 && rec.SyncTime == nil {
			t := timeline.ToAbsolute(summary.SyncSec, timeline.Seconds)
			rec.SyncTime = &t
		}
	}

	if payload != nil && payload.HeartRate != "" {
		samples, err := decode.Base64HeartRate(payload.HeartRate)
		if err != nil {
			rec.Errors = append(rec.Errors, models.NewFieldError("data_hr", err))
		} else {
			rec.HeartRate = samples
		}
	}

	if payload != nil && payload.Activity != "" {
		minutes, err := decode.Base64Activity(payload.Activity)
		if err != nil {
			rec.Errors = append(rec.Errors, models.NewFieldError("data", err))
		} else {
			rec.ActivityMinutes = minutes
		}
	}

	sessions := a.sleep.Merge(date, priorSummary, summary, tzOffset)
	if len(sessions) > 0 {
		rec.Sleep = &sessions[0]
		if len(sessions) > 1 {
			rec.ExtraSleep = sessions[1:]
		}
	}

	if payload != nil && payload.Stress != nil {
		stress, err := DecodeStress(payload.Stress, date)
		if err != nil {
			rec.Errors = append(rec.Errors, models.NewFieldError("stress", err))
		}
		if stress != nil {
			rec.Stress = stress
		}
	}

	return rec
}

// tzOffset resolves the payload's fixed UTC offset from whichever summary
// carries one; a malformed tz field is recorded and falls back to UTC.
func (a *Assembler) tzOffset(rec *models.DayRecord, summary, priorSummary *models.DecodedSummary) int {
	tz := ""
	if summary != nil && summary.TZ != "" {
		tz = summary.TZ
	} else if priorSummary != nil {
		tz = priorSummary.TZ
	}
	offset, err := timeline.ParseTZOffset(tz)
	if err != nil {
		rec.Errors = append(rec.Errors, models.NewFieldError("tz", err))
		return 0
	}
	return offset
}

// stepSummary extracts the daily step totals from a decoded summary, or nil
// when the stp block is absent.
func stepSummary(summary *models.DecodedSummary) *models.StepSummary {
	if summary.Steps == nil {
		return nil
	}
	return &models.StepSummary{
		Total:          summary.Steps.Total,
		DistanceMeters: summary.Steps.DistanceM,
		Calories:       summary.Steps.Calories,
		RunDistanceM:   summary.Steps.RunDistance,
		RunCalories:    summary.Steps.RunCalories,
		Goal:           summary.Goal,
	}
}

// AggregateActivity exposes per-category totals for an assembled record's
// segments.
func (a *Assembler) AggregateActivity(rec models.DayRecord) map[models.ActivityCategory]activity.Totals {
	return activity.Aggregate(rec.Activity)
}
