package assemble

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/meltforce/zeppvault/internal/models"
	"github.com/meltforce/zeppvault/internal/timeline"
)

// DecodeTrainingLoad converts exertion/algo_result event items into training
// load points. ATL, CTL, and TSB are rolling metrics computed upstream; TSB
// is surfaced as reported even where it drifts from CTL-ATL. Items that fail
// to parse are skipped and reported together at the end so one bad item
// never loses the rest of the history.
func DecodeTrainingLoad(items []json.RawMessage, tzOffsetSeconds int) ([]models.TrainingLoadPoint, error) {
	var points []models.TrainingLoadPoint
	var bad int

	loc := timeline.FixedZone(tzOffsetSeconds)
	for _, raw := range items {
		var ev models.ExertionEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			bad++
			continue
		}
		instant := timeline.ToAbsolute(ev.TimestampMS, timeline.Milliseconds).In(loc)
		points = append(points, models.TrainingLoadPoint{
			Date:           models.DateOf(instant),
			ATL:            ev.Value.ATL,
			CTL:            ev.Value.CTL,
			TSB:            ev.Value.TSB,
			ExerciseScore:  ev.Value.ExerciseScore,
			TargetScore:    ev.Value.TargetScore,
			RecoveryFactor: ev.Value.RecoveryFactor,
			Plan:           ev.Value.ExercisePlan,
		})
	}

	if bad > 0 {
		return points, fmt.Errorf("skipped %d unparseable exertion items", bad)
	}
	return points, nil
}

// DecodePHN converts phn/daily_analysis event items into training load
// points carrying TRIMP. The phn feed also reports ATL/CTL/TSB, so a point
// built here can stand alone on dates the exertion feed missed.
func DecodePHN(items []json.RawMessage, tzOffsetSeconds int) ([]models.TrainingLoadPoint, error) {
	var points []models.TrainingLoadPoint
	var bad int

	loc := timeline.FixedZone(tzOffsetSeconds)
	for _, raw := range items {
		var ev models.PHNEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			bad++
			continue
		}
		instant := timeline.ToAbsolute(ev.TimestampMS, timeline.Milliseconds).In(loc)
		points = append(points, models.TrainingLoadPoint{
			Date:  models.DateOf(instant),
			TRIMP: ev.Value.Result.TRIMP,
			ATL:   ev.Value.Result.ATL,
			CTL:   ev.Value.Result.CTL,
			TSB:   ev.Value.Result.TSB,
		})
	}

	if bad > 0 {
		return points, fmt.Errorf("skipped %d unparseable phn items", bad)
	}
	return points, nil
}

// sportDayLayouts are the dayId formats seen across device generations.
var sportDayLayouts = []string{"2006-01-02", "20060102"}

func parseSportDay(dayID string) (models.Date, error) {
	for _, layout := range sportDayLayouts {
		if t, err := time.Parse(layout, dayID); err == nil {
			return models.DateOf(t), nil
		}
	}
	return models.Date{}, fmt.Errorf("unrecognized dayId %q", dayID)
}

// DecodeSportLoad converts WatchSportStatistics SPORT_LOAD items into sport
// load days. Items whose dayId does not parse are skipped and reported
// together at the end.
func DecodeSportLoad(items []json.RawMessage) ([]models.SportLoadDay, error) {
	var days []models.SportLoadDay
	var bad int

	for _, raw := range items {
		var item models.SportLoadItem
		if err := json.Unmarshal(raw, &item); err != nil {
			bad++
			continue
		}
		date, err := parseSportDay(item.DayID)
		if err != nil {
			bad++
			continue
		}
		days = append(days, models.SportLoadDay{
			Date:         date,
			DailyLoad:    item.DailyLoad,
			WeeklyLoad:   item.WeeklyLoad,
			OptimalMin:   item.OptimalMin,
			OptimalMax:   item.OptimalMax,
			Overreaching: item.Overreaching,
		})
	}

	if bad > 0 {
		return days, fmt.Errorf("skipped %d unparseable sport load items", bad)
	}
	return days, nil
}

// DecodeVO2Max extracts the day key from each VO2_MAX item and keeps the
// rest of the item opaque: the payload shape varies by device generation
// and no field beyond dayId is stable enough to normalize.
func DecodeVO2Max(items []json.RawMessage) ([]models.VO2MaxRecord, error) {
	var records []models.VO2MaxRecord
	var bad int

	for _, raw := range items {
		var item models.VO2MaxItem
		if err := json.Unmarshal(raw, &item); err != nil {
			bad++
			continue
		}
		date, err := parseSportDay(item.DayID)
		if err != nil {
			bad++
			continue
		}
		records = append(records, models.VO2MaxRecord{Date: date, Payload: raw})
	}

	if bad > 0 {
		return records, fmt.Errorf("skipped %d unparseable vo2 max items", bad)
	}
	return records, nil
}

// DecodeStressEvents parses the raw all_day_stress items into stress events,
// preserving the double-encoded data string for DecodeStress.
func DecodeStressEvents(items []json.RawMessage) ([]models.StressEvent, error) {
	var events []models.StressEvent
	var bad int
	for _, raw := range items {
		var ev models.StressEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			bad++
			continue
		}
		events = append(events, ev)
	}
	if bad > 0 {
		return events, fmt.Errorf("skipped %d unparseable stress items", bad)
	}
	return events, nil
}
