package assemble

import (
	"fmt"
	"strings"

	"github.com/meltforce/zeppvault/internal/decode"
	"github.com/meltforce/zeppvault/internal/models"
	"github.com/meltforce/zeppvault/internal/timeline"
)

// stressPoint is the wire shape of one entry in the double-encoded readings
// array: '[{"time":1770357600000,"value":47},...]', times in unix
// milliseconds at 5-minute intervals.
type stressPoint struct {
	TimeMS int64 `json:"time"`
	Value  int   `json:"value"`
}

// DecodeStress converts an all_day_stress event into a StressDaySummary.
// The four zone proportions are taken verbatim from the event, never
// recomputed from the readings. A corrupt readings string leaves Readings
// empty and returns the error alongside the scalar summary, so one bad inner
// field does not discard the day's aggregates.
func DecodeStress(event *models.StressEvent, date models.Date) (*models.StressDaySummary, error) {
	summary := &models.StressDaySummary{
		Date: date,
		Avg:  event.AvgStress,
		Max:  event.MaxStress,
		Min:  event.MinStress,
	}

	if event.Relaxed != nil || event.Normal != nil || event.Medium != nil || event.High != nil {
		summary.Zones = &models.StressZones{
			Relaxed: orZero(event.Relaxed),
			Normal:  orZero(event.Normal),
			Medium:  orZero(event.Medium),
			High:    orZero(event.High),
		}
	}

	if !strings.HasPrefix(event.Data, "[") {
		return summary, nil
	}

	var points []stressPoint
	if err := decode.NestedJSON(event.Data, &points); err != nil {
		return summary, fmt.Errorf("decoding stress readings: %w", err)
	}
	readings := make([]models.StressReading, 0, len(points))
	for _, p := range points {
		readings = append(readings, models.StressReading{
			Time:  timeline.ToAbsolute(p.TimeMS, timeline.Milliseconds),
			Level: p.Value,
		})
	}
	summary.Readings = readings
	return summary, nil
}

func orZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
