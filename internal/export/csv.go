// Package export renders stored day records as flat files: a tabular CSV of
// all metrics, and an Apple Health flavored XML that third-party import
// tools (Health CSV Importer, Health Auto Export) accept.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/meltforce/zeppvault/internal/models"
)

var csvHeader = []string{"date", "type", "time", "minute", "value", "unit"}

// WriteCSV renders records as a long-format CSV, one metric reading per row.
// Returns the number of data rows written, excluding the header.
func WriteCSV(w io.Writer, records []*models.DayRecord) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return 0, fmt.Errorf("writing csv header: %w", err)
	}

	rows := 0
	for _, rec := range records {
		if rec == nil {
			continue
		}
		for _, row := range dayRows(rec) {
			if err := cw.Write(row); err != nil {
				return rows, fmt.Errorf("writing csv row for %s: %w", rec.Date, err)
			}
			rows++
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return rows, fmt.Errorf("flushing csv: %w", err)
	}
	return rows, nil
}

func dayRows(rec *models.DayRecord) [][]string {
	date := rec.Date.String()
	var rows [][]string

	row := func(kind, clock, minute, value, unit string) {
		rows = append(rows, []string{date, kind, clock, minute, value, unit})
	}

	for _, s := range rec.HeartRate {
		row("heart_rate", s.Clock(), fmt.Sprint(s.MinuteOfDay), fmt.Sprint(s.BPM), "bpm")
	}

	if st := rec.Steps; st != nil {
		row("steps", "", "", fmt.Sprint(st.Total), "steps")
		row("distance", "", "", fmt.Sprint(st.DistanceMeters), "meters")
		row("calories", "", "", fmt.Sprint(st.Calories), "kcal")
	}

	if sl := rec.Sleep; sl != nil {
		if sl.Score != nil {
			row("sleep_score", "", "", fmt.Sprint(*sl.Score), "score")
		}
		if sl.RestingHR != nil {
			row("resting_hr", "", "", fmt.Sprint(*sl.RestingHR), "bpm")
		}
		if sl.DeepMinutes != nil {
			row("deep_sleep", "", "", fmt.Sprint(*sl.DeepMinutes), "minutes")
		}
		if sl.LightMinutes != nil {
			row("light_sleep", "", "", fmt.Sprint(*sl.LightMinutes), "minutes")
		}
	}

	if str := rec.Stress; str != nil {
		for _, r := range str.Readings {
			row("stress", r.Time.Format("15:04"), "", fmt.Sprint(r.Level), "stress_level")
		}
	}

	return rows
}
