package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/meltforce/zeppvault/internal/models"
)

func upsertStress(ctx context.Context, tx txLike, s models.StressDaySummary) error {
	var relaxed, normal, medium, high *int
	if s.Zones != nil {
		relaxed, normal, medium, high = &s.Zones.Relaxed, &s.Zones.Normal, &s.Zones.Medium, &s.Zones.High
	}
	_, err := tx.Exec(ctx,
		`INSERT INTO stress_days (date, avg_stress, max_stress, min_stress, relaxed_pct, normal_pct, medium_pct, high_pct)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		 ON CONFLICT (date) DO UPDATE SET
		   avg_stress = EXCLUDED.avg_stress,
		   max_stress = EXCLUDED.max_stress,
		   min_stress = EXCLUDED.min_stress,
		   relaxed_pct = EXCLUDED.relaxed_pct,
		   normal_pct = EXCLUDED.normal_pct,
		   medium_pct = EXCLUDED.medium_pct,
		   high_pct = EXCLUDED.high_pct`,
		s.Date.Time, s.Avg, s.Max, s.Min, relaxed, normal, medium, high)
	if err != nil {
		return fmt.Errorf("upserting stress day: %w", err)
	}

	if len(s.Readings) == 0 {
		return nil
	}
	if _, err := tx.Exec(ctx, `DELETE FROM stress_readings WHERE date = $1`, s.Date.Time); err != nil {
		return fmt.Errorf("clearing stress readings: %w", err)
	}
	query := `INSERT INTO stress_readings (date, time, level) VALUES `
	args := make([]any, 0, len(s.Readings)*3)
	valueStrings := make([]string, 0, len(s.Readings))
	for i, r := range s.Readings {
		base := i * 3
		valueStrings = append(valueStrings, fmt.Sprintf("($%d,$%d,$%d)", base+1, base+2, base+3))
		args = append(args, s.Date.Time, r.Time, r.Level)
	}
	query += strings.Join(valueStrings, ",") + " ON CONFLICT DO NOTHING"
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting stress readings: %w", err)
	}
	return nil
}

// QueryStressDay retrieves one day's stress summary and readings, or nil
// when the date has no stress data.
func (db *DB) QueryStressDay(ctx context.Context, date models.Date) (*models.StressDaySummary, error) {
	var s models.StressDaySummary
	var relaxed, normal, medium, high *int
	err := db.Pool.QueryRow(ctx,
		`SELECT avg_stress, max_stress, min_stress, relaxed_pct, normal_pct, medium_pct, high_pct
		 FROM stress_days WHERE date = $1`,
		date.Time).Scan(&s.Avg, &s.Max, &s.Min, &relaxed, &normal, &medium, &high)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying stress day: %w", err)
	}
	s.Date = date
	if relaxed != nil || normal != nil || medium != nil || high != nil {
		s.Zones = &models.StressZones{
			Relaxed: orZero(relaxed),
			Normal:  orZero(normal),
			Medium:  orZero(medium),
			High:    orZero(high),
		}
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT time, level FROM stress_readings WHERE date = $1 ORDER BY time ASC`,
		date.Time)
	if err != nil {
		return nil, fmt.Errorf("querying stress readings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var r models.StressReading
		if err := rows.Scan(&r.Time, &r.Level); err != nil {
			return nil, fmt.Errorf("scanning stress reading: %w", err)
		}
		s.Readings = append(s.Readings, r)
	}
	return &s, rows.Err()
}

func orZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
