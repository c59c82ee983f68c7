package storage

import (
	"context"
	"fmt"
	"time"
)

// DataStats holds aggregate statistics about all stored data.
type DataStats struct {
	TotalDays          int64                  `json:"total_days"`
	TotalHeartRateRows int64                  `json:"total_heart_rate_rows"`
	TotalSleepNights   int64                  `json:"total_sleep_nights"`
	TotalStressRows    int64                  `json:"total_stress_rows"`
	EarliestDate       *time.Time             `json:"earliest_date"`
	LatestDate         *time.Time             `json:"latest_date"`
	ActivityByCategory []ActivityCategoryStat `json:"activity_by_category"`
}

// ActivityCategoryStat holds summary stats for one activity category.
type ActivityCategoryStat struct {
	Category     string `json:"category"`
	Segments     int64  `json:"segments"`
	TotalMinutes int64  `json:"total_minutes"`
	TotalSteps   int64  `json:"total_steps"`
}

// GetDataStats returns aggregate statistics over all stored data.
func (db *DB) GetDataStats(ctx context.Context) (*DataStats, error) {
	stats := &DataStats{}

	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM day_records`,
	).Scan(&stats.TotalDays)
	if err != nil {
		return nil, fmt.Errorf("counting day records: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM heart_rate_samples`,
	).Scan(&stats.TotalHeartRateRows)
	if err != nil {
		return nil, fmt.Errorf("counting heart rate samples: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM sleep_sessions`,
	).Scan(&stats.TotalSleepNights)
	if err != nil {
		return nil, fmt.Errorf("counting sleep sessions: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM stress_readings`,
	).Scan(&stats.TotalStressRows)
	if err != nil {
		return nil, fmt.Errorf("counting stress readings: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT MIN(date), MAX(date) FROM day_records`,
	).Scan(&stats.EarliestDate, &stats.LatestDate)
	if err != nil {
		return nil, fmt.Errorf("querying date range: %w", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT category, COUNT(*), COALESCE(SUM(stop_minute - start_minute), 0), COALESCE(SUM(steps), 0)
		 FROM activity_segments
		 GROUP BY category
		 ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying activity by category: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s ActivityCategoryStat
		if err := rows.Scan(&s.Category, &s.Segments, &s.TotalMinutes, &s.TotalSteps); err != nil {
			return nil, fmt.Errorf("scanning activity category stat: %w", err)
		}
		stats.ActivityByCategory = append(stats.ActivityByCategory, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
