package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/meltforce/zeppvault/internal/models"
)

// UpsertSportLoad stores sport load days, one row per date. The weekly sum
// and its optimal band shift as the week fills in, so later rows replace
// earlier ones.
func (db *DB) UpsertSportLoad(ctx context.Context, days []models.SportLoadDay) error {
	for _, d := range days {
		_, err := db.Pool.Exec(ctx,
			`INSERT INTO sport_load (date, daily_load, weekly_load, optimal_min, optimal_max, overreaching)
			 VALUES ($1,$2,$3,$4,$5,$6)
			 ON CONFLICT (date) DO UPDATE SET
			   daily_load = EXCLUDED.daily_load,
			   weekly_load = EXCLUDED.weekly_load,
			   optimal_min = EXCLUDED.optimal_min,
			   optimal_max = EXCLUDED.optimal_max,
			   overreaching = EXCLUDED.overreaching`,
			d.Date.Time, d.DailyLoad, d.WeeklyLoad, d.OptimalMin, d.OptimalMax, d.Overreaching)
		if err != nil {
			return fmt.Errorf("upserting sport load for %s: %w", d.Date, err)
		}
	}
	return nil
}

// QuerySportLoad retrieves sport load days in a date range ordered by date.
func (db *DB) QuerySportLoad(ctx context.Context, start, end time.Time) ([]models.SportLoadDay, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT date, daily_load, weekly_load, optimal_min, optimal_max, overreaching
		 FROM sport_load
		 WHERE date >= $1 AND date < $2
		 ORDER BY date ASC`,
		start, end)
	if err != nil {
		return nil, fmt.Errorf("querying sport load: %w", err)
	}
	defer rows.Close()

	var days []models.SportLoadDay
	for rows.Next() {
		var d models.SportLoadDay
		var date time.Time
		if err := rows.Scan(&date, &d.DailyLoad, &d.WeeklyLoad, &d.OptimalMin, &d.OptimalMax, &d.Overreaching); err != nil {
			return nil, fmt.Errorf("scanning sport load: %w", err)
		}
		d.Date = models.DateOf(date)
		days = append(days, d)
	}
	return days, rows.Err()
}

// UpsertVO2Max stores VO2 max records with their payloads as received.
func (db *DB) UpsertVO2Max(ctx context.Context, records []models.VO2MaxRecord) error {
	for _, r := range records {
		_, err := db.Pool.Exec(ctx,
			`INSERT INTO vo2max_records (date, payload)
			 VALUES ($1,$2)
			 ON CONFLICT (date) DO UPDATE SET payload = EXCLUDED.payload`,
			r.Date.Time, []byte(r.Payload))
		if err != nil {
			return fmt.Errorf("upserting vo2 max for %s: %w", r.Date, err)
		}
	}
	return nil
}

// QueryVO2Max retrieves VO2 max records in a date range ordered by date.
func (db *DB) QueryVO2Max(ctx context.Context, start, end time.Time) ([]models.VO2MaxRecord, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT date, payload
		 FROM vo2max_records
		 WHERE date >= $1 AND date < $2
		 ORDER BY date ASC`,
		start, end)
	if err != nil {
		return nil, fmt.Errorf("querying vo2 max: %w", err)
	}
	defer rows.Close()

	var records []models.VO2MaxRecord
	for rows.Next() {
		var r models.VO2MaxRecord
		var date time.Time
		var payload []byte
		if err := rows.Scan(&date, &payload); err != nil {
			return nil, fmt.Errorf("scanning vo2 max: %w", err)
		}
		r.Date = models.DateOf(date)
		r.Payload = payload
		records = append(records, r)
	}
	return records, rows.Err()
}
