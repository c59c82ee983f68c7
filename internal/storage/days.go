package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/meltforce/zeppvault/internal/models"
)

// UpsertDayRecord stores an assembled day record across its normalized
// tables in one transaction. Existing rows for the date are replaced; a
// re-sync with richer data (the band synced again) wins over the old rows.
func (db *DB) UpsertDayRecord(ctx context.Context, rec models.DayRecord) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	errsJSON, err := json.Marshal(rec.Errors)
	if err != nil {
		return fmt.Errorf("marshaling field errors: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO day_records (date, source, sync_time, field_errors)
		 VALUES ($1,$2,$3,$4)
		 ON CONFLICT (date) DO UPDATE SET
		   source = EXCLUDED.source,
		   sync_time = EXCLUDED.sync_time,
		   field_errors = EXCLUDED.field_errors,
		   updated_at = now()`,
		rec.Date.Time, rec.Source, rec.SyncTime, errsJSON)
	if err != nil {
		return fmt.Errorf("upserting day record: %w", err)
	}

	// Child tables are replaced wholesale; per-row diffing buys nothing at
	// 1440 rows a day.
	for _, table := range []string{"heart_rate_samples", "activity_segments", "sleep_sessions", "sleep_stages"} {
		if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE date = $1`, rec.Date.Time); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	if err := insertHeartRate(ctx, tx, rec); err != nil {
		return err
	}
	if err := insertActivitySegments(ctx, tx, rec); err != nil {
		return err
	}
	if err := upsertStepSummary(ctx, tx, rec); err != nil {
		return err
	}
	if err := insertSleep(ctx, tx, rec); err != nil {
		return err
	}
	if rec.Stress != nil {
		if err := upsertStress(ctx, tx, *rec.Stress); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// txLike is the slice of pgx.Tx the insert helpers need.
type txLike interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func insertHeartRate(ctx context.Context, tx txLike, rec models.DayRecord) error {
	if len(rec.HeartRate) == 0 {
		return nil
	}
	query := `INSERT INTO heart_rate_samples (date, minute, bpm) VALUES `
	args := make([]any, 0, len(rec.HeartRate)*3)
	valueStrings := make([]string, 0, len(rec.HeartRate))
	for i, s := range rec.HeartRate {
		base := i * 3
		valueStrings = append(valueStrings, fmt.Sprintf("($%d,$%d,$%d)", base+1, base+2, base+3))
		args = append(args, rec.Date.Time, s.MinuteOfDay, s.BPM)
	}
	query += strings.Join(valueStrings, ",") + " ON CONFLICT DO NOTHING"
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting heart rate samples: %w", err)
	}
	return nil
}

func insertActivitySegments(ctx context.Context, tx txLike, rec models.DayRecord) error {
	if len(rec.Activity) == 0 {
		return nil
	}
	query := `INSERT INTO activity_segments (date, start_minute, stop_minute, category, mode_code, steps, distance_m, calories) VALUES `
	args := make([]any, 0, len(rec.Activity)*8)
	valueStrings := make([]string, 0, len(rec.Activity))
	for i, s := range rec.Activity {
		base := i * 8
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8))
		args = append(args, rec.Date.Time, s.StartMinute, s.StopMinute, string(s.Category),
			s.ModeCode, s.Steps, s.DistanceMeters, s.Calories)
	}
	query += strings.Join(valueStrings, ",") + " ON CONFLICT DO NOTHING"
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting activity segments: %w", err)
	}
	return nil
}

func upsertStepSummary(ctx context.Context, tx txLike, rec models.DayRecord) error {
	if rec.Steps == nil {
		return nil
	}
	s := rec.Steps
	_, err := tx.Exec(ctx,
		`INSERT INTO step_summaries (date, total, distance_m, calories, run_distance_m, run_calories, goal)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 ON CONFLICT (date) DO UPDATE SET
		   total = EXCLUDED.total,
		   distance_m = EXCLUDED.distance_m,
		   calories = EXCLUDED.calories,
		   run_distance_m = EXCLUDED.run_distance_m,
		   run_calories = EXCLUDED.run_calories,
		   goal = EXCLUDED.goal`,
		rec.Date.Time, s.Total, s.DistanceMeters, s.Calories, s.RunDistanceM, s.RunCalories, s.Goal)
	if err != nil {
		return fmt.Errorf("upserting step summary: %w", err)
	}
	return nil
}

func insertSleep(ctx context.Context, tx txLike, rec models.DayRecord) error {
	sessions := make([]models.SleepSession, 0, 1+len(rec.ExtraSleep))
	if rec.Sleep != nil {
		sessions = append(sessions, *rec.Sleep)
	}
	sessions = append(sessions, rec.ExtraSleep...)

	for _, s := range sessions {
		_, err := tx.Exec(ctx,
			`INSERT INTO sleep_sessions (date, source_date, start_time, end_time, score, resting_hr,
			   wake_count, latency_minutes, deep_minutes, light_minutes, has_stage_data)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
			 ON CONFLICT (date, start_time) DO NOTHING`,
			s.Date.Time, s.SourceDate.Time, s.Start, s.End, s.Score, s.RestingHR,
			s.WakeCount, s.LatencyMinutes, s.DeepMinutes, s.LightMinutes, s.HasStageData)
		if err != nil {
			return fmt.Errorf("inserting sleep session: %w", err)
		}

		stages := append(append([]models.SleepStage{}, s.Stages...), s.Naps...)
		if len(stages) == 0 {
			continue
		}
		query := `INSERT INTO sleep_stages (date, session_start, start_minute, stop_minute, category, mode_code, is_nap) VALUES `
		args := make([]any, 0, len(stages)*7)
		valueStrings := make([]string, 0, len(stages))
		for i, st := range stages {
			base := i * 7
			valueStrings = append(valueStrings, fmt.Sprintf(
				"($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7))
			args = append(args, s.Date.Time, s.Start, st.StartMinute, st.StopMinute,
				string(st.Category), st.ModeCode, st.IsNap)
		}
		query += strings.Join(valueStrings, ",") + " ON CONFLICT DO NOTHING"
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("inserting sleep stages: %w", err)
		}
	}
	return nil
}
