package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/meltforce/zeppvault/internal/models"
)

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// QueryHeartRate retrieves the sparse heart rate timeline for a date.
func (db *DB) QueryHeartRate(ctx context.Context, date models.Date) ([]models.HeartRateSample, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT minute, bpm FROM heart_rate_samples WHERE date = $1 ORDER BY minute ASC`,
		date.Time)
	if err != nil {
		return nil, fmt.Errorf("querying heart rate: %w", err)
	}
	defer rows.Close()

	var samples []models.HeartRateSample
	for rows.Next() {
		var s models.HeartRateSample
		if err := rows.Scan(&s.MinuteOfDay, &s.BPM); err != nil {
			return nil, fmt.Errorf("scanning heart rate sample: %w", err)
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// QueryStepSummary retrieves the daily step totals, or nil when absent.
func (db *DB) QueryStepSummary(ctx context.Context, date models.Date) (*models.StepSummary, error) {
	var s models.StepSummary
	err := db.Pool.QueryRow(ctx,
		`SELECT total, distance_m, calories, run_distance_m, run_calories, goal
		 FROM step_summaries WHERE date = $1`,
		date.Time).Scan(&s.Total, &s.DistanceMeters, &s.Calories, &s.RunDistanceM, &s.RunCalories, &s.Goal)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying step summary: %w", err)
	}
	return &s, nil
}

// QueryActivitySegments retrieves a date's activity segments ordered by
// start minute.
func (db *DB) QueryActivitySegments(ctx context.Context, date models.Date) ([]models.ActivitySegment, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT start_minute, stop_minute, category, mode_code, steps, distance_m, calories
		 FROM activity_segments WHERE date = $1 ORDER BY start_minute ASC`,
		date.Time)
	if err != nil {
		return nil, fmt.Errorf("querying activity segments: %w", err)
	}
	defer rows.Close()

	var segments []models.ActivitySegment
	for rows.Next() {
		var s models.ActivitySegment
		var category string
		if err := rows.Scan(&s.StartMinute, &s.StopMinute, &category, &s.ModeCode,
			&s.Steps, &s.DistanceMeters, &s.Calories); err != nil {
			return nil, fmt.Errorf("scanning activity segment: %w", err)
		}
		s.Category = models.ActivityCategory(category)
		segments = append(segments, s)
	}
	return segments, rows.Err()
}

// QuerySleepSessions retrieves all sleep sessions reported under a date,
// each with its stages, primary session first.
func (db *DB) QuerySleepSessions(ctx context.Context, date models.Date) ([]models.SleepSession, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT source_date, start_time, end_time, score, resting_hr, wake_count,
		   latency_minutes, deep_minutes, light_minutes, has_stage_data
		 FROM sleep_sessions WHERE date = $1 ORDER BY start_time ASC`,
		date.Time)
	if err != nil {
		return nil, fmt.Errorf("querying sleep sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.SleepSession
	for rows.Next() {
		var s models.SleepSession
		var sourceDate time.Time
		if err := rows.Scan(&sourceDate, &s.Start, &s.End, &s.Score, &s.RestingHR,
			&s.WakeCount, &s.LatencyMinutes, &s.DeepMinutes, &s.LightMinutes, &s.HasStageData); err != nil {
			return nil, fmt.Errorf("scanning sleep session: %w", err)
		}
		s.Date = date
		s.SourceDate = models.DateOf(sourceDate)
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range sessions {
		stages, err := db.querySleepStages(ctx, date, sessions[i].Start)
		if err != nil {
			return nil, err
		}
		for _, st := range stages {
			if st.IsNap {
				sessions[i].Naps = append(sessions[i].Naps, st)
			} else {
				sessions[i].Stages = append(sessions[i].Stages, st)
			}
		}
	}
	return sessions, nil
}

func (db *DB) querySleepStages(ctx context.Context, date models.Date, sessionStart time.Time) ([]models.SleepStage, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT start_minute, stop_minute, category, mode_code, is_nap
		 FROM sleep_stages WHERE date = $1 AND session_start = $2 ORDER BY start_minute ASC`,
		date.Time, sessionStart)
	if err != nil {
		return nil, fmt.Errorf("querying sleep stages: %w", err)
	}
	defer rows.Close()

	var stages []models.SleepStage
	for rows.Next() {
		var s models.SleepStage
		var category string
		if err := rows.Scan(&s.StartMinute, &s.StopMinute, &category, &s.ModeCode, &s.IsNap); err != nil {
			return nil, fmt.Errorf("scanning sleep stage: %w", err)
		}
		s.Category = models.SleepStageCategory(category)
		stages = append(stages, s)
	}
	return stages, rows.Err()
}

// QueryDayRecord reassembles the full stored record for a date, or nil when
// the date was never synced.
func (db *DB) QueryDayRecord(ctx context.Context, date models.Date) (*models.DayRecord, error) {
	rec := models.DayRecord{Date: date}
	var errsJSON []byte
	err := db.Pool.QueryRow(ctx,
		`SELECT source, sync_time, field_errors FROM day_records WHERE date = $1`,
		date.Time).Scan(&rec.Source, &rec.SyncTime, &errsJSON)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying day record: %w", err)
	}
	if len(errsJSON) > 0 {
		if err := json.Unmarshal(errsJSON, &rec.Errors); err != nil {
			return nil, fmt.Errorf("decoding field errors: %w", err)
		}
	}

	if rec.HeartRate, err = db.QueryHeartRate(ctx, date); err != nil {
		return nil, err
	}
	if rec.Activity, err = db.QueryActivitySegments(ctx, date); err != nil {
		return nil, err
	}
	if rec.Steps, err = db.QueryStepSummary(ctx, date); err != nil {
		return nil, err
	}
	sessions, err := db.QuerySleepSessions(ctx, date)
	if err != nil {
		return nil, err
	}
	if len(sessions) > 0 {
		rec.Sleep = &sessions[0]
		if len(sessions) > 1 {
			rec.ExtraSleep = sessions[1:]
		}
	}
	if rec.Stress, err = db.QueryStressDay(ctx, date); err != nil {
		return nil, err
	}
	return &rec, nil
}
