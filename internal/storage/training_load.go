package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/meltforce/zeppvault/internal/models"
)

// UpsertTrainingLoad stores training load points, one row per date. Points
// arrive from two feeds (exertion and phn) covering different columns, so
// the upsert merges per column: a fresh non-null value replaces the stored
// one, a null leaves it alone.
func (db *DB) UpsertTrainingLoad(ctx context.Context, points []models.TrainingLoadPoint) error {
	for _, p := range points {
		var planJSON []byte
		if p.Plan != nil {
			var err error
			if planJSON, err = json.Marshal(p.Plan); err != nil {
				return fmt.Errorf("marshaling exercise plan: %w", err)
			}
		}
		_, err := db.Pool.Exec(ctx,
			`INSERT INTO training_load (date, atl, ctl, tsb, trimp, exercise_score, target_score, recovery_factor, exercise_plan)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			 ON CONFLICT (date) DO UPDATE SET
			   atl = COALESCE(EXCLUDED.atl, training_load.atl),
			   ctl = COALESCE(EXCLUDED.ctl, training_load.ctl),
			   tsb = COALESCE(EXCLUDED.tsb, training_load.tsb),
			   trimp = COALESCE(EXCLUDED.trimp, training_load.trimp),
			   exercise_score = COALESCE(EXCLUDED.exercise_score, training_load.exercise_score),
			   target_score = COALESCE(EXCLUDED.target_score, training_load.target_score),
			   recovery_factor = COALESCE(EXCLUDED.recovery_factor, training_load.recovery_factor),
			   exercise_plan = COALESCE(EXCLUDED.exercise_plan, training_load.exercise_plan)`,
			p.Date.Time, p.ATL, p.CTL, p.TSB, p.TRIMP, p.ExerciseScore, p.TargetScore, p.RecoveryFactor, planJSON)
		if err != nil {
			return fmt.Errorf("upserting training load for %s: %w", p.Date, err)
		}
	}
	return nil
}

// QueryTrainingLoad retrieves training load points in a date range ordered
// by date.
func (db *DB) QueryTrainingLoad(ctx context.Context, start, end time.Time) ([]models.TrainingLoadPoint, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT date, atl, ctl, tsb, trimp, exercise_score, target_score, recovery_factor, exercise_plan
		 FROM training_load
		 WHERE date >= $1 AND date < $2
		 ORDER BY date ASC`,
		start, end)
	if err != nil {
		return nil, fmt.Errorf("querying training load: %w", err)
	}
	defer rows.Close()

	var points []models.TrainingLoadPoint
	for rows.Next() {
		var p models.TrainingLoadPoint
		var date time.Time
		var planJSON []byte
		if err := rows.Scan(&date, &p.ATL, &p.CTL, &p.TSB, &p.TRIMP,
			&p.ExerciseScore, &p.TargetScore, &p.RecoveryFactor, &planJSON); err != nil {
			return nil, fmt.Errorf("scanning training load: %w", err)
		}
		p.Date = models.DateOf(date)
		if len(planJSON) > 0 {
			var plan models.ExercisePlan
			if err := json.Unmarshal(planJSON, &plan); err != nil {
				return nil, fmt.Errorf("decoding exercise plan: %w", err)
			}
			p.Plan = &plan
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
