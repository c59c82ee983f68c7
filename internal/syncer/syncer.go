// Package syncer pulls date ranges from the Zepp cloud, assembles them into
// day records, and stores the result. Each run is recorded in sync_runs for
// auditing.
package syncer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/meltforce/zeppvault/internal/assemble"
	"github.com/meltforce/zeppvault/internal/models"
	"github.com/meltforce/zeppvault/internal/storage"
	"github.com/meltforce/zeppvault/internal/timeline"
	"github.com/meltforce/zeppvault/internal/zeppapi"
)

// Result holds the outcome of one sync run.
type Result struct {
	RunID          uuid.UUID `json:"run_id"`
	FromDate       string    `json:"from_date"`
	ToDate         string    `json:"to_date"`
	DaysFetched    int       `json:"days_fetched"`
	DaysStored     int       `json:"days_stored"`
	DaysWithErrors int       `json:"days_with_errors"`
	StressDays     int       `json:"stress_days"`
	TrainingPoints int       `json:"training_points"`
	SportLoadDays  int       `json:"sport_load_days"`
	VO2MaxDays     int       `json:"vo2_max_days"`
	Message        string    `json:"message,omitempty"`
}

// Syncer coordinates one upstream account against the local store.
type Syncer struct {
	client    *zeppapi.Client
	db        *storage.DB
	assembler *assemble.Assembler
	tzOffset  int
	log       *slog.Logger
}

// New creates a Syncer. tzOffsetSeconds is the wearer's UTC offset, used to
// resolve event timestamps that sit at local midnight into calendar dates.
func New(client *zeppapi.Client, db *storage.DB, assembler *assemble.Assembler, tzOffsetSeconds int, log *slog.Logger) *Syncer {
	return &Syncer{client: client, db: db, assembler: assembler, tzOffset: tzOffsetSeconds, log: log}
}

// SyncRange pulls and stores all data for the inclusive date range. The
// fetch starts one day earlier than requested so midnight-spill sleep
// sessions filed under the day before the range resolve correctly.
func (s *Syncer) SyncRange(ctx context.Context, from, to models.Date) (*Result, error) {
	if to.Before(from.Time) {
		return nil, fmt.Errorf("invalid range: %s is after %s", from, to)
	}

	runID, err := s.db.InsertSyncRun(ctx, from.Time, to.Time)
	if err != nil {
		return nil, err
	}
	result := &Result{RunID: runID, FromDate: from.String(), ToDate: to.String()}

	err = s.syncRange(ctx, from, to, result)
	status := "success"
	var errMsg *string
	if err != nil {
		status = "error"
		msg := err.Error()
		errMsg = &msg
	}
	if finishErr := s.db.FinishSyncRun(ctx, runID, status, result.DaysFetched, result.DaysStored, errMsg); finishErr != nil {
		s.log.Error("finishing sync run", "run_id", runID, "error", finishErr)
	}
	if err != nil {
		return result, err
	}

	s.log.Info("sync complete",
		"run_id", runID,
		"from", from.String(),
		"to", to.String(),
		"days_stored", result.DaysStored,
		"days_with_errors", result.DaysWithErrors,
	)
	return result, nil
}

// FetchRange pulls and assembles the inclusive date range without touching
// the store. The export CLI uses it to render files straight off the API.
func (s *Syncer) FetchRange(ctx context.Context, from, to models.Date) ([]*models.DayRecord, error) {
	if to.Before(from.Time) {
		return nil, fmt.Errorf("invalid range: %s is after %s", from, to)
	}
	records, _, err := s.assembleRange(ctx, from, to)
	return records, err
}

// assembleRange fetches band data plus stress events and assembles one
// record per day that had any payload. The fetch starts one day earlier
// than requested so spilled sleep sessions resolve.
func (s *Syncer) assembleRange(ctx context.Context, from, to models.Date) ([]*models.DayRecord, int, error) {
	fetchFrom := from.AddDays(-1)
	days, err := s.client.BandData(ctx, fetchFrom, to)
	if err != nil {
		return nil, 0, fmt.Errorf("fetching band data: %w", err)
	}

	byDate := make(map[string]*models.RawDayPayload, len(days))
	for i := range days {
		byDate[days[i].Date.String()] = &days[i]
	}

	stressItems, err := s.client.StressEvents(ctx, from, to)
	if err != nil {
		// Stress lives on a separate endpoint; its failure should not lose
		// the band data for the range.
		s.log.Warn("fetching stress events", "error", err)
	}
	stressEvents, err := assemble.DecodeStressEvents(stressItems)
	if err != nil {
		s.log.Warn("decoding stress events", "error", err)
	}
	attachStress(byDate, stressEvents)

	var records []*models.DayRecord
	for d := from; !d.After(to.Time); d = d.AddDays(1) {
		payload := byDate[d.String()]
		prior := byDate[d.AddDays(-1).String()]
		if payload == nil && prior == nil {
			continue
		}

		rec := s.assembler.Assemble(d, payload, prior)
		for _, fe := range rec.Errors {
			s.log.Warn("field decode failure", "date", d.String(), "field", fe.Field, "error", fe.Message)
		}
		records = append(records, &rec)
	}
	return records, len(days), nil
}

func (s *Syncer) syncRange(ctx context.Context, from, to models.Date, result *Result) error {
	records, fetched, err := s.assembleRange(ctx, from, to)
	if err != nil {
		return err
	}
	result.DaysFetched = fetched

	for _, rec := range records {
		if len(rec.Errors) > 0 {
			result.DaysWithErrors++
		}
		if err := s.db.UpsertDayRecord(ctx, *rec); err != nil {
			return fmt.Errorf("storing %s: %w", rec.Date, err)
		}
		result.DaysStored++
		if rec.Stress != nil {
			result.StressDays++
		}
	}

	if err := s.syncTrainingLoad(ctx, to, result); err != nil {
		return err
	}
	return s.syncWatchStats(ctx, from, to, result)
}

// syncTrainingLoad merges the exertion and phn feeds into training_load.
// The two feeds cover overlapping but distinct fields, so both are stored;
// the upsert keeps whichever feed had a value per column.
func (s *Syncer) syncTrainingLoad(ctx context.Context, to models.Date, result *Result) error {
	var points []models.TrainingLoadPoint

	items, err := s.client.ExertionEvents(ctx, to)
	if err != nil {
		s.log.Warn("fetching exertion events", "error", err)
	} else {
		decoded, err := assemble.DecodeTrainingLoad(items, s.tzOffset)
		if err != nil {
			s.log.Warn("decoding training load", "error", err)
		}
		points = append(points, decoded...)
	}

	items, err = s.client.PHNEvents(ctx, to)
	if err != nil {
		s.log.Warn("fetching phn events", "error", err)
	} else {
		decoded, err := assemble.DecodePHN(items, s.tzOffset)
		if err != nil {
			s.log.Warn("decoding phn analysis", "error", err)
		}
		points = append(points, decoded...)
	}

	if len(points) > 0 {
		if err := s.db.UpsertTrainingLoad(ctx, points); err != nil {
			return fmt.Errorf("storing training load: %w", err)
		}
		result.TrainingPoints = len(points)
	}
	return nil
}

// syncWatchStats pulls the per-day watch statistics feeds for the range.
func (s *Syncer) syncWatchStats(ctx context.Context, from, to models.Date, result *Result) error {
	items, err := s.client.SportLoad(ctx, from, to)
	if err != nil {
		s.log.Warn("fetching sport load", "error", err)
	} else {
		days, err := assemble.DecodeSportLoad(items)
		if err != nil {
			s.log.Warn("decoding sport load", "error", err)
		}
		if len(days) > 0 {
			if err := s.db.UpsertSportLoad(ctx, days); err != nil {
				return fmt.Errorf("storing sport load: %w", err)
			}
			result.SportLoadDays = len(days)
		}
	}

	items, err = s.client.VO2Max(ctx, from, to)
	if err != nil {
		s.log.Warn("fetching vo2 max", "error", err)
	} else {
		records, err := assemble.DecodeVO2Max(items)
		if err != nil {
			s.log.Warn("decoding vo2 max", "error", err)
		}
		if len(records) > 0 {
			if err := s.db.UpsertVO2Max(ctx, records); err != nil {
				return fmt.Errorf("storing vo2 max: %w", err)
			}
			result.VO2MaxDays = len(records)
		}
	}
	return nil
}

// attachStress pairs each stress event with the payload for its date. Event
// timestamps sit at local midnight in the device's zone, so the UTC date can
// be off by one in either direction; the exact UTC date wins, then whichever
// neighbor is still free.
func attachStress(byDate map[string]*models.RawDayPayload, events []models.StressEvent) {
	for i := range events {
		t := timeline.ToAbsolute(events[i].TimestampMS, timeline.Milliseconds)
		for _, dayShift := range []int{0, 1, -1} {
			d := models.DateOf(t).AddDays(dayShift)
			if p, ok := byDate[d.String()]; ok && p.Stress == nil {
				p.Stress = &events[i]
				break
			}
		}
	}
}
