package mcp

import (
	"context"
	"time"

	"github.com/meltforce/zeppvault/internal/models"
	"github.com/meltforce/zeppvault/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. Both *storage.DB (local)
// and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	QueryDayRecord(ctx context.Context, date models.Date) (*models.DayRecord, error)
	QueryHeartRate(ctx context.Context, date models.Date) ([]models.HeartRateSample, error)
	QueryStepSummary(ctx context.Context, date models.Date) (*models.StepSummary, error)
	QueryActivitySegments(ctx context.Context, date models.Date) ([]models.ActivitySegment, error)
	QuerySleepSessions(ctx context.Context, date models.Date) ([]models.SleepSession, error)
	QueryStressDay(ctx context.Context, date models.Date) (*models.StressDaySummary, error)
	QueryTrainingLoad(ctx context.Context, start, end time.Time) ([]models.TrainingLoadPoint, error)
	QuerySportLoad(ctx context.Context, start, end time.Time) ([]models.SportLoadDay, error)
	GetSleepSummary(ctx context.Context, start, end time.Time, bucket string) ([]storage.SleepSummaryPeriod, error)
	GetDataStats(ctx context.Context) (*storage.DataStats, error)
}

// Compile-time check: the storage layer satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
