// Package server exposes the stored health data over HTTP and hosts the
// sync trigger endpoint.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meltforce/zeppvault/internal/models"
	"github.com/meltforce/zeppvault/internal/storage"
	"github.com/meltforce/zeppvault/internal/syncer"
)

// Store is the slice of the storage layer the handlers read from.
// *storage.DB satisfies it; tests substitute a stub.
type Store interface {
	QueryDayRecord(ctx context.Context, date models.Date) (*models.DayRecord, error)
	QueryHeartRate(ctx context.Context, date models.Date) ([]models.HeartRateSample, error)
	QueryStepSummary(ctx context.Context, date models.Date) (*models.StepSummary, error)
	QueryActivitySegments(ctx context.Context, date models.Date) ([]models.ActivitySegment, error)
	QuerySleepSessions(ctx context.Context, date models.Date) ([]models.SleepSession, error)
	QueryStressDay(ctx context.Context, date models.Date) (*models.StressDaySummary, error)
	QueryTrainingLoad(ctx context.Context, start, end time.Time) ([]models.TrainingLoadPoint, error)
	QuerySportLoad(ctx context.Context, start, end time.Time) ([]models.SportLoadDay, error)
	QueryVO2Max(ctx context.Context, start, end time.Time) ([]models.VO2MaxRecord, error)
	GetSleepSummary(ctx context.Context, start, end time.Time, bucket string) ([]storage.SleepSummaryPeriod, error)
	GetDataStats(ctx context.Context) (*storage.DataStats, error)
	QuerySyncRuns(ctx context.Context, limit int) ([]storage.SyncRun, error)
}

// SyncRunner triggers a sync of a date range from the upstream API.
type SyncRunner interface {
	SyncRange(ctx context.Context, from, to models.Date) (*syncer.Result, error)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store  Store
	syncer SyncRunner
	log    *slog.Logger
	apiKey string
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(store Store, sync SyncRunner, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		store:  store,
		syncer: sync,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	// Sync trigger (API key required)
	s.router.Route("/api/v1/sync", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/", s.handleSync)
	})

	// Read endpoints (no auth — tsnet handles access)
	s.router.Get("/api/v1/summary/{date}", s.handleDaySummary)
	s.router.Get("/api/v1/heartrate/{date}", s.handleHeartRate)
	s.router.Get("/api/v1/sleep/summary", s.handleSleepSummary)
	s.router.Get("/api/v1/sleep/{date}", s.handleSleep)
	s.router.Get("/api/v1/steps/{date}", s.handleSteps)
	s.router.Get("/api/v1/activity/{date}", s.handleActivity)
	s.router.Get("/api/v1/stress/{date}", s.handleStress)
	s.router.Get("/api/v1/trainingload", s.handleTrainingLoad)
	s.router.Get("/api/v1/sportload", s.handleSportLoad)
	s.router.Get("/api/v1/vo2max", s.handleVO2Max)
	s.router.Get("/api/v1/stats", s.handleStats)
	s.router.Get("/api/v1/syncruns", s.handleSyncRuns)
}
