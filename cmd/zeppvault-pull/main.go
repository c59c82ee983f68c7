package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/meltforce/zeppvault/internal/assemble"
	"github.com/meltforce/zeppvault/internal/config"
	"github.com/meltforce/zeppvault/internal/export"
	"github.com/meltforce/zeppvault/internal/models"
	"github.com/meltforce/zeppvault/internal/storage"
	"github.com/meltforce/zeppvault/internal/syncer"
	"github.com/meltforce/zeppvault/internal/zeppapi"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	fromStr := flag.String("from", "", "start date YYYY-MM-DD (default: 6 days before -to)")
	toStr := flag.String("to", "", "end date YYYY-MM-DD (default: today)")
	format := flag.String("format", "store", "output: store (into database), csv, or apple-health")
	output := flag.String("output", "", "output file for csv/apple-health (default: derived from range)")
	sourceName := flag.String("source-name", "zeppvault", "sourceName attribute in apple-health output")
	tzHours := flag.Int("tz-hours", 0, "UTC offset in hours for apple-health timestamps (e.g. -6)")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("zeppvault-pull", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	from, to, err := parseRange(*fromStr, *toStr)
	if err != nil {
		log.Error("invalid date range", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var clientOpts []zeppapi.Option
	if cfg.Zepp.CachePath != "" {
		cache, err := zeppapi.OpenCache(cfg.Zepp.CachePath)
		if err != nil {
			log.Warn("response cache unavailable", "path", cfg.Zepp.CachePath, "error", err)
		} else {
			defer cache.Close()
			clientOpts = append(clientOpts, zeppapi.WithCache(cache))
		}
	}

	client, err := zeppapi.NewClient(cfg.Zepp.Token, cfg.Zepp.UserID, cfg.Zepp.Region, clientOpts...)
	if err != nil {
		log.Error("zepp client setup failed", "error", err)
		os.Exit(1)
	}

	assembler := assemble.New(cfg.Modes.Activity, cfg.Modes.Sleep)
	ctx := context.Background()

	switch *format {
	case "store":
		runStore(ctx, cfg, client, assembler, from, to, log)
	case "csv", "apple-health":
		runExport(ctx, client, assembler, from, to, *format, *output, *sourceName, *tzHours*3600, log)
	default:
		fmt.Fprintf(os.Stderr, "Unknown format %q. Supported: store, csv, apple-health\n", *format)
		os.Exit(1)
	}
}

func parseRange(fromStr, toStr string) (models.Date, models.Date, error) {
	to := models.DateOf(time.Now().UTC())
	if toStr != "" {
		var err error
		to, err = models.ParseDate(toStr)
		if err != nil {
			return models.Date{}, models.Date{}, err
		}
	}

	from := to.AddDays(-6)
	if fromStr != "" {
		var err error
		from, err = models.ParseDate(fromStr)
		if err != nil {
			return models.Date{}, models.Date{}, err
		}
	}

	if to.Before(from.Time) {
		return models.Date{}, models.Date{}, fmt.Errorf("%s is after %s", from, to)
	}
	return from, to, nil
}

func runStore(ctx context.Context, cfg *config.Config, client *zeppapi.Client, assembler *assemble.Assembler, from, to models.Date, log *slog.Logger) {
	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}

	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	result, err := syncer.New(client, db, assembler, cfg.Zepp.TZOffsetSeconds, log).SyncRange(ctx, from, to)
	if err != nil {
		log.Error("sync failed", "error", err)
		os.Exit(1)
	}

	log.Info("pull complete",
		"run_id", result.RunID,
		"days_fetched", result.DaysFetched,
		"days_stored", result.DaysStored,
		"days_with_errors", result.DaysWithErrors,
		"stress_days", result.StressDays,
		"training_points", result.TrainingPoints,
		"sport_load_days", result.SportLoadDays,
	)
}

// runExport renders the range straight off the API without a database.
func runExport(ctx context.Context, client *zeppapi.Client, assembler *assemble.Assembler, from, to models.Date, format, output, sourceName string, tzOffsetSeconds int, log *slog.Logger) {
	records, err := syncer.New(client, nil, assembler, tzOffsetSeconds, log).FetchRange(ctx, from, to)
	if err != nil {
		log.Error("fetch failed", "error", err)
		os.Exit(1)
	}
	log.Info("fetched range", "from", from.String(), "to", to.String(), "days", len(records))

	if output == "" {
		ext := "csv"
		if format == "apple-health" {
			ext = "xml"
		}
		output = fmt.Sprintf("zepp_%s_to_%s.%s", from, to, ext)
	}

	f, err := os.Create(output)
	if err != nil {
		log.Error("creating output file", "path", output, "error", err)
		os.Exit(1)
	}
	defer func() { _ = f.Close() }()

	switch format {
	case "csv":
		rows, err := export.WriteCSV(f, records)
		if err != nil {
			log.Error("csv export failed", "error", err)
			os.Exit(1)
		}
		log.Info("export complete", "path", output, "rows", rows)
	case "apple-health":
		counts, err := export.WriteAppleHealth(f, records, sourceName, tzOffsetSeconds)
		if err != nil {
			log.Error("apple-health export failed", "error", err)
			os.Exit(1)
		}
		log.Info("export complete",
			"path", output,
			"heart_rate_records", counts.HeartRate,
			"step_records", counts.Steps,
			"sleep_records", counts.Sleep,
			"total", counts.Total(),
		)
		fmt.Println("To import into Apple Health, use a third-party iOS app like")
		fmt.Println("'Health CSV Importer' or 'Health Auto Export'.")
	}
}
