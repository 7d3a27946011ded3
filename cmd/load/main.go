// Command load ingests a raw trip CSV into the SQLite store without
// starting the HTTP server.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/jengzang/taxi-trips-backend-go/internal/config"
	"github.com/jengzang/taxi-trips-backend-go/internal/database"
	"github.com/jengzang/taxi-trips-backend-go/internal/logger"
	"github.com/jengzang/taxi-trips-backend-go/internal/repository"
	"github.com/jengzang/taxi-trips-backend-go/internal/service"
	"github.com/jengzang/taxi-trips-backend-go/internal/temporal"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	in := flag.String("in", cfg.DataRawPath, "raw trip CSV")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database file")
	batch := flag.Int("batch", cfg.BatchSize, "trips per transaction")
	reset := flag.Bool("clear", false, "delete existing trips before loading")
	flag.Parse()

	logCfg := logger.DefaultConfig()
	logCfg.Level = logger.ParseLevel(cfg.Logging.Level)
	logCfg.FilePath = cfg.Logging.FilePath
	log, closer := logger.New(logCfg)

	exit := func(code int) {
		closer.Close()
		os.Exit(code)
	}

	loc, err := temporal.LoadLocation(cfg.SourceTZ)
	if err != nil {
		log.Error().Err(err).Str("timezone", cfg.SourceTZ).Msg("Invalid source timezone")
		exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, database.Config{Path: *dbPath}, log)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize database")
		exit(1)
	}
	defer db.Close()

	tripRepo := repository.NewTripRepository(db)
	if *reset {
		deleted, err := tripRepo.DeleteAll(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Failed to clear trips")
			exit(1)
		}
		log.Info().Int64("deleted", deleted).Msg("Existing trips cleared")
	}

	loader := service.NewLoadService(tripRepo, repository.NewLoadRunRepository(db), nil, log, service.LoadConfig{
		SourcePath:    *in,
		BatchSize:     *batch,
		Location:      loc,
		ProgressEvery: cfg.ProgressEvery,
	})

	if _, err := loader.Load(ctx); err != nil {
		log.Error().Err(err).Msg("Load failed")
		db.Close()
		exit(1)
	}
	closer.Close()
}
