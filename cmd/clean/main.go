// Command clean validates a raw trip CSV and writes the kept rows, with
// derived columns appended, to a new CSV file.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/jengzang/taxi-trips-backend-go/internal/config"
	"github.com/jengzang/taxi-trips-backend-go/internal/logger"
	"github.com/jengzang/taxi-trips-backend-go/internal/processing"
	"github.com/jengzang/taxi-trips-backend-go/internal/temporal"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	in := flag.String("in", cfg.DataRawPath, "raw trip CSV")
	out := flag.String("out", "data/processed/trips_clean.csv", "cleaned CSV destination")
	tz := flag.String("tz", cfg.SourceTZ, "zone for timestamps without an offset")
	flag.Parse()

	logCfg := logger.DefaultConfig()
	logCfg.Level = logger.ParseLevel(cfg.Logging.Level)
	logCfg.File = false
	log, _ := logger.New(logCfg)

	if err := run(log, *in, *out, *tz, cfg.ProgressEvery); err != nil {
		log.Error().Err(err).Str("in", *in).Str("out", *out).Msg("Cleaning failed")
		os.Exit(1)
	}
}

func run(log zerolog.Logger, in, out, tz string, progressEvery int) error {
	loc, err := temporal.LoadLocation(tz)
	if err != nil {
		return err
	}

	src, err := os.Open(in)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	dst, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	defer dst.Close()

	w := bufio.NewWriter(dst)
	stream := processing.NewCleaner(log, processing.Options{Location: loc, ProgressEvery: progressEvery}).Clean(src)
	summary, err := processing.WriteCleaned(w, stream)
	if err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush destination: %w", err)
	}

	log.Info().
		Int64("total", summary.Total).
		Int64("kept", summary.Kept).
		Int64("excluded", summary.Excluded).
		Interface("reasons", summary.Reasons).
		Str("checksum", stream.Checksum()).
		Str("out", out).
		Msg("Cleaned trip file written")
	return dst.Close()
}
