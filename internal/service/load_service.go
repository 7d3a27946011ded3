package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jengzang/taxi-trips-backend-go/internal/metrics"
	"github.com/jengzang/taxi-trips-backend-go/internal/models"
	"github.com/jengzang/taxi-trips-backend-go/internal/processing"
	"github.com/jengzang/taxi-trips-backend-go/internal/repository"
)

// DefaultBatchSize is the number of trips committed per transaction
const DefaultBatchSize = 1000

// ErrLoadInProgress is returned when a load is requested while another one
// is still running in this process.
var ErrLoadInProgress = errors.New("a load is already in progress")

// LoadConfig configures the loader
type LoadConfig struct {
	SourcePath    string
	BatchSize     int
	Location      *time.Location
	ProgressEvery int
}

// LoadService streams a raw trip file through the cleaner into the store
type LoadService struct {
	trips   *repository.TripRepository
	runs    *repository.LoadRunRepository
	metrics *metrics.Metrics
	log     zerolog.Logger
	cfg     LoadConfig
	running atomic.Bool
}

// NewLoadService creates a new load service. m may be nil.
func NewLoadService(trips *repository.TripRepository, runs *repository.LoadRunRepository, m *metrics.Metrics, log zerolog.Logger, cfg LoadConfig) *LoadService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return &LoadService{
		trips:   trips,
		runs:    runs,
		metrics: m,
		log:     log.With().Str("component", "loader").Logger(),
		cfg:     cfg,
	}
}

// SourcePath returns the configured input file
func (s *LoadService) SourcePath() string {
	return s.cfg.SourcePath
}

// Running reports whether a load is in progress
func (s *LoadService) Running() bool {
	return s.running.Load()
}

// Load ingests the configured source file
func (s *LoadService) Load(ctx context.Context) (*models.LoadResult, error) {
	return s.LoadFrom(ctx, s.cfg.SourcePath)
}

// LoadFrom ingests path. Kept trips are committed in batches of BatchSize,
// each batch in its own transaction; a failure leaves earlier batches in
// place. The returned result carries the counters reached even on error.
func (s *LoadService) LoadFrom(ctx context.Context, path string) (*models.LoadResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrLoadInProgress
	}
	defer s.running.Store(false)

	start := time.Now()
	run := &models.LoadRun{
		ID:         uuid.NewString(),
		SourcePath: path,
		Status:     models.LoadStatusRunning,
		StartedAt:  start.UTC(),
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, err
	}

	log := s.log.With().Str("run_id", run.ID).Str("path", path).Logger()
	log.Info().Int("batch_size", s.cfg.BatchSize).Msg("Starting load")

	result, loadErr := s.ingest(ctx, log, path)
	result.RunID = run.ID
	result.DurationMs = time.Since(start).Milliseconds()

	run.Total, run.Kept, run.Excluded, run.Inserted = result.Total, result.Kept, result.Excluded, result.Inserted
	run.Reasons = result.Reasons
	run.Checksum = result.Checksum
	run.Status = models.LoadStatusCompleted
	if loadErr != nil {
		run.Status = models.LoadStatusFailed
		run.Error = loadErr.Error()
	}
	finished := time.Now().UTC()
	run.FinishedAt = &finished

	// Record the outcome even if the request that started the load is gone.
	if err := s.runs.Finish(context.WithoutCancel(ctx), run); err != nil {
		log.Error().Err(err).Msg("Failed to record load run")
		if loadErr == nil {
			loadErr = err
		}
	}
	if s.metrics != nil {
		s.metrics.ObserveLoad(run.Status, time.Since(start))
	}

	if loadErr != nil {
		log.Error().Err(loadErr).
			Int64("inserted", result.Inserted).
			Msg("Load failed")
		return result, loadErr
	}

	log.Info().
		Int64("total", result.Total).
		Int64("kept", result.Kept).
		Int64("excluded", result.Excluded).
		Int64("inserted", result.Inserted).
		Int64("duration_ms", result.DurationMs).
		Msg("Load complete")
	return result, nil
}

func (s *LoadService) ingest(ctx context.Context, log zerolog.Logger, path string) (*models.LoadResult, error) {
	result := &models.LoadResult{Reasons: map[string]int64{}}

	f, err := os.Open(path)
	if err != nil {
		return result, fmt.Errorf("failed to open trip file: %w", err)
	}
	defer f.Close()

	opts := processing.Options{
		Location:      s.cfg.Location,
		ProgressEvery: s.cfg.ProgressEvery,
	}
	if s.metrics != nil {
		opts.OnRow = func(r processing.Reason) { s.metrics.ObserveRow(string(r)) }
	}
	stream := processing.NewCleaner(log, opts).Clean(f)

	batch := make([]models.Trip, 0, s.cfg.BatchSize)
	flush := func() error {
		began := time.Now()
		n, err := s.trips.UpsertBatch(ctx, batch)
		if err != nil {
			return fmt.Errorf("failed to commit batch after %d trips: %w", result.Inserted, err)
		}
		result.Inserted += n
		if s.metrics != nil {
			s.metrics.ObserveBatch(time.Since(began))
		}
		batch = batch[:0]
		return nil
	}

	summarize := func() {
		sum := stream.Summary()
		result.Total, result.Kept, result.Excluded = sum.Total, sum.Kept, sum.Excluded
		result.Reasons = sum.Reasons
		result.Checksum = stream.Checksum()
	}

	for stream.Next() {
		batch = append(batch, stream.Trip())
		if len(batch) < s.cfg.BatchSize {
			continue
		}
		if err := flush(); err != nil {
			summarize()
			return result, err
		}
	}
	if err := stream.Err(); err != nil {
		summarize()
		return result, fmt.Errorf("failed to read trip file: %w", err)
	}
	if len(batch) > 0 {
		if err := flush(); err != nil {
			summarize()
			return result, err
		}
	}

	summarize()
	return result, nil
}

// RecentRuns lists the latest load runs, newest first
func (s *LoadService) RecentRuns(ctx context.Context, limit int) ([]models.LoadRun, error) {
	return s.runs.Recent(ctx, limit)
}
