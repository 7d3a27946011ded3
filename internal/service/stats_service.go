package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jengzang/taxi-trips-backend-go/internal/models"
	"github.com/jengzang/taxi-trips-backend-go/internal/repository"
)

// Distribution selects the measurement a histogram is built over
type Distribution string

const (
	DurationDistribution Distribution = "duration"
	DistanceDistribution Distribution = "distance"
	SpeedDistribution    Distribution = "speed"
)

// DefaultBucketSize returns the bin width used when the caller gives none
func (d Distribution) DefaultBucketSize() float64 {
	switch d {
	case DistanceDistribution:
		return repository.DefaultDistanceBucket
	case SpeedDistribution:
		return repository.DefaultSpeedBucket
	default:
		return repository.DefaultDurationBucket
	}
}

// StatsService handles business logic for statistics
type StatsService struct {
	statsRepo *repository.StatsRepository
}

// NewStatsService creates a new stats service
func NewStatsService(statsRepo *repository.StatsRepository) *StatsService {
	return &StatsService{
		statsRepo: statsRepo,
	}
}

// GetOverview returns the summary statistics and the hourly profile of the
// filtered trips. Both queries run concurrently.
func (s *StatsService) GetOverview(ctx context.Context, filter models.TripFilter) (*models.StatsOverview, error) {
	overview := &models.StatsOverview{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := s.statsRepo.GetStats(gctx, filter)
		if err != nil {
			return fmt.Errorf("failed to get trip statistics: %w", err)
		}
		overview.Stats = stats
		return nil
	})
	g.Go(func() error {
		hourly, err := s.statsRepo.GetHourlyDistribution(gctx, filter)
		if err != nil {
			return fmt.Errorf("failed to get hourly distribution: %w", err)
		}
		overview.HourlyDistribution = hourly
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return overview, nil
}

// GetDistribution builds the histogram of kind. Non-positive bucket sizes
// fall back to the default; the size actually used is returned.
func (s *StatsService) GetDistribution(ctx context.Context, kind Distribution, filter models.TripFilter, bucketSize float64) ([]models.Bucket, float64, error) {
	if !(bucketSize > 0) {
		bucketSize = kind.DefaultBucketSize()
	}

	var (
		buckets []models.Bucket
		err     error
	)
	switch kind {
	case DurationDistribution:
		buckets, err = s.statsRepo.GetDurationDistribution(ctx, filter, bucketSize)
	case DistanceDistribution:
		buckets, err = s.statsRepo.GetDistanceDistribution(ctx, filter, bucketSize)
	case SpeedDistribution:
		buckets, err = s.statsRepo.GetSpeedDistribution(ctx, filter, bucketSize)
	default:
		return nil, 0, fmt.Errorf("unknown distribution %q", kind)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get %s distribution: %w", kind, err)
	}

	return buckets, bucketSize, nil
}
