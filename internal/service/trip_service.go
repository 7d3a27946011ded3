package service

import (
	"context"
	"fmt"

	"github.com/jengzang/taxi-trips-backend-go/internal/models"
	"github.com/jengzang/taxi-trips-backend-go/internal/repository"
)

// TripService handles business logic for trips
type TripService struct {
	repo *repository.TripRepository
}

// NewTripService creates a new trip service
func NewTripService(repo *repository.TripRepository) *TripService {
	return &TripService{repo: repo}
}

// ListTrips returns one page of filtered trips together with the total
// number of matches
func (s *TripService) ListTrips(ctx context.Context, filter models.TripFilter, opts models.ListOptions) (*models.TripsPage, error) {
	page, limit := repository.NormalizePage(opts.Page, opts.Limit)

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count trips: %w", err)
	}

	trips, err := s.repo.FindAll(ctx, filter, page, limit, opts.SortBy, opts.SortOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}

	return &models.TripsPage{
		Data: trips,
		Pagination: models.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: int((total + int64(limit) - 1) / int64(limit)),
		},
	}, nil
}

// GetTripByID retrieves a single trip by ID; nil when absent
func (s *TripService) GetTripByID(ctx context.Context, id string) (*models.Trip, error) {
	return s.repo.FindByID(ctx, id)
}

// CountTrips returns the number of stored trips matching filter
func (s *TripService) CountTrips(ctx context.Context, filter models.TripFilter) (int64, error) {
	return s.repo.Count(ctx, filter)
}

// ClearTrips deletes every stored trip
func (s *TripService) ClearTrips(ctx context.Context) (int64, error) {
	deleted, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to clear trips: %w", err)
	}
	return deleted, nil
}
