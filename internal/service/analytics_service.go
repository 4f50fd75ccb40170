package service

import (
	"context"
	"time"

	"airline-reservation/internal/models"
	"airline-reservation/internal/reservation"
	"airline-reservation/internal/util"
)

// AnalyticsService exposes reservation statistics
type AnalyticsService struct {
	store *reservation.Store
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(store *reservation.Store) *AnalyticsService {
	return &AnalyticsService{store: store}
}

// Statistics computes statistics for period on the caller's goroutine. A
// zero period covers every reservation.
func (s *AnalyticsService) Statistics(ctx context.Context, period models.Period) (models.Statistics, error) {
	ctx, span := util.StartSpan(ctx, "AnalyticsService.Statistics")
	defer span.End()

	start := time.Now()
	stats, err := s.store.StatisticsFor(ctx, period)
	observe(span, "statistics", start, err)
	return stats, err
}

// StatisticsAsync computes statistics in the background. The channel yields
// one result and is closed.
func (s *AnalyticsService) StatisticsAsync(ctx context.Context, period models.Period) <-chan reservation.StatisticsResult {
	return s.store.SubmitStatistics(ctx, period)
}
