package services

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	apperrors "vendtune/internal/errors"
	"vendtune/internal/infrastructure"
	"vendtune/internal/store"
	"vendtune/internal/vending"
)

// DashboardSnapshot is one complete dashboard computation: the normalized
// rows, the derived summary, and the onboarding flag for empty accounts.
type DashboardSnapshot struct {
	Rows           []vending.NormalizedRow  `json:"rows"`
	Summary        vending.DashboardSummary `json:"summary"`
	ShowOnboarding bool                     `json:"showOnboarding"`
}

// DashboardService computes dashboard snapshots from the full service set of
// a business. Every snapshot is recomputed from scratch.
type DashboardService struct {
	source  store.DataSource
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics
}

// NewDashboardService creates a dashboard service.
func NewDashboardService(source store.DataSource, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		source:  source,
		logger:  logger.With(slog.String("service", "dashboard")),
		metrics: metrics,
	}
}

// Snapshot fetches every service for the business and derives the dashboard
// metrics in a single aggregation pass.
func (s *DashboardService) Snapshot(ctx context.Context, businessID string) (DashboardSnapshot, error) {
	records, err := s.source.ListServices(ctx, businessID)
	if err != nil {
		s.logger.ErrorContext(ctx, "service fetch failed",
			slog.String("business_id", businessID),
			slog.String("error", err.Error()))
		return DashboardSnapshot{}, apperrors.NewFetchError("loading services", err)
	}

	start := time.Now()
	rows := vending.NormalizeAll(records)
	summary := vending.Aggregate(records)
	elapsed := time.Since(start)

	if s.metrics != nil {
		attrs := metric.WithAttributes(attribute.Int("record_count", len(records)))
		s.metrics.AggregationRuns.Add(ctx, 1, attrs)
		s.metrics.AggregationDuration.Record(ctx, elapsed.Seconds(), attrs)
	}

	s.logger.InfoContext(ctx, "dashboard aggregated",
		slog.String("business_id", businessID),
		slog.Int("records", len(records)),
		slog.Duration("duration", elapsed))

	return DashboardSnapshot{
		Rows:           rows,
		Summary:        summary,
		ShowOnboarding: summary.IsEmpty(),
	}, nil
}
