package services

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "vendtune/internal/errors"
	"vendtune/internal/store"
	"vendtune/internal/vending"
)

// CollectionsSnapshot holds the service table state: past and present rows
// plus the plottable locations for the map view.
type CollectionsSnapshot struct {
	Past      []vending.NormalizedRow   `json:"past"`
	Present   []vending.NormalizedRow   `json:"present"`
	Locations []vending.ServiceLocation `json:"locations"`
}

// CollectionsService assembles partitioned service collections. The service
// list and the location list are independent queries and are fetched
// concurrently.
type CollectionsService struct {
	source store.DataSource
	logger *slog.Logger
	now    func() time.Time
}

// NewCollectionsService creates a collections service.
func NewCollectionsService(source store.DataSource, logger *slog.Logger) *CollectionsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CollectionsService{
		source: source,
		logger: logger.With(slog.String("service", "collections")),
		now:    time.Now,
	}
}

// Snapshot fetches the full service set and the plottable locations, then
// partitions the services into past and present relative to the fetch moment.
func (s *CollectionsService) Snapshot(ctx context.Context, businessID string) (CollectionsSnapshot, error) {
	var (
		records   []vending.ServiceRecord
		locations []vending.ServiceLocation
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = s.source.ListServices(gctx, businessID)
		return err
	})
	g.Go(func() error {
		var err error
		locations, err = s.source.ListServiceLocations(gctx, businessID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "collections fetch failed",
			slog.String("business_id", businessID),
			slog.String("error", err.Error()))
		return CollectionsSnapshot{}, apperrors.NewFetchError("loading service collections", err)
	}

	split := vending.Partition(records, s.now())

	return CollectionsSnapshot{
		Past:      vending.NormalizeAll(split.Past),
		Present:   vending.NormalizeAll(split.Present),
		Locations: locations,
	}, nil
}
