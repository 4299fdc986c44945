package http

import (
	"context"
	"io"

	"vendtune/internal/services"
)

// DashboardServiceInterface is the dashboard surface the handlers need.
type DashboardServiceInterface interface {
	Snapshot(ctx context.Context, businessID string) (services.DashboardSnapshot, error)
}

// CollectionsServiceInterface is the collections surface the handlers need.
type CollectionsServiceInterface interface {
	Snapshot(ctx context.Context, businessID string) (services.CollectionsSnapshot, error)
}

// DashboardExporterInterface writes a dashboard snapshot as a workbook.
type DashboardExporterInterface interface {
	WriteWorkbook(w io.Writer, snap services.DashboardSnapshot) error
}
