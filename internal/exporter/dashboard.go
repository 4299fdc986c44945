// Package exporter renders dashboard snapshots as Excel workbooks.
package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"vendtune/internal/services"
)

const (
	summarySheet = "Summary"
	revenueSheet = "Revenue"
)

// DashboardExporter writes dashboard snapshots as two-sheet workbooks: the
// derived metrics on one sheet, the revenue series on the other.
type DashboardExporter struct {
	logger *slog.Logger
}

// NewDashboardExporter creates a dashboard exporter.
func NewDashboardExporter(logger *slog.Logger) *DashboardExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardExporter{logger: logger.With(slog.String("component", "dashboard_exporter"))}
}

// WriteWorkbook renders the snapshot and streams the workbook to w.
func (e *DashboardExporter) WriteWorkbook(w io.Writer, snap services.DashboardSnapshot) error {
	f, err := e.build(snap)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// SaveWorkbook renders the snapshot to a file, creating parent directories.
func (e *DashboardExporter) SaveWorkbook(path string, snap services.DashboardSnapshot) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	f, err := e.build(snap)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}

	e.logger.Info("dashboard workbook saved",
		slog.String("path", path),
		slog.Int("revenue_points", len(snap.Summary.RevenueData)))
	return nil
}

func (e *DashboardExporter) build(snap services.DashboardSnapshot) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return nil, fmt.Errorf("naming summary sheet: %w", err)
	}

	summary := snap.Summary
	coords := ""
	if len(summary.MostProfitableLocationCoords) == 2 {
		coords = fmt.Sprintf("%v, %v",
			summary.MostProfitableLocationCoords[0], summary.MostProfitableLocationCoords[1])
	}

	summaryRows := [][]any{
		{"Metric", "Value"},
		{"Total Revenue", summary.TotalRevenue},
		{"Best Unit", summary.BestUnit},
		{"Best Vendor", summary.BestVendor},
		{"Most Profitable Location", summary.MostProfitableLocation},
		{"Location Coordinates", coords},
		{"Service Count", len(snap.Rows)},
	}
	for i, row := range summaryRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, fmt.Errorf("summary cell: %w", err)
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, fmt.Errorf("writing summary row: %w", err)
		}
	}

	if _, err := f.NewSheet(revenueSheet); err != nil {
		return nil, fmt.Errorf("creating revenue sheet: %w", err)
	}

	header := []any{"Date", "Revenue"}
	if err := f.SetSheetRow(revenueSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("writing revenue header: %w", err)
	}
	// Series order matches the aggregation input; duplicates stay duplicated.
	for i, point := range summary.RevenueData {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("revenue cell: %w", err)
		}
		row := []any{point.Date, point.Revenue}
		if err := f.SetSheetRow(revenueSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("writing revenue row: %w", err)
		}
	}

	return f, nil
}
