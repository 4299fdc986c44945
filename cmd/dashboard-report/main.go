// Command dashboard-report renders the dashboard workbook for one business
// directly from the record store, without going through the HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"vendtune/internal/exporter"
	"vendtune/internal/services"
	"vendtune/internal/store/sqlite"
)

func main() {
	dbPath := flag.String("db", "data/vendtune.db", "path to the record store")
	email := flag.String("business", "", "business email to report on (required)")
	outputDir := flag.String("out", "data/reports", "output directory for the workbook")
	flag.Parse()

	if *email == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger := slog.Default()

	st, err := sqlite.Open(*dbPath, logger)
	if err != nil {
		slog.Error("Failed to open record store", "error", err, "path", *dbPath)
		os.Exit(1)
	}
	defer st.Close()

	ctx := context.Background()

	account, err := st.AccountByEmail(ctx, *email)
	if err != nil {
		slog.Error("Failed to look up business", "error", err, "email", *email)
		os.Exit(1)
	}

	dashboard := services.NewDashboardService(st, nil, logger)
	snapshot, err := dashboard.Snapshot(ctx, account.BusinessID)
	if err != nil {
		slog.Error("Failed to build dashboard snapshot", "error", err)
		os.Exit(1)
	}
	slog.Info("Dashboard snapshot built",
		"business", account.BusinessName,
		"services", len(snapshot.Rows),
		"total_revenue", snapshot.Summary.TotalRevenue)

	timestamp := time.Now().Format("20060102")
	outputPath := filepath.Join(*outputDir, fmt.Sprintf("dashboard_%s.xlsx", timestamp))

	if err := exporter.NewDashboardExporter(logger).SaveWorkbook(outputPath, snapshot); err != nil {
		slog.Error("Failed to save workbook", "error", err)
		os.Exit(1)
	}

	slog.Info("Dashboard report generated successfully",
		"report", outputPath,
		"revenue_points", len(snapshot.Summary.RevenueData))
}
