package exporter

import (
	"bytes"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"vendtune/internal/services"
	"vendtune/internal/vending"
)

func testSnapshot() services.DashboardSnapshot {
	return services.DashboardSnapshot{
		Rows: []vending.NormalizedRow{{ID: 1, Unit: "Cart A"}},
		Summary: vending.DashboardSummary{
			TotalRevenue:                 420.5,
			BestUnit:                     "Cart A",
			BestVendor:                   "v-1",
			MostProfitableLocation:       "5th Ave",
			MostProfitableLocationCoords: []float64{40.75, -73.98},
			RevenueData: []vending.RevenuePoint{
				{Date: "2024-05-01", Revenue: 320.5},
				{Date: "2024-05-01", Revenue: 100},
			},
		},
	}
}

func TestWriteWorkbook(t *testing.T) {
	e := NewDashboardExporter(slog.New(slog.NewTextHandler(io.Discard, nil)))

	var buf bytes.Buffer
	require.NoError(t, e.WriteWorkbook(&buf, testSnapshot()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Summary", "Revenue"}, f.GetSheetList())

	total, err := f.GetCellValue("Summary", "B2")
	require.NoError(t, err)
	assert.Equal(t, "420.5", total)

	unit, err := f.GetCellValue("Summary", "B3")
	require.NoError(t, err)
	assert.Equal(t, "Cart A", unit)

	// Duplicate revenue dates survive into the series sheet.
	rows, err := f.GetRows("Revenue")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Date", "Revenue"}, rows[0])
	assert.Equal(t, "2024-05-01", rows[1][0])
	assert.Equal(t, "2024-05-01", rows[2][0])
}

func TestSaveWorkbook(t *testing.T) {
	e := NewDashboardExporter(slog.New(slog.NewTextHandler(io.Discard, nil)))

	path := filepath.Join(t.TempDir(), "reports", "dashboard.xlsx")
	require.NoError(t, e.SaveWorkbook(path, testSnapshot()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	coords, err := f.GetCellValue("Summary", "B6")
	require.NoError(t, err)
	assert.Equal(t, "40.75, -73.98", coords)
}
