package vending

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(unit string, revenue float64) ServiceRecord {
	return ServiceRecord{
		ServiceID:       "svc-" + unit,
		Unit:            unit,
		ServiceVendors:  []VendorRef{{Vendor: "v-" + unit, VendorName: "Vendor " + unit}},
		ServiceDate:     Date{Year: 2024, Month: 5, Day: 10},
		LocationAddress: unit + " Street",
		LocationCoords:  "POINT (-74.0060 40.7128)",
		Revenue:         revenue,
	}
}

func TestAggregateTotalRevenue(t *testing.T) {
	records := []ServiceRecord{
		record("A", -50),
		record("B", 120.5),
		record("C", 30),
	}

	summary := Aggregate(records)

	want := 0.0
	for _, r := range records {
		want += math.Abs(r.Revenue)
	}
	assert.Equal(t, want, summary.TotalRevenue)
	assert.Len(t, summary.RevenueData, len(records))
}

func TestAggregateBestFields(t *testing.T) {
	records := []ServiceRecord{
		record("A", 40),
		record("B", 200),
		record("C", 75),
	}

	summary := Aggregate(records)

	assert.Equal(t, "B", summary.BestUnit)
	assert.Equal(t, "v-B", summary.BestVendor)
	assert.Equal(t, "B Street", summary.MostProfitableLocation)
	assert.Equal(t, []float64{40.7128, -74.0060}, summary.MostProfitableLocationCoords)
}

// Two records share the maximum; the first encountered must win because the
// comparison is strict.
func TestAggregateTieBreakFirstWins(t *testing.T) {
	records := []ServiceRecord{
		record("A", -50),
		record("B", 100),
		record("C", 100),
	}

	summary := Aggregate(records)

	assert.Equal(t, 250.0, summary.TotalRevenue)
	assert.Equal(t, "B", summary.BestUnit)
	assert.Equal(t, "v-B", summary.BestVendor)
	assert.Equal(t, "B Street", summary.MostProfitableLocation)
}

// Negative revenue competes by magnitude; sign is discarded.
func TestAggregateNegativeRevenueWinsByMagnitude(t *testing.T) {
	records := []ServiceRecord{
		record("A", 80),
		record("B", -150),
	}

	summary := Aggregate(records)

	assert.Equal(t, 230.0, summary.TotalRevenue)
	assert.Equal(t, "B", summary.BestUnit)
}

func TestAggregateEmptyInput(t *testing.T) {
	summary := Aggregate(nil)

	assert.Zero(t, summary.TotalRevenue)
	assert.Empty(t, summary.BestUnit)
	assert.Empty(t, summary.BestVendor)
	assert.Empty(t, summary.MostProfitableLocation)
	assert.Empty(t, summary.MostProfitableLocationCoords)
	assert.Empty(t, summary.RevenueData)
	assert.True(t, summary.IsEmpty())
}

func TestAggregateRevenueDataUsesRawDates(t *testing.T) {
	rec := record("A", 90)
	rec.ServiceDate = Date{Year: 2024, Month: 5, Day: 3}

	summary := Aggregate([]ServiceRecord{rec})

	require.Len(t, summary.RevenueData, 1)
	assert.Equal(t, "2024-05-03", summary.RevenueData[0].Date)
	assert.Equal(t, 90.0, summary.RevenueData[0].Revenue)
}

// Duplicate dates are kept as-is: the series mirrors input order without
// deduplication or sorting.
func TestAggregateRevenueDataKeepsDuplicates(t *testing.T) {
	records := []ServiceRecord{
		record("A", 10),
		record("B", 20),
	}
	records[1].ServiceDate = records[0].ServiceDate

	summary := Aggregate(records)

	require.Len(t, summary.RevenueData, 2)
	assert.Equal(t, summary.RevenueData[0].Date, summary.RevenueData[1].Date)
	assert.Equal(t, 10.0, summary.RevenueData[0].Revenue)
	assert.Equal(t, 20.0, summary.RevenueData[1].Revenue)
}

func TestAggregateBestWithUnparsableCoords(t *testing.T) {
	rec := record("A", 100)
	rec.LocationCoords = "POINT (abc def)"

	summary := Aggregate([]ServiceRecord{rec})

	assert.Equal(t, "A", summary.BestUnit)
	assert.Equal(t, []float64{}, summary.MostProfitableLocationCoords)
}

func TestAggregateBestWithNoVendors(t *testing.T) {
	rec := record("A", 100)
	rec.ServiceVendors = nil

	summary := Aggregate([]ServiceRecord{rec})

	assert.Equal(t, "A", summary.BestUnit)
	assert.Empty(t, summary.BestVendor)
}
