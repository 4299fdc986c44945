package vending

import "math"

// Aggregate folds an ordered batch of raw records into a DashboardSummary in
// one linear pass. No sorting, no second pass.
//
// The running maximum is seeded at zero and the best fields move only on a
// strict improvement, so the first of tied maxima wins. BestVendor is the
// first vendor of the winning record even when it has several; that matches
// the upstream dashboard and is deliberate. RevenueData carries the raw
// service date (not the display form) and is neither deduplicated nor
// sorted.
//
// An empty batch yields the zero summary, which callers surface as an
// onboarding notice rather than an error.
func Aggregate(records []ServiceRecord) DashboardSummary {
	summary := DashboardSummary{
		MostProfitableLocationCoords: []float64{},
		RevenueData:                  make([]RevenuePoint, 0, len(records)),
	}

	maxRevenue := 0.0
	for _, rec := range records {
		revenue := math.Abs(rec.Revenue)
		summary.TotalRevenue += revenue
		summary.RevenueData = append(summary.RevenueData, RevenuePoint{
			Date:    rec.ServiceDate.String(),
			Revenue: revenue,
		})

		if revenue > maxRevenue {
			maxRevenue = revenue
			summary.BestUnit = rec.Unit
			summary.BestVendor = ""
			if len(rec.ServiceVendors) > 0 {
				summary.BestVendor = rec.ServiceVendors[0].Vendor
			}
			summary.MostProfitableLocation = rec.LocationAddress
			if ll, ok := ParsePoint(rec.LocationCoords); ok {
				summary.MostProfitableLocationCoords = ll.Pair()
			} else {
				summary.MostProfitableLocationCoords = []float64{}
			}
		}
	}

	return summary
}
