package vending

import (
	"math"
	"strings"
)

// Normalize projects one raw ServiceRecord into its display row. index is the
// zero-based position of the record in its batch; row IDs start at 1.
//
// The revenue sign is discarded here permanently, not just for display:
// upstream convention stores some figures negative and only the magnitude is
// meaningful. Absent optional fields come out as empty strings or empty
// lists; missing fields are never an error.
func Normalize(rec ServiceRecord, index int) NormalizedRow {
	names := make([]string, 0, len(rec.ServiceVendors))
	ids := make([]string, 0, len(rec.ServiceVendors))
	for _, v := range rec.ServiceVendors {
		names = append(names, v.VendorName)
		ids = append(ids, v.Vendor)
	}

	return NormalizedRow{
		ID:        index + 1,
		Business:  rec.Business,
		Date:      rec.ServiceDate.Display(),
		Time:      rec.ServiceStartTime.String() + " - " + rec.ServiceEndTime.String(),
		Unit:      rec.Unit,
		Vendors:   strings.Join(names, ", "),
		Address:   rec.LocationAddress,
		ServiceID: rec.ServiceID,
		Location:  rec.LocationCoords,
		VendorsID: ids,
		Revenue:   math.Abs(rec.Revenue),
	}
}

// NormalizeAll projects a batch of records, preserving input order.
func NormalizeAll(records []ServiceRecord) []NormalizedRow {
	rows := make([]NormalizedRow, 0, len(records))
	for i, rec := range records {
		rows = append(rows, Normalize(rec, i))
	}
	return rows
}

// SplitTimeRange splits a row's "<start> - <end>" time string back into its
// start and end components. The split is lossless for values produced by
// Normalize. ok is false when the string is not a two-sided range.
func SplitTimeRange(s string) (start, end string, ok bool) {
	start, end, ok = strings.Cut(s, " - ")
	return start, end, ok
}
