package vending

import (
	"encoding/json"
	"fmt"
	"time"
)

// Date is a civil calendar date with no time-of-day or zone component.
// It marshals as "YYYY-MM-DD". The zero value is treated as "not set".
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a date in YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// String returns the canonical YYYY-MM-DD form, or "" for the zero value.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Display returns the row form "<short-weekday> <DD>/<MM>/<YYYY>",
// rendered from the record's own calendar date with no zone shift.
func (d Date) Display() string {
	if d.IsZero() {
		return ""
	}
	return d.at(0, 0, 0).Format("Mon 02/01/2006")
}

func (d Date) at(hour, min, sec int) time.Time {
	return time.Date(d.Year, d.Month, d.Day, hour, min, sec, 0, time.Local)
}

// MarshalJSON renders the date as a JSON string.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts a YYYY-MM-DD string, or null/"" for the zero value.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// TimeOfDay is a wall-clock time with second precision, marshaled as
// "HH:MM:SS".
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// ParseTimeOfDay parses a time in HH:MM:SS form.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
}

// String returns the canonical HH:MM:SS form.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// MarshalJSON renders the time as a JSON string.
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts an HH:MM:SS string, or null/"" for midnight.
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*t = TimeOfDay{}
		return nil
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// VendorRef links a service to one authorized vendor.
type VendorRef struct {
	Vendor     string `json:"vendor"`
	VendorName string `json:"vendor_name"`
}

// ServiceRecord is a raw scheduled service as received from the data-access
// boundary. ServiceID is immutable once created. Revenue is signed; the sign
// carries no business meaning and only the magnitude is used downstream.
type ServiceRecord struct {
	ServiceID        string      `json:"service_id"`
	Business         string      `json:"business"`
	Unit             string      `json:"unit"`
	ServiceVendors   []VendorRef `json:"service_vendors"`
	ServiceDate      Date        `json:"service_date"`
	ServiceStartTime TimeOfDay   `json:"service_start_time"`
	ServiceEndTime   TimeOfDay   `json:"service_end_time"`
	LocationAddress  string      `json:"location_address"`
	LocationCoords   string      `json:"location_coords"`
	Revenue          float64     `json:"revenue"`
}

// EndsAt returns the instant the service window closes, in local time.
func (r ServiceRecord) EndsAt() time.Time {
	return r.ServiceDate.at(r.ServiceEndTime.Hour, r.ServiceEndTime.Minute, r.ServiceEndTime.Second)
}

// NormalizedRow is a ServiceRecord projected into display form. Rows are
// immutable once produced; one row exists per record, in input order.
type NormalizedRow struct {
	ID        int      `json:"id"`
	Business  string   `json:"business"`
	Date      string   `json:"date"`
	Time      string   `json:"time"`
	Unit      string   `json:"unit"`
	Vendors   string   `json:"vendors"`
	Address   string   `json:"address"`
	ServiceID string   `json:"service_id"`
	Location  string   `json:"location"`
	VendorsID []string `json:"vendors_id"`
	Revenue   float64  `json:"revenue"`
}

// RevenuePoint is one entry of the revenue-over-time series. Date is the raw
// service date, not the display-formatted row date.
type RevenuePoint struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
}

// DashboardSummary holds the derived dashboard metrics for one batch of
// records. It is recomputed from scratch on every aggregation run, never
// updated incrementally. A zero TotalRevenue with empty best fields is the
// signal that no services exist yet.
type DashboardSummary struct {
	TotalRevenue                 float64        `json:"totalRevenue"`
	BestUnit                     string         `json:"bestUnit"`
	BestVendor                   string         `json:"bestVendor"`
	MostProfitableLocation       string         `json:"mostProfitableLocation"`
	MostProfitableLocationCoords []float64      `json:"mostProfitableLocationCoords"`
	RevenueData                  []RevenuePoint `json:"revenueData"`
}

// IsEmpty reports whether the summary came from an empty record set.
func (s DashboardSummary) IsEmpty() bool {
	return s.TotalRevenue == 0 && s.BestUnit == "" && s.BestVendor == ""
}

// Collections holds one snapshot of services partitioned relative to a
// moment in time. A record belongs to exactly one side at partition time.
type Collections struct {
	Past    []ServiceRecord `json:"past"`
	Present []ServiceRecord `json:"present"`
}

// ServiceLocation is a plottable service position for the map view.
type ServiceLocation struct {
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Unit string  `json:"businessUnit"`
}
