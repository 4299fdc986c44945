// Package store defines the persistence boundary for scheduled services.
// Callers depend on DataSource; concrete backends live in subpackages.
package store

import (
	"context"
	"errors"

	"vendtune/internal/vending"
)

// ErrServiceNotFound is returned when a service ID does not exist for the
// requesting business.
var ErrServiceNotFound = errors.New("service not found")

// ServiceDraft is the payload for creating a new service. ServiceID is
// assigned by the store.
type ServiceDraft struct {
	Unit      string
	Vendors   []vending.VendorRef
	Date      vending.Date
	StartTime vending.TimeOfDay
	EndTime   vending.TimeOfDay
	Address   string
	Coords    string
	Revenue   float64
}

// ServicePatch carries the fields of an edit. Nil fields are left untouched;
// a non-nil Vendors replaces the vendor set wholesale.
type ServicePatch struct {
	Unit      *string
	Vendors   *[]vending.VendorRef
	Date      *vending.Date
	StartTime *vending.TimeOfDay
	EndTime   *vending.TimeOfDay
	Address   *string
	Coords    *string
	Revenue   *float64
}

// IsEmpty reports whether the patch changes nothing.
func (p ServicePatch) IsEmpty() bool {
	return p.Unit == nil && p.Vendors == nil && p.Date == nil &&
		p.StartTime == nil && p.EndTime == nil &&
		p.Address == nil && p.Coords == nil && p.Revenue == nil
}

// DataSource is the data-access boundary for one business's services. Every
// call is scoped by business ID; no operation crosses businesses.
type DataSource interface {
	// ListServices returns every service for the business, oldest date first.
	ListServices(ctx context.Context, businessID string) ([]vending.ServiceRecord, error)

	// ListServicesWindow filters by a day offset from today: negative selects
	// the elapsed window [today+days, today] newest first, positive the
	// upcoming window [today, today+days] oldest first, zero means no window.
	ListServicesWindow(ctx context.Context, businessID string, days int) ([]vending.ServiceRecord, error)

	// ListServiceLocations returns the plottable positions of services whose
	// stored geometry parses. Rows with malformed geometry are skipped.
	ListServiceLocations(ctx context.Context, businessID string) ([]vending.ServiceLocation, error)

	// CreateService persists a new service and returns it with its ID.
	CreateService(ctx context.Context, businessID string, draft ServiceDraft) (vending.ServiceRecord, error)

	// UpdateService applies a patch to an existing service. Returns
	// ErrServiceNotFound if the ID does not exist for this business.
	UpdateService(ctx context.Context, businessID, serviceID string, patch ServicePatch) (vending.ServiceRecord, error)

	// DeleteService removes a service. Returns ErrServiceNotFound if the ID
	// does not exist for this business.
	DeleteService(ctx context.Context, businessID, serviceID string) error
}
