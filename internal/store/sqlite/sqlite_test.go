package sqlite

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendtune/internal/session"
	"vendtune/internal/store"
	"vendtune/internal/vending"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := Open(filepath.Join(t.TempDir(), "vendtune.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedAccount(t *testing.T, s *Store, id, name string) {
	t.Helper()
	err := s.CreateAccount(context.Background(), session.Account{
		BusinessID:    id,
		BusinessName:  name,
		BusinessEmail: id + "@example.com",
		PasswordHash:  "hash",
		CreatedAt:     time.Now(),
	})
	require.NoError(t, err)
}

func mustDate(t *testing.T, s string) vending.Date {
	t.Helper()
	d, err := vending.ParseDate(s)
	require.NoError(t, err)
	return d
}

func mustTime(t *testing.T, s string) vending.TimeOfDay {
	t.Helper()
	tod, err := vending.ParseTimeOfDay(s)
	require.NoError(t, err)
	return tod
}

func TestAccountRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	seedAccount(t, s, "biz-1", "Halal Cart Co")

	account, err := s.AccountByEmail(ctx, "biz-1@example.com")
	require.NoError(t, err)
	assert.Equal(t, "biz-1", account.BusinessID)
	assert.Equal(t, "Halal Cart Co", account.BusinessName)

	_, err = s.AccountByEmail(ctx, "nobody@example.com")
	assert.Error(t, err)
}

func TestCreateAndListServices(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	seedAccount(t, s, "biz-1", "Halal Cart Co")

	created, err := s.CreateService(ctx, "biz-1", store.ServiceDraft{
		Unit: "Cart 7",
		Vendors: []vending.VendorRef{
			{Vendor: "v-1", VendorName: "Ada"},
			{Vendor: "v-2", VendorName: "Grace"},
		},
		Date:      mustDate(t, "2024-05-01"),
		StartTime: mustTime(t, "09:00:00"),
		EndTime:   mustTime(t, "17:00:00"),
		Address:   "5th Ave & 42nd St",
		Coords:    "POINT (-73.98 40.75)",
		Revenue:   320.5,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ServiceID)
	assert.Equal(t, "Halal Cart Co", created.Business)
	require.Len(t, created.ServiceVendors, 2)
	assert.Equal(t, "Ada", created.ServiceVendors[0].VendorName)

	records, err := s.ListServices(ctx, "biz-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, created.ServiceID, records[0].ServiceID)
	assert.Equal(t, "2024-05-01", records[0].ServiceDate.String())
	assert.Equal(t, 320.5, records[0].Revenue)
}

func TestListServicesScopedByBusiness(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	seedAccount(t, s, "biz-1", "First")
	seedAccount(t, s, "biz-2", "Second")

	_, err := s.CreateService(ctx, "biz-1", store.ServiceDraft{
		Unit: "Cart 1", Date: mustDate(t, "2024-05-01"),
	})
	require.NoError(t, err)

	records, err := s.ListServices(ctx, "biz-2")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestListServicesWindow(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	seedAccount(t, s, "biz-1", "Cart Co")

	today := time.Now()
	day := func(offset int) string { return today.AddDate(0, 0, offset).Format("2006-01-02") }

	for unit, offset := range map[string]int{
		"RecentPast": -3, "DistantPast": -45, "SoonUpcoming": 3, "FarUpcoming": 45,
	} {
		_, err := s.CreateService(ctx, "biz-1", store.ServiceDraft{Unit: unit, Date: mustDate(t, day(offset))})
		require.NoError(t, err)
	}

	past, err := s.ListServicesWindow(ctx, "biz-1", -30)
	require.NoError(t, err)
	require.Len(t, past, 1)
	assert.Equal(t, "RecentPast", past[0].Unit)

	upcoming, err := s.ListServicesWindow(ctx, "biz-1", 30)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, "SoonUpcoming", upcoming[0].Unit)

	all, err := s.ListServicesWindow(ctx, "biz-1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestListServicesWindowPastIsNewestFirst(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	seedAccount(t, s, "biz-1", "Cart Co")

	today := time.Now()
	for unit, offset := range map[string]int{"Yesterday": -1, "LastWeek": -7} {
		_, err := s.CreateService(ctx, "biz-1", store.ServiceDraft{
			Unit: unit, Date: mustDate(t, today.AddDate(0, 0, offset).Format("2006-01-02")),
		})
		require.NoError(t, err)
	}

	past, err := s.ListServicesWindow(ctx, "biz-1", -30)
	require.NoError(t, err)
	require.Len(t, past, 2)
	assert.Equal(t, "Yesterday", past[0].Unit)
	assert.Equal(t, "LastWeek", past[1].Unit)
}

func TestListServiceLocationsSkipsMalformedGeometry(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	seedAccount(t, s, "biz-1", "Cart Co")

	_, err := s.CreateService(ctx, "biz-1", store.ServiceDraft{
		Unit: "Mapped", Date: mustDate(t, "2024-05-01"),
		Coords: "POINT (-73.98 40.75)",
	})
	require.NoError(t, err)
	_, err = s.CreateService(ctx, "biz-1", store.ServiceDraft{
		Unit: "Unmapped", Date: mustDate(t, "2024-05-02"),
		Coords: "not a point",
	})
	require.NoError(t, err)

	locations, err := s.ListServiceLocations(ctx, "biz-1")
	require.NoError(t, err)
	require.Len(t, locations, 1)
	assert.Equal(t, "Mapped", locations[0].Unit)
	assert.Equal(t, 40.75, locations[0].Lat)
	assert.Equal(t, -73.98, locations[0].Lng)
}

func TestUpdateServicePartialPatch(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	seedAccount(t, s, "biz-1", "Cart Co")

	created, err := s.CreateService(ctx, "biz-1", store.ServiceDraft{
		Unit:    "Cart 1",
		Vendors: []vending.VendorRef{{Vendor: "v-1", VendorName: "Ada"}},
		Date:    mustDate(t, "2024-05-01"),
		Address: "Old Address",
		Revenue: 100,
	})
	require.NoError(t, err)

	newUnit := "Cart 2"
	newRevenue := 250.0
	updated, err := s.UpdateService(ctx, "biz-1", created.ServiceID, store.ServicePatch{
		Unit:    &newUnit,
		Revenue: &newRevenue,
	})
	require.NoError(t, err)

	assert.Equal(t, "Cart 2", updated.Unit)
	assert.Equal(t, 250.0, updated.Revenue)
	// Untouched fields survive the patch.
	assert.Equal(t, "Old Address", updated.LocationAddress)
	require.Len(t, updated.ServiceVendors, 1)
	assert.Equal(t, "Ada", updated.ServiceVendors[0].VendorName)
}

func TestUpdateServiceReplacesVendors(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	seedAccount(t, s, "biz-1", "Cart Co")

	created, err := s.CreateService(ctx, "biz-1", store.ServiceDraft{
		Unit: "Cart 1",
		Vendors: []vending.VendorRef{
			{Vendor: "v-1", VendorName: "Ada"},
			{Vendor: "v-2", VendorName: "Grace"},
		},
		Date: mustDate(t, "2024-05-01"),
	})
	require.NoError(t, err)

	replacement := []vending.VendorRef{{Vendor: "v-3", VendorName: "Edsger"}}
	updated, err := s.UpdateService(ctx, "biz-1", created.ServiceID, store.ServicePatch{
		Vendors: &replacement,
	})
	require.NoError(t, err)

	require.Len(t, updated.ServiceVendors, 1)
	assert.Equal(t, "v-3", updated.ServiceVendors[0].Vendor)
}

func TestUpdateServiceNotFound(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	seedAccount(t, s, "biz-1", "Cart Co")

	unit := "Cart 1"
	_, err := s.UpdateService(ctx, "biz-1", "missing", store.ServicePatch{Unit: &unit})
	assert.ErrorIs(t, err, store.ErrServiceNotFound)
}

func TestDeleteService(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	seedAccount(t, s, "biz-1", "Cart Co")

	created, err := s.CreateService(ctx, "biz-1", store.ServiceDraft{
		Unit: "Cart 1", Date: mustDate(t, "2024-05-01"),
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteService(ctx, "biz-1", created.ServiceID))

	records, err := s.ListServices(ctx, "biz-1")
	require.NoError(t, err)
	assert.Empty(t, records)

	err = s.DeleteService(ctx, "biz-1", created.ServiceID)
	assert.ErrorIs(t, err, store.ErrServiceNotFound)
}

func TestDeleteServiceWrongBusiness(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	seedAccount(t, s, "biz-1", "First")
	seedAccount(t, s, "biz-2", "Second")

	created, err := s.CreateService(ctx, "biz-1", store.ServiceDraft{
		Unit: "Cart 1", Date: mustDate(t, "2024-05-01"),
	})
	require.NoError(t, err)

	err = s.DeleteService(ctx, "biz-2", created.ServiceID)
	assert.ErrorIs(t, err, store.ErrServiceNotFound)
}

func TestDeleteServiceRemovesVendorsOnPooledConnection(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	seedAccount(t, s, "biz-1", "Cart Co")

	created, err := s.CreateService(ctx, "biz-1", store.ServiceDraft{
		Unit: "Cart 1",
		Vendors: []vending.VendorRef{
			{Vendor: "v-1", VendorName: "Ada"},
			{Vendor: "v-2", VendorName: "Grace"},
		},
		Date: mustDate(t, "2024-05-01"),
	})
	require.NoError(t, err)

	// Pin the connection that served the inserts so the delete is forced
	// onto a different pooled connection.
	pinned, err := s.db.Conn(ctx)
	require.NoError(t, err)
	defer pinned.Close()

	require.NoError(t, s.DeleteService(ctx, "biz-1", created.ServiceID))

	var orphans int
	require.NoError(t, s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM service_vendors WHERE service_id = ?",
		created.ServiceID).Scan(&orphans))
	assert.Equal(t, 0, orphans)
}

func TestForeignKeysEnforcedOnEveryConnection(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	first, err := s.db.Conn(ctx)
	require.NoError(t, err)
	defer first.Close()
	second, err := s.db.Conn(ctx)
	require.NoError(t, err)
	defer second.Close()

	for _, conn := range []*sql.Conn{first, second} {
		var enforced int
		require.NoError(t, conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&enforced))
		assert.Equal(t, 1, enforced)
	}
}
