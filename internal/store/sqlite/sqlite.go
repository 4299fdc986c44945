// Package sqlite persists businesses and their scheduled services in a
// single SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"vendtune/internal/session"
	"vendtune/internal/store"
	"vendtune/internal/vending"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	business_id    TEXT PRIMARY KEY,
	business_name  TEXT NOT NULL,
	business_email TEXT NOT NULL UNIQUE,
	password_hash  TEXT NOT NULL,
	created_at     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS services (
	service_id       TEXT PRIMARY KEY,
	business_id      TEXT NOT NULL REFERENCES accounts(business_id) ON DELETE CASCADE,
	unit             TEXT NOT NULL,
	service_date     TEXT NOT NULL,
	start_time       TEXT NOT NULL,
	end_time         TEXT NOT NULL,
	location_address TEXT NOT NULL,
	location_coords  TEXT NOT NULL,
	revenue          REAL NOT NULL DEFAULT 0,
	created_at       DATETIME NOT NULL,
	updated_at       DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_services_business_date
	ON services(business_id, service_date);

CREATE TABLE IF NOT EXISTS service_vendors (
	service_id  TEXT NOT NULL REFERENCES services(service_id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	vendor_id   TEXT NOT NULL,
	vendor_name TEXT NOT NULL,
	PRIMARY KEY (service_id, position)
);
`

// Store is the SQLite-backed persistence layer. It implements both
// store.DataSource and session.AccountStore.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	path   string
}

var (
	_ store.DataSource     = (*Store)(nil)
	_ session.AccountStore = (*Store)(nil)
)

// Open opens (or creates) the database at path and applies the schema.
// WAL mode keeps readers unblocked during writes.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	// Pragmas go in the DSN so every pooled connection gets them; pragmas
	// issued with Exec only apply to whichever connection served the call.
	db, err := sql.Open("sqlite",
		path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &Store{
		db:     db,
		logger: logger.With(slog.String("component", "sqlite_store")),
		path:   path,
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// ==================== Account Store ====================

// CreateAccount stores a new business account.
func (s *Store) CreateAccount(ctx context.Context, account session.Account) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (business_id, business_name, business_email, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, account.BusinessID, account.BusinessName, account.BusinessEmail,
		account.PasswordHash, account.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("creating account: %w", err)
	}
	return nil
}

// AccountByEmail retrieves an account by its login email.
func (s *Store) AccountByEmail(ctx context.Context, email string) (session.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT business_id, business_name, business_email, password_hash, created_at
		FROM accounts WHERE business_email = ?
	`, email)

	var account session.Account
	var createdAt sql.NullTime
	if err := row.Scan(&account.BusinessID, &account.BusinessName,
		&account.BusinessEmail, &account.PasswordHash, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return session.Account{}, fmt.Errorf("account %s: %w", email, sql.ErrNoRows)
		}
		return session.Account{}, fmt.Errorf("scanning account: %w", err)
	}
	if createdAt.Valid {
		account.CreatedAt = createdAt.Time
	}
	return account, nil
}

// ==================== Data Source ====================

// window bounds a service listing by date. Zero value means no window.
type window struct {
	from, to string
	desc     bool
}

// ListServices returns every service for the business, oldest date first.
func (s *Store) ListServices(ctx context.Context, businessID string) ([]vending.ServiceRecord, error) {
	return s.listServices(ctx, businessID, window{})
}

// ListServicesWindow filters services by a day offset from today. A negative
// offset selects the elapsed window [today+days, today], newest first; a
// positive one the upcoming window [today, today+days], oldest first. Zero
// means no window.
func (s *Store) ListServicesWindow(ctx context.Context, businessID string, days int) ([]vending.ServiceRecord, error) {
	if days == 0 {
		return s.listServices(ctx, businessID, window{})
	}
	today := time.Now().Format("2006-01-02")
	limit := time.Now().AddDate(0, 0, days).Format("2006-01-02")
	if days < 0 {
		return s.listServices(ctx, businessID, window{from: limit, to: today, desc: true})
	}
	return s.listServices(ctx, businessID, window{from: today, to: limit})
}

func (s *Store) listServices(ctx context.Context, businessID string, w window) ([]vending.ServiceRecord, error) {
	query := `
		SELECT s.service_id, a.business_name, s.unit, s.service_date,
		       s.start_time, s.end_time, s.location_address, s.location_coords, s.revenue
		FROM services s
		JOIN accounts a ON a.business_id = s.business_id
		WHERE s.business_id = ?`
	args := []any{businessID}
	if w.from != "" {
		query += " AND s.service_date >= ? AND s.service_date <= ?"
		args = append(args, w.from, w.to)
	}
	if w.desc {
		query += " ORDER BY s.service_date DESC, s.start_time, s.service_id"
	} else {
		query += " ORDER BY s.service_date, s.start_time, s.service_id"
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying services: %w", err)
	}
	defer rows.Close()

	var records []vending.ServiceRecord
	for rows.Next() {
		rec, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating services: %w", err)
	}

	if err := s.attachVendors(ctx, businessID, records); err != nil {
		return nil, err
	}
	return records, nil
}

// ListServiceLocations returns the plottable positions of services whose
// stored geometry parses. Malformed geometry is skipped, not an error.
func (s *Store) ListServiceLocations(ctx context.Context, businessID string) ([]vending.ServiceLocation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT unit, location_coords
		FROM services
		WHERE business_id = ?
		ORDER BY service_date, start_time, service_id
	`, businessID)
	if err != nil {
		return nil, fmt.Errorf("querying service locations: %w", err)
	}
	defer rows.Close()

	var locations []vending.ServiceLocation
	for rows.Next() {
		var unit, coords string
		if err := rows.Scan(&unit, &coords); err != nil {
			return nil, fmt.Errorf("scanning service location: %w", err)
		}
		point, ok := vending.ParsePoint(coords)
		if !ok {
			continue
		}
		locations = append(locations, vending.ServiceLocation{
			Lat:  point.Lat,
			Lng:  point.Lon,
			Unit: unit,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating service locations: %w", err)
	}
	return locations, nil
}

// CreateService persists a new service and its vendor set.
func (s *Store) CreateService(ctx context.Context, businessID string, draft store.ServiceDraft) (vending.ServiceRecord, error) {
	serviceID := uuid.New().String()
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return vending.ServiceRecord{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO services
			(service_id, business_id, unit, service_date, start_time, end_time,
			 location_address, location_coords, revenue, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, serviceID, businessID, draft.Unit, draft.Date.String(),
		draft.StartTime.String(), draft.EndTime.String(),
		draft.Address, draft.Coords, draft.Revenue, now, now)
	if err != nil {
		return vending.ServiceRecord{}, fmt.Errorf("inserting service: %w", err)
	}

	if err := insertVendors(ctx, tx, serviceID, draft.Vendors); err != nil {
		return vending.ServiceRecord{}, err
	}

	if err := tx.Commit(); err != nil {
		return vending.ServiceRecord{}, fmt.Errorf("committing transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "service created",
		slog.String("service_id", serviceID),
		slog.String("business_id", businessID))

	return s.getService(ctx, businessID, serviceID)
}

// UpdateService applies a patch to an existing service. A non-nil vendor set
// in the patch replaces the stored vendors wholesale.
func (s *Store) UpdateService(ctx context.Context, businessID, serviceID string, patch store.ServicePatch) (vending.ServiceRecord, error) {
	current, err := s.getService(ctx, businessID, serviceID)
	if err != nil {
		return vending.ServiceRecord{}, err
	}

	if patch.Unit != nil {
		current.Unit = *patch.Unit
	}
	if patch.Date != nil {
		current.ServiceDate = *patch.Date
	}
	if patch.StartTime != nil {
		current.ServiceStartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		current.ServiceEndTime = *patch.EndTime
	}
	if patch.Address != nil {
		current.LocationAddress = *patch.Address
	}
	if patch.Coords != nil {
		current.LocationCoords = *patch.Coords
	}
	if patch.Revenue != nil {
		current.Revenue = *patch.Revenue
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return vending.ServiceRecord{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		UPDATE services SET
			unit = ?, service_date = ?, start_time = ?, end_time = ?,
			location_address = ?, location_coords = ?, revenue = ?, updated_at = ?
		WHERE service_id = ? AND business_id = ?
	`, current.Unit, current.ServiceDate.String(),
		current.ServiceStartTime.String(), current.ServiceEndTime.String(),
		current.LocationAddress, current.LocationCoords, current.Revenue,
		time.Now().UTC(), serviceID, businessID)
	if err != nil {
		return vending.ServiceRecord{}, fmt.Errorf("updating service: %w", err)
	}

	if patch.Vendors != nil {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM service_vendors WHERE service_id = ?", serviceID); err != nil {
			return vending.ServiceRecord{}, fmt.Errorf("clearing vendors: %w", err)
		}
		if err := insertVendors(ctx, tx, serviceID, *patch.Vendors); err != nil {
			return vending.ServiceRecord{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return vending.ServiceRecord{}, fmt.Errorf("committing transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "service updated",
		slog.String("service_id", serviceID),
		slog.String("business_id", businessID))

	return s.getService(ctx, businessID, serviceID)
}

// DeleteService removes a service and its vendor links. The links are
// deleted explicitly rather than left to the cascade.
func (s *Store) DeleteService(ctx context.Context, businessID, serviceID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		"DELETE FROM services WHERE service_id = ? AND business_id = ?",
		serviceID, businessID)
	if err != nil {
		return fmt.Errorf("deleting service: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return store.ErrServiceNotFound
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM service_vendors WHERE service_id = ?", serviceID); err != nil {
		return fmt.Errorf("deleting service vendors: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "service deleted",
		slog.String("service_id", serviceID),
		slog.String("business_id", businessID))
	return nil
}

// ==================== Helpers ====================

func (s *Store) getService(ctx context.Context, businessID, serviceID string) (vending.ServiceRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT s.service_id, a.business_name, s.unit, s.service_date,
		       s.start_time, s.end_time, s.location_address, s.location_coords, s.revenue
		FROM services s
		JOIN accounts a ON a.business_id = s.business_id
		WHERE s.service_id = ? AND s.business_id = ?
	`, serviceID, businessID)

	rec, err := scanService(row)
	if err != nil {
		return vending.ServiceRecord{}, err
	}

	records := []vending.ServiceRecord{rec}
	if err := s.attachVendors(ctx, businessID, records); err != nil {
		return vending.ServiceRecord{}, err
	}
	return records[0], nil
}

// attachVendors loads the vendor sets for a batch of records in one query.
func (s *Store) attachVendors(ctx context.Context, businessID string, records []vending.ServiceRecord) error {
	if len(records) == 0 {
		return nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT v.service_id, v.vendor_id, v.vendor_name
		FROM service_vendors v
		JOIN services s ON s.service_id = v.service_id
		WHERE s.business_id = ?
		ORDER BY v.service_id, v.position
	`, businessID)
	if err != nil {
		return fmt.Errorf("querying vendors: %w", err)
	}
	defer rows.Close()

	vendorsByService := make(map[string][]vending.VendorRef)
	for rows.Next() {
		var serviceID string
		var ref vending.VendorRef
		if err := rows.Scan(&serviceID, &ref.Vendor, &ref.VendorName); err != nil {
			return fmt.Errorf("scanning vendor: %w", err)
		}
		vendorsByService[serviceID] = append(vendorsByService[serviceID], ref)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating vendors: %w", err)
	}

	for i := range records {
		records[i].ServiceVendors = vendorsByService[records[i].ServiceID]
	}
	return nil
}

func insertVendors(ctx context.Context, tx *sql.Tx, serviceID string, vendors []vending.VendorRef) error {
	for i, ref := range vendors {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO service_vendors (service_id, position, vendor_id, vendor_name)
			VALUES (?, ?, ?, ?)
		`, serviceID, i, ref.Vendor, ref.VendorName); err != nil {
			return fmt.Errorf("inserting vendor: %w", err)
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanService(row scanner) (vending.ServiceRecord, error) {
	var rec vending.ServiceRecord
	var date, start, end string
	err := row.Scan(&rec.ServiceID, &rec.Business, &rec.Unit, &date,
		&start, &end, &rec.LocationAddress, &rec.LocationCoords, &rec.Revenue)
	if err != nil {
		if err == sql.ErrNoRows {
			return vending.ServiceRecord{}, store.ErrServiceNotFound
		}
		return vending.ServiceRecord{}, fmt.Errorf("scanning service: %w", err)
	}

	if rec.ServiceDate, err = parseDate(date); err != nil {
		return vending.ServiceRecord{}, err
	}
	if rec.ServiceStartTime, err = parseTime(start); err != nil {
		return vending.ServiceRecord{}, err
	}
	if rec.ServiceEndTime, err = parseTime(end); err != nil {
		return vending.ServiceRecord{}, err
	}
	return rec, nil
}

// parseDate tolerates the empty string, which marks an unset date.
func parseDate(s string) (vending.Date, error) {
	if strings.TrimSpace(s) == "" {
		return vending.Date{}, nil
	}
	return vending.ParseDate(s)
}

func parseTime(s string) (vending.TimeOfDay, error) {
	if strings.TrimSpace(s) == "" {
		return vending.TimeOfDay{}, nil
	}
	return vending.ParseTimeOfDay(s)
}
