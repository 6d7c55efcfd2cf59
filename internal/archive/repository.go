// Package archive copies terminal rides into Postgres. The in-memory ledger
// is the source of truth; the archive is the durable, queryable permanent
// record behind it.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Postgres driver for database/sql.
	_ "github.com/lib/pq"

	"github.com/openride/marketplace/pkg/models"
)

// Open connects to the archive database and verifies the connection.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open archive database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping archive database: %w", err)
	}
	return db, nil
}

// Repository persists terminal ride records.
type Repository struct {
	db *sql.DB
}

// NewRepository creates an archive repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ArchiveRide upserts a terminal ride. Re-archiving the same ride is safe;
// the latest record wins.
func (r *Repository) ArchiveRide(ctx context.Context, ride *models.Ride) error {
	var driverID interface{}
	if ride.DriverID != nil {
		driverID = ride.DriverID.String()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ride_archive (
			ride_id, rider_id, driver_id, pickup, destination,
			distance, fare, status, cancel_reason, requested_at, archived_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (ride_id) DO UPDATE SET
			status = EXCLUDED.status,
			cancel_reason = EXCLUDED.cancel_reason,
			archived_at = NOW()`,
		ride.ID, ride.RiderID.String(), driverID, ride.Pickup, ride.Destination,
		ride.Distance, ride.Fare, string(ride.Status), ride.CancelReason, ride.RequestedAt,
	)
	if err != nil {
		return fmt.Errorf("archive ride %d: %w", ride.ID, err)
	}
	return nil
}
