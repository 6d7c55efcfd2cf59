package models

import (
	"time"

	"github.com/google/uuid"
)

// Rating bounds. Ratings are integers scaled by 100, so 400 reads as 4.00 stars.
const (
	RatingMin     int64 = 100
	RatingMax     int64 = 500
	RatingInitial int64 = 400
)

// RideStatus is the lifecycle state of a ride.
type RideStatus string

const (
	RideStatusRequested  RideStatus = "requested"
	RideStatusAccepted   RideStatus = "accepted"
	RideStatusInProgress RideStatus = "in_progress"
	RideStatusCompleted  RideStatus = "completed"
	RideStatusCancelled  RideStatus = "cancelled"
)

// Terminal reports whether no further transition is possible from the status.
func (s RideStatus) Terminal() bool {
	return s == RideStatusCompleted || s == RideStatusCancelled
}

// Driver is a registered driver record. Created once, never deleted.
type Driver struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Vehicle      string    `json:"vehicle"`
	Rating       int64     `json:"rating"`
	TotalRides   int64     `json:"total_rides"`
	Active       bool      `json:"active"`
	Registered   bool      `json:"registered"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Clone returns a copy safe to mutate inside a store transaction.
func (d *Driver) Clone() *Driver {
	c := *d
	return &c
}

// Rider is a registered rider record. Same lifecycle as Driver, minus
// availability.
type Rider struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Rating       int64     `json:"rating"`
	TotalRides   int64     `json:"total_rides"`
	Registered   bool      `json:"registered"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Clone returns a copy safe to mutate inside a store transaction.
func (r *Rider) Clone() *Rider {
	c := *r
	return &c
}

// Ride is the canonical ride record. Fare is fixed at creation and never
// recomputed; the record itself is permanent.
type Ride struct {
	ID          int64      `json:"id"`
	RiderID     uuid.UUID  `json:"rider_id"`
	DriverID    *uuid.UUID `json:"driver_id,omitempty"`
	Pickup      string     `json:"pickup"`
	Destination string     `json:"destination"`
	Distance    int64      `json:"distance"`
	Fare        int64      `json:"fare"` // smallest currency unit
	Status      RideStatus `json:"status"`
	// DriverRated is set once the rider has rated the driver for this ride,
	// RiderRated once the driver has rated the rider. Each flips at most once.
	DriverRated  bool      `json:"driver_rated"`
	RiderRated   bool      `json:"rider_rated"`
	CancelReason string    `json:"cancel_reason,omitempty"`
	RequestedAt  time.Time `json:"requested_at"`
}

// Clone returns a copy safe to mutate inside a store transaction.
func (r *Ride) Clone() *Ride {
	c := *r
	if r.DriverID != nil {
		id := *r.DriverID
		c.DriverID = &id
	}
	return &c
}

// Account holds an escrow wallet balance in the smallest currency unit.
type Account struct {
	ID      uuid.UUID `json:"id"`
	Balance int64     `json:"balance"`
}

// Clone returns a copy safe to mutate inside a store transaction.
func (a *Account) Clone() *Account {
	c := *a
	return &c
}
