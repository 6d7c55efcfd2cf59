package eventbus

import "github.com/google/uuid"

// Subjects group events per domain; types identify the concrete event.
const (
	SubjectRideRequested = "rides.requested"
	SubjectRideAccepted  = "rides.accepted"
	SubjectRideStarted   = "rides.started"
	SubjectRideCompleted = "rides.completed"
	SubjectRideCancelled = "rides.cancelled"

	SubjectDriverRegistered = "registry.driver_registered"
	SubjectRiderRegistered  = "registry.rider_registered"

	SubjectRatingGiven = "ratings.given"
)

const (
	TypeRideRequested    = "ride.requested"
	TypeRideAccepted     = "ride.accepted"
	TypeRideStarted      = "ride.started"
	TypeRideCompleted    = "ride.completed"
	TypeRideCancelled    = "ride.cancelled"
	TypeDriverRegistered = "driver.registered"
	TypeRiderRegistered  = "rider.registered"
	TypeRatingGiven      = "rating.given"
)

// RideRequestedData is published when a rider creates a ride request.
type RideRequestedData struct {
	RideID      int64     `json:"ride_id"`
	RiderID     uuid.UUID `json:"rider_id"`
	Pickup      string    `json:"pickup"`
	Destination string    `json:"destination"`
	Distance    int64     `json:"distance"`
	Fare        int64     `json:"fare"`
}

// RideAcceptedData is published when a driver claims a requested ride.
type RideAcceptedData struct {
	RideID   int64     `json:"ride_id"`
	RiderID  uuid.UUID `json:"rider_id"`
	DriverID uuid.UUID `json:"driver_id"`
}

// RideStartedData is published when the assigned driver starts the ride.
type RideStartedData struct {
	RideID   int64     `json:"ride_id"`
	RiderID  uuid.UUID `json:"rider_id"`
	DriverID uuid.UUID `json:"driver_id"`
}

// RideCompletedData is published after settlement commits, carrying the
// final split.
type RideCompletedData struct {
	RideID        int64     `json:"ride_id"`
	RiderID       uuid.UUID `json:"rider_id"`
	DriverID      uuid.UUID `json:"driver_id"`
	Fare          int64     `json:"fare"`
	DriverShare   int64     `json:"driver_share"`
	PlatformShare int64     `json:"platform_share"`
	Refund        int64     `json:"refund"`
}

// RideCancelledData is published when either party cancels, with the reason
// recorded for notification.
type RideCancelledData struct {
	RideID      int64     `json:"ride_id"`
	RiderID     uuid.UUID `json:"rider_id"`
	DriverID    uuid.UUID `json:"driver_id,omitempty"`
	CancelledBy uuid.UUID `json:"cancelled_by"`
	Reason      string    `json:"reason"`
}

// DriverRegisteredData is published on driver registration.
type DriverRegisteredData struct {
	DriverID uuid.UUID `json:"driver_id"`
	Name     string    `json:"name"`
	Vehicle  string    `json:"vehicle"`
}

// RiderRegisteredData is published on rider registration.
type RiderRegisteredData struct {
	RiderID uuid.UUID `json:"rider_id"`
	Name    string    `json:"name"`
}

// RatingGivenData is published when a completed ride's party rates the other.
type RatingGivenData struct {
	RideID     int64     `json:"ride_id"`
	RaterID    uuid.UUID `json:"rater_id"`
	RatedID    uuid.UUID `json:"rated_id"`
	Rating     int64     `json:"rating"`
	NewAverage int64     `json:"new_average"`
}
