// Package ledger owns the canonical ride record set and the finite-state
// machine governing ride status:
//
//	Requested -> Accepted -> InProgress -> Completed
//	Requested/Accepted -> Cancelled
//
// No transition skips a state, and the two terminal states are final. Every
// operation runs in a single store transaction, so a failure at any step,
// settlement included, leaves no observable effect.
package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openride/marketplace/internal/escrow"
	"github.com/openride/marketplace/internal/store"
	"github.com/openride/marketplace/pkg/common"
	"github.com/openride/marketplace/pkg/eventbus"
	"github.com/openride/marketplace/pkg/logger"
	"github.com/openride/marketplace/pkg/models"
)

// Archiver copies terminal rides into long-term storage. Archival runs after
// the transaction commits and never affects the operation's outcome.
type Archiver interface {
	ArchiveRide(ctx context.Context, ride *models.Ride) error
}

// Service implements the ride lifecycle operations.
type Service struct {
	store      *store.Memory
	settlement *escrow.Service
	events     eventbus.Publisher
	archive    Archiver

	baseFare    int64
	farePerUnit int64
}

// NewService creates a ride ledger. events and archive may be nil.
func NewService(st *store.Memory, settlement *escrow.Service, events eventbus.Publisher, archive Archiver, baseFare, farePerUnit int64) *Service {
	return &Service{
		store:       st,
		settlement:  settlement,
		events:      events,
		archive:     archive,
		baseFare:    baseFare,
		farePerUnit: farePerUnit,
	}
}

// Fare computes the fixed-point fare for a distance: base plus a per-unit
// rate, all in the smallest currency unit. No floating point, no rounding.
func (s *Service) Fare(distance int64) int64 {
	return s.baseFare + s.farePerUnit*distance
}

// RequestRide creates a ride in Requested status with the next identifier
// from the shared monotonic sequence and the fare fixed for good.
func (s *Service) RequestRide(ctx context.Context, riderID uuid.UUID, pickup, destination string, distance int64) (*models.Ride, error) {
	if strings.TrimSpace(pickup) == "" {
		return nil, common.NewValidationError("pickup must not be empty")
	}
	if strings.TrimSpace(destination) == "" {
		return nil, common.NewValidationError("destination must not be empty")
	}
	if distance <= 0 {
		return nil, common.NewValidationError("distance must be positive")
	}

	var ride *models.Ride
	err := s.store.Update(func(tx *store.Tx) error {
		if _, ok := tx.Rider(riderID); !ok {
			return common.NewResourceError("rider not registered")
		}
		ride = &models.Ride{
			ID:          tx.NextRideID(),
			RiderID:     riderID,
			Pickup:      pickup,
			Destination: destination,
			Distance:    distance,
			Fare:        s.Fare(distance),
			Status:      models.RideStatusRequested,
			RequestedAt: time.Now().UTC(),
		}
		tx.PutRide(ride)
		tx.AppendRiderHistory(riderID, ride.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, eventbus.SubjectRideRequested, eventbus.TypeRideRequested, eventbus.RideRequestedData{
		RideID:      ride.ID,
		RiderID:     ride.RiderID,
		Pickup:      ride.Pickup,
		Destination: ride.Destination,
		Distance:    ride.Distance,
		Fare:        ride.Fare,
	})

	logger.Info("ride requested",
		zap.Int64("ride_id", ride.ID),
		zap.String("rider_id", riderID.String()),
		zap.Int64("fare", ride.Fare),
	)
	return ride, nil
}

// AcceptRide binds a requested ride to exactly one active driver.
func (s *Service) AcceptRide(ctx context.Context, driverID uuid.UUID, rideID int64) (*models.Ride, error) {
	var ride *models.Ride
	err := s.store.Update(func(tx *store.Tx) error {
		driver, ok := tx.Driver(driverID)
		if !ok {
			return common.NewResourceError("driver not registered")
		}
		if !driver.Active {
			return common.NewResourceError("driver is not active")
		}
		r, err := rideForUpdate(tx, rideID)
		if err != nil {
			return err
		}
		if r.Status != models.RideStatusRequested {
			return common.NewStateError("ride is not available for acceptance")
		}
		id := driverID
		r.DriverID = &id
		r.Status = models.RideStatusAccepted
		tx.AppendDriverHistory(driverID, r.ID)
		ride = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, eventbus.SubjectRideAccepted, eventbus.TypeRideAccepted, eventbus.RideAcceptedData{
		RideID:   ride.ID,
		RiderID:  ride.RiderID,
		DriverID: driverID,
	})

	logger.Info("ride accepted",
		zap.Int64("ride_id", ride.ID),
		zap.String("driver_id", driverID.String()),
	)
	return ride, nil
}

// StartRide moves an accepted ride into progress. Only the assigned driver
// may start it.
func (s *Service) StartRide(ctx context.Context, callerID uuid.UUID, rideID int64) (*models.Ride, error) {
	var ride *models.Ride
	err := s.store.Update(func(tx *store.Tx) error {
		r, err := rideForUpdate(tx, rideID)
		if err != nil {
			return err
		}
		if r.DriverID == nil || *r.DriverID != callerID {
			return common.NewAuthorizationError("only the assigned driver may start the ride")
		}
		if r.Status != models.RideStatusAccepted {
			return common.NewStateError("ride cannot be started from its current status")
		}
		r.Status = models.RideStatusInProgress
		ride = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, eventbus.SubjectRideStarted, eventbus.TypeRideStarted, eventbus.RideStartedData{
		RideID:   ride.ID,
		RiderID:  ride.RiderID,
		DriverID: callerID,
	})

	logger.Info("ride started", zap.Int64("ride_id", ride.ID))
	return ride, nil
}

// CompleteRide finishes an in-progress ride and settles payment in the same
// transaction. State mutation happens before the transfers; a settlement
// failure discards the whole transaction, so the ride stays InProgress and
// no funds move.
func (s *Service) CompleteRide(ctx context.Context, callerID uuid.UUID, rideID int64, amountPaid int64) (*models.Ride, *escrow.Settlement, error) {
	var (
		ride       *models.Ride
		settlement *escrow.Settlement
	)
	err := s.store.Update(func(tx *store.Tx) error {
		r, err := rideForUpdate(tx, rideID)
		if err != nil {
			return err
		}
		if r.RiderID != callerID {
			return common.NewAuthorizationError("only the rider may complete the ride")
		}
		if r.Status != models.RideStatusInProgress {
			return common.NewStateError("ride cannot be completed from its current status")
		}
		if amountPaid < r.Fare {
			return common.NewPaymentError("offered amount does not cover the fare")
		}

		driver, ok := tx.Driver(*r.DriverID)
		if !ok {
			return common.NewResourceError("driver not registered")
		}
		rider, ok := tx.Rider(r.RiderID)
		if !ok {
			return common.NewResourceError("rider not registered")
		}

		// Effects first, transfers last (checks-effects-interactions).
		r.Status = models.RideStatusCompleted
		driver.TotalRides++
		rider.TotalRides++

		settlement, err = s.settlement.Settle(tx, r, amountPaid)
		if err != nil {
			return err
		}
		ride = r
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.publish(ctx, eventbus.SubjectRideCompleted, eventbus.TypeRideCompleted, eventbus.RideCompletedData{
		RideID:        ride.ID,
		RiderID:       ride.RiderID,
		DriverID:      *ride.DriverID,
		Fare:          settlement.Fare,
		DriverShare:   settlement.DriverShare,
		PlatformShare: settlement.PlatformShare,
		Refund:        settlement.Refund,
	})
	s.archiveRide(ctx, ride)

	logger.Info("ride completed",
		zap.Int64("ride_id", ride.ID),
		zap.Int64("fare", settlement.Fare),
		zap.Int64("driver_share", settlement.DriverShare),
		zap.Int64("platform_share", settlement.PlatformShare),
		zap.Int64("refund", settlement.Refund),
	)
	return ride, settlement, nil
}

// CancelRide moves a not-yet-started ride to Cancelled, recording the
// reason. Either party may cancel; InProgress and terminal rides cannot be
// cancelled.
func (s *Service) CancelRide(ctx context.Context, callerID uuid.UUID, rideID int64, reason string) (*models.Ride, error) {
	var ride *models.Ride
	err := s.store.Update(func(tx *store.Tx) error {
		r, err := rideForUpdate(tx, rideID)
		if err != nil {
			return err
		}
		isRider := r.RiderID == callerID
		isDriver := r.DriverID != nil && *r.DriverID == callerID
		if !isRider && !isDriver {
			return common.NewAuthorizationError("only the ride's parties may cancel it")
		}
		if r.Status != models.RideStatusRequested && r.Status != models.RideStatusAccepted {
			return common.NewStateError("ride can no longer be cancelled")
		}
		r.Status = models.RideStatusCancelled
		r.CancelReason = reason
		ride = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	data := eventbus.RideCancelledData{
		RideID:      ride.ID,
		RiderID:     ride.RiderID,
		CancelledBy: callerID,
		Reason:      reason,
	}
	if ride.DriverID != nil {
		data.DriverID = *ride.DriverID
	}
	s.publish(ctx, eventbus.SubjectRideCancelled, eventbus.TypeRideCancelled, data)
	s.archiveRide(ctx, ride)

	logger.Info("ride cancelled",
		zap.Int64("ride_id", ride.ID),
		zap.String("cancelled_by", callerID.String()),
		zap.String("reason", reason),
	)
	return ride, nil
}

// GetRide returns the ride record for id.
func (s *Service) GetRide(ctx context.Context, rideID int64) (*models.Ride, error) {
	var ride *models.Ride
	err := s.store.View(func(tx *store.Tx) error {
		r, err := rideForUpdate(tx, rideID)
		if err != nil {
			return err
		}
		ride = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ride, nil
}

// rideForUpdate loads a ride, rejecting identifiers outside the allocated
// sequence.
func rideForUpdate(tx *store.Tx, rideID int64) (*models.Ride, error) {
	if rideID <= 0 || rideID > tx.LastRideID() {
		return nil, common.NewResourceError("ride does not exist")
	}
	r, ok := tx.Ride(rideID)
	if !ok {
		return nil, common.NewResourceError("ride does not exist")
	}
	return r, nil
}

func (s *Service) publish(ctx context.Context, subject, eventType string, data interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, subject, eventType, data); err != nil {
		logger.Warn("ledger: failed to publish event",
			zap.String("type", eventType),
			zap.Error(err),
		)
	}
}

func (s *Service) archiveRide(ctx context.Context, ride *models.Ride) {
	if s.archive == nil {
		return
	}
	if err := s.archive.ArchiveRide(ctx, ride); err != nil {
		logger.Error("ledger: failed to archive terminal ride",
			zap.Int64("ride_id", ride.ID),
			zap.Error(err),
		)
	}
}
