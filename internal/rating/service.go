// Package rating folds per-ride ratings into each party's lifetime average.
// A completed ride grants each party exactly one rating of the other; the
// stored average is the integer running mean of all ratings received.
package rating

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openride/marketplace/internal/store"
	"github.com/openride/marketplace/pkg/common"
	"github.com/openride/marketplace/pkg/eventbus"
	"github.com/openride/marketplace/pkg/logger"
	"github.com/openride/marketplace/pkg/models"
)

// Result reports the outcome of a rating.
type Result struct {
	RideID     int64     `json:"ride_id"`
	RatedID    uuid.UUID `json:"rated_id"`
	Rating     int64     `json:"rating"`
	NewAverage int64     `json:"new_average"`
}

// Service implements the rating aggregator.
type Service struct {
	store  *store.Memory
	events eventbus.Publisher
}

// NewService creates a rating service. events may be nil.
func NewService(st *store.Memory, events eventbus.Publisher) *Service {
	return &Service{store: st, events: events}
}

// RateUser records caller's rating of the other party on a completed ride.
// With targetIsDriver the caller must be the ride's rider and the driver
// receives the rating; otherwise the roles flip. Each direction can be rated
// at most once per ride.
func (s *Service) RateUser(ctx context.Context, callerID uuid.UUID, rideID int64, rating int64, targetIsDriver bool) (*Result, error) {
	if rating < models.RatingMin || rating > models.RatingMax {
		return nil, common.NewValidationError("rating out of range")
	}

	var result *Result
	err := s.store.Update(func(tx *store.Tx) error {
		if rideID <= 0 || rideID > tx.LastRideID() {
			return common.NewResourceError("ride does not exist")
		}
		ride, ok := tx.Ride(rideID)
		if !ok {
			return common.NewResourceError("ride does not exist")
		}
		if ride.Status != models.RideStatusCompleted {
			return common.NewStateError("ride is not completed")
		}

		if targetIsDriver {
			if ride.RiderID != callerID {
				return common.NewAuthorizationError("only the rider may rate the driver")
			}
			if ride.DriverRated {
				return common.NewStateError("driver already rated for this ride")
			}
			driver, ok := tx.Driver(*ride.DriverID)
			if !ok {
				return common.NewResourceError("driver not registered")
			}
			driver.Rating = fold(driver.Rating, driver.TotalRides, rating)
			ride.DriverRated = true
			result = &Result{RideID: rideID, RatedID: driver.ID, Rating: rating, NewAverage: driver.Rating}
			return nil
		}

		if ride.DriverID == nil || *ride.DriverID != callerID {
			return common.NewAuthorizationError("only the driver may rate the rider")
		}
		if ride.RiderRated {
			return common.NewStateError("rider already rated for this ride")
		}
		rider, ok := tx.Rider(ride.RiderID)
		if !ok {
			return common.NewResourceError("rider not registered")
		}
		rider.Rating = fold(rider.Rating, rider.TotalRides, rating)
		ride.RiderRated = true
		result = &Result{RideID: rideID, RatedID: rider.ID, Rating: rating, NewAverage: rider.Rating}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, eventbus.SubjectRatingGiven, eventbus.TypeRatingGiven, eventbus.RatingGivenData{
		RideID:     result.RideID,
		RaterID:    callerID,
		RatedID:    result.RatedID,
		Rating:     result.Rating,
		NewAverage: result.NewAverage,
	})

	logger.Info("rating given",
		zap.Int64("ride_id", result.RideID),
		zap.String("rated_id", result.RatedID.String()),
		zap.Int64("rating", result.Rating),
		zap.Int64("new_average", result.NewAverage),
	)
	return result, nil
}

// fold computes the new running mean after one more rating. totalRides was
// already incremented when this ride completed, so the new rating divides by
// the updated count and the prior average carries weight totalRides-1.
// Integer division floors the result.
func fold(current, totalRides, rating int64) int64 {
	prior := totalRides - 1
	if prior < 0 {
		prior = 0
	}
	count := prior + 1
	return (current*prior + rating) / count
}

func (s *Service) publish(ctx context.Context, subject, eventType string, data interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, subject, eventType, data); err != nil {
		logger.Warn("rating: failed to publish event",
			zap.String("type", eventType),
			zap.Error(err),
		)
	}
}
