package rating

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openride/marketplace/internal/store"
	"github.com/openride/marketplace/pkg/common"
	"github.com/openride/marketplace/pkg/eventbus"
	"github.com/openride/marketplace/pkg/models"
	"github.com/openride/marketplace/test/mocks"
)

type fixture struct {
	svc    *Service
	st     *store.Memory
	events *mocks.RecordingPublisher
	rider  uuid.UUID
	driver uuid.UUID
	rideID int64
}

// newCompletedRide seeds a driver, a rider and one completed ride between
// them, each party with totalRides already advanced the way completion does.
func newCompletedRide(t *testing.T) *fixture {
	t.Helper()
	st := store.NewMemory()
	events := &mocks.RecordingPublisher{}
	f := &fixture{
		svc:    NewService(st, events),
		st:     st,
		events: events,
		rider:  uuid.New(),
		driver: uuid.New(),
	}

	require.NoError(t, st.Update(func(tx *store.Tx) error {
		tx.PutDriver(&models.Driver{ID: f.driver, Name: "Ada", Rating: models.RatingInitial, TotalRides: 1, Registered: true})
		tx.PutRider(&models.Rider{ID: f.rider, Name: "Bea", Rating: models.RatingInitial, TotalRides: 1, Registered: true})
		f.rideID = tx.NextRideID()
		tx.PutRide(&models.Ride{
			ID:       f.rideID,
			RiderID:  f.rider,
			DriverID: &f.driver,
			Status:   models.RideStatusCompleted,
		})
		return nil
	}))
	return f
}

func (f *fixture) driverRating(t *testing.T) int64 {
	t.Helper()
	var rating int64
	require.NoError(t, f.st.View(func(tx *store.Tx) error {
		d, ok := tx.Driver(f.driver)
		require.True(t, ok)
		rating = d.Rating
		return nil
	}))
	return rating
}

func TestRateUser_FirstRatingReplacesInitial(t *testing.T) {
	// After the first completed ride the prior average carries zero weight,
	// so the single rating becomes the average outright.
	f := newCompletedRide(t)

	result, err := f.svc.RateUser(context.Background(), f.rider, f.rideID, 500, true)
	require.NoError(t, err)
	assert.Equal(t, f.driver, result.RatedID)
	assert.Equal(t, int64(500), result.NewAverage)
	assert.Equal(t, int64(500), f.driverRating(t))
	assert.Equal(t, 1, f.events.CountType(eventbus.TypeRatingGiven))

	result, err = f.svc.RateUser(context.Background(), f.driver, f.rideID, 300, false)
	require.NoError(t, err)
	assert.Equal(t, f.rider, result.RatedID)
	assert.Equal(t, int64(300), result.NewAverage)
}

func TestRateUser_RunningMeanFloors(t *testing.T) {
	f := newCompletedRide(t)
	require.NoError(t, f.st.Update(func(tx *store.Tx) error {
		d, _ := tx.Driver(f.driver)
		d.Rating = 400
		d.TotalRides = 3
		return nil
	}))

	// (400*2 + 300) / 3 = 366 after flooring.
	result, err := f.svc.RateUser(context.Background(), f.rider, f.rideID, 300, true)
	require.NoError(t, err)
	assert.Equal(t, int64(366), result.NewAverage)
}

func TestRateUser_EachDirectionOnce(t *testing.T) {
	f := newCompletedRide(t)

	_, err := f.svc.RateUser(context.Background(), f.rider, f.rideID, 500, true)
	require.NoError(t, err)

	_, err = f.svc.RateUser(context.Background(), f.rider, f.rideID, 100, true)
	assert.True(t, common.HasCode(err, common.CodeState), "second rating in same direction must fail")
	assert.Equal(t, int64(500), f.driverRating(t), "rejected rating must not move the average")

	// The other direction is still open.
	_, err = f.svc.RateUser(context.Background(), f.driver, f.rideID, 400, false)
	require.NoError(t, err)
}

func TestRateUser_RoleChecks(t *testing.T) {
	f := newCompletedRide(t)

	_, err := f.svc.RateUser(context.Background(), f.driver, f.rideID, 500, true)
	assert.True(t, common.HasCode(err, common.CodeAuthorization), "driver cannot rate the driver")

	_, err = f.svc.RateUser(context.Background(), f.rider, f.rideID, 500, false)
	assert.True(t, common.HasCode(err, common.CodeAuthorization), "rider cannot rate the rider")

	_, err = f.svc.RateUser(context.Background(), uuid.New(), f.rideID, 500, true)
	assert.True(t, common.HasCode(err, common.CodeAuthorization), "strangers cannot rate")
}

func TestRateUser_OutOfRange(t *testing.T) {
	f := newCompletedRide(t)

	for _, r := range []int64{99, 0, -1, 501, 1000} {
		_, err := f.svc.RateUser(context.Background(), f.rider, f.rideID, r, true)
		assert.True(t, common.HasCode(err, common.CodeValidation), "rating %d", r)
	}
}

func TestRateUser_RideNotCompleted(t *testing.T) {
	f := newCompletedRide(t)
	require.NoError(t, f.st.Update(func(tx *store.Tx) error {
		ride, _ := tx.Ride(f.rideID)
		ride.Status = models.RideStatusInProgress
		return nil
	}))

	_, err := f.svc.RateUser(context.Background(), f.rider, f.rideID, 500, true)
	assert.True(t, common.HasCode(err, common.CodeState))
}

func TestRateUser_UnknownRide(t *testing.T) {
	f := newCompletedRide(t)

	for _, id := range []int64{0, -1, f.rideID + 1} {
		_, err := f.svc.RateUser(context.Background(), f.rider, id, 500, true)
		assert.True(t, common.HasCode(err, common.CodeResource), "ride id %d", id)
	}
}
