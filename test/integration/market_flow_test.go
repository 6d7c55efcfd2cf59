package integration

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/openride/marketplace/internal/escrow"
	"github.com/openride/marketplace/internal/ledger"
	"github.com/openride/marketplace/internal/rating"
	"github.com/openride/marketplace/internal/registry"
	"github.com/openride/marketplace/internal/store"
	"github.com/openride/marketplace/pkg/common"
	"github.com/openride/marketplace/pkg/models"
	"github.com/openride/marketplace/test/mocks"
)

const (
	baseFare    = int64(250)
	farePerUnit = int64(125)
)

// MarketFlowTestSuite drives full ride lifecycles through the real services
// against one shared in-memory store.
type MarketFlowTestSuite struct {
	suite.Suite
	st         *store.Memory
	events     *mocks.RecordingPublisher
	registry   *registry.Service
	settlement *escrow.Service
	ledger     *ledger.Service
	rating     *rating.Service
	platformID uuid.UUID
	rider      uuid.UUID
	driver     uuid.UUID
}

func TestMarketFlowSuite(t *testing.T) {
	suite.Run(t, new(MarketFlowTestSuite))
}

func (s *MarketFlowTestSuite) SetupTest() {
	t := s.T()
	ctx := context.Background()

	s.st = store.NewMemory()
	s.events = &mocks.RecordingPublisher{}
	s.platformID = uuid.New()
	s.settlement = escrow.NewService(s.st, s.platformID, 95)
	require.NoError(t, s.settlement.InitPlatformAccount())
	s.registry = registry.NewService(s.st, s.events)
	s.ledger = ledger.NewService(s.st, s.settlement, s.events, nil, baseFare, farePerUnit)
	s.rating = rating.NewService(s.st, s.events)

	s.rider = uuid.New()
	s.driver = uuid.New()
	_, err := s.registry.RegisterRider(ctx, s.rider, "Bea")
	require.NoError(t, err)
	_, err = s.registry.RegisterDriver(ctx, s.driver, "Ada", "Blue Sedan")
	require.NoError(t, err)
}

func (s *MarketFlowTestSuite) TestHappyPath_RequestToMutualRating() {
	t := s.T()
	ctx := context.Background()

	_, err := s.settlement.Deposit(ctx, s.rider, 2000)
	require.NoError(t, err)

	ride, err := s.ledger.RequestRide(ctx, s.rider, "Old Town", "Harbor", 10)
	require.NoError(t, err)
	require.Equal(t, baseFare+farePerUnit*10, ride.Fare) // 1500

	_, err = s.ledger.AcceptRide(ctx, s.driver, ride.ID)
	require.NoError(t, err)
	_, err = s.ledger.StartRide(ctx, s.driver, ride.ID)
	require.NoError(t, err)

	completed, settlement, err := s.ledger.CompleteRide(ctx, s.rider, ride.ID, 2000)
	require.NoError(t, err)
	require.Equal(t, models.RideStatusCompleted, completed.Status)
	require.Equal(t, int64(1425), settlement.DriverShare)
	require.Equal(t, int64(75), settlement.PlatformShare)
	require.Equal(t, int64(500), settlement.Refund)

	riderAccount, err := s.settlement.Balance(ctx, s.rider)
	require.NoError(t, err)
	require.Equal(t, int64(500), riderAccount.Balance)
	driverAccount, err := s.settlement.Balance(ctx, s.driver)
	require.NoError(t, err)
	require.Equal(t, int64(1425), driverAccount.Balance)

	// Mutual rating: one ride behind them, so each rating stands alone.
	res, err := s.rating.RateUser(ctx, s.rider, ride.ID, 500, true)
	require.NoError(t, err)
	require.Equal(t, int64(500), res.NewAverage)

	res, err = s.rating.RateUser(ctx, s.driver, ride.ID, 300, false)
	require.NoError(t, err)
	require.Equal(t, int64(300), res.NewAverage)

	driver, err := s.registry.GetDriver(ctx, s.driver)
	require.NoError(t, err)
	rider, err := s.registry.GetRider(ctx, s.rider)
	require.NoError(t, err)
	require.Equal(t, int64(1), driver.TotalRides)
	require.Equal(t, int64(1), rider.TotalRides)
	require.Equal(t, int64(500), driver.Rating)
	require.Equal(t, int64(300), rider.Rating)
}

func (s *MarketFlowTestSuite) TestCancelledRide_StaysCancelled() {
	t := s.T()
	ctx := context.Background()

	ride, err := s.ledger.RequestRide(ctx, s.rider, "Old Town", "Harbor", 4)
	require.NoError(t, err)

	cancelled, err := s.ledger.CancelRide(ctx, s.rider, ride.ID, "no driver")
	require.NoError(t, err)
	require.Equal(t, models.RideStatusCancelled, cancelled.Status)
	require.Equal(t, "no driver", cancelled.CancelReason)

	_, err = s.ledger.AcceptRide(ctx, s.driver, ride.ID)
	require.True(t, common.HasCode(err, common.CodeState))

	// Nothing to rate either.
	_, err = s.rating.RateUser(ctx, s.rider, ride.ID, 500, true)
	require.True(t, common.HasCode(err, common.CodeState))
}

func (s *MarketFlowTestSuite) TestSecondRide_FoldsIntoAverages() {
	t := s.T()
	ctx := context.Background()

	_, err := s.settlement.Deposit(ctx, s.rider, 10000)
	require.NoError(t, err)

	runRide := func(rateDriver int64) {
		ride, err := s.ledger.RequestRide(ctx, s.rider, "Old Town", "Harbor", 10)
		require.NoError(t, err)
		_, err = s.ledger.AcceptRide(ctx, s.driver, ride.ID)
		require.NoError(t, err)
		_, err = s.ledger.StartRide(ctx, s.driver, ride.ID)
		require.NoError(t, err)
		_, _, err = s.ledger.CompleteRide(ctx, s.rider, ride.ID, ride.Fare)
		require.NoError(t, err)
		_, err = s.rating.RateUser(ctx, s.rider, ride.ID, rateDriver, true)
		require.NoError(t, err)
	}

	runRide(500)
	runRide(300)

	driver, err := s.registry.GetDriver(ctx, s.driver)
	require.NoError(t, err)
	require.Equal(t, int64(2), driver.TotalRides)
	require.Equal(t, int64(400), driver.Rating, "(500 + 300) / 2")
}
