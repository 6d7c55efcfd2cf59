package registry

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

func newTestService() (*Service, *mocks.RecordingPublisher) {
	events := &mocks.RecordingPublisher{}
	return NewService(store.NewMemory(), events), events
}

func TestRegisterDriver(t *testing.T) {
	svc, events := newTestService()
	id := uuid.New()

	driver, err := svc.RegisterDriver(context.Background(), id, "Ada", "Blue Sedan")
	require.NoError(t, err)

	assert.Equal(t, id, driver.ID)
	assert.Equal(t, models.RatingInitial, driver.Rating)
	assert.Zero(t, driver.TotalRides)
	assert.True(t, driver.Active)
	assert.True(t, driver.Registered)
	assert.Equal(t, 1, events.CountType(eventbus.TypeDriverRegistered))
}

func TestRegisterDriver_Twice(t *testing.T) {
	svc, events := newTestService()
	id := uuid.New()

	_, err := svc.RegisterDriver(context.Background(), id, "Ada", "Blue Sedan")
	require.NoError(t, err)

	_, err = svc.RegisterDriver(context.Background(), id, "Ada", "Blue Sedan")
	assert.True(t, common.HasCode(err, common.CodeState), "re-registration must be a state error, got %v", err)
	assert.Equal(t, 1, events.CountType(eventbus.TypeDriverRegistered), "no event for the failed attempt")
}

func TestRegisterDriver_Validation(t *testing.T) {
	svc, _ := newTestService()

	tests := []struct {
		name    string
		driver  string
		vehicle string
	}{
		{"empty name", "", "Blue Sedan"},
		{"blank name", "   ", "Blue Sedan"},
		{"empty vehicle", "Ada", ""},
		{"blank vehicle", "Ada", "  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RegisterDriver(context.Background(), uuid.New(), tt.driver, tt.vehicle)
			assert.True(t, common.HasCode(err, common.CodeValidation))
		})
	}
}

func TestRegisterRider(t *testing.T) {
	svc, events := newTestService()
	id := uuid.New()

	rider, err := svc.RegisterRider(context.Background(), id, "Bea")
	require.NoError(t, err)

	assert.Equal(t, models.RatingInitial, rider.Rating)
	assert.True(t, rider.Registered)
	assert.Equal(t, 1, events.CountType(eventbus.TypeRiderRegistered))

	_, err = svc.RegisterRider(context.Background(), id, "Bea")
	assert.True(t, common.HasCode(err, common.CodeState))
}

func TestToggleDriverAvailability(t *testing.T) {
	svc, _ := newTestService()
	id := uuid.New()
	_, err := svc.RegisterDriver(context.Background(), id, "Ada", "Blue Sedan")
	require.NoError(t, err)

	driver, err := svc.ToggleDriverAvailability(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, driver.Active)

	driver, err = svc.ToggleDriverAvailability(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, driver.Active)
}

func TestToggleDriverAvailability_NotRegistered(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.ToggleDriverAvailability(context.Background(), uuid.New())
	assert.True(t, common.HasCode(err, common.CodeResource))
}

func TestGetAccessors_NotRegistered(t *testing.T) {
	svc, _ := newTestService()
	unknown := uuid.New()

	_, err := svc.GetDriver(context.Background(), unknown)
	assert.True(t, common.HasCode(err, common.CodeResource))

	_, err = svc.GetRider(context.Background(), unknown)
	assert.True(t, common.HasCode(err, common.CodeResource))

	_, err = svc.RiderHistory(context.Background(), unknown)
	assert.True(t, common.HasCode(err, common.CodeResource))

	_, err = svc.DriverHistory(context.Background(), unknown)
	assert.True(t, common.HasCode(err, common.CodeResource))
}

func TestRegistration_CreatesEmptyWallet(t *testing.T) {
	events := &mocks.RecordingPublisher{}
	st := store.NewMemory()
	svc := NewService(st, events)

	id := uuid.New()
	_, err := svc.RegisterRider(context.Background(), id, "Bea")
	require.NoError(t, err)

	require.NoError(t, st.View(func(tx *store.Tx) error {
		a, ok := tx.Account(id)
		require.True(t, ok, "registration must create an escrow account")
		assert.Zero(t, a.Balance)
		return nil
	}))
}
