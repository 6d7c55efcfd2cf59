// Package registry owns driver and rider records: one-time registration,
// availability toggling and the per-identity ride history accessors.
package registry

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openride/marketplace/internal/store"
	"github.com/openride/marketplace/pkg/common"
	"github.com/openride/marketplace/pkg/eventbus"
	"github.com/openride/marketplace/pkg/logger"
	"github.com/openride/marketplace/pkg/models"
)

// Service implements registration and availability operations.
type Service struct {
	store  *store.Memory
	events eventbus.Publisher
}

// NewService creates a registry service. events may be nil when no bus is
// configured.
func NewService(st *store.Memory, events eventbus.Publisher) *Service {
	return &Service{store: st, events: events}
}

// RegisterDriver creates a driver record exactly once per identity. New
// drivers start active with the initial rating and an empty escrow account.
func (s *Service) RegisterDriver(ctx context.Context, id uuid.UUID, name, vehicle string) (*models.Driver, error) {
	if strings.TrimSpace(name) == "" {
		return nil, common.NewValidationError("driver name must not be empty")
	}
	if strings.TrimSpace(vehicle) == "" {
		return nil, common.NewValidationError("vehicle description must not be empty")
	}

	var driver *models.Driver
	err := s.store.Update(func(tx *store.Tx) error {
		if _, ok := tx.Driver(id); ok {
			return common.NewStateError("driver already registered")
		}
		driver = &models.Driver{
			ID:           id,
			Name:         name,
			Vehicle:      vehicle,
			Rating:       models.RatingInitial,
			Active:       true,
			Registered:   true,
			RegisteredAt: time.Now().UTC(),
		}
		tx.PutDriver(driver)
		tx.PutAccount(&models.Account{ID: id})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, eventbus.SubjectDriverRegistered, eventbus.TypeDriverRegistered, eventbus.DriverRegisteredData{
		DriverID: driver.ID,
		Name:     driver.Name,
		Vehicle:  driver.Vehicle,
	})

	logger.Info("driver registered",
		zap.String("driver_id", driver.ID.String()),
		zap.String("vehicle", driver.Vehicle),
	)
	return driver, nil
}

// RegisterRider creates a rider record exactly once per identity.
func (s *Service) RegisterRider(ctx context.Context, id uuid.UUID, name string) (*models.Rider, error) {
	if strings.TrimSpace(name) == "" {
		return nil, common.NewValidationError("rider name must not be empty")
	}

	var rider *models.Rider
	err := s.store.Update(func(tx *store.Tx) error {
		if _, ok := tx.Rider(id); ok {
			return common.NewStateError("rider already registered")
		}
		rider = &models.Rider{
			ID:           id,
			Name:         name,
			Rating:       models.RatingInitial,
			Registered:   true,
			RegisteredAt: time.Now().UTC(),
		}
		tx.PutRider(rider)
		tx.PutAccount(&models.Account{ID: id})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, eventbus.SubjectRiderRegistered, eventbus.TypeRiderRegistered, eventbus.RiderRegisteredData{
		RiderID: rider.ID,
		Name:    rider.Name,
	})

	logger.Info("rider registered", zap.String("rider_id", rider.ID.String()))
	return rider, nil
}

// ToggleDriverAvailability flips the driver's active flag and returns the
// updated record. No other side effects.
func (s *Service) ToggleDriverAvailability(ctx context.Context, id uuid.UUID) (*models.Driver, error) {
	var driver *models.Driver
	err := s.store.Update(func(tx *store.Tx) error {
		d, ok := tx.Driver(id)
		if !ok {
			return common.NewResourceError("driver not registered")
		}
		d.Active = !d.Active
		driver = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("driver availability toggled",
		zap.String("driver_id", id.String()),
		zap.Bool("active", driver.Active),
	)
	return driver, nil
}

// GetDriver returns the driver record for id.
func (s *Service) GetDriver(ctx context.Context, id uuid.UUID) (*models.Driver, error) {
	var driver *models.Driver
	err := s.store.View(func(tx *store.Tx) error {
		d, ok := tx.Driver(id)
		if !ok {
			return common.NewResourceError("driver not registered")
		}
		driver = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return driver, nil
}

// GetRider returns the rider record for id.
func (s *Service) GetRider(ctx context.Context, id uuid.UUID) (*models.Rider, error) {
	var rider *models.Rider
	err := s.store.View(func(tx *store.Tx) error {
		r, ok := tx.Rider(id)
		if !ok {
			return common.NewResourceError("rider not registered")
		}
		rider = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rider, nil
}

// RiderHistory returns the ride ids associated with a rider, in order of
// occurrence.
func (s *Service) RiderHistory(ctx context.Context, id uuid.UUID) ([]int64, error) {
	var history []int64
	err := s.store.View(func(tx *store.Tx) error {
		if _, ok := tx.Rider(id); !ok {
			return common.NewResourceError("rider not registered")
		}
		history = tx.RiderHistory(id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return history, nil
}

// DriverHistory returns the ride ids associated with a driver, in order of
// occurrence.
func (s *Service) DriverHistory(ctx context.Context, id uuid.UUID) ([]int64, error) {
	var history []int64
	err := s.store.View(func(tx *store.Tx) error {
		if _, ok := tx.Driver(id); !ok {
			return common.NewResourceError("driver not registered")
		}
		history = tx.DriverHistory(id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return history, nil
}

func (s *Service) publish(ctx context.Context, subject, eventType string, data interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, subject, eventType, data); err != nil {
		logger.Warn("registry: failed to publish event",
			zap.String("type", eventType),
			zap.Error(err),
		)
	}
}
