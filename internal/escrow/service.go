// Package escrow computes fare splits and moves escrowed funds between
// wallet accounts. Settlement runs inside the ride ledger's transaction so a
// failed transfer rolls back the completion with it: funds never leave
// escrow without the ride reaching Completed, and vice versa.
package escrow

import (
	"context"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/openride/marketplace/internal/store"
	"github.com/openride/marketplace/pkg/common"
	"github.com/openride/marketplace/pkg/logger"
	"github.com/openride/marketplace/pkg/models"
)

var (
	settlementsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "escrow_settlements_total",
		Help: "Total number of completed ride settlements",
	})
	settledAmountTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "escrow_settled_amount_total",
		Help: "Settled amounts by destination, in the smallest currency unit",
	}, []string{"destination"})
)

// Settlement describes how a completed ride's payment was split.
type Settlement struct {
	Fare          int64 `json:"fare"`
	DriverShare   int64 `json:"driver_share"`
	PlatformShare int64 `json:"platform_share"`
	Refund        int64 `json:"refund"`
}

// Service executes escrow transfers against the shared store.
type Service struct {
	store          *store.Memory
	platformID     uuid.UUID
	driverSharePct int64
}

// NewService creates an escrow service. platformID is the owner identity
// fixed at system initialization; it is the only caller allowed to sweep.
func NewService(st *store.Memory, platformID uuid.UUID, driverSharePct int64) *Service {
	return &Service{store: st, platformID: platformID, driverSharePct: driverSharePct}
}

// PlatformID returns the platform owner identity.
func (s *Service) PlatformID() uuid.UUID {
	return s.platformID
}

// InitPlatformAccount creates the platform's payable account if absent.
// Called once at startup; settlement refuses to run without it.
func (s *Service) InitPlatformAccount() error {
	return s.store.Update(func(tx *store.Tx) error {
		if _, ok := tx.Account(s.platformID); !ok {
			tx.PutAccount(&models.Account{ID: s.platformID})
		}
		return nil
	})
}

// Split computes the driver and platform shares for a fare. Integer division
// floors the driver share; the remainder goes to the platform so the two
// parts always sum to the fare exactly.
func (s *Service) Split(fare int64) (driverShare, platformShare int64) {
	driverShare = fare * s.driverSharePct / 100
	platformShare = fare - driverShare
	return driverShare, platformShare
}

// Settle moves amountPaid out of the rider's wallet: the driver share and
// platform share are credited to their accounts and any overpayment is
// returned to the rider in full. It runs inside the caller's transaction, so
// an error here aborts the whole ride completion.
func (s *Service) Settle(tx *store.Tx, ride *models.Ride, amountPaid int64) (*Settlement, error) {
	if ride.DriverID == nil {
		return nil, common.NewPaymentError("ride has no driver to pay")
	}

	rider, ok := tx.Account(ride.RiderID)
	if !ok {
		return nil, common.NewPaymentError("rider has no escrow account")
	}
	driver, ok := tx.Account(*ride.DriverID)
	if !ok {
		return nil, common.NewPaymentError("driver has no payable account")
	}
	platform, ok := tx.Account(s.platformID)
	if !ok {
		return nil, common.NewPaymentError("platform has no payable account")
	}
	if rider.Balance < amountPaid {
		return nil, common.NewPaymentError("rider balance does not cover the offered amount")
	}

	driverShare, platformShare := s.Split(ride.Fare)
	refund := amountPaid - ride.Fare

	rider.Balance -= amountPaid
	driver.Balance += driverShare
	platform.Balance += platformShare
	rider.Balance += refund

	settlementsTotal.Inc()
	settledAmountTotal.WithLabelValues("driver").Add(float64(driverShare))
	settledAmountTotal.WithLabelValues("platform").Add(float64(platformShare))
	settledAmountTotal.WithLabelValues("refund").Add(float64(refund))

	return &Settlement{
		Fare:          ride.Fare,
		DriverShare:   driverShare,
		PlatformShare: platformShare,
		Refund:        refund,
	}, nil
}

// Deposit credits a registered identity's wallet so it can cover fares.
func (s *Service) Deposit(ctx context.Context, id uuid.UUID, amount int64) (*models.Account, error) {
	if amount <= 0 {
		return nil, common.NewValidationError("deposit amount must be positive")
	}

	var account *models.Account
	err := s.store.Update(func(tx *store.Tx) error {
		a, ok := tx.Account(id)
		if !ok {
			return common.NewResourceError("no escrow account for identity")
		}
		a.Balance += amount
		account = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("wallet deposit",
		zap.String("account_id", id.String()),
		zap.Int64("amount", amount),
		zap.Int64("balance", account.Balance),
	)
	return account, nil
}

// Balance returns the wallet balance held in escrow for an identity.
func (s *Service) Balance(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account *models.Account
	err := s.store.View(func(tx *store.Tx) error {
		a, ok := tx.Account(id)
		if !ok {
			return common.NewResourceError("no escrow account for identity")
		}
		account = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// EmergencyWithdraw sweeps every escrow-held balance into the platform
// account. Intended only for platform shutdown or maintenance; callable by
// the platform owner alone. Returns the swept total.
func (s *Service) EmergencyWithdraw(ctx context.Context, caller uuid.UUID) (int64, error) {
	if caller != s.platformID {
		return 0, common.NewAuthorizationError("only the platform owner may withdraw escrow")
	}

	var swept int64
	err := s.store.Update(func(tx *store.Tx) error {
		platform, ok := tx.Account(s.platformID)
		if !ok {
			platform = &models.Account{ID: s.platformID}
			tx.PutAccount(platform)
		}
		for _, id := range tx.AccountIDs() {
			if id == s.platformID {
				continue
			}
			a, ok := tx.Account(id)
			if !ok || a.Balance == 0 {
				continue
			}
			swept += a.Balance
			platform.Balance += a.Balance
			a.Balance = 0
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Warn("emergency withdraw executed",
		zap.String("platform_id", s.platformID.String()),
		zap.Int64("swept", swept),
	)
	return swept, nil
}
