package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openride/marketplace/pkg/eventbus"
	"github.com/openride/marketplace/pkg/logger"
)

// EventHandler maps market events to notification deliveries.
type EventHandler struct {
	service *Service
}

// NewEventHandler creates an event handler backed by the notification
// service.
func NewEventHandler(service *Service) *EventHandler {
	return &EventHandler{service: service}
}

// RegisterSubscriptions subscribes to every market event stream on the bus.
func (h *EventHandler) RegisterSubscriptions(ctx context.Context, bus *eventbus.Bus) error {
	if err := bus.Subscribe(ctx, "rides.>", "notifications-rides", h.HandleEvent); err != nil {
		return fmt.Errorf("subscribe to ride events: %w", err)
	}
	if err := bus.Subscribe(ctx, "registry.>", "notifications-registry", h.HandleEvent); err != nil {
		return fmt.Errorf("subscribe to registry events: %w", err)
	}
	if err := bus.Subscribe(ctx, "ratings.>", "notifications-ratings", h.HandleEvent); err != nil {
		return fmt.Errorf("subscribe to rating events: %w", err)
	}
	logger.Info("notifications: subscribed to market events")
	return nil
}

// HandleEvent dispatches a single event to the matching notification.
func (h *EventHandler) HandleEvent(ctx context.Context, event *eventbus.Event) error {
	switch event.Type {
	case eventbus.TypeRideRequested:
		return h.onRideRequested(ctx, event)
	case eventbus.TypeRideAccepted:
		return h.onRideAccepted(ctx, event)
	case eventbus.TypeRideStarted:
		return h.onRideStarted(ctx, event)
	case eventbus.TypeRideCompleted:
		return h.onRideCompleted(ctx, event)
	case eventbus.TypeRideCancelled:
		return h.onRideCancelled(ctx, event)
	case eventbus.TypeDriverRegistered:
		return h.onDriverRegistered(ctx, event)
	case eventbus.TypeRiderRegistered:
		return h.onRiderRegistered(ctx, event)
	case eventbus.TypeRatingGiven:
		return h.onRatingGiven(ctx, event)
	default:
		logger.Debug("notifications: ignoring unknown event type", zap.String("type", event.Type))
		return nil
	}
}

func (h *EventHandler) onRideRequested(ctx context.Context, event *eventbus.Event) error {
	var data eventbus.RideRequestedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal ride requested: %w", err)
	}
	return h.service.Send(ctx, data.RiderID, "ride_requested",
		"Ride requested",
		fmt.Sprintf("Looking for a driver from %s to %s", data.Pickup, data.Destination),
		map[string]interface{}{"ride_id": data.RideID, "fare": data.Fare},
	)
}

func (h *EventHandler) onRideAccepted(ctx context.Context, event *eventbus.Event) error {
	var data eventbus.RideAcceptedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal ride accepted: %w", err)
	}
	return h.service.Send(ctx, data.RiderID, "ride_accepted",
		"Driver on the way",
		"A driver accepted your ride",
		map[string]interface{}{"ride_id": data.RideID, "driver_id": data.DriverID.String()},
	)
}

func (h *EventHandler) onRideStarted(ctx context.Context, event *eventbus.Event) error {
	var data eventbus.RideStartedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal ride started: %w", err)
	}
	return h.service.Send(ctx, data.RiderID, "ride_started",
		"Ride started",
		"Your ride is underway",
		map[string]interface{}{"ride_id": data.RideID},
	)
}

func (h *EventHandler) onRideCompleted(ctx context.Context, event *eventbus.Event) error {
	var data eventbus.RideCompletedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal ride completed: %w", err)
	}

	if err := h.service.Send(ctx, data.RiderID, "ride_completed",
		"Ride completed",
		fmt.Sprintf("Final fare: %d", data.Fare),
		map[string]interface{}{"ride_id": data.RideID, "fare": data.Fare, "refund": data.Refund},
	); err != nil {
		return err
	}
	return h.service.Send(ctx, data.DriverID, "payment_received",
		"You got paid",
		fmt.Sprintf("Earnings: %d", data.DriverShare),
		map[string]interface{}{"ride_id": data.RideID, "amount": data.DriverShare},
	)
}

func (h *EventHandler) onRideCancelled(ctx context.Context, event *eventbus.Event) error {
	var data eventbus.RideCancelledData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal ride cancelled: %w", err)
	}

	// Notify the party that did not cancel.
	var recipient uuid.UUID
	switch data.CancelledBy {
	case data.RiderID:
		if data.DriverID == uuid.Nil {
			return nil // nobody to notify yet
		}
		recipient = data.DriverID
	default:
		recipient = data.RiderID
	}

	return h.service.Send(ctx, recipient, "ride_cancelled",
		"Ride cancelled",
		fmt.Sprintf("Reason: %s", data.Reason),
		map[string]interface{}{"ride_id": data.RideID, "reason": data.Reason},
	)
}

func (h *EventHandler) onDriverRegistered(ctx context.Context, event *eventbus.Event) error {
	var data eventbus.DriverRegisteredData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal driver registered: %w", err)
	}
	return h.service.Send(ctx, data.DriverID, "driver_registered",
		"Welcome aboard",
		fmt.Sprintf("You are registered with vehicle %s", data.Vehicle),
		map[string]interface{}{"name": data.Name},
	)
}

func (h *EventHandler) onRiderRegistered(ctx context.Context, event *eventbus.Event) error {
	var data eventbus.RiderRegisteredData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal rider registered: %w", err)
	}
	return h.service.Send(ctx, data.RiderID, "rider_registered",
		"Welcome aboard",
		"Your rider account is ready",
		map[string]interface{}{"name": data.Name},
	)
}

func (h *EventHandler) onRatingGiven(ctx context.Context, event *eventbus.Event) error {
	var data eventbus.RatingGivenData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal rating given: %w", err)
	}
	return h.service.Send(ctx, data.RatedID, "rating_given",
		"New rating",
		fmt.Sprintf("You received a %d rating", data.Rating),
		map[string]interface{}{"ride_id": data.RideID, "new_average": data.NewAverage},
	)
}
