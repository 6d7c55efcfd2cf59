// Package notifications consumes market events from the bus and delivers
// one notification per successful operation. Delivery here is the structured
// log sink; alternate transports plug in behind Sink without touching the
// state machine.
package notifications

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openride/marketplace/pkg/logger"
)

// Notification is a single delivery to one recipient.
type Notification struct {
	Recipient uuid.UUID
	Kind      string
	Title     string
	Body      string
	Data      map[string]interface{}
}

// Sink delivers a notification to its recipient.
type Sink interface {
	Deliver(ctx context.Context, n *Notification) error
}

// LogSink writes notifications to the service log.
type LogSink struct{}

// Deliver implements Sink.
func (LogSink) Deliver(ctx context.Context, n *Notification) error {
	logger.WithContext(ctx).Info("notification delivered",
		zap.String("recipient", n.Recipient.String()),
		zap.String("kind", n.Kind),
		zap.String("title", n.Title),
		zap.String("body", n.Body),
		zap.Any("data", n.Data),
	)
	return nil
}

// Service fans notifications out to the configured sink.
type Service struct {
	sink Sink
}

// NewService creates a notification service. A nil sink falls back to the
// log sink.
func NewService(sink Sink) *Service {
	if sink == nil {
		sink = LogSink{}
	}
	return &Service{sink: sink}
}

// Send delivers a single notification.
func (s *Service) Send(ctx context.Context, recipient uuid.UUID, kind, title, body string, data map[string]interface{}) error {
	return s.sink.Deliver(ctx, &Notification{
		Recipient: recipient,
		Kind:      kind,
		Title:     title,
		Body:      body,
		Data:      data,
	})
}
