package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/dispatch-service/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleEvent)
	n.dispatcher.Subscribe(events.EventTicketClaimed, n.handleEvent)
	n.dispatcher.Subscribe(events.EventTicketReported, n.handleEvent)
	n.dispatcher.Subscribe(events.EventTicketApproved, n.handleEvent)
	n.dispatcher.Subscribe(events.EventTicketRejected, n.handleEvent)
	n.dispatcher.Subscribe(events.EventTicketReopened, n.handleEvent)
}

func (n *NotificationService) handleEvent(_ context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("ticket_id", event.TicketID),
		zap.String("actor", string(event.Actor.Type)),
		zap.Any("payload", event.Payload))
	return nil
}
