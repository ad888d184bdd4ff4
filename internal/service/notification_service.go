package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/soportek/helpdesk-api/internal/config"
	"github.com/soportek/helpdesk-api/internal/events"
	"github.com/soportek/helpdesk-api/internal/mail"
)

// NotificationService listens for ticket events and raises email alerts for
// high-signal ones. Alert failures are logged, never propagated; notifications
// must not affect the mutation that triggered them.
type NotificationService struct {
	mailer   mail.Mailer
	logger   *zap.Logger
	alertsTo string
}

// NewNotificationService builds the service.
func NewNotificationService(cfg config.NotificationConfig, mailer mail.Mailer, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		mailer:   mailer,
		logger:   logger,
		alertsTo: cfg.AlertsTo,
	}
}

// Register subscribes the service to the events it alerts on.
func (s *NotificationService) Register(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventTicketCreated, s.handleTicketCreated)
	dispatcher.Subscribe(events.EventTicketDeleted, s.handleTicketDeleted)
}

func (s *NotificationService) handleTicketCreated(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return nil
	}
	s.logger.Info("ticket created",
		zap.String("ticket_id", event.TicketID),
		zap.String("actor_id", event.ActorID),
		zap.String("priority", string(payload.Priority)))

	s.alert(
		fmt.Sprintf("New ticket: %s", payload.Title),
		fmt.Sprintf("Ticket %s was opened in category %s with priority %s.",
			event.TicketID, payload.Category, payload.Priority),
	)
	return nil
}

func (s *NotificationService) handleTicketDeleted(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketDeletedPayload)
	if !ok {
		return nil
	}
	s.logger.Info("ticket deleted",
		zap.String("ticket_id", event.TicketID),
		zap.String("actor_id", event.ActorID))

	s.alert(
		fmt.Sprintf("Ticket deleted: %s", payload.Title),
		fmt.Sprintf("Ticket %s was deleted by %s.", event.TicketID, event.ActorID),
	)
	return nil
}

func (s *NotificationService) alert(subject, body string) {
	if s.mailer == nil || s.alertsTo == "" {
		return
	}
	if err := s.mailer.Send(s.alertsTo, subject, body); err != nil {
		s.logger.Warn("send alert email", zap.String("subject", subject), zap.Error(err))
	}
}
