package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/tecnico-console/internal/config"
	"github.com/spec-kit/tecnico-console/internal/events"
)

// ActivityService records lifecycle events and forwards them to a webhook.
type ActivityService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.ActivityConfig
	webhook    *resty.Client
}

// NewActivityService creates the service.
func NewActivityService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.ActivityConfig) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		webhook:    resty.New().SetHeader("Content-Type", "application/json"),
	}
}

// RegisterHandlers subscribes to events.
func (a *ActivityService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventTicketClaimed, a.handleTicketClaimed)
	a.dispatcher.Subscribe(events.EventTeamAssigned, a.handleTeamAssigned)
	a.dispatcher.Subscribe(events.EventEvidenceUploaded, a.handleEvidenceUploaded)
	a.dispatcher.Subscribe(events.EventStateChanged, a.handleStateChanged)
	a.dispatcher.Subscribe(events.EventNoteAdded, a.handleNoteAdded)
}

func (a *ActivityService) handleTicketClaimed(ctx context.Context, event events.Event) error {
	a.logger.Info("TicketClaimed", zap.Int("ticket_id", event.TicketID), zap.String("technician", event.Actor.Username), zap.Any("payload", event.Payload))
	a.sendWebhook(ctx, event)
	return nil
}

func (a *ActivityService) handleTeamAssigned(ctx context.Context, event events.Event) error {
	a.logger.Info("TeamAssigned", zap.Int("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	a.sendWebhook(ctx, event)
	return nil
}

func (a *ActivityService) handleEvidenceUploaded(ctx context.Context, event events.Event) error {
	a.logger.Info("EvidenceUploaded", zap.Int("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	a.sendWebhook(ctx, event)
	return nil
}

func (a *ActivityService) handleStateChanged(ctx context.Context, event events.Event) error {
	a.logger.Info("StateChanged", zap.Int("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	a.sendWebhook(ctx, event)
	return nil
}

func (a *ActivityService) handleNoteAdded(ctx context.Context, event events.Event) error {
	a.logger.Info("NoteAdded", zap.Int("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	a.sendWebhook(ctx, event)
	return nil
}

// sendWebhook posts the event; failures are logged and never reach the flow.
func (a *ActivityService) sendWebhook(ctx context.Context, event events.Event) {
	url := strings.TrimSpace(a.cfg.WebhookURL)
	if url == "" {
		return
	}
	resp, err := a.webhook.R().
		SetContext(ctx).
		SetBody(event).
		Post(url)
	if err == nil && resp.IsError() {
		err = fmt.Errorf("webhook answered %s", resp.Status())
	}
	if err != nil {
		a.logger.Warn("activity webhook failed",
			zap.String("url", url),
			zap.Int("ticket_id", event.TicketID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		return
	}
	a.logger.Debug("activity webhook delivered",
		zap.Int("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}
