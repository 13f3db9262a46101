package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/case-service/internal/config"
	"github.com/spec-kit/case-service/internal/events"
)

// notificationOutboxKey is the Redis list downstream notifiers drain.
const notificationOutboxKey = "case-service:notifications"

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	redis      *redis.Client
}

// NewNotificationService creates the service. The Redis client may be nil,
// in which case events are only logged.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig, redisClient *redis.Client) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		redis:      redisClient,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventCaseCreated, n.handleCaseCreated)
	n.dispatcher.Subscribe(events.EventCaseRouted, n.handleCaseRouted)
	n.dispatcher.Subscribe(events.EventCaseOpened, n.handleCaseOpened)
	n.dispatcher.Subscribe(events.EventCaseCancelled, n.handleCaseCancelled)
	n.dispatcher.Subscribe(events.EventEvidenceRecorded, n.handleEvidenceRecorded)
	n.dispatcher.Subscribe(events.EventRewardClaimed, n.handleRewardClaimed)
}

func (n *NotificationService) handleCaseCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("CaseCreated", zap.String("case_id", event.CaseID), zap.Any("payload", event.Payload))
	n.enqueueOutbox(ctx, event)
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleCaseRouted(ctx context.Context, event events.Event) error {
	n.logger.Info("CaseRouted", zap.String("case_id", event.CaseID), zap.Any("payload", event.Payload))
	n.enqueueOutbox(ctx, event)
	return nil
}

func (n *NotificationService) handleCaseOpened(ctx context.Context, event events.Event) error {
	n.logger.Info("CaseOpened", zap.String("case_id", event.CaseID))
	n.enqueueOutbox(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleCaseCancelled(ctx context.Context, event events.Event) error {
	n.logger.Info("CaseCancelled", zap.String("case_id", event.CaseID), zap.Any("payload", event.Payload))
	n.enqueueOutbox(ctx, event)
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleEvidenceRecorded(ctx context.Context, event events.Event) error {
	n.logger.Info("EvidenceRecorded", zap.String("case_id", event.CaseID), zap.Any("payload", event.Payload))
	n.enqueueOutbox(ctx, event)
	return nil
}

func (n *NotificationService) handleRewardClaimed(ctx context.Context, event events.Event) error {
	n.logger.Info("RewardClaimed", zap.String("actor_id", event.ActorID), zap.Any("payload", event.Payload))
	n.enqueueOutbox(ctx, event)
	return nil
}

// enqueueOutbox pushes the serialized event onto the Redis outbox list.
func (n *NotificationService) enqueueOutbox(ctx context.Context, event events.Event) {
	if n.redis == nil {
		return
	}
	raw, err := json.Marshal(event)
	if err != nil {
		n.logger.Warn("marshal notification event", zap.Error(err))
		return
	}
	if err := n.redis.LPush(ctx, notificationOutboxKey, raw).Err(); err != nil {
		n.logger.Warn("enqueue notification event", zap.Error(err))
	}
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("case_id", event.CaseID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("case_id", event.CaseID),
		zap.String("event_type", string(event.Type)))
}
