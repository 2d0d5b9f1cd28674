package events

import (
	"context"
	"strings"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/punchly/service-loyalty/internal/platform/kafka"
)

// AccountDataDeleter is implemented by application.AccountService.
type AccountDataDeleter interface {
	DeleteUserData(ctx context.Context, userID uuid.UUID) error
}

// AccountEventConsumer listens to account events and cascades user deletions
// into the loyalty collections.
type AccountEventConsumer struct {
	consumer *kafka.Consumer
	deleter  AccountDataDeleter
	logger   *zap.Logger
}

// NewAccountEventConsumer creates a new consumer for account events.
func NewAccountEventConsumer(
	brokers []string,
	groupID string,
	deleter AccountDataDeleter,
	logger *zap.Logger,
) *AccountEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, TopicAccountEvents, logger)
	return &AccountEventConsumer{
		consumer: consumer,
		deleter:  deleter,
		logger:   logger,
	}
}

// Start begins consuming account events. It blocks until the context is cancelled.
func (c *AccountEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// handleMessage routes incoming Kafka messages to the appropriate handler.
func (c *AccountEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from account topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return err
	}

	c.logger.Info("received account event",
		zap.String("type", cloudEvent.Type),
		zap.String("id", cloudEvent.ID),
	)

	switch {
	case strings.EqualFold(cloudEvent.Type, AccountUserDeleted):
		return c.handleUserDeleted(ctx, cloudEvent)

	default:
		c.logger.Debug("ignoring unhandled account event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

// handleUserDeleted processes a UserDeletedEvent.
func (c *AccountEventConsumer) handleUserDeleted(ctx context.Context, ce kafka.CloudEvent) error {
	var event UserDeletedEvent
	if err := ce.ParseData(&event); err != nil {
		c.logger.Error("failed to parse UserDeletedEvent data", zap.Error(err))
		return err
	}

	return c.deleter.DeleteUserData(ctx, event.UserID)
}

// Close closes the underlying Kafka consumer.
func (c *AccountEventConsumer) Close() error {
	return c.consumer.Close()
}
