package services

import (
	"context"

	"github.com/anonto42/faith-connect/functions/internal/callable"
	"github.com/anonto42/faith-connect/functions/internal/metrics"
	"github.com/anonto42/faith-connect/functions/internal/models"
	"github.com/anonto42/faith-connect/functions/internal/push"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Caller is the verified identity behind a callable request
type Caller struct {
	UID string
}

// Broadcaster sends admin announcements to a topic
type Broadcaster struct {
	sender   push.Sender
	builder  *push.Builder
	validate *validator.Validate
	logger   *zap.Logger
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(sender push.Sender, builder *push.Builder, validate *validator.Validate, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{sender: sender, builder: builder, validate: validate, logger: logger}
}

// SendTopicNotification validates the caller and input, then sends exactly once
func (b *Broadcaster) SendTopicNotification(ctx context.Context, caller *Caller, req models.TopicNotificationRequest) (*models.TopicNotificationResult, error) {
	if caller == nil || caller.UID == "" {
		return nil, callable.NewError(callable.Unauthenticated, "User must be authenticated")
	}
	if err := b.validate.Struct(req); err != nil {
		return nil, callable.NewError(callable.InvalidArgument, "Topic and title are required")
	}

	log := b.logger.With(
		zap.String("invocation_id", uuid.NewString()),
		zap.String("caller", caller.UID),
		zap.String("topic", req.Topic),
	)

	messageID, err := b.sender.Send(ctx, b.builder.TopicMessage(req))
	if err != nil {
		metrics.TopicSendsTotal.WithLabelValues("failed").Inc()
		log.Error("error sending topic notification", zap.Error(err))
		return nil, callable.NewError(callable.Internal, err.Error())
	}

	metrics.TopicSendsTotal.WithLabelValues("success").Inc()
	log.Info("topic notification sent", zap.String("message_id", messageID))
	return &models.TopicNotificationResult{Success: true, MessageID: messageID}, nil
}
