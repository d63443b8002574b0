package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/anonto42/faith-connect/functions/internal/metrics"
	"github.com/anonto42/faith-connect/functions/internal/models"
	"github.com/anonto42/faith-connect/functions/internal/push"
	"github.com/anonto42/faith-connect/functions/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// TokenClassifier decides whether a send error means the device token is dead
type TokenClassifier interface {
	IsInvalidToken(err error) bool
}

// Dispatcher fans a notification request out to every device of its recipient
type Dispatcher struct {
	notifications repositories.NotificationRepository
	users         repositories.UserRepository
	sender        push.Sender
	builder       *push.Builder
	classifier    TokenClassifier
	guard         RedeliveryGuard
	concurrency   int
	logger        *zap.Logger
}

// DispatcherOption configures optional Dispatcher behavior
type DispatcherOption func(*Dispatcher)

// WithConcurrency sets how many device sends may be in flight at once
func WithConcurrency(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// WithRedeliveryGuard skips requests whose id was already claimed
func WithRedeliveryGuard(g RedeliveryGuard) DispatcherOption {
	return func(d *Dispatcher) { d.guard = g }
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(
	notifRepo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
	sender push.Sender,
	builder *push.Builder,
	classifier TokenClassifier,
	logger *zap.Logger,
	opts ...DispatcherOption,
) *Dispatcher {
	d := &Dispatcher{
		notifications: notifRepo,
		users:         userRepo,
		sender:        sender,
		builder:       builder,
		classifier:    classifier,
		concurrency:   1,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch processes one newly created notification request.
// When n is nil the request is loaded by id. Every failure ends in a status
// write on the request; nothing is returned to the trigger as an error.
func (d *Dispatcher) Dispatch(ctx context.Context, id string, n *models.PushNotification) (result models.DispatchResult) {
	log := d.logger.With(zap.String("invocation_id", uuid.NewString()), zap.String("notification_id", id))
	result.NotificationID = id

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			log.Error("dispatch panicked", zap.Error(err))
			result = d.fail(ctx, log, id, err)
		}
	}()

	if d.guard != nil {
		claimed, err := d.guard.Claim(ctx, id)
		if err != nil {
			log.Warn("redelivery guard unavailable, dispatching anyway", zap.Error(err))
		} else if !claimed {
			log.Info("notification already claimed, skipping redelivery")
			metrics.DispatchesTotal.WithLabelValues("skipped").Inc()
			result.Skipped = true
			return result
		}
	}

	if n == nil {
		loaded, err := d.notifications.GetNotificationByID(ctx, id)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				log.Warn("notification request no longer exists")
				result.Error = err.Error()
				return result
			}
			return d.fail(ctx, log, id, err)
		}
		n = loaded
	}

	log.Info("processing push notification",
		zap.String("user_id", n.UserID),
		zap.String("type", string(n.Type)),
	)

	out, err := d.deliver(ctx, log, id, n)
	if err != nil {
		return d.fail(ctx, log, id, err)
	}
	return out
}

func (d *Dispatcher) deliver(ctx context.Context, log *zap.Logger, id string, n *models.PushNotification) (models.DispatchResult, error) {
	result := models.DispatchResult{NotificationID: id}

	if !n.HasRequiredFields() {
		log.Error("missing required fields: userId or title")
		return d.reject(ctx, id, "missing_fields", models.ErrMsgMissingFields)
	}

	user, err := d.users.GetUserByID(ctx, n.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			log.Error("user not found", zap.String("user_id", n.UserID))
			return d.reject(ctx, id, "user_not_found", models.ErrMsgUserNotFound)
		}
		return result, fmt.Errorf("look up user %s: %w", n.UserID, err)
	}

	tokens := user.FCMTokens
	if len(tokens) == 0 {
		log.Warn("no FCM tokens for user", zap.String("user_id", n.UserID))
		return d.reject(ctx, id, "no_tokens", models.ErrMsgNoTokens)
	}
	log.Info("found FCM tokens", zap.Int("count", len(tokens)))

	outcomes := d.sendAll(ctx, log, d.builder.DeviceMessage(n), tokens)

	successCount := 0
	var invalid []string
	seen := make(map[string]bool)
	for _, o := range outcomes {
		if o.Success {
			successCount++
			continue
		}
		if o.InvalidToken && !seen[o.Token] {
			seen[o.Token] = true
			invalid = append(invalid, o.Token)
		}
	}

	if len(invalid) > 0 {
		log.Info("removing invalid tokens", zap.Int("count", len(invalid)))
		if err := d.users.RemoveFCMTokens(ctx, n.UserID, invalid); err != nil {
			return result, fmt.Errorf("remove invalid tokens: %w", err)
		}
		metrics.InvalidTokensRemovedTotal.Add(float64(len(invalid)))
	}

	counts := models.DeliveryCounts{
		SuccessCount:         successCount,
		TotalTokens:          len(tokens),
		InvalidTokensRemoved: len(invalid),
	}
	if err := d.notifications.UpdateDeliveryStatus(ctx, id, models.StatusDelivered(counts)); err != nil {
		return result, fmt.Errorf("record delivery status: %w", err)
	}

	metrics.DispatchesTotal.WithLabelValues("sent").Inc()
	log.Info("push notification sent",
		zap.Int("success_count", successCount),
		zap.Int("total_tokens", len(tokens)),
	)
	result.Success = true
	result.SentCount = successCount
	result.TotalTokens = len(tokens)
	return result, nil
}

// sendAll sends template to each token. Sends are independent, so they run
// with bounded concurrency and never cancel each other.
func (d *Dispatcher) sendAll(ctx context.Context, log *zap.Logger, template *messaging.Message, tokens []string) []models.DeliveryOutcome {
	outcomes := make([]models.DeliveryOutcome, len(tokens))

	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i, token := range tokens {
		i, token := i, token
		g.Go(func() error {
			outcomes[i] = d.sendOne(ctx, log, template, token)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (d *Dispatcher) sendOne(ctx context.Context, log *zap.Logger, template *messaging.Message, token string) models.DeliveryOutcome {
	start := time.Now()
	messageID, err := d.sender.Send(ctx, push.ForToken(template, token))
	metrics.DeviceSendDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		invalid := d.classifier.IsInvalidToken(err)
		status := "failed"
		if invalid {
			status = "invalid_token"
		}
		metrics.DeviceSendsTotal.WithLabelValues(status).Inc()
		log.Warn("failed to send to token",
			zap.String("token", push.TruncateToken(token)),
			zap.Bool("invalid_token", invalid),
			zap.Error(err),
		)
		return models.DeliveryOutcome{Token: token, Err: err, InvalidToken: invalid}
	}

	metrics.DeviceSendsTotal.WithLabelValues("success").Inc()
	log.Debug("sent to token", zap.String("token", push.TruncateToken(token)))
	return models.DeliveryOutcome{Token: token, Success: true, MessageID: messageID}
}

func (d *Dispatcher) reject(ctx context.Context, id, outcome, reason string) (models.DispatchResult, error) {
	if err := d.notifications.UpdateDeliveryStatus(ctx, id, models.StatusRejected(reason)); err != nil {
		return models.DispatchResult{NotificationID: id}, fmt.Errorf("record rejection: %w", err)
	}
	metrics.DispatchesTotal.WithLabelValues(outcome).Inc()
	return models.DispatchResult{NotificationID: id, Error: reason}, nil
}

// fail records an unexpected error. A failing status write is only logged.
func (d *Dispatcher) fail(ctx context.Context, log *zap.Logger, id string, cause error) models.DispatchResult {
	metrics.DispatchesTotal.WithLabelValues("failed").Inc()
	log.Error("error sending push notification", zap.Error(cause))
	if err := d.notifications.UpdateDeliveryStatus(ctx, id, models.StatusFailed(cause.Error())); err != nil {
		log.Error("failed to record dispatch error", zap.Error(err))
	}
	return models.DispatchResult{NotificationID: id, Error: cause.Error()}
}
