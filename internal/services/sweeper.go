package services

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/faith-connect/functions/internal/metrics"
	"github.com/anonto42/faith-connect/functions/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultRetention      = 7 * 24 * time.Hour
	DefaultSweepBatchSize = 500
)

// SweepResult is what one retention tick reports
type SweepResult struct {
	Deleted int    `json:"deleted"`
	Error   string `json:"error,omitempty"`
}

// Sweeper deletes notification requests older than the retention window
type Sweeper struct {
	notifications repositories.NotificationRepository
	retention     time.Duration
	batchSize     int
	now           func() time.Time
	logger        *zap.Logger
}

// NewSweeper creates a Sweeper. Non-positive values fall back to 7 days and 500 per tick.
func NewSweeper(notifRepo repositories.NotificationRepository, retention time.Duration, batchSize int, logger *zap.Logger) *Sweeper {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if batchSize <= 0 {
		batchSize = DefaultSweepBatchSize
	}
	return &Sweeper{
		notifications: notifRepo,
		retention:     retention,
		batchSize:     batchSize,
		now:           time.Now,
		logger:        logger,
	}
}

// Sweep runs one tick: a bounded query followed by a single batch delete.
// Records left over by a partial or failed tick are picked up by the next one.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	log := s.logger.With(zap.String("invocation_id", uuid.NewString()))
	cutoff := s.now().Add(-s.retention)
	log.Info("running cleanup of old push notifications", zap.Time("cutoff", cutoff))

	ids, err := s.notifications.ListCreatedBefore(ctx, cutoff, s.batchSize)
	if err != nil {
		metrics.SweepFailuresTotal.Inc()
		log.Error("error querying old notifications", zap.Error(err))
		return 0, fmt.Errorf("query expired notifications: %w", err)
	}
	if len(ids) == 0 {
		log.Info("no old notifications to clean up")
		return 0, nil
	}

	if err := s.notifications.DeleteNotifications(ctx, ids); err != nil {
		metrics.SweepFailuresTotal.Inc()
		log.Error("error deleting old notifications", zap.Int("batch", len(ids)), zap.Error(err))
		return 0, fmt.Errorf("delete expired notifications: %w", err)
	}

	metrics.SweptNotificationsTotal.Add(float64(len(ids)))
	log.Info("deleted old notification records", zap.Int("deleted", len(ids)))
	return len(ids), nil
}

// Result runs Sweep and folds the error into the result
func (s *Sweeper) Result(ctx context.Context) SweepResult {
	deleted, err := s.Sweep(ctx)
	if err != nil {
		return SweepResult{Error: err.Error()}
	}
	return SweepResult{Deleted: deleted}
}

// Run sweeps every interval until ctx is done
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("retention sweeper started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("retention sweeper stopped")
			return
		case <-ticker.C:
			_, _ = s.Sweep(ctx)
		}
	}
}
