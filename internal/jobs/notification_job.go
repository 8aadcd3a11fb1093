package jobs

import (
	"context"
	"time"

	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/gestionale-crm/crm-api/internal/monitoring"
	"go.uber.org/zap"
)

// Job names
const (
	GenerateJobName       = "notifications_generate"
	DeliverJobName        = "notifications_deliver"
	RefreshPendingJobName = "notifications_refresh_pending"
)

// DefaultJobTimeout bounds a run when no timeout is configured
const DefaultJobTimeout = 5 * time.Minute

// NotificationRunner is the part of the notification service the jobs drive
type NotificationRunner interface {
	GenerateNotifications(ctx context.Context) (*domain.GenerationResult, error)
	DeliverDue(ctx context.Context) (*domain.DeliveryResult, error)
	PendingTotal(ctx context.Context) (int, error)
}

// NotificationJob generates and delivers contract expiry reminders
type NotificationJob struct {
	runner  NotificationRunner
	locker  Locker
	metrics *monitoring.Metrics
	logger  *zap.Logger
	timeout time.Duration
	lockTTL time.Duration
}

// NewNotificationJob creates the job. The lock TTL should exceed the timeout
// so the lock cannot expire under a running generation.
func NewNotificationJob(runner NotificationRunner, locker Locker, metrics *monitoring.Metrics, logger *zap.Logger, timeout, lockTTL time.Duration) *NotificationJob {
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}
	if lockTTL < timeout {
		lockTTL = timeout
	}
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &NotificationJob{
		runner:  runner,
		locker:  locker,
		metrics: metrics,
		logger:  logger,
		timeout: timeout,
		lockTTL: lockTTL,
	}
}

// Generate creates the reminders due today. Only the replica holding the
// lock runs it.
func (j *NotificationJob) Generate() {
	j.run(GenerateJobName, func(ctx context.Context) error {
		unlock, ok, err := j.locker.TryLock(ctx, GenerateJobName, j.lockTTL)
		if err != nil {
			return err
		}
		if !ok {
			j.logger.Info("notification generation already running elsewhere, skipping")
			return nil
		}
		defer unlock()

		result, err := j.runner.GenerateNotifications(ctx)
		if result != nil {
			j.metrics.AddCreated(result.Created)
		}
		if err != nil {
			return err
		}
		if err := j.refreshPending(ctx); err != nil {
			j.logger.Warn("failed to refresh pending reminders", zap.Error(err))
		}
		return nil
	})
}

// Deliver e-mails due reminders
func (j *NotificationJob) Deliver() {
	j.run(DeliverJobName, func(ctx context.Context) error {
		unlock, ok, err := j.locker.TryLock(ctx, DeliverJobName, j.lockTTL)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		defer unlock()

		result, err := j.runner.DeliverDue(ctx)
		if err != nil {
			return err
		}
		j.metrics.AddSent(result.Sent)
		return nil
	})
}

// RefreshPending recomputes the pending reminders gauge
func (j *NotificationJob) RefreshPending() {
	j.run(RefreshPendingJobName, func(ctx context.Context) error {
		return j.refreshPending(ctx)
	})
}

func (j *NotificationJob) refreshPending(ctx context.Context) error {
	total, err := j.runner.PendingTotal(ctx)
	if err != nil {
		return err
	}
	j.metrics.SetPending(total)
	return nil
}

func (j *NotificationJob) run(name string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	j.metrics.ObserveJob(name, err, elapsed)

	if err != nil {
		j.logger.Error("job failed",
			zap.String("job_name", name),
			zap.Duration("duration", elapsed),
			zap.Error(err))
		monitoring.CaptureError(err, map[string]string{"job": name})
		return
	}
	j.logger.Debug("job completed",
		zap.String("job_name", name),
		zap.Duration("duration", elapsed))
}

// Register adds the notification jobs to the scheduler. Delivery is only
// scheduled when mail is enabled.
func (j *NotificationJob) Register(s *Scheduler, generateCron, deliveryCron, refreshCron string, deliveryEnabled bool) error {
	if err := s.AddJob(GenerateJobName, generateCron, j.Generate); err != nil {
		return err
	}
	if deliveryEnabled {
		if err := s.AddJob(DeliverJobName, deliveryCron, j.Deliver); err != nil {
			return err
		}
	}
	return s.AddJob(RefreshPendingJobName, refreshCron, j.RefreshPending)
}
