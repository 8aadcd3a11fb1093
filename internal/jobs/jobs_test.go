package jobs_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/gestionale-crm/crm-api/internal/jobs"
	"github.com/gestionale-crm/crm-api/internal/monitoring"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRunner struct {
	mu          sync.Mutex
	generated   int
	delivered   int
	pending     int
	generateErr error
}

func (f *fakeRunner) GenerateNotifications(ctx context.Context) (*domain.GenerationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generated++
	if f.generateErr != nil {
		return &domain.GenerationResult{Failed: 1}, f.generateErr
	}
	return &domain.GenerationResult{Evaluated: 4, Created: 2}, nil
}

func (f *fakeRunner) DeliverDue(ctx context.Context) (*domain.DeliveryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delivered++
	return &domain.DeliveryResult{Sent: 3}, nil
}

func (f *fakeRunner) PendingTotal(ctx context.Context) (int, error) {
	return f.pending, nil
}

func TestNotificationJob_Generate(t *testing.T) {
	runner := &fakeRunner{pending: 5}
	metrics := monitoring.NewMetrics()
	job := jobs.NewNotificationJob(runner, jobs.NewLocalLocker(), metrics, zap.NewNop(), time.Second, 0)

	job.Generate()

	assert.Equal(t, 1, runner.generated)
	assert.Equal(t, 2.0, promtest.ToFloat64(metrics.NotificationsCreated))
	assert.Equal(t, 5.0, promtest.ToFloat64(metrics.PendingNotifications))
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.JobRuns.WithLabelValues(jobs.GenerateJobName, "success")))
}

func TestNotificationJob_GenerateFailure(t *testing.T) {
	runner := &fakeRunner{generateErr: errors.New("database down")}
	metrics := monitoring.NewMetrics()
	job := jobs.NewNotificationJob(runner, nil, metrics, zap.NewNop(), time.Second, time.Second)

	assert.NotPanics(t, job.Generate)
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.JobRuns.WithLabelValues(jobs.GenerateJobName, "failure")))
}

func TestNotificationJob_SkipsWhileLocked(t *testing.T) {
	runner := &fakeRunner{}
	locker := jobs.NewLocalLocker()
	job := jobs.NewNotificationJob(runner, locker, nil, zap.NewNop(), time.Second, time.Minute)

	unlock, ok, err := locker.TryLock(context.Background(), jobs.GenerateJobName, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	job.Generate()
	assert.Zero(t, runner.generated)

	unlock()
	job.Generate()
	assert.Equal(t, 1, runner.generated)
}

func TestNotificationJob_DeliverAndRefresh(t *testing.T) {
	runner := &fakeRunner{pending: 9}
	metrics := monitoring.NewMetrics()
	job := jobs.NewNotificationJob(runner, nil, metrics, zap.NewNop(), 0, 0)

	job.Deliver()
	job.RefreshPending()

	assert.Equal(t, 1, runner.delivered)
	assert.Equal(t, 3.0, promtest.ToFloat64(metrics.RemindersSent))
	assert.Equal(t, 9.0, promtest.ToFloat64(metrics.PendingNotifications))
}

func TestLocalLocker(t *testing.T) {
	locker := jobs.NewLocalLocker()
	ctx := context.Background()

	unlock, ok, err := locker.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = locker.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, _ = locker.TryLock(ctx, "other", time.Minute)
	assert.True(t, ok)

	unlock()
	_, ok, _ = locker.TryLock(ctx, "k", time.Minute)
	assert.True(t, ok)
}

func TestLocalLocker_Expires(t *testing.T) {
	locker := jobs.NewLocalLocker()
	ctx := context.Background()

	_, ok, _ := locker.TryLock(ctx, "k", time.Millisecond)
	require.True(t, ok)
	time.Sleep(5 * time.Millisecond)

	_, ok, _ = locker.TryLock(ctx, "k", time.Minute)
	assert.True(t, ok)
}

func TestRedisLocker(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Skipping integration test: redis not available: %v", err)
	}
	defer client.Close()

	locker := jobs.NewRedisLocker(client)
	key := "test-" + time.Now().Format("150405.000000")

	unlock, ok, err := locker.TryLock(ctx, key, 10*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = locker.TryLock(ctx, key, 10*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	unlock()
	unlock2, ok, err := locker.TryLock(ctx, key, 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	unlock2()
}

func TestScheduler_AddJob(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())
	runner := &fakeRunner{}
	job := jobs.NewNotificationJob(runner, nil, nil, zap.NewNop(), time.Second, 0)

	require.NoError(t, job.Register(s, "0 0 6 * * *", "0 */15 * * * *", "@every 5m", false))
	assert.Equal(t, []string{jobs.GenerateJobName, jobs.RefreshPendingJobName}, s.JobNames())

	err := s.AddJob(jobs.GenerateJobName, "@hourly", func() {})
	assert.Error(t, err)

	err = s.AddJob("bad", "not a cron", func() {})
	assert.Error(t, err)

	require.NoError(t, s.RemoveJob(jobs.GenerateJobName))
	assert.Error(t, s.RemoveJob(jobs.GenerateJobName))
}

func TestScheduler_RunsJobs(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())
	ran := make(chan struct{}, 1)
	require.NoError(t, s.AddJob("tick", "@every 1s", func() {
		select {
		case ran <- struct{}{}:
		default:
		}
	}))

	s.Start()
	defer func() { <-s.Stop().Done() }()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
}
