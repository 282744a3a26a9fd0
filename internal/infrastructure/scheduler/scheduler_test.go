package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	appinv "github.com/wims/backend/internal/application/inventory"
)

type fakeReconciler struct {
	mu    sync.Mutex
	calls int32
	errs  []error
	stats appinv.ReconcileStats
	block chan struct{}
}

func (f *fakeReconciler) RunOnce(ctx context.Context) (*appinv.ReconcileStats, error) {
	n := atomic.AddInt32(&f.calls, 1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if int(n) <= len(f.errs) && f.errs[n-1] != nil {
		return nil, f.errs[n-1]
	}
	stats := f.stats
	return &stats, nil
}

func (f *fakeReconciler) Calls() int { return int(atomic.LoadInt32(&f.calls)) }

func testConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:       true,
		Interval:      time.Hour,
		JobTimeout:    time.Second,
		RetryAttempts: 2,
		RetryDelay:    5 * time.Millisecond,
	}
}

func startScheduler(t *testing.T, cfg SchedulerConfig, r Reconciler) *Scheduler {
	t.Helper()
	s := NewScheduler(cfg, NewReconcileExecutor(r, zap.NewNop()), zap.NewNop())
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	})
	return s
}

func waitLastJob(t *testing.T, s *Scheduler) Job {
	t.Helper()
	var job Job
	require.Eventually(t, func() bool {
		var ok bool
		job, ok = s.LastJob()
		return ok
	}, 2*time.Second, 5*time.Millisecond)
	return job
}

func TestSchedulerConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultSchedulerConfig().Validate())
	assert.NoError(t, SchedulerConfig{}.Validate(), "disabled config is not checked")

	cfg := DefaultSchedulerConfig()
	cfg.Interval = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestScheduler_TriggerNow(t *testing.T) {
	r := &fakeReconciler{stats: appinv.ReconcileStats{ProductsChecked: 3}}
	s := startScheduler(t, testConfig(), r)

	job, err := s.TriggerNow()
	require.NoError(t, err)
	assert.Equal(t, TriggerManual, job.Trigger)

	last := waitLastJob(t, s)
	assert.Equal(t, JobStatusSuccess, last.Status)
	assert.Equal(t, 1, r.Calls())
}

func TestScheduler_RetriesThenSucceeds(t *testing.T) {
	boom := errors.New("projection unavailable")
	r := &fakeReconciler{errs: []error{boom, boom}}
	s := startScheduler(t, testConfig(), r)

	_, err := s.TriggerNow()
	require.NoError(t, err)

	last := waitLastJob(t, s)
	assert.Equal(t, JobStatusSuccess, last.Status)
	assert.Equal(t, 2, last.RetryCount)
	assert.Equal(t, 3, r.Calls())
}

func TestScheduler_GivesUpAfterRetries(t *testing.T) {
	boom := errors.New("projection unavailable")
	r := &fakeReconciler{errs: []error{boom, boom, boom, boom}}
	s := startScheduler(t, testConfig(), r)

	_, err := s.TriggerNow()
	require.NoError(t, err)

	last := waitLastJob(t, s)
	assert.Equal(t, JobStatusFailed, last.Status)
	assert.Equal(t, boom.Error(), last.Error)
	assert.Equal(t, 3, r.Calls())
}

func TestScheduler_RejectsOverlappingRuns(t *testing.T) {
	r := &fakeReconciler{block: make(chan struct{})}
	s := startScheduler(t, testConfig(), r)

	_, err := s.TriggerNow()
	require.NoError(t, err)
	require.Eventually(t, func() bool { return r.Calls() == 1 }, time.Second, time.Millisecond)

	_, err = s.TriggerNow()
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(r.block)
	waitLastJob(t, s)

	_, err = s.TriggerNow()
	assert.NoError(t, err)
}

func TestScheduler_IntervalTrigger(t *testing.T) {
	cfg := testConfig()
	cfg.Interval = 10 * time.Millisecond
	r := &fakeReconciler{}
	startScheduler(t, cfg, r)

	assert.Eventually(t, func() bool { return r.Calls() >= 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestScheduler_NotRunning(t *testing.T) {
	s := NewScheduler(testConfig(), NewReconcileExecutor(&fakeReconciler{}, nil), nil)
	_, err := s.TriggerNow()
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
	assert.NoError(t, s.Stop(context.Background()))

	cfg := testConfig()
	cfg.Enabled = false
	disabled := NewScheduler(cfg, NewReconcileExecutor(&fakeReconciler{}, nil), nil)
	require.NoError(t, disabled.Start(context.Background()))
	assert.False(t, disabled.IsRunning())
}

func TestScheduler_StopCancelsRunningJob(t *testing.T) {
	cfg := testConfig()
	cfg.JobTimeout = time.Minute
	r := &fakeReconciler{block: make(chan struct{})}
	s := NewScheduler(cfg, NewReconcileExecutor(r, nil), nil)
	require.NoError(t, s.Start(context.Background()))

	_, err := s.TriggerNow()
	require.NoError(t, err)
	require.Eventually(t, func() bool { return r.Calls() == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.False(t, s.IsRunning())

	last, ok := s.LastJob()
	require.True(t, ok)
	assert.Equal(t, JobStatusFailed, last.Status)
	assert.Equal(t, 1, r.Calls(), "no retry after shutdown")
}

func TestReconcileExecutor_LogsDrift(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := &fakeReconciler{stats: appinv.ReconcileStats{ProductsChecked: 5, ProductsDrifted: 2}}
	e := NewReconcileExecutor(r, zap.New(core))

	require.NoError(t, e.Execute(context.Background(), NewJob(TriggerManual)))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, int64(2), entry.ContextMap()["products_drifted"])
}

func TestJob_Lifecycle(t *testing.T) {
	job := NewJob(TriggerInterval)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.False(t, job.Done())

	job.Start()
	first := *job.StartedAt
	job.Finish(errors.New("timeout"))
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "timeout", job.Error)
	assert.True(t, job.Done())

	job.Start()
	assert.Equal(t, first, *job.StartedAt, "retries keep the first start time")
	job.Finish(nil)
	assert.Equal(t, JobStatusSuccess, job.Status)
	assert.Empty(t, job.Error)
}
