// Package scheduler runs the periodic reconciliation of product quantity
// projections and audit drift against the stock ledger.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// JobExecutor performs one attempt of a job
type JobExecutor interface {
	Execute(ctx context.Context, job *Job) error
}

type SchedulerConfig struct {
	Enabled       bool
	Interval      time.Duration
	JobTimeout    time.Duration // per attempt
	RetryAttempts int
	RetryDelay    time.Duration // doubled after every failed retry
}

func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:       true,
		Interval:      15 * time.Minute,
		JobTimeout:    5 * time.Minute,
		RetryAttempts: 2,
		RetryDelay:    30 * time.Second,
	}
}

// Validate checks an enabled configuration
func (c SchedulerConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Interval <= 0 || c.JobTimeout <= 0 || c.RetryAttempts < 0 || c.RetryDelay < 0 {
		return ErrInvalidConfig
	}
	return nil
}

// Scheduler runs reconciliation jobs on one worker. Runs never overlap:
// while a job is queued or running, further triggers are refused.
type Scheduler struct {
	config   SchedulerConfig
	executor JobExecutor
	logger   *zap.Logger

	runs   chan *Job
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	running bool
	busy    bool
	last    *Job
}

func NewScheduler(config SchedulerConfig, executor JobExecutor, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		config:   config,
		executor: executor,
		logger:   logger.Named("reconcile"),
		runs:     make(chan *Job, 1),
	}
}

// Start launches the worker and the interval ticker. A disabled scheduler
// starts nothing and refuses manual triggers.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.config.Validate(); err != nil {
		return err
	}
	if !s.config.Enabled {
		s.logger.Info("Reconcile scheduler is disabled")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	s.running = true

	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(2)
	go s.work(ctx)
	go s.tick(ctx)

	s.logger.Info("Reconcile scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop cancels the running job and waits for the worker, bounded by ctx
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Reconcile scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Reconcile scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// LastJob returns a copy of the most recently finished job
func (s *Scheduler) LastJob() (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Job{}, false
	}
	return *s.last, true
}

// TriggerNow queues a manual run
func (s *Scheduler) TriggerNow() (*Job, error) {
	job := NewJob(TriggerManual)
	if err := s.enqueue(job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *Scheduler) enqueue(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case !s.running:
		return ErrSchedulerNotRunning
	case s.busy:
		return ErrRunInProgress
	}
	s.busy = true
	s.runs <- job
	s.logger.Debug("Job queued", zap.Stringer("job_id", job.ID), zap.String("trigger", string(job.Trigger)))
	return nil
}

func (s *Scheduler) tick(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.enqueue(NewJob(TriggerInterval)); errors.Is(err, ErrRunInProgress) {
				s.logger.Debug("Skipping interval run, previous run still active")
			}
		}
	}
}

func (s *Scheduler) work(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.runs:
			s.run(ctx, job)
			s.mu.Lock()
			s.busy = false
			s.last = job
			s.mu.Unlock()
		}
	}
}

// run executes job until it succeeds, runs out of retries or ctx ends
func (s *Scheduler) run(ctx context.Context, job *Job) {
	log := s.logger.With(zap.Stringer("job_id", job.ID), zap.String("trigger", string(job.Trigger)))
	delay := s.config.RetryDelay

	for {
		job.Start()
		log.Info("Reconcile run started", zap.Int("attempt", job.RetryCount+1))

		attemptCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
		err := s.executor.Execute(attemptCtx, job)
		cancel()
		job.Finish(err)

		if err == nil {
			log.Info("Reconcile run finished")
			return
		}
		log.Error("Reconcile run failed", zap.Int("retry_count", job.RetryCount), zap.Error(err))
		if ctx.Err() != nil || job.RetryCount >= s.config.RetryAttempts {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		job.RetryCount++
		delay *= 2
	}
}
