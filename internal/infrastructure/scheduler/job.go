package scheduler

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Trigger records what caused a run
type Trigger string

const (
	TriggerInterval Trigger = "interval"
	TriggerManual   Trigger = "manual"
)

// Job is one reconciliation run including its retries
type Job struct {
	ID          uuid.UUID
	Trigger     Trigger
	Status      JobStatus
	Error       string
	QueuedAt    time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
}

func NewJob(trigger Trigger) *Job {
	return &Job{
		ID:       uuid.New(),
		Trigger:  trigger,
		Status:   JobStatusPending,
		QueuedAt: time.Now(),
	}
}

// Start marks an attempt as running. StartedAt keeps the first attempt.
func (j *Job) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	if j.StartedAt == nil {
		j.StartedAt = &now
	}
}

// Finish records the outcome of the latest attempt
func (j *Job) Finish(err error) {
	now := time.Now()
	j.CompletedAt = &now
	if err != nil {
		j.Status = JobStatusFailed
		j.Error = err.Error()
		return
	}
	j.Status = JobStatusSuccess
	j.Error = ""
}

// Done reports whether the job reached a final status
func (j *Job) Done() bool {
	return j.Status == JobStatusSuccess || j.Status == JobStatusFailed
}
