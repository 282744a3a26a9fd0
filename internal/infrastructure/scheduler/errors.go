package scheduler

import "errors"

var (
	ErrSchedulerNotRunning = errors.New("scheduler is not running")
	ErrInvalidConfig       = errors.New("invalid scheduler configuration")
	// ErrRunInProgress means a reconcile run is already queued or running
	ErrRunInProgress = errors.New("reconcile run already in progress")
)
