package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when trying to submit a job to a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobQueueFull is returned when the job queue is full
	ErrJobQueueFull = errors.New("job queue is full")

	// ErrUnknownTask is returned when a job names a task that was never registered
	ErrUnknownTask = errors.New("unknown task")

	// ErrInvalidTask is returned when a task has no name, interval or function
	ErrInvalidTask = errors.New("invalid task")
)
