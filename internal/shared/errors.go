package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrJobNotFound        = fmt.Errorf("job not found")
	ErrVideoNotFound      = fmt.Errorf("video not found")
	ErrTaskNotFound       = fmt.Errorf("task not found")
	ErrTimeout            = fmt.Errorf("operation timed out")

	// Task lifecycle errors
	ErrTaskRunning  = fmt.Errorf("a task is already running")
	ErrTaskNotIdle  = fmt.Errorf("task is not idle")
	ErrTaskTimedOut = fmt.Errorf("task timed out")
	ErrTaskFailed   = fmt.Errorf("task failed")

	// Polling errors
	ErrPollerStopped = fmt.Errorf("poller stopped")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrNoSelection     = fmt.Errorf("no videos selected")
	ErrInvalidQuality  = fmt.Errorf("invalid quality preset")
)
