package runner

import (
	"context"
	"errors"
	"fmt"
)

var ErrInvalidConfig = errors.New("invalid runner config")
var ErrNilOpener = errors.New("nil store opener supplied")
var ErrConnectionFailed = errors.New("connecting to the store failed")
var ErrOperationFailed = errors.New("operation failed")
var ErrClosingStoreFailed = errors.New("closing the store failed")

// OperationError reports the step that aborted a run.
// errors.Is matches both ErrOperationFailed and the cause.
type OperationError struct {
	Step int
	Name string
	Err  error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Step, e.Name, e.Err)
}

func (e *OperationError) Unwrap() []error {
	return []error{ErrOperationFailed, e.Err}
}

// IsCancellationError checks if an error is due to context cancellation.
func IsCancellationError(err error) bool {
	return errors.Is(err, context.Canceled)
}

// IsTimeoutError checks if an error is due to context deadline exceeded.
func IsTimeoutError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
