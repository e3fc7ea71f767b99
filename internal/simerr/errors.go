package simerr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the request row or its source image locator is missing.
	ErrNotFound = errors.New("request not found")
	// ErrNoCandidates means the resolver produced an empty candidate set.
	ErrNoCandidates = errors.New("no eligible style candidates")
	// ErrRunInFlight means another orchestration run holds the lease for the
	// same (user, request) pair.
	ErrRunInFlight = errors.New("simulation run already in flight")
)

// ImageLoadError wraps any decode or fetch failure while loading an image.
type ImageLoadError struct {
	Locator string
	Err     error
}

func (e *ImageLoadError) Error() string {
	return fmt.Sprintf("image load failed for %q: %v", e.Locator, e.Err)
}
func (e *ImageLoadError) Unwrap() error { return e.Err }

// InferenceError wraps an engine invocation failure.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string { return fmt.Sprintf("inference failed: %v", e.Err) }
func (e *InferenceError) Unwrap() error { return e.Err }

// TimeoutError is distinct from InferenceError: either the session lock
// could not be acquired in time (Stage "acquire") or the engine call ran
// past its deadline (Stage "transfer").
type TimeoutError struct {
	Stage string
	Err   error
}

func (e *TimeoutError) Error() string { return fmt.Sprintf("timeout during %s: %v", e.Stage, e.Err) }
func (e *TimeoutError) Unwrap() error { return e.Err }

// PublishError wraps an artifact upload failure.
type PublishError struct {
	Err error
}

func (e *PublishError) Error() string { return fmt.Sprintf("artifact publish failed: %v", e.Err) }
func (e *PublishError) Unwrap() error { return e.Err }

// PersistenceError wraps a gateway update failure. The orchestrator logs it
// and keeps going; it never aborts a run on its own.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("persistence failed: %v", e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }

// NotifyError wraps a downstream notification failure. Always swallowed
// after logging.
type NotifyError struct {
	Err error
}

func (e *NotifyError) Error() string { return fmt.Sprintf("notify failed: %v", e.Err) }
func (e *NotifyError) Unwrap() error { return e.Err }

func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}
