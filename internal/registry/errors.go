package registry

import "errors"

// Domain errors, checked with errors.Is.
var (
	// ErrNotFound is returned when a webhook ID has no live registration.
	ErrNotFound = errors.New("registry: device not found")

	// ErrDeleted is returned when a webhook ID has been permanently burned.
	// Deleted IDs are never resurrected.
	ErrDeleted = errors.New("registry: device deleted")

	// ErrSensorNotFound is returned for state updates against a composite
	// sensor key that was never registered.
	ErrSensorNotFound = errors.New("registry: sensor not registered")

	// ErrSensorExists is returned when re-registering an existing composite
	// sensor key. Registration is create-once.
	ErrSensorExists = errors.New("registry: sensor already registered")

	// ErrPersistence wraps store failures. The in-memory mutation has already
	// been applied when this is returned; callers must not report the change
	// as committed to the remote device.
	ErrPersistence = errors.New("registry: persist failed")
)
