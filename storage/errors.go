package storage

import "errors"

// Storage error constants
var (
	// ErrHostNotFound is returned when a host is not found
	ErrHostNotFound = errors.New("host not found")

	// ErrEventTypeNotFound is returned when an event type is not found
	ErrEventTypeNotFound = errors.New("event type not found")

	// ErrEventNotFound is returned when an event is not found
	ErrEventNotFound = errors.New("event not found")

	// ErrDuplicateHost is returned when a host with the same hostname exists
	ErrDuplicateHost = errors.New("host already exists")

	// ErrDuplicateEventType is returned when an event type with the same
	// category and state exists
	ErrDuplicateEventType = errors.New("event type already exists")

	// ErrConstraintViolation is returned when a database constraint is violated
	ErrConstraintViolation = errors.New("constraint violation")
)
