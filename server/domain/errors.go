package domain

import "errors"

var (
	// ErrInvalidName rejects join/rename requests whose display name is empty
	// after trimming.
	ErrInvalidName = errors.New("display name is invalid")

	// ErrInvalidMessage rejects chat messages whose body is empty after
	// trimming.
	ErrInvalidMessage = errors.New("message is invalid")

	// ErrDuplicateName rejects a join whose requested name is already held by
	// a connected participant. Reported to the requester only, never fatal.
	ErrDuplicateName = errors.New("display name already in use")

	// ErrDuplicateConnection flags the same connection id joining twice
	// without an intervening leave. This is a transport-layer defect, not a
	// user error.
	ErrDuplicateConnection = errors.New("connection already joined")

	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)
