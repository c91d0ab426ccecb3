package lifecycle

import "errors"

var (
	// ErrItemNotFound is returned when the referenced item does not exist.
	ErrItemNotFound = errors.New("item not found")

	// ErrAlreadyResolved is returned when a resolve is attempted on an
	// item that has already been resolved.
	ErrAlreadyResolved = errors.New("item already resolved")

	// ErrNotPendingPickup is returned when a handshake is attempted on an
	// item that is not awaiting pickup.
	ErrNotPendingPickup = errors.New("item is not pending pickup")

	// ErrInvalidQuiz is returned when an item is reported with a quiz
	// whose options do not contain the correct answer exactly once.
	ErrInvalidQuiz = errors.New("quiz options must contain the correct answer exactly once")
)
