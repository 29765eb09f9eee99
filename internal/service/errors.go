package service

import "errors"

// Sentinel errors the controllers map onto HTTP statuses. Wrap with
// fmt.Errorf("...: %w", Err...) so errors.Is keeps working through layers.
var (
	// ErrNotFound covers a quiz, rule or product that is absent or not
	// owned by the caller's store. Cross-tenant lookups intentionally
	// collapse into this to avoid leaking existence.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput covers malformed or missing request fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrQuizInactive is returned when calculating against a deactivated quiz.
	ErrQuizInactive = errors.New("quiz is not active")

	// ErrDependencyUnavailable covers storage or catalog failures that make
	// the request unanswerable. Safe to retry.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
