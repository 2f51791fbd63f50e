package errors

import "errors"

var (
	// ErrInvalidDrawDate covers caller-correctable date problems: submission
	// dates in the past or beyond the configured window, winner lookups for
	// future dates.
	ErrInvalidDrawDate = errors.New("invalid draw date")

	ErrInvalidEmail = errors.New("invalid email address")

	// ErrSubmissionFailed is the opaque failure for the atomic submission
	// unit. The underlying cause is logged, never exposed.
	ErrSubmissionFailed = errors.New("ballot submission failed")

	// ErrConflict marks a storage uniqueness violation: another writer
	// concurrently created the same participant, alias, lottery date, or
	// winner. Callers re-query instead of surfacing it.
	ErrConflict = errors.New("concurrent create conflict")

	// ErrAliasSpaceExhausted means alias generation kept colliding past the
	// attempt bound. That indicates a misconfigured alias space, not a
	// normal-path failure.
	ErrAliasSpaceExhausted = errors.New("alias space exhausted")

	ErrWinnerNotFound      = errors.New("winning ballot not found")
	ErrLotteryNotFound     = errors.New("lottery not found")
	ErrParticipantNotFound = errors.New("participant not found")
)
