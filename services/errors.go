package services

import "errors"

// Sentinel errors surfaced to the handlers. NotFound and validation errors
// become 404/400 responses; conflict-style duplicates are never surfaced —
// the services resolve them as no-op successes.
var (
	ErrEntityNotFound        = errors.New("entity not found")
	ErrChallengeNotFound     = errors.New("challenge not found")
	ErrParticipationNotFound = errors.New("participation not found")
	ErrUnknownOperator       = errors.New("unknown criteria operator")
	ErrInvalidStatus         = errors.New("invalid status")
	ErrScoreOutOfRange       = errors.New("score out of range")
	ErrUnknownStage          = errors.New("unknown stage")
)
