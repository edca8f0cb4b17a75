package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrEmptyCommand is returned when a command carries no text at all.
var ErrEmptyCommand = errors.New("empty command")

// ErrMalformedEntry is returned when a history record is missing required fields.
var ErrMalformedEntry = errors.New("malformed history entry")

// ErrUnknownCategory is returned when a category name cannot be parsed.
var ErrUnknownCategory = errors.New("unknown command category")

// AggregateError represents multiple failures collected while processing a batch.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// ErrInputTooLarge is returned when raw input exceeds the configured size limit.
var ErrInputTooLarge = errors.New("input exceeds maximum allowed size")

// ErrInvalidSessionID is returned when a session ID is empty or unsafe to use as a key.
var ErrInvalidSessionID = errors.New("invalid session id")
