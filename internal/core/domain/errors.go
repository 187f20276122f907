package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrEmailTaken           = errors.New("email already registered")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrUserNotFound         = errors.New("user not found")
	ErrTaskNotFound         = errors.New("task not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrAssigneeRequired     = errors.New("task has no assignee")
	ErrDuplicateApplication = errors.New("already applied to task")
	ErrNotParticipant       = errors.New("user is not a conversation participant")

	// ErrNetwork classifies transport failures, timeouts, and non-2xx
	// responses not otherwise mapped. Never retried automatically.
	ErrNetwork = errors.New("network error")

	// ErrValidation is the sentinel every ValidationError unwraps to.
	ErrValidation = errors.New("validation failed")

	// ErrStaleSelection reports that an async result arrived for a
	// conversation the user has since navigated away from; the caller
	// must drop it.
	ErrStaleSelection = errors.New("selection changed, result discarded")

	// ErrSendInFlight rejects a second send while one is outstanding.
	ErrSendInFlight = errors.New("send already in flight")

	// ErrNoSelection reports a message operation with no conversation
	// selected.
	ErrNoSelection = errors.New("no conversation selected")
)

// ValidationError carries per-field messages so the caller can render
// them inline next to the offending inputs without a network round-trip.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError from alternating
// field/message pairs.
func NewValidationError(pairs ...string) *ValidationError {
	fields := make(map[string]string, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		fields[pairs[i]] = pairs[i+1]
	}
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
