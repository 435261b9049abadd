// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current operator is not
// authorized to act on a contact owned by someone else, while
// ErrConflict signals an illegal state transition or a uniqueness
// violation (deleting a confirmed contact, logging the same station
// twice at the identical instant).
package repository

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrForbidden is returned when the caller attempts an operation on a
// contact they do not own. Handlers should translate this into an
// HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because of
// conflicting state, such as deleting a confirmed contact or inserting
// a duplicate (initiator, recipient, timestamp) key. Handlers should
// translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrCallSignExists is returned when registering with a call sign that
// is already taken.
var ErrCallSignExists = errors.New("call sign already exists")

// ErrEmailExists is returned when registering with an email address
// that is already taken.
var ErrEmailExists = errors.New("email already exists")

// ValidationError carries a field-to-message mapping for malformed or
// out-of-range input. The field names are part of the wire contract:
// clients key their error displays off "recipient", "frequency",
// "initiator_location" and "recipient_location". Always recoverable;
// the caller must correct the input.
type ValidationError struct {
	Fields map[string]string
}

// Error renders the mapping as a stable, sorted string so log lines are
// deterministic.
func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidationError builds a single-field validation error.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// AsValidationError unwraps err into a *ValidationError when possible.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// isDuplicateKey reports whether err is a MySQL duplicate-entry error
// (error number 1062).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
