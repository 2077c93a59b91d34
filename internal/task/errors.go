package task

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/lart-bangor/research-assistant-sub000/internal/locale"
)

// ResourceError reports a missing or malformed task resource. It is declared
// in the locale package and re-exported here so that the whole taxonomy is
// addressable from one place.
type ResourceError = locale.ResourceError

// InvalidUUIDError reports a value that could not be cast to a response id.
type InvalidUUIDError struct {
	Task  string
	Value any
}

func (e *InvalidUUIDError) Error() string {
	return fmt.Sprintf("%s: could not cast value %v to UUID", e.Task, e.Value)
}

// ResponseNotFoundError reports an operation on a response id that is not in
// memory.
type ResponseNotFoundError struct {
	Task string
	ID   uuid.UUID
}

func (e *ResponseNotFoundError) Error() string {
	return fmt.Sprintf("%s: response with id %s not found", e.Task, e.ID)
}

// ResponseIncompleteError reports an action that requires a complete response
// while required fields are still missing.
type ResponseIncompleteError struct {
	Task    string
	ID      uuid.UUID
	Missing []string
}

func (e *ResponseIncompleteError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("%s: response with id %s is incomplete: missing %s",
			e.Task, e.ID, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("%s: response with id %s is incomplete", e.Task, e.ID)
}

// ResponseCorruptedError reports in-memory response data whose minimal
// required shape is broken, principally the response metadata.
type ResponseCorruptedError struct {
	Task   string
	ID     uuid.UUID
	Reason string
}

func (e *ResponseCorruptedError) Error() string {
	return fmt.Sprintf("%s: response with id %s is corrupted: %s", e.Task, e.ID, e.Reason)
}

// ResponseStorageError reports a failure to write a response to long-term
// storage.
type ResponseStorageError struct {
	Task string
	ID   uuid.UUID
	Path string
	Err  error
}

func (e *ResponseStorageError) Error() string {
	return fmt.Sprintf("%s: could not store response with id %s: %v", e.Task, e.ID, e.Err)
}

func (e *ResponseStorageError) Unwrap() error {
	return e.Err
}

// InvalidValueError reports an API call argument with an unacceptable value.
type InvalidValueError struct {
	Task   string
	ID     uuid.UUID
	Field  string
	Reason string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("%s: invalid value for %q: %s", e.Task, e.Field, e.Reason)
}

// MissingKeysError reports required keys absent from an API call payload.
type MissingKeysError struct {
	Task string
	ID   uuid.UUID
	Keys []string
}

func (e *MissingKeysError) Error() string {
	return fmt.Sprintf("%s: missing keys: %s", e.Task, strings.Join(e.Keys, ", "))
}
