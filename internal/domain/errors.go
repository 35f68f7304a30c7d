package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface enables extensible error handling (OCP compliance).
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input. Field carries the offending
	// request field so the client can attach the message to it.
	ValidationError struct {
		Message string
		Field   string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}

	// ForbiddenError indicates authorization failure
	ForbiddenError struct {
		Message string
	}
)

// Error implementations
func (e *NotFoundError) Error() string     { return e.Message }
func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }
func (e *ForbiddenError) Error() string    { return e.Message }

// StatusCode implementations (HTTPError interface)
func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }
func (e *ForbiddenError) StatusCode() int    { return http.StatusForbidden }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// ErrCycle indicates a move that would make a directory its own ancestor.
	ErrCycle = errors.New("move would create a cycle")

	// ErrCrossOwner indicates a move whose destination belongs to a different user.
	ErrCrossOwner = errors.New("destination belongs to a different owner")

	// ErrStore indicates an object-store I/O failure.
	ErrStore = errors.New("object store failure")
)

// ConflictError represents a sibling-name conflict with details about the
// existing resource. Implements HTTPError interface.
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (file, directory)
	ResourceID   string // ID of the existing/conflicting resource
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return e.Message
}

// StatusCode implements the HTTPError interface
func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// CycleError indicates a move whose destination is the moved directory
// itself or one of its descendants.
type CycleError struct {
	NodeID        string
	DestinationID string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cannot move %s into its own subtree", e.NodeID)
}

func (e *CycleError) StatusCode() int { return http.StatusBadRequest }

func (e *CycleError) Is(target error) bool { return target == ErrCycle }

// PartialDeleteError reports a cascading delete that failed midway.
// Remaining holds the ids of nodes not yet removed so the caller can retry
// the delete on the remainder. Rows already deleted are not restored.
type PartialDeleteError struct {
	Remaining []string
	Cause     error
}

func (e *PartialDeleteError) Error() string {
	return fmt.Sprintf("delete incomplete, %d nodes remaining: %v", len(e.Remaining), e.Cause)
}

func (e *PartialDeleteError) StatusCode() int { return http.StatusInternalServerError }

func (e *PartialDeleteError) Unwrap() error { return e.Cause }

// BatchLimitError indicates an upload batch exceeding the configured
// file-count or total-size limit. The whole batch is rejected.
type BatchLimitError struct {
	Message string
}

func (e *BatchLimitError) Error() string { return e.Message }

func (e *BatchLimitError) StatusCode() int { return http.StatusRequestEntityTooLarge }
