package graph

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrStaleSnapshot    = errors.New("snapshot base version is stale")
	ErrConcurrentUpdate = errors.New("commit retries exhausted")
	ErrUnknownCommunity = errors.New("community not in snapshot")
	ErrInvalidInput     = errors.New("invalid input record")
	ErrStoreClosed      = errors.New("store is closed")
)

// EngineError provides structured error information for engine operations.
type EngineError struct {
	Op      string // Operation that failed (e.g., "Commit", "Recompute")
	Entity  string // Entity type (e.g., "snapshot", "community")
	ID      uint64 // Entity ID (if applicable)
	Version uint64 // Snapshot version (if applicable)
	Cause   error  // Underlying error
	Context string // Additional context
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	switch {
	case e.Version != 0 && e.ID != 0:
		return fmt.Sprintf("%s %s %d (version %d): %v", e.Op, e.Entity, e.ID, e.Version, e.Cause)
	case e.Version != 0:
		return fmt.Sprintf("%s %s (version %d): %v", e.Op, e.Entity, e.Version, e.Cause)
	case e.ID != 0:
		return fmt.Sprintf("%s %s %d: %v", e.Op, e.Entity, e.ID, e.Cause)
	case e.Context != "":
		return fmt.Sprintf("%s %s (%s): %v", e.Op, e.Entity, e.Context, e.Cause)
	default:
		return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Cause)
	}
}

// Unwrap returns the underlying cause for error chain support.
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error or its cause.
func (e *EngineError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

// ErrorBuilder provides a fluent interface for building EngineErrors.
type ErrorBuilder struct {
	err EngineError
}

// NewError creates a new error builder with the given operation.
func NewError(op string) *ErrorBuilder {
	return &ErrorBuilder{err: EngineError{Op: op}}
}

// Community sets the entity to "community" with the given ID.
func (b *ErrorBuilder) Community(id uint64) *ErrorBuilder {
	b.err.Entity = "community"
	b.err.ID = id
	return b
}

// Snapshot sets the entity to "snapshot" with the given version.
func (b *ErrorBuilder) Snapshot(version uint64) *ErrorBuilder {
	b.err.Entity = "snapshot"
	b.err.Version = version
	return b
}

// Edge sets the entity to "edge" with context describing the pair.
func (b *ErrorBuilder) Edge(key EdgeKey) *ErrorBuilder {
	b.err.Entity = "edge"
	b.err.Context = fmt.Sprintf("%d-%s->%d", key.Source, key.Type, key.Target)
	return b
}

// Context adds additional context to the error.
func (b *ErrorBuilder) Context(ctx string) *ErrorBuilder {
	b.err.Context = ctx
	return b
}

// Wrap sets the underlying cause and returns the built error.
func (b *ErrorBuilder) Wrap(cause error) error {
	b.err.Cause = cause
	return &b.err
}
