// Package schemagen holds the runtime errors shared by the generated
// data-access services.
package schemagen

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for common operations.
var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("schemagen: entity not found")

	// ErrConstraint is returned when a write violates a database constraint.
	ErrConstraint = errors.New("schemagen: constraint failed")
)

// NotFoundError represents an error when an entity is not found.
type NotFoundError struct {
	label string
	id    any // Optional: the ID that was searched for
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if e.id != nil {
		return fmt.Sprintf("schemagen: %s not found (id=%v)", e.label, e.id)
	}
	return fmt.Sprintf("schemagen: %s not found", e.label)
}

// Is reports whether the target error matches NotFoundError.
// This allows errors.Is(notFoundErr, ErrNotFound) to return true.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns the entity label.
func (e *NotFoundError) Label() string {
	return e.label
}

// ID returns the ID that was searched for, if available.
func (e *NotFoundError) ID() any {
	return e.id
}

// NewNotFoundError returns a new NotFoundError for the given entity type.
func NewNotFoundError(label string) *NotFoundError {
	return &NotFoundError{label: label}
}

// NewNotFoundErrorWithID returns a new NotFoundError with the ID that was searched for.
func NewNotFoundErrorWithID(label string, id any) *NotFoundError {
	return &NotFoundError{label: label, id: id}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// ConstraintKind is the kind of a violated constraint.
type ConstraintKind string

// Constraint kinds reported by PostgreSQL (SQLSTATE class 23).
const (
	Unique     ConstraintKind = "unique"
	ForeignKey ConstraintKind = "foreign key"
	Check      ConstraintKind = "check"
	NotNull    ConstraintKind = "not null"
)

// ConstraintError represents a database constraint violation error.
type ConstraintError struct {
	Kind       ConstraintKind
	Constraint string // Name of the violated constraint, if known
	wrap       error
}

// Error returns the error string.
func (e *ConstraintError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("schemagen: %s constraint %q failed: %v", e.Kind, e.Constraint, e.wrap)
	}
	return fmt.Sprintf("schemagen: %s constraint failed: %v", e.Kind, e.wrap)
}

// Unwrap returns the underlying error.
func (e *ConstraintError) Unwrap() error {
	return e.wrap
}

// Is reports whether the target error matches ErrConstraint.
func (e *ConstraintError) Is(err error) bool {
	return err == ErrConstraint
}

// NewConstraintError returns a new ConstraintError.
func NewConstraintError(kind ConstraintKind, constraint string, wrap error) *ConstraintError {
	return &ConstraintError{Kind: kind, Constraint: constraint, wrap: wrap}
}

// IsConstraintError returns true if the error is a ConstraintError.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConstraintError
	return errors.As(err, &e)
}

// IsUniqueConstraintError reports if the error resulted from a uniqueness
// constraint violation.
func IsUniqueConstraintError(err error) bool {
	var e *ConstraintError
	return errors.As(err, &e) && e.Kind == Unique
}

// IsForeignKeyConstraintError reports if the error resulted from a
// foreign-key constraint violation.
func IsForeignKeyConstraintError(err error) bool {
	var e *ConstraintError
	return errors.As(err, &e) && e.Kind == ForeignKey
}

// QueryError wraps a query error with additional context.
type QueryError struct {
	Entity string // Entity type being queried
	Op     string // Operation (e.g., "fetch", "all", "fetch with relationships")
	Err    error  // Underlying error
}

// Error returns the error string.
func (e *QueryError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("schemagen: querying %s (%s): %v", e.Entity, e.Op, e.Err)
	}
	return fmt.Sprintf("schemagen: querying %s: %v", e.Entity, e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewQueryError returns a new QueryError.
func NewQueryError(entity, op string, err error) *QueryError {
	return &QueryError{Entity: entity, Op: op, Err: err}
}

// IsQueryError returns true if the error is a QueryError.
func IsQueryError(err error) bool {
	if err == nil {
		return false
	}
	var e *QueryError
	return errors.As(err, &e)
}

// MutationError wraps a mutation error with additional context.
type MutationError struct {
	Entity string // Entity type being mutated
	Op     string // Operation (e.g., "insert", "update", "upsert")
	Err    error  // Underlying error
}

// Error returns the error string.
func (e *MutationError) Error() string {
	return fmt.Sprintf("schemagen: %s %s: %v", e.Op, e.Entity, e.Err)
}

// Unwrap returns the underlying error.
func (e *MutationError) Unwrap() error {
	return e.Err
}

// NewMutationError returns a new MutationError.
func NewMutationError(entity, op string, err error) *MutationError {
	return &MutationError{Entity: entity, Op: op, Err: err}
}

// IsMutationError returns true if the error is a MutationError.
func IsMutationError(err error) bool {
	if err == nil {
		return false
	}
	var e *MutationError
	return errors.As(err, &e)
}
