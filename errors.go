package relic

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for common operations.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("relic: record not found")

	// ErrNotSingular is returned when a query that expects exactly one result
	// returns zero or multiple results.
	ErrNotSingular = errors.New("relic: record not singular")

	// ErrTxStarted is returned when attempting to start a new transaction
	// within an existing transaction.
	ErrTxStarted = errors.New("relic: cannot start a transaction within a transaction")
)

// NotFoundError represents an error when a record is not found.
type NotFoundError struct {
	label string
	id    any
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if e.id != nil {
		return fmt.Sprintf("relic: %s not found (id=%v)", e.label, e.id)
	}
	return fmt.Sprintf("relic: %s not found", e.label)
}

// Is reports whether the target error matches NotFoundError.
// This allows errors.Is(notFoundErr, ErrNotFound) to return true.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns the table label.
func (e *NotFoundError) Label() string {
	return e.label
}

// ID returns the ID that was searched for, if available.
func (e *NotFoundError) ID() any {
	return e.id
}

// NewNotFoundError returns a new NotFoundError for the given table label.
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

// NotSingularError represents an error when a query expects a singular result
// but receives zero or multiple results.
type NotSingularError struct {
	label string
	count int
}

// Error returns the error string.
func (e *NotSingularError) Error() string {
	if e.count >= 0 {
		return fmt.Sprintf("relic: %s not singular (got %d results, expected 1)", e.label, e.count)
	}
	return fmt.Sprintf("relic: %s not singular", e.label)
}

// Is reports whether the target error matches NotSingularError.
func (e *NotSingularError) Is(err error) bool {
	return err == ErrNotSingular
}

// Count returns the number of results, or -1 if unknown.
func (e *NotSingularError) Count() int {
	return e.count
}

// NewNotSingularError returns a new NotSingularError for the given table label.
func NewNotSingularError(label string) *NotSingularError {
	return &NotSingularError{label: label, count: -1}
}

// NewNotSingularErrorWithCount returns a new NotSingularError with the result count.
func NewNotSingularErrorWithCount(label string, count int) *NotSingularError {
	return &NotSingularError{label: label, count: count}
}

// IsNotSingular returns true if the error is a NotSingularError.
func IsNotSingular(err error) bool {
	if err == nil {
		return false
	}
	var e *NotSingularError
	return errors.As(err, &e) || errors.Is(err, ErrNotSingular)
}

// NotLoadedError is returned by Deferred.Get when the relationship was
// neither preloaded nor resolved yet.
type NotLoadedError struct {
	edge string
}

// Error returns the error string.
func (e *NotLoadedError) Error() string {
	return fmt.Sprintf("relic: edge %q was not loaded", e.edge)
}

// NewNotLoadedError returns a new NotLoadedError for the given edge name.
func NewNotLoadedError(edge string) *NotLoadedError {
	return &NotLoadedError{edge: edge}
}

// IsNotLoaded returns true if the error is a NotLoadedError.
func IsNotLoaded(err error) bool {
	if err == nil {
		return false
	}
	var e *NotLoadedError
	return errors.As(err, &e)
}

// ConstraintError represents a database constraint violation error.
type ConstraintError struct {
	msg  string
	wrap error
}

// Error returns the error string.
func (e ConstraintError) Error() string {
	return fmt.Sprintf("relic: constraint failed: %s", e.msg)
}

// Unwrap returns the underlying error.
func (e ConstraintError) Unwrap() error {
	return e.wrap
}

// NewConstraintError returns a new ConstraintError with the given message.
func NewConstraintError(msg string, wrap error) error {
	return ConstraintError{msg: msg, wrap: wrap}
}

// IsConstraintError returns true if the error is a ConstraintError.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e ConstraintError
	return errors.As(err, &e)
}

// ValidationError represents a validation error for field values.
type ValidationError struct {
	Name string // Field name
	Err  error  // Underlying validation error
}

// Error returns the error string.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("relic: validator failed for field %q: %s", e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError returns a new ValidationError for the given field.
func NewValidationError(name string, err error) *ValidationError {
	return &ValidationError{Name: name, Err: err}
}

// IsValidationError returns true if the error is a ValidationError.
func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	var e *ValidationError
	return errors.As(err, &e)
}

// RollbackError wraps an error that occurred during a transaction rollback.
type RollbackError struct {
	Err error
}

// Error returns the error string.
func (e *RollbackError) Error() string {
	return fmt.Sprintf("relic: rollback failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *RollbackError) Unwrap() error {
	return e.Err
}

// AggregateError represents multiple errors collected during an operation.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "relic: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("relic: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}

// QueryError wraps an execution error of a read statement. The driver
// error stays reachable through errors.Unwrap.
type QueryError struct {
	Entity string // Table being queried
	Op     string // Operation (e.g., "select", "count", "exist")
	Err    error
}

// Error returns the error string.
func (e *QueryError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("relic: querying %s (%s): %v", e.Entity, e.Op, e.Err)
	}
	return fmt.Sprintf("relic: querying %s: %v", e.Entity, e.Err)
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

// MutationError wraps an execution error of a write statement.
type MutationError struct {
	Entity string // Table being mutated
	Op     string // Operation (e.g., "create", "update", "delete")
	Err    error
}

// Error returns the error string.
func (e *MutationError) Error() string {
	return fmt.Sprintf("relic: %s %s: %v", e.Op, e.Entity, e.Err)
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

// InvalidPathError is returned when a relationship path does not exist on
// the table it is walked from, or crosses a scalar field.
type InvalidPathError struct {
	Table string
	Path  string
}

// Error returns the error string.
func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("relic: invalid path %q on %s", e.Path, e.Table)
}

// NewInvalidPathError returns a new InvalidPathError.
func NewInvalidPathError(table, path string) *InvalidPathError {
	return &InvalidPathError{Table: table, Path: path}
}

// IsInvalidPath returns true if the error is an InvalidPathError.
func IsInvalidPath(err error) bool {
	var e *InvalidPathError
	return errors.As(err, &e)
}

// UnknownColumnError is returned when a column reference names a field the
// table does not declare.
type UnknownColumnError struct {
	Table  string
	Column string
}

// Error returns the error string.
func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("relic: unknown column %q on %s", e.Column, e.Table)
}

// NewUnknownColumnError returns a new UnknownColumnError.
func NewUnknownColumnError(table, column string) *UnknownColumnError {
	return &UnknownColumnError{Table: table, Column: column}
}

// IsUnknownColumn returns true if the error is an UnknownColumnError.
func IsUnknownColumn(err error) bool {
	var e *UnknownColumnError
	return errors.As(err, &e)
}

// UnsupportedPreloadError is returned when a generic relationship is used
// in a join path. The joined table of a generic reference is only known
// per row, so it cannot be joined.
type UnsupportedPreloadError struct {
	Table string
	Path  string
}

// Error returns the error string.
func (e *UnsupportedPreloadError) Error() string {
	return fmt.Sprintf("relic: cannot join generic relationship %q of %s", e.Path, e.Table)
}

// NewUnsupportedPreloadError returns a new UnsupportedPreloadError.
func NewUnsupportedPreloadError(table, path string) *UnsupportedPreloadError {
	return &UnsupportedPreloadError{Table: table, Path: path}
}

// IsUnsupportedPreload returns true if the error is an UnsupportedPreloadError.
func IsUnsupportedPreload(err error) bool {
	var e *UnsupportedPreloadError
	return errors.As(err, &e)
}

// ImmutableFieldError is returned when a write changes a versioning key or
// an immutable field of an existing record.
type ImmutableFieldError struct {
	Table string
	Field string
}

// Error returns the error string.
func (e *ImmutableFieldError) Error() string {
	return fmt.Sprintf("relic: field %q of %s is immutable", e.Field, e.Table)
}

// NewImmutableFieldError returns a new ImmutableFieldError.
func NewImmutableFieldError(table, field string) *ImmutableFieldError {
	return &ImmutableFieldError{Table: table, Field: field}
}

// IsImmutableField returns true if the error is an ImmutableFieldError.
func IsImmutableField(err error) bool {
	var e *ImmutableFieldError
	return errors.As(err, &e)
}

// EmptyPredicateError is returned when an update or delete has no
// predicate and the caller did not acknowledge a full-table write.
type EmptyPredicateError struct {
	Table string
	Op    string
}

// Error returns the error string.
func (e *EmptyPredicateError) Error() string {
	return fmt.Sprintf("relic: %s on %s without predicates (use ForAllRows to affect every row)", e.Op, e.Table)
}

// NewEmptyPredicateError returns a new EmptyPredicateError.
func NewEmptyPredicateError(table, op string) *EmptyPredicateError {
	return &EmptyPredicateError{Table: table, Op: op}
}

// IsEmptyPredicate returns true if the error is an EmptyPredicateError.
func IsEmptyPredicate(err error) bool {
	var e *EmptyPredicateError
	return errors.As(err, &e)
}

// AliasCollisionError reports two join paths mapped to the same alias.
// It indicates a planner bug and is never caused by user input.
type AliasCollisionError struct {
	Alias string
	Paths []string
}

// Error returns the error string.
func (e *AliasCollisionError) Error() string {
	return fmt.Sprintf("relic: alias %q assigned to paths %q", e.Alias, e.Paths)
}

// NewAliasCollisionError returns a new AliasCollisionError.
func NewAliasCollisionError(alias string, paths ...string) *AliasCollisionError {
	return &AliasCollisionError{Alias: alias, Paths: paths}
}

// IsAliasCollision returns true if the error is an AliasCollisionError.
func IsAliasCollision(err error) bool {
	var e *AliasCollisionError
	return errors.As(err, &e)
}

// MalformedRowError is returned by the hydrator for row data that does not
// match the statement layout: wrong width, a missing root primary key, or a
// value that cannot be parsed into its field type.
type MalformedRowError struct {
	Table  string
	Alias  string
	Reason string
}

// Error returns the error string.
func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("relic: malformed row for %s (alias %q): %s", e.Table, e.Alias, e.Reason)
}

// NewMalformedRowError returns a new MalformedRowError.
func NewMalformedRowError(table, alias, reason string) *MalformedRowError {
	return &MalformedRowError{Table: table, Alias: alias, Reason: reason}
}

// IsMalformedRow returns true if the error is a MalformedRowError.
func IsMalformedRow(err error) bool {
	var e *MalformedRowError
	return errors.As(err, &e)
}
