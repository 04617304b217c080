package adapter

import (
	"errors"
	"fmt"
)

// ErrStoreUnavailable indicates the store could not be opened in the requested mode
// (missing file for a read-only open, permissions, or a lock held by another process).
var ErrStoreUnavailable = errors.New("store unavailable")

// ErrMaterialization indicates a table could not be represented as a relation.
var ErrMaterialization = errors.New("materialization failed")

// ErrQuerySyntax indicates the store rejected consumer-supplied SQL.
var ErrQuerySyntax = errors.New("invalid query")

// StoreError reports a failure to open or write a store. It matches ErrStoreUnavailable.
type StoreError struct {
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrStoreUnavailable, e.Path, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is reports whether target is ErrStoreUnavailable.
func (e *StoreError) Is(target error) bool { return target == ErrStoreUnavailable }

// MaterializationError reports why a relation could not be created. It matches ErrMaterialization.
type MaterializationError struct {
	Relation string
	Err      error
}

func (e *MaterializationError) Error() string {
	return fmt.Sprintf("%v: relation %q: %v", ErrMaterialization, e.Relation, e.Err)
}

func (e *MaterializationError) Unwrap() error { return e.Err }

// Is reports whether target is ErrMaterialization.
func (e *MaterializationError) Is(target error) bool { return target == ErrMaterialization }

// QueryError wraps a failed query together with its SQL text. It matches ErrQuerySyntax.
type QueryError struct {
	SQL string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed: %v", e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Is reports whether target is ErrQuerySyntax.
func (e *QueryError) Is(target error) bool { return target == ErrQuerySyntax }
