package ingest

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSchema is matched by every *SchemaError.
	ErrSchema = errors.New("schema validation failed")

	// ErrDuplicateProduct is returned by a Store when a product with the same
	// (name, hs_code_id) already exists.
	ErrDuplicateProduct = errors.New("product already exists")

	// ErrRunInProgress is returned by TryIngestFile when another run holds the lock.
	ErrRunInProgress = errors.New("an ingestion run is already in progress")
)

// Skip and error reasons recorded on row outcomes.
const (
	ReasonHSCodeNotFound  = "HsCode not found"
	ReasonCountryNotFound = "Country not found"
	ReasonProductNotFound = "Product not found"
	ReasonInvalidValue    = "Invalid value"
	ReasonPersistence     = "Persistence failure"
	ReasonCancelled       = "Cancelled"
)

// SchemaError reports required columns missing from an uploaded file.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("file must contain the following columns, missing: %s", strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// ParseError reports a file that could not be read as a spreadsheet.
type ParseError struct {
	FileName string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.FileName, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// UnresolvedReferenceError reports a row whose code matched no reference row.
type UnresolvedReferenceError struct {
	Reference string // One of the Reason* constants
	Value     string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("%s: %q", e.Reference, e.Value)
}

// DecodeError reports a cell that could not be parsed into its column type.
type DecodeError struct {
	Column string
	Value  string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Column, e.Value, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// PersistenceError reports a storage write that failed for a row.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
