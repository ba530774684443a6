package mdtiff

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned when operating on a closed dataset.
	ErrClosed = errors.New("dataset is closed")

	// ErrReadOnly is returned when mutating a dataset opened for reading.
	ErrReadOnly = errors.New("dataset is read-only")

	// ErrCrystalized is returned when changing the schema after the
	// directory structure has been written.
	ErrCrystalized = errors.New("schema is crystalized")

	// ErrArrayExists is returned when creating an array whose name is taken.
	ErrArrayExists = errors.New("an array with same name already exists")

	// ErrAttributeExists is returned when creating a duplicate attribute.
	ErrAttributeExists = errors.New("an attribute with same name already exists")

	// ErrNotFound is returned when looking up an array that does not exist.
	ErrNotFound = errors.New("not found")
)

// ErrOutOfRange indicates a requested window exceeding a dimension extent.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrOutOfRange struct {
	Dim   string
	First int64
	Last  int64
	Size  uint64
	cause error
}

func (e *ErrOutOfRange) Error() string {
	return fmt.Sprintf("window [%d, %d] out of range for dimension %q of size %d",
		e.First, e.Last, e.Dim, e.Size)
}

func (e *ErrOutOfRange) Unwrap() error { return e.cause }

// ErrShapeMismatch indicates a buffer whose element count does not match the
// requested window.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrShapeMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrShapeMismatch) Error() string {
	return fmt.Sprintf("buffer holds %d samples, window needs %d", e.Actual, e.Expected)
}

func (e *ErrShapeMismatch) Unwrap() error { return e.cause }

// ErrTypeMismatch indicates a buffer whose element type does not match the
// array's data type.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrTypeMismatch struct {
	DataType DataType
	Buffer   string
	cause    error
}

func (e *ErrTypeMismatch) Error() string {
	return fmt.Sprintf("buffer type %s does not match array type %s", e.Buffer, e.DataType)
}

func (e *ErrTypeMismatch) Unwrap() error { return e.cause }

// ErrSchemaMismatch indicates a directory whose structure or metadata is
// inconsistent with the main directory.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrSchemaMismatch struct {
	Directory int
	Detail    string
	cause     error
}

func (e *ErrSchemaMismatch) Error() string {
	return fmt.Sprintf("directory %d not consistent with main one: %s", e.Directory, e.Detail)
}

func (e *ErrSchemaMismatch) Unwrap() error { return e.cause }

// ErrCorruptMetadata indicates an unusable dimension record in the main
// directory. Open degrades to a plain 2D view instead of failing, so this
// error surfaces through logs rather than return values.
type ErrCorruptMetadata struct {
	Detail string
	cause  error
}

func (e *ErrCorruptMetadata) Error() string {
	return fmt.Sprintf("corrupt dimension metadata: %s", e.Detail)
}

func (e *ErrCorruptMetadata) Unwrap() error { return e.cause }
