// Package blobstore abstracts where container files live.
//
// The engine never touches the filesystem directly: it is handed a Store and
// addresses container files by name. Tests run against MemoryStore without
// any global state; production code typically uses LocalStore.
package blobstore

import (
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for accessing mutable, randomly addressable blobs.
type Store interface {
	// Open opens an existing blob for reading and writing.
	Open(name string) (File, error)
	// Create creates a blob, truncating it if it already exists.
	Create(name string) (File, error)
	// Unlink removes a blob.
	Unlink(name string) error
}

// File is a random-access handle to a blob.
type File interface {
	io.ReaderAt
	io.WriterAt
	io.Closer
	// Size returns the current size of the blob in bytes.
	Size() (int64, error)
	// Sync flushes buffered writes to the underlying medium.
	Sync() error
}
