package blobstore

import (
	"os"
	"path/filepath"
)

// LocalStore implements Store using the local file system.
type LocalStore struct {
	root string
}

// NewLocalStore creates a new LocalStore rooted at the given directory.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

// Open opens an existing blob for reading and writing.
func (s *LocalStore) Open(name string) (File, error) {
	f, err := os.OpenFile(filepath.Join(s.root, name), os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return &localFile{f: f}, nil
}

// Create creates a blob, truncating it if it already exists.
func (s *LocalStore) Create(name string) (File, error) {
	f, err := os.OpenFile(filepath.Join(s.root, name), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	return &localFile{f: f}, nil
}

// Unlink removes a blob.
func (s *LocalStore) Unlink(name string) error {
	return os.Remove(filepath.Join(s.root, name))
}

type localFile struct {
	f *os.File
}

func (f *localFile) ReadAt(p []byte, off int64) (int, error)  { return f.f.ReadAt(p, off) }
func (f *localFile) WriteAt(p []byte, off int64) (int, error) { return f.f.WriteAt(p, off) }
func (f *localFile) Close() error                             { return f.f.Close() }
func (f *localFile) Sync() error                              { return f.f.Sync() }

func (f *localFile) Size() (int64, error) {
	st, err := f.f.Stat()
	if err != nil {
		return 0, err
	}
	return st.Size(), nil
}
