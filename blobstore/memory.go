package blobstore

import (
	"io"
	"sync"
)

// MemoryStore is an in-memory Store implementation for testing.
// It stores blobs in memory without any filesystem dependency.
// Thread-safe for concurrent opens; individual File handles share the
// underlying blob.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]*memoryBlob
}

// NewMemoryStore creates a new in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs: make(map[string]*memoryBlob),
	}
}

// Open opens an existing blob.
func (m *MemoryStore) Open(name string) (File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.blobs[name]
	if !ok {
		return nil, ErrNotFound
	}
	return &memoryFile{blob: b}, nil
}

// Create creates a blob, truncating any existing content.
func (m *MemoryStore) Create(name string) (File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b := &memoryBlob{}
	m.blobs[name] = b
	return &memoryFile{blob: b}, nil
}

// Unlink removes a blob.
func (m *MemoryStore) Unlink(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.blobs, name)
	return nil
}

type memoryBlob struct {
	mu   sync.RWMutex
	data []byte
}

type memoryFile struct {
	blob *memoryBlob
}

func (f *memoryFile) ReadAt(p []byte, off int64) (int, error) {
	f.blob.mu.RLock()
	defer f.blob.mu.RUnlock()

	if off >= int64(len(f.blob.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.blob.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (f *memoryFile) WriteAt(p []byte, off int64) (int, error) {
	f.blob.mu.Lock()
	defer f.blob.mu.Unlock()

	if grow := off + int64(len(p)) - int64(len(f.blob.data)); grow > 0 {
		f.blob.data = append(f.blob.data, make([]byte, grow)...)
	}
	copy(f.blob.data[off:], p)
	return len(p), nil
}

func (f *memoryFile) Size() (int64, error) {
	f.blob.mu.RLock()
	defer f.blob.mu.RUnlock()
	return int64(len(f.blob.data)), nil
}

func (f *memoryFile) Sync() error { return nil }

func (f *memoryFile) Close() error { return nil }
