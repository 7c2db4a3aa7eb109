package storage

import (
	"context"
	"fmt"
	"io"
	"sync"

	// Packages
	multipart "github.com/mutablelogic/go-multipart"
	schema "github.com/mutablelogic/go-multipart/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// MemoryStorage keeps stored file bodies in an in-process table keyed by a
// monotonically unique storage key. Reads take a shared lock; a store call
// takes the writer lock for the duration of the table insert.
type MemoryStorage struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

var _ multipart.Storage = (*MemoryStorage)(nil)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewMemoryStorage creates an empty in-memory storage engine.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		blobs: make(map[string][]byte),
	}
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Store drains the body into memory under a "{field}-{n}" key. No filtering
// or size limits are applied beyond what the parser already enforced.
func (m *MemoryStorage) Store(ctx context.Context, meta schema.FileMeta, body io.Reader) (*schema.StoredFile, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := fmt.Sprintf("%s-%d", meta.FieldName, len(m.blobs))
	m.blobs[key] = data

	// Return success
	return &schema.StoredFile{
		Key:         key,
		FieldName:   meta.FieldName,
		FileName:    meta.FileName,
		ContentType: meta.ContentType,
		Size:        int64(len(data)),
	}, nil
}

// Len returns the number of stored blobs.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}

// Get returns the stored body for a storage key.
func (m *MemoryStorage) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, exists := m.blobs[key]
	return data, exists
}
