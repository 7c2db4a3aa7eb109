package storage

import (
	"bytes"
	"context"
	"testing"

	// Packages
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"

	schema "github.com/mutablelogic/go-multipart/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// MEMORY ENGINE TESTS

func Test_Memory_Store(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	engine := NewMemoryStorage()

	fileName := "a.txt"
	stored, err := engine.Store(ctx, schema.FileMeta{
		FieldName:   "upload",
		FileName:    &fileName,
		ContentType: "text/plain",
	}, bytes.NewReader([]byte("hello")))
	require.NoError(t, err)

	assert.Equal("upload-0", stored.Key)
	assert.Equal("upload", stored.FieldName)
	assert.Equal(int64(5), stored.Size)
	assert.Equal("text/plain", stored.ContentType)
	assert.Nil(stored.Path)

	data, exists := engine.Get("upload-0")
	assert.True(exists)
	assert.Equal([]byte("hello"), data)
	assert.Equal(1, engine.Len())
}

func Test_Memory_MonotonicKeys(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	engine := NewMemoryStorage()

	first, err := engine.Store(ctx, schema.FileMeta{FieldName: "up"}, bytes.NewReader([]byte("one")))
	require.NoError(t, err)
	second, err := engine.Store(ctx, schema.FileMeta{FieldName: "up"}, bytes.NewReader([]byte("two")))
	require.NoError(t, err)

	assert.Equal("up-0", first.Key)
	assert.Equal("up-1", second.Key)
	assert.Equal(2, engine.Len())
}

func Test_Memory_GetMissing(t *testing.T) {
	assert := assert.New(t)
	engine := NewMemoryStorage()

	_, exists := engine.Get("nope-0")
	assert.False(exists)
	assert.Equal(0, engine.Len())
}
