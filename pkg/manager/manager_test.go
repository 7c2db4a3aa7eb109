package manager

import (
	"bytes"
	"context"
	"testing"

	// Packages
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"

	multipart "github.com/mutablelogic/go-multipart"
	schema "github.com/mutablelogic/go-multipart/pkg/schema"
	storage "github.com/mutablelogic/go-multipart/pkg/storage"
)

////////////////////////////////////////////////////////////////////////////////
// MANAGER LIFECYCLE TESTS

func Test_Manager_New(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	mgr, err := New(ctx)
	assert.NoError(err)
	assert.NotNil(mgr)

	// Permissive defaults
	config := mgr.Config()
	assert.Equal(schema.SelectorAny, config.Selector.Kind())
	assert.Equal(schema.UnknownFieldIgnore, config.UnknownFieldPolicy)
	assert.Equal(schema.Limits{}, config.Limits)
	assert.Nil(mgr.Storage())
}

func Test_Manager_New_InvalidConfig(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	tests := []struct {
		name string
		opts []Opt
	}{
		{name: "array with zero max count", opts: []Opt{WithArray("photos", 0)}},
		{name: "array with empty name", opts: []Opt{WithArray("", 2)}},
		{name: "single with empty name", opts: []Opt{WithSingle("")}},
		{name: "fields with empty name", opts: []Opt{WithFields(schema.File(""))}},
		{name: "duplicate field names", opts: []Opt{WithFields(schema.File("a"), schema.Text("a"))}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := New(ctx, test.opts...)
			assert.Error(err)
			assert.ErrorIs(err, multipart.ErrConfig)
		})
	}
}

func Test_Manager_Options(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	mgr, err := New(ctx,
		WithSingle("avatar"),
		WithUnknownFieldPolicy(schema.UnknownFieldReject),
		WithMaxFileSize(1024),
		WithMaxFieldSize(256),
		WithMaxBodySize(4096),
		WithMaxFiles(2),
		WithMaxFields(8),
		WithAllowedMimeTypes("image/*", "application/pdf"),
	)
	require.NoError(t, err)

	config := mgr.Config()
	assert.Equal(schema.SelectorSingle, config.Selector.Kind())
	assert.Equal("avatar", config.Selector.Name())
	assert.Equal(schema.UnknownFieldReject, config.UnknownFieldPolicy)
	assert.Equal(int64(1024), config.Limits.MaxFileSize)
	assert.Equal(int64(256), config.Limits.MaxFieldSize)
	assert.Equal(int64(4096), config.Limits.MaxBodySize)
	assert.Equal(2, config.Limits.MaxFiles)
	assert.Equal(8, config.Limits.MaxFields)
	assert.Equal([]string{"image/*", "application/pdf"}, config.Limits.AllowedMimeTypes)
}

func Test_Manager_StoreWithoutEngine(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	mgr, err := New(ctx)
	require.NoError(t, err)

	body := multipartBody(filePart("up", "a.txt", "text/plain", "hello"))
	mp, err := mgr.MultipartFromBoundary("BOUND", bytes.NewReader(body))
	require.NoError(t, err)

	part, err := mp.NextPart()
	require.NoError(t, err)

	_, err = mgr.Store(ctx, part)
	assert.ErrorIs(err, multipart.ErrConfig)
}

func Test_Manager_MultipartFromContentType(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	mgr, err := New(ctx)
	require.NoError(t, err)

	body := multipartBody(textPart("note", "hi"))
	mp, err := mgr.Multipart("multipart/form-data; boundary=BOUND", bytes.NewReader(body))
	require.NoError(t, err)

	part, err := mp.NextPart()
	require.NoError(t, err)
	assert.Equal("note", part.FieldName())

	// A bad header is rejected before any parsing
	_, err = mgr.Multipart("text/html", bytes.NewReader(body))
	assert.ErrorIs(err, multipart.ErrParse)
}

////////////////////////////////////////////////////////////////////////////////
// PARSE AND STORE TESTS

func Test_Manager_ParseAndStore(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	engine := storage.NewMemoryStorage()

	mgr, err := New(ctx, WithStorage(engine))
	require.NoError(t, err)

	body := multipartBody(textPart("note", "hi"), filePart("up", "a.txt", "text/plain", "hello"))
	processed, err := mgr.ParseAndStore(ctx, "BOUND", bytes.NewReader(body))
	require.NoError(t, err)

	require.Len(t, processed.TextFields, 1)
	assert.Equal("note", processed.TextFields[0].Name)
	assert.Equal("hi", processed.TextFields[0].Value)

	require.Len(t, processed.StoredFiles, 1)
	stored := processed.StoredFiles[0]
	assert.Equal("up", stored.FieldName)
	if assert.NotNil(stored.FileName) {
		assert.Equal("a.txt", *stored.FileName)
	}
	assert.Equal("text/plain", stored.ContentType)
	assert.Equal(int64(5), stored.Size)

	data, exists := engine.Get(stored.Key)
	assert.True(exists)
	assert.Equal([]byte("hello"), data)
}

func Test_Manager_ParseAndStore_WireOrder(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	mgr, err := New(ctx, WithStorage(storage.NewMemoryStorage()))
	require.NoError(t, err)

	body := multipartBody(
		textPart("first", "1"),
		textPart("second", "2"),
		textPart("third", "3"),
	)
	processed, err := mgr.ParseAndStore(ctx, "BOUND", bytes.NewReader(body))
	require.NoError(t, err)

	require.Len(t, processed.TextFields, 3)
	assert.Equal("first", processed.TextFields[0].Name)
	assert.Equal("second", processed.TextFields[1].Name)
	assert.Equal("third", processed.TextFields[2].Name)
}

func Test_Manager_ParseAndStore_ChunkPermutations(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	body := multipartBody(textPart("note", "hi"), filePart("up", "a.txt", "text/plain", "hello"))
	for _, size := range []int{1, 7, 13, 64, len(body)} {
		mgr, err := New(ctx, WithStorage(storage.NewMemoryStorage()))
		require.NoError(t, err)

		processed, err := mgr.ParseAndStore(ctx, "BOUND", &chunkReader{data: append([]byte(nil), body...), size: size})
		require.NoError(t, err, "chunk size %d", size)

		require.Len(t, processed.TextFields, 1, "chunk size %d", size)
		assert.Equal(schema.FormValue{Name: "note", Value: "hi"}, processed.TextFields[0], "chunk size %d", size)
		require.Len(t, processed.StoredFiles, 1, "chunk size %d", size)
		assert.Equal(int64(5), processed.StoredFiles[0].Size, "chunk size %d", size)
	}
}

func Test_Manager_ParseAndStore_StorageErrorDoesNotPoison(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	// A storage failure is terminal for the store call, not the multipart
	mgr, err := New(ctx, WithStorage(rejectStorage{}))
	require.NoError(t, err)

	body := multipartBody(filePart("up", "a.txt", "text/plain", "hello"), textPart("note", "hi"))
	mp, err := mgr.MultipartFromBoundary("BOUND", bytes.NewReader(body))
	require.NoError(t, err)

	part, err := mp.NextPart()
	require.NoError(t, err)
	_, err = mgr.Store(ctx, part)
	assert.ErrorIs(err, multipart.ErrStorage)

	// The consumer may continue to the next part
	next, err := mp.NextPart()
	require.NoError(t, err)
	assert.Equal("note", next.FieldName())
	text, err := next.Text()
	assert.NoError(err)
	assert.Equal("hi", text)
}
