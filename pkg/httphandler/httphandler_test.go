package httphandler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	// Packages
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"

	manager "github.com/mutablelogic/go-multipart/pkg/manager"
	schema "github.com/mutablelogic/go-multipart/pkg/schema"
	storage "github.com/mutablelogic/go-multipart/pkg/storage"
)

////////////////////////////////////////////////////////////////////////////////
// HELPERS

const prefix = "/api/multipart"

func newRouter(t *testing.T, opts ...manager.Opt) *http.ServeMux {
	t.Helper()
	mgr, err := manager.New(context.Background(), opts...)
	require.NoError(t, err)

	router := http.NewServeMux()
	RegisterHandlers(router, prefix, mgr, nil)
	return router
}

// formBody builds a multipart/form-data body with the standard library
// writer, returning the body and its content type.
func formBody(t *testing.T, fields map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for name, value := range fields {
		require.NoError(t, writer.WriteField(name, value))
	}
	for name, data := range files {
		part, err := writer.CreateFormFile(name, name+".bin")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

////////////////////////////////////////////////////////////////////////////////
// HANDLER TESTS

func Test_HTTPHandler_Describe(t *testing.T) {
	assert := assert.New(t)
	router := newRouter(t,
		manager.WithStorage(storage.NewMemoryStorage()),
		manager.WithMaxFileSize(1024),
	)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, prefix, nil))

	assert.Equal(http.StatusOK, recorder.Code)

	var response describeResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(int64(1024), response.Limits.MaxFileSize)
	assert.True(response.Storage)
	assert.Equal("ignore", response.UnknownFieldPolicy)
}

func Test_HTTPHandler_Upload(t *testing.T) {
	assert := assert.New(t)
	engine := storage.NewMemoryStorage()
	router := newRouter(t, manager.WithStorage(engine))

	body, contentType := formBody(t,
		map[string]string{"note": "hi"},
		map[string][]byte{"upload": []byte("hello")},
	)
	request := httptest.NewRequest(http.MethodPost, prefix+"/upload", body)
	request.Header.Set("Content-Type", contentType)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	var processed schema.ProcessedMultipart
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &processed))
	require.Len(t, processed.TextFields, 1)
	assert.Equal("note", processed.TextFields[0].Name)
	assert.Equal("hi", processed.TextFields[0].Value)
	require.Len(t, processed.StoredFiles, 1)
	assert.Equal("upload", processed.StoredFiles[0].FieldName)
	assert.Equal(int64(5), processed.StoredFiles[0].Size)
	assert.Equal(1, engine.Len())
}

func Test_HTTPHandler_UploadBadContentType(t *testing.T) {
	assert := assert.New(t)
	router := newRouter(t, manager.WithStorage(storage.NewMemoryStorage()))

	request := httptest.NewRequest(http.MethodPost, prefix+"/upload", bytes.NewReader(nil))
	request.Header.Set("Content-Type", "application/json")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	assert.Equal(http.StatusBadRequest, recorder.Code)
}

func Test_HTTPHandler_UploadFileTooLarge(t *testing.T) {
	assert := assert.New(t)
	router := newRouter(t,
		manager.WithStorage(storage.NewMemoryStorage()),
		manager.WithMaxFileSize(4),
	)

	body, contentType := formBody(t, nil, map[string][]byte{"upload": bytes.Repeat([]byte("z"), 64)})
	request := httptest.NewRequest(http.MethodPost, prefix+"/upload", body)
	request.Header.Set("Content-Type", contentType)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	assert.Equal(http.StatusRequestEntityTooLarge, recorder.Code)
}

func Test_HTTPHandler_UploadDisallowedMime(t *testing.T) {
	assert := assert.New(t)
	router := newRouter(t,
		manager.WithStorage(storage.NewMemoryStorage()),
		manager.WithAllowedMimeTypes("image/*"),
	)

	body, contentType := formBody(t, nil, map[string][]byte{"upload": []byte("data")})
	request := httptest.NewRequest(http.MethodPost, prefix+"/upload", body)
	request.Header.Set("Content-Type", contentType)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	assert.Equal(http.StatusUnsupportedMediaType, recorder.Code)
}

func Test_HTTPHandler_MethodNotAllowed(t *testing.T) {
	assert := assert.New(t)
	router := newRouter(t, manager.WithStorage(storage.NewMemoryStorage()))

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodDelete, prefix+"/upload", nil))
	assert.Equal(http.StatusMethodNotAllowed, recorder.Code)
}
