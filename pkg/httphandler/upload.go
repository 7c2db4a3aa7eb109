package httphandler

import (
	"errors"
	"net/http"

	// Packages
	httprequest "github.com/mutablelogic/go-server/pkg/httprequest"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	types "github.com/mutablelogic/go-server/pkg/types"

	multipart "github.com/mutablelogic/go-multipart"
	manager "github.com/mutablelogic/go-multipart/pkg/manager"
	parser "github.com/mutablelogic/go-multipart/pkg/parser"
	schema "github.com/mutablelogic/go-multipart/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type describeResponse struct {
	Limits             schema.Limits `json:"limits"`
	UnknownFieldPolicy string        `json:"unknown_field_policy"`
	Storage            bool          `json:"storage"`
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// describe handles GET requests, returning the active limits and policy.
func describe(w http.ResponseWriter, r *http.Request, manager *manager.Manager) error {
	config := manager.Config()
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), describeResponse{
		Limits:             config.Limits,
		UnknownFieldPolicy: config.UnknownFieldPolicy.String(),
		Storage:            manager.Storage() != nil,
	})
}

// upload handles POST requests carrying a multipart/form-data body. File
// parts are routed to the storage engine, text fields are collected, and
// the processed result is returned as JSON. Any parser, selector or limit
// error is rendered as a 4xx status with the error text as the body.
func upload(w http.ResponseWriter, r *http.Request, manager *manager.Manager) error {
	boundary, err := parser.ExtractBoundary(r.Header.Get(types.ContentTypeHeader))
	if err != nil {
		return httpresponse.Error(w, httpErr(err))
	}

	processed, err := manager.ParseAndStore(r.Context(), boundary, r.Body)
	if err != nil {
		return httpresponse.Error(w, httpErr(err))
	}

	return httpresponse.JSON(w, http.StatusCreated, httprequest.Indent(r), processed)
}

// httpErr maps a multipart error onto an HTTP status error. The error text
// is passed through verbatim as the response body.
func httpErr(err error) error {
	return httpresponse.Err(statusFor(err)).With(err.Error())
}

func statusFor(err error) int {
	var mimeErr *multipart.MimeTypeError
	switch {
	case errors.As(err, &mimeErr):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, multipart.ErrLimitExceeded):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, multipart.ErrParse), errors.Is(err, multipart.ErrUpstream):
		return http.StatusBadRequest
	case errors.Is(err, multipart.ErrStorage), errors.Is(err, multipart.ErrConfig):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
