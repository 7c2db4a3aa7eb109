package parser

import (
	"mime"
	"strings"

	// Packages
	multipart "github.com/mutablelogic/go-multipart"
	schema "github.com/mutablelogic/go-multipart/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

// RFC 2046 5.1.1 caps the boundary at 70 characters.
const maxBoundaryLen = 70

// Characters legal inside a boundary token, per RFC 2046 5.1.1.
var boundaryChars [256]bool

func init() {
	for c := byte('0'); c <= '9'; c++ {
		boundaryChars[c] = true
	}
	for c := byte('A'); c <= 'Z'; c++ {
		boundaryChars[c] = true
	}
	for c := byte('a'); c <= 'z'; c++ {
		boundaryChars[c] = true
	}
	for _, c := range []byte("'()+_,-./:=? ") {
		boundaryChars[c] = true
	}
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// ExtractBoundary parses a Content-Type header value, requires the
// multipart/form-data essence, and returns the validated boundary parameter.
func ExtractBoundary(contentType string) (string, error) {
	if strings.TrimSpace(contentType) == "" {
		return "", multipart.NewParseError("missing Content-Type header")
	}

	mediatype, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", multipart.NewParseError("invalid Content-Type header")
	}
	if mediatype != schema.ContentTypeFormData {
		return "", multipart.NewParseError("Content-Type must be %s", schema.ContentTypeFormData)
	}

	boundary, exists := params["boundary"]
	if !exists {
		return "", multipart.NewParseError("missing multipart boundary parameter")
	}
	if err := ValidateBoundary(boundary); err != nil {
		return "", err
	}

	// Return success
	return boundary, nil
}

// ValidateBoundary checks a boundary token against the RFC 2046 length and
// character constraints. It is also applied to boundaries supplied directly
// by the caller, where CR and LF must additionally be rejected.
func ValidateBoundary(boundary string) error {
	if boundary == "" {
		return multipart.NewParseError("multipart boundary cannot be empty")
	}
	if strings.ContainsAny(boundary, "\r\n") {
		return multipart.NewParseError("multipart boundary cannot contain CRLF")
	}
	if len(boundary) > maxBoundaryLen {
		return multipart.NewParseError("multipart boundary cannot exceed %d characters", maxBoundaryLen)
	}
	if strings.HasSuffix(boundary, " ") {
		return multipart.NewParseError("multipart boundary cannot end with whitespace")
	}
	for i := 0; i < len(boundary); i++ {
		if !boundaryChars[boundary[i]] {
			return multipart.NewParseError("multipart boundary contains invalid characters")
		}
	}

	// Return success
	return nil
}
