package parser

import (
	"mime"
	"strings"
	"unicode/utf8"

	// Packages
	multipart "github.com/mutablelogic/go-multipart"
	schema "github.com/mutablelogic/go-multipart/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	headerContentDisposition = "content-disposition"
	headerContentType        = "content-type"

	dispositionFormData = "form-data"

	// Defaults applied when a part declares no usable Content-Type.
	defaultTextContentType = "text/plain"
	defaultFileContentType = "application/octet-stream"
)

// HTTP token characters, per RFC 9110 5.6.2.
var tokenChars [256]bool

func init() {
	for c := byte('0'); c <= '9'; c++ {
		tokenChars[c] = true
	}
	for c := byte('A'); c <= 'Z'; c++ {
		tokenChars[c] = true
	}
	for c := byte('a'); c <= 'z'; c++ {
		tokenChars[c] = true
	}
	for _, c := range []byte("!#$%&'*+-.^_`|~") {
		tokenChars[c] = true
	}
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// ParsePartHeaders parses the raw header block of one part, excluding the
// terminating CRLF CRLF. Content-Disposition is mandatory and must carry a
// form-data disposition with a name parameter. Unknown headers are preserved
// in the Header map but not interpreted.
func ParsePartHeaders(raw []byte) (schema.PartHeaders, error) {
	var headers schema.PartHeaders

	if !utf8.Valid(raw) {
		return headers, multipart.NewParseError("part headers must be UTF-8")
	}

	headers.Header = make(map[string][]string)
	for _, line := range strings.Split(string(raw), "\r\n") {
		if line == "" {
			continue
		}

		name, value, found := strings.Cut(line, ":")
		if !found {
			return headers, multipart.NewParseError("invalid part header line")
		}
		name = strings.ToLower(strings.TrimSpace(name))
		if !isToken(name) {
			return headers, multipart.NewParseError("invalid part header name")
		}
		headers.Header[name] = append(headers.Header[name], strings.Trim(value, " \t"))
	}

	// Content-Disposition: mandatory, form-data, with a name parameter
	disposition := headers.Header[headerContentDisposition]
	switch len(disposition) {
	case 0:
		return headers, multipart.NewParseError("missing Content-Disposition header")
	case 1:
		// continue below
	default:
		return headers, multipart.NewParseError("duplicate Content-Disposition header")
	}

	dispositionType, params, err := mime.ParseMediaType(disposition[0])
	if err != nil {
		return headers, multipart.NewParseError("invalid Content-Disposition header")
	}
	if dispositionType != dispositionFormData {
		return headers, multipart.NewParseError("Content-Disposition must be %s", dispositionFormData)
	}

	name, exists := params["name"]
	if !exists {
		return headers, multipart.NewParseError("missing part name")
	}
	headers.FieldName = name

	// The filename parameter marks a file part even when empty. The RFC 5987
	// filename* form is decoded by ParseMediaType and takes precedence.
	if filename, exists := params["filename"]; exists {
		headers.FileName = &filename
	}

	contentType, err := partContentType(headers.Header[headerContentType], headers.IsFile())
	if err != nil {
		return headers, err
	}
	headers.ContentType = contentType

	// Return success
	return headers, nil
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// partContentType resolves the effective content type of a part. Text parts
// default to text/plain; file parts default to application/octet-stream when
// the header is absent or unparseable.
func partContentType(values []string, isFile bool) (string, error) {
	if len(values) == 0 {
		if isFile {
			return defaultFileContentType, nil
		}
		return defaultTextContentType, nil
	}

	mediatype, _, err := mime.ParseMediaType(values[0])
	if err != nil {
		if isFile {
			return defaultFileContentType, nil
		}
		return "", multipart.NewParseError("invalid part Content-Type header")
	}
	return mediatype, nil
}

func isToken(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !tokenChars[s[i]] {
			return false
		}
	}
	return true
}
