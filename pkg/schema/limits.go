package schema

import (
	"mime"
	"strings"

	// Packages
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Limits is the bundle of global thresholds consulted while streaming.
// Zero values mean unlimited.
type Limits struct {
	// MaxFileSize caps the body of a single file part, in bytes.
	MaxFileSize int64 `json:"max_file_size,omitempty"`
	// MaxFieldSize caps the body of a single text field, in bytes.
	MaxFieldSize int64 `json:"max_field_size,omitempty"`
	// MaxBodySize caps the total bytes received from the chunk source.
	MaxBodySize int64 `json:"max_body_size,omitempty"`
	// MaxFiles caps the number of accepted file parts.
	MaxFiles int `json:"max_files,omitempty"`
	// MaxFields caps the number of accepted text fields.
	MaxFields int `json:"max_fields,omitempty"`
	// AllowedMimeTypes is the global whitelist of MIME patterns. Patterns
	// are exact essences ("image/png") or wildcard subtypes ("image/*").
	AllowedMimeTypes []string `json:"allowed_mime_types,omitempty"`
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Essence reduces a content type to its lowercased type/subtype form,
// dropping parameters. Unparseable values are returned lowercased as-is.
func Essence(contentType string) string {
	if mediatype, _, err := mime.ParseMediaType(contentType); err == nil {
		return mediatype
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// MatchMime reports whether the content type essence matches at least one
// pattern. An empty pattern list matches everything.
func MatchMime(patterns []string, contentType string) bool {
	if len(patterns) == 0 {
		return true
	}
	essence := Essence(contentType)
	for _, pattern := range patterns {
		if matchMimePattern(strings.ToLower(pattern), essence) {
			return true
		}
	}
	return false
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func matchMimePattern(pattern, essence string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		maintype, _, found := strings.Cut(essence, "/")
		return found && maintype == prefix
	}
	return pattern == essence
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (l Limits) String() string {
	return types.Stringify(l)
}
