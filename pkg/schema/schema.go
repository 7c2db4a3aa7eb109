package schema

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	SchemaName = "multipart"

	// ContentTypeFormData is the only media type accepted by the parser.
	ContentTypeFormData = "multipart/form-data"
)
