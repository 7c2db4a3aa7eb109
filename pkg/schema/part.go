package schema

import (
	// Packages
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// PartHeaders is the parsed header block of a single multipart part.
// A part is a file part iff FileName is non-nil, even when it points at an
// empty string.
type PartHeaders struct {
	FieldName   string  `json:"field_name"`
	FileName    *string `json:"file_name,omitempty"`
	ContentType string  `json:"content_type"`

	// Header preserves every header line of the part, keyed by the
	// lowercased header name. Unknown headers are kept but not interpreted.
	Header map[string][]string `json:"-"`
}

// FileMeta describes one file part handed to a storage engine, before any
// body bytes are consumed.
type FileMeta struct {
	FieldName   string  `json:"field_name"`
	FileName    *string `json:"file_name,omitempty"`
	ContentType string  `json:"content_type"`
}

// StoredFile is the metadata returned by a storage engine for one persisted
// file part. Path is set by engines that write to a filesystem.
type StoredFile struct {
	Key         string  `json:"key"`
	FieldName   string  `json:"field_name"`
	FileName    *string `json:"file_name,omitempty"`
	ContentType string  `json:"content_type"`
	Size        int64   `json:"size"`
	Path        *string `json:"path,omitempty"`
}

// FormValue is one collected text field, in wire order.
type FormValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ProcessedMultipart is the aggregated result of draining a multipart
// stream: files routed to storage and text fields collected in wire order.
type ProcessedMultipart struct {
	StoredFiles []StoredFile `json:"stored_files"`
	TextFields  []FormValue  `json:"text_fields"`
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// IsFile returns true when the part carries a filename parameter.
func (h PartHeaders) IsFile() bool {
	return h.FileName != nil
}

// FileMeta returns the storage metadata for a file part.
func (h PartHeaders) FileMeta() FileMeta {
	return FileMeta{
		FieldName:   h.FieldName,
		FileName:    h.FileName,
		ContentType: h.ContentType,
	}
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (h PartHeaders) String() string {
	return types.Stringify(h)
}

func (m FileMeta) String() string {
	return types.Stringify(m)
}

func (f StoredFile) String() string {
	return types.Stringify(f)
}

func (p ProcessedMultipart) String() string {
	return types.Stringify(p)
}
