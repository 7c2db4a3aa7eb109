package manager

import (
	"io"

	// Packages
	multipart "github.com/mutablelogic/go-multipart"
	parser "github.com/mutablelogic/go-multipart/pkg/parser"
	schema "github.com/mutablelogic/go-multipart/pkg/schema"
	selector "github.com/mutablelogic/go-multipart/pkg/selector"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Multipart is a configured pull-based iterator over the parts of one
// request body. Parts are yielded in wire order; selector and limit checks
// run as each part's headers become available. A Multipart must be driven
// by one goroutine at a time.
type Multipart struct {
	stream *parser.Stream
	engine *selector.Engine
	limits schema.Limits
	files  int
	fields int
	failed bool
}

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func newMultipart(boundary string, src io.Reader, config multipart.Config) (*Multipart, error) {
	stream, err := parser.NewWithLimits(boundary, src, config.Limits)
	if err != nil {
		return nil, err
	}

	// Return success
	return &Multipart{
		stream: stream,
		engine: selector.New(config.Selector, config.UnknownFieldPolicy),
		limits: config.Limits,
	}, nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// NextPart drains any in-progress part and returns the next accepted one,
// or io.EOF after the closing boundary. Ignored parts are skipped
// transparently. Any error is terminal: later calls report io.EOF.
func (m *Multipart) NextPart() (*parser.Part, error) {
	if m.failed {
		return nil, io.EOF
	}

	for {
		part, err := m.stream.Next()
		if err != nil {
			if err != io.EOF {
				m.failed = true
			}
			return nil, err
		}

		if part.IsFile() {
			accepted, err := m.acceptFile(part)
			if err != nil {
				m.failed = true
				return nil, err
			}
			if !accepted {
				continue
			}
			return part, nil
		}

		accepted, err := m.acceptText(part)
		if err != nil {
			m.failed = true
			return nil, err
		}
		if !accepted {
			continue
		}
		return part, nil
	}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// acceptFile consults the selector, the MIME whitelists and the global file
// count for a file part.
func (m *Multipart) acceptFile(part *parser.Part) (bool, error) {
	action, err := m.engine.EvaluateFileField(part.FieldName())
	if err != nil {
		return false, err
	}
	if action == selector.Ignore {
		return false, nil
	}

	if !schema.MatchMime(m.limits.AllowedMimeTypes, part.ContentType()) {
		return false, &multipart.MimeTypeError{Field: part.FieldName(), Mime: part.ContentType()}
	}
	if patterns := m.engine.FieldMimeTypes(part.FieldName()); !schema.MatchMime(patterns, part.ContentType()) {
		return false, &multipart.MimeTypeError{Field: part.FieldName(), Mime: part.ContentType()}
	}

	m.files++
	if m.limits.MaxFiles > 0 && m.files > m.limits.MaxFiles {
		return false, &multipart.FilesLimitError{MaxFiles: m.limits.MaxFiles}
	}

	// Return success
	return true, nil
}

// acceptText consults the selector and the global field count for a text
// part, tightening the per-part size cap when the selected field carries
// its own.
func (m *Multipart) acceptText(part *parser.Part) (bool, error) {
	action, err := m.engine.EvaluateTextField(part.FieldName())
	if err != nil {
		return false, err
	}
	if action == selector.Ignore {
		return false, nil
	}

	if maxSize := m.engine.FieldTextMaxSize(part.FieldName()); maxSize > 0 {
		part.ClampMaxSize(maxSize)
	}

	m.fields++
	if m.limits.MaxFields > 0 && m.fields > m.limits.MaxFields {
		return false, &multipart.FieldsLimitError{MaxFields: m.limits.MaxFields}
	}

	// Return success
	return true, nil
}
