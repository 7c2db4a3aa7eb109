package manager

import (
	"context"
	"errors"
	"io"

	// Packages
	otel "github.com/mutablelogic/go-client/pkg/otel"

	multipart "github.com/mutablelogic/go-multipart"
	parser "github.com/mutablelogic/go-multipart/pkg/parser"
	schema "github.com/mutablelogic/go-multipart/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Manager ties the parser, selector engine and storage engine together. It
// is safe to share across requests; each request gets its own Multipart.
type Manager struct {
	opts
}

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New creates a new multipart manager with validated configuration.
func New(ctx context.Context, opts ...Opt) (*Manager, error) {
	self := new(Manager)

	// Apply options
	if opt, err := applyOpts(opts); err != nil {
		return nil, err
	} else {
		self.opts = opt
	}

	// Validate the configuration before any parsing happens
	if err := self.config.Validate(); err != nil {
		return nil, err
	}

	// Return success
	return self, nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Config returns a snapshot of the active configuration.
func (manager *Manager) Config() multipart.Config {
	return manager.config
}

// Storage returns the configured storage engine, or nil.
func (manager *Manager) Storage() multipart.Storage {
	return manager.storage
}

// Multipart extracts the boundary from a Content-Type header value and
// returns a configured part iterator over the body stream.
func (manager *Manager) Multipart(contentType string, src io.Reader) (*Multipart, error) {
	boundary, err := parser.ExtractBoundary(contentType)
	if err != nil {
		return nil, err
	}
	return manager.MultipartFromBoundary(boundary, src)
}

// MultipartFromBoundary returns a configured part iterator for an already
// extracted boundary.
func (manager *Manager) MultipartFromBoundary(boundary string, src io.Reader) (*Multipart, error) {
	return newMultipart(boundary, src, manager.config)
}

// Store hands the remaining body of a file part to the configured storage
// engine. A storage failure is terminal for this call only; the multipart
// stream can continue to the next part.
func (manager *Manager) Store(ctx context.Context, part *parser.Part) (*schema.StoredFile, error) {
	if manager.storage == nil {
		return nil, multipart.NewConfigError("no storage engine configured")
	}

	// OTEL span
	var result error
	child, endFunc := otel.StartSpan(manager.tracer, ctx, spanManagerName("Store"))
	defer func() { endFunc(result) }()

	stored, err := manager.storage.Store(child, part.Headers().FileMeta(), part)
	if err != nil {
		// A parse or limit failure on the body stream surfaces as itself;
		// anything else is a storage engine failure.
		if isMultipartErr(err) {
			result = err
		} else {
			result = multipart.NewStorageError(err)
		}
		return nil, result
	}

	// Return success
	return stored, nil
}

// ParseAndStore drains the multipart body, routing file parts to the
// storage engine and collecting text fields in wire order.
func (manager *Manager) ParseAndStore(ctx context.Context, boundary string, src io.Reader) (*schema.ProcessedMultipart, error) {
	// OTEL span
	var result error
	child, endFunc := otel.StartSpan(manager.tracer, ctx, spanManagerName("ParseAndStore"))
	defer func() { endFunc(result) }()

	mp, err := manager.MultipartFromBoundary(boundary, src)
	if err != nil {
		result = err
		return nil, err
	}

	out := &schema.ProcessedMultipart{
		StoredFiles: []schema.StoredFile{},
		TextFields:  []schema.FormValue{},
	}
	for {
		part, err := mp.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			result = err
			return nil, err
		}

		if part.IsFile() {
			stored, err := manager.Store(child, part)
			if err != nil {
				result = err
				return nil, err
			}
			out.StoredFiles = append(out.StoredFiles, *stored)
		} else {
			text, err := part.Text()
			if err != nil {
				result = err
				return nil, err
			}
			out.TextFields = append(out.TextFields, schema.FormValue{Name: part.FieldName(), Value: text})
		}
	}

	// Return success
	return out, nil
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func spanManagerName(op string) string {
	return schema.SchemaName + ".manager." + op
}

func isMultipartErr(err error) bool {
	return errors.Is(err, multipart.ErrParse) ||
		errors.Is(err, multipart.ErrConfig) ||
		errors.Is(err, multipart.ErrLimitExceeded) ||
		errors.Is(err, multipart.ErrUpstream) ||
		errors.Is(err, multipart.ErrStorage)
}
