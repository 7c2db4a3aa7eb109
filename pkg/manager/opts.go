package manager

import (
	// Packages
	trace "go.opentelemetry.io/otel/trace"

	multipart "github.com/mutablelogic/go-multipart"
	schema "github.com/mutablelogic/go-multipart/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Opt is a functional option for manager configuration.
type Opt func(*opts) error

type opts struct {
	config  multipart.Config
	storage multipart.Storage
	tracer  trace.Tracer
}

////////////////////////////////////////////////////////////////////////////////
// OPTIONS

// WithTracer sets the tracer used for tracing operations.
func WithTracer(tracer trace.Tracer) Opt {
	return func(o *opts) error {
		o.tracer = tracer
		return nil
	}
}

// WithStorage attaches a storage engine for file parts.
func WithStorage(storage multipart.Storage) Opt {
	return func(o *opts) error {
		o.storage = storage
		return nil
	}
}

// WithConfig replaces the full parser configuration.
func WithConfig(config multipart.Config) Opt {
	return func(o *opts) error {
		o.config = config
		return nil
	}
}

// WithSelector replaces the active file field selector.
func WithSelector(selector schema.Selector) Opt {
	return func(o *opts) error {
		o.config.Selector = selector
		return nil
	}
}

// WithSingle accepts exactly one file part for the named field.
func WithSingle(name string) Opt {
	return WithSelector(schema.Single(name))
}

// WithArray accepts up to maxCount file parts for the named field.
func WithArray(name string, maxCount int) Opt {
	return WithSelector(schema.Array(name, maxCount))
}

// WithFields accepts the enumerated fields only.
func WithFields(fields ...schema.SelectedField) Opt {
	return WithSelector(schema.Fields(fields...))
}

// WithAny accepts every file part.
func WithAny() Opt {
	return WithSelector(schema.Any())
}

// WithNone treats every file part as unknown.
func WithNone() Opt {
	return WithSelector(schema.None())
}

// WithUnknownFieldPolicy sets how unknown fields are handled.
func WithUnknownFieldPolicy(policy schema.UnknownFieldPolicy) Opt {
	return func(o *opts) error {
		o.config.UnknownFieldPolicy = policy
		return nil
	}
}

// WithLimits replaces the global limits.
func WithLimits(limits schema.Limits) Opt {
	return func(o *opts) error {
		o.config.Limits = limits
		return nil
	}
}

// WithMaxFileSize caps a single file part body, in bytes.
func WithMaxFileSize(size int64) Opt {
	return func(o *opts) error {
		o.config.Limits.MaxFileSize = size
		return nil
	}
}

// WithMaxFieldSize caps a single text field body, in bytes.
func WithMaxFieldSize(size int64) Opt {
	return func(o *opts) error {
		o.config.Limits.MaxFieldSize = size
		return nil
	}
}

// WithMaxBodySize caps the total multipart request body, in bytes.
func WithMaxBodySize(size int64) Opt {
	return func(o *opts) error {
		o.config.Limits.MaxBodySize = size
		return nil
	}
}

// WithMaxFiles caps the number of accepted file parts.
func WithMaxFiles(n int) Opt {
	return func(o *opts) error {
		o.config.Limits.MaxFiles = n
		return nil
	}
}

// WithMaxFields caps the number of accepted text fields.
func WithMaxFields(n int) Opt {
	return func(o *opts) error {
		o.config.Limits.MaxFields = n
		return nil
	}
}

// WithAllowedMimeTypes sets the global MIME whitelist patterns.
func WithAllowedMimeTypes(patterns ...string) Opt {
	return func(o *opts) error {
		o.config.Limits.AllowedMimeTypes = patterns
		return nil
	}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func applyOpts(opt []Opt) (opts, error) {
	// Set defaults: accept any file part, ignore unknown fields, no limits
	o := opts{}

	// Apply options
	for _, fn := range opt {
		if err := fn(&o); err != nil {
			return opts{}, err
		}
	}

	// Return success
	return o, nil
}
