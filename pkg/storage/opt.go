package storage

import (
	// Packages
	aws "github.com/aws/aws-sdk-go-v2/aws"
	trace "go.opentelemetry.io/otel/trace"

	schema "github.com/mutablelogic/go-multipart/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type opt struct {
	dest      string
	strategy  FilenameStrategy
	custom    func(string) string
	filter    func(schema.FileMeta) bool
	createDir bool
	tracer    trace.Tracer // optional OTel tracer; when set, AWS SDK middleware is injected
	awsConfig *aws.Config
}

// Opt represents a function that modifies the storage engine options
type Opt func(*opt) error

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func apply(opts ...Opt) (*opt, error) {
	// Apply options
	o := opt{strategy: FilenameKeep}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}
	// Return success
	return &o, nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// WithDestination sets the root directory for the disk engine. The
// directory is created recursively when missing.
func WithDestination(dir string) Opt {
	return func(o *opt) error {
		o.dest = dir
		return nil
	}
}

// WithFilename sets the filename strategy for the disk engine.
func WithFilename(strategy FilenameStrategy) Opt {
	return func(o *opt) error {
		o.strategy = strategy
		return nil
	}
}

// WithCustomFilename derives filenames through fn. The result is sanitized
// before use.
func WithCustomFilename(fn func(string) string) Opt {
	return func(o *opt) error {
		o.strategy = FilenameCustom
		o.custom = fn
		return nil
	}
}

// WithFilter gates files before anything is written. When the predicate
// returns false the store call fails and no file or directory is created.
func WithFilter(fn func(schema.FileMeta) bool) Opt {
	return func(o *opt) error {
		o.filter = fn
		return nil
	}
}

// WithCreateDir sets create_dir=true for file:// bucket URLs so the
// directory is created if it doesn't exist
func WithCreateDir() Opt {
	return func(o *opt) error {
		o.createDir = true
		return nil
	}
}

// WithTracer sets the OpenTelemetry tracer for the engine. When set on an
// s3:// bucket together with WithAWSConfig, AWS SDK middleware is injected
// so each S3 API call produces a child span.
func WithTracer(tracer trace.Tracer) Opt {
	return func(o *opt) error {
		o.tracer = tracer
		return nil
	}
}

// WithAWSConfig provides an AWS SDK v2 Config directly. When provided for
// s3:// URLs, this config is used instead of the URL-based configuration.
func WithAWSConfig(cfg aws.Config) Opt {
	return func(o *opt) error {
		o.awsConfig = &cfg
		return nil
	}
}
