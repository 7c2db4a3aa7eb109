package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	// Packages
	uuid "github.com/google/uuid"
	otelaws "go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
	blob "gocloud.dev/blob"
	s3blob "gocloud.dev/blob/s3blob"
	gcerrors "gocloud.dev/gcerrors"

	multipart "github.com/mutablelogic/go-multipart"
	schema "github.com/mutablelogic/go-multipart/pkg/schema"

	// Drivers
	_ "gocloud.dev/blob/fileblob" // file:// URLs
	_ "gocloud.dev/blob/memblob"  // mem:// URLs
	_ "gocloud.dev/blob/s3blob"   // s3:// URLs
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// BlobStorage persists stored files into a Go CDK bucket. Supported URL
// schemes: s3://, file://, mem://
// Examples:
//   - "s3://my-bucket?region=us-east-1"
//   - "file:///path/to/directory"
//   - "mem://"
//
// For S3 URLs, you can optionally provide an aws.Config via WithAWSConfig()
// for full control over AWS SDK configuration.
type BlobStorage struct {
	bucket       *blob.Bucket
	url          *url.URL
	bucketPrefix string // key prefix for bucket operations (empty for file://)
}

var _ multipart.Storage = (*BlobStorage)(nil)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewBlobStorage opens a bucket for the given URL and returns a storage
// engine writing uploads into it.
func NewBlobStorage(ctx context.Context, u string, opts ...Opt) (*BlobStorage, error) {
	self := new(BlobStorage)

	// Set the options
	parsed, err := url.Parse(u)
	if err != nil {
		return nil, err
	}
	o, err := apply(opts...)
	if err != nil {
		return nil, err
	}
	self.url = parsed

	// For s3/mem the URL path becomes a key prefix; for file:// the path is
	// the bucket root directory.
	if parsed.Scheme != "file" {
		self.bucketPrefix = strings.Trim(parsed.Path, "/")
	}

	// Open the bucket
	var bucket *blob.Bucket
	if parsed.Scheme == "s3" && o.awsConfig != nil {
		// Use the provided AWS config to open the S3 bucket directly
		cfg := *o.awsConfig
		if o.tracer != nil {
			otelaws.AppendMiddlewares(&cfg.APIOptions)
		}
		client := s3blob.Dial(cfg)
		bucket, err = s3blob.OpenBucket(ctx, client, parsed.Host, nil)
	} else if parsed.Scheme == "file" {
		openURL := &url.URL{Scheme: "file", Path: parsed.Path}
		if o.createDir {
			openURL.RawQuery = "create_dir=true"
		}
		bucket, err = blob.OpenBucket(ctx, openURL.String())
	} else {
		// For s3, mem, etc.: open at root (strip path) to avoid PrefixedBucket
		openURL := *parsed
		openURL.Path = ""
		openURL.RawPath = ""
		bucket, err = blob.OpenBucket(ctx, openURL.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket: %w", err)
	}
	self.bucket = bucket

	// Return success
	return self, nil
}

// Close the bucket
func (b *BlobStorage) Close() error {
	var result error
	if b.bucket != nil {
		result = errors.Join(result, b.bucket.Close())
		b.bucket = nil
	}

	// Return any errors
	return result
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// URL returns the bucket URL for the engine
func (b *BlobStorage) URL() *url.URL {
	return b.url
}

// Store streams the body into a new bucket object keyed by the field name
// and a fresh UUID. A partially written object is deleted on any error.
func (b *BlobStorage) Store(ctx context.Context, meta schema.FileMeta, body io.Reader) (*schema.StoredFile, error) {
	key := b.storageKey(meta)

	writer, err := b.bucket.NewWriter(ctx, key, &blob.WriterOptions{
		ContentType: meta.ContentType,
	})
	if err != nil {
		return nil, blobErr(err, key)
	}

	size, err := io.Copy(writer, body)
	if err != nil {
		writer.Close()
		b.bucket.Delete(ctx, key)
		return nil, blobErr(err, key)
	}
	if err := writer.Close(); err != nil {
		b.bucket.Delete(ctx, key)
		return nil, blobErr(err, key)
	}

	stored := &schema.StoredFile{
		Key:         key,
		FieldName:   meta.FieldName,
		FileName:    meta.FileName,
		ContentType: meta.ContentType,
		Size:        size,
	}

	// For file:// buckets the object has a real filesystem path
	if b.url.Scheme == "file" {
		location := filepath.Join(b.url.Path, filepath.FromSlash(key))
		stored.Path = &location
	}

	// Return success
	return stored, nil
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// storageKey derives a unique bucket key for one stored file, prefixed by
// the bucket path and the field name.
func (b *BlobStorage) storageKey(meta schema.FileMeta) string {
	name := uuid.NewString()
	if meta.FileName != nil && *meta.FileName != "" {
		name = name + "-" + SanitizeFilename(*meta.FileName)
	}
	return path.Join(b.bucketPrefix, meta.FieldName, name)
}

// blobErr wraps a go-cloud blob error with context about the failed key
func blobErr(err error, key string) error {
	if err == nil {
		return nil
	}
	switch gcerrors.Code(err) {
	case gcerrors.NotFound:
		return fmt.Errorf("object %q not found: %w", key, err)
	case gcerrors.PermissionDenied:
		return fmt.Errorf("permission denied for %q: %w", key, err)
	case gcerrors.InvalidArgument:
		return fmt.Errorf("invalid argument for %q: %w", key, err)
	default:
		return err
	}
}
