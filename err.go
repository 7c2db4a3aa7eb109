package multipart

import (
	"errors"
	"fmt"
)

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

// Sentinel targets for errors.Is. The concrete error types below carry the
// field names and thresholds and can be unpacked with errors.As.
var (
	ErrParse         = errors.New("multipart parse error")
	ErrConfig        = errors.New("invalid multipart configuration")
	ErrStorage       = errors.New("multipart storage error")
	ErrUpstream      = errors.New("multipart upstream error")
	ErrLimitExceeded = errors.New("multipart limit exceeded")
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// ParseError is a malformed Content-Type header, boundary or part.
type ParseError struct {
	Reason string
}

// ConfigError is a conflicting or impossible parser configuration.
type ConfigError struct {
	Reason string
}

// StorageError wraps a failure reported by a storage engine. It is terminal
// for the current store call but does not poison the multipart stream.
type StorageError struct {
	Err error
}

// UpstreamError wraps an error yielded by the chunk source. The stream is
// unreliable after one of these, so it is terminal for the multipart.
type UpstreamError struct {
	Err error
}

// FileSizeLimitError is a file part body exceeding MaxFileSize.
type FileSizeLimitError struct {
	Field       string
	MaxFileSize int64
}

// FieldSizeLimitError is a text part body exceeding the applicable field size.
type FieldSizeLimitError struct {
	Field        string
	MaxFieldSize int64
}

// BodySizeLimitError is the whole request body exceeding MaxBodySize.
type BodySizeLimitError struct {
	MaxBodySize int64
}

// FilesLimitError is the number of accepted file parts exceeding MaxFiles.
type FilesLimitError struct {
	MaxFiles int
}

// FieldsLimitError is the number of accepted text parts exceeding MaxFields.
type FieldsLimitError struct {
	MaxFields int
}

// MimeTypeError is a part whose content type matches no allowed pattern.
type MimeTypeError struct {
	Field string
	Mime  string
}

// UnexpectedFieldError is a part rejected by the unknown-field policy.
type UnexpectedFieldError struct {
	Field string
}

// FieldCountLimitError is a file field exceeding its per-field count.
type FieldCountLimitError struct {
	Field    string
	MaxCount int
}

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewParseError returns a parse error with a formatted reason.
func NewParseError(format string, args ...any) *ParseError {
	return &ParseError{Reason: fmt.Sprintf(format, args...)}
}

// NewConfigError returns a configuration error with a formatted reason.
func NewConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// NewStorageError wraps a storage engine failure.
func NewStorageError(err error) *StorageError {
	return &StorageError{Err: err}
}

// NewUpstreamError wraps a chunk source failure.
func NewUpstreamError(err error) *UpstreamError {
	return &UpstreamError{Err: err}
}

////////////////////////////////////////////////////////////////////////////////
// ERROR INTERFACE

func (e *ParseError) Error() string {
	return e.Reason
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

func (e *ConfigError) Error() string {
	return e.Reason
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %v", e.Err)
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream: %v", e.Err)
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *FileSizeLimitError) Error() string {
	return fmt.Sprintf("file size limit exceeded for field %q (max %d bytes)", e.Field, e.MaxFileSize)
}

func (e *FileSizeLimitError) Is(target error) bool {
	return target == ErrLimitExceeded
}

func (e *FieldSizeLimitError) Error() string {
	return fmt.Sprintf("field size limit exceeded for field %q (max %d bytes)", e.Field, e.MaxFieldSize)
}

func (e *FieldSizeLimitError) Is(target error) bool {
	return target == ErrLimitExceeded
}

func (e *BodySizeLimitError) Error() string {
	return fmt.Sprintf("body size limit exceeded (max %d bytes)", e.MaxBodySize)
}

func (e *BodySizeLimitError) Is(target error) bool {
	return target == ErrLimitExceeded
}

func (e *FilesLimitError) Error() string {
	return fmt.Sprintf("files limit exceeded (max %d files)", e.MaxFiles)
}

func (e *FilesLimitError) Is(target error) bool {
	return target == ErrLimitExceeded
}

func (e *FieldsLimitError) Error() string {
	return fmt.Sprintf("fields limit exceeded (max %d fields)", e.MaxFields)
}

func (e *FieldsLimitError) Is(target error) bool {
	return target == ErrLimitExceeded
}

func (e *MimeTypeError) Error() string {
	return fmt.Sprintf("mime type %q not allowed for field %q", e.Mime, e.Field)
}

func (e *MimeTypeError) Is(target error) bool {
	return target == ErrLimitExceeded
}

func (e *UnexpectedFieldError) Error() string {
	return fmt.Sprintf("unexpected field %q", e.Field)
}

func (e *FieldCountLimitError) Error() string {
	return fmt.Sprintf("field count limit exceeded for field %q (max %d)", e.Field, e.MaxCount)
}
