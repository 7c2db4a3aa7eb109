package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	// Packages
	uuid "github.com/google/uuid"

	multipart "github.com/mutablelogic/go-multipart"
	schema "github.com/mutablelogic/go-multipart/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// DiskStorage writes each stored file under a destination directory as a
// single sanitized path component.
type DiskStorage struct {
	dest     string
	strategy FilenameStrategy
	custom   func(string) string
	filter   func(schema.FileMeta) bool
}

var _ multipart.Storage = (*DiskStorage)(nil)

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

// Collisions under the Keep and Custom strategies retry with a numeric
// suffix up to this many times before failing.
const maxCollisionAttempts = 100

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewDiskStorage creates a disk engine. WithDestination is required; the
// directory is created on first store, not here, so the filter gate can run
// before anything touches the filesystem.
func NewDiskStorage(opts ...Opt) (*DiskStorage, error) {
	o, err := apply(opts...)
	if err != nil {
		return nil, err
	}
	if o.dest == "" {
		return nil, multipart.NewConfigError("disk storage requires a destination directory")
	}
	if o.strategy == FilenameCustom && o.custom == nil {
		return nil, multipart.NewConfigError("custom filename strategy requires a function")
	}

	// Return success
	return &DiskStorage{
		dest:     o.dest,
		strategy: o.strategy,
		custom:   o.custom,
		filter:   o.filter,
	}, nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Destination returns the configured root directory.
func (d *DiskStorage) Destination() string {
	return d.dest
}

// Store streams the body to a new file under the destination directory.
// A partially written file is removed on any read or write error.
func (d *DiskStorage) Store(ctx context.Context, meta schema.FileMeta, body io.Reader) (*schema.StoredFile, error) {
	// Filter gate runs before any directory or file is created
	if d.filter != nil && !d.filter(meta) {
		return nil, fmt.Errorf("filter rejected file for field %q", meta.FieldName)
	}

	if err := os.MkdirAll(d.dest, 0o755); err != nil {
		return nil, err
	}

	file, path, err := d.create(meta)
	if err != nil {
		return nil, err
	}

	size, err := copyContext(ctx, file, body)
	if err == nil {
		err = file.Close()
	} else {
		file.Close()
	}
	if err != nil {
		os.Remove(path)
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	// Return success
	return &schema.StoredFile{
		Key:         abs,
		FieldName:   meta.FieldName,
		FileName:    meta.FileName,
		ContentType: meta.ContentType,
		Size:        size,
		Path:        &abs,
	}, nil
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// create opens a new file exclusively, retrying with a numeric suffix when
// the derived name collides with an existing file.
func (d *DiskStorage) create(meta schema.FileMeta) (*os.File, string, error) {
	name := d.filename(meta)
	for attempt := 0; attempt < maxCollisionAttempts; attempt++ {
		candidate := name
		if attempt > 0 {
			candidate = suffixed(name, attempt)
		}
		path := filepath.Join(d.dest, candidate)
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return file, path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("too many filename collisions for %q", name)
}

func (d *DiskStorage) filename(meta schema.FileMeta) string {
	var incoming string
	if meta.FileName != nil {
		incoming = *meta.FileName
	}

	switch d.strategy {
	case FilenameRandom:
		return uuid.NewString()
	case FilenameCustom:
		return SanitizeFilename(d.custom(incoming))
	default:
		return SanitizeFilename(incoming)
	}
}

// suffixed inserts "-n" before the filename extension.
func suffixed(name string, n int) string {
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), n, ext)
}

// copyContext copies body to dst, checking for cancellation between chunks.
func copyContext(ctx context.Context, dst io.Writer, body io.Reader) (int64, error) {
	var size int64
	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return size, err
		}
		n, err := body.Read(buf)
		if n > 0 {
			written, werr := dst.Write(buf[:n])
			size += int64(written)
			if werr != nil {
				return size, werr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return size, nil
			}
			return size, err
		}
	}
}
