package multipart

import (
	"context"
	"io"

	// Packages
	schema "github.com/mutablelogic/go-multipart/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// INTERFACES

// Storage is the interface for multipart storage engines. An engine consumes
// one file body stream and returns metadata describing where it was stored.
// The engine must drain the body to completion or short-circuit with an error.
type Storage interface {
	// Store persists a single file part. The meta describes the part headers
	// and the reader yields the part body in wire order.
	Store(context.Context, schema.FileMeta, io.Reader) (*schema.StoredFile, error)
}

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Config is the validated multipart parser configuration: which file fields
// to accept, how to treat unknown fields, and the global limits.
type Config struct {
	Selector           schema.Selector
	UnknownFieldPolicy schema.UnknownFieldPolicy
	Limits             schema.Limits
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Validate checks the configuration for conflicting or impossible rules.
func (c Config) Validate() error {
	switch c.Selector.Kind() {
	case schema.SelectorSingle:
		if c.Selector.Name() == "" {
			return NewConfigError("selector field name cannot be empty")
		}
	case schema.SelectorArray:
		if c.Selector.Name() == "" {
			return NewConfigError("selector field name cannot be empty")
		}
		if c.Selector.MaxCount() == 0 {
			return NewConfigError("array selector max_count cannot be zero")
		}
	case schema.SelectorFields:
		seen := make(map[string]bool, len(c.Selector.Fields()))
		for _, field := range c.Selector.Fields() {
			if field.Name == "" {
				return NewConfigError("selector field name cannot be empty")
			}
			if seen[field.Name] {
				return NewConfigError("duplicate selector field %q", field.Name)
			}
			seen[field.Name] = true
		}
	}

	// Return success
	return nil
}
