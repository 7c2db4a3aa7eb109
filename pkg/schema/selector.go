package schema

import (
	// Packages
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// SelectorKind discriminates the selector strategies.
type SelectorKind int

// FieldKind discriminates between file and text fields.
type FieldKind int

// UnknownFieldPolicy decides what happens to parts whose field name is not
// covered by the active selector.
type UnknownFieldPolicy int

// Selector is the declarative policy choosing which file parts to accept,
// by name, kind and count. Construct with Single, Array, Fields, None or Any.
type Selector struct {
	kind     SelectorKind
	name     string
	maxCount int
	fields   []SelectedField
}

// SelectedField is one entry of a Fields selector: a named field with a
// kind, an optional count or size cap, and an optional MIME whitelist.
// Zero caps mean unlimited.
type SelectedField struct {
	Name             string    `json:"name"`
	Kind             FieldKind `json:"kind"`
	MaxCount         int       `json:"max_count,omitempty"`
	MaxSize          int64     `json:"max_size,omitempty"`
	AllowedMimeTypes []string  `json:"allowed_mime_types,omitempty"`
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	// SelectorAny accepts every file part. This is the permissive default.
	SelectorAny SelectorKind = iota
	// SelectorSingle accepts exactly one file part for a named field.
	SelectorSingle
	// SelectorArray accepts up to maxCount file parts for a named field.
	SelectorArray
	// SelectorFields accepts the enumerated fields only.
	SelectorFields
	// SelectorNone treats every file part as unknown.
	SelectorNone
)

const (
	FieldFile FieldKind = iota
	FieldText
)

const (
	// UnknownFieldIgnore silently drains and skips unknown parts.
	UnknownFieldIgnore UnknownFieldPolicy = iota
	// UnknownFieldReject surfaces an error for unknown parts.
	UnknownFieldReject
)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// Single selects exactly one file part for the named field.
func Single(name string) Selector {
	return Selector{kind: SelectorSingle, name: name, maxCount: 1}
}

// Array selects up to maxCount file parts for the named field. A maxCount
// of zero is rejected by config validation.
func Array(name string, maxCount int) Selector {
	return Selector{kind: SelectorArray, name: name, maxCount: maxCount}
}

// Fields selects the enumerated fields only.
func Fields(fields ...SelectedField) Selector {
	return Selector{kind: SelectorFields, fields: fields}
}

// None rejects or ignores every file part, per the unknown-field policy.
func None() Selector {
	return Selector{kind: SelectorNone}
}

// Any accepts every file part.
func Any() Selector {
	return Selector{kind: SelectorAny}
}

// File creates a file field descriptor for a Fields selector.
func File(name string) SelectedField {
	return SelectedField{Name: name, Kind: FieldFile}
}

// Text creates a text field descriptor for a Fields selector.
func Text(name string) SelectedField {
	return SelectedField{Name: name, Kind: FieldText}
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (s Selector) Kind() SelectorKind {
	return s.kind
}

// Name returns the field name for Single and Array selectors.
func (s Selector) Name() string {
	return s.name
}

// MaxCount returns the per-field count cap for Single and Array selectors.
func (s Selector) MaxCount() int {
	return s.maxCount
}

// Fields returns the field descriptors of a Fields selector.
func (s Selector) Fields() []SelectedField {
	return s.fields
}

// WithMaxCount caps the number of file parts accepted for this field.
func (f SelectedField) WithMaxCount(maxCount int) SelectedField {
	f.MaxCount = maxCount
	return f
}

// WithMaxSize caps the body size in bytes for this field.
func (f SelectedField) WithMaxSize(maxSize int64) SelectedField {
	f.MaxSize = maxSize
	return f
}

// WithAllowedMimeTypes sets the MIME patterns accepted for this field.
func (f SelectedField) WithAllowedMimeTypes(patterns ...string) SelectedField {
	f.AllowedMimeTypes = patterns
	return f
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (f SelectedField) String() string {
	return types.Stringify(f)
}

func (k FieldKind) String() string {
	switch k {
	case FieldFile:
		return "file"
	case FieldText:
		return "text"
	default:
		return "unknown"
	}
}

func (p UnknownFieldPolicy) String() string {
	switch p {
	case UnknownFieldIgnore:
		return "ignore"
	case UnknownFieldReject:
		return "reject"
	default:
		return "unknown"
	}
}
