package storage

import (
	"strings"

	// Packages
	uuid "github.com/google/uuid"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// FilenameStrategy decides how the disk engine names stored files.
type FilenameStrategy int

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	// FilenameKeep sanitizes and keeps the incoming filename.
	FilenameKeep FilenameStrategy = iota
	// FilenameRandom names every file with a fresh UUID.
	FilenameRandom
	// FilenameCustom applies the function set with WithCustomFilename,
	// then sanitizes the result.
	FilenameCustom
)

// Characters disallowed in filenames on common filesystems.
const reservedFilenameChars = `<>:"|?*`

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// SanitizeFilename reduces an incoming filename to a single safe path
// component: NUL bytes, path separators, "..", control bytes and characters
// reserved on common filesystems are stripped, and runs of whitespace are
// collapsed. An empty result is replaced with a random UUID.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "..", "")

	var builder strings.Builder
	builder.Grow(len(name))
	for _, r := range name {
		switch {
		case r == 0 || r == '/' || r == '\\':
			// skip
		case r < 0x20 || r == 0x7F:
			// skip
		case strings.ContainsRune(reservedFilenameChars, r):
			// skip
		default:
			builder.WriteRune(r)
		}
	}

	// Strip ".." again once the other characters are gone, since removing
	// them can join two dots back together ("./." becomes "..")
	sanitized := strings.ReplaceAll(builder.String(), "..", "")

	// Collapse whitespace runs into single spaces
	sanitized = strings.Join(strings.Fields(sanitized), " ")
	if sanitized == "" {
		sanitized = uuid.NewString()
	}

	// Return success
	return sanitized
}

func (s FilenameStrategy) String() string {
	switch s {
	case FilenameKeep:
		return "keep"
	case FilenameRandom:
		return "random"
	case FilenameCustom:
		return "custom"
	default:
		return "unknown"
	}
}
