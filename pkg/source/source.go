// Package source supplies raw log bytes from files, URLs and readers.
//
// A source either returns the complete content or an error wrapping
// ErrUnavailable. It never returns partial content.
package source

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnavailable marks a source whose content could not be obtained.
var ErrUnavailable = errors.New("source unavailable")

// Error is a read failure of one source. It matches both ErrUnavailable
// and the underlying cause with errors.Is.
type Error struct {
	Source string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

// Unwrap returns ErrUnavailable and the cause.
func (e *Error) Unwrap() []error {
	return []error{ErrUnavailable, e.Err}
}

func unavailable(name string, err error) error {
	return &Error{Source: name, Err: err}
}

// Format is the record format of a source.
type Format string

const (
	FormatAuto  Format = ""
	FormatCSV   Format = "csv"
	FormatJSONL Format = "jsonl"
	FormatJSON  Format = "json"
)

// ParseFormat validates a format name. The empty string means detect by
// file extension.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatAuto, FormatCSV, FormatJSONL, FormatJSON:
		return f, nil
	case "ndjson":
		return FormatJSONL, nil
	default:
		return "", fmt.Errorf("unknown format %q (expected csv, jsonl, or json)", s)
	}
}

// DetectFormat picks a format from a file name or URL path. Anything
// unrecognized is CSV.
func DetectFormat(name string) Format {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jsonl", ".ndjson":
		return FormatJSONL
	case ".json":
		return FormatJSON
	default:
		return FormatCSV
	}
}

func resolveFormat(format Format, name string) Format {
	if format == FormatAuto {
		return DetectFormat(name)
	}
	return format
}

// Source provides the full text content of a log on demand.
type Source interface {
	// Name identifies the source in messages.
	Name() string

	// Format is the record format of the content.
	Format() Format

	// Read returns the complete content.
	Read(ctx context.Context) ([]byte, error)
}
