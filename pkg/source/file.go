package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileSource reads a local file.
type FileSource struct {
	path   string
	format Format
}

// NewFileSource creates a file source. FormatAuto detects the format from
// the extension.
func NewFileSource(path string, format Format) *FileSource {
	return &FileSource{path: path, format: resolveFormat(format, path)}
}

// Name returns the file path.
func (s *FileSource) Name() string { return s.path }

// Format returns the record format.
func (s *FileSource) Format() Format { return s.format }

// Path returns the file path.
func (s *FileSource) Path() string { return s.path }

// Read returns the whole file.
func (s *FileSource) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(s.path, err)
	}

	// #nosec G304 - path is provided by the user via CLI or config
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, unavailable(s.path, err)
	}
	return data, nil
}

// logExtensions are the files picked up when a directory is given.
var logExtensions = map[string]bool{
	".csv":    true,
	".jsonl":  true,
	".ndjson": true,
	".json":   true,
}

// IsLogFile reports whether name has a log file extension.
func IsLogFile(name string) bool {
	return logExtensions[strings.ToLower(filepath.Ext(name))]
}

// ExpandPaths expands file paths, glob patterns and directories into a
// deduplicated, sorted list of files. Directories contribute their log
// files (not recursively). Patterns that match nothing are returned as-is
// so reading them reports the missing file.
func ExpandPaths(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var result []string

	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			result = append(result, p)
		}
	}

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}

		if len(matches) == 0 {
			add(pattern)
			continue
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil || !info.IsDir() {
				add(match)
				continue
			}

			files, err := dirLogFiles(match)
			if err != nil {
				return nil, err
			}
			for _, f := range files {
				add(f)
			}
		}
	}

	sort.Strings(result)

	return result, nil
}

func dirLogFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsLogFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}
