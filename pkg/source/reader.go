package source

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// ReaderSource reads an io.Reader such as stdin. The reader is consumed
// once; later reads return the same content.
type ReaderSource struct {
	name   string
	format Format
	r      io.Reader

	once sync.Once
	data []byte
	err  error
}

// NewReaderSource creates a reader source. FormatAuto is treated as CSV.
func NewReaderSource(name string, r io.Reader, format Format) *ReaderSource {
	if format == FormatAuto {
		format = FormatCSV
	}
	return &ReaderSource{name: name, format: format, r: r}
}

// Name returns the source name.
func (s *ReaderSource) Name() string { return s.name }

// Format returns the record format.
func (s *ReaderSource) Format() Format { return s.format }

// Read returns the reader's full content.
func (s *ReaderSource) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(s.name, err)
	}

	s.once.Do(func() {
		data, err := io.ReadAll(s.r)
		if err != nil {
			s.err = fmt.Errorf("reading: %w", err)
			return
		}
		s.data = data
	})

	if s.err != nil {
		return nil, unavailable(s.name, s.err)
	}
	return s.data, nil
}
