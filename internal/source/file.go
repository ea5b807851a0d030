package source

import (
	"context"
	"fmt"
	"os"

	"chatqa/internal/domain"
)

// FileSource reads records from a JSON file on disk, using the same envelope
// rules as the HTTP source.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Name() string { return s.path }

func (s *FileSource) Fetch(ctx context.Context) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read messages file: %w", err)
	}
	records, err := DecodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return records, nil
}
