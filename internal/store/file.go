package store

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"medchart/m/domain"
)

// FileStore keeps the collection as a pretty-printed JSON array in one file.
type FileStore struct {
	path string
	log  *zap.Logger
}

// NewFileStore returns a store backed by the file at path.
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{path: path, log: logger.Named("store")}
}

// Location returns the snapshot file path.
func (s *FileStore) Location() string {
	return s.path
}

// Load reads the snapshot file. A missing or corrupt file reads as empty.
func (s *FileStore) Load() domain.Collection {
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.log.Warn("unable to read medicines file", zap.String("path", s.path), zap.Error(err))
		return domain.Collection{}
	}
	items, err := decodeSnapshot(data)
	if err != nil {
		s.log.Warn("unable to parse medicines file", zap.String("path", s.path), zap.Error(err))
		return domain.Collection{}
	}
	return items
}

// Save creates the data directory if needed and rewrites the whole file.
func (s *FileStore) Save(items domain.Collection) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		s.log.Error("unable to create data directory", zap.String("path", s.path), zap.Error(err))
		return fmt.Errorf("create data directory: %w", err)
	}
	data, err := encodeSnapshot(items)
	if err != nil {
		return fmt.Errorf("encode medicines: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		s.log.Error("unable to write medicines file", zap.String("path", s.path), zap.Error(err))
		return fmt.Errorf("write medicines file: %w", err)
	}
	return nil
}
