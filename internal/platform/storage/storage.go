// Package storage provides file storage for report photo attachments. It
// defines the FileStore interface, a disk-backed implementation that stores
// files under generated unique names, and an in-memory implementation for
// testing.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrFileNotFound    = errors.New("file not found")
	ErrMissingFileName = errors.New("file name is required")
	ErrEmptyContent    = errors.New("file content is empty")
)

// FileStore defines the contract for photo storage backends. Save generates
// a unique name preserving the original file's extension and returns the
// stored path; Read and Remove operate on that path.
type FileStore interface {
	Save(ctx context.Context, originalName string, content []byte) (string, error)
	Read(ctx context.Context, path string) ([]byte, error)
	Remove(ctx context.Context, path string) error
}

// fileExtension returns the extension including the dot, or "" when absent.
func fileExtension(name string) string {
	ext := filepath.Ext(name)
	if ext == "." {
		return ""
	}
	return ext
}

// ---------------------------------------------------------------------------
// Disk implementation
// ---------------------------------------------------------------------------

// DiskStore stores files under a base directory, creating it on demand.
type DiskStore struct {
	dir string
}

// NewDiskStore returns a DiskStore rooted at dir.
func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{dir: dir}
}

func (s *DiskStore) Save(_ context.Context, originalName string, content []byte) (string, error) {
	if strings.TrimSpace(originalName) == "" {
		return "", ErrMissingFileName
	}
	if len(content) == 0 {
		return "", ErrEmptyContent
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload directory %s: %w", s.dir, err)
	}

	name := uuid.New().String() + fileExtension(originalName)
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write file %s: %w", path, err)
	}
	return path, nil
}

func (s *DiskStore) Read(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}
	return data, nil
}

func (s *DiskStore) Remove(_ context.Context, path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return ErrFileNotFound
	}
	if err != nil {
		return fmt.Errorf("remove file %s: %w", path, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// In-memory implementation
// ---------------------------------------------------------------------------

// MemoryStore is a thread-safe, in-memory FileStore for tests.
type MemoryStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemoryStore returns a ready-to-use MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: make(map[string][]byte)}
}

func (s *MemoryStore) Save(_ context.Context, originalName string, content []byte) (string, error) {
	if strings.TrimSpace(originalName) == "" {
		return "", ErrMissingFileName
	}
	if len(content) == 0 {
		return "", ErrEmptyContent
	}

	path := uuid.New().String() + fileExtension(originalName)

	s.mu.Lock()
	s.files[path] = append([]byte(nil), content...)
	s.mu.Unlock()

	return path, nil
}

func (s *MemoryStore) Read(_ context.Context, path string) ([]byte, error) {
	s.mu.RLock()
	data, ok := s.files[path]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrFileNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *MemoryStore) Remove(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[path]; !ok {
		return ErrFileNotFound
	}
	delete(s.files, path)
	return nil
}
