package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileStore persists attachment blobs. Save returns the storage path used to
// retrieve or delete the blob later.
type FileStore interface {
	Save(ctx context.Context, r io.Reader, fileName string) (string, error)
	Delete(ctx context.Context, path string) error
}

// LocalStore keeps files on the local filesystem under a root directory.
type LocalStore struct {
	root string
}

// NewLocalStore builds a store rooted at dir.
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{root: dir}
}

// Save streams the reader into a uniquely named file.
func (s *LocalStore) Save(_ context.Context, r io.Reader, fileName string) (string, error) {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := uuid.NewString() + "_" + sanitizeFileName(fileName)
	path := filepath.Join(s.root, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write file: %w", err)
	}
	return filepath.ToSlash(path), nil
}

// Delete removes the blob at path.
func (s *LocalStore) Delete(_ context.Context, path string) error {
	return os.Remove(filepath.FromSlash(path))
}

func sanitizeFileName(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "file"
	}
	return name
}
