// Package storage holds uploaded and signed PDF blobs on local disk,
// addressed by opaque references.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

var ErrBadReference = errors.New("invalid blob reference")

// BlobStore is the file backend consumed by the signing workflow.
type BlobStore interface {
	Put(data []byte, ext string) (string, error)
	Get(ref string) ([]byte, error)
	Delete(ref string) error
}

// FileStore writes blobs under a base directory. Each Put goes to a
// temp file, is fsynced, and renamed into place, so a blob a caller was
// told exists survives a crash.
type FileStore struct {
	basePath string
}

func NewFileStore(basePath string) (*FileStore, error) {
	if basePath == "" {
		return nil, fmt.Errorf("storage base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FileStore{basePath: basePath}, nil
}

func (f *FileStore) Put(data []byte, ext string) (string, error) {
	ref := uuid.New().String() + ext
	target := filepath.Join(f.basePath, ref)

	tmp, err := os.CreateTemp(f.basePath, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("sync blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("publish blob: %w", err)
	}
	return ref, nil
}

func (f *FileStore) Get(ref string) ([]byte, error) {
	path, err := f.resolve(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", ref, err)
	}
	return data, nil
}

// Delete removes a blob. A missing blob is not an error so a record
// whose files are already gone can still be cleaned up.
func (f *FileStore) Delete(ref string) error {
	path, err := f.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob %s: %w", ref, err)
	}
	return nil
}

func (f *FileStore) resolve(ref string) (string, error) {
	if ref == "" || filepath.Base(ref) != ref {
		return "", ErrBadReference
	}
	return filepath.Join(f.basePath, ref), nil
}
