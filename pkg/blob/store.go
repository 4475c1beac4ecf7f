// Package blob persists raw uploaded files. The store is deliberately
// dumb: datasets reference blobs by key, and the dataset id embedded in
// the key is the join between record and blob.
package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/veronikad26/chemical-equip-analyser/pkg/apperrors"
)

// Store is the blob storage boundary. Implementations must make Delete
// idempotent: deleting a missing blob is not an error, since eviction may
// be retried after a partial failure.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Key builds the blob key for a dataset. The id prefix keeps keys unique
// and joinable; the sanitized filename keeps the directory inspectable.
func Key(id uuid.UUID, filename string) string {
	name := filepath.Base(filename)
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	return fmt.Sprintf("%s_%s", id, name)
}

// fsStore writes blobs as files under a single directory.
type fsStore struct {
	dir string
}

// NewFilesystemStore returns a Store rooted at dir, creating it if needed.
func NewFilesystemStore(dir string) (Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &fsStore{dir: dir}, nil
}

var _ Store = (*fsStore)(nil)

func (s *fsStore) path(key string) string {
	// Keys are generated by Key, but never trust them as paths.
	return filepath.Join(s.dir, filepath.Base(key))
}

func (s *fsStore) Put(ctx context.Context, key string, data []byte) error {
	if err := os.WriteFile(s.path(key), data, 0o644); err != nil {
		return fmt.Errorf("failed to write blob %s: %w", key, err)
	}
	return nil
}

func (s *fsStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", key, err)
	}
	return data, nil
}

func (s *fsStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	return nil
}
