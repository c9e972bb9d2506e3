// SPDX-License-Identifier: MIT
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// maxNameAttempts bounds the search for a free filename in a directory
const maxNameAttempts = 10000

// ErrNameExhausted is returned when no unique name could be found
var ErrNameExhausted = errors.New("media: no free filename available")

// Store is the permanent media store. Keys are slash-separated paths relative
// to the store root, e.g. "2026/10/cat.jpg".
type Store interface {
	// Save copies the file at srcPath into dir under name, or under a
	// "-N" suffixed variant of name if it is taken, and returns the key.
	Save(ctx context.Context, srcPath, dir, name, contentType string) (string, error)
	// URL returns the public URL of key
	URL(key string) string
	// LocalPath returns a readable filesystem path for key, or "" when the
	// store is not backed by the local filesystem.
	LocalPath(key string) string
}

// LocalStore keeps media on the local filesystem under Root and serves it
// from BaseURL.
type LocalStore struct {
	Root    string
	BaseURL string
}

// NewLocalStore creates a filesystem-backed store
func NewLocalStore(root, baseURL string) *LocalStore {
	return &LocalStore{
		Root:    root,
		BaseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Save copies srcPath into the store. The destination is created with
// O_EXCL so concurrent saves of the same name never overwrite each other.
func (s *LocalStore) Save(ctx context.Context, srcPath, dir, name, contentType string) (string, error) {
	targetDir := filepath.Join(s.Root, filepath.FromSlash(dir))
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("failed to open source file: %w", err)
	}
	defer src.Close()

	for i := 0; i < maxNameAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		candidate := numberedName(name, i)
		fullPath := filepath.Join(targetDir, candidate)

		dst, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create destination file: %w", err)
		}

		if _, err := io.Copy(dst, src); err != nil {
			dst.Close()
			os.Remove(fullPath)
			return "", fmt.Errorf("failed to copy file: %w", err)
		}
		if err := dst.Close(); err != nil {
			os.Remove(fullPath)
			return "", fmt.Errorf("failed to close destination file: %w", err)
		}

		return path.Join(dir, candidate), nil
	}

	return "", ErrNameExhausted
}

// URL returns the public URL for key
func (s *LocalStore) URL(key string) string {
	return s.BaseURL + "/" + strings.TrimLeft(key, "/")
}

// LocalPath returns the on-disk path of key
func (s *LocalStore) LocalPath(key string) string {
	return filepath.Join(s.Root, filepath.FromSlash(key))
}

// numberedName returns name for n == 0 and "stem-n.ext" otherwise
func numberedName(name string, n int) string {
	if n == 0 {
		return name
	}
	ext := path.Ext(name)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), n, ext)
}
