package sideload

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"sync"
)

// CleanupGuard removes a temporary artifact exactly once
type CleanupGuard struct {
	path   string
	logger *slog.Logger
	once   sync.Once
}

// NewCleanupGuard guards path; an empty path makes Release a no-op
func NewCleanupGuard(path string, logger *slog.Logger) *CleanupGuard {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CleanupGuard{path: path, logger: logger}
}

// Release deletes the guarded file. Failures are logged, never returned.
func (g *CleanupGuard) Release() {
	g.once.Do(func() {
		if g.path == "" {
			return
		}
		if err := os.Remove(g.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			g.logger.Warn("Failed to remove temporary file", "path", g.path, "error", err)
		}
	})
}
