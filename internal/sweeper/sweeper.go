// Package sweeper removes temporary downloads left behind by processes that
// died mid-sideload.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/thatcatcamp/sideload/internal/sideload"
)

// Sweeper periodically deletes stale temporary artifacts
type Sweeper struct {
	Dir    string
	Prefix string
	MaxAge time.Duration
	Logger *slog.Logger

	cron *cron.Cron
	now  func() time.Time
}

// New creates a sweeper for dir ("" for the OS temp dir). Entries younger
// than maxAge belong to in-flight requests and are left alone.
func New(dir string, maxAge time.Duration, logger *slog.Logger) *Sweeper {
	if dir == "" {
		dir = os.TempDir()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		Dir:    dir,
		Prefix: sideload.TempFilePrefix,
		MaxAge: maxAge,
		Logger: logger,
		now:    time.Now,
	}
}

// Sweep removes stale entries once and returns how many were deleted
func (s *Sweeper) Sweep() (int, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read temp directory: %w", err)
	}

	cutoff := s.now().Add(-s.MaxAge)
	removed := 0
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), s.Prefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(s.Dir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			s.Logger.Warn("Failed to remove stale temp file", "path", path, "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		s.Logger.Info("Removed stale temp files", "count", removed, "dir", s.Dir)
	}
	return removed, nil
}

// Start runs Sweep on schedule, a cron spec or descriptor like "@every 15m"
func (s *Sweeper) Start(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	if _, err := c.AddFunc(schedule, func() {
		if _, err := s.Sweep(); err != nil {
			s.Logger.Warn("Temp sweep failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid sweeper schedule %q: %w", schedule, err)
	}

	s.cron = c
	c.Start()
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish or ctx to
// expire
func (s *Sweeper) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
