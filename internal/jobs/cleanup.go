package jobs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"panelnorm/internal"
	"panelnorm/ports"
)

// Sweeper removes upload and output files older than the configured TTL.
// Files are transient by design: callers download results promptly, and
// anything left behind is reclaimed on the next sweep.
type Sweeper struct {
	dirs     []string
	ttl      time.Duration
	interval time.Duration
	repo     ports.JobRepository
}

// NewSweeper builds a sweeper over the given directories.
func NewSweeper(dirs []string, ttl, interval time.Duration, repo ports.JobRepository) *Sweeper {
	return &Sweeper{dirs: dirs, ttl: ttl, interval: interval, repo: repo}
}

// Run sweeps once immediately, then on every interval tick until the
// context is cancelled. Intended to run as a background goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	s.Sweep(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep removes expired files from every watched directory and returns
// how many were deleted. Unreadable directories and undeletable files
// are logged and skipped.
func (s *Sweeper) Sweep(ctx context.Context) int {
	cutoff := time.Now().Add(-s.ttl)
	removed := 0
	for _, dir := range s.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			internal.DefaultLogger.Warn("cleanup: cannot read %s: %v", dir, err)
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil || info.ModTime().After(cutoff) {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if err := os.Remove(path); err != nil {
				internal.DefaultLogger.Warn("cleanup: cannot remove %s: %v", path, err)
				continue
			}
			removed++
			s.expireJob(ctx, entry.Name())
		}
	}
	if removed > 0 {
		internal.DefaultLogger.Info("cleanup: removed %d expired files", removed)
	}
	return removed
}

// expireJob drops the job record once its first output file expires, so
// status lookups stop advertising downloads that no longer exist.
func (s *Sweeper) expireJob(ctx context.Context, filename string) {
	if s.repo == nil {
		return
	}
	jobID, _, found := strings.Cut(filename, "_")
	if !found {
		return
	}
	if err := s.repo.Delete(ctx, jobID); err != nil {
		internal.DefaultLogger.Warn("cleanup: cannot delete job %s: %v", jobID, err)
	}
}
