package cleanup

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Scheduler periodically removes aged entries from the scratch directory.
// Whole-file transcription splits into per-request work dirs that are
// normally removed when the request ends; interrupted requests can leak
// them, and this sweeps those up.
type Scheduler struct {
	workDir  string
	interval time.Duration
	maxAge   time.Duration
	stop     chan struct{}
	log      zerolog.Logger
}

// NewScheduler creates a scheduler over workDir.
func NewScheduler(workDir string, interval, maxAge time.Duration, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		workDir:  workDir,
		interval: interval,
		maxAge:   maxAge,
		stop:     make(chan struct{}),
		log:      log,
	}
}

// Start runs an initial sweep and then sweeps on the configured interval.
func (s *Scheduler) Start() {
	s.sweep()

	ticker := time.NewTicker(s.interval)
	go func() {
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stop:
				ticker.Stop()
				return
			}
		}
	}()

	s.log.Info().
		Dur("interval", s.interval).
		Dur("max_age", s.maxAge).
		Msg("scratch cleanup scheduler started")
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	close(s.stop)
}

// sweep removes scratch entries older than maxAge.
func (s *Scheduler) sweep() {
	entries, err := os.ReadDir(s.workDir)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn().Err(err).Msg("failed to read scratch directory")
		}
		return
	}

	now := time.Now()
	removed := 0
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) <= s.maxAge {
			continue
		}
		path := filepath.Join(s.workDir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			s.log.Warn().Err(err).Str("path", path).Msg("failed to remove stale scratch entry")
			continue
		}
		removed++
	}

	if removed > 0 {
		s.log.Info().Int("removed", removed).Msg("scratch cleanup complete")
	}
}
