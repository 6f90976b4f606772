package workers

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/radarlink/radarlink/internal/config"
	"github.com/radarlink/radarlink/internal/logger"
)

// Janitor prunes issued config artifacts once they outlive their TTL.
// Artifacts are one-shot downloads; keeping them around only leaks
// credentials to the filesystem.
type Janitor struct {
	dir      string
	interval time.Duration
	ttl      time.Duration

	now func() time.Time

	logger *logger.Logger
}

const defaultJanitorInterval = 10 * time.Minute

// NewJanitor returns nil when the TTL is zero; the caller treats that as
// "pruning disabled".
func NewJanitor(storageCfg config.Configs, workersCfg config.Workers, log *logger.Logger) *Janitor {
	if workersCfg.ArtifactTTL <= 0 {
		return nil
	}

	interval := workersCfg.JanitorInterval
	if interval <= 0 {
		interval = defaultJanitorInterval
	}

	return &Janitor{
		dir:      storageCfg.Dir,
		interval: interval,
		ttl:      workersCfg.ArtifactTTL,
		now:      time.Now,
		logger:   log,
	}
}

// Run implements [Worker]. One sweep runs immediately, then every
// interval.
func (j *Janitor) Run(ctx context.Context) {
	j.logger.Info().
		Str("dir", j.dir).
		Dur("interval", j.interval).
		Dur("ttl", j.ttl).
		Msg("artifact janitor started")

	j.sweep()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info().Msg("artifact janitor stopped")
			return
		case <-ticker.C:
			j.sweep()
		}
	}
}

func (j *Janitor) sweep() {
	cutoff := j.now().Add(-j.ttl)

	entries, err := os.ReadDir(j.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			j.logger.Warn().Err(err).Str("dir", j.dir).Msg("janitor sweep failed")
		}
		return
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".conf" {
			continue
		}

		info, infoErr := entry.Info()
		if infoErr != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(j.dir, entry.Name())
		if rmErr := os.Remove(path); rmErr != nil {
			j.logger.Warn().Err(rmErr).Str("path", path).Msg("failed to remove stale artifact")
			continue
		}
		removed++
	}

	if removed > 0 {
		j.logger.Info().Int("removed", removed).Msg("stale artifacts pruned")
	}
}
