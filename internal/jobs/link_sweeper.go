// link_sweeper.go implements the LinkSweeper background job, which periodically
// removes expired and already-consumed links from the active_links enumeration
// index so the active listing stays bounded. Link records themselves are left
// in place; a consumed link still answers validation requests with its terminal
// state, and operators can inspect it after the fact.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/checklist-rve/checklist-rve/internal/repositories"
	"github.com/checklist-rve/checklist-rve/internal/telemetry"
)

// LinkSweeper periodically prunes dead entries from the active link index.
type LinkSweeper struct {
	links    *repositories.LinkRepository
	interval time.Duration
	stopChan chan struct{}
}

// NewLinkSweeper creates a new LinkSweeper.
// interval controls how often the sweep runs (default 1h).
func NewLinkSweeper(links *repositories.LinkRepository, interval time.Duration) *LinkSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &LinkSweeper{
		links:    links,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the background sweep loop. It runs an initial sweep
// immediately, then repeats on the configured interval. The loop exits when
// ctx is cancelled or Stop() is called.
func (s *LinkSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("link sweeper started", "interval", s.interval)

	// Run once immediately on startup
	s.runSweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.runSweep(ctx)
		case <-s.stopChan:
			slog.Info("link sweeper stopped")
			return
		case <-ctx.Done():
			slog.Info("link sweeper context cancelled")
			return
		}
	}
}

// Stop signals the background loop to exit.
func (s *LinkSweeper) Stop() {
	close(s.stopChan)
}

// runSweep performs a single pass over the active link index.
func (s *LinkSweeper) runSweep(ctx context.Context) {
	pruned, err := s.links.Sweep(ctx, time.Now().UTC())
	if err != nil {
		slog.Error("link sweeper: sweep failed", "error", err)
		return
	}
	if pruned > 0 {
		telemetry.LinksSweptTotal.Add(float64(pruned))
		slog.Info("link sweeper: pruned dead index entries", "count", pruned)
	}
}
