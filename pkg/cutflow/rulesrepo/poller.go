package rulesrepo

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ChangeFunc is called after a sync that touched the rules file.
type ChangeFunc func(ctx context.Context, result *SyncResult) error

// Poller syncs a repository on an interval and reports rules file changes.
// Commits that only touch other files are skipped.
type Poller struct {
	repo     *Repository
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	stats   PollerStats
}

// PollerStats tracks poll outcomes.
type PollerStats struct {
	Polls       int64
	Changes     int64
	Skipped     int64
	Failures    int64
	LastChange  time.Time
	LastFailure error
}

// NewPoller creates a poller. A non-positive interval uses the configured
// poll interval of the repository.
func NewPoller(repo *Repository, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = repo.config.PollInterval
	}
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		repo:     repo,
		interval: interval,
		logger:   logger.With("component", "cutflow.rulesrepo.poller"),
	}
}

// Poll blocks until ctx is cancelled, syncing every interval and calling
// onChange when the rules file changed. Sync and callback errors are logged
// and polling continues.
func (p *Poller) Poll(ctx context.Context, onChange ChangeFunc) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("poller already running")
	}
	p.running = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	p.logger.Info("polling rules repository", "interval", p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopped")
			return nil
		case <-ticker.C:
			if _, err := p.PollOnce(ctx, onChange); err != nil {
				p.logger.Error("rules repository poll failed", "error", err)
			}
		}
	}
}

// PollOnce runs a single sync and reports whether onChange was called.
func (p *Poller) PollOnce(ctx context.Context, onChange ChangeFunc) (bool, error) {
	result, err := p.repo.Sync(ctx)

	p.mu.Lock()
	p.stats.Polls++
	if err != nil {
		p.stats.Failures++
		p.stats.LastFailure = err
		p.mu.Unlock()
		return false, err
	}
	touched := result.Changed() && result.Touches(p.repo.RulesPath())
	if !touched {
		if result.Changed() {
			p.stats.Skipped++
		}
		p.mu.Unlock()
		return false, nil
	}
	p.stats.Changes++
	p.stats.LastChange = time.Now()
	p.mu.Unlock()

	p.logger.Info("rules file changed",
		"from", shortSHA(result.FromSHA),
		"to", shortSHA(result.ToSHA),
	)
	if onChange == nil {
		return true, nil
	}
	return true, onChange(ctx, result)
}

// Stats returns a copy of the poll counters.
func (p *Poller) Stats() PollerStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}
