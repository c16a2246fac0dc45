package challenge

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Refresh refetches the remote index and replaces the entries of the
// previous fetch. When the fetch fails, including while the breaker is
// open, the catalog is left untouched.
func (c *Catalog) Refresh(ctx context.Context, remote *RemoteSource) (int, error) {
	found, err := remote.Fetch(ctx)
	if err != nil {
		return 0, err
	}
	added, err := c.ReplaceSource(remote.URL(), found)
	if err != nil {
		return added, fmt.Errorf("some remote challenges were rejected: %w", err)
	}
	return added, nil
}

// WatchOptions configures Watch
type WatchOptions struct {
	Remote *RemoteSource
	Every  time.Duration
	Clock  clockwork.Clock
	Logger *zap.Logger
}

// Watch refreshes the catalog from opts.Remote every opts.Every until ctx
// is done
func (c *Catalog) Watch(ctx context.Context, opts WatchOptions) {
	if opts.Remote == nil || opts.Every <= 0 {
		return
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ticker := clock.NewTicker(opts.Every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			added, err := c.Refresh(ctx, opts.Remote)
			if err != nil {
				logger.Warn("Challenge index refresh failed",
					zap.String("url", opts.Remote.URL()),
					zap.Stringer("breaker", opts.Remote.Breaker().State()),
					zap.Error(err),
				)
				continue
			}
			logger.Debug("Challenge index refreshed", zap.Int("challenges", added))
		}
	}
}
