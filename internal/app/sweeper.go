package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SweepExpired deletes every content item past its expiry, regardless of
// status, together with its media objects. Returns the number of items
// removed.
func (a *App) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	expired, err := a.store.ListContentExpiredBefore(now)
	if err != nil {
		return 0, fmt.Errorf("list expired content: %w", err)
	}
	removed := 0
	for _, content := range expired {
		a.removeObjects(ctx, append(content.MediaKeys, content.ThumbnailKey))
		if err := a.store.DeleteContent(content.ID); err != nil {
			// One stuck row must not block the rest of the sweep.
			slog.Warn("delete expired content", "id", content.ID, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}

// RunSweeper sweeps on the given interval until the context is canceled. One
// sweep runs immediately at startup to catch items that expired while the
// server was down.
func (a *App) RunSweeper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Hour
	}
	sweep := func() {
		removed, err := a.SweepExpired(ctx, time.Now().UTC())
		if err != nil {
			slog.Error("sweep expired content", "error", err)
			return
		}
		if removed > 0 {
			slog.Info("swept expired content", "removed", removed)
		}
	}
	sweep()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			sweep()
		}
	}
}
