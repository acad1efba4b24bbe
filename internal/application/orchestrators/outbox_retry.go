package orchestrators

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"filmclub/internal/domain/announcement"
	"filmclub/internal/domain/outbox"
)

// OutboxStoreForRetry defines the store interface needed by OutboxRetry.
type OutboxStoreForRetry interface {
	ListRetryable(ctx context.Context, limit int) ([]outbox.Entry, error)
	Save(ctx context.Context, e outbox.Entry) error
}

// OutboxRetryDeps provides the dependencies for retrying outbox entries.
// Delivery reuses the announcement channels; its OutboxStore is not used.
type OutboxRetryDeps struct {
	OutboxStore OutboxStoreForRetry
	Delivery    AnnounceDeps
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	BatchSize   int
	Now         func() time.Time
}

// OutboxRetryStats summarizes one retry pass.
type OutboxRetryStats struct {
	Due       int
	Succeeded int
	Failed    int
}

// ExecuteOutboxRetry re-sends queued announcements whose backoff has elapsed.
// PRE: Deps are valid and store is connected
// POST: every due entry is attempted once and saved with its new status
func ExecuteOutboxRetry(ctx context.Context, deps OutboxRetryDeps) (OutboxRetryStats, error) {
	deps = withRetryDefaults(deps)
	entries, err := deps.OutboxStore.ListRetryable(ctx, deps.BatchSize)
	if err != nil {
		return OutboxRetryStats{}, fmt.Errorf("list retryable outbox entries: %w", err)
	}

	var stats OutboxRetryStats
	now := deps.Now()
	for _, entry := range entries {
		if now.Before(entry.DueAt(deps.BaseDelay, deps.MaxDelay)) {
			continue
		}
		stats.Due++
		if !entry.CanRetry() {
			entry.MarkFailed(fmt.Errorf("gave up after %d attempts: %s", entry.Attempts, entry.ErrorMessage))
		} else {
			entry.MarkAttempt(now)
			if id, err := redeliver(ctx, entry, deps.Delivery); err != nil {
				entry.MarkFailed(err)
				slog.Warn("outbox_retry_failed", "entry_id", entry.ID, "action", entry.ActionType, "attempt", entry.Attempts, "error", err)
			} else {
				entry.MarkSuccess(id)
				slog.Info("outbox_retry_succeeded", "entry_id", entry.ID, "action", entry.ActionType, "attempt", entry.Attempts)
			}
		}
		if entry.Status == outbox.StatusDone {
			stats.Succeeded++
		} else {
			stats.Failed++
		}
		if err := deps.OutboxStore.Save(ctx, entry); err != nil {
			slog.Error("outbox_retry_save_failed", "entry_id", entry.ID, "error", err)
		}
	}
	if stats.Due > 0 {
		slog.Info("outbox_retry_complete", "due", stats.Due, "succeeded", stats.Succeeded, "failed", stats.Failed)
	}
	return stats, nil
}

func redeliver(ctx context.Context, entry outbox.Entry, d AnnounceDeps) (string, error) {
	var a announcement.Announcement
	if err := json.Unmarshal([]byte(entry.Payload), &a); err != nil {
		return "", fmt.Errorf("unmarshal announcement payload: %w", err)
	}
	switch entry.ActionType {
	case outbox.ActionTypeEmail:
		if d.Email == nil {
			return "", fmt.Errorf("email channel not configured")
		}
		return deliverEmail(ctx, a, d)
	case outbox.ActionTypeChat:
		if d.Chat == nil {
			return "", fmt.Errorf("chat channel not configured")
		}
		return d.Chat.Post(ctx, ChatText(a))
	default:
		return "", fmt.Errorf("unknown action type: %s", entry.ActionType)
	}
}

func withRetryDefaults(deps OutboxRetryDeps) OutboxRetryDeps {
	if deps.BaseDelay <= 0 {
		deps.BaseDelay = 30 * time.Second
	}
	if deps.MaxDelay <= 0 {
		deps.MaxDelay = time.Hour
	}
	if deps.BatchSize <= 0 {
		deps.BatchSize = 50
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return deps
}

// StartOutboxRetryScheduler runs ExecuteOutboxRetry every interval.
// PRE: interval > 0
// POST: returns a stop function that waits for the worker to exit
func StartOutboxRetryScheduler(ctx context.Context, deps OutboxRetryDeps, interval time.Duration) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				slog.Info("outbox_retry_scheduler_stopped")
				return
			case <-ticker.C:
				if _, err := ExecuteOutboxRetry(ctx, deps); err != nil {
					slog.Error("outbox_retry_scheduler_error", "error", err)
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
