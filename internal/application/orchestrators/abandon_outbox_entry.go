package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"filmclub/internal/domain/outbox"
)

// OutboxStoreForAbandon defines the store interface needed by AbandonOutboxEntry.
type OutboxStoreForAbandon interface {
	GetByID(ctx context.Context, id string) (outbox.Entry, error)
	Save(ctx context.Context, e outbox.Entry) error
}

// ErrOutboxEntryDelivered is returned when abandoning an entry that already succeeded.
var ErrOutboxEntryDelivered = errors.New("outbox entry was already delivered")

// ExecuteAbandonOutboxEntry stops an announcement delivery from being retried.
// PRE: id names an existing entry
// POST: entry status is abandoned; abandoning twice is a no-op
func ExecuteAbandonOutboxEntry(ctx context.Context, id string, store OutboxStoreForAbandon) error {
	entry, err := store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	switch entry.Status {
	case outbox.StatusAbandoned:
		return nil
	case outbox.StatusDone:
		return invalid(ErrOutboxEntryDelivered)
	}
	entry.MarkAbandoned()
	if err := store.Save(ctx, entry); err != nil {
		return err
	}
	slog.Info("outbox_entry_abandoned", "entry_id", entry.ID, "action", entry.ActionType, "attempts", entry.Attempts)
	return nil
}
