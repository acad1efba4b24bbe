package orchestrators

import (
	"context"
	"log/slog"

	"filmclub/internal/domain/nomination"
)

// NominationStoreForRetract defines the store interface needed by RetractNomination.
type NominationStoreForRetract interface {
	GetByID(ctx context.Context, id string) (nomination.Nomination, error)
	Delete(ctx context.Context, id string) error
}

// RetractNominationInput carries input for the orchestrator.
type RetractNominationInput struct {
	NominationID string
	ActorID      string
	ActorIsAdmin bool
}

// RetractNominationDeps holds dependencies for RetractNomination.
type RetractNominationDeps struct {
	NominationStore NominationStoreForRetract
}

// ExecuteRetractNomination removes a nomination while nominations are open.
// PRE: ActorID is the session's account id
// POST: nomination deleted, or ErrNotNominator / ErrNotFound / ErrPhaseMismatch
func ExecuteRetractNomination(ctx context.Context, input RetractNominationInput, deps RetractNominationDeps) error {
	n, err := deps.NominationStore.GetByID(ctx, input.NominationID)
	if err != nil {
		return err
	}
	if err := n.CanRetract(input.ActorID, input.ActorIsAdmin); err != nil {
		slog.Info("nomination_event", "event", "retract_denied", "nomination", n.ID, "actor", input.ActorID)
		return err
	}
	if err := deps.NominationStore.Delete(ctx, n.ID); err != nil {
		return err
	}
	slog.Info("nomination_event", "event", "retracted", "week", n.WeekDate, "nomination", n.ID, "actor", input.ActorID, "admin", input.ActorIsAdmin)
	return nil
}
