package ledger

import (
	"context"

	pkgerrors "kindred/pkg/errors"
)

// ErrNotFound is returned when no commitment record exists for a participant.
var ErrNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "commitment not found")

// Store persists commitments keyed by participant ID. Interface-driven so the
// state machine stays testable against the in-memory implementation while
// postgres provides durability across restarts.
type Store interface {
	Find(ctx context.Context, participantID string) (Commitment, error)
	Save(ctx context.Context, c Commitment) error
}
