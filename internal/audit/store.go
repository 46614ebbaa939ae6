package audit

import "context"

// Store is the append-only persistence behind the trail.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByParticipant(ctx context.Context, participantID string) ([]Event, error)
}
