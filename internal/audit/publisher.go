package audit

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Publisher captures structured audit events. Persistence is synchronous so
// the trail never lags the ledger; the optional inbox feeds the Kafka worker
// without blocking the calling operation.
type Publisher struct {
	store  Store
	inbox  chan<- Event
	logger *zap.Logger
}

// NewPublisher builds a publisher. inbox may be nil when no downstream sink
// is configured.
func NewPublisher(store Store, inbox chan<- Event, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{store: store, inbox: inbox, logger: logger}
}

// Emit persists the event, assigning an ID when the caller did not. The
// timestamp is expected from the caller so the trail shares the ledger's
// clock.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	if p.inbox != nil {
		select {
		case p.inbox <- event:
		default:
			// The durable store already has the event; a full inbox must
			// not stall ledger operations.
			p.logger.Warn("audit inbox full, event not forwarded",
				zap.String("event_id", event.ID),
				zap.String("type", string(event.Type)))
		}
	}
	return nil
}

// List returns the trail for one participant, oldest first.
func (p *Publisher) List(ctx context.Context, participantID string) ([]Event, error) {
	return p.store.ListByParticipant(ctx, participantID)
}
