package audit

import (
	"context"

	"go.uber.org/zap"
)

// Sink receives events already persisted to the durable store. The Kafka
// publisher implements it; tests swap in fakes.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Worker drains the inbox into the sink. Publish failures are logged and
// skipped: the store holds the authoritative trail, and downstream consumers
// reconcile from it.
type Worker struct {
	sink   Sink
	inbox  <-chan Event
	logger *zap.Logger
}

func NewWorker(sink Sink, inbox <-chan Event, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Publish(ctx, event); err != nil {
				w.logger.Error("audit sink publish failed",
					zap.String("event_id", event.ID),
					zap.Error(err))
			}
		}
	}
}
