package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisher_EmitAssignsIDAndAppends(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	pub := NewPublisher(store, nil, nil)

	err := pub.Emit(ctx, Event{
		Type:          EventDeposit,
		ParticipantID: "p1",
		Amount:        100,
		Timestamp:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	events, err := pub.List(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].ID)
	assert.Equal(t, EventDeposit, events[0].Type)
	assert.Equal(t, int64(100), events[0].Amount)
}

func TestPublisher_ForwardsToInbox(t *testing.T) {
	ctx := context.Background()
	inbox := make(chan Event, 1)
	pub := NewPublisher(NewInMemoryStore(), inbox, nil)

	err := pub.Emit(ctx, Event{Type: EventSlash, ParticipantID: "p1", Amount: 40})
	require.NoError(t, err)

	select {
	case got := <-inbox:
		assert.Equal(t, EventSlash, got.Type)
	default:
		t.Fatal("event not forwarded to inbox")
	}
}

func TestPublisher_FullInboxDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	inbox := make(chan Event) // unbuffered, nobody reading
	pub := NewPublisher(NewInMemoryStore(), inbox, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = pub.Emit(ctx, Event{Type: EventDeposit, ParticipantID: "p1", Amount: 1})
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("emit blocked on full inbox")
	}
}

type recordingSink struct {
	events chan Event
}

func (r *recordingSink) Publish(_ context.Context, e Event) error {
	r.events <- e
	return nil
}

func TestWorker_DrainsInboxIntoSink(t *testing.T) {
	inbox := make(chan Event, 2)
	sink := &recordingSink{events: make(chan Event, 2)}
	worker := NewWorker(sink, inbox, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	inbox <- Event{ID: "e1", Type: EventDeposit}
	inbox <- Event{ID: "e2", Type: EventSlash}

	first := <-sink.events
	second := <-sink.events
	assert.Equal(t, "e1", first.ID)
	assert.Equal(t, "e2", second.ID)
}

func TestWorker_StopsOnContextCancel(t *testing.T) {
	worker := NewWorker(&recordingSink{events: make(chan Event, 1)}, make(chan Event), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := worker.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
