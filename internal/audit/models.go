// Package audit records every ledger mutation in an append-only trail.
// The durable store is the source of truth; a Kafka sink fans events out to
// downstream consumers when brokers are configured. Commitments are never
// deleted, and neither are their events: slash history must stay
// inspectable.
package audit

import "time"

// EventType labels a ledger mutation.
type EventType string

const (
	EventDeposit           EventType = "ledger.deposit"
	EventWithdrawRequested EventType = "ledger.withdraw_requested"
	EventWithdrawFinalized EventType = "ledger.withdraw_finalized"
	EventSlash             EventType = "ledger.slash"
)

// Event is one entry in the trail. Amount is the effective amount: for a
// slash that is the capped value actually forfeited, not the requested one.
type Event struct {
	ID            string    `json:"id"`
	Type          EventType `json:"type"`
	ParticipantID string    `json:"participant_id"`
	Amount        int64     `json:"amount"`
	Destination   string    `json:"destination,omitempty"`
	EvidenceRef   string    `json:"evidence_ref,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}
