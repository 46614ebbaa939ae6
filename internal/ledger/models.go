// Package ledger tracks each participant's economic commitment: stake
// deposits, withdrawal cooldowns, and slashing driven by adjudicated safety
// evidence. It is a state machine over typed events; it performs no network
// I/O and never adjudicates evidence itself.
package ledger

import "time"

// State is the lifecycle position of a Commitment.
type State string

const (
	// StateUncommitted is the initial state and the state after a finalized
	// withdrawal or a slash that exhausted the stake. Re-enterable: a new
	// deposit returns the participant to Active.
	StateUncommitted State = "uncommitted"
	// StateActive means the stake is held and fully liquid for protocol
	// purposes, e.g. eligibility to receive matches.
	StateActive State = "active"
	// StateCooldown means a withdrawal was requested; the stake remains
	// slashable until the cooldown elapses and the withdrawal is finalized.
	StateCooldown State = "cooldown"
)

// Commitment is the per-participant record. One exists per participant for
// the lifetime of the ledger; it is never deleted, so slash history stays
// inspectable even at zero stake.
type Commitment struct {
	ParticipantID string    `json:"participant_id"`
	Stake         int64     `json:"stake"`
	State         State     `json:"state"`
	// CooldownEndsAt is meaningful only in StateCooldown.
	CooldownEndsAt time.Time `json:"cooldown_ends_at,omitzero"`
	// SlashedTotal only ever grows.
	SlashedTotal int64     `json:"slashed_total"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Slashable reports whether the stake can currently be forfeited.
func (c Commitment) Slashable() bool {
	return c.State == StateActive || c.State == StateCooldown
}
