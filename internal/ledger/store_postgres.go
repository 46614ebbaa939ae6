package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresStore persists commitments in the commitments table. One row per
// participant, upserted in place; rows are never deleted.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const findCommitmentQuery = `
SELECT participant_id, stake, state, cooldown_ends_at, slashed_total, updated_at
FROM commitments
WHERE participant_id = $1`

func (s *PostgresStore) Find(ctx context.Context, participantID string) (Commitment, error) {
	var (
		c              Commitment
		cooldownEndsAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, findCommitmentQuery, participantID).Scan(
		&c.ParticipantID,
		&c.Stake,
		&c.State,
		&cooldownEndsAt,
		&c.SlashedTotal,
		&c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Commitment{}, ErrNotFound
	}
	if err != nil {
		return Commitment{}, fmt.Errorf("find commitment %s: %w", participantID, err)
	}
	if cooldownEndsAt.Valid {
		c.CooldownEndsAt = cooldownEndsAt.Time
	}
	return c, nil
}

const upsertCommitmentQuery = `
INSERT INTO commitments (participant_id, stake, state, cooldown_ends_at, slashed_total, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (participant_id) DO UPDATE SET
	stake = EXCLUDED.stake,
	state = EXCLUDED.state,
	cooldown_ends_at = EXCLUDED.cooldown_ends_at,
	slashed_total = EXCLUDED.slashed_total,
	updated_at = EXCLUDED.updated_at`

func (s *PostgresStore) Save(ctx context.Context, c Commitment) error {
	var cooldownEndsAt sql.NullTime
	if !c.CooldownEndsAt.IsZero() {
		cooldownEndsAt = sql.NullTime{Time: c.CooldownEndsAt, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, upsertCommitmentQuery,
		c.ParticipantID,
		c.Stake,
		string(c.State),
		cooldownEndsAt,
		c.SlashedTotal,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save commitment %s: %w", c.ParticipantID, err)
	}
	return nil
}
