package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore appends events to the ledger_events table. Rows are
// insert-only; there is no update or delete path.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const insertEventQuery = `
INSERT INTO ledger_events (id, type, participant_id, amount, destination, evidence_ref, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	_, err := s.db.ExecContext(ctx, insertEventQuery,
		event.ID,
		string(event.Type),
		event.ParticipantID,
		event.Amount,
		event.Destination,
		event.EvidenceRef,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append ledger event %s: %w", event.ID, err)
	}
	return nil
}

const listEventsQuery = `
SELECT id, type, participant_id, amount, destination, evidence_ref, created_at
FROM ledger_events
WHERE participant_id = $1
ORDER BY created_at ASC`

func (s *PostgresStore) ListByParticipant(ctx context.Context, participantID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, listEventsQuery, participantID)
	if err != nil {
		return nil, fmt.Errorf("list ledger events for %s: %w", participantID, err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Type, &e.ParticipantID, &e.Amount, &e.Destination, &e.EvidenceRef, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan ledger event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger events: %w", err)
	}
	return events, nil
}
