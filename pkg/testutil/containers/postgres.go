//go:build integration

package containers

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS commitments (
    participant_id   TEXT PRIMARY KEY,
    stake            BIGINT NOT NULL DEFAULT 0,
    state            TEXT NOT NULL,
    cooldown_ends_at TIMESTAMPTZ,
    slashed_total    BIGINT NOT NULL DEFAULT 0,
    updated_at       TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS ledger_events (
    id             TEXT PRIMARY KEY,
    type           TEXT NOT NULL,
    participant_id TEXT NOT NULL,
    amount         BIGINT NOT NULL DEFAULT 0,
    destination    TEXT NOT NULL DEFAULT '',
    evidence_ref   TEXT NOT NULL DEFAULT '',
    created_at     TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ledger_events_participant
    ON ledger_events (participant_id, created_at);
`

// PostgresContainer wraps a testcontainers Postgres instance with the ledger
// schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts a new Postgres container, applies the schema,
// and registers cleanup with t.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("kindred_test"),
		tcpostgres.WithUsername("kindred"),
		tcpostgres.WithPassword("kindred"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("failed to ping postgres: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.ExecContext(ctx, schema); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	return &PostgresContainer{
		Container: container,
		DSN:       dsn,
		DB:        db,
	}
}

// Truncate clears all rows. Use between tests to ensure isolation.
func (p *PostgresContainer) Truncate(ctx context.Context) error {
	_, err := p.DB.ExecContext(ctx, "TRUNCATE commitments, ledger_events")
	return err
}
