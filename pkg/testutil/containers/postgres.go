//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance with the
// tracelink schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS participants (
    id            UUID PRIMARY KEY,
    role          TEXT NOT NULL,
    registered_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
    id         BIGINT PRIMARY KEY,
    ts         TIMESTAMPTZ NOT NULL,
    product_id UUID NOT NULL,
    event_type TEXT NOT NULL,
    actor      UUID NOT NULL,
    actor_role TEXT NOT NULL,
    location   TEXT NOT NULL,
    metadata   JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS events_product_idx ON events (product_id, id);

CREATE TABLE IF NOT EXISTS products (
    id             UUID PRIMARY KEY,
    name           TEXT NOT NULL,
    description    TEXT NOT NULL,
    supplier_id    UUID NOT NULL,
    current_owner  UUID NOT NULL,
    status         TEXT NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL,
    updated_at     TIMESTAMPTZ NOT NULL,
    batch_number   TEXT NOT NULL,
    expiry_date    TIMESTAMPTZ,
    price          DOUBLE PRECISION NOT NULL,
    quantity       INTEGER NOT NULL,
    category       TEXT NOT NULL,
    origin         TEXT NOT NULL,
    certifications TEXT[] NOT NULL
);
CREATE INDEX IF NOT EXISTS products_owner_idx ON products (current_owner);
CREATE INDEX IF NOT EXISTS products_status_idx ON products (status);

CREATE TABLE IF NOT EXISTS transfers (
    id            UUID PRIMARY KEY,
    product_id    UUID NOT NULL,
    from_user     UUID NOT NULL,
    to_user       UUID NOT NULL,
    transfer_type TEXT NOT NULL,
    status        TEXT NOT NULL,
    initiated_at  TIMESTAMPTZ NOT NULL,
    completed_at  TIMESTAMPTZ,
    notes         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS transfers_from_idx ON transfers (from_user);
CREATE INDEX IF NOT EXISTS transfers_to_idx ON transfers (to_user);

CREATE TABLE IF NOT EXISTS ratings (
    subject    UUID NOT NULL,
    rater      UUID NOT NULL,
    score      SMALLINT NOT NULL,
    comment    TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS ratings_subject_idx ON ratings (subject);

CREATE TABLE IF NOT EXISTS reports (
    id              BIGINT PRIMARY KEY,
    reported_entity UUID NOT NULL,
    product_id      UUID NOT NULL,
    reporter        UUID NOT NULL,
    reason          TEXT NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL,
    valid           BOOLEAN,
    resolved_by     UUID,
    resolved_at     TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS reports_entity_idx ON reports (reported_entity);
CREATE INDEX IF NOT EXISTS reports_product_idx ON reports (product_id);
CREATE INDEX IF NOT EXISTS reports_open_idx ON reports (id) WHERE valid IS NULL;
`

// NewPostgresContainer starts a new PostgreSQL container and applies the
// schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("tracelink_test"),
		tcpostgres.WithUsername("tracelink"),
		tcpostgres.WithPassword("tracelink"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	pc := &PostgresContainer{
		Container: container,
		DSN:       dsn,
		DB:        db,
	}

	t.Cleanup(func() {
		_ = db.Close()
		_ = container.Terminate(context.Background())
	})

	return pc
}

// TruncateTables empties the given tables between tests.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	_, err := p.DB.ExecContext(ctx,
		fmt.Sprintf("TRUNCATE TABLE %s", strings.Join(tables, ", ")))
	return err
}
