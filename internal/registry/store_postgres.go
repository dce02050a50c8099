package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "tracelink/pkg/domain"
	"tracelink/pkg/platform/sentinel"
)

// PostgresStore persists participants in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE participants (
//	    id            UUID PRIMARY KEY,
//	    role          TEXT NOT NULL,
//	    registered_at TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, p Participant) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO participants (id, role, registered_at) VALUES ($1, $2, $3)`,
		uuid.UUID(p.ID), string(p.Role), p.RegisteredAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, participant id.ParticipantID) (Participant, error) {
	var (
		p    Participant
		role string
		uid  uuid.UUID
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, role, registered_at FROM participants WHERE id = $1`,
		uuid.UUID(participant),
	).Scan(&uid, &role, &p.RegisteredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Participant{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Participant{}, fmt.Errorf("find participant: %w", err)
	}
	p.ID = id.ParticipantID(uid)
	p.Role = id.Role(role)
	return p, nil
}
