package trust

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "tracelink/pkg/domain"
	"tracelink/pkg/platform/sentinel"
)

// PostgresRatingStore persists ratings in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE ratings (
//	    subject    UUID NOT NULL,
//	    rater      UUID NOT NULL,
//	    score      SMALLINT NOT NULL,
//	    comment    TEXT NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX ratings_subject_idx ON ratings (subject);
type PostgresRatingStore struct {
	db *sql.DB
}

func NewPostgresRatingStore(db *sql.DB) *PostgresRatingStore {
	return &PostgresRatingStore{db: db}
}

func (s *PostgresRatingStore) Add(ctx context.Context, r Rating) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ratings (subject, rater, score, comment, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		uuid.UUID(r.Subject), uuid.UUID(r.Rater), r.Score, r.Comment, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert rating: %w", err)
	}
	return nil
}

func (s *PostgresRatingStore) Summary(ctx context.Context, subject id.ParticipantID) (RatingSummary, error) {
	summary := RatingSummary{Subject: subject}
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(AVG(score), 0), COUNT(*) FROM ratings WHERE subject = $1`,
		uuid.UUID(subject),
	).Scan(&summary.Average, &summary.Count)
	if err != nil {
		return RatingSummary{}, fmt.Errorf("aggregate ratings: %w", err)
	}
	return summary, nil
}

func (s *PostgresRatingStore) ListBySubject(ctx context.Context, subject id.ParticipantID) ([]Rating, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT subject, rater, score, comment, created_at
		   FROM ratings WHERE subject = $1 ORDER BY created_at`,
		uuid.UUID(subject))
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()

	out := []Rating{}
	for rows.Next() {
		var (
			r       Rating
			subject uuid.UUID
			rater   uuid.UUID
		)
		if err := rows.Scan(&subject, &rater, &r.Score, &r.Comment, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		r.Subject = id.ParticipantID(subject)
		r.Rater = id.ParticipantID(rater)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ratings: %w", err)
	}
	return out, nil
}

// PostgresReportStore persists quality reports in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE reports (
//	    id              BIGINT PRIMARY KEY,
//	    reported_entity UUID NOT NULL,
//	    product_id      UUID NOT NULL,
//	    reporter        UUID NOT NULL,
//	    reason          TEXT NOT NULL,
//	    created_at      TIMESTAMPTZ NOT NULL,
//	    valid           BOOLEAN,
//	    resolved_by     UUID,
//	    resolved_at     TIMESTAMPTZ
//	);
//	CREATE INDEX reports_entity_idx ON reports (reported_entity);
//	CREATE INDEX reports_product_idx ON reports (product_id);
//	CREATE INDEX reports_open_idx ON reports (id) WHERE valid IS NULL;
//
// Ids are assigned as max(id)+1 inside the insert transaction, the same way
// the event ledger assigns its ids: sequences leave gaps on rollback and the
// report contract requires a dense sequence.
type PostgresReportStore struct {
	db *sql.DB
}

func NewPostgresReportStore(db *sql.DB) *PostgresReportStore {
	return &PostgresReportStore{db: db}
}

const reportColumns = `id, reported_entity, product_id, reporter, reason, created_at, valid, resolved_by, resolved_at`

func (s *PostgresReportStore) Create(ctx context.Context, r Report) (uint64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin create report: %w", err)
	}
	defer tx.Rollback()

	var nextID uint64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(id), -1) + 1 FROM reports`,
	).Scan(&nextID); err != nil {
		return 0, fmt.Errorf("assign report id: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO reports (`+reportColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		nextID, uuid.UUID(r.ReportedEntity), uuid.UUID(r.ProductID), uuid.UUID(r.Reporter),
		r.Reason, r.CreatedAt, r.Valid, resolvedByValue(r.ResolvedBy), r.ResolvedAt,
	); err != nil {
		return 0, fmt.Errorf("insert report: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit create report: %w", err)
	}
	return nextID, nil
}

func (s *PostgresReportStore) FindByID(ctx context.Context, report uint64) (Report, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE id = $1`, report)
	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Report{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Report{}, fmt.Errorf("find report: %w", err)
	}
	return r, nil
}

func (s *PostgresReportStore) Update(ctx context.Context, r Report) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reports SET reported_entity = $2, product_id = $3, reporter = $4,
		        reason = $5, created_at = $6, valid = $7, resolved_by = $8, resolved_at = $9
		  WHERE id = $1`,
		r.ID, uuid.UUID(r.ReportedEntity), uuid.UUID(r.ProductID), uuid.UUID(r.Reporter),
		r.Reason, r.CreatedAt, r.Valid, resolvedByValue(r.ResolvedBy), r.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("update report: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update report: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresReportStore) ListOpen(ctx context.Context) ([]Report, error) {
	return s.query(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE valid IS NULL ORDER BY id`)
}

func (s *PostgresReportStore) ListByProduct(ctx context.Context, product id.ProductID) ([]Report, error) {
	return s.query(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE product_id = $1 ORDER BY id`,
		uuid.UUID(product))
}

func (s *PostgresReportStore) ListByEntity(ctx context.Context, entity id.ParticipantID) ([]Report, error) {
	return s.query(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE reported_entity = $1 ORDER BY id`,
		uuid.UUID(entity))
}

func (s *PostgresReportStore) query(ctx context.Context, query string, args ...any) ([]Report, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var out []Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (Report, error) {
	var (
		r        Report
		entity   uuid.UUID
		pid      uuid.UUID
		reporter uuid.UUID
		resolved uuid.NullUUID
	)
	err := row.Scan(&r.ID, &entity, &pid, &reporter, &r.Reason, &r.CreatedAt, &r.Valid, &resolved, &r.ResolvedAt)
	if err != nil {
		return Report{}, err
	}
	r.ReportedEntity = id.ParticipantID(entity)
	r.ProductID = id.ProductID(pid)
	r.Reporter = id.ParticipantID(reporter)
	if resolved.Valid {
		by := id.ParticipantID(resolved.UUID)
		r.ResolvedBy = &by
	}
	return r, nil
}

func resolvedByValue(p *id.ParticipantID) any {
	if p == nil {
		return nil
	}
	return uuid.UUID(*p)
}
