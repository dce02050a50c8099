package product

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

// PostgresProductStore persists products in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE products (
//	    id             UUID PRIMARY KEY,
//	    name           TEXT NOT NULL,
//	    description    TEXT NOT NULL,
//	    supplier_id    UUID NOT NULL,
//	    current_owner  UUID NOT NULL,
//	    status         TEXT NOT NULL,
//	    created_at     TIMESTAMPTZ NOT NULL,
//	    updated_at     TIMESTAMPTZ NOT NULL,
//	    batch_number   TEXT NOT NULL,
//	    expiry_date    TIMESTAMPTZ,
//	    price          DOUBLE PRECISION NOT NULL,
//	    quantity       INTEGER NOT NULL,
//	    category       TEXT NOT NULL,
//	    origin         TEXT NOT NULL,
//	    certifications TEXT[] NOT NULL
//	);
//	CREATE INDEX products_owner_idx ON products (current_owner);
//	CREATE INDEX products_status_idx ON products (status);
type PostgresProductStore struct {
	db *sql.DB
}

func NewPostgresProductStore(db *sql.DB) *PostgresProductStore {
	return &PostgresProductStore{db: db}
}

const productColumns = `id, name, description, supplier_id, current_owner, status,
	created_at, updated_at, batch_number, expiry_date, price, quantity,
	category, origin, certifications`

func (s *PostgresProductStore) Create(ctx context.Context, p Product) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO products (`+productColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		uuid.UUID(p.ID), p.Name, p.Description, uuid.UUID(p.SupplierID),
		uuid.UUID(p.CurrentOwner), string(p.Status), p.CreatedAt, p.UpdatedAt,
		p.BatchNumber, p.ExpiryDate, p.Price, p.Quantity, p.Category, p.Origin,
		pq.Array(p.Certifications),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (s *PostgresProductStore) FindByID(ctx context.Context, product id.ProductID) (Product, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, uuid.UUID(product))
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("find product: %w", err)
	}
	return p, nil
}

func (s *PostgresProductStore) Update(ctx context.Context, p Product) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE products SET name = $2, description = $3, supplier_id = $4,
		        current_owner = $5, status = $6, created_at = $7, updated_at = $8,
		        batch_number = $9, expiry_date = $10, price = $11, quantity = $12,
		        category = $13, origin = $14, certifications = $15
		  WHERE id = $1`,
		uuid.UUID(p.ID), p.Name, p.Description, uuid.UUID(p.SupplierID),
		uuid.UUID(p.CurrentOwner), string(p.Status), p.CreatedAt, p.UpdatedAt,
		p.BatchNumber, p.ExpiryDate, p.Price, p.Quantity, p.Category, p.Origin,
		pq.Array(p.Certifications),
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresProductStore) ListByOwner(ctx context.Context, owner id.ParticipantID) ([]Product, error) {
	return s.query(ctx,
		`SELECT `+productColumns+` FROM products WHERE current_owner = $1 ORDER BY created_at`,
		uuid.UUID(owner))
}

func (s *PostgresProductStore) ListByStatus(ctx context.Context, status Status) ([]Product, error) {
	return s.query(ctx,
		`SELECT `+productColumns+` FROM products WHERE status = $1 ORDER BY created_at`,
		string(status))
}

func (s *PostgresProductStore) ListAll(ctx context.Context) ([]Product, error) {
	return s.query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at`)
}

func (s *PostgresProductStore) Count(ctx context.Context) (uint64, error) {
	var count uint64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}

func (s *PostgresProductStore) query(ctx context.Context, query string, args ...any) ([]Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (Product, error) {
	var (
		p        Product
		pid      uuid.UUID
		supplier uuid.UUID
		owner    uuid.UUID
		status   string
		certs    pq.StringArray
	)
	err := row.Scan(&pid, &p.Name, &p.Description, &supplier, &owner, &status,
		&p.CreatedAt, &p.UpdatedAt, &p.BatchNumber, &p.ExpiryDate, &p.Price,
		&p.Quantity, &p.Category, &p.Origin, &certs)
	if err != nil {
		return Product{}, err
	}
	p.ID = id.ProductID(pid)
	p.SupplierID = id.ParticipantID(supplier)
	p.CurrentOwner = id.ParticipantID(owner)
	p.Status = Status(status)
	p.Certifications = []string(certs)
	return p, nil
}

// PostgresTransferStore persists transfers in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE transfers (
//	    id            UUID PRIMARY KEY,
//	    product_id    UUID NOT NULL,
//	    from_user     UUID NOT NULL,
//	    to_user       UUID NOT NULL,
//	    transfer_type TEXT NOT NULL,
//	    status        TEXT NOT NULL,
//	    initiated_at  TIMESTAMPTZ NOT NULL,
//	    completed_at  TIMESTAMPTZ,
//	    notes         TEXT NOT NULL
//	);
//	CREATE INDEX transfers_from_idx ON transfers (from_user);
//	CREATE INDEX transfers_to_idx ON transfers (to_user);
type PostgresTransferStore struct {
	db *sql.DB
}

func NewPostgresTransferStore(db *sql.DB) *PostgresTransferStore {
	return &PostgresTransferStore{db: db}
}

const transferColumns = `id, product_id, from_user, to_user, transfer_type, status,
	initiated_at, completed_at, notes`

func (s *PostgresTransferStore) Create(ctx context.Context, t Transfer) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transfers (`+transferColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.UUID(t.ID), uuid.UUID(t.ProductID), uuid.UUID(t.From), uuid.UUID(t.To),
		t.Type, string(t.Status), t.InitiatedAt, t.CompletedAt, t.Notes,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}

func (s *PostgresTransferStore) FindByID(ctx context.Context, transfer id.TransferID) (Transfer, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+transferColumns+` FROM transfers WHERE id = $1`, uuid.UUID(transfer))
	t, err := scanTransfer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Transfer{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Transfer{}, fmt.Errorf("find transfer: %w", err)
	}
	return t, nil
}

func (s *PostgresTransferStore) Update(ctx context.Context, t Transfer) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE transfers SET product_id = $2, from_user = $3, to_user = $4,
		        transfer_type = $5, status = $6, initiated_at = $7,
		        completed_at = $8, notes = $9
		  WHERE id = $1`,
		uuid.UUID(t.ID), uuid.UUID(t.ProductID), uuid.UUID(t.From), uuid.UUID(t.To),
		t.Type, string(t.Status), t.InitiatedAt, t.CompletedAt, t.Notes,
	)
	if err != nil {
		return fmt.Errorf("update transfer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transfer: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresTransferStore) Delete(ctx context.Context, transfer id.TransferID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM transfers WHERE id = $1`, uuid.UUID(transfer))
	if err != nil {
		return fmt.Errorf("delete transfer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transfer: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresTransferStore) ListByParticipant(ctx context.Context, participant id.ParticipantID) ([]Transfer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transferColumns+` FROM transfers
		  WHERE from_user = $1 OR to_user = $1 ORDER BY initiated_at`,
		uuid.UUID(participant))
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	var out []Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfers: %w", err)
	}
	return out, nil
}

func (s *PostgresTransferStore) Count(ctx context.Context) (uint64, error) {
	var count uint64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transfers`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count transfers: %w", err)
	}
	return count, nil
}

func scanTransfer(row rowScanner) (Transfer, error) {
	var (
		t    Transfer
		tid  uuid.UUID
		pid  uuid.UUID
		from uuid.UUID
		to   uuid.UUID
		st   string
	)
	err := row.Scan(&tid, &pid, &from, &to, &t.Type, &st, &t.InitiatedAt, &t.CompletedAt, &t.Notes)
	if err != nil {
		return Transfer{}, err
	}
	t.ID = id.TransferID(tid)
	t.ProductID = id.ProductID(pid)
	t.From = id.ParticipantID(from)
	t.To = id.ParticipantID(to)
	t.Status = TransferStatus(st)
	return t, nil
}
