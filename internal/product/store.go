package product

import (
	"context"

	id "tracelink/pkg/domain"
)

// ProductStore persists the current-state projection. Products are created
// and updated in place, never deleted.
type ProductStore interface {
	// Create persists a new product, failing with sentinel.ErrConflict if the
	// id already exists.
	Create(ctx context.Context, p Product) error
	// FindByID returns the product or sentinel.ErrNotFound.
	FindByID(ctx context.Context, product id.ProductID) (Product, error)
	// Update replaces the stored product, failing with sentinel.ErrNotFound
	// if it does not exist.
	Update(ctx context.Context, p Product) error
	ListByOwner(ctx context.Context, owner id.ParticipantID) ([]Product, error)
	ListByStatus(ctx context.Context, status Status) ([]Product, error)
	ListAll(ctx context.Context) ([]Product, error)
	Count(ctx context.Context) (uint64, error)
}

// TransferStore persists custody transfers.
type TransferStore interface {
	Create(ctx context.Context, t Transfer) error
	// FindByID returns the transfer or sentinel.ErrNotFound.
	FindByID(ctx context.Context, transfer id.TransferID) (Transfer, error)
	// Update replaces the stored transfer, failing with sentinel.ErrNotFound
	// if it does not exist.
	Update(ctx context.Context, t Transfer) error
	// Delete removes the transfer. Used only to unwind an initiation whose
	// paired event failed to append; completed transfers are never deleted.
	Delete(ctx context.Context, transfer id.TransferID) error
	// ListByParticipant returns transfers where the participant is sender or
	// recipient.
	ListByParticipant(ctx context.Context, participant id.ParticipantID) ([]Transfer, error)
	Count(ctx context.Context) (uint64, error)
}
