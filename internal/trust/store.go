package trust

import (
	"context"

	id "tracelink/pkg/domain"
)

// RatingStore persists ratings. Ratings are append-only.
type RatingStore interface {
	Add(ctx context.Context, r Rating) error
	// Summary aggregates all ratings for a subject. A subject with no
	// ratings yields a zero-count summary, not an error.
	Summary(ctx context.Context, subject id.ParticipantID) (RatingSummary, error)
	ListBySubject(ctx context.Context, subject id.ParticipantID) ([]Rating, error)
}

// ReportStore persists quality reports.
type ReportStore interface {
	// Create persists the report and returns its assigned id. Ids are dense
	// and strictly increasing from 0.
	Create(ctx context.Context, r Report) (uint64, error)
	// FindByID returns the report or sentinel.ErrNotFound.
	FindByID(ctx context.Context, report uint64) (Report, error)
	// Update replaces the stored report, failing with sentinel.ErrNotFound
	// if it does not exist.
	Update(ctx context.Context, r Report) error
	ListOpen(ctx context.Context) ([]Report, error)
	ListByProduct(ctx context.Context, product id.ProductID) ([]Report, error)
	ListByEntity(ctx context.Context, entity id.ParticipantID) ([]Report, error)
}
