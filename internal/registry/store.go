package registry

import (
	"context"

	id "tracelink/pkg/domain"
)

// Store persists participant registrations. Implementations return sentinel
// errors (pkg/platform/sentinel) for infrastructure facts.
//
// Registrations live in the same durable tier as every other mutable mapping;
// splitting invariant-bearing state across durable and volatile stores is what
// we are explicitly avoiding.
type Store interface {
	// Create persists a participant, failing with sentinel.ErrConflict when
	// the id is already registered.
	Create(ctx context.Context, p Participant) error
	// FindByID returns the participant or sentinel.ErrNotFound.
	FindByID(ctx context.Context, participant id.ParticipantID) (Participant, error)
}
