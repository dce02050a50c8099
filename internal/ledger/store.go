package ledger

import (
	"context"

	id "tracelink/pkg/domain"
)

// Store is the append-only event log. It is the single source of truth for
// custody history; nothing ever updates or deletes a persisted event.
//
// Append assigns the next id and persists the event atomically. Mutating
// entry points run one at a time (service-level discipline), so id assignment
// never races; implementations still serialize internally so the invariant
// does not depend on callers behaving.
type Store interface {
	// Append persists the event and returns its assigned id. Ids are dense
	// and strictly increasing from 0.
	Append(ctx context.Context, event Event) (uint64, error)
	// ListByProduct returns every event for the product in ascending id
	// order. An unknown product yields an empty slice, not an error.
	ListByProduct(ctx context.Context, product id.ProductID) ([]Event, error)
	// ListSince returns events with id > cursor in ascending id order.
	// Pass -1 for the full log. The range is evaluated at the call boundary:
	// events appended while the call is in flight are excluded
	// deterministically.
	ListSince(ctx context.Context, cursor int64) ([]Event, error)
	// Count returns the number of events appended so far.
	Count(ctx context.Context) (uint64, error)
}
