package ledger

import (
	"context"
	"log/slog"
	"math"
	"time"

	ledgermetrics "tracelink/internal/ledger/metrics"
	id "tracelink/pkg/domain"
	dErrors "tracelink/pkg/domain-errors"
	"tracelink/pkg/requestcontext"
)

// RoleChecker resolves an actor's registered role. Satisfied by the registry
// service; the ledger never reaches into the registry's storage directly.
type RoleChecker interface {
	RoleOf(ctx context.Context, actor id.ParticipantID) (id.Role, error)
}

// Service owns the append-only event ledger and the read paths over it.
type Service struct {
	store   Store
	roles   RoleChecker
	logger  *slog.Logger
	metrics *ledgermetrics.Metrics
}

func NewService(store Store, roles RoleChecker, logger *slog.Logger, metrics *ledgermetrics.Metrics) *Service {
	return &Service{store: store, roles: roles, logger: logger, metrics: metrics}
}

// RecordEvent validates and appends a custody event on behalf of an external
// caller. The actor must be registered; suppliers may only record PRODUCED
// events, which keeps the origin of every chain attributable to the party
// that physically created the good.
func (s *Service) RecordEvent(ctx context.Context, actor id.ParticipantID, product id.ProductID, eventType, location string, metadata []MetadataPair) (uint64, error) {
	role, err := s.roles.RoleOf(ctx, actor)
	if err != nil {
		return 0, err
	}
	if !custodyTypes[eventType] {
		return 0, dErrors.Newf(dErrors.CodeValidation, "unknown event type %q", eventType)
	}
	if role == id.RoleSupplier && eventType != EventProduced {
		return 0, dErrors.Newf(dErrors.CodeUnauthorized, "suppliers may only record %s events", EventProduced)
	}

	event := Event{
		Timestamp: requestcontext.Now(ctx),
		ProductID: product,
		Type:      eventType,
		Actor:     actor,
		ActorRole: role,
		Location:  location,
		Metadata:  metadata,
	}
	return s.Append(ctx, event)
}

// Append validates shape and size, then persists the event. This is the
// single write path into the ledger; the product module appends its paired
// events through it rather than through the store.
func (s *Service) Append(ctx context.Context, event Event) (uint64, error) {
	if err := event.Validate(); err != nil {
		return 0, err
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}

	eventID, err := s.store.Append(ctx, event)
	if err != nil {
		// Storage failure is the one non-recoverable condition; surface it
		// as a transient signal rather than crashing the process.
		s.logger.ErrorContext(ctx, "ledger append failed",
			"request_id", requestcontext.RequestID(ctx),
			"product_id", event.ProductID,
			"event_type", event.Type,
			"error", err,
		)
		return 0, dErrors.Wrap(err, dErrors.CodeUnavailable, "ledger append failed")
	}

	if s.metrics != nil {
		s.metrics.ObserveAppend(event.Type, eventID)
	}
	s.logger.InfoContext(ctx, "event appended",
		"event_id", eventID,
		"event_type", event.Type,
		"product_id", event.ProductID,
		"actor", event.Actor,
	)
	return eventID, nil
}

// ProductHistory returns the product's full event history in ascending id
// order. An empty history means the product id is unknown to the ledger.
func (s *Service) ProductHistory(ctx context.Context, product id.ProductID) ([]Event, error) {
	events, err := s.store.ListByProduct(ctx, product)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load product history")
	}
	if len(events) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "no events recorded for product")
	}
	return events, nil
}

// EventsSince returns events with id > cursor, ascending. A cursor at or
// beyond the newest event yields an empty, non-error result.
func (s *Service) EventsSince(ctx context.Context, cursor uint64) ([]Event, error) {
	signed := int64(math.MaxInt64)
	if cursor < math.MaxInt64 {
		signed = int64(cursor)
	}
	events, err := s.store.ListSince(ctx, signed)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to read event stream")
	}
	return events, nil
}

// AllEvents replays the ledger from the beginning, id 0 included.
func (s *Service) AllEvents(ctx context.Context) ([]Event, error) {
	events, err := s.store.ListSince(ctx, -1)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to read event stream")
	}
	return events, nil
}

// VerifyProduct checks the product's history against the custody adjacency
// table. Not found when no events exist for the product.
func (s *Service) VerifyProduct(ctx context.Context, product id.ProductID) (bool, error) {
	start := time.Now()
	events, err := s.ProductHistory(ctx, product)
	if err != nil {
		return false, err
	}
	valid := VerifyChain(events)
	if s.metrics != nil {
		s.metrics.ObserveVerify(start, valid)
	}
	return valid, nil
}

// Count reports the ledger length for the statistics endpoint.
func (s *Service) Count(ctx context.Context) (uint64, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to count events")
	}
	return count, nil
}
