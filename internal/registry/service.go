package registry

import (
	"context"
	"errors"
	"log/slog"

	registrymetrics "tracelink/internal/registry/metrics"
	id "tracelink/pkg/domain"
	dErrors "tracelink/pkg/domain-errors"
	"tracelink/pkg/platform/sentinel"
	"tracelink/pkg/requestcontext"
)

// Service owns participant registration and role lookups. Every mutating
// operation elsewhere consults it through the RoleOf contract.
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *registrymetrics.Metrics
}

func NewService(store Store, logger *slog.Logger, metrics *registrymetrics.Metrics) *Service {
	return &Service{store: store, logger: logger, metrics: metrics}
}

// Register assigns the actor its role. Each identity registers exactly once;
// a second attempt is a conflict regardless of the requested role.
func (s *Service) Register(ctx context.Context, actor id.ParticipantID, role id.Role) (Participant, error) {
	p := Participant{
		ID:           actor,
		Role:         role,
		RegisteredAt: requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return Participant{}, dErrors.New(dErrors.CodeConflict, "participant already registered")
		}
		return Participant{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to register participant")
	}

	if s.metrics != nil {
		s.metrics.IncrementRegistered(role)
	}
	s.logger.InfoContext(ctx, "participant registered",
		"participant_id", actor,
		"role", role,
	)
	return p, nil
}

// RoleOf returns the actor's registered role, or unauthorized when the actor
// never registered. Unregistered identities may not mutate anything.
func (s *Service) RoleOf(ctx context.Context, actor id.ParticipantID) (id.Role, error) {
	p, err := s.store.FindByID(ctx, actor)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeUnauthorized, "participant not registered")
		}
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to look up role")
	}
	return p.Role, nil
}

// Get returns the participant record, or not found.
func (s *Service) Get(ctx context.Context, participant id.ParticipantID) (Participant, error) {
	p, err := s.store.FindByID(ctx, participant)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Participant{}, dErrors.New(dErrors.CodeNotFound, "participant not found")
		}
		return Participant{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load participant")
	}
	return p, nil
}
