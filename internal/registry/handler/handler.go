package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tracelink/internal/registry"
	id "tracelink/pkg/domain"
	dErrors "tracelink/pkg/domain-errors"
	"tracelink/pkg/platform/httputil"
	"tracelink/pkg/requestcontext"
)

// Service defines the registry operations the handler needs.
type Service interface {
	Register(ctx context.Context, actor id.ParticipantID, role id.Role) (registry.Participant, error)
	Get(ctx context.Context, participant id.ParticipantID) (registry.Participant, error)
}

// Handler wires registry endpoints to the registry service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts registry endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/participants", h.HandleRegister)
	r.Get("/participants/{participantID}/role", h.HandleGetRole)
}

type registerRequest struct {
	Role string `json:"role"`
}

type participantResponse struct {
	ID           string    `json:"id"`
	Role         string    `json:"role"`
	RegisteredAt time.Time `json:"registered_at"`
}

func toParticipantResponse(p registry.Participant) participantResponse {
	return participantResponse{
		ID:           p.ID.String(),
		Role:         p.Role.String(),
		RegisteredAt: p.RegisteredAt,
	}
}

// HandleRegister handles POST /participants.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor := requestcontext.ActorID(ctx)
	if actor.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	var req registerRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	role, err := id.ParseRole(req.Role)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	p, err := h.service.Register(ctx, actor, role)
	if err != nil {
		h.logger.WarnContext(ctx, "registration failed",
			"request_id", requestcontext.RequestID(ctx),
			"participant_id", actor,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toParticipantResponse(p))
}

// HandleGetRole handles GET /participants/{participantID}/role.
func (h *Handler) HandleGetRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	participant, err := id.ParseParticipantID(chi.URLParam(r, "participantID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	p, err := h.service.Get(ctx, participant)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toParticipantResponse(p))
}
