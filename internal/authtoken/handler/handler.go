package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tracelink/internal/authtoken"
	id "tracelink/pkg/domain"
	dErrors "tracelink/pkg/domain-errors"
	"tracelink/pkg/platform/httputil"
	"tracelink/pkg/requestcontext"
)

const defaultTokenTTL = 24 * time.Hour

// Handler mints participant tokens. The route it registers is meant to sit
// behind the admin token middleware; minting is an operator action, not a
// participant one.
type Handler struct {
	service *authtoken.Service
	logger  *slog.Logger
}

func New(service *authtoken.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts token endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/token", h.HandleMintToken)
}

type mintTokenRequest struct {
	ParticipantID string `json:"participant_id"`
	TTLSeconds    int64  `json:"ttl_seconds,omitempty"`
}

type mintTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HandleMintToken handles POST /auth/token.
func (h *Handler) HandleMintToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req mintTokenRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	participant, err := id.ParseParticipantID(req.ParticipantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	ttl := defaultTokenTTL
	if req.TTLSeconds != 0 {
		if req.TTLSeconds < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "ttl_seconds must be positive"))
			return
		}
		ttl = time.Duration(req.TTLSeconds) * time.Second
	}

	token, err := h.service.MintToken(participant, ttl)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mint token"))
		return
	}

	h.logger.InfoContext(ctx, "token minted",
		"request_id", requestcontext.RequestID(ctx),
		"participant", participant,
		"ttl", ttl,
	)
	httputil.WriteJSON(w, http.StatusCreated, mintTokenResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(ttl),
	})
}
