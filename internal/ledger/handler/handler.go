package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"tracelink/internal/ledger"
	id "tracelink/pkg/domain"
	dErrors "tracelink/pkg/domain-errors"
	"tracelink/pkg/platform/httputil"
	"tracelink/pkg/requestcontext"
)

// Service defines the ledger operations the handler needs.
type Service interface {
	RecordEvent(ctx context.Context, actor id.ParticipantID, product id.ProductID, eventType, location string, metadata []ledger.MetadataPair) (uint64, error)
	ProductHistory(ctx context.Context, product id.ProductID) ([]ledger.Event, error)
	EventsSince(ctx context.Context, cursor uint64) ([]ledger.Event, error)
	AllEvents(ctx context.Context) ([]ledger.Event, error)
	VerifyProduct(ctx context.Context, product id.ProductID) (bool, error)
}

// Handler wires ledger endpoints to the ledger service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts ledger endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/events", h.HandleRecordEvent)
	r.Get("/events", h.HandleEventsSince)
	r.Get("/products/{productID}/history", h.HandleProductHistory)
	r.Get("/products/{productID}/verify", h.HandleVerifyProduct)
}

type recordEventRequest struct {
	ProductID string                `json:"product_id"`
	EventType string                `json:"event_type"`
	Location  string                `json:"location"`
	Metadata  []ledger.MetadataPair `json:"metadata"`
}

type eventResponse struct {
	ID        uint64                `json:"id"`
	Timestamp time.Time             `json:"timestamp"`
	ProductID string                `json:"product_id"`
	EventType string                `json:"event_type"`
	Actor     string                `json:"actor"`
	ActorRole string                `json:"actor_role"`
	Location  string                `json:"location"`
	Metadata  []ledger.MetadataPair `json:"metadata"`
}

func toEventResponse(e ledger.Event) eventResponse {
	return eventResponse{
		ID:        e.ID,
		Timestamp: e.Timestamp,
		ProductID: e.ProductID.String(),
		EventType: e.Type,
		Actor:     e.Actor.String(),
		ActorRole: e.ActorRole.String(),
		Location:  e.Location,
		Metadata:  e.Metadata,
	}
}

func toEventResponses(events []ledger.Event) []eventResponse {
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, toEventResponse(e))
	}
	return out
}

// HandleRecordEvent handles POST /events.
func (h *Handler) HandleRecordEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor := requestcontext.ActorID(ctx)
	if actor.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	var req recordEventRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	product, err := id.ParseProductID(req.ProductID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	eventID, err := h.service.RecordEvent(ctx, actor, product, req.EventType, req.Location, req.Metadata)
	if err != nil {
		h.logger.WarnContext(ctx, "record event rejected",
			"request_id", requestcontext.RequestID(ctx),
			"actor", actor,
			"event_type", req.EventType,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]uint64{"event_id": eventID})
}

// HandleEventsSince handles GET /events?since=N. The since parameter is the
// cursor: only events with id > since are returned. Omitting it replays the
// stream from the beginning.
func (h *Handler) HandleEventsSince(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	events := []ledger.Event{}
	var err error
	if raw := r.URL.Query().Get("since"); raw != "" {
		cursor, parseErr := strconv.ParseUint(raw, 10, 64)
		if parseErr != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "since must be an unsigned integer"))
			return
		}
		events, err = h.service.EventsSince(ctx, cursor)
	} else {
		events, err = h.service.AllEvents(ctx)
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toEventResponses(events))
}

// HandleProductHistory handles GET /products/{productID}/history.
func (h *Handler) HandleProductHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	product, err := id.ParseProductID(chi.URLParam(r, "productID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.service.ProductHistory(ctx, product)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toEventResponses(events))
}

// HandleVerifyProduct handles GET /products/{productID}/verify.
func (h *Handler) HandleVerifyProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	product, err := id.ParseProductID(chi.URLParam(r, "productID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	valid, err := h.service.VerifyProduct(ctx, product)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}
