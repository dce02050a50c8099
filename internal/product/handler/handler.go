package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tracelink/internal/product"
	id "tracelink/pkg/domain"
	dErrors "tracelink/pkg/domain-errors"
	"tracelink/pkg/platform/httputil"
	"tracelink/pkg/requestcontext"
)

// Service defines the product operations the handler needs.
type Service interface {
	Create(ctx context.Context, actor id.ParticipantID, attrs product.Attributes) (product.Product, error)
	Get(ctx context.Context, productID id.ProductID) (product.Product, error)
	ListByOwner(ctx context.Context, owner id.ParticipantID) ([]product.Product, error)
	ListByStatus(ctx context.Context, status product.Status) ([]product.Product, error)
	ListAll(ctx context.Context) ([]product.Product, error)
	UpdateStatus(ctx context.Context, actor id.ParticipantID, productID id.ProductID, status product.Status, location, notes string) (product.Product, error)
	InitiateTransfer(ctx context.Context, actor id.ParticipantID, productID id.ProductID, to id.ParticipantID, transferType, notes string) (product.Transfer, error)
	CompleteTransfer(ctx context.Context, actor id.ParticipantID, transferID id.TransferID) (product.Transfer, error)
	GetTransfer(ctx context.Context, transferID id.TransferID) (product.Transfer, error)
	TransfersFor(ctx context.Context, participant id.ParticipantID) ([]product.Transfer, error)
	Statistics(ctx context.Context) (product.Statistics, error)
}

// Handler wires product and transfer endpoints to the product service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts product endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/products", h.HandleCreate)
	r.Get("/products", h.HandleList)
	r.Get("/products/{productID}", h.HandleGet)
	r.Put("/products/{productID}/status", h.HandleUpdateStatus)
	r.Post("/products/{productID}/transfers", h.HandleInitiateTransfer)
	r.Get("/transfers/{transferID}", h.HandleGetTransfer)
	r.Post("/transfers/{transferID}/complete", h.HandleCompleteTransfer)
	r.Get("/participants/{participantID}/transfers", h.HandleTransfersFor)
	r.Get("/stats", h.HandleStatistics)
}

type createProductRequest struct {
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	BatchNumber    string     `json:"batch_number"`
	ExpiryDate     *time.Time `json:"expiry_date,omitempty"`
	Price          float64    `json:"price"`
	Quantity       uint32     `json:"quantity"`
	Category       string     `json:"category"`
	Origin         string     `json:"origin"`
	Certifications []string   `json:"certifications"`
}

type updateStatusRequest struct {
	Status   string `json:"status"`
	Location string `json:"location"`
	Notes    string `json:"notes"`
}

type initiateTransferRequest struct {
	To           string `json:"to"`
	TransferType string `json:"transfer_type"`
	Notes        string `json:"notes"`
}

// HandleCreate handles POST /products.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor := requestcontext.ActorID(ctx)
	if actor.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	var req createProductRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	p, err := h.service.Create(ctx, actor, product.Attributes{
		Name:           req.Name,
		Description:    req.Description,
		BatchNumber:    req.BatchNumber,
		ExpiryDate:     req.ExpiryDate,
		Price:          req.Price,
		Quantity:       req.Quantity,
		Category:       req.Category,
		Origin:         req.Origin,
		Certifications: req.Certifications,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "product create rejected",
			"request_id", requestcontext.RequestID(ctx),
			"actor", actor,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, p)
}

// HandleList handles GET /products with optional owner or status filters.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		products []product.Product
		err      error
	)
	switch {
	case r.URL.Query().Get("owner") != "":
		var owner id.ParticipantID
		owner, err = id.ParseParticipantID(r.URL.Query().Get("owner"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		products, err = h.service.ListByOwner(ctx, owner)
	case r.URL.Query().Get("status") != "":
		var status product.Status
		status, err = product.ParseStatus(r.URL.Query().Get("status"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		products, err = h.service.ListByStatus(ctx, status)
	default:
		products, err = h.service.ListAll(ctx)
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if products == nil {
		products = []product.Product{}
	}

	httputil.WriteJSON(w, http.StatusOK, products)
}

// HandleGet handles GET /products/{productID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	productID, err := id.ParseProductID(chi.URLParam(r, "productID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	p, err := h.service.Get(ctx, productID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, p)
}

// HandleUpdateStatus handles PUT /products/{productID}/status.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor := requestcontext.ActorID(ctx)
	if actor.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	productID, err := id.ParseProductID(chi.URLParam(r, "productID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req updateStatusRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	status, err := product.ParseStatus(req.Status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	p, err := h.service.UpdateStatus(ctx, actor, productID, status, req.Location, req.Notes)
	if err != nil {
		h.logger.WarnContext(ctx, "status update rejected",
			"request_id", requestcontext.RequestID(ctx),
			"actor", actor,
			"product_id", productID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, p)
}

// HandleInitiateTransfer handles POST /products/{productID}/transfers.
func (h *Handler) HandleInitiateTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor := requestcontext.ActorID(ctx)
	if actor.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	productID, err := id.ParseProductID(chi.URLParam(r, "productID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req initiateTransferRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	to, err := id.ParseParticipantID(req.To)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	t, err := h.service.InitiateTransfer(ctx, actor, productID, to, req.TransferType, req.Notes)
	if err != nil {
		h.logger.WarnContext(ctx, "transfer initiation rejected",
			"request_id", requestcontext.RequestID(ctx),
			"actor", actor,
			"product_id", productID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, t)
}

// HandleGetTransfer handles GET /transfers/{transferID}.
func (h *Handler) HandleGetTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	transferID, err := id.ParseTransferID(chi.URLParam(r, "transferID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	t, err := h.service.GetTransfer(ctx, transferID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, t)
}

// HandleCompleteTransfer handles POST /transfers/{transferID}/complete.
func (h *Handler) HandleCompleteTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor := requestcontext.ActorID(ctx)
	if actor.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	transferID, err := id.ParseTransferID(chi.URLParam(r, "transferID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	t, err := h.service.CompleteTransfer(ctx, actor, transferID)
	if err != nil {
		h.logger.WarnContext(ctx, "transfer completion rejected",
			"request_id", requestcontext.RequestID(ctx),
			"actor", actor,
			"transfer_id", transferID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, t)
}

// HandleTransfersFor handles GET /participants/{participantID}/transfers.
func (h *Handler) HandleTransfersFor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	participant, err := id.ParseParticipantID(chi.URLParam(r, "participantID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	transfers, err := h.service.TransfersFor(ctx, participant)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if transfers == nil {
		transfers = []product.Transfer{}
	}

	httputil.WriteJSON(w, http.StatusOK, transfers)
}

// HandleStatistics handles GET /stats.
func (h *Handler) HandleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Statistics(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, stats)
}
