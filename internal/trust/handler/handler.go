package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"tracelink/internal/trust"
	id "tracelink/pkg/domain"
	dErrors "tracelink/pkg/domain-errors"
	"tracelink/pkg/platform/httputil"
	"tracelink/pkg/requestcontext"
)

// Service defines the trust operations the handler needs.
type Service interface {
	AddRating(ctx context.Context, actor, subject id.ParticipantID, score uint8, comment string) (trust.Rating, error)
	RatingFor(ctx context.Context, subject id.ParticipantID) (trust.RatingSummary, error)
	RatingsFor(ctx context.Context, subject id.ParticipantID) ([]trust.Rating, error)
	FileReport(ctx context.Context, actor, reported id.ParticipantID, product id.ProductID, reason string) (trust.Report, error)
	ResolveReport(ctx context.Context, actor id.ParticipantID, report uint64, valid bool) (trust.Report, error)
	GetReport(ctx context.Context, report uint64) (trust.Report, error)
	OpenReports(ctx context.Context) ([]trust.Report, error)
	ReportsFor(ctx context.Context, product id.ProductID) ([]trust.Report, error)
	ReportsAgainst(ctx context.Context, entity id.ParticipantID) ([]trust.Report, error)
}

// Handler wires rating and report endpoints to the trust service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts trust endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/ratings", h.HandleAddRating)
	r.Get("/participants/{participantID}/rating", h.HandleRatingFor)
	r.Get("/participants/{participantID}/ratings", h.HandleRatingsFor)
	r.Post("/reports", h.HandleFileReport)
	r.Get("/reports", h.HandleOpenReports)
	r.Get("/reports/{reportID}", h.HandleGetReport)
	r.Post("/reports/{reportID}/resolve", h.HandleResolveReport)
	r.Get("/products/{productID}/reports", h.HandleReportsFor)
	r.Get("/participants/{participantID}/reports", h.HandleReportsAgainst)
}

type addRatingRequest struct {
	Subject string `json:"subject"`
	Score   uint8  `json:"score"`
	Comment string `json:"comment"`
}

type fileReportRequest struct {
	ReportedEntity string `json:"reported_entity"`
	ProductID      string `json:"product_id"`
	Reason         string `json:"reason"`
}

type resolveReportRequest struct {
	Valid bool `json:"valid"`
}

func parseReportID(raw string) (uint64, error) {
	report, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, "report id must be an unsigned integer")
	}
	return report, nil
}

// HandleAddRating handles POST /ratings.
func (h *Handler) HandleAddRating(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor := requestcontext.ActorID(ctx)
	if actor.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	var req addRatingRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	subject, err := id.ParseParticipantID(req.Subject)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rating, err := h.service.AddRating(ctx, actor, subject, req.Score, req.Comment)
	if err != nil {
		h.logger.WarnContext(ctx, "rating rejected",
			"request_id", requestcontext.RequestID(ctx),
			"actor", actor,
			"subject", subject,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, rating)
}

// HandleRatingFor handles GET /participants/{participantID}/rating.
func (h *Handler) HandleRatingFor(w http.ResponseWriter, r *http.Request) {
	subject, err := id.ParseParticipantID(chi.URLParam(r, "participantID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	summary, err := h.service.RatingFor(r.Context(), subject)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, summary)
}

// HandleRatingsFor handles GET /participants/{participantID}/ratings.
func (h *Handler) HandleRatingsFor(w http.ResponseWriter, r *http.Request) {
	subject, err := id.ParseParticipantID(chi.URLParam(r, "participantID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	ratings, err := h.service.RatingsFor(r.Context(), subject)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if ratings == nil {
		ratings = []trust.Rating{}
	}

	httputil.WriteJSON(w, http.StatusOK, ratings)
}

// HandleFileReport handles POST /reports.
func (h *Handler) HandleFileReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor := requestcontext.ActorID(ctx)
	if actor.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	var req fileReportRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	reported, err := id.ParseParticipantID(req.ReportedEntity)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	product, err := id.ParseProductID(req.ProductID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	report, err := h.service.FileReport(ctx, actor, reported, product, req.Reason)
	if err != nil {
		h.logger.WarnContext(ctx, "report rejected",
			"request_id", requestcontext.RequestID(ctx),
			"actor", actor,
			"reported_entity", reported,
			"product_id", product,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, report)
}

// HandleOpenReports handles GET /reports.
func (h *Handler) HandleOpenReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.service.OpenReports(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if reports == nil {
		reports = []trust.Report{}
	}

	httputil.WriteJSON(w, http.StatusOK, reports)
}

// HandleGetReport handles GET /reports/{reportID}.
func (h *Handler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	report, err := parseReportID(chi.URLParam(r, "reportID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out, err := h.service.GetReport(r.Context(), report)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandleResolveReport handles POST /reports/{reportID}/resolve.
func (h *Handler) HandleResolveReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor := requestcontext.ActorID(ctx)
	if actor.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	report, err := parseReportID(chi.URLParam(r, "reportID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req resolveReportRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	resolved, err := h.service.ResolveReport(ctx, actor, report, req.Valid)
	if err != nil {
		h.logger.WarnContext(ctx, "report resolution rejected",
			"request_id", requestcontext.RequestID(ctx),
			"actor", actor,
			"report_id", report,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resolved)
}

// HandleReportsFor handles GET /products/{productID}/reports.
func (h *Handler) HandleReportsFor(w http.ResponseWriter, r *http.Request) {
	product, err := id.ParseProductID(chi.URLParam(r, "productID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	reports, err := h.service.ReportsFor(r.Context(), product)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if reports == nil {
		reports = []trust.Report{}
	}

	httputil.WriteJSON(w, http.StatusOK, reports)
}

// HandleReportsAgainst handles GET /participants/{participantID}/reports.
func (h *Handler) HandleReportsAgainst(w http.ResponseWriter, r *http.Request) {
	entity, err := id.ParseParticipantID(chi.URLParam(r, "participantID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	reports, err := h.service.ReportsAgainst(r.Context(), entity)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if reports == nil {
		reports = []trust.Report{}
	}

	httputil.WriteJSON(w, http.StatusOK, reports)
}
