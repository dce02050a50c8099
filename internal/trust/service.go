package trust

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	trustmetrics "tracelink/internal/trust/metrics"
	id "tracelink/pkg/domain"
	dErrors "tracelink/pkg/domain-errors"
	"tracelink/pkg/platform/sentinel"
	"tracelink/pkg/requestcontext"
)

// RoleChecker resolves a registered participant's role.
type RoleChecker interface {
	RoleOf(ctx context.Context, actor id.ParticipantID) (id.Role, error)
}

// ProductChecker confirms a product exists before a report attaches to it.
type ProductChecker interface {
	Exists(ctx context.Context, product id.ProductID) error
}

// Service owns participant ratings and quality reports.
type Service struct {
	ratings  RatingStore
	reports  ReportStore
	roles    RoleChecker
	products ProductChecker
	logger   *slog.Logger
	metrics  *trustmetrics.Metrics
}

func NewService(ratings RatingStore, reports ReportStore, roles RoleChecker, products ProductChecker, logger *slog.Logger, metrics *trustmetrics.Metrics) *Service {
	return &Service{
		ratings:  ratings,
		reports:  reports,
		roles:    roles,
		products: products,
		logger:   logger,
		metrics:  metrics,
	}
}

// AddRating records a 1..5 score for a registered participant.
func (s *Service) AddRating(ctx context.Context, actor, subject id.ParticipantID, score uint8, comment string) (Rating, error) {
	if _, err := s.roles.RoleOf(ctx, actor); err != nil {
		return Rating{}, err
	}
	if _, err := s.roles.RoleOf(ctx, subject); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return Rating{}, dErrors.New(dErrors.CodeValidation, "rating subject is not registered")
		}
		return Rating{}, err
	}

	r := Rating{
		Subject:   subject,
		Rater:     actor,
		Score:     score,
		Comment:   comment,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := r.Validate(); err != nil {
		return Rating{}, err
	}
	if err := s.ratings.Add(ctx, r); err != nil {
		return Rating{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to store rating")
	}

	if s.metrics != nil {
		s.metrics.RatingsSubmitted.WithLabelValues(strconv.Itoa(int(score))).Inc()
	}
	s.logger.InfoContext(ctx, "rating submitted",
		"request_id", requestcontext.RequestID(ctx),
		"subject", subject,
		"rater", actor,
		"score", score,
	)
	return r, nil
}

// RatingFor returns the aggregate rating for a participant. A participant
// nobody has rated yet yields a zero-count summary.
func (s *Service) RatingFor(ctx context.Context, subject id.ParticipantID) (RatingSummary, error) {
	summary, err := s.ratings.Summary(ctx, subject)
	if err != nil {
		return RatingSummary{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to aggregate ratings")
	}
	return summary, nil
}

// RatingsFor lists individual ratings for a participant.
func (s *Service) RatingsFor(ctx context.Context, subject id.ParticipantID) ([]Rating, error) {
	ratings, err := s.ratings.ListBySubject(ctx, subject)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list ratings")
	}
	return ratings, nil
}

// FileReport opens a quality report against a participant's handling of a
// product.
func (s *Service) FileReport(ctx context.Context, actor, reported id.ParticipantID, product id.ProductID, reason string) (Report, error) {
	if _, err := s.roles.RoleOf(ctx, actor); err != nil {
		return Report{}, err
	}
	if _, err := s.roles.RoleOf(ctx, reported); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return Report{}, dErrors.New(dErrors.CodeValidation, "reported entity is not registered")
		}
		return Report{}, err
	}
	if err := s.products.Exists(ctx, product); err != nil {
		return Report{}, err
	}
	if reason == "" {
		return Report{}, dErrors.New(dErrors.CodeValidation, "report reason is required")
	}

	r := Report{
		ReportedEntity: reported,
		ProductID:      product,
		Reporter:       actor,
		Reason:         reason,
		CreatedAt:      requestcontext.Now(ctx),
	}
	reportID, err := s.reports.Create(ctx, r)
	if err != nil {
		return Report{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to store report")
	}
	r.ID = reportID

	if s.metrics != nil {
		s.metrics.ReportsFiled.Inc()
	}
	s.logger.InfoContext(ctx, "report filed",
		"request_id", requestcontext.RequestID(ctx),
		"report_id", r.ID,
		"reported_entity", reported,
		"product_id", product,
		"reporter", actor,
	)
	return r, nil
}

// ResolveReport records an auditor's verdict. A report is resolved at most
// once; a second resolution attempt fails with a conflict whatever its
// verdict, so the first ruling is never silently overwritten.
func (s *Service) ResolveReport(ctx context.Context, actor id.ParticipantID, report uint64, valid bool) (Report, error) {
	role, err := s.roles.RoleOf(ctx, actor)
	if err != nil {
		return Report{}, err
	}
	if role != id.RoleAuditor {
		return Report{}, dErrors.New(dErrors.CodeUnauthorized, "only auditors may resolve reports")
	}

	r, err := s.reports.FindByID(ctx, report)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Report{}, dErrors.New(dErrors.CodeNotFound, "report not found")
		}
		return Report{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load report")
	}
	if r.Resolved() {
		return Report{}, dErrors.New(dErrors.CodeConflict, "report already resolved")
	}

	now := requestcontext.Now(ctx)
	r.Valid = &valid
	r.ResolvedBy = &actor
	r.ResolvedAt = &now
	if err := s.reports.Update(ctx, r); err != nil {
		return Report{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to update report")
	}

	verdict := "invalid"
	if valid {
		verdict = "valid"
	}
	if s.metrics != nil {
		s.metrics.ReportsResolved.WithLabelValues(verdict).Inc()
	}
	s.logger.InfoContext(ctx, "report resolved",
		"request_id", requestcontext.RequestID(ctx),
		"report_id", r.ID,
		"auditor", actor,
		"verdict", verdict,
	)
	return r, nil
}

// GetReport returns one report by id.
func (s *Service) GetReport(ctx context.Context, report uint64) (Report, error) {
	r, err := s.reports.FindByID(ctx, report)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Report{}, dErrors.New(dErrors.CodeNotFound, "report not found")
		}
		return Report{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load report")
	}
	return r, nil
}

// OpenReports lists reports awaiting an auditor verdict.
func (s *Service) OpenReports(ctx context.Context) ([]Report, error) {
	reports, err := s.reports.ListOpen(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list reports")
	}
	return reports, nil
}

// ReportsFor lists all reports filed about a product.
func (s *Service) ReportsFor(ctx context.Context, product id.ProductID) ([]Report, error) {
	if err := s.products.Exists(ctx, product); err != nil {
		return nil, err
	}
	reports, err := s.reports.ListByProduct(ctx, product)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list reports")
	}
	return reports, nil
}

// ReportsAgainst lists all reports filed against a participant.
func (s *Service) ReportsAgainst(ctx context.Context, entity id.ParticipantID) ([]Report, error) {
	reports, err := s.reports.ListByEntity(ctx, entity)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list reports")
	}
	return reports, nil
}
