package product

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"tracelink/internal/ledger"
	productmetrics "tracelink/internal/product/metrics"
	id "tracelink/pkg/domain"
	dErrors "tracelink/pkg/domain-errors"
	"tracelink/pkg/platform/sentinel"
	"tracelink/pkg/requestcontext"
)

// EventAppender is the ledger write path. Every product mutation records a
// paired custody event through it, so the ledger stays the complete record
// of everything that happened to a product.
type EventAppender interface {
	Append(ctx context.Context, event ledger.Event) (uint64, error)
	Count(ctx context.Context) (uint64, error)
}

// RoleChecker resolves a registered participant's role.
type RoleChecker interface {
	RoleOf(ctx context.Context, actor id.ParticipantID) (id.Role, error)
}

// Statistics is the aggregate view over the whole system.
type Statistics struct {
	Products  uint64 `json:"total_products"`
	Events    uint64 `json:"total_events"`
	Transfers uint64 `json:"total_transfers"`
}

// Service owns the product state machine and the custody transfer workflow.
type Service struct {
	products  ProductStore
	transfers TransferStore
	events    EventAppender
	roles     RoleChecker
	logger    *slog.Logger
	metrics   *productmetrics.Metrics
}

func NewService(products ProductStore, transfers TransferStore, events EventAppender, roles RoleChecker, logger *slog.Logger, metrics *productmetrics.Metrics) *Service {
	return &Service{
		products:  products,
		transfers: transfers,
		events:    events,
		roles:     roles,
		logger:    logger,
		metrics:   metrics,
	}
}

// Create registers a new product under the calling supplier. The creation
// event is appended before the product row is written: a product that exists
// without its PRODUCT_CREATED event would break history replay, while an
// orphaned creation event is only a harmless dangling entry.
func (s *Service) Create(ctx context.Context, actor id.ParticipantID, attrs Attributes) (Product, error) {
	role, err := s.roles.RoleOf(ctx, actor)
	if err != nil {
		return Product{}, err
	}
	if role != id.RoleSupplier {
		return Product{}, dErrors.New(dErrors.CodeUnauthorized, "only suppliers may register products")
	}
	if err := attrs.Validate(); err != nil {
		return Product{}, err
	}

	now := requestcontext.Now(ctx)
	p := Product{
		ID:             id.NewProductID(),
		Name:           attrs.Name,
		Description:    attrs.Description,
		SupplierID:     actor,
		CurrentOwner:   actor,
		Status:         StatusCreated,
		CreatedAt:      now,
		UpdatedAt:      now,
		BatchNumber:    attrs.BatchNumber,
		ExpiryDate:     attrs.ExpiryDate,
		Price:          attrs.Price,
		Quantity:       attrs.Quantity,
		Category:       attrs.Category,
		Origin:         attrs.Origin,
		Certifications: attrs.Certifications,
	}

	_, err = s.events.Append(ctx, ledger.Event{
		Timestamp: now,
		ProductID: p.ID,
		Type:      ledger.EventProductCreated,
		Actor:     actor,
		ActorRole: role,
		Location:  attrs.Origin,
		Metadata: []ledger.MetadataPair{
			{Key: "batch_number", Value: attrs.BatchNumber},
			{Key: "quantity", Value: strconv.FormatUint(uint64(attrs.Quantity), 10)},
		},
	})
	if err != nil {
		return Product{}, err
	}

	if err := s.products.Create(ctx, p); err != nil {
		return Product{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to store product")
	}

	if s.metrics != nil {
		s.metrics.ProductsCreated.Inc()
	}
	s.logger.InfoContext(ctx, "product created",
		"request_id", requestcontext.RequestID(ctx),
		"product_id", p.ID,
		"supplier", actor,
		"batch_number", p.BatchNumber,
	)
	return p, nil
}

// Get returns one product by id.
func (s *Service) Get(ctx context.Context, product id.ProductID) (Product, error) {
	p, err := s.products.FindByID(ctx, product)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Product{}, dErrors.New(dErrors.CodeNotFound, "product not found")
		}
		return Product{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load product")
	}
	return p, nil
}

// Exists confirms a product is known. Other modules attach reports through
// this check.
func (s *Service) Exists(ctx context.Context, product id.ProductID) error {
	_, err := s.Get(ctx, product)
	return err
}

func (s *Service) ListByOwner(ctx context.Context, owner id.ParticipantID) ([]Product, error) {
	products, err := s.products.ListByOwner(ctx, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list products")
	}
	return products, nil
}

func (s *Service) ListByStatus(ctx context.Context, status Status) ([]Product, error) {
	products, err := s.products.ListByStatus(ctx, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list products")
	}
	return products, nil
}

func (s *Service) ListAll(ctx context.Context) ([]Product, error) {
	products, err := s.products.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list products")
	}
	return products, nil
}

// UpdateStatus sets a new status on a product owned by the caller and appends
// the matching STATUS_UPDATED event. If the event append fails the previous
// product state is restored, so status and history cannot drift apart.
func (s *Service) UpdateStatus(ctx context.Context, actor id.ParticipantID, product id.ProductID, status Status, location, notes string) (Product, error) {
	role, err := s.roles.RoleOf(ctx, actor)
	if err != nil {
		return Product{}, err
	}
	p, err := s.Get(ctx, product)
	if err != nil {
		return Product{}, err
	}
	if p.CurrentOwner != actor {
		return Product{}, dErrors.New(dErrors.CodeUnauthorized, "only the current owner may update product status")
	}

	prev := p
	p.Status = status
	p.UpdatedAt = requestcontext.Now(ctx)
	if err := s.products.Update(ctx, p); err != nil {
		return Product{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to update product")
	}

	_, err = s.events.Append(ctx, ledger.Event{
		Timestamp: p.UpdatedAt,
		ProductID: p.ID,
		Type:      ledger.EventStatusUpdated,
		Actor:     actor,
		ActorRole: role,
		Location:  location,
		Metadata: []ledger.MetadataPair{
			{Key: "new_status", Value: status.String()},
			{Key: "notes", Value: notes},
		},
	})
	if err != nil {
		if restoreErr := s.products.Update(ctx, prev); restoreErr != nil {
			s.logger.ErrorContext(ctx, "failed to restore product after append failure",
				"request_id", requestcontext.RequestID(ctx),
				"product_id", p.ID,
				"error", restoreErr,
			)
		}
		return Product{}, err
	}

	if s.metrics != nil {
		s.metrics.StatusChanges.WithLabelValues(status.String()).Inc()
	}
	s.logger.InfoContext(ctx, "product status updated",
		"request_id", requestcontext.RequestID(ctx),
		"product_id", p.ID,
		"status", status,
		"actor", actor,
	)
	return p, nil
}

// InitiateTransfer hands the product over to a recipient. Ownership and, for
// the well-known transfer types, product status change immediately; the
// pending transfer row only tracks whether the recipient has acknowledged
// receipt yet.
func (s *Service) InitiateTransfer(ctx context.Context, actor id.ParticipantID, product id.ProductID, to id.ParticipantID, transferType, notes string) (Transfer, error) {
	role, err := s.roles.RoleOf(ctx, actor)
	if err != nil {
		return Transfer{}, err
	}
	if _, err := s.roles.RoleOf(ctx, to); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return Transfer{}, dErrors.New(dErrors.CodeValidation, "transfer recipient is not registered")
		}
		return Transfer{}, err
	}
	if to == actor {
		return Transfer{}, dErrors.New(dErrors.CodeValidation, "cannot transfer a product to yourself")
	}

	p, err := s.Get(ctx, product)
	if err != nil {
		return Transfer{}, err
	}
	if p.CurrentOwner != actor {
		return Transfer{}, dErrors.New(dErrors.CodeUnauthorized, "only the current owner may transfer the product")
	}

	now := requestcontext.Now(ctx)
	t := Transfer{
		ID:          id.NewTransferID(),
		ProductID:   product,
		From:        actor,
		To:          to,
		Type:        transferType,
		Status:      TransferPending,
		InitiatedAt: now,
		Notes:       notes,
	}

	prev := p
	p.CurrentOwner = to
	if status, ok := statusForTransferType[transferType]; ok {
		p.Status = status
	}
	p.UpdatedAt = now
	if err := s.products.Update(ctx, p); err != nil {
		return Transfer{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to update product")
	}

	if err := s.transfers.Create(ctx, t); err != nil {
		s.restoreProduct(ctx, prev)
		return Transfer{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to store transfer")
	}

	_, err = s.events.Append(ctx, ledger.Event{
		Timestamp: now,
		ProductID: product,
		Type:      ledger.EventProductTransferred,
		Actor:     actor,
		ActorRole: role,
		Metadata: []ledger.MetadataPair{
			{Key: "transfer_id", Value: t.ID.String()},
			{Key: "to", Value: to.String()},
			{Key: "transfer_type", Value: transferType},
		},
	})
	if err != nil {
		s.restoreProduct(ctx, prev)
		s.discardTransfer(ctx, t.ID)
		return Transfer{}, err
	}

	if s.metrics != nil {
		s.metrics.TransfersInitiated.WithLabelValues(transferType).Inc()
	}
	s.logger.InfoContext(ctx, "transfer initiated",
		"request_id", requestcontext.RequestID(ctx),
		"transfer_id", t.ID,
		"product_id", product,
		"from", actor,
		"to", to,
		"transfer_type", transferType,
	)
	return t, nil
}

// CompleteTransfer is the recipient's acknowledgement of receipt. It never
// changes ownership; that already happened at initiation.
func (s *Service) CompleteTransfer(ctx context.Context, actor id.ParticipantID, transfer id.TransferID) (Transfer, error) {
	role, err := s.roles.RoleOf(ctx, actor)
	if err != nil {
		return Transfer{}, err
	}

	t, err := s.transfers.FindByID(ctx, transfer)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Transfer{}, dErrors.New(dErrors.CodeNotFound, "transfer not found")
		}
		return Transfer{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load transfer")
	}
	if t.To != actor {
		return Transfer{}, dErrors.New(dErrors.CodeUnauthorized, "only the recipient may complete the transfer")
	}
	if t.Status == TransferCompleted {
		return Transfer{}, dErrors.New(dErrors.CodeConflict, "transfer already completed")
	}

	now := requestcontext.Now(ctx)
	prev := t
	t.Status = TransferCompleted
	t.CompletedAt = &now
	if err := s.transfers.Update(ctx, t); err != nil {
		return Transfer{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to update transfer")
	}

	_, err = s.events.Append(ctx, ledger.Event{
		Timestamp: now,
		ProductID: t.ProductID,
		Type:      ledger.EventTransferCompleted,
		Actor:     actor,
		ActorRole: role,
		Metadata: []ledger.MetadataPair{
			{Key: "transfer_id", Value: t.ID.String()},
			{Key: "from", Value: t.From.String()},
		},
	})
	if err != nil {
		s.restoreTransfer(ctx, prev)
		return Transfer{}, err
	}

	if s.metrics != nil {
		s.metrics.TransfersCompleted.Inc()
	}
	s.logger.InfoContext(ctx, "transfer completed",
		"request_id", requestcontext.RequestID(ctx),
		"transfer_id", t.ID,
		"product_id", t.ProductID,
		"recipient", actor,
	)
	return t, nil
}

// GetTransfer returns one transfer by id.
func (s *Service) GetTransfer(ctx context.Context, transfer id.TransferID) (Transfer, error) {
	t, err := s.transfers.FindByID(ctx, transfer)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Transfer{}, dErrors.New(dErrors.CodeNotFound, "transfer not found")
		}
		return Transfer{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load transfer")
	}
	return t, nil
}

// TransfersFor returns all transfers the participant sent or received.
func (s *Service) TransfersFor(ctx context.Context, participant id.ParticipantID) ([]Transfer, error) {
	transfers, err := s.transfers.ListByParticipant(ctx, participant)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list transfers")
	}
	return transfers, nil
}

// Statistics reports system-wide counts.
func (s *Service) Statistics(ctx context.Context) (Statistics, error) {
	products, err := s.products.Count(ctx)
	if err != nil {
		return Statistics{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to count products")
	}
	events, err := s.events.Count(ctx)
	if err != nil {
		return Statistics{}, err
	}
	transfers, err := s.transfers.Count(ctx)
	if err != nil {
		return Statistics{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to count transfers")
	}
	return Statistics{Products: products, Events: events, Transfers: transfers}, nil
}

// The unwind helpers back out a mutation whose paired event failed to append,
// so the ledger and the projection never disagree about what happened.

func (s *Service) restoreProduct(ctx context.Context, prev Product) {
	if err := s.products.Update(ctx, prev); err != nil {
		s.logger.ErrorContext(ctx, "failed to restore product after transfer failure",
			"request_id", requestcontext.RequestID(ctx),
			"product_id", prev.ID,
			"error", err,
		)
	}
}

func (s *Service) restoreTransfer(ctx context.Context, prev Transfer) {
	if err := s.transfers.Update(ctx, prev); err != nil {
		s.logger.ErrorContext(ctx, "failed to restore transfer after event failure",
			"request_id", requestcontext.RequestID(ctx),
			"transfer_id", prev.ID,
			"error", err,
		)
	}
}

func (s *Service) discardTransfer(ctx context.Context, transfer id.TransferID) {
	if err := s.transfers.Delete(ctx, transfer); err != nil {
		s.logger.ErrorContext(ctx, "failed to discard transfer after event failure",
			"request_id", requestcontext.RequestID(ctx),
			"transfer_id", transfer,
			"error", err,
		)
	}
}
