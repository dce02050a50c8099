package product

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"tracelink/internal/ledger"
	"tracelink/internal/registry"
	id "tracelink/pkg/domain"
	dErrors "tracelink/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	ctx      context.Context
	registry *registry.Service
	ledger   *ledger.Service
	service  *Service

	supplier    id.ParticipantID
	transporter id.ParticipantID
	warehouse   id.ParticipantID
	retailer    id.ParticipantID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	s.registry = registry.NewService(registry.NewInMemoryStore(), logger, nil)
	s.ledger = ledger.NewService(ledger.NewInMemoryStore(), s.registry, logger, nil)
	s.service = NewService(NewInMemoryProductStore(), NewInMemoryTransferStore(), s.ledger, s.registry, logger, nil)

	s.supplier = s.register(id.RoleSupplier)
	s.transporter = s.register(id.RoleTransporter)
	s.warehouse = s.register(id.RoleWarehouse)
	s.retailer = s.register(id.RoleRetailer)
}

func (s *ServiceSuite) register(role id.Role) id.ParticipantID {
	actor := id.NewParticipantID()
	_, err := s.registry.Register(s.ctx, actor, role)
	s.Require().NoError(err)
	return actor
}

func (s *ServiceSuite) createProduct() Product {
	p, err := s.service.Create(s.ctx, s.supplier, Attributes{
		Name:        "arabica beans",
		BatchNumber: "B-100",
		Quantity:    500,
		Price:       12.5,
		Origin:      "plant-1",
	})
	s.Require().NoError(err)
	return p
}

func (s *ServiceSuite) TestCreate() {
	s.Run("supplier creates a product", func() {
		p := s.createProduct()
		s.Equal(s.supplier, p.SupplierID)
		s.Equal(s.supplier, p.CurrentOwner)
		s.Equal(StatusCreated, p.Status)
		s.False(p.ID.IsNil())
	})

	s.Run("creation event lands in the ledger", func() {
		p := s.createProduct()
		events, err := s.ledger.ProductHistory(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(ledger.EventProductCreated, events[0].Type)
		s.Equal(s.supplier, events[0].Actor)
	})

	s.Run("non-supplier cannot create", func() {
		_, err := s.service.Create(s.ctx, s.retailer, Attributes{Name: "widget", Quantity: 1})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("unregistered actor cannot create", func() {
		_, err := s.service.Create(s.ctx, id.NewParticipantID(), Attributes{Name: "widget", Quantity: 1})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("invalid attributes rejected", func() {
		_, err := s.service.Create(s.ctx, s.supplier, Attributes{Name: "", Quantity: 1})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestUpdateStatus() {
	p := s.createProduct()

	s.Run("owner updates status", func() {
		updated, err := s.service.UpdateStatus(s.ctx, s.supplier, p.ID, StatusDamaged, "plant-1", "forklift incident")
		s.Require().NoError(err)
		s.Equal(StatusDamaged, updated.Status)

		events, err := s.ledger.ProductHistory(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(ledger.EventStatusUpdated, events[len(events)-1].Type)
	})

	s.Run("non-owner rejected", func() {
		_, err := s.service.UpdateStatus(s.ctx, s.retailer, p.ID, StatusLost, "", "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		current, err := s.service.Get(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(StatusDamaged, current.Status)
	})

	s.Run("unknown product", func() {
		_, err := s.service.UpdateStatus(s.ctx, s.supplier, id.NewProductID(), StatusLost, "", "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestInitiateTransfer() {
	s.Run("ownership moves at initiation", func() {
		p := s.createProduct()
		t, err := s.service.InitiateTransfer(s.ctx, s.supplier, p.ID, s.transporter, TransferToTransporter, "")
		s.Require().NoError(err)
		s.Equal(TransferPending, t.Status)
		s.Nil(t.CompletedAt)

		current, err := s.service.Get(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(s.transporter, current.CurrentOwner)
		s.Equal(StatusInTransit, current.Status)
	})

	s.Run("transfer type drives product status", func() {
		p := s.createProduct()
		_, err := s.service.InitiateTransfer(s.ctx, s.supplier, p.ID, s.warehouse, TransferToWarehouse, "")
		s.Require().NoError(err)
		current, err := s.service.Get(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(StatusInWarehouse, current.Status)

		_, err = s.service.InitiateTransfer(s.ctx, s.warehouse, p.ID, s.retailer, TransferToRetailer, "")
		s.Require().NoError(err)
		current, err = s.service.Get(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(StatusDelivered, current.Status)
	})

	s.Run("unmapped transfer type leaves status alone", func() {
		p := s.createProduct()
		_, err := s.service.InitiateTransfer(s.ctx, s.supplier, p.ID, s.warehouse, "RETURN", "")
		s.Require().NoError(err)
		current, err := s.service.Get(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(StatusCreated, current.Status)
		s.Equal(s.warehouse, current.CurrentOwner)
	})

	s.Run("non-owner cannot transfer and nothing changes", func() {
		p := s.createProduct()
		_, err := s.service.InitiateTransfer(s.ctx, s.retailer, p.ID, s.transporter, TransferToTransporter, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		current, err := s.service.Get(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(s.supplier, current.CurrentOwner)
		s.Equal(StatusCreated, current.Status)
	})

	s.Run("unregistered recipient rejected", func() {
		p := s.createProduct()
		_, err := s.service.InitiateTransfer(s.ctx, s.supplier, p.ID, id.NewParticipantID(), TransferToWarehouse, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("self transfer rejected", func() {
		p := s.createProduct()
		_, err := s.service.InitiateTransfer(s.ctx, s.supplier, p.ID, s.supplier, TransferToWarehouse, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestCompleteTransfer() {
	p := s.createProduct()
	t, err := s.service.InitiateTransfer(s.ctx, s.supplier, p.ID, s.warehouse, TransferToWarehouse, "")
	s.Require().NoError(err)

	s.Run("only the recipient may complete", func() {
		_, err := s.service.CompleteTransfer(s.ctx, s.supplier, t.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("recipient completes", func() {
		completed, err := s.service.CompleteTransfer(s.ctx, s.warehouse, t.ID)
		s.Require().NoError(err)
		s.Equal(TransferCompleted, completed.Status)
		s.NotNil(completed.CompletedAt)

		current, err := s.service.Get(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(s.warehouse, current.CurrentOwner)
	})

	s.Run("double completion conflicts", func() {
		_, err := s.service.CompleteTransfer(s.ctx, s.warehouse, t.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown transfer", func() {
		_, err := s.service.CompleteTransfer(s.ctx, s.warehouse, id.NewTransferID())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestTransfersFor() {
	p := s.createProduct()
	t, err := s.service.InitiateTransfer(s.ctx, s.supplier, p.ID, s.warehouse, TransferToWarehouse, "")
	s.Require().NoError(err)

	for _, participant := range []id.ParticipantID{s.supplier, s.warehouse} {
		transfers, err := s.service.TransfersFor(s.ctx, participant)
		s.Require().NoError(err)
		s.Require().Len(transfers, 1)
		s.Equal(t.ID, transfers[0].ID)
	}

	transfers, err := s.service.TransfersFor(s.ctx, s.retailer)
	s.Require().NoError(err)
	s.Empty(transfers)
}

func (s *ServiceSuite) TestStatistics() {
	p := s.createProduct()
	_, err := s.service.InitiateTransfer(s.ctx, s.supplier, p.ID, s.warehouse, TransferToWarehouse, "")
	s.Require().NoError(err)

	stats, err := s.service.Statistics(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(1), stats.Products)
	s.Equal(uint64(1), stats.Transfers)
	// PRODUCT_CREATED plus PRODUCT_TRANSFERRED.
	s.Equal(uint64(2), stats.Events)
}

// failingAppender wraps the real ledger and fails the next append on demand,
// standing in for an unavailable event store.
type failingAppender struct {
	inner    *ledger.Service
	failNext bool
}

func (f *failingAppender) Append(ctx context.Context, event ledger.Event) (uint64, error) {
	if f.failNext {
		f.failNext = false
		return 0, dErrors.New(dErrors.CodeUnavailable, "event log unavailable")
	}
	return f.inner.Append(ctx, event)
}

func (f *failingAppender) Count(ctx context.Context) (uint64, error) {
	return f.inner.Count(ctx)
}

type TransferUnwindSuite struct {
	suite.Suite
	ctx       context.Context
	appender  *failingAppender
	ledger    *ledger.Service
	transfers *InMemoryTransferStore
	service   *Service

	supplier  id.ParticipantID
	warehouse id.ParticipantID
	product   id.ProductID
}

func TestTransferUnwindSuite(t *testing.T) {
	suite.Run(t, new(TransferUnwindSuite))
}

func (s *TransferUnwindSuite) SetupTest() {
	s.ctx = context.Background()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	reg := registry.NewService(registry.NewInMemoryStore(), logger, nil)
	s.ledger = ledger.NewService(ledger.NewInMemoryStore(), reg, logger, nil)
	s.appender = &failingAppender{inner: s.ledger}
	s.transfers = NewInMemoryTransferStore()
	s.service = NewService(NewInMemoryProductStore(), s.transfers, s.appender, reg, logger, nil)

	s.supplier = id.NewParticipantID()
	_, err := reg.Register(s.ctx, s.supplier, id.RoleSupplier)
	s.Require().NoError(err)
	s.warehouse = id.NewParticipantID()
	_, err = reg.Register(s.ctx, s.warehouse, id.RoleWarehouse)
	s.Require().NoError(err)

	p, err := s.service.Create(s.ctx, s.supplier, Attributes{Name: "arabica beans", Quantity: 500})
	s.Require().NoError(err)
	s.product = p.ID
}

func (s *TransferUnwindSuite) TestInitiateUnwindsOnAppendFailure() {
	s.appender.failNext = true
	_, err := s.service.InitiateTransfer(s.ctx, s.supplier, s.product, s.warehouse, "TO_WAREHOUSE", "")
	s.Require().Error(err)

	p, err := s.service.Get(s.ctx, s.product)
	s.Require().NoError(err)
	s.Equal(s.supplier, p.CurrentOwner)
	s.Equal(StatusCreated, p.Status)

	pending, err := s.service.TransfersFor(s.ctx, s.warehouse)
	s.Require().NoError(err)
	s.Empty(pending)

	count, err := s.transfers.Count(s.ctx)
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *TransferUnwindSuite) TestCompleteUnwindsOnAppendFailure() {
	t, err := s.service.InitiateTransfer(s.ctx, s.supplier, s.product, s.warehouse, "TO_WAREHOUSE", "")
	s.Require().NoError(err)
	before, err := s.ledger.Count(s.ctx)
	s.Require().NoError(err)

	s.appender.failNext = true
	_, err = s.service.CompleteTransfer(s.ctx, s.warehouse, t.ID)
	s.Require().Error(err)

	kept, err := s.service.GetTransfer(s.ctx, t.ID)
	s.Require().NoError(err)
	s.Equal(TransferPending, kept.Status)
	s.Nil(kept.CompletedAt)

	after, err := s.ledger.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(before, after)

	// The transfer survives the failure and completes normally afterwards.
	done, err := s.service.CompleteTransfer(s.ctx, s.warehouse, t.ID)
	s.Require().NoError(err)
	s.Equal(TransferCompleted, done.Status)
}
