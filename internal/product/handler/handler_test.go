package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"tracelink/internal/ledger"
	"tracelink/internal/product"
	"tracelink/internal/registry"
	id "tracelink/pkg/domain"
	"tracelink/pkg/requestcontext"
)

// HandlerSuite runs the product endpoints against real in-memory components.
type HandlerSuite struct {
	suite.Suite
	router   chi.Router
	registry *registry.Service

	supplier  id.ParticipantID
	warehouse id.ParticipantID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	s.registry = registry.NewService(registry.NewInMemoryStore(), logger, nil)
	ledgerSvc := ledger.NewService(ledger.NewInMemoryStore(), s.registry, logger, nil)
	svc := product.NewService(product.NewInMemoryProductStore(), product.NewInMemoryTransferStore(), ledgerSvc, s.registry, logger, nil)

	s.router = chi.NewRouter()
	// Stand-in for the auth middleware: the X-Test-Actor header becomes the
	// request actor.
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw := r.Header.Get("X-Test-Actor"); raw != "" {
				actor, err := id.ParseParticipantID(raw)
				if err == nil {
					r = r.WithContext(requestcontext.WithActorID(r.Context(), actor))
				}
			}
			next.ServeHTTP(w, r)
		})
	})
	New(svc, logger).Register(s.router)

	ctx := httptest.NewRequest(http.MethodGet, "/", nil).Context()
	s.supplier = id.NewParticipantID()
	s.warehouse = id.NewParticipantID()
	_, err := s.registry.Register(ctx, s.supplier, id.RoleSupplier)
	s.Require().NoError(err)
	_, err = s.registry.Register(ctx, s.warehouse, id.RoleWarehouse)
	s.Require().NoError(err)
}

func (s *HandlerSuite) do(actor id.ParticipantID, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if !actor.IsNil() {
		req.Header.Set("X-Test-Actor", actor.String())
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) createProduct() product.Product {
	rec := s.do(s.supplier, http.MethodPost, "/products", map[string]any{
		"name":         "arabica beans",
		"batch_number": "B-100",
		"quantity":     500,
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var p product.Product
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &p))
	return p
}

func (s *HandlerSuite) TestCreateProduct() {
	s.Run("created", func() {
		p := s.createProduct()
		s.Equal("arabica beans", p.Name)
		s.Equal(product.StatusCreated, p.Status)
	})

	s.Run("unauthenticated", func() {
		rec := s.do(id.ParticipantID{}, http.MethodPost, "/products", map[string]any{"name": "x", "quantity": 1})
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("malformed body", func() {
		req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewBufferString("{"))
		req.Header.Set("X-Test-Actor", s.supplier.String())
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("non-supplier forbidden", func() {
		rec := s.do(s.warehouse, http.MethodPost, "/products", map[string]any{"name": "x", "quantity": 1})
		s.Equal(http.StatusUnauthorized, rec.Code)
	})
}

func (s *HandlerSuite) TestGetProduct() {
	p := s.createProduct()

	rec := s.do(id.ParticipantID{}, http.MethodGet, "/products/"+p.ID.String(), nil)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(id.ParticipantID{}, http.MethodGet, "/products/"+id.NewProductID().String(), nil)
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.do(id.ParticipantID{}, http.MethodGet, "/products/not-a-uuid", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestListProducts() {
	p := s.createProduct()

	rec := s.do(id.ParticipantID{}, http.MethodGet, "/products", nil)
	s.Equal(http.StatusOK, rec.Code)
	var all []product.Product
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &all))
	s.Len(all, 1)

	rec = s.do(id.ParticipantID{}, http.MethodGet, "/products?owner="+s.supplier.String(), nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &all))
	s.Require().Len(all, 1)
	s.Equal(p.ID, all[0].ID)

	rec = s.do(id.ParticipantID{}, http.MethodGet, "/products?status=sold", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &all))
	s.Empty(all)

	rec = s.do(id.ParticipantID{}, http.MethodGet, "/products?status=bogus", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestTransferWorkflow() {
	p := s.createProduct()

	rec := s.do(s.supplier, http.MethodPost, fmt.Sprintf("/products/%s/transfers", p.ID), map[string]any{
		"to":            s.warehouse.String(),
		"transfer_type": product.TransferToWarehouse,
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var t product.Transfer
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &t))
	s.Equal(product.TransferPending, t.Status)

	rec = s.do(id.ParticipantID{}, http.MethodGet, "/products/"+p.ID.String(), nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var moved product.Product
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &moved))
	s.Equal(product.StatusInWarehouse, moved.Status)
	s.Equal(s.warehouse, moved.CurrentOwner)

	s.Run("wrong actor cannot complete", func() {
		rec := s.do(s.supplier, http.MethodPost, fmt.Sprintf("/transfers/%s/complete", t.ID), nil)
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("recipient completes", func() {
		rec := s.do(s.warehouse, http.MethodPost, fmt.Sprintf("/transfers/%s/complete", t.ID), nil)
		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
		var completed product.Transfer
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &completed))
		s.Equal(product.TransferCompleted, completed.Status)
	})

	s.Run("second completion conflicts", func() {
		rec := s.do(s.warehouse, http.MethodPost, fmt.Sprintf("/transfers/%s/complete", t.ID), nil)
		s.Equal(http.StatusConflict, rec.Code)
	})
}

func (s *HandlerSuite) TestStatistics() {
	s.createProduct()

	rec := s.do(id.ParticipantID{}, http.MethodGet, "/stats", nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var stats product.Statistics
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &stats))
	s.Equal(uint64(1), stats.Products)
	s.Equal(uint64(1), stats.Events)
	s.Equal(uint64(0), stats.Transfers)
}
