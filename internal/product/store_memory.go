package product

import (
	"context"
	"sort"
	"sync"

	id "tracelink/pkg/domain"
	"tracelink/pkg/platform/sentinel"
)

// InMemoryProductStore keeps the projection in a mutex-guarded map.
type InMemoryProductStore struct {
	mu       sync.RWMutex
	products map[id.ProductID]Product
}

func NewInMemoryProductStore() *InMemoryProductStore {
	return &InMemoryProductStore{products: make(map[id.ProductID]Product)}
}

func (s *InMemoryProductStore) Create(_ context.Context, p Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.products[p.ID]; exists {
		return sentinel.ErrConflict
	}
	s.products[p.ID] = cloneProduct(p)
	return nil
}

func (s *InMemoryProductStore) FindByID(_ context.Context, product id.ProductID) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.products[product]; ok {
		return cloneProduct(p), nil
	}
	return Product{}, sentinel.ErrNotFound
}

func (s *InMemoryProductStore) Update(_ context.Context, p Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.products[p.ID]; !exists {
		return sentinel.ErrNotFound
	}
	s.products[p.ID] = cloneProduct(p)
	return nil
}

func (s *InMemoryProductStore) ListByOwner(_ context.Context, owner id.ParticipantID) ([]Product, error) {
	return s.list(func(p Product) bool { return p.CurrentOwner == owner }), nil
}

func (s *InMemoryProductStore) ListByStatus(_ context.Context, status Status) ([]Product, error) {
	return s.list(func(p Product) bool { return p.Status == status }), nil
}

func (s *InMemoryProductStore) ListAll(_ context.Context) ([]Product, error) {
	return s.list(func(Product) bool { return true }), nil
}

func (s *InMemoryProductStore) Count(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.products)), nil
}

func (s *InMemoryProductStore) list(keep func(Product) bool) []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Product
	for _, p := range s.products {
		if keep(p) {
			out = append(out, cloneProduct(p))
		}
	}
	// Map iteration order is random; stable output keeps list endpoints and
	// tests deterministic.
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func cloneProduct(p Product) Product {
	p.Certifications = append([]string(nil), p.Certifications...)
	if p.ExpiryDate != nil {
		expiry := *p.ExpiryDate
		p.ExpiryDate = &expiry
	}
	return p
}

// InMemoryTransferStore keeps transfers in a mutex-guarded map.
type InMemoryTransferStore struct {
	mu        sync.RWMutex
	transfers map[id.TransferID]Transfer
}

func NewInMemoryTransferStore() *InMemoryTransferStore {
	return &InMemoryTransferStore{transfers: make(map[id.TransferID]Transfer)}
}

func (s *InMemoryTransferStore) Create(_ context.Context, t Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.transfers[t.ID]; exists {
		return sentinel.ErrConflict
	}
	s.transfers[t.ID] = t
	return nil
}

func (s *InMemoryTransferStore) FindByID(_ context.Context, transfer id.TransferID) (Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.transfers[transfer]; ok {
		return t, nil
	}
	return Transfer{}, sentinel.ErrNotFound
}

func (s *InMemoryTransferStore) Update(_ context.Context, t Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.transfers[t.ID]; !exists {
		return sentinel.ErrNotFound
	}
	s.transfers[t.ID] = t
	return nil
}

func (s *InMemoryTransferStore) Delete(_ context.Context, transfer id.TransferID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.transfers[transfer]; !exists {
		return sentinel.ErrNotFound
	}
	delete(s.transfers, transfer)
	return nil
}

func (s *InMemoryTransferStore) ListByParticipant(_ context.Context, participant id.ParticipantID) ([]Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Transfer
	for _, t := range s.transfers {
		if t.From == participant || t.To == participant {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InitiatedAt.Before(out[j].InitiatedAt) })
	return out, nil
}

func (s *InMemoryTransferStore) Count(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.transfers)), nil
}
