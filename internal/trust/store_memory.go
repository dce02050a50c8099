package trust

import (
	"context"
	"sort"
	"sync"

	id "tracelink/pkg/domain"
	"tracelink/pkg/platform/sentinel"
)

// InMemoryRatingStore keeps ratings in a mutex-guarded map keyed by subject.
// Used for local development and tests.
type InMemoryRatingStore struct {
	mu      sync.RWMutex
	ratings map[id.ParticipantID][]Rating
}

func NewInMemoryRatingStore() *InMemoryRatingStore {
	return &InMemoryRatingStore{ratings: make(map[id.ParticipantID][]Rating)}
}

func (s *InMemoryRatingStore) Add(_ context.Context, r Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratings[r.Subject] = append(s.ratings[r.Subject], r)
	return nil
}

func (s *InMemoryRatingStore) Summary(_ context.Context, subject id.ParticipantID) (RatingSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summary := RatingSummary{Subject: subject}
	ratings := s.ratings[subject]
	if len(ratings) == 0 {
		return summary, nil
	}
	var total uint64
	for _, r := range ratings {
		total += uint64(r.Score)
	}
	summary.Count = uint64(len(ratings))
	summary.Average = float64(total) / float64(len(ratings))
	return summary, nil
}

func (s *InMemoryRatingStore) ListBySubject(_ context.Context, subject id.ParticipantID) ([]Rating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Rating, len(s.ratings[subject]))
	copy(out, s.ratings[subject])
	return out, nil
}

// InMemoryReportStore keeps reports in a mutex-guarded map and assigns dense
// ids from its own counter. Used for local development and tests.
type InMemoryReportStore struct {
	mu      sync.RWMutex
	reports map[uint64]Report
	nextID  uint64
}

func NewInMemoryReportStore() *InMemoryReportStore {
	return &InMemoryReportStore{reports: make(map[uint64]Report)}
}

func (s *InMemoryReportStore) Create(_ context.Context, r Report) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.nextID
	s.reports[r.ID] = r
	s.nextID++
	return r.ID, nil
}

func (s *InMemoryReportStore) FindByID(_ context.Context, report uint64) (Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.reports[report]; ok {
		return r, nil
	}
	return Report{}, sentinel.ErrNotFound
}

func (s *InMemoryReportStore) Update(_ context.Context, r Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.reports[r.ID]; !exists {
		return sentinel.ErrNotFound
	}
	s.reports[r.ID] = r
	return nil
}

func (s *InMemoryReportStore) ListOpen(_ context.Context) ([]Report, error) {
	return s.list(func(r Report) bool { return !r.Resolved() }), nil
}

func (s *InMemoryReportStore) ListByProduct(_ context.Context, product id.ProductID) ([]Report, error) {
	return s.list(func(r Report) bool { return r.ProductID == product }), nil
}

func (s *InMemoryReportStore) ListByEntity(_ context.Context, entity id.ParticipantID) ([]Report, error) {
	return s.list(func(r Report) bool { return r.ReportedEntity == entity }), nil
}

func (s *InMemoryReportStore) list(keep func(Report) bool) []Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Report
	for _, r := range s.reports {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
