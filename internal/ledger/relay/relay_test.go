package relay

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"tracelink/internal/ledger"
	id "tracelink/pkg/domain"
)

// sliceSource serves a fixed event log with the same half-open cursor
// semantics as the ledger service.
type sliceSource struct {
	events []ledger.Event
}

func (s *sliceSource) AllEvents(context.Context) ([]ledger.Event, error) {
	return s.events, nil
}

func (s *sliceSource) EventsSince(_ context.Context, cursor uint64) ([]ledger.Event, error) {
	var out []ledger.Event
	for _, e := range s.events {
		if e.ID > cursor {
			out = append(out, e)
		}
	}
	return out, nil
}

// recordingSink captures published events and can fail on demand.
type recordingSink struct {
	published []ledger.Event
	failAfter int
}

func (s *recordingSink) Publish(_ context.Context, event ledger.Event) error {
	if s.failAfter > 0 && len(s.published) >= s.failAfter {
		return errors.New("broker unavailable")
	}
	s.published = append(s.published, event)
	return nil
}

type RelaySuite struct {
	suite.Suite
	ctx    context.Context
	source *sliceSource
	sink   *recordingSink
	relay  *Relay
}

func TestRelaySuite(t *testing.T) {
	suite.Run(t, new(RelaySuite))
}

func (s *RelaySuite) SetupTest() {
	s.ctx = context.Background()
	product := id.NewProductID()
	s.source = &sliceSource{}
	for i := range 4 {
		s.source.events = append(s.source.events, ledger.Event{
			ID:        uint64(i),
			Timestamp: time.Date(2026, 1, 1, 0, i, 0, 0, time.UTC),
			ProductID: product,
			Type:      ledger.EventTransport,
		})
	}
	s.sink = &recordingSink{}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	s.relay = New(s.source, s.sink, NewMemoryCheckpoint(), time.Second, logger)
}

func (s *RelaySuite) TestDrainPublishesFullLogInOrder() {
	s.Require().NoError(s.relay.Drain(s.ctx))

	s.Require().Len(s.sink.published, 4)
	for i, e := range s.sink.published {
		s.Equal(uint64(i), e.ID)
	}
}

func (s *RelaySuite) TestDrainIsIdempotentOnceCaughtUp() {
	s.Require().NoError(s.relay.Drain(s.ctx))
	s.Require().NoError(s.relay.Drain(s.ctx))

	s.Len(s.sink.published, 4)
}

func (s *RelaySuite) TestDrainResumesFromCheckpointAfterFailure() {
	s.sink.failAfter = 2
	s.Require().Error(s.relay.Drain(s.ctx))
	s.Require().Len(s.sink.published, 2)

	s.sink.failAfter = 0
	s.Require().NoError(s.relay.Drain(s.ctx))

	s.Require().Len(s.sink.published, 4)
	for i, e := range s.sink.published {
		s.Equal(uint64(i), e.ID)
	}
}

func (s *RelaySuite) TestDrainPicksUpNewEvents() {
	s.Require().NoError(s.relay.Drain(s.ctx))

	s.source.events = append(s.source.events, ledger.Event{
		ID:        4,
		Timestamp: time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC),
		ProductID: id.NewProductID(),
		Type:      ledger.EventRetail,
	})
	s.Require().NoError(s.relay.Drain(s.ctx))

	s.Require().Len(s.sink.published, 5)
	s.Equal(uint64(4), s.sink.published[4].ID)
}

func TestMemoryCheckpoint(t *testing.T) {
	ctx := context.Background()
	cp := NewMemoryCheckpoint()

	cursor, err := cp.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cursor != -1 {
		t.Fatalf("fresh checkpoint = %d, want -1", cursor)
	}

	if err := cp.Save(ctx, 0); err != nil {
		t.Fatalf("save: %v", err)
	}
	cursor, err = cp.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cursor != 0 {
		t.Fatalf("checkpoint = %d, want 0", cursor)
	}
}
