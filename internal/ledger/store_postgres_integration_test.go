//go:build integration

package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"tracelink/internal/ledger"
	id "tracelink/pkg/domain"
	"tracelink/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *ledger.PostgresStore
	ctx      context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = ledger.NewPostgresStore(s.postgres.DB)
	s.ctx = context.Background()
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "events"))
}

func (s *PostgresStoreSuite) appendEvent(product id.ProductID, eventType string, at time.Time) uint64 {
	eventID, err := s.store.Append(s.ctx, ledger.Event{
		Timestamp: at,
		ProductID: product,
		Type:      eventType,
		Actor:     id.NewParticipantID(),
		ActorRole: id.RoleTransporter,
		Location:  "truck-7",
		Metadata:  []ledger.MetadataPair{{Key: "plate", Value: "AB-123"}},
	})
	s.Require().NoError(err)
	return eventID
}

func (s *PostgresStoreSuite) TestAppendAssignsDenseIDs() {
	product := id.NewProductID()
	base := time.Now().UTC().Truncate(time.Microsecond)

	for i := range 3 {
		eventID := s.appendEvent(product, ledger.EventTransport, base.Add(time.Duration(i)*time.Minute))
		s.Equal(uint64(i), eventID)
	}

	count, err := s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(3), count)
}

func (s *PostgresStoreSuite) TestListByProductRoundTrip() {
	product := id.NewProductID()
	base := time.Now().UTC().Truncate(time.Microsecond)
	s.appendEvent(product, ledger.EventProduced, base)
	s.appendEvent(id.NewProductID(), ledger.EventProduced, base)

	events, err := s.store.ListByProduct(s.ctx, product)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(ledger.EventProduced, events[0].Type)
	s.Equal(product, events[0].ProductID)
	s.Require().Len(events[0].Metadata, 1)
	s.Equal("plate", events[0].Metadata[0].Key)
	s.True(base.Equal(events[0].Timestamp))
}

func (s *PostgresStoreSuite) TestListSince() {
	product := id.NewProductID()
	base := time.Now().UTC().Truncate(time.Microsecond)
	for i := range 4 {
		s.appendEvent(product, ledger.EventTransport, base.Add(time.Duration(i)*time.Minute))
	}

	events, err := s.store.ListSince(s.ctx, -1)
	s.Require().NoError(err)
	s.Len(events, 4)

	events, err = s.store.ListSince(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(uint64(2), events[0].ID)

	events, err = s.store.ListSince(s.ctx, 3)
	s.Require().NoError(err)
	s.Empty(events)
}
