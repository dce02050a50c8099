package registry

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	id "tracelink/pkg/domain"
	dErrors "tracelink/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	s.service = NewService(NewInMemoryStore(), logger, nil)
	s.ctx = context.Background()
}

func (s *ServiceSuite) TestRegister() {
	actor := id.NewParticipantID()

	s.Run("first registration succeeds", func() {
		p, err := s.service.Register(s.ctx, actor, id.RoleSupplier)
		s.Require().NoError(err)
		s.Equal(actor, p.ID)
		s.Equal(id.RoleSupplier, p.Role)
		s.False(p.RegisteredAt.IsZero())
	})

	s.Run("second registration conflicts", func() {
		_, err := s.service.Register(s.ctx, actor, id.RoleSupplier)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("conflict even with a different role", func() {
		_, err := s.service.Register(s.ctx, actor, id.RoleAuditor)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *ServiceSuite) TestRoleOf() {
	actor := id.NewParticipantID()
	_, err := s.service.Register(s.ctx, actor, id.RoleWarehouse)
	s.Require().NoError(err)

	s.Run("registered actor", func() {
		role, err := s.service.RoleOf(s.ctx, actor)
		s.Require().NoError(err)
		s.Equal(id.RoleWarehouse, role)
	})

	s.Run("unregistered actor is unauthorized", func() {
		_, err := s.service.RoleOf(s.ctx, id.NewParticipantID())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ServiceSuite) TestGet() {
	actor := id.NewParticipantID()
	_, err := s.service.Register(s.ctx, actor, id.RoleRetailer)
	s.Require().NoError(err)

	p, err := s.service.Get(s.ctx, actor)
	s.Require().NoError(err)
	s.Equal(id.RoleRetailer, p.Role)

	_, err = s.service.Get(s.ctx, id.NewParticipantID())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
