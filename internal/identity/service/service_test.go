package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"circles/internal/identity/store"
	"circles/internal/identity/token"
	dErrors "circles/pkg/domain-errors"
)

type IdentityServiceSuite struct {
	suite.Suite
	svc *Service
	ctx context.Context
}

func TestIdentityServiceSuite(t *testing.T) {
	suite.Run(t, new(IdentityServiceSuite))
}

func (s *IdentityServiceSuite) SetupTest() {
	s.svc = New(store.NewMemory(), token.NewService("test-key", time.Hour), nil, slog.Default())
	s.ctx = context.Background()
}

func (s *IdentityServiceSuite) TestRegisterAndAuthenticate() {
	creds, err := s.svc.Register(s.ctx, "alice", "s3cret", "alice@example.com", true)
	s.Require().NoError(err)
	s.NotEmpty(creds.Token)
	s.Equal("alice", creds.Username)

	user, err := s.svc.Authenticate(s.ctx, creds.Token)
	s.Require().NoError(err)
	s.Equal(creds.UserID, user.ID)
	s.Equal("alice", user.Username)
}

func (s *IdentityServiceSuite) TestRegisterValidation() {
	s.Run("missing password", func() {
		_, err := s.svc.Register(s.ctx, "bob", "", "", true)
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	})

	s.Run("terms not accepted", func() {
		_, err := s.svc.Register(s.ctx, "bob", "pw", "", false)
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	})

	s.Run("duplicate username", func() {
		_, err := s.svc.Register(s.ctx, "carol", "pw", "", true)
		s.Require().NoError(err)
		_, err = s.svc.Register(s.ctx, "carol", "pw", "", true)
		s.True(dErrors.Is(err, dErrors.CodeConflict))
	})
}

func (s *IdentityServiceSuite) TestLogin() {
	_, err := s.svc.Register(s.ctx, "alice", "s3cret", "", true)
	s.Require().NoError(err)

	s.Run("correct password", func() {
		creds, err := s.svc.Login(s.ctx, "alice", "s3cret", "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0")
		s.Require().NoError(err)
		s.NotEmpty(creds.Token)
	})

	s.Run("wrong password", func() {
		_, err := s.svc.Login(s.ctx, "alice", "nope", "")
		s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
	})

	s.Run("unknown user", func() {
		_, err := s.svc.Login(s.ctx, "mallory", "pw", "")
		s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
	})
}

func (s *IdentityServiceSuite) TestAuthenticateRejectsBadToken() {
	_, err := s.svc.Authenticate(s.ctx, "")
	s.True(dErrors.Is(err, dErrors.CodeUnauthorized))

	_, err = s.svc.Authenticate(s.ctx, "garbage")
	s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
}

func (s *IdentityServiceSuite) TestAuthenticateRejectsDeletedUser() {
	// A token whose subject no longer resolves to a user must fail closed.
	other := token.NewService("test-key", time.Hour)
	tok, err := other.Generate(9999, "ghost")
	s.Require().NoError(err)

	_, err = s.svc.Authenticate(s.ctx, tok)
	s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
}

func (s *IdentityServiceSuite) TestUpdateProfile() {
	creds, err := s.svc.Register(s.ctx, "alice", "s3cret", "old@example.com", true)
	s.Require().NoError(err)

	newName := "alicia"
	newEmail := "new@example.com"
	user, err := s.svc.UpdateProfile(s.ctx, creds.UserID, ProfileUpdate{Username: &newName, Email: &newEmail})
	s.Require().NoError(err)
	s.Equal("alicia", user.Username)
	s.Equal("new@example.com", user.Email)

	newPassword := "other"
	_, err = s.svc.UpdateProfile(s.ctx, creds.UserID, ProfileUpdate{Password: &newPassword})
	s.Require().NoError(err)

	_, err = s.svc.Login(s.ctx, "alicia", "other", "")
	s.Require().NoError(err)
}
