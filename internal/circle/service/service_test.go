package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	circlestore "circles/internal/circle/store"
	identitymodels "circles/internal/identity/models"
	identitystore "circles/internal/identity/store"
	"circles/internal/realtime/event"
	dErrors "circles/pkg/domain-errors"
)

// recordingNotifier captures notification fan-out without a live registry.
type recordingNotifier struct {
	sent map[int64][]event.NotificationData
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{sent: make(map[int64][]event.NotificationData)}
}

func (n *recordingNotifier) NotifyUser(userID int64, data event.NotificationData) {
	n.sent[userID] = append(n.sent[userID], data)
}

type CircleServiceSuite struct {
	suite.Suite
	svc      *Service
	users    *identitystore.MemoryStore
	notifier *recordingNotifier
	ctx      context.Context

	alice, bob, carol int64
}

func TestCircleServiceSuite(t *testing.T) {
	suite.Run(t, new(CircleServiceSuite))
}

func (s *CircleServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.users = identitystore.NewMemory()
	s.notifier = newRecordingNotifier()
	s.svc = New(circlestore.NewMemory(), s.users, s.notifier, nil, slog.Default())

	s.alice = s.mustCreateUser("alice")
	s.bob = s.mustCreateUser("bob")
	s.carol = s.mustCreateUser("carol")
}

func (s *CircleServiceSuite) mustCreateUser(name string) int64 {
	user := &identitymodels.User{Username: name}
	s.Require().NoError(s.users.Create(s.ctx, user))
	return user.ID
}

func (s *CircleServiceSuite) TestCreateMakesAdminAMember() {
	circle, err := s.svc.Create(s.ctx, s.alice, "study group", "")
	s.Require().NoError(err)
	s.NotZero(circle.ID)
	s.Len(circle.InviteCode, 8)

	member, err := s.svc.IsMember(s.ctx, circle.ID, s.alice)
	s.Require().NoError(err)
	s.True(member)
}

func (s *CircleServiceSuite) TestJoinNotifiesExistingMembersOnly() {
	circle, err := s.svc.Create(s.ctx, s.alice, "study group", "")
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Join(s.ctx, circle.ID, s.bob))

	s.Len(s.notifier.sent[s.alice], 1)
	s.Empty(s.notifier.sent[s.bob], "joiner must not be notified about their own join")
	s.Equal("circle_message", s.notifier.sent[s.alice][0].Kind)
	s.Contains(s.notifier.sent[s.alice][0].Message, "bob")
}

func (s *CircleServiceSuite) TestJoinByCode() {
	circle, err := s.svc.Create(s.ctx, s.alice, "study group", "")
	s.Require().NoError(err)

	s.Run("valid code", func() {
		joined, err := s.svc.JoinByCode(s.ctx, circle.InviteCode, s.bob)
		s.Require().NoError(err)
		s.Equal(circle.ID, joined.ID)
	})

	s.Run("already a member", func() {
		_, err := s.svc.JoinByCode(s.ctx, circle.InviteCode, s.bob)
		s.True(dErrors.Is(err, dErrors.CodeConflict))
	})

	s.Run("invalid code", func() {
		_, err := s.svc.JoinByCode(s.ctx, "NOPE1234", s.carol)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})
}

func (s *CircleServiceSuite) TestKickRules() {
	circle, err := s.svc.Create(s.ctx, s.alice, "study group", "")
	s.Require().NoError(err)
	s.Require().NoError(s.svc.Join(s.ctx, circle.ID, s.bob))

	s.Run("non-admin cannot kick", func() {
		err := s.svc.Kick(s.ctx, circle.ID, s.bob, s.alice)
		s.True(dErrors.Is(err, dErrors.CodeForbidden))
	})

	s.Run("admin cannot be kicked", func() {
		err := s.svc.Kick(s.ctx, circle.ID, s.alice, s.alice)
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	})

	s.Run("admin kicks member", func() {
		s.Require().NoError(s.svc.Kick(s.ctx, circle.ID, s.alice, s.bob))
		member, err := s.svc.IsMember(s.ctx, circle.ID, s.bob)
		s.Require().NoError(err)
		s.False(member)
	})
}

func (s *CircleServiceSuite) TestGetResolvesMembers() {
	circle, err := s.svc.Create(s.ctx, s.alice, "study group", "desc")
	s.Require().NoError(err)
	s.Require().NoError(s.svc.Join(s.ctx, circle.ID, s.bob))

	detail, err := s.svc.Get(s.ctx, circle.ID)
	s.Require().NoError(err)
	s.Len(detail.Members, 2)
	s.Equal("alice", detail.Members[0].Username)
	s.Equal("bob", detail.Members[1].Username)
}

func (s *CircleServiceSuite) TestNonMemberAuthorization() {
	circle, err := s.svc.Create(s.ctx, s.alice, "study group", "")
	s.Require().NoError(err)

	member, err := s.svc.IsMember(s.ctx, circle.ID, s.carol)
	s.Require().NoError(err)
	s.False(member)
}
