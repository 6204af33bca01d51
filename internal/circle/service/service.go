package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"circles/internal/audit"
	"circles/internal/circle/models"
	"circles/internal/circle/store"
	identitymodels "circles/internal/identity/models"
	"circles/internal/realtime/event"
	dErrors "circles/pkg/domain-errors"
)

// UserDirectory resolves user IDs to public identities.
type UserDirectory interface {
	FindByID(ctx context.Context, id int64) (identitymodels.User, error)
}

// Notifier delivers targeted realtime notifications. Implementations must be
// fire-and-forget: the CRUD path never blocks on, nor fails because of,
// realtime delivery.
type Notifier interface {
	NotifyUser(userID int64, data event.NotificationData)
}

// Service owns circle lifecycle and membership. It is also the membership
// authority consumed by the realtime core's group authorization.
type Service struct {
	circles  store.CircleStore
	users    UserDirectory
	notifier Notifier
	audit    *audit.Publisher
	logger   *slog.Logger
}

func New(circles store.CircleStore, users UserDirectory, notifier Notifier, auditPub *audit.Publisher, logger *slog.Logger) *Service {
	return &Service{
		circles:  circles,
		users:    users,
		notifier: notifier,
		audit:    auditPub,
		logger:   logger.With(slog.String("component", "circle_service")),
	}
}

// Create makes a new circle with the caller as admin and first member.
func (s *Service) Create(ctx context.Context, adminID int64, name, description string) (models.Circle, error) {
	if strings.TrimSpace(name) == "" {
		return models.Circle{}, dErrors.New(dErrors.CodeBadRequest, "circle name required")
	}

	circle := &models.Circle{
		Name:        name,
		Description: description,
		AdminID:     adminID,
		InviteCode:  newInviteCode(),
	}
	if err := s.circles.Create(ctx, circle); err != nil {
		return models.Circle{}, err
	}
	if err := s.circles.AddMember(ctx, circle.ID, adminID); err != nil {
		return models.Circle{}, err
	}
	if s.audit != nil {
		s.audit.Emit(audit.Event{UserID: adminID, Action: audit.ActionCircleCreated, Detail: circle.Name})
	}
	return *circle, nil
}

// Get returns a circle with its resolved member list.
func (s *Service) Get(ctx context.Context, circleID int64) (models.CircleDetail, error) {
	circle, err := s.circles.FindByID(ctx, circleID)
	if err != nil {
		return models.CircleDetail{}, err
	}
	memberIDs, err := s.circles.MemberIDs(ctx, circleID)
	if err != nil {
		return models.CircleDetail{}, err
	}

	detail := models.CircleDetail{Circle: circle, Members: make([]identitymodels.PublicUser, 0, len(memberIDs))}
	for _, id := range memberIDs {
		user, err := s.users.FindByID(ctx, id)
		if err != nil {
			// A missing member row is a consistency bug, not a request error.
			s.logger.WarnContext(ctx, "member without user record", "circle_id", circleID, "user_id", id)
			continue
		}
		detail.Members = append(detail.Members, user.Public())
	}
	return detail, nil
}

// MyCircles lists the circles the user belongs to.
func (s *Service) MyCircles(ctx context.Context, userID int64) ([]models.Circle, error) {
	return s.circles.CirclesOf(ctx, userID)
}

// Join adds the user to a circle by ID and notifies existing members.
func (s *Service) Join(ctx context.Context, circleID, userID int64) error {
	circle, err := s.circles.FindByID(ctx, circleID)
	if err != nil {
		return err
	}
	return s.join(ctx, circle, userID)
}

// JoinByCode adds the user to the circle matching the invite code.
func (s *Service) JoinByCode(ctx context.Context, code string, userID int64) (models.Circle, error) {
	circle, err := s.circles.FindByInviteCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Circle{}, dErrors.New(dErrors.CodeNotFound, "invalid invite code")
		}
		return models.Circle{}, err
	}
	if err := s.join(ctx, circle, userID); err != nil {
		return models.Circle{}, err
	}
	return circle, nil
}

func (s *Service) join(ctx context.Context, circle models.Circle, userID int64) error {
	already, err := s.circles.IsMember(ctx, circle.ID, userID)
	if err != nil {
		return err
	}
	if already {
		return dErrors.New(dErrors.CodeConflict, "already a member")
	}

	joiner, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.circles.AddMember(ctx, circle.ID, userID); err != nil {
		return err
	}

	s.notifyMembersExcept(ctx, circle.ID, userID, event.NotificationData{
		Kind:     "circle_message",
		Sender:   joiner.Username,
		CircleID: circle.ID,
		Message:  fmt.Sprintf("%s joined the circle %s", joiner.Username, circle.Name),
	})
	if s.audit != nil {
		s.audit.Emit(audit.Event{UserID: userID, Action: audit.ActionCircleJoined, Detail: circle.Name})
	}
	return nil
}

// Leave removes the user from the circle.
func (s *Service) Leave(ctx context.Context, circleID, userID int64) error {
	if _, err := s.circles.FindByID(ctx, circleID); err != nil {
		return err
	}
	return s.circles.RemoveMember(ctx, circleID, userID)
}

// Kick removes a member. Only the admin may kick, and never themselves.
func (s *Service) Kick(ctx context.Context, circleID, actorID, memberID int64) error {
	circle, err := s.circles.FindByID(ctx, circleID)
	if err != nil {
		return err
	}
	if circle.AdminID != actorID {
		return dErrors.New(dErrors.CodeForbidden, "only admin can kick members")
	}
	if memberID == circle.AdminID {
		return dErrors.New(dErrors.CodeBadRequest, "cannot kick admin")
	}
	if _, err := s.users.FindByID(ctx, memberID); err != nil {
		return err
	}
	return s.circles.RemoveMember(ctx, circleID, memberID)
}

// IsMember answers the realtime core's authorization question for chat and
// sudoku rooms.
func (s *Service) IsMember(ctx context.Context, circleID, userID int64) (bool, error) {
	return s.circles.IsMember(ctx, circleID, userID)
}

// MemberIDs exposes the membership set for notification fan-out.
func (s *Service) MemberIDs(ctx context.Context, circleID int64) ([]int64, error) {
	return s.circles.MemberIDs(ctx, circleID)
}

func (s *Service) notifyMembersExcept(ctx context.Context, circleID, exceptID int64, data event.NotificationData) {
	memberIDs, err := s.circles.MemberIDs(ctx, circleID)
	if err != nil {
		s.logger.WarnContext(ctx, "notification fan-out skipped", "circle_id", circleID, "error", err)
		return
	}
	for _, id := range memberIDs {
		if id == exceptID {
			continue
		}
		s.notifier.NotifyUser(id, data)
	}
}

func newInviteCode() string {
	return strings.ToUpper(uuid.NewString()[:8])
}
