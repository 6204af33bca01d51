package service

import (
	"context"
	"strings"

	"circles/internal/message/models"
	"circles/internal/message/store"
	"circles/internal/platform/metrics"
	dErrors "circles/pkg/domain-errors"
)

// Service records chat and direct messages and serves history reads. The
// realtime core calls the Save methods before broadcasting, so a client that
// received a live event can always fetch at least that message on reconnect.
type Service struct {
	messages store.MessageStore
	metrics  *metrics.Metrics
}

func New(messages store.MessageStore, m *metrics.Metrics) *Service {
	return &Service{messages: messages, metrics: m}
}

// SaveChatMessage durably records a chat message in a circle.
func (s *Service) SaveChatMessage(ctx context.Context, senderID int64, content string, circleID int64) (models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return models.Message{}, dErrors.New(dErrors.CodeValidation, "message content required")
	}
	msg := &models.Message{CircleID: circleID, SenderID: senderID, Content: content}
	if err := s.messages.SaveMessage(ctx, msg); err != nil {
		return models.Message{}, err
	}
	if s.metrics != nil {
		s.metrics.MessagesPersisted.WithLabelValues("chat").Inc()
	}
	return *msg, nil
}

// SaveDirectMessage durably records a one-to-one message.
func (s *Service) SaveDirectMessage(ctx context.Context, senderID int64, content string, receiverID int64) (models.DirectMessage, error) {
	if strings.TrimSpace(content) == "" {
		return models.DirectMessage{}, dErrors.New(dErrors.CodeValidation, "message content required")
	}
	msg := &models.DirectMessage{SenderID: senderID, ReceiverID: receiverID, Content: content}
	if err := s.messages.SaveDirectMessage(ctx, msg); err != nil {
		return models.DirectMessage{}, err
	}
	if s.metrics != nil {
		s.metrics.MessagesPersisted.WithLabelValues("dm").Inc()
	}
	return *msg, nil
}

// History returns the circle's messages in timestamp order.
func (s *Service) History(ctx context.Context, circleID int64) ([]models.Message, error) {
	return s.messages.ListByCircle(ctx, circleID)
}

// Conversation returns the direct messages between two users in timestamp
// order.
func (s *Service) Conversation(ctx context.Context, userID, targetID int64) ([]models.DirectMessage, error) {
	return s.messages.ListConversation(ctx, userID, targetID)
}
