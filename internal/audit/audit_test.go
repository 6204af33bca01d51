package audit

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type AuditSuite struct {
	suite.Suite
	store     *MemoryStore
	publisher *Publisher
}

func TestAuditSuite(t *testing.T) {
	suite.Run(t, new(AuditSuite))
}

func (s *AuditSuite) SetupTest() {
	s.store = NewMemoryStore()
	s.publisher = NewPublisher(16, slog.Default())
}

func (s *AuditSuite) TestWorkerPersistsEmittedEvents() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := NewWorker(s.store, nil, s.publisher.Inbox(), slog.Default())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.Run(ctx)
	}()

	s.publisher.Emit(Event{UserID: 1, Action: ActionConnect})
	s.publisher.Emit(Event{UserID: 1, Action: ActionMessageSent, GroupKey: "chat:3"})
	s.publisher.Emit(Event{UserID: 2, Action: ActionConnect})

	s.Eventually(func() bool {
		events, err := s.store.ListByUser(context.Background(), 1)
		return err == nil && len(events) == 2
	}, time.Second, 10*time.Millisecond)

	events, err := s.store.ListByUser(context.Background(), 1)
	s.Require().NoError(err)
	s.Equal(ActionConnect, events[0].Action)
	s.Equal(ActionMessageSent, events[1].Action)
	s.Equal("chat:3", events[1].GroupKey)
	s.False(events[0].Timestamp.IsZero())

	cancel()
	<-done
}

func (s *AuditSuite) TestEmitNeverBlocksOnFullInbox() {
	small := NewPublisher(1, slog.Default())
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 10 {
			small.Emit(Event{UserID: 1, Action: ActionConnect})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		s.Fail("Emit blocked on a full inbox")
	}
}
