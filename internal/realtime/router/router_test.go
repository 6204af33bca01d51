package router

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	msgservice "circles/internal/message/service"
	msgstore "circles/internal/message/store"
	"circles/internal/presence"
	"circles/internal/realtime/event"
	"circles/internal/realtime/registry"
	"circles/internal/realtime/rooms"
	sudokuservice "circles/internal/sudoku/service"
	sudokustore "circles/internal/sudoku/store"
	dErrors "circles/pkg/domain-errors"
)

type fakeConn struct {
	id string

	mu       sync.Mutex
	received [][]byte
	closed   bool
}

func (f *fakeConn) ID() string    { return f.id }
func (f *fakeConn) UserID() int64 { return 0 }

func (f *fakeConn) TrySend(payload []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	f.received = append(f.received, payload)
	return true
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeConn) envelopes() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, 0, len(f.received))
	for _, raw := range f.received {
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err == nil {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// fakeRoster hard-codes circle membership.
type fakeRoster struct {
	members map[int64][]int64 // circle -> members
}

func (r *fakeRoster) IsMember(_ context.Context, circleID, userID int64) (bool, error) {
	for _, id := range r.members[circleID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

type RouterSuite struct {
	suite.Suite
	ctx      context.Context
	registry *registry.Registry
	router   *Router
	roster   *fakeRoster
	messages *msgservice.Service
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	logger := slog.Default()
	s.ctx = context.Background()
	s.registry = registry.New(nil, logger)
	s.roster = &fakeRoster{members: map[int64][]int64{1: {10, 20}}}
	s.messages = msgservice.New(msgstore.NewMemory(), nil)

	s.router = New(s.registry, nil, nil, logger)
	s.router.Mount(
		NewChatFamily(s.messages, s.roster, s.registry, logger),
		NewDMFamily(s.messages, s.registry, logger),
		NewSudokuFamily(sudokuservice.New(sudokustore.NewMemory()), s.roster, s.registry, logger),
		NewNotificationsFamily(s.registry, logger),
		NewPresenceFamily(presence.NewTracker(presence.NewMemoryStore(), logger), s.registry, logger),
	)
}

func (s *RouterSuite) chatSession(conn *fakeConn, userID int64, username string, circleID int64) *Session {
	return &Session{
		Conn:     conn,
		Family:   "chat",
		UserID:   userID,
		Username: username,
		GroupKey: rooms.ChatKey(circleID),
		CircleID: circleID,
	}
}

func (s *RouterSuite) TestChatMessagePersistedThenBroadcast() {
	alice := &fakeConn{id: "alice"}
	bob := &fakeConn{id: "bob"}
	sessA := s.chatSession(alice, 10, "alice", 1)
	sessB := s.chatSession(bob, 20, "bob", 1)
	s.Require().NoError(s.router.Connect(s.ctx, sessA))
	s.Require().NoError(s.router.Connect(s.ctx, sessB))

	s.router.HandleMessage(s.ctx, sessA, []byte(`{"message":"hello circle"}`))

	history, err := s.messages.History(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(history, 1, "message must be persisted before broadcast")
	s.Equal("hello circle", history[0].Content)

	for _, conn := range []*fakeConn{alice, bob} {
		envs := conn.envelopes()
		s.Require().Len(envs, 1)
		s.Equal("chat_message", envs[0]["type"])
		s.Equal("hello circle", envs[0]["message"])
		sender := envs[0]["sender"].(map[string]any)
		s.Equal("alice", sender["username"])
		s.Equal(float64(10), sender["id"])
	}
}

func (s *RouterSuite) TestNonMemberJoinRejectedWithoutSideEffects() {
	outsider := &fakeConn{id: "outsider"}
	sess := s.chatSession(outsider, 99, "eve", 1)

	err := s.router.Connect(s.ctx, sess)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	s.Zero(s.registry.Subscribers(rooms.ChatKey(1)))
}

func (s *RouterSuite) TestMalformedPayloadRepliesErrorWithoutClosing() {
	alice := &fakeConn{id: "alice"}
	bob := &fakeConn{id: "bob"}
	sessA := s.chatSession(alice, 10, "alice", 1)
	sessB := s.chatSession(bob, 20, "bob", 1)
	s.Require().NoError(s.router.Connect(s.ctx, sessA))
	s.Require().NoError(s.router.Connect(s.ctx, sessB))

	s.router.HandleMessage(s.ctx, sessA, []byte(`{not json`))

	envs := alice.envelopes()
	s.Require().Len(envs, 1)
	s.Equal("error", envs[0]["type"])
	s.Empty(bob.envelopes(), "error replies go to the sender only")
	s.False(alice.isClosed())

	history, err := s.messages.History(s.ctx, 1)
	s.Require().NoError(err)
	s.Empty(history)
}

func (s *RouterSuite) TestEmptyChatMessageRejected() {
	alice := &fakeConn{id: "alice"}
	sessA := s.chatSession(alice, 10, "alice", 1)
	s.Require().NoError(s.router.Connect(s.ctx, sessA))

	s.router.HandleMessage(s.ctx, sessA, []byte(`{"message":""}`))

	envs := alice.envelopes()
	s.Require().Len(envs, 1)
	s.Equal("error", envs[0]["type"])
}

func (s *RouterSuite) dmSession(conn *fakeConn, userID int64, username string, peerID int64) *Session {
	return &Session{
		Conn:     conn,
		Family:   "dm",
		UserID:   userID,
		Username: username,
		GroupKey: rooms.DMKey(userID, peerID),
		PeerID:   peerID,
	}
}

func (s *RouterSuite) TestDirectMessageReachesBothPartiesOnly() {
	alice := &fakeConn{id: "alice"}
	bob := &fakeConn{id: "bob"}
	carol := &fakeConn{id: "carol"}
	sessA := s.dmSession(alice, 10, "alice", 20)
	sessB := s.dmSession(bob, 20, "bob", 10)
	sessC := s.dmSession(carol, 30, "carol", 40)
	s.Require().NoError(s.router.Connect(s.ctx, sessA))
	s.Require().NoError(s.router.Connect(s.ctx, sessB))
	s.Require().NoError(s.router.Connect(s.ctx, sessC))

	s.router.HandleMessage(s.ctx, sessA, []byte(`{"message":"hey bob"}`))

	s.Len(alice.envelopes(), 1)
	s.Len(bob.envelopes(), 1)
	s.Empty(carol.envelopes())

	conv, err := s.messages.Conversation(s.ctx, 20, 10)
	s.Require().NoError(err)
	s.Require().Len(conv, 1)
	s.Equal("hey bob", conv[0].Content)
}

func (s *RouterSuite) TestTaskUpdateWithNoSubscribersIsNoop() {
	s.NotPanics(func() {
		s.router.BroadcastTaskUpdate(1, "create")
	})
}

func (s *RouterSuite) TestTaskUpdateReachesChatSubscribers() {
	alice := &fakeConn{id: "alice"}
	sessA := s.chatSession(alice, 10, "alice", 1)
	s.Require().NoError(s.router.Connect(s.ctx, sessA))

	s.router.BroadcastTaskUpdate(1, "delete")

	envs := alice.envelopes()
	s.Require().Len(envs, 1)
	s.Equal("task_update", envs[0]["type"])
	s.Equal("delete", envs[0]["action"])
}

func (s *RouterSuite) TestNotifyUserReachesOnlyThatUser() {
	alice := &fakeConn{id: "alice"}
	bob := &fakeConn{id: "bob"}
	sessA := &Session{Conn: alice, Family: "notifications", UserID: 10, GroupKey: rooms.NotificationsKey(10)}
	sessB := &Session{Conn: bob, Family: "notifications", UserID: 20, GroupKey: rooms.NotificationsKey(20)}
	s.Require().NoError(s.router.Connect(s.ctx, sessA))
	s.Require().NoError(s.router.Connect(s.ctx, sessB))

	s.router.NotifyUser(10, event.NotificationData{
		Kind:    "task_assigned",
		Sender:  "bob",
		TaskID:  7,
		Message: "Assigned you to task: deploy",
	})

	envs := alice.envelopes()
	s.Require().Len(envs, 1)
	s.Equal("notification", envs[0]["type"])
	data := envs[0]["data"].(map[string]any)
	s.Equal("task_assigned", data["type"])
	s.Equal("bob", data["sender"])
	s.Empty(bob.envelopes())
}

func (s *RouterSuite) TestNotificationsAck() {
	alice := &fakeConn{id: "alice"}
	sess := &Session{Conn: alice, Family: "notifications", UserID: 10, GroupKey: rooms.NotificationsKey(10)}
	s.Require().NoError(s.router.Connect(s.ctx, sess))

	s.router.HandleMessage(s.ctx, sess, []byte(`{"ping":true}`))
	s.router.HandleMessage(s.ctx, sess, []byte(`not json`))

	envs := alice.envelopes()
	s.Require().Len(envs, 2)
	s.Equal("received", envs[0]["status"])
	s.Equal("Invalid JSON", envs[1]["error"])
}

func (s *RouterSuite) presenceSession(conn *fakeConn, userID int64) *Session {
	return &Session{Conn: conn, Family: "presence", UserID: userID, GroupKey: rooms.PresenceKey}
}

func (s *RouterSuite) TestPresenceLifecycle() {
	first := &fakeConn{id: "tab1"}
	sess1 := s.presenceSession(first, 10)
	s.Require().NoError(s.router.Connect(s.ctx, sess1))

	// The first session sees its own online broadcast plus the snapshot.
	envs := first.envelopes()
	s.Require().Len(envs, 2)
	s.Equal("user_status", envs[0]["type"])
	s.Equal("online", envs[0]["status"])
	s.Equal("initial_state", envs[1]["type"])

	// A second tab of the same user must not re-announce.
	second := &fakeConn{id: "tab2"}
	sess2 := s.presenceSession(second, 10)
	s.Require().NoError(s.router.Connect(s.ctx, sess2))
	envs = second.envelopes()
	s.Require().Len(envs, 1)
	s.Equal("initial_state", envs[0]["type"])
	s.Len(first.envelopes(), 2, "no duplicate online broadcast")

	// Closing one tab keeps the user online.
	s.router.Disconnect(s.ctx, sess2)
	s.Len(first.envelopes(), 2)

	// The last tab flips the user offline for remaining watchers.
	watcher := &fakeConn{id: "watcher"}
	sessW := s.presenceSession(watcher, 20)
	s.Require().NoError(s.router.Connect(s.ctx, sessW))

	s.router.Disconnect(s.ctx, sess1)
	envs = watcher.envelopes()
	s.Require().NotEmpty(envs)
	last := envs[len(envs)-1]
	s.Equal("user_status", last["type"])
	s.Equal("offline", last["status"])
	s.Equal(float64(10), last["user_id"])
}

func (s *RouterSuite) TestSudokuJoinSnapshotAndUpdate() {
	games := sudokuservice.New(sudokustore.NewMemory())
	logger := slog.Default()
	s.router.Mount(NewSudokuFamily(games, s.roster, s.registry, logger))

	board := make([][]int, 9)
	for i := range board {
		board[i] = make([]int, 9)
	}
	s.Require().NoError(games.NewGame(s.ctx, 1, board, board, nil, "easy"))

	alice := &fakeConn{id: "alice"}
	sessA := &Session{Conn: alice, Family: "sudoku", UserID: 10, Username: "alice", GroupKey: rooms.SudokuKey(1), CircleID: 1}
	s.Require().NoError(s.router.Connect(s.ctx, sessA))

	envs := alice.envelopes()
	s.Require().Len(envs, 1)
	s.Equal("game_state", envs[0]["type"])
	s.Equal("easy", envs[0]["difficulty"])

	bob := &fakeConn{id: "bob"}
	sessB := &Session{Conn: bob, Family: "sudoku", UserID: 20, Username: "bob", GroupKey: rooms.SudokuKey(1), CircleID: 1}
	s.Require().NoError(s.router.Connect(s.ctx, sessB))

	s.router.HandleMessage(s.ctx, sessA, []byte(`{"type":"update_cell","row":2,"col":3,"value":5}`))

	bobEnvs := bob.envelopes()
	s.Require().Len(bobEnvs, 2)
	update := bobEnvs[1]
	s.Equal("board_update", update["type"])
	s.Equal(float64(2), update["row"])
	s.Equal(float64(3), update["col"])
	s.Equal(float64(5), update["value"])
	s.Equal(float64(10), update["sender_id"])

	game, err := games.Get(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(5, game.Board[2][3])
}

func (s *RouterSuite) TestSudokuRejectsOutOfBoundsCell() {
	alice := &fakeConn{id: "alice"}
	sess := &Session{Conn: alice, Family: "sudoku", UserID: 10, GroupKey: rooms.SudokuKey(1), CircleID: 1}
	s.Require().NoError(s.router.Connect(s.ctx, sess))

	s.router.HandleMessage(s.ctx, sess, []byte(`{"type":"update_cell","row":9,"col":0,"value":1}`))

	envs := alice.envelopes()
	s.Require().Len(envs, 1)
	s.Equal("error", envs[0]["type"])
}

func (s *RouterSuite) TestDisconnectStopsDelivery() {
	alice := &fakeConn{id: "alice"}
	bob := &fakeConn{id: "bob"}
	sessA := s.chatSession(alice, 10, "alice", 1)
	sessB := s.chatSession(bob, 20, "bob", 1)
	s.Require().NoError(s.router.Connect(s.ctx, sessA))
	s.Require().NoError(s.router.Connect(s.ctx, sessB))

	s.router.Disconnect(s.ctx, sessB)
	s.True(bob.isClosed())

	s.router.HandleMessage(s.ctx, sessA, []byte(`{"message":"still here"}`))
	s.Len(alice.envelopes(), 1)
	s.Empty(bob.envelopes())
}
