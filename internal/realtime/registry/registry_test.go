package registry

import (
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
)

// fakeSub records deliveries. A zero capacity simulates a peer that
// cannot drain its queue.
type fakeSub struct {
	id     string
	userID int64
	cap    int

	mu       sync.Mutex
	received [][]byte
	closed   bool
}

func newFakeSub(id string, userID int64) *fakeSub {
	return &fakeSub{id: id, userID: userID, cap: 64}
}

func (f *fakeSub) ID() string    { return f.id }
func (f *fakeSub) UserID() int64 { return f.userID }

func (f *fakeSub) TrySend(payload []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || len(f.received) >= f.cap {
		return false
	}
	f.received = append(f.received, payload)
	return true
}

func (f *fakeSub) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeSub) deliveries() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.received...)
}

func (f *fakeSub) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type RegistrySuite struct {
	suite.Suite
	registry *Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.registry = New(nil, slog.Default())
}

func (s *RegistrySuite) TestPublishReachesOnlyGroupMembers() {
	a := newFakeSub("a", 1)
	b := newFakeSub("b", 2)
	c := newFakeSub("c", 3)
	s.registry.Join("chat:1", a)
	s.registry.Join("chat:1", b)
	s.registry.Join("chat:2", c)

	s.registry.Publish("chat:1", []byte("hello"))

	s.Len(a.deliveries(), 1)
	s.Len(b.deliveries(), 1)
	s.Empty(c.deliveries(), "unrelated group must not see the payload")
}

func (s *RegistrySuite) TestPublishToMissingGroupIsNoop() {
	s.NotPanics(func() {
		s.registry.Publish("chat:404", []byte("void"))
	})
}

func (s *RegistrySuite) TestLeaveStopsDelivery() {
	a := newFakeSub("a", 1)
	b := newFakeSub("b", 2)
	s.registry.Join("chat:1", a)
	s.registry.Join("chat:1", b)

	s.registry.Leave("chat:1", a)
	s.registry.Publish("chat:1", []byte("after"))

	s.Empty(a.deliveries())
	s.Len(b.deliveries(), 1)
	s.False(a.isClosed(), "leave must not close the connection")
}

func (s *RegistrySuite) TestDropRemovesFromAllGroupsAndCloses() {
	a := newFakeSub("a", 1)
	s.registry.Join("chat:1", a)
	s.registry.Join("notifications:1", a)

	s.registry.Drop(a)

	s.registry.Publish("chat:1", []byte("x"))
	s.registry.Publish("notifications:1", []byte("y"))
	s.Empty(a.deliveries())
	s.True(a.isClosed())
	s.Zero(s.registry.Subscribers("chat:1"))
}

func (s *RegistrySuite) TestOverflowedSubscriberIsDropped() {
	stuck := newFakeSub("stuck", 1)
	stuck.cap = 0
	healthy := newFakeSub("healthy", 2)
	s.registry.Join("chat:1", stuck)
	s.registry.Join("chat:1", healthy)

	s.registry.Publish("chat:1", []byte("frame"))

	s.True(stuck.isClosed(), "a peer that cannot drain its queue is disconnected")
	s.Equal(1, s.registry.Subscribers("chat:1"))
	s.Len(healthy.deliveries(), 1)
}

func (s *RegistrySuite) TestPerGroupOrderPreserved() {
	a := newFakeSub("a", 1)
	s.registry.Join("chat:1", a)

	for i := range 20 {
		s.registry.Publish("chat:1", fmt.Appendf(nil, "msg-%d", i))
	}

	got := a.deliveries()
	s.Require().Len(got, 20)
	for i, payload := range got {
		s.Equal(fmt.Sprintf("msg-%d", i), string(payload))
	}
}

func (s *RegistrySuite) TestJoinSurvivesGroupChurn() {
	// Churners empty the group repeatedly so its map entry is deleted
	// and recreated while the joiner runs. A join must always land in
	// the live group object, never in a discarded one.
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			churn := newFakeSub(fmt.Sprintf("churn-%d", i), int64(100+i))
			churn.cap = 1 << 20
			for {
				select {
				case <-stop:
					return
				default:
				}
				s.registry.Join("chat:1", churn)
				s.registry.Leave("chat:1", churn)
			}
		}()
	}

	joiner := newFakeSub("joiner", 1)
	joiner.cap = 1 << 20
	for i := range 2000 {
		s.registry.Join("chat:1", joiner)
		before := len(joiner.deliveries())
		s.registry.Publish("chat:1", fmt.Appendf(nil, "probe-%d", i))
		if !s.Len(joiner.deliveries(), before+1, "publish after join missed the joined subscriber") {
			break
		}
		s.registry.Leave("chat:1", joiner)
	}
	close(stop)
	wg.Wait()
}

func (s *RegistrySuite) TestLeaveOfDiscardedGroupClearsMembership() {
	// A drop elsewhere can discard an emptied group while a membership
	// record for it still exists. Leave must clear the record anyway.
	a := newFakeSub("a", 1)
	s.registry.mu.Lock()
	s.registry.membership[a.ID()] = map[string]struct{}{"chat:9": {}}
	s.registry.mu.Unlock()

	s.registry.Leave("chat:9", a)

	s.registry.mu.RLock()
	_, tracked := s.registry.membership[a.ID()]
	s.registry.mu.RUnlock()
	s.False(tracked, "membership record must not outlive the group")
}

func (s *RegistrySuite) TestConcurrentJoinPublishLeave() {
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := newFakeSub(fmt.Sprintf("sub-%d", i), int64(i))
			s.registry.Join("chat:1", sub)
			s.registry.Publish("chat:1", []byte("burst"))
			s.registry.Drop(sub)
		}()
	}
	wg.Wait()

	s.Zero(s.registry.Subscribers("chat:1"))
}
