package presence

import (
	"context"
	"log/slog"
	"sync"
)

// Tracker maintains a live-connection count per user and flips the durable
// online flag only on the first connect and the last disconnect. This keeps
// a user online while any of their sessions remains open, instead of the
// naive set-offline-on-any-disconnect behavior.
type Tracker struct {
	mu     sync.Mutex
	counts map[int64]int

	store  Store
	logger *slog.Logger
}

func NewTracker(store Store, logger *slog.Logger) *Tracker {
	return &Tracker{
		counts: make(map[int64]int),
		store:  store,
		logger: logger.With(slog.String("component", "presence_tracker")),
	}
}

// Connect registers one live presence connection for the user. It returns
// true when this was the user's first connection, i.e. the online flag
// flipped and a status broadcast is due.
func (t *Tracker) Connect(ctx context.Context, userID int64) (bool, error) {
	t.mu.Lock()
	t.counts[userID]++
	first := t.counts[userID] == 1
	t.mu.Unlock()

	if !first {
		return false, nil
	}
	if err := t.store.SetOnline(ctx, userID, true); err != nil {
		// The session was never accepted; undo the count so the user's
		// next attempt is first again and flips the flag.
		t.mu.Lock()
		if count := t.counts[userID] - 1; count <= 0 {
			delete(t.counts, userID)
		} else {
			t.counts[userID] = count
		}
		t.mu.Unlock()
		return false, err
	}
	return true, nil
}

// Disconnect unregisters one live presence connection. It returns true when
// this was the user's last connection and the offline flip was persisted.
func (t *Tracker) Disconnect(ctx context.Context, userID int64) (bool, error) {
	t.mu.Lock()
	count, ok := t.counts[userID]
	if !ok {
		t.mu.Unlock()
		return false, nil
	}
	count--
	if count <= 0 {
		delete(t.counts, userID)
	} else {
		t.counts[userID] = count
	}
	last := count <= 0
	t.mu.Unlock()

	if !last {
		return false, nil
	}
	if err := t.store.SetOnline(ctx, userID, false); err != nil {
		return true, err
	}
	return true, nil
}

// ListOnline answers "who is online now" for join-time snapshots.
func (t *Tracker) ListOnline(ctx context.Context) ([]int64, error) {
	return t.store.ListOnline(ctx)
}
