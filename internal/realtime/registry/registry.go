package registry

import (
	"log/slog"
	"strings"
	"sync"

	"circles/internal/platform/metrics"
)

// Subscriber is the registry's view of a live connection.
// *transport.Connection satisfies it.
type Subscriber interface {
	ID() string
	UserID() int64
	TrySend(payload []byte) bool
	Close()
}

// group owns one subscriber set. Its mutex is held for the whole of a
// publish, which linearizes deliveries within the group.
type group struct {
	mu   sync.Mutex
	subs map[string]Subscriber
}

// Registry partitions live connections by group key and fans published
// payloads out to every current member of a group. Lock order is always
// registry then group, never the reverse.
type Registry struct {
	mu         sync.RWMutex
	groups     map[string]*group
	membership map[string]map[string]struct{} // conn ID -> group keys

	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(m *metrics.Metrics, logger *slog.Logger) *Registry {
	return &Registry{
		groups:     make(map[string]*group),
		membership: make(map[string]map[string]struct{}),
		metrics:    m,
		logger:     logger,
	}
}

// Join adds sub to the group, creating it on first use. Joining twice
// is a no-op.
func (r *Registry) Join(key string, sub Subscriber) {
	r.mu.Lock()
	g, ok := r.groups[key]
	if !ok {
		g = &group{subs: make(map[string]Subscriber)}
		r.groups[key] = g
	}
	keys, ok := r.membership[sub.ID()]
	if !ok {
		keys = make(map[string]struct{})
		r.membership[sub.ID()] = keys
	}
	keys[key] = struct{}{}

	// Insert while still holding the registry mutex. Releasing it first
	// would let a concurrent Leave or Drop delete an emptied group and
	// orphan this subscriber.
	g.mu.Lock()
	g.subs[sub.ID()] = sub
	g.mu.Unlock()
	r.mu.Unlock()
}

// Leave removes sub from one group. Empty groups are discarded so the
// key space does not grow with history.
func (r *Registry) Leave(key string, sub Subscriber) {
	r.mu.Lock()
	if keys, ok := r.membership[sub.ID()]; ok {
		delete(keys, key)
		if len(keys) == 0 {
			delete(r.membership, sub.ID())
		}
	}
	g, ok := r.groups[key]
	if !ok {
		r.mu.Unlock()
		return
	}

	g.mu.Lock()
	delete(g.subs, sub.ID())
	empty := len(g.subs) == 0
	g.mu.Unlock()

	if empty {
		delete(r.groups, key)
	}
	r.mu.Unlock()
}

// Drop removes sub from every group it joined and closes it. Once Drop
// returns no further publish can reach the subscriber.
func (r *Registry) Drop(sub Subscriber) {
	r.mu.Lock()
	keys := r.membership[sub.ID()]
	delete(r.membership, sub.ID())
	for key := range keys {
		g, ok := r.groups[key]
		if !ok {
			continue
		}
		g.mu.Lock()
		delete(g.subs, sub.ID())
		empty := len(g.subs) == 0
		g.mu.Unlock()
		if empty {
			delete(r.groups, key)
		}
	}
	r.mu.Unlock()

	sub.Close()
}

// Publish fans payload out to every current member of the group.
// Publishing to a missing group is a no-op. Subscribers whose outbound
// queue is full are dropped: a peer that cannot keep up stops
// receiving rather than stalling the group.
func (r *Registry) Publish(key string, payload []byte) {
	r.mu.RLock()
	g, ok := r.groups[key]
	r.mu.RUnlock()
	if !ok {
		return
	}

	var overflowed []Subscriber
	g.mu.Lock()
	for _, sub := range g.subs {
		if !sub.TrySend(payload) {
			overflowed = append(overflowed, sub)
		}
	}
	g.mu.Unlock()

	if r.metrics != nil {
		r.metrics.EventsPublished.WithLabelValues(groupFamily(key)).Inc()
	}
	for _, sub := range overflowed {
		r.logger.Warn("subscriber queue full, dropping connection",
			"conn_id", sub.ID(), "user_id", sub.UserID(), "group", key)
		if r.metrics != nil {
			r.metrics.EventsDropped.Inc()
		}
		r.Drop(sub)
	}
}

// Subscribers reports the current size of a group.
func (r *Registry) Subscribers(key string) int {
	r.mu.RLock()
	g, ok := r.groups[key]
	r.mu.RUnlock()
	if !ok {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.subs)
}

func groupFamily(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}
