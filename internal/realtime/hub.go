// Package realtime distributes row-level lead change events to per-user
// subscribers and reconciles them into loaded pages.
package realtime

import (
	"sync"
	"sync/atomic"

	"github.com/intakt/hunter/backend/internal/logger"
	"go.uber.org/zap"
)

const subscriptionBuffer = 64

// Subscription is one listener on a user's change feed. Events arrive on C
// in publish order. Close is idempotent.
type Subscription struct {
	C chan LeadChange

	userID string
	hub    *Hub
	once   sync.Once
}

// Close releases the subscription. Safe to call multiple times.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
		close(s.C)
	})
}

// Metrics tracks change-feed statistics.
type Metrics struct {
	TotalSubscriptions  atomic.Int64
	ActiveSubscriptions atomic.Int64
	EventsPublished     atomic.Int64
	EventsDropped       atomic.Int64
}

// MetricsSnapshot is a point-in-time copy of the hub metrics.
type MetricsSnapshot struct {
	TotalSubscriptions  int64 `json:"total_subscriptions"`
	ActiveSubscriptions int64 `json:"active_subscriptions"`
	EventsPublished     int64 `json:"events_published"`
	EventsDropped       int64 `json:"events_dropped"`
}

// Hub fans lead change events out to subscribers, scoped by user id so a
// user only ever sees their own rows.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*Subscription]struct{}
	closed      bool

	metrics Metrics
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[*Subscription]struct{}),
	}
}

// Subscribe registers a listener for one user's change feed.
func (h *Hub) Subscribe(userID string) *Subscription {
	sub := &Subscription{
		C:      make(chan LeadChange, subscriptionBuffer),
		userID: userID,
		hub:    h,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		// Hub already shut down; hand back a closed subscription so the
		// caller degrades to plain fetch.
		close(sub.C)
		sub.once.Do(func() {})
		return sub
	}

	if h.subscribers[userID] == nil {
		h.subscribers[userID] = make(map[*Subscription]struct{})
	}
	h.subscribers[userID][sub] = struct{}{}

	h.metrics.TotalSubscriptions.Add(1)
	h.metrics.ActiveSubscriptions.Add(1)

	logger.Log.Debug("change feed subscription opened",
		logger.WithUserID(userID),
		zap.Int64("active", h.metrics.ActiveSubscriptions.Load()),
	)

	return sub
}

// Publish delivers a change to every subscription for userID. Slow
// subscribers whose buffer is full drop the event rather than block the
// publisher.
func (h *Hub) Publish(userID string, change LeadChange) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}

	for sub := range h.subscribers[userID] {
		select {
		case sub.C <- change:
			h.metrics.EventsPublished.Add(1)
		default:
			h.metrics.EventsDropped.Add(1)
			logger.Log.Warn("change feed subscriber too slow, event dropped",
				logger.WithUserID(userID),
				zap.String("type", string(change.Type)),
			)
		}
	}
}

// SubscriberCount returns the number of open subscriptions for a user.
func (h *Hub) SubscriberCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[userID])
}

// GetMetrics returns current hub metrics.
func (h *Hub) GetMetrics() MetricsSnapshot {
	return MetricsSnapshot{
		TotalSubscriptions:  h.metrics.TotalSubscriptions.Load(),
		ActiveSubscriptions: h.metrics.ActiveSubscriptions.Load(),
		EventsPublished:     h.metrics.EventsPublished.Load(),
		EventsDropped:       h.metrics.EventsDropped.Load(),
	}
}

// Shutdown closes all subscriptions and refuses new ones.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	subs := make([]*Subscription, 0)
	for _, set := range h.subscribers {
		for sub := range set {
			subs = append(subs, sub)
		}
	}
	h.subscribers = make(map[string]map[*Subscription]struct{})
	h.closed = true
	h.mu.Unlock()

	for _, sub := range subs {
		sub.once.Do(func() {
			close(sub.C)
		})
	}
	// The map was cleared wholesale, so remove never ran for these.
	h.metrics.ActiveSubscriptions.Add(-int64(len(subs)))

	logger.Log.Info("change feed hub shut down",
		zap.Int("closed_subscriptions", len(subs)),
	)
}

// remove detaches a subscription; called from Subscription.Close.
func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subscribers[sub.userID]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subscribers, sub.userID)
	}
	h.metrics.ActiveSubscriptions.Add(-1)
}
