// Package stream fans viewport commands out to connected map clients.
package stream

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/mr1hm/go-club-map/internal/models"
)

// Recenter asks the map of one session to fly to a point.
type Recenter struct {
	SessionID  string  `json:"-"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	Zoom       int     `json:"zoom"`
	DurationMS int64   `json:"duration_ms"`
}

const subscriberBuffer = 16

type subscriber struct {
	sessionID string
	ch        chan Recenter
}

type Broadcaster struct {
	subscribers map[uint64]subscriber
	nextID      atomic.Uint64
	mu          sync.RWMutex
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[uint64]subscriber),
	}
}

// Subscribe registers a listener for one session's commands.
func (b *Broadcaster) Subscribe(sessionID string) (uint64, <-chan Recenter) {
	id := b.nextID.Add(1)
	ch := make(chan Recenter, subscriberBuffer)

	b.mu.Lock()
	b.subscribers[id] = subscriber{sessionID: sessionID, ch: ch}
	b.mu.Unlock()

	return id, ch
}

func (b *Broadcaster) Unsubscribe(id uint64) {
	b.mu.Lock()
	if sub, ok := b.subscribers[id]; ok {
		close(sub.ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

// Broadcast never blocks. A subscriber whose buffer is full misses the
// command; the next one supersedes it anyway.
func (b *Broadcaster) Broadcast(r Recenter) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscribers {
		if sub.sessionID != r.SessionID {
			continue
		}
		select {
		case sub.ch <- r:
		default:
		}
	}
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes all subscriber channels, causing streams to exit gracefully
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, sub := range b.subscribers {
		close(sub.ch)
		delete(b.subscribers, id)
	}
}

// Viewport publishes FlyTo calls for one session.
type Viewport struct {
	sessionID string
	b         *Broadcaster
}

func (b *Broadcaster) Viewport(sessionID string) *Viewport {
	return &Viewport{sessionID: sessionID, b: b}
}

func (v *Viewport) FlyTo(p models.Point, zoom int, duration time.Duration) {
	v.b.Broadcast(Recenter{
		SessionID:  v.sessionID,
		Lat:        p.Lat,
		Lng:        p.Lng,
		Zoom:       zoom,
		DurationMS: duration.Milliseconds(),
	})
}
