package health

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nexusrouter/nexus/core"
)

// BackendChangeEvent is broadcast whenever a backend's status, models, or
// latency changes as a result of a health check, so a dashboard can observe
// transitions without polling the registry.
type BackendChangeEvent struct {
	ID        string // unique per-event id, useful for dedup on the subscriber side
	BackendID string
	Status    core.Status
	Models    []core.Model
	LatencyMs float64
	At        time.Time
}

// broadcaster fans BackendChangeEvent out to subscribers. Sends are
// non-blocking: a slow or absent subscriber never stalls the health-check
// loop.
type broadcaster struct {
	mu   sync.RWMutex
	subs map[string]chan BackendChangeEvent
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[string]chan BackendChangeEvent)}
}

// Subscribe registers a new listener with the given channel buffer size
// and returns a subscription id (for Unsubscribe) and the receive channel.
func (b *broadcaster) Subscribe(buffer int) (string, <-chan BackendChangeEvent) {
	id := uuid.NewString()
	ch := make(chan BackendChangeEvent, buffer)
	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()
	return id, ch
}

// Unsubscribe removes and closes the subscription identified by id.
func (b *broadcaster) Unsubscribe(id string) {
	b.mu.Lock()
	ch, ok := b.subs[id]
	if ok {
		delete(b.subs, id)
	}
	b.mu.Unlock()
	if ok {
		close(ch)
	}
}

// publish fans evt out to every current subscriber, dropping it for any
// subscriber whose buffer is full.
func (b *broadcaster) publish(evt BackendChangeEvent) {
	evt.ID = uuid.NewString()
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}
