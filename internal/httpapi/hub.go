package httpapi

import (
	"sync"

	"github.com/StevieDC/dd-voice/internal/session"
	"github.com/StevieDC/dd-voice/pkg/log"
)

const subscriberBuffer = 32

// Hub fans session notifications out to SSE subscribers. Notify never
// blocks: a subscriber whose buffer is full misses the notification.
type Hub struct {
	mu   sync.Mutex
	subs map[chan session.Notification]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan session.Notification]struct{})}
}

func (h *Hub) Notify(n session.Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- n:
		default:
			log.Debug("Dropping %s notification for slow subscriber", n.Type)
		}
	}
}

// Subscribe registers a subscriber. The returned func unregisters it and
// closes the channel.
func (h *Hub) Subscribe() (<-chan session.Notification, func()) {
	ch := make(chan session.Notification, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *Hub) subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
