package broadcast

import (
	"sync"

	"github.com/google/uuid"

	"pos_kiosk_backend/internal/models"
	"pos_kiosk_backend/pkg/utils"
)

const defaultSessionBuffer = 32

// Session is one attached dashboard connection. Events arrive on C until
// the hub closes it, either on Unsubscribe or on eviction.
type Session struct {
	ID string
	C  chan Event
}

// Hub fans kiosk order events out to every attached session. Delivery is
// non-blocking: a session whose buffer is full is evicted rather than
// allowed to stall the publisher.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]*Session
	buffer   int
}

// NewHub creates a hub with the given per-session buffer size. A size of
// zero or less falls back to the default.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultSessionBuffer
	}
	return &Hub{
		sessions: make(map[string]*Session),
		buffer:   buffer,
	}
}

// Subscribe attaches a new session and returns it. The caller must drain
// Session.C promptly and call Unsubscribe when done.
func (h *Hub) Subscribe() *Session {
	session := &Session{
		ID: uuid.NewString(),
		C:  make(chan Event, h.buffer),
	}
	h.mu.Lock()
	h.sessions[session.ID] = session
	h.mu.Unlock()
	return session
}

// Unsubscribe detaches a session and closes its channel. Safe to call more
// than once.
func (h *Hub) Unsubscribe(session *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sessions[session.ID]; ok {
		delete(h.sessions, session.ID)
		close(session.C)
	}
}

// Broadcast delivers the event to every session without blocking. Sessions
// that cannot keep up are dropped; a dropped client reconnects and recovers
// state from the init snapshot.
func (h *Hub) Broadcast(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, session := range h.sessions {
		select {
		case session.C <- event:
		default:
			delete(h.sessions, id)
			close(session.C)
			utils.LogWarn("evicted slow dashboard session " + id)
		}
	}
}

// SessionCount reports how many sessions are currently attached.
func (h *Hub) SessionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// PublishNew announces a freshly submitted order.
func (h *Hub) PublishNew(order *models.KioskOrder) {
	h.Broadcast(Event{Type: EventNewOrder, Order: order})
}

// PublishStatus announces a status change on an existing order.
func (h *Hub) PublishStatus(orderID, status string) {
	h.Broadcast(Event{Type: EventStatusUpdate, OrderID: orderID, Status: status})
}

// PublishClear tells sessions to drop their pending queues entirely.
func (h *Hub) PublishClear() {
	h.Broadcast(Event{Type: EventClear})
}
