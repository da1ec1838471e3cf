package broadcast

import (
	"testing"

	"github.com/shopspring/decimal"

	"pos_kiosk_backend/internal/models"
)

func drainOne(t *testing.T, session *Session) Event {
	t.Helper()
	select {
	case event, ok := <-session.C:
		if !ok {
			t.Fatal("session channel closed unexpectedly")
		}
		return event
	default:
		t.Fatal("expected a buffered event, channel was empty")
	}
	return Event{}
}

func TestBroadcastDeliversToAllSessions(t *testing.T) {
	hub := NewHub(4)
	first := hub.Subscribe()
	second := hub.Subscribe()

	order := &models.KioskOrder{ID: "o-1", Code: "O1", Status: models.OrderStatusPending, Total: decimal.RequireFromString("12.00")}
	hub.PublishNew(order)

	for _, session := range []*Session{first, second} {
		event := drainOne(t, session)
		if event.Type != EventNewOrder {
			t.Errorf("expected %s event, got %s", EventNewOrder, event.Type)
		}
		if event.Order == nil || event.Order.ID != "o-1" {
			t.Errorf("expected order o-1 in event, got %+v", event.Order)
		}
	}
}

func TestSlowSessionIsEvicted(t *testing.T) {
	hub := NewHub(1)
	slow := hub.Subscribe()
	fast := hub.Subscribe()

	hub.PublishStatus("o-1", models.OrderStatusConfirmed)
	drainOne(t, fast)

	// slow has not drained; its single-slot buffer is full, so the next
	// broadcast must evict it instead of blocking.
	hub.PublishStatus("o-2", models.OrderStatusCancelled)

	if got := hub.SessionCount(); got != 1 {
		t.Fatalf("expected 1 session after eviction, got %d", got)
	}

	event := drainOne(t, fast)
	if event.OrderID != "o-2" {
		t.Errorf("fast session should have received the second event, got %+v", event)
	}

	// The evicted session keeps its buffered event, then sees close.
	drainOne(t, slow)
	if _, ok := <-slow.C; ok {
		t.Error("evicted session channel should be closed")
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	hub := NewHub(1)
	session := hub.Subscribe()

	hub.Unsubscribe(session)
	hub.Unsubscribe(session)

	if got := hub.SessionCount(); got != 0 {
		t.Fatalf("expected 0 sessions, got %d", got)
	}

	// Broadcasting with no sessions must not panic.
	hub.PublishClear()
}

func TestStatusAndClearEventShapes(t *testing.T) {
	hub := NewHub(4)
	session := hub.Subscribe()

	hub.PublishStatus("o-9", models.OrderStatusConfirmed)
	hub.PublishClear()

	status := drainOne(t, session)
	if status.Type != EventStatusUpdate || status.OrderID != "o-9" || status.Status != models.OrderStatusConfirmed {
		t.Errorf("unexpected status event: %+v", status)
	}

	clear := drainOne(t, session)
	if clear.Type != EventClear {
		t.Errorf("expected %s event, got %s", EventClear, clear.Type)
	}
}

func TestNewInitEventNeverCarriesNilOrders(t *testing.T) {
	event := NewInitEvent(nil)
	if event.Type != EventInit {
		t.Fatalf("expected %s event, got %s", EventInit, event.Type)
	}
	if event.Orders == nil {
		t.Error("init event orders should be an empty slice, not nil")
	}
}

func TestDefaultBufferApplied(t *testing.T) {
	hub := NewHub(0)
	session := hub.Subscribe()
	if cap(session.C) != defaultSessionBuffer {
		t.Errorf("expected default buffer %d, got %d", defaultSessionBuffer, cap(session.C))
	}
}
