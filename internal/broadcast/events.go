package broadcast

import "pos_kiosk_backend/internal/models"

// Event types pushed to dashboard sessions. A session receives exactly one
// init event carrying the pending snapshot, then deltas until it detaches.
const (
	EventInit         = "init"
	EventNewOrder     = "new_order"
	EventStatusUpdate = "status_update"
	EventClear        = "clear"
)

// Event is the wire payload for one push. Only the fields relevant to the
// event type are populated.
type Event struct {
	Type    string              `json:"type"`
	Order   *models.KioskOrder  `json:"order,omitempty"`
	Orders  []models.KioskOrder `json:"orders,omitempty"`
	OrderID string              `json:"orderId,omitempty"`
	Status  string              `json:"status,omitempty"`
}

// NewInitEvent builds the snapshot event for a freshly attached session.
func NewInitEvent(orders []models.KioskOrder) Event {
	if orders == nil {
		orders = []models.KioskOrder{}
	}
	return Event{Type: EventInit, Orders: orders}
}
