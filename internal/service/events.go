package service

// Document event types pushed to connected clients.
const (
	EventPOCreated         = "po.created"
	EventPOStatusChanged   = "po.status_changed"
	EventPOPaymentRecorded = "po.payment_recorded"
	EventPODelivered       = "po.delivered"
)

// EventPublisher fans document events out to subscribers. Publishing is
// best-effort: services never fail an operation because nobody is listening.
type EventPublisher interface {
	Publish(eventType string, payload interface{})
}

// NopPublisher discards all events.
type NopPublisher struct{}

func (NopPublisher) Publish(string, interface{}) {}
