package checkout

import "time"

// OrderSubmittedEvent is emitted after the gateway answered a create-order call.
type OrderSubmittedEvent struct {
	GatewayOrderID string
	Stage          Stage
	Reason         string
	HTTPStatus     int
	Total          string
	Currency       string
	ItemCount      int
	OccurredAt     time.Time
}

func (OrderSubmittedEvent) EventName() string { return "checkout.order_submitted" }

// CaptureAttemptedEvent is emitted after the gateway answered a capture call.
type CaptureAttemptedEvent struct {
	GatewayOrderID string
	Stage          Stage
	Reason         string
	HTTPStatus     int
	OccurredAt     time.Time
}

func (CaptureAttemptedEvent) EventName() string { return "checkout.capture_attempted" }
