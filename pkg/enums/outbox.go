package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type_enum enum in Postgres.
type OutboxAggregateType string

const (
	AggregateComponent OutboxAggregateType = "component"
	AggregateOrder     OutboxAggregateType = "order"
	AggregateDelivery  OutboxAggregateType = "delivery"
	AggregateMovement  OutboxAggregateType = "movement"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateComponent,
	AggregateOrder,
	AggregateDelivery,
	AggregateMovement,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type_enum enum in Postgres.
type OutboxEventType string

const (
	EventMovementApplied  OutboxEventType = "movement_applied"
	EventOrderPickStarted OutboxEventType = "order_pick_started"
	EventOrderPicked      OutboxEventType = "order_picked"
	EventDeliveryReceived OutboxEventType = "delivery_received"
	EventStockAdjusted    OutboxEventType = "stock_adjusted"
)

var validOutboxEventTypes = []OutboxEventType{
	EventMovementApplied,
	EventOrderPickStarted,
	EventOrderPicked,
	EventDeliveryReceived,
	EventStockAdjusted,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
