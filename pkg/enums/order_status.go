package enums

import "fmt"

// OrderStatus maps to the order_status_enum enum in Postgres. Transitions are
// strictly forward: PENDING -> IN_PICK -> PREPARED.
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "PENDING"
	OrderStatusInPick   OrderStatus = "IN_PICK"
	OrderStatusPrepared OrderStatus = "PREPARED"
)

var orderStatusRank = map[OrderStatus]int{
	OrderStatusPending:  0,
	OrderStatusInPick:   1,
	OrderStatusPrepared: 2,
}

// IsValid reports whether the value matches the canonical order status enum.
func (s OrderStatus) IsValid() bool {
	_, ok := orderStatusRank[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next advances the status by
// exactly one step. Backward and skipping moves are rejected.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	from, ok := orderStatusRank[s]
	if !ok {
		return false
	}
	to, ok := orderStatusRank[next]
	if !ok {
		return false
	}
	return to == from+1
}

// ParseOrderStatus converts raw input into OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for status := range orderStatusRank {
		if string(status) == value {
			return status, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
