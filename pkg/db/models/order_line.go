package models

import "github.com/google/uuid"

// OrderLine is one requested component position of an order. The component may
// be an assembly; fulfillment resolves it to leaf requirements before picking.
type OrderLine struct {
	OrderID     uuid.UUID `gorm:"column:order_id;type:uuid;primaryKey"`
	ComponentID uuid.UUID `gorm:"column:component_id;type:uuid;primaryKey"`
	Qty         int       `gorm:"column:qty;not null"`
}
