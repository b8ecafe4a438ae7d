package models

import "github.com/google/uuid"

// DeliveryLine is one component position of a delivery. QtyReceived may differ
// from QtyOrdered; the discrepancy is recorded, not rejected.
type DeliveryLine struct {
	DeliveryID  uuid.UUID `gorm:"column:delivery_id;type:uuid;primaryKey"`
	ComponentID uuid.UUID `gorm:"column:component_id;type:uuid;primaryKey"`
	QtyOrdered  int       `gorm:"column:qty_ordered;not null"`
	QtyReceived int       `gorm:"column:qty_received;not null;default:0"`
}
