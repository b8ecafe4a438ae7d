package models

import (
	"time"

	"github.com/google/uuid"
)

// Delivery is a supplier shipment. It counts as received once ReceivedDate is
// set; receiving produces one DELIVERY movement per line.
type Delivery struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	SupplierID   uuid.UUID  `gorm:"column:supplier_id;type:uuid;not null"`
	OrderDate    time.Time  `gorm:"column:order_date;not null"`
	ReceivedDate *time.Time `gorm:"column:received_date"`
	HasIssues    bool       `gorm:"column:has_issues;not null;default:false"`
	Notes        *string    `gorm:"column:notes"`

	Lines []DeliveryLine `gorm:"foreignKey:DeliveryID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
