package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/gbmoto/magazzino-backend/pkg/enums"
)

// Order is a customer order imported from the storefront. Status only ever
// moves forward: PENDING -> IN_PICK -> PREPARED.
type Order struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	ShopifyID     int64             `gorm:"column:shopify_id;not null;uniqueIndex:ux_orders_shopify_id"`
	CreatedAtShop time.Time         `gorm:"column:created_at_shop;not null"`
	PreparedAt    *time.Time        `gorm:"column:prepared_at"`
	Status        enums.OrderStatus `gorm:"column:status;type:order_status_enum;not null;default:'PENDING'"`
	CustomerName  string            `gorm:"column:customer_name;type:text;not null"`

	Lines []OrderLine `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
