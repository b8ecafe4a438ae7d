package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/gbmoto/magazzino-backend/pkg/enums"
)

// Component is a catalog entry: either a raw part or an assembly defined by a
// bill of materials over other components.
type Component struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	SKU       string              `gorm:"column:sku;type:text;not null;uniqueIndex:ux_components_sku"`
	Name      string              `gorm:"column:name;type:text;not null"`
	Code      *string             `gorm:"column:code;type:text;uniqueIndex:ux_components_code"`
	Kind      enums.ComponentKind `gorm:"column:kind;type:component_kind_enum;not null"`
	Unit      string              `gorm:"column:unit;type:text;not null;default:'pcs'"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
