package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/gbmoto/magazzino-backend/pkg/enums"
)

// InventoryMovement is one immutable ledger row: a signed quantity change
// tagged with its causing event. Movements are never edited or deleted;
// corrections are new offsetting movements.
type InventoryMovement struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	ComponentID uuid.UUID            `gorm:"column:component_id;type:uuid;not null;index:ix_movements_component"`
	Delta       int                  `gorm:"column:delta;not null"`
	SourceType  enums.MovementSource `gorm:"column:source_type;type:movement_source_enum;not null"`
	SourceID    uuid.UUID            `gorm:"column:source_id;type:uuid;not null"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
}
