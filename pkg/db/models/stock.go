package models

import (
	"time"

	"github.com/google/uuid"
)

// Stock is the materialized on-hand quantity per component. It is a derived
// cache over inventory_movements, never an independent source of truth: the
// row is only ever mutated together with a ledger insert, and Version guards
// concurrent writers (optimistic locking).
// IntegrityHold is set when a consistency check finds the snapshot out of
// sync with the ledger sum; movements against the component are refused
// until an operator releases the hold.
type Stock struct {
	ComponentID   uuid.UUID `gorm:"column:component_id;type:uuid;primaryKey"`
	QtyAvailable  int       `gorm:"column:qty_available;not null;default:0"`
	Version       int64     `gorm:"column:version;not null;default:0"`
	IntegrityHold bool      `gorm:"column:integrity_hold;not null;default:false"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
