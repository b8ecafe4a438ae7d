package models

import "github.com/google/uuid"

// ComponentPart is one BOM edge: building one unit of AssemblyID consumes Qty
// units of PartID. Unique per (assembly, part) pair.
type ComponentPart struct {
	AssemblyID uuid.UUID `gorm:"column:assembly_id;type:uuid;primaryKey"`
	PartID     uuid.UUID `gorm:"column:part_id;type:uuid;primaryKey"`
	Qty        int       `gorm:"column:qty;not null"`

	Assembly *Component `gorm:"foreignKey:AssemblyID"`
	Part     *Component `gorm:"foreignKey:PartID"`
}
