package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gbmoto/magazzino-backend/pkg/db/models"
)

// Repository manages persistence for components and their BOM edges.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, component *models.Component) error
	Update(ctx context.Context, component *models.Component) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Component, error)
	GetBySKU(ctx context.Context, sku string) (*models.Component, error)
	GetByCode(ctx context.Context, code string) (*models.Component, error)
	List(ctx context.Context) ([]models.Component, error)
	UpsertPart(ctx context.Context, edge *models.ComponentPart) error
	RemovePart(ctx context.Context, assemblyID, partID uuid.UUID) error
	ListParts(ctx context.Context, assemblyID uuid.UUID) ([]models.ComponentPart, error)
	ListUsages(ctx context.Context, partID uuid.UUID) ([]models.ComponentPart, error)
	CountEdges(ctx context.Context, componentID uuid.UUID) (int64, error)
	CountMovements(ctx context.Context, componentID uuid.UUID) (int64, error)
	CreateStock(ctx context.Context, componentID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, component *models.Component) error {
	if component.ID == uuid.Nil {
		component.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(component).Error
}

func (r *repository) Update(ctx context.Context, component *models.Component) error {
	return r.db.WithContext(ctx).Save(component).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Component{}, "id = ?", id).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Component, error) {
	var component models.Component
	if err := r.db.WithContext(ctx).First(&component, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &component, nil
}

func (r *repository) GetBySKU(ctx context.Context, sku string) (*models.Component, error) {
	var component models.Component
	if err := r.db.WithContext(ctx).First(&component, "sku = ?", sku).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &component, nil
}

func (r *repository) GetByCode(ctx context.Context, code string) (*models.Component, error) {
	var component models.Component
	if err := r.db.WithContext(ctx).First(&component, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &component, nil
}

func (r *repository) List(ctx context.Context) ([]models.Component, error) {
	var components []models.Component
	if err := r.db.WithContext(ctx).
		Order("sku ASC").
		Find(&components).Error; err != nil {
		return nil, err
	}
	return components, nil
}

func (r *repository) UpsertPart(ctx context.Context, edge *models.ComponentPart) error {
	existing := models.ComponentPart{}
	err := r.db.WithContext(ctx).
		First(&existing, "assembly_id = ? AND part_id = ?", edge.AssemblyID, edge.PartID).Error
	switch {
	case err == nil:
		return r.db.WithContext(ctx).
			Model(&models.ComponentPart{}).
			Where("assembly_id = ? AND part_id = ?", edge.AssemblyID, edge.PartID).
			Update("qty", edge.Qty).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return r.db.WithContext(ctx).Create(edge).Error
	default:
		return err
	}
}

func (r *repository) RemovePart(ctx context.Context, assemblyID, partID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.ComponentPart{}, "assembly_id = ? AND part_id = ?", assemblyID, partID).Error
}

func (r *repository) ListParts(ctx context.Context, assemblyID uuid.UUID) ([]models.ComponentPart, error) {
	var edges []models.ComponentPart
	if err := r.db.WithContext(ctx).
		Preload("Part").
		Where("assembly_id = ?", assemblyID).
		Order("part_id ASC").
		Find(&edges).Error; err != nil {
		return nil, err
	}
	return edges, nil
}

func (r *repository) ListUsages(ctx context.Context, partID uuid.UUID) ([]models.ComponentPart, error) {
	var edges []models.ComponentPart
	if err := r.db.WithContext(ctx).
		Preload("Assembly").
		Where("part_id = ?", partID).
		Order("assembly_id ASC").
		Find(&edges).Error; err != nil {
		return nil, err
	}
	return edges, nil
}

func (r *repository) CountEdges(ctx context.Context, componentID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ComponentPart{}).
		Where("assembly_id = ? OR part_id = ?", componentID, componentID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) CountMovements(ctx context.Context, componentID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.InventoryMovement{}).
		Where("component_id = ?", componentID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CreateStock seeds the snapshot row that the ledger mutates from then on.
func (r *repository) CreateStock(ctx context.Context, componentID uuid.UUID) error {
	return r.db.WithContext(ctx).Create(&models.Stock{ComponentID: componentID}).Error
}
