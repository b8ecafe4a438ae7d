package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gbmoto/magazzino-backend/pkg/db/models"
	"github.com/gbmoto/magazzino-backend/pkg/pagination"
)

// MovementFilter narrows a ledger listing.
type MovementFilter struct {
	ComponentID *uuid.UUID
	SourceID    *uuid.UUID
	Limit       int
	Cursor      *pagination.Cursor
}

// Repository manages persistence for the movement ledger and stock snapshots.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetStock(ctx context.Context, componentID uuid.UUID) (*models.Stock, error)
	ListStocks(ctx context.Context) ([]models.Stock, error)
	// ApplyDelta performs the guarded snapshot update. It reports false when
	// the conditional UPDATE matched no row, either because the version moved
	// or because the non-negative guard failed.
	ApplyDelta(ctx context.Context, componentID uuid.UUID, delta int, expectedVersion int64, guardNonNegative bool) (bool, error)
	SetIntegrityHold(ctx context.Context, componentID uuid.UUID, hold bool) error
	InsertMovement(ctx context.Context, movement *models.InventoryMovement) error
	ListMovements(ctx context.Context, filter MovementFilter) ([]models.InventoryMovement, error)
	SumDeltas(ctx context.Context, componentID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an inventory repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetStock(ctx context.Context, componentID uuid.UUID) (*models.Stock, error) {
	var stock models.Stock
	if err := r.db.WithContext(ctx).First(&stock, "component_id = ?", componentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &stock, nil
}

func (r *repository) ListStocks(ctx context.Context) ([]models.Stock, error) {
	var stocks []models.Stock
	if err := r.db.WithContext(ctx).
		Order("component_id ASC").
		Find(&stocks).Error; err != nil {
		return nil, err
	}
	return stocks, nil
}

func (r *repository) ApplyDelta(ctx context.Context, componentID uuid.UUID, delta int, expectedVersion int64, guardNonNegative bool) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Stock{}).
		Where("component_id = ? AND version = ?", componentID, expectedVersion)
	if guardNonNegative {
		query = query.Where("qty_available + ? >= 0", delta)
	}
	result := query.Updates(map[string]any{
		"qty_available": gorm.Expr("qty_available + ?", delta),
		"version":       gorm.Expr("version + 1"),
		"updated_at":    time.Now(),
	})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) SetIntegrityHold(ctx context.Context, componentID uuid.UUID, hold bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Stock{}).
		Where("component_id = ?", componentID).
		Update("integrity_hold", hold).Error
}

func (r *repository) InsertMovement(ctx context.Context, movement *models.InventoryMovement) error {
	if movement.ID == uuid.Nil {
		movement.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repository) ListMovements(ctx context.Context, filter MovementFilter) ([]models.InventoryMovement, error) {
	query := r.db.WithContext(ctx).Model(&models.InventoryMovement{})
	if filter.ComponentID != nil {
		query = query.Where("component_id = ?", *filter.ComponentID)
	}
	if filter.SourceID != nil {
		query = query.Where("source_id = ?", *filter.SourceID)
	}
	if filter.Cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			filter.Cursor.CreatedAt, filter.Cursor.CreatedAt, filter.Cursor.ID,
		)
	}

	var movements []models.InventoryMovement
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(filter.Limit)).
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

func (r *repository) SumDeltas(ctx context.Context, componentID uuid.UUID) (int64, error) {
	var sum *int64
	if err := r.db.WithContext(ctx).
		Model(&models.InventoryMovement{}).
		Where("component_id = ?", componentID).
		Select("SUM(delta)").
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}
