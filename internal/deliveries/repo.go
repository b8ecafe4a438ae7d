package deliveries

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gbmoto/magazzino-backend/pkg/db/models"
)

// Repository persists deliveries and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, delivery *models.Delivery) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Delivery, error)
	List(ctx context.Context, received *bool) ([]models.Delivery, error)
	// MarkReceived stamps the delivery as received. The guard on received_date
	// makes a second receive attempt a no-op, reported as false.
	MarkReceived(ctx context.Context, id uuid.UUID, receivedDate time.Time, hasIssues bool, notes *string) (bool, error)
	UpdateLineReceived(ctx context.Context, deliveryID, componentID uuid.UUID, qtyReceived int) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, delivery *models.Delivery) error {
	if delivery.ID == uuid.Nil {
		delivery.ID = uuid.New()
	}
	for i := range delivery.Lines {
		delivery.Lines[i].DeliveryID = delivery.ID
	}
	return r.db.WithContext(ctx).Create(delivery).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Delivery, error) {
	var delivery models.Delivery
	err := r.db.WithContext(ctx).Preload("Lines").First(&delivery, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &delivery, nil
}

func (r *repository) List(ctx context.Context, received *bool) ([]models.Delivery, error) {
	query := r.db.WithContext(ctx).Model(&models.Delivery{})
	if received != nil {
		if *received {
			query = query.Where("received_date IS NOT NULL")
		} else {
			query = query.Where("received_date IS NULL")
		}
	}
	var deliveries []models.Delivery
	err := query.Order("order_date DESC").Find(&deliveries).Error
	return deliveries, err
}

func (r *repository) MarkReceived(ctx context.Context, id uuid.UUID, receivedDate time.Time, hasIssues bool, notes *string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Delivery{}).
		Where("id = ? AND received_date IS NULL", id).
		Updates(map[string]any{
			"received_date": receivedDate,
			"has_issues":    hasIssues,
			"notes":         notes,
			"updated_at":    time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) UpdateLineReceived(ctx context.Context, deliveryID, componentID uuid.UUID, qtyReceived int) error {
	return r.db.WithContext(ctx).
		Model(&models.DeliveryLine{}).
		Where("delivery_id = ? AND component_id = ?", deliveryID, componentID).
		Update("qty_received", qtyReceived).Error
}
