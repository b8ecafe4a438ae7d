package deliveries

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gbmoto/magazzino-backend/pkg/db/models"
	apperrors "github.com/gbmoto/magazzino-backend/pkg/errors"
)

// supplierSource resolves suppliers referenced by incoming deliveries.
type supplierSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
}

// componentSource resolves components referenced by delivery lines.
type componentSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Component, error)
}

// Service registers supplier deliveries. Receiving them, which moves stock,
// belongs to the fulfillment engine.
type Service interface {
	Create(ctx context.Context, input CreateDeliveryInput) (*models.Delivery, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Delivery, error)
	List(ctx context.Context, received *bool) ([]models.Delivery, error)
}

// CreateLineInput is one ordered component position.
type CreateLineInput struct {
	ComponentID uuid.UUID
	QtyOrdered  int
}

// CreateDeliveryInput registers an expected shipment from a supplier.
type CreateDeliveryInput struct {
	SupplierID uuid.UUID
	OrderDate  time.Time
	Lines      []CreateLineInput
}

type service struct {
	repo       Repository
	suppliers  supplierSource
	components componentSource
}

func NewService(repo Repository, suppliers supplierSource, components componentSource) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("deliveries repository required")
	}
	if suppliers == nil {
		return nil, fmt.Errorf("supplier source required")
	}
	if components == nil {
		return nil, fmt.Errorf("component source required")
	}
	return &service{repo: repo, suppliers: suppliers, components: components}, nil
}

func (s *service) Create(ctx context.Context, input CreateDeliveryInput) (*models.Delivery, error) {
	if input.SupplierID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "supplier id is required")
	}
	if len(input.Lines) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "delivery needs at least one line")
	}

	supplier, err := s.suppliers.GetByID(ctx, input.SupplierID)
	if err != nil {
		return nil, err
	}
	if supplier == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("supplier %s not found", input.SupplierID))
	}

	seen := make(map[uuid.UUID]bool, len(input.Lines))
	lines := make([]models.DeliveryLine, 0, len(input.Lines))
	for _, line := range input.Lines {
		if line.ComponentID == uuid.Nil {
			return nil, apperrors.New(apperrors.CodeValidation, "line component id is required")
		}
		if line.QtyOrdered <= 0 {
			return nil, apperrors.New(apperrors.CodeValidation, "line quantity must be positive")
		}
		if seen[line.ComponentID] {
			return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("component %s appears on more than one line", line.ComponentID))
		}
		seen[line.ComponentID] = true

		component, err := s.components.GetByID(ctx, line.ComponentID)
		if err != nil {
			return nil, err
		}
		if component == nil {
			return nil, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("component %s not found", line.ComponentID))
		}
		lines = append(lines, models.DeliveryLine{ComponentID: line.ComponentID, QtyOrdered: line.QtyOrdered})
	}

	orderDate := input.OrderDate
	if orderDate.IsZero() {
		orderDate = time.Now().UTC()
	}

	delivery := &models.Delivery{
		SupplierID: input.SupplierID,
		OrderDate:  orderDate,
		Lines:      lines,
	}
	if err := s.repo.Create(ctx, delivery); err != nil {
		return nil, err
	}
	return delivery, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Delivery, error) {
	if id == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "delivery id is required")
	}
	delivery, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if delivery == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("delivery %s not found", id))
	}
	return delivery, nil
}

func (s *service) List(ctx context.Context, received *bool) ([]models.Delivery, error) {
	return s.repo.List(ctx, received)
}
