package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/gbmoto/magazzino-backend/pkg/db"
	"github.com/gbmoto/magazzino-backend/pkg/db/models"
	"github.com/gbmoto/magazzino-backend/pkg/enums"
	apperrors "github.com/gbmoto/magazzino-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ImportLineInput is one storefront order line.
type ImportLineInput struct {
	ComponentID uuid.UUID
	Qty         int
}

// ImportOrderInput mirrors what the storefront feed supplies.
type ImportOrderInput struct {
	ShopifyID     int64
	CustomerName  string
	CreatedAtShop time.Time
	Lines         []ImportLineInput
}

// Service imports and reads orders. Status transitions live in the
// fulfillment engine, which owns the pick lifecycle.
type Service interface {
	Import(ctx context.Context, input ImportOrderInput) (*models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, status *enums.OrderStatus) ([]models.Order, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService wires an orders service with the provided repository.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Import(ctx context.Context, input ImportOrderInput) (*models.Order, error) {
	if input.ShopifyID <= 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "storefront order id is required")
	}
	if strings.TrimSpace(input.CustomerName) == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "customer name is required")
	}
	if len(input.Lines) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "order must have at least one line")
	}
	seen := map[uuid.UUID]bool{}
	for _, line := range input.Lines {
		if line.ComponentID == uuid.Nil {
			return nil, apperrors.New(apperrors.CodeValidation, "line component id is required")
		}
		if line.Qty <= 0 {
			return nil, apperrors.New(apperrors.CodeValidation, "line quantity must be positive")
		}
		if seen[line.ComponentID] {
			return nil, apperrors.New(apperrors.CodeValidation, "duplicate component in order lines")
		}
		seen[line.ComponentID] = true
	}

	createdAtShop := input.CreatedAtShop
	if createdAtShop.IsZero() {
		createdAtShop = time.Now()
	}

	order := &models.Order{
		ShopifyID:     input.ShopifyID,
		CustomerName:  strings.TrimSpace(input.CustomerName),
		CreatedAtShop: createdAtShop,
		Status:        enums.OrderStatusPending,
	}
	for _, line := range input.Lines {
		order.Lines = append(order.Lines, models.OrderLine{
			ComponentID: line.ComponentID,
			Qty:         line.Qty,
		})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, order)
	})
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_orders_shopify_id") {
			return nil, apperrors.New(apperrors.CodeConflict,
				fmt.Sprintf("order %d was already imported", input.ShopifyID))
		}
		return nil, err
	}
	return order, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("order %s not found", id))
	}
	return order, nil
}

func (s *service) List(ctx context.Context, status *enums.OrderStatus) ([]models.Order, error) {
	if status != nil && !status.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid order status %q", *status))
	}
	return s.repo.List(ctx, status)
}
