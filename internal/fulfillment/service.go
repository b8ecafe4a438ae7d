// Package fulfillment drives the pick lifecycle of orders and the receiving
// of supplier deliveries. It is the only writer of order status transitions
// and the only producer of ORDER and DELIVERY ledger movements.
package fulfillment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gbmoto/magazzino-backend/internal/bom"
	"github.com/gbmoto/magazzino-backend/internal/deliveries"
	"github.com/gbmoto/magazzino-backend/internal/inventory"
	"github.com/gbmoto/magazzino-backend/internal/orders"
	"github.com/gbmoto/magazzino-backend/pkg/db/models"
	"github.com/gbmoto/magazzino-backend/pkg/enums"
	apperrors "github.com/gbmoto/magazzino-backend/pkg/errors"
	"github.com/gbmoto/magazzino-backend/pkg/metrics"
	"github.com/gbmoto/magazzino-backend/pkg/outbox"
	"github.com/gbmoto/magazzino-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ReceiveLineInput reports the counted quantity for one delivery line.
type ReceiveLineInput struct {
	ComponentID uuid.UUID
	QtyReceived int
}

// ReceiveInput closes a delivery. Lines left out of the report count as
// received with quantity zero.
type ReceiveInput struct {
	DeliveryID   uuid.UUID
	ReceivedDate time.Time
	Lines        []ReceiveLineInput
	HasIssues    bool
	Notes        *string
	Actor        *outbox.ActorRef
}

// Service owns order picking and delivery receiving.
type Service interface {
	// BeginPick moves a PENDING order to IN_PICK after an all-or-nothing
	// availability check over the order's resolved requirements. On a
	// shortfall the order stays PENDING.
	BeginPick(ctx context.Context, orderID uuid.UUID, actor *outbox.ActorRef) (*models.Order, error)
	// CompletePick consumes stock for an IN_PICK order and moves it to
	// PREPARED. The ledger movements, the status flip and the emitted
	// events commit in one transaction.
	CompletePick(ctx context.Context, orderID uuid.UUID, actor *outbox.ActorRef) (*models.Order, error)
	// Receive stamps a delivery as received and books one DELIVERY movement
	// per counted line. Quantity discrepancies are recorded, never rejected.
	Receive(ctx context.Context, input ReceiveInput) (*models.Delivery, error)
}

type service struct {
	orders     orders.Repository
	deliveries deliveries.Repository
	stock      inventory.Service
	resolver   *bom.Resolver
	tx         txRunner
	events     outboxEmitter
	metrics    *metrics.FulfillmentMetrics
}

// NewService wires the fulfillment engine. events and meters may be nil.
func NewService(
	ordersRepo orders.Repository,
	deliveriesRepo deliveries.Repository,
	stock inventory.Service,
	resolver *bom.Resolver,
	tx txRunner,
	events outboxEmitter,
	meters *metrics.FulfillmentMetrics,
) (Service, error) {
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if deliveriesRepo == nil {
		return nil, fmt.Errorf("deliveries repository required")
	}
	if stock == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("bom resolver required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{
		orders:     ordersRepo,
		deliveries: deliveriesRepo,
		stock:      stock,
		resolver:   resolver,
		tx:         tx,
		events:     events,
		metrics:    meters,
	}, nil
}

func (s *service) BeginPick(ctx context.Context, orderID uuid.UUID, actor *outbox.ActorRef) (*models.Order, error) {
	order, err := s.mustGetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusPending {
		return nil, apperrors.New(apperrors.CodeStateConflict,
			fmt.Sprintf("order %d is %s; only a PENDING order can enter picking", order.ShopifyID, order.Status))
	}
	if len(order.Lines) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "order has no lines to pick")
	}

	requirements, err := s.resolveOrder(ctx, order)
	if err != nil {
		return nil, err
	}
	if err := s.checkAvailability(ctx, requirements); err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		moved, err := s.orders.WithTx(tx).UpdateStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusInPick, nil)
		if err != nil {
			return err
		}
		if !moved {
			return apperrors.New(apperrors.CodeStateConflict,
				fmt.Sprintf("order %d changed state concurrently", order.ShopifyID))
		}
		if s.events == nil {
			return nil
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPickStarted,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor,
			Data: payloads.OrderPickStartedEvent{
				OrderID:      order.ID,
				ShopifyID:    order.ShopifyID,
				CustomerName: order.CustomerName,
				LineCount:    len(order.Lines),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncPicksStarted()
	}
	order.Status = enums.OrderStatusInPick
	return order, nil
}

func (s *service) CompletePick(ctx context.Context, orderID uuid.UUID, actor *outbox.ActorRef) (*models.Order, error) {
	order, err := s.mustGetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusInPick {
		return nil, apperrors.New(apperrors.CodeStateConflict,
			fmt.Sprintf("order %d is %s; only an IN_PICK order can be completed", order.ShopifyID, order.Status))
	}
	// The order last changed when it entered IN_PICK, so UpdatedAt marks
	// the start of the pick.
	pickStartedAt := order.UpdatedAt

	requirements, err := s.resolveOrder(ctx, order)
	if err != nil {
		return nil, err
	}
	movements := make([]inventory.MovementInput, 0, len(requirements))
	for _, requirement := range requirements {
		movements = append(movements, inventory.MovementInput{
			ComponentID: requirement.Component.ID,
			Delta:       -requirement.Qty,
			SourceType:  enums.MovementSourceOrder,
			SourceID:    order.ID,
		})
	}

	preparedAt := time.Now().UTC()
	err = s.runWithRetry(ctx, func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if _, err := s.stock.ApplyInTx(ctx, tx, movements); err != nil {
				return err
			}

			moved, err := s.orders.WithTx(tx).UpdateStatus(ctx, order.ID, enums.OrderStatusInPick, enums.OrderStatusPrepared,
				map[string]any{"prepared_at": preparedAt})
			if err != nil {
				return err
			}
			if !moved {
				return apperrors.New(apperrors.CodeStateConflict,
					fmt.Sprintf("order %d changed state concurrently", order.ShopifyID))
			}

			if s.events == nil {
				return nil
			}
			return s.events.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderPicked,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Actor:         actor,
				Data: payloads.OrderPickedEvent{
					OrderID:    order.ID,
					ShopifyID:  order.ShopifyID,
					PreparedAt: preparedAt,
				},
			})
		})
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncPicksCompleted()
		s.metrics.ObservePickDuration(preparedAt.Sub(pickStartedAt))
	}
	order.Status = enums.OrderStatusPrepared
	order.PreparedAt = &preparedAt
	return order, nil
}

func (s *service) Receive(ctx context.Context, input ReceiveInput) (*models.Delivery, error) {
	if input.DeliveryID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "delivery id is required")
	}
	delivery, err := s.deliveries.GetByID(ctx, input.DeliveryID)
	if err != nil {
		return nil, err
	}
	if delivery == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("delivery %s not found", input.DeliveryID))
	}
	if delivery.ReceivedDate != nil {
		return nil, apperrors.New(apperrors.CodeStateConflict, fmt.Sprintf("delivery %s was already received", input.DeliveryID))
	}

	ordered := make(map[uuid.UUID]bool, len(delivery.Lines))
	for _, line := range delivery.Lines {
		ordered[line.ComponentID] = true
	}
	counted := make(map[uuid.UUID]int, len(input.Lines))
	for _, line := range input.Lines {
		if !ordered[line.ComponentID] {
			return nil, apperrors.New(apperrors.CodeValidation,
				fmt.Sprintf("component %s is not on delivery %s", line.ComponentID, delivery.ID))
		}
		if line.QtyReceived < 0 {
			return nil, apperrors.New(apperrors.CodeValidation, "received quantity cannot be negative")
		}
		if _, dup := counted[line.ComponentID]; dup {
			return nil, apperrors.New(apperrors.CodeValidation,
				fmt.Sprintf("component %s is counted twice", line.ComponentID))
		}
		counted[line.ComponentID] = line.QtyReceived
	}

	receivedDate := input.ReceivedDate
	if receivedDate.IsZero() {
		receivedDate = time.Now().UTC()
	}

	// Movements follow the delivery's line order. Lines counted at zero
	// leave no ledger entry.
	movements := make([]inventory.MovementInput, 0, len(delivery.Lines))
	for _, line := range delivery.Lines {
		qty := counted[line.ComponentID]
		if qty == 0 {
			continue
		}
		movements = append(movements, inventory.MovementInput{
			ComponentID: line.ComponentID,
			Delta:       qty,
			SourceType:  enums.MovementSourceDelivery,
			SourceID:    delivery.ID,
		})
	}

	err = s.runWithRetry(ctx, func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.deliveries.WithTx(tx)

			marked, err := repo.MarkReceived(ctx, delivery.ID, receivedDate, input.HasIssues, input.Notes)
			if err != nil {
				return err
			}
			if !marked {
				return apperrors.New(apperrors.CodeStateConflict,
					fmt.Sprintf("delivery %s was already received", delivery.ID))
			}
			for _, line := range delivery.Lines {
				if err := repo.UpdateLineReceived(ctx, delivery.ID, line.ComponentID, counted[line.ComponentID]); err != nil {
					return err
				}
			}

			if len(movements) > 0 {
				if _, err := s.stock.ApplyInTx(ctx, tx, movements); err != nil {
					return err
				}
			}

			if s.events == nil {
				return nil
			}
			return s.events.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventDeliveryReceived,
				AggregateType: enums.AggregateDelivery,
				AggregateID:   delivery.ID,
				Actor:         input.Actor,
				Data: payloads.DeliveryReceivedEvent{
					DeliveryID:   delivery.ID,
					SupplierID:   delivery.SupplierID,
					ReceivedDate: receivedDate,
					HasIssues:    input.HasIssues,
					LineCount:    len(delivery.Lines),
				},
			})
		})
	})
	if err != nil {
		return nil, err
	}

	return s.deliveries.GetByID(ctx, delivery.ID)
}

func (s *service) mustGetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "order id is required")
	}
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("order %s not found", orderID))
	}
	return order, nil
}

// resolveOrder expands every order line through the BOM into raw requirements,
// merged across lines in first-encounter order.
func (s *service) resolveOrder(ctx context.Context, order *models.Order) ([]bom.RequirementLine, error) {
	requirements := make(map[uuid.UUID]int, len(order.Lines))
	lineOrder := make([]uuid.UUID, 0, len(order.Lines))
	for _, line := range order.Lines {
		if _, seen := requirements[line.ComponentID]; !seen {
			lineOrder = append(lineOrder, line.ComponentID)
		}
		requirements[line.ComponentID] += line.Qty
	}
	return s.resolver.ResolveMany(ctx, requirements, lineOrder)
}

// checkAvailability verifies every requirement can be covered right now. The
// first shortfall fails the whole pick; stock is not reserved, so the check
// is repeated with a hard guard when the pick completes.
func (s *service) checkAvailability(ctx context.Context, requirements []bom.RequirementLine) error {
	for _, requirement := range requirements {
		stock, err := s.stock.GetStock(ctx, requirement.Component.ID)
		if err != nil {
			return err
		}
		if stock.QtyAvailable < requirement.Qty {
			if s.metrics != nil {
				s.metrics.IncShortfallRejections()
			}
			return apperrors.InsufficientStock(
				requirement.Component.ID.String(),
				requirement.Component.SKU,
				requirement.Qty-stock.QtyAvailable,
			)
		}
	}
	return nil
}

// runWithRetry re-runs attempt on write conflicts, up to the inventory
// service's configured budget. Every other failure surfaces immediately.
func (s *service) runWithRetry(ctx context.Context, attempt func() error) error {
	budget := s.stock.RetryBudget()
	var err error
	for try := 0; try <= budget; try++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		err = attempt()
		if err == nil {
			return nil
		}
		appErr := apperrors.As(err)
		if appErr == nil || appErr.Code() != apperrors.CodeWriteConflict {
			return err
		}
		if s.metrics != nil && try < budget {
			s.metrics.IncConflictRetries()
		}
	}
	return err
}
