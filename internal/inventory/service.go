package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gbmoto/magazzino-backend/pkg/db/models"
	"github.com/gbmoto/magazzino-backend/pkg/enums"
	apperrors "github.com/gbmoto/magazzino-backend/pkg/errors"
	"github.com/gbmoto/magazzino-backend/pkg/metrics"
	"github.com/gbmoto/magazzino-backend/pkg/outbox"
	"github.com/gbmoto/magazzino-backend/pkg/outbox/payloads"
	"github.com/gbmoto/magazzino-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// MovementInput is one requested ledger entry.
type MovementInput struct {
	ComponentID uuid.UUID
	Delta       int
	SourceType  enums.MovementSource
	SourceID    uuid.UUID
}

// AdjustInput is a manual stock correction.
type AdjustInput struct {
	ComponentID uuid.UUID
	Delta       int
	Reason      string
	Actor       *outbox.ActorRef
}

// MovementPage is one page of the ledger listing.
type MovementPage struct {
	Movements  []models.InventoryMovement
	NextCursor string
}

// ListMovementsInput narrows and pages a ledger listing.
type ListMovementsInput struct {
	ComponentID *uuid.UUID
	SourceID    *uuid.UUID
	Limit       int
	Cursor      string
}

// Service applies ledger movements and keeps stock snapshots consistent.
type Service interface {
	// Apply writes the batch all-or-nothing in its own transaction,
	// retrying on write conflicts up to the configured bound.
	Apply(ctx context.Context, inputs []MovementInput) ([]models.InventoryMovement, error)
	// ApplyInTx writes the batch inside the caller's transaction. A write
	// conflict surfaces as a retryable error; the caller owns the retry.
	ApplyInTx(ctx context.Context, tx *gorm.DB, inputs []MovementInput) ([]models.InventoryMovement, error)
	Adjust(ctx context.Context, input AdjustInput) (*models.InventoryMovement, error)
	GetStock(ctx context.Context, componentID uuid.UUID) (*models.Stock, error)
	ListStocks(ctx context.Context) ([]models.Stock, error)
	ListMovements(ctx context.Context, input ListMovementsInput) (*MovementPage, error)
	// VerifyConsistency recomputes the ledger sum for the component and
	// compares it to the snapshot. On mismatch it places an integrity hold
	// and returns a data-integrity failure; it never repairs the snapshot.
	VerifyConsistency(ctx context.Context, componentID uuid.UUID) error
	ReleaseHold(ctx context.Context, componentID uuid.UUID) error
	RetryBudget() int
}

type service struct {
	repo    Repository
	tx      txRunner
	events  outboxEmitter
	metrics *metrics.FulfillmentMetrics
	retries int
}

// NewService wires an inventory service. events and meters may be nil.
func NewService(repo Repository, tx txRunner, events outboxEmitter, meters *metrics.FulfillmentMetrics, writeConflictRetries int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if writeConflictRetries < 0 {
		writeConflictRetries = 0
	}
	return &service{
		repo:    repo,
		tx:      tx,
		events:  events,
		metrics: meters,
		retries: writeConflictRetries,
	}, nil
}

func (s *service) RetryBudget() int {
	return s.retries
}

func (s *service) Apply(ctx context.Context, inputs []MovementInput) ([]models.InventoryMovement, error) {
	var applied []models.InventoryMovement
	err := s.runWithRetry(ctx, func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			var err error
			applied, err = s.ApplyInTx(ctx, tx, inputs)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return applied, nil
}

func (s *service) ApplyInTx(ctx context.Context, tx *gorm.DB, inputs []MovementInput) ([]models.InventoryMovement, error) {
	if len(inputs) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "movement batch is empty")
	}
	for _, input := range inputs {
		if input.ComponentID == uuid.Nil {
			return nil, apperrors.New(apperrors.CodeValidation, "component id is required")
		}
		if input.Delta == 0 {
			return nil, apperrors.New(apperrors.CodeValidation, "movement delta cannot be zero")
		}
		if !input.SourceType.IsValid() {
			return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid movement source %q", input.SourceType))
		}
		if input.SourceID == uuid.Nil {
			return nil, apperrors.New(apperrors.CodeValidation, "movement source id is required")
		}
	}

	repo := s.repo.WithTx(tx)
	applied := make([]models.InventoryMovement, 0, len(inputs))

	for _, input := range inputs {
		stock, err := repo.GetStock(ctx, input.ComponentID)
		if err != nil {
			return nil, err
		}
		if stock == nil {
			return nil, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("no stock row for component %s", input.ComponentID))
		}
		if stock.IntegrityHold {
			return nil, apperrors.New(apperrors.CodeIntegrity,
				fmt.Sprintf("component %s is under an integrity hold, movements are blocked until reconciled", input.ComponentID))
		}

		// Only order-sourced movements are blocked from driving the
		// snapshot negative; deliveries and manual corrections represent
		// physical reality and always land.
		guard := input.SourceType == enums.MovementSourceOrder
		if guard && stock.QtyAvailable+input.Delta < 0 {
			if s.metrics != nil {
				s.metrics.IncShortfallRejections()
			}
			return nil, apperrors.InsufficientStock(input.ComponentID.String(), "", -(stock.QtyAvailable + input.Delta))
		}

		ok, err := repo.ApplyDelta(ctx, input.ComponentID, input.Delta, stock.Version, guard)
		if err != nil {
			return nil, err
		}
		if !ok {
			// The row moved underneath us. Re-read to tell a plain version
			// bump apart from a concurrent consumer that ate the buffer.
			fresh, err := repo.GetStock(ctx, input.ComponentID)
			if err != nil {
				return nil, err
			}
			if guard && fresh != nil && fresh.QtyAvailable+input.Delta < 0 {
				if s.metrics != nil {
					s.metrics.IncShortfallRejections()
				}
				return nil, apperrors.InsufficientStock(input.ComponentID.String(), "", -(fresh.QtyAvailable + input.Delta))
			}
			return nil, apperrors.New(apperrors.CodeWriteConflict,
				fmt.Sprintf("stock for component %s changed concurrently", input.ComponentID))
		}

		movement := models.InventoryMovement{
			ID:          uuid.New(),
			ComponentID: input.ComponentID,
			Delta:       input.Delta,
			SourceType:  input.SourceType,
			SourceID:    input.SourceID,
		}
		if err := repo.InsertMovement(ctx, &movement); err != nil {
			return nil, err
		}
		applied = append(applied, movement)

		if s.events != nil {
			err := s.events.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventMovementApplied,
				AggregateType: enums.AggregateMovement,
				AggregateID:   movement.ID,
				Data: payloads.MovementAppliedEvent{
					MovementID:  movement.ID,
					ComponentID: movement.ComponentID,
					Delta:       movement.Delta,
					SourceType:  movement.SourceType,
					SourceID:    movement.SourceID,
				},
			})
			if err != nil {
				return nil, err
			}
		}
	}

	if s.metrics != nil {
		for _, movement := range applied {
			s.metrics.IncMovements(string(movement.SourceType), 1)
		}
	}
	return applied, nil
}

func (s *service) Adjust(ctx context.Context, input AdjustInput) (*models.InventoryMovement, error) {
	if input.Delta == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "adjustment delta cannot be zero")
	}

	var movement models.InventoryMovement
	err := s.runWithRetry(ctx, func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			applied, err := s.ApplyInTx(ctx, tx, []MovementInput{{
				ComponentID: input.ComponentID,
				Delta:       input.Delta,
				SourceType:  enums.MovementSourceManual,
				// Manual corrections have no owning order or delivery;
				// the generated id names the adjustment event itself.
				SourceID: uuid.New(),
			}})
			if err != nil {
				return err
			}
			movement = applied[0]

			if s.events == nil {
				return nil
			}
			fresh, err := s.repo.WithTx(tx).GetStock(ctx, input.ComponentID)
			if err != nil {
				return err
			}
			newQty := 0
			if fresh != nil {
				newQty = fresh.QtyAvailable
			}
			return s.events.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventStockAdjusted,
				AggregateType: enums.AggregateComponent,
				AggregateID:   input.ComponentID,
				Actor:         input.Actor,
				Data: payloads.StockAdjustedEvent{
					ComponentID: input.ComponentID,
					Delta:       input.Delta,
					Reason:      input.Reason,
					NewQty:      newQty,
				},
			})
		})
	})
	if err != nil {
		return nil, err
	}
	return &movement, nil
}

func (s *service) GetStock(ctx context.Context, componentID uuid.UUID) (*models.Stock, error) {
	stock, err := s.repo.GetStock(ctx, componentID)
	if err != nil {
		return nil, err
	}
	if stock == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("no stock row for component %s", componentID))
	}
	return stock, nil
}

func (s *service) ListStocks(ctx context.Context) ([]models.Stock, error) {
	return s.repo.ListStocks(ctx)
}

func (s *service) ListMovements(ctx context.Context, input ListMovementsInput) (*MovementPage, error) {
	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, apperrors.New(apperrors.CodeValidation, "invalid pagination cursor")
	}

	limit := pagination.NormalizeLimit(input.Limit)
	movements, err := s.repo.ListMovements(ctx, MovementFilter{
		ComponentID: input.ComponentID,
		SourceID:    input.SourceID,
		Limit:       limit,
		Cursor:      cursor,
	})
	if err != nil {
		return nil, err
	}

	page := &MovementPage{Movements: movements}
	if len(movements) > limit {
		page.Movements = movements[:limit]
		last := page.Movements[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}

func (s *service) VerifyConsistency(ctx context.Context, componentID uuid.UUID) error {
	stock, err := s.GetStock(ctx, componentID)
	if err != nil {
		return err
	}

	sum, err := s.repo.SumDeltas(ctx, componentID)
	if err != nil {
		return err
	}
	if int64(stock.QtyAvailable) == sum {
		return nil
	}

	if err := s.repo.SetIntegrityHold(ctx, componentID, true); err != nil {
		return err
	}
	return apperrors.New(apperrors.CodeIntegrity,
		fmt.Sprintf("snapshot for component %s is %d but ledger sums to %d", componentID, stock.QtyAvailable, sum)).
		WithDetails(map[string]any{
			"component_id": componentID.String(),
			"snapshot":     stock.QtyAvailable,
			"ledger_sum":   sum,
		})
}

// ReleaseHold clears an integrity hold so an operator can land the
// offsetting manual correction.
func (s *service) ReleaseHold(ctx context.Context, componentID uuid.UUID) error {
	if _, err := s.GetStock(ctx, componentID); err != nil {
		return err
	}
	return s.repo.SetIntegrityHold(ctx, componentID, false)
}

func (s *service) runWithRetry(ctx context.Context, attempt func() error) error {
	var err error
	for tries := 0; tries <= s.retries; tries++ {
		if err = attempt(); err == nil {
			return nil
		}
		appErr := apperrors.As(err)
		if appErr == nil || appErr.Code() != apperrors.CodeWriteConflict {
			return err
		}
		if tries < s.retries {
			if s.metrics != nil {
				s.metrics.IncConflictRetries()
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
	return err
}
