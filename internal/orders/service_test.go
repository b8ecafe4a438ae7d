package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gbmoto/magazzino-backend/pkg/db/models"
	"github.com/gbmoto/magazzino-backend/pkg/enums"
	apperrors "github.com/gbmoto/magazzino-backend/pkg/errors"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Component{}, &models.Order{}, &models.OrderLine{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestOrders(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc, err := NewService(NewRepository(db), testTxRunner{db: db})
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	return svc, db
}

func seedComponent(t *testing.T, db *gorm.DB, sku string) uuid.UUID {
	t.Helper()
	component := models.Component{ID: uuid.New(), SKU: sku, Name: sku, Kind: enums.ComponentKindAssembly, Unit: "pcs"}
	if err := db.Create(&component).Error; err != nil {
		t.Fatalf("seed component: %v", err)
	}
	return component.ID
}

func TestImportCreatesPendingOrderWithLines(t *testing.T) {
	t.Parallel()
	svc, db := newTestOrders(t)
	pedalina := seedComponent(t, db, "PED-STD")
	board := seedComponent(t, db, "BOARD-STD")

	order, err := svc.Import(context.Background(), ImportOrderInput{
		ShopifyID:     1234567890,
		CustomerName:  "Mario Rossi",
		CreatedAtShop: time.Now().Add(-time.Hour),
		Lines: []ImportLineInput{
			{ComponentID: pedalina, Qty: 1},
			{ComponentID: board, Qty: 2},
		},
	})
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected PENDING, got %s", order.Status)
	}

	loaded, err := svc.Get(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if len(loaded.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(loaded.Lines))
	}
}

func TestImportRejectsDuplicateShopifyID(t *testing.T) {
	t.Parallel()
	svc, db := newTestOrders(t)
	componentID := seedComponent(t, db, "PED-STD")

	input := ImportOrderInput{
		ShopifyID:    42,
		CustomerName: "Mario Rossi",
		Lines:        []ImportLineInput{{ComponentID: componentID, Qty: 1}},
	}
	if _, err := svc.Import(context.Background(), input); err != nil {
		t.Fatalf("first import: %v", err)
	}

	_, err := svc.Import(context.Background(), input)
	appErr := apperrors.As(err)
	if appErr == nil || appErr.Code() != apperrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestImportValidatesInput(t *testing.T) {
	t.Parallel()
	svc, db := newTestOrders(t)
	componentID := seedComponent(t, db, "PED-STD")

	cases := []struct {
		name  string
		input ImportOrderInput
	}{
		{name: "missing shopify id", input: ImportOrderInput{CustomerName: "x", Lines: []ImportLineInput{{ComponentID: componentID, Qty: 1}}}},
		{name: "missing customer", input: ImportOrderInput{ShopifyID: 1, Lines: []ImportLineInput{{ComponentID: componentID, Qty: 1}}}},
		{name: "no lines", input: ImportOrderInput{ShopifyID: 1, CustomerName: "x"}},
		{name: "zero qty", input: ImportOrderInput{ShopifyID: 1, CustomerName: "x", Lines: []ImportLineInput{{ComponentID: componentID, Qty: 0}}}},
		{name: "duplicate component", input: ImportOrderInput{ShopifyID: 1, CustomerName: "x", Lines: []ImportLineInput{
			{ComponentID: componentID, Qty: 1},
			{ComponentID: componentID, Qty: 2},
		}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Import(context.Background(), tc.input)
			appErr := apperrors.As(err)
			if appErr == nil || appErr.Code() != apperrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestListFiltersByStatus(t *testing.T) {
	t.Parallel()
	svc, db := newTestOrders(t)
	componentID := seedComponent(t, db, "PED-STD")

	for i := int64(1); i <= 3; i++ {
		if _, err := svc.Import(context.Background(), ImportOrderInput{
			ShopifyID:    i,
			CustomerName: "Mario Rossi",
			Lines:        []ImportLineInput{{ComponentID: componentID, Qty: 1}},
		}); err != nil {
			t.Fatalf("import %d: %v", i, err)
		}
	}

	pending := enums.OrderStatusPending
	orders, err := svc.List(context.Background(), &pending)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(orders) != 3 {
		t.Fatalf("expected 3 pending orders, got %d", len(orders))
	}

	prepared := enums.OrderStatusPrepared
	orders, err = svc.List(context.Background(), &prepared)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(orders) != 0 {
		t.Fatalf("expected no prepared orders, got %d", len(orders))
	}
}

func TestUpdateStatusGuardsPriorState(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	repo := NewRepository(db)
	componentID := seedComponent(t, db, "PED-STD")

	order := &models.Order{
		ShopifyID:     7,
		CustomerName:  "Mario Rossi",
		CreatedAtShop: time.Now(),
		Status:        enums.OrderStatusPending,
		Lines:         []models.OrderLine{{ComponentID: componentID, Qty: 1}},
	}
	if err := repo.Create(context.Background(), order); err != nil {
		t.Fatalf("create order: %v", err)
	}

	moved, err := repo.UpdateStatus(context.Background(), order.ID, enums.OrderStatusPending, enums.OrderStatusInPick, nil)
	if err != nil || !moved {
		t.Fatalf("expected transition to apply, got moved=%v err=%v", moved, err)
	}

	// stale expectation must not match
	moved, err = repo.UpdateStatus(context.Background(), order.ID, enums.OrderStatusPending, enums.OrderStatusInPick, nil)
	if err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}
	if moved {
		t.Fatal("transition from a stale status must not apply")
	}
}
