package deliveries

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gbmoto/magazzino-backend/internal/catalog"
	"github.com/gbmoto/magazzino-backend/internal/suppliers"
	"github.com/gbmoto/magazzino-backend/pkg/db/models"
	"github.com/gbmoto/magazzino-backend/pkg/enums"
	apperrors "github.com/gbmoto/magazzino-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:deliveries_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Supplier{}, &models.Component{}, &models.Delivery{}, &models.DeliveryLine{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestDeliveries(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc, err := NewService(NewRepository(db), suppliers.NewRepository(db), catalog.NewRepository(db))
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	return svc, db
}

func seedSupplier(t *testing.T, db *gorm.DB) uuid.UUID {
	t.Helper()
	supplier := models.Supplier{ID: uuid.New(), Name: "MechaParts Srl", Email: "info@mechaparts.com", Phone: "123456789"}
	if err := db.Create(&supplier).Error; err != nil {
		t.Fatalf("seed supplier: %v", err)
	}
	return supplier.ID
}

func seedComponent(t *testing.T, db *gorm.DB, sku string) uuid.UUID {
	t.Helper()
	component := models.Component{ID: uuid.New(), SKU: sku, Name: sku, Kind: enums.ComponentKindRaw, Unit: "pcs"}
	if err := db.Create(&component).Error; err != nil {
		t.Fatalf("seed component: %v", err)
	}
	return component.ID
}

func TestCreateRegistersPendingDelivery(t *testing.T) {
	t.Parallel()
	svc, db := newTestDeliveries(t)
	supplierID := seedSupplier(t, db)
	oring := seedComponent(t, db, "O-RING")
	molla := seedComponent(t, db, "MOLLA")

	created, err := svc.Create(context.Background(), CreateDeliveryInput{
		SupplierID: supplierID,
		OrderDate:  time.Now().Add(-48 * time.Hour),
		Lines: []CreateLineInput{
			{ComponentID: oring, QtyOrdered: 100},
			{ComponentID: molla, QtyOrdered: 50},
		},
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.ReceivedDate != nil {
		t.Fatal("new delivery must not be received")
	}

	loaded, err := svc.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if len(loaded.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(loaded.Lines))
	}
	for _, line := range loaded.Lines {
		if line.QtyReceived != 0 {
			t.Fatalf("qty_received must start at zero, got %d", line.QtyReceived)
		}
	}
}

func TestCreateValidatesInput(t *testing.T) {
	t.Parallel()
	svc, db := newTestDeliveries(t)
	supplierID := seedSupplier(t, db)
	componentID := seedComponent(t, db, "O-RING")

	cases := []struct {
		name  string
		input CreateDeliveryInput
		code  apperrors.Code
	}{
		{name: "missing supplier", input: CreateDeliveryInput{Lines: []CreateLineInput{{ComponentID: componentID, QtyOrdered: 1}}}, code: apperrors.CodeValidation},
		{name: "unknown supplier", input: CreateDeliveryInput{SupplierID: uuid.New(), Lines: []CreateLineInput{{ComponentID: componentID, QtyOrdered: 1}}}, code: apperrors.CodeNotFound},
		{name: "no lines", input: CreateDeliveryInput{SupplierID: supplierID}, code: apperrors.CodeValidation},
		{name: "zero qty", input: CreateDeliveryInput{SupplierID: supplierID, Lines: []CreateLineInput{{ComponentID: componentID, QtyOrdered: 0}}}, code: apperrors.CodeValidation},
		{name: "unknown component", input: CreateDeliveryInput{SupplierID: supplierID, Lines: []CreateLineInput{{ComponentID: uuid.New(), QtyOrdered: 1}}}, code: apperrors.CodeNotFound},
		{name: "duplicate component", input: CreateDeliveryInput{SupplierID: supplierID, Lines: []CreateLineInput{
			{ComponentID: componentID, QtyOrdered: 1},
			{ComponentID: componentID, QtyOrdered: 2},
		}}, code: apperrors.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.input)
			appErr := apperrors.As(err)
			if appErr == nil || appErr.Code() != tc.code {
				t.Fatalf("expected %s error, got %v", tc.code, err)
			}
		})
	}
}

func TestListFiltersByReceivedState(t *testing.T) {
	t.Parallel()
	svc, db := newTestDeliveries(t)
	supplierID := seedSupplier(t, db)
	componentID := seedComponent(t, db, "O-RING")

	first, err := svc.Create(context.Background(), CreateDeliveryInput{
		SupplierID: supplierID,
		Lines:      []CreateLineInput{{ComponentID: componentID, QtyOrdered: 10}},
	})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	if _, err := svc.Create(context.Background(), CreateDeliveryInput{
		SupplierID: supplierID,
		Lines:      []CreateLineInput{{ComponentID: componentID, QtyOrdered: 20}},
	}); err != nil {
		t.Fatalf("create second: %v", err)
	}

	repo := NewRepository(db)
	marked, err := repo.MarkReceived(context.Background(), first.ID, time.Now().UTC(), false, nil)
	if err != nil || !marked {
		t.Fatalf("expected mark received to apply, got marked=%v err=%v", marked, err)
	}

	received := true
	got, err := svc.List(context.Background(), &received)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(got) != 1 || got[0].ID != first.ID {
		t.Fatalf("expected only the received delivery, got %d rows", len(got))
	}

	pending := false
	got, err = svc.List(context.Background(), &pending)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(got) != 1 || got[0].ID == first.ID {
		t.Fatalf("expected only the pending delivery, got %d rows", len(got))
	}
}

func TestMarkReceivedIsOneShot(t *testing.T) {
	t.Parallel()
	svc, db := newTestDeliveries(t)
	supplierID := seedSupplier(t, db)
	componentID := seedComponent(t, db, "O-RING")

	created, err := svc.Create(context.Background(), CreateDeliveryInput{
		SupplierID: supplierID,
		Lines:      []CreateLineInput{{ComponentID: componentID, QtyOrdered: 10}},
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	repo := NewRepository(db)
	marked, err := repo.MarkReceived(context.Background(), created.ID, time.Now().UTC(), true, nil)
	if err != nil || !marked {
		t.Fatalf("first mark: marked=%v err=%v", marked, err)
	}
	marked, err = repo.MarkReceived(context.Background(), created.ID, time.Now().UTC(), false, nil)
	if err != nil {
		t.Fatalf("second mark returned error: %v", err)
	}
	if marked {
		t.Fatal("a delivery must not be received twice")
	}
}
