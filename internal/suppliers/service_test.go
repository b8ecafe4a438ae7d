package suppliers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gbmoto/magazzino-backend/pkg/db/models"
	apperrors "github.com/gbmoto/magazzino-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:suppliers_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Supplier{}, &models.Delivery{}, &models.DeliveryLine{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestSuppliers(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	return svc, db
}

func TestCreateAndGet(t *testing.T) {
	t.Parallel()
	svc, _ := newTestSuppliers(t)

	created, err := svc.Create(context.Background(), SupplierInput{
		Name:  "MechaParts Srl",
		Email: "info@mechaparts.com",
		Phone: "123456789",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatal("expected id to be assigned")
	}

	loaded, err := svc.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if loaded.Name != "MechaParts Srl" || loaded.Email != "info@mechaparts.com" {
		t.Fatalf("unexpected supplier: %+v", loaded)
	}
}

func TestCreateValidatesInput(t *testing.T) {
	t.Parallel()
	svc, _ := newTestSuppliers(t)

	cases := []SupplierInput{
		{Email: "info@mechaparts.com"},
		{Name: "MechaParts Srl"},
		{Name: "   ", Email: "info@mechaparts.com"},
	}
	for _, input := range cases {
		if _, err := svc.Create(context.Background(), input); apperrors.As(err) == nil {
			t.Fatalf("expected validation error for %+v, got %v", input, err)
		}
	}
}

func TestUpdateOverwritesContactFields(t *testing.T) {
	t.Parallel()
	svc, _ := newTestSuppliers(t)

	created, err := svc.Create(context.Background(), SupplierInput{Name: "MechaParts Srl", Email: "info@mechaparts.com", Phone: "123456789"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	updated, err := svc.Update(context.Background(), created.ID, SupplierInput{Name: "MechaParts Srl", Email: "orders@mechaparts.com", Phone: "987654321"})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Email != "orders@mechaparts.com" || updated.Phone != "987654321" {
		t.Fatalf("unexpected supplier after update: %+v", updated)
	}
}

func TestDeleteBlockedByDeliveries(t *testing.T) {
	t.Parallel()
	svc, db := newTestSuppliers(t)

	created, err := svc.Create(context.Background(), SupplierInput{Name: "MechaParts Srl", Email: "info@mechaparts.com"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	delivery := models.Delivery{ID: uuid.New(), SupplierID: created.ID, OrderDate: time.Now()}
	if err := db.Create(&delivery).Error; err != nil {
		t.Fatalf("seed delivery: %v", err)
	}

	err = svc.Delete(context.Background(), created.ID)
	appErr := apperrors.As(err)
	if appErr == nil || appErr.Code() != apperrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}

	if err := db.Delete(&delivery).Error; err != nil {
		t.Fatalf("remove delivery: %v", err)
	}
	if err := svc.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := svc.Get(context.Background(), created.ID); apperrors.As(err) == nil || apperrors.As(err).Code() != apperrors.CodeNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
