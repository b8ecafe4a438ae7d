package suppliers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gbmoto/magazzino-backend/pkg/db/models"
)

func setupRepoDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:suppliers_repo_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Supplier{}, &models.Delivery{}, &models.DeliveryLine{}))
	return db
}

func TestRepositoryListOrdersByName(t *testing.T) {
	t.Parallel()
	repo := NewRepository(setupRepoDB(t))
	ctx := context.Background()

	for _, name := range []string{"Zeta Ricambi", "Alfa Forniture", "MechaParts Srl"} {
		require.NoError(t, repo.Create(ctx, &models.Supplier{
			Name:  name,
			Email: "sales@example.com",
			Phone: "000",
		}))
	}

	listed, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, "Alfa Forniture", listed[0].Name)
	assert.Equal(t, "MechaParts Srl", listed[1].Name)
	assert.Equal(t, "Zeta Ricambi", listed[2].Name)
}

func TestRepositoryGetByIDReturnsNilWhenMissing(t *testing.T) {
	t.Parallel()
	repo := NewRepository(setupRepoDB(t))

	supplier, err := repo.GetByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, supplier)
}

func TestRepositoryCountDeliveries(t *testing.T) {
	t.Parallel()
	db := setupRepoDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	supplier := models.Supplier{Name: "MechaParts Srl", Email: "info@mechaparts.com", Phone: "123456789"}
	require.NoError(t, repo.Create(ctx, &supplier))

	count, err := repo.CountDeliveries(ctx, supplier.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, db.Create(&models.Delivery{
		ID:         uuid.New(),
		SupplierID: supplier.ID,
		OrderDate:  time.Now().UTC(),
	}).Error)

	count, err = repo.CountDeliveries(ctx, supplier.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
