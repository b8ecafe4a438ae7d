package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/gbmoto/magazzino-backend/pkg/config"
	"github.com/gbmoto/magazzino-backend/pkg/db"
	"github.com/gbmoto/magazzino-backend/pkg/db/models"
	"github.com/gbmoto/magazzino-backend/pkg/enums"
	"github.com/gbmoto/magazzino-backend/pkg/logger"
	"github.com/gbmoto/magazzino-backend/pkg/migrate"
	"github.com/gbmoto/magazzino-backend/pkg/security"
)

const openingQty = 100

func main() {
	logg := logger.New(logger.Options{ServiceName: "seed"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if !cfg.App.IsDev() {
		logg.Error(context.Background(), "seed refuses to run outside dev", errors.New("MAGAZZINO_APP_ENV is not dev"))
		os.Exit(1)
	}

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	ctx := logg.WithFields(context.Background(), map[string]any{"env": cfg.App.Env})

	var existing int64
	if err := dbClient.DB().Model(&models.Component{}).Count(&existing).Error; err != nil {
		logg.Error(ctx, "failed to inspect components table", err)
		os.Exit(1)
	}
	if existing > 0 {
		logg.Info(ctx, "components already present, nothing to seed")
		return
	}

	if err := dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		return seed(tx, cfg)
	}); err != nil {
		logg.Error(ctx, "seed failed", err)
		os.Exit(1)
	}

	logg.Info(ctx, "seed completed")
}

func seed(tx *gorm.DB, cfg *config.Config) error {
	raw := func(sku, name string) *models.Component {
		return &models.Component{ID: uuid.New(), SKU: sku, Name: name, Kind: enums.ComponentKindRaw, Unit: "pcs"}
	}
	assembly := func(sku, name string) *models.Component {
		code := sku
		return &models.Component{ID: uuid.New(), SKU: sku, Name: name, Code: &code, Kind: enums.ComponentKindAssembly, Unit: "pcs"}
	}

	oRing := raw("O-RING", "O-RING")
	molla := raw("MOLLA", "MOLLA")
	magnete := raw("MAGNETE", "MAGNETE")
	ampollaRead := raw("AMPOLLA_READ", "AMPOLLA READ")
	involucroPedalina := raw("INVOLUCRO_PEDALINA", "INVOLUCRO PEDALINA")
	pedalina := assembly("PED-STD", "PEDALINA")
	boardStd := assembly("BOARD-STD", "BOARD")
	caseBoard := assembly("CASE-BOARD", "CASE")
	conn3PinYam := assembly("CONN-3PIN-YAM", "Connector 3PIN YAM")
	conn4PinDuc := assembly("CONN-4PIN-DUC", "Connector 4PIN DUC")
	conn2PinKtm := assembly("CONN-2PIN-KTM", "Connector 2PIN KTM")

	components := []*models.Component{
		oRing, molla, magnete, ampollaRead, involucroPedalina,
		pedalina, boardStd, caseBoard, conn3PinYam, conn4PinDuc, conn2PinKtm,
	}
	for _, component := range components {
		if err := tx.Create(component).Error; err != nil {
			return fmt.Errorf("create component %s: %w", component.SKU, err)
		}
	}

	for _, part := range []*models.Component{oRing, molla, magnete, ampollaRead, involucroPedalina} {
		edge := models.ComponentPart{AssemblyID: pedalina.ID, PartID: part.ID, Qty: 1}
		if err := tx.Create(&edge).Error; err != nil {
			return fmt.Errorf("create bom edge %s: %w", part.SKU, err)
		}
	}

	supplier := models.Supplier{
		ID:    uuid.New(),
		Name:  "MechaParts Srl",
		Email: "info@mechaparts.com",
		Phone: "123456789",
	}
	if err := tx.Create(&supplier).Error; err != nil {
		return fmt.Errorf("create supplier: %w", err)
	}

	now := time.Now().UTC()
	received := now
	notes := "Initial stock delivery"
	delivery := models.Delivery{
		ID:           uuid.New(),
		SupplierID:   supplier.ID,
		OrderDate:    now.AddDate(0, 0, -30),
		ReceivedDate: &received,
		HasIssues:    false,
		Notes:        &notes,
		Lines: []models.DeliveryLine{
			{ComponentID: oRing.ID, QtyOrdered: 50, QtyReceived: 50},
			{ComponentID: molla.ID, QtyOrdered: 50, QtyReceived: 50},
		},
	}
	if err := tx.Create(&delivery).Error; err != nil {
		return fmt.Errorf("create delivery: %w", err)
	}

	// Opening stock arrives as a MANUAL movement per component so the cached
	// quantity stays equal to the ledger sum from day one.
	for _, component := range components {
		movement := models.InventoryMovement{
			ID:          uuid.New(),
			ComponentID: component.ID,
			Delta:       openingQty,
			SourceType:  enums.MovementSourceManual,
			SourceID:    uuid.New(),
		}
		if err := tx.Create(&movement).Error; err != nil {
			return fmt.Errorf("create opening movement %s: %w", component.SKU, err)
		}
		stock := models.Stock{ComponentID: component.ID, QtyAvailable: openingQty, Version: 1}
		if err := tx.Create(&stock).Error; err != nil {
			return fmt.Errorf("create stock %s: %w", component.SKU, err)
		}
	}

	order := models.Order{
		ID:            uuid.New(),
		ShopifyID:     1234567890,
		CreatedAtShop: now,
		Status:        enums.OrderStatusPending,
		CustomerName:  "Mario Rossi",
	}
	if err := tx.Create(&order).Error; err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	for _, line := range []models.OrderLine{
		{OrderID: order.ID, ComponentID: pedalina.ID, Qty: 1},
		{OrderID: order.ID, ComponentID: conn3PinYam.ID, Qty: 1},
		{OrderID: order.ID, ComponentID: boardStd.ID, Qty: 1},
	} {
		if err := tx.Create(&line).Error; err != nil {
			return fmt.Errorf("create order line: %w", err)
		}
	}

	hash, err := security.HashPassword("admin12345", cfg.Password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin := models.User{
		ID:           uuid.New(),
		Username:     "admin",
		PasswordHash: hash,
		Role:         enums.UserRoleAdmin,
	}
	if err := tx.Create(&admin).Error; err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	return nil
}
