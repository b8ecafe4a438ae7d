package payloads

import (
	"time"

	"github.com/gbmoto/magazzino-backend/pkg/enums"
	"github.com/google/uuid"
)

// MovementAppliedEvent describes one committed ledger entry.
type MovementAppliedEvent struct {
	MovementID  uuid.UUID            `json:"movement_id"`
	ComponentID uuid.UUID            `json:"component_id"`
	Delta       int                  `json:"delta"`
	SourceType  enums.MovementSource `json:"source_type"`
	SourceID    uuid.UUID            `json:"source_id"`
}

// StockAdjustedEvent is emitted for manual corrections outside order/delivery flows.
type StockAdjustedEvent struct {
	ComponentID uuid.UUID `json:"component_id"`
	Delta       int       `json:"delta"`
	Reason      string    `json:"reason,omitempty"`
	NewQty      int       `json:"new_qty"`
}

// OrderPickStartedEvent signals an order moved into IN_PICK after its
// availability check passed.
type OrderPickStartedEvent struct {
	OrderID      uuid.UUID `json:"order_id"`
	ShopifyID    int64     `json:"shopify_id"`
	CustomerName string    `json:"customer_name"`
	LineCount    int       `json:"line_count"`
}

// OrderPickedEvent signals an order reached PREPARED.
type OrderPickedEvent struct {
	OrderID    uuid.UUID `json:"order_id"`
	ShopifyID  int64     `json:"shopify_id"`
	PreparedAt time.Time `json:"prepared_at"`
}

// DeliveryReceivedEvent carries the received line quantities for a supplier delivery.
type DeliveryReceivedEvent struct {
	DeliveryID   uuid.UUID `json:"delivery_id"`
	SupplierID   uuid.UUID `json:"supplier_id"`
	ReceivedDate time.Time `json:"received_date"`
	HasIssues    bool      `json:"has_issues"`
	LineCount    int       `json:"line_count"`
}
