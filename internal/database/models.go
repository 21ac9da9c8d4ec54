package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Order is the orders row. ID is the system-internal identifier all child
// rows reference; OrderID is the externally-visible public identifier.
type Order struct {
	ID                   uuid.UUID
	OrderID              string
	ExternalOrderID      string
	RestaurantID         string
	IdempotencyKey       string
	CustomerName         string
	CustomerPhone        string
	CustomerEmail        pgtype.Text
	CustomerAddress      []byte // jsonb, nil when absent
	OrderType            string
	OrderTime            time.Time
	RequestedTime        pgtype.Timestamptz
	Subtotal             pgtype.Numeric
	Tax                  pgtype.Numeric
	Tip                  pgtype.Numeric
	Discount             pgtype.Numeric
	DeliveryFee          pgtype.Numeric
	Total                pgtype.Numeric
	PaymentMethod        pgtype.Text
	PaymentStatus        string
	PaymentTransactionID pgtype.Text
	PaymentAmount        pgtype.Numeric
	Notes                string
	Status               string
	Source               pgtype.Text
	RawMetadata          []byte // jsonb mapping trace + raw envelope info
	EstimatedTime        pgtype.Timestamptz
	CancellationReason   pgtype.Text
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// OrderItem is the order_items row.
type OrderItem struct {
	ID                  uuid.UUID
	OrderID             uuid.UUID
	ItemID              string
	SKU                 pgtype.Text
	MenuID              pgtype.Text
	Name                string
	OriginalName        pgtype.Text
	Quantity            int32
	UnitPrice           pgtype.Numeric
	TotalPrice          pgtype.Numeric
	Category            pgtype.Text
	SpecialInstructions pgtype.Text
	Position            int32
	CreatedAt           time.Time
}

// OrderItemModifier is the order_item_modifiers row.
type OrderItemModifier struct {
	ID          uuid.UUID
	OrderItemID uuid.UUID
	ModifierID  pgtype.Text
	Name        string
	Price       pgtype.Numeric
	Quantity    int32
	Position    int32
	CreatedAt   time.Time
}

// CatalogItem is the pos_skus row, the price-authoritative reference.
type CatalogItem struct {
	SKU       string
	MenuID    pgtype.Text
	Name      pgtype.Text
	Price     pgtype.Numeric
	Taxable   bool
	Active    bool
	UpdatedAt time.Time
	CreatedAt time.Time
}

// SavedPayload is the saved_payloads row, a key-addressable raw payload
// blob kept for webhook debugging.
type SavedPayload struct {
	ID          uuid.UUID
	PayloadKey  string
	Description pgtype.Text
	Source      pgtype.Text
	Payload     []byte
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
