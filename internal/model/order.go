// Package model holds the canonical order representation the gateway
// normalizes every upstream payload into, independent of source shape.
package model

import "time"

// Address is an optional structured delivery address on the customer snapshot.
type Address struct {
	Line1 string `json:"line1,omitempty"`
	Line2 string `json:"line2,omitempty"`
	City  string `json:"city,omitempty"`
	State string `json:"state,omitempty"`
	Zip   string `json:"zip,omitempty"`
}

// Customer is the point-in-time customer snapshot stored with the order.
type Customer struct {
	Name    string   `json:"name" validate:"required"`
	Phone   string   `json:"phone"`
	Email   string   `json:"email,omitempty"`
	Address *Address `json:"address,omitempty"`
}

// Modifier is a priced option attached to an order item.
type Modifier struct {
	ModifierID string  `json:"modifierId,omitempty"`
	Name       string  `json:"name" validate:"required"`
	Price      float64 `json:"price" validate:"gte=0"`
	Quantity   int     `json:"quantity" validate:"gte=0"`
}

// OrderItem is a single line of an order. ItemID carries the catalog key
// used for display; SKU and MenuID are the raw catalog lookup keys when
// the upstream system provided them separately.
type OrderItem struct {
	ItemID       string  `json:"itemId"`
	SKU          string  `json:"sku,omitempty"`
	MenuID       string  `json:"menuId,omitempty"`
	Name         string  `json:"name" validate:"required"`
	OriginalName string  `json:"originalName,omitempty"`
	Quantity     int     `json:"quantity" validate:"gt=0"`
	UnitPrice    float64 `json:"unitPrice" validate:"gte=0"`
	// UnitPriceSet distinguishes an omitted price from an explicit zero;
	// the mapper sets it from payload presence.
	UnitPriceSet        bool       `json:"-"`
	TotalPrice          float64    `json:"totalPrice"`
	Category            string     `json:"category,omitempty"`
	SpecialInstructions string     `json:"specialInstructions,omitempty"`
	Modifiers           []Modifier `json:"modifiers" validate:"dive"`
}

// CatalogKey returns the preferred lookup key for this item: explicit SKU,
// then menu id, then the generic item id.
func (it OrderItem) CatalogKey() string {
	if it.SKU != "" {
		return it.SKU
	}
	if it.MenuID != "" {
		return it.MenuID
	}
	return it.ItemID
}

// Totals is the submitted (and, after reconciliation, verified) money summary.
type Totals struct {
	Subtotal    float64 `json:"subtotal" validate:"gte=0"`
	Tax         float64 `json:"tax" validate:"gte=0"`
	Tip         float64 `json:"tip" validate:"gte=0"`
	Discount    float64 `json:"discount" validate:"gte=0"`
	DeliveryFee float64 `json:"deliveryFee" validate:"gte=0"`
	Total       float64 `json:"total" validate:"gte=0"`
}

// Payment is the payment snapshot supplied by the upstream system.
type Payment struct {
	Method        string  `json:"method,omitempty"`
	Status        string  `json:"status" validate:"omitempty,oneof=pending authorized captured failed"`
	TransactionID string  `json:"transactionId,omitempty"`
	Amount        float64 `json:"amount,omitempty"`
}

// Order is the canonical order aggregate.
type Order struct {
	OrderID            string      `json:"orderId"`
	ExternalOrderID    string      `json:"externalOrderId"`
	RestaurantID       string      `json:"restaurantId" validate:"required"`
	Customer           Customer    `json:"customer"`
	OrderType          string      `json:"orderType" validate:"oneof=pickup delivery dine-in"`
	OrderTime          time.Time   `json:"orderTime"`
	RequestedTime      *time.Time  `json:"requestedTime,omitempty"`
	Items              []OrderItem `json:"items" validate:"min=1,dive"`
	Totals             Totals      `json:"totals"`
	Payment            Payment     `json:"payment"`
	Notes              string      `json:"notes"`
	Status             string      `json:"status"`
	CancellationReason string      `json:"cancellationReason,omitempty"`
	Source             string      `json:"source,omitempty"`
	EstimatedTime      *time.Time  `json:"estimatedTime,omitempty"`
	CreatedAt          time.Time   `json:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt"`
}
