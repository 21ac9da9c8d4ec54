// Package catalog exposes POS menu prices to the pricing layer without
// leaking storage details. Lookups are keyed by SKU or menu ID; a missing
// row, a schema without the menu_id column, or a database that never ran
// the catalog migration all surface as ErrNotFound.
package catalog

import (
	"context"
	"errors"

	"github.com/posgate/api/internal/enum"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when no active catalog entry matches the key.
var ErrNotFound = errors.New("catalog: item not found")

// Price is a resolved catalog entry.
type Price struct {
	SKU       string
	MenuID    string
	Name      string
	UnitPrice decimal.Decimal
}

// Store resolves POS prices for order items.
type Store interface {
	GetPrice(ctx context.Context, key string, kind enum.CatalogKeyKind) (Price, error)
}
