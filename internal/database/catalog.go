package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// GetCatalogPriceBySKU returns the authoritative price for a SKU, only
// considering active catalog rows.
func (q *Queries) GetCatalogPriceBySKU(ctx context.Context, sku string) (pgtype.Numeric, error) {
	var price pgtype.Numeric
	err := q.db.QueryRow(ctx, `SELECT price FROM pos_skus WHERE sku = $1 AND active`, sku).Scan(&price)
	return price, err
}

// GetCatalogPriceByMenuID returns the authoritative price for a POS menu
// id. Returns pgx.ErrNoRows when the schema predates the menu_id column.
func (q *Queries) GetCatalogPriceByMenuID(ctx context.Context, menuID string) (pgtype.Numeric, error) {
	if !q.caps.CatalogMenuID {
		return pgtype.Numeric{}, pgx.ErrNoRows
	}
	var price pgtype.Numeric
	err := q.db.QueryRow(ctx, `SELECT price FROM pos_skus WHERE menu_id = $1 AND active`, menuID).Scan(&price)
	return price, err
}

type UpsertCatalogItemParams struct {
	SKU     string
	MenuID  pgtype.Text
	Name    pgtype.Text
	Price   pgtype.Numeric
	Taxable bool
	Active  bool
}

// UpsertCatalogItem inserts or refreshes one catalog entry keyed by SKU.
func (q *Queries) UpsertCatalogItem(ctx context.Context, arg UpsertCatalogItemParams) (CatalogItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO pos_skus (sku, menu_id, name, price, taxable, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (sku) DO UPDATE SET
			menu_id = COALESCE(EXCLUDED.menu_id, pos_skus.menu_id),
			name = COALESCE(EXCLUDED.name, pos_skus.name),
			price = EXCLUDED.price,
			taxable = EXCLUDED.taxable,
			active = EXCLUDED.active,
			updated_at = now()
		RETURNING sku, menu_id, name, price, taxable, active, updated_at, created_at`,
		arg.SKU, arg.MenuID, arg.Name, arg.Price, arg.Taxable, arg.Active,
	)
	var c CatalogItem
	err := row.Scan(&c.SKU, &c.MenuID, &c.Name, &c.Price, &c.Taxable, &c.Active, &c.UpdatedAt, &c.CreatedAt)
	return c, err
}

// GetCatalogItem fetches one catalog entry by SKU or menu id.
func (q *Queries) GetCatalogItem(ctx context.Context, key string) (CatalogItem, error) {
	row := q.db.QueryRow(ctx, `
		SELECT sku, menu_id, name, price, taxable, active, updated_at, created_at
		FROM pos_skus WHERE sku = $1 OR menu_id = $1`, key)
	var c CatalogItem
	err := row.Scan(&c.SKU, &c.MenuID, &c.Name, &c.Price, &c.Taxable, &c.Active, &c.UpdatedAt, &c.CreatedAt)
	return c, err
}
