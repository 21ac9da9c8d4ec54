package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/posgate/api/internal/database"
	"github.com/posgate/api/internal/enum"
)

// PGStore serves prices from the pos_skus table.
type PGStore struct {
	queries *database.Queries
}

// NewPGStore wraps the query layer as a catalog Store.
func NewPGStore(queries *database.Queries) *PGStore {
	return &PGStore{queries: queries}
}

// GetPrice looks up one active catalog price. A database that never ran
// the catalog migration reports undefined_table; that is an empty
// catalog, not an outage, so it maps to ErrNotFound like any miss.
func (s *PGStore) GetPrice(ctx context.Context, key string, kind enum.CatalogKeyKind) (Price, error) {
	var (
		price pgtype.Numeric
		err   error
	)
	switch kind {
	case enum.CatalogKeyMenuID:
		price, err = s.queries.GetCatalogPriceByMenuID(ctx, key)
	default:
		price, err = s.queries.GetCatalogPriceBySKU(ctx, key)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isUndefinedTable(err) {
			return Price{}, ErrNotFound
		}
		return Price{}, fmt.Errorf("catalog lookup %s=%s: %w", kind, key, err)
	}

	p := Price{UnitPrice: database.NumericToDecimal(price)}
	if kind == enum.CatalogKeyMenuID {
		p.MenuID = key
	} else {
		p.SKU = key
	}
	return p, nil
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable
}
