// Package pricing decides what each order line costs and whether the
// submitted money summary adds up. The resolver picks between submitted
// app prices and the POS catalog; the reconciler recomputes totals with
// decimal arithmetic and rejects orders outside tolerance.
package pricing

import (
	"context"
	"errors"

	"github.com/posgate/api/internal/apperr"
	"github.com/posgate/api/internal/catalog"
	"github.com/posgate/api/internal/enum"
	"github.com/posgate/api/internal/model"
	"github.com/rs/zerolog/log"
)

// Resolver fixes unit prices on every order item before reconciliation.
type Resolver struct {
	catalog    catalog.Store
	authority  string
	precedence string
}

// NewResolver builds a Resolver. authority is enum.PriceAuthorityApp or
// enum.PriceAuthorityPOS; precedence is enum.CatalogKeySKU or
// enum.CatalogKeyMenuID and controls which item key is tried first.
func NewResolver(store catalog.Store, authority, precedence string) *Resolver {
	return &Resolver{catalog: store, authority: authority, precedence: precedence}
}

// Resolve fills in authoritative unit prices, mutating order.Items.
//
// Under app authority the submitted prices are trusted as-is and the
// catalog is never consulted. Under POS authority every item must price
// from the catalog; items that miss on both keys, or whose lookups fail
// because the store itself is unavailable, are collected into a single
// PriceResolutionError so the client sees the full list at once.
func (r *Resolver) Resolve(ctx context.Context, order *model.Order) error {
	if r.authority != enum.PriceAuthorityPOS {
		return nil
	}

	var unresolved []apperr.UnresolvedItem
	for i := range order.Items {
		item := &order.Items[i]
		price, err := r.lookup(ctx, item)
		if err != nil {
			if !errors.Is(err, catalog.ErrNotFound) {
				log.Warn().Err(err).Str("item", item.CatalogKey()).Msg("catalog lookup failed")
			}
			unresolved = append(unresolved, apperr.UnresolvedItem{
				Index:  i,
				SKU:    item.SKU,
				MenuID: item.MenuID,
			})
			continue
		}
		if submitted := item.UnitPrice; submitted != 0 && price.UnitPrice.InexactFloat64() != submitted {
			log.Debug().
				Str("item", item.CatalogKey()).
				Float64("submitted", submitted).
				Str("catalog", price.UnitPrice.String()).
				Msg("catalog price overrides submitted price")
		}
		item.UnitPrice = price.UnitPrice.InexactFloat64()
	}

	if len(unresolved) > 0 {
		return &apperr.PriceResolutionError{Items: unresolved}
	}
	return nil
}

// lookup tries the item's keys in precedence order, falling back to the
// alternate key on a miss. Items carrying only a bare ItemID are looked
// up by it under the primary kind.
func (r *Resolver) lookup(ctx context.Context, item *model.OrderItem) (catalog.Price, error) {
	primary, secondary := keysFor(item, r.precedence)
	if primary.key == "" && secondary.key == "" {
		if item.ItemID == "" {
			return catalog.Price{}, catalog.ErrNotFound
		}
		primary = keyRef{key: item.ItemID, kind: enum.CatalogKeyKind(r.precedence)}
	}

	if primary.key != "" {
		price, err := r.catalog.GetPrice(ctx, primary.key, primary.kind)
		if err == nil {
			return price, nil
		}
		if !errors.Is(err, catalog.ErrNotFound) {
			return catalog.Price{}, err
		}
	}
	if secondary.key != "" {
		return r.catalog.GetPrice(ctx, secondary.key, secondary.kind)
	}
	return catalog.Price{}, catalog.ErrNotFound
}

type keyRef struct {
	key  string
	kind enum.CatalogKeyKind
}

func keysFor(item *model.OrderItem, precedence string) (primary, secondary keyRef) {
	sku := keyRef{key: item.SKU, kind: enum.CatalogKeySKU}
	menu := keyRef{key: item.MenuID, kind: enum.CatalogKeyMenuID}
	if precedence == string(enum.CatalogKeyMenuID) {
		return menu, sku
	}
	return sku, menu
}
