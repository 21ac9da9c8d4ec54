package database

import (
	"context"
	"fmt"
)

// SchemaCapabilities describes which optional schema pieces are present.
// Detected once at startup and passed in as configuration, replacing the
// lazily-mutated has-column flags the legacy gateway used to survive
// rolling migrations.
type SchemaCapabilities struct {
	// CatalogMenuID is true when pos_skus carries the menu_id column.
	CatalogMenuID bool
	// SavedPayloads is true when the saved_payloads table exists.
	SavedPayloads bool
}

// AllCapabilities assumes a fully-migrated schema.
func AllCapabilities() SchemaCapabilities {
	return SchemaCapabilities{CatalogMenuID: true, SavedPayloads: true}
}

// DetectCapabilities inspects information_schema once. Deployments that
// run the embedded migrations always get full capabilities; detection
// exists for databases migrated out-of-band.
func DetectCapabilities(ctx context.Context, db DBTX) (SchemaCapabilities, error) {
	var caps SchemaCapabilities

	err := db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.columns
			WHERE table_name = 'pos_skus' AND column_name = 'menu_id'
		)`).Scan(&caps.CatalogMenuID)
	if err != nil {
		return caps, fmt.Errorf("detect pos_skus.menu_id: %w", err)
	}

	err = db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_name = 'saved_payloads'
		)`).Scan(&caps.SavedPayloads)
	if err != nil {
		return caps, fmt.Errorf("detect saved_payloads: %w", err)
	}

	return caps, nil
}
