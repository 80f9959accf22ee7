package migrations

import (
	"context"
	"fmt"

	"github.com/Dpatt168/RoGrouper-sub001/internal/database/types"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewCreateTable().
			Model((*types.Document)(nil)).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create documents table: %w", err)
		}

		// Speeds up collection scans and field queries
		_, err = db.NewRaw(`
			CREATE INDEX IF NOT EXISTS idx_documents_collection
			ON documents (collection)
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create collection index: %w", err)
		}

		_, err = db.NewRaw(`
			CREATE INDEX IF NOT EXISTS idx_documents_data
			ON documents USING GIN (data)
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create data index: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewDropTable().
			Model((*types.Document)(nil)).
			IfExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop documents table: %w", err)
		}

		return nil
	})
}
