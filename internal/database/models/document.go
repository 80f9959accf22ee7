package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dpatt168/RoGrouper-sub001/internal/database/dbretry"
	"github.com/Dpatt168/RoGrouper-sub001/internal/database/types"
	"github.com/bytedance/sonic"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// ErrUnsupportedOperator is returned when a field query uses an operator
// outside the supported comparison set.
var ErrUnsupportedOperator = errors.New("unsupported query operator")

// fieldOperators maps query operators to their SQL equivalents.
var fieldOperators = map[string]string{
	"==": "=",
	"<":  "<",
	"<=": "<=",
	">":  ">",
	">=": ">=",
}

// DocumentModel handles database operations for JSON documents.
// All typed models are built on top of it.
type DocumentModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewDocument creates a new DocumentModel instance.
func NewDocument(db *bun.DB, logger *zap.Logger) *DocumentModel {
	return &DocumentModel{
		db:     db,
		logger: logger.Named("db_document"),
	}
}

// Get retrieves a document and unmarshals its data into out.
// Returns ErrDocumentNotFound when the document does not exist.
func (m *DocumentModel) Get(ctx context.Context, collection types.Collection, id string, out any) error {
	_, _, err := m.GetVersioned(ctx, collection, id, out)
	if err != nil {
		return err
	}

	return nil
}

// GetWithDefault retrieves a document, leaving out untouched when the
// document does not exist. The boolean reports whether it was found.
func (m *DocumentModel) GetWithDefault(ctx context.Context, collection types.Collection, id string, out any) (bool, error) {
	_, found, err := m.GetVersioned(ctx, collection, id, out)
	if err != nil && !errors.Is(err, types.ErrDocumentNotFound) {
		return false, err
	}

	return found, nil
}

// GetVersioned retrieves a document along with its version token.
// Returns ErrDocumentNotFound when the document does not exist.
func (m *DocumentModel) GetVersioned(ctx context.Context, collection types.Collection, id string, out any) (int64, bool, error) {
	version, err := dbretry.Operation(ctx, func(ctx context.Context) (int64, error) {
		var doc types.Document

		err := m.db.NewSelect().
			Model(&doc).
			Where("collection = ?", string(collection)).
			Where("id = ?", id).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return 0, types.ErrDocumentNotFound
			}

			return 0, fmt.Errorf("failed to get document %s/%s: %w", collection, id, err)
		}

		if err := sonic.Unmarshal(doc.Data, out); err != nil {
			return 0, fmt.Errorf("failed to unmarshal document %s/%s: %w", collection, id, err)
		}

		return doc.Version, nil
	})
	if err != nil {
		if errors.Is(err, types.ErrDocumentNotFound) {
			return 0, false, types.ErrDocumentNotFound
		}

		return 0, false, err
	}

	return version, true, nil
}

// Set merges the given value into the document, creating it when absent.
// Existing fields not present in value are preserved.
func (m *DocumentModel) Set(ctx context.Context, collection types.Collection, id string, value any) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal document %s/%s: %w", collection, id, err)
	}

	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		doc := &types.Document{
			Collection: string(collection),
			ID:         id,
			Data:       data,
			Version:    1,
			UpdatedAt:  time.Now(),
		}

		_, err := m.db.NewInsert().
			Model(doc).
			On("CONFLICT (collection, id) DO UPDATE").
			Set("data = document.data || EXCLUDED.data").
			Set("version = document.version + 1").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to set document %s/%s: %w", collection, id, err)
		}

		return nil
	})
}

// Replace overwrites the document data wholesale, but only if the stored
// version still matches expectedVersion. Returns ErrVersionConflict when
// another writer got there first.
func (m *DocumentModel) Replace(ctx context.Context, collection types.Collection, id string, value any, expectedVersion int64) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal document %s/%s: %w", collection, id, err)
	}

	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		res, err := m.db.NewUpdate().
			Model((*types.Document)(nil)).
			Set("data = ?::jsonb", string(data)).
			Set("version = version + 1").
			Set("updated_at = ?", time.Now()).
			Where("collection = ?", string(collection)).
			Where("id = ?", id).
			Where("version = ?", expectedVersion).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to replace document %s/%s: %w", collection, id, err)
		}

		rows, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check replace result for %s/%s: %w", collection, id, err)
		}

		if rows == 0 {
			return types.ErrVersionConflict
		}

		return nil
	})
}

// Delete removes a document. Deleting a missing document is not an error.
func (m *DocumentModel) Delete(ctx context.Context, collection types.Collection, id string) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewDelete().
			Model((*types.Document)(nil)).
			Where("collection = ?", string(collection)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete document %s/%s: %w", collection, id, err)
		}

		return nil
	})
}

// QueryField returns the documents in a collection whose top-level field
// compares true against value. String values compare as text, everything
// else compares numerically.
func (m *DocumentModel) QueryField(ctx context.Context, collection types.Collection, field, op string, value any) ([]*types.Document, error) {
	sqlOp, ok := fieldOperators[op]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedOperator, op)
	}

	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Document, error) {
		var docs []*types.Document

		query := m.db.NewSelect().
			Model(&docs).
			Where("collection = ?", string(collection))

		if s, isString := value.(string); isString {
			query = query.Where(fmt.Sprintf("data->>? %s ?", sqlOp), field, s)
		} else {
			query = query.Where(fmt.Sprintf("(data->>?)::numeric %s ?", sqlOp), field, value)
		}

		err := query.Order("id ASC").Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query %s by %s: %w", collection, field, err)
		}

		return docs, nil
	})
}

// GetAll returns every document in a collection, ordered by id.
func (m *DocumentModel) GetAll(ctx context.Context, collection types.Collection) ([]*types.Document, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Document, error) {
		var docs []*types.Document

		err := m.db.NewSelect().
			Model(&docs).
			Where("collection = ?", string(collection)).
			Order("id ASC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s documents: %w", collection, err)
		}

		return docs, nil
	})
}
