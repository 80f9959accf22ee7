package models

import (
	"context"
	"sort"
	"time"

	"github.com/Dpatt168/RoGrouper-sub001/internal/database/types"
	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// AuditModel handles audit log entries. Audit writes are best-effort;
// callers log failures but never fail the triggering operation.
type AuditModel struct {
	documents *DocumentModel
	logger    *zap.Logger
}

// NewAudit creates a new AuditModel instance.
func NewAudit(db *bun.DB, documents *DocumentModel, logger *zap.Logger) *AuditModel {
	return &AuditModel{
		documents: documents,
		logger:    logger.Named("db_audit"),
	}
}

// Record stores an audit log entry, assigning an id and timestamp.
func (m *AuditModel) Record(ctx context.Context, entry *types.AuditLog) error {
	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now()

	return m.documents.Set(ctx, types.CollectionAuditLogs, entry.ID, entry)
}

// List returns audit entries, newest first, capped at limit.
func (m *AuditModel) List(ctx context.Context, limit int) ([]*types.AuditLog, error) {
	docs, err := m.documents.GetAll(ctx, types.CollectionAuditLogs)
	if err != nil {
		return nil, err
	}

	entries := make([]*types.AuditLog, 0, len(docs))

	for _, doc := range docs {
		var entry types.AuditLog
		if err := sonic.Unmarshal(doc.Data, &entry); err != nil {
			m.logger.Warn("Skipping malformed audit entry",
				zap.String("id", doc.ID),
				zap.Error(err))

			continue
		}

		entries = append(entries, &entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	return entries, nil
}
