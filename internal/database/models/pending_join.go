package models

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/Dpatt168/RoGrouper-sub001/internal/database/types"
	"github.com/bytedance/sonic"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// PendingJoinModel handles the queue of bot join requests.
type PendingJoinModel struct {
	documents *DocumentModel
	logger    *zap.Logger
}

// NewPendingJoin creates a new PendingJoinModel instance.
func NewPendingJoin(db *bun.DB, documents *DocumentModel, logger *zap.Logger) *PendingJoinModel {
	return &PendingJoinModel{
		documents: documents,
		logger:    logger.Named("db_pending_join"),
	}
}

// List returns all pending join records, newest first.
func (m *PendingJoinModel) List(ctx context.Context) ([]*types.PendingBotJoin, error) {
	docs, err := m.documents.GetAll(ctx, types.CollectionPendingBotJoins)
	if err != nil {
		return nil, err
	}

	requests := make([]*types.PendingBotJoin, 0, len(docs))

	for _, doc := range docs {
		var request types.PendingBotJoin
		if err := sonic.Unmarshal(doc.Data, &request); err != nil {
			m.logger.Warn("Skipping malformed pending join record",
				zap.String("id", doc.ID),
				zap.Error(err))

			continue
		}

		requests = append(requests, &request)
	}

	// Newest requests first
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].CreatedAt.After(requests[j].CreatedAt)
	})

	return requests, nil
}

// Get retrieves a single pending join record by id.
func (m *PendingJoinModel) Get(ctx context.Context, id string) (*types.PendingBotJoin, error) {
	var request types.PendingBotJoin

	err := m.documents.Get(ctx, types.CollectionPendingBotJoins, id, &request)
	if err != nil {
		if errors.Is(err, types.ErrDocumentNotFound) {
			return nil, types.ErrPendingJoinNotFound
		}

		return nil, err
	}

	return &request, nil
}

// Create stores a new pending join record in the pending_captcha state.
func (m *PendingJoinModel) Create(ctx context.Context, request *types.PendingBotJoin) error {
	now := time.Now()
	request.Status = types.PendingJoinStatusPendingCaptcha
	request.CreatedAt = now
	request.UpdatedAt = now

	return m.documents.Set(ctx, types.CollectionPendingBotJoins, request.ID, request)
}

// Update persists a modified pending join record.
func (m *PendingJoinModel) Update(ctx context.Context, request *types.PendingBotJoin) error {
	return m.documents.Set(ctx, types.CollectionPendingBotJoins, request.ID, request)
}

// Delete removes a pending join record.
func (m *PendingJoinModel) Delete(ctx context.Context, id string) error {
	return m.documents.Delete(ctx, types.CollectionPendingBotJoins, id)
}
