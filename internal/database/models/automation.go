package models

import (
	"context"
	"errors"

	"github.com/Dpatt168/RoGrouper-sub001/internal/database/types"
	"github.com/bytedance/sonic"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// AutomationModel handles the per-group moderation state documents.
type AutomationModel struct {
	documents *DocumentModel
	logger    *zap.Logger
}

// NewAutomation creates a new AutomationModel instance.
func NewAutomation(db *bun.DB, documents *DocumentModel, logger *zap.Logger) *AutomationModel {
	return &AutomationModel{
		documents: documents,
		logger:    logger.Named("db_automation"),
	}
}

// Get retrieves the automation document for a group. A group with no document
// gets an empty state so callers never special-case absence.
func (m *AutomationModel) Get(ctx context.Context, groupID string) (*types.GroupAutomation, error) {
	automation, _, err := m.GetVersioned(ctx, groupID)
	if err != nil {
		return nil, err
	}

	return automation, nil
}

// GetVersioned retrieves the automation document along with its version for
// compare-and-swap updates. A missing document reports version 0.
func (m *AutomationModel) GetVersioned(ctx context.Context, groupID string) (*types.GroupAutomation, int64, error) {
	automation := &types.GroupAutomation{GroupID: groupID}

	version, _, err := m.documents.GetVersioned(ctx, types.CollectionGroupAutomation, groupID, automation)
	if err != nil {
		if errors.Is(err, types.ErrDocumentNotFound) {
			return automation, 0, nil
		}

		return nil, 0, err
	}

	return automation, version, nil
}

// GetAll returns every group's automation document paired with its version.
// Documents that fail to unmarshal are skipped with a warning so one corrupt
// group cannot stall the suspension sweep.
func (m *AutomationModel) GetAll(ctx context.Context) ([]*types.VersionedAutomation, error) {
	docs, err := m.documents.GetAll(ctx, types.CollectionGroupAutomation)
	if err != nil {
		return nil, err
	}

	automations := make([]*types.VersionedAutomation, 0, len(docs))

	for _, doc := range docs {
		automation := &types.GroupAutomation{GroupID: doc.ID}
		if err := sonic.Unmarshal(doc.Data, automation); err != nil {
			m.logger.Warn("Skipping malformed automation document",
				zap.String("groupID", doc.ID),
				zap.Error(err))

			continue
		}

		automations = append(automations, &types.VersionedAutomation{
			Automation: automation,
			Version:    doc.Version,
		})
	}

	return automations, nil
}

// Set merges changes into a group's automation document, creating it
// when absent.
func (m *AutomationModel) Set(ctx context.Context, automation *types.GroupAutomation) error {
	return m.documents.Set(ctx, types.CollectionGroupAutomation, automation.GroupID, automation)
}

// ReplaceSuspensions overwrites the suspension list of a group's automation
// document. The caller presents the full document as read plus its version;
// ErrVersionConflict means another writer changed it and the caller must
// re-read before retrying.
func (m *AutomationModel) ReplaceSuspensions(
	ctx context.Context, automation *types.GroupAutomation, suspensions []types.Suspension, version int64,
) error {
	if suspensions == nil {
		suspensions = []types.Suspension{}
	}

	updated := *automation
	updated.Suspensions = suspensions

	return m.documents.Replace(ctx, types.CollectionGroupAutomation, automation.GroupID, &updated, version)
}

// Delete removes a group's automation document.
func (m *AutomationModel) Delete(ctx context.Context, groupID string) error {
	return m.documents.Delete(ctx, types.CollectionGroupAutomation, groupID)
}
