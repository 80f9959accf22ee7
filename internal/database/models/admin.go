package models

import (
	"context"
	"errors"

	"github.com/Dpatt168/RoGrouper-sub001/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// AdminModel handles the singleton site admin allow-list document.
// The non-empty and no-self-removal invariants are enforced at the
// endpoint, not here.
type AdminModel struct {
	documents *DocumentModel
	logger    *zap.Logger
}

// NewAdmin creates a new AdminModel instance.
func NewAdmin(db *bun.DB, documents *DocumentModel, logger *zap.Logger) *AdminModel {
	return &AdminModel{
		documents: documents,
		logger:    logger.Named("db_admin"),
	}
}

// GetSiteAdmins returns the admin allow-list verbatim, empty if the
// document is absent.
func (m *AdminModel) GetSiteAdmins(ctx context.Context) (*types.SiteAdmins, error) {
	admins := &types.SiteAdmins{Admins: []string{}}

	_, err := m.documents.GetWithDefault(ctx, types.CollectionSiteConfig, types.AdminsDocumentID, admins)
	if err != nil {
		return nil, err
	}

	return admins, nil
}

// GetSiteAdminsVersioned returns the allow-list along with the document
// version for compare-and-swap updates. A missing document reports version 0.
func (m *AdminModel) GetSiteAdminsVersioned(ctx context.Context) (*types.SiteAdmins, int64, error) {
	admins := &types.SiteAdmins{Admins: []string{}}

	version, _, err := m.documents.GetVersioned(ctx, types.CollectionSiteConfig, types.AdminsDocumentID, admins)
	if err != nil {
		if errors.Is(err, types.ErrDocumentNotFound) {
			return admins, 0, nil
		}

		return nil, 0, err
	}

	return admins, version, nil
}

// IsSiteAdmin reports whether the given Roblox user id is in the allow-list.
func (m *AdminModel) IsSiteAdmin(ctx context.Context, robloxID string) (bool, error) {
	admins, err := m.GetSiteAdmins(ctx)
	if err != nil {
		return false, err
	}

	return admins.Contains(robloxID), nil
}

// SetSiteAdmins replaces the allow-list document. When the document already
// exists the caller must present the version it read; a version of 0 creates
// the document.
func (m *AdminModel) SetSiteAdmins(ctx context.Context, admins *types.SiteAdmins, version int64) error {
	if version == 0 {
		return m.documents.Set(ctx, types.CollectionSiteConfig, types.AdminsDocumentID, admins)
	}

	return m.documents.Replace(ctx, types.CollectionSiteConfig, types.AdminsDocumentID, admins, version)
}
