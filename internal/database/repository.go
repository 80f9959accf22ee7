package database

import (
	"github.com/Dpatt168/RoGrouper-sub001/internal/database/models"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Repository provides access to all database models.
type Repository struct {
	document    *models.DocumentModel
	admin       *models.AdminModel
	pendingJoin *models.PendingJoinModel
	automation  *models.AutomationModel
	audit       *models.AuditModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(db *bun.DB, logger *zap.Logger) *Repository {
	document := models.NewDocument(db, logger)

	return &Repository{
		document:    document,
		admin:       models.NewAdmin(db, document, logger),
		pendingJoin: models.NewPendingJoin(db, document, logger),
		automation:  models.NewAutomation(db, document, logger),
		audit:       models.NewAudit(db, document, logger),
	}
}

// Document returns the raw document gateway.
func (r *Repository) Document() *models.DocumentModel {
	return r.document
}

// Admin returns the site admin allow-list model.
func (r *Repository) Admin() *models.AdminModel {
	return r.admin
}

// PendingJoin returns the pending bot join queue model.
func (r *Repository) PendingJoin() *models.PendingJoinModel {
	return r.pendingJoin
}

// Automation returns the group automation model.
func (r *Repository) Automation() *models.AutomationModel {
	return r.automation
}

// Audit returns the audit log model.
func (r *Repository) Audit() *models.AuditModel {
	return r.audit
}
