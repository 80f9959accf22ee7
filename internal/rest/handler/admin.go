package handler

import (
	"errors"
	"net/http"

	"github.com/Dpatt168/RoGrouper-sub001/internal/database"
	"github.com/Dpatt168/RoGrouper-sub001/internal/database/types"
	restTypes "github.com/Dpatt168/RoGrouper-sub001/internal/rest/types"
	"github.com/Dpatt168/RoGrouper-sub001/internal/session"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// auditListLimit caps how many audit entries the admin endpoint returns.
const auditListLimit = 200

// AdminHandler handles the site admin allow-list and audit endpoints.
type AdminHandler struct {
	db     database.Client
	logger *zap.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(db database.Client, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		db:     db,
		logger: logger,
	}
}

// Check reports whether the caller is a site admin.
func (h *AdminHandler) Check(w http.ResponseWriter, req bunrouter.Request) error {
	sess, ok := session.FromContext(req.Context())
	if !ok {
		return writeError(w, http.StatusUnauthorized, "authentication required")
	}

	isAdmin, err := h.db.Model().Admin().IsSiteAdmin(req.Context(), sess.UserID)
	if err != nil {
		h.logger.Error("Failed to check admin status", zap.Error(err))
		return writeError(w, http.StatusInternalServerError, "failed to check admin status")
	}

	return bunrouter.JSON(w, restTypes.AdminCheckResponse{
		IsAdmin: isAdmin,
		Debug:   restTypes.AdminCheckDebug{UserID: sess.UserID},
	})
}

// GetSiteAdmins lists the admin allow-list.
func (h *AdminHandler) GetSiteAdmins(w http.ResponseWriter, req bunrouter.Request) error {
	admins, err := h.db.Model().Admin().GetSiteAdmins(req.Context())
	if err != nil {
		h.logger.Error("Failed to get site admins", zap.Error(err))
		return writeError(w, http.StatusInternalServerError, "failed to get site admins")
	}

	return bunrouter.JSON(w, restTypes.SiteAdminsResponse{Admins: admins.Admins})
}

// UpdateSiteAdmins adds or removes one admin. The list never empties, callers
// cannot remove themselves, and duplicates are rejected; all violations are
// 400s that leave the list unchanged.
func (h *AdminHandler) UpdateSiteAdmins(w http.ResponseWriter, req bunrouter.Request) error {
	sess, ok := session.FromContext(req.Context())
	if !ok {
		return writeError(w, http.StatusUnauthorized, "authentication required")
	}

	var body restTypes.UpdateSiteAdminsRequest
	if err := decodeBody(req, &body); err != nil || body.RobloxID == "" {
		return writeError(w, http.StatusBadRequest, "action and robloxId are required")
	}

	admins, version, err := h.db.Model().Admin().GetSiteAdminsVersioned(req.Context())
	if err != nil {
		h.logger.Error("Failed to get site admins", zap.Error(err))
		return writeError(w, http.StatusInternalServerError, "failed to get site admins")
	}

	var action string

	switch body.Action {
	case "add":
		if err := admins.Add(body.RobloxID); err != nil {
			return writeError(w, http.StatusBadRequest, err.Error())
		}

		action = types.AuditActionAdminAdded

	case "remove":
		if err := admins.Remove(body.RobloxID, sess.UserID); err != nil {
			return writeError(w, http.StatusBadRequest, err.Error())
		}

		action = types.AuditActionAdminRemoved

	default:
		return writeError(w, http.StatusBadRequest, "action must be add or remove")
	}

	if err := h.db.Model().Admin().SetSiteAdmins(req.Context(), admins, version); err != nil {
		if errors.Is(err, types.ErrVersionConflict) {
			return writeError(w, http.StatusConflict, "admin list changed, retry")
		}

		h.logger.Error("Failed to update site admins", zap.Error(err))

		return writeError(w, http.StatusInternalServerError, "failed to update site admins")
	}

	h.recordAudit(req, &types.AuditLog{
		Action:   action,
		ActorID:  sess.UserID,
		TargetID: body.RobloxID,
	})

	return bunrouter.JSON(w, restTypes.SiteAdminsResponse{Admins: admins.Admins})
}

// GetAuditLog lists recent audit entries, newest first.
func (h *AdminHandler) GetAuditLog(w http.ResponseWriter, req bunrouter.Request) error {
	entries, err := h.db.Model().Audit().List(req.Context(), auditListLimit)
	if err != nil {
		h.logger.Error("Failed to list audit entries", zap.Error(err))
		return writeError(w, http.StatusInternalServerError, "failed to list audit entries")
	}

	return bunrouter.JSON(w, restTypes.AuditLogResponse{Entries: entries})
}

// recordAudit stores an audit entry, logging instead of failing the request
// when the write does not go through.
func (h *AdminHandler) recordAudit(req bunrouter.Request, entry *types.AuditLog) {
	if err := h.db.Model().Audit().Record(req.Context(), entry); err != nil {
		h.logger.Error("Failed to record audit entry",
			zap.String("action", entry.Action),
			zap.Error(err))
	}
}
