package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Dpatt168/RoGrouper-sub001/internal/automation"
	"github.com/Dpatt168/RoGrouper-sub001/internal/database/types"
	restTypes "github.com/Dpatt168/RoGrouper-sub001/internal/rest/types"
	"github.com/Dpatt168/RoGrouper-sub001/internal/session"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// maxSuspensionAttempts bounds compare-and-swap retries when mutating a
// group's suspension list under concurrent sweeps.
const maxSuspensionAttempts = 3

// AutomationStore is the slice of the automation model the handler needs.
type AutomationStore interface {
	Get(ctx context.Context, groupID string) (*types.GroupAutomation, error)
	GetVersioned(ctx context.Context, groupID string) (*types.GroupAutomation, int64, error)
	Set(ctx context.Context, automation *types.GroupAutomation) error
	ReplaceSuspensions(
		ctx context.Context, automation *types.GroupAutomation, suspensions []types.Suspension, version int64,
	) error
}

// AuditRecorder appends dashboard audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, entry *types.AuditLog) error
}

// RoleSetter performs privileged group role writes.
type RoleSetter interface {
	SetMemberRole(ctx context.Context, groupID, userID, roleID uint64) error
}

// AutomationHandler manages per-group moderation state and suspensions.
type AutomationHandler struct {
	store   AutomationStore
	audit   AuditRecorder
	roles   RoleSetter
	sweeper *automation.Sweeper
	logger  *zap.Logger
}

// NewAutomationHandler creates a new automation handler.
func NewAutomationHandler(
	store AutomationStore, audit AuditRecorder, roles RoleSetter,
	sweeper *automation.Sweeper, logger *zap.Logger,
) *AutomationHandler {
	return &AutomationHandler{
		store:   store,
		audit:   audit,
		roles:   roles,
		sweeper: sweeper,
		logger:  logger,
	}
}

// Get returns a group's automation record, empty defaults included.
func (h *AutomationHandler) Get(w http.ResponseWriter, req bunrouter.Request) error {
	groupID, err := h.groupParam(req)
	if err != nil {
		return writeError(w, http.StatusBadRequest, "invalid group id")
	}

	record, err := h.store.Get(req.Context(), groupID)
	if err != nil {
		h.logger.Error("Failed to get automation record",
			zap.String("groupID", groupID),
			zap.Error(err))

		return writeError(w, http.StatusInternalServerError, "failed to get automation record")
	}

	return bunrouter.JSON(w, restTypes.AutomationResponse{Automation: record})
}

// Update merges rule, point, suspended-role, and sub-group changes into a
// group's automation record. Omitted fields are left untouched and the
// suspension list is never writable through this endpoint.
func (h *AutomationHandler) Update(w http.ResponseWriter, req bunrouter.Request) error {
	groupID, err := h.groupParam(req)
	if err != nil {
		return writeError(w, http.StatusBadRequest, "invalid group id")
	}

	var body restTypes.UpdateAutomationRequest
	if err := decodeBody(req, &body); err != nil {
		return writeError(w, http.StatusBadRequest, "invalid request body")
	}

	record, err := h.store.Get(req.Context(), groupID)
	if err != nil {
		h.logger.Error("Failed to get automation record",
			zap.String("groupID", groupID),
			zap.Error(err))

		return writeError(w, http.StatusInternalServerError, "failed to get automation record")
	}

	if body.Rules != nil {
		record.Rules = body.Rules
	}

	if body.Points != nil {
		record.Points = body.Points
	}

	if body.SuspendedRole != nil {
		record.SuspendedRole = body.SuspendedRole
	}

	if body.SubGroupIDs != nil {
		record.SubGroupIDs = body.SubGroupIDs
	}

	if err := h.store.Set(req.Context(), record); err != nil {
		h.logger.Error("Failed to update automation record",
			zap.String("groupID", groupID),
			zap.Error(err))

		return writeError(w, http.StatusInternalServerError, "failed to update automation record")
	}

	return bunrouter.JSON(w, restTypes.AutomationResponse{Automation: record})
}

// Suspend demotes a member to the group's suspended role and records a
// suspension that the sweep will lift once it expires.
func (h *AutomationHandler) Suspend(w http.ResponseWriter, req bunrouter.Request) error {
	sess, ok := session.FromContext(req.Context())
	if !ok {
		return writeError(w, http.StatusUnauthorized, "authentication required")
	}

	groupID, err := h.groupParam(req)
	if err != nil {
		return writeError(w, http.StatusBadRequest, "invalid group id")
	}

	var body restTypes.SuspendRequest
	if err := decodeBody(req, &body); err != nil || body.UserID == 0 || body.ExpiresAt == 0 {
		return writeError(w, http.StatusBadRequest, "userId and expiresAt are required")
	}

	if body.ExpiresAt <= time.Now().UnixMilli() {
		return writeError(w, http.StatusBadRequest, "expiresAt must be in the future")
	}

	record, version, err := h.store.GetVersioned(req.Context(), groupID)
	if err != nil {
		h.logger.Error("Failed to get automation record",
			zap.String("groupID", groupID),
			zap.Error(err))

		return writeError(w, http.StatusInternalServerError, "failed to get automation record")
	}

	if record.SuspendedRole == nil {
		return writeError(w, http.StatusBadRequest, "group has no suspended role configured")
	}

	if suspensionFor(record, body.UserID) != nil {
		return writeError(w, http.StatusBadRequest, "user is already suspended")
	}

	numericGroupID, _ := strconv.ParseUint(groupID, 10, 64)
	if err := h.roles.SetMemberRole(req.Context(), numericGroupID, body.UserID, record.SuspendedRole.ID); err != nil {
		h.logger.Error("Failed to demote member",
			zap.String("groupID", groupID),
			zap.Uint64("userID", body.UserID),
			zap.Error(err))

		return writeUpstreamError(w, "failed to demote member", err)
	}

	entry := types.Suspension{
		UserID:           body.UserID,
		Username:         body.Username,
		PreviousRoleID:   body.PreviousRoleID,
		PreviousRoleName: body.PreviousRoleName,
		SuspendedAt:      time.Now().UnixMilli(),
		ExpiresAt:        body.ExpiresAt,
	}

	for attempt := range maxSuspensionAttempts {
		err = h.store.ReplaceSuspensions(
			req.Context(), record, append(record.Suspensions, entry), version,
		)
		if err == nil {
			break
		}

		if !errors.Is(err, types.ErrVersionConflict) || attempt == maxSuspensionAttempts-1 {
			h.logger.Error("Failed to store suspension",
				zap.String("groupID", groupID),
				zap.Uint64("userID", body.UserID),
				zap.Error(err))

			return writeError(w, http.StatusInternalServerError, "failed to store suspension")
		}

		record, version, err = h.store.GetVersioned(req.Context(), groupID)
		if err != nil {
			return writeError(w, http.StatusInternalServerError, "failed to store suspension")
		}

		// Another writer may have suspended the same user while we retried.
		if suspensionFor(record, body.UserID) != nil {
			return writeError(w, http.StatusBadRequest, "user is already suspended")
		}
	}

	h.recordAudit(req, &types.AuditLog{
		Action:   types.AuditActionMemberSuspended,
		ActorID:  sess.UserID,
		GroupID:  groupID,
		TargetID: strconv.FormatUint(body.UserID, 10),
		Details:  fmt.Sprintf("suspended %s until %d", body.Username, body.ExpiresAt),
	})

	return bunrouter.JSON(w, restTypes.SuccessResponse{Success: true})
}

// Unsuspend restores a member's previous role and removes their suspension.
// A failed restore keeps the entry so the sweep can retry later.
func (h *AutomationHandler) Unsuspend(w http.ResponseWriter, req bunrouter.Request) error {
	sess, ok := session.FromContext(req.Context())
	if !ok {
		return writeError(w, http.StatusUnauthorized, "authentication required")
	}

	groupID, err := h.groupParam(req)
	if err != nil {
		return writeError(w, http.StatusBadRequest, "invalid group id")
	}

	userID, err := strconv.ParseUint(req.Param("userId"), 10, 64)
	if err != nil {
		return writeError(w, http.StatusBadRequest, "invalid user id")
	}

	record, version, err := h.store.GetVersioned(req.Context(), groupID)
	if err != nil {
		h.logger.Error("Failed to get automation record",
			zap.String("groupID", groupID),
			zap.Error(err))

		return writeError(w, http.StatusInternalServerError, "failed to get automation record")
	}

	entry := suspensionFor(record, userID)
	if entry == nil {
		return writeError(w, http.StatusNotFound, "user is not suspended")
	}

	numericGroupID, _ := strconv.ParseUint(groupID, 10, 64)
	if err := h.roles.SetMemberRole(req.Context(), numericGroupID, userID, entry.PreviousRoleID); err != nil {
		h.logger.Error("Failed to restore member role",
			zap.String("groupID", groupID),
			zap.Uint64("userID", userID),
			zap.Error(err))

		return writeUpstreamError(w, "failed to restore member role", err)
	}

	for attempt := range maxSuspensionAttempts {
		remaining := make([]types.Suspension, 0, len(record.Suspensions))

		for _, s := range record.Suspensions {
			if s.UserID != userID {
				remaining = append(remaining, s)
			}
		}

		err = h.store.ReplaceSuspensions(req.Context(), record, remaining, version)
		if err == nil {
			break
		}

		if !errors.Is(err, types.ErrVersionConflict) || attempt == maxSuspensionAttempts-1 {
			h.logger.Error("Failed to remove suspension",
				zap.String("groupID", groupID),
				zap.Uint64("userID", userID),
				zap.Error(err))

			return writeError(w, http.StatusInternalServerError, "failed to remove suspension")
		}

		record, version, err = h.store.GetVersioned(req.Context(), groupID)
		if err != nil {
			return writeError(w, http.StatusInternalServerError, "failed to remove suspension")
		}
	}

	h.recordAudit(req, &types.AuditLog{
		Action:   types.AuditActionSuspensionLifted,
		ActorID:  sess.UserID,
		GroupID:  groupID,
		TargetID: strconv.FormatUint(userID, 10),
		Details:  fmt.Sprintf("restored %s to %s", entry.Username, entry.PreviousRoleName),
	})

	return bunrouter.JSON(w, restTypes.SuccessResponse{Success: true})
}

// Sweep runs the suspension-expiry sweep on demand.
func (h *AutomationHandler) Sweep(w http.ResponseWriter, req bunrouter.Request) error {
	processed, restored := h.sweeper.Sweep(req.Context())

	return bunrouter.JSON(w, restTypes.SweepResponse{
		Processed: processed,
		Restored:  restored,
	})
}

// groupParam reads the numeric group id path parameter as the string key the
// automation collection uses.
func (h *AutomationHandler) groupParam(req bunrouter.Request) (string, error) {
	raw := req.Param("groupId")
	if _, err := strconv.ParseUint(raw, 10, 64); err != nil {
		return "", err
	}

	return raw, nil
}

func (h *AutomationHandler) recordAudit(req bunrouter.Request, entry *types.AuditLog) {
	if err := h.audit.Record(req.Context(), entry); err != nil {
		h.logger.Error("Failed to record audit entry",
			zap.String("action", entry.Action),
			zap.Error(err))
	}
}

// suspensionFor finds a user's suspension entry, if any.
func suspensionFor(record *types.GroupAutomation, userID uint64) *types.Suspension {
	for i := range record.Suspensions {
		if record.Suspensions[i].UserID == userID {
			return &record.Suspensions[i]
		}
	}

	return nil
}
