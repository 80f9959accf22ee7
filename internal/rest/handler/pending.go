package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Dpatt168/RoGrouper-sub001/internal/database"
	"github.com/Dpatt168/RoGrouper-sub001/internal/database/types"
	"github.com/Dpatt168/RoGrouper-sub001/internal/roblox/fetcher"
	restTypes "github.com/Dpatt168/RoGrouper-sub001/internal/rest/types"
	"github.com/Dpatt168/RoGrouper-sub001/internal/session"
	"github.com/google/uuid"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// PendingJoinHandler handles the pending bot-join queue.
type PendingJoinHandler struct {
	db     database.Client
	groups *fetcher.GroupFetcher
	logger *zap.Logger
}

// NewPendingJoinHandler creates a new pending join handler.
func NewPendingJoinHandler(db database.Client, groups *fetcher.GroupFetcher, logger *zap.Logger) *PendingJoinHandler {
	return &PendingJoinHandler{
		db:     db,
		groups: groups,
		logger: logger,
	}
}

// List returns all pending join requests, newest first.
func (h *PendingJoinHandler) List(w http.ResponseWriter, req bunrouter.Request) error {
	requests, err := h.db.Model().PendingJoin().List(req.Context())
	if err != nil {
		h.logger.Error("Failed to list pending joins", zap.Error(err))
		return writeError(w, http.StatusInternalServerError, "failed to list pending joins")
	}

	return bunrouter.JSON(w, restTypes.PendingJoinsResponse{Requests: requests})
}

// Action transitions or deletes one pending join record. Unknown actions and
// illegal transitions are 400s that leave the record unmodified.
func (h *PendingJoinHandler) Action(w http.ResponseWriter, req bunrouter.Request) error {
	sess, ok := session.FromContext(req.Context())
	if !ok {
		return writeError(w, http.StatusUnauthorized, "authentication required")
	}

	var body restTypes.PendingJoinActionRequest
	if err := decodeBody(req, &body); err != nil || body.RequestID == "" || body.Action == "" {
		return writeError(w, http.StatusBadRequest, "requestId and action are required")
	}

	target, known := types.PendingJoinActionTarget(body.Action)
	if !known && body.Action != "delete" {
		return writeError(w, http.StatusBadRequest, "unknown action")
	}

	record, err := h.db.Model().PendingJoin().Get(req.Context(), body.RequestID)
	if err != nil {
		if errors.Is(err, types.ErrPendingJoinNotFound) {
			return writeError(w, http.StatusNotFound, "pending join request not found")
		}

		h.logger.Error("Failed to get pending join", zap.Error(err))

		return writeError(w, http.StatusInternalServerError, "failed to get pending join")
	}

	if body.Action == "delete" {
		if err := h.db.Model().PendingJoin().Delete(req.Context(), record.ID); err != nil {
			h.logger.Error("Failed to delete pending join", zap.Error(err))
			return writeError(w, http.StatusInternalServerError, "failed to delete pending join")
		}

		h.recordAudit(req, sess.UserID, record, types.AuditActionPendingJoinDelete)

		return bunrouter.JSON(w, restTypes.PendingJoinActionResponse{Success: true})
	}

	if err := record.Transition(target, time.Now()); err != nil {
		return writeError(w, http.StatusBadRequest, err.Error())
	}

	if err := h.db.Model().PendingJoin().Update(req.Context(), record); err != nil {
		h.logger.Error("Failed to update pending join", zap.Error(err))
		return writeError(w, http.StatusInternalServerError, "failed to update pending join")
	}

	h.recordAudit(req, sess.UserID, record, types.AuditActionPendingJoinUpdate)

	return bunrouter.JSON(w, restTypes.PendingJoinActionResponse{
		Success: true,
		Status:  record.Status,
	})
}

// Create queues a bot join request for a group on behalf of the caller.
func (h *PendingJoinHandler) Create(w http.ResponseWriter, req bunrouter.Request) error {
	sess, ok := session.FromContext(req.Context())
	if !ok {
		return writeError(w, http.StatusUnauthorized, "authentication required")
	}

	groupID, err := strconv.ParseUint(req.Param("groupId"), 10, 64)
	if err != nil {
		return writeError(w, http.StatusBadRequest, "invalid group id")
	}

	groupInfo, err := h.groups.GetGroupInfo(req.Context(), groupID)
	if err != nil {
		h.logger.Error("Failed to fetch group for join request",
			zap.Uint64("groupID", groupID),
			zap.Error(err))

		return writeUpstreamError(w, "failed to fetch group", err)
	}

	record := &types.PendingBotJoin{
		ID:            uuid.NewString(),
		GroupID:       groupID,
		GroupName:     groupInfo.Name,
		RequesterID:   sess.UserID,
		RequesterName: sess.Username,
	}

	if err := h.db.Model().PendingJoin().Create(req.Context(), record); err != nil {
		h.logger.Error("Failed to create pending join", zap.Error(err))
		return writeError(w, http.StatusInternalServerError, "failed to create join request")
	}

	return bunrouter.JSON(w, restTypes.JoinRequestResponse{Request: record})
}

func (h *PendingJoinHandler) recordAudit(
	req bunrouter.Request, actorID string, record *types.PendingBotJoin, action string,
) {
	err := h.db.Model().Audit().Record(req.Context(), &types.AuditLog{
		Action:   action,
		ActorID:  actorID,
		GroupID:  strconv.FormatUint(record.GroupID, 10),
		TargetID: record.ID,
		Details:  string(record.Status),
	})
	if err != nil {
		h.logger.Error("Failed to record audit entry",
			zap.String("action", action),
			zap.Error(err))
	}
}
