package handler

import (
	"net/http"
	"strconv"

	"github.com/Dpatt168/RoGrouper-sub001/internal/roblox/fetcher"
	restTypes "github.com/Dpatt168/RoGrouper-sub001/internal/rest/types"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// GroupHandler passes group member and role pages through from the Roblox API.
type GroupHandler struct {
	groups *fetcher.GroupFetcher
	logger *zap.Logger
}

// NewGroupHandler creates a new group handler.
func NewGroupHandler(groups *fetcher.GroupFetcher, logger *zap.Logger) *GroupHandler {
	return &GroupHandler{
		groups: groups,
		logger: logger,
	}
}

// Members returns one page of a group's member list. The upstream response
// shape is passed through unchanged so the dashboard can keep paging with the
// returned cursors.
func (h *GroupHandler) Members(w http.ResponseWriter, req bunrouter.Request) error {
	groupID, err := strconv.ParseUint(req.Param("groupId"), 10, 64)
	if err != nil {
		return writeError(w, http.StatusBadRequest, "invalid group id")
	}

	query := req.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))

	members, err := h.groups.GetGroupUsers(req.Context(), groupID, limit, query.Get("cursor"))
	if err != nil {
		h.logger.Error("Failed to fetch group members",
			zap.Uint64("groupID", groupID),
			zap.Error(err))

		return writeUpstreamError(w, "failed to fetch group members", err)
	}

	return bunrouter.JSON(w, members)
}

// Roles returns a group's role list.
func (h *GroupHandler) Roles(w http.ResponseWriter, req bunrouter.Request) error {
	groupID, err := strconv.ParseUint(req.Param("groupId"), 10, 64)
	if err != nil {
		return writeError(w, http.StatusBadRequest, "invalid group id")
	}

	roles, err := h.groups.GetGroupRoles(req.Context(), groupID)
	if err != nil {
		h.logger.Error("Failed to fetch group roles",
			zap.Uint64("groupID", groupID),
			zap.Error(err))

		return writeUpstreamError(w, "failed to fetch group roles", err)
	}

	return bunrouter.JSON(w, restTypes.GroupRolesResponse{
		GroupID: groupID,
		Roles:   roles,
	})
}
