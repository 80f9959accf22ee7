package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Dpatt168/RoGrouper-sub001/internal/roblox/fetcher"
	restTypes "github.com/Dpatt168/RoGrouper-sub001/internal/rest/types"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

const (
	// minSearchQueryLength is the shortest keyword the search endpoint accepts.
	minSearchQueryLength = 2
	// searchResultLimit caps how many users one search returns.
	searchResultLimit = 10
)

// UserHandler exposes Roblox user lookups for the dashboard.
type UserHandler struct {
	users      *fetcher.UserFetcher
	thumbnails *fetcher.ThumbnailFetcher
	logger     *zap.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(users *fetcher.UserFetcher, thumbnails *fetcher.ThumbnailFetcher, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		users:      users,
		thumbnails: thumbnails,
		logger:     logger,
	}
}

// Profile returns a user's profile with their group memberships. A failed
// profile fetch propagates the upstream status so the dashboard can tell a
// deleted user from an outage.
func (h *UserHandler) Profile(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := strconv.ParseUint(req.Param("userId"), 10, 64)
	if err != nil {
		return writeError(w, http.StatusBadRequest, "invalid user id")
	}

	profile, err := h.users.GetProfile(req.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to fetch user profile",
			zap.Uint64("userID", userID),
			zap.Error(err))

		var upstream *fetcher.UpstreamError
		if errors.As(err, &upstream) {
			return writeError(w, upstream.StatusCode, "failed to fetch user profile")
		}

		return writeError(w, http.StatusInternalServerError, "failed to fetch user profile")
	}

	return bunrouter.JSON(w, profile)
}

// Search looks up users by keyword. Queries shorter than two characters are
// rejected before hitting the Roblox API.
func (h *UserHandler) Search(w http.ResponseWriter, req bunrouter.Request) error {
	query := strings.TrimSpace(req.URL.Query().Get("query"))
	if len(query) < minSearchQueryLength {
		return writeError(w, http.StatusBadRequest, "query must be at least 2 characters")
	}

	results, err := h.users.SearchUsers(req.Context(), query, searchResultLimit)
	if err != nil {
		h.logger.Error("Failed to search users",
			zap.String("query", query),
			zap.Error(err))

		return writeUpstreamError(w, "failed to search users", err)
	}

	return bunrouter.JSON(w, restTypes.UserSearchResponse{Data: results})
}

// Avatars resolves headshot URLs for a comma-separated list of user IDs.
// Unresolvable IDs are omitted from the result.
func (h *UserHandler) Avatars(w http.ResponseWriter, req bunrouter.Request) error {
	raw := req.URL.Query().Get("userIds")
	if raw == "" {
		return writeError(w, http.StatusBadRequest, "userIds parameter is required")
	}

	var userIDs []uint64

	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}

		userIDs = append(userIDs, id)
	}

	headshots := h.thumbnails.GetUserHeadshots(req.Context(), userIDs)

	data := make([]restTypes.AvatarEntry, 0, len(headshots))
	for _, id := range userIDs {
		if url, ok := headshots[id]; ok {
			data = append(data, restTypes.AvatarEntry{
				TargetID: id,
				ImageURL: url,
			})
		}
	}

	return bunrouter.JSON(w, restTypes.AvatarsResponse{Data: data})
}
