package handler

import (
	"net/http"
	"strconv"

	"github.com/Dpatt168/RoGrouper-sub001/internal/roblox/fetcher"
	restTypes "github.com/Dpatt168/RoGrouper-sub001/internal/rest/types"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// BotHandler exposes the privileged bot account's profile and group standing.
type BotHandler struct {
	bot    *fetcher.BotFetcher
	logger *zap.Logger
}

// NewBotHandler creates a new bot handler.
func NewBotHandler(bot *fetcher.BotFetcher, logger *zap.Logger) *BotHandler {
	return &BotHandler{
		bot:    bot,
		logger: logger,
	}
}

// Info returns the bot account's profile.
func (h *BotHandler) Info(w http.ResponseWriter, req bunrouter.Request) error {
	info, err := h.bot.GetBotInfo(req.Context())
	if err != nil {
		h.logger.Error("Failed to fetch bot info", zap.Error(err))
		return writeUpstreamError(w, "failed to fetch bot info", err)
	}

	return bunrouter.JSON(w, info)
}

// Rank returns the bot's role and rank in a group. A failed lookup reports
// rank 0 alongside the error so the dashboard can render a safe default.
func (h *BotHandler) Rank(w http.ResponseWriter, req bunrouter.Request) error {
	groupID, err := strconv.ParseUint(req.Param("groupId"), 10, 64)
	if err != nil {
		return writeError(w, http.StatusBadRequest, "invalid group id")
	}

	rank, err := h.bot.GetBotRank(req.Context(), groupID)
	if err != nil {
		h.logger.Error("Failed to fetch bot rank",
			zap.Uint64("groupID", groupID),
			zap.Error(err))

		w.WriteHeader(http.StatusInternalServerError)

		return bunrouter.JSON(w, restTypes.BotRankResponse{
			Rank:  0,
			Error: "failed to fetch bot rank",
		})
	}

	return bunrouter.JSON(w, restTypes.BotRankResponse{
		Role: rank.Role,
		Rank: rank.Rank,
	})
}
