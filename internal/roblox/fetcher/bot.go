package fetcher

import (
	"context"
	"time"

	"github.com/Dpatt168/RoGrouper-sub001/pkg/utils"
	"github.com/jaxron/roapi.go/pkg/api"
	"github.com/jaxron/roapi.go/pkg/api/middleware/auth"
	"go.uber.org/zap"
)

// botInfoCacheKey is the single key of the bot info cache.
const botInfoCacheKey = "bot"

// BotInfo is the authenticated bot account's profile.
type BotInfo struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// BotRank is the bot's standing in one group.
type BotRank struct {
	Rank int    `json:"rank"`
	Role string `json:"role"`
}

// BotFetcher handles retrieval of the privileged bot account's state.
// The bot profile is cached process-wide with a TTL so a renamed or swapped
// bot account is picked up without a restart.
type BotFetcher struct {
	roAPI  *api.API
	groups *GroupFetcher
	cache  *utils.TTLMap[string, *BotInfo]
	logger *zap.Logger
}

// NewBotFetcher creates a BotFetcher with the provided API client and cache TTL.
func NewBotFetcher(roAPI *api.API, groups *GroupFetcher, cacheTTL time.Duration, logger *zap.Logger) *BotFetcher {
	return &BotFetcher{
		roAPI:  roAPI,
		groups: groups,
		cache:  utils.NewTTLMap[string, *BotInfo](cacheTTL),
		logger: logger.Named("bot_fetcher"),
	}
}

// GetBotInfo returns the authenticated bot account's profile, served from
// cache while the TTL holds.
func (b *BotFetcher) GetBotInfo(ctx context.Context) (*BotInfo, error) {
	if info, ok := b.cache.Get(botInfoCacheKey); ok {
		return info, nil
	}

	ctx = context.WithValue(ctx, auth.KeyAddCookie, true)

	var info BotInfo
	if err := getJSON(ctx, b.roAPI.GetClient(), "https://users.roblox.com/v1/users/authenticated", nil, &info); err != nil {
		return nil, err
	}

	b.cache.Set(botInfoCacheKey, &info)
	b.logger.Debug("Refreshed bot info",
		zap.Uint64("botID", info.ID),
		zap.String("name", info.Name))

	return &info, nil
}

// GetBotRank returns the bot's role and rank in the given group. A bot that
// is not a member reports rank 0.
func (b *BotFetcher) GetBotRank(ctx context.Context, groupID uint64) (*BotRank, error) {
	info, err := b.GetBotInfo(ctx)
	if err != nil {
		return nil, err
	}

	userGroups, err := b.groups.GetUserGroups(ctx, info.ID)
	if err != nil {
		return nil, err
	}

	for _, group := range userGroups {
		if group.Group.ID == groupID {
			return &BotRank{
				Rank: int(group.Role.Rank),
				Role: group.Role.Name,
			}, nil
		}
	}

	return &BotRank{Rank: 0}, nil
}
