package fetcher

import (
	"context"
	"fmt"

	"github.com/jaxron/roapi.go/pkg/api"
	"github.com/jaxron/roapi.go/pkg/api/middleware/auth"
	"github.com/jaxron/roapi.go/pkg/api/resources/groups"
	apiTypes "github.com/jaxron/roapi.go/pkg/api/types"
	"go.uber.org/zap"
)

// DefaultMemberLimit is the page size used when a caller asks for an
// unsupported group member page size.
const DefaultMemberLimit = 50

// memberPageLimits are the page sizes the Roblox group members API accepts.
var memberPageLimits = map[int]struct{}{
	10:  {},
	25:  {},
	50:  {},
	100: {},
}

// CoerceMemberLimit maps any requested page size onto one the Roblox API
// accepts, silently falling back to the default.
func CoerceMemberLimit(limit int) int {
	if _, ok := memberPageLimits[limit]; ok {
		return limit
	}

	return DefaultMemberLimit
}

// GroupRole is a single role of a group as returned by the roles endpoint.
type GroupRole struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Rank        int    `json:"rank"`
	MemberCount int    `json:"memberCount"`
}

// groupRolesResponse is the shape of groups.roblox.com/v1/groups/{id}/roles.
type groupRolesResponse struct {
	GroupID uint64      `json:"groupId"`
	Roles   []GroupRole `json:"roles"`
}

// GroupFetcher handles retrieval of group information from the Roblox API.
type GroupFetcher struct {
	roAPI  *api.API
	logger *zap.Logger
}

// NewGroupFetcher creates a GroupFetcher with the provided API client and logger.
func NewGroupFetcher(roAPI *api.API, logger *zap.Logger) *GroupFetcher {
	return &GroupFetcher{
		roAPI:  roAPI,
		logger: logger.Named("group_fetcher"),
	}
}

// GetGroupInfo retrieves a single group's information.
func (g *GroupFetcher) GetGroupInfo(ctx context.Context, groupID uint64) (*apiTypes.GroupResponse, error) {
	ctx = context.WithValue(ctx, auth.KeyAddCookie, true)

	groupInfo, err := g.roAPI.Groups().GetGroupInfo(ctx, groupID)
	if err != nil {
		return nil, err
	}

	return groupInfo, nil
}

// GetGroupUsers retrieves one page of a group's member list. Unsupported
// limits are coerced to the default page size; the upstream response shape
// is passed through.
func (g *GroupFetcher) GetGroupUsers(
	ctx context.Context, groupID uint64, limit int, cursor string,
) (*apiTypes.GroupUsersResponse, error) {
	ctx = context.WithValue(ctx, auth.KeyAddCookie, true)

	builder := groups.NewGroupUsersBuilder(groupID).
		WithLimit(uint64(CoerceMemberLimit(limit))).
		WithCursor(cursor)

	groupUsers, err := g.roAPI.Groups().GetGroupUsers(ctx, builder.Build())
	if err != nil {
		return nil, err
	}

	g.logger.Debug("Finished fetching group members",
		zap.Uint64("groupID", groupID),
		zap.Int("count", len(groupUsers.Data)))

	return groupUsers, nil
}

// GetGroupRoles retrieves the role list of a group.
func (g *GroupFetcher) GetGroupRoles(ctx context.Context, groupID uint64) ([]GroupRole, error) {
	ctx = context.WithValue(ctx, auth.KeyAddCookie, true)

	var result groupRolesResponse

	url := fmt.Sprintf("https://groups.roblox.com/v1/groups/%d/roles", groupID)
	if err := getJSON(ctx, g.roAPI.GetClient(), url, nil, &result); err != nil {
		return nil, err
	}

	return result.Roles, nil
}

// GetUserGroups retrieves all groups for a user.
func (g *GroupFetcher) GetUserGroups(ctx context.Context, userID uint64) ([]*apiTypes.UserGroupRoles, error) {
	ctx = context.WithValue(ctx, auth.KeyAddCookie, true)
	builder := groupsBuilderForUser(userID)

	fetchedGroups, err := g.roAPI.Groups().GetUserGroupRoles(ctx, builder.Build())
	if err != nil {
		return nil, err
	}

	groupsData := make([]*apiTypes.UserGroupRoles, 0, len(fetchedGroups.Data))
	for _, group := range fetchedGroups.Data {
		groupsData = append(groupsData, &group)
	}

	g.logger.Debug("Finished fetching user groups",
		zap.Uint64("userID", userID),
		zap.Int("totalGroups", len(groupsData)))

	return groupsData, nil
}

func groupsBuilderForUser(userID uint64) *groups.UserGroupRolesBuilder {
	return groups.NewUserGroupRolesBuilder(userID)
}
