package fetcher

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jaxron/roapi.go/pkg/api"
	"github.com/jaxron/roapi.go/pkg/api/middleware/auth"
	apiTypes "github.com/jaxron/roapi.go/pkg/api/types"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// UserFetcher handles retrieval of user information from the Roblox API.
type UserFetcher struct {
	roAPI  *api.API
	logger *zap.Logger
}

// NewUserFetcher creates a UserFetcher with the provided API client and logger.
func NewUserFetcher(roAPI *api.API, logger *zap.Logger) *UserFetcher {
	return &UserFetcher{
		roAPI:  roAPI,
		logger: logger.Named("user_fetcher"),
	}
}

// UserProfile bundles a user's profile with their group memberships.
type UserProfile struct {
	UserInfo   *apiTypes.UserByIDResponse `json:"userInfo"`
	UserGroups []*apiTypes.UserGroupRoles `json:"userGroups"`
}

// SearchedUser is one entry of a username search result.
type SearchedUser struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// userSearchResponse is the shape of users.roblox.com/v1/users/search.
type userSearchResponse struct {
	Data []SearchedUser `json:"data"`
}

// GetUser retrieves a single user's profile.
func (u *UserFetcher) GetUser(ctx context.Context, userID uint64) (*apiTypes.UserByIDResponse, error) {
	ctx = context.WithValue(ctx, auth.KeyAddCookie, true)

	userInfo, err := u.roAPI.Users().GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return userInfo, nil
}

// GetProfile retrieves a user's profile and group memberships concurrently.
// A profile fetch failure fails the whole call; a membership fetch failure
// degrades to an empty group list.
func (u *UserFetcher) GetProfile(ctx context.Context, userID uint64) (*UserProfile, error) {
	ctx = context.WithValue(ctx, auth.KeyAddCookie, true)

	var (
		profile = &UserProfile{UserGroups: []*apiTypes.UserGroupRoles{}}
		p       = pool.New().WithContext(ctx)
	)

	p.Go(func(ctx context.Context) error {
		// Raw fetch so an upstream failure keeps its status code.
		var userInfo apiTypes.UserByIDResponse

		url := fmt.Sprintf("https://users.roblox.com/v1/users/%d", userID)
		if err := getJSON(ctx, u.roAPI.GetClient(), url, nil, &userInfo); err != nil {
			return err
		}

		profile.UserInfo = &userInfo

		return nil
	})

	p.Go(func(ctx context.Context) error {
		groups, err := u.fetchUserGroups(ctx, userID)
		if err != nil {
			u.logger.Warn("Error fetching user groups for profile",
				zap.Uint64("userID", userID),
				zap.Error(err))

			return nil
		}

		profile.UserGroups = groups

		return nil
	})

	if err := p.Wait(); err != nil {
		return nil, err
	}

	return profile, nil
}

// SearchUsers looks up users by keyword. The caller validates the minimum
// query length.
func (u *UserFetcher) SearchUsers(ctx context.Context, query string, limit int) ([]SearchedUser, error) {
	ctx = context.WithValue(ctx, auth.KeyAddCookie, true)

	var result userSearchResponse

	err := getJSON(ctx, u.roAPI.GetClient(), "https://users.roblox.com/v1/users/search", map[string]string{
		"keyword": strings.TrimSpace(query),
		"limit":   strconv.Itoa(limit),
	}, &result)
	if err != nil {
		return nil, err
	}

	u.logger.Debug("Finished user search",
		zap.String("query", query),
		zap.Int("results", len(result.Data)))

	return result.Data, nil
}

func (u *UserFetcher) fetchUserGroups(ctx context.Context, userID uint64) ([]*apiTypes.UserGroupRoles, error) {
	builder := groupsBuilderForUser(userID)

	fetchedGroups, err := u.roAPI.Groups().GetUserGroupRoles(ctx, builder.Build())
	if err != nil {
		return nil, err
	}

	groupsData := make([]*apiTypes.UserGroupRoles, 0, len(fetchedGroups.Data))
	for _, group := range fetchedGroups.Data {
		groupsData = append(groupsData, &group)
	}

	return groupsData, nil
}
