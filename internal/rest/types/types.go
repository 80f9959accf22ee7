package types

import (
	"github.com/Dpatt168/RoGrouper-sub001/internal/database/types"
	"github.com/Dpatt168/RoGrouper-sub001/internal/roblox/fetcher"
)

// ErrorResponse is the JSON error body for failed requests. Upstream status
// and body are attached when a Roblox API caused the failure.
type ErrorResponse struct {
	Error          string `json:"error"`
	UpstreamStatus int    `json:"upstreamStatus,omitempty"`
	UpstreamBody   string `json:"upstreamBody,omitempty"`
}

// SuccessResponse is the minimal acknowledgement body.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// LoginResponse carries the OAuth authorization URL for the browser to follow.
type LoginResponse struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

// MeResponse describes the signed-in user.
type MeResponse struct {
	UserID      string `json:"userId"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// AdminCheckResponse reports whether the caller is a site admin.
type AdminCheckResponse struct {
	IsAdmin bool            `json:"isAdmin"`
	Debug   AdminCheckDebug `json:"debug"`
}

// AdminCheckDebug carries the identity the check ran against.
type AdminCheckDebug struct {
	UserID string `json:"userId"`
}

// SiteAdminsResponse is the admin allow-list.
type SiteAdminsResponse struct {
	Admins []string `json:"admins"`
}

// UpdateSiteAdminsRequest mutates the admin allow-list.
type UpdateSiteAdminsRequest struct {
	Action   string `json:"action"`
	RobloxID string `json:"robloxId"`
}

// PendingJoinsResponse lists queued bot join requests.
type PendingJoinsResponse struct {
	Requests []*types.PendingBotJoin `json:"requests"`
}

// PendingJoinActionRequest transitions or deletes a pending join record.
type PendingJoinActionRequest struct {
	RequestID string `json:"requestId"`
	Action    string `json:"action"`
}

// PendingJoinActionResponse acknowledges a pending join mutation.
type PendingJoinActionResponse struct {
	Success bool                    `json:"success"`
	Status  types.PendingJoinStatus `json:"status,omitempty"`
}

// JoinRequestResponse is the record created for a bot join request.
type JoinRequestResponse struct {
	Request *types.PendingBotJoin `json:"request"`
}

// BotRankResponse is the bot's standing in a group. Error is set alongside
// a zero rank when the lookup failed.
type BotRankResponse struct {
	Role  string `json:"role,omitempty"`
	Rank  int    `json:"rank"`
	Error string `json:"error,omitempty"`
}

// GroupRolesResponse is the passthrough shape of the group roles endpoint.
type GroupRolesResponse struct {
	GroupID uint64              `json:"groupId"`
	Roles   []fetcher.GroupRole `json:"roles"`
}

// UserSearchResponse is the username search result list.
type UserSearchResponse struct {
	Data []fetcher.SearchedUser `json:"data"`
}

// AvatarEntry is one resolved headshot.
type AvatarEntry struct {
	TargetID uint64 `json:"targetId"`
	ImageURL string `json:"imageUrl"`
}

// AvatarsResponse is the batch headshot lookup result.
type AvatarsResponse struct {
	Data []AvatarEntry `json:"data"`
}

// AutomationResponse is a group's automation record.
type AutomationResponse struct {
	Automation *types.GroupAutomation `json:"automation"`
}

// UpdateAutomationRequest merges changes into a group's automation record.
// Nil fields are left untouched.
type UpdateAutomationRequest struct {
	Rules         []types.AutomationRule `json:"rules"`
	Points        []types.UserPoints     `json:"points"`
	SuspendedRole *types.SuspendedRole   `json:"suspendedRole"`
	SubGroupIDs   []string               `json:"subGroupIds"`
}

// SuspendRequest demotes a member to the group's suspended role.
type SuspendRequest struct {
	UserID           uint64 `json:"userId"`
	Username         string `json:"username"`
	PreviousRoleID   uint64 `json:"previousRoleId"`
	PreviousRoleName string `json:"previousRoleName"`
	ExpiresAt        int64  `json:"expiresAt"`
}

// SweepResponse summarizes a suspension sweep run.
type SweepResponse struct {
	Processed int `json:"processed"`
	Restored  int `json:"restored"`
}

// AuditLogResponse lists recent audit entries.
type AuditLogResponse struct {
	Entries []*types.AuditLog `json:"entries"`
}
