package types

import "time"

// AutomationRule is a moderation rule configured by group admins.
// Rules are opaque to the suspension sweep; they are evaluated by the
// dashboard when moderators assign points.
type AutomationRule struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Points int    `json:"points"`
	Action string `json:"action,omitempty"`
}

// UserPoints tracks accumulated rule-violation points for one group member.
type UserPoints struct {
	UserID   uint64 `json:"userId"`
	Username string `json:"username"`
	Points   int    `json:"points"`
}

// SuspendedRole describes the group role that suspended members are demoted to.
type SuspendedRole struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// Suspension is a temporary role demotion. It is created when a member is
// suspended and removed when the sweep restores the previous role or when a
// moderator lifts it manually. Timestamps are epoch milliseconds.
type Suspension struct {
	UserID           uint64 `json:"userId"`
	Username         string `json:"username"`
	PreviousRoleID   uint64 `json:"previousRoleId"`
	PreviousRoleName string `json:"previousRoleName"`
	SuspendedAt      int64  `json:"suspendedAt"`
	ExpiresAt        int64  `json:"expiresAt"`
}

// Expired reports whether the suspension has expired at the given time.
func (s *Suspension) Expired(now time.Time) bool {
	return s.ExpiresAt <= now.UnixMilli()
}

// GroupAutomation is the per-group moderation state document, keyed by the
// group id in the groupAutomation collection.
type GroupAutomation struct {
	GroupID       string           `json:"groupId"`
	Rules         []AutomationRule `json:"rules"`
	Points        []UserPoints     `json:"points"`
	SuspendedRole *SuspendedRole   `json:"suspendedRole,omitempty"`
	Suspensions   []Suspension     `json:"suspensions"`
	SubGroupIDs   []string         `json:"subGroupIds,omitempty"`
}

// PartitionSuspensions splits the suspension list into entries expired at the
// given time and entries still pending. Order within each partition is preserved.
func (a *GroupAutomation) PartitionSuspensions(now time.Time) (expired, pending []Suspension) {
	for _, s := range a.Suspensions {
		if s.Expired(now) {
			expired = append(expired, s)
		} else {
			pending = append(pending, s)
		}
	}

	return expired, pending
}

// VersionedAutomation pairs a group automation document with the version it
// was read at, for compare-and-swap replaces.
type VersionedAutomation struct {
	Automation *GroupAutomation
	Version    int64
}
