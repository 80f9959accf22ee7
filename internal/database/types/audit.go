package types

import "time"

// Audit log actions recorded by the dashboard.
const (
	AuditActionAdminAdded        = "admin_added"
	AuditActionAdminRemoved      = "admin_removed"
	AuditActionPendingJoinUpdate = "pending_join_updated"
	AuditActionPendingJoinDelete = "pending_join_deleted"
	AuditActionMemberSuspended   = "member_suspended"
	AuditActionSuspensionLifted  = "suspension_lifted"
	AuditActionRestoreFailed     = "suspension_restore_failed"
)

// AuditLog is a single entry in the auditLogs collection.
type AuditLog struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	ActorID   string    `json:"actorId,omitempty"`
	GroupID   string    `json:"groupId,omitempty"`
	TargetID  string    `json:"targetId,omitempty"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
