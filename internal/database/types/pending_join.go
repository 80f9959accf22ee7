package types

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrPendingJoinNotFound is returned when a pending join record does not exist.
	ErrPendingJoinNotFound = errors.New("pending join request not found")
	// ErrInvalidTransition is returned when a status change is not allowed
	// by the transition graph.
	ErrInvalidTransition = errors.New("invalid pending join status transition")
)

// PendingJoinStatus labels the progress of a bot join request.
type PendingJoinStatus string

const (
	PendingJoinStatusPendingCaptcha   PendingJoinStatus = "pending_captcha"
	PendingJoinStatusCaptchaCompleted PendingJoinStatus = "captcha_completed"
	PendingJoinStatusJoined           PendingJoinStatus = "joined"
	PendingJoinStatusFailed           PendingJoinStatus = "failed"
)

// statusTransitions is the legal forward-moving transition graph.
// joined and failed are terminal.
var statusTransitions = map[PendingJoinStatus][]PendingJoinStatus{
	PendingJoinStatusPendingCaptcha:   {PendingJoinStatusCaptchaCompleted, PendingJoinStatusFailed},
	PendingJoinStatusCaptchaCompleted: {PendingJoinStatusJoined, PendingJoinStatusFailed},
	PendingJoinStatusJoined:           {},
	PendingJoinStatusFailed:           {},
}

// actionTargets maps admin queue actions to the status they move a record
// to. The delete action is not listed since it removes the record instead.
var actionTargets = map[string]PendingJoinStatus{
	"mark_captcha_completed": PendingJoinStatusCaptchaCompleted,
	"mark_joined":            PendingJoinStatusJoined,
	"mark_failed":            PendingJoinStatusFailed,
}

// PendingJoinActionTarget resolves an admin queue action to its target
// status. Unknown actions report false.
func PendingJoinActionTarget(action string) (PendingJoinStatus, bool) {
	target, ok := actionTargets[action]
	return target, ok
}

// Valid reports whether the status is one of the known labels.
func (s PendingJoinStatus) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransitionTo reports whether moving from s to target is allowed.
func (s PendingJoinStatus) CanTransitionTo(target PendingJoinStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == target {
			return true
		}
	}

	return false
}

// PendingBotJoin is a queued request for the bot account to join a group,
// stored in the pendingBotJoins collection.
type PendingBotJoin struct {
	ID            string            `json:"id"`
	GroupID       uint64            `json:"groupId"`
	GroupName     string            `json:"groupName"`
	GroupIcon     string            `json:"groupIcon,omitempty"`
	RequesterID   string            `json:"requesterId"`
	RequesterName string            `json:"requesterName"`
	Status        PendingJoinStatus `json:"status"`
	Error         string            `json:"error,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// Transition moves the record to the target status, enforcing the transition
// graph and stamping the update time.
func (p *PendingBotJoin) Transition(target PendingJoinStatus, now time.Time) error {
	if !p.Status.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, target)
	}

	p.Status = target
	p.UpdatedAt = now

	return nil
}
