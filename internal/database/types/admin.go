package types

import (
	"errors"
	"slices"
)

var (
	// ErrAdminDuplicate is returned when adding a user already on the allow-list.
	ErrAdminDuplicate = errors.New("user is already a site admin")
	// ErrAdminNotFound is returned when removing a user not on the allow-list.
	ErrAdminNotFound = errors.New("user is not a site admin")
	// ErrAdminSelfRemoval is returned when an admin tries to remove themselves.
	ErrAdminSelfRemoval = errors.New("cannot remove yourself")
	// ErrAdminLastRemoval is returned when removal would empty the allow-list.
	ErrAdminLastRemoval = errors.New("cannot remove the last site admin")
)

// SiteAdmins is the singleton allow-list of dashboard administrators,
// stored as a single document in the siteConfig collection.
type SiteAdmins struct {
	Admins []string `json:"admins"`
}

// Contains reports whether the given Roblox user id is in the allow-list.
func (s *SiteAdmins) Contains(robloxID string) bool {
	return slices.Contains(s.Admins, robloxID)
}

// Add appends a user to the allow-list. Duplicates are rejected and leave
// the list unchanged.
func (s *SiteAdmins) Add(robloxID string) error {
	if s.Contains(robloxID) {
		return ErrAdminDuplicate
	}

	s.Admins = append(s.Admins, robloxID)

	return nil
}

// Remove takes a user off the allow-list on behalf of actorID. Self-removal,
// unknown users, and emptying the list are rejected and leave the list
// unchanged.
func (s *SiteAdmins) Remove(robloxID, actorID string) error {
	if robloxID == actorID {
		return ErrAdminSelfRemoval
	}

	if !s.Contains(robloxID) {
		return ErrAdminNotFound
	}

	if len(s.Admins) == 1 {
		return ErrAdminLastRemoval
	}

	s.Admins = slices.DeleteFunc(s.Admins, func(id string) bool {
		return id == robloxID
	})

	return nil
}
