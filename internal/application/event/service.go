package event

import (
	"strings"
	"time"
)

type Service struct {
	repo  EventRepo
	cache Cache // optional
	clock Clock

	ttlDetails time.Duration
	ttlList    time.Duration
}

func New(
	repo EventRepo,
	clock Clock,
	cache Cache,
	ttlDetails, ttlList time.Duration,
) *Service {
	if ttlDetails == 0 {
		ttlDetails = 5 * time.Minute
	}
	if ttlList == 0 {
		ttlList = 15 * time.Second
	}

	return &Service{
		repo:       repo,
		cache:      cache,
		clock:      clock,
		ttlDetails: ttlDetails,
		ttlList:    ttlList,
	}
}

// at returns the caller's request instant, or the service clock when it has none.
func (s *Service) at(now time.Time) time.Time {
	if now.IsZero() {
		now = s.clock.Now()
	}
	return now.UTC()
}

const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

func isAdmin(role string) bool { return role == RoleAdmin }

func isStaff(role string) bool { return role == RoleModerator || role == RoleAdmin }

// Any authenticated user can host events.
func canCreate(role string) bool {
	return role == RoleUser || isStaff(role)
}

// Hosts manage their own events; admins manage everyone's.
func canManage(actorID, actorRole, ownerID string) bool {
	if isAdmin(actorRole) {
		return true
	}
	return strings.TrimSpace(actorID) != "" && actorID == ownerID
}

// Staff may read any event, hosts only their own.
func canView(actorID, actorRole, ownerID string) bool {
	return isStaff(actorRole) || canManage(actorID, actorRole, ownerID)
}
