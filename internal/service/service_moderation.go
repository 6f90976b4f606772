package service

import (
	"sync/atomic"

	"github.com/radarlink/radarlink/internal/config"
	"github.com/radarlink/radarlink/models"
)

// NotificationToggles is the runtime-switchable owner notification state.
// Readers get an immutable snapshot; updates swap the whole value.
type NotificationToggles struct {
	NotifyNewUser   bool
	NotifyNewConfig bool
}

type moderationGate struct {
	admins map[int64]struct{}
	owners map[int64]struct{}

	toggles atomic.Pointer[NotificationToggles]
}

// NewModerationGate builds the gate from the configured id lists. Owners
// are implicitly admins. Both notification toggles start enabled.
func NewModerationGate(cfg config.App) ModerationGate {
	g := &moderationGate{
		admins: make(map[int64]struct{}, len(cfg.Admins)+len(cfg.Owners)),
		owners: make(map[int64]struct{}, len(cfg.Owners)),
	}
	for _, id := range cfg.Admins {
		g.admins[id] = struct{}{}
	}
	for _, id := range cfg.Owners {
		g.owners[id] = struct{}{}
		g.admins[id] = struct{}{}
	}

	g.toggles.Store(&NotificationToggles{NotifyNewUser: true, NotifyNewConfig: true})

	return g
}

// CanUse implements [ModerationGate].
func (g *moderationGate) CanUse(user models.User) error {
	if user.Banned {
		return ErrUserBanned
	}

	return nil
}

// CanModerate implements [ModerationGate]. The ban check comes first: a
// banned id listed as admin stays rejected.
func (g *moderationGate) CanModerate(user models.User) error {
	if user.Banned {
		return ErrUserBanned
	}
	if !g.IsAdmin(user.UserID) {
		return ErrNotAdmin
	}

	return nil
}

func (g *moderationGate) IsAdmin(userID int64) bool {
	_, ok := g.admins[userID]
	return ok
}

func (g *moderationGate) IsOwner(userID int64) bool {
	_, ok := g.owners[userID]
	return ok
}

// Toggles returns the current notification snapshot.
func (g *moderationGate) Toggles() NotificationToggles {
	return *g.toggles.Load()
}

// SetToggles swaps the notification snapshot.
func (g *moderationGate) SetToggles(t NotificationToggles) {
	g.toggles.Store(&t)
}

// OwnerIDs returns the configured owner ids for notification fan-out.
func (g *moderationGate) OwnerIDs() []int64 {
	ids := make([]int64, 0, len(g.owners))
	for id := range g.owners {
		ids = append(ids, id)
	}
	return ids
}
