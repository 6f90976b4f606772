// Package service holds the domain logic: account linking, session token
// exchange, config artifact building, moderation and broadcast.
package service

import (
	"github.com/radarlink/radarlink/internal/adapter"
	"github.com/radarlink/radarlink/internal/config"
	"github.com/radarlink/radarlink/internal/logger"
	"github.com/radarlink/radarlink/internal/store"
)

type Services struct {
	Users        UserService
	Accounts     AccountService
	Sessions     SessionService
	Configs      ConfigService
	Moderation   ModerationGate
	Broadcast    BroadcastService
	Registration RegistrationService
}

// NewServices wires every service to the repositories, the remote API
// client and the chat transport helpers it needs.
func NewServices(
	repos *store.Repositories,
	game adapter.GameClient,
	sender TextSender,
	deleter MessageDeleter,
	cfg *config.Config,
	logger *logger.Logger,
) *Services {
	accounts := NewAccountService(repos.Accounts, game, logger)

	return &Services{
		Users:        NewUserService(repos.Users, logger),
		Accounts:     accounts,
		Sessions:     NewSessionService(repos.Accounts, game, logger),
		Configs:      NewConfigService(cfg.Storage.Configs, logger),
		Moderation:   NewModerationGate(cfg.App),
		Broadcast:    NewBroadcastService(repos.Users, sender, logger),
		Registration: NewRegistrationService(accounts, deleter, cfg.Bot.FlowTTL, logger),
	}
}
