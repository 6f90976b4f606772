package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/radarlink/radarlink/internal/config"
	"github.com/radarlink/radarlink/internal/logger"
	"github.com/radarlink/radarlink/internal/service"
	"github.com/radarlink/radarlink/models"
)

// Router consumes the transport's update stream and dispatches every event
// to the matching service call. One update is handled at a time per
// delivery; per-user scratch state (the server chosen while the DNS choice
// is still open) lives here.
type Router struct {
	transport ChatTransport
	services  *service.Services
	dns       *config.DNSList
	version   string

	mu            sync.Mutex
	pendingServer map[int64]int64

	logger *logger.Logger
}

func NewRouter(transport ChatTransport, services *service.Services, dns *config.DNSList, cfg config.App, logger *logger.Logger) *Router {
	return &Router{
		transport:     transport,
		services:      services,
		dns:           dns,
		version:       cfg.Version,
		pendingServer: make(map[int64]int64),
		logger:        logger,
	}
}

// Run consumes updates until ctx is done or the stream closes. A panic or
// error in one update never stops the loop.
func (r *Router) Run(ctx context.Context) error {
	updates, err := r.transport.Updates(ctx)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			r.handleUpdate(ctx, upd)
		}
	}
}

func (r *Router) handleUpdate(ctx context.Context, upd Update) {
	log := &logger.Logger{Logger: r.logger.With().
		Str("trace_id", uuid.NewString()).
		Int64("user_id", upd.UserID).
		Logger()}
	ctx = log.WithContext(ctx)

	user, created, err := r.services.Users.EnsureUser(ctx, models.User{
		UserID: upd.UserID,
		Handle: upd.Handle,
		Name:   upd.Name,
	})
	if err != nil {
		log.Err(err).Msg("failed to ensure user")
		r.reply(ctx, upd.ChatID, msgInternalError)
		return
	}

	if created {
		r.notifyOwners(ctx, upd.UserID, func(t service.NotificationToggles) bool { return t.NotifyNewUser },
			"new user: "+displayName(user))
	}

	if err = r.services.Moderation.CanUse(user); err != nil {
		log.Info().Msg("banned user dropped")
		return
	}

	switch {
	case upd.Command != "":
		r.handleCommand(ctx, upd, user)
	case upd.Callback != "":
		r.handleCallback(ctx, upd, user)
	case upd.Text != "":
		r.handleText(ctx, upd)
	}
}

func (r *Router) handleCommand(ctx context.Context, upd Update, user models.User) {
	log := logger.FromContext(ctx)

	switch upd.Command {
	case "start":
		r.services.Registration.Cancel(upd.UserID)
		r.sendMainMenu(ctx, upd.ChatID)
	case "cancel":
		r.services.Registration.Cancel(upd.UserID)
		r.clearPendingServer(upd.UserID)
		r.reply(ctx, upd.ChatID, msgCancelled)
	case "dev", "version":
		r.reply(ctx, upd.ChatID, "radarlink "+r.version)
	case "me":
		r.showProfile(ctx, upd)
	case "delete_all":
		r.deleteAllAccounts(ctx, upd)

	case "stats":
		if r.denyNonAdmin(ctx, upd, user) {
			return
		}
		r.showGlobalStats(ctx, upd)
	case "users":
		if r.denyNonAdmin(ctx, upd, user) {
			return
		}
		r.showUsersPage(ctx, upd, 1, false)
	case "ban", "unban":
		if r.denyNonAdmin(ctx, upd, user) {
			return
		}
		r.setBan(ctx, upd, upd.Command == "ban")
	case "broadcast":
		if r.denyNonAdmin(ctx, upd, user) {
			return
		}
		r.broadcast(ctx, upd)
	case "send":
		if r.denyNonAdmin(ctx, upd, user) {
			return
		}
		r.sendDirect(ctx, upd)
	case "reload_dns":
		if r.denyNonAdmin(ctx, upd, user) {
			return
		}
		r.reloadDNS(ctx, upd)

	default:
		log.Debug().Str("command", upd.Command).Msg("unknown command")
		r.reply(ctx, upd.ChatID, msgUnknownCommand)
	}
}

func (r *Router) handleCallback(ctx context.Context, upd Update, user models.User) {
	log := logger.FromContext(ctx)

	cmd, err := ParseCommand(upd.Callback)
	if err != nil {
		log.Warn().Str("payload", upd.Callback).Msg("malformed callback payload")
		return
	}

	switch cmd.Kind {
	case CmdNewAccount:
		r.services.Registration.Begin(upd.UserID)
		r.reply(ctx, upd.ChatID, msgAskUsername)
	case CmdCancel:
		r.services.Registration.Cancel(upd.UserID)
		r.clearPendingServer(upd.UserID)
		r.reply(ctx, upd.ChatID, msgCancelled)

	case CmdAccountsPage:
		r.showAccountsPage(ctx, upd, cmd.Page, true)
	case CmdSetActive:
		r.setActiveAccount(ctx, upd, cmd)
	case CmdRemoveAccount:
		r.removeAccount(ctx, upd, cmd)

	case CmdNewConfig:
		r.startConfigIssue(ctx, upd)
	case CmdChooseServer:
		r.chooseServer(ctx, upd, cmd.ServerID)
	case CmdChooseDNS:
		profile, ok := r.dns.Profile(cmd.DNSIndex)
		if !ok {
			r.reply(ctx, upd.ChatID, msgInternalError)
			return
		}
		r.issueConfig(ctx, upd, &profile)
	case CmdSkipDNS:
		r.issueConfig(ctx, upd, nil)

	case CmdAdminUsersPage:
		if r.denyNonAdmin(ctx, upd, user) {
			return
		}
		r.showUsersPage(ctx, upd, cmd.Page, true)
	case CmdToggleNotifyUser, CmdToggleNotifyConfig:
		if r.denyNonAdmin(ctx, upd, user) {
			return
		}
		r.toggleNotification(ctx, upd, cmd.Kind)
	}
}

// handleText feeds free text into the registration flow; outside a flow
// the text is answered with a hint.
func (r *Router) handleText(ctx context.Context, upd Update) {
	step, err := r.services.Registration.Input(ctx, upd.UserID, upd.ChatID, upd.MessageID, upd.Text)
	if err != nil {
		if errors.Is(err, service.ErrNoRegistrationFlow) {
			r.reply(ctx, upd.ChatID, msgHint)
			return
		}
		logger.FromContext(ctx).Err(err).Msg("registration input failed")
		r.reply(ctx, upd.ChatID, msgInternalError)
		return
	}

	switch step.Kind {
	case service.StepPromptPassword:
		r.reply(ctx, upd.ChatID, msgAskPassword)
	case service.StepDuplicate:
		r.reply(ctx, upd.ChatID, msgDuplicateAccount)
	case service.StepLoginFailed:
		r.reply(ctx, upd.ChatID, msgLoginFailed)
	case service.StepExpired:
		r.reply(ctx, upd.ChatID, msgFlowExpired)
	case service.StepCompleted:
		r.reply(ctx, upd.ChatID, "Linked "+step.Account.Username+". It is now your active account.")
		r.sendMainMenu(ctx, upd.ChatID)
	}
}

func (r *Router) denyNonAdmin(ctx context.Context, upd Update, user models.User) bool {
	if err := r.services.Moderation.CanModerate(user); err != nil {
		r.reply(ctx, upd.ChatID, msgNotAllowed)
		return true
	}
	return false
}

func (r *Router) reply(ctx context.Context, chatID int64, text string) {
	if err := r.transport.SendText(ctx, chatID, text); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Msg("failed to send reply")
	}
}

// notifyOwners fans a short note out to the configured owners when the
// matching toggle is on. Never fails the triggering operation.
func (r *Router) notifyOwners(ctx context.Context, aboutUserID int64, enabled func(service.NotificationToggles) bool, text string) {
	if !enabled(r.services.Moderation.Toggles()) {
		return
	}

	for _, ownerID := range r.services.Moderation.OwnerIDs() {
		if ownerID == aboutUserID {
			continue
		}
		if err := r.transport.SendText(ctx, ownerID, text); err != nil {
			logger.FromContext(ctx).Warn().Err(err).Int64("owner_id", ownerID).Msg("owner notification failed")
		}
	}
}

func (r *Router) setPendingServer(userID, serverID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pendingServer[userID] = serverID
}

func (r *Router) takePendingServer(userID int64) (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.pendingServer[userID]
	delete(r.pendingServer, userID)
	return id, ok
}

func (r *Router) clearPendingServer(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pendingServer, userID)
}

func displayName(user models.User) string {
	parts := make([]string, 0, 2)
	if user.Name != "" {
		parts = append(parts, user.Name)
	}
	if user.Handle != "" {
		parts = append(parts, "@"+user.Handle)
	}
	if len(parts) == 0 {
		return "id " + strconv.FormatInt(user.UserID, 10)
	}
	return strings.Join(parts, " ")
}
