package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/radarlink/radarlink/internal/logger"
	"github.com/radarlink/radarlink/internal/service"
	"github.com/radarlink/radarlink/models"
)

const (
	msgHint             = "Use /start to open the menu."
	msgUnknownCommand   = "Unknown command. Use /start."
	msgInternalError    = "Something went wrong, please try again."
	msgNotAllowed       = "You are not allowed to do that."
	msgCancelled        = "Cancelled."
	msgAskUsername      = "Send your RadarGame username."
	msgAskPassword      = "Now send the password. The message will be removed right away."
	msgDuplicateAccount = "That account is already linked. Use /start to link another one."
	msgLoginFailed      = "RadarGame rejected the credentials. Use /start to try again."
	msgFlowExpired      = "That took too long, the linking was dropped. Use /start to begin again."
	msgNoActiveAccount  = "Link an account first."
	msgNoServers        = "No servers are available right now, try again later."
)

func (r *Router) sendMainMenu(ctx context.Context, chatID int64) {
	menu := Message{
		Text: "radarlink " + r.version,
		Keyboard: [][]Button{
			{{Label: "New config", Payload: Command{Kind: CmdNewConfig}.Payload()}},
			{{Label: "My accounts", Payload: Command{Kind: CmdAccountsPage, Page: 1}.Payload()}},
			{{Label: "Link account", Payload: Command{Kind: CmdNewAccount}.Payload()}},
		},
	}
	if err := r.transport.SendMessage(ctx, chatID, menu); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Msg("failed to send main menu")
	}
}

// showAccountsPage renders one selector page. Callback-triggered renders
// repaint the existing message instead of stacking a new one.
func (r *Router) showAccountsPage(ctx context.Context, upd Update, page int, edit bool) {
	accounts, err := r.services.Accounts.ListPage(ctx, upd.UserID, page)
	if err != nil {
		logger.FromContext(ctx).Err(err).Msg("failed to list accounts page")
		r.reply(ctx, upd.ChatID, msgInternalError)
		return
	}

	msg := renderAccountsPage(accounts)
	if edit {
		if err = r.transport.EditMessage(ctx, upd.ChatID, upd.MessageID, msg); err == nil {
			return
		}
		// repaint can fail on a stale message, fall through to a fresh one
	}
	if err = r.transport.SendMessage(ctx, upd.ChatID, msg); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Msg("failed to send accounts page")
	}
}

func renderAccountsPage(page models.AccountPage) Message {
	if len(page.Items) == 0 {
		return Message{
			Text: "No linked accounts yet.",
			Keyboard: [][]Button{
				{{Label: "Link account", Payload: Command{Kind: CmdNewAccount}.Payload()}},
			},
		}
	}

	var rows [][]Button
	for _, account := range page.Items {
		label := account.Username
		if account.IsActive {
			label = "* " + label
		}
		rows = append(rows, []Button{
			{Label: label, Payload: Command{Kind: CmdSetActive, Username: account.Username, Page: page.Page}.Payload()},
			{Label: "remove", Payload: Command{Kind: CmdRemoveAccount, Username: account.Username, Page: page.Page}.Payload()},
		})
	}

	var pager []Button
	if page.Page > 1 {
		pager = append(pager, Button{Label: "<", Payload: Command{Kind: CmdAccountsPage, Page: page.Page - 1}.Payload()})
	}
	if page.Page < page.PageCount {
		pager = append(pager, Button{Label: ">", Payload: Command{Kind: CmdAccountsPage, Page: page.Page + 1}.Payload()})
	}
	if len(pager) > 0 {
		rows = append(rows, pager)
	}

	return Message{
		Text:     fmt.Sprintf("Linked accounts, page %d/%d. The active one is marked with *.", page.Page, page.PageCount),
		Keyboard: rows,
	}
}

func (r *Router) setActiveAccount(ctx context.Context, upd Update, cmd Command) {
	if err := r.services.Accounts.SetActive(ctx, upd.UserID, cmd.Username); err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			r.reply(ctx, upd.ChatID, "That account is not yours anymore.")
		} else {
			logger.FromContext(ctx).Err(err).Msg("failed to set active account")
			r.reply(ctx, upd.ChatID, msgInternalError)
		}
		return
	}

	r.showAccountsPage(ctx, upd, cmd.Page, true)
}

func (r *Router) removeAccount(ctx context.Context, upd Update, cmd Command) {
	if err := r.services.Accounts.Remove(ctx, upd.UserID, cmd.Username); err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			r.reply(ctx, upd.ChatID, "That account is not yours anymore.")
		} else {
			logger.FromContext(ctx).Err(err).Msg("failed to remove account")
			r.reply(ctx, upd.ChatID, msgInternalError)
		}
		return
	}

	r.showAccountsPage(ctx, upd, cmd.Page, true)
}

func (r *Router) deleteAllAccounts(ctx context.Context, upd Update) {
	count, err := r.services.Accounts.RemoveAll(ctx, upd.UserID)
	if err != nil {
		logger.FromContext(ctx).Err(err).Msg("failed to delete all accounts")
		r.reply(ctx, upd.ChatID, msgInternalError)
		return
	}

	r.reply(ctx, upd.ChatID, fmt.Sprintf("Removed %d linked account(s).", count))
}

// startConfigIssue opens the server choice for the active account.
func (r *Router) startConfigIssue(ctx context.Context, upd Update) {
	account, err := r.services.Accounts.Active(ctx, upd.UserID)
	if err != nil {
		if errors.Is(err, service.ErrNoActiveAccount) {
			r.reply(ctx, upd.ChatID, msgNoActiveAccount)
		} else {
			logger.FromContext(ctx).Err(err).Msg("failed to load active account")
			r.reply(ctx, upd.ChatID, msgInternalError)
		}
		return
	}

	servers, err := r.services.Sessions.Servers(ctx, account)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoServers):
			r.reply(ctx, upd.ChatID, msgNoServers)
		case errors.Is(err, service.ErrLoginFailed):
			r.reply(ctx, upd.ChatID, msgLoginFailed)
		default:
			logger.FromContext(ctx).Err(err).Msg("failed to list servers")
			r.reply(ctx, upd.ChatID, msgInternalError)
		}
		return
	}

	var rows [][]Button
	for _, server := range servers {
		label := server.Location
		if server.LoadPercentage != nil {
			label = fmt.Sprintf("%s (%.0f%%)", server.Location, *server.LoadPercentage)
		}
		rows = append(rows, []Button{{
			Label:   label,
			Payload: Command{Kind: CmdChooseServer, ServerID: server.ID}.Payload(),
		}})
	}

	err = r.transport.SendMessage(ctx, upd.ChatID, Message{Text: "Choose a server:", Keyboard: rows})
	if err != nil {
		logger.FromContext(ctx).Warn().Err(err).Msg("failed to send server choice")
	}
}

// chooseServer remembers the chosen server and opens the DNS choice.
func (r *Router) chooseServer(ctx context.Context, upd Update, serverID int64) {
	r.setPendingServer(upd.UserID, serverID)

	rows := [][]Button{}
	for i, profile := range r.dns.Profiles() {
		rows = append(rows, []Button{{
			Label:   profile.Name,
			Payload: Command{Kind: CmdChooseDNS, DNSIndex: i}.Payload(),
		}})
	}
	rows = append(rows, []Button{{Label: "Default DNS", Payload: Command{Kind: CmdSkipDNS}.Payload()}})

	err := r.transport.SendMessage(ctx, upd.ChatID, Message{Text: "Choose DNS:", Keyboard: rows})
	if err != nil {
		logger.FromContext(ctx).Warn().Err(err).Msg("failed to send dns choice")
	}
}

// issueConfig completes the flow: fetch the payload, build the artifact,
// ship it, bump the usage counter and notify the owners.
func (r *Router) issueConfig(ctx context.Context, upd Update, profile *models.DNSProfile) {
	log := logger.FromContext(ctx)

	serverID, ok := r.takePendingServer(upd.UserID)
	if !ok {
		r.reply(ctx, upd.ChatID, "Pick a server first.")
		return
	}

	account, err := r.services.Accounts.Active(ctx, upd.UserID)
	if err != nil {
		r.reply(ctx, upd.ChatID, msgNoActiveAccount)
		return
	}

	payload, err := r.services.Sessions.AccountPayload(ctx, account, serverID)
	if err != nil {
		log.Err(err).Msg("failed to fetch account payload")
		r.reply(ctx, upd.ChatID, msgLoginFailed)
		return
	}

	path, err := r.services.Configs.Build(ctx, payload, profile)
	if err != nil {
		log.Err(err).Msg("failed to build config artifact")
		r.reply(ctx, upd.ChatID, msgInternalError)
		return
	}

	if err = r.transport.SendDocument(ctx, upd.ChatID, path); err != nil {
		log.Err(err).Str("path", path).Msg("failed to deliver config artifact")
		r.reply(ctx, upd.ChatID, msgInternalError)
		return
	}

	if err = r.services.Users.AddUsage(ctx, upd.UserID); err != nil {
		log.Warn().Err(err).Msg("failed to bump usage counter")
	}

	r.notifyOwners(ctx, upd.UserID, func(t service.NotificationToggles) bool { return t.NotifyNewConfig },
		fmt.Sprintf("config issued for user %d (%s)", upd.UserID, account.Username))
}

func (r *Router) showProfile(ctx context.Context, upd Update) {
	stats, err := r.services.Users.Stats(ctx, upd.UserID)
	if err != nil {
		logger.FromContext(ctx).Err(err).Msg("failed to load profile stats")
		r.reply(ctx, upd.ChatID, msgInternalError)
		return
	}

	r.reply(ctx, upd.ChatID, fmt.Sprintf(
		"%s\nLinked accounts: %d\nConfigs issued: %d",
		displayName(stats.User), stats.AccountCount, stats.User.UsageCount,
	))
}

func (r *Router) showGlobalStats(ctx context.Context, upd Update) {
	stats, err := r.services.Users.GlobalStats(ctx)
	if err != nil {
		logger.FromContext(ctx).Err(err).Msg("failed to load global stats")
		r.reply(ctx, upd.ChatID, msgInternalError)
		return
	}

	toggles := r.services.Moderation.Toggles()
	msg := Message{
		Text: fmt.Sprintf(
			"Users: %d\nLinked accounts: %d\nBanned: %d\nActive today: %d",
			stats.TotalUsers, stats.TotalAccounts, stats.BannedUsers, stats.ActiveToday,
		),
		Keyboard: [][]Button{
			{{Label: toggleLabel("notify new user", toggles.NotifyNewUser), Payload: Command{Kind: CmdToggleNotifyUser}.Payload()}},
			{{Label: toggleLabel("notify new config", toggles.NotifyNewConfig), Payload: Command{Kind: CmdToggleNotifyConfig}.Payload()}},
		},
	}
	if err = r.transport.SendMessage(ctx, upd.ChatID, msg); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Msg("failed to send global stats")
	}
}

func toggleLabel(name string, on bool) string {
	if on {
		return name + ": on"
	}
	return name + ": off"
}

func (r *Router) toggleNotification(ctx context.Context, upd Update, kind CommandKind) {
	toggles := r.services.Moderation.Toggles()
	switch kind {
	case CmdToggleNotifyUser:
		toggles.NotifyNewUser = !toggles.NotifyNewUser
	case CmdToggleNotifyConfig:
		toggles.NotifyNewConfig = !toggles.NotifyNewConfig
	}
	r.services.Moderation.SetToggles(toggles)

	r.showGlobalStats(ctx, upd)
}

func (r *Router) showUsersPage(ctx context.Context, upd Update, page int, edit bool) {
	users, err := r.services.Users.PageUsers(ctx, page)
	if err != nil {
		logger.FromContext(ctx).Err(err).Msg("failed to load users page")
		r.reply(ctx, upd.ChatID, msgInternalError)
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Users, page %d/%d:\n", users.Page, users.PageCount)
	for _, user := range users.Items {
		flag := ""
		if user.Banned {
			flag = " [banned]"
		}
		fmt.Fprintf(&b, "%d  %s%s\n", user.UserID, displayName(user), flag)
	}

	var pager []Button
	if users.Page > 1 {
		pager = append(pager, Button{Label: "<", Payload: Command{Kind: CmdAdminUsersPage, Page: users.Page - 1}.Payload()})
	}
	if users.Page < users.PageCount {
		pager = append(pager, Button{Label: ">", Payload: Command{Kind: CmdAdminUsersPage, Page: users.Page + 1}.Payload()})
	}

	msg := Message{Text: b.String()}
	if len(pager) > 0 {
		msg.Keyboard = [][]Button{pager}
	}

	if edit {
		if err = r.transport.EditMessage(ctx, upd.ChatID, upd.MessageID, msg); err == nil {
			return
		}
	}
	if err = r.transport.SendMessage(ctx, upd.ChatID, msg); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Msg("failed to send users page")
	}
}

func (r *Router) setBan(ctx context.Context, upd Update, banned bool) {
	key := strings.TrimSpace(upd.CommandArgs)
	if key == "" {
		r.reply(ctx, upd.ChatID, "Usage: /"+upd.Command+" <id | @handle | hash>")
		return
	}

	user, err := r.services.Users.SetBan(ctx, key, banned)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			r.reply(ctx, upd.ChatID, "No such user.")
		} else {
			logger.FromContext(ctx).Err(err).Msg("failed to set ban")
			r.reply(ctx, upd.ChatID, msgInternalError)
		}
		return
	}

	verb := "Unbanned"
	if banned {
		verb = "Banned"
	}
	r.reply(ctx, upd.ChatID, fmt.Sprintf("%s %s.", verb, displayName(user)))
}

func (r *Router) broadcast(ctx context.Context, upd Update) {
	text := strings.TrimSpace(upd.CommandArgs)
	if text == "" {
		r.reply(ctx, upd.ChatID, "Usage: /broadcast <text>")
		return
	}

	result, err := r.services.Broadcast.Broadcast(ctx, text)
	if err != nil {
		logger.FromContext(ctx).Err(err).Msg("broadcast failed")
		r.reply(ctx, upd.ChatID, msgInternalError)
		return
	}

	r.reply(ctx, upd.ChatID, fmt.Sprintf("Broadcast done: %d sent, %d failed.", result.Sent, result.Failed))
}

func (r *Router) sendDirect(ctx context.Context, upd Update) {
	key, text, ok := strings.Cut(strings.TrimSpace(upd.CommandArgs), " ")
	if !ok || strings.TrimSpace(text) == "" {
		r.reply(ctx, upd.ChatID, "Usage: /send <id | @handle | hash> <text>")
		return
	}

	if err := r.services.Broadcast.SendTo(ctx, key, strings.TrimSpace(text)); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			r.reply(ctx, upd.ChatID, "No such user.")
		} else {
			logger.FromContext(ctx).Err(err).Msg("direct send failed")
			r.reply(ctx, upd.ChatID, msgInternalError)
		}
		return
	}

	r.reply(ctx, upd.ChatID, "Delivered.")
}

func (r *Router) reloadDNS(ctx context.Context, upd Update) {
	if _, err := r.dns.Reload(); err != nil {
		logger.FromContext(ctx).Err(err).Msg("dns reload failed")
		r.reply(ctx, upd.ChatID, "Reload failed, the previous profiles stay in effect.")
		return
	}

	r.reply(ctx, upd.ChatID, fmt.Sprintf("Reloaded %d DNS profile(s).", len(r.dns.Profiles())))
}
