package bot

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radarlink/radarlink/internal/config"
	"github.com/radarlink/radarlink/internal/logger"
	"github.com/radarlink/radarlink/internal/service"
	"github.com/radarlink/radarlink/models"
)

type routerFixture struct {
	router    *Router
	transport *mockTransport
	users     *mockUserService
	accounts  *mockAccountService
	sessions  *mockSessionService
	configs   *mockConfigService
	broadcast *mockBroadcastService
}

func dnsListFixture(t *testing.T) *config.DNSList {
	t.Helper()

	path := filepath.Join(t.TempDir(), "dns.json")
	payload := map[string]any{"dns_list": []models.DNSProfile{
		{Name: "AdGuard", Primary: "94.140.14.14", Secondary: "94.140.15.15"},
	}}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	list, err := config.NewDNSList(path)
	require.NoError(t, err)
	return list
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	transport := newMockTransport()
	users := &mockUserService{}
	accounts := &mockAccountService{}
	sessions := &mockSessionService{}
	configs := &mockConfigService{}
	broadcast := &mockBroadcastService{}

	services := &service.Services{
		Users:        users,
		Accounts:     accounts,
		Sessions:     sessions,
		Configs:      configs,
		Moderation:   service.NewModerationGate(config.App{Admins: []int64{900}, Owners: []int64{999}}),
		Broadcast:    broadcast,
		Registration: service.NewRegistrationService(accounts, transport, time.Minute, logger.Nop()),
	}

	router := NewRouter(transport, services, dnsListFixture(t), config.App{Version: "1.0.0"}, logger.Nop())
	return &routerFixture{
		router:    router,
		transport: transport,
		users:     users,
		accounts:  accounts,
		sessions:  sessions,
		configs:   configs,
		broadcast: broadcast,
	}
}

func update(userID int64) Update {
	return Update{UserID: userID, ChatID: userID, MessageID: 1}
}

func TestRouter_BannedUserDropped(t *testing.T) {
	f := newRouterFixture(t)
	f.users.ensureUserFn = func(ctx context.Context, user models.User) (models.User, bool, error) {
		user.Banned = true
		user.UsageCount = 1
		user.CreatedAt, user.LastActive = 100, 200
		return user, false, nil
	}

	upd := update(42)
	upd.Command = "start"
	f.router.handleUpdate(context.Background(), upd)

	assert.Empty(t, f.transport.texts)
	assert.Empty(t, f.transport.messages)
}

func TestRouter_BannedAdminStillDropped(t *testing.T) {
	f := newRouterFixture(t)
	f.users.ensureUserFn = func(ctx context.Context, user models.User) (models.User, bool, error) {
		user.Banned = true
		user.UsageCount = 1
		user.CreatedAt, user.LastActive = 100, 200
		return user, false, nil
	}

	upd := update(900) // listed admin
	upd.Command = "stats"
	f.router.handleUpdate(context.Background(), upd)

	assert.Empty(t, f.transport.texts)
	assert.Empty(t, f.transport.messages)
}

func TestRouter_MalformedCallbackIgnored(t *testing.T) {
	f := newRouterFixture(t)

	upd := update(42)
	upd.Callback = "garbage:::"
	f.router.handleUpdate(context.Background(), upd)

	assert.Empty(t, f.transport.texts)
	assert.Empty(t, f.transport.messages)
}

func TestRouter_NonAdminDenied(t *testing.T) {
	f := newRouterFixture(t)

	upd := update(42)
	upd.Command = "stats"
	f.router.handleUpdate(context.Background(), upd)

	assert.Equal(t, msgNotAllowed, f.transport.lastText())
}

func TestRouter_NewUserNotifiesOwners(t *testing.T) {
	f := newRouterFixture(t)
	f.users.ensureUserFn = func(ctx context.Context, user models.User) (models.User, bool, error) {
		user.CreatedAt, user.LastActive = 500, 500
		return user, true, nil
	}

	upd := update(42)
	upd.Command = "start"
	f.router.handleUpdate(context.Background(), upd)

	require.NotEmpty(t, f.transport.texts)
	assert.Equal(t, int64(999), f.transport.texts[0].chatID, "the owner hears about the new user")
}

func TestRouter_SecondInteractionSameSecondDoesNotRenotify(t *testing.T) {
	f := newRouterFixture(t)
	first := true
	f.users.ensureUserFn = func(ctx context.Context, user models.User) (models.User, bool, error) {
		// both updates land within the same Unix second
		user.CreatedAt, user.LastActive = 500, 500
		created := first
		first = false
		return user, created, nil
	}

	upd := update(42)
	upd.Command = "start"
	f.router.handleUpdate(context.Background(), upd)
	f.router.handleUpdate(context.Background(), upd)

	var ownerNotes int
	for _, sent := range f.transport.texts {
		if sent.chatID == 999 {
			ownerNotes++
		}
	}
	assert.Equal(t, 1, ownerNotes, "only the first sight announces the user")
}

func TestRouter_RegistrationDialog(t *testing.T) {
	f := newRouterFixture(t)

	press := update(42)
	press.Callback = Command{Kind: CmdNewAccount}.Payload()
	f.router.handleUpdate(context.Background(), press)
	assert.Equal(t, msgAskUsername, f.transport.lastText())

	username := update(42)
	username.Text = "radar-player"
	f.router.handleUpdate(context.Background(), username)
	assert.Equal(t, msgAskPassword, f.transport.lastText())

	password := update(42)
	password.MessageID = 7
	password.Text = "hunter2"
	f.router.handleUpdate(context.Background(), password)

	assert.Contains(t, f.transport.texts[len(f.transport.texts)-1].text, "radar-player")
	assert.Equal(t, []int{7}, f.transport.deleted, "the password message is removed")
	require.NotEmpty(t, f.transport.messages, "the menu comes back after linking")
}

func TestRouter_TextOutsideFlowGetsHint(t *testing.T) {
	f := newRouterFixture(t)

	upd := update(42)
	upd.Text = "hello there"
	f.router.handleUpdate(context.Background(), upd)

	assert.Equal(t, msgHint, f.transport.lastText())
}

func TestRouter_ConfigIssueFlow(t *testing.T) {
	f := newRouterFixture(t)
	f.sessions.serversFn = func(ctx context.Context, account models.LinkedAccount) ([]models.Server, error) {
		return []models.Server{{ID: 7, Location: "Warsaw"}}, nil
	}

	start := update(42)
	start.Callback = Command{Kind: CmdNewConfig}.Payload()
	f.router.handleUpdate(context.Background(), start)

	require.NotEmpty(t, f.transport.messages)
	serverChoice := f.transport.messages[len(f.transport.messages)-1]
	require.NotEmpty(t, serverChoice.msg.Keyboard)
	assert.Equal(t, "server:7", serverChoice.msg.Keyboard[0][0].Payload)

	pick := update(42)
	pick.Callback = "server:7"
	f.router.handleUpdate(context.Background(), pick)

	dnsChoice := f.transport.messages[len(f.transport.messages)-1]
	assert.Equal(t, "dns:0", dnsChoice.msg.Keyboard[0][0].Payload)
	assert.Equal(t, "dns_skip", dnsChoice.msg.Keyboard[1][0].Payload)

	choose := update(42)
	choose.Callback = "dns:0"
	f.router.handleUpdate(context.Background(), choose)

	require.Len(t, f.transport.documents, 1, "the artifact is delivered")
	assert.Equal(t, 1, f.configs.builds)
	assert.Equal(t, 1, f.users.usageAdds, "issuance bumps the usage counter")
}

func TestRouter_DNSWithoutServerChoice(t *testing.T) {
	f := newRouterFixture(t)

	choose := update(42)
	choose.Callback = "dns_skip"
	f.router.handleUpdate(context.Background(), choose)

	assert.Empty(t, f.transport.documents)
	assert.Equal(t, "Pick a server first.", f.transport.lastText())
}

func TestRouter_NoActiveAccountForConfig(t *testing.T) {
	f := newRouterFixture(t)
	f.accounts.activeFn = func(ctx context.Context, userID int64) (models.LinkedAccount, error) {
		return models.LinkedAccount{}, service.ErrNoActiveAccount
	}

	start := update(42)
	start.Callback = Command{Kind: CmdNewConfig}.Payload()
	f.router.handleUpdate(context.Background(), start)

	assert.Equal(t, msgNoActiveAccount, f.transport.lastText())
}

func TestRouter_AdminBanByHandle(t *testing.T) {
	f := newRouterFixture(t)
	var gotKey string
	f.users.setBanFn = func(ctx context.Context, key string, banned bool) (models.User, error) {
		gotKey = key
		return models.User{UserID: 7, Handle: "bob", Banned: banned}, nil
	}

	upd := update(900)
	upd.Command = "ban"
	upd.CommandArgs = "@bob"
	f.router.handleUpdate(context.Background(), upd)

	assert.Equal(t, "@bob", gotKey)
	assert.Contains(t, f.transport.lastText(), "Banned")
}

func TestRouter_BroadcastReportsTallies(t *testing.T) {
	f := newRouterFixture(t)
	f.broadcast.broadcastFn = func(ctx context.Context, text string) (models.BroadcastResult, error) {
		assert.Equal(t, "maintenance tonight", text)
		return models.BroadcastResult{Sent: 12, Failed: 2}, nil
	}

	upd := update(900)
	upd.Command = "broadcast"
	upd.CommandArgs = "maintenance tonight"
	f.router.handleUpdate(context.Background(), upd)

	assert.Contains(t, f.transport.lastText(), "12 sent, 2 failed")
}

func TestRouter_RunStopsOnContextCancel(t *testing.T) {
	f := newRouterFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.router.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("router did not stop")
	}
}
