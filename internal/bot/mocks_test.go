package bot

import (
	"context"
	"errors"

	"github.com/radarlink/radarlink/models"
)

var errDelivery = errors.New("delivery failed")

// ─────────────────────────────────────────────
// Mock: ChatTransport
// ─────────────────────────────────────────────

type sentText struct {
	chatID int64
	text   string
}

type sentMessage struct {
	chatID int64
	msg    Message
}

type mockTransport struct {
	texts     []sentText
	messages  []sentMessage
	documents []string
	edited    []sentMessage
	deleted   []int

	failSends bool
	updates   chan Update
}

func newMockTransport() *mockTransport {
	return &mockTransport{updates: make(chan Update, 8)}
}

func (m *mockTransport) SendText(ctx context.Context, chatID int64, text string) error {
	if m.failSends {
		return errDelivery
	}
	m.texts = append(m.texts, sentText{chatID: chatID, text: text})
	return nil
}

func (m *mockTransport) SendMessage(ctx context.Context, chatID int64, msg Message) error {
	if m.failSends {
		return errDelivery
	}
	m.messages = append(m.messages, sentMessage{chatID: chatID, msg: msg})
	return nil
}

func (m *mockTransport) SendDocument(ctx context.Context, chatID int64, path string) error {
	if m.failSends {
		return errDelivery
	}
	m.documents = append(m.documents, path)
	return nil
}

func (m *mockTransport) EditMessage(ctx context.Context, chatID int64, messageID int, msg Message) error {
	if m.failSends {
		return errDelivery
	}
	m.edited = append(m.edited, sentMessage{chatID: chatID, msg: msg})
	return nil
}

func (m *mockTransport) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	m.deleted = append(m.deleted, messageID)
	return nil
}

func (m *mockTransport) Updates(ctx context.Context) (<-chan Update, error) {
	return m.updates, nil
}

func (m *mockTransport) lastText() string {
	if len(m.texts) == 0 {
		return ""
	}
	return m.texts[len(m.texts)-1].text
}

// ─────────────────────────────────────────────
// Mock: service.UserService
// ─────────────────────────────────────────────

type mockUserService struct {
	ensureUserFn func(ctx context.Context, user models.User) (models.User, bool, error)
	setBanFn     func(ctx context.Context, key string, banned bool) (models.User, error)
	statsFn      func(ctx context.Context, userID int64) (models.UserStats, error)
	pageUsersFn  func(ctx context.Context, page int) (models.UserPage, error)

	usageAdds int
}

func (m *mockUserService) EnsureUser(ctx context.Context, user models.User) (models.User, bool, error) {
	if m.ensureUserFn != nil {
		return m.ensureUserFn(ctx, user)
	}
	// an established, unbanned user by default
	user.CreatedAt = 100
	user.LastActive = 200
	user.UsageCount = 1
	return user, false, nil
}

func (m *mockUserService) Find(ctx context.Context, key string) (models.User, error) {
	return models.User{}, nil
}

func (m *mockUserService) PageUsers(ctx context.Context, page int) (models.UserPage, error) {
	if m.pageUsersFn != nil {
		return m.pageUsersFn(ctx, page)
	}
	return models.UserPage{Page: 1, PageCount: 1}, nil
}

func (m *mockUserService) Stats(ctx context.Context, userID int64) (models.UserStats, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx, userID)
	}
	return models.UserStats{User: models.User{UserID: userID}}, nil
}

func (m *mockUserService) GlobalStats(ctx context.Context) (models.GlobalStats, error) {
	return models.GlobalStats{}, nil
}

func (m *mockUserService) SetBan(ctx context.Context, key string, banned bool) (models.User, error) {
	if m.setBanFn != nil {
		return m.setBanFn(ctx, key, banned)
	}
	return models.User{Banned: banned}, nil
}

func (m *mockUserService) AddUsage(ctx context.Context, userID int64) error {
	m.usageAdds++
	return nil
}

// ─────────────────────────────────────────────
// Mock: service.AccountService
// ─────────────────────────────────────────────

type mockAccountService struct {
	registerFn  func(ctx context.Context, userID int64, username, password string) (models.LinkedAccount, error)
	listPageFn  func(ctx context.Context, userID int64, page int) (models.AccountPage, error)
	setActiveFn func(ctx context.Context, userID int64, username string) error
	activeFn    func(ctx context.Context, userID int64) (models.LinkedAccount, error)
	removeFn    func(ctx context.Context, userID int64, username string) error
	removeAllFn func(ctx context.Context, userID int64) (int64, error)
}

func (m *mockAccountService) Register(ctx context.Context, userID int64, username, password string) (models.LinkedAccount, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, userID, username, password)
	}
	return models.LinkedAccount{UserID: userID, Username: username, IsActive: true}, nil
}

func (m *mockAccountService) ListPage(ctx context.Context, userID int64, page int) (models.AccountPage, error) {
	if m.listPageFn != nil {
		return m.listPageFn(ctx, userID, page)
	}
	return models.AccountPage{Page: 1, PageCount: 1}, nil
}

func (m *mockAccountService) SetActive(ctx context.Context, userID int64, username string) error {
	if m.setActiveFn != nil {
		return m.setActiveFn(ctx, userID, username)
	}
	return nil
}

func (m *mockAccountService) Active(ctx context.Context, userID int64) (models.LinkedAccount, error) {
	if m.activeFn != nil {
		return m.activeFn(ctx, userID)
	}
	return models.LinkedAccount{UserID: userID, Username: "radar-player", IsActive: true}, nil
}

func (m *mockAccountService) Remove(ctx context.Context, userID int64, username string) error {
	if m.removeFn != nil {
		return m.removeFn(ctx, userID, username)
	}
	return nil
}

func (m *mockAccountService) RemoveAll(ctx context.Context, userID int64) (int64, error) {
	if m.removeAllFn != nil {
		return m.removeAllFn(ctx, userID)
	}
	return 0, nil
}

// ─────────────────────────────────────────────
// Mock: service.SessionService
// ─────────────────────────────────────────────

type mockSessionService struct {
	serversFn func(ctx context.Context, account models.LinkedAccount) ([]models.Server, error)
	payloadFn func(ctx context.Context, account models.LinkedAccount, serverID int64) (models.AccountPayload, error)
}

func (m *mockSessionService) Token(ctx context.Context, account models.LinkedAccount) (string, error) {
	return "jwt-token", nil
}

func (m *mockSessionService) Servers(ctx context.Context, account models.LinkedAccount) ([]models.Server, error) {
	if m.serversFn != nil {
		return m.serversFn(ctx, account)
	}
	return nil, nil
}

func (m *mockSessionService) AccountPayload(ctx context.Context, account models.LinkedAccount, serverID int64) (models.AccountPayload, error) {
	if m.payloadFn != nil {
		return m.payloadFn(ctx, account, serverID)
	}
	return models.AccountPayload{}, nil
}

// ─────────────────────────────────────────────
// Mock: service.ConfigService
// ─────────────────────────────────────────────

type mockConfigService struct {
	buildFn func(ctx context.Context, payload models.AccountPayload, profile *models.DNSProfile) (string, error)

	builds int
}

func (m *mockConfigService) Build(ctx context.Context, payload models.AccountPayload, profile *models.DNSProfile) (string, error) {
	m.builds++
	if m.buildFn != nil {
		return m.buildFn(ctx, payload, profile)
	}
	return "/tmp/radar-ABCDEFGH.conf", nil
}

// ─────────────────────────────────────────────
// Mock: service.BroadcastService
// ─────────────────────────────────────────────

type mockBroadcastService struct {
	broadcastFn func(ctx context.Context, text string) (models.BroadcastResult, error)
	sendToFn    func(ctx context.Context, key, text string) error
}

func (m *mockBroadcastService) Broadcast(ctx context.Context, text string) (models.BroadcastResult, error) {
	if m.broadcastFn != nil {
		return m.broadcastFn(ctx, text)
	}
	return models.BroadcastResult{}, nil
}

func (m *mockBroadcastService) SendTo(ctx context.Context, key, text string) error {
	if m.sendToFn != nil {
		return m.sendToFn(ctx, key, text)
	}
	return nil
}
