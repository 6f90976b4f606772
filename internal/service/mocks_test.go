package service

import (
	"context"
	"errors"

	"github.com/radarlink/radarlink/models"
)

var errContextless = errors.New("delivery failed")

// ─────────────────────────────────────────────
// Mock: store.UserRepository
// ─────────────────────────────────────────────

type mockUserRepository struct {
	upsertUserFn        func(ctx context.Context, user models.User) (models.User, bool, error)
	getUserFn           func(ctx context.Context, userID int64) (models.User, error)
	findUserByAnyFn     func(ctx context.Context, key string) (models.User, error)
	setBanFn            func(ctx context.Context, userID int64, banned bool) error
	addUsageFn          func(ctx context.Context, userID int64) error
	pageUsersFn         func(ctx context.Context, limit, offset int) ([]models.User, error)
	countUsersFn        func(ctx context.Context) (int64, error)
	listActiveUserIDsFn func(ctx context.Context) ([]int64, error)
	statsForUserFn      func(ctx context.Context, userID int64) (models.UserStats, error)
	globalStatsFn       func(ctx context.Context, todayStart int64) (models.GlobalStats, error)
}

func (m *mockUserRepository) UpsertUser(ctx context.Context, user models.User) (models.User, bool, error) {
	if m.upsertUserFn != nil {
		return m.upsertUserFn(ctx, user)
	}
	return user, false, nil
}

func (m *mockUserRepository) GetUser(ctx context.Context, userID int64) (models.User, error) {
	if m.getUserFn != nil {
		return m.getUserFn(ctx, userID)
	}
	return models.User{UserID: userID}, nil
}

func (m *mockUserRepository) FindUserByAny(ctx context.Context, key string) (models.User, error) {
	if m.findUserByAnyFn != nil {
		return m.findUserByAnyFn(ctx, key)
	}
	return models.User{}, nil
}

func (m *mockUserRepository) SetBan(ctx context.Context, userID int64, banned bool) error {
	if m.setBanFn != nil {
		return m.setBanFn(ctx, userID, banned)
	}
	return nil
}

func (m *mockUserRepository) AddUsage(ctx context.Context, userID int64) error {
	if m.addUsageFn != nil {
		return m.addUsageFn(ctx, userID)
	}
	return nil
}

func (m *mockUserRepository) PageUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	if m.pageUsersFn != nil {
		return m.pageUsersFn(ctx, limit, offset)
	}
	return nil, nil
}

func (m *mockUserRepository) CountUsers(ctx context.Context) (int64, error) {
	if m.countUsersFn != nil {
		return m.countUsersFn(ctx)
	}
	return 0, nil
}

func (m *mockUserRepository) ListActiveUserIDs(ctx context.Context) ([]int64, error) {
	if m.listActiveUserIDsFn != nil {
		return m.listActiveUserIDsFn(ctx)
	}
	return nil, nil
}

func (m *mockUserRepository) StatsForUser(ctx context.Context, userID int64) (models.UserStats, error) {
	if m.statsForUserFn != nil {
		return m.statsForUserFn(ctx, userID)
	}
	return models.UserStats{}, nil
}

func (m *mockUserRepository) GlobalStats(ctx context.Context, todayStart int64) (models.GlobalStats, error) {
	if m.globalStatsFn != nil {
		return m.globalStatsFn(ctx, todayStart)
	}
	return models.GlobalStats{}, nil
}

// ─────────────────────────────────────────────
// Mock: store.AccountRepository
// ─────────────────────────────────────────────

type mockAccountRepository struct {
	addAccountFn        func(ctx context.Context, account models.LinkedAccount) (models.LinkedAccount, error)
	accountExistsFn     func(ctx context.Context, userID int64, username string) (bool, error)
	listAccountsFn      func(ctx context.Context, userID int64) ([]models.LinkedAccount, error)
	setActiveFn         func(ctx context.Context, userID int64, username string) (bool, error)
	getActiveFn         func(ctx context.Context, userID int64) (models.LinkedAccount, error)
	updateTokenFn       func(ctx context.Context, userID int64, username, token string) error
	deleteAccountFn     func(ctx context.Context, userID int64, username string) (bool, error)
	deleteAllAccountsFn func(ctx context.Context, userID int64) (int64, error)
	countAccountsFn     func(ctx context.Context, userID int64) (int64, error)
}

func (m *mockAccountRepository) AddAccount(ctx context.Context, account models.LinkedAccount) (models.LinkedAccount, error) {
	if m.addAccountFn != nil {
		return m.addAccountFn(ctx, account)
	}
	account.IsActive = true
	return account, nil
}

func (m *mockAccountRepository) AccountExists(ctx context.Context, userID int64, username string) (bool, error) {
	if m.accountExistsFn != nil {
		return m.accountExistsFn(ctx, userID, username)
	}
	return false, nil
}

func (m *mockAccountRepository) ListAccounts(ctx context.Context, userID int64) ([]models.LinkedAccount, error) {
	if m.listAccountsFn != nil {
		return m.listAccountsFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockAccountRepository) SetActive(ctx context.Context, userID int64, username string) (bool, error) {
	if m.setActiveFn != nil {
		return m.setActiveFn(ctx, userID, username)
	}
	return true, nil
}

func (m *mockAccountRepository) GetActive(ctx context.Context, userID int64) (models.LinkedAccount, error) {
	if m.getActiveFn != nil {
		return m.getActiveFn(ctx, userID)
	}
	return models.LinkedAccount{}, nil
}

func (m *mockAccountRepository) UpdateToken(ctx context.Context, userID int64, username, token string) error {
	if m.updateTokenFn != nil {
		return m.updateTokenFn(ctx, userID, username, token)
	}
	return nil
}

func (m *mockAccountRepository) DeleteAccount(ctx context.Context, userID int64, username string) (bool, error) {
	if m.deleteAccountFn != nil {
		return m.deleteAccountFn(ctx, userID, username)
	}
	return true, nil
}

func (m *mockAccountRepository) DeleteAllAccounts(ctx context.Context, userID int64) (int64, error) {
	if m.deleteAllAccountsFn != nil {
		return m.deleteAllAccountsFn(ctx, userID)
	}
	return 0, nil
}

func (m *mockAccountRepository) CountAccounts(ctx context.Context, userID int64) (int64, error) {
	if m.countAccountsFn != nil {
		return m.countAccountsFn(ctx, userID)
	}
	return 0, nil
}

// ─────────────────────────────────────────────
// Mock: adapter.GameClient
// ─────────────────────────────────────────────

type mockGameClient struct {
	loginFn   func(ctx context.Context, username, password string) (string, error)
	serversFn func(ctx context.Context, token string) ([]models.Server, error)
	accountFn func(ctx context.Context, token string, serverID int64) (models.AccountPayload, error)

	loginCalls int
}

func (m *mockGameClient) Login(ctx context.Context, username, password string) (string, error) {
	m.loginCalls++
	if m.loginFn != nil {
		return m.loginFn(ctx, username, password)
	}
	return "fresh-token", nil
}

func (m *mockGameClient) Servers(ctx context.Context, token string) ([]models.Server, error) {
	if m.serversFn != nil {
		return m.serversFn(ctx, token)
	}
	return nil, nil
}

func (m *mockGameClient) Account(ctx context.Context, token string, serverID int64) (models.AccountPayload, error) {
	if m.accountFn != nil {
		return m.accountFn(ctx, token, serverID)
	}
	return models.AccountPayload{}, nil
}

// ─────────────────────────────────────────────
// Mock: AccountService (for the registration flow)
// ─────────────────────────────────────────────

type mockAccountService struct {
	registerFn func(ctx context.Context, userID int64, username, password string) (models.LinkedAccount, error)

	registerCalls int
}

func (m *mockAccountService) Register(ctx context.Context, userID int64, username, password string) (models.LinkedAccount, error) {
	m.registerCalls++
	if m.registerFn != nil {
		return m.registerFn(ctx, userID, username, password)
	}
	return models.LinkedAccount{UserID: userID, Username: username, IsActive: true}, nil
}

func (m *mockAccountService) ListPage(ctx context.Context, userID int64, page int) (models.AccountPage, error) {
	return models.AccountPage{}, nil
}

func (m *mockAccountService) SetActive(ctx context.Context, userID int64, username string) error {
	return nil
}

func (m *mockAccountService) Active(ctx context.Context, userID int64) (models.LinkedAccount, error) {
	return models.LinkedAccount{}, nil
}

func (m *mockAccountService) Remove(ctx context.Context, userID int64, username string) error {
	return nil
}

func (m *mockAccountService) RemoveAll(ctx context.Context, userID int64) (int64, error) {
	return 0, nil
}

// ─────────────────────────────────────────────
// Recorders: TextSender / MessageDeleter
// ─────────────────────────────────────────────

type recordingSender struct {
	failFor map[int64]bool
	sent    []int64
}

func (r *recordingSender) SendText(ctx context.Context, chatID int64, text string) error {
	if r.failFor[chatID] {
		return errContextless
	}
	r.sent = append(r.sent, chatID)
	return nil
}

type recordingDeleter struct {
	deleted []int
	fail    bool
}

func (r *recordingDeleter) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if r.fail {
		return errContextless
	}
	r.deleted = append(r.deleted, messageID)
	return nil
}
