package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/radarlink/radarlink/internal/adapter"
	"github.com/radarlink/radarlink/internal/logger"
	"github.com/radarlink/radarlink/internal/store"
	"github.com/radarlink/radarlink/models"
)

// AccountsPageSize is the number of accounts per page in the selector
// keyboard.
const AccountsPageSize = 5

type accountService struct {
	accounts store.AccountRepository
	game     adapter.GameClient

	now func() time.Time

	logger *logger.Logger
}

func NewAccountService(accounts store.AccountRepository, game adapter.GameClient, logger *logger.Logger) AccountService {
	return &accountService{
		accounts: accounts,
		game:     game,
		now:      time.Now,
		logger:   logger,
	}
}

// Register implements [AccountService]. Order matters: the duplicate check
// runs before the remote login so a duplicate never burns a network call,
// and the insert itself re-checks via the unique constraint so a racing
// second registration of the same pair still maps to ErrDuplicateAccount.
func (a *accountService) Register(ctx context.Context, userID int64, username, password string) (models.LinkedAccount, error) {
	log := logger.FromContext(ctx)

	exists, err := a.accounts.AccountExists(ctx, userID, username)
	if err != nil {
		log.Err(err).Str("func", "accountService.Register").Int64("user_id", userID).Msg("duplicate check failed")
		return models.LinkedAccount{}, fmt.Errorf("duplicate check failed: %w", err)
	}
	if exists {
		return models.LinkedAccount{}, ErrDuplicateAccount
	}

	token, err := a.game.Login(ctx, username, password)
	if err != nil {
		log.Err(err).Str("func", "accountService.Register").Int64("user_id", userID).Msg("remote login failed")
		return models.LinkedAccount{}, fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	account, err := a.accounts.AddAccount(ctx, models.LinkedAccount{
		UserID:    userID,
		Username:  username,
		Password:  password,
		Token:     token,
		CreatedAt: a.now().Unix(),
	})
	if err != nil {
		if errors.Is(err, store.ErrAccountAlreadyExists) {
			return models.LinkedAccount{}, ErrDuplicateAccount
		}
		log.Err(err).Str("func", "accountService.Register").Int64("user_id", userID).Msg("failed to persist linked account")
		return models.LinkedAccount{}, fmt.Errorf("failed to persist linked account: %w", err)
	}

	return account, nil
}

// ListPage implements [AccountService]. Out-of-range pages clamp instead of
// erroring, so a stale pager button after a deletion still lands on a valid
// page.
func (a *accountService) ListPage(ctx context.Context, userID int64, page int) (models.AccountPage, error) {
	log := logger.FromContext(ctx)

	accounts, err := a.accounts.ListAccounts(ctx, userID)
	if err != nil {
		log.Err(err).Str("func", "accountService.ListPage").Int64("user_id", userID).Msg("failed to list linked accounts")
		return models.AccountPage{}, fmt.Errorf("failed to list linked accounts: %w", err)
	}

	page, pageCount := clampPage(page, int64(len(accounts)), AccountsPageSize)
	if len(accounts) == 0 {
		return models.AccountPage{Items: nil, Page: page, PageCount: pageCount}, nil
	}

	start := (page - 1) * AccountsPageSize
	end := start + AccountsPageSize
	if end > len(accounts) {
		end = len(accounts)
	}

	return models.AccountPage{Items: accounts[start:end], Page: page, PageCount: pageCount}, nil
}

func (a *accountService) SetActive(ctx context.Context, userID int64, username string) error {
	log := logger.FromContext(ctx)

	ok, err := a.accounts.SetActive(ctx, userID, username)
	if err != nil {
		log.Err(err).Str("func", "accountService.SetActive").Int64("user_id", userID).Msg("failed to switch active account")
		return fmt.Errorf("failed to switch active account: %w", err)
	}
	if !ok {
		return ErrAccountNotFound
	}

	return nil
}

func (a *accountService) Active(ctx context.Context, userID int64) (models.LinkedAccount, error) {
	account, err := a.accounts.GetActive(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return models.LinkedAccount{}, ErrNoActiveAccount
		}
		return models.LinkedAccount{}, fmt.Errorf("failed to load active account: %w", err)
	}

	return account, nil
}

func (a *accountService) Remove(ctx context.Context, userID int64, username string) error {
	log := logger.FromContext(ctx)

	ok, err := a.accounts.DeleteAccount(ctx, userID, username)
	if err != nil {
		log.Err(err).Str("func", "accountService.Remove").Int64("user_id", userID).Msg("failed to delete linked account")
		return fmt.Errorf("failed to delete linked account: %w", err)
	}
	if !ok {
		return ErrAccountNotFound
	}

	return nil
}

// RemoveAll implements [AccountService]. The row count lets the caller tell
// "matched zero" from "matched many".
func (a *accountService) RemoveAll(ctx context.Context, userID int64) (int64, error) {
	count, err := a.accounts.DeleteAllAccounts(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete linked accounts: %w", err)
	}

	return count, nil
}
