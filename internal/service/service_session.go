package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/radarlink/radarlink/internal/adapter"
	"github.com/radarlink/radarlink/internal/logger"
	"github.com/radarlink/radarlink/internal/store"
	"github.com/radarlink/radarlink/models"
)

// tokenLeeway is how close to its exp claim a cached token is still
// considered usable. A token expiring mid-flight costs the user a visible
// failure, a premature login only costs one extra request.
const tokenLeeway = 30 * time.Second

type sessionService struct {
	accounts store.AccountRepository
	game     adapter.GameClient

	now func() time.Time

	logger *logger.Logger
}

func NewSessionService(accounts store.AccountRepository, game adapter.GameClient, logger *logger.Logger) SessionService {
	return &sessionService{
		accounts: accounts,
		game:     game,
		now:      time.Now,
		logger:   logger,
	}
}

// Token implements [SessionService]. The cached token is reused while its
// exp claim is comfortably in the future; otherwise the stored credentials
// buy a fresh one, which is cached back best-effort. A failed cache write
// never fails the operation, the token is already in hand.
func (s *sessionService) Token(ctx context.Context, account models.LinkedAccount) (string, error) {
	log := logger.FromContext(ctx)

	if tokenStillValid(account.Token, s.now().Add(tokenLeeway)) {
		return account.Token, nil
	}

	token, err := s.game.Login(ctx, account.Username, account.Password)
	if err != nil {
		log.Err(err).Str("func", "sessionService.Token").Int64("user_id", account.UserID).Msg("remote login failed")
		return "", fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	if cacheErr := s.accounts.UpdateToken(ctx, account.UserID, account.Username, token); cacheErr != nil {
		log.Warn().Err(cacheErr).Str("func", "sessionService.Token").Int64("user_id", account.UserID).Msg("failed to cache session token")
	}

	return token, nil
}

// Servers implements [SessionService]. The list comes back sorted ascending
// by load; servers that report no load sort last, ties keep the remote
// order.
func (s *sessionService) Servers(ctx context.Context, account models.LinkedAccount) ([]models.Server, error) {
	token, err := s.Token(ctx, account)
	if err != nil {
		return nil, err
	}

	servers, err := s.game.Servers(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}
	if len(servers) == 0 {
		return nil, ErrNoServers
	}

	sort.SliceStable(servers, func(i, j int) bool {
		a, b := servers[i].LoadPercentage, servers[j].LoadPercentage
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})

	return servers, nil
}

func (s *sessionService) AccountPayload(ctx context.Context, account models.LinkedAccount, serverID int64) (models.AccountPayload, error) {
	token, err := s.Token(ctx, account)
	if err != nil {
		return models.AccountPayload{}, err
	}

	payload, err := s.game.Account(ctx, token, serverID)
	if err != nil {
		return models.AccountPayload{}, fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	return payload, nil
}

// tokenStillValid reads the exp claim without verifying the signature; the
// signature belongs to the remote API and only the expiry matters locally.
// Tokens without a readable exp claim count as expired.
func tokenStillValid(token string, at time.Time) bool {
	if token == "" {
		return false
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return false
	}

	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}

	return exp.After(at)
}
