package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/radarlink/radarlink/internal/logger"
	"github.com/radarlink/radarlink/internal/store"
	"github.com/radarlink/radarlink/models"
)

// UsersPageSize is the number of rows per page in the admin user listing.
const UsersPageSize = 20

type userService struct {
	users store.UserRepository

	now func() time.Time

	logger *logger.Logger
}

func NewUserService(users store.UserRepository, logger *logger.Logger) UserService {
	return &userService{
		users:  users,
		now:    time.Now,
		logger: logger,
	}
}

// EnsureUser implements [UserService]. Every inbound update passes through
// here: first sight issues the opaque hash, later updates only refresh the
// handle, display name and last-active stamp. The created flag comes from
// the repository, not from comparing timestamps.
func (u *userService) EnsureUser(ctx context.Context, user models.User) (models.User, bool, error) {
	log := logger.FromContext(ctx)

	now := u.now().Unix()
	user.CreatedAt = now
	user.LastActive = now
	if user.Hash == "" {
		user.Hash = uuid.NewString()
	}

	ensured, created, err := u.users.UpsertUser(ctx, user)
	if err != nil {
		log.Err(err).Str("func", "userService.EnsureUser").Int64("user_id", user.UserID).Msg("failed to upsert user")
		return models.User{}, false, fmt.Errorf("failed to upsert user: %w", err)
	}

	return ensured, created, nil
}

func (u *userService) Find(ctx context.Context, key string) (models.User, error) {
	user, err := u.users.FindUserByAny(ctx, key)
	if err != nil {
		if isNotFound(err) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// PageUsers implements [UserService]. Page numbers clamp the same way the
// account selector does: never an error, always a valid page.
func (u *userService) PageUsers(ctx context.Context, page int) (models.UserPage, error) {
	log := logger.FromContext(ctx)

	total, err := u.users.CountUsers(ctx)
	if err != nil {
		log.Err(err).Str("func", "userService.PageUsers").Msg("failed to count users")
		return models.UserPage{}, fmt.Errorf("failed to count users: %w", err)
	}

	page, pageCount := clampPage(page, total, UsersPageSize)
	if total == 0 {
		return models.UserPage{Items: nil, Page: page, PageCount: pageCount}, nil
	}

	items, err := u.users.PageUsers(ctx, UsersPageSize, (page-1)*UsersPageSize)
	if err != nil {
		log.Err(err).Str("func", "userService.PageUsers").Msg("failed to load users page")
		return models.UserPage{}, fmt.Errorf("failed to load users page: %w", err)
	}

	return models.UserPage{Items: items, Page: page, PageCount: pageCount}, nil
}

func (u *userService) Stats(ctx context.Context, userID int64) (models.UserStats, error) {
	stats, err := u.users.StatsForUser(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return models.UserStats{}, ErrUserNotFound
		}
		return models.UserStats{}, fmt.Errorf("failed to load user stats: %w", err)
	}

	return stats, nil
}

func (u *userService) GlobalStats(ctx context.Context) (models.GlobalStats, error) {
	todayStart := u.now().Truncate(24 * time.Hour).Unix()

	stats, err := u.users.GlobalStats(ctx, todayStart)
	if err != nil {
		return models.GlobalStats{}, fmt.Errorf("failed to load global stats: %w", err)
	}

	return stats, nil
}

// SetBan implements [UserService]. The key resolves via the same lexical
// dispatch as Find, so admins can ban by id, handle or hash.
func (u *userService) SetBan(ctx context.Context, key string, banned bool) (models.User, error) {
	log := logger.FromContext(ctx)

	user, err := u.Find(ctx, key)
	if err != nil {
		return models.User{}, err
	}

	if err = u.users.SetBan(ctx, user.UserID, banned); err != nil {
		log.Err(err).Str("func", "userService.SetBan").Int64("user_id", user.UserID).Msg("failed to set ban flag")
		return models.User{}, fmt.Errorf("failed to set ban flag: %w", err)
	}
	user.Banned = banned

	return user, nil
}

func (u *userService) AddUsage(ctx context.Context, userID int64) error {
	if err := u.users.AddUsage(ctx, userID); err != nil {
		return fmt.Errorf("failed to add usage: %w", err)
	}

	return nil
}

// clampPage maps any requested page into [1, pageCount] for the given page
// size; pageCount is at least 1 even for an empty set so callers always
// render a valid pager.
func clampPage(page int, total int64, pageSize int) (int, int) {
	pageCount := int((total + int64(pageSize) - 1) / int64(pageSize))
	if pageCount < 1 {
		pageCount = 1
	}

	if page < 1 {
		page = 1
	}
	if page > pageCount {
		page = pageCount
	}

	return page, pageCount
}
