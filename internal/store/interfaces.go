package store

import (
	"context"

	"github.com/radarlink/radarlink/models"
)

// UserRepository is the persistence contract for the platform user table.
// Any persistence-layer error aborts the enclosing operation; implementations
// never swallow a failed write.
type UserRepository interface {
	// UpsertUser inserts user on first sight (keeping user.Hash as the
	// opaque identifier issued once) and otherwise refreshes handle, name
	// and last-active. Returns the resulting row and whether it was just
	// created.
	UpsertUser(ctx context.Context, user models.User) (models.User, bool, error)

	// GetUser returns the user with the given id or ErrUserNotFound.
	GetUser(ctx context.Context, userID int64) (models.User, error)

	// FindUserByAny resolves key by its lexical shape: all digits -> id,
	// leading '@' -> handle, anything else -> opaque hash.
	FindUserByAny(ctx context.Context, key string) (models.User, error)

	// SetBan flips the ban flag of one user.
	SetBan(ctx context.Context, userID int64, banned bool) error

	// AddUsage atomically increments the usage counter of one user.
	AddUsage(ctx context.Context, userID int64) error

	// PageUsers returns one page of users ordered by creation time
	// ascending, so page numbers stay stable as new users register.
	PageUsers(ctx context.Context, limit, offset int) ([]models.User, error)

	// CountUsers returns the total number of user rows.
	CountUsers(ctx context.Context) (int64, error)

	// ListActiveUserIDs returns the ids of all non-banned users,
	// the broadcast audience.
	ListActiveUserIDs(ctx context.Context) ([]int64, error)

	// StatsForUser returns the user row plus per-user counters.
	StatsForUser(ctx context.Context, userID int64) (models.UserStats, error)

	// GlobalStats returns bot-wide counters for the status panel.
	GlobalStats(ctx context.Context, todayStart int64) (models.GlobalStats, error)
}

// AccountRepository is the persistence contract for linked RadarGame
// accounts. The clear-then-set of the active flag and the duplicate check on
// insert are executed inside single transactions so concurrent requests for
// the same user can never observe two active rows or create two rows with
// one username.
type AccountRepository interface {
	// AddAccount inserts a new linked account and atomically marks it the
	// only active account of its owner. Returns ErrAccountAlreadyExists
	// when the (user, username) pair is already present.
	AddAccount(ctx context.Context, account models.LinkedAccount) (models.LinkedAccount, error)

	// AccountExists reports whether the (user, username) pair is present.
	AccountExists(ctx context.Context, userID int64, username string) (bool, error)

	// ListAccounts returns all linked accounts of one user in insertion
	// order.
	ListAccounts(ctx context.Context, userID int64) ([]models.LinkedAccount, error)

	// SetActive deactivates all accounts of the user, then activates the
	// named one; both steps run in one transaction. Returns false when the
	// username does not belong to the user.
	SetActive(ctx context.Context, userID int64, username string) (bool, error)

	// GetActive returns the single active account of the user or
	// ErrAccountNotFound.
	GetActive(ctx context.Context, userID int64) (models.LinkedAccount, error)

	// UpdateToken stores the best-effort cached session token of one
	// account.
	UpdateToken(ctx context.Context, userID int64, username, token string) error

	// DeleteAccount removes one linked account; reports whether a row
	// matched.
	DeleteAccount(ctx context.Context, userID int64, username string) (bool, error)

	// DeleteAllAccounts removes every linked account of the user and
	// returns the number of rows removed.
	DeleteAllAccounts(ctx context.Context, userID int64) (int64, error)

	// CountAccounts returns the number of linked accounts of one user.
	CountAccounts(ctx context.Context, userID int64) (int64, error)
}
