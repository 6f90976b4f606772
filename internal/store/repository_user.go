package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/radarlink/radarlink/internal/logger"
	"github.com/radarlink/radarlink/models"
)

var userColumns = []string{"user_id", "handle", "full_name", "user_hash", "usage_count", "created_at", "last_active", "banned"}

type userRepository struct {
	*DB
	logger *logger.Logger
}

func NewUserRepository(db *DB, logger *logger.Logger) UserRepository {
	logger.Debug().Msg("UserRepository created")
	return &userRepository{
		DB:     db,
		logger: logger,
	}
}

// UpsertUser implements [UserRepository]. The select-then-write pair runs in
// one transaction so two first-contact updates for the same user cannot both
// take the insert path. created reports whether the insert path was taken.
func (r *userRepository) UpsertUser(ctx context.Context, user models.User) (models.User, bool, error) {
	log := logger.FromContext(ctx)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "userRepository.UpsertUser").Msg("failed to begin transaction")
		return models.User{}, false, fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	var created bool

	existing, err := r.getUserTx(ctx, tx, user.UserID)
	switch {
	case err == nil:
		update := r.builder.
			Update(user.TableName()).
			Set("handle", user.Handle).
			Set("full_name", user.Name).
			Set("last_active", user.LastActive).
			Where(squirrel.Eq{"user_id": user.UserID})

		query, args, buildErr := update.ToSql()
		if buildErr != nil {
			return models.User{}, false, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, buildErr)
		}
		if _, execErr := tx.ExecContext(ctx, query, args...); execErr != nil {
			log.Err(execErr).Str("func", "userRepository.UpsertUser").Int64("user_id", user.UserID).Msg("failed to refresh user row")
			return models.User{}, false, fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
		}

		// the opaque hash is issued once and never changes
		user.Hash = existing.Hash
		user.UsageCount = existing.UsageCount
		user.CreatedAt = existing.CreatedAt
		user.Banned = existing.Banned

	case errors.Is(err, ErrUserNotFound):
		insert := r.builder.
			Insert(user.TableName()).
			Columns(userColumns...).
			Values(user.UserID, user.Handle, user.Name, user.Hash, 0, user.CreatedAt, user.LastActive, false)

		query, args, buildErr := insert.ToSql()
		if buildErr != nil {
			return models.User{}, false, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, buildErr)
		}
		if _, execErr := tx.ExecContext(ctx, query, args...); execErr != nil {
			log.Err(execErr).Str("func", "userRepository.UpsertUser").Int64("user_id", user.UserID).Msg("failed to insert user row")
			return models.User{}, false, fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
		}
		user.UsageCount = 0
		user.Banned = false
		created = true

	default:
		return models.User{}, false, err
	}

	if err = tx.Commit(); err != nil {
		log.Err(err).Str("func", "userRepository.UpsertUser").Msg("failed to commit transaction")
		return models.User{}, false, fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	return user, created, nil
}

func (r *userRepository) GetUser(ctx context.Context, userID int64) (models.User, error) {
	return r.findUser(ctx, squirrel.Eq{"user_id": userID})
}

// FindUserByAny implements [UserRepository]. The lookup column is chosen by
// the lexical shape of key: all digits resolve the numeric id, a leading '@'
// resolves the handle, anything else resolves the opaque hash.
func (r *userRepository) FindUserByAny(ctx context.Context, key string) (models.User, error) {
	return r.findUser(ctx, userKeyPredicate(key))
}

func userKeyPredicate(key string) squirrel.Eq {
	switch {
	case isAllDigits(key):
		id, _ := strconv.ParseInt(key, 10, 64)
		return squirrel.Eq{"user_id": id}
	case strings.HasPrefix(key, "@"):
		return squirrel.Eq{"handle": strings.TrimPrefix(key, "@")}
	default:
		return squirrel.Eq{"user_hash": key}
	}
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (r *userRepository) findUser(ctx context.Context, where squirrel.Eq) (models.User, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.builder.
		Select(userColumns...).
		From(models.User{}.TableName()).
		Where(where).
		ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	row := r.DB.QueryRowContext(ctx, query, args...)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		log.Err(err).Str("func", "userRepository.findUser").Msg("failed to scan user row")
		return models.User{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return user, nil
}

func (r *userRepository) SetBan(ctx context.Context, userID int64, banned bool) error {
	return r.execUserUpdate(ctx, "userRepository.SetBan", r.builder.
		Update(models.User{}.TableName()).
		Set("banned", banned).
		Where(squirrel.Eq{"user_id": userID}))
}

// AddUsage implements [UserRepository]. The increment happens inside the
// UPDATE itself, so concurrent issuances never lose a count.
func (r *userRepository) AddUsage(ctx context.Context, userID int64) error {
	return r.execUserUpdate(ctx, "userRepository.AddUsage", r.builder.
		Update(models.User{}.TableName()).
		Set("usage_count", squirrel.Expr("usage_count + 1")).
		Where(squirrel.Eq{"user_id": userID}))
}

func (r *userRepository) execUserUpdate(ctx context.Context, fn string, update squirrel.UpdateBuilder) error {
	log := logger.FromContext(ctx)

	query, args, err := update.ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = r.DB.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).Str("func", fn).Msg("failed to execute user update")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// PageUsers implements [UserRepository]. Rows are ordered by creation time
// ascending so page numbers stay stable while new users register.
func (r *userRepository) PageUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.builder.
		Select(userColumns...).
		From(models.User{}.TableName()).
		OrderBy("created_at ASC", "user_id ASC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "userRepository.PageUsers").Msg("failed to execute query for users page")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	users := make([]models.User, 0, limit)
	for rows.Next() {
		user, scanErr := scanUser(rows)
		if scanErr != nil {
			log.Err(scanErr).Str("func", "userRepository.PageUsers").Msg("failed to scan user row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}
		users = append(users, user)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).Str("func", "userRepository.PageUsers").Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return users, nil
}

func (r *userRepository) CountUsers(ctx context.Context) (int64, error) {
	return r.countWhere(ctx, models.User{}.TableName(), nil)
}

// ListActiveUserIDs implements [UserRepository]. Banned users are excluded;
// they are not part of the broadcast audience.
func (r *userRepository) ListActiveUserIDs(ctx context.Context) ([]int64, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.builder.
		Select("user_id").
		From(models.User{}.TableName()).
		Where(squirrel.Eq{"banned": false}).
		OrderBy("user_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "userRepository.ListActiveUserIDs").Msg("failed to execute query for active users")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}
		ids = append(ids, id)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return ids, nil
}

func (r *userRepository) StatsForUser(ctx context.Context, userID int64) (models.UserStats, error) {
	user, err := r.GetUser(ctx, userID)
	if err != nil {
		return models.UserStats{}, err
	}

	accounts, err := r.countWhere(ctx, models.LinkedAccount{}.TableName(), squirrel.Eq{"user_id": userID})
	if err != nil {
		return models.UserStats{}, err
	}

	return models.UserStats{User: user, AccountCount: accounts}, nil
}

func (r *userRepository) GlobalStats(ctx context.Context, todayStart int64) (models.GlobalStats, error) {
	totalUsers, err := r.countWhere(ctx, models.User{}.TableName(), nil)
	if err != nil {
		return models.GlobalStats{}, err
	}

	totalAccounts, err := r.countWhere(ctx, models.LinkedAccount{}.TableName(), nil)
	if err != nil {
		return models.GlobalStats{}, err
	}

	banned, err := r.countWhere(ctx, models.User{}.TableName(), squirrel.Eq{"banned": true})
	if err != nil {
		return models.GlobalStats{}, err
	}

	activeToday, err := r.countWhere(ctx, models.User{}.TableName(), squirrel.GtOrEq{"last_active": todayStart})
	if err != nil {
		return models.GlobalStats{}, err
	}

	return models.GlobalStats{
		TotalUsers:    totalUsers,
		TotalAccounts: totalAccounts,
		BannedUsers:   banned,
		ActiveToday:   activeToday,
	}, nil
}

func (r *userRepository) countWhere(ctx context.Context, table string, where squirrel.Sqlizer) (int64, error) {
	log := logger.FromContext(ctx)

	sel := r.builder.Select("COUNT(*)").From(table)
	if where != nil {
		sel = sel.Where(where)
	}

	query, args, err := sel.ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var count int64
	if err = r.DB.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		log.Err(err).Str("func", "userRepository.countWhere").Str("table", table).Msg("failed to count rows")
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return count, nil
}

func (r *userRepository) getUserTx(ctx context.Context, tx *sql.Tx, userID int64) (models.User, error) {
	query, args, err := r.builder.
		Select(userColumns...).
		From(models.User{}.TableName()).
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	user, err := scanUser(tx.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return user, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (models.User, error) {
	var user models.User
	var handle sql.NullString

	err := row.Scan(
		&user.UserID,
		&handle,
		&user.Name,
		&user.Hash,
		&user.UsageCount,
		&user.CreatedAt,
		&user.LastActive,
		&user.Banned,
	)
	if err != nil {
		return models.User{}, err
	}

	user.Handle = handle.String

	return user, nil
}
