package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/radarlink/radarlink/internal/crypto"
	"github.com/radarlink/radarlink/internal/logger"
	"github.com/radarlink/radarlink/models"
)

var accountColumns = []string{"id", "user_id", "username", "password", "token", "is_active", "created_at"}

type accountRepository struct {
	*DB
	codec  crypto.CredentialCodec
	logger *logger.Logger
}

// NewAccountRepository constructs an [AccountRepository] backed by the given
// connection. codec converts passwords between their user-supplied and
// persisted forms; all other columns are stored as given.
func NewAccountRepository(db *DB, codec crypto.CredentialCodec, logger *logger.Logger) AccountRepository {
	logger.Debug().Msg("AccountRepository created")
	return &accountRepository{
		DB:     db,
		codec:  codec,
		logger: logger,
	}
}

// AddAccount implements [AccountRepository]. The insert and the
// clear-then-set of the active flag run in one transaction: a concurrent
// registration of the same (user, username) pair hits the unique constraint
// and maps to ErrAccountAlreadyExists, and no interleaving can leave the
// user with two active rows.
func (r *accountRepository) AddAccount(ctx context.Context, account models.LinkedAccount) (models.LinkedAccount, error) {
	log := logger.FromContext(ctx)

	stored, err := r.codec.Seal(account.Password)
	if err != nil {
		log.Err(err).Str("func", "accountRepository.AddAccount").Msg("failed to seal credential")
		return models.LinkedAccount{}, err
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "accountRepository.AddAccount").Msg("failed to begin transaction")
		return models.LinkedAccount{}, fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	query, args, err := r.builder.
		Insert(account.TableName()).
		Columns("user_id", "username", "password", "token", "is_active", "created_at").
		Values(account.UserID, account.Username, stored, account.Token, false, account.CreatedAt).
		ToSql()
	if err != nil {
		return models.LinkedAccount{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return models.LinkedAccount{}, ErrAccountAlreadyExists
		}
		log.Err(err).Str("func", "accountRepository.AddAccount").Int64("user_id", account.UserID).Msg("failed to insert linked account")
		return models.LinkedAccount{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if account.ID, err = res.LastInsertId(); err != nil {
		// pgx does not support LastInsertId; the id is not load-bearing here
		account.ID = 0
	}

	if err = r.setActiveTx(ctx, tx, account.UserID, account.Username); err != nil {
		return models.LinkedAccount{}, err
	}

	if err = tx.Commit(); err != nil {
		log.Err(err).Str("func", "accountRepository.AddAccount").Msg("failed to commit transaction")
		return models.LinkedAccount{}, fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	account.IsActive = true

	return account, nil
}

func (r *accountRepository) AccountExists(ctx context.Context, userID int64, username string) (bool, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.builder.
		Select("COUNT(*)").
		From(models.LinkedAccount{}.TableName()).
		Where(squirrel.Eq{"user_id": userID, "username": username}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var count int64
	if err = r.DB.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		log.Err(err).Str("func", "accountRepository.AccountExists").Int64("user_id", userID).Msg("failed to count linked accounts")
		return false, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return count > 0, nil
}

// ListAccounts implements [AccountRepository]. Rows come back in insertion
// order (by row id), which is the order the paginated keyboard shows.
func (r *accountRepository) ListAccounts(ctx context.Context, userID int64) ([]models.LinkedAccount, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.builder.
		Select(accountColumns...).
		From(models.LinkedAccount{}.TableName()).
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "accountRepository.ListAccounts").Int64("user_id", userID).Msg("failed to execute query for linked accounts")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	accounts := make([]models.LinkedAccount, 0, 8)
	for rows.Next() {
		account, scanErr := r.scanAccount(rows)
		if scanErr != nil {
			log.Err(scanErr).Str("func", "accountRepository.ListAccounts").Msg("failed to scan linked account row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}
		accounts = append(accounts, account)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).Str("func", "accountRepository.ListAccounts").Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return accounts, nil
}

// SetActive implements [AccountRepository]. Deactivate-all and activate-one
// are a single transaction; two racing selections for the same user
// serialize on the row locks and each leaves exactly one active account.
func (r *accountRepository) SetActive(ctx context.Context, userID int64, username string) (bool, error) {
	log := logger.FromContext(ctx)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "accountRepository.SetActive").Msg("failed to begin transaction")
		return false, fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	if err = r.setActiveTx(ctx, tx, userID, username); err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return false, nil
		}
		return false, err
	}

	if err = tx.Commit(); err != nil {
		log.Err(err).Str("func", "accountRepository.SetActive").Msg("failed to commit transaction")
		return false, fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	return true, nil
}

// setActiveTx clears every active flag of the user and sets the named one
// inside the caller's transaction. Returns ErrAccountNotFound when the
// username did not match exactly one row.
func (r *accountRepository) setActiveTx(ctx context.Context, tx *sql.Tx, userID int64, username string) error {
	clear, clearArgs, err := r.builder.
		Update(models.LinkedAccount{}.TableName()).
		Set("is_active", false).
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	if _, err = tx.ExecContext(ctx, clear, clearArgs...); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	set, setArgs, err := r.builder.
		Update(models.LinkedAccount{}.TableName()).
		Set("is_active", true).
		Where(squirrel.Eq{"user_id": userID, "username": username}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := tx.ExecContext(ctx, set, setArgs...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected != 1 {
		return ErrAccountNotFound
	}

	return nil
}

func (r *accountRepository) GetActive(ctx context.Context, userID int64) (models.LinkedAccount, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.builder.
		Select(accountColumns...).
		From(models.LinkedAccount{}.TableName()).
		Where(squirrel.Eq{"user_id": userID, "is_active": true}).
		Limit(1).
		ToSql()
	if err != nil {
		return models.LinkedAccount{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	account, err := r.scanAccount(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.LinkedAccount{}, ErrAccountNotFound
		}
		log.Err(err).Str("func", "accountRepository.GetActive").Int64("user_id", userID).Msg("failed to scan linked account row")
		return models.LinkedAccount{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return account, nil
}

func (r *accountRepository) UpdateToken(ctx context.Context, userID int64, username, token string) error {
	log := logger.FromContext(ctx)

	query, args, err := r.builder.
		Update(models.LinkedAccount{}.TableName()).
		Set("token", token).
		Where(squirrel.Eq{"user_id": userID, "username": username}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = r.DB.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).Str("func", "accountRepository.UpdateToken").Int64("user_id", userID).Msg("failed to update cached token")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (r *accountRepository) DeleteAccount(ctx context.Context, userID int64, username string) (bool, error) {
	count, err := r.deleteWhere(ctx, "accountRepository.DeleteAccount", squirrel.Eq{"user_id": userID, "username": username})
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *accountRepository) DeleteAllAccounts(ctx context.Context, userID int64) (int64, error) {
	return r.deleteWhere(ctx, "accountRepository.DeleteAllAccounts", squirrel.Eq{"user_id": userID})
}

func (r *accountRepository) deleteWhere(ctx context.Context, fn string, where squirrel.Eq) (int64, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.builder.
		Delete(models.LinkedAccount{}.TableName()).
		Where(where).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", fn).Msg("failed to delete linked accounts")
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return affected, nil
}

func (r *accountRepository) CountAccounts(ctx context.Context, userID int64) (int64, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.builder.
		Select("COUNT(*)").
		From(models.LinkedAccount{}.TableName()).
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var count int64
	if err = r.DB.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		log.Err(err).Str("func", "accountRepository.CountAccounts").Int64("user_id", userID).Msg("failed to count linked accounts")
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return count, nil
}

func (r *accountRepository) scanAccount(row rowScanner) (models.LinkedAccount, error) {
	var account models.LinkedAccount

	err := row.Scan(
		&account.ID,
		&account.UserID,
		&account.Username,
		&account.Password,
		&account.Token,
		&account.IsActive,
		&account.CreatedAt,
	)
	if err != nil {
		return models.LinkedAccount{}, err
	}

	password, err := r.codec.Open(account.Password)
	if err != nil {
		return models.LinkedAccount{}, err
	}
	account.Password = password

	return account, nil
}
