package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ndewijer/stock-tracker/internal/apperrors"
	"github.com/ndewijer/stock-tracker/internal/model"
)

// UserRepository provides data access methods for the app_user table.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository with the provided database connection.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user. It returns ErrUserExists if the username is taken.
func (r *UserRepository) Create(ctx context.Context, u model.User) error {
	query := `
		INSERT INTO app_user (username, password_hash, pushover_key_enc, notify_freq, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (username) DO NOTHING
	`

	res, err := r.db.ExecContext(ctx, query,
		u.Username,
		u.PasswordHash,
		u.PushoverKeyEnc,
		string(u.NotifyFreq),
		FormatTime(u.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("%w: failed to insert user: %w", apperrors.ErrPersistenceFailure, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to insert user: %w", apperrors.ErrPersistenceFailure, err)
	}
	if n == 0 {
		return apperrors.ErrUserExists
	}

	return nil
}

// Get retrieves a single user. It returns ErrUserNotFound if no user matches.
func (r *UserRepository) Get(ctx context.Context, username string) (model.User, error) {
	query := `
		SELECT username, password_hash, pushover_key_enc, notify_freq, created_at
		FROM app_user
		WHERE username = ?
	`

	u, err := scanUser(r.db.QueryRowContext(ctx, query, username))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, apperrors.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, err
	}

	return u, nil
}

// ListNotifiable returns every user whose notification frequency is not "none",
// ordered by username.
func (r *UserRepository) ListNotifiable(ctx context.Context) ([]model.User, error) {
	query := `
		SELECT username, password_hash, pushover_key_enc, notify_freq, created_at
		FROM app_user
		WHERE notify_freq != ?
		ORDER BY username
	`

	rows, err := r.db.QueryContext(ctx, query, string(model.NotifyNone))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query app_user table: %w", apperrors.ErrPersistenceFailure, err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating app_user table: %w", apperrors.ErrPersistenceFailure, err)
	}

	return users, nil
}

// UpdateSettings stores a new encrypted Pushover key and notification frequency.
func (r *UserRepository) UpdateSettings(ctx context.Context, username, pushoverKeyEnc string, freq model.NotifyFrequency) error {
	query := `
		UPDATE app_user
		SET pushover_key_enc = ?, notify_freq = ?
		WHERE username = ?
	`

	res, err := r.db.ExecContext(ctx, query, pushoverKeyEnc, string(freq), username)
	if err != nil {
		return fmt.Errorf("%w: failed to update user: %w", apperrors.ErrPersistenceFailure, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to update user: %w", apperrors.ErrPersistenceFailure, err)
	}
	if n == 0 {
		return apperrors.ErrUserNotFound
	}

	return nil
}

// Delete removes a user together with their lots and trade history.
func (r *UserRepository) Delete(ctx context.Context, username string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %w", apperrors.ErrPersistenceFailure, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := deleteLedger(ctx, tx, username); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM app_user WHERE username = ?`, username)
	if err != nil {
		return fmt.Errorf("%w: failed to delete user: %w", apperrors.ErrPersistenceFailure, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to delete user: %w", apperrors.ErrPersistenceFailure, err)
	}
	if n == 0 {
		return apperrors.ErrUserNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit user deletion: %w", apperrors.ErrPersistenceFailure, err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (model.User, error) {
	var (
		u         model.User
		freq      string
		createdAt string
	)

	err := row.Scan(&u.Username, &u.PasswordHash, &u.PushoverKeyEnc, &freq, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, err
	}
	if err != nil {
		return model.User{}, fmt.Errorf("%w: failed to scan app_user: %w", apperrors.ErrPersistenceFailure, err)
	}

	u.NotifyFreq = model.NotifyFrequency(freq)
	u.CreatedAt, err = ParseTime(createdAt)
	if err != nil {
		return model.User{}, fmt.Errorf("%w: user %s: %w", apperrors.ErrDataInconsistency, u.Username, err)
	}

	return u, nil
}
