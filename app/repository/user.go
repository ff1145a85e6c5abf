package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/mycourse/elearning-platform/app/entity"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type UserRepository struct {
	db querier
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) WithTx(tx *sql.Tx) *UserRepository {
	return &UserRepository{db: tx}
}

const userSelectColumns = `id, email, first_name, last_name, password_hash, email_verified,
		       verification_code, verification_code_expires_at, reset_token, reset_token_expires_at,
		       created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (email, first_name, last_name, password_hash, email_verified, verification_code, verification_code_expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		user.Email,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.EmailVerified,
		user.VerificationCode,
		user.VerificationCodeExpiresAt,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = uint64(id)
	return nil
}

func (r *UserRepository) AddRole(ctx context.Context, userID, roleID uint64) error {
	query := `INSERT INTO user_roles (user_id, role_id) VALUES (?, ?)`
	_, err := r.db.ExecContext(ctx, query, userID, roleID)
	return err
}

// FindByEmail compares case-insensitively; storage is case-preserving.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `
		SELECT ` + userSelectColumns + `
		FROM users WHERE LOWER(email) = LOWER(?)
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*entity.User, error) {
	query := `
		SELECT ` + userSelectColumns + `
		FROM users WHERE id = ?
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) FindByVerificationCode(ctx context.Context, code string) (*entity.User, error) {
	query := `
		SELECT ` + userSelectColumns + `
		FROM users WHERE verification_code = ?
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, code))
}

func (r *UserRepository) FindByResetToken(ctx context.Context, token string) (*entity.User, error) {
	query := `
		SELECT ` + userSelectColumns + `
		FROM users WHERE reset_token = ?
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, token))
}

func (r *UserRepository) ListRoleNames(ctx context.Context, userID uint64) ([]string, error) {
	query := `
		SELECT r.name FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = ? ORDER BY r.name
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// SetVerificationCode overwrites any prior code, invalidating it.
func (r *UserRepository) SetVerificationCode(ctx context.Context, userID uint64, code string, expiresAt time.Time) error {
	query := `
		UPDATE users SET verification_code = ?, verification_code_expires_at = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query, code, expiresAt, time.Now(), userID)
	return err
}

// MarkEmailVerified flips the verified flag and clears the code in one guarded
// statement. Returns false when the user was already verified, so concurrent
// verification attempts cannot both succeed.
func (r *UserRepository) MarkEmailVerified(ctx context.Context, userID uint64) (bool, error) {
	query := `
		UPDATE users SET email_verified = TRUE, verification_code = NULL, verification_code_expires_at = NULL, updated_at = ?
		WHERE id = ? AND email_verified = FALSE
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), userID)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *UserRepository) SetResetToken(ctx context.Context, userID uint64, token string, expiresAt time.Time) error {
	query := `
		UPDATE users SET reset_token = ?, reset_token_expires_at = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query, token, expiresAt, time.Now(), userID)
	return err
}

func (r *UserRepository) ClearResetToken(ctx context.Context, userID uint64) error {
	query := `
		UPDATE users SET reset_token = NULL, reset_token_expires_at = NULL, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query, time.Now(), userID)
	return err
}

// ResetPasswordByToken sets the new hash and clears the token in a single
// statement keyed on the token value. Returns false when the token was already
// consumed, so a replayed reset cannot apply twice.
func (r *UserRepository) ResetPasswordByToken(ctx context.Context, token, passwordHash string) (bool, error) {
	query := `
		UPDATE users SET password_hash = ?, reset_token = NULL, reset_token_expires_at = NULL, updated_at = ?
		WHERE reset_token = ?
	`
	result, err := r.db.ExecContext(ctx, query, passwordHash, time.Now(), token)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *UserRepository) scanOne(row *sql.Row) (*entity.User, error) {
	user := &entity.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&user.EmailVerified,
		&user.VerificationCode,
		&user.VerificationCodeExpiresAt,
		&user.ResetToken,
		&user.ResetTokenExpiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
