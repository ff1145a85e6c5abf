package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/mycourse/elearning-platform/app/entity"
	"github.com/mycourse/elearning-platform/app/repository"

	"github.com/DATA-DOG/go-sqlmock"
)

const (
	insertUserQuery        = `(?s)INSERT INTO users \(email, first_name, last_name, password_hash, email_verified, verification_code, verification_code_expires_at, created_at, updated_at\)\s+VALUES \(\?, \?, \?, \?, \?, \?, \?, \?, \?\)`
	insertUserRoleQuery    = `(?s)INSERT INTO user_roles \(user_id, role_id\) VALUES \(\?, \?\)`
	findByEmailQuery       = `(?s)SELECT id, email, first_name, last_name, password_hash, email_verified,\s+verification_code, verification_code_expires_at, reset_token, reset_token_expires_at,\s+created_at, updated_at\s+FROM users WHERE LOWER\(email\) = LOWER\(\?\)`
	findByResetTokenQuery  = `(?s)SELECT id, email, first_name, last_name, password_hash, email_verified,\s+verification_code, verification_code_expires_at, reset_token, reset_token_expires_at,\s+created_at, updated_at\s+FROM users WHERE reset_token = \?`
	markVerifiedQuery      = `(?s)UPDATE users SET email_verified = TRUE, verification_code = NULL, verification_code_expires_at = NULL, updated_at = \?\s+WHERE id = \? AND email_verified = FALSE`
	resetByTokenQuery      = `(?s)UPDATE users SET password_hash = \?, reset_token = NULL, reset_token_expires_at = NULL, updated_at = \?\s+WHERE reset_token = \?`
	setVerificationQuery   = `(?s)UPDATE users SET verification_code = \?, verification_code_expires_at = \?, updated_at = \?\s+WHERE id = \?`
	listRoleNamesQuery     = `(?s)SELECT r\.name FROM roles r\s+JOIN user_roles ur ON ur\.role_id = r\.id\s+WHERE ur\.user_id = \? ORDER BY r\.name`
	findRoleByNameQuery    = `SELECT id, name FROM roles WHERE name = \?`
	insertRoleQuery        = `INSERT INTO roles \(name\) VALUES \(\?\)`
)

var userColumns = []string{
	"id",
	"email",
	"first_name",
	"last_name",
	"password_hash",
	"email_verified",
	"verification_code",
	"verification_code_expires_at",
	"reset_token",
	"reset_token_expires_at",
	"created_at",
	"updated_at",
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return db, mock, func() { _ = db.Close() }
}

func userRow(id uint64, email string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(userColumns).AddRow(
		id, email, "Alice", "Smith", "$2a$10$hash", false,
		nil, nil, nil, nil, now, now,
	)
}

func TestUserRepository_Create_SetsID(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewUserRepository(db)
	now := time.Now()
	user := &entity.User{
		Email:        "alice@gmail.com",
		FirstName:    "Alice",
		LastName:     "Smith",
		PasswordHash: "$2a$10$hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	mock.ExpectExec(insertUserQuery).
		WithArgs(user.Email, user.FirstName, user.LastName, user.PasswordHash, false,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(42, 1))

	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if user.ID != 42 {
		t.Fatalf("expected user ID 42, got %d", user.ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_FindByEmail_NoRows(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewUserRepository(db)

	mock.ExpectQuery(findByEmailQuery).
		WithArgs("missing@gmail.com").
		WillReturnRows(sqlmock.NewRows(userColumns))

	user, err := repo.FindByEmail(context.Background(), "missing@gmail.com")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if user != nil {
		t.Fatalf("expected nil user, got %+v", user)
	}
}

func TestUserRepository_FindByEmail_Found(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewUserRepository(db)

	mock.ExpectQuery(findByEmailQuery).
		WithArgs("ALICE@GMAIL.COM").
		WillReturnRows(userRow(7, "alice@gmail.com"))

	user, err := repo.FindByEmail(context.Background(), "ALICE@GMAIL.COM")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if user == nil || user.ID != 7 {
		t.Fatalf("expected user 7, got %+v", user)
	}
}

func TestUserRepository_MarkEmailVerified_Guarded(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewUserRepository(db)

	mock.ExpectExec(markVerifiedQuery).
		WithArgs(sqlmock.AnyArg(), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.MarkEmailVerified(context.Background(), 7)
	if err != nil {
		t.Fatalf("mark verified failed: %v", err)
	}
	if !ok {
		t.Fatalf("expected first verification to apply")
	}
}

func TestUserRepository_MarkEmailVerified_AlreadyVerified(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewUserRepository(db)

	mock.ExpectExec(markVerifiedQuery).
		WithArgs(sqlmock.AnyArg(), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.MarkEmailVerified(context.Background(), 7)
	if err != nil {
		t.Fatalf("mark verified failed: %v", err)
	}
	if ok {
		t.Fatalf("expected zero rows affected to report not applied")
	}
}

func TestUserRepository_ResetPasswordByToken_ConsumedTokenDoesNotApply(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewUserRepository(db)

	mock.ExpectExec(resetByTokenQuery).
		WithArgs("$2a$10$newhash", sqlmock.AnyArg(), "stale-token").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.ResetPasswordByToken(context.Background(), "stale-token", "$2a$10$newhash")
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if ok {
		t.Fatalf("expected consumed token not to apply")
	}
}

func TestUserRepository_ListRoleNames(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewUserRepository(db)

	mock.ExpectQuery(listRoleNamesQuery).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("STUDENT").AddRow("TEACHER"))

	roles, err := repo.ListRoleNames(context.Background(), 7)
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	if len(roles) != 2 || roles[0] != "STUDENT" || roles[1] != "TEACHER" {
		t.Fatalf("unexpected roles: %v", roles)
	}
}

func TestRoleRepository_Seed_SkipsExisting(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewRoleRepository(db)

	mock.ExpectQuery(findRoleByNameQuery).
		WithArgs("STUDENT").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "STUDENT"))
	mock.ExpectQuery(findRoleByNameQuery).
		WithArgs("TEACHER").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
	mock.ExpectExec(insertRoleQuery).
		WithArgs("TEACHER").
		WillReturnResult(sqlmock.NewResult(2, 1))

	if err := repo.Seed(context.Background(), "STUDENT", "TEACHER"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
