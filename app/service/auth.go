package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/mycourse/elearning-platform/app/dto"
	"github.com/mycourse/elearning-platform/app/entity"
	"github.com/mycourse/elearning-platform/app/repository"
	"github.com/mycourse/elearning-platform/config"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrEmailInUse       = errors.New("email is already in use")
	ErrRoleNotFound     = errors.New("role not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailNotVerified = errors.New("please verify your email")
	ErrAlreadyVerified  = errors.New("email is already verified")
	ErrInvalidCode      = errors.New("invalid or expired code")
	ErrNotifierFailure  = errors.New("failed to send email")

	// Both credential errors carry the same generic message; the distinct
	// values let the controller tag the failing field for client display.
	ErrUnknownEmail  = errors.New("invalid email or password")
	ErrWrongPassword = errors.New("invalid email or password")
)

type AuthService struct {
	db       *sql.DB
	userRepo *repository.UserRepository
	roleRepo *repository.RoleRepository
	tokens   *TokenService
	hasher   *PasswordHasher
	policy   *EmailPolicy
	notifier Notifier
	cfg      *config.Config
}

func NewAuthService(
	db *sql.DB,
	userRepo *repository.UserRepository,
	roleRepo *repository.RoleRepository,
	tokens *TokenService,
	hasher *PasswordHasher,
	policy *EmailPolicy,
	notifier Notifier,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		db:       db,
		userRepo: userRepo,
		roleRepo: roleRepo,
		tokens:   tokens,
		hasher:   hasher,
		policy:   policy,
		notifier: notifier,
		cfg:      cfg,
	}
}

// Register creates an unverified account and dispatches a 6-digit code. When
// dispatch fails the account still exists (ErrNotifierFailure alongside a
// non-nil result); a resend resolves the window.
func (s *AuthService) Register(ctx context.Context, firstName, lastName, email, password, roleName string) (*dto.RegisterResult, error) {
	if result := s.policy.Validate(email); !result.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEmail, result.Reason)
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailInUse
	}

	role, err := s.resolveRole(ctx, roleName)
	if err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	code, err := generateVerificationCode()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &entity.User{
		Email:         email,
		FirstName:     firstName,
		LastName:      lastName,
		PasswordHash:  passwordHash,
		EmailVerified: false,
		VerificationCode: sql.NullString{
			String: code,
			Valid:  true,
		},
		VerificationCodeExpiresAt: sql.NullTime{
			Time:  now.Add(s.cfg.VerificationCodeTTL),
			Valid: true,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	txUserRepo := s.userRepo.WithTx(tx)
	if err := txUserRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	if err := txUserRepo.AddRole(ctx, user.ID, role.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	user.Roles = []string{role.Name}

	result := &dto.RegisterResult{User: user}

	if err := s.notifier.SendVerificationCode(ctx, user.Email, code, user.FirstName); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("Verification code dispatch failed")
		return result, ErrNotifierFailure
	}

	return result, nil
}

// VerifyCode consumes a 6-digit code. A second attempt after success fails
// with ErrAlreadyVerified rather than silently succeeding.
func (s *AuthService) VerifyCode(ctx context.Context, email, code string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrInvalidCode
	}
	if user.EmailVerified {
		return ErrAlreadyVerified
	}
	if !user.VerificationCode.Valid || user.VerificationCode.String != code {
		return ErrInvalidCode
	}
	if !user.VerificationCodeExpiresAt.Valid || !time.Now().Before(user.VerificationCodeExpiresAt.Time) {
		return ErrInvalidCode
	}

	verified, err := s.userRepo.MarkEmailVerified(ctx, user.ID)
	if err != nil {
		return err
	}
	if !verified {
		// A concurrent request got there first.
		return ErrAlreadyVerified
	}
	return nil
}

// ResendCode overwrites the prior code with a fresh one, invalidating it.
func (s *AuthService) ResendCode(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.EmailVerified {
		return ErrAlreadyVerified
	}

	code, err := generateVerificationCode()
	if err != nil {
		return err
	}
	if err := s.userRepo.SetVerificationCode(ctx, user.ID, code, time.Now().Add(s.cfg.VerificationCodeTTL)); err != nil {
		return err
	}

	if err := s.notifier.SendVerificationCode(ctx, user.Email, code, user.FirstName); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("Verification code dispatch failed")
		return ErrNotifierFailure
	}
	return nil
}

// VerifyEmail consumes a link-style opaque token and, unlike the code path,
// logs the user in immediately.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*dto.LoginResult, error) {
	user, err := s.userRepo.FindByVerificationCode(ctx, token)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}
	if !user.VerificationCodeExpiresAt.Valid || !time.Now().Before(user.VerificationCodeExpiresAt.Time) {
		return nil, ErrInvalidToken
	}

	verified, err := s.userRepo.MarkEmailVerified(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if !verified {
		return nil, ErrInvalidToken
	}

	return s.issueSession(ctx, user)
}

// ResendVerification issues a link-style token with the longer TTL.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.EmailVerified {
		return ErrAlreadyVerified
	}

	token := uuid.New().String()
	if err := s.userRepo.SetVerificationCode(ctx, user.ID, token, time.Now().Add(s.cfg.VerificationLinkTTL)); err != nil {
		return err
	}

	if err := s.notifier.SendVerificationLink(ctx, user.Email, token, user.FirstName); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("Verification link dispatch failed")
		return ErrNotifierFailure
	}
	return nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*dto.LoginResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnknownEmail
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrWrongPassword
	}

	if !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	return s.issueSession(ctx, user)
}

// ForgotPassword never reports whether the address exists. Callers render the
// same acknowledgement for a nil error regardless.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	token := uuid.New().String()
	if err := s.userRepo.SetResetToken(ctx, user.ID, token, time.Now().Add(s.cfg.ResetTokenTTL)); err != nil {
		return err
	}

	if err := s.notifier.SendPasswordReset(ctx, user.Email, token, user.FirstName); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("Reset email dispatch failed")
		// An undelivered token must not stay live.
		if clearErr := s.userRepo.ClearResetToken(ctx, user.ID); clearErr != nil {
			logrus.WithError(clearErr).WithField("user_id", user.ID).Error("Failed to clear undelivered reset token")
		}
		return ErrNotifierFailure
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	user, err := s.userRepo.FindByResetToken(ctx, token)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrInvalidToken
	}
	if !user.ResetTokenExpiresAt.Valid || !time.Now().Before(user.ResetTokenExpiresAt.Time) {
		if clearErr := s.userRepo.ClearResetToken(ctx, user.ID); clearErr != nil {
			logrus.WithError(clearErr).WithField("user_id", user.ID).Error("Failed to clear expired reset token")
		}
		return ErrInvalidToken
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	applied, err := s.userRepo.ResetPasswordByToken(ctx, token, passwordHash)
	if err != nil {
		return err
	}
	if !applied {
		return ErrInvalidToken
	}
	return nil
}

func (s *AuthService) issueSession(ctx context.Context, user *entity.User) (*dto.LoginResult, error) {
	roles, err := s.userRepo.ListRoleNames(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID, user.Email, roles)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResult{
		Token:     token,
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		Roles:     roles,
	}, nil
}

func (s *AuthService) resolveRole(ctx context.Context, roleName string) (*entity.Role, error) {
	name := strings.ToUpper(strings.TrimSpace(roleName))
	if name == "" {
		name = RoleStudent
	}

	role, err := s.roleRepo.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, ErrRoleNotFound
	}
	return role, nil
}

// generateVerificationCode returns a cryptographically random, zero-padded
// 6-digit code.
func generateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
