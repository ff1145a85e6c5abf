package controller

import (
	"errors"
	"net/http"

	dto "github.com/mycourse/elearning-platform/app/dto/http"
	"github.com/mycourse/elearning-platform/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// The resend acks are shared between the success and not-found paths so the
// response never reveals whether an account exists.
const (
	resendCodeAck = "if an account exists and requires verification, a new code has been sent"
	resendLinkAck = "if an account exists and requires verification, a new link has been sent"
)

type AuthController struct {
	authService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

func (c *AuthController) Register(ctx echo.Context) error {
	var req dto.RegisterRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	if req.Email == "" || req.Password == "" {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "email and password are required"})
	}
	if req.FirstName == "" {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "first name is required", Field: "firstName"})
	}

	result, err := c.authService.Register(ctx.Request().Context(), req.FirstName, req.LastName, req.Email, req.Password, req.Role)
	if err != nil {
		if errors.Is(err, service.ErrInvalidEmail) {
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error(), Field: "email"})
		}
		if errors.Is(err, service.ErrEmailInUse) {
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "email is already in use", Field: "email"})
		}
		if errors.Is(err, service.ErrRoleNotFound) {
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "role not found", Field: "role"})
		}
		if errors.Is(err, service.ErrNotifierFailure) {
			// The account exists; the caller recovers via resend-code.
			return ctx.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: "verification code sending failed"})
		}
		logrus.WithError(err).Error("Register failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, dto.RegisterResponse{
		Message:              "registration successful, check your email for the verification code",
		Email:                result.User.Email,
		RequiresVerification: true,
	})
}

func (c *AuthController) VerifyCode(ctx echo.Context) error {
	var req dto.VerifyCodeRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	if req.Email == "" || req.Code == "" {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "email and code are required"})
	}

	if err := c.authService.VerifyCode(ctx.Request().Context(), req.Email, req.Code); err != nil {
		if errors.Is(err, service.ErrAlreadyVerified) {
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "email is already verified"})
		}
		if errors.Is(err, service.ErrInvalidCode) {
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid or expired code"})
		}
		logrus.WithError(err).Error("Verify code failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "email verified successfully"})
}

// ResendCode acknowledges identically whether the account is missing, already
// verified, or got a fresh code. Only a dispatch failure surfaces differently.
func (c *AuthController) ResendCode(ctx echo.Context) error {
	var req dto.ResendCodeRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	if req.Email == "" {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "email is required"})
	}

	if err := c.authService.ResendCode(ctx.Request().Context(), req.Email); err != nil {
		if errors.Is(err, service.ErrUserNotFound) || errors.Is(err, service.ErrAlreadyVerified) {
			return ctx.JSON(http.StatusOK, dto.MessageResponse{Message: resendCodeAck})
		}
		if errors.Is(err, service.ErrNotifierFailure) {
			return ctx.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: "verification code sending failed"})
		}
		logrus.WithError(err).Error("Resend code failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, dto.MessageResponse{Message: resendCodeAck})
}

// VerifyEmail consumes a link-style token and returns a session, so the client
// is logged in straight after verifying.
func (c *AuthController) VerifyEmail(ctx echo.Context) error {
	var req dto.VerifyEmailRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	if req.Token == "" {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "token is required"})
	}

	result, err := c.authService.VerifyEmail(ctx.Request().Context(), req.Token)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid or expired token"})
		}
		logrus.WithError(err).Error("Verify email failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, dto.LoginResponse{
		Token:     result.Token,
		ID:        result.UserID,
		Email:     result.Email,
		FirstName: result.FirstName,
		Roles:     result.Roles,
	})
}

func (c *AuthController) ResendVerification(ctx echo.Context) error {
	var req dto.ResendVerificationRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	if req.Email == "" {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "email is required"})
	}

	if err := c.authService.ResendVerification(ctx.Request().Context(), req.Email); err != nil {
		if errors.Is(err, service.ErrUserNotFound) || errors.Is(err, service.ErrAlreadyVerified) {
			return ctx.JSON(http.StatusOK, dto.MessageResponse{Message: resendLinkAck})
		}
		if errors.Is(err, service.ErrNotifierFailure) {
			return ctx.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: "verification email sending failed"})
		}
		logrus.WithError(err).Error("Resend verification failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, dto.MessageResponse{Message: resendLinkAck})
}

func (c *AuthController) Login(ctx echo.Context) error {
	var req dto.LoginRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	if req.Email == "" || req.Password == "" {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "email and password are required"})
	}

	result, err := c.authService.Login(ctx.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUnknownEmail) {
			return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid email or password", Field: "email"})
		}
		if errors.Is(err, service.ErrWrongPassword) {
			return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid email or password", Field: "password"})
		}
		if errors.Is(err, service.ErrEmailNotVerified) {
			return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error:                "please verify your email",
				Field:                "email",
				RequiresVerification: true,
			})
		}
		logrus.WithError(err).Error("Login failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, dto.LoginResponse{
		Token:     result.Token,
		ID:        result.UserID,
		Email:     result.Email,
		FirstName: result.FirstName,
		Roles:     result.Roles,
	})
}

// ForgotPassword acknowledges identically whether or not the account exists.
func (c *AuthController) ForgotPassword(ctx echo.Context) error {
	var req dto.ForgotPasswordRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	if req.Email == "" {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "email is required"})
	}

	if err := c.authService.ForgotPassword(ctx.Request().Context(), req.Email); err != nil {
		if errors.Is(err, service.ErrNotifierFailure) {
			return ctx.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: "failed to send reset email"})
		}
		logrus.WithError(err).Error("Forgot password failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "if an account exists, a reset link has been sent"})
}

func (c *AuthController) ResetPassword(ctx echo.Context) error {
	var req dto.ResetPasswordRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	if req.Token == "" || req.Password == "" {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "token and password are required"})
	}

	if err := c.authService.ResetPassword(ctx.Request().Context(), req.Token, req.Password); err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid or expired token"})
		}
		logrus.WithError(err).Error("Reset password failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "password reset successfully"})
}
