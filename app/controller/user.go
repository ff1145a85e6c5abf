package controller

import (
	"net/http"

	dto "github.com/mycourse/elearning-platform/app/dto/http"
	"github.com/mycourse/elearning-platform/app/middleware"

	"github.com/labstack/echo/v4"
)

type UserController struct{}

func NewUserController() *UserController {
	return &UserController{}
}

// Me echoes the principal established by token validation; it never touches
// the credential store.
func (c *UserController) Me(ctx echo.Context) error {
	principal, ok := middleware.PrincipalFromContext(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "authentication required"})
	}

	return ctx.JSON(http.StatusOK, dto.MeResponse{
		ID:    principal.UserID,
		Email: principal.Email,
		Roles: principal.Roles,
	})
}
