package middleware

import (
	"net/http"
	"strings"

	"github.com/mycourse/elearning-platform/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const principalKey = "principal"

// Principal is the authenticated identity attached to a request. Roles come
// from token claims and are not re-checked against the store during the
// request.
type Principal struct {
	UserID uint64
	Email  string
	Roles  []string
}

func (p *Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func PrincipalFromContext(c echo.Context) (*Principal, bool) {
	principal, ok := c.Get(principalKey).(*Principal)
	return principal, ok && principal != nil
}

type tokenValidator interface {
	Validate(tokenString string) (*service.Claims, error)
}

type AuthMiddleware struct {
	tokens tokenValidator
}

func NewAuthMiddleware(tokens tokenValidator) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Populate attaches a principal when a valid bearer token is present. It never
// rejects a request itself: missing and invalid tokens both pass through
// anonymously, and the per-route gates decide what that means.
func (m *AuthMiddleware) Populate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Request().Method == http.MethodOptions {
			return next(c)
		}

		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return next(c)
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return next(c)
		}

		claims, err := m.tokens.Validate(parts[1])
		if err != nil {
			logrus.Debug("Bearer token failed validation, continuing anonymous")
			return next(c)
		}

		c.Set(principalKey, &Principal{
			UserID: claims.UserID,
			Email:  claims.Email,
			Roles:  claims.Roles,
		})
		return next(c)
	}
}

func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "authentication required",
			})
		}
		return next(c)
	}
}

// RequireRole admits principals holding any of the given roles.
func (m *AuthMiddleware) RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, ok := PrincipalFromContext(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "authentication required",
				})
			}
			for _, role := range roles {
				if principal.HasRole(role) {
					return next(c)
				}
			}
			logrus.WithFields(logrus.Fields{
				"user_id": principal.UserID,
				"roles":   principal.Roles,
			}).Debug("Role gate rejected request")
			return c.JSON(http.StatusForbidden, map[string]string{
				"error": "insufficient permissions",
			})
		}
	}
}
