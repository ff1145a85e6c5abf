package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/mycourse/elearning-platform/config"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

const (
	RoleStudent = "STUDENT"
	RoleTeacher = "TEACHER"
)

// knownRoles is the closed set accepted in token claims. Unknown role strings
// fail validation instead of passing through to authorization checks.
var knownRoles = map[string]struct{}{
	RoleStudent: {},
	RoleTeacher: {},
}

type Claims struct {
	UserID uint64   `json:"user_id"`
	Email  string   `json:"email"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenService issues and validates stateless session tokens. Validity is a
// function of signature and expiry alone; issued tokens cannot be revoked
// before they expire.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.JWTTTL,
	}
}

func (s *TokenService) Issue(userID uint64, email string, roles []string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate returns ErrInvalidToken for every structural, signature, or expiry
// failure without distinguishing the cause.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	for _, role := range claims.Roles {
		if _, ok := knownRoles[role]; !ok {
			return nil, ErrInvalidToken
		}
	}

	return claims, nil
}
