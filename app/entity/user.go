package entity

import (
	"database/sql"
	"time"
)

type User struct {
	ID                        uint64
	Email                     string
	FirstName                 string
	LastName                  string
	PasswordHash              string
	EmailVerified             bool
	VerificationCode          sql.NullString
	VerificationCodeExpiresAt sql.NullTime
	ResetToken                sql.NullString
	ResetTokenExpiresAt       sql.NullTime
	CreatedAt                 time.Time
	UpdatedAt                 time.Time

	// Roles is loaded from the user_roles join table, never from the users row.
	Roles []string
}

type Role struct {
	ID   uint64
	Name string
}
