package dto

import "github.com/mycourse/elearning-platform/app/entity"

type RegisterResult struct {
	User *entity.User
}

type LoginResult struct {
	Token     string
	UserID    uint64
	Email     string
	FirstName string
	Roles     []string
}
