package http

import "time"

type RegisterResponse struct {
	Message              string `json:"message"`
	Email                string `json:"email"`
	RequiresVerification bool   `json:"requiresVerification"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type LoginResponse struct {
	Token     string   `json:"token"`
	ID        uint64   `json:"id"`
	Email     string   `json:"email"`
	FirstName string   `json:"firstName"`
	Roles     []string `json:"roles"`
}

type MeResponse struct {
	ID    uint64   `json:"id"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

type CourseResponse struct {
	ID           uint64    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	InstructorID uint64    `json:"instructorId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type EnrollmentResponse struct {
	ID         uint64    `json:"id"`
	CourseID   uint64    `json:"courseId"`
	EnrolledAt time.Time `json:"enrolledAt"`
}

type ErrorResponse struct {
	Error                string `json:"error"`
	Field                string `json:"field,omitempty"`
	RequiresVerification bool   `json:"requiresVerification,omitempty"`
}
