package entity

import "time"

type Course struct {
	ID           uint64
	Title        string
	Description  string
	InstructorID uint64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Enrollment struct {
	ID         uint64
	UserID     uint64
	CourseID   uint64
	EnrolledAt time.Time
}
