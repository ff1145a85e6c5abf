package service

import (
	"context"
	"errors"
	"time"

	"github.com/mycourse/elearning-platform/app/entity"
	"github.com/mycourse/elearning-platform/app/repository"
)

var (
	ErrCourseNotFound  = errors.New("course not found")
	ErrNotCourseOwner  = errors.New("only the course's instructor may modify it")
	ErrAlreadyEnrolled = errors.New("already enrolled in this course")
)

type CourseService struct {
	courseRepo     *repository.CourseRepository
	enrollmentRepo *repository.EnrollmentRepository
}

func NewCourseService(courseRepo *repository.CourseRepository, enrollmentRepo *repository.EnrollmentRepository) *CourseService {
	return &CourseService{
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
	}
}

func (s *CourseService) List(ctx context.Context) ([]*entity.Course, error) {
	return s.courseRepo.List(ctx)
}

func (s *CourseService) Get(ctx context.Context, id uint64) (*entity.Course, error) {
	course, err := s.courseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, ErrCourseNotFound
	}
	return course, nil
}

func (s *CourseService) Create(ctx context.Context, instructorID uint64, title, description string) (*entity.Course, error) {
	now := time.Now()
	course := &entity.Course{
		Title:        title,
		Description:  description,
		InstructorID: instructorID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.courseRepo.Create(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

// Update re-fetches the course and compares its owner to the caller before
// mutating. Role checks alone are not enough here.
func (s *CourseService) Update(ctx context.Context, callerID, courseID uint64, title, description string) (*entity.Course, error) {
	course, err := s.courseRepo.FindByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, ErrCourseNotFound
	}
	if course.InstructorID != callerID {
		return nil, ErrNotCourseOwner
	}

	course.Title = title
	course.Description = description
	if err := s.courseRepo.Update(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) Delete(ctx context.Context, callerID, courseID uint64) error {
	course, err := s.courseRepo.FindByID(ctx, courseID)
	if err != nil {
		return err
	}
	if course == nil {
		return ErrCourseNotFound
	}
	if course.InstructorID != callerID {
		return ErrNotCourseOwner
	}
	return s.courseRepo.Delete(ctx, courseID)
}

func (s *CourseService) Enroll(ctx context.Context, userID, courseID uint64) (*entity.Enrollment, error) {
	course, err := s.courseRepo.FindByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, ErrCourseNotFound
	}

	exists, err := s.enrollmentRepo.Exists(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyEnrolled
	}

	enrollment := &entity.Enrollment{
		UserID:     userID,
		CourseID:   courseID,
		EnrolledAt: time.Now(),
	}
	if err := s.enrollmentRepo.Create(ctx, enrollment); err != nil {
		// A concurrent enrollment can slip past the existence check; the
		// unique key is the authority.
		if errors.Is(err, repository.ErrDuplicateEnrollment) {
			return nil, ErrAlreadyEnrolled
		}
		return nil, err
	}
	return enrollment, nil
}

func (s *CourseService) ListEnrollments(ctx context.Context, userID uint64) ([]*entity.Enrollment, error) {
	return s.enrollmentRepo.ListByUserID(ctx, userID)
}
