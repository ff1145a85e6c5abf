package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mycourse/elearning-platform/app/entity"

	"github.com/go-sql-driver/mysql"
)

// ErrDuplicateEnrollment is returned when the (user_id, course_id) unique key
// rejects an insert that raced past the existence check.
var ErrDuplicateEnrollment = errors.New("enrollment already exists")

type CourseRepository struct {
	db querier
}

func NewCourseRepository(db *sql.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func (r *CourseRepository) Create(ctx context.Context, course *entity.Course) error {
	query := `
		INSERT INTO courses (title, description, instructor_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		course.Title,
		course.Description,
		course.InstructorID,
		course.CreatedAt,
		course.UpdatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	course.ID = uint64(id)
	return nil
}

func (r *CourseRepository) FindByID(ctx context.Context, id uint64) (*entity.Course, error) {
	query := `
		SELECT id, title, description, instructor_id, created_at, updated_at
		FROM courses WHERE id = ?
	`
	course := &entity.Course{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&course.ID,
		&course.Title,
		&course.Description,
		&course.InstructorID,
		&course.CreatedAt,
		&course.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return course, nil
}

func (r *CourseRepository) List(ctx context.Context) ([]*entity.Course, error) {
	query := `
		SELECT id, title, description, instructor_id, created_at, updated_at
		FROM courses ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []*entity.Course
	for rows.Next() {
		course := &entity.Course{}
		if err := rows.Scan(
			&course.ID,
			&course.Title,
			&course.Description,
			&course.InstructorID,
			&course.CreatedAt,
			&course.UpdatedAt,
		); err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}
	return courses, rows.Err()
}

func (r *CourseRepository) Update(ctx context.Context, course *entity.Course) error {
	query := `
		UPDATE courses SET title = ?, description = ?, updated_at = ?
		WHERE id = ?
	`
	course.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query, course.Title, course.Description, course.UpdatedAt, course.ID)
	return err
}

func (r *CourseRepository) Delete(ctx context.Context, id uint64) error {
	query := `DELETE FROM courses WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

type EnrollmentRepository struct {
	db querier
}

func NewEnrollmentRepository(db *sql.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *entity.Enrollment) error {
	query := `
		INSERT INTO enrollments (user_id, course_id, enrolled_at)
		VALUES (?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		enrollment.UserID,
		enrollment.CourseID,
		enrollment.EnrolledAt,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return ErrDuplicateEnrollment
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	enrollment.ID = uint64(id)
	return nil
}

func (r *EnrollmentRepository) Exists(ctx context.Context, userID, courseID uint64) (bool, error) {
	query := `SELECT COUNT(1) FROM enrollments WHERE user_id = ? AND course_id = ?`
	var count int
	if err := r.db.QueryRowContext(ctx, query, userID, courseID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *EnrollmentRepository) ListByUserID(ctx context.Context, userID uint64) ([]*entity.Enrollment, error) {
	query := `
		SELECT id, user_id, course_id, enrolled_at
		FROM enrollments WHERE user_id = ? ORDER BY enrolled_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var enrollments []*entity.Enrollment
	for rows.Next() {
		enrollment := &entity.Enrollment{}
		if err := rows.Scan(
			&enrollment.ID,
			&enrollment.UserID,
			&enrollment.CourseID,
			&enrollment.EnrolledAt,
		); err != nil {
			return nil, err
		}
		enrollments = append(enrollments, enrollment)
	}
	return enrollments, rows.Err()
}
