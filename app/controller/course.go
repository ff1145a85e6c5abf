package controller

import (
	"errors"
	"net/http"
	"strconv"

	dto "github.com/mycourse/elearning-platform/app/dto/http"
	"github.com/mycourse/elearning-platform/app/entity"
	"github.com/mycourse/elearning-platform/app/middleware"
	"github.com/mycourse/elearning-platform/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type CourseController struct {
	courseService *service.CourseService
}

func NewCourseController(courseService *service.CourseService) *CourseController {
	return &CourseController{courseService: courseService}
}

func (c *CourseController) List(ctx echo.Context) error {
	courses, err := c.courseService.List(ctx.Request().Context())
	if err != nil {
		logrus.WithError(err).Error("List courses failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	out := make([]dto.CourseResponse, 0, len(courses))
	for _, course := range courses {
		out = append(out, courseResponse(course))
	}
	return ctx.JSON(http.StatusOK, out)
}

func (c *CourseController) Get(ctx echo.Context) error {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid course id"})
	}

	course, err := c.courseService.Get(ctx.Request().Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "course not found"})
		}
		logrus.WithError(err).Error("Get course failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, courseResponse(course))
}

func (c *CourseController) Create(ctx echo.Context) error {
	principal, ok := middleware.PrincipalFromContext(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "authentication required"})
	}

	var req dto.CourseRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.Title == "" {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "title is required", Field: "title"})
	}

	course, err := c.courseService.Create(ctx.Request().Context(), principal.UserID, req.Title, req.Description)
	if err != nil {
		logrus.WithError(err).Error("Create course failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusCreated, courseResponse(course))
}

func (c *CourseController) Update(ctx echo.Context) error {
	principal, ok := middleware.PrincipalFromContext(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "authentication required"})
	}

	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid course id"})
	}

	var req dto.CourseRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.Title == "" {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "title is required", Field: "title"})
	}

	course, err := c.courseService.Update(ctx.Request().Context(), principal.UserID, id, req.Title, req.Description)
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "course not found"})
		}
		if errors.Is(err, service.ErrNotCourseOwner) {
			return ctx.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "only the course's instructor may modify it"})
		}
		logrus.WithError(err).Error("Update course failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, courseResponse(course))
}

func (c *CourseController) Delete(ctx echo.Context) error {
	principal, ok := middleware.PrincipalFromContext(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "authentication required"})
	}

	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid course id"})
	}

	if err := c.courseService.Delete(ctx.Request().Context(), principal.UserID, id); err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "course not found"})
		}
		if errors.Is(err, service.ErrNotCourseOwner) {
			return ctx.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "only the course's instructor may modify it"})
		}
		logrus.WithError(err).Error("Delete course failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "course deleted"})
}

func (c *CourseController) Enroll(ctx echo.Context) error {
	principal, ok := middleware.PrincipalFromContext(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "authentication required"})
	}

	var req dto.EnrollmentRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.CourseID == 0 {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "courseId is required", Field: "courseId"})
	}

	enrollment, err := c.courseService.Enroll(ctx.Request().Context(), principal.UserID, req.CourseID)
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "course not found"})
		}
		if errors.Is(err, service.ErrAlreadyEnrolled) {
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "already enrolled in this course"})
		}
		logrus.WithError(err).Error("Enroll failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusCreated, dto.EnrollmentResponse{
		ID:         enrollment.ID,
		CourseID:   enrollment.CourseID,
		EnrolledAt: enrollment.EnrolledAt,
	})
}

func (c *CourseController) ListEnrollments(ctx echo.Context) error {
	principal, ok := middleware.PrincipalFromContext(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "authentication required"})
	}

	enrollments, err := c.courseService.ListEnrollments(ctx.Request().Context(), principal.UserID)
	if err != nil {
		logrus.WithError(err).Error("List enrollments failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	out := make([]dto.EnrollmentResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		out = append(out, dto.EnrollmentResponse{
			ID:         enrollment.ID,
			CourseID:   enrollment.CourseID,
			EnrolledAt: enrollment.EnrolledAt,
		})
	}
	return ctx.JSON(http.StatusOK, out)
}

func courseResponse(course *entity.Course) dto.CourseResponse {
	return dto.CourseResponse{
		ID:           course.ID,
		Title:        course.Title,
		Description:  course.Description,
		InstructorID: course.InstructorID,
		CreatedAt:    course.CreatedAt,
		UpdatedAt:    course.UpdatedAt,
	}
}
