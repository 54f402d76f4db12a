package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/edustream-api/internal/dto"
	"github.com/noah-isme/edustream-api/internal/models"
	appErrors "github.com/noah-isme/edustream-api/pkg/errors"
)

type enrollmentRepository interface {
	Create(ctx context.Context, userID, courseID string) (bool, error)
	Delete(ctx context.Context, userID, courseID string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]models.EnrolledCourse, error)
	Summary(ctx context.Context) ([]models.EnrollmentCount, error)
}

type enrollmentCourses interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	AdjustEnrolled(ctx context.Context, id string, delta int) error
}

type thumbnailResolver interface {
	ThumbnailURL(key string) string
}

// EnrollmentService manages learner enrollments.
type EnrollmentService struct {
	repo       enrollmentRepository
	courses    enrollmentCourses
	thumbnails thumbnailResolver
	logger     *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, courses enrollmentCourses, thumbnails thumbnailResolver, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, courses: courses, thumbnails: thumbnails, logger: logger}
}

// Enroll registers the learner in a published course. Repeated calls are reported, not failed.
func (s *EnrollmentService) Enroll(ctx context.Context, userID, courseID string) (*dto.EnrollResult, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !course.IsPublished {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}

	created, err := s.repo.Create(ctx, userID, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll")
	}
	if !created {
		return &dto.EnrollResult{Created: false, Message: "already enrolled"}, nil
	}

	if err := s.courses.AdjustEnrolled(ctx, courseID, 1); err != nil {
		s.logger.Warn("failed to increment enrolled count", zap.String("course_id", courseID), zap.Error(err))
	}
	return &dto.EnrollResult{Created: true, Message: "enrolled"}, nil
}

// Unenroll removes the enrollment if present.
func (s *EnrollmentService) Unenroll(ctx context.Context, userID, courseID string) error {
	deleted, err := s.repo.Delete(ctx, userID, courseID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unenroll")
	}
	if !deleted {
		return nil
	}
	if err := s.courses.AdjustEnrolled(ctx, courseID, -1); err != nil {
		s.logger.Warn("failed to decrement enrolled count", zap.String("course_id", courseID), zap.Error(err))
	}
	return nil
}

// Mine lists the learner's enrollments, newest first.
func (s *EnrollmentService) Mine(ctx context.Context, userID string) ([]dto.EnrolledCourseView, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	views := make([]dto.EnrolledCourseView, 0, len(rows))
	for _, row := range rows {
		views = append(views, dto.EnrolledCourseView{
			EnrolledAt: row.EnrolledAt,
			Course: dto.EnrolledCourseCard{
				ID:         row.CourseID,
				Title:      row.Title,
				Thumbnail:  s.thumbnails.ThumbnailURL(row.ThumbnailKey),
				Category:   row.Category,
				Difficulty: string(row.Difficulty),
				Duration:   row.Duration,
				Instructor: row.InstructorName,
			},
		})
	}
	return views, nil
}

// Summary returns per-course enrollment counts.
func (s *EnrollmentService) Summary(ctx context.Context) ([]models.EnrollmentCount, error) {
	rows, err := s.repo.Summary(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarise enrollments")
	}
	if rows == nil {
		rows = []models.EnrollmentCount{}
	}
	return rows, nil
}
