package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/edustream-api/internal/dto"
	"github.com/noah-isme/edustream-api/internal/models"
	appErrors "github.com/noah-isme/edustream-api/pkg/errors"
	"github.com/noah-isme/edustream-api/pkg/events"
	"github.com/noah-isme/edustream-api/pkg/storage"
)

const (
	thumbnailFolder = "course-thumbnails"
	videoFolder     = "course-videos"

	defaultCatalogLimit = 10
	defaultManageLimit  = 20
	maxPageLimit        = 100
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	SetPublished(ctx context.Context, id string, published bool) error
	Delete(ctx context.Context, id string) (bool, error)
}

type categoryCounter interface {
	AdjustCourseCount(ctx context.Context, name string, delta int) error
}

type courseEnrollmentCleaner interface {
	DeleteByCourse(ctx context.Context, courseID string) error
}

// CourseConfig tunes course management.
type CourseConfig struct {
	MaxUploadBytes int64
}

// CourseService implements catalog browsing and course management.
type CourseService struct {
	courses     courseRepository
	categories  categoryCounter
	enrollments courseEnrollmentCleaner
	store       storage.FileStore
	events      EventNotifier
	logger      *zap.Logger
	validator   *validator.Validate
	config      CourseConfig
}

// NewCourseService constructs a CourseService.
func NewCourseService(courses courseRepository, categories categoryCounter, enrollments courseEnrollmentCleaner, store storage.FileStore, notifier EventNotifier, logger *zap.Logger, config CourseConfig) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = 100 << 20
	}
	return &CourseService{
		courses:     courses,
		categories:  categories,
		enrollments: enrollments,
		store:       store,
		events:      notifier,
		logger:      logger,
		validator:   validator.New(),
		config:      config,
	}
}

// ListPublic returns published courses matching the query.
func (s *CourseService) ListPublic(ctx context.Context, query dto.CourseQuery) ([]dto.PublicCourse, *models.Pagination, error) {
	filter, err := s.buildFilter(query, defaultCatalogLimit)
	if err != nil {
		return nil, nil, err
	}
	filter.PublishedOnly = true

	courses, total, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	views := make([]dto.PublicCourse, 0, len(courses))
	for i := range courses {
		views = append(views, dto.NewPublicCourse(&courses[i], s.thumbnailURL(courses[i].ThumbnailKey)))
	}
	return views, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// ListManaged returns courses visible to an instructor or admin, drafts included on request.
// Instructors only ever see their own courses.
func (s *CourseService) ListManaged(ctx context.Context, actor *models.JWTClaims, query dto.CourseQuery) ([]dto.CourseView, *models.Pagination, error) {
	filter, err := s.buildFilter(query, defaultManageLimit)
	if err != nil {
		return nil, nil, err
	}
	filter.PublishedOnly = !query.IncludeDrafts
	if actor.Role != models.RoleAdmin || query.Owner == "me" {
		filter.InstructorID = actor.UserID
	}

	courses, total, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	views := make([]dto.CourseView, 0, len(courses))
	for i := range courses {
		views = append(views, dto.NewCourseView(&courses[i], s.thumbnailURL(courses[i].ThumbnailKey)))
	}
	return views, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// GetPublic returns a published course.
func (s *CourseService) GetPublic(ctx context.Context, id string) (*dto.PublicCourse, error) {
	course, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !course.IsPublished {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	view := dto.NewPublicCourse(course, s.thumbnailURL(course.ThumbnailKey))
	return &view, nil
}

// GetManaged returns the full course to its owner or an admin.
func (s *CourseService) GetManaged(ctx context.Context, actor *models.JWTClaims, id string) (*dto.CourseView, error) {
	course, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	view := dto.NewCourseView(course, s.thumbnailURL(course.ThumbnailKey))
	return &view, nil
}

// Create validates the input, stores the optional thumbnail and inserts an unpublished course.
func (s *CourseService) Create(ctx context.Context, actor *models.JWTClaims, input dto.CourseInput, thumbnail *dto.Upload) (*dto.CourseView, error) {
	course := &models.Course{
		InstructorID:     actor.UserID,
		InstructorName:   actor.Name,
		InstructorAvatar: actor.Avatar,
	}
	if course.InstructorName == "" {
		course.InstructorName = actor.Email
	}
	applyCourseInput(course, input)
	if err := s.validateCourse(course); err != nil {
		return nil, err
	}

	if thumbnail != nil {
		key, err := s.upload(ctx, thumbnail)
		if err != nil {
			return nil, err
		}
		course.ThumbnailKey = key
	}

	if err := s.courses.Create(ctx, course); err != nil {
		s.store.Delete(ctx, course.ThumbnailKey)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}

	s.adjustCategory(ctx, course.Category, 1)
	s.events.Emit(events.CourseCreated, courseEventData(course))
	s.logger.Info("course created", zap.String("course_id", course.ID), zap.String("instructor_id", course.InstructorID))

	view := dto.NewCourseView(course, s.thumbnailURL(course.ThumbnailKey))
	return &view, nil
}

// Update applies the provided fields. A new thumbnail replaces and removes the previous one.
func (s *CourseService) Update(ctx context.Context, actor *models.JWTClaims, id string, input dto.CourseInput, thumbnail *dto.Upload) (*dto.CourseView, error) {
	course, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	previousCategory := course.Category
	previousThumbnail := course.ThumbnailKey

	applyCourseInput(course, input)
	if err := s.validateCourse(course); err != nil {
		return nil, err
	}

	if thumbnail != nil {
		key, err := s.upload(ctx, thumbnail)
		if err != nil {
			return nil, err
		}
		course.ThumbnailKey = key
	}

	if err := s.courses.Update(ctx, course); err != nil {
		if course.ThumbnailKey != previousThumbnail {
			s.store.Delete(ctx, course.ThumbnailKey)
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}

	if course.ThumbnailKey != previousThumbnail {
		s.store.Delete(ctx, previousThumbnail)
	}
	if course.Category != previousCategory {
		s.adjustCategory(ctx, previousCategory, -1)
		s.adjustCategory(ctx, course.Category, 1)
	}

	view := dto.NewCourseView(course, s.thumbnailURL(course.ThumbnailKey))
	return &view, nil
}

// Delete removes the course and then, best effort, its stored assets, enrollments and category count.
func (s *CourseService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	course, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return err
	}
	deleted, err := s.courses.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}

	for _, key := range s.ownedAssets(course) {
		s.store.Delete(ctx, key)
	}
	if err := s.enrollments.DeleteByCourse(ctx, id); err != nil {
		s.logger.Warn("failed to remove enrollments of deleted course", zap.String("course_id", id), zap.Error(err))
	}
	s.adjustCategory(ctx, course.Category, -1)
	s.events.Emit(events.CourseDeleted, courseEventData(course))
	s.logger.Info("course deleted", zap.String("course_id", id))
	return nil
}

// SetPublished publishes or unpublishes a course.
func (s *CourseService) SetPublished(ctx context.Context, actor *models.JWTClaims, id string, published bool) (*dto.CourseView, error) {
	course, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.courses.SetPublished(ctx, id, published); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	course.IsPublished = published

	event := events.CourseUnpublished
	if published {
		event = events.CoursePublished
	}
	s.events.Emit(event, courseEventData(course))

	view := dto.NewCourseView(course, s.thumbnailURL(course.ThumbnailKey))
	return &view, nil
}

// ThumbnailURL resolves a stored thumbnail reference.
func (s *CourseService) ThumbnailURL(key string) string {
	return s.thumbnailURL(key)
}

func (s *CourseService) buildFilter(query dto.CourseQuery, defaultLimit int) (models.CourseFilter, error) {
	filter := models.CourseFilter{
		Category: strings.TrimSpace(query.Category),
		Search:   strings.TrimSpace(query.Search),
		SortBy:   models.SortRecent,
		Page:     query.Page,
		PageSize: query.Limit,
	}
	if query.Difficulty != "" {
		filter.Difficulty = models.Difficulty(strings.ToLower(query.Difficulty))
		if !filter.Difficulty.Valid() {
			return filter, appErrors.Clone(appErrors.ErrValidation, "Difficulty must be beginner, intermediate, or advanced")
		}
	}
	switch models.CourseSort(query.SortBy) {
	case models.SortRating, models.SortPopular:
		filter.SortBy = models.CourseSort(query.SortBy)
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = defaultLimit
	}
	if filter.PageSize > maxPageLimit {
		filter.PageSize = maxPageLimit
	}
	return filter, nil
}

func (s *CourseService) load(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

func (s *CourseService) loadOwned(ctx context.Context, actor *models.JWTClaims, id string) (*models.Course, error) {
	course, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor == nil || (actor.Role != models.RoleAdmin && course.InstructorID != actor.UserID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you can only manage your own courses")
	}
	return course, nil
}

func (s *CourseService) upload(ctx context.Context, file *dto.Upload) (string, error) {
	if file.Size > s.config.MaxUploadBytes {
		return "", appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds the %d byte limit", s.config.MaxUploadBytes))
	}
	if file.ContentType != "" && !strings.HasPrefix(file.ContentType, "image/") {
		return "", appErrors.WithDetails(appErrors.ErrValidation, "validation failed", []string{"Thumbnail must be an image"})
	}
	key, err := s.store.Upload(ctx, storage.Object{
		Folder:      thumbnailFolder,
		Filename:    file.Filename,
		ContentType: file.ContentType,
		Size:        file.Size,
		Body:        file.Body,
	})
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store thumbnail")
	}
	return key, nil
}

// ownedAssets lists the stored objects that belong to the course: its thumbnail and any
// lesson or preview video uploaded to the video folder.
func (s *CourseService) ownedAssets(course *models.Course) []string {
	keys := make([]string, 0, len(course.Lessons)+2)
	if course.ThumbnailKey != "" && !isAbsoluteURL(course.ThumbnailKey) {
		keys = append(keys, course.ThumbnailKey)
	}
	videos := []string{course.VideoURL}
	for _, lesson := range course.Lessons {
		videos = append(videos, lesson.VideoURL)
	}
	for _, raw := range videos {
		if key := s.store.KeyFromURL(raw); strings.HasPrefix(key, videoFolder+"/") {
			keys = append(keys, key)
		}
	}
	return keys
}

func (s *CourseService) thumbnailURL(key string) string {
	if isAbsoluteURL(key) {
		return key
	}
	return s.store.URL(key)
}

func (s *CourseService) adjustCategory(ctx context.Context, name string, delta int) {
	if name == "" {
		return
	}
	if err := s.categories.AdjustCourseCount(ctx, name, delta); err != nil {
		s.logger.Warn("failed to adjust category course count", zap.String("category", name), zap.Int("delta", delta), zap.Error(err))
	}
}

func applyCourseInput(course *models.Course, input dto.CourseInput) {
	if input.Title != nil {
		course.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		course.Description = strings.TrimSpace(*input.Description)
	}
	if input.Category != nil {
		course.Category = strings.TrimSpace(*input.Category)
	}
	if input.Difficulty != nil {
		course.Difficulty = models.Difficulty(strings.ToLower(strings.TrimSpace(*input.Difficulty)))
	}
	if input.Duration != nil {
		course.Duration = *input.Duration
	}
	if input.Price != nil {
		course.Price = *input.Price
	}
	if input.VideoURL != nil {
		course.VideoURL = strings.TrimSpace(*input.VideoURL)
	}
	if input.Materials != nil {
		course.Materials = input.Materials
	}
	if input.Requirements != nil {
		course.Requirements = input.Requirements
	}
	if input.Tags != nil {
		course.Tags = normalizeTags(input.Tags)
	}
	if input.Lessons != nil {
		course.Lessons = normalizeLessons(input.Lessons)
	}
}

// courseRules mirrors the stored fields a course must satisfy before it is saved.
type courseRules struct {
	Title       string  `validate:"min=3"`
	Description string  `validate:"min=10"`
	Category    string  `validate:"required"`
	Difficulty  string  `validate:"oneof=beginner intermediate advanced"`
	Duration    int     `validate:"gt=0"`
	Price       float64 `validate:"gte=0"`
}

type lessonRules struct {
	Title string `validate:"required"`
}

var courseRuleMessages = map[string]string{
	"Title":       "Title is required (min 3 chars)",
	"Description": "Description is required (min 10 chars)",
	"Category":    "Category is required",
	"Difficulty":  "Difficulty must be beginner, intermediate, or advanced",
	"Duration":    "Duration must be greater than 0",
	"Price":       "Price must be zero or greater",
}

func (s *CourseService) validateCourse(course *models.Course) error {
	var details []string
	err := s.validator.Struct(courseRules{
		Title:       course.Title,
		Description: course.Description,
		Category:    course.Category,
		Difficulty:  string(course.Difficulty),
		Duration:    course.Duration,
		Price:       course.Price,
	})
	var fieldErrs validator.ValidationErrors
	switch {
	case errors.As(err, &fieldErrs):
		for _, fe := range fieldErrs {
			details = append(details, courseRuleMessages[fe.Field()])
		}
	case err != nil:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate course")
	}
	for i, lesson := range course.Lessons {
		if s.validator.Struct(lessonRules{Title: strings.TrimSpace(lesson.Title)}) != nil {
			details = append(details, fmt.Sprintf("Lesson %d title is required", i+1))
		}
	}
	if len(details) > 0 {
		return appErrors.WithDetails(appErrors.ErrValidation, "validation failed", details)
	}
	return nil
}

// normalizeLessons assigns ids to new lessons and stores them in display order.
func normalizeLessons(lessons []models.Lesson) models.Lessons {
	out := make(models.Lessons, 0, len(lessons))
	for _, lesson := range lessons {
		if lesson.ID == "" {
			lesson.ID = uuid.NewString()
		}
		lesson.Title = strings.TrimSpace(lesson.Title)
		out = append(out, lesson)
	}
	return out.Sorted()
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func courseEventData(course *models.Course) map[string]interface{} {
	return map[string]interface{}{
		"courseId":     course.ID,
		"title":        course.Title,
		"instructorId": course.InstructorID,
		"category":     course.Category,
	}
}

func isAbsoluteURL(value string) bool {
	return strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://")
}
