package handler

import (
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edustream-api/internal/dto"
	"github.com/noah-isme/edustream-api/internal/models"
	appErrors "github.com/noah-isme/edustream-api/pkg/errors"
	"github.com/noah-isme/edustream-api/pkg/response"
)

type courseService interface {
	ListPublic(ctx context.Context, query dto.CourseQuery) ([]dto.PublicCourse, *models.Pagination, error)
	ListManaged(ctx context.Context, actor *models.JWTClaims, query dto.CourseQuery) ([]dto.CourseView, *models.Pagination, error)
	GetPublic(ctx context.Context, id string) (*dto.PublicCourse, error)
	GetManaged(ctx context.Context, actor *models.JWTClaims, id string) (*dto.CourseView, error)
	Create(ctx context.Context, actor *models.JWTClaims, input dto.CourseInput, thumbnail *dto.Upload) (*dto.CourseView, error)
	Update(ctx context.Context, actor *models.JWTClaims, id string, input dto.CourseInput, thumbnail *dto.Upload) (*dto.CourseView, error)
	Delete(ctx context.Context, actor *models.JWTClaims, id string) error
	SetPublished(ctx context.Context, actor *models.JWTClaims, id string, published bool) (*dto.CourseView, error)
}

// CourseHandler serves the course catalog and course management endpoints.
type CourseHandler struct {
	service courseService
}

// NewCourseHandler creates a new course handler.
func NewCourseHandler(svc courseService) *CourseHandler {
	return &CourseHandler{service: svc}
}

// List godoc
// @Summary Public course catalog
// @Description Lists published courses. Lesson video URLs are omitted.
// @Tags Courses
// @Produce json
// @Param category query string false "Category name"
// @Param difficulty query string false "beginner, intermediate or advanced"
// @Param q query string false "Full text search"
// @Param sortBy query string false "rating, popular or recent"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	courses, pagination, err := h.service.ListPublic(c.Request.Context(), catalogQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination)
}

// ListManaged godoc
// @Summary Managed courses
// @Description Lists courses including drafts. Instructors only see their own courses.
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param includeDrafts query bool false "Include unpublished courses" default(true)
// @Param owner query string false "all or me"
// @Param q query string false "Full text search"
// @Param sortBy query string false "rating, popular or recent"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /courses/admin [get]
func (h *CourseHandler) ListManaged(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	query := catalogQuery(c)
	query.IncludeDrafts = queryBool(c, "includeDrafts", true)
	query.Owner = c.DefaultQuery("owner", "all")

	courses, pagination, err := h.service.ListManaged(c.Request.Context(), claims, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination)
}

// Get godoc
// @Summary Get course
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.service.GetPublic(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// GetManaged godoc
// @Summary Get course for editing
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/manage [get]
func (h *CourseHandler) GetManaged(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	course, err := h.service.GetManaged(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Create godoc
// @Summary Create course
// @Description Creates an unpublished course owned by the caller
// @Tags Courses
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title"
// @Param description formData string true "Description"
// @Param category formData string true "Category"
// @Param difficulty formData string true "Difficulty"
// @Param duration formData int true "Duration in minutes"
// @Param price formData number false "Price"
// @Param lessons formData string false "Lessons as a JSON array"
// @Param thumbnail formData file false "Thumbnail image"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	input, upload, closeFn, err := parseCourseRequest(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeFn()

	course, err := h.service.Create(c.Request.Context(), claims, input, upload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Update godoc
// @Summary Update course
// @Description Accepts multipart or JSON bodies. Omitted fields are unchanged.
// @Tags Courses
// @Accept mpfd,json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [put]
func (h *CourseHandler) Update(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	input, upload, closeFn, err := parseCourseRequest(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeFn()

	course, err := h.service.Update(c.Request.Context(), claims, c.Param("id"), input, upload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Delete godoc
// @Summary Delete course
// @Tags Courses
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), claims, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"success": true}, nil)
}

// Publish godoc
// @Summary Publish course
// @Tags Courses
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/publish [post]
func (h *CourseHandler) Publish(c *gin.Context) {
	h.setPublished(c, true)
}

// Unpublish godoc
// @Summary Unpublish course
// @Tags Courses
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/unpublish [post]
func (h *CourseHandler) Unpublish(c *gin.Context) {
	h.setPublished(c, false)
}

func (h *CourseHandler) setPublished(c *gin.Context, published bool) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	course, err := h.service.SetPublished(c.Request.Context(), claims, c.Param("id"), published)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

func catalogQuery(c *gin.Context) dto.CourseQuery {
	search := c.Query("q")
	if search == "" {
		search = c.Query("search")
	}
	return dto.CourseQuery{
		Category:   c.Query("category"),
		Difficulty: c.Query("difficulty"),
		Search:     search,
		SortBy:     c.Query("sortBy"),
		Page:       queryInt(c, "page", 1),
		Limit:      queryInt(c, "limit", 0),
	}
}

func noop() {}

// parseCourseRequest reads a course payload from a multipart form or a JSON body.
// The returned func closes the uploaded thumbnail, if any.
func parseCourseRequest(c *gin.Context) (dto.CourseInput, *dto.Upload, func(), error) {
	var input dto.CourseInput
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBindJSON(&input); err != nil {
			return input, nil, noop, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
		}
		return input, nil, noop, nil
	}

	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		return input, nil, noop, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid multipart form")
	}

	var problems []string
	input.Title = formString(c, "title")
	input.Description = formString(c, "description")
	input.Category = formString(c, "category")
	input.Difficulty = formString(c, "difficulty")
	input.VideoURL = formString(c, "video_url", "videoUrl")

	if raw := formString(c, "duration"); raw != nil {
		value, err := strconv.Atoi(*raw)
		if err != nil {
			problems = append(problems, "Duration must be greater than 0")
		} else {
			input.Duration = &value
		}
	}
	if raw := formString(c, "price"); raw != nil {
		value, err := strconv.ParseFloat(*raw, 64)
		if err != nil {
			problems = append(problems, "Price must be zero or greater")
		} else {
			input.Price = &value
		}
	}

	jsonFields := []struct {
		name   string
		target interface{}
	}{
		{"materials", &input.Materials},
		{"lessons", &input.Lessons},
		{"requirements", &input.Requirements},
		{"tags", &input.Tags},
	}
	for _, field := range jsonFields {
		raw := formString(c, field.name)
		if raw == nil {
			continue
		}
		if err := json.Unmarshal([]byte(*raw), field.target); err != nil {
			problems = append(problems, field.name+" must be a JSON array")
		}
	}

	if len(problems) > 0 {
		return input, nil, noop, appErrors.WithDetails(appErrors.ErrValidation, "validation failed", problems)
	}

	header, err := c.FormFile("thumbnail")
	if err != nil {
		return input, nil, noop, nil
	}
	upload, file, err := openUpload(header)
	if err != nil {
		return input, nil, noop, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid thumbnail upload")
	}
	return input, upload, func() { _ = file.Close() }, nil
}

func openUpload(header *multipart.FileHeader) (*dto.Upload, multipart.File, error) {
	file, err := header.Open()
	if err != nil {
		return nil, nil, err
	}
	return &dto.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}, file, nil
}

// formString returns the first present form value among keys. Absent fields stay nil so
// updates leave them unchanged.
func formString(c *gin.Context, keys ...string) *string {
	for _, key := range keys {
		if values, ok := c.Request.MultipartForm.Value[key]; ok && len(values) > 0 {
			value := strings.TrimSpace(values[0])
			return &value
		}
	}
	return nil
}
