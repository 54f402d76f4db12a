package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edustream-api/internal/dto"
	"github.com/noah-isme/edustream-api/internal/models"
	appErrors "github.com/noah-isme/edustream-api/pkg/errors"
	"github.com/noah-isme/edustream-api/pkg/response"
)

type categoryService interface {
	List(ctx context.Context, includeInactive bool) ([]models.Category, error)
	Get(ctx context.Context, id string) (*models.Category, error)
	Courses(ctx context.Context, id string, query dto.CourseQuery) ([]dto.PublicCourse, *models.Pagination, error)
	Create(ctx context.Context, input dto.CategoryInput) (*models.Category, error)
	Update(ctx context.Context, id string, input dto.CategoryInput) (*models.Category, error)
	Toggle(ctx context.Context, id string) (*models.Category, error)
	Delete(ctx context.Context, id string) error
	Reconcile(ctx context.Context) (*dto.ReconcileResult, error)
}

// CategoryHandler handles the course taxonomy endpoints.
type CategoryHandler struct {
	service categoryService
}

// NewCategoryHandler creates a new category handler.
func NewCategoryHandler(svc categoryService) *CategoryHandler {
	return &CategoryHandler{service: svc}
}

// List godoc
// @Summary List categories
// @Tags Categories
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.service.List(c.Request.Context(), false)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, categories, nil)
}

// ListAll returns active and inactive categories for admins.
func (h *CategoryHandler) ListAll(c *gin.Context) {
	categories, err := h.service.List(c.Request.Context(), true)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, categories, nil)
}

// Get godoc
// @Summary Get category
// @Tags Categories
// @Produce json
// @Param id path string true "Category ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /categories/{id} [get]
func (h *CategoryHandler) Get(c *gin.Context) {
	category, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, category, nil)
}

// Courses godoc
// @Summary Courses in category
// @Tags Categories
// @Produce json
// @Param id path string true "Category ID"
// @Param difficulty query string false "Difficulty"
// @Param sortBy query string false "rating, popular or recent"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /categories/{id}/courses [get]
func (h *CategoryHandler) Courses(c *gin.Context) {
	query := catalogQuery(c)
	query.Category = ""
	courses, pagination, err := h.service.Courses(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination)
}

// Create godoc
// @Summary Create category
// @Tags Categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CategoryInput true "Category"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	var input dto.CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	category, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, category)
}

// Update godoc
// @Summary Update category
// @Tags Categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Category ID"
// @Param payload body dto.CategoryInput true "Category"
// @Success 200 {object} response.Envelope
// @Router /categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	var input dto.CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	category, err := h.service.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, category, nil)
}

// Toggle godoc
// @Summary Toggle category visibility
// @Tags Categories
// @Security BearerAuth
// @Param id path string true "Category ID"
// @Success 200 {object} response.Envelope
// @Router /categories/{id}/toggle [post]
func (h *CategoryHandler) Toggle(c *gin.Context) {
	category, err := h.service.Toggle(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, category, nil)
}

// Delete godoc
// @Summary Delete category
// @Tags Categories
// @Security BearerAuth
// @Param id path string true "Category ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Reconcile godoc
// @Summary Recompute course counts
// @Tags Categories
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /categories/reconcile [post]
func (h *CategoryHandler) Reconcile(c *gin.Context) {
	result, err := h.service.Reconcile(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
