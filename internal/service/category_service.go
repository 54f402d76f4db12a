package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edustream-api/internal/dto"
	"github.com/noah-isme/edustream-api/internal/models"
	"github.com/noah-isme/edustream-api/internal/repository"
	appErrors "github.com/noah-isme/edustream-api/pkg/errors"
)

type categoryRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.Category, error)
	FindByID(ctx context.Context, id string) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id string) error
	ReconcileCounts(ctx context.Context) (int, error)
}

type categoryUsage interface {
	CountByCategory(ctx context.Context, category string) (int, error)
}

type courseCatalog interface {
	ListPublic(ctx context.Context, query dto.CourseQuery) ([]dto.PublicCourse, *models.Pagination, error)
}

// CategoryService manages course categories.
type CategoryService struct {
	repo      categoryRepository
	usage     categoryUsage
	catalog   courseCatalog
	validator *validator.Validate
	logger    *zap.Logger
	cache     *CacheService
	cacheTTL  time.Duration
}

const categoryCachePattern = "categories:*"

// NewCategoryService constructs a CategoryService.
func NewCategoryService(repo categoryRepository, usage categoryUsage, catalog courseCatalog, validate *validator.Validate, logger *zap.Logger) *CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CategoryService{repo: repo, usage: usage, catalog: catalog, validator: validate, logger: logger}
}

// WithCache caches category listings for ttl. Course counters in a cached list may lag by up to ttl.
func (s *CategoryService) WithCache(cache *CacheService, ttl time.Duration) *CategoryService {
	s.cache = cache
	s.cacheTTL = ttl
	return s
}

// List returns categories sorted by name. Inactive ones are only included for admins.
func (s *CategoryService) List(ctx context.Context, includeInactive bool) ([]models.Category, error) {
	key := "categories:active"
	if includeInactive {
		key = "categories:all"
	}
	var categories []models.Category
	if s.cache.Get(ctx, key, &categories) {
		return categories, nil
	}

	categories, err := s.repo.List(ctx, !includeInactive)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list categories")
	}
	if categories == nil {
		categories = []models.Category{}
	}
	s.cache.Set(ctx, key, categories, s.cacheTTL)
	return categories, nil
}

// Get returns an active category.
func (s *CategoryService) Get(ctx context.Context, id string) (*models.Category, error) {
	category, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !category.IsActive {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
	}
	return category, nil
}

// Courses lists the published courses of an active category.
func (s *CategoryService) Courses(ctx context.Context, id string, query dto.CourseQuery) ([]dto.PublicCourse, *models.Pagination, error) {
	category, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	query.Category = category.Name
	return s.catalog.ListPublic(ctx, query)
}

// Create inserts a category with a unique name.
func (s *CategoryService) Create(ctx context.Context, input dto.CategoryInput) (*models.Category, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}
	category := &models.Category{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Icon:        strings.TrimSpace(input.Icon),
		IsActive:    true,
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}
	if err := s.repo.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "category already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create category")
	}
	s.cache.Invalidate(ctx, categoryCachePattern)
	return category, nil
}

// Update changes a category. Renaming is refused while courses still reference the old name.
func (s *CategoryService) Update(ctx context.Context, id string, input dto.CategoryInput) (*models.Category, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}
	category, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name != category.Name {
		if err := s.ensureUnused(ctx, category.Name, "cannot rename a category that has courses"); err != nil {
			return nil, err
		}
	}
	category.Name = name
	category.Description = strings.TrimSpace(input.Description)
	category.Icon = strings.TrimSpace(input.Icon)
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}
	return category, s.save(ctx, category)
}

// Toggle flips the active flag.
func (s *CategoryService) Toggle(ctx context.Context, id string) (*models.Category, error) {
	category, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	category.IsActive = !category.IsActive
	return category, s.save(ctx, category)
}

// Delete removes a category no course references.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	category, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.ensureUnused(ctx, category.Name, "cannot delete a category that has courses"); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete category")
	}
	s.cache.Invalidate(ctx, categoryCachePattern)
	return nil
}

// Reconcile recomputes every course counter from the courses table.
func (s *CategoryService) Reconcile(ctx context.Context) (*dto.ReconcileResult, error) {
	updated, err := s.repo.ReconcileCounts(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reconcile category counts")
	}
	s.cache.Invalidate(ctx, categoryCachePattern)
	s.logger.Info("category counts reconciled", zap.Int("updated", updated))
	return &dto.ReconcileResult{Updated: updated}, nil
}

func (s *CategoryService) validate(input dto.CategoryInput) error {
	input.Name = strings.TrimSpace(input.Name)
	if err := s.validator.Struct(input); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "name is required (2-80 chars)")
	}
	return nil
}

func (s *CategoryService) ensureUnused(ctx context.Context, name, message string) error {
	count, err := s.usage.CountByCategory(ctx, name)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count category courses")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, message)
	}
	return nil
}

func (s *CategoryService) save(ctx context.Context, category *models.Category) error {
	if err := s.repo.Update(ctx, category); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return appErrors.Clone(appErrors.ErrConflict, "category already exists")
		case errors.Is(err, sql.ErrNoRows):
			return appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update category")
	}
	s.cache.Invalidate(ctx, categoryCachePattern)
	return nil
}

func (s *CategoryService) load(ctx context.Context, id string) (*models.Category, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}
	return category, nil
}
