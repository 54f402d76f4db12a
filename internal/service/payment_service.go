package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/edustream-api/internal/models"
	appErrors "github.com/noah-isme/edustream-api/pkg/errors"
)

type paymentRepository interface {
	ListByUser(ctx context.Context, userID string, page, limit int) ([]models.Payment, int, error)
	ListAllByUser(ctx context.Context, userID string) ([]models.Payment, error)
	FindByIDForUser(ctx context.Context, id, userID string) (*models.Payment, error)
}

// PaymentService exposes a user's payment history.
type PaymentService struct {
	repo   paymentRepository
	logger *zap.Logger
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(repo paymentRepository, logger *zap.Logger) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{repo: repo, logger: logger}
}

// History returns a page of the user's payments, newest first.
func (s *PaymentService) History(ctx context.Context, userID string, page, limit int) ([]models.Payment, *models.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	payments, total, err := s.repo.ListByUser(ctx, userID, page, limit)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	if payments == nil {
		payments = []models.Payment{}
	}
	return payments, models.NewPagination(page, limit, total), nil
}

// Get returns one of the user's payments. Payments of other users are reported as missing.
func (s *PaymentService) Get(ctx context.Context, id, userID string) (*models.Payment, error) {
	payment, err := s.repo.FindByIDForUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	return payment, nil
}
