package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edustream-api/internal/models"
)

const paymentColumns = `id, user_id, subscription_id, stripe_payment_intent_id, stripe_charge_id, amount, currency, status, description, created_at`

// PaymentRepository persists recorded payments.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a payment. A second payment for the same intent yields ErrDuplicate.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO payments (id, user_id, subscription_id, stripe_payment_intent_id, stripe_charge_id, amount, currency, status, description, created_at)
VALUES (:id, :user_id, :subscription_id, :stripe_payment_intent_id, :stripe_charge_id, :amount, :currency, :status, :description, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// ExistsByPaymentIntentID reports whether the intent was already recorded.
func (r *PaymentRepository) ExistsByPaymentIntentID(ctx context.Context, intentID string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM payments WHERE stripe_payment_intent_id = $1)`, intentID); err != nil {
		return false, fmt.Errorf("check payment intent: %w", err)
	}
	return exists, nil
}

// ListByUser returns a page of the user's payments, newest first, with the total count.
func (r *PaymentRepository) ListByUser(ctx context.Context, userID string, page, limit int) ([]models.Payment, int, error) {
	_, limit, offset := normalizePage(page, limit, 10)
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE user_id = $1 ORDER BY created_at DESC LIMIT %d OFFSET %d`, paymentColumns, limit, offset)

	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, userID); err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM payments WHERE user_id = $1`, userID); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}
	return payments, total, nil
}

// ListAllByUser returns every payment of the user, newest first.
func (r *PaymentRepository) ListAllByUser(ctx context.Context, userID string) ([]models.Payment, error) {
	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, `SELECT `+paymentColumns+` FROM payments WHERE user_id = $1 ORDER BY created_at DESC`, userID); err != nil {
		return nil, fmt.Errorf("list all payments: %w", err)
	}
	return payments, nil
}

// FindByIDForUser returns the payment only when it belongs to the user.
func (r *PaymentRepository) FindByIDForUser(ctx context.Context, id, userID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, `SELECT `+paymentColumns+` FROM payments WHERE id = $1 AND user_id = $2`, id, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find payment: %w", err)
	}
	return &payment, nil
}
