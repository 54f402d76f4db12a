package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/edustream-api/internal/models"
)

const subscriptionColumns = `id, user_id, stripe_customer_id, stripe_subscription_id, plan_type, status, current_period_start, current_period_end, cancel_at_period_end, trial_end, created_at, updated_at`

// SubscriptionRepository persists the local mirror of processor subscriptions.
type SubscriptionRepository struct {
	db *sqlx.DB
}

// NewSubscriptionRepository constructs the repository.
func NewSubscriptionRepository(db *sqlx.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Create inserts a subscription record.
func (r *SubscriptionRepository) Create(ctx context.Context, sub *models.Subscription) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	sub.CreatedAt = now
	sub.UpdatedAt = now

	const query = `INSERT INTO subscriptions (id, user_id, stripe_customer_id, stripe_subscription_id, plan_type, status, current_period_start, current_period_end, cancel_at_period_end, trial_end, created_at, updated_at)
VALUES (:id, :user_id, :stripe_customer_id, :stripe_subscription_id, :plan_type, :status, :current_period_start, :current_period_end, :cancel_at_period_end, :trial_end, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, sub); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create subscription: %w", err)
	}
	return nil
}

// FindLatestByUser returns the user's newest subscription.
func (r *SubscriptionRepository) FindLatestByUser(ctx context.Context, userID string) (*models.Subscription, error) {
	return r.findOne(ctx, "find latest subscription", `SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`, userID)
}

// FindByUserAndStatuses returns the newest subscription of the user in one of the statuses.
func (r *SubscriptionRepository) FindByUserAndStatuses(ctx context.Context, userID string, statuses []string) (*models.Subscription, error) {
	return r.findOne(ctx, "find subscription by status", `SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = $1 AND status = ANY($2) ORDER BY created_at DESC LIMIT 1`, userID, pq.Array(statuses))
}

// FindByStripeID returns the record mirroring a processor subscription.
func (r *SubscriptionRepository) FindByStripeID(ctx context.Context, stripeID string) (*models.Subscription, error) {
	return r.findOne(ctx, "find subscription by stripe id", `SELECT `+subscriptionColumns+` FROM subscriptions WHERE stripe_subscription_id = $1`, stripeID)
}

func (r *SubscriptionRepository) findOne(ctx context.Context, op, query string, args ...interface{}) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.GetContext(ctx, &sub, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sub, nil
}

// SetCancelAtPeriodEnd updates the scheduled cancellation flag.
func (r *SubscriptionRepository) SetCancelAtPeriodEnd(ctx context.Context, id string, cancel bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE subscriptions SET cancel_at_period_end = $2, updated_at = $3 WHERE id = $1`, id, cancel, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set cancel at period end: %w", err)
	}
	return expectAffected(res, "set cancel at period end")
}

// UpdatePlan records a plan change.
func (r *SubscriptionRepository) UpdatePlan(ctx context.Context, id string, plan models.PlanType) error {
	res, err := r.db.ExecContext(ctx, `UPDATE subscriptions SET plan_type = $2, updated_at = $3 WHERE id = $1`, id, string(plan), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	return expectAffected(res, "update plan")
}

// ApplyState overwrites processor-owned fields. It reports false when no record mirrors stripeID.
func (r *SubscriptionRepository) ApplyState(ctx context.Context, stripeID string, state models.SubscriptionState) (bool, error) {
	const query = `UPDATE subscriptions SET status = $2, current_period_start = $3, current_period_end = $4, cancel_at_period_end = $5, trial_end = $6, updated_at = $7 WHERE stripe_subscription_id = $1`
	res, err := r.db.ExecContext(ctx, query, stripeID, state.Status, state.CurrentPeriodStart, state.CurrentPeriodEnd, state.CancelAtPeriodEnd, state.TrialEnd, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("apply subscription state: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("apply subscription state rows: %w", err)
	}
	return affected > 0, nil
}

// UpdateStatus sets only the status. It reports false when no record mirrors stripeID.
func (r *SubscriptionRepository) UpdateStatus(ctx context.Context, stripeID, status string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE subscriptions SET status = $2, updated_at = $3 WHERE stripe_subscription_id = $1`, stripeID, status, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("update subscription status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update subscription status rows: %w", err)
	}
	return affected > 0, nil
}
