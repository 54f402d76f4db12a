package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edustream-api/internal/models"
)

var subscriptionRowColumns = []string{"id", "user_id", "stripe_customer_id", "stripe_subscription_id", "plan_type", "status", "current_period_start", "current_period_end", "cancel_at_period_end", "trial_end", "created_at", "updated_at"}

func TestSubscriptionFindByUserAndStatuses(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubscriptionRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(subscriptionRowColumns).AddRow("s1", "u1", "cus_1", "sub_1", "basic", "active", now, now, false, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND status = ANY($2) ORDER BY created_at DESC LIMIT 1")).
		WithArgs("u1", pq.Array([]string{"active", "trialing"})).
		WillReturnRows(rows)

	sub, err := repo.FindByUserAndStatuses(context.Background(), "u1", []string{"active", "trialing"})
	require.NoError(t, err)
	assert.Equal(t, models.PlanBasic, sub.PlanType)
	assert.Nil(t, sub.TrialEnd)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionApplyStateUnknown(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubscriptionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE subscriptions SET status = $2, current_period_start = $3")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	applied, err := repo.ApplyState(context.Background(), "sub_x", models.SubscriptionState{Status: "active"})
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestSubscriptionCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubscriptionRepository(db)

	mock.ExpectExec("INSERT INTO subscriptions").WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.Subscription{UserID: "u1", StripeSubscriptionID: "sub_1"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestPaymentCreateDuplicateIntent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectExec("INSERT INTO payments").WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.Payment{UserID: "u1", StripePaymentIntentID: "pi_1", Amount: 1, Currency: "usd", Status: models.PaymentSucceeded})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestPaymentExistsByIntent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM payments WHERE stripe_payment_intent_id = $1)")).
		WithArgs("pi_1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByPaymentIntentID(context.Background(), "pi_1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPaymentListByUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "subscription_id", "stripe_payment_intent_id", "stripe_charge_id", "amount", "currency", "status", "description", "created_at"}).
		AddRow("p1", "u1", "s1", "pi_1", "ch_1", 2, "usd", "succeeded", "Payment for premium plan", now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM payments WHERE user_id = $1 ORDER BY created_at DESC LIMIT 10 OFFSET 0")).
		WithArgs("u1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM payments WHERE user_id = $1")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	payments, total, err := repo.ListByUser(context.Background(), "u1", 0, 0)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, int64(2), payments[0].Amount)
	assert.Equal(t, 1, total)
}

func TestPaymentFindForOtherUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND user_id = $2")).WithArgs("p1", "u2").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByIDForUser(context.Background(), "p1", "u2")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
