package models

import "time"

// PlanType identifies a subscription tier.
type PlanType string

const (
	PlanBasic      PlanType = "basic"
	PlanPremium    PlanType = "premium"
	PlanEnterprise PlanType = "enterprise"
)

// Subscription statuses as reported by the payment processor.
const (
	SubscriptionActive            = "active"
	SubscriptionPastDue           = "past_due"
	SubscriptionIncomplete        = "incomplete"
	SubscriptionIncompleteExpired = "incomplete_expired"
	SubscriptionTrialing          = "trialing"
	SubscriptionCanceled          = "canceled"
	SubscriptionUnpaid            = "unpaid"
)

// Subscription is the local record of a processor subscription.
type Subscription struct {
	ID                   string     `db:"id" json:"id"`
	UserID               string     `db:"user_id" json:"userId"`
	StripeCustomerID     string     `db:"stripe_customer_id" json:"stripeCustomerId"`
	StripeSubscriptionID string     `db:"stripe_subscription_id" json:"stripeSubscriptionId"`
	PlanType             PlanType   `db:"plan_type" json:"planType"`
	Status               string     `db:"status" json:"status"`
	CurrentPeriodStart   *time.Time `db:"current_period_start" json:"currentPeriodStart,omitempty"`
	CurrentPeriodEnd     *time.Time `db:"current_period_end" json:"currentPeriodEnd,omitempty"`
	CancelAtPeriodEnd    bool       `db:"cancel_at_period_end" json:"cancelAtPeriodEnd"`
	TrialEnd             *time.Time `db:"trial_end" json:"trialEnd,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updatedAt"`
}

// SubscriptionState carries processor-reported fields applied on webhook updates.
type SubscriptionState struct {
	Status             string
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CancelAtPeriodEnd  bool
	TrialEnd           *time.Time
}

// Plan describes a purchasable tier.
type Plan struct {
	Type     PlanType `json:"type"`
	Name     string   `json:"name"`
	PriceID  string   `json:"priceId"`
	Price    float64  `json:"price"`
	Currency string   `json:"currency"`
	Features []string `json:"features"`
}
