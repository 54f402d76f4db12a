package models

import "time"

// Payment statuses.
const (
	PaymentSucceeded      = "succeeded"
	PaymentFailed         = "failed"
	PaymentPending        = "pending"
	PaymentRequiresAction = "requires_action"
)

// Payment records money received for a subscription invoice. Amount is in minor units.
type Payment struct {
	ID                    string    `db:"id" json:"id"`
	UserID                string    `db:"user_id" json:"userId"`
	SubscriptionID        *string   `db:"subscription_id" json:"subscriptionId,omitempty"`
	StripePaymentIntentID string    `db:"stripe_payment_intent_id" json:"stripePaymentIntentId"`
	StripeChargeID        string    `db:"stripe_charge_id" json:"stripeChargeId,omitempty"`
	Amount                int64     `db:"amount" json:"amount"`
	Currency              string    `db:"currency" json:"currency"`
	Status                string    `db:"status" json:"status"`
	Description           string    `db:"description" json:"description"`
	CreatedAt             time.Time `db:"created_at" json:"createdAt"`
}
