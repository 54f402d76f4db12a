package billing

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidSignature is returned when a webhook payload fails signature verification.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// Webhook event types handled by the payment service.
const (
	EventSubscriptionCreated  = "customer.subscription.created"
	EventSubscriptionUpdated  = "customer.subscription.updated"
	EventSubscriptionDeleted  = "customer.subscription.deleted"
	EventInvoicePaymentPassed = "invoice.payment_succeeded"
	EventInvoicePaymentFailed = "invoice.payment_failed"
)

// Subscription mirrors the processor side state of a recurring plan.
type Subscription struct {
	ID                 string
	CustomerID         string
	Status             string
	PriceID            string
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelAtPeriodEnd  bool
	TrialEnd           *time.Time
	ClientSecret       string
	Metadata           map[string]string
}

// Invoice carries the fields of a billed period needed to record payments.
type Invoice struct {
	ID              string
	SubscriptionID  string
	PaymentIntentID string
	CustomerEmail   string
	Currency        string
	AmountPaid      int64
	AmountDue       int64
}

// Event is a verified webhook notification. Exactly one of Subscription or Invoice
// is populated for the handled types.
type Event struct {
	ID           string
	Type         string
	Subscription *Subscription
	Invoice      *Invoice
}

// SubscriptionRequest describes a new subscription.
type SubscriptionRequest struct {
	CustomerID string
	PriceID    string
	UserID     string
	TrialDays  int64
}

// Gateway is the payment processor surface used by the subscription use cases.
type Gateway interface {
	FindOrCreateCustomer(ctx context.Context, email, userID string) (string, error)
	AttachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error
	CreateSubscription(ctx context.Context, req SubscriptionRequest) (*Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
	SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (*Subscription, error)
	ChangePrice(ctx context.Context, subscriptionID, priceID string) (*Subscription, error)
	LatestChargeID(ctx context.Context, paymentIntentID string) (string, error)
	ParseWebhook(payload []byte, signature string) (*Event, error)
}

func unixTime(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

func unixTimePtr(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
