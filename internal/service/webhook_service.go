package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edustream-api/internal/models"
	"github.com/noah-isme/edustream-api/internal/repository"
	"github.com/noah-isme/edustream-api/pkg/billing"
	appErrors "github.com/noah-isme/edustream-api/pkg/errors"
	"github.com/noah-isme/edustream-api/pkg/events"
)

// Webhook processing outcomes reported to metrics.
const (
	webhookProcessed = "processed"
	webhookDuplicate = "duplicate"
	webhookSkipped   = "skipped"
	webhookIgnored   = "ignored"
	webhookFailed    = "error"
	webhookRejected  = "invalid_signature"
)

type webhookSubscriptions interface {
	FindByStripeID(ctx context.Context, stripeID string) (*models.Subscription, error)
	ApplyState(ctx context.Context, stripeID string, state models.SubscriptionState) (bool, error)
	UpdateStatus(ctx context.Context, stripeID, status string) (bool, error)
}

type webhookPayments interface {
	Create(ctx context.Context, payment *models.Payment) error
	ExistsByPaymentIntentID(ctx context.Context, intentID string) (bool, error)
}

type webhookParser interface {
	ParseWebhook(payload []byte, signature string) (*billing.Event, error)
	LatestChargeID(ctx context.Context, paymentIntentID string) (string, error)
}

// WebhookService mirrors processor notifications into local subscription and payment records.
type WebhookService struct {
	subscriptions webhookSubscriptions
	payments      webhookPayments
	gateway       webhookParser
	events        EventNotifier
	metrics       *MetricsService
	logger        *zap.Logger
}

// NewWebhookService constructs a WebhookService.
func NewWebhookService(subscriptions webhookSubscriptions, payments webhookPayments, gateway webhookParser, notifier EventNotifier, metrics *MetricsService, logger *zap.Logger) *WebhookService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &WebhookService{subscriptions: subscriptions, payments: payments, gateway: gateway, events: notifier, metrics: metrics, logger: logger}
}

// Handle verifies and applies a webhook delivery. Redelivered invoices never create a second payment.
func (s *WebhookService) Handle(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, billing.ErrInvalidSignature) {
			s.metrics.RecordWebhook("unknown", webhookRejected)
			return appErrors.Wrap(err, appErrors.ErrInvalidSignature.Code, appErrors.ErrInvalidSignature.Status, appErrors.ErrInvalidSignature.Message)
		}
		// Signed but undecodable: answer 5xx so the processor redelivers.
		s.metrics.RecordWebhook("unknown", webhookFailed)
		s.logger.Error("failed to decode verified webhook", zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "webhook payload could not be decoded")
	}

	logger := s.logger.With(zap.String("event_id", event.ID), zap.String("event_type", event.Type))
	outcome, err := s.dispatch(ctx, event, logger)
	if err != nil {
		s.metrics.RecordWebhook(event.Type, webhookFailed)
		logger.Error("webhook handling failed", zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "webhook handler failed")
	}
	s.metrics.RecordWebhook(event.Type, outcome)
	logger.Debug("webhook handled", zap.String("outcome", outcome))
	return nil
}

func (s *WebhookService) dispatch(ctx context.Context, event *billing.Event, logger *zap.Logger) (string, error) {
	switch event.Type {
	case billing.EventSubscriptionCreated, billing.EventSubscriptionUpdated:
		return s.subscriptionChanged(ctx, event.Subscription, logger)
	case billing.EventSubscriptionDeleted:
		return s.subscriptionDeleted(ctx, event.Subscription, logger)
	case billing.EventInvoicePaymentPassed:
		return s.invoicePaid(ctx, event.Invoice, logger)
	case billing.EventInvoicePaymentFailed:
		return s.invoiceFailed(event.Invoice)
	default:
		logger.Info("unhandled webhook event")
		return webhookIgnored, nil
	}
}

func (s *WebhookService) subscriptionChanged(ctx context.Context, sub *billing.Subscription, logger *zap.Logger) (string, error) {
	if sub == nil {
		return webhookSkipped, nil
	}
	found, err := s.subscriptions.ApplyState(ctx, sub.ID, models.SubscriptionState{
		Status:             sub.Status,
		CurrentPeriodStart: timePtr(sub.CurrentPeriodStart),
		CurrentPeriodEnd:   timePtr(sub.CurrentPeriodEnd),
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
		TrialEnd:           sub.TrialEnd,
	})
	if err != nil {
		return "", fmt.Errorf("apply subscription state: %w", err)
	}
	if !found {
		logger.Info("webhook for unknown subscription", zap.String("stripe_subscription_id", sub.ID))
		return webhookSkipped, nil
	}
	s.events.Emit(events.SubscriptionUpdated, map[string]interface{}{
		"subscriptionId":    sub.ID,
		"status":            sub.Status,
		"cancelAtPeriodEnd": sub.CancelAtPeriodEnd,
	})
	return webhookProcessed, nil
}

func (s *WebhookService) subscriptionDeleted(ctx context.Context, sub *billing.Subscription, logger *zap.Logger) (string, error) {
	if sub == nil {
		return webhookSkipped, nil
	}
	found, err := s.subscriptions.UpdateStatus(ctx, sub.ID, models.SubscriptionCanceled)
	if err != nil {
		return "", fmt.Errorf("mark subscription canceled: %w", err)
	}
	if !found {
		logger.Info("webhook for unknown subscription", zap.String("stripe_subscription_id", sub.ID))
		return webhookSkipped, nil
	}
	s.events.Emit(events.SubscriptionDeleted, map[string]interface{}{"subscriptionId": sub.ID})
	return webhookProcessed, nil
}

func (s *WebhookService) invoicePaid(ctx context.Context, inv *billing.Invoice, logger *zap.Logger) (string, error) {
	if inv == nil || inv.PaymentIntentID == "" {
		logger.Info("invoice without payment intent skipped")
		return webhookSkipped, nil
	}

	exists, err := s.payments.ExistsByPaymentIntentID(ctx, inv.PaymentIntentID)
	if err != nil {
		return "", fmt.Errorf("check payment: %w", err)
	}
	if exists {
		return webhookDuplicate, nil
	}

	sub, err := s.subscriptions.FindByStripeID(ctx, inv.SubscriptionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Warn("paid invoice for unknown subscription", zap.String("stripe_subscription_id", inv.SubscriptionID))
			return webhookSkipped, nil
		}
		return "", fmt.Errorf("load subscription: %w", err)
	}

	chargeID, err := s.gateway.LatestChargeID(ctx, inv.PaymentIntentID)
	if err != nil {
		logger.Warn("failed to resolve charge id", zap.String("payment_intent_id", inv.PaymentIntentID), zap.Error(err))
		chargeID = ""
	}

	currency := inv.Currency
	if currency == "" {
		currency = "usd"
	}
	payment := &models.Payment{
		UserID:                sub.UserID,
		SubscriptionID:        &sub.ID,
		StripePaymentIntentID: inv.PaymentIntentID,
		StripeChargeID:        chargeID,
		Amount:                inv.AmountPaid,
		Currency:              currency,
		Status:                models.PaymentSucceeded,
		Description:           fmt.Sprintf("Payment for %s plan", sub.PlanType),
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return webhookDuplicate, nil
		}
		return "", fmt.Errorf("record payment: %w", err)
	}

	s.events.Emit(events.PaymentSucceeded, map[string]interface{}{
		"userId":          sub.UserID,
		"paymentId":       payment.ID,
		"subscriptionId":  inv.SubscriptionID,
		"amount":          payment.Amount,
		"currency":        payment.Currency,
		"paymentIntentId": payment.StripePaymentIntentID,
	})
	return webhookProcessed, nil
}

func (s *WebhookService) invoiceFailed(inv *billing.Invoice) (string, error) {
	if inv == nil {
		return webhookSkipped, nil
	}
	s.events.Emit(events.PaymentFailed, map[string]interface{}{
		"invoiceId":      inv.ID,
		"subscriptionId": inv.SubscriptionID,
		"amountDue":      inv.AmountDue,
		"currency":       inv.Currency,
	})
	return webhookProcessed, nil
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
