package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edustream-api/internal/dto"
	"github.com/noah-isme/edustream-api/internal/models"
	"github.com/noah-isme/edustream-api/pkg/billing"
	appErrors "github.com/noah-isme/edustream-api/pkg/errors"
	"github.com/noah-isme/edustream-api/pkg/events"
)

var (
	// statuses that block starting another subscription
	openStatuses = []string{models.SubscriptionActive, models.SubscriptionPastDue, models.SubscriptionIncomplete, models.SubscriptionTrialing}
	// statuses that can be scheduled for cancellation or resumed
	cancellableStatuses = []string{models.SubscriptionActive, models.SubscriptionPastDue, models.SubscriptionTrialing}
	changeableStatuses  = []string{models.SubscriptionActive, models.SubscriptionTrialing}
)

type subscriptionRepository interface {
	Create(ctx context.Context, sub *models.Subscription) error
	FindLatestByUser(ctx context.Context, userID string) (*models.Subscription, error)
	FindByUserAndStatuses(ctx context.Context, userID string, statuses []string) (*models.Subscription, error)
	SetCancelAtPeriodEnd(ctx context.Context, id string, cancel bool) error
	UpdatePlan(ctx context.Context, id string, plan models.PlanType) error
}

// SubscriptionConfig tunes subscription creation.
type SubscriptionConfig struct {
	TrialDays int64
}

// SubscriptionService drives the subscription lifecycle against the payment processor.
type SubscriptionService struct {
	repo      subscriptionRepository
	gateway   billing.Gateway
	plans     *PlanCatalog
	events    EventNotifier
	validator *validator.Validate
	logger    *zap.Logger
	config    SubscriptionConfig
}

// NewSubscriptionService constructs a SubscriptionService.
func NewSubscriptionService(repo subscriptionRepository, gateway billing.Gateway, plans *PlanCatalog, notifier EventNotifier, validate *validator.Validate, logger *zap.Logger, config SubscriptionConfig) *SubscriptionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &SubscriptionService{repo: repo, gateway: gateway, plans: plans, events: notifier, validator: validate, logger: logger, config: config}
}

// Plans returns the plan catalog.
func (s *SubscriptionService) Plans() []models.Plan {
	return s.plans.Plans()
}

// Current returns the user's newest subscription, or nil when there is none.
func (s *SubscriptionService) Current(ctx context.Context, userID string) (*models.Subscription, error) {
	sub, err := s.repo.FindLatestByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subscription")
	}
	return sub, nil
}

// Create starts a subscription. If the local record cannot be saved the processor
// subscription is cancelled again so the user is never billed for an unknown subscription.
func (s *SubscriptionService) Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateSubscriptionRequest) (*dto.CreateSubscriptionResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "planType must be basic, premium, or enterprise")
	}
	plan, ok := s.plans.Find(models.PlanType(req.PlanType))
	if !ok || plan.PriceID == "" {
		return nil, appErrors.Clone(appErrors.ErrInternal, "plan is not configured")
	}

	existing, err := s.repo.FindByUserAndStatuses(ctx, actor.UserID, openStatuses)
	switch {
	case err == nil && existing != nil:
		return nil, appErrors.Clone(appErrors.ErrConflict, "user already has an active subscription")
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subscriptions")
	}

	customerID, err := s.gateway.FindOrCreateCustomer(ctx, actor.Email, actor.UserID)
	if err != nil {
		return nil, upstream(err, "failed to resolve billing customer")
	}
	if req.PaymentMethodID != "" {
		if err := s.gateway.AttachPaymentMethod(ctx, customerID, req.PaymentMethodID); err != nil {
			return nil, upstream(err, "failed to attach payment method")
		}
	}

	external, err := s.gateway.CreateSubscription(ctx, billing.SubscriptionRequest{
		CustomerID: customerID,
		PriceID:    plan.PriceID,
		UserID:     actor.UserID,
		TrialDays:  s.config.TrialDays,
	})
	if err != nil {
		return nil, upstream(err, "failed to create subscription")
	}

	local := &models.Subscription{
		UserID:               actor.UserID,
		StripeCustomerID:     customerID,
		StripeSubscriptionID: external.ID,
		PlanType:             plan.Type,
		Status:               external.Status,
		CurrentPeriodStart:   timePtr(external.CurrentPeriodStart),
		CurrentPeriodEnd:     timePtr(external.CurrentPeriodEnd),
		CancelAtPeriodEnd:    external.CancelAtPeriodEnd,
		TrialEnd:             external.TrialEnd,
	}
	if err := s.repo.Create(ctx, local); err != nil {
		if cancelErr := s.gateway.CancelSubscription(ctx, external.ID); cancelErr != nil {
			s.logger.Error("failed to cancel orphaned subscription",
				zap.String("stripe_subscription_id", external.ID), zap.Error(cancelErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save subscription")
	}

	s.events.Emit(events.SubscriptionCreated, subscriptionEventData(local))
	s.logger.Info("subscription created", zap.String("user_id", actor.UserID), zap.String("plan", string(plan.Type)))
	return &dto.CreateSubscriptionResult{
		SubscriptionID: external.ID,
		ClientSecret:   external.ClientSecret,
		Status:         external.Status,
	}, nil
}

// Cancel schedules the subscription to end with the current period.
func (s *SubscriptionService) Cancel(ctx context.Context, userID string) (*models.Subscription, error) {
	sub, err := s.find(ctx, userID, cancellableStatuses, "no active subscription found")
	if err != nil {
		return nil, err
	}
	if err := s.setCancel(ctx, sub, true); err != nil {
		return nil, err
	}
	s.events.Emit(events.SubscriptionCancelled, subscriptionEventData(sub))
	return sub, nil
}

// Resume clears a scheduled cancellation.
func (s *SubscriptionService) Resume(ctx context.Context, userID string) (*models.Subscription, error) {
	sub, err := s.find(ctx, userID, cancellableStatuses, "no subscription to resume")
	if err != nil {
		return nil, err
	}
	if !sub.CancelAtPeriodEnd {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no subscription to resume")
	}
	if err := s.setCancel(ctx, sub, false); err != nil {
		return nil, err
	}
	s.events.Emit(events.SubscriptionResumed, subscriptionEventData(sub))
	return sub, nil
}

// ChangePlan swaps the subscription price with proration.
func (s *SubscriptionService) ChangePlan(ctx context.Context, userID string, req dto.ChangePlanRequest) (*models.Subscription, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "planType must be basic, premium, or enterprise")
	}
	plan, ok := s.plans.Find(models.PlanType(req.PlanType))
	if !ok || plan.PriceID == "" {
		return nil, appErrors.Clone(appErrors.ErrInternal, "plan is not configured")
	}
	sub, err := s.find(ctx, userID, changeableStatuses, "no active subscription found")
	if err != nil {
		return nil, err
	}
	if sub.PlanType == plan.Type {
		return nil, appErrors.Clone(appErrors.ErrValidation, "already subscribed to this plan")
	}

	if _, err := s.gateway.ChangePrice(ctx, sub.StripeSubscriptionID, plan.PriceID); err != nil {
		return nil, upstream(err, "failed to change plan")
	}
	if err := s.repo.UpdatePlan(ctx, sub.ID, plan.Type); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subscription")
	}
	sub.PlanType = plan.Type
	s.events.Emit(events.SubscriptionUpdated, subscriptionEventData(sub))
	return sub, nil
}

func (s *SubscriptionService) find(ctx context.Context, userID string, statuses []string, missing string) (*models.Subscription, error) {
	sub, err := s.repo.FindByUserAndStatuses(ctx, userID, statuses)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, missing)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subscription")
	}
	return sub, nil
}

func (s *SubscriptionService) setCancel(ctx context.Context, sub *models.Subscription, cancel bool) error {
	if _, err := s.gateway.SetCancelAtPeriodEnd(ctx, sub.StripeSubscriptionID, cancel); err != nil {
		return upstream(err, "failed to update subscription")
	}
	if err := s.repo.SetCancelAtPeriodEnd(ctx, sub.ID, cancel); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subscription")
	}
	sub.CancelAtPeriodEnd = cancel
	return nil
}

func subscriptionEventData(sub *models.Subscription) map[string]interface{} {
	return map[string]interface{}{
		"userId":            sub.UserID,
		"subscriptionId":    sub.StripeSubscriptionID,
		"planType":          sub.PlanType,
		"status":            sub.Status,
		"cancelAtPeriodEnd": sub.CancelAtPeriodEnd,
	}
}

func upstream(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, message)
}
