package dto

// CreateSubscriptionRequest starts a subscription.
type CreateSubscriptionRequest struct {
	PlanType        string `json:"planType" validate:"required,oneof=basic premium enterprise"`
	PaymentMethodID string `json:"paymentMethodId"`
}

// ChangePlanRequest switches to another plan.
type ChangePlanRequest struct {
	PlanType string `json:"planType" validate:"required,oneof=basic premium enterprise"`
}

// CreateSubscriptionResult returns what the client needs to confirm the first payment.
type CreateSubscriptionResult struct {
	SubscriptionID string `json:"subscriptionId"`
	ClientSecret   string `json:"clientSecret,omitempty"`
	Status         string `json:"status"`
}

// WebhookAck acknowledges a processor webhook.
type WebhookAck struct {
	Received bool `json:"received"`
}
