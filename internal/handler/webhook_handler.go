package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edustream-api/internal/dto"
	appErrors "github.com/noah-isme/edustream-api/pkg/errors"
	"github.com/noah-isme/edustream-api/pkg/response"
)

const maxWebhookBytes = 65536

type webhookService interface {
	Handle(ctx context.Context, payload []byte, signature string) error
}

// WebhookHandler receives payment processor deliveries.
type WebhookHandler struct {
	service webhookService
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(svc webhookService) *WebhookHandler {
	return &WebhookHandler{service: svc}
}

// Stripe godoc
// @Summary Stripe webhook
// @Description Verifies the Stripe-Signature header against the raw body. Failures after verification return 500 so the delivery is retried.
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Webhook signature"
// @Success 200 {object} dto.WebhookAck
// @Failure 400 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /webhooks/stripe [post]
func (h *WebhookHandler) Stripe(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unable to read webhook body"))
		return
	}
	if err := h.service.Handle(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.WebhookAck{Received: true})
}
