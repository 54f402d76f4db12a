package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edustream-api/internal/dto"
	"github.com/noah-isme/edustream-api/internal/models"
	appErrors "github.com/noah-isme/edustream-api/pkg/errors"
	"github.com/noah-isme/edustream-api/pkg/response"
)

type subscriptionService interface {
	Plans() []models.Plan
	Current(ctx context.Context, userID string) (*models.Subscription, error)
	Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateSubscriptionRequest) (*dto.CreateSubscriptionResult, error)
	Cancel(ctx context.Context, userID string) (*models.Subscription, error)
	Resume(ctx context.Context, userID string) (*models.Subscription, error)
	ChangePlan(ctx context.Context, userID string, req dto.ChangePlanRequest) (*models.Subscription, error)
}

// SubscriptionHandler exposes subscription lifecycle endpoints.
type SubscriptionHandler struct {
	service subscriptionService
}

// NewSubscriptionHandler creates a new subscription handler.
func NewSubscriptionHandler(svc subscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{service: svc}
}

// Plans godoc
// @Summary Subscription plans
// @Tags Subscriptions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /subscriptions/plans [get]
func (h *SubscriptionHandler) Plans(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Plans(), nil)
}

// Current godoc
// @Summary Current subscription
// @Description Returns the newest subscription of the caller or null
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /subscriptions/current [get]
func (h *SubscriptionHandler) Current(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	sub, err := h.service.Current(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub, nil)
}

// Create godoc
// @Summary Start subscription
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateSubscriptionRequest true "Plan"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /subscriptions/create [post]
func (h *SubscriptionHandler) Create(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Cancel godoc
// @Summary Cancel at period end
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /subscriptions/cancel [post]
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	h.mutate(c, h.service.Cancel)
}

// Resume godoc
// @Summary Resume subscription
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /subscriptions/resume [post]
func (h *SubscriptionHandler) Resume(c *gin.Context) {
	h.mutate(c, h.service.Resume)
}

// ChangePlan godoc
// @Summary Change plan
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.ChangePlanRequest true "Plan"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /subscriptions/change-plan [post]
func (h *SubscriptionHandler) ChangePlan(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.ChangePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	sub, err := h.service.ChangePlan(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub, nil)
}

func (h *SubscriptionHandler) mutate(c *gin.Context, fn func(context.Context, string) (*models.Subscription, error)) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	sub, err := fn(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub, nil)
}
