package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edustream-api/internal/models"
	"github.com/noah-isme/edustream-api/internal/service"
	"github.com/noah-isme/edustream-api/pkg/response"
)

type paymentService interface {
	History(ctx context.Context, userID string, page, limit int) ([]models.Payment, *models.Pagination, error)
	Get(ctx context.Context, id, userID string) (*models.Payment, error)
}

type paymentExporter interface {
	PaymentHistory(ctx context.Context, userID, format string) (*service.ExportResult, error)
}

// PaymentHandler serves the caller's payment history.
type PaymentHandler struct {
	service  paymentService
	exporter paymentExporter
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(svc paymentService, exporter paymentExporter) *PaymentHandler {
	return &PaymentHandler{service: svc, exporter: exporter}
}

// History godoc
// @Summary Payment history
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /payments/history [get]
func (h *PaymentHandler) History(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	payments, pagination, err := h.service.History(c.Request.Context(), claims.UserID, queryInt(c, "page", 1), queryInt(c, "limit", 10))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, pagination)
}

// Export godoc
// @Summary Export payment history
// @Tags Payments
// @Produce text/csv,application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /payments/history/export [get]
func (h *PaymentHandler) Export(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	result, err := h.exporter.PaymentHistory(c.Request.Context(), claims.UserID, c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Data)
}

// Get godoc
// @Summary Get payment
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /payments/{id} [get]
func (h *PaymentHandler) Get(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	payment, err := h.service.Get(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}
