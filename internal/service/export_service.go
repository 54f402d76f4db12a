package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edustream-api/internal/models"
	appErrors "github.com/noah-isme/edustream-api/pkg/errors"
	"github.com/noah-isme/edustream-api/pkg/export"
)

type paymentHistorySource interface {
	ListAllByUser(ctx context.Context, userID string) ([]models.Payment, error)
}

// ExportResult is a rendered download.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders payment history files.
type ExportService struct {
	payments paymentHistorySource
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(payments paymentHistorySource, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{payments: payments, logger: logger, now: time.Now}
}

// PaymentHistory renders every payment of the user in the requested format.
func (s *ExportService) PaymentHistory(ctx context.Context, userID, rawFormat string) (*ExportResult, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	payments, err := s.payments.ListAllByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payments")
	}

	dataset := export.Dataset{
		Title:   "Payment History",
		Headers: []string{"Date", "Description", "Amount", "Currency", "Status", "Reference"},
	}
	var total int64
	for _, p := range payments {
		dataset.AddRow(
			p.CreatedAt.UTC().Format("2006-01-02 15:04"),
			p.Description,
			formatMinor(p.Amount),
			p.Currency,
			p.Status,
			p.StripePaymentIntentID,
		)
		if p.Status == models.PaymentSucceeded {
			total += p.Amount
		}
	}
	dataset.Footer = fmt.Sprintf("%d payments, %s paid", len(payments), formatMinor(total))

	data, err := export.For(format).Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	s.logger.Debug("payment history exported", zap.String("user_id", userID), zap.String("format", string(format)), zap.Int("rows", len(payments)))

	return &ExportResult{
		Filename:    fmt.Sprintf("payments-%s.%s", s.now().UTC().Format("20060102"), format),
		ContentType: format.ContentType(),
		Data:        data,
	}, nil
}

func formatMinor(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
}
