package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rumahtahfidz/pesantren-api/internal/models"
	appErrors "github.com/rumahtahfidz/pesantren-api/pkg/errors"
	"github.com/rumahtahfidz/pesantren-api/pkg/export"
	"github.com/rumahtahfidz/pesantren-api/pkg/payment"
)

type donationRepository interface {
	List(ctx context.Context, filter models.DonationFilter) ([]models.Donation, int, error)
	FindByID(ctx context.Context, id string) (*models.Donation, error)
	FindByReference(ctx context.Context, reference string) (*models.Donation, error)
	Create(ctx context.Context, donation *models.Donation) error
	UpdateStatus(ctx context.Context, id string, status models.DonationStatus, paidAt *time.Time) error
	Summary(ctx context.Context) (*models.DonationSummary, error)
}

type snapGateway interface {
	CreateTransaction(orderID string, grossAmount int64, donorName, donorEmail string) (*payment.SnapToken, error)
	VerifySignature(orderID, statusCode, grossAmount, signature string) bool
}

// CreateDonationRequest holds payload from the public donation form.
type CreateDonationRequest struct {
	DonorName   string                `json:"donor_name" validate:"required"`
	DonorEmail  string                `json:"donor_email" validate:"required,email"`
	Amount      int64                 `json:"amount" validate:"required,min=1000"`
	Type        string                `json:"type" validate:"required"`
	Method      models.DonationMethod `json:"method" validate:"required"`
	IsAnonymous bool                  `json:"is_anonymous"`
}

// DonationService handles donation intake, settlement and export.
type DonationService struct {
	repo      donationRepository
	gateway   snapGateway
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDonationService constructs the donation service.
func NewDonationService(repo donationRepository, gateway snapGateway, validate *validator.Validate, logger *zap.Logger) *DonationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DonationService{
		repo:      repo,
		gateway:   gateway,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
	}
}

// List returns donations for the admin dashboard.
func (s *DonationService) List(ctx context.Context, filter models.DonationFilter) ([]models.Donation, *models.Pagination, error) {
	donations, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list donations")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return donations, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one donation.
func (s *DonationService) Get(ctx context.Context, id string) (*models.Donation, error) {
	donation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "donation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load donation")
	}
	return donation, nil
}

// Create records a donation. ONLINE donations additionally request a
// snap token for the hosted payment page; CASH and TRANSFER donations
// stay PENDING until an admin confirms.
func (s *DonationService) Create(ctx context.Context, req CreateDonationRequest) (*models.DonationCheckout, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid donation payload")
	}
	switch req.Method {
	case models.DonationMethodCash, models.DonationMethodTransfer, models.DonationMethodOnline:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid donation method")
	}

	donation := &models.Donation{
		DonorName:   req.DonorName,
		DonorEmail:  req.DonorEmail,
		Amount:      req.Amount,
		Type:        req.Type,
		Method:      req.Method,
		Status:      models.DonationStatusPending,
		Reference:   "DON-" + uuid.NewString()[:8],
		IsAnonymous: req.IsAnonymous,
	}

	checkout := &models.DonationCheckout{}
	if req.Method == models.DonationMethodOnline {
		if s.gateway == nil {
			return nil, appErrors.Clone(appErrors.ErrInternal, "payment gateway is not configured")
		}
		snap, err := s.gateway.CreateTransaction(donation.Reference, donation.Amount, donation.DonorName, donation.DonorEmail)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create payment transaction")
		}
		checkout.SnapToken = snap.Token
		checkout.RedirectURL = snap.RedirectURL
	}

	if err := s.repo.Create(ctx, donation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create donation")
	}
	checkout.Donation = *donation
	return checkout, nil
}

// Confirm marks a donation as PAID. Used by admins for offline methods
// and by the payment webhook for online ones.
func (s *DonationService) Confirm(ctx context.Context, id string) (*models.Donation, error) {
	donation, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if donation.Status == models.DonationStatusPaid {
		return donation, nil
	}
	if donation.Status == models.DonationStatusCancelled {
		return nil, appErrors.Clone(appErrors.ErrConflict, "donation is cancelled")
	}
	paidAt := time.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, id, models.DonationStatusPaid, &paidAt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to confirm donation")
	}
	donation.Status = models.DonationStatusPaid
	donation.PaidAt = &paidAt
	return donation, nil
}

// Cancel marks a pending donation as CANCELLED.
func (s *DonationService) Cancel(ctx context.Context, id string) (*models.Donation, error) {
	donation, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if donation.Status == models.DonationStatusPaid {
		return nil, appErrors.Clone(appErrors.ErrConflict, "paid donation cannot be cancelled")
	}
	if err := s.repo.UpdateStatus(ctx, id, models.DonationStatusCancelled, nil); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel donation")
	}
	donation.Status = models.DonationStatusCancelled
	return donation, nil
}

// VerifyWebhookSignature checks that a gateway callback was signed
// with our server key before any status change is applied.
func (s *DonationService) VerifyWebhookSignature(orderID, statusCode, grossAmount, signature string) bool {
	return s.gateway.VerifySignature(orderID, statusCode, grossAmount, signature)
}

// SettleByReference settles a donation from a gateway callback.
func (s *DonationService) SettleByReference(ctx context.Context, reference string) (*models.Donation, error) {
	donation, err := s.repo.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "donation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load donation")
	}
	return s.Confirm(ctx, donation.ID)
}

// CancelByReference cancels a donation from a gateway callback
// reporting denial or expiry.
func (s *DonationService) CancelByReference(ctx context.Context, reference string) (*models.Donation, error) {
	donation, err := s.repo.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "donation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load donation")
	}
	if donation.Status == models.DonationStatusCancelled {
		return donation, nil
	}
	return s.Cancel(ctx, donation.ID)
}

// Summary aggregates totals for the dashboard.
func (s *DonationService) Summary(ctx context.Context) (*models.DonationSummary, error) {
	summary, err := s.repo.Summary(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load donation summary")
	}
	return summary, nil
}

// Export renders donations matching the filter as CSV or PDF bytes.
func (s *DonationService) Export(ctx context.Context, filter models.DonationFilter, format string) ([]byte, string, error) {
	filter.Page = 1
	filter.PageSize = 100
	donations, _, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load donations for export")
	}

	dataset := export.Dataset{
		Headers: []string{"Reference", "Donor", "Amount", "Type", "Method", "Status", "Date"},
	}
	var totalPaid int64
	for _, d := range donations {
		donor := d.DonorName
		if d.IsAnonymous {
			donor = "Hamba Allah"
		}
		if d.Status == models.DonationStatusPaid {
			totalPaid += d.Amount
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Reference": d.Reference,
			"Donor":     donor,
			"Amount":    strconv.FormatInt(d.Amount, 10),
			"Type":      d.Type,
			"Method":    string(d.Method),
			"Status":    string(d.Status),
			"Date":      d.CreatedAt.Format("2006-01-02"),
		})
	}

	switch format {
	case "csv":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", nil
	case "pdf":
		summary := fmt.Sprintf("Total diterima: Rp %s", formatAmount(totalPaid))
		payload, err := s.pdf.Render(dataset, "Laporan Donasi", summary)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func formatAmount(amount int64) string {
	raw := strconv.FormatInt(amount, 10)
	var out []byte
	for i, ch := range []byte(raw) {
		if i > 0 && (len(raw)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, ch)
	}
	return string(out)
}
