package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rumahtahfidz/pesantren-api/internal/models"
	appErrors "github.com/rumahtahfidz/pesantren-api/pkg/errors"
	"github.com/rumahtahfidz/pesantren-api/pkg/payment"
)

type mockDonationRepo struct {
	donations map[string]models.Donation
}

func (m *mockDonationRepo) List(ctx context.Context, filter models.DonationFilter) ([]models.Donation, int, error) {
	list := make([]models.Donation, 0, len(m.donations))
	for _, d := range m.donations {
		list = append(list, d)
	}
	return list, len(list), nil
}

func (m *mockDonationRepo) FindByID(ctx context.Context, id string) (*models.Donation, error) {
	if d, ok := m.donations[id]; ok {
		return &d, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockDonationRepo) FindByReference(ctx context.Context, reference string) (*models.Donation, error) {
	for _, d := range m.donations {
		if d.Reference == reference {
			return &d, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockDonationRepo) Create(ctx context.Context, donation *models.Donation) error {
	if m.donations == nil {
		m.donations = make(map[string]models.Donation)
	}
	if donation.ID == "" {
		donation.ID = "generated"
	}
	m.donations[donation.ID] = *donation
	return nil
}

func (m *mockDonationRepo) UpdateStatus(ctx context.Context, id string, status models.DonationStatus, paidAt *time.Time) error {
	if d, ok := m.donations[id]; ok {
		d.Status = status
		d.PaidAt = paidAt
		m.donations[id] = d
	}
	return nil
}

func (m *mockDonationRepo) Summary(ctx context.Context) (*models.DonationSummary, error) {
	return &models.DonationSummary{TotalCount: len(m.donations)}, nil
}

type mockSnapGateway struct {
	lastOrderID  string
	lastAmount   int64
	err          error
	badSignature bool
}

func (m *mockSnapGateway) CreateTransaction(orderID string, grossAmount int64, donorName, donorEmail string) (*payment.SnapToken, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastOrderID = orderID
	m.lastAmount = grossAmount
	return &payment.SnapToken{Token: "snap-token", RedirectURL: "https://app.sandbox.midtrans.com/snap/v2/vtweb/snap-token"}, nil
}

func (m *mockSnapGateway) VerifySignature(orderID, statusCode, grossAmount, signature string) bool {
	return !m.badSignature
}

func newDonationService(repo *mockDonationRepo, gateway *mockSnapGateway) *DonationService {
	return NewDonationService(repo, gateway, nil, nil)
}

func TestDonationServiceCreateCashStaysPending(t *testing.T) {
	repo := &mockDonationRepo{}
	svc := newDonationService(repo, &mockSnapGateway{})

	checkout, err := svc.Create(context.Background(), CreateDonationRequest{
		DonorName: "Fulan", DonorEmail: "fulan@example.com", Amount: 50000,
		Type: "INFAQ", Method: models.DonationMethodCash,
	})
	require.NoError(t, err)
	assert.Equal(t, models.DonationStatusPending, checkout.Donation.Status)
	assert.True(t, strings.HasPrefix(checkout.Donation.Reference, "DON-"))
	assert.Empty(t, checkout.SnapToken)
}

func TestDonationServiceCreateOnlineRequestsSnapToken(t *testing.T) {
	repo := &mockDonationRepo{}
	gateway := &mockSnapGateway{}
	svc := newDonationService(repo, gateway)

	checkout, err := svc.Create(context.Background(), CreateDonationRequest{
		DonorName: "Fulan", DonorEmail: "fulan@example.com", Amount: 100000,
		Type: "WAKAF", Method: models.DonationMethodOnline,
	})
	require.NoError(t, err)
	assert.Equal(t, "snap-token", checkout.SnapToken)
	assert.NotEmpty(t, checkout.RedirectURL)
	assert.Equal(t, checkout.Donation.Reference, gateway.lastOrderID)
	assert.Equal(t, int64(100000), gateway.lastAmount)
}

func TestDonationServiceCreateOnlineGatewayFailure(t *testing.T) {
	gateway := &mockSnapGateway{err: assert.AnError}
	svc := newDonationService(&mockDonationRepo{}, gateway)

	_, err := svc.Create(context.Background(), CreateDonationRequest{
		DonorName: "Fulan", DonorEmail: "fulan@example.com", Amount: 100000,
		Type: "WAKAF", Method: models.DonationMethodOnline,
	})
	require.Error(t, err)
}

func TestDonationServiceCreateBelowMinimum(t *testing.T) {
	svc := newDonationService(&mockDonationRepo{}, &mockSnapGateway{})

	_, err := svc.Create(context.Background(), CreateDonationRequest{
		DonorName: "Fulan", DonorEmail: "fulan@example.com", Amount: 500,
		Type: "INFAQ", Method: models.DonationMethodCash,
	})
	require.Error(t, err)
}

func TestDonationServiceConfirmIdempotent(t *testing.T) {
	paidAt := time.Now().UTC()
	repo := &mockDonationRepo{donations: map[string]models.Donation{
		"don-1": {ID: "don-1", Status: models.DonationStatusPaid, PaidAt: &paidAt},
	}}
	svc := newDonationService(repo, &mockSnapGateway{})

	donation, err := svc.Confirm(context.Background(), "don-1")
	require.NoError(t, err)
	assert.Equal(t, models.DonationStatusPaid, donation.Status)
	assert.Equal(t, &paidAt, donation.PaidAt)
}

func TestDonationServiceConfirmCancelledConflict(t *testing.T) {
	repo := &mockDonationRepo{donations: map[string]models.Donation{
		"don-1": {ID: "don-1", Status: models.DonationStatusCancelled},
	}}
	svc := newDonationService(repo, &mockSnapGateway{})

	_, err := svc.Confirm(context.Background(), "don-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestDonationServiceCancelPaidConflict(t *testing.T) {
	repo := &mockDonationRepo{donations: map[string]models.Donation{
		"don-1": {ID: "don-1", Status: models.DonationStatusPaid},
	}}
	svc := newDonationService(repo, &mockSnapGateway{})

	_, err := svc.Cancel(context.Background(), "don-1")
	require.Error(t, err)
}

func TestDonationServiceSettleByReference(t *testing.T) {
	repo := &mockDonationRepo{donations: map[string]models.Donation{
		"don-1": {ID: "don-1", Reference: "DON-abc12345", Status: models.DonationStatusPending},
	}}
	svc := newDonationService(repo, &mockSnapGateway{})

	donation, err := svc.SettleByReference(context.Background(), "DON-abc12345")
	require.NoError(t, err)
	assert.Equal(t, models.DonationStatusPaid, donation.Status)
	assert.NotNil(t, donation.PaidAt)
}

func TestDonationServiceCancelByReferenceIdempotent(t *testing.T) {
	repo := &mockDonationRepo{donations: map[string]models.Donation{
		"don-1": {ID: "don-1", Reference: "DON-abc12345", Status: models.DonationStatusCancelled},
	}}
	svc := newDonationService(repo, &mockSnapGateway{})

	donation, err := svc.CancelByReference(context.Background(), "DON-abc12345")
	require.NoError(t, err)
	assert.Equal(t, models.DonationStatusCancelled, donation.Status)
}

func TestDonationServiceExportCSVMasksAnonymousDonors(t *testing.T) {
	repo := &mockDonationRepo{donations: map[string]models.Donation{
		"don-1": {ID: "don-1", Reference: "DON-1", DonorName: "Fulan", IsAnonymous: true, Amount: 50000, Status: models.DonationStatusPaid, CreatedAt: time.Now()},
	}}
	svc := newDonationService(repo, &mockSnapGateway{})

	payload, contentType, err := svc.Export(context.Background(), models.DonationFilter{}, "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Contains(t, string(payload), "Hamba Allah")
	assert.NotContains(t, string(payload), "Fulan")
}

func TestDonationServiceExportPDF(t *testing.T) {
	repo := &mockDonationRepo{donations: map[string]models.Donation{
		"don-1": {ID: "don-1", Reference: "DON-1", DonorName: "Fulan", Amount: 1250000, Status: models.DonationStatusPaid, CreatedAt: time.Now()},
	}}
	svc := newDonationService(repo, &mockSnapGateway{})

	payload, contentType, err := svc.Export(context.Background(), models.DonationFilter{}, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.NotEmpty(t, payload)
}

func TestDonationServiceExportUnknownFormat(t *testing.T) {
	svc := newDonationService(&mockDonationRepo{}, &mockSnapGateway{})

	_, _, err := svc.Export(context.Background(), models.DonationFilter{}, "xlsx")
	require.Error(t, err)
}

func TestFormatAmountThousandsSeparator(t *testing.T) {
	assert.Equal(t, "1.250.000", formatAmount(1250000))
	assert.Equal(t, "999", formatAmount(999))
	assert.Equal(t, "50.000", formatAmount(50000))
}
