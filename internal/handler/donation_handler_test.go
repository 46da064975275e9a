package handler

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rumahtahfidz/pesantren-api/internal/models"
	"github.com/rumahtahfidz/pesantren-api/internal/service"
	"github.com/rumahtahfidz/pesantren-api/pkg/payment"
)

type donationRepoStub struct{}

func (donationRepoStub) List(ctx context.Context, filter models.DonationFilter) ([]models.Donation, int, error) {
	return nil, 0, nil
}

func (donationRepoStub) FindByID(ctx context.Context, id string) (*models.Donation, error) {
	return nil, sql.ErrNoRows
}

func (donationRepoStub) FindByReference(ctx context.Context, reference string) (*models.Donation, error) {
	return nil, sql.ErrNoRows
}

func (donationRepoStub) Create(ctx context.Context, donation *models.Donation) error { return nil }

func (donationRepoStub) UpdateStatus(ctx context.Context, id string, status models.DonationStatus, paidAt *time.Time) error {
	return nil
}

func (donationRepoStub) Summary(ctx context.Context) (*models.DonationSummary, error) {
	return &models.DonationSummary{}, nil
}

type snapGatewayStub struct {
	signatureOK bool
}

func (s snapGatewayStub) CreateTransaction(orderID string, grossAmount int64, donorName, donorEmail string) (*payment.SnapToken, error) {
	return &payment.SnapToken{Token: "snap-token"}, nil
}

func (s snapGatewayStub) VerifySignature(orderID, statusCode, grossAmount, signature string) bool {
	return s.signatureOK
}

func webhookRequest(t *testing.T, gateway snapGatewayStub, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	handler := NewDonationHandler(service.NewDonationService(donationRepoStub{}, gateway, nil, nil))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/donations/webhook", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Webhook(c)
	return w
}

func TestDonationHandlerWebhookRejectsBadSignature(t *testing.T) {
	w := webhookRequest(t, snapGatewayStub{signatureOK: false},
		`{"order_id":"DON-abc12345","status_code":"200","gross_amount":"100000.00","transaction_status":"settlement","signature_key":"forged"}`)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid webhook signature")
}

func TestDonationHandlerWebhookIgnoresPendingStatus(t *testing.T) {
	w := webhookRequest(t, snapGatewayStub{signatureOK: true},
		`{"order_id":"DON-abc12345","status_code":"201","gross_amount":"100000.00","transaction_status":"pending","signature_key":"signed"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ignored")
}
