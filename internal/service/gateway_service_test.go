package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rumahtahfidz/pesantren-api/internal/models"
	appErrors "github.com/rumahtahfidz/pesantren-api/pkg/errors"
)

type mockGatewayRepo struct {
	gateways []models.PaymentGateway
	listErr  error
	toggled  map[string]bool
}

func (m *mockGatewayRepo) List(ctx context.Context, filter models.GatewayFilter) ([]models.PaymentGateway, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.gateways, nil
}

func (m *mockGatewayRepo) FindByID(ctx context.Context, id string) (*models.PaymentGateway, error) {
	for _, g := range m.gateways {
		if g.ID == id {
			return &g, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockGatewayRepo) Create(ctx context.Context, gateway *models.PaymentGateway) error {
	if gateway.ID == "" {
		gateway.ID = "generated"
	}
	m.gateways = append(m.gateways, *gateway)
	return nil
}

func (m *mockGatewayRepo) Update(ctx context.Context, gateway *models.PaymentGateway) error {
	for i, g := range m.gateways {
		if g.ID == gateway.ID {
			m.gateways[i] = *gateway
		}
	}
	return nil
}

func (m *mockGatewayRepo) SetActive(ctx context.Context, id string, active bool) error {
	if m.toggled == nil {
		m.toggled = make(map[string]bool)
	}
	m.toggled[id] = active
	return nil
}

func TestGatewayServiceListFallsBackOnMissingTable(t *testing.T) {
	repo := &mockGatewayRepo{listErr: &pq.Error{Code: "42P01"}}
	svc := NewGatewayService(repo, nil, nil)

	result, err := svc.List(context.Background(), models.GatewayFilter{})
	require.NoError(t, err)
	assert.True(t, result.IsDummy)
	assert.Equal(t, DummyDataMessage, result.Message)
	require.Len(t, result.Gateways, 2)
	assert.Equal(t, "Midtrans", result.Gateways[0].Name)
	assert.Equal(t, "QRIS", result.Gateways[1].Name)
}

func TestGatewayServiceListOtherPqErrorsSurface(t *testing.T) {
	// undefined_column must not trigger the fallback.
	repo := &mockGatewayRepo{listErr: &pq.Error{Code: "42703"}}
	svc := NewGatewayService(repo, nil, nil)

	_, err := svc.List(context.Background(), models.GatewayFilter{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
}

func TestGatewayServiceListGenericErrorSurfaces(t *testing.T) {
	repo := &mockGatewayRepo{listErr: assert.AnError}
	svc := NewGatewayService(repo, nil, nil)

	_, err := svc.List(context.Background(), models.GatewayFilter{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
}

func TestGatewayServiceListHealthyTable(t *testing.T) {
	repo := &mockGatewayRepo{gateways: []models.PaymentGateway{{ID: "gw-1", Name: "Midtrans"}}}
	svc := NewGatewayService(repo, nil, nil)

	result, err := svc.List(context.Background(), models.GatewayFilter{})
	require.NoError(t, err)
	assert.False(t, result.IsDummy)
	assert.Empty(t, result.Message)
	assert.Len(t, result.Gateways, 1)
}

func TestGatewayServiceSetActive(t *testing.T) {
	repo := &mockGatewayRepo{gateways: []models.PaymentGateway{{ID: "gw-1", Name: "Midtrans"}}}
	svc := NewGatewayService(repo, nil, nil)

	require.NoError(t, svc.SetActive(context.Background(), "gw-1", false))
	assert.False(t, repo.toggled["gw-1"])
}
