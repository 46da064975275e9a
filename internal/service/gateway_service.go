package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/rumahtahfidz/pesantren-api/internal/models"
	appErrors "github.com/rumahtahfidz/pesantren-api/pkg/errors"
)

// pgUndefinedTable is raised when the payment_gateways relation has not
// been migrated yet.
const pgUndefinedTable = "42P01"

// DummyDataMessage accompanies the fallback listing so the dashboard
// can tell placeholder rows from real configuration.
const DummyDataMessage = "Using dummy data - database table not ready"

type gatewayRepository interface {
	List(ctx context.Context, filter models.GatewayFilter) ([]models.PaymentGateway, error)
	FindByID(ctx context.Context, id string) (*models.PaymentGateway, error)
	Create(ctx context.Context, gateway *models.PaymentGateway) error
	Update(ctx context.Context, gateway *models.PaymentGateway) error
	SetActive(ctx context.Context, id string, active bool) error
}

// SaveGatewayRequest holds payload for creating or updating a gateway.
type SaveGatewayRequest struct {
	Name     string          `json:"name" validate:"required"`
	Type     string          `json:"type" validate:"required"`
	Provider string          `json:"provider" validate:"required"`
	IsActive bool            `json:"is_active"`
	Config   json.RawMessage `json:"config"`
	Fees     json.RawMessage `json:"fees"`
}

// GatewayListResult carries the gateways plus an optional message when
// the listing fell back to dummy data.
type GatewayListResult struct {
	Gateways []models.PaymentGateway `json:"gateways"`
	Message  string                  `json:"message,omitempty"`
	IsDummy  bool                    `json:"is_dummy"`
}

// GatewayService manages payment gateway configuration.
type GatewayService struct {
	repo      gatewayRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGatewayService constructs the gateway service.
func NewGatewayService(repo gatewayRepository, validate *validator.Validate, logger *zap.Logger) *GatewayService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GatewayService{repo: repo, validator: validate, logger: logger}
}

// List returns configured gateways. When the table does not exist yet
// the settings screen still needs to render, so placeholder rows are
// served instead of a 500. Only undefined_table gets this treatment;
// every other failure is a real error.
func (s *GatewayService) List(ctx context.Context, filter models.GatewayFilter) (*GatewayListResult, error) {
	gateways, err := s.repo.List(ctx, filter)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pgUndefinedTable {
			s.logger.Warn("payment_gateways table missing, serving dummy data")
			return &GatewayListResult{
				Gateways: models.DummyGateways(),
				Message:  DummyDataMessage,
				IsDummy:  true,
			}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payment gateways")
	}
	return &GatewayListResult{Gateways: gateways}, nil
}

// Get returns one gateway.
func (s *GatewayService) Get(ctx context.Context, id string) (*models.PaymentGateway, error) {
	gateway, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment gateway not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment gateway")
	}
	return gateway, nil
}

// Create stores a gateway configuration.
func (s *GatewayService) Create(ctx context.Context, req SaveGatewayRequest) (*models.PaymentGateway, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid gateway payload")
	}
	gateway := &models.PaymentGateway{
		Name:     req.Name,
		Type:     req.Type,
		Provider: req.Provider,
		IsActive: req.IsActive,
		Config:   req.Config,
		Fees:     req.Fees,
	}
	if err := s.repo.Create(ctx, gateway); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create payment gateway")
	}
	return gateway, nil
}

// Update modifies a gateway configuration.
func (s *GatewayService) Update(ctx context.Context, id string, req SaveGatewayRequest) (*models.PaymentGateway, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid gateway payload")
	}
	gateway, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	gateway.Name = req.Name
	gateway.Type = req.Type
	gateway.Provider = req.Provider
	gateway.IsActive = req.IsActive
	gateway.Config = req.Config
	gateway.Fees = req.Fees
	if err := s.repo.Update(ctx, gateway); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update payment gateway")
	}
	return gateway, nil
}

// SetActive toggles a gateway on or off.
func (s *GatewayService) SetActive(ctx context.Context, id string, active bool) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle payment gateway")
	}
	return nil
}
