package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/rumahtahfidz/pesantren-api/internal/models"
)

// GatewayRepository manages persistence for payment gateway configs.
type GatewayRepository struct {
	db *sqlx.DB
}

// NewGatewayRepository constructs a GatewayRepository.
func NewGatewayRepository(db *sqlx.DB) *GatewayRepository {
	return &GatewayRepository{db: db}
}

// List returns gateways matching the filter. Errors propagate untouched
// so callers can inspect driver codes, e.g. an unmigrated relation.
func (r *GatewayRepository) List(ctx context.Context, filter models.GatewayFilter) ([]models.PaymentGateway, error) {
	base := "SELECT id, name, type, provider, is_active, config, fees, created_at, updated_at FROM payment_gateways WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.IsActive)
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}
	base += " ORDER BY name ASC"

	var gateways []models.PaymentGateway
	if err := r.db.SelectContext(ctx, &gateways, base, args...); err != nil {
		return nil, err
	}
	return gateways, nil
}

// FindByID returns a gateway by identifier.
func (r *GatewayRepository) FindByID(ctx context.Context, id string) (*models.PaymentGateway, error) {
	const query = `SELECT id, name, type, provider, is_active, config, fees, created_at, updated_at FROM payment_gateways WHERE id = $1 LIMIT 1`
	var gateway models.PaymentGateway
	if err := r.db.GetContext(ctx, &gateway, query, id); err != nil {
		return nil, err
	}
	return &gateway, nil
}

// Create inserts a gateway configuration.
func (r *GatewayRepository) Create(ctx context.Context, gateway *models.PaymentGateway) error {
	if gateway.ID == "" {
		gateway.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if gateway.CreatedAt.IsZero() {
		gateway.CreatedAt = now
	}
	gateway.UpdatedAt = now
	const query = `INSERT INTO payment_gateways (id, name, type, provider, is_active, config, fees, created_at, updated_at)
        VALUES (:id, :name, :type, :provider, :is_active, :config, :fees, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, gateway); err != nil {
		return fmt.Errorf("create payment gateway: %w", err)
	}
	return nil
}

// Update modifies a gateway configuration.
func (r *GatewayRepository) Update(ctx context.Context, gateway *models.PaymentGateway) error {
	gateway.UpdatedAt = time.Now().UTC()
	const query = `UPDATE payment_gateways SET name = :name, type = :type, provider = :provider, is_active = :is_active, config = :config, fees = :fees, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, gateway); err != nil {
		return fmt.Errorf("update payment gateway: %w", err)
	}
	return nil
}

// SetActive toggles a gateway.
func (r *GatewayRepository) SetActive(ctx context.Context, id string, active bool) error {
	const query = `UPDATE payment_gateways SET is_active = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, active, time.Now().UTC()); err != nil {
		return fmt.Errorf("toggle payment gateway: %w", err)
	}
	return nil
}
