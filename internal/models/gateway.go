package models

import (
	"encoding/json"
	"time"
)

// PaymentGateway is an admin-configured payment channel definition.
// Config and fees are stored as JSONB columns.
type PaymentGateway struct {
	ID        string          `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Type      string          `db:"type" json:"type"`
	Provider  string          `db:"provider" json:"provider"`
	IsActive  bool            `db:"is_active" json:"is_active"`
	Config    json.RawMessage `db:"config" json:"config"`
	Fees      json.RawMessage `db:"fees" json:"fees"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// GatewayFilter narrows gateway listings. The "ALL" sentinel from the
// dashboard is resolved to nil/empty before reaching the repository.
type GatewayFilter struct {
	IsActive *bool
	Type     string
}

// DummyGateways are served when the payment_gateways relation has not
// been migrated yet, so the settings screen still renders.
func DummyGateways() []PaymentGateway {
	now := time.Now().UTC()
	return []PaymentGateway{
		{
			ID:        "dummy-1",
			Name:      "Midtrans",
			Type:      "CREDIT_CARD",
			Provider:  "MIDTRANS",
			IsActive:  true,
			Config:    json.RawMessage(`{"serverKey":"***","clientKey":"***","isProduction":false}`),
			Fees:      json.RawMessage(`{"percentageFee":2.9,"fixedFee":2000}`),
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:        "dummy-2",
			Name:      "QRIS",
			Type:      "QRIS",
			Provider:  "MIDTRANS",
			IsActive:  true,
			Config:    json.RawMessage(`{"serverKey":"***","clientKey":"***"}`),
			Fees:      json.RawMessage(`{"percentageFee":0.7,"fixedFee":0}`),
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}
