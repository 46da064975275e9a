package payment

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"

	"github.com/rumahtahfidz/pesantren-api/pkg/config"
)

// SnapToken is the result of creating a hosted payment page transaction.
type SnapToken struct {
	Token       string
	RedirectURL string
}

// SnapGateway wraps the Midtrans Snap client for donation checkout.
type SnapGateway struct {
	client    snap.Client
	serverKey string
}

// NewSnapGateway configures a Snap client. Sandbox is used unless
// production mode is enabled.
func NewSnapGateway(cfg config.MidtransConfig) *SnapGateway {
	env := midtrans.Sandbox
	if cfg.Production {
		env = midtrans.Production
	}

	g := &SnapGateway{serverKey: cfg.ServerKey}
	g.client.New(cfg.ServerKey, env)
	return g
}

// VerifySignature checks the signature_key of a payment notification.
// Midtrans signs SHA512(order_id + status_code + gross_amount +
// server_key).
func (g *SnapGateway) VerifySignature(orderID, statusCode, grossAmount, signature string) bool {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + g.serverKey))
	expected := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

// CreateTransaction requests a snap token for the given order.
func (g *SnapGateway) CreateTransaction(orderID string, grossAmount int64, donorName, donorEmail string) (*SnapToken, error) {
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: grossAmount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: donorName,
			Email: donorEmail,
		},
	}

	resp, err := g.client.CreateTransaction(req)
	if err != nil {
		return nil, fmt.Errorf("midtrans create transaction %s: %w", orderID, err)
	}

	return &SnapToken{Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
}
