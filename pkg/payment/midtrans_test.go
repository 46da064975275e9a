package payment

import (
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rumahtahfidz/pesantren-api/pkg/config"
)

func TestSnapGatewayVerifySignature(t *testing.T) {
	g := NewSnapGateway(config.MidtransConfig{ServerKey: "server-key"})

	sum := sha512.Sum512([]byte("DON-abc12345" + "200" + "100000.00" + "server-key"))
	valid := hex.EncodeToString(sum[:])

	assert.True(t, g.VerifySignature("DON-abc12345", "200", "100000.00", valid))
	assert.False(t, g.VerifySignature("DON-abc12345", "200", "100000.00", "tampered"))
	// A signature for one order does not validate another.
	assert.False(t, g.VerifySignature("DON-other", "200", "100000.00", valid))
}
