package service

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rumahtahfidz/pesantren-api/internal/models"
	appErrors "github.com/rumahtahfidz/pesantren-api/pkg/errors"
)

func TestResolveScopeAdminSeesAll(t *testing.T) {
	scope, err := ResolveScope(&models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Empty(t, scope.MusyrifID)
}

func TestResolveScopeMusyrifRestricted(t *testing.T) {
	scope, err := ResolveScope(&models.JWTClaims{UserID: "mus-1", Role: models.RoleMusyrif})
	require.NoError(t, err)
	assert.Equal(t, "mus-1", scope.MusyrifID)
}

func TestResolveScopeOtherRolesDenied(t *testing.T) {
	_, err := ResolveScope(&models.JWTClaims{UserID: "wali-1", Role: models.RoleWali})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusForbidden, appErr.Status)
}

func TestResolveScopeNilClaims(t *testing.T) {
	_, err := ResolveScope(nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusUnauthorized, appErr.Status)
}
