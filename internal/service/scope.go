package service

import (
	"github.com/rumahtahfidz/pesantren-api/internal/models"
	appErrors "github.com/rumahtahfidz/pesantren-api/pkg/errors"
)

// RoleScope is the resolved row visibility for a listing request.
// MusyrifID non-empty restricts rows to halaqah owned by that musyrif.
type RoleScope struct {
	MusyrifID string
}

// ResolveScope maps the caller's role to a row filter. ADMIN sees every
// row, MUSYRIF only rows under their own halaqah. Any other role is
// denied outright rather than silently given an empty scope.
func ResolveScope(claims *models.JWTClaims) (RoleScope, error) {
	if claims == nil {
		return RoleScope{}, appErrors.Clone(appErrors.ErrUnauthorized, "missing credentials")
	}
	switch claims.Role {
	case models.RoleAdmin:
		return RoleScope{}, nil
	case models.RoleMusyrif:
		return RoleScope{MusyrifID: claims.UserID}, nil
	default:
		return RoleScope{}, appErrors.Clone(appErrors.ErrForbidden, "role not permitted")
	}
}
