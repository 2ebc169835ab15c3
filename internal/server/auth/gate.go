// Package auth holds the credential primitives (bcrypt, TOTP, JWT) and the
// single capability check every protected operation goes through.
package auth

import (
	"slices"

	"github.com/tradexinvest/tradex/internal/common"
	"github.com/tradexinvest/tradex/internal/server/models"
)

// Authorize succeeds when claims are of the required kind and, if roles are
// given, carry one of them. A challenge token therefore never passes a
// check for KindSession.
func Authorize(c *Claims, kind TokenKind, roles ...models.Role) error {
	if c == nil || c.Kind != kind {
		return common.ErrForbidden
	}
	if len(roles) > 0 && !slices.Contains(roles, c.Role) {
		return common.ErrForbidden
	}
	return nil
}
