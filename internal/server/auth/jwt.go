package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tradexinvest/tradex/internal/common"
	"github.com/tradexinvest/tradex/internal/server/models"
)

// TokenKind separates the restricted pre-2FA token from a full session.
type TokenKind string

const (
	// KindChallenge authorizes only terms acceptance and the 2FA step.
	KindChallenge TokenKind = "challenge"
	// KindSession is issued after a successful 2FA verification.
	KindSession TokenKind = "session"
)

// Claims are the registered JWT claims plus the account role and token kind.
// The account id travels in the subject.
type Claims struct {
	jwt.RegisteredClaims
	Role models.Role `json:"role"`
	Kind TokenKind   `json:"kind"`
}

func (c *Claims) AccountID() string {
	return c.Subject
}

func GenerateToken(accountID string, role models.Role, kind TokenKind, secretKey []byte, validity time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		Role: role,
		Kind: kind,
	})

	return token.SignedString(secretKey)
}

// ParseToken verifies signature and expiry. Only HS256 is accepted.
// Expired tokens yield common.ErrTokenExpired, anything else wrong yields
// common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" || claims.Kind == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
