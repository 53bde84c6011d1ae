package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/clubhouse/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// SignSessionToken wraps an opaque session token into an HS256-signed value
// suitable for a cookie. The token travels as the jti claim.
func SignSessionToken(token string, secretKey []byte, expires time.Time) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        token,
		ExpiresAt: jwt.NewNumericDate(expires),
	})

	return t.SignedString(secretKey)
}

// ParseSessionToken verifies a cookie value produced by SignSessionToken and
// returns the session token inside it.
func ParseSessionToken(value string, secretKey []byte) (string, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(value, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrSessionExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.ID == "" {
		return "", common.ErrInvalidToken
	}

	return claims.ID, nil
}
