// Package auth issues and verifies the signed session tokens that task
// operations require. Tokens are stateless: verification needs only the
// signing secret and the current time, never a store lookup.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenExpired means the token was well-formed and correctly signed
	// but its expiry time has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers every other verification failure (bad
	// signature, malformed token, wrong signing method, missing subject).
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims carries the authenticated user ID alongside the registered JWT claims.
type Claims struct {
	jwt.RegisteredClaims
	UserID int `json:"user_id"`
}

// IssueToken signs an HS256 token asserting userID, valid for ttl from now.
func IssueToken(userID int, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
	})

	return token.SignedString(secret)
}

// ParseToken verifies signature and expiry and returns the asserted user ID.
func ParseToken(tokenString string, secret []byte) (int, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, ErrTokenInvalid
	}

	if !token.Valid || claims.UserID == 0 {
		return 0, ErrTokenInvalid
	}

	return claims.UserID, nil
}
