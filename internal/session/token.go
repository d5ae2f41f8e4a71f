package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoExpiry = errors.New("token has no expiry claim")

// TokenExpiry reads the exp claim of token without verifying its
// signature. Verification is the API's job; the client only needs to know
// whether sending the token is pointless.
func TokenExpiry(token string) (time.Time, error) {
	claims := new(jwt.RegisteredClaims)
	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to decode token: %w", err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read expiry claim: %w", err)
	}
	if exp == nil {
		return time.Time{}, ErrNoExpiry
	}
	return exp.Time, nil
}
