// Package token reads claims out of the JWT the server issues at login.
package token

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ErrNoExpiry reports a token without a readable exp claim.
var ErrNoExpiry = errors.New("token has no expiry claim")

// Expiry extracts the exp claim from a JWT without verifying the
// signature. Verification is the server's job; the client only needs the
// expiry to know when a stored session is no longer worth presenting.
func Expiry(raw string) (time.Time, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return time.Time{}, err
	}

	switch exp := claims["exp"].(type) {
	case float64:
		return time.Unix(int64(exp), 0), nil
	case json.Number:
		seconds, err := exp.Int64()
		if err != nil {
			return time.Time{}, err
		}
		return time.Unix(seconds, 0), nil
	}
	return time.Time{}, ErrNoExpiry
}
