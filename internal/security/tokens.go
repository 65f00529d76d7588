package security

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoSubject is returned when an access token carries no subject claim
var ErrNoSubject = errors.New("token has no subject")

// TokenSubject returns the subject claim of a cloud access token.
// The signature is not verified; the token came from the identity
// provider over TLS and the subject is only used to label local data.
func TokenSubject(accessToken string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return "", fmt.Errorf("failed to parse access token: %w", err)
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return "", fmt.Errorf("failed to read subject: %w", err)
	}
	if sub == "" {
		return "", ErrNoSubject
	}
	return sub, nil
}
