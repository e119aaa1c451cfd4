package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateHandoffToken creates a signed HMAC-SHA256 JWT credential for a
// session handoff.
//
// The token includes the following standard claims:
//   - Issuer    (iss): identifies the service that issued the token
//   - Subject   (sub): the session being transferred
//   - Audience  (aud): the device allowed to pick the session up
//   - IssuedAt  (iat): the current time
//   - ExpiresAt (exp): the current time plus ttl
//
// All parameters are required. Returns an error if any of them are empty
// or zero.
func GenerateHandoffToken(issuer, sessionID, targetDeviceID string, ttl time.Duration, signKey string) (string, error) {
	if issuer == "" || sessionID == "" || targetDeviceID == "" || ttl == 0 || signKey == "" {
		return "", errors.New("invalid params for generating handoff token")
	}

	now := time.Now()
	claims := &jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   sessionID,
		Audience:  jwt.ClaimStrings{targetDeviceID},
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(signKey))
	if err != nil {
		return "", fmt.Errorf("error occurred during signing handoff token: %w", err)
	}

	return signed, nil
}

// ValidateHandoffToken verifies a handoff credential and extracts the
// session and target device it was minted for.
//
// Validation includes:
//   - Signature verification using the provided sign key
//   - Issuer (iss) claim check against the provided issuer
//   - Expiration (exp) claim check
//   - Subject (sub) and Audience (aud) claim presence
func ValidateHandoffToken(tokenString, signKey, issuer string) (sessionID, targetDeviceID string, err error) {
	if tokenString == "" || signKey == "" || issuer == "" {
		return "", "", errors.New("invalid params for validating handoff token")
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(signKey), nil
		},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", "", fmt.Errorf("handoff token validation failed: %w", err)
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" || len(claims.Audience) == 0 {
		return "", "", errors.New("handoff token is missing required claims")
	}

	return claims.Subject, claims.Audience[0], nil
}
