package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

var (
	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrAudience     = errors.New("jwtx: audience mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// HS256Verifier validates service tokens signed with a shared secret.
type HS256Verifier struct {
	secret []byte
	issuer string
	aud    []string
	leeway time.Duration
}

// NewVerifierHS256 creates a verifier expecting the given issuer and audience.
// Empty values are not enforced.
func NewVerifierHS256(secret []byte, issuer string, aud []string) *HS256Verifier {
	return &HS256Verifier{secret: secret, issuer: issuer, aud: aud, leeway: 5 * time.Second}
}

// Verify validates the JWT string and returns its parsed Claims.
func (v *HS256Verifier) Verify(tokenStr string) (Claims, error) {
	// Expiry is checked below with our own leeway.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("jwtx: parse or verify: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Claims{}, ErrInvalidClaim
	}

	if err := claims.ValidateIssuer(v.issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateAudience(v.aud); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiryWithLeeway(v.leeway); err != nil {
		return Claims{}, err
	}

	return *claims, nil
}
