package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
}

// HS256Signer signs service tokens with a secret shared between both services.
type HS256Signer struct {
	secret []byte
}

// NewSignerHS256 creates an HS256 signer. The secret must not be empty.
func NewSignerHS256(secret []byte) (*HS256Signer, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwtx: empty HS256 secret")
	}
	return &HS256Signer{secret: secret}, nil
}

func (s *HS256Signer) Alg() string { return jwt.SigningMethodHS256.Alg() }

// Sign takes your claims and turns them into a signed JWT string.
func (s *HS256Signer) Sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
