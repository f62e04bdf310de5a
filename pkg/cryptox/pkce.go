package cryptox

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// PKCEMethodS256 is the only challenge method we send.
const PKCEMethodS256 = "S256"

// PKCEChallenge holds the PKCE verifier and challenge pair.
// The verifier is kept secret by the client, and the challenge is sent to the authorization endpoint.
type PKCEChallenge struct {
	Verifier  string
	Challenge string
	Method    string
}

// GeneratePKCEChallenge creates a new PKCE code verifier and challenge pair.
// The verifier is TokenSize256 random bytes, base64url encoded, per RFC 7636.
func GeneratePKCEChallenge() (*PKCEChallenge, error) {
	verifier, err := GenerateToken(TokenSize256)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PKCE verifier: %w", err)
	}

	return &PKCEChallenge{
		Verifier:  verifier,
		Challenge: S256Challenge(verifier),
		Method:    PKCEMethodS256,
	}, nil
}

// S256Challenge computes BASE64URL(SHA256(verifier)).
func S256Challenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}
